package quotedoc

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/sangkips/quotation-api/pkg/asset"
	"github.com/sangkips/quotation-api/pkg/pdfmerge"
	"golang.org/x/sync/singleflight"
)

// LetterheadCache loads the letterhead once per process. Concurrent first
// callers share a single load; a failed load is not remembered, so the next
// call retries.
type LetterheadCache struct {
	source asset.Source

	// sf collapses concurrent loads into one.
	sf singleflight.Group

	mu  sync.RWMutex
	tpl *pdfmerge.Template

	loads atomic.Int64
}

// NewLetterheadCache creates a cache over source. Nothing is read until first use.
func NewLetterheadCache(source asset.Source) *LetterheadCache {
	return &LetterheadCache{source: source}
}

// NewLetterheadCacheFromTemplate returns a cache already holding tpl.
func NewLetterheadCacheFromTemplate(tpl *pdfmerge.Template) *LetterheadCache {
	return &LetterheadCache{tpl: tpl}
}

// Get returns the cached letterhead, loading it on first use.
func (c *LetterheadCache) Get(ctx context.Context) (*pdfmerge.Template, error) {
	if tpl := c.cached(); tpl != nil {
		return tpl, nil
	}

	v, err, _ := c.sf.Do("letterhead", func() (interface{}, error) {
		if tpl := c.cached(); tpl != nil {
			return tpl, nil
		}
		if c.source == nil {
			return nil, fmt.Errorf("no letterhead source configured")
		}

		tpl, err := c.load(ctx)
		if err != nil {
			log.Printf("Failed to load letterhead from %s: %v", c.source.Location(), err)
			return nil, err
		}

		c.mu.Lock()
		c.tpl = tpl
		c.mu.Unlock()

		log.Printf("Letterhead loaded from %s (%d pages)", c.source.Location(), tpl.PageCount())
		return tpl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pdfmerge.Template), nil
}

// Loads reports how many times the source has been read.
func (c *LetterheadCache) Loads() int64 {
	return c.loads.Load()
}

func (c *LetterheadCache) cached() *pdfmerge.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tpl
}

func (c *LetterheadCache) load(ctx context.Context) (*pdfmerge.Template, error) {
	c.loads.Add(1)

	b, err := asset.ReadAll(ctx, c.source)
	if err != nil {
		return nil, err
	}
	tpl, err := pdfmerge.LoadTemplate(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse letterhead %s: %w", c.source.Location(), err)
	}
	return tpl, nil
}
