package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/sangkips/quotation-api/pkg/quotedoc"
	"golang.org/x/sync/errgroup"
)

type renderer interface {
	Render(ctx context.Context, req *quotedoc.Request) (*quotedoc.RenderedDocument, error)
}

// batch renders a set of request files through one renderer, so every
// document shares the same letterhead cache.
type batch struct {
	pipeline renderer
	outDir   string
	workers  int
}

type result struct {
	Input  string
	Output string
	Pages  int
	Err    error
}

// run renders every input. One failed document does not stop the others;
// the returned error reports how many failed. results keeps input order.
func (b *batch) run(ctx context.Context, inputs []string) ([]result, error) {
	results := make([]result, len(inputs))
	var failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	if b.workers > 0 {
		g.SetLimit(b.workers)
	}

	for i, in := range inputs {
		g.Go(func() error {
			results[i] = b.renderOne(ctx, in)
			if results[i].Err != nil {
				failed.Add(1)
			}
			// Cancellation is the only error that aborts the batch.
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if n := failed.Load(); n > 0 {
		return results, fmt.Errorf("%d of %d documents failed", n, len(inputs))
	}
	return results, nil
}

func (b *batch) renderOne(ctx context.Context, input string) result {
	res := result{Input: input}

	req, err := readRequest(input)
	if err != nil {
		res.Err = err
		return res
	}

	doc, err := b.pipeline.Render(ctx, req)
	if err != nil {
		var qerr *quotedoc.Error
		if errors.As(err, &qerr) {
			res.Err = fmt.Errorf("%s stage: %w", qerr.Stage, err)
		} else {
			res.Err = err
		}
		return res
	}

	res.Output = filepath.Join(b.outDir, req.Filename())
	if err := os.WriteFile(res.Output, doc.Bytes, 0o644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", res.Output, err)
		return res
	}
	res.Pages = doc.PageCount
	return res
}

func readRequest(path string) (*quotedoc.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var req quotedoc.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &req, nil
}
