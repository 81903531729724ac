package quotedoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sangkips/quotation-api/pkg/asset"
	"github.com/sangkips/quotation-api/pkg/pdfdoc"
	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issued = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func letterheadPDF(t *testing.T, pages int) []byte {
	t.Helper()
	a4 := fpdf.SizeType{Wd: 595.28, Ht: 841.89}
	pdf := fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "pt", Size: a4})
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(issued)
	pdf.SetModificationDate(issued)
	pdf.SetFont("Helvetica", "B", 18)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(50, 60, fmt.Sprintf("ACME TRADING LLC %d", i+1))
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

// countingSource serves data, failing the first failures opens.
type countingSource struct {
	data     []byte
	failures int64
	opens    atomic.Int64
	delay    time.Duration
}

func (s *countingSource) Open(ctx context.Context) (io.ReadCloser, error) {
	n := s.opens.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if n <= s.failures {
		return nil, fmt.Errorf("open letterhead: %w", asset.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *countingSource) Location() string { return "memory://letterhead.pdf" }

func newPipeline(t *testing.T, src asset.Source) *Pipeline {
	t.Helper()
	renderer, err := pdfdoc.NewRenderer(pdfdoc.A4())
	require.NoError(t, err)
	return NewPipeline(pricing.Default(), renderer, NewLetterheadCache(src))
}

func request(n int) *Request {
	req := &Request{
		Identifier: "QTN-2026-001",
		IssueDate:  issued,
		Client: Client{
			DisplayName: "Ahmed Said",
			CompanyName: "Gulf Industrial Co.",
			Email:       "ahmed@example.com",
			Phone:       "+968 9000 0000",
		},
		Terms:           Terms{Validity: "30 days", Delivery: "2 weeks", PaymentTerms: "Cash"},
		SalespersonName: "Sara Ali",
	}
	for i := 0; i < n; i++ {
		req.LineItems = append(req.LineItems, LineItem{
			Name:        fmt.Sprintf("Product %d", i+1),
			Description: "Heavy duty engine oil",
			PackSize:    "20L",
			Quantity:    int64(i%3 + 1),
			UnitPrice:   decimal.RequireFromString("4.750"),
		})
	}
	return req
}

func pageCount(t *testing.T, b []byte) int {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(b), conf)
	require.NoError(t, err)
	return n
}

func TestRenderExample(t *testing.T) {
	p := newPipeline(t, asset.NewMemorySource("lh", letterheadPDF(t, 1)))
	req := request(0)
	req.LineItems = []LineItem{
		{Name: "Oil Filter", Quantity: 2, UnitPrice: decimal.RequireFromString("10.500")},
		{Name: "Gear Oil", Quantity: 1, UnitPrice: decimal.RequireFromString("7.250")},
	}

	doc, err := p.Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, doc.PageCount, pageCount(t, doc.Bytes))
	assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF-")))

	totals := p.Calculator().Aggregate(req.Lines())
	assert.Equal(t, "28.250", pricing.Format(totals.Subtotal))
	assert.Equal(t, "1.413", pricing.Format(totals.VAT))
	assert.Equal(t, "29.663", pricing.Format(totals.GrandTotal))
}

func TestRenderEmptyItems(t *testing.T) {
	p := newPipeline(t, asset.NewMemorySource("lh", letterheadPDF(t, 1)))

	doc, err := p.Render(context.Background(), request(0))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount)
}

func TestRenderIsIdempotent(t *testing.T) {
	p := newPipeline(t, asset.NewMemorySource("lh", letterheadPDF(t, 2)))

	first, err := p.Render(context.Background(), request(30))
	require.NoError(t, err)
	second, err := p.Render(context.Background(), request(30))
	require.NoError(t, err)
	assert.Equal(t, first.Bytes, second.Bytes)
}

func TestRenderRepeatedlyIsByteIdentical(t *testing.T) {
	p := newPipeline(t, asset.NewMemorySource("lh", letterheadPDF(t, 1)))

	first, err := p.Render(context.Background(), request(5))
	require.NoError(t, err)

	differing := 0
	for i := 0; i < 50; i++ {
		doc, err := p.Render(context.Background(), request(5))
		require.NoError(t, err)
		if !bytes.Equal(first.Bytes, doc.Bytes) {
			differing++
		}
	}
	assert.Zero(t, differing, "renders differing from the first")
}

func TestRenderPageCountMatchesContent(t *testing.T) {
	tests := []struct {
		name       string
		items      int
		letterhead int
	}{
		{name: "single page", items: 2, letterhead: 1},
		{name: "more content than letterhead", items: 60, letterhead: 1},
		{name: "more letterhead than content", items: 1, letterhead: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, asset.NewMemorySource("lh", letterheadPDF(t, tt.letterhead)))
			req := request(tt.items)

			doc, err := p.Render(context.Background(), req)
			require.NoError(t, err)

			content, err := p.renderer.Render(pdfdoc.Build(p.layoutInput(req, p.calc.Aggregate(req.Lines()))), pdfdoc.Meta{})
			require.NoError(t, err)
			assert.Equal(t, content.Pages, doc.PageCount)
			assert.Equal(t, doc.PageCount, pageCount(t, doc.Bytes))
		})
	}
}

func TestRenderDoesNotModifyRequest(t *testing.T) {
	p := newPipeline(t, asset.NewMemorySource("lh", letterheadPDF(t, 1)))
	req := request(3)
	before := *req
	before.LineItems = append([]LineItem(nil), req.LineItems...)

	_, err := p.Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, before, *req)
}

func TestRenderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{name: "missing issue date", mutate: func(r *Request) { r.IssueDate = time.Time{} }, field: "issue_date"},
		{name: "negative quantity", mutate: func(r *Request) { r.LineItems[0].Quantity = -1 }, field: "line_items[0].quantity"},
		{name: "negative price", mutate: func(r *Request) { r.LineItems[1].UnitPrice = decimal.RequireFromString("-1") }, field: "line_items[1].unit_price"},
		{name: "too precise", mutate: func(r *Request) { r.LineItems[0].UnitPrice = decimal.RequireFromString("1.0001") }, field: "line_items[0].unit_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{data: letterheadPDF(t, 1)}
			p := newPipeline(t, src)
			req := request(2)
			tt.mutate(req)

			doc, err := p.Render(context.Background(), req)
			assert.Nil(t, doc)
			require.ErrorIs(t, err, ErrValidation)
			assert.NotErrorIs(t, err, ErrAssetMissing)

			var rerr *Error
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, StageValidate, rerr.Stage)

			var invalid *InvalidRequestError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Fields[0].Field)
			assert.Zero(t, src.opens.Load())
		})
	}
}

func TestRenderAssetMissing(t *testing.T) {
	p := newPipeline(t, asset.NewFileSource("/nonexistent/letterhead.pdf"))

	doc, err := p.Render(context.Background(), request(2))
	assert.Nil(t, doc)
	require.ErrorIs(t, err, ErrAssetMissing)
	assert.ErrorIs(t, err, asset.ErrNotFound)
	assert.NotErrorIs(t, err, ErrComposition)
}

func TestRenderCorruptLetterhead(t *testing.T) {
	p := newPipeline(t, asset.NewMemorySource("lh", []byte("not a pdf")))

	_, err := p.Render(context.Background(), request(2))
	require.ErrorIs(t, err, ErrAssetMissing)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, StageLetterhead, rerr.Stage)
}

func TestRenderItemTallerThanPage(t *testing.T) {
	p := newPipeline(t, asset.NewMemorySource("lh", letterheadPDF(t, 1)))

	req := request(2)
	req.LineItems[0].Name = strings.Repeat("Synthetic gear oil for heavy machinery. ", 300)
	_, err := p.Render(context.Background(), req)
	require.ErrorIs(t, err, ErrComposition)
	assert.ErrorIs(t, err, pdfdoc.ErrUnitTooTall)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, StageLayout, rerr.Stage)
}

func TestLetterheadLoadsOnceUnderConcurrency(t *testing.T) {
	src := &countingSource{data: letterheadPDF(t, 1), delay: 20 * time.Millisecond}
	p := newPipeline(t, src)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := p.Render(context.Background(), request(5))
			errs[i] = err
			if doc != nil {
				results[i] = doc.Bytes
			}
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, int64(1), src.opens.Load())
	assert.Equal(t, int64(1), p.letterhead.Loads())
}

func TestLetterheadFailureIsNotCached(t *testing.T) {
	src := &countingSource{data: letterheadPDF(t, 1), failures: 1}
	cache := NewLetterheadCache(src)

	_, err := cache.Get(context.Background())
	require.Error(t, err)

	tpl, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tpl.PageCount())

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.opens.Load())
}

func TestLetterheadCacheWithoutSource(t *testing.T) {
	_, err := NewLetterheadCache(nil).Get(context.Background())
	assert.Error(t, err)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fail(StageCompose, ErrComposition, cause)
	assert.ErrorIs(t, err, ErrComposition)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "compose")
}

func TestRequestFilename(t *testing.T) {
	assert.Equal(t, "QTN-2026-001.pdf", request(0).Filename())
	assert.Equal(t, "quotation.pdf", (&Request{}).Filename())
}
