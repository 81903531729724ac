package quotedoc

import (
	"context"

	"github.com/sangkips/quotation-api/pkg/pdfdoc"
	"github.com/sangkips/quotation-api/pkg/pdfmerge"
	"github.com/sangkips/quotation-api/pkg/pricing"
)

// Producer is stamped into every rendered document.
const Producer = "quotation-api"

// Pipeline renders quotation requests. It is safe for concurrent use: the
// letterhead cache is its only shared state and is immutable once filled.
type Pipeline struct {
	calc       *pricing.Calculator
	renderer   *pdfdoc.Renderer
	letterhead *LetterheadCache
}

// NewPipeline wires the calculator, layout renderer and letterhead cache.
func NewPipeline(calc *pricing.Calculator, renderer *pdfdoc.Renderer, letterhead *LetterheadCache) *Pipeline {
	return &Pipeline{calc: calc, renderer: renderer, letterhead: letterhead}
}

// Calculator exposes the pricing rules the pipeline prints with.
func (p *Pipeline) Calculator() *pricing.Calculator {
	return p.calc
}

// Render produces the finished document or a *Error; it never returns a
// partial document. ctx bounds only the letterhead fetch.
func (p *Pipeline) Render(ctx context.Context, req *Request) (*RenderedDocument, error) {
	if err := req.Validate(); err != nil {
		return nil, fail(StageValidate, ErrValidation, err)
	}

	totals := p.calc.Aggregate(req.Lines())

	content, err := p.renderer.Render(pdfdoc.Build(p.layoutInput(req, totals)), pdfdoc.Meta{
		Title:   req.Identifier,
		Author:  req.SalespersonName,
		Subject: "Quotation for " + req.Client.CompanyName,
		Created: req.IssueDate,
	})
	if err != nil {
		return nil, fail(StageLayout, ErrComposition, err)
	}

	tpl, err := p.letterhead.Get(ctx)
	if err != nil {
		return nil, fail(StageLetterhead, ErrAssetMissing, err)
	}

	res, err := pdfmerge.Overlay(content.PDF, tpl, pdfmerge.Info{
		Title:    req.Identifier,
		Author:   req.SalespersonName,
		Subject:  "Quotation for " + req.Client.CompanyName,
		Producer: Producer,
		Created:  req.IssueDate,
	})
	if err != nil {
		return nil, fail(StageCompose, ErrComposition, err)
	}

	return &RenderedDocument{Bytes: res.PDF, PageCount: res.Pages}, nil
}

func (p *Pipeline) layoutInput(req *Request, totals pricing.Totals) pdfdoc.Input {
	items := make([]pdfdoc.Item, 0, len(req.LineItems))
	for _, it := range req.LineItems {
		items = append(items, pdfdoc.Item{
			Name:        it.Name,
			Description: it.Description,
			PackSize:    it.PackSize,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       p.calc.LineTotal(it.Quantity, it.UnitPrice),
		})
	}

	return pdfdoc.Input{
		Identifier: req.Identifier,
		IssueDate:  req.IssueDate,
		Client: pdfdoc.Party{
			DisplayName: req.Client.DisplayName,
			CompanyName: req.Client.CompanyName,
			Email:       req.Client.Email,
			Phone:       req.Client.Phone,
		},
		Items:       items,
		Totals:      totals,
		VATLabel:    p.calc.VATLabel(),
		IntroText:   req.IntroText,
		ClosingText: req.ClosingText,
		Terms: pdfdoc.TermsInput{
			Validity:     req.Terms.Validity,
			Delivery:     req.Terms.Delivery,
			PaymentTerms: req.Terms.PaymentTerms,
			Warranty:     req.Terms.Warranty,
			Shipping:     req.Terms.Shipping,
		},
		Salesperson: req.SalespersonName,
	}
}
