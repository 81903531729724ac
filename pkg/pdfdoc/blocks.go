// Package pdfdoc lays a quotation out as an ordered list of blocks and flows
// them onto PDF pages, keeping clear of the letterhead's header and footer zones.
package pdfdoc

import (
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/shopspring/decimal"
)

const (
	// DateLayout is how the issue date is printed in the header grid.
	DateLayout = "02-01-2006"

	DefaultSalutation = "Dear Sir,"
	DefaultIntro      = "We thank you for your enquiry and pleased to quote our best price for the following:"
	DefaultClosing    = "Looking forward for your valuable orders. Hope this is in line with your requirement, " +
		"for any further clarifications please feel free to call the undersigned."
	Regards         = "Thanks & regards,"
	SignatoryTitle  = "Sales Executive"
	TermsTitle      = "Terms:"
	subtotalLabel   = "Subtotal"
	grandTotalLabel = "Grand Total"
)

// Block is one visual section of the document. Atomic blocks are never split
// across pages.
type Block interface {
	Name() string
	Atomic() bool
	units(f *flow) []unit
}

// HeaderGrid is the 4-column label/value grid at the top of the first page.
type HeaderGrid struct {
	Widths [4]float64
	Rows   [][4]string
}

// Paragraph is a run of text paragraphs, each wrapped to the body width.
type Paragraph struct {
	Texts []string
}

// Column describes one column of the item table.
type Column struct {
	Title string
	Width float64
	Align string
}

// ItemRow is one rendered line item. All values are preformatted.
type ItemRow struct {
	SNo         string
	Name        string
	Description string
	PackSize    string
	Quantity    string
	UnitPrice   string
	Total       string
}

// TotalRow is a label/amount pair under the Total column. A zero TotalRow is
// the blank spacer row.
type TotalRow struct {
	Label  string
	Amount string
	Strong bool
}

// ItemTable is the product table with its trailing totals rows.
type ItemTable struct {
	Columns []Column
	Rows    []ItemRow
	Totals  []TotalRow
}

// Terms is the bold title followed by numbered term lines.
type Terms struct {
	Title string
	Lines []string
}

// Signature is the closing paragraph and sign-off. It is always kept on one page.
type Signature struct {
	Closing   string
	Regards   string
	Signatory string
	Title     string
}

func (HeaderGrid) Name() string { return "header" }
func (HeaderGrid) Atomic() bool { return false }
func (Paragraph) Name() string  { return "intro" }
func (Paragraph) Atomic() bool  { return false }
func (ItemTable) Name() string  { return "items" }
func (ItemTable) Atomic() bool  { return false }
func (Terms) Name() string      { return "terms" }
func (Terms) Atomic() bool      { return false }
func (Signature) Name() string  { return "signature" }
func (Signature) Atomic() bool  { return true }

// Item is a line item as the layout needs it.
type Item struct {
	Name        string
	Description string
	PackSize    string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Party is the addressee printed in the header grid.
type Party struct {
	DisplayName string
	CompanyName string
	Email       string
	Phone       string
}

// TermsInput holds the free-text terms. Warranty and Shipping are printed
// only when set.
type TermsInput struct {
	Validity     string
	Delivery     string
	PaymentTerms string
	Warranty     string
	Shipping     string
}

// Input is everything the layout needs from a quotation.
type Input struct {
	Identifier  string
	IssueDate   time.Time
	Client      Party
	Items       []Item
	Totals      pricing.Totals
	VATLabel    string
	IntroText   string
	ClosingText string
	Terms       TermsInput
	Salesperson string
}

// ItemColumns are the item table columns; their widths sum to the A4 body width.
var ItemColumns = []Column{
	{Title: "S.No", Width: 35, Align: "C"},
	{Title: "Description", Width: 200, Align: "L"},
	{Title: "Pack Size", Width: 70, Align: "L"},
	{Title: "Qty", Width: 40, Align: "R"},
	{Title: "Unit Price", Width: 70, Align: "R"},
	{Title: "Total", Width: 80, Align: "R"},
}

// Build turns a quotation into its fixed block sequence.
func Build(in Input) []Block {
	vatLabel := in.VATLabel
	if vatLabel == "" {
		vatLabel = pricing.Default().VATLabel()
	}

	rows := make([]ItemRow, 0, len(in.Items))
	for i, it := range in.Items {
		rows = append(rows, ItemRow{
			SNo:         fmt.Sprintf("%d", i+1),
			Name:        it.Name,
			Description: it.Description,
			PackSize:    it.PackSize,
			Quantity:    fmt.Sprintf("%d", it.Quantity),
			UnitPrice:   pricing.Format(it.UnitPrice),
			Total:       pricing.Format(it.Total),
		})
	}

	return []Block{
		HeaderGrid{
			Widths: [4]float64{50, 200, 60, 180},
			Rows: [][4]string{
				{"DATE", in.IssueDate.Format(DateLayout), "QTN No", in.Identifier},
				{"TO", in.Client.CompanyName, "EMAIL", in.Client.Email},
				{"ATTN", in.Client.DisplayName, "PHONE", in.Client.Phone},
			},
		},
		Paragraph{Texts: []string{DefaultSalutation, orDefault(in.IntroText, DefaultIntro)}},
		ItemTable{
			Columns: ItemColumns,
			Rows:    rows,
			Totals: []TotalRow{
				{},
				{Label: subtotalLabel, Amount: pricing.Format(in.Totals.Subtotal)},
				{Label: vatLabel, Amount: pricing.Format(in.Totals.VAT)},
				{Label: grandTotalLabel, Amount: pricing.Format(in.Totals.GrandTotal), Strong: true},
			},
		},
		Terms{Title: TermsTitle, Lines: termLines(in.Terms)},
		Signature{
			Closing:   orDefault(in.ClosingText, DefaultClosing),
			Regards:   Regards,
			Signatory: in.Salesperson,
			Title:     SignatoryTitle,
		},
	}
}

func termLines(t TermsInput) []string {
	type term struct {
		label, value string
		optional     bool
	}
	terms := []term{
		{label: "Validity", value: t.Validity},
		{label: "Delivery", value: t.Delivery},
		{label: "Payment Terms", value: t.PaymentTerms},
		{label: "Warranty", value: t.Warranty, optional: true},
		{label: "Shipping", value: t.Shipping, optional: true},
	}

	lines := make([]string, 0, len(terms))
	for _, tm := range terms {
		value := strings.TrimSpace(tm.value)
		if tm.optional && value == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s", len(lines)+1, tm.label, value))
	}
	return lines
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
