// Package report writes quotation registers as Excel workbooks.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	RegisterSheet = "Quotations"
	SummarySheet  = "Summary"

	dateLayout = "02-01-2006"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var registerHeader = []interface{}{
	"Number", "Issue Date", "Client", "Company", "Salesperson", "Status",
	"Currency", "Items", "Subtotal", "VAT", "Grand Total",
}

// Row is one quotation in the register.
type Row struct {
	Number      string
	IssueDate   time.Time
	Client      string
	Company     string
	Salesperson string
	Status      string
	Currency    string
	Items       int
	Subtotal    decimal.Decimal
	VAT         decimal.Decimal
	GrandTotal  decimal.Decimal
}

// WriteRegister writes rows to w as an xlsx workbook with a register sheet
// and a per-status summary sheet. Rows are written in the order given.
func WriteRegister(w io.Writer, title string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RegisterSheet); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "quotation-api"}); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
	})
	if err != nil {
		return err
	}
	amountFormat := "0.000"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(RegisterSheet, "A1", &registerHeader); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(registerHeader), 1)
	if err := f.SetCellStyle(RegisterSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.Number,
			r.IssueDate.Format(dateLayout),
			r.Client,
			r.Company,
			r.Salesperson,
			r.Status,
			r.Currency,
			r.Items,
			r.Subtotal.InexactFloat64(),
			r.VAT.InexactFloat64(),
			r.GrandTotal.InexactFloat64(),
		}
		if err := f.SetSheetRow(RegisterSheet, cell, &values); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		from, _ := excelize.CoordinatesToCellName(9, 2)
		to, _ := excelize.CoordinatesToCellName(11, len(rows)+1)
		if err := f.SetCellStyle(RegisterSheet, from, to, amountStyle); err != nil {
			return err
		}
	}

	for col, width := range map[string]float64{"A": 16, "B": 12, "C": 24, "D": 30, "E": 22, "F": 11, "G": 9, "H": 7, "I": 13, "J": 11, "K": 13} {
		if err := f.SetColWidth(RegisterSheet, col, col, width); err != nil {
			return err
		}
	}
	if err := f.SetPanes(RegisterSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := writeSummary(f, rows, headerStyle, amountStyle); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func writeSummary(f *excelize.File, rows []Row, headerStyle, amountStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	type bucket struct {
		count int
		total decimal.Decimal
	}
	buckets := map[string]*bucket{}
	for _, r := range rows {
		b, ok := buckets[r.Status]
		if !ok {
			b = &bucket{}
			buckets[r.Status] = b
		}
		b.count++
		b.total = b.total.Add(r.GrandTotal)
	}

	statuses := make([]string, 0, len(buckets))
	for s := range buckets {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	header := []interface{}{"Status", "Count", "Grand Total"}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "C1", headerStyle); err != nil {
		return err
	}

	for i, s := range statuses {
		values := []interface{}{s, buckets[s].count, buckets[s].total.InexactFloat64()}
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("C%d", i+2), fmt.Sprintf("C%d", i+2), amountStyle); err != nil {
			return err
		}
	}
	return nil
}
