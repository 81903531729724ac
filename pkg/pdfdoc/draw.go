package pdfdoc

import "math"

const (
	bodySize      = 11.0
	bodyLeading   = 14.0
	tableSize     = 10.0
	tableLeading  = 12.0
	cellPadding   = 4.0
	minRowHeight  = 20.0
	spacerHeight  = 8.0
	termsSize     = 12.0
	paragraphGap  = 6.0
	signatureSize = 10.0
)

// rows of the header grid, each wrapped inside its cell.
func (g HeaderGrid) units(f *flow) []unit {
	f.font("", bodySize)
	out := make([]unit, 0, len(g.Rows))
	for r, row := range g.Rows {
		var cells [4][]string
		lines := 1
		for c := range row {
			cells[c] = f.wrap(row[c], g.Widths[c])
			lines = max(lines, len(cells[c]))
		}
		h := math.Max(minRowHeight, float64(lines)*tableLeading+2*cellPadding)
		shaded := r == 0

		out = append(out, unit{
			height: h,
			draw: func(x, y float64) {
				f.font("", bodySize)
				if shaded {
					f.pdf.SetFillColor(211, 211, 211)
				}
				cx := x
				for c := range cells {
					style := "D"
					if shaded {
						style = "DF"
					}
					f.pdf.Rect(cx, y, g.Widths[c], h, style)
					f.text(cx, y+cellPadding, g.Widths[c], tableLeading, cells[c], "L")
					cx += g.Widths[c]
				}
			},
		})
	}
	return out
}

// one unit per wrapped line so long paragraphs can break between lines.
func (p Paragraph) units(f *flow) []unit {
	width := f.setup.BodyWidth()
	f.font("", bodySize)

	var out []unit
	for i, text := range p.Texts {
		gap := 0.0
		if i < len(p.Texts)-1 {
			gap = paragraphGap
		}
		out = append(out, f.lines(f.wrap(text, width), "", bodySize, gap)...)
	}
	return out
}

// lines makes one unit per pre-wrapped line; gapAfter pads the last one.
func (f *flow) lines(lines []string, style string, size, gapAfter float64) []unit {
	width := f.setup.BodyWidth()
	out := make([]unit, 0, len(lines))
	for i, l := range lines {
		h := bodyLeading
		if i == len(lines)-1 {
			h += gapAfter
		}
		out = append(out, unit{
			height: h,
			draw: func(x, y float64) {
				f.font(style, size)
				f.text(x, y, width, bodyLeading, []string{l}, "L")
			},
		})
	}
	return out
}

// header row, one unit per item, then the totals rows as a single unit.
func (t ItemTable) units(f *flow) []unit {
	if len(t.Columns) == 0 {
		return nil
	}
	out := make([]unit, 0, len(t.Rows)+2)

	f.font("B", tableSize)
	header := make([][]string, len(t.Columns))
	headerLines := 1
	for c, col := range t.Columns {
		header[c] = f.wrap(col.Title, col.Width)
		headerLines = max(headerLines, len(header[c]))
	}
	headerHeight := math.Max(minRowHeight, float64(headerLines)*tableLeading+2*cellPadding)
	out = append(out, unit{
		height:       headerHeight,
		keepWithNext: len(t.Rows) > 0,
		draw: func(x, y float64) {
			f.font("B", tableSize)
			f.pdf.SetFillColor(230, 230, 230)
			t.row(f, x, y, headerHeight, header, "DF", true)
		},
	})

	for _, r := range t.Rows {
		out = append(out, t.itemUnit(f, r))
	}

	out = append(out, t.totalsUnit(f))
	return out
}

func (t ItemTable) itemUnit(f *flow, r ItemRow) unit {
	values := []string{r.SNo, "", r.PackSize, r.Quantity, r.UnitPrice, r.Total}

	f.font("B", tableSize)
	var name []string
	if len(t.Columns) > 1 {
		name = f.wrap(r.Name, t.Columns[1].Width)
	}

	f.font("", tableSize)
	cells := make([][]string, len(t.Columns))
	lines := 1
	for c, col := range t.Columns {
		if c == 1 {
			cells[c] = f.wrap(r.Description, col.Width)
			lines = max(lines, len(name)+len(cells[c]))
			continue
		}
		if c < len(values) {
			cells[c] = f.wrap(values[c], col.Width)
		}
		lines = max(lines, len(cells[c]))
	}
	h := math.Max(minRowHeight, float64(lines)*tableLeading+2*cellPadding)

	return unit{
		height: h,
		draw: func(x, y float64) {
			f.font("", tableSize)
			t.row(f, x, y, h, cells, "D", false)
			if len(t.Columns) > 1 {
				nx := x + t.Columns[0].Width
				f.font("B", tableSize)
				f.text(nx, y+cellPadding, t.Columns[1].Width, tableLeading, name, "L")
				f.font("", tableSize)
				f.text(nx, y+cellPadding+float64(len(name))*tableLeading, t.Columns[1].Width, tableLeading, cells[1], "L")
			}
		},
	}
}

// totalsUnit keeps the spacer and the three totals rows together. Labels span
// every column but the last; amounts sit right-aligned in the last column.
func (t ItemTable) totalsUnit(f *flow) unit {
	last := len(t.Columns) - 1
	labelWidth := 0.0
	for _, col := range t.Columns[:last] {
		labelWidth += col.Width
	}
	amountWidth := t.Columns[last].Width

	heights := make([]float64, len(t.Totals))
	total := 0.0
	for i, row := range t.Totals {
		heights[i] = minRowHeight
		if row == (TotalRow{}) {
			heights[i] = spacerHeight
		}
		total += heights[i]
	}

	return unit{
		height: total,
		draw: func(x, y float64) {
			for i, row := range t.Totals {
				h := heights[i]
				f.pdf.Rect(x, y, labelWidth, h, "D")
				f.pdf.Rect(x+labelWidth, y, amountWidth, h, "D")
				if row != (TotalRow{}) {
					style := ""
					if row.Strong {
						style = "B"
					}
					f.font(style, tableSize)
					ty := y + (h-tableLeading)/2
					f.text(x, ty, labelWidth, tableLeading, []string{f.tr(row.Label)}, "R")
					f.text(x+labelWidth, ty, amountWidth, tableLeading, []string{f.tr(row.Amount)}, "R")
				}
				y += h
			}
		},
	}
}

// row draws bordered cells; multi-line content starts at the top padding.
func (t ItemTable) row(f *flow, x, y, h float64, cells [][]string, style string, center bool) {
	cx := x
	for c, col := range t.Columns {
		f.pdf.Rect(cx, y, col.Width, h, style)
		align := col.Align
		if center {
			align = "C"
		}
		ty := y + cellPadding
		if center {
			ty = y + (h-float64(len(cells[c]))*tableLeading)/2
		}
		f.text(cx, ty, col.Width, tableLeading, cells[c], align)
		cx += col.Width
	}
}

// bold title glued to the first line, then one unit per term.
func (t Terms) units(f *flow) []unit {
	width := f.setup.BodyWidth()

	f.font("B", termsSize)
	title := f.wrap(t.Title, width)
	titleHeight := float64(len(title))*bodyLeading + paragraphGap

	out := []unit{{
		height:       titleHeight,
		keepWithNext: len(t.Lines) > 0,
		draw: func(x, y float64) {
			f.font("B", termsSize)
			f.text(x, y, width, bodyLeading, title, "L")
		},
	}}

	f.font("", bodySize)
	for _, text := range t.Lines {
		out = append(out, f.lines(f.wrap(text, width), "", bodySize, 0)...)
	}
	return out
}

// closing paragraph, regards, name and title; placed as one by the flow.
func (s Signature) units(f *flow) []unit {
	width := f.setup.BodyWidth()

	f.font("", bodySize)
	closing := f.wrap(s.Closing, width)
	f.font("I", bodySize)
	regards := f.wrap(s.Regards, width)
	f.font("B", signatureSize)
	name := f.wrap(s.Signatory, width)
	f.font("", signatureSize)
	title := f.wrap(s.Title, width)

	var out []unit
	out = append(out, f.lines(closing, "", bodySize, 2*paragraphGap)...)
	out = append(out, f.lines(regards, "I", bodySize, paragraphGap)...)
	out = append(out, f.lines(name, "B", signatureSize, 0)...)
	out = append(out, f.lines(title, "", signatureSize, 0)...)
	return out
}
