package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// ErrUnitTooTall is returned by Render when a row, paragraph or atomic block
// is taller than the body of a page and so cannot be placed anywhere.
var ErrUnitTooTall = errors.New("content taller than the page body")

const (
	fontFamily   = "Helvetica"
	blockSpacing = 14.0
	// epsilon absorbs float drift when comparing a unit's bottom with the page break line.
	epsilon = 0.001
)

// PageSetup is the page size and the margins kept clear for the letterhead, in points.
type PageSetup struct {
	Size   fpdf.SizeType
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// A4 returns the default setup: A4 portrait with 150pt reserved for the
// letterhead header and 110pt for its footer.
func A4() PageSetup {
	return PageSetup{
		Size:   fpdf.SizeType{Wd: 595.28, Ht: 841.89},
		Top:    150,
		Bottom: 110,
		Left:   50,
		Right:  50,
	}
}

// Letter returns a US Letter setup with the same margins as A4.
func Letter() PageSetup {
	s := A4()
	s.Size = fpdf.SizeType{Wd: 612, Ht: 792}
	return s
}

// SetupByName resolves a configured page size name.
func SetupByName(name string) (PageSetup, error) {
	switch name {
	case "", "A4", "a4":
		return A4(), nil
	case "Letter", "letter":
		return Letter(), nil
	}
	return PageSetup{}, fmt.Errorf("unknown page size %q", name)
}

// BodyWidth is the horizontal space between the side margins.
func (s PageSetup) BodyWidth() float64 {
	return s.Size.Wd - s.Left - s.Right
}

// BodyHeight is the vertical space between the top and bottom margins.
func (s PageSetup) BodyHeight() float64 {
	return s.Size.Ht - s.Top - s.Bottom
}

func (s PageSetup) validate() error {
	if s.Size.Wd <= 0 || s.Size.Ht <= 0 {
		return errors.New("page size must be positive")
	}
	if s.BodyWidth() <= 0 || s.BodyHeight() <= 0 {
		return errors.New("margins leave no room for content")
	}
	return nil
}

// Meta is written into the content document's info dictionary. Created is
// also used as the modification date so output never depends on the clock.
type Meta struct {
	Title   string
	Author  string
	Subject string
	Created time.Time
}

// Placement records where one unit of a block landed.
type Placement struct {
	Block  string
	Unit   int
	Page   int
	Top    float64
	Bottom float64
}

// Content is the flowed, not yet composited, document.
type Content struct {
	PDF        []byte
	Pages      int
	Placements []Placement
}

// PagesOf returns the distinct pages a block's units landed on, in order.
func (c *Content) PagesOf(block string) []int {
	var pages []int
	for _, p := range c.Placements {
		if p.Block != block {
			continue
		}
		if len(pages) == 0 || pages[len(pages)-1] != p.Page {
			pages = append(pages, p.Page)
		}
	}
	return pages
}

// Renderer flows blocks onto pages. It holds no per-document state and is
// safe for concurrent use.
type Renderer struct {
	setup PageSetup
}

// NewRenderer creates a renderer for the given page setup.
func NewRenderer(setup PageSetup) (*Renderer, error) {
	if err := setup.validate(); err != nil {
		return nil, err
	}
	return &Renderer{setup: setup}, nil
}

// Setup returns the page setup the renderer flows into.
func (r *Renderer) Setup() PageSetup {
	return r.setup
}

// Render lays the blocks out in order and returns the resulting PDF.
func (r *Renderer) Render(blocks []Block, meta Meta) (*Content, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           r.setup.Size,
	})
	pdf.SetMargins(r.setup.Left, r.setup.Top, r.setup.Right)
	pdf.SetAutoPageBreak(false, r.setup.Bottom)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(meta.Created)
	pdf.SetModificationDate(meta.Created)
	pdf.SetProducer("quotation-api", false)
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	if meta.Author != "" {
		pdf.SetAuthor(meta.Author, true)
	}
	if meta.Subject != "" {
		pdf.SetSubject(meta.Subject, true)
	}
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.AddPage()

	f := &flow{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		setup: r.setup,
	}
	for i, b := range blocks {
		if i > 0 {
			f.skip(blockSpacing)
		}
		if err := f.place(b); err != nil {
			return nil, fmt.Errorf("layout %s block: %w", b.Name(), err)
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("layout %s block: %w", b.Name(), err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write content pdf: %w", err)
	}

	return &Content{
		PDF:        buf.Bytes(),
		Pages:      pdf.PageCount(),
		Placements: f.placements,
	}, nil
}

// unit is the smallest piece of a block that never splits: a table row, a
// wrapped paragraph, a line of terms.
type unit struct {
	height       float64
	keepWithNext bool
	draw         func(x, y float64)
}

type flow struct {
	pdf        *fpdf.Fpdf
	tr         func(string) string
	setup      PageSetup
	placements []Placement
}

func (f *flow) limit() float64 {
	return f.setup.Size.Ht - f.setup.Bottom
}

func (f *flow) atTop() bool {
	return f.pdf.GetY() <= f.setup.Top+epsilon
}

func (f *flow) fits(h float64) bool {
	return f.pdf.GetY()+h <= f.limit()+epsilon
}

func (f *flow) newPage() {
	f.pdf.AddPage()
	f.pdf.SetXY(f.setup.Left, f.setup.Top)
}

// skip advances the cursor; spacing is dropped at the top of a page and
// swallowed by a page break.
func (f *flow) skip(h float64) {
	if f.atTop() {
		return
	}
	if !f.fits(h) {
		f.newPage()
		return
	}
	f.pdf.SetY(f.pdf.GetY() + h)
}

func (f *flow) place(b Block) error {
	units := b.units(f)
	body := f.setup.BodyHeight() + epsilon

	if b.Atomic() {
		total := 0.0
		for _, u := range units {
			total += u.height
		}
		if total > body {
			return fmt.Errorf("%w: %.1fpt of %.1fpt", ErrUnitTooTall, total, f.setup.BodyHeight())
		}
		if !f.fits(total) && !f.atTop() {
			f.newPage()
		}
		for i, u := range units {
			f.draw(b, i, u)
		}
		return nil
	}

	for i, u := range units {
		if u.height > body {
			return fmt.Errorf("%w: unit %d is %.1fpt of %.1fpt", ErrUnitTooTall, i, u.height, f.setup.BodyHeight())
		}
	}
	for i, u := range units {
		need := u.height
		if u.keepWithNext && i+1 < len(units) {
			need += units[i+1].height
		}
		if !f.fits(need) && !f.atTop() {
			f.newPage()
		}
		f.draw(b, i, u)
	}
	return nil
}

func (f *flow) draw(b Block, i int, u unit) {
	y := f.pdf.GetY()
	f.placements = append(f.placements, Placement{
		Block:  b.Name(),
		Unit:   i,
		Page:   f.pdf.PageNo(),
		Top:    y,
		Bottom: y + u.height,
	})
	u.draw(f.setup.Left, y)
	f.pdf.SetXY(f.setup.Left, y+u.height)
}

// wrap splits text into lines that fit width using the current font. Text is
// converted to the core fonts' cp1252 encoding first.
func (f *flow) wrap(text string, width float64) []string {
	if text == "" {
		return nil
	}
	raw := f.pdf.SplitLines([]byte(f.tr(text)), width)
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, string(l))
	}
	return lines
}

func (f *flow) font(style string, size float64) {
	f.pdf.SetFont(fontFamily, style, size)
}

// text draws pre-wrapped lines starting at (x, y).
func (f *flow) text(x, y, w, lineHeight float64, lines []string, align string) {
	for i, l := range lines {
		f.pdf.SetXY(x, y+float64(i)*lineHeight)
		f.pdf.CellFormat(w, lineHeight, l, "", 0, align, false, 0, "")
	}
}
