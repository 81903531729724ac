// Package pdfmerge overlays generated content pages onto the pages of a
// letterhead PDF, producing byte-identical output for identical inputs.
package pdfmerge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	ErrCorrupt       = errors.New("pdfmerge: unreadable document")
	ErrGeometry      = errors.New("pdfmerge: incompatible page geometry")
	ErrEmptyDocument = errors.New("pdfmerge: document has no pages")
)

// tolerance absorbs rounding differences between tools writing the "same"
// paper size, e.g. 595.28 and 595.276 for A4.
const tolerance = 1.0

// Template is a parsed letterhead. It is immutable once loaded and may be
// shared by concurrent Overlay calls.
type Template struct {
	doc *document
}

// LoadTemplate parses and validates a letterhead PDF.
func LoadTemplate(rs io.ReadSeeker) (*Template, error) {
	doc, err := readDocument(rs)
	if err != nil {
		return nil, err
	}
	return &Template{doc: doc}, nil
}

// PageCount returns the number of letterhead pages.
func (t *Template) PageCount() int {
	return len(t.doc.pages)
}

// PageSize returns the width and height in points of letterhead page i.
func (t *Template) PageSize(i int) (width, height float64) {
	p := t.doc.pages[t.pageFor(i)]
	return p.media.width(), p.media.height()
}

// pageFor clamps i to the last letterhead page.
func (t *Template) pageFor(i int) int {
	return min(i, len(t.doc.pages)-1)
}

// Info is written into the output's document information dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
	Created  time.Time
}

// Result is the composited document.
type Result struct {
	PDF   []byte
	Pages int
}

const (
	catalogObj = 1
	pagesObj   = 2
	infoObj    = 3
	firstFree  = 4

	letterheadName = "Lh"
	contentName    = "Ct"
)

// Overlay draws every page of content over letterhead page min(i, M-1).
// Output pages take the letterhead page's size; content keeps its own
// bottom-left origin and is not scaled.
func Overlay(content []byte, tpl *Template, info Info) (*Result, error) {
	if tpl == nil || len(tpl.doc.pages) == 0 {
		return nil, ErrEmptyDocument
	}
	doc, err := readDocument(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	for i, p := range doc.pages {
		bg := tpl.doc.pages[tpl.pageFor(i)]
		if p.media.width() > bg.media.width()+tolerance || p.media.height() > bg.media.height()+tolerance {
			return nil, fmt.Errorf("%w: content page %d is %.2fx%.2f, letterhead page %d is %.2fx%.2f",
				ErrGeometry, i+1, p.media.width(), p.media.height(),
				tpl.pageFor(i)+1, bg.media.width(), bg.media.height())
		}
	}

	w := newWriter()
	next := firstFree

	// Only the letterhead pages actually used are emitted.
	var bgRoots []int
	seen := make(map[int]bool)
	for i := range doc.pages {
		f := tpl.doc.pages[tpl.pageFor(i)].form
		if !seen[f] {
			seen[f] = true
			bgRoots = append(bgRoots, f)
		}
	}
	bgMap := make(map[int]int)
	for _, n := range tpl.doc.graph.reachable(bgRoots) {
		bgMap[n] = next
		w.add(next, tpl.doc.graph.get(n), bgMap)
		next++
	}

	fgRoots := make([]int, 0, len(doc.pages))
	for _, p := range doc.pages {
		fgRoots = append(fgRoots, p.form)
	}
	fgMap := make(map[int]int)
	for _, n := range doc.graph.reachable(fgRoots) {
		fgMap[n] = next
		w.add(next, doc.graph.get(n), fgMap)
		next++
	}

	kids := make(types.Array, 0, len(doc.pages))
	overlay, err := deflate([]byte("q /" + letterheadName + " Do Q\nq /" + contentName + " Do Q\n"))
	if err != nil {
		return nil, err
	}
	for i, p := range doc.pages {
		bg := tpl.doc.pages[tpl.pageFor(i)]
		pageNum, streamNum := next, next+1
		next += 2

		w.add(pageNum, types.Dict{
			"Type":     types.Name("Page"),
			"Parent":   ref(pagesObj),
			"MediaBox": types.Array{types.Integer(0), types.Integer(0), types.Float(bg.media.width()), types.Float(bg.media.height())},
			"Resources": types.Dict{
				"XObject": types.Dict{
					letterheadName: ref(bgMap[bg.form]),
					contentName:    ref(fgMap[p.form]),
				},
			},
			"Contents": ref(streamNum),
		}, nil)
		w.add(streamNum, types.StreamDict{
			Dict: types.Dict{"Filter": types.Name("FlateDecode")},
			Raw:  overlay,
		}, nil)
		kids = append(kids, ref(pageNum))
	}

	w.add(catalogObj, types.Dict{
		"Type":  types.Name("Catalog"),
		"Pages": ref(pagesObj),
	}, nil)
	w.add(pagesObj, types.Dict{
		"Type":  types.Name("Pages"),
		"Kids":  kids,
		"Count": types.Integer(len(kids)),
	}, nil)
	w.add(infoObj, info.dict(), nil)

	out, err := w.bytes(catalogObj, infoObj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &Result{PDF: out, Pages: len(doc.pages)}, nil
}

func (i Info) dict() types.Dict {
	d := types.Dict{}
	set := func(key, value string) {
		if value != "" {
			d[key] = textString(value)
		}
	}
	set("Title", i.Title)
	set("Author", i.Author)
	set("Subject", i.Subject)
	set("Creator", i.Creator)
	set("Producer", i.Producer)
	if !i.Created.IsZero() {
		d["CreationDate"] = pdfDate(i.Created)
		d["ModDate"] = pdfDate(i.Created)
	}
	return d
}

func ref(n int) types.IndirectRef {
	return types.IndirectRef{ObjectNumber: types.Integer(n)}
}
