package pdfmerge

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxTreeDepth bounds the page tree walk so a cyclic Kids chain cannot loop forever.
const maxTreeDepth = 64

// graph is a self-contained set of PDF objects. Object n lives at index n-1
// and every indirect reference inside points into the same graph.
type graph struct {
	objects []types.Object
}

func (g *graph) reserve() int {
	g.objects = append(g.objects, nil)
	return len(g.objects)
}

func (g *graph) set(n int, o types.Object) {
	g.objects[n-1] = o
}

func (g *graph) get(n int) types.Object {
	if n < 1 || n > len(g.objects) {
		return nil
	}
	return g.objects[n-1]
}

// reachable returns, in ascending order, every object number reachable from roots.
func (g *graph) reachable(roots []int) []int {
	seen := make(map[int]bool)
	var visit func(o types.Object)
	mark := func(n int) {
		if n < 1 || n > len(g.objects) || seen[n] {
			return
		}
		seen[n] = true
		visit(g.get(n))
	}
	visit = func(o types.Object) {
		switch v := o.(type) {
		case types.IndirectRef:
			mark(int(v.ObjectNumber))
		case types.Dict:
			for _, e := range v {
				visit(e)
			}
		case types.Array:
			for _, e := range v {
				visit(e)
			}
		case types.StreamDict:
			visit(v.Dict)
		}
	}
	for _, r := range roots {
		mark(r)
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// box is a page rectangle in default user space units (points).
type box struct {
	llx, lly, urx, ury float64
}

func (b box) width() float64  { return b.urx - b.llx }
func (b box) height() float64 { return b.ury - b.lly }

func (b box) array() types.Array {
	return types.Array{types.Float(b.llx), types.Float(b.lly), types.Float(b.urx), types.Float(b.ury)}
}

// page is one source page turned into a Form XObject inside a graph.
type page struct {
	form  int
	media box
}

// document holds the pages of a parsed PDF as Form XObjects.
type document struct {
	graph graph
	pages []page
}

func readDocument(rs io.ReadSeeker) (*document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return extract(ctx)
}

// inherited are the page attributes a page may take from its ancestors.
type inherited struct {
	resources types.Object
	mediaBox  types.Object
	rotate    types.Object
}

func extract(ctx *model.Context) (*document, error) {
	if ctx.Root == nil {
		return nil, fmt.Errorf("%w: missing catalog", ErrCorrupt)
	}
	root, err := ctx.DereferenceDict(*ctx.Root)
	if err != nil || root == nil {
		return nil, fmt.Errorf("%w: catalog: %v", ErrCorrupt, err)
	}
	pagesNode, err := ctx.DereferenceDict(root["Pages"])
	if err != nil || pagesNode == nil {
		return nil, fmt.Errorf("%w: page tree: %v", ErrCorrupt, err)
	}

	x := &extractor{ctx: ctx, doc: &document{}, copied: make(map[int]int)}
	if err := x.walk(pagesNode, inherited{}, 0); err != nil {
		return nil, err
	}
	if len(x.doc.pages) == 0 {
		return nil, ErrEmptyDocument
	}
	return x.doc, nil
}

type extractor struct {
	ctx *model.Context
	doc *document
	// copied maps source object numbers to graph object numbers.
	copied map[int]int
}

func (x *extractor) walk(node types.Dict, attrs inherited, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("%w: page tree too deep", ErrCorrupt)
	}
	if v, ok := node["Resources"]; ok {
		attrs.resources = v
	}
	if v, ok := node["MediaBox"]; ok {
		attrs.mediaBox = v
	}
	if v, ok := node["Rotate"]; ok {
		attrs.rotate = v
	}

	kids, hasKids := node["Kids"]
	if !hasKids {
		return x.addPage(node, attrs)
	}

	arr, err := x.ctx.Dereference(kids)
	if err != nil {
		return fmt.Errorf("%w: kids: %v", ErrCorrupt, err)
	}
	list, ok := arr.(types.Array)
	if !ok {
		return fmt.Errorf("%w: kids is %T", ErrCorrupt, arr)
	}
	for _, kid := range list {
		d, err := x.ctx.DereferenceDict(kid)
		if err != nil || d == nil {
			return fmt.Errorf("%w: page node: %v", ErrCorrupt, err)
		}
		if err := x.walk(d, attrs, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) addPage(p types.Dict, attrs inherited) error {
	media, err := x.box(attrs.mediaBox)
	if err != nil {
		return err
	}
	if media.width() <= 0 || media.height() <= 0 {
		return fmt.Errorf("%w: empty media box", ErrGeometry)
	}
	if attrs.rotate != nil {
		r, err := x.number(attrs.rotate)
		if err != nil {
			return err
		}
		if int(r)%360 != 0 {
			return fmt.Errorf("%w: rotated pages are not supported", ErrGeometry)
		}
	}

	content, err := x.content(p["Contents"])
	if err != nil {
		return err
	}
	compressed, err := deflate(content)
	if err != nil {
		return err
	}

	resources := types.Object(types.Dict{})
	if attrs.resources != nil {
		if resources, err = x.copy(attrs.resources); err != nil {
			return err
		}
	}

	form := types.Dict{
		"Type":      types.Name("XObject"),
		"Subtype":   types.Name("Form"),
		"FormType":  types.Integer(1),
		"BBox":      media.array(),
		"Resources": resources,
		"Filter":    types.Name("FlateDecode"),
	}
	if media.llx != 0 || media.lly != 0 {
		form["Matrix"] = types.Array{
			types.Integer(1), types.Integer(0), types.Integer(0), types.Integer(1),
			types.Float(-media.llx), types.Float(-media.lly),
		}
	}

	n := x.doc.graph.reserve()
	x.doc.graph.set(n, types.StreamDict{Dict: form, Raw: compressed})
	x.doc.pages = append(x.doc.pages, page{form: n, media: media})
	return nil
}

// content decodes and concatenates a page's content streams.
func (x *extractor) content(o types.Object) ([]byte, error) {
	if o == nil {
		return nil, nil
	}
	v, err := x.ctx.Dereference(o)
	if err != nil {
		return nil, fmt.Errorf("%w: contents: %v", ErrCorrupt, err)
	}

	switch c := v.(type) {
	case nil:
		return nil, nil
	case types.StreamDict:
		if err := c.Decode(); err != nil {
			return nil, fmt.Errorf("%w: decode contents: %v", ErrCorrupt, err)
		}
		return c.Content, nil
	case types.Array:
		var buf bytes.Buffer
		for _, part := range c {
			b, err := x.content(part)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: contents is %T", ErrCorrupt, v)
}

// copy deep-copies o into the graph. Indirect objects are copied once and
// numbered before their children so reference cycles terminate.
func (x *extractor) copy(o types.Object) (types.Object, error) {
	switch v := o.(type) {
	case types.IndirectRef:
		return x.copyRef(v)
	case *types.IndirectRef:
		if v == nil {
			return nil, nil
		}
		return x.copyRef(*v)
	case types.Dict:
		// Keys are visited in sorted order so copied objects are numbered
		// the same way on every extraction.
		keys := make([]string, 0, len(v))
		for k := range v {
			if k != "Parent" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		out := make(types.Dict, len(keys))
		for _, k := range keys {
			e := v[k]
			c, err := x.copy(e)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case types.Array:
		out := make(types.Array, len(v))
		for i, e := range v {
			c, err := x.copy(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case types.StreamDict:
		return x.copyStream(v)
	}
	return o, nil
}

func (x *extractor) copyRef(ref types.IndirectRef) (types.Object, error) {
	src := int(ref.ObjectNumber)
	if n, ok := x.copied[src]; ok {
		return types.IndirectRef{ObjectNumber: types.Integer(n)}, nil
	}

	n := x.doc.graph.reserve()
	x.copied[src] = n

	obj, err := x.ctx.Dereference(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: object %d: %v", ErrCorrupt, src, err)
	}
	c, err := x.copy(obj)
	if err != nil {
		return nil, err
	}
	x.doc.graph.set(n, c)
	return types.IndirectRef{ObjectNumber: types.Integer(n)}, nil
}

// copyStream keeps the encoded bytes and their filters; Length is rewritten on output.
func (x *extractor) copyStream(sd types.StreamDict) (types.Object, error) {
	d, err := x.copy(sd.Dict)
	if err != nil {
		return nil, err
	}
	dict := d.(types.Dict)
	delete(dict, "Length")

	raw := sd.Raw
	if raw == nil && sd.Content != nil {
		if raw, err = deflate(sd.Content); err != nil {
			return nil, err
		}
		dict["Filter"] = types.Name("FlateDecode")
		delete(dict, "DecodeParms")
	}
	return types.StreamDict{Dict: dict, Raw: append([]byte(nil), raw...)}, nil
}

func (x *extractor) box(o types.Object) (box, error) {
	if o == nil {
		return box{}, fmt.Errorf("%w: page has no media box", ErrCorrupt)
	}
	v, err := x.ctx.Dereference(o)
	if err != nil {
		return box{}, fmt.Errorf("%w: media box: %v", ErrCorrupt, err)
	}
	arr, ok := v.(types.Array)
	if !ok || len(arr) != 4 {
		return box{}, fmt.Errorf("%w: malformed media box", ErrCorrupt)
	}
	var n [4]float64
	for i, e := range arr {
		if n[i], err = x.number(e); err != nil {
			return box{}, err
		}
	}
	// Normalise so ll is the lower-left corner whatever order the corners came in.
	return box{
		llx: min(n[0], n[2]), lly: min(n[1], n[3]),
		urx: max(n[0], n[2]), ury: max(n[1], n[3]),
	}, nil
}

func (x *extractor) number(o types.Object) (float64, error) {
	v, err := x.ctx.Dereference(o)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	switch n := v.(type) {
	case types.Integer:
		return float64(n), nil
	case types.Float:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: expected number, got %T", ErrCorrupt, v)
}

func deflate(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
