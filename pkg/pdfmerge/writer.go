package pdfmerge

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const header = "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"

// writer serialises numbered objects into a complete PDF file. Output depends
// only on the objects added: dictionary keys are sorted, no timestamps are
// stamped, and the file identifier is derived from the body.
type writer struct {
	objects map[int]pending
}

type pending struct {
	obj   types.Object
	remap map[int]int
}

func newWriter() *writer {
	return &writer{objects: make(map[int]pending)}
}

// add queues object num. References inside obj are translated through remap;
// a nil remap leaves them as they are.
func (w *writer) add(num int, obj types.Object, remap map[int]int) {
	w.objects[num] = pending{obj: obj, remap: remap}
}

// bytes renders the file with root as catalog and info as document info.
func (w *writer) bytes(root, info int) ([]byte, error) {
	nums := make([]int, 0, len(w.objects))
	for n := range w.objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	size := 1
	if len(nums) > 0 {
		size = nums[len(nums)-1] + 1
	}

	var buf bytes.Buffer
	buf.WriteString(header)

	offsets := make([]int, size)
	for _, n := range nums {
		offsets[n] = buf.Len()
		p := w.objects[n]
		fmt.Fprintf(&buf, "%d 0 obj\n", n)
		if err := writeObject(&buf, p.obj, p.remap); err != nil {
			return nil, fmt.Errorf("object %d: %w", n, err)
		}
		buf.WriteString("\nendobj\n")
	}

	sum := md5.Sum(buf.Bytes())
	id := hex.EncodeToString(sum[:])

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < size; n++ {
		if _, ok := w.objects[n]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
			continue
		}
		buf.WriteString("0000000000 65535 f \n")
	}

	fmt.Fprintf(&buf, "trailer\n<< /ID [<%s> <%s>] /Info %d 0 R /Root %d 0 R /Size %d >>\n", id, id, info, root, size)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, o types.Object, remap map[int]int) error {
	if sd, ok := o.(types.StreamDict); ok {
		d := make(types.Dict, len(sd.Dict)+1)
		for k, v := range sd.Dict {
			d[k] = v
		}
		d["Length"] = types.Integer(len(sd.Raw))
		if err := writeValue(buf, d, remap); err != nil {
			return err
		}
		buf.WriteString("\nstream\n")
		buf.Write(sd.Raw)
		buf.WriteString("\nendstream")
		return nil
	}
	return writeValue(buf, o, remap)
}

func writeValue(buf *bytes.Buffer, o types.Object, remap map[int]int) error {
	switch v := o.(type) {
	case nil:
		buf.WriteString("null")
	case types.Dict:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString("<<")
		for _, k := range keys {
			buf.WriteString(types.Name(k).PDFString())
			buf.WriteByte(' ')
			if err := writeValue(buf, v[k], remap); err != nil {
				return err
			}
		}
		buf.WriteString(">>")
	case types.Array:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := writeValue(buf, e, remap); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case types.IndirectRef:
		n := int(v.ObjectNumber)
		if remap != nil {
			mapped, ok := remap[n]
			if !ok {
				// Dangling references resolve to null, as readers treat missing objects.
				buf.WriteString("null")
				return nil
			}
			n = mapped
		}
		fmt.Fprintf(buf, "%d 0 R", n)
	case *types.IndirectRef:
		if v == nil {
			buf.WriteString("null")
			return nil
		}
		return writeValue(buf, *v, remap)
	case types.Integer:
		buf.WriteString(strconv.Itoa(int(v)))
	case types.Float:
		buf.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 64))
	case types.Boolean:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case types.Name, types.StringLiteral, types.HexLiteral:
		buf.WriteString(v.PDFString())
	case types.StreamDict:
		return fmt.Errorf("stream nested inside a direct object")
	default:
		buf.WriteString(o.PDFString())
	}
	return nil
}

// textString encodes s as a PDF text string: a literal when it is plain
// ASCII, UTF-16BE hex otherwise.
func textString(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			ascii = false
			break
		}
	}
	if ascii {
		var b bytes.Buffer
		for i := 0; i < len(s); i++ {
			switch c := s[i]; c {
			case '(', ')', '\\':
				b.WriteByte('\\')
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		}
		return types.StringLiteral(b.String())
	}

	units := utf16.Encode([]rune(s))
	raw := make([]byte, 0, 2+2*len(units))
	raw = append(raw, 0xfe, 0xff)
	for _, u := range units {
		raw = append(raw, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(raw))
}

func pdfDate(t time.Time) types.Object {
	return types.StringLiteral("D:" + t.UTC().Format("20060102150405") + "Z")
}
