package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/blockstream/contentstream"
)

// maxFormDepth bounds recursion into nested form XObjects.
const maxFormDepth = 8

// kernSpace is the TJ adjustment, in thousandths of a text unit, at or
// beyond which a gap is read as a word break.
const kernSpace = -200

// minLineTolerance is the baseline difference always treated as the same
// line, for text shown before any font size is set.
const minLineTolerance = 0.01

// resources resolves the named resources a content stream refers to.
type resources interface {
	// text decodes the bytes of a shown string in the named font.
	text(font string, raw []byte) string
	// xobject looks up a named XObject.
	xobject(name string) (xobject, bool)
}

// xobject is a resolved XObject reference.
type xobject struct {
	objNr   int
	form    bool
	content []byte    // decoded content, forms only
	res     resources // form resources, forms only
}

// pageContent is one page ready to walk.
type pageContent struct {
	content []byte
	res     resources
	images  []int // object numbers of the page's image XObjects
}

// item is one entry of a page in reading order: a line of text or an
// image.
type item struct {
	text   string
	image  bool
	objNr  int       // image XObject, 0 for inline images
	inline *rawImage // decoded inline image
	err    error     // inline image decode failure
}

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// mul returns m × n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func operandMatrix(args []contentstream.Object) (matrix, bool) {
	if len(args) < 6 {
		return matrix{}, false
	}
	var m matrix
	for i := range m {
		v, ok := contentstream.Number(args[i])
		if !ok {
			return matrix{}, false
		}
		m[i] = v
	}
	return m, true
}

// walker turns content stream operations into items.
type walker struct {
	items  []item
	placed map[int]bool
	active map[int]bool // forms being walked

	ctm      matrix
	stack    []matrix
	tlm      matrix // text line matrix
	leading  float64
	fontSize float64

	line  strings.Builder
	lineY float64 // baseline of the pending line
	lineH float64 // font height of the pending line
	moved bool    // text position changed since the last show
}

// walkPage returns the page's lines and images in content stream order,
// followed by any image XObjects the stream never drew.
func walkPage(p *pageContent) ([]item, error) {
	w := &walker{
		placed: make(map[int]bool),
		active: make(map[int]bool),
		ctm:    identity,
		tlm:    identity,
	}
	if err := w.walk(p.content, p.res, 0); err != nil {
		return nil, err
	}
	w.flush()

	var rest []int
	for _, nr := range p.images {
		if !w.placed[nr] {
			w.placed[nr] = true
			rest = append(rest, nr)
		}
	}
	sort.Ints(rest)
	for _, nr := range rest {
		w.items = append(w.items, item{image: true, objNr: nr})
	}
	return w.items, nil
}

func (w *walker) walk(content []byte, res resources, depth int) error {
	ops, err := contentstream.NewParser(content).Parse()
	if err != nil && len(ops) == 0 {
		return err
	}

	var font string
	for _, op := range ops {
		args := op.Operands
		switch op.Operator {
		case "q":
			w.stack = append(w.stack, w.ctm)
		case "Q":
			if n := len(w.stack); n > 0 {
				w.ctm = w.stack[n-1]
				w.stack = w.stack[:n-1]
			}
		case "cm":
			if m, ok := operandMatrix(args); ok {
				w.ctm = m.mul(w.ctm)
			}
		case "BT":
			w.tlm = identity
			w.moved = true
		case "Tf":
			if len(args) > 0 {
				if name, ok := args[0].(contentstream.Name); ok {
					font = string(name)
				}
			}
			if len(args) > 1 {
				w.fontSize, _ = contentstream.Number(args[1])
			}
		case "TL":
			if len(args) > 0 {
				w.leading, _ = contentstream.Number(args[0])
			}
		case "Tj":
			if len(args) > 0 {
				w.place()
				w.show(res, font, args[0])
			}
		case "TJ":
			if len(args) > 0 {
				if arr, ok := args[0].(contentstream.Array); ok {
					w.place()
					w.showArray(res, font, arr)
				}
			}
		case "'", "\"":
			w.nextLine()
			if len(args) > 0 {
				w.place()
				w.show(res, font, args[len(args)-1])
			}
		case "T*":
			w.nextLine()
		case "Td", "TD":
			if len(args) < 2 {
				continue
			}
			tx, _ := contentstream.Number(args[0])
			ty, _ := contentstream.Number(args[1])
			if op.Operator == "TD" {
				w.leading = -ty
			}
			w.tlm = translate(tx, ty).mul(w.tlm)
			if tx != 0 || ty != 0 {
				w.moved = true
			}
		case "Tm":
			if m, ok := operandMatrix(args); ok {
				w.tlm = m
				w.moved = true
			}
		case "Do":
			if len(args) == 0 {
				continue
			}
			name, ok := args[0].(contentstream.Name)
			if !ok {
				continue
			}
			xo, ok := res.xobject(string(name))
			if !ok {
				continue
			}
			if xo.form {
				if depth < maxFormDepth && !w.active[xo.objNr] {
					w.active[xo.objNr] = true
					ctm, tlm, stack := w.ctm, w.tlm, append([]matrix(nil), w.stack...)
					_ = w.walk(xo.content, xo.res, depth+1)
					w.ctm, w.tlm, w.stack = ctm, tlm, stack
					delete(w.active, xo.objNr)
				}
				continue
			}
			w.flush()
			w.placed[xo.objNr] = true
			w.items = append(w.items, item{image: true, objNr: xo.objNr})
		case "BI":
			w.flush()
			it := item{image: true}
			if len(args) > 0 {
				if dict, ok := args[0].(contentstream.Dict); ok {
					it.inline, it.err = inlineImage(dict, op.Data)
				}
			}
			if it.inline == nil && it.err == nil {
				it.err = errUnsupportedImage
			}
			w.items = append(w.items, it)
		}
	}
	return nil
}

// nextLine applies T*, which always ends the pending line.
func (w *walker) nextLine() {
	w.tlm = translate(0, -w.leading).mul(w.tlm)
	w.flush()
}

// place decides where the next shown text belongs. Text whose baseline is
// within half a font height of the pending line joins it, separated by a
// space when the position moved; anything else starts a new line.
func (w *walker) place() {
	m := w.tlm.mul(w.ctm)
	y := m[5]
	h := math.Abs(w.fontSize) * math.Hypot(m[2], m[3])

	if w.line.Len() > 0 {
		if math.Abs(y-w.lineY) > math.Max(w.lineH*0.5, minLineTolerance) {
			w.flush()
		} else if w.moved {
			w.space()
		}
	}
	if w.line.Len() == 0 {
		w.lineY, w.lineH = y, h
	}
	w.moved = false
}

func (w *walker) show(res resources, font string, o contentstream.Object) {
	if s, ok := o.(contentstream.String); ok {
		w.line.WriteString(res.text(font, []byte(s)))
	}
}

func (w *walker) showArray(res resources, font string, arr contentstream.Array) {
	for _, el := range arr {
		if n, ok := contentstream.Number(el); ok {
			if n <= kernSpace {
				w.space()
			}
			continue
		}
		w.show(res, font, el)
	}
}

// space separates the next span from the current line's text.
func (w *walker) space() {
	s := w.line.String()
	if s != "" && !strings.HasSuffix(s, " ") {
		w.line.WriteByte(' ')
	}
}

// flush ends the current line. Blank lines are dropped.
func (w *walker) flush() {
	text := strings.TrimSpace(w.line.String())
	w.line.Reset()
	if text != "" {
		w.items = append(w.items, item{text: text})
	}
}
