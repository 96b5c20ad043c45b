package docx

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

// relationshipsXML represents word/_rels/document.xml.rels.
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

// relationshipXML represents one relationship entry.
type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// bodyElement is one top-level body child: a paragraph or a table.
type bodyElement struct {
	paragraph *paragraph
	table     *table
}

// paragraph is the ordered list of runs of one <w:p>.
type paragraph struct {
	runs []run
}

// run is one <w:r>. A run holding a drawing contributes images, and its
// own text is ignored.
type run struct {
	text    string
	drawing bool
	images  []string // relationship ids in the order they appear
}

// table is one <w:tbl>.
type table struct {
	rows []tableRow
}

type tableRow struct {
	cells []tableCell
}

type tableCell struct {
	text   string
	span   int    // gridSpan, at least 1
	vMerge string // "", "restart" or "continue"
}

var errNoBody = errors.New("document has no body")

// parseBody streams word/document.xml and returns the body children in
// document order.
func parseBody(r io.Reader) ([]bodyElement, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errNoBody
		}
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			break
		}
	}

	var elements []bodyElement
	if err := parseBlocks(dec, &elements); err != nil {
		return nil, err
	}
	return elements, nil
}

// parseBlocks reads block-level children until the enclosing element ends.
// Content controls and custom XML wrappers are transparent.
func parseBlocks(dec *xml.Decoder, into *[]bodyElement) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				p, err := parseParagraph(dec)
				if err != nil {
					return err
				}
				*into = append(*into, bodyElement{paragraph: p})
			case "tbl":
				tbl, err := parseTable(dec)
				if err != nil {
					return err
				}
				*into = append(*into, bodyElement{table: tbl})
			case "sdt", "sdtContent", "customXml":
				if err := parseBlocks(dec, into); err != nil {
					return err
				}
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func parseParagraph(dec *xml.Decoder) (*paragraph, error) {
	p := &paragraph{}
	if err := parseInline(dec, p); err != nil {
		return nil, err
	}
	return p, nil
}

// parseInline collects runs, descending into inline wrappers such as
// hyperlinks and tracked insertions. Deleted text is skipped.
func parseInline(dec *xml.Decoder, p *paragraph) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				r, err := parseRun(dec)
				if err != nil {
					return err
				}
				p.runs = append(p.runs, r)
			case "hyperlink", "ins", "moveTo", "smartTag", "fldSimple",
				"customXml", "sdt", "sdtContent", "dir", "bdo":
				if err := parseInline(dec, p); err != nil {
					return err
				}
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func parseRun(dec *xml.Decoder) (run, error) {
	var r run
	var sb strings.Builder
	if err := parseRunContent(dec, &r, &sb); err != nil {
		return r, err
	}
	if !r.drawing {
		r.text = sb.String()
	}
	return r, nil
}

func parseRunContent(dec *xml.Decoder, r *run, sb *strings.Builder) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				s, err := readCharData(dec)
				if err != nil {
					return err
				}
				sb.WriteString(s)
			case "tab", "ptab":
				sb.WriteByte('\t')
				if err := dec.Skip(); err != nil {
					return err
				}
			case "br", "cr":
				sb.WriteByte('\n')
				if err := dec.Skip(); err != nil {
					return err
				}
			case "noBreakHyphen":
				sb.WriteByte('-')
				if err := dec.Skip(); err != nil {
					return err
				}
			case "drawing", "pict", "object":
				r.drawing = true
				ids, err := collectImageRefs(dec)
				if err != nil {
					return err
				}
				r.images = append(r.images, ids...)
			case "AlternateContent":
				if err := parseAlternateContent(dec, r, sb); err != nil {
					return err
				}
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// parseAlternateContent uses the first Choice and ignores the Fallback,
// which repeats the same content in an older markup.
func parseAlternateContent(dec *xml.Decoder, r *run, sb *strings.Builder) error {
	chosen := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Choice" && !chosen {
				chosen = true
				if err := parseRunContent(dec, r, sb); err != nil {
					return err
				}
				continue
			}
			if t.Name.Local == "Fallback" && !chosen {
				chosen = true
				if err := parseRunContent(dec, r, sb); err != nil {
					return err
				}
				continue
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// collectImageRefs consumes a drawing subtree and returns the
// relationship ids of the pictures it references: DrawingML a:blip
// r:embed and VML v:imagedata r:id.
func collectImageRefs(dec *xml.Decoder) ([]string, error) {
	var ids []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "blip":
				if id := attr(t, "embed"); id != "" {
					ids = append(ids, id)
				}
			case "imagedata":
				if id := attr(t, "id"); id != "" {
					ids = append(ids, id)
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	return ids, nil
}

func parseTable(dec *xml.Decoder) (*table, error) {
	tbl := &table{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "tr" {
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			row, err := parseRow(dec)
			if err != nil {
				return nil, err
			}
			tbl.rows = append(tbl.rows, row)
		case xml.EndElement:
			return tbl, nil
		}
	}
}

func parseRow(dec *xml.Decoder) (tableRow, error) {
	var row tableRow
	for {
		tok, err := dec.Token()
		if err != nil {
			return row, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				cell, err := parseCell(dec)
				if err != nil {
					return row, err
				}
				row.cells = append(row.cells, cell)
			case "sdt", "sdtContent", "customXml":
				// Cells wrapped in content controls belong to this row.
				inner, err := parseRow(dec)
				if err != nil {
					return row, err
				}
				row.cells = append(row.cells, inner.cells...)
			default:
				if err := dec.Skip(); err != nil {
					return row, err
				}
			}
		case xml.EndElement:
			return row, nil
		}
	}
}

// parseCell reads a <w:tc>. The cell text is its direct paragraphs
// joined by newlines; nested tables do not contribute.
func parseCell(dec *xml.Decoder) (tableCell, error) {
	cell := tableCell{span: 1}
	var paras []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return cell, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				if err := parseCellProps(dec, &cell); err != nil {
					return cell, err
				}
			case "p":
				p, err := parseParagraph(dec)
				if err != nil {
					return cell, err
				}
				paras = append(paras, p.text())
			default:
				if err := dec.Skip(); err != nil {
					return cell, err
				}
			}
		case xml.EndElement:
			cell.text = strings.Join(paras, "\n")
			return cell, nil
		}
	}
}

func parseCellProps(dec *xml.Decoder, cell *tableCell) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "gridSpan":
				if n, _ := strconv.Atoi(attr(t, "val")); n > 1 {
					cell.span = n
				}
			case "vMerge":
				if v := attr(t, "val"); v == "restart" {
					cell.vMerge = "restart"
				} else {
					cell.vMerge = "continue"
				}
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// text returns the paragraph's plain text, counting drawing runs as empty.
func (p *paragraph) text() string {
	var sb strings.Builder
	for _, r := range p.runs {
		sb.WriteString(r.text)
	}
	return sb.String()
}

func readCharData(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if depth == 1 {
				sb.Write(t)
			}
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return sb.String(), nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
