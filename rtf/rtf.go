// Package rtf reduces Rich Text Format documents to plain text and
// provides the RTF extractor.
//
// The reduction keeps visible body text only. Font, color and style
// tables, document info, embedded pictures and objects, and any group
// marked with \* are dropped. Paragraph and line controls become
// newlines; hex escapes are decoded with the document's \ansicpg code
// page. Malformed input is tolerated rather than rejected.
package rtf

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// destinations are groups whose content is never visible text.
var destinations = map[string]bool{
	"aftncn": true, "aftnsep": true, "aftnsepc": true, "annotation": true,
	"atnauthor": true, "atndate": true, "atnid": true, "atnparent": true,
	"atnref": true, "atrfend": true, "atrfstart": true, "author": true,
	"bkmkend": true, "bkmkstart": true, "buptim": true, "category": true,
	"colorschememapping": true, "colortbl": true, "comment": true,
	"company": true, "creatim": true, "datafield": true, "datastore": true,
	"defchp": true, "defpap": true, "do": true, "doccomm": true,
	"docvar": true, "dptxbxtext": true, "factoidname": true, "falt": true,
	"fchars": true, "ffdeftext": true, "ffentrymcr": true, "ffexitmcr": true,
	"ffformat": true, "ffhelptext": true, "ffl": true, "ffname": true,
	"ffstattext": true, "filetbl": true, "fldinst": true, "fontemb": true,
	"fontfile": true, "fonttbl": true, "footer": true, "footerf": true,
	"footerl": true, "footerr": true, "formfield": true, "ftncn": true,
	"ftnsep": true, "ftnsepc": true, "generator": true, "gridtbl": true,
	"header": true, "headerf": true, "headerl": true, "headerr": true,
	"hl": true, "hlfr": true, "hlinkbase": true, "hlloc": true, "hlsrc": true,
	"hsv": true, "info": true, "keycode": true, "keywords": true,
	"latentstyles": true, "lchars": true, "levelnumbers": true,
	"leveltext": true, "lfolevel": true, "linkval": true, "list": true,
	"listlevel": true, "listname": true, "listoverride": true,
	"listoverridetable": true, "listpicture": true, "liststylename": true,
	"listtable": true, "listtext": true, "lsdlockedexcept": true,
	"macc": true, "maccPr": true, "mailmerge": true, "manager": true,
	"mmathPr": true, "nesttableprops": true, "nextfile": true,
	"nonesttables": true, "objalias": true, "objclass": true,
	"objdata": true, "object": true, "objname": true, "objsect": true,
	"objtime": true, "oldcprops": true, "oldpprops": true,
	"oldsprops": true, "oldtprops": true, "operator": true, "panose": true,
	"password": true, "passwordhash": true, "pgp": true, "pgptbl": true,
	"picprop": true, "pict": true, "pn": true, "pnseclvl": true,
	"pntext": true, "pntxta": true, "pntxtb": true, "printim": true,
	"private": true, "propname": true, "protend": true, "protstart": true,
	"protusertbl": true, "pxe": true, "revtbl": true,
	"revtim": true, "rsidtbl": true, "rxe": true, "shp": true,
	"shpgrp": true, "shpinst": true, "shppict": true, "shprslt": true,
	"shptxt": true, "sn": true, "sp": true, "staticval": true,
	"stylesheet": true, "subject": true, "sv": true, "svb": true,
	"tc": true, "template": true, "themedata": true, "title": true,
	"txe": true, "userprops": true,
	"wgrffmtfilter": true, "windowcaption": true, "writereservation": true,
	"writereservhash": true, "xe": true, "xform": true,
	"xmlattrname": true, "xmlattrvalue": true, "xmlclose": true,
	"xmlname": true, "xmlnstbl": true, "xmlopen": true,
}

// specials are control words that stand for literal text.
var specials = map[string]string{
	"par":       "\n",
	"sect":      "\n\n",
	"page":      "\n\n",
	"line":      "\n",
	"row":       "\n",
	"tab":       "\t",
	"cell":      "|",
	"nestcell":  "|",
	"emdash":    "—",
	"endash":    "–",
	"emspace":   "\u2003",
	"enspace":   "\u2002",
	"qmspace":   "\u2005",
	"bullet":    "•",
	"lquote":    "‘",
	"rquote":    "’",
	"ldblquote": "“",
	"rdblquote": "”",
}

// groupState is saved on '{' and restored on '}'.
type groupState struct {
	skip   bool
	ucSkip int
}

type reducer struct {
	data    []byte
	pos     int
	out     strings.Builder
	state   groupState
	stack   []groupState
	enc     encoding.Encoding
	pending []byte // consecutive \'hh bytes awaiting decode
	highSur rune   // high surrogate from a previous \u
	toSkip  int    // fallback characters still to drop after \u
}

// ToText reduces an RTF document to plain text.
func ToText(data []byte) string {
	r := &reducer{
		data:  data,
		state: groupState{ucSkip: 1},
		enc:   charmap.Windows1252,
	}
	r.run()
	return r.out.String()
}

func (r *reducer) run() {
	for r.pos < len(r.data) {
		c := r.data[r.pos]
		switch c {
		case '{':
			r.flushPending()
			r.pos++
			r.stack = append(r.stack, r.state)
		case '}':
			r.flushPending()
			r.pos++
			if n := len(r.stack); n > 0 {
				r.state = r.stack[n-1]
				r.stack = r.stack[:n-1]
			}
		case '\\':
			r.control()
		case '\r', '\n':
			r.pos++
		default:
			r.literal()
		}
	}
	r.flushPending()
}

// literal copies a run of plain bytes. Runs that are valid UTF-8 are kept
// as is; anything else is decoded with the document code page.
func (r *reducer) literal() {
	start := r.pos
	for r.pos < len(r.data) {
		c := r.data[r.pos]
		if c == '{' || c == '}' || c == '\\' || c == '\r' || c == '\n' {
			break
		}
		r.pos++
	}
	run := r.data[start:r.pos]

	if r.toSkip > 0 {
		// Fallback characters after \u count one per byte.
		n := r.toSkip
		if n > len(run) {
			n = len(run)
		}
		r.toSkip -= n
		run = run[n:]
	}
	if r.state.skip || len(run) == 0 {
		return
	}

	r.flushPending()
	if utf8.Valid(run) {
		r.out.Write(run)
		return
	}
	r.out.WriteString(r.decode(run))
}

func (r *reducer) control() {
	r.pos++ // backslash
	if r.pos >= len(r.data) {
		return
	}

	c := r.data[r.pos]
	switch {
	case isLetter(c):
		word, param, hasParam := r.readWord()
		r.word(word, param, hasParam)
		return
	case c == '\'':
		r.pos++
		if r.pos+2 <= len(r.data) {
			if b, err := strconv.ParseUint(string(r.data[r.pos:r.pos+2]), 16, 8); err == nil {
				r.pos += 2
				if r.toSkip > 0 {
					r.toSkip--
					return
				}
				if !r.state.skip {
					r.pending = append(r.pending, byte(b))
				}
				return
			}
		}
		return
	case c == '*':
		r.pos++
		r.state.skip = true
		return
	}

	r.pos++
	if r.state.skip {
		return
	}
	switch c {
	case '\\', '{', '}':
		r.emit(string(c))
	case '~':
		r.emit(" ")
	case '_':
		r.emit("-")
	case '\r', '\n':
		r.emit("\n")
	}
}

// readWord reads a control word and its optional signed numeric parameter,
// consuming a single trailing space delimiter.
func (r *reducer) readWord() (string, int, bool) {
	start := r.pos
	for r.pos < len(r.data) && isLetter(r.data[r.pos]) {
		r.pos++
	}
	word := string(r.data[start:r.pos])

	numStart := r.pos
	if r.pos < len(r.data) && r.data[r.pos] == '-' {
		r.pos++
	}
	digits := r.pos
	for r.pos < len(r.data) && r.data[r.pos] >= '0' && r.data[r.pos] <= '9' {
		r.pos++
	}

	param, hasParam := 0, false
	if r.pos > digits {
		if n, err := strconv.Atoi(string(r.data[numStart:r.pos])); err == nil {
			param, hasParam = n, true
		}
	} else {
		r.pos = numStart
	}

	if r.pos < len(r.data) && r.data[r.pos] == ' ' {
		r.pos++
	}
	return word, param, hasParam
}

func (r *reducer) word(word string, param int, hasParam bool) {
	switch word {
	case "ansicpg":
		if hasParam {
			if enc := codePage(param); enc != nil {
				r.enc = enc
			}
		}
		return
	case "uc":
		if hasParam && param >= 0 {
			r.state.ucSkip = param
		}
		return
	case "u":
		if !hasParam {
			return
		}
		if param < 0 {
			param += 65536
		}
		if !r.state.skip {
			r.unicode(rune(param))
		}
		r.toSkip = r.state.ucSkip
		return
	case "bin":
		if hasParam && param > 0 {
			r.pos += param
			if r.pos > len(r.data) {
				r.pos = len(r.data)
			}
		}
		return
	}

	if destinations[word] {
		r.state.skip = true
		return
	}
	if r.state.skip {
		return
	}
	if s, ok := specials[word]; ok {
		r.emit(s)
	}
}

// unicode writes a \u character, pairing UTF-16 surrogates.
func (r *reducer) unicode(c rune) {
	r.flushPending()
	switch {
	case utf16.IsSurrogate(c) && c < 0xDC00:
		r.highSur = c
		return
	case utf16.IsSurrogate(c) && r.highSur != 0:
		c = utf16.DecodeRune(r.highSur, c)
	}
	r.highSur = 0
	r.out.WriteRune(c)
}

func (r *reducer) emit(s string) {
	r.flushPending()
	r.toSkip = 0
	r.out.WriteString(s)
}

func (r *reducer) flushPending() {
	if len(r.pending) == 0 {
		return
	}
	r.out.WriteString(r.decode(r.pending))
	r.pending = r.pending[:0]
}

func (r *reducer) decode(b []byte) string {
	s, err := r.enc.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "")
	}
	return string(s)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// codePage maps an \ansicpg number to a decoder.
func codePage(cp int) encoding.Encoding {
	switch cp {
	case 437:
		return charmap.CodePage437
	case 850:
		return charmap.CodePage850
	case 852:
		return charmap.CodePage852
	case 855:
		return charmap.CodePage855
	case 858:
		return charmap.CodePage858
	case 860:
		return charmap.CodePage860
	case 862:
		return charmap.CodePage862
	case 863:
		return charmap.CodePage863
	case 865:
		return charmap.CodePage865
	case 866:
		return charmap.CodePage866
	case 874:
		return charmap.Windows874
	case 1250:
		return charmap.Windows1250
	case 1251:
		return charmap.Windows1251
	case 1252:
		return charmap.Windows1252
	case 1253:
		return charmap.Windows1253
	case 1254:
		return charmap.Windows1254
	case 1255:
		return charmap.Windows1255
	case 1256:
		return charmap.Windows1256
	case 1257:
		return charmap.Windows1257
	case 1258:
		return charmap.Windows1258
	case 10000:
		return charmap.Macintosh
	case 20866:
		return charmap.KOI8R
	case 21866:
		return charmap.KOI8U
	case 28591:
		return charmap.ISO8859_1
	case 28592:
		return charmap.ISO8859_2
	case 28595:
		return charmap.ISO8859_5
	case 28605:
		return charmap.ISO8859_15
	}

	names := map[int]string{
		932:   "shift_jis",
		936:   "gbk",
		949:   "euc-kr",
		950:   "big5",
		54936: "gb18030",
		65001: "utf-8",
	}
	if name, ok := names[cp]; ok {
		if enc, err := htmlindex.Get(name); err == nil {
			return enc
		}
	}
	return nil
}
