package contentstream

import (
	"bytes"
	"fmt"
	"strconv"
)

// Operation represents a single content stream operation consisting of an
// operator and its operands.
type Operation struct {
	Operator string   // The operator (e.g., "Tj", "Tm", "Do")
	Operands []Object // The operands, in stream order
	Data     []byte   // Raw image bytes for inline images
}

// Parser parses PDF content streams into a sequence of operations.
type Parser struct {
	data  []byte
	pos   int
	ops   []Operation
	stack []Object
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse parses the content stream and returns all operations in order.
// Stray bytes that cannot start a token are skipped. Unterminated
// strings, arrays and dictionaries are errors.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			break
		}
		if err := p.parseNext(); err != nil {
			return p.ops, err
		}
	}
	return p.ops, nil
}

// parseNext parses the next token, which is either an operand (pushed onto
// the stack) or an operator (which consumes the stack).
func (p *Parser) parseNext() error {
	start := p.pos
	c := p.data[p.pos]

	switch {
	case c == '%':
		p.skipComment()
		return nil
	case isLetter(c) || c == '\'' || c == '"':
		return p.parseOperator()
	}

	operand, err := p.parseOperand()
	if err != nil {
		return fmt.Errorf("at position %d: %w", start, err)
	}
	if operand != nil {
		p.stack = append(p.stack, operand)
	}
	return nil
}

// parseOperator reads a keyword. true, false and null are operands; every
// other keyword emits an operation with the current operand stack.
func (p *Parser) parseOperator() error {
	start := p.pos
	for p.pos < len(p.data) && !isWhitespace(p.data[p.pos]) && !isDelimiter(p.data[p.pos]) {
		p.pos++
	}
	keyword := string(p.data[start:p.pos])

	switch keyword {
	case "true":
		p.stack = append(p.stack, Bool(true))
		return nil
	case "false":
		p.stack = append(p.stack, Bool(false))
		return nil
	case "null":
		p.stack = append(p.stack, Null{})
		return nil
	case "BI":
		p.stack = p.stack[:0]
		return p.parseInlineImage()
	}

	operation := Operation{
		Operator: keyword,
		Operands: make([]Object, len(p.stack)),
	}
	copy(operation.Operands, p.stack)
	p.ops = append(p.ops, operation)
	p.stack = p.stack[:0]
	return nil
}

// parseOperand parses a single operand. It returns a nil Object, and no
// error, for a byte that cannot start any token.
func (p *Parser) parseOperand() (Object, error) {
	p.skipWhitespace()
	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("unexpected end of stream")
	}

	c := p.data[p.pos]
	switch {
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber(), nil
	case c == '(':
		return p.parseString()
	case c == '<' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '<':
		return p.parseDict()
	case c == '<':
		return p.parseHexString()
	case c == '/':
		return p.parseName(), nil
	case c == '[':
		return p.parseArray()
	case isLetter(c):
		start := p.pos
		for p.pos < len(p.data) && !isWhitespace(p.data[p.pos]) && !isDelimiter(p.data[p.pos]) {
			p.pos++
		}
		switch string(p.data[start:p.pos]) {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		}
		// Bare keywords inside arrays and dictionaries are not valid
		// operands; keep them as names so the structure still parses.
		return Name(p.data[start:p.pos]), nil
	}

	p.pos++
	return nil, nil
}

// parseNumber parses an integer or real number. Malformed numbers such as
// "--5" are read as far as possible and fall back to zero.
func (p *Parser) parseNumber() Object {
	start := p.pos
	hasDecimal := false

	for p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
		p.pos++
	}
	signs := p.pos - start
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
		} else if c == '.' && !hasDecimal {
			hasDecimal = true
			p.pos++
		} else {
			break
		}
	}

	numStr := string(p.data[start:p.pos])
	if signs > 1 {
		numStr = numStr[signs-1:]
	}
	if hasDecimal {
		val, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return Real(0)
		}
		return Real(val)
	}
	val, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return Int(0)
	}
	return Int(val)
}

// parseString parses a literal string (...) with escape sequence handling.
func (p *Parser) parseString() (Object, error) {
	p.pos++ // skip '('

	var result bytes.Buffer
	depth := 1

	for p.pos < len(p.data) && depth > 0 {
		c := p.data[p.pos]
		p.pos++

		switch c {
		case '\\':
			if p.pos >= len(p.data) {
				continue
			}
			next := p.data[p.pos]
			p.pos++
			switch next {
			case 'n':
				result.WriteByte('\n')
			case 'r':
				result.WriteByte('\r')
			case 't':
				result.WriteByte('\t')
			case 'b':
				result.WriteByte('\b')
			case 'f':
				result.WriteByte('\f')
			case '\r':
				if p.pos < len(p.data) && p.data[p.pos] == '\n' {
					p.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				octal := int(next - '0')
				for i := 0; i < 2 && p.pos < len(p.data); i++ {
					d := p.data[p.pos]
					if d < '0' || d > '7' {
						break
					}
					octal = octal*8 + int(d-'0')
					p.pos++
				}
				result.WriteByte(byte(octal))
			default:
				result.WriteByte(next)
			}
		case '(':
			depth++
			result.WriteByte(c)
		case ')':
			depth--
			if depth > 0 {
				result.WriteByte(c)
			}
		default:
			result.WriteByte(c)
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("unclosed string")
	}
	return String(result.String()), nil
}

// parseHexString parses a hexadecimal string <...>. An odd final digit is
// padded with zero.
func (p *Parser) parseHexString() (Object, error) {
	p.pos++ // skip '<'

	var result bytes.Buffer
	var hi byte
	odd := false
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++
		if c == '>' {
			if odd {
				result.WriteByte(hi << 4)
			}
			return String(result.String()), nil
		}
		if !isHexDigit(c) {
			continue
		}
		if odd {
			result.WriteByte(hi<<4 | hexValue(c))
		} else {
			hi = hexValue(c)
		}
		odd = !odd
	}
	return nil, fmt.Errorf("unclosed hex string")
}

// parseName parses a name object /Name with # escape handling.
func (p *Parser) parseName() Object {
	p.pos++ // skip '/'

	var result bytes.Buffer
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && p.pos+2 < len(p.data) && isHexDigit(p.data[p.pos+1]) && isHexDigit(p.data[p.pos+2]) {
			result.WriteByte(hexValue(p.data[p.pos+1])<<4 | hexValue(p.data[p.pos+2]))
			p.pos += 3
			continue
		}
		result.WriteByte(c)
		p.pos++
	}
	return Name(result.String())
}

// parseArray parses an array [...] of operands.
func (p *Parser) parseArray() (Object, error) {
	p.pos++ // skip '['

	arr := Array{}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unclosed array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if obj != nil {
			arr = append(arr, obj)
		}
	}
}

// parseDict parses a dictionary <<...>>.
func (p *Parser) parseDict() (Object, error) {
	p.pos += 2 // skip '<<'

	dict := make(Dict)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unclosed dictionary")
		}
		if p.data[p.pos] == '>' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '>' {
			p.pos += 2
			return dict, nil
		}
		if p.data[p.pos] != '/' {
			p.pos++
			continue
		}
		key := p.parseName().(Name)
		p.skipWhitespace()
		if p.pos >= len(p.data) || p.data[p.pos] == '>' {
			continue
		}
		value, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if value != nil {
			dict[string(key)] = value
		}
	}
}

// skipWhitespace advances past PDF whitespace characters.
func (p *Parser) skipWhitespace() {
	for p.pos < len(p.data) && isWhitespace(p.data[p.pos]) {
		p.pos++
	}
}

func (p *Parser) skipComment() {
	for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
		p.pos++
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

// isLetter reports whether c is an ASCII letter.
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isDelimiter reports whether c is a PDF delimiter character.
func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == '<' || c == '>' ||
		c == '[' || c == ']' || c == '{' || c == '}' ||
		c == '/' || c == '%'
}

// isHexDigit reports whether c is a hexadecimal digit.
func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// hexValue returns the numeric value of a hexadecimal digit.
func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
