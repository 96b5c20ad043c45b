package contentstream

import (
	"strconv"
	"strings"
)

// Object is a content stream operand.
type Object interface {
	String() string
}

// Null is the null object.
type Null struct{}

func (Null) String() string { return "null" }

// Bool is a boolean operand.
type Bool bool

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Int is an integer operand.
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Real is a real number operand.
type Real float64

func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String holds the raw bytes of a literal or hex string, escapes resolved.
type String string

func (s String) String() string { return string(s) }

// Name is a name operand without its leading slash.
type Name string

func (n Name) String() string { return "/" + string(n) }

// Array is an array operand.
type Array []Object

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, o := range a {
		parts[i] = o.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dict is a dictionary operand, as used by inline images and marked
// content properties.
type Dict map[string]Object

func (d Dict) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for k, v := range d {
		sb.WriteString(" /" + k + " " + v.String())
	}
	sb.WriteString(" >>")
	return sb.String()
}

// Name returns the name stored under key.
func (d Dict) Name(key string) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

// Int returns the integer stored under key.
func (d Dict) Int(key string) (int, bool) {
	f, ok := Number(d[key])
	return int(f), ok
}

// Number returns the numeric value of an Int or Real operand.
func Number(o Object) (float64, bool) {
	switch v := o.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}
