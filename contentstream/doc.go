// Package contentstream tokenizes PDF content streams.
//
// A content stream is a sequence of operands followed by an operator:
//
//	ops, err := contentstream.NewParser(data).Parse()
//	for _, op := range ops {
//	    fmt.Println(op.Operator, op.Operands)
//	}
//
// Inline images (BI ... ID ... EI) are returned as a single operation
// with operator "BI", the image dictionary as its only operand, and the
// raw image bytes in [Operation.Data]. Abbreviated inline image keys and
// filter names are expanded to their full forms.
package contentstream
