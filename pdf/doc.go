// Package pdf extracts ordered blocks from PDF files.
//
// Pages are read with pdfcpu and walked in page order. Each page's
// content stream is tokenized and replayed: text-showing operators build
// up lines, which end at line moves, text object boundaries and image
// placements. Every non-blank line becomes a Text block. Image XObjects
// and inline images become ImageOCR blocks at the position they are
// drawn; image XObjects a page lists but never draws follow that page's
// other blocks. Strings are decoded through each font's encoding as read
// by github.com/ledongthuc/pdf.
//
// Images are staged as pdf_img_<n>.<ext>, numbered through the whole
// document, and each staged file is removed once recognized.
package pdf
