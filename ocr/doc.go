// Package ocr turns embedded images into text.
//
// The [Adapter] is what extractors call. It checks that an image can be
// decoded, hands it to an [Engine] under a timeout, and trims the result.
// Recognition never fails from the caller's point of view: any error
// becomes a failure marker string (see [model.OCRFailure]) so one bad
// image cannot abort the rest of a document.
//
// The production engine wraps Tesseract via gosseract and is only compiled
// with the "ocr" build tag:
//
//	go build -tags ocr
//
// This requires Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
//
// Without the tag, [NewTesseract] returns an engine that fails every call
// with [ErrOCRNotEnabled], which the adapter reports as a failure marker.
package ocr
