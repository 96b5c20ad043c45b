// Package filters decodes the stream filters found on PDF image data.
//
// [Decode] runs a filter chain in order and stops at the first image
// codec (DCTDecode, JPXDecode, JBIG2Decode), returning the bytes still
// encoded with that codec together with its name:
//
//	data, codec, err := filters.Decode(raw, []filters.Filter{
//	    {Name: "ASCII85Decode"},
//	    {Name: "FlateDecode", Params: filters.Params{"Predictor": 12, "Columns": 100}},
//	})
//
// FlateDecode and LZWDecode honour TIFF (2) and PNG (10-15) predictors
// at any bit depth PNG allows.
package filters
