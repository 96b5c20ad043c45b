package filters

import "fmt"

// Filter is one entry of a stream's filter chain.
type Filter struct {
	Name   string
	Params Params
}

// Image codecs are left encoded for an image decoder.
const (
	DCT   = "DCTDecode"
	JPX   = "JPXDecode"
	JBIG2 = "JBIG2Decode"
)

// UnsupportedError reports a filter the package cannot decode.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported filter %s", e.Name)
}

// Decode applies chain to data in order. When it reaches an image codec
// it stops and returns the remaining bytes with that codec's name; codec
// is empty when every filter was applied.
func Decode(data []byte, chain []Filter) (out []byte, codec string, err error) {
	out = data
	for _, f := range chain {
		switch f.Name {
		case "FlateDecode", "Fl":
			out, err = FlateDecode(out, f.Params)
		case "LZWDecode", "LZW":
			out, err = LZWDecode(out, f.Params)
		case "ASCIIHexDecode", "AHx":
			out, err = ASCIIHexDecode(out)
		case "ASCII85Decode", "A85":
			out, err = ASCII85Decode(out)
		case "RunLengthDecode", "RL":
			out, err = RunLengthDecode(out)
		case "CCITTFaxDecode", "CCF":
			out, err = CCITTFaxDecode(out, f.Params)
		case DCT, "DCT", JPX, JBIG2:
			if f.Name == "DCT" {
				return out, DCT, nil
			}
			return out, f.Name, nil
		case "Crypt":
			// Identity crypt filters only; encrypted files are rejected
			// before their streams are read.
		default:
			return nil, "", &UnsupportedError{Name: f.Name}
		}
		if err != nil {
			return nil, "", err
		}
	}
	return out, "", nil
}
