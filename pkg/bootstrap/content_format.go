package bootstrap

import (
	"fmt"
	"strconv"
)

// ContentFormat is a CoAP content format number.
type ContentFormat uint16

// Content formats used for bootstrap writes.
const (
	ContentFormatText      ContentFormat = 0
	ContentFormatLink      ContentFormat = 40
	ContentFormatOpaque    ContentFormat = 42
	ContentFormatCBOR      ContentFormat = 60
	ContentFormatSenMLJSON ContentFormat = 110
	ContentFormatSenMLCBOR ContentFormat = 112
	ContentFormatTLV       ContentFormat = 11542
	ContentFormatJSON      ContentFormat = 11543
	ContentFormatLwM2MCBOR ContentFormat = 11544
)

var contentFormatNames = map[ContentFormat]string{
	ContentFormatText:      "TEXT",
	ContentFormatLink:      "LINK",
	ContentFormatOpaque:    "OPAQUE",
	ContentFormatCBOR:      "CBOR",
	ContentFormatSenMLJSON: "SENML_JSON",
	ContentFormatSenMLCBOR: "SENML_CBOR",
	ContentFormatTLV:       "TLV",
	ContentFormatJSON:      "JSON",
	ContentFormatLwM2MCBOR: "LWM2M_CBOR",
}

// String returns the format name, or its number when unknown.
func (f ContentFormat) String() string {
	if name, ok := contentFormatNames[f]; ok {
		return name
	}
	return strconv.FormatUint(uint64(f), 10)
}

// ParseContentFormat parses a format name or number.
func ParseContentFormat(s string) (ContentFormat, error) {
	for f, name := range contentFormatNames {
		if name == s {
			return f, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("unknown content format %q", s)
	}
	return ContentFormat(n), nil
}

// MarshalText implements encoding.TextMarshaler.
func (f ContentFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *ContentFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseContentFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
