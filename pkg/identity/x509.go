package identity

import (
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// WildcardCommonName is the common name recorded for servers authenticated
// by certificate, where any subject matching the configured trust is
// accepted.
const WildcardCommonName = "*"

// X.509 name errors.
var (
	ErrMalformedName     = errors.New("malformed distinguished name")
	ErrMissingCommonName = errors.New("distinguished name has no common name")
)

var oidKeywords = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.5":                    "SERIALNUMBER",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "STREET",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"0.9.2342.19200300.100.1.1":  "UID",
	"0.9.2342.19200300.100.1.25": "DC",
}

// Attribute is one type=value pair of a distinguished name.
type Attribute struct {
	Type  string
	Value string
}

// ParseRFC2253 parses a distinguished name in RFC 2253 string form. It
// returns attributes in string order, most specific first. Attribute types
// are upper-cased and well-known OIDs are mapped to their keyword.
func ParseRFC2253(name string) ([]Attribute, error) {
	p := &dnParser{s: name}
	var attrs []Attribute
	p.skipSpaces()
	if p.done() {
		return nil, nil
	}
	for {
		attr, err := p.attribute()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)

		p.skipSpaces()
		if p.done() {
			return attrs, nil
		}
		switch p.s[p.i] {
		case ',', ';', '+':
			p.i++
		default:
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformedName, p.s[p.i], p.i)
		}
	}
}

// CommonNameFromRFC2253 returns the most specific CN of an RFC 2253 name.
func CommonNameFromRFC2253(name string) (string, error) {
	attrs, err := ParseRFC2253(name)
	if err != nil {
		return "", err
	}
	for _, a := range attrs {
		if a.Type == "CN" {
			return a.Value, nil
		}
	}
	return "", ErrMissingCommonName
}

// CommonNameFromCertificate returns the subject common name of cert.
func CommonNameFromCertificate(cert *x509.Certificate) (string, error) {
	if cert == nil {
		return "", fmt.Errorf("%w: certificate is required", ErrInvalidArgument)
	}
	if cert.Subject.CommonName == "" {
		return "", ErrMissingCommonName
	}
	return cert.Subject.CommonName, nil
}

// CanBeUsedForAuthentication reports whether cert may authenticate a DTLS
// client (client true) or server. A key usage extension must include
// digital signature and an extended key usage extension must include the
// matching authentication purpose. Absent extensions do not restrict.
func CanBeUsedForAuthentication(cert *x509.Certificate, client bool) bool {
	if cert == nil {
		return false
	}
	if cert.KeyUsage != 0 && cert.KeyUsage&x509.KeyUsageDigitalSignature == 0 {
		return false
	}
	if len(cert.ExtKeyUsage) == 0 && len(cert.UnknownExtKeyUsage) == 0 {
		return true
	}
	want := x509.ExtKeyUsageServerAuth
	if client {
		want = x509.ExtKeyUsageClientAuth
	}
	return slices.Contains(cert.ExtKeyUsage, want)
}

// MatchDNSName reports whether a certificate name pattern matches host.
// A leading "*." wildcard matches exactly one label.
func MatchDNSName(pattern, host string) bool {
	if rest, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(rest, ".") {
		label, found := strings.CutSuffix(host, rest)
		return found && label != "" && !strings.Contains(label, ".")
	}
	return pattern == host
}

// MatchSubjectDNSName reports whether cert is valid for host. Subject
// alternative names take precedence; the common name is only consulted
// when the certificate carries none.
func MatchSubjectDNSName(cert *x509.Certificate, host string) bool {
	if cert == nil {
		return false
	}
	if len(cert.DNSNames) > 0 || len(cert.IPAddresses) > 0 || len(cert.URIs) > 0 || len(cert.EmailAddresses) > 0 {
		for _, name := range cert.DNSNames {
			if MatchDNSName(name, host) {
				return true
			}
		}
		return false
	}
	return cert.Subject.CommonName != "" && MatchDNSName(cert.Subject.CommonName, host)
}

type dnParser struct {
	s string
	i int
}

func (p *dnParser) done() bool {
	return p.i >= len(p.s)
}

func (p *dnParser) skipSpaces() {
	for !p.done() && p.s[p.i] == ' ' {
		p.i++
	}
}

func (p *dnParser) attribute() (Attribute, error) {
	p.skipSpaces()
	start := p.i
	for !p.done() && p.s[p.i] != '=' {
		switch p.s[p.i] {
		case ',', ';', '+':
			return Attribute{}, fmt.Errorf("%w: attribute without value at offset %d", ErrMalformedName, start)
		}
		p.i++
	}
	if p.done() {
		return Attribute{}, fmt.Errorf("%w: missing '=' after offset %d", ErrMalformedName, start)
	}
	typ := strings.TrimSpace(p.s[start:p.i])
	if typ == "" {
		return Attribute{}, fmt.Errorf("%w: empty attribute type at offset %d", ErrMalformedName, start)
	}
	p.i++ // '='
	p.skipSpaces()

	var (
		value string
		err   error
	)
	switch {
	case p.done():
	case p.s[p.i] == '#':
		value, err = p.hexValue()
	case p.s[p.i] == '"':
		value, err = p.quotedValue()
	default:
		value, err = p.plainValue()
	}
	if err != nil {
		return Attribute{}, err
	}
	return Attribute{Type: normalizeType(typ), Value: value}, nil
}

func normalizeType(typ string) string {
	upper := strings.ToUpper(typ)
	oid := strings.TrimPrefix(upper, "OID.")
	if kw, ok := oidKeywords[oid]; ok {
		return kw
	}
	return upper
}

// hexValue decodes a '#' prefixed BER encoding of the attribute value.
func (p *dnParser) hexValue() (string, error) {
	p.i++ // '#'
	start := p.i
	for !p.done() && isHexDigit(p.s[p.i]) {
		p.i++
	}
	der, err := hex.DecodeString(p.s[start:p.i])
	if err != nil || len(der) == 0 {
		return "", fmt.Errorf("%w: bad hex value at offset %d", ErrMalformedName, start)
	}
	var raw asn1.RawValue
	rest, err := asn1.Unmarshal(der, &raw)
	if err != nil || len(rest) != 0 {
		return "", fmt.Errorf("%w: bad BER value at offset %d", ErrMalformedName, start)
	}
	return string(raw.Bytes), nil
}

func (p *dnParser) quotedValue() (string, error) {
	p.i++ // opening quote
	var buf []byte
	for !p.done() {
		c := p.s[p.i]
		switch c {
		case '"':
			p.i++
			return string(buf), nil
		case '\\':
			b, err := p.escape()
			if err != nil {
				return "", err
			}
			buf = append(buf, b)
		default:
			buf = append(buf, c)
			p.i++
		}
	}
	return "", fmt.Errorf("%w: unterminated quoted value", ErrMalformedName)
}

func (p *dnParser) plainValue() (string, error) {
	var buf []byte
	// keep is the length of buf up to the last escaped or non-space byte.
	keep := 0
	for !p.done() {
		c := p.s[p.i]
		switch c {
		case ',', ';', '+':
			return string(buf[:keep]), nil
		case '\\':
			b, err := p.escape()
			if err != nil {
				return "", err
			}
			buf = append(buf, b)
			keep = len(buf)
		case '"', '<', '>':
			return "", fmt.Errorf("%w: unescaped %q at offset %d", ErrMalformedName, c, p.i)
		default:
			buf = append(buf, c)
			if c != ' ' {
				keep = len(buf)
			}
			p.i++
		}
	}
	return string(buf[:keep]), nil
}

// escape consumes a backslash sequence and returns the byte it denotes.
func (p *dnParser) escape() (byte, error) {
	p.i++ // '\'
	if p.done() {
		return 0, fmt.Errorf("%w: dangling escape", ErrMalformedName)
	}
	c := p.s[p.i]
	if isHexDigit(c) {
		if p.i+1 >= len(p.s) || !isHexDigit(p.s[p.i+1]) {
			return 0, fmt.Errorf("%w: incomplete hex escape at offset %d", ErrMalformedName, p.i)
		}
		b, _ := hex.DecodeString(p.s[p.i : p.i+2])
		p.i += 2
		return b[0], nil
	}
	switch c {
	case ',', '=', '+', '<', '>', '#', ';', '\\', '"', ' ':
		p.i++
		return c, nil
	}
	return 0, fmt.Errorf("%w: invalid escape %q at offset %d", ErrMalformedName, c, p.i)
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
