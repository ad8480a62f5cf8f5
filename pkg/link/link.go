package link

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lwm2m-go/lwm2m/pkg/node"
)

// ErrMalformed is returned for payloads that are not valid link format.
var ErrMalformed = errors.New("malformed link format")

// Attribute is a link parameter. Value is empty for parameters without a
// value; HasValue tells the two cases apart.
type Attribute struct {
	Name     string
	Value    string
	HasValue bool
}

// Link is a single target URI with its parameters in payload order.
type Link struct {
	URI        string
	Attributes []Attribute
}

// Attribute returns the value of the first parameter called name.
func (l Link) Attribute(name string) (string, bool) {
	for _, a := range l.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Has reports whether the link carries a parameter called name.
func (l Link) Has(name string) bool {
	_, ok := l.Attribute(name)
	return ok
}

// Path interprets the target URI as an object tree path.
func (l Link) Path() (node.Path, error) {
	return node.ParsePath(l.URI)
}

// String formats the link in link format.
func (l Link) String() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(l.URI)
	b.WriteByte('>')
	for _, a := range l.Attributes {
		b.WriteByte(';')
		b.WriteString(a.Name)
		if !a.HasValue {
			continue
		}
		b.WriteByte('=')
		if needsQuoting(a.Value) {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(a.Value, `"`, `\"`))
			b.WriteByte('"')
		} else {
			b.WriteString(a.Value)
		}
	}
	return b.String()
}

func needsQuoting(v string) bool {
	return v == "" || strings.ContainsAny(v, `,;"<> `)
}

// Format joins links with commas.
func Format(links []Link) string {
	parts := make([]string, len(links))
	for i, l := range links {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}

// Parse parses a link format payload. An empty payload yields no links.
func Parse(payload string) ([]Link, error) {
	p := &parser{s: payload}
	var links []Link

	p.skipSpace()
	if p.done() {
		return nil, nil
	}
	for {
		l, err := p.link()
		if err != nil {
			return nil, err
		}
		links = append(links, l)

		p.skipSpace()
		if p.done() {
			return links, nil
		}
		if p.s[p.pos] != ',' {
			return nil, p.errorf("expected ','")
		}
		p.pos++
		p.skipSpace()
	}
}

type parser struct {
	s   string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.s) }

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", ErrMalformed, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for !p.done() && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\r' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) link() (Link, error) {
	if p.done() || p.s[p.pos] != '<' {
		return Link{}, p.errorf("expected '<'")
	}
	end := strings.IndexByte(p.s[p.pos+1:], '>')
	if end < 0 {
		return Link{}, p.errorf("unterminated target")
	}
	l := Link{URI: p.s[p.pos+1 : p.pos+1+end]}
	p.pos += end + 2

	for {
		p.skipSpace()
		if p.done() || p.s[p.pos] != ';' {
			return l, nil
		}
		p.pos++
		p.skipSpace()

		a, err := p.attribute()
		if err != nil {
			return Link{}, err
		}
		l.Attributes = append(l.Attributes, a)
	}
}

func (p *parser) attribute() (Attribute, error) {
	start := p.pos
	for !p.done() && isNameChar(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return Attribute{}, p.errorf("expected parameter name")
	}
	a := Attribute{Name: p.s[start:p.pos]}

	if p.done() || p.s[p.pos] != '=' {
		return a, nil
	}
	p.pos++
	a.HasValue = true

	if !p.done() && p.s[p.pos] == '"' {
		v, err := p.quoted()
		if err != nil {
			return Attribute{}, err
		}
		a.Value = v
		return a, nil
	}

	start = p.pos
	for !p.done() && p.s[p.pos] != ',' && p.s[p.pos] != ';' {
		p.pos++
	}
	a.Value = strings.TrimRight(p.s[start:p.pos], " \t")
	return a, nil
}

func (p *parser) quoted() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for !p.done() {
		c := p.s[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.s):
			b.WriteByte(p.s[p.pos+1])
			p.pos += 2
		case c == '"':
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated quoted value")
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '!' || c == '#' || c == '$' || c == '&' || c == '+' || c == '-' ||
		c == '.' || c == '^' || c == '_' || c == '`' || c == '|' || c == '~' || c == '*'
}
