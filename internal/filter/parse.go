package filter

import (
	"fmt"
	"strings"
)

// SyntaxError reports a malformed filter. Offset is the byte position in Filter
// where parsing stopped.
type SyntaxError struct {
	Filter string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("filter: %s at offset %d in %q (near %q)", e.Msg, e.Offset, e.Filter, e.Substring())
}

// Substring returns the part of the filter text where parsing failed.
func (e *SyntaxError) Substring() string {
	if e.Offset >= len(e.Filter) {
		return ""
	}
	rest := e.Filter[e.Offset:]
	if len(rest) > 24 {
		rest = rest[:24]
	}
	return rest
}

// Parse parses filter text. It never returns a partial filter: any syntax
// problem yields a *SyntaxError.
func Parse(text string) (*Filter, error) {
	p := &parser{text: text}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("empty filter")
	}

	var list []*Filter
	for !p.eof() {
		f, err := p.filter()
		if err != nil {
			return nil, err
		}
		list = append(list, f)
		p.skipSpace()
	}
	if len(list) == 1 {
		return list[0], nil
	}
	return &Filter{op: OpAnd, children: list}, nil
}

// MustParse is Parse for filters known to be valid.
func MustParse(text string) *Filter {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

type parser struct {
	text string
	pos  int
}

func (p *parser) eof() bool { return p.pos >= len(p.text) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.text[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.text[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Filter: p.text, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, got end of filter", c)
		}
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) filter() (*Filter, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	f, err := p.filterComp()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *parser) filterComp() (*Filter, error) {
	p.skipSpace()
	switch p.peek() {
	case '&':
		p.pos++
		return p.filterList(OpAnd)
	case '|':
		p.pos++
		return p.filterList(OpOr)
	case '!':
		p.pos++
		child, err := p.filter()
		if err != nil {
			return nil, err
		}
		return &Filter{op: OpNot, children: []*Filter{child}}, nil
	}
	return p.item()
}

func (p *parser) filterList(op Op) (*Filter, error) {
	var children []*Filter
	for {
		p.skipSpace()
		if p.peek() != '(' {
			break
		}
		child, err := p.filter()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return nil, p.errorf("missing operands for %q", op.String())
	}
	return &Filter{op: op, children: children}, nil
}

func (p *parser) item() (*Filter, error) {
	start := p.pos
	for !p.eof() && !strings.ContainsRune("=<>~()", rune(p.peek())) {
		p.pos++
	}
	attr := strings.TrimSpace(p.text[start:p.pos])
	if attr == "" {
		p.pos = start
		return nil, p.errorf("missing attribute name")
	}
	if p.eof() {
		return nil, p.errorf("missing operator after %q", attr)
	}

	var op Op
	switch p.peek() {
	case '=':
		op = OpEqual
		p.pos++
	case '~', '>', '<':
		c := p.peek()
		if p.pos+1 >= len(p.text) || p.text[p.pos+1] != '=' {
			return nil, p.errorf("invalid operator")
		}
		p.pos += 2
		switch c {
		case '~':
			op = OpApprox
		case '>':
			op = OpGreaterEq
		default:
			op = OpLessEq
		}
	default:
		return nil, p.errorf("invalid operator")
	}

	if op != OpEqual {
		value, err := p.value()
		if err != nil {
			return nil, err
		}
		return &Filter{op: op, attr: attr, value: value}, nil
	}

	parts, err := p.substring()
	if err != nil {
		return nil, err
	}
	switch {
	case len(parts) == 1:
		return &Filter{op: OpEqual, attr: attr, value: parts[0]}, nil
	case len(parts) == 2 && parts[0] == "" && parts[1] == "":
		return &Filter{op: OpPresent, attr: attr}, nil
	}
	return &Filter{op: OpSubstring, attr: attr, parts: parts}, nil
}

// value reads a value up to the closing parenthesis, resolving escapes. An
// unescaped '(' or '*' is rejected.
func (p *parser) value() (string, error) {
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated value")
		}
		c := p.peek()
		switch c {
		case ')':
			return b.String(), nil
		case '(':
			return "", p.errorf("unescaped '(' in value")
		case '*':
			return "", p.errorf("wildcard not allowed with this operator")
		case '\\':
			p.pos++
			if p.eof() {
				return "", p.errorf("dangling escape")
			}
			c = p.peek()
		}
		b.WriteByte(c)
		p.pos++
	}
}

// substring reads an equality value split on unescaped '*'. A value without
// wildcards yields one part.
func (p *parser) substring() ([]string, error) {
	var parts []string
	var b strings.Builder
	for {
		if p.eof() {
			return nil, p.errorf("unterminated value")
		}
		c := p.peek()
		switch c {
		case ')':
			parts = append(parts, b.String())
			return parts, nil
		case '(':
			return nil, p.errorf("unescaped '(' in value")
		case '*':
			parts = append(parts, b.String())
			b.Reset()
			p.pos++
			continue
		case '\\':
			p.pos++
			if p.eof() {
				return nil, p.errorf("dangling escape")
			}
			c = p.peek()
		}
		b.WriteByte(c)
		p.pos++
	}
}
