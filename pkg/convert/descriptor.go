package convert

import (
	"strings"

	"github.com/ajitpratap0/csvconf/pkg/errors"
)

// descriptorParser is a recursive descent parser for
//
//	type := base ("[]")*
//	base := name | name "<" type ("," type)* ">"
type descriptorParser struct {
	reg *Registry
	src string
	pos int
}

func (p *descriptorParser) parse() (Type, error) {
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

func (p *descriptorParser) parseType() (Type, error) {
	t, err := p.parseBase()
	if err != nil {
		return Type{}, err
	}
	for {
		p.skipSpace()
		if !p.consume('[') {
			return t, nil
		}
		p.skipSpace()
		if p.peek() == ',' {
			return Type{}, p.errorf("multi-dimensional arrays are not supported")
		}
		if !p.consume(']') {
			return Type{}, p.errorf("expected ']'")
		}
		t = ArrayOf(t)
	}
}

func (p *descriptorParser) parseBase() (Type, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return Type{}, p.errorf("expected type name")
	}
	p.skipSpace()
	if !p.consume('<') {
		return p.reg.resolve(name)
	}

	var args []Type
	for {
		arg, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		args = append(args, arg)
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume('>') {
			break
		}
		return Type{}, p.errorf("expected ',' or '>'")
	}

	switch generic := strings.TrimPrefix(name, "System."); {
	case strings.EqualFold(generic, "List"), strings.EqualFold(generic, "Collections.Generic.List"):
		if len(args) != 1 {
			return Type{}, p.errorf("List takes exactly one type argument, got %d", len(args))
		}
		return ListOf(args[0]), nil
	case strings.EqualFold(generic, "Tuple"), strings.EqualFold(generic, "ValueTuple"):
		return TupleOf(args...), nil
	}
	return Type{}, errors.Newf(errors.ErrorTypeUnsupportedType, "unsupported generic type %s", name).
		WithDetail("descriptor", p.src)
}

func (p *descriptorParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *descriptorParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *descriptorParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *descriptorParser) consume(c byte) bool {
	if p.peek() == c && p.pos < len(p.src) {
		p.pos++
		return true
	}
	return false
}

func (p *descriptorParser) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrorTypeUnsupportedType, format, args...).
		WithDetail("descriptor", p.src).
		WithDetail("offset", p.pos)
}
