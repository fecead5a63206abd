package cqltype

import (
	"fmt"
	"strings"
	"unicode"
)

var nativeByName = map[string]Kind{
	"ascii":     KindAscii,
	"text":      KindText,
	"varchar":   KindText,
	"boolean":   KindBoolean,
	"tinyint":   KindTinyInt,
	"smallint":  KindSmallInt,
	"int":       KindInt,
	"bigint":    KindBigInt,
	"float":     KindFloat,
	"double":    KindDouble,
	"blob":      KindBlob,
	"inet":      KindInet,
	"varint":    KindVarint,
	"decimal":   KindDecimal,
	"duration":  KindDuration,
	"timestamp": KindTimestamp,
	"date":      KindDate,
	"time":      KindTime,
	"uuid":      KindUUID,
	"timeuuid":  KindTimeUUID,
	"counter":   KindCounter,
}

// Parse parses a CQL type expression such as "map<text, frozen<list<int>>>".
// frozen<> is accepted and dropped, it does not change the wire format.
// User defined types cannot be parsed, their field list only exists in the
// schema.
func Parse(s string) (Type, error) {
	p := &parser{src: s}
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

// MustParse is like Parse but panics on error. Intended for tests and
// package level descriptors.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("cqltype: parse %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c == '.' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseType() (Type, error) {
	if p.peek() == '\'' {
		p.pos++
		end := strings.IndexByte(p.src[p.pos:], '\'')
		if end < 0 {
			return Type{}, p.errorf("unterminated custom type")
		}
		class := p.src[p.pos : p.pos+end]
		p.pos += end + 1
		return Custom(class), nil
	}

	name := strings.ToLower(p.ident())
	if name == "" {
		return Type{}, p.errorf("expected type name")
	}
	if k, ok := nativeByName[name]; ok {
		return Native(k), nil
	}

	switch name {
	case "frozen":
		args, err := p.parseArgs(1)
		if err != nil {
			return Type{}, err
		}
		return args[0], nil
	case "list":
		args, err := p.parseArgs(1)
		if err != nil {
			return Type{}, err
		}
		return List(args[0]), nil
	case "set":
		args, err := p.parseArgs(1)
		if err != nil {
			return Type{}, err
		}
		return Set(args[0]), nil
	case "map":
		args, err := p.parseArgs(2)
		if err != nil {
			return Type{}, err
		}
		return Map(args[0], args[1]), nil
	case "tuple":
		args, err := p.parseArgs(-1)
		if err != nil {
			return Type{}, err
		}
		return Tuple(args...), nil
	}
	return Type{}, p.errorf("unknown type %q (user defined types need schema metadata)", name)
}

// parseArgs parses "<t1, t2...>". n < 0 accepts any non-zero count.
func (p *parser) parseArgs(n int) ([]Type, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	var args []Type
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	if n >= 0 && len(args) != n {
		return nil, p.errorf("expected %d type arguments, got %d", n, len(args))
	}
	return args, nil
}
