package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// comparisonSymbols are tried in order, so longer symbols come first.
var comparisonSymbols = []string{"!==", "!=", "==", "~=", "<=", ">=", "=", "<", ">"}

// Parse parses condition text. The returned error is a *SyntaxError.
func Parse(text string) (Expression, error) {
	p := &parser{src: text}

	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("empty condition")
	}

	left, err := p.operand()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.eof() {
		return left, nil
	}

	op, err := p.operator()
	if err != nil {
		return nil, err
	}
	p.skipSpace()

	var right Expression
	switch o := op.(type) {
	case ComparisonOperator:
		if o.Symbol == "~=" {
			right, err = p.patternOperand()
		} else {
			right, err = p.operand()
		}
	case IsOperator:
		right, err = p.typeOperand()
	}
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}

	return BinaryExpression{Left: left, Operator: op, Right: right}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Text: p.src, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *parser) next() rune {
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return r
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.next()
	}
}

// operand parses a string, number, boolean or property path.
func (p *parser) operand() (Expression, error) {
	switch r := p.peek(); {
	case r == '"' || r == '\'':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return Primitive{Kind: KindString, Text: s}, nil
	case r == '-' || isDigit(r):
		if n, ok := p.number(); ok {
			return n, nil
		}
	}

	start := p.pos
	if err := p.path(); err != nil {
		return nil, err
	}
	text := p.src[start:p.pos]
	if strings.EqualFold(text, "true") || strings.EqualFold(text, "false") {
		return Primitive{Kind: KindBoolean, Text: text}, nil
	}
	return PropertyName{Path: text}, nil
}

// number consumes a decimal or hexadecimal number. It consumes nothing and
// reports false when the text at the cursor is not a complete number, as in
// 1abc or 2.x.
func (p *parser) number() (Primitive, bool) {
	i := p.pos
	if i < len(p.src) && p.src[i] == '-' {
		i++
	}

	hex := false
	if i+2 < len(p.src) && strings.EqualFold(p.src[i:i+2], "0x") && isHexDigit(rune(p.src[i+2])) {
		hex = true
		i += 2
		for i < len(p.src) && isHexDigit(rune(p.src[i])) {
			i++
		}
	} else {
		digits := i
		for i < len(p.src) && isDigit(rune(p.src[i])) {
			i++
		}
		if i == digits {
			return Primitive{}, false
		}
		if i+1 < len(p.src) && p.src[i] == '.' && isDigit(rune(p.src[i+1])) {
			i++
			for i < len(p.src) && isDigit(rune(p.src[i])) {
				i++
			}
		}
	}

	if i < len(p.src) {
		r, _ := utf8.DecodeRuneInString(p.src[i:])
		if isIdentRune(r) || r == '.' || r == '[' {
			return Primitive{}, false
		}
	}

	text := p.src[p.pos:i]
	p.pos = i
	return Primitive{Kind: KindNumber, Text: text, Hex: hex}, true
}

// path consumes ident { .ident | [key] }.
func (p *parser) path() error {
	if err := p.ident(); err != nil {
		return err
	}
	for !p.eof() {
		switch p.peek() {
		case '.':
			p.next()
			if err := p.ident(); err != nil {
				return err
			}
		case '[':
			p.next()
			if err := p.indexKey(); err != nil {
				return err
			}
			if p.peek() != ']' {
				return p.errorf("expected ]")
			}
			p.next()
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) ident() error {
	start := p.pos
	for !p.eof() && isIdentRune(p.peek()) {
		p.next()
	}
	if p.pos == start {
		if p.eof() {
			return p.errorf("expected name")
		}
		return p.errorf("unexpected %q", p.peek())
	}
	return nil
}

// indexKey consumes the contents of [...]: digits, a quoted key or a path.
func (p *parser) indexKey() error {
	switch r := p.peek(); {
	case r == '"' || r == '\'':
		_, err := p.quoted()
		return err
	case isDigit(r):
		for !p.eof() && isDigit(p.peek()) {
			p.next()
		}
		return nil
	default:
		return p.path()
	}
}

// quoted consumes a string in either quote style. A doubled quote or a
// backtick escape stands for the quote character itself.
func (p *parser) quoted() (string, error) {
	quote := p.next()
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		r := p.next()
		switch {
		case r == quote:
			if p.peek() == quote {
				p.next()
				b.WriteRune(quote)
				continue
			}
			return b.String(), nil
		case r == '`' && !p.eof():
			b.WriteRune(unescape(p.next()))
		default:
			b.WriteRune(r)
		}
	}
}

func (p *parser) operator() (Operator, error) {
	rest := p.src[p.pos:]
	for _, sym := range comparisonSymbols {
		if strings.HasPrefix(rest, sym) {
			p.pos += len(sym)
			return ComparisonOperator{Symbol: sym}, nil
		}
	}

	start := p.pos
	if p.keyword("is") {
		save := p.pos
		p.skipSpace()
		if !p.keyword("not") {
			p.pos = save
		}
		return IsOperator{Token: p.src[start:p.pos]}, nil
	}
	return nil, p.errorf("expected operator")
}

// keyword consumes word case-insensitively when it is not followed by a
// name character.
func (p *parser) keyword(word string) bool {
	end := p.pos + len(word)
	if end > len(p.src) || !strings.EqualFold(p.src[p.pos:end], word) {
		return false
	}
	if end < len(p.src) {
		r, _ := utf8.DecodeRuneInString(p.src[end:])
		if isIdentRune(r) {
			return false
		}
	}
	p.pos = end
	return true
}

// patternOperand takes the rest of the text as a regular expression
// literal. A fully quoted rest is unquoted first.
func (p *parser) patternOperand() (Expression, error) {
	rest := strings.TrimRightFunc(p.src[p.pos:], unicode.IsSpace)
	if rest == "" {
		return nil, p.errorf("expected pattern")
	}

	if r := p.peek(); r == '"' || r == '\'' {
		save := p.pos
		s, err := p.quoted()
		if err == nil && strings.TrimSpace(p.src[p.pos:]) == "" {
			return Primitive{Kind: KindString, Text: s}, nil
		}
		p.pos = save
	}

	p.pos = len(p.src)
	return Primitive{Kind: KindString, Text: rest}, nil
}

// typeOperand parses the right side of "is": a quoted type name, a
// qualified type name such as number:like, or an operand.
func (p *parser) typeOperand() (Expression, error) {
	if r := p.peek(); r == '"' || r == '\'' {
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return Primitive{Kind: KindString, Text: s}, nil
	}

	end := p.pos
	for end < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[end:])
		if unicode.IsSpace(r) {
			break
		}
		end += size
	}
	if word := p.src[p.pos:end]; strings.Contains(word, ":") {
		p.pos = end
		return Primitive{Kind: KindString, Text: word}, nil
	}

	if p.eof() {
		return nil, p.errorf("expected type")
	}
	return p.operand()
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'v':
		return '\v'
	case 'f':
		return '\f'
	default:
		return r
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// isIdentRune reports whether r may appear in a variable name.
func isIdentRune(r rune) bool {
	switch r {
	case '_', '#', '@', '$':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
