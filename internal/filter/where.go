package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vburojevic/journalq/internal/domain"
)

// Where evaluates boolean expressions over entry fields, for example
//
//	unit=nginx.service && (priority<=err || message~/timeout/i)
//
// Fields: hostname (host), unit, message (msg), identifier (ident),
// priority (level), timestamp (ts), cursor. Operators: = != ~ !~ ^ $ >= <=.
// Boolean connectives: && || ! and the keywords and, or, not.
type Where struct {
	root node
}

// NewWhere parses each expression and AND-s them together.
func NewWhere(exprs ...string) (*Where, error) {
	w := &Where{}
	for _, src := range exprs {
		n, err := parseWhere(src)
		if err != nil {
			return nil, fmt.Errorf("invalid where expression %q: %w", src, err)
		}
		if w.root == nil {
			w.root = n
		} else {
			w.root = andNode{w.root, n}
		}
	}
	return w, nil
}

func (w *Where) Match(entry *domain.Entry) bool {
	if w == nil || w.root == nil {
		return true
	}
	return w.root.eval(entry)
}

type node interface {
	eval(e *domain.Entry) bool
}

type andNode [2]node

func (n andNode) eval(e *domain.Entry) bool { return n[0].eval(e) && n[1].eval(e) }

type orNode [2]node

func (n orNode) eval(e *domain.Entry) bool { return n[0].eval(e) || n[1].eval(e) }

type notNode struct{ inner node }

func (n notNode) eval(e *domain.Entry) bool { return !n.inner.eval(e) }

type field int

const (
	fieldHostname field = iota
	fieldUnit
	fieldMessage
	fieldIdentifier
	fieldPriority
	fieldTimestamp
	fieldCursor
)

var fieldNames = map[string]field{
	"hostname":   fieldHostname,
	"host":       fieldHostname,
	"unit":       fieldUnit,
	"message":    fieldMessage,
	"msg":        fieldMessage,
	"identifier": fieldIdentifier,
	"ident":      fieldIdentifier,
	"priority":   fieldPriority,
	"level":      fieldPriority,
	"timestamp":  fieldTimestamp,
	"ts":         fieldTimestamp,
	"cursor":     fieldCursor,
}

func (f field) numeric() bool { return f == fieldPriority || f == fieldTimestamp }

// compare is one field/operator/value test.
type compare struct {
	field field
	op    string
	value string
	num   uint64
	re    *regexp.Regexp
}

func (c *compare) text(e *domain.Entry) string {
	switch c.field {
	case fieldHostname:
		return e.Hostname
	case fieldUnit:
		return e.Unit
	case fieldMessage:
		return e.Message
	case fieldIdentifier:
		return e.Identifier
	case fieldPriority:
		return strconv.Itoa(int(e.Priority))
	case fieldTimestamp:
		return strconv.FormatUint(e.TimestampMicros, 10)
	case fieldCursor:
		return e.Cursor
	}
	return ""
}

func (c *compare) number(e *domain.Entry) uint64 {
	if c.field == fieldPriority {
		return uint64(e.Priority)
	}
	return e.TimestampMicros
}

func (c *compare) eval(e *domain.Entry) bool {
	if c.field.numeric() {
		switch c.op {
		case "=":
			return c.number(e) == c.num
		case "!=":
			return c.number(e) != c.num
		case ">=":
			return c.number(e) >= c.num
		case "<=":
			return c.number(e) <= c.num
		}
	}
	v := c.text(e)
	switch c.op {
	case "=":
		return v == c.value
	case "!=":
		return v != c.value
	case "~":
		return c.re.MatchString(v)
	case "!~":
		return !c.re.MatchString(v)
	case "^":
		return strings.HasPrefix(v, c.value)
	case "$":
		return strings.HasSuffix(v, c.value)
	case ">=":
		return v >= c.value
	case "<=":
		return v <= c.value
	}
	return false
}

type parser struct {
	toks []token
	pos  int
}

func parseWhere(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at %d", t.val, t.pos)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// accept consumes the next token if it has kind or is the keyword kw.
func (p *parser) accept(kind tokKind, kw string) bool {
	t := p.peek()
	if t.kind == kind || (t.kind == tokWord && kw != "" && strings.EqualFold(t.val, kw)) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOr, "or") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokAnd, "and") {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.accept(tokNot, "not") {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	if p.accept(tokLParen, "") {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen, "") {
			return nil, fmt.Errorf("expected ')' at %d", p.peek().pos)
		}
		return inner, nil
	}
	return p.comparison()
}

func (p *parser) comparison() (node, error) {
	ft := p.advance()
	if ft.kind != tokWord {
		return nil, fmt.Errorf("expected field name at %d", ft.pos)
	}
	f, ok := fieldNames[strings.ToLower(ft.val)]
	if !ok {
		return nil, fmt.Errorf("unknown field %q at %d", ft.val, ft.pos)
	}
	ot := p.advance()
	if ot.kind != tokOp {
		return nil, fmt.Errorf("expected operator after %q at %d", ft.val, ot.pos)
	}
	vt := p.advance()
	switch vt.kind {
	case tokWord, tokString, tokNumber, tokRegex:
	default:
		return nil, fmt.Errorf("expected value after %q at %d", ot.val, vt.pos)
	}

	c := &compare{field: f, op: ot.val, value: vt.val}
	switch {
	case c.op == "~" || c.op == "!~":
		re, err := regexp.Compile(c.value)
		if err != nil {
			return nil, fmt.Errorf("invalid regex at %d: %w", vt.pos, err)
		}
		c.re = re
	case f.numeric() && c.op != "^" && c.op != "$":
		n, err := numericValue(f, c.value)
		if err != nil {
			return nil, fmt.Errorf("%w at %d", err, vt.pos)
		}
		c.num = n
	}
	return c, nil
}

// numericValue accepts priority keywords (err, warning, ...) as well as
// plain numbers.
func numericValue(f field, s string) (uint64, error) {
	if f == fieldPriority {
		p, ok := domain.ParsePriority(s)
		if !ok {
			return 0, fmt.Errorf("invalid priority %q", s)
		}
		return uint64(p), nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}
