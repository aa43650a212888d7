package filter

import (
	"fmt"
	"strconv"
	"strings"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokWord
	tokString
	tokNumber
	tokRegex
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokOp // comparison operator, text in val
)

type token struct {
	kind tokKind
	val  string
	pos  int
}

// two-character operators must be tried before their one-character prefixes
var operators = []string{"!=", "!~", ">=", "<=", "=", "~", "^", "$"}

type lexer struct {
	src  string
	pos  int
	toks []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.emit(tokEOF, "", l.pos)
			return l.toks, nil
		}
		if err := l.step(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) emit(kind tokKind, val string, pos int) {
	l.toks = append(l.toks, token{kind: kind, val: val, pos: pos})
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && strings.IndexByte(" \t\r\n", l.src[l.pos]) >= 0 {
		l.pos++
	}
}

func (l *lexer) step() error {
	start := l.pos
	rest := l.src[l.pos:]
	switch {
	case rest[0] == '(':
		l.pos++
		l.emit(tokLParen, "(", start)
	case rest[0] == ')':
		l.pos++
		l.emit(tokRParen, ")", start)
	case strings.HasPrefix(rest, "&&"):
		l.pos += 2
		l.emit(tokAnd, "&&", start)
	case strings.HasPrefix(rest, "||"):
		l.pos += 2
		l.emit(tokOr, "||", start)
	case rest[0] == '&' || rest[0] == '|':
		return fmt.Errorf("unexpected %q at %d (use %s%s)", rest[0], start, rest[:1], rest[:1])
	case rest[0] == '"' || rest[0] == '\'':
		s, err := l.quoted()
		if err != nil {
			return err
		}
		l.emit(tokString, s, start)
	case rest[0] == '/':
		re, err := l.regex()
		if err != nil {
			return err
		}
		l.emit(tokRegex, re, start)
	default:
		for _, op := range operators {
			if strings.HasPrefix(rest, op) {
				l.pos += len(op)
				l.emit(tokOp, op, start)
				return nil
			}
		}
		if rest[0] == '!' {
			l.pos++
			l.emit(tokNot, "!", start)
			return nil
		}
		if rest[0] == '<' || rest[0] == '>' {
			return fmt.Errorf("unexpected %q at %d (use %c=)", rest[0], start, rest[0])
		}
		return l.word()
	}
	return nil
}

func (l *lexer) word() error {
	start := l.pos
	for l.pos < len(l.src) && !isDelim(l.src[l.pos]) {
		l.pos++
	}
	w := l.src[start:l.pos]
	if w == "" {
		return fmt.Errorf("unexpected %q at %d", l.src[start], start)
	}
	if _, err := strconv.ParseUint(w, 10, 64); err == nil {
		l.emit(tokNumber, w, start)
		return nil
	}
	l.emit(tokWord, w, start)
	return nil
}

func isDelim(b byte) bool {
	return strings.IndexByte(" \t\r\n()&|!<>=~^$'\"/", b) >= 0
}

func (l *lexer) quoted() (string, error) {
	start := l.pos
	quote := l.src[start]
	for i := start + 1; i < len(l.src); i++ {
		switch l.src[i] {
		case '\\':
			i++
		case quote:
			lit := l.src[start : i+1]
			if quote == '\'' {
				lit = `"` + strings.ReplaceAll(lit[1:len(lit)-1], `"`, `\"`) + `"`
			}
			s, err := strconv.Unquote(lit)
			if err != nil {
				return "", fmt.Errorf("invalid string at %d: %w", start, err)
			}
			l.pos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("unterminated string at %d", start)
}

// regex scans /pattern/flags. A slash inside the pattern is written \/.
func (l *lexer) regex() (string, error) {
	start := l.pos
	var b strings.Builder
	for i := start + 1; i < len(l.src); i++ {
		c := l.src[i]
		if c == '\\' && i+1 < len(l.src) && l.src[i+1] == '/' {
			b.WriteByte('/')
			i++
			continue
		}
		if c != '/' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(l.src) && isLetter(l.src[j]) {
			j++
		}
		l.pos = j
		return withFlags(b.String(), strings.ToLower(l.src[i+1:j]), start)
	}
	return "", fmt.Errorf("unterminated regex at %d", start)
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func withFlags(pattern, flags string, pos int) (string, error) {
	var set []byte
	for i := 0; i < len(flags); i++ {
		f := flags[i]
		if strings.IndexByte("ims", f) < 0 {
			return "", fmt.Errorf("unsupported regex flag %q at %d (supported: i, m, s)", f, pos)
		}
		if strings.IndexByte(string(set), f) < 0 {
			set = append(set, f)
		}
	}
	if len(set) == 0 {
		return pattern, nil
	}
	return "(?" + string(set) + ")" + pattern, nil
}
