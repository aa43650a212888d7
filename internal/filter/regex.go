package filter

import (
	"regexp"

	"github.com/vburojevic/journalq/internal/domain"
)

// Pattern passes entries whose message matches a regular expression.
type Pattern struct {
	re *regexp.Regexp
}

// NewPattern compiles expr into a Pattern.
func NewPattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re}, nil
}

func (p *Pattern) Match(entry *domain.Entry) bool {
	if p == nil || p.re == nil {
		return true
	}
	return p.re.MatchString(entry.Message)
}

// Exclude drops entries whose message matches any of its expressions.
type Exclude struct {
	res []*regexp.Regexp
}

// NewExclude compiles every expression.
func NewExclude(exprs ...string) (*Exclude, error) {
	ex := &Exclude{}
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, err
		}
		ex.res = append(ex.res, re)
	}
	return ex, nil
}

func (x *Exclude) Match(entry *domain.Entry) bool {
	if x == nil {
		return true
	}
	for _, re := range x.res {
		if re.MatchString(entry.Message) {
			return false
		}
	}
	return true
}
