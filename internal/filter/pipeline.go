package filter

import "fmt"

// Options describes the user-supplied predicates beyond host and unit.
type Options struct {
	Pattern  string   // message regex that must match
	Excludes []string // message regexes that must not match
	Where    []string // where expressions, AND-ed
}

// Build compiles opts into one filter. It returns nil when opts is empty
// so callers can skip matching altogether.
func Build(opts Options) (Filter, error) {
	var chain Chain
	if opts.Pattern != "" {
		p, err := NewPattern(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		chain = append(chain, p)
	}
	if len(opts.Excludes) > 0 {
		x, err := NewExclude(opts.Excludes...)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern: %w", err)
		}
		chain = append(chain, x)
	}
	if len(opts.Where) > 0 {
		w, err := NewWhere(opts.Where...)
		if err != nil {
			return nil, err
		}
		chain = append(chain, w)
	}
	switch len(chain) {
	case 0:
		return nil, nil
	case 1:
		return chain[0], nil
	}
	return chain, nil
}
