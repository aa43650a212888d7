package cli

import (
	"github.com/vburojevic/journalq/internal/domain"
	"github.com/vburojevic/journalq/internal/filter"
)

// FilterFlags are the entry predicates shared by query and tail
type FilterFlags struct {
	Grep     string   `short:"g" help:"Substring the message must contain"`
	Priority string   `short:"p" help:"Most verbose priority to keep (0-7 or emerg..debug)"`
	Pattern  string   `short:"e" help:"Regex the message must match"`
	Exclude  []string `short:"x" help:"Regex the message must not match (repeatable)"`
	Where    []string `short:"w" help:"Field expression, e.g. 'unit~^ssh and priority<=err' (repeatable, AND-ed)"`
}

// priority returns the parsed --priority, if given.
func (f FilterFlags) priority(globals *Globals) (domain.Priority, bool, error) {
	if f.Priority == "" {
		return 0, false, nil
	}
	p, ok := domain.ParsePriority(f.Priority)
	if !ok {
		return 0, false, invalidFlags(globals, "invalid --priority %q (want 0-7 or emerg, alert, crit, err, warning, notice, info, debug)", f.Priority)
	}
	return p, true, nil
}

// extra compiles --pattern, --exclude and --where. It returns nil when none
// is given.
func (f FilterFlags) extra(globals *Globals) (filter.Filter, error) {
	built, err := filter.Build(filter.Options{
		Pattern:  f.Pattern,
		Excludes: f.Exclude,
		Where:    f.Where,
	})
	if err != nil {
		return nil, outputError(globals, CodeInvalidFilter, err.Error(), err)
	}
	return built, nil
}

// all combines every predicate into a single filter.
func (f FilterFlags) all(globals *Globals) (filter.Filter, error) {
	var chain filter.Chain
	if f.Grep != "" {
		chain = append(chain, filter.Contains(f.Grep))
	}
	p, ok, err := f.priority(globals)
	if err != nil {
		return nil, err
	}
	if ok {
		chain = append(chain, filter.MaxPriority(p))
	}
	extra, err := f.extra(globals)
	if err != nil {
		return nil, err
	}
	chain = filter.NewChain(append(chain, extra)...)
	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}
