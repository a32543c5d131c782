package matching

import (
	"github.com/contre95/soulsearch/src/music"
)

// Expression is a compiled filter expression. AND binds tighter than OR, so it
// is kept as a disjunction of conjunctions.
type Expression struct {
	source string
	groups [][]condition
}

// Compile validates expr and returns it in evaluable form.
func Compile(expr string) (*Expression, error) {
	p := parse(expr)
	if len(p.errs) > 0 {
		return nil, &ExpressionError{Expression: expr, Errors: p.errs}
	}

	groups := [][]condition{{p.conditions[0]}}
	for i, op := range p.operators {
		next := p.conditions[i+1]
		if op == "OR" {
			groups = append(groups, []condition{next})
			continue
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], next)
	}
	return &Expression{source: expr, groups: groups}, nil
}

// String returns the expression as it was written.
func (e *Expression) String() string {
	return e.source
}

// Evaluate reports whether m satisfies the expression.
func (e *Expression) Evaluate(m music.MatchResult) bool {
	for _, group := range e.groups {
		if allHold(group, m) {
			return true
		}
	}
	return false
}

func allHold(group []condition, m music.MatchResult) bool {
	for _, c := range group {
		if !c.holds(m) {
			return false
		}
	}
	return true
}

func (c condition) holds(m music.MatchResult) bool {
	fm, ok := m.Field(c.field)
	if !ok {
		return false
	}
	switch c.op {
	case opContains:
		return fm.Contains
	case opNot:
		return !fm.Match
	case opSimilarity:
		return fm.Similarity >= c.threshold
	default:
		return fm.Match
	}
}

// FilterSet accepts a candidate when any of its expressions does. An empty set
// accepts everything.
type FilterSet []*Expression

// CompileAll compiles every expression, failing on the first invalid one.
func CompileAll(exprs []string) (FilterSet, error) {
	set := make(FilterSet, 0, len(exprs))
	for _, expr := range exprs {
		compiled, err := Compile(expr)
		if err != nil {
			return nil, err
		}
		set = append(set, compiled)
	}
	return set, nil
}

// Accepts reports whether m passes the set.
func (fs FilterSet) Accepts(m music.MatchResult) bool {
	if len(fs) == 0 {
		return true
	}
	for _, e := range fs {
		if e.Evaluate(m) {
			return true
		}
	}
	return false
}
