package querybuilder

import (
	"fmt"
	"strings"
)

// bindMark stands in for a positional parameter until the statement is rendered.
const bindMark = "?"

// predicate is one AND-ed condition. Its clause carries one bindMark per arg.
type predicate struct {
	clause string
	args   []interface{}
}

func pred(clause string, args ...interface{}) predicate {
	return predicate{clause: clause, args: args}
}

// statement is a query described as data: the template it came from, the
// predicates that applied, and a trailing clause. Deciding which predicates
// apply is kept apart from how placeholders are spelled for the driver.
type statement struct {
	id         string
	base       string
	predicates []predicate
	suffix     string
}

func (s *statement) where(p ...predicate) {
	s.predicates = append(s.predicates, p...)
}

// render numbers placeholders in append order so params line up with $1..$N.
func (s *statement) render() (string, []interface{}) {
	var sb strings.Builder
	params := make([]interface{}, 0, len(s.predicates))

	sb.WriteString(s.base)
	for _, p := range s.predicates {
		if strings.Count(p.clause, bindMark) != len(p.args) {
			panic(fmt.Sprintf("predicate %q expects %d args, got %d",
				p.clause, strings.Count(p.clause, bindMark), len(p.args)))
		}
		clause := p.clause
		for _, arg := range p.args {
			params = append(params, arg)
			clause = strings.Replace(clause, bindMark, fmt.Sprintf("$%d", len(params)), 1)
		}
		sb.WriteString(" AND ")
		sb.WriteString(clause)
	}
	if s.suffix != "" {
		sb.WriteString(" ")
		sb.WriteString(s.suffix)
	}
	return sb.String(), params
}
