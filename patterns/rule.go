package patterns

import (
	"labflux.com/lfx/types"
	"fmt"
	"regexp"
)

type Rule struct {
	Field    string
	Families []types.Family
	Scope    string
	Pattern  *regexp.Regexp
	Coerce   Coercion
}

func NewRule(field string, pattern string, coerce Coercion, scope string, families ...types.Family) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("field %s: %w", field, err)
	}
	if re.NumSubexp() != 1 {
		return Rule{}, fmt.Errorf("field %s: pattern must have exactly one capture group, got %d", field, re.NumSubexp())
	}
	if coerce == nil {
		coerce = Identity
	}
	if scope == "" {
		scope = types.ScopeSection
	}
	return Rule{
		Field:    field,
		Families: families,
		Scope:    scope,
		Pattern:  re,
		Coerce:   coerce,
	}, nil
}

func mustRule(field string, pattern string, coerce Coercion, scope string, families ...types.Family) Rule {
	rule, err := NewRule(field, pattern, coerce, scope, families...)
	if err != nil {
		panic(err)
	}
	return rule
}

func (rule Rule) AppliesTo(family types.Family) bool {
	for _, f := range rule.Families {
		if f == family {
			return true
		}
	}
	return false
}

// Match returns the coerced value of the first match in text.
func (rule Rule) Match(text string) (string, bool) {
	m := rule.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return rule.Coerce(m[1])
}
