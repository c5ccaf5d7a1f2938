package patterns

import (
	"labflux.com/lfx/types"
	"fmt"
)

// Library is the ordered, read-only set of field rules.
type Library struct {
	rules []Rule
	index map[string]int
}

func NewLibrary(rules ...Rule) (*Library, error) {
	lib := &Library{
		rules: make([]Rule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}
	for _, rule := range rules {
		if _, dup := lib.index[rule.Field]; dup {
			return nil, fmt.Errorf("duplicate field rule %q", rule.Field)
		}
		lib.index[rule.Field] = len(lib.rules)
		lib.rules = append(lib.rules, rule)
	}
	return lib, nil
}

func (lib *Library) Lookup(field string) (Rule, bool) {
	i, ok := lib.index[field]
	if !ok {
		return Rule{}, false
	}
	return lib.rules[i], true
}

func (lib *Library) All() []Rule {
	out := make([]Rule, len(lib.rules))
	copy(out, lib.rules)
	return out
}

func (lib *Library) Len() int {
	return len(lib.rules)
}

// ForFamily returns the section scoped rules that apply to the family.
func (lib *Library) ForFamily(family types.Family) []Rule {
	var out []Rule
	for _, rule := range lib.rules {
		if rule.Scope != types.ScopeDocument && rule.AppliesTo(family) {
			out = append(out, rule)
		}
	}
	return out
}

// Document returns the rules read once per document, such as patient identity.
func (lib *Library) Document() []Rule {
	var out []Rule
	for _, rule := range lib.rules {
		if rule.Scope == types.ScopeDocument {
			out = append(out, rule)
		}
	}
	return out
}

// Extend returns a new library with the dialect rules appended after the
// existing ones. Rules without families apply to the general family.
func (lib *Library) Extend(dialects []types.Dialect) (*Library, error) {
	rules := lib.All()
	for _, dialect := range dialects {
		for _, dr := range dialect.Rules {
			coerce, err := CoercionByName(dr.Coercion)
			if err != nil {
				return nil, fmt.Errorf("dialect %s: field %s: %w", dialect.Name, dr.Field, err)
			}
			families := dr.Families
			if len(families) == 0 {
				families = []types.Family{types.FamilyGeneral}
			}
			rule, err := NewRule(dr.Field, dr.Pattern, coerce, dr.Scope, families...)
			if err != nil {
				return nil, fmt.Errorf("dialect %s: %w", dialect.Name, err)
			}
			rules = append(rules, rule)
		}
	}
	return NewLibrary(rules...)
}

var defaultLibrary = mustLibrary(defaultRules())

func mustLibrary(rules []Rule) *Library {
	lib, err := NewLibrary(rules...)
	if err != nil {
		panic(err)
	}
	return lib
}

// Default is the built-in library. It is shared and must not be modified.
func Default() *Library {
	return defaultLibrary
}
