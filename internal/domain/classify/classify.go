// Package classify assigns categories to extract concepts using
// ordered, first-match-wins rule lists.
package classify

import (
	"regexp"
	"strings"

	"github.com/urizarreta/conciliar-backend/internal/domain/normalize"
)

// Rule matches concepts either as a regular expression or as a
// substring of the normalized concept.
type Rule struct {
	ID            string
	CategoryID    string
	Pattern       string
	IsRegex       bool
	CaseSensitive bool
}

// Category is an ordered rule group. Order within and across
// categories is significant: the first matching rule decides.
type Category struct {
	ID    string
	Name  string
	Rules []Rule
}

// Resolve returns the ID of the first category with a rule matching
// the concept, or "" when none matches. A line without a concept is
// never categorized, even by rules that match the empty string.
func Resolve(concept string, categories []Category) string {
	if concept == "" {
		return ""
	}
	for _, category := range categories {
		for _, rule := range category.Rules {
			if RuleMatches(concept, rule) {
				return category.ID
			}
		}
	}
	return ""
}

// RuleMatches reports whether a single rule matches the concept.
// Regex rules test the original concept text; a pattern that fails to
// compile degrades to a substring match.
func RuleMatches(concept string, rule Rule) bool {
	if rule.IsRegex {
		pattern := rule.Pattern
		if !rule.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		if re, err := regexp.Compile(pattern); err == nil {
			return re.MatchString(concept)
		}
	}
	if rule.CaseSensitive {
		return strings.Contains(strings.TrimSpace(concept), strings.TrimSpace(rule.Pattern))
	}
	return strings.Contains(normalize.Concept(concept), normalize.Concept(rule.Pattern))
}
