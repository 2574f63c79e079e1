// Package sanitize applies regex-based masking to result field values.
// Plan-cache and DMV tools return raw query text, which can embed literals
// from user data (emails, tokens, card numbers); sanitization rules mask
// those before the rows leave the server.
package sanitize

import (
	"fmt"
	"regexp"
)

// Rule is the sanitizer's own rule type.
type Rule struct {
	Pattern     string
	Replacement string
}

type compiledRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Sanitizer applies regex-based sanitization to result field values.
type Sanitizer struct {
	rules []compiledRule
}

// NewSanitizer creates a new Sanitizer. Returns an error on invalid regex
// patterns.
func NewSanitizer(rules []Rule) (*Sanitizer, error) {
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("sanitize: invalid regex pattern %q: %v", r.Pattern, err)
		}
		compiled[i] = compiledRule{pattern: re, replacement: r.Replacement}
	}
	return &Sanitizer{rules: compiled}, nil
}

// HasRules returns true if the sanitizer has any rules configured.
func (s *Sanitizer) HasRules() bool {
	return len(s.rules) > 0
}

// Value applies all rules to v. Only string values (and strings nested in
// maps/slices) are rewritten; numeric, bool, and nil values pass through
// untouched so SQL NULL stays an explicit null.
func (s *Sanitizer) Value(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		result := val
		for _, rule := range s.rules {
			result = rule.pattern.ReplaceAllString(result, rule.replacement)
		}
		return result
	case map[string]interface{}:
		for k, item := range val {
			val[k] = s.Value(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = s.Value(item)
		}
		return val
	default:
		return v
	}
}
