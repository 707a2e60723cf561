// Package matching selects the canned response for an inbound message.
package matching

import (
	"strings"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// SelectRule returns the active rule whose keyword occurs in text, ignoring case. Among
// matches the highest priority wins, then the newest created_at, then the greatest rule id.
// The result does not depend on the order of rules.
func SelectRule(rules []persistence.ResponseRule, text string) (persistence.ResponseRule, bool) {
	haystack := strings.ToLower(text)

	var (
		best  persistence.ResponseRule
		found bool
	)
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		keyword := strings.ToLower(rule.Keyword)
		if strings.TrimSpace(keyword) == "" || !strings.Contains(haystack, keyword) {
			continue
		}
		if !found || outranks(rule, best) {
			best = rule
			found = true
		}
	}
	return best, found
}

func outranks(a, b persistence.ResponseRule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.RuleID.String() > b.RuleID.String()
}
