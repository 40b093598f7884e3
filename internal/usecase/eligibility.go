package usecase

import (
	"strings"

	"github.com/routinematch/backend/internal/domain"
)

// EligibilityFilter removes disallowed, unavailable and link-less candidates
type EligibilityFilter struct {
	forbidden []string
}

// NewEligibilityFilter creates a filter over the given disallowed terms
func NewEligibilityFilter(forbiddenTerms []string) *EligibilityFilter {
	terms := make([]string, 0, len(forbiddenTerms))
	for _, t := range forbiddenTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return &EligibilityFilter{forbidden: terms}
}

// Filter returns the eligible candidates in their original order
func (f *EligibilityFilter) Filter(candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if f.Eligible(c) {
			out = append(out, c)
		}
	}
	return out
}

// Eligible reports whether a single candidate passes the filter
func (f *EligibilityFilter) Eligible(c domain.Candidate) bool {
	return c.Available && strings.TrimSpace(c.PurchaseURL) != "" && !f.Forbidden(c.Name)
}

// Forbidden reports whether the name contains a disallowed term (case-insensitive)
func (f *EligibilityFilter) Forbidden(name string) bool {
	return containsAny(strings.ToLower(name), f.forbidden)
}
