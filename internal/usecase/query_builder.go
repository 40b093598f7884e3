package usecase

import (
	"iter"
	"regexp"
	"slices"
	"strings"

	"github.com/routinematch/backend/internal/domain"
)

const maxQueryLength = 100

var (
	// Characters the VTEX search endpoint rejects or misreads
	querySpecialChars = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~` + "`" + `"]`)
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// QueryBuilder turns a profile and a target slot into catalog search queries
type QueryBuilder struct {
	rules FamilyRules
}

// NewQueryBuilder creates a query builder for one product family
func NewQueryBuilder(rules FamilyRules) *QueryBuilder {
	return &QueryBuilder{rules: rules}
}

// Queries yields the search queries for a slot, most specific first and ending with the
// bare slot keyword. The sequence is lazy and restartable; duplicates are skipped.
func (b *QueryBuilder) Queries(profile domain.UserProfile, slot domain.Slot) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]bool)
		emit := func(q string) bool {
			q = cleanQuery(q)
			if q == "" || seen[q] {
				return true
			}
			seen[q] = true
			return yield(q)
		}

		keyword := strings.TrimSpace(slot.Keyword)
		if keyword == "" {
			keyword = slot.Name
		}

		if !emit(b.specificQuery(profile, keyword)) {
			return
		}
		for _, word := range b.rules.QueryWords {
			if !emit(keyword + " " + word) {
				return
			}
		}
		if b.rules.TreatmentPrefix != "" {
			if !emit(b.rules.TreatmentPrefix + " " + keyword) {
				return
			}
		}
		emit(keyword)
	}
}

// Build collects every query of the slot
func (b *QueryBuilder) Build(profile domain.UserProfile, slot domain.Slot) []string {
	return slices.Collect(b.Queries(profile, slot))
}

// specificQuery combines the slot keyword with the profile's type and concern phrases
func (b *QueryBuilder) specificQuery(profile domain.UserProfile, keyword string) string {
	parts := []string{keyword}
	if len(b.rules.QueryWords) > 0 {
		parts = append(parts, b.rules.QueryWords[0])
	}
	for _, rule := range b.rules.ProfileMatches(profile) {
		parts = append(parts, rule.Phrase)
	}
	for _, rule := range b.rules.ConcernMatches(profile) {
		parts = append(parts, rule.Phrase)
	}
	return strings.Join(parts, " ")
}

// cleanQuery strips characters the catalog rejects, collapses whitespace and caps the length
// at a word boundary
func cleanQuery(q string) string {
	q = strings.ReplaceAll(q, "&", " e ")
	q = querySpecialChars.ReplaceAllString(q, " ")
	q = multiSpacePattern.ReplaceAllString(q, " ")
	q = strings.TrimSpace(q)

	if len(q) > maxQueryLength {
		q = q[:maxQueryLength]
		if lastSpace := strings.LastIndex(q, " "); lastSpace > maxQueryLength/2 {
			q = q[:lastSpace]
		}
	}
	return q
}
