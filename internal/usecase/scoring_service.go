package usecase

import (
	"math"
	"net/url"
	"slices"
	"strings"

	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/logging"
)

// Signal weights. Category fit must stay the largest single contributor.
const (
	weightCategoryFit    = 4.0
	weightSlotKeyword    = 1.0
	weightRelevance      = 1.0
	weightProfileMatch   = 1.1
	maxProfileMatches    = 2
	weightConcernMatch   = 0.9
	maxConcernMatches    = 3
	bonusInBudget        = 1.2
	penaltyOutOfBudget   = -2.0 // larger magnitude than bonusInBudget
	bonusSecureImage     = 0.6
	bonusNonDefaultBrand = 0.2
	bonusStorefrontLink  = 0.6
)

// ScorerConfig holds storefront settings used by presentation-quality signals
type ScorerConfig struct {
	StoreDomain  string // e.g. opaque.com.br
	DefaultBrand string
}

// Scorer assigns suitability scores to candidates for a profile and slot
type Scorer struct {
	rules        FamilyRules
	filter       *EligibilityFilter
	storeDomain  string
	defaultBrand string
}

// NewScorer creates a scorer. The filter is the disqualification authority.
func NewScorer(rules FamilyRules, filter *EligibilityFilter, config ScorerConfig) *Scorer {
	return &Scorer{
		rules:        rules,
		filter:       filter,
		storeDomain:  strings.ToLower(strings.TrimPrefix(config.StoreDomain, "www.")),
		defaultBrand: config.DefaultBrand,
	}
}

// Score computes the additive score of one candidate. A nil budget skips the budget signal.
// Returns -Inf and false when the candidate is disqualified.
func (s *Scorer) Score(c domain.Candidate, profile domain.UserProfile, slot domain.Slot, budget *PriceRange) (float64, bool) {
	name := strings.ToLower(c.Name)

	if !c.Available || s.filter.Forbidden(name) {
		return math.Inf(-1), false
	}

	score := 0.0

	if slot.Prefers(c.Category) {
		score += weightCategoryFit
	}
	if keyword := strings.ToLower(strings.TrimSpace(slot.Keyword)); keyword != "" && strings.Contains(name, keyword) {
		score += weightSlotKeyword
	}
	if containsAny(name, s.rules.RelevanceTerms) {
		score += weightRelevance
	}

	profileHits := 0
	for _, rule := range s.rules.ProfileMatches(profile) {
		if profileHits < maxProfileMatches && containsAny(name, rule.NameKeywords) {
			profileHits++
		}
	}
	score += float64(profileHits) * weightProfileMatch

	concernHits := 0
	for _, rule := range s.rules.ConcernMatches(profile) {
		if concernHits < maxConcernMatches && containsAny(name, rule.NameKeywords) {
			concernHits++
		}
	}
	score += float64(concernHits) * weightConcernMatch

	if budget != nil && c.PriceKnown() {
		if budget.Contains(c.Price) {
			score += bonusInBudget
		} else {
			score += penaltyOutOfBudget
		}
	}

	if isSecureURL(c.ImageURL) {
		score += bonusSecureImage
	}
	if c.Brand != "" && !strings.EqualFold(c.Brand, s.defaultBrand) {
		score += bonusNonDefaultBrand
	}
	if s.onStorefront(c.PurchaseURL) {
		score += bonusStorefrontLink
	}

	return score, true
}

// Rank scores every candidate against the slot that discovered it, drops disqualified
// candidates, orders by score (ties by discovery order) and keeps the best entry per
// purchase URL
func (s *Scorer) Rank(candidates []domain.Candidate, profile domain.UserProfile, slots []domain.Slot, budget *PriceRange) []domain.Candidate {
	scored := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.SlotIndex < 0 || c.SlotIndex >= len(slots) {
			continue
		}
		score, ok := s.Score(c, profile, slots[c.SlotIndex], budget)
		if !ok {
			continue
		}
		c.Score = score
		scored = append(scored, c)

		logging.Debug().
			Str("name", c.Name).
			Str("category", string(c.Category)).
			Int("slot", c.SlotIndex).
			Float64("score", score).
			Msg("[SCORE] candidate scored")
	}

	sortByScore(scored)
	return dedupeByURL(scored)
}

// sortByScore orders by descending score, breaking ties by discovery order
func sortByScore(candidates []domain.Candidate) {
	slices.SortStableFunc(candidates, func(a, b domain.Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Seq - b.Seq
		}
	})
}

// dedupeByURL keeps the first occurrence of each purchase URL
func dedupeByURL(candidates []domain.Candidate) []domain.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.PurchaseURL] {
			continue
		}
		seen[c.PurchaseURL] = true
		out = append(out, c)
	}
	return out
}

// onStorefront reports whether the link's host is the store domain or a subdomain of it
func (s *Scorer) onStorefront(link string) bool {
	if s.storeDomain == "" {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return hostMatches(u.Hostname(), s.storeDomain)
}

func hostMatches(host, domainName string) bool {
	host = strings.ToLower(host)
	return host == domainName || strings.HasSuffix(host, "."+domainName)
}

func isSecureURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == "https" && u.Host != ""
}
