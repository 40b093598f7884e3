package usecase

import "github.com/routinematch/backend/internal/domain"

// Diversify picks up to k candidates: one per slot in slot order (preferring the slot's
// categories, else the best remaining candidate), then fills the remaining seats by score.
// The pool must be ordered best first. No purchase URL is chosen twice.
func Diversify(pool []domain.Candidate, slots []domain.Slot, k int) []domain.Candidate {
	if k <= 0 {
		return nil
	}

	chosen := make([]domain.Candidate, 0, k)
	taken := make(map[string]bool, k)

	pick := func(c domain.Candidate) {
		chosen = append(chosen, c)
		taken[c.PurchaseURL] = true
	}

	for _, slot := range slots {
		if len(chosen) >= k {
			break
		}
		if c, ok := bestFor(pool, taken, slot.Prefers); ok {
			pick(c)
			continue
		}
		if c, ok := bestFor(pool, taken, nil); ok {
			pick(c)
		}
	}

	for _, c := range pool {
		if len(chosen) >= k {
			break
		}
		if !taken[c.PurchaseURL] {
			pick(c)
		}
	}

	return chosen
}

// bestFor returns the first untaken candidate accepted by match (nil accepts all)
func bestFor(pool []domain.Candidate, taken map[string]bool, match func(domain.CategoryTag) bool) (domain.Candidate, bool) {
	for _, c := range pool {
		if taken[c.PurchaseURL] {
			continue
		}
		if match == nil || match(c.Category) {
			return c, true
		}
	}
	return domain.Candidate{}, false
}
