package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/routinematch/backend/internal/domain"
)

// BudgetPolicy selects how the ladder reacts to an underpopulated band
type BudgetPolicy string

const (
	// BudgetEscalating widens the upper bound band by band until the basket fills
	BudgetEscalating BudgetPolicy = "escalating"
	// BudgetHardCeiling never admits a known price above the selected band's max
	BudgetHardCeiling BudgetPolicy = "hard"
)

// BudgetStrategy records which step of the ladder produced the pool
type BudgetStrategy string

const (
	StrategySelected      BudgetStrategy = "selected"
	StrategyEscalated     BudgetStrategy = "escalated"
	StrategyFullLadder    BudgetStrategy = "full_ladder"
	StrategyUnconstrained BudgetStrategy = "unconstrained"
	StrategyHardCeiling   BudgetStrategy = "hard_ceiling"
)

// PriceRange is a price interval; the lower bound is exclusive for bands above the first
type PriceRange struct {
	Low          float64
	High         float64
	LowExclusive bool
}

// Contains reports whether a price falls inside the range
func (r PriceRange) Contains(price float64) bool {
	if price > r.High {
		return false
	}
	if r.LowExclusive {
		return price > r.Low
	}
	return price >= r.Low
}

// DefaultBudgetBands is the ladder used when configuration provides none
func DefaultBudgetBands() []domain.BudgetBand {
	return []domain.BudgetBand{
		{Label: "0-60", Min: 0, Max: 60},
		{Label: "61-120", Min: 61, Max: 120},
		{Label: "121-200", Min: 121, Max: 200},
		{Label: "201-350", Min: 201, Max: 350},
		{Label: "351+", Min: 351, Max: 9999},
	}
}

// Ladder is an ordered, gap-free sequence of budget bands.
// Band 0 holds [min0, max0]; band i>0 holds (max(i-1), max(i)].
type Ladder struct {
	bands []domain.BudgetBand
}

// NewLadder validates the bands and builds a ladder
func NewLadder(bands []domain.BudgetBand) (*Ladder, error) {
	if len(bands) == 0 {
		return nil, errors.New("budget ladder: at least one band is required")
	}
	for i, b := range bands {
		if b.Min < 0 || b.Max < 0 {
			return nil, fmt.Errorf("budget ladder: band %d (%s) has a negative bound", i, b.Label)
		}
		if b.Min > b.Max {
			return nil, fmt.Errorf("budget ladder: band %d (%s) has min %.2f above max %.2f", i, b.Label, b.Min, b.Max)
		}
		if i > 0 && b.Max <= bands[i-1].Max {
			return nil, fmt.Errorf("budget ladder: band %d (%s) must end above band %d", i, b.Label, i-1)
		}
	}
	return &Ladder{bands: append([]domain.BudgetBand(nil), bands...)}, nil
}

// Len returns the number of bands
func (l *Ladder) Len() int {
	return len(l.bands)
}

// Band returns the band at index i
func (l *Ladder) Band(i int) domain.BudgetBand {
	return l.bands[i]
}

// Range returns the price interval covered by band i
func (l *Ladder) Range(i int) PriceRange {
	if i == 0 {
		return PriceRange{Low: l.bands[0].Min, High: l.bands[0].Max}
	}
	return PriceRange{Low: l.bands[i-1].Max, High: l.bands[i].Max, LowExclusive: true}
}

// Span returns the interval from the low end of band from to the high end of band to
func (l *Ladder) Span(from, to int) PriceRange {
	r := l.Range(from)
	r.High = l.bands[to].Max
	return r
}

var (
	selectorNumber = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	thousandsSep   = regexp.MustCompile(`(\d)\.(\d{3})\b`)
)

// Detect maps a free-text budget answer to a band index: exact label first, then the band
// holding the first number in the text ("acima de N" meaning just above N), then
// "acima"/"+" alone for the top band, else band 0
func (l *Ladder) Detect(selector string) int {
	s := strings.ToLower(strings.TrimSpace(selector))
	if s == "" {
		return 0
	}

	for i, b := range l.bands {
		if strings.EqualFold(strings.TrimSpace(b.Label), s) {
			return i
		}
	}

	above := strings.Contains(s, "acima") || strings.Contains(s, "+")

	// "1.000" is one thousand in pt-BR
	if m := selectorNumber.FindString(thousandsSep.ReplaceAllString(s, "${1}${2}")); m != "" {
		if n, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64); err == nil {
			if above {
				n += 0.01 // "acima de 350" starts past the number
			}
			for i := range l.bands {
				if l.Range(i).Contains(n) {
					return i
				}
			}
			if n > l.bands[len(l.bands)-1].Max {
				return len(l.bands) - 1
			}
			return 0
		}
	}

	if above {
		return len(l.bands) - 1
	}
	return 0
}

// BudgetResolution is the outcome of resolving a pool against the ladder
type BudgetResolution struct {
	Requested    domain.BudgetBand
	RequestedIdx int
	Used         *domain.BudgetBand // nil when no price constraint could be honored
	Range        *PriceRange        // active range for the budget signal; nil when unconstrained
	Pool         []domain.Candidate
	Strategy     BudgetStrategy
	Honored      bool
	Message      string
}

// BudgetLadder resolves which candidates are drawn from, under one budget policy
type BudgetLadder struct {
	ladder *Ladder
	policy BudgetPolicy
}

// NewBudgetLadder creates a resolver; an unknown policy falls back to escalating
func NewBudgetLadder(ladder *Ladder, policy BudgetPolicy) *BudgetLadder {
	if policy != BudgetHardCeiling {
		policy = BudgetEscalating
	}
	return &BudgetLadder{ladder: ladder, policy: policy}
}

// Ladder returns the underlying band ladder
func (b *BudgetLadder) Ladder() *Ladder {
	return b.ladder
}

// Policy returns the active budget policy
func (b *BudgetLadder) Policy() BudgetPolicy {
	return b.policy
}

// Resolve selects the candidate pool for a basket of k items starting at band selected.
// The pool keeps the input order.
func (b *BudgetLadder) Resolve(pool []domain.Candidate, selected, k int) BudgetResolution {
	if selected < 0 || selected >= b.ladder.Len() {
		selected = 0
	}
	if b.policy == BudgetHardCeiling {
		return b.resolveHard(pool, selected, k)
	}
	return b.resolveEscalating(pool, selected, k)
}

func (b *BudgetLadder) resolveEscalating(pool []domain.Candidate, selected, k int) BudgetResolution {
	requested := b.ladder.Band(selected)
	res := BudgetResolution{Requested: requested, RequestedIdx: selected}

	r := b.ladder.Range(selected)
	if subset := pricedWithin(pool, r); len(subset) >= k {
		return b.honored(res, subset, r, requested, StrategySelected)
	}

	for next := selected + 1; next < b.ladder.Len(); next++ {
		span := b.ladder.Span(selected, next)
		if subset := pricedWithin(pool, span); len(subset) >= k {
			used := b.ladder.Band(next)
			res = b.honored(res, subset, span, used, StrategyEscalated)
			res.Message = escalationMessage(requested, used)
			return res
		}
	}

	last := b.ladder.Len() - 1
	full := b.ladder.Span(0, last)
	if subset := pricedWithin(pool, full); len(subset) >= k {
		used := spanBand(b.ladder.Band(0), b.ladder.Band(last))
		res = b.honored(res, subset, full, used, StrategyFullLadder)
		res.Message = escalationMessage(requested, used)
		return res
	}

	res.Pool = append([]domain.Candidate(nil), pool...)
	res.Strategy = StrategyUnconstrained
	res.Message = unconstrainedMessage(requested)
	return res
}

func (b *BudgetLadder) resolveHard(pool []domain.Candidate, selected, k int) BudgetResolution {
	requested := b.ladder.Band(selected)
	res := BudgetResolution{Requested: requested, RequestedIdx: selected}

	r := b.ladder.Range(selected)
	if subset := pricedWithin(pool, r); len(subset) >= k {
		return b.honored(res, subset, r, requested, StrategySelected)
	}

	// Below the ceiling only: cheaper bands first, then unknown prices.
	below := b.ladder.Span(0, selected)
	subset := pricedWithin(pool, below)
	if len(subset) < k {
		for _, c := range pool {
			if !c.PriceKnown() {
				subset = append(subset, c)
			}
		}
	}

	used := requested
	if selected > 0 {
		used = spanBand(b.ladder.Band(0), requested)
	}
	res = b.honored(res, subset, below, used, StrategyHardCeiling)
	if selected > 0 {
		res.Message = escalationMessage(requested, used)
	}
	return res
}

func (b *BudgetLadder) honored(res BudgetResolution, pool []domain.Candidate, r PriceRange, used domain.BudgetBand, strategy BudgetStrategy) BudgetResolution {
	res.Pool = pool
	res.Range = &r
	res.Used = &used
	res.Strategy = strategy
	res.Honored = true
	return res
}

// pricedWithin keeps candidates with a known price inside r, preserving order
func pricedWithin(pool []domain.Candidate, r PriceRange) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(pool))
	for _, c := range pool {
		if c.PriceKnown() && r.Contains(c.Price) {
			out = append(out, c)
		}
	}
	return out
}

func spanBand(from, to domain.BudgetBand) domain.BudgetBand {
	return domain.BudgetBand{
		Label: from.Label + " a " + to.Label,
		Min:   from.Min,
		Max:   to.Max,
	}
}

func escalationMessage(requested, used domain.BudgetBand) string {
	return fmt.Sprintf(
		"Não encontramos produtos suficientes na faixa de preço indicada (%s). Por isso, exibimos produtos na faixa %s.",
		requested.Label, used.Label,
	)
}

func unconstrainedMessage(requested domain.BudgetBand) string {
	return fmt.Sprintf(
		"Não encontramos produtos suficientes na faixa de preço indicada (%s) nem nas faixas seguintes. Por isso, exibimos os produtos mais adequados sem limite de preço.",
		requested.Label,
	)
}
