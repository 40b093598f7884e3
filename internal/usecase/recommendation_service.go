package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/logging"
	"github.com/routinematch/backend/internal/metrics"
)

// ExhaustionPolicy selects the outcome when no usable candidate exists at all
type ExhaustionPolicy string

const (
	// ExhaustionFiller answers with a single category-page entry
	ExhaustionFiller ExhaustionPolicy = "filler"
	// ExhaustionError fails the request with domain.ErrNoCandidates
	ExhaustionError ExhaustionPolicy = "error"
)

// RecommendationConfig holds the per-process pipeline configuration
type RecommendationConfig struct {
	Ruleset          Ruleset
	Bands            []domain.BudgetBand
	BudgetPolicy     BudgetPolicy
	ExhaustionPolicy ExhaustionPolicy

	QueryTimeout         time.Duration // bound of each catalog call
	SufficiencyThreshold int           // eligible candidates after which a slot stops querying
	MaxConcurrency       int           // slots searched in parallel

	StoreBaseURL    string
	StoreDomain     string
	DefaultBrand    string
	AffiliateParams map[string]string
	ImageRelayURL   string
	FallbackPrice   float64
	IDPrefix        string
}

// familyPipeline holds the stages bound to one product family's rules
type familyPipeline struct {
	rules      FamilyRules
	queries    *QueryBuilder
	normalizer *Normalizer
	scorer     *Scorer
	assembler  *Assembler
}

// RecommendationService runs the selection pipeline:
// profile -> queries -> records -> candidates -> eligible -> scored -> budget pool -> basket
type RecommendationService struct {
	searcher  domain.CatalogSearcher
	config    RecommendationConfig
	filter    *EligibilityFilter
	budget    *BudgetLadder
	pipelines map[domain.ProductFamily]*familyPipeline
}

// NewRecommendationService creates the service. It fails only when the budget ladder is invalid.
func NewRecommendationService(searcher domain.CatalogSearcher, config RecommendationConfig) (*RecommendationService, error) {
	if len(config.Ruleset.Families) == 0 {
		config.Ruleset = DefaultRuleset()
	}
	if len(config.Bands) == 0 {
		config.Bands = DefaultBudgetBands()
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = 8 * time.Second
	}
	if config.SufficiencyThreshold <= 0 {
		config.SufficiencyThreshold = 60
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.FallbackPrice <= 0 {
		config.FallbackPrice = 49.90
	}
	if config.ExhaustionPolicy != ExhaustionError {
		config.ExhaustionPolicy = ExhaustionFiller
	}

	ladder, err := NewLadder(config.Bands)
	if err != nil {
		return nil, err
	}

	filter := NewEligibilityFilter(config.Ruleset.ForbiddenTerms)
	pipelines := make(map[domain.ProductFamily]*familyPipeline, len(config.Ruleset.Families))
	for family, rules := range config.Ruleset.Families {
		pipelines[family] = &familyPipeline{
			rules:   rules,
			queries: NewQueryBuilder(rules),
			normalizer: NewNormalizer(rules, NormalizerConfig{
				StoreBaseURL: config.StoreBaseURL,
				StoreDomain:  config.StoreDomain,
				DefaultBrand: config.DefaultBrand,
			}),
			scorer: NewScorer(rules, filter, ScorerConfig{
				StoreDomain:  config.StoreDomain,
				DefaultBrand: config.DefaultBrand,
			}),
			assembler: NewAssembler(rules, AssemblerConfig{
				StoreDomain:     config.StoreDomain,
				DefaultBrand:    config.DefaultBrand,
				AffiliateParams: config.AffiliateParams,
				ImageRelayURL:   config.ImageRelayURL,
				FallbackPrice:   config.FallbackPrice,
				IDPrefix:        config.IDPrefix,
			}),
		}
	}

	return &RecommendationService{
		searcher:  searcher,
		config:    config,
		filter:    filter,
		budget:    NewBudgetLadder(ladder, config.BudgetPolicy),
		pipelines: pipelines,
	}, nil
}

// Ladder returns the configured budget ladder
func (s *RecommendationService) Ladder() *Ladder {
	return s.budget.Ladder()
}

// Recommend builds a basket for the profile. It returns an error only for an unknown
// family or, under the error exhaustion policy, when no usable candidate exists.
func (s *RecommendationService) Recommend(ctx context.Context, profile domain.UserProfile) (*domain.RecommendationResult, error) {
	start := time.Now()

	if profile.Family == "" {
		profile.Family = domain.FamilyFace
	}
	p, ok := s.pipelines[profile.Family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFamily, profile.Family)
	}
	rules := p.rules
	slots := rules.Slots
	k := rules.BasketSize()

	candidates := s.collect(ctx, p, profile)
	eligible := s.filter.Filter(candidates)

	selected := s.budget.Ladder().Detect(profile.Budget)
	selectedRange := s.budget.Ladder().Range(selected)
	ranked := p.scorer.Rank(eligible, profile, slots, &selectedRange)

	if len(ranked) == 0 {
		return s.exhausted(ctx, p, profile, selected, len(candidates), start)
	}

	res := s.budget.Resolve(ranked, selected, k)
	pool := p.scorer.Rank(res.Pool, profile, slots, res.Range)
	chosen := Diversify(pool, slots, k)
	if len(chosen) == 0 {
		// every eligible candidate sits outside the allowed budget
		return s.exhausted(ctx, p, profile, selected, len(candidates), start)
	}

	fillers := 0
	if len(chosen) < k {
		before := len(chosen)
		chosen = s.padWithFillers(chosen, rules, k)
		fillers = len(chosen) - before
	}

	result := p.assembler.Assemble(chosen, res)

	if res.Used != nil && res.Used.Label != res.Requested.Label {
		metrics.RecordEscalation(res.Requested.Label, res.Used.Label)
	}
	metrics.RecordRecommendation(string(profile.Family), string(res.Strategy), fillers, time.Since(start))

	logging.Ctx(ctx).Info().
		Str("family", string(profile.Family)).
		Str("requested", res.Requested.Label).
		Str("strategy", string(res.Strategy)).
		Int("eligible", len(ranked)).
		Int("pool", len(pool)).
		Int("fillers", fillers).
		Dur("elapsed", time.Since(start)).
		Msg("[RECOMMEND] basket assembled")

	return &result, nil
}

// exhausted applies the exhaustion policy when no real product can fill the basket
func (s *RecommendationService) exhausted(ctx context.Context, p *familyPipeline, profile domain.UserProfile, selected, raw int, start time.Time) (*domain.RecommendationResult, error) {
	metrics.RecordExhausted()
	logging.Ctx(ctx).Warn().
		Str("family", string(profile.Family)).
		Int("raw_candidates", raw).
		Msg("[RECOMMEND] no usable candidates")
	if s.config.ExhaustionPolicy == ExhaustionError {
		return nil, domain.ErrNoCandidates
	}

	res := BudgetResolution{
		Requested:    s.budget.Ladder().Band(selected),
		RequestedIdx: selected,
		Strategy:     StrategyUnconstrained,
	}
	chosen := []domain.Candidate{s.familyFiller(p.rules)}
	result := p.assembler.Assemble(chosen, res)
	metrics.RecordRecommendation(string(profile.Family), string(res.Strategy), 1, time.Since(start))
	return &result, nil
}

// collect searches every slot concurrently and merges the results in slot order,
// numbering candidates in discovery order
func (s *RecommendationService) collect(ctx context.Context, p *familyPipeline, profile domain.UserProfile) []domain.Candidate {
	perSlot := make([][]domain.Candidate, len(p.rules.Slots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)
	for i, slot := range p.rules.Slots {
		g.Go(func() error {
			perSlot[i] = s.collectSlot(gctx, p, profile, i, slot)
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Candidate
	seq := 0
	for _, found := range perSlot {
		for _, c := range found {
			c.Seq = seq
			seq++
			merged = append(merged, c)
		}
	}
	return merged
}

// collectSlot consumes the slot's queries in order until enough eligible candidates are found
func (s *RecommendationService) collectSlot(ctx context.Context, p *familyPipeline, profile domain.UserProfile, slotIndex int, slot domain.Slot) []domain.Candidate {
	var found []domain.Candidate
	seen := make(map[string]bool)
	eligible := 0

	for query := range p.queries.Queries(profile, slot) {
		if ctx.Err() != nil {
			break
		}
		for _, c := range p.normalizer.NormalizeAll(s.search(ctx, query)) {
			if seen[c.PurchaseURL] {
				continue
			}
			seen[c.PurchaseURL] = true
			c.SlotIndex = slotIndex
			found = append(found, c)
			if s.filter.Eligible(c) {
				eligible++
			}
		}
		if eligible >= s.config.SufficiencyThreshold {
			break
		}
	}

	logging.Debug().
		Str("slot", slot.Name).
		Int("found", len(found)).
		Int("eligible", eligible).
		Msg("[RECOMMEND] slot collected")
	return found
}

// search runs one bounded catalog call; any failure counts as zero results
func (s *RecommendationService) search(ctx context.Context, query string) []domain.CatalogProduct {
	callCtx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	raws, err := s.searcher.Search(callCtx, query)
	if err != nil {
		event := logging.Ctx(ctx).Warn()
		if errors.Is(err, context.DeadlineExceeded) {
			event = event.Bool("timeout", true)
		}
		event.Err(err).Str("query", query).Msg("[RECOMMEND] catalog query failed, treating as empty")
		return nil
	}
	return raws
}

// padWithFillers appends category-page entries for the slots the basket does not cover
// until it holds k entries
func (s *RecommendationService) padWithFillers(chosen []domain.Candidate, rules FamilyRules, k int) []domain.Candidate {
	covered := func(slot domain.Slot) bool {
		for _, c := range chosen {
			if slot.Prefers(c.Category) {
				return true
			}
		}
		return false
	}

	used := make(map[string]bool, len(chosen))
	for _, c := range chosen {
		used[c.PurchaseURL] = true
	}

	var missing, rest []domain.Slot
	for _, slot := range rules.Slots {
		if covered(slot) {
			rest = append(rest, slot)
		} else {
			missing = append(missing, slot)
		}
	}

	for _, slot := range append(missing, rest...) {
		if len(chosen) >= k {
			break
		}
		filler := s.slotFiller(rules, slot)
		if used[filler.PurchaseURL] {
			continue
		}
		used[filler.PurchaseURL] = true
		chosen = append(chosen, filler)
	}
	return chosen
}

func (s *RecommendationService) slotFiller(rules FamilyRules, slot domain.Slot) domain.Candidate {
	category := domain.CategoryOther
	if len(slot.Preferred) > 0 {
		category = slot.Preferred[0]
	}
	return s.filler(rules, slot.Keyword, category)
}

func (s *RecommendationService) familyFiller(rules FamilyRules) domain.Candidate {
	keyword := rules.FamilyKeyword
	if keyword == "" && len(rules.QueryWords) > 0 {
		keyword = rules.QueryWords[0]
	}
	return s.filler(rules, keyword, domain.CategoryOther)
}

func (s *RecommendationService) filler(rules FamilyRules, keyword string, category domain.CategoryTag) domain.Candidate {
	label := rules.FillerLabel
	if label == "" {
		label = "%s"
	}
	return domain.Candidate{
		Name:        fmt.Sprintf(label, keyword),
		Brand:       s.config.DefaultBrand,
		PurchaseURL: categoryPageURL(s.config.StoreBaseURL, keyword),
		Available:   true,
		Category:    category,
		Filler:      true,
	}
}

// categoryPageURL is the storefront full-text search page for a keyword
func categoryPageURL(baseURL, keyword string) string {
	keyword = strings.TrimSpace(keyword)
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(keyword) +
		"?_q=" + url.QueryEscape(keyword) + "&map=ft"
}
