package usecase

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/routinematch/backend/internal/domain"
)

const maxBenefits = 4

// AssemblerConfig holds presentation settings
type AssemblerConfig struct {
	StoreDomain     string
	DefaultBrand    string
	AffiliateParams map[string]string
	ImageRelayURL   string  // prefix the escaped image URL is appended to; empty serves images directly
	FallbackPrice   float64 // shown when the catalog has no price
	IDPrefix        string
}

// Assembler maps chosen candidates to the presentation shape
type Assembler struct {
	rules  FamilyRules
	config AssemblerConfig
}

// NewAssembler creates an assembler for one product family
func NewAssembler(rules FamilyRules, config AssemblerConfig) *Assembler {
	config.StoreDomain = strings.ToLower(strings.TrimPrefix(config.StoreDomain, "www."))
	return &Assembler{rules: rules, config: config}
}

// Assemble builds the result for the chosen candidates and the budget outcome.
// The ladder's advisory message is carried verbatim.
func (a *Assembler) Assemble(chosen []domain.Candidate, res BudgetResolution) domain.RecommendationResult {
	priceBand := res.Requested
	if res.Used != nil {
		priceBand = *res.Used
	}

	products := make([]domain.Product, 0, len(chosen))
	fillers := 0
	for i, c := range chosen {
		if c.Filler {
			fillers++
		}
		products = append(products, a.Product(c, i, priceBand))
	}

	message := res.Message
	if fillers > 0 {
		notice := fillerMessage(res.Requested)
		if fillers == len(chosen) {
			notice = exhaustedMessage
		}
		if message == "" {
			message = notice
		} else {
			message = message + " " + notice
		}
	}

	return domain.RecommendationResult{
		Products:   products,
		Message:    message,
		BudgetUsed: res.Used,
		Budget: domain.BudgetSummary{
			Chosen:   res.Requested,
			Used:     res.Used,
			Honored:  res.Honored,
			Strategy: string(res.Strategy),
		},
		Degraded: fillers > 0 || !res.Honored,
	}
}

// Product maps one candidate. position picks a rotating fallback image when the category
// has none of its own.
func (a *Assembler) Product(c domain.Candidate, position int, priceBand domain.BudgetBand) domain.Product {
	p := domain.Product{
		ID:          a.productID(c.PurchaseURL),
		Name:        c.Name,
		Brand:       c.Brand,
		ImageURL:    a.imageURL(c, position),
		Reason:      a.rules.Reason,
		PurchaseURL: a.AffiliateURL(c.PurchaseURL),
		Category:    string(c.Category),
		Filler:      c.Filler,
	}
	if p.Brand == "" {
		p.Brand = a.config.DefaultBrand
	}

	if c.Filler {
		p.Benefits = []string{a.rules.GenericBenefit}
		return p
	}

	p.Benefits = a.Benefits(c.Name)
	if c.PriceKnown() {
		p.Price = roundCents(c.Price)
	} else {
		p.Price = a.FallbackPrice(priceBand)
		p.PriceEstimated = true
	}
	return p
}

// Benefits derives up to four benefit statements from the product name, never empty
func (a *Assembler) Benefits(name string) []string {
	lower := strings.ToLower(name)
	var out []string
	for _, rule := range a.rules.BenefitRules {
		if len(out) >= maxBenefits {
			break
		}
		if containsAny(lower, rule.Keywords) {
			out = append(out, rule.Benefit)
		}
	}
	if len(out) == 0 {
		out = append(out, a.rules.GenericBenefit)
	}
	return out
}

// FallbackPrice returns the configured fallback clamped into the band
func (a *Assembler) FallbackPrice(band domain.BudgetBand) float64 {
	price := a.config.FallbackPrice
	if price > band.Max {
		price = band.Max
	}
	if price < band.Min {
		price = band.Min
	}
	return roundCents(price)
}

// AffiliateURL adds the affiliate tracking parameters to storefront links.
// Other links and unparsable input are returned unchanged.
func (a *Assembler) AffiliateURL(raw string) string {
	if raw == "" || len(a.config.AffiliateParams) == 0 || a.config.StoreDomain == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || !hostMatches(u.Hostname(), a.config.StoreDomain) {
		return raw
	}
	q := u.Query()
	for k, v := range a.config.AffiliateParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *Assembler) imageURL(c domain.Candidate, position int) string {
	if isSecureURL(c.ImageURL) {
		if a.config.ImageRelayURL != "" {
			return a.config.ImageRelayURL + url.QueryEscape(c.ImageURL)
		}
		return c.ImageURL
	}

	images := a.rules.FallbackImages
	if len(images) == 0 {
		return ""
	}
	if idx, ok := a.rules.CategoryImages[c.Category]; ok && idx >= 0 && idx < len(images) {
		return images[idx]
	}
	if position < 0 {
		position = 0
	}
	return images[position%len(images)]
}

func (a *Assembler) productID(purchaseURL string) string {
	return a.config.IDPrefix + base64.RawStdEncoding.EncodeToString([]byte(purchaseURL))
}

const exhaustedMessage = "Não encontramos produtos disponíveis para o seu perfil no momento. Veja as opções diretamente na loja."

func fillerMessage(requested domain.BudgetBand) string {
	return "Alguns itens da rotina não estavam disponíveis na faixa " + requested.Label +
		"; incluímos links para as categorias da loja."
}
