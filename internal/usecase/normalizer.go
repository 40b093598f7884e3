package usecase

import (
	"math"
	"net/url"
	"strings"

	"github.com/routinematch/backend/internal/domain"
)

// NormalizerConfig holds storefront settings needed to build canonical candidates
type NormalizerConfig struct {
	StoreBaseURL string // e.g. https://www.opaque.com.br
	StoreDomain  string // raw links outside this domain are dropped
	DefaultBrand string
}

// Normalizer maps raw catalog records into canonical candidates
type Normalizer struct {
	baseURL       string
	storeDomain   string
	defaultBrand  string
	categoryRules []CategoryRule
}

// NewNormalizer creates a normalizer using the family's category rules
func NewNormalizer(rules FamilyRules, config NormalizerConfig) *Normalizer {
	return &Normalizer{
		baseURL:       strings.TrimRight(config.StoreBaseURL, "/"),
		storeDomain:   strings.ToLower(strings.TrimPrefix(config.StoreDomain, "www.")),
		defaultBrand:  config.DefaultBrand,
		categoryRules: rules.CategoryRules,
	}
}

// Normalize converts one raw record. The second return is false when the record lacks a
// usable name or purchase link.
func (n *Normalizer) Normalize(raw domain.CatalogProduct) (domain.Candidate, bool) {
	name := multiSpacePattern.ReplaceAllString(strings.TrimSpace(raw.ProductName), " ")
	if name == "" {
		return domain.Candidate{}, false
	}

	purchaseURL := n.purchaseURL(raw)
	if purchaseURL == "" {
		return domain.Candidate{}, false
	}

	brand := strings.TrimSpace(raw.Brand)
	if brand == "" {
		brand = n.defaultBrand
	}

	imageURL, offer := firstOffer(raw)

	return domain.Candidate{
		Name:        name,
		Brand:       brand,
		Price:       extractPrice(offer),
		ImageURL:    imageURL,
		PurchaseURL: purchaseURL,
		Available:   isAvailable(offer),
		Category:    n.Classify(name),
	}, true
}

// NormalizeAll normalizes a batch, silently dropping rejected records
func (n *Normalizer) NormalizeAll(raws []domain.CatalogProduct) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(raws))
	for _, raw := range raws {
		if c, ok := n.Normalize(raw); ok {
			out = append(out, c)
		}
	}
	return out
}

// Classify returns the category of the first rule with a keyword in the lowercased name
func (n *Normalizer) Classify(name string) domain.CategoryTag {
	lower := strings.ToLower(name)
	for _, rule := range n.categoryRules {
		if containsAny(lower, rule.Keywords) {
			return rule.Category
		}
	}
	return domain.CategoryOther
}

// purchaseURL builds the storefront product page: linkText wins over the raw link
func (n *Normalizer) purchaseURL(raw domain.CatalogProduct) string {
	if linkText := strings.Trim(strings.TrimSpace(raw.LinkText), "/"); linkText != "" && n.baseURL != "" {
		return n.baseURL + "/" + linkText + "/p"
	}

	link := strings.TrimSpace(raw.Link)
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	if n.storeDomain != "" && !hostMatches(u.Hostname(), n.storeDomain) {
		return ""
	}
	return link
}

// firstOffer returns the first image and commercial offer of the first SKU, if any
func firstOffer(raw domain.CatalogProduct) (string, *domain.CommercialOffer) {
	if len(raw.Items) == 0 {
		return "", nil
	}
	item := raw.Items[0]

	var image string
	if len(item.Images) > 0 {
		image = strings.TrimSpace(item.Images[0].ImageURL)
	}
	if len(item.Sellers) == 0 {
		return image, nil
	}
	return image, &item.Sellers[0].CommertialOffer
}

// extractPrice returns the list price, then the spot price, rounded to cents; 0 when unknown
func extractPrice(offer *domain.CommercialOffer) float64 {
	if offer == nil {
		return 0
	}
	for _, p := range []float64{offer.Price, offer.SpotPrice} {
		if p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p) {
			return roundCents(p)
		}
	}
	return 0
}

// isAvailable is true unless the offer explicitly reports unavailability or zero stock
func isAvailable(offer *domain.CommercialOffer) bool {
	if offer == nil {
		return true
	}
	if offer.IsAvailable != nil && !*offer.IsAvailable {
		return false
	}
	if offer.AvailableQuantity != nil && *offer.AvailableQuantity <= 0 {
		return false
	}
	return true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
