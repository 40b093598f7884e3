package usecase

import (
	"fmt"
	"strings"

	"github.com/routinematch/backend/internal/domain"
)

// CategoryRule classifies a product name into a category when any keyword is present
type CategoryRule struct {
	Category domain.CategoryTag
	Keywords []string
}

// ProfileRule maps a profile fragment (skin type, concern) to a query phrase and to the
// name keywords that evidence a match
type ProfileRule struct {
	Triggers     []string
	Phrase       string
	NameKeywords []string
}

// BenefitRule maps name keywords to a user-facing benefit statement
type BenefitRule struct {
	Keywords []string
	Benefit  string
}

// FamilyRules holds the slot layout and keyword tables for one product family
type FamilyRules struct {
	Family          domain.ProductFamily
	Slots           []domain.Slot
	QueryWords      []string // family words appended to the slot keyword, most common first
	TreatmentPrefix string
	CategoryRules   []CategoryRule // first match wins
	RelevanceTerms  []string
	TypeRules       []ProfileRule
	SensitiveRule   ProfileRule
	ConcernRules    []ProfileRule
	BenefitRules    []BenefitRule
	GenericBenefit  string
	Reason          string
	FallbackImages  []string
	CategoryImages  map[domain.CategoryTag]int // index into FallbackImages
	FillerLabel     string                     // fmt pattern taking the slot or family keyword
	FamilyKeyword   string                     // category search used when nothing at all was found
}

// BasketSize is the number of products returned for the family
func (f FamilyRules) BasketSize() int {
	return len(f.Slots)
}

// Ruleset is the read-only keyword configuration shared by all requests
type Ruleset struct {
	ForbiddenTerms []string
	Families       map[domain.ProductFamily]FamilyRules
}

// Family returns the rules of the given family; empty selects the face family
func (r Ruleset) Family(family domain.ProductFamily) (FamilyRules, error) {
	if family == "" {
		family = domain.FamilyFace
	}
	rules, ok := r.Families[family]
	if !ok {
		return FamilyRules{}, fmt.Errorf("%w: %q", domain.ErrUnknownFamily, family)
	}
	return rules, nil
}

// containsAny reports whether s contains any of the (lowercase) keywords
func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

var faceFallbackImages = []string{
	"https://images.pexels.com/photos/3762879/pexels-photo-3762879.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/6621457/pexels-photo-6621457.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/3738349/pexels-photo-3738349.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/7755641/pexels-photo-7755641.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/3756450/pexels-photo-3756450.jpeg?auto=compress&cs=tinysrgb&w=800",
}

var hairFallbackImages = []string{
	"https://images.pexels.com/photos/3993449/pexels-photo-3993449.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/3993398/pexels-photo-3993398.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/3738341/pexels-photo-3738341.jpeg?auto=compress&cs=tinysrgb&w=800",
}

// DefaultRuleset returns the storefront vocabulary for the face and hair families.
// Keywords are lowercase; Portuguese terms come first since the catalog is Brazilian.
func DefaultRuleset() Ruleset {
	return Ruleset{
		ForbiddenTerms: []string{
			"infantil", "infantis", "baby", "bebê", "bebe", "crianca", "criança", "kids",
			"menino", "menina", "pediátric", "pediatric", "júnior", "junior",
		},
		Families: map[domain.ProductFamily]FamilyRules{
			domain.FamilyFace: faceRules(),
			domain.FamilyHair: hairRules(),
		},
	}
}

func faceRules() FamilyRules {
	return FamilyRules{
		Family: domain.FamilyFace,
		Slots: []domain.Slot{
			{Name: "cleanser", Keyword: "limpador", Preferred: []domain.CategoryTag{domain.CategoryCleanser}},
			{Name: "moisturizer", Keyword: "hidratante", Preferred: []domain.CategoryTag{domain.CategoryMoisturizer}},
			{Name: "sunscreen", Keyword: "protetor solar", Preferred: []domain.CategoryTag{domain.CategorySunscreen}},
			{Name: "treatment", Keyword: "serum", Preferred: []domain.CategoryTag{domain.CategorySerum, domain.CategoryToner}},
			{Name: "exfoliant", Keyword: "esfoliante", Preferred: []domain.CategoryTag{domain.CategoryExfoliant}},
		},
		QueryWords:      []string{"facial", "face"},
		TreatmentPrefix: "tratamento facial",
		CategoryRules: []CategoryRule{
			{domain.CategorySunscreen, []string{"protetor solar", "fps", "sunscreen", "solar", "spf"}},
			{domain.CategoryCleanser, []string{"limpador", "limpeza", "sabonete", "gel de limpeza", "espuma", "agua micelar", "água micelar", "cleanser", "micellar", "face wash"}},
			{domain.CategoryMoisturizer, []string{"hidratante", "hidratação", "hidratacao", "moisturizer", "moisturizing"}},
			{domain.CategoryExfoliant, []string{"esfoliante", "esfoliação", "esfoliacao", "peeling", "scrub", "exfoliant", "exfoliating"}},
			{domain.CategorySerum, []string{"sérum", "serum", "vitamina c", "vitamin c", "niacin", "hialuron", "hyaluron"}},
			{domain.CategoryToner, []string{"tônico", "tonico", "toner"}},
		},
		RelevanceTerms: []string{
			"limpador", "limpeza", "cleanser", "sabonete", "gel de limpeza", "espuma", "água micelar", "agua micelar",
			"hidratante", "hidratação", "hidratacao", "moisturizer", "creme", "gel creme",
			"esfoliante", "esfoliação", "esfoliacao", "scrub", "peeling",
			"protetor", "protetor solar", "fps", "sunscreen", "solar",
			"sérum", "serum", "vitamina c", "niacinamida", "ácido", "acido", "hialurônico", "hialuronico",
			"tônico", "tonico", "máscara", "mascara", "face", "facial",
		},
		TypeRules: []ProfileRule{
			{Triggers: []string{"oleos", "oily"}, Phrase: "pele oleosa", NameKeywords: []string{"oil", "oleos", "controle", "matte"}},
			{Triggers: []string{"seca", "dry"}, Phrase: "pele seca", NameKeywords: []string{"hidrat", "hialur", "nutri", "hydrat"}},
			{Triggers: []string{"mista", "combination"}, Phrase: "pele mista", NameKeywords: []string{"mista", "equilibr", "balanc"}},
		},
		SensitiveRule: ProfileRule{Triggers: []string{"sens"}, Phrase: "pele sensível", NameKeywords: []string{"sens", "suave", "calm", "gentle"}},
		ConcernRules: []ProfileRule{
			{Triggers: []string{"acne"}, Phrase: "acne", NameKeywords: []string{"acne", "salic", "blemish"}},
			{Triggers: []string{"manchas", "spot", "pigment"}, Phrase: "manchas", NameKeywords: []string{"vitamina c", "vitamin c", "niacin", "clare", "bright"}},
			{Triggers: []string{"poros", "pore"}, Phrase: "poros", NameKeywords: []string{"poro", "pore"}},
			{Triggers: []string{"ressec", "dryness"}, Phrase: "hidratacao", NameKeywords: []string{"hidrat", "hialur", "hydrat"}},
			{Triggers: []string{"oleos", "oiliness"}, Phrase: "controle oleosidade", NameKeywords: []string{"oleos", "oil", "matte"}},
		},
		BenefitRules: []BenefitRule{
			{Keywords: []string{"fps", "solar", "spf"}, Benefit: "Proteção diária para a pele"},
			{Keywords: []string{"hidrat", "hialur", "hydrat"}, Benefit: "Hidratação e conforto"},
			{Keywords: []string{"vitamina c", "vitamin c", "niacin"}, Benefit: "Ajuda a uniformizar o tom"},
			{Keywords: []string{"acne", "salic"}, Benefit: "Ajuda no controle de acne/oleosidade"},
			{Keywords: []string{"sens", "suave"}, Benefit: "Mais gentil para pele sensível"},
		},
		GenericBenefit: "Combina com seu perfil e rotina facial",
		Reason:         "Selecionado para montar uma rotina facial completa (limpeza, hidratação, proteção e tratamento), respeitando seu perfil.",
		FallbackImages: faceFallbackImages,
		CategoryImages: map[domain.CategoryTag]int{
			domain.CategoryCleanser:    0,
			domain.CategoryMoisturizer: 1,
			domain.CategorySunscreen:   2,
			domain.CategorySerum:       3,
			domain.CategoryToner:       3,
			domain.CategoryExfoliant:   4,
		},
		FillerLabel:   "Ver mais opções de %s na loja",
		FamilyKeyword: "cuidados com a pele",
	}
}

func hairRules() FamilyRules {
	return FamilyRules{
		Family: domain.FamilyHair,
		Slots: []domain.Slot{
			{Name: "shampoo", Keyword: "shampoo", Preferred: []domain.CategoryTag{domain.CategoryShampoo}},
			{Name: "conditioner", Keyword: "condicionador", Preferred: []domain.CategoryTag{domain.CategoryConditioner}},
			{Name: "treatment", Keyword: "mascara capilar", Preferred: []domain.CategoryTag{domain.CategoryHairMask}},
		},
		QueryWords:      []string{"capilar", "cabelo"},
		TreatmentPrefix: "tratamento capilar",
		CategoryRules: []CategoryRule{
			{domain.CategoryShampoo, []string{"shampoo", "xampu"}},
			{domain.CategoryConditioner, []string{"condicionador", "conditioner"}},
			{domain.CategoryHairMask, []string{"máscara", "mascara", "hair mask", "óleo", "oleo", "leave-in", "tratamento"}},
		},
		RelevanceTerms: []string{
			"shampoo", "condicionador", "conditioner", "capilar", "cabelo", "cabelos", "hair",
			"máscara", "mascara", "leave-in", "óleo", "oleo", "fios",
		},
		TypeRules: []ProfileRule{
			{Triggers: []string{"oleos", "oily"}, Phrase: "cabelo oleoso", NameKeywords: []string{"oleos", "antirresíduo", "antiresiduo", "detox"}},
			{Triggers: []string{"sec", "dry"}, Phrase: "cabelo seco", NameKeywords: []string{"hidrat", "nutri", "repar"}},
			{Triggers: []string{"cach", "curly"}, Phrase: "cabelo cacheado", NameKeywords: []string{"cach", "curl", "definiç", "definic"}},
			{Triggers: []string{"liso", "straight"}, Phrase: "cabelo liso", NameKeywords: []string{"liso", "brilho"}},
		},
		SensitiveRule: ProfileRule{Triggers: []string{"sens"}, Phrase: "couro cabeludo sensível", NameKeywords: []string{"sens", "suave", "calm"}},
		ConcernRules: []ProfileRule{
			{Triggers: []string{"queda", "hair loss"}, Phrase: "antiqueda", NameKeywords: []string{"queda", "fortalec"}},
			{Triggers: []string{"frizz"}, Phrase: "antifrizz", NameKeywords: []string{"frizz", "alinh"}},
			{Triggers: []string{"caspa", "dandruff"}, Phrase: "anticaspa", NameKeywords: []string{"caspa", "dandruff"}},
			{Triggers: []string{"dano", "danific", "damage"}, Phrase: "reconstrução", NameKeywords: []string{"repar", "reconstru", "dano"}},
		},
		BenefitRules: []BenefitRule{
			{Keywords: []string{"hidrat", "nutri"}, Benefit: "Hidratação e nutrição dos fios"},
			{Keywords: []string{"repar", "reconstru"}, Benefit: "Ajuda a reparar fios danificados"},
			{Keywords: []string{"frizz", "alinh"}, Benefit: "Controle de frizz"},
			{Keywords: []string{"queda", "fortalec"}, Benefit: "Fortalece e reduz a quebra"},
			{Keywords: []string{"caspa"}, Benefit: "Ajuda no controle da caspa"},
		},
		GenericBenefit: "Combina com seu perfil e rotina capilar",
		Reason:         "Selecionado para montar uma rotina capilar completa (limpeza, condicionamento e tratamento), respeitando seu perfil.",
		FallbackImages: hairFallbackImages,
		CategoryImages: map[domain.CategoryTag]int{
			domain.CategoryShampoo:     0,
			domain.CategoryConditioner: 1,
			domain.CategoryHairMask:    2,
		},
		FillerLabel:   "Ver mais opções de %s na loja",
		FamilyKeyword: "cuidados com o cabelo",
	}
}

// ProfileMatches returns the type rules triggered by the profile, plus the sensitivity rule
// when the profile is flagged sensitive or its type text says so
func (f FamilyRules) ProfileMatches(profile domain.UserProfile) []ProfileRule {
	skin := strings.ToLower(profile.SkinType)
	var matched []ProfileRule
	for _, rule := range f.TypeRules {
		if containsAny(skin, rule.Triggers) {
			matched = append(matched, rule)
		}
	}
	if profile.Sensitive || containsAny(skin, f.SensitiveRule.Triggers) {
		matched = append(matched, f.SensitiveRule)
	}
	return matched
}

// ConcernMatches returns the concern rules triggered by any of the profile's concerns
func (f FamilyRules) ConcernMatches(profile domain.UserProfile) []ProfileRule {
	concerns := strings.ToLower(strings.Join(profile.Concerns, " "))
	var matched []ProfileRule
	for _, rule := range f.ConcernRules {
		if containsAny(concerns, rule.Triggers) {
			matched = append(matched, rule)
		}
	}
	return matched
}
