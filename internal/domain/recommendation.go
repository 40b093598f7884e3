package domain

import "math"

// ProductFamily selects the slot layout and keyword tables used for a request
type ProductFamily string

const (
	FamilyFace ProductFamily = "face"
	FamilyHair ProductFamily = "hair"
)

// CategoryTag is the functional category a product name classifies into
type CategoryTag string

const (
	CategoryCleanser    CategoryTag = "cleanser"
	CategoryMoisturizer CategoryTag = "moisturizer"
	CategorySunscreen   CategoryTag = "sunscreen"
	CategorySerum       CategoryTag = "serum"
	CategoryToner       CategoryTag = "toner"
	CategoryExfoliant   CategoryTag = "exfoliant"
	CategoryShampoo     CategoryTag = "shampoo"
	CategoryConditioner CategoryTag = "conditioner"
	CategoryHairMask    CategoryTag = "hair_mask"
	CategoryOther       CategoryTag = "other"
)

// UserProfile is the quiz answer set a recommendation is computed for
type UserProfile struct {
	Family    ProductFamily `json:"family"`
	SkinType  string        `json:"skinType"` // skin or hair type, free text
	Sensitive bool          `json:"sensitive"`
	Concerns  []string      `json:"concerns"`
	Budget    string        `json:"budget"` // budget band selector as answered
}

// BudgetBand is one rung of the budget ladder
type BudgetBand struct {
	Label string  `json:"label" mapstructure:"label"`
	Min   float64 `json:"min" mapstructure:"min"`
	Max   float64 `json:"max" mapstructure:"max"`
}

// Slot is a functional role the basket tries to fill exactly once
type Slot struct {
	Name      string        `json:"name"`
	Keyword   string        `json:"keyword"` // bare catalog search keyword
	Preferred []CategoryTag `json:"preferred"`
}

// Prefers reports whether tag is in the slot's preferred set
func (s Slot) Prefers(tag CategoryTag) bool {
	for _, p := range s.Preferred {
		if p == tag {
			return true
		}
	}
	return false
}

// Candidate is a normalized catalog product usable by the pipeline.
// Score, SlotIndex and Seq are request-scoped.
type Candidate struct {
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Price       float64     `json:"price"` // 0 means unknown
	ImageURL    string      `json:"imageUrl"`
	PurchaseURL string      `json:"purchaseUrl"`
	Available   bool        `json:"available"`
	Category    CategoryTag `json:"category"`

	Score     float64 `json:"-"`
	SlotIndex int     `json:"-"` // slot whose queries discovered the candidate
	Seq       int     `json:"-"` // discovery order
	Filler    bool    `json:"-"` // category-page placeholder, not a real product
}

// PriceKnown reports whether the catalog gave a usable price
func (c Candidate) PriceKnown() bool {
	return c.Price > 0 && !math.IsInf(c.Price, 0) && !math.IsNaN(c.Price)
}

// Product is the presentation shape of one recommended item
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"nome"`
	Brand          string   `json:"marca"`
	Price          float64  `json:"preco"`
	PriceEstimated bool     `json:"precoEstimado,omitempty"`
	ImageURL       string   `json:"foto"`
	Benefits       []string `json:"beneficios"`
	Reason         string   `json:"motivo"`
	PurchaseURL    string   `json:"onde_comprar"`
	Category       string   `json:"categoria"`
	Filler         bool     `json:"filler,omitempty"`
}

// BudgetSummary reports the requested and delivered budget bands
type BudgetSummary struct {
	Chosen   BudgetBand  `json:"chosen"`
	Used     *BudgetBand `json:"used,omitempty"`
	Honored  bool        `json:"honored"`
	Strategy string      `json:"strategy"`
}

// RecommendationResult is the outcome of one recommendation request
type RecommendationResult struct {
	Products   []Product     `json:"products"`
	Message    string        `json:"message,omitempty"`
	BudgetUsed *BudgetBand   `json:"budgetUsed,omitempty"`
	Budget     BudgetSummary `json:"budget"`
	Degraded   bool          `json:"degraded,omitempty"`
}
