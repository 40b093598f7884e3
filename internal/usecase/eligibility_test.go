package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routinematch/backend/internal/domain"
)

// candidate builds an available storefront candidate
func candidate(name string, price float64, category domain.CategoryTag, slug string) domain.Candidate {
	return domain.Candidate{
		Name:        name,
		Brand:       "La Roche-Posay",
		Price:       price,
		ImageURL:    "https://opaque.vteximg.com.br/arquivos/" + slug + ".jpg",
		PurchaseURL: testStoreBaseURL + "/" + slug + "/p",
		Available:   true,
		Category:    category,
	}
}

func TestEligibilityFilter_Filter(t *testing.T) {
	f := NewEligibilityFilter(DefaultRuleset().ForbiddenTerms)

	ok1 := candidate("Gel de Limpeza", 30, domain.CategoryCleanser, "gel")
	kids := candidate("Protetor Solar Infantil FPS 50", 40, domain.CategorySunscreen, "kids")
	baby := candidate("Hidratante BABY Suave", 20, domain.CategoryMoisturizer, "baby")
	unavailable := candidate("Sérum Vitamina C", 90, domain.CategorySerum, "serum")
	unavailable.Available = false
	noLink := candidate("Esfoliante", 25, domain.CategoryExfoliant, "esf")
	noLink.PurchaseURL = "  "
	ok2 := candidate("Hidratante Facial", 45, domain.CategoryMoisturizer, "hid")

	got := f.Filter([]domain.Candidate{ok1, kids, baby, unavailable, noLink, ok2})
	assert.Equal(t, []domain.Candidate{ok1, ok2}, got)
}

func TestEligibilityFilter_Forbidden(t *testing.T) {
	f := NewEligibilityFilter([]string{" Infantil ", "", "KIDS"})

	testCases := []struct {
		name string
		want bool
	}{
		{"Shampoo Infantil Camomila", true},
		{"Protetor kids fps 30", true},
		{"Protetor Solar Adulto", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Forbidden(tc.name))
		})
	}
}

func TestEligibilityFilter_EmptyInput(t *testing.T) {
	f := NewEligibilityFilter(nil)
	assert.Empty(t, f.Filter(nil))
}
