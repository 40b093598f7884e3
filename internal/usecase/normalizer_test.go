package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routinematch/backend/internal/domain"
)

const testStoreBaseURL = "https://www.opaque.com.br"

func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

// rawProduct builds a catalog record with one SKU, one image and one seller
func rawProduct(name, linkText string, price float64) domain.CatalogProduct {
	return domain.CatalogProduct{
		ProductName: name,
		Brand:       "La Roche-Posay",
		LinkText:    linkText,
		Items: []domain.CatalogItem{{
			Images:  []domain.CatalogImage{{ImageURL: "https://opaque.vteximg.com.br/arquivos/" + linkText + ".jpg"}},
			Sellers: []domain.CatalogSeller{{CommertialOffer: domain.CommercialOffer{Price: price}}},
		}},
	}
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(faceRules(), NormalizerConfig{
		StoreBaseURL: testStoreBaseURL + "/",
		StoreDomain:  "www.opaque.com.br",
		DefaultBrand: "Opaque",
	})
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newTestNormalizer()

	t.Run("maps a complete record", func(t *testing.T) {
		c, ok := n.Normalize(rawProduct("  Gel de Limpeza   Effaclar ", "gel-effaclar", 59.904))
		require.True(t, ok)
		assert.Equal(t, "Gel de Limpeza Effaclar", c.Name)
		assert.Equal(t, "La Roche-Posay", c.Brand)
		assert.Equal(t, 59.9, c.Price)
		assert.Equal(t, "https://www.opaque.com.br/gel-effaclar/p", c.PurchaseURL)
		assert.Equal(t, "https://opaque.vteximg.com.br/arquivos/gel-effaclar.jpg", c.ImageURL)
		assert.True(t, c.Available)
		assert.Equal(t, domain.CategoryCleanser, c.Category)
	})

	t.Run("rejects a record without name", func(t *testing.T) {
		_, ok := n.Normalize(rawProduct("   ", "x", 10))
		assert.False(t, ok)
	})

	t.Run("rejects a record without any usable link", func(t *testing.T) {
		raw := rawProduct("Hidratante", "", 10)
		raw.Link = "/relative/path"
		_, ok := n.Normalize(raw)
		assert.False(t, ok)
	})

	t.Run("falls back to the absolute raw link", func(t *testing.T) {
		raw := rawProduct("Hidratante", "", 10)
		raw.Link = "https://www.opaque.com.br/hidratante-x/p"
		c, ok := n.Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, "https://www.opaque.com.br/hidratante-x/p", c.PurchaseURL)
	})

	t.Run("rejects a raw link outside the storefront", func(t *testing.T) {
		for _, link := range []string{
			"https://evil.example.com/hidratante-x/p",
			"https://opaque.com.br.evil.example/hidratante-x/p",
			"http://notopaque.com.br/x/p",
		} {
			raw := rawProduct("Hidratante", "", 10)
			raw.Link = link
			_, ok := n.Normalize(raw)
			assert.False(t, ok, link)
		}
	})

	t.Run("accepts a raw link on a storefront subdomain", func(t *testing.T) {
		raw := rawProduct("Hidratante", "", 10)
		raw.Link = "https://m.opaque.com.br/hidratante-x/p"
		c, ok := n.Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, "https://m.opaque.com.br/hidratante-x/p", c.PurchaseURL)
	})

	t.Run("without a store domain any absolute link is kept", func(t *testing.T) {
		open := NewNormalizer(faceRules(), NormalizerConfig{DefaultBrand: "Opaque"})
		raw := rawProduct("Hidratante", "", 10)
		raw.Link = "https://elsewhere.example.com/x"
		_, ok := open.Normalize(raw)
		assert.True(t, ok)
	})

	t.Run("empty brand becomes the default", func(t *testing.T) {
		raw := rawProduct("Hidratante", "hid", 10)
		raw.Brand = ""
		c, ok := n.Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, "Opaque", c.Brand)
	})

	t.Run("record without items is available with unknown price", func(t *testing.T) {
		raw := domain.CatalogProduct{ProductName: "Protetor Solar FPS 50", LinkText: "protetor"}
		c, ok := n.Normalize(raw)
		require.True(t, ok)
		assert.Zero(t, c.Price)
		assert.False(t, c.PriceKnown())
		assert.True(t, c.Available)
		assert.Empty(t, c.ImageURL)
	})
}

func TestNormalizer_Price(t *testing.T) {
	testCases := []struct {
		name  string
		offer domain.CommercialOffer
		want  float64
	}{
		{"list price wins", domain.CommercialOffer{Price: 89.9, SpotPrice: 80}, 89.9},
		{"spot price when list price is zero", domain.CommercialOffer{SpotPrice: 42.5}, 42.5},
		{"unknown when both are missing", domain.CommercialOffer{}, 0},
		{"negative counts as unknown", domain.CommercialOffer{Price: -3}, 0},
		{"rounded to cents", domain.CommercialOffer{Price: 10.005001}, 10.01},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			offer := tc.offer
			assert.InDelta(t, tc.want, extractPrice(&offer), 0.0001)
		})
	}
}

func TestNormalizer_Availability(t *testing.T) {
	testCases := []struct {
		name  string
		offer *domain.CommercialOffer
		want  bool
	}{
		{"no seller defaults to available", nil, true},
		{"no stock information defaults to available", &domain.CommercialOffer{Price: 10}, true},
		{"explicit unavailable flag", &domain.CommercialOffer{IsAvailable: boolPtr(false)}, false},
		{"zero quantity", &domain.CommercialOffer{AvailableQuantity: floatPtr(0)}, false},
		{"positive quantity", &domain.CommercialOffer{IsAvailable: boolPtr(true), AvailableQuantity: floatPtr(3)}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isAvailable(tc.offer))
		})
	}
}

func TestNormalizer_Classify(t *testing.T) {
	n := newTestNormalizer()

	testCases := []struct {
		name string
		want domain.CategoryTag
	}{
		{"Protetor Solar Facial FPS 60", domain.CategorySunscreen},
		{"Hidratante com FPS 30", domain.CategorySunscreen}, // sunscreen rule is checked first
		{"Sabonete Líquido Facial", domain.CategoryCleanser},
		{"Creme Hidratante Toleriane", domain.CategoryMoisturizer},
		{"Esfoliante Facial Suave", domain.CategoryExfoliant},
		{"Sérum Vitamina C 10", domain.CategorySerum},
		{"Tônico Adstringente", domain.CategoryToner},
		{"Batom Matte", domain.CategoryOther},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, n.Classify(tc.name))
		})
	}
}

func TestNormalizer_NormalizeAll(t *testing.T) {
	n := newTestNormalizer()
	raws := []domain.CatalogProduct{
		rawProduct("Gel de Limpeza", "gel", 30),
		{ProductName: ""},
		rawProduct("Hidratante", "hid", 40),
	}

	out := n.NormalizeAll(raws)
	require.Len(t, out, 2)
	assert.Equal(t, "Gel de Limpeza", out[0].Name)
	assert.Equal(t, "Hidratante", out[1].Name)
}
