package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routinematch/backend/internal/domain"
)

func names(cs []domain.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestDiversify(t *testing.T) {
	slots := faceRules().Slots

	t.Run("one preferred candidate per slot in slot order", func(t *testing.T) {
		// best first
		pool := []domain.Candidate{
			candidate("Sérum A", 50, domain.CategorySerum, "serum-a"),
			candidate("Protetor A", 50, domain.CategorySunscreen, "sun-a"),
			candidate("Sérum B", 50, domain.CategorySerum, "serum-b"),
			candidate("Esfoliante A", 50, domain.CategoryExfoliant, "exf-a"),
			candidate("Hidratante A", 50, domain.CategoryMoisturizer, "hid-a"),
			candidate("Limpador A", 50, domain.CategoryCleanser, "clean-a"),
			candidate("Limpador B", 50, domain.CategoryCleanser, "clean-b"),
		}

		got := Diversify(pool, slots, 5)
		assert.Equal(t, []string{"Limpador A", "Hidratante A", "Protetor A", "Sérum A", "Esfoliante A"}, names(got))
	})

	t.Run("treatment slot accepts a toner", func(t *testing.T) {
		pool := []domain.Candidate{
			candidate("Tônico", 50, domain.CategoryToner, "toner"),
		}
		got := Diversify(pool, slots[3:4], 1)
		require.Len(t, got, 1)
		assert.Equal(t, "Tônico", got[0].Name)
	})

	t.Run("slot without a matching tag takes the best remaining", func(t *testing.T) {
		pool := []domain.Candidate{
			candidate("Limpador A", 50, domain.CategoryCleanser, "clean-a"),
			candidate("Limpador B", 50, domain.CategoryCleanser, "clean-b"),
			candidate("Outro", 50, domain.CategoryOther, "other"),
		}
		got := Diversify(pool, slots[:2], 2)
		assert.Equal(t, []string{"Limpador A", "Limpador B"}, names(got))
	})

	t.Run("fill phase completes the basket by score", func(t *testing.T) {
		pool := []domain.Candidate{
			candidate("Hidratante A", 50, domain.CategoryMoisturizer, "hid-a"),
			candidate("Hidratante B", 50, domain.CategoryMoisturizer, "hid-b"),
			candidate("Hidratante C", 50, domain.CategoryMoisturizer, "hid-c"),
		}
		got := Diversify(pool, slots[:1], 3)
		assert.Equal(t, []string{"Hidratante A", "Hidratante B", "Hidratante C"}, names(got))
	})

	t.Run("never repeats a purchase link", func(t *testing.T) {
		a := candidate("Limpador A", 50, domain.CategoryCleanser, "same")
		b := candidate("Limpador A (kit)", 50, domain.CategoryCleanser, "same")
		c := candidate("Hidratante", 50, domain.CategoryMoisturizer, "hid")

		got := Diversify([]domain.Candidate{a, b, c}, slots, 5)
		require.Len(t, got, 2)
		seen := map[string]bool{}
		for _, x := range got {
			assert.False(t, seen[x.PurchaseURL])
			seen[x.PurchaseURL] = true
		}
	})

	t.Run("k below slot count stops early", func(t *testing.T) {
		pool := []domain.Candidate{
			candidate("Limpador", 50, domain.CategoryCleanser, "clean"),
			candidate("Hidratante", 50, domain.CategoryMoisturizer, "hid"),
			candidate("Protetor", 50, domain.CategorySunscreen, "sun"),
		}
		got := Diversify(pool, slots, 2)
		assert.Equal(t, []string{"Limpador", "Hidratante"}, names(got))
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Nil(t, Diversify(nil, slots, 0))
		assert.Empty(t, Diversify(nil, slots, 5))
	})
}
