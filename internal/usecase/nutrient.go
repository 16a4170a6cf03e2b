package usecase

import (
	"strings"

	"github.com/mealsense/backend/internal/domain"
)

// Atwater factors: kcal per gram of each macronutrient.
const (
	kcalPerGramCarb    = 4.0
	kcalPerGramProtein = 4.0
	kcalPerGramFat     = 9.0
)

// ComputeNutrients scales the entry's per-100 vectors by the item's resolved
// portion and applies its modifier adjustments. When both a gram and a
// milliliter vector are populated and both portion fields resolved, both
// contributions are summed so mixed-unit legacy data degrades gracefully.
func ComputeNutrients(entry *domain.FoodEntry, item *domain.CanonicalItem) domain.Nutrients {
	var n domain.Nutrients

	if entry.Per100g != nil && item.PortionGrams > 0 {
		n = n.Add(entry.Per100g.Dense().Scale(item.PortionGrams / 100))
	}
	if entry.Per100ml != nil && item.VolumeMl > 0 {
		n = n.Add(entry.Per100ml.Dense().Scale(item.VolumeMl / 100))
	}

	// Modifiers apply in the order they were recorded on the item.
	for _, key := range item.Modifiers {
		if effect, ok := lookupModifier(entry.Modifiers, key); ok {
			n.SugarG *= effect.SugarFactor
		}
	}

	// Derive energy from macros only when the source supplied none; a nonzero
	// provided value is never overridden.
	if n.EnergyKcal == 0 {
		n.EnergyKcal = n.CarbG*kcalPerGramCarb + n.ProteinG*kcalPerGramProtein + n.FatG*kcalPerGramFat
	}

	return n
}

// AggregateTotals sums per-item nutrients field-wise. Addition is associative
// and commutative, so item order never changes the total.
func AggregateTotals(items []domain.ItemNutrients) domain.Nutrients {
	var total domain.Nutrients
	for _, item := range items {
		total = total.Add(item.Nutrients)
	}
	return total
}

// lookupModifier matches a free-text modifier key against the entry's
// modifier table, case-insensitively after trimming.
func lookupModifier(modifiers map[string]domain.ModifierEffect, key string) (domain.ModifierEffect, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for k, effect := range modifiers {
		if strings.ToLower(strings.TrimSpace(k)) == key {
			return effect, true
		}
	}
	return domain.ModifierEffect{}, false
}
