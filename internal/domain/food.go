package domain

// NutrientVector holds nutrient amounts per 100 g or per 100 ml of a catalog
// entry. Fields are pointers so that missing source data is distinguishable
// from a true zero; nil means "unknown" and only becomes 0 at aggregation.
type NutrientVector struct {
	EnergyKcal *float64 `json:"energy_kcal,omitempty"`
	CarbG      *float64 `json:"carb_g,omitempty"`
	SugarG     *float64 `json:"sugar_g,omitempty"`
	FatG       *float64 `json:"fat_g,omitempty"`
	SatFatG    *float64 `json:"sat_fat_g,omitempty"`
	ProteinG   *float64 `json:"protein_g,omitempty"`
	FiberG     *float64 `json:"fiber_g,omitempty"`
	SodiumMg   *float64 `json:"sodium_mg,omitempty"`
}

// IsEmpty reports whether no nutrient field is populated.
func (v *NutrientVector) IsEmpty() bool {
	if v == nil {
		return true
	}
	return v.EnergyKcal == nil && v.CarbG == nil && v.SugarG == nil &&
		v.FatG == nil && v.SatFatG == nil && v.ProteinG == nil &&
		v.FiberG == nil && v.SodiumMg == nil
}

// FillFrom copies values from other into fields that are currently nil.
// Populated fields are never overwritten.
func (v *NutrientVector) FillFrom(other *NutrientVector) {
	if other == nil {
		return
	}
	if v.EnergyKcal == nil {
		v.EnergyKcal = other.EnergyKcal
	}
	if v.CarbG == nil {
		v.CarbG = other.CarbG
	}
	if v.SugarG == nil {
		v.SugarG = other.SugarG
	}
	if v.FatG == nil {
		v.FatG = other.FatG
	}
	if v.SatFatG == nil {
		v.SatFatG = other.SatFatG
	}
	if v.ProteinG == nil {
		v.ProteinG = other.ProteinG
	}
	if v.FiberG == nil {
		v.FiberG = other.FiberG
	}
	if v.SodiumMg == nil {
		v.SodiumMg = other.SodiumMg
	}
}

// Dense converts the sparse vector to a dense Nutrients value, with unknown
// fields contributing 0.
func (v *NutrientVector) Dense() Nutrients {
	var n Nutrients
	if v == nil {
		return n
	}
	deref := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}
	n.EnergyKcal = deref(v.EnergyKcal)
	n.CarbG = deref(v.CarbG)
	n.SugarG = deref(v.SugarG)
	n.FatG = deref(v.FatG)
	n.SatFatG = deref(v.SatFatG)
	n.ProteinG = deref(v.ProteinG)
	n.FiberG = deref(v.FiberG)
	n.SodiumMg = deref(v.SodiumMg)
	return n
}

// Nutrients is the dense 8-field nutrient vector used for computed amounts
// and meal totals. All masses are grams except sodium (milligrams).
type Nutrients struct {
	EnergyKcal float64 `json:"energy_kcal"`
	CarbG      float64 `json:"carb_g"`
	SugarG     float64 `json:"sugar_g"`
	FatG       float64 `json:"fat_g"`
	SatFatG    float64 `json:"sat_fat_g"`
	ProteinG   float64 `json:"protein_g"`
	FiberG     float64 `json:"fiber_g"`
	SodiumMg   float64 `json:"sodium_mg"`
}

// Add returns the field-wise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		EnergyKcal: n.EnergyKcal + o.EnergyKcal,
		CarbG:      n.CarbG + o.CarbG,
		SugarG:     n.SugarG + o.SugarG,
		FatG:       n.FatG + o.FatG,
		SatFatG:    n.SatFatG + o.SatFatG,
		ProteinG:   n.ProteinG + o.ProteinG,
		FiberG:     n.FiberG + o.FiberG,
		SodiumMg:   n.SodiumMg + o.SodiumMg,
	}
}

// Scale returns n multiplied field-wise by factor.
func (n Nutrients) Scale(factor float64) Nutrients {
	return Nutrients{
		EnergyKcal: n.EnergyKcal * factor,
		CarbG:      n.CarbG * factor,
		SugarG:     n.SugarG * factor,
		FatG:       n.FatG * factor,
		SatFatG:    n.SatFatG * factor,
		ProteinG:   n.ProteinG * factor,
		FiberG:     n.FiberG * factor,
		SodiumMg:   n.SodiumMg * factor,
	}
}

// DefaultPortion is the typical single serving of an entry. Unit is "g" for
// solids and "ml" for liquids; consumers read Grams or Ml accordingly.
type DefaultPortion struct {
	Unit  string  `json:"unit,omitempty"`
	Grams float64 `json:"grams,omitempty"`
	Ml    float64 `json:"ml,omitempty"`
}

// ModifierEffect is the adjustment applied when a modifier keyword (e.g.
// "less sugar") is present on a resolved item. Only sugar is adjusted today;
// the struct leaves room for further factors keyed the same way.
type ModifierEffect struct {
	SugarFactor float64 `json:"sugar_factor"`
}

// FoodEntry is one canonical record in the merged catalog.
type FoodEntry struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Aliases        []string                  `json:"aliases,omitempty"`
	Category       string                    `json:"category,omitempty"`
	DefaultPortion *DefaultPortion           `json:"default_portion,omitempty"`
	Per100g        *NutrientVector           `json:"nutrients_per_100g,omitempty"`
	Per100ml       *NutrientVector           `json:"nutrients_per_100ml,omitempty"`
	Modifiers      map[string]ModifierEffect `json:"modifiers,omitempty"`
	Source         string                    `json:"source,omitempty"`
}

// FoodSummary is the compact shape returned by the search endpoint.
type FoodSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	DisplayName string `json:"display_name"`
}
