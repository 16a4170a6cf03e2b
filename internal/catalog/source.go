package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mealsense/backend/internal/domain"
)

// Unit conversions for secondary-source records that report energy in
// kilojoules or sodium as salt (OpenFoodFacts does both).
const (
	kjToKcal       = 0.239005736
	saltToSodiumMg = 393.66 // mg sodium per gram of salt
)

// SourceRecord is one raw food record as found in a source JSON file, before
// normalization into a FoodEntry. The flat "nutrients" object is the common
// per-100g form; liquid entries use "nutrients_per_100ml" instead.
type SourceRecord struct {
	ID             string                           `json:"id"`
	Name           string                           `json:"name"`
	Aliases        []string                         `json:"aliases,omitempty"`
	Category       string                           `json:"category,omitempty"`
	DefaultPortion *domain.DefaultPortion           `json:"default_portion,omitempty"`
	Nutrients      *domain.NutrientVector           `json:"nutrients,omitempty"`
	Per100g        *domain.NutrientVector           `json:"nutrients_per_100g,omitempty"`
	Per100ml       *domain.NutrientVector           `json:"nutrients_per_100ml,omitempty"`
	Modifiers      map[string]domain.ModifierEffect `json:"modifiers,omitempty"`
	EnergyKJ       *float64                         `json:"energy_kj,omitempty"`
	SaltG          *float64                         `json:"salt_g,omitempty"`
	Source         string                           `json:"source,omitempty"`
}

// Source is one ranked raw dataset. Sources are processed highest priority
// first; the slice order in the builder config is the ranking.
type Source struct {
	Name    string
	Records []SourceRecord
}

// LoadSourceFile reads a JSON array of SourceRecord from path. The source
// name is derived from the file name (e.g. "foods.usda.json" -> "usda").
func LoadSourceFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read source file: %w", err)
	}

	var records []SourceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return Source{}, fmt.Errorf("decode source file %s: %w", path, err)
	}

	return Source{Name: sourceNameFromPath(path), Records: records}, nil
}

func sourceNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	// "foods.usda" -> "usda"
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.ToLower(base)
}

// normalizeRecord converts a raw record into a FoodEntry, applying unit
// conversions and namespacing the id by source when it carries no prefix.
// Records without a usable id or name return false.
func normalizeRecord(rec SourceRecord, sourceName string) (domain.FoodEntry, bool) {
	id := strings.TrimSpace(rec.ID)
	name := strings.TrimSpace(rec.Name)
	if id == "" || name == "" {
		return domain.FoodEntry{}, false
	}
	if !strings.Contains(id, "-") {
		id = sourceName + "-" + id
	}

	per100g := rec.Per100g
	if per100g.IsEmpty() {
		per100g = rec.Nutrients
	}
	applyConversions(per100g, rec.EnergyKJ, rec.SaltG)
	applyConversions(rec.Per100ml, rec.EnergyKJ, rec.SaltG)

	source := rec.Source
	if source == "" {
		source = sourceName
	}

	entry := domain.FoodEntry{
		ID:             id,
		Name:           name,
		Category:       strings.TrimSpace(rec.Category),
		DefaultPortion: rec.DefaultPortion,
		Modifiers:      rec.Modifiers,
		Source:         source,
	}
	if !per100g.IsEmpty() {
		entry.Per100g = per100g
	}
	if !rec.Per100ml.IsEmpty() {
		entry.Per100ml = rec.Per100ml
	}
	for _, a := range rec.Aliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" && a != strings.ToLower(name) {
			entry.Aliases = append(entry.Aliases, a)
		}
	}
	return entry, true
}

func applyConversions(v *domain.NutrientVector, energyKJ, saltG *float64) {
	if v == nil {
		return
	}
	if v.EnergyKcal == nil && energyKJ != nil {
		kcal := *energyKJ * kjToKcal
		v.EnergyKcal = &kcal
	}
	if v.SodiumMg == nil && saltG != nil {
		sodium := *saltG * saltToSodiumMg
		v.SodiumMg = &sodium
	}
}
