package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mealsense/backend/internal/domain"
)

// Fixed fallback portions when neither a container word nor a catalog default
// applies.
const (
	fallbackGrams = 100.0
	fallbackMl    = 250.0
)

var leadingQuantityRegex = regexp.MustCompile(`^\s*(\d+)\b`)

// sizeFactors maps size keywords to multiplicative portion factors.
var sizeFactors = map[string]float64{
	"small":  0.8,
	"medium": 1.0,
	"large":  1.2,
}

// containerPortion holds the typical content of one container. gramsByCategory
// refines the solid estimate for categories with known densities; ml applies
// to liquid entries. A zero field means the container gives no estimate for
// that unit kind.
type containerPortion struct {
	gramsByCategory map[string]float64
	grams           float64
	ml              float64
}

var containerTable = map[string]containerPortion{
	"bowl": {
		gramsByCategory: map[string]float64{"rice": 250, "noodle": 300, "soup": 400},
		grams:           300,
		ml:              400,
	},
	"plate": {
		gramsByCategory: map[string]float64{"rice": 300, "noodle": 350},
		grams:           350,
	},
	"cup": {
		grams: 150,
		ml:    250,
	},
	"glass": {
		ml: 300,
	},
	"slice": {
		grams: 80,
	},
	"piece": {
		grams: 60,
	},
}

// Portion is a resolved concrete amount for one item.
type Portion struct {
	Grams    float64
	Ml       float64
	Quantity int
}

// PortionResolver turns a matched entry plus free-text cues into a concrete
// mass or volume. It is pure and never fails: an entry with no nutrient
// vector at all resolves to a zero portion so the rest of the meal survives.
type PortionResolver struct{}

// NewPortionResolver creates a portion resolver.
func NewPortionResolver() *PortionResolver {
	return &PortionResolver{}
}

// Resolve parses freeText for a leading quantity, a size keyword and a
// container word, then resolves grams (solids) or milliliters (liquids) in
// this priority: container estimate x size x quantity, catalog default
// portion x size x quantity, fixed fallback x quantity.
func (r *PortionResolver) Resolve(entry *domain.FoodEntry, freeText string) Portion {
	quantity, size, container := parsePortionText(freeText)
	portion := Portion{Quantity: quantity}
	qty := float64(quantity)

	if entry.Per100g != nil {
		if grams := containerGrams(container, entry.Category); grams > 0 {
			portion.Grams = grams * size * qty
		} else if dp := entry.DefaultPortion; dp != nil && dp.Grams > 0 {
			portion.Grams = dp.Grams * size * qty
		} else {
			portion.Grams = fallbackGrams * qty
		}
	}

	if entry.Per100ml != nil {
		if ml := containerMl(container); ml > 0 {
			portion.Ml = ml * size * qty
		} else if dp := entry.DefaultPortion; dp != nil && dp.Ml > 0 {
			portion.Ml = dp.Ml * size * qty
		} else {
			portion.Ml = fallbackMl * qty
		}
	}

	return portion
}

// parsePortionText extracts the quantity (default 1), size factor (default
// medium) and container keyword (may be empty) from free text.
func parsePortionText(freeText string) (quantity int, sizeFactor float64, container string) {
	quantity = 1
	sizeFactor = 1.0

	text := strings.ToLower(strings.TrimSpace(freeText))
	if text == "" {
		return quantity, sizeFactor, ""
	}

	if m := leadingQuantityRegex.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			quantity = n
		}
	}

	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';'
	}) {
		if factor, ok := sizeFactors[word]; ok {
			sizeFactor = factor
			continue
		}
		if _, ok := containerTable[word]; !ok {
			word = strings.TrimSuffix(word, "s") // bowls -> bowl
			if _, ok := containerTable[word]; !ok {
				word = strings.TrimSuffix(word, "e") // glasses -> glass
			}
		}
		if _, ok := containerTable[word]; ok && container == "" {
			container = word
		}
	}

	return quantity, sizeFactor, container
}

func containerGrams(container, category string) float64 {
	cp, ok := containerTable[container]
	if !ok {
		return 0
	}
	if grams, ok := cp.gramsByCategory[strings.ToLower(category)]; ok {
		return grams
	}
	return cp.grams
}

func containerMl(container string) float64 {
	cp, ok := containerTable[container]
	if !ok {
		return 0
	}
	return cp.ml
}
