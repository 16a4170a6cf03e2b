package usecase

import "github.com/mealsense/backend/internal/domain"

// Tags produced by the classifier. A meal can carry several at once.
const (
	TagHighSugar  = "high_sugar"
	TagHighFat    = "high_fat"
	TagLowFiber   = "low_fiber"
	TagHighSodium = "high_sodium"
	TagUnbalanced = "unbalanced"
)

// tagTips maps each tag to its user-facing advice line. Pure data; the mobile
// client renders these verbatim.
var tagTips = map[string]string{
	TagHighSugar:  "This meal is high in sugar - consider a less sweet option next time.",
	TagHighFat:    "Quite a lot of fat here; balance it with lighter meals today.",
	TagLowFiber:   "Low on fiber - add vegetables, fruit or whole grains.",
	TagHighSodium: "High sodium content; watch salty sauces and processed sides.",
	TagUnbalanced: "The carb/fat/protein split is off balance for this meal.",
}

// MacroRange is an inclusive percentage band of total energy.
type MacroRange struct {
	Min float64
	Max float64
}

func (r MacroRange) contains(pct float64) bool {
	return pct >= r.Min && pct <= r.Max
}

// ClassifyConfig holds the thresholds the classifier compares against.
type ClassifyConfig struct {
	HighSugarG   float64
	HighFatG     float64
	HighSatFatG  float64
	LowFiberG    float64
	HighSodiumMg float64
	CarbPct      MacroRange
	FatPct       MacroRange
	ProteinPct   MacroRange
}

// Classifier compares aggregate meal nutrients against configured thresholds.
type Classifier struct {
	cfg ClassifyConfig
}

// NewClassifier creates a classifier, falling back to built-in defaults for
// any threshold left at zero.
func NewClassifier(cfg ClassifyConfig) *Classifier {
	if cfg.HighSugarG <= 0 {
		cfg.HighSugarG = 20
	}
	if cfg.HighFatG <= 0 {
		cfg.HighFatG = 17
	}
	if cfg.HighSatFatG <= 0 {
		cfg.HighSatFatG = 6
	}
	if cfg.LowFiberG <= 0 {
		cfg.LowFiberG = 3
	}
	if cfg.HighSodiumMg <= 0 {
		cfg.HighSodiumMg = 600
	}
	if cfg.CarbPct == (MacroRange{}) {
		cfg.CarbPct = MacroRange{Min: 45, Max: 65}
	}
	if cfg.FatPct == (MacroRange{}) {
		cfg.FatPct = MacroRange{Min: 20, Max: 35}
	}
	if cfg.ProteinPct == (MacroRange{}) {
		cfg.ProteinPct = MacroRange{Min: 10, Max: 35}
	}
	return &Classifier{cfg: cfg}
}

// Classify evaluates every rule independently and returns the tags that fire.
func (c *Classifier) Classify(totals domain.Nutrients) []string {
	var tags []string

	if totals.SugarG >= c.cfg.HighSugarG {
		tags = append(tags, TagHighSugar)
	}
	if totals.FatG >= c.cfg.HighFatG || totals.SatFatG >= c.cfg.HighSatFatG {
		tags = append(tags, TagHighFat)
	}
	if totals.FiberG < c.cfg.LowFiberG {
		tags = append(tags, TagLowFiber)
	}
	if totals.SodiumMg >= c.cfg.HighSodiumMg {
		tags = append(tags, TagHighSodium)
	}

	// The balance rule needs a macro-energy split, so it is skipped entirely
	// at zero energy.
	if totals.EnergyKcal > 0 {
		carbPct := totals.CarbG * kcalPerGramCarb / totals.EnergyKcal * 100
		fatPct := totals.FatG * kcalPerGramFat / totals.EnergyKcal * 100
		proteinPct := totals.ProteinG * kcalPerGramProtein / totals.EnergyKcal * 100

		balanced := c.cfg.CarbPct.contains(carbPct) &&
			c.cfg.FatPct.contains(fatPct) &&
			c.cfg.ProteinPct.contains(proteinPct)
		if !balanced {
			tags = append(tags, TagUnbalanced)
		}
	}

	return tags
}

// TipsFor maps tags to their advice strings, preserving tag order.
func TipsFor(tags []string) []string {
	var tips []string
	for _, tag := range tags {
		if tip, ok := tagTips[tag]; ok {
			tips = append(tips, tip)
		}
	}
	return tips
}
