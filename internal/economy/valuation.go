package economy

import (
	"math"

	"github.com/oswinhale/steading/internal/config"
)

// Viewpoint is the subjective lens a valuation is computed through: the
// viewer's current need levels (0-100), personality and relevant skill
// levels. Callers assemble it from an agent; the economy never sees agents
// directly.
type Viewpoint struct {
	Hunger   float64
	Warmth   float64
	Health   float64
	Ambition float64
	// Skill levels (0-100) keyed by activity category.
	Skills map[string]float64
}

// Maps self-procurable foods to the skill that procures them. Skilled
// viewers discount what they can get themselves.
var procurementSkill = map[ItemType]string{
	RawMeat:    "hunting",
	Fish:       "fishing",
	Berries:    "foraging",
	Vegetables: "farming",
}

// SubjectiveValue answers: how much is this quantity of this item worth to
// this viewer right now? The result is in abstract units, comparable only
// within one viewer's perspective.
//
// base item value x scarcity x personality, where scarcity covers the
// hunger multiplier, the missing-tool multiplier and diminishing returns on
// existing holdings.
func SubjectiveValue(cfg *config.Config, vp Viewpoint, t ItemType, quantity float64, holdings ...*Inventory) float64 {
	props := Catalog[t]

	// Effort-to-obtain proxy.
	value := props.WeightKg * 0.5

	if props.FoodValue > 0 {
		hungerSat := vp.Hunger / 100
		mult := 1.0
		if hungerSat < 0.5 {
			mult = 1 + (0.5-hungerSat)*(cfg.Trade.HungryFoodMult-1)*2
		}
		value = props.FoodValue * mult * 2

		// Longer shelf life is worth a premium.
		if props.PerishDays > 0 {
			shelf := math.Min(1, float64(props.PerishDays)/60)
			value *= 0.7 + 0.3*shelf
		}
	}

	if props.ToolType != "" {
		hasTool := false
		for _, inv := range holdings {
			if inv != nil && inv.HasToolType(props.ToolType) {
				hasTool = true
				break
			}
		}
		if hasTool {
			value *= 0.8
		} else {
			value *= 3
		}
		value *= 0.8 + 0.4*vp.Ambition/100
	}

	if props.WarmthValue > 0 && vp.Warmth < 50 {
		value *= 2
	}
	if props.HealValue > 0 && vp.Health < 70 {
		value *= 2.5
	}

	var owned float64
	for _, inv := range holdings {
		if inv != nil {
			owned += inv.TotalOf(t)
		}
	}
	if owned > 0 {
		value *= 1 / (1 + owned*cfg.Trade.DiminishingSurplus)
	}

	if skill, ok := procurementSkill[t]; ok {
		if level := vp.Skills[skill]; level > 30 {
			value *= math.Max(0.5, 1-level/200)
		}
	}

	return math.Max(0.01, value*quantity)
}

// Surplus lists holdings beyond the next surplus-window days of needs:
// food past the window, spare tools, raw materials above a working reserve.
func Surplus(cfg *config.Config, inv *Inventory) map[ItemType]float64 {
	surplus := make(map[ItemType]float64)
	remainingFoodNeed := cfg.Population.DailyFoodNeed * cfg.Trade.SurplusDays

	for _, t := range inv.sortedTypes() {
		total := inv.TotalOf(t)
		if total <= 0.01 {
			continue
		}
		props := Catalog[t]
		switch {
		case props.FoodValue > 0:
			neededQty := remainingFoodNeed / math.Max(0.01, props.FoodValue)
			if excess := total - neededQty; excess > 0.5 {
				surplus[t] = excess
			}
			remainingFoodNeed -= math.Min(total, neededQty) * props.FoodValue
		case props.ToolType != "":
			if total > 1 {
				surplus[t] = total - 1
			}
		default:
			if total > 5 {
				surplus[t] = total - 5
			}
		}
	}
	return surplus
}

// Deficits lists what the viewer is short of for the next deficit-window
// days: food, the basic tool kit, clothing when cold, medicine when hurt.
func Deficits(cfg *config.Config, vp Viewpoint, inv *Inventory) map[ItemType]float64 {
	deficits := make(map[ItemType]float64)

	foodNeed := cfg.Population.DailyFoodNeed * cfg.Trade.DeficitDays
	if have := inv.TotalFoodValue(); have < foodNeed {
		// Grain keeps the longest, so food shortfalls are asked in grain.
		missing := foodNeed - have
		deficits[Grain] = missing / Catalog[Grain].FoodValue
	}

	for _, toolType := range []string{"axe", "knife", "spear", "farming", "fishing"} {
		if inv.HasToolType(toolType) {
			continue
		}
		if t, ok := ToolOfType(toolType); ok {
			deficits[t] = 1
		}
	}

	if vp.Warmth < 40 && !inv.Has(Clothing, 1) {
		deficits[Clothing] = 1
	}
	if vp.Health < 70 && !inv.Has(Medicine, 1) {
		deficits[Medicine] = 1
	}
	return deficits
}
