package world

import (
	"math"
	"sort"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/economy"
	"github.com/oswinhale/steading/internal/needs"
	"github.com/oswinhale/steading/internal/social"
)

// ResourceNone marks activities that need no resource node.
const ResourceNone ResourceType = -1

// IdleName is the always-available fallback action.
const IdleName = "idle"

// Activity is one entry in the productive-action catalog. Personality
// enters through TraitWeights rows, never through agent subtypes.
type Activity struct {
	Name          string
	TraitWeights  map[string]float64
	BaseSuccess   float64
	Hours         float64
	RequiredTools []string
	Seasons       []Season // nil means all seasons
	Resource      ResourceType
	Outputs       map[economy.ItemType]float64
	Danger        float64
	GroupBonus    float64
	FatigueCost   float64
	XPCategory    string
	Needs         []needs.Need
}

// InSeason reports whether the activity can run in the given season.
func (a *Activity) InSeason(s Season) bool {
	if a.Seasons == nil {
		return true
	}
	for _, allowed := range a.Seasons {
		if allowed == s {
			return true
		}
	}
	return false
}

// GroupEligible reports whether the activity benefits from a work party.
func (a *Activity) GroupEligible() bool { return a.GroupBonus > 0 }

// Catalog holds every activity by name.
var Catalog = map[string]*Activity{
	"gather_berries": {
		Name:         "gather_berries",
		TraitWeights: map[string]float64{"endurance": 0.4, "intelligence": 0.3, "dexterity": 0.3},
		BaseSuccess:  0.80,
		Hours:        3,
		Resource:     WildPlants,
		Outputs:      map[economy.ItemType]float64{economy.Berries: 6, economy.PlantFiber: 1.5},
		Danger:       0.02,
		FatigueCost:  0.05,
		XPCategory:   "foraging",
		Needs:        []needs.Need{needs.Hunger},
	},
	"hunt_small_game": {
		Name:          "hunt_small_game",
		TraitWeights:  map[string]float64{"dexterity": 0.35, "patience": 0.25, "endurance": 0.2, "intelligence": 0.2},
		BaseSuccess:   0.65,
		Hours:         4,
		RequiredTools: []string{"spear"},
		Resource:      GameSmall,
		Outputs:       map[economy.ItemType]float64{economy.RawMeat: 4, economy.AnimalHide: 1},
		Danger:        0.05,
		FatigueCost:   0.08,
		XPCategory:    "hunting",
		Needs:         []needs.Need{needs.Hunger},
	},
	"hunt_large_game": {
		Name:          "hunt_large_game",
		TraitWeights:  map[string]float64{"strength": 0.3, "endurance": 0.25, "risk_tolerance": 0.15, "dexterity": 0.2, "patience": 0.1},
		BaseSuccess:   0.45,
		Hours:         8,
		RequiredTools: []string{"spear"},
		Resource:      GameLarge,
		Outputs:       map[economy.ItemType]float64{economy.RawMeat: 12, economy.AnimalHide: 3},
		Danger:        0.15,
		GroupBonus:    0.15,
		FatigueCost:   0.12,
		XPCategory:    "hunting",
		Needs:         []needs.Need{needs.Hunger},
	},
	"fishing": {
		Name:          "fishing",
		TraitWeights:  map[string]float64{"patience": 0.4, "dexterity": 0.3, "intelligence": 0.3},
		BaseSuccess:   0.70,
		Hours:         4,
		RequiredTools: []string{"fishing"},
		Resource:      FishStock,
		Outputs:       map[economy.ItemType]float64{economy.Fish: 5},
		Danger:        0.02,
		FatigueCost:   0.04,
		XPCategory:    "fishing",
		Needs:         []needs.Need{needs.Hunger},
	},
	"chop_wood": {
		Name:          "chop_wood",
		TraitWeights:  map[string]float64{"strength": 0.5, "endurance": 0.35, "dexterity": 0.15},
		BaseSuccess:   0.9,
		Hours:         4,
		RequiredTools: []string{"axe"},
		Resource:      TimberStand,
		Outputs:       map[economy.ItemType]float64{economy.Timber: 2, economy.Firewood: 3},
		Danger:        0.05,
		FatigueCost:   0.10,
		XPCategory:    "woodcutting",
		Needs:         []needs.Need{needs.Warmth, needs.Shelter},
	},
	"mine_stone": {
		Name:          "mine_stone",
		TraitWeights:  map[string]float64{"strength": 0.45, "endurance": 0.4, "dexterity": 0.15},
		BaseSuccess:   0.8,
		Hours:         6,
		RequiredTools: []string{"mining"},
		Resource:      StoneOutcrop,
		Outputs:       map[economy.ItemType]float64{economy.Stone: 3},
		Danger:        0.08,
		FatigueCost:   0.12,
		XPCategory:    "mining",
		Needs:         []needs.Need{needs.Shelter},
	},
	"mine_ore": {
		Name:          "mine_ore",
		TraitWeights:  map[string]float64{"strength": 0.4, "endurance": 0.35, "intelligence": 0.15, "dexterity": 0.1},
		BaseSuccess:   0.5,
		Hours:         7,
		RequiredTools: []string{"mining"},
		Resource:      IronDeposit,
		Outputs:       map[economy.ItemType]float64{economy.IronOre: 1.5},
		Danger:        0.12,
		FatigueCost:   0.14,
		XPCategory:    "mining",
		Needs:         []needs.Need{needs.Purpose},
	},
	"farm_plant": {
		Name:          "farm_plant",
		TraitWeights:  map[string]float64{"patience": 0.3, "endurance": 0.3, "strength": 0.2, "intelligence": 0.2},
		BaseSuccess:   0.8,
		Hours:         6,
		RequiredTools: []string{"farming"},
		Seasons:       []Season{Spring, Summer},
		Resource:      Farmland,
		Danger:        0.01,
		FatigueCost:   0.08,
		XPCategory:    "farming",
		Needs:         []needs.Need{needs.Hunger},
	},
	"farm_tend": {
		Name:          "farm_tend",
		TraitWeights:  map[string]float64{"patience": 0.3, "conscientiousness": 0.3, "endurance": 0.2, "intelligence": 0.2},
		BaseSuccess:   0.9,
		Hours:         4,
		RequiredTools: []string{"farming"},
		Seasons:       []Season{Spring, Summer},
		Resource:      ResourceNone,
		Danger:        0.01,
		FatigueCost:   0.06,
		XPCategory:    "farming",
		Needs:         []needs.Need{needs.Hunger},
	},
	"farm_harvest": {
		Name:          "farm_harvest",
		TraitWeights:  map[string]float64{"endurance": 0.4, "strength": 0.3, "dexterity": 0.3},
		BaseSuccess:   0.95,
		Hours:         8,
		RequiredTools: []string{"farming"},
		Seasons:       []Season{Summer, Autumn},
		Resource:      ResourceNone,
		Outputs:       map[economy.ItemType]float64{economy.Grain: 10, economy.Vegetables: 5},
		Danger:        0.01,
		GroupBonus:    0.1,
		FatigueCost:   0.10,
		XPCategory:    "farming",
		Needs:         []needs.Need{needs.Hunger},
	},
	"cook_food": {
		Name:          "cook_food",
		TraitWeights:  map[string]float64{"intelligence": 0.3, "dexterity": 0.3, "patience": 0.2, "creativity": 0.2},
		BaseSuccess:   0.8,
		Hours:         2,
		RequiredTools: []string{"knife"},
		Resource:      ResourceNone,
		Outputs:       map[economy.ItemType]float64{economy.CookedMeat: 1},
		Danger:        0.02,
		FatigueCost:   0.03,
		XPCategory:    "cooking",
		Needs:         []needs.Need{needs.Hunger, needs.Comfort},
	},
	"preserve_food": {
		Name:          "preserve_food",
		TraitWeights:  map[string]float64{"intelligence": 0.3, "patience": 0.4, "conscientiousness": 0.3},
		BaseSuccess:   0.6,
		Hours:         4,
		RequiredTools: []string{"knife"},
		Resource:      ResourceNone,
		Outputs:       map[economy.ItemType]float64{economy.DriedMeat: 1},
		Danger:        0.01,
		FatigueCost:   0.04,
		XPCategory:    "cooking",
		Needs:         []needs.Need{needs.Hunger},
	},
	"craft_tools": {
		Name:         "craft_tools",
		TraitWeights: map[string]float64{"dexterity": 0.35, "intelligence": 0.35, "patience": 0.2, "creativity": 0.1},
		BaseSuccess:  0.65,
		Hours:        5,
		Resource:     ResourceNone,
		Danger:       0.03,
		FatigueCost:  0.06,
		XPCategory:   "crafting",
		Needs:        []needs.Need{needs.Purpose, needs.Safety},
	},
	"build_shelter": {
		Name:          "build_shelter",
		TraitWeights:  map[string]float64{"strength": 0.35, "intelligence": 0.25, "dexterity": 0.2, "endurance": 0.2},
		BaseSuccess:   0.7,
		Hours:         8,
		RequiredTools: []string{"axe"},
		Resource:      ResourceNone,
		Danger:        0.06,
		GroupBonus:    0.2,
		FatigueCost:   0.12,
		XPCategory:    "building",
		Needs:         []needs.Need{needs.Shelter, needs.Warmth, needs.Safety},
	},
	"gather_herbs": {
		Name:         "gather_herbs",
		TraitWeights: map[string]float64{"intelligence": 0.4, "patience": 0.3, "dexterity": 0.3},
		BaseSuccess:  0.4,
		Hours:        4,
		Resource:     HerbPatch,
		Outputs:      map[economy.ItemType]float64{economy.Medicine: 1},
		Danger:       0.02,
		FatigueCost:  0.04,
		XPCategory:   "herbalism",
		Needs:        []needs.Need{needs.Health},
	},
	"rest": {
		Name:        "rest",
		BaseSuccess: 1.0,
		Resource:    ResourceNone,
		FatigueCost: -0.3,
		Needs:       []needs.Need{needs.Rest},
	},
	"socialize": {
		Name:         "socialize",
		TraitWeights: map[string]float64{"sociability": 0.5, "empathy": 0.3, "intelligence": 0.2},
		BaseSuccess:  1.0,
		Hours:        4,
		Resource:     ResourceNone,
		FatigueCost:  0.02,
		Needs:        []needs.Need{needs.Social},
	},
	"explore": {
		Name:         "explore",
		TraitWeights: map[string]float64{"risk_tolerance": 0.3, "endurance": 0.3, "intelligence": 0.2, "dexterity": 0.2},
		BaseSuccess:  0.3,
		Hours:        8,
		Resource:     ResourceNone,
		Danger:       0.10,
		FatigueCost:  0.10,
		XPCategory:   "exploration",
		Needs:        []needs.Need{needs.Purpose, needs.Safety},
	},
	IdleName: {
		Name:        IdleName,
		BaseSuccess: 1.0,
		Resource:    ResourceNone,
		Needs:       []needs.Need{needs.Rest},
	},
}

// ActivityNames lists the catalog in fixed sorted order.
var ActivityNames = func() []string {
	out := make([]string, 0, len(Catalog))
	for name := range Catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}()

// weightedTraitScore maps the agent's traits through the activity's weight
// row to a multiplier in [0.5, 1.5].
func weightedTraitScore(tv func(string) float64, weights map[string]float64) float64 {
	if len(weights) == 0 {
		return 1.0
	}
	names := make([]string, 0, len(weights))
	var total float64
	for name, w := range weights {
		names = append(names, name)
		total += w
	}
	if total == 0 {
		return 1.0
	}
	sort.Strings(names)
	var sum float64
	for _, name := range names {
		sum += tv(name) / 100 * weights[name]
	}
	return 0.5 + sum/total
}

// SuccessChance computes the probability of a successful session:
// base x trait score x skill x tool x group x weather, clamped to
// [0.05, 0.95] so nothing is ever certain either way.
func (a *Activity) SuccessChance(ag *agent.Agent, cfg *config.Config, toolQuality float64, groupSize int, weather float64) float64 {
	traitScore := weightedTraitScore(ag.Traits.Get, a.TraitWeights)

	skill := ag.SkillLevel(a.XPCategory, cfg)
	skillMod := 0.5 + 1.5*skill/100

	toolMod := 1.0
	if len(a.RequiredTools) > 0 {
		toolMod = 0.5 + toolQuality
	}

	groupMod := 1.0
	if groupSize > 1 && a.GroupBonus > 0 {
		for i := 1; i < groupSize; i++ {
			groupMod += a.GroupBonus * math.Pow(0.8, float64(i))
		}
	}

	chance := a.BaseSuccess * traitScore * skillMod * toolMod * groupMod * weather
	return math.Max(0.05, math.Min(0.95, chance))
}

// Yield scales the activity outputs by skill, tool and the success roll.
func (a *Activity) Yield(ag *agent.Agent, cfg *config.Config, roll, toolQuality float64) map[economy.ItemType]float64 {
	if len(a.Outputs) == 0 {
		return nil
	}
	skill := ag.SkillLevel(a.XPCategory, cfg)
	skillMult := 0.8 + 0.4*skill/100
	toolMult := 0.9 + 0.2*toolQuality

	out := make(map[economy.ItemType]float64, len(a.Outputs))
	for t, base := range a.Outputs {
		out[t] = math.Max(0.1, base*skillMult*toolMult*(0.7+roll*0.3))
	}
	return out
}

// Candidate is one feasible action for one agent on one day, as handed to
// the decision engine.
type Candidate struct {
	Activity    *Activity
	BaseSuccess float64 // success chance for this agent, solo, today
	ToolQuality float64
	Node        *Node // resource node to draw from, when applicable
}

// CandidatesFor assembles the feasible actions for an agent today, in the
// catalog's fixed name order. Idle is always feasible and always last.
func CandidatesFor(
	ag *agent.Agent,
	fam *social.Family,
	crops *Crops,
	clock *Clock,
	climate *Climate,
	field *Field,
	cfg *config.Config,
) []Candidate {
	var out []Candidate
	exhausted := ag.Fatigue >= cfg.Decision.FatigueStop
	daylight := clock.DaylightHours()

	for _, name := range ActivityNames {
		act := Catalog[name]
		if name == IdleName {
			continue // appended last
		}
		if exhausted && act.FatigueCost > 0 {
			continue
		}
		if !act.InSeason(clock.Season()) {
			continue
		}
		if act.Hours > daylight && act.Hours > 0 {
			continue
		}
		if !ag.IsAdult(cfg) && act.Danger > 0.05 {
			continue
		}

		toolQuality := 0.0
		if len(act.RequiredTools) > 0 {
			if fam == nil {
				continue
			}
			ok := true
			toolQuality = 1.0
			for _, tt := range act.RequiredTools {
				tool := fam.Inventory.BestTool(tt)
				if tool == nil {
					ok = false
					break
				}
				toolQuality = math.Min(toolQuality, tool.ToolQuality())
			}
			if !ok {
				continue
			}
		}

		var node *Node
		if act.Resource != ResourceNone {
			node = field.Nearest(act.Resource, ag.X, ag.Y)
			if node == nil {
				continue
			}
		}

		if !feasibleSpecial(act, ag, fam, crops, cfg) {
			continue
		}

		weather := 1.0
		if act.Resource != ResourceNone || act.Danger >= 0.05 {
			weather = climate.OutdoorModifier()
		}
		out = append(out, Candidate{
			Activity:    act,
			BaseSuccess: act.SuccessChance(ag, cfg, toolQuality, 1, weather),
			ToolQuality: toolQuality,
			Node:        node,
		})
	}

	idle := Catalog[IdleName]
	out = append(out, Candidate{Activity: idle, BaseSuccess: 1})
	return out
}

// feasibleSpecial enforces per-activity preconditions on household state.
func feasibleSpecial(act *Activity, ag *agent.Agent, fam *social.Family, crops *Crops, cfg *config.Config) bool {
	switch act.Name {
	case "cook_food":
		return fam != nil && fam.Inventory.Has(economy.RawMeat, 1)
	case "preserve_food":
		return fam != nil && (fam.Inventory.Has(economy.RawMeat, 1) || fam.Inventory.Has(economy.Fish, 1))
	case "craft_tools":
		return fam != nil && fam.Inventory.Has(economy.Timber, 1) && fam.Inventory.Has(economy.Stone, 1) && missingToolType(fam) != ""
	case "build_shelter":
		return fam != nil && fam.Inventory.Has(economy.Timber, 2) && fam.ShelterQuality < 0.95
	case "farm_plant":
		if fam == nil {
			return false
		}
		p, ok := crops.Plot(fam.ID)
		return !ok || p.Failed
	case "farm_tend":
		if fam == nil {
			return false
		}
		p, ok := crops.Plot(fam.ID)
		return ok && !p.Failed && !p.Mature(cfg)
	case "farm_harvest":
		if fam == nil {
			return false
		}
		p, ok := crops.Plot(fam.ID)
		return ok && p.Mature(cfg)
	}
	return true
}

// missingToolType picks the first basic tool type the household lacks, in
// a fixed priority order.
func missingToolType(fam *social.Family) string {
	for _, tt := range []string{"axe", "knife", "spear", "fishing", "farming", "mining", "construction"} {
		if !fam.Inventory.HasToolType(tt) {
			return tt
		}
	}
	return ""
}
