package world

import (
	"math"
	"sort"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/economy"
	"github.com/oswinhale/steading/internal/needs"
	"github.com/oswinhale/steading/internal/rng"
	"github.com/oswinhale/steading/internal/social"
)

// ActionResult records what an executed activity produced.
type ActionResult struct {
	Activity string
	Success  bool
	Injured  bool
	// Yield is what actually landed in the household inventory.
	Yield map[economy.ItemType]float64
}

// Executor runs chosen activities against the environment and the agent's
// household. One executor serves the whole run.
type Executor struct {
	cfg     *config.Config
	rs      *rng.Stream
	clock   *Clock
	climate *Climate
	field   *Field
	crops   *Crops
}

// NewExecutor wires the environment pieces together.
func NewExecutor(cfg *config.Config, rs *rng.Stream, clock *Clock, climate *Climate, field *Field, crops *Crops) *Executor {
	return &Executor{cfg: cfg, rs: rs, clock: clock, climate: climate, field: field, crops: crops}
}

// Apply executes one agent's chosen candidate. groupSize counts the agent's
// work party (1 when working alone). All goods land in the household
// inventory; the agent itself carries nothing.
func (e *Executor) Apply(ag *agent.Agent, cand Candidate, fam *social.Family, groupSize int) ActionResult {
	act := cand.Activity
	res := ActionResult{Activity: act.Name}
	ag.LastActivity = act.Name

	// Pure recovery actions skip rolls entirely.
	switch act.Name {
	case IdleName:
		ag.Needs.Satisfy(needs.Rest, 10)
		res.Success = true
		return res
	case "rest":
		ag.Needs.Satisfy(needs.Rest, 40)
		ag.AddFatigue(act.FatigueCost)
		res.Success = true
		return res
	}

	weather := 1.0
	if act.Resource != ResourceNone || act.Danger >= 0.05 {
		weather = e.climate.OutdoorModifier()
	}
	chance := act.SuccessChance(ag, e.cfg, cand.ToolQuality, groupSize, weather)
	roll := e.rs.Float64()
	res.Success = roll < chance

	ag.AddFatigue(act.FatigueCost)
	e.wearTools(act, fam)

	xp := act.Hours
	if !res.Success {
		xp *= 0.4
	}
	if act.XPCategory != "" {
		ag.Skills.Gain(act.XPCategory, xp)
	}

	if act.Danger > 0 && e.rs.Chance(act.Danger*(2-weather)) {
		res.Injured = true
		ag.Needs.Reduce(needs.Health, e.rs.Uniform(5, 20))
		ag.RecoveryDays += e.rs.IntnRange(1, 3)
	}

	if res.Success {
		res.Yield = e.applyEffects(ag, cand, fam)
	}

	if act.Name == "socialize" {
		ag.Needs.Satisfy(needs.Social, 30)
	}
	if res.Success && act.Name == "explore" {
		ag.Needs.Satisfy(needs.Purpose, 20)
	}
	return res
}

// applyEffects performs the success-path changes: harvesting, conversions,
// construction and crop work.
func (e *Executor) applyEffects(ag *agent.Agent, cand Candidate, fam *social.Family) map[economy.ItemType]float64 {
	act := cand.Activity
	switch act.Name {
	case "cook_food":
		return e.convert(fam, economy.RawMeat, economy.CookedMeat, 3, 1.0, ag, act)
	case "preserve_food":
		if fam.Inventory.Has(economy.RawMeat, 1) {
			return e.convert(fam, economy.RawMeat, economy.DriedMeat, 4, 0.8, ag, act)
		}
		return e.convert(fam, economy.Fish, economy.DriedFish, 4, 0.8, ag, act)
	case "craft_tools":
		return e.craftTool(ag, fam)
	case "build_shelter":
		if fam.Inventory.Remove(economy.Timber, 2) == nil {
			return nil
		}
		skill := ag.SkillLevel(act.XPCategory, e.cfg)
		fam.ShelterQuality = math.Min(1, fam.ShelterQuality+0.15*(0.8+0.4*skill/100))
		return nil
	case "farm_plant":
		e.crops.Plant(fam.ID, e.clock.Day)
		return nil
	case "farm_tend":
		e.crops.Tend(fam.ID)
		return nil
	case "farm_harvest":
		plot, ok := e.crops.Harvest(fam.ID)
		if !ok {
			return nil
		}
		return e.harvest(ag, cand, fam, plot.YieldMultiplier())
	}
	if len(act.Outputs) > 0 {
		return e.harvest(ag, cand, fam, 1)
	}
	return nil
}

// harvest rolls the yield, draws it from the resource node when one is
// involved, and stores it in the household inventory.
func (e *Executor) harvest(ag *agent.Agent, cand Candidate, fam *social.Family, mult float64) map[economy.ItemType]float64 {
	act := cand.Activity
	yieldRoll := e.rs.Float64()
	yields := act.Yield(ag, e.cfg, yieldRoll, cand.ToolQuality)

	// When the activity draws from a node, a thin node scales the whole
	// take down proportionally.
	if cand.Node != nil {
		var want float64
		for _, q := range yields {
			want += q
		}
		if want > 0 {
			got := e.field.Harvest(cand.Node, want*mult)
			mult = got / want
		}
	}

	skill := ag.SkillLevel(act.XPCategory, e.cfg)
	quality := math.Min(1, 0.4+0.4*skill/100+0.2*yieldRoll)

	stored := make(map[economy.ItemType]float64, len(yields))
	for _, t := range sortedYieldTypes(yields) {
		qty := yields[t] * mult
		if qty < 0.05 {
			continue
		}
		fam.Inventory.Add(economy.NewStack(t, qty, quality))
		stored[t] = qty
	}
	return stored
}

// convert turns up to maxUnits of a raw food into its processed form at the
// given ratio, preserving the source quality.
func (e *Executor) convert(fam *social.Family, from, to economy.ItemType, maxUnits, ratio float64, ag *agent.Agent, act *Activity) map[economy.ItemType]float64 {
	units := math.Min(maxUnits, fam.Inventory.TotalOf(from))
	if units < 0.5 {
		return nil
	}
	removed := fam.Inventory.Remove(from, units)
	if removed == nil {
		return nil
	}
	skill := ag.SkillLevel(act.XPCategory, e.cfg)
	out := removed.Quantity * ratio * (0.8 + 0.4*skill/100)
	fam.Inventory.Add(economy.NewStack(to, out, removed.Quality))
	return map[economy.ItemType]float64{to: out}
}

// craftTool consumes timber and stone and produces the household's most
// needed missing tool.
func (e *Executor) craftTool(ag *agent.Agent, fam *social.Family) map[economy.ItemType]float64 {
	tt := missingToolType(fam)
	if tt == "" {
		return nil
	}
	item, ok := economy.ToolOfType(tt)
	if !ok {
		return nil
	}
	if fam.Inventory.Remove(economy.Timber, 1) == nil {
		return nil
	}
	if fam.Inventory.Remove(economy.Stone, 1) == nil {
		return nil
	}
	skill := ag.SkillLevel("crafting", e.cfg)
	quality := math.Min(1, 0.3+0.5*skill/100+e.rs.Uniform(0, 0.2))
	fam.Inventory.Add(economy.NewStack(item, 1, quality))
	return map[economy.ItemType]float64{item: 1}
}

// wearTools degrades every tool the activity used.
func (e *Executor) wearTools(act *Activity, fam *social.Family) {
	if fam == nil {
		return
	}
	for _, tt := range act.RequiredTools {
		if tool := fam.Inventory.BestTool(tt); tool != nil {
			tool.Durability = math.Max(0, tool.Durability-e.cfg.Inventory.ToolWearPerUse)
		}
	}
}

func sortedYieldTypes(m map[economy.ItemType]float64) []economy.ItemType {
	out := make([]economy.ItemType, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
