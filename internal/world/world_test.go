package world

import (
	"math"
	"testing"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/economy"
	"github.com/oswinhale/steading/internal/needs"
	"github.com/oswinhale/steading/internal/rng"
	"github.com/oswinhale/steading/internal/social"
	"github.com/oswinhale/steading/internal/traits"
)

func testAgent(id agent.ID) *agent.Agent {
	tv := traits.Vector{
		Strength: 50, Endurance: 50, Dexterity: 50, Intelligence: 50,
		Patience: 50, RiskTolerance: 50, Sociability: 50, Ambition: 50,
		Conscientiousness: 50, Empathy: 50, Creativity: 50, Optimism: 50,
	}
	return &agent.Agent{
		ID:           id,
		AgeDays:      30 * 360,
		Traits:       tv,
		Needs:        needs.NewState(),
		Skills:       agent.NewSkills(),
		PregnantDays: -1,
		Alive:        true,
	}
}

func testEnv(t *testing.T, seed int64) (*config.Config, *rng.Stream, *Clock, *Climate, *Field, *Crops) {
	t.Helper()
	cfg := config.Default()
	rs := rng.New(seed)
	clock := NewClock(cfg)
	climate := NewClimate(cfg, seed)
	field := NewField(cfg, seed)
	crops := NewCrops(cfg)
	return cfg, rs, clock, climate, field, crops
}

func TestClockSeasonsAndYears(t *testing.T) {
	cfg := config.Default()
	c := NewClock(cfg)
	if c.Season() != Spring {
		t.Fatalf("day 0 season = %v, want spring", c.Season())
	}
	for i := 0; i < cfg.Time.DaysPerSeason; i++ {
		c.Advance()
	}
	if c.Season() != Summer {
		t.Fatalf("season after one season length = %v, want summer", c.Season())
	}
	for c.Day < cfg.Time.DaysPerSeason*4 {
		c.Advance()
	}
	if c.Season() != Spring || c.Year() != 1 {
		t.Fatalf("after full year: season %v year %d", c.Season(), c.Year())
	}
}

func TestDaylightInterpolates(t *testing.T) {
	cfg := config.Default()
	c := NewClock(cfg)
	first := c.DaylightHours()
	if first != cfg.Time.DaylightHours[0] {
		t.Fatalf("day 0 daylight = %v, want %v", first, cfg.Time.DaylightHours[0])
	}
	c.Day = cfg.Time.DaysPerSeason / 2
	mid := c.DaylightHours()
	lo, hi := cfg.Time.DaylightHours[0], cfg.Time.DaylightHours[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if mid < lo || mid > hi {
		t.Fatalf("mid-season daylight %v outside [%v, %v]", mid, lo, hi)
	}
}

func TestClimateTemperatureDeterministic(t *testing.T) {
	cfg := config.Default()
	runTemps := func() []float64 {
		clock := NewClock(cfg)
		climate := NewClimate(cfg, 99)
		rs := rng.New(99)
		var out []float64
		for i := 0; i < 30; i++ {
			climate.AdvanceDay(clock, rs)
			out = append(out, climate.TemperatureC)
			clock.Advance()
		}
		return out
	}
	a, b := runTemps(), runTemps()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("day %d temperature differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestWarmthDecayModifierSteps(t *testing.T) {
	c := &Climate{}
	cases := []struct {
		temp float64
		want float64
	}{
		{-20, 3}, {-5, 2}, {5, 1.3}, {15, 1},
	}
	for _, tc := range cases {
		c.TemperatureC = tc.temp
		if got := c.WarmthDecayModifier(); got != tc.want {
			t.Errorf("modifier at %v C = %v, want %v", tc.temp, got, tc.want)
		}
	}
}

func TestFieldHasEveryResourceType(t *testing.T) {
	cfg := config.Default()
	f := NewField(cfg, 7)
	for rt := ResourceType(0); rt < resourceTypeCount; rt++ {
		if len(f.NodesOf(rt)) == 0 {
			t.Errorf("no nodes of type %v", rt)
		}
	}
}

func TestFieldDeterministic(t *testing.T) {
	cfg := config.Default()
	a := NewField(cfg, 42)
	b := NewField(cfg, 42)
	na, nb := a.Nodes(), b.Nodes()
	if len(na) != len(nb) {
		t.Fatalf("node counts differ: %d vs %d", len(na), len(nb))
	}
	for i := range na {
		if *na[i] != *nb[i] {
			t.Fatalf("node %d differs: %+v vs %+v", i, *na[i], *nb[i])
		}
	}
}

func TestHarvestCapsAtAbundance(t *testing.T) {
	n := &Node{Type: TimberStand, Abundance: 3, Max: 10}
	f := &Field{}
	if got := f.Harvest(n, 5); got != 3 {
		t.Fatalf("harvest = %v, want 3", got)
	}
	if n.Abundance != 0 {
		t.Fatalf("abundance after full harvest = %v, want 0", n.Abundance)
	}
}

func TestWaterNeverDepletes(t *testing.T) {
	n := &Node{Type: FreshWater, Abundance: 1e9, Max: 1e9}
	f := &Field{}
	if got := f.Harvest(n, 50); got != 50 {
		t.Fatalf("water harvest = %v, want 50", got)
	}
}

func TestRegenerateWinterHaltsExceptFish(t *testing.T) {
	cfg := config.Default()
	f := &Field{cfg: cfg}
	timber := &Node{Type: TimberStand, Abundance: 10, Max: 100}
	fish := &Node{Type: FishStock, Abundance: 10, Max: 100}
	f.nodes = []*Node{timber, fish}
	f.byType[TimberStand] = []*Node{timber}
	f.byType[FishStock] = []*Node{fish}

	f.RegenerateDaily(Winter)
	if timber.Abundance != 10 {
		t.Errorf("timber regrew in winter: %v", timber.Abundance)
	}
	if fish.Abundance <= 10 {
		t.Errorf("fish did not regrow in winter: %v", fish.Abundance)
	}
}

func TestCropLifecycle(t *testing.T) {
	cfg := config.Default()
	crops := NewCrops(cfg)
	crops.Plant(1, 0)

	climate := &Climate{cfg: cfg, TemperatureC: 15}
	for i := 0; i < cfg.Crops.GrowthDays; i++ {
		crops.AdvanceDay(climate)
	}
	p, ok := crops.Plot(1)
	if !ok || !p.Mature(cfg) {
		t.Fatalf("crop not mature after %d growth days", cfg.Crops.GrowthDays)
	}
	if _, ok := crops.Harvest(1); !ok {
		t.Fatal("harvest of mature crop failed")
	}
	if _, ok := crops.Plot(1); ok {
		t.Fatal("plot still present after harvest")
	}
}

func TestCropFrostKills(t *testing.T) {
	cfg := config.Default()
	crops := NewCrops(cfg)
	crops.Plant(1, 0)
	climate := &Climate{cfg: cfg, TemperatureC: cfg.Crops.FrostThreshold - 1}
	crops.AdvanceDay(climate)
	p, _ := crops.Plot(1)
	if !p.Failed {
		t.Fatal("crop survived frost")
	}
	// Replanting over a failed plot starts fresh.
	p2 := crops.Plant(1, 5)
	if p2.Failed || p2.PlantedDay != 5 {
		t.Fatalf("replant over failed plot: %+v", p2)
	}
}

func TestCropDroughtKills(t *testing.T) {
	cfg := config.Default()
	crops := NewCrops(cfg)
	crops.Plant(1, 0)
	climate := &Climate{cfg: cfg, TemperatureC: 20, DaysSinceRain: cfg.Crops.DroughtDays}
	crops.AdvanceDay(climate)
	p, _ := crops.Plot(1)
	if !p.Failed {
		t.Fatal("crop survived drought")
	}
}

func TestTendingRaisesYieldCapped(t *testing.T) {
	p := &CropPlot{TendCount: 4}
	if got := p.YieldMultiplier(); got != 1.2 {
		t.Fatalf("yield multiplier = %v, want 1.2", got)
	}
	p.TendCount = 100
	if got := p.YieldMultiplier(); got != 2 {
		t.Fatalf("capped multiplier = %v, want 2", got)
	}
}

func TestSuccessChanceClamped(t *testing.T) {
	cfg := config.Default()
	ag := testAgent(1)
	act := Catalog["gather_herbs"]
	low := act.SuccessChance(ag, cfg, 0, 1, 0.1)
	if low < 0.05 {
		t.Fatalf("success chance %v below floor", low)
	}
	strong := testAgent(2)
	strong.Skills.Gain("woodcutting", 1e6)
	chop := Catalog["chop_wood"]
	high := chop.SuccessChance(strong, cfg, 1, 5, 1)
	if high > 0.95 {
		t.Fatalf("success chance %v above ceiling", high)
	}
}

func TestWeightedTraitScoreRange(t *testing.T) {
	weights := map[string]float64{"strength": 1}
	lo := weightedTraitScore(func(string) float64 { return 0 }, weights)
	hi := weightedTraitScore(func(string) float64 { return 100 }, weights)
	if lo != 0.5 || hi != 1.5 {
		t.Fatalf("trait score bounds = [%v, %v], want [0.5, 1.5]", lo, hi)
	}
}

func TestCandidatesAlwaysIncludeIdleLast(t *testing.T) {
	cfg, _, clock, climate, field, crops := testEnv(t, 3)
	ag := testAgent(1)
	ag.Fatigue = 1 // exhausted: nothing strenuous qualifies
	cands := CandidatesFor(ag, nil, crops, clock, climate, field, cfg)
	if len(cands) == 0 {
		t.Fatal("no candidates")
	}
	last := cands[len(cands)-1]
	if last.Activity.Name != IdleName {
		t.Fatalf("last candidate = %q, want idle", last.Activity.Name)
	}
	for _, c := range cands {
		if c.Activity.FatigueCost > 0 {
			t.Errorf("exhausted agent offered %q", c.Activity.Name)
		}
	}
}

func TestCandidatesRequireTools(t *testing.T) {
	cfg, _, clock, climate, field, crops := testEnv(t, 3)
	ag := testAgent(1)
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(200)}

	for _, c := range CandidatesFor(ag, fam, crops, clock, climate, field, cfg) {
		if len(c.Activity.RequiredTools) > 0 {
			t.Errorf("tool-less household offered %q", c.Activity.Name)
		}
	}

	fam.Inventory.Add(economy.NewStack(economy.WoodenSpear, 1, 1))
	found := false
	for _, c := range CandidatesFor(ag, fam, crops, clock, climate, field, cfg) {
		if c.Activity.Name == "hunt_small_game" {
			found = true
		}
	}
	if !found {
		t.Fatal("spear in stores but hunting not offered")
	}
}

func TestCandidatesRespectSeason(t *testing.T) {
	cfg, _, clock, climate, field, crops := testEnv(t, 3)
	clock.Day = cfg.Time.DaysPerSeason * 3 // winter
	ag := testAgent(1)
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(200)}
	fam.Inventory.Add(economy.NewStack(economy.Hoe, 1, 1))

	for _, c := range CandidatesFor(ag, fam, crops, clock, climate, field, cfg) {
		if c.Activity.Name == "farm_plant" {
			t.Fatal("planting offered in winter")
		}
	}
}

func TestCandidatesDeterministicOrder(t *testing.T) {
	cfg, _, clock, climate, field, crops := testEnv(t, 3)
	ag := testAgent(1)
	a := CandidatesFor(ag, nil, crops, clock, climate, field, cfg)
	b := CandidatesFor(ag, nil, crops, clock, climate, field, cfg)
	if len(a) != len(b) {
		t.Fatalf("candidate counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Activity.Name != b[i].Activity.Name {
			t.Fatalf("candidate %d differs: %q vs %q", i, a[i].Activity.Name, b[i].Activity.Name)
		}
	}
}

func TestApplyRestRecovers(t *testing.T) {
	cfg, rs, clock, climate, field, crops := testEnv(t, 3)
	e := NewExecutor(cfg, rs, clock, climate, field, crops)
	ag := testAgent(1)
	ag.Fatigue = 0.8
	ag.Needs.Reduce(needs.Rest, 50)

	before := ag.Needs.Level(needs.Rest)
	res := e.Apply(ag, Candidate{Activity: Catalog["rest"], BaseSuccess: 1}, nil, 1)
	if !res.Success {
		t.Fatal("rest failed")
	}
	if ag.Needs.Level(needs.Rest) <= before {
		t.Fatal("rest did not restore the rest need")
	}
	if ag.Fatigue >= 0.8 {
		t.Fatalf("fatigue unchanged: %v", ag.Fatigue)
	}
	if rs.Draws() != 0 {
		t.Fatalf("rest drew %d from the stream, want 0", rs.Draws())
	}
}

func TestApplyHarvestStoresInHousehold(t *testing.T) {
	cfg, rs, clock, climate, field, crops := testEnv(t, 3)
	e := NewExecutor(cfg, rs, clock, climate, field, crops)
	ag := testAgent(1)
	ag.Skills.Gain("foraging", 1e6) // near max skill
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(200)}

	node := &Node{Type: WildPlants, Abundance: 1000, Max: 1000}
	cand := Candidate{Activity: Catalog["gather_berries"], Node: node}

	got := false
	for i := 0; i < 50 && !got; i++ {
		res := e.Apply(ag, cand, fam, 1)
		if res.Success {
			got = true
			if res.Yield[economy.Berries] <= 0 {
				t.Fatal("successful gather yielded no berries")
			}
			if !fam.Inventory.Has(economy.Berries, res.Yield[economy.Berries]*0.99) {
				t.Fatal("yield not stored in household inventory")
			}
		}
	}
	if !got {
		t.Fatal("gather_berries never succeeded in 50 attempts at max skill")
	}
	if ag.Skills.XP["foraging"] <= 1e6 {
		t.Fatal("no experience gained")
	}
}

func TestApplyThinNodeScalesYield(t *testing.T) {
	cfg, rs, clock, climate, field, crops := testEnv(t, 3)
	e := NewExecutor(cfg, rs, clock, climate, field, crops)
	ag := testAgent(1)
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(200)}

	node := &Node{Type: WildPlants, Abundance: 0.5, Max: 1000}
	cand := Candidate{Activity: Catalog["gather_berries"], Node: node}
	for i := 0; i < 50; i++ {
		res := e.Apply(ag, cand, fam, 1)
		if res.Success {
			var total float64
			for _, q := range res.Yield {
				total += q
			}
			if total > 0.51 {
				t.Fatalf("yield %v exceeds node abundance", total)
			}
			return
		}
		node.Abundance = 0.5
	}
	t.Skip("no success in 50 attempts")
}

func TestApplyCookConvertsMeat(t *testing.T) {
	cfg, rs, clock, climate, field, crops := testEnv(t, 3)
	e := NewExecutor(cfg, rs, clock, climate, field, crops)
	ag := testAgent(1)
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(200)}
	fam.Inventory.Add(economy.NewStack(economy.RawMeat, 3, 0.8))
	fam.Inventory.Add(economy.NewStack(economy.StoneKnife, 1, 1))

	cand := Candidate{Activity: Catalog["cook_food"], ToolQuality: 1}
	for i := 0; i < 50; i++ {
		res := e.Apply(ag, cand, fam, 1)
		if res.Success {
			if fam.Inventory.TotalOf(economy.RawMeat) > 0.01 {
				t.Fatalf("raw meat left: %v", fam.Inventory.TotalOf(economy.RawMeat))
			}
			if !fam.Inventory.Has(economy.CookedMeat, 1) {
				t.Fatal("no cooked meat produced")
			}
			return
		}
		if fam.Inventory.TotalOf(economy.RawMeat) < 3 {
			fam.Inventory.Add(economy.NewStack(economy.RawMeat, 3-fam.Inventory.TotalOf(economy.RawMeat), 0.8))
		}
	}
	t.Fatal("cooking never succeeded in 50 attempts")
}

func TestApplyCraftToolConsumesMaterials(t *testing.T) {
	cfg, rs, clock, climate, field, crops := testEnv(t, 3)
	e := NewExecutor(cfg, rs, clock, climate, field, crops)
	ag := testAgent(1)
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(200)}

	cand := Candidate{Activity: Catalog["craft_tools"]}
	for i := 0; i < 80; i++ {
		fam.Inventory.Add(economy.NewStack(economy.Timber, 1, 0.5))
		fam.Inventory.Add(economy.NewStack(economy.Stone, 1, 0.5))
		res := e.Apply(ag, cand, fam, 1)
		if res.Success {
			if !fam.Inventory.HasToolType("axe") {
				t.Fatal("first crafted tool is not an axe")
			}
			if fam.Inventory.TotalOf(economy.Timber) > 0.01 {
				t.Fatal("timber not consumed")
			}
			return
		}
	}
	t.Fatal("crafting never succeeded in 80 attempts")
}

func TestApplyBuildShelterRaisesQuality(t *testing.T) {
	cfg, rs, clock, climate, field, crops := testEnv(t, 3)
	e := NewExecutor(cfg, rs, clock, climate, field, crops)
	ag := testAgent(1)
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(400), ShelterQuality: 0.2}
	fam.Inventory.Add(economy.NewStack(economy.StoneAxe, 1, 1))

	cand := Candidate{Activity: Catalog["build_shelter"], ToolQuality: 1}
	for i := 0; i < 80; i++ {
		fam.Inventory.Add(economy.NewStack(economy.Timber, 2, 0.5))
		res := e.Apply(ag, cand, fam, 1)
		if res.Success {
			if fam.ShelterQuality <= 0.2 {
				t.Fatal("shelter quality did not rise")
			}
			return
		}
	}
	t.Fatal("building never succeeded in 80 attempts")
}

func TestApplyWearsTools(t *testing.T) {
	cfg, rs, clock, climate, field, crops := testEnv(t, 3)
	e := NewExecutor(cfg, rs, clock, climate, field, crops)
	ag := testAgent(1)
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(200)}
	fam.Inventory.Add(economy.NewStack(economy.StoneAxe, 1, 1))
	full := economy.Catalog[economy.StoneAxe].MaxDurability

	node := field.Nearest(TimberStand, 0, 0)
	cand := Candidate{Activity: Catalog["chop_wood"], ToolQuality: 1, Node: node}
	e.Apply(ag, cand, fam, 1)

	tool := fam.Inventory.BestTool("axe")
	if tool == nil {
		t.Fatal("axe vanished")
	}
	if tool.Durability >= full {
		t.Fatalf("durability %v not reduced from %v", tool.Durability, full)
	}
}

func TestApplyFarmCycle(t *testing.T) {
	cfg, rs, clock, climate, field, crops := testEnv(t, 3)
	e := NewExecutor(cfg, rs, clock, climate, field, crops)
	ag := testAgent(1)
	fam := &social.Family{ID: 1, Inventory: economy.NewInventory(400)}

	plant := Candidate{Activity: Catalog["farm_plant"], ToolQuality: 1}
	for i := 0; i < 50; i++ {
		if e.Apply(ag, plant, fam, 1).Success {
			break
		}
	}
	p, ok := crops.Plot(fam.ID)
	if !ok {
		t.Fatal("plot never planted in 50 attempts")
	}
	p.GrowthDays = cfg.Crops.GrowthDays

	harvest := Candidate{Activity: Catalog["farm_harvest"], ToolQuality: 1}
	for i := 0; i < 50; i++ {
		res := e.Apply(ag, harvest, fam, 1)
		if res.Success {
			if !fam.Inventory.Has(economy.Grain, 1) {
				t.Fatal("harvest stored no grain")
			}
			if _, ok := crops.Plot(fam.ID); ok {
				t.Fatal("plot survived harvest")
			}
			return
		}
	}
	t.Fatal("harvest never succeeded in 50 attempts")
}

func TestYieldSkillScaling(t *testing.T) {
	cfg := config.Default()
	novice := testAgent(1)
	expert := testAgent(2)
	expert.Skills.Gain("foraging", 1e6)
	act := Catalog["gather_berries"]

	yn := act.Yield(novice, cfg, 0.5, 0)
	ye := act.Yield(expert, cfg, 0.5, 0)
	if ye[economy.Berries] <= yn[economy.Berries] {
		t.Fatalf("expert yield %v not above novice %v", ye[economy.Berries], yn[economy.Berries])
	}
	ratio := ye[economy.Berries] / yn[economy.Berries]
	if math.Abs(ratio-1.5) > 0.01 {
		t.Fatalf("max skill yield ratio = %v, want 1.5", ratio)
	}
}
