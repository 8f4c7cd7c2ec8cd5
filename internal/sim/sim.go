// Package sim owns the daily tick: fourteen fixed phases, each committing
// before the next starts. One shared random stream drives every draw, agents
// are always visited in ascending ID order, and agent removal happens in
// exactly one phase, so a run is a pure function of (seed, config, days).
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/decision"
	"github.com/oswinhale/steading/internal/economy"
	"github.com/oswinhale/steading/internal/metrics"
	"github.com/oswinhale/steading/internal/needs"
	"github.com/oswinhale/steading/internal/rng"
	"github.com/oswinhale/steading/internal/sink"
	"github.com/oswinhale/steading/internal/social"
	"github.com/oswinhale/steading/internal/world"
)

// InvariantError reports a broken simulation invariant. Any phase returning
// one aborts the run; there is no checkpointing or recovery.
type InvariantError struct {
	Day     int
	Phase   string
	AgentID agent.ID
	Detail  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated on day %d, phase %s, agent %d: %s",
		e.Day, e.Phase, e.AgentID, e.Detail)
}

// Totals accumulates run-level counters for the end-of-run summary.
type Totals struct {
	Days        int
	Births      int
	Deaths      int
	Marriages   int
	Trades      int
	TradeVolume float64
}

// Simulation holds the whole world for one run.
type Simulation struct {
	cfg *config.Config
	rs  *rng.Stream
	log *slog.Logger

	clock      *world.Clock
	climate    *world.Climate
	field      *world.Field
	crops      *world.Crops
	exec       *world.Executor
	engine     *decision.Engine
	negotiator *economy.Negotiator
	graph      *social.Graph
	households *social.Households
	spawner    *agent.Spawner

	// agents stays sorted by ascending ID; IDs only grow, so appending
	// newborns preserves the order.
	agents []*agent.Agent
	byID   map[agent.ID]*agent.Agent

	out    sink.Sink // optional; nil means no emission
	totals Totals

	// scratch is rebuilt every day; entries for removed agents are dropped
	// the moment the lifecycle phase removes them.
	scratch dayScratch
}

type dayScratch struct {
	chosen     map[agent.ID]world.Candidate
	chosenName map[agent.ID]string
	parties    []*social.WorkParty
	socialized map[agent.ID]bool
	productive map[agent.ID]bool
	events     metrics.DayEvents
}

// New builds a simulation: spawns the founding population, forms the
// founding households and stocks them.
func New(cfg *config.Config, seed int64, out sink.Sink, log *slog.Logger) (*Simulation, error) {
	if log == nil {
		log = slog.Default()
	}
	rs := rng.New(seed)
	s := &Simulation{
		cfg:        cfg,
		rs:         rs,
		log:        log,
		clock:      world.NewClock(cfg),
		climate:    world.NewClimate(cfg, seed),
		field:      world.NewField(cfg, seed),
		crops:      world.NewCrops(cfg),
		graph:      social.NewGraph(cfg),
		households: social.NewHouseholds(cfg),
		spawner:    agent.NewSpawner(rs, cfg),
		byID:       make(map[agent.ID]*agent.Agent),
		out:        out,
	}
	s.exec = world.NewExecutor(cfg, rs, s.clock, s.climate, s.field, s.crops)
	s.engine = decision.New(cfg, rs)
	s.negotiator = economy.NewNegotiator(cfg, rs)

	pop, err := s.spawner.SpawnPopulation(cfg.Population.Initial)
	if err != nil {
		return nil, fmt.Errorf("spawn population: %w", err)
	}
	s.agents = pop
	for _, a := range pop {
		s.byID[a.ID] = a
	}
	s.foundHouseholds()
	return s, nil
}

// foundHouseholds pairs some founding adults into married couples, gives
// every adult a household, distributes children among them, and stocks the
// larders and tool racks.
func (s *Simulation) foundHouseholds() {
	cfg := s.cfg
	cx, cy := cfg.World.Width/2, cfg.World.Height/2

	var men, women, children []*agent.Agent
	for _, a := range s.agents {
		switch {
		case !a.IsAdult(cfg):
			children = append(children, a)
		case a.Sex == agent.SexMale:
			men = append(men, a)
		default:
			women = append(women, a)
		}
	}

	homeX := func() int { return cx + s.rs.IntnRange(-8, 8) }
	homeY := func() int { return cy + s.rs.IntnRange(-8, 8) }

	var families []*social.Family
	wi := 0
	for _, m := range men {
		if wi < len(women) && s.rs.Chance(0.6) {
			w := women[wi]
			wi++
			f := s.households.Create([]*agent.Agent{m, w}, homeX(), homeY())
			m.SpouseID, w.SpouseID = w.ID, m.ID
			families = append(families, f)
			continue
		}
		families = append(families, s.households.Create([]*agent.Agent{m}, homeX(), homeY()))
	}
	for ; wi < len(women); wi++ {
		families = append(families, s.households.Create([]*agent.Agent{women[wi]}, homeX(), homeY()))
	}
	if len(families) == 0 {
		// Degenerate all-children population still needs a roof.
		families = append(families, s.households.Create(nil, homeX(), homeY()))
	}
	for i, c := range children {
		f := families[i%len(families)]
		f.AddMember(c.ID)
		c.FamilyID = f.ID
		c.X, c.Y = f.HomeX, f.HomeY
	}

	for _, f := range families {
		mouths := float64(len(f.MemberIDs))
		food := cfg.Population.StartingFoodDays * cfg.Population.DailyFoodNeed * mouths
		f.Inventory.Add(economy.NewStack(economy.Grain, food*0.7, 0.6))
		f.Inventory.Add(economy.NewStack(economy.DriedMeat, food*0.3/economy.Catalog[economy.DriedMeat].FoodValue, 0.6))
		if cfg.Population.StartingTools {
			for _, t := range []economy.ItemType{
				economy.StoneAxe, economy.StoneKnife, economy.WoodenSpear, economy.Hoe,
			} {
				f.Inventory.Add(economy.NewStack(t, 1, 0.6))
			}
		}
	}
}

// Run executes the given number of days.
func (s *Simulation) Run(days int) error {
	type phase struct {
		name string
		fn   func() *InvariantError
	}
	phases := []phase{
		{"EnvironmentUpdate", s.phaseEnvironment},
		{"DecisionSelection", s.phaseDecisions},
		{"WorkPartyFormation", s.phaseWorkParties},
		{"ActivityExecution", s.phaseActivities},
		{"ThirstResolution", s.phaseThirst},
		{"SocialInteraction", s.phaseSocial},
		{"Trade", s.phaseTrade},
		{"FamilyFoodDistribution", s.phaseFoodDistribution},
		{"NeedDecay", s.phaseNeedDecay},
		{"SentimentContagion", s.phaseContagion},
		{"Lifecycle", s.phaseLifecycle},
		{"InventoryPerish", s.phasePerish},
		{"InfrastructureDegradation", s.phaseInfrastructure},
		{"MetricsCapture", s.phaseMetrics},
	}

	for d := 0; d < days; d++ {
		s.scratch = dayScratch{
			chosen:     make(map[agent.ID]world.Candidate),
			chosenName: make(map[agent.ID]string),
			socialized: make(map[agent.ID]bool),
			productive: make(map[agent.ID]bool),
			events: metrics.DayEvents{
				DeathsBy:   make(map[string]int),
				Activities: make(map[string]int),
			},
		}
		for _, p := range phases {
			if err := p.fn(); err != nil {
				err.Day = s.clock.Day
				err.Phase = p.name
				return err
			}
		}
		s.totals.Days++
		s.clock.Advance()
		if len(s.agents) == 0 {
			s.log.Warn("population extinct", "day", s.clock.Day)
			return nil
		}
	}
	return nil
}

// Totals returns the cumulative run counters.
func (s *Simulation) Totals() Totals { return s.totals }

// Population returns the live agent count.
func (s *Simulation) Population() int { return len(s.agents) }

func (s *Simulation) family(a *agent.Agent) *social.Family {
	f, _ := s.households.Get(a.FamilyID)
	return f
}

// ---- phases ----

func (s *Simulation) phaseEnvironment() *InvariantError {
	s.climate.AdvanceDay(s.clock, s.rs)
	s.field.RegenerateDaily(s.clock.Season())
	s.crops.AdvanceDay(s.climate)
	return nil
}

func (s *Simulation) phaseDecisions() *InvariantError {
	for _, a := range s.agents {
		cands := world.CandidatesFor(a, s.family(a), s.crops, s.clock, s.climate, s.field, s.cfg)
		choice, err := s.engine.Choose(a, cands)
		if err != nil {
			return &InvariantError{AgentID: a.ID, Detail: err.Error()}
		}
		s.scratch.chosen[a.ID] = choice
		s.scratch.chosenName[a.ID] = choice.Activity.Name
	}
	return nil
}

func (s *Simulation) phaseWorkParties() *InvariantError {
	s.scratch.parties = social.FormWorkParties(
		s.agents,
		s.scratch.chosenName,
		func(name string) bool {
			act, ok := world.Catalog[name]
			return ok && act.GroupEligible()
		},
		s.graph,
		s.engine,
		s.cfg.Social.WorkPartyMaxSize,
	)
	// Recruits adopt their leader's plan.
	for _, p := range s.scratch.parties {
		leaderChoice := s.scratch.chosen[p.LeaderID]
		for _, mid := range p.MemberIDs {
			if mid != p.LeaderID {
				s.scratch.chosen[mid] = leaderChoice
			}
		}
	}
	return nil
}

func (s *Simulation) phaseActivities() *InvariantError {
	for _, a := range s.agents {
		choice, ok := s.scratch.chosen[a.ID]
		if !ok {
			return &InvariantError{AgentID: a.ID, Detail: "no chosen action in scratch"}
		}
		groupSize := 1
		if p := social.PartyFor(s.scratch.parties, a.ID); p != nil {
			groupSize = p.Size()
		}
		res := s.exec.Apply(a, choice, s.family(a), groupSize)
		s.scratch.events.Activities[res.Activity]++
		if res.Success && choice.Activity.XPCategory != "" {
			s.scratch.productive[a.ID] = true
		}
	}
	return nil
}

func (s *Simulation) phaseThirst() *InvariantError {
	radius := s.cfg.Water.ProximityRadius
	for _, a := range s.agents {
		if s.field.WaterWithin(a.X, a.Y, radius) {
			// Within reach of fresh water an agent simply drinks its fill.
			a.Needs.Satisfy(needs.Thirst, 100)
		} else {
			a.Needs.Satisfy(needs.Thirst, s.cfg.Water.AutoSatisfy)
		}
	}
	return nil
}

func (s *Simulation) phaseSocial() *InvariantError {
	day := s.clock.Day
	radius := s.cfg.World.SocialRadius
	for _, a := range s.agents {
		span := s.cfg.Social.MaxDailyContacts - s.cfg.Social.MinDailyContacts
		rounds := s.cfg.Social.MinDailyContacts + int(a.Traits.Sociability/100*float64(span))
		partners := s.nearby(a, radius, rounds)
		for _, b := range partners {
			// Empathic agents read the room; clumsy encounters sour.
			pGood := 0.75 + (a.Traits.Empathy-50)/400
			if s.rs.Chance(pGood) {
				s.graph.RecordPositive(a.ID, b.ID, day)
				a.Needs.Satisfy(needs.Social, 15)
				b.Needs.Satisfy(needs.Social, 10)
				s.scratch.socialized[a.ID] = true
				s.scratch.socialized[b.ID] = true
				s.teach(a, b)
			} else {
				s.graph.RecordNegative(a.ID, b.ID, day)
			}
		}
	}
	return nil
}

// teach passes a sliver of the actor's strongest skill to the partner.
func (s *Simulation) teach(a, b *agent.Agent) {
	bestCat := ""
	bestXP := 0.0
	cats := make([]string, 0, len(a.Skills.XP))
	for c := range a.Skills.XP {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		if a.Skills.XP[c] > bestXP {
			bestCat, bestXP = c, a.Skills.XP[c]
		}
	}
	if bestCat != "" && bestXP > b.Skills.XP[bestCat] {
		b.Skills.Gain(bestCat, 0.5)
	}
}

// nearby returns up to limit living agents within Manhattan radius of a,
// nearest first, ties broken by ID. The agent itself is excluded.
func (s *Simulation) nearby(a *agent.Agent, radius, limit int) []*agent.Agent {
	type cand struct {
		dist int
		ag   *agent.Agent
	}
	var pool []cand
	for _, b := range s.agents {
		if b.ID == a.ID {
			continue
		}
		d := iabs(a.X-b.X) + iabs(a.Y-b.Y)
		if d <= radius {
			pool = append(pool, cand{d, b})
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].dist != pool[j].dist {
			return pool[i].dist < pool[j].dist
		}
		return pool[i].ag.ID < pool[j].ag.ID
	})
	if len(pool) > limit {
		pool = pool[:limit]
	}
	out := make([]*agent.Agent, len(pool))
	for i, c := range pool {
		out[i] = c.ag
	}
	return out
}

func (s *Simulation) phaseTrade() *InvariantError {
	families := s.households.All()
	if len(families) < 2 {
		return nil
	}
	traded := make(map[uint64]bool)

	for _, f := range families {
		if traded[f.ID] {
			continue
		}
		head, ok := s.byID[f.HeadID]
		if !ok || !head.Alive {
			continue
		}
		willingness := s.cfg.Trade.WillingnessBase + (head.Traits.Sociability-50)/200
		if !s.rs.Chance(willingness) {
			continue
		}

		partner := s.trustedFamily(head, traded)
		if partner == nil {
			partner = s.nearestFamily(f, families, traded)
		}
		if partner == nil {
			continue
		}
		pHead, ok := s.byID[partner.HeadID]
		if !ok || !pHead.Alive {
			continue
		}

		proposer := s.tradeParty(head, f, pHead.ID)
		responder := s.tradeParty(pHead, partner, head.ID)
		result, offer := s.negotiator.Negotiate(proposer, responder)
		switch result {
		case economy.ResultAccepted:
			traded[f.ID], traded[partner.ID] = true, true
			s.scratch.events.Trades++
			s.scratch.events.TradeVolume += offer.Volume()
			s.graph.RecordPositive(head.ID, pHead.ID, s.clock.Day)
			s.graph.RecordPositive(pHead.ID, head.ID, s.clock.Day)
		case economy.ResultNoTrade:
			// A collapsed negotiation stings a little.
			e := s.graph.Edge(pHead.ID, head.ID)
			e.Trust = math.Max(-1, e.Trust-0.01)
		}
	}
	return nil
}

// trustedFamily picks the most familiar household among the head's trusted
// contacts. Trusted returns IDs in ascending order, so the scan is
// deterministic.
func (s *Simulation) trustedFamily(head *agent.Agent, traded map[uint64]bool) *social.Family {
	for _, cid := range s.graph.Trusted(head.ID, 0.2) {
		c, ok := s.byID[cid]
		if !ok || c.FamilyID == head.FamilyID {
			continue
		}
		f, ok := s.households.Get(c.FamilyID)
		if !ok || traded[f.ID] || f.HeadID != c.ID {
			continue
		}
		return f
	}
	return nil
}

// nearestFamily finds the closest other household that has not traded yet,
// ties broken by lower ID.
func (s *Simulation) nearestFamily(f *social.Family, all []*social.Family, traded map[uint64]bool) *social.Family {
	var best *social.Family
	bestDist := math.MaxInt32
	for _, g := range all {
		if g.ID == f.ID || traded[g.ID] {
			continue
		}
		d := iabs(f.HomeX-g.HomeX) + iabs(f.HomeY-g.HomeY)
		if d < bestDist {
			best, bestDist = g, d
		}
	}
	return best
}

// tradeParty assembles the economy view of one side of a negotiation.
func (s *Simulation) tradeParty(head *agent.Agent, f *social.Family, counterparty agent.ID) economy.Party {
	skills := make(map[string]float64, 4)
	for _, cat := range []string{"hunting", "fishing", "foraging", "farming"} {
		skills[cat] = head.SkillLevel(cat, s.cfg)
	}
	var trust, familiarity float64
	if e, ok := s.graph.Peek(head.ID, counterparty); ok {
		trust, familiarity = e.Trust, e.Familiarity
	}
	return economy.Party{
		ID: f.ID,
		View: economy.Viewpoint{
			Hunger:   head.Needs.Level(needs.Hunger),
			Warmth:   head.Needs.Level(needs.Warmth),
			Health:   head.Needs.Level(needs.Health),
			Ambition: head.Traits.Ambition,
			Skills:   skills,
		},
		Inv:           f.Inventory,
		Trust:         trust,
		Familiarity:   familiarity,
		Agreeableness: (head.Traits.Empathy + head.Traits.Sociability) / 200,
	}
}

func (s *Simulation) phaseFoodDistribution() *InvariantError {
	for _, f := range s.households.All() {
		f.DistributeFood(s.cfg, s.byID)
	}
	return nil
}

func (s *Simulation) phaseNeedDecay() *InvariantError {
	warmthMod := s.climate.WarmthDecayModifier()
	for _, a := range s.agents {
		shelter := 0.0
		if f := s.family(a); f != nil {
			shelter = f.ShelterQuality
		}
		a.Needs.Decay(s.cfg, needs.DecayModifiers{
			Warmth:         warmthMod,
			ShelterQuality: shelter,
			Socialized:     s.scratch.socialized[a.ID],
			Productive:     s.scratch.productive[a.ID],
		})

		hazard := 0.0
		if s.rs.Chance(s.cfg.Events.DiseaseProbability) {
			hazard += s.rs.Uniform(10, 30)
		}
		if s.rs.Chance(s.cfg.Events.PredatorProbability) {
			hazard += s.rs.Uniform(5, 25)
		}
		a.DailyUpdate(s.cfg, hazard)

		for _, n := range needs.All {
			lv := a.Needs.Level(n)
			if lv < 0 || lv > 100 {
				return &InvariantError{AgentID: a.ID,
					Detail: fmt.Sprintf("need %s out of bounds: %v", n, lv)}
			}
		}
	}
	return nil
}

func (s *Simulation) phaseContagion() *InvariantError {
	social.SpreadSentiment(s.cfg, s.agents, s.graph)
	return nil
}

func (s *Simulation) phaseLifecycle() *InvariantError {
	day := s.clock.Day

	// Mark deaths from terminal needs.
	for _, a := range s.agents {
		if n, terminal := a.Needs.Terminal(s.cfg); terminal && a.Alive {
			a.MarkDead(causeOf(n))
		}
	}

	// Births.
	for _, a := range s.agents {
		if !a.Alive || a.PregnantDays < s.cfg.Population.PregnancyDays {
			continue
		}
		fatherTraits := a.Traits
		if father, ok := s.byID[a.PartnerID]; ok {
			fatherTraits = father.Traits
		}
		child, err := s.spawner.SpawnChild(a, fatherTraits, day)
		if err != nil {
			return &InvariantError{AgentID: a.ID, Detail: fmt.Sprintf("spawn child: %v", err)}
		}
		a.PregnantDays = -1
		a.RecoveryDays = s.cfg.Population.BirthRecoveryDays
		if f := s.family(a); f != nil {
			f.AddMember(child.ID)
			child.FamilyID = f.ID
			child.X, child.Y = f.HomeX, f.HomeY
		}
		s.agents = append(s.agents, child)
		s.byID[child.ID] = child
		s.scratch.events.Births++
		s.totals.Births++
	}

	// Marriages: mutual affinity above the configured bar.
	for _, a := range s.agents {
		if !a.Alive || a.SpouseID != 0 || !a.IsAdult(s.cfg) {
			continue
		}
		for _, bid := range s.graph.Friends(a.ID, s.cfg.Social.MarriageMinAffinity) {
			b, ok := s.byID[bid]
			if !ok || !b.Alive || b.SpouseID != 0 || !b.IsAdult(s.cfg) || b.Sex == a.Sex {
				continue
			}
			if e, ok := s.graph.Peek(bid, a.ID); !ok || e.Affinity < s.cfg.Social.MarriageMinAffinity {
				continue
			}
			if !s.rs.Chance(0.25) {
				continue
			}
			s.marry(a, b)
			s.scratch.events.Marriages++
			s.totals.Marriages++
			break
		}
	}

	// Conception.
	for _, a := range s.agents {
		if !a.Alive || a.Sex != agent.SexFemale || a.SpouseID == 0 ||
			a.PregnantDays >= 0 || a.RecoveryDays > 0 || !a.IsFertile(s.cfg) {
			continue
		}
		spouse, ok := s.byID[a.SpouseID]
		if !ok || !spouse.Alive || !spouse.IsFertile(s.cfg) {
			continue
		}
		if s.rs.Chance(s.cfg.Population.ConceptionBaseRate) {
			a.PregnantDays = 0
			a.PartnerID = spouse.ID
		}
	}

	// Removal: the only place an agent leaves the world.
	var survivors []*agent.Agent
	for _, a := range s.agents {
		if a.Alive {
			survivors = append(survivors, a)
			continue
		}
		s.scratch.events.Deaths++
		s.scratch.events.DeathsBy[a.CauseOfDeath]++
		s.totals.Deaths++

		if spouse, ok := s.byID[a.SpouseID]; ok && spouse.SpouseID == a.ID {
			spouse.SpouseID = 0
		}
		famID := a.FamilyID
		s.households.RemoveAgent(a)
		if _, stillThere := s.households.Get(famID); !stillThere {
			s.crops.DropFamily(famID)
		}
		s.graph.Drop(a.ID)
		delete(s.byID, a.ID)
		delete(s.scratch.chosen, a.ID)
		delete(s.scratch.chosenName, a.ID)
		s.log.Debug("death", "agent", a.Name, "cause", a.CauseOfDeath, "age_years", a.AgeYears())
	}
	s.agents = survivors
	return nil
}

// marry merges the couple's households and drops the crop plot of any
// household the merge dissolved.
func (s *Simulation) marry(a, b *agent.Agent) {
	famA, famB := a.FamilyID, b.FamilyID
	s.households.Marry(a, b)
	for _, id := range []uint64{famA, famB} {
		if _, alive := s.households.Get(id); !alive {
			s.crops.DropFamily(id)
		}
	}
}

func causeOf(n needs.Need) string {
	switch n {
	case needs.Hunger:
		return "starvation"
	case needs.Thirst:
		return "dehydration"
	case needs.Rest:
		return "exhaustion"
	case needs.Health:
		return "illness"
	case needs.Warmth:
		return "exposure"
	}
	return "unknown"
}

func (s *Simulation) phasePerish() *InvariantError {
	for _, f := range s.households.All() {
		f.Inventory.DailyPerish()
	}
	return nil
}

func (s *Simulation) phaseInfrastructure() *InvariantError {
	storm := s.climate.Today == world.Storm
	for _, f := range s.households.All() {
		f.DegradeShelter(s.cfg, storm)
	}
	s.graph.DailyDecay(s.clock.Day)
	return nil
}

func (s *Simulation) phaseMetrics() *InvariantError {
	snap := metrics.Capture(
		s.cfg,
		s.clock.Day,
		s.clock.Season().String(),
		s.climate.Today.String(),
		s.climate.TemperatureC,
		s.agents,
		s.households,
		s.scratch.events,
	)
	s.totals.Trades += snap.Trades
	s.totals.TradeVolume += snap.TradeVolume

	if s.out != nil {
		if err := s.out.WriteSnapshot(snap); err != nil {
			s.log.Error("snapshot emission failed", "day", snap.Day, "error", err)
		}
	}
	s.log.Info("day complete",
		"day", snap.Day,
		"season", snap.Season,
		"weather", snap.Weather,
		"population", snap.Population,
		"births", snap.Births,
		"deaths", snap.Deaths,
		"trades", snap.Trades,
		"wellbeing", fmt.Sprintf("%.1f", snap.MeanWellbeing),
	)
	return nil
}

func iabs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
