package agent

import (
	"fmt"

	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/needs"
	"github.com/oswinhale/steading/internal/rng"
	"github.com/oswinhale/steading/internal/traits"
)

// Spawner creates agents, drawing all randomness from the shared run
// stream and issuing dense IDs in creation order.
type Spawner struct {
	rs     *rng.Stream
	cfg    *config.Config
	nextID ID
}

// NewSpawner creates a spawner over the run stream.
func NewSpawner(rs *rng.Stream, cfg *config.Config) *Spawner {
	return &Spawner{rs: rs, cfg: cfg, nextID: 1}
}

// SpawnPopulation creates the initial population. Callers receive agents in
// ID order.
func (s *Spawner) SpawnPopulation(count int) ([]*Agent, error) {
	agents := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		a, err := s.spawnOne()
		if err != nil {
			return nil, fmt.Errorf("spawn agent %d: %w", i, err)
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func (s *Spawner) spawnOne() (*Agent, error) {
	id := s.nextID
	s.nextID++

	sex := SexFemale
	if s.rs.Chance(0.5) {
		sex = SexMale
	}

	tv, err := traits.Generate(s.rs, s.cfg, sex == SexMale)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		ID:           id,
		Name:         s.generateName(sex),
		Sex:          sex,
		AgeDays:      s.weightedAgeDays(),
		Traits:       tv,
		Needs:        s.startingNeeds(),
		Skills:       s.startingSkills(),
		Sentiment:    (tv.Optimism - 50) / 50,
		PregnantDays: -1,
		Alive:        true,
	}
	return a, nil
}

// SpawnChild creates a newborn from two parents.
func (s *Spawner) SpawnChild(mother *Agent, fatherTraits traits.Vector, day int) (*Agent, error) {
	id := s.nextID
	s.nextID++

	sex := SexFemale
	if s.rs.Chance(0.5) {
		sex = SexMale
	}

	tv := traits.Inherit(mother.Traits, fatherTraits, s.rs, s.cfg, sex == SexMale)

	a := &Agent{
		ID:           id,
		Name:         s.generateName(sex),
		Sex:          sex,
		AgeDays:      0,
		BornDay:      day,
		Traits:       tv,
		Needs:        s.startingNeeds(),
		Skills:       NewSkills(),
		Sentiment:    (tv.Optimism - 50) / 50,
		PregnantDays: -1,
		FamilyID:     mother.FamilyID,
		X:            mother.X,
		Y:            mother.Y,
		Alive:        true,
	}
	return a, nil
}

// weightedAgeDays draws a bell curve centered on 30 years, range 5-65.
func (s *Spawner) weightedAgeDays() int {
	years := 30 + s.rs.NormFloat64()*12
	if years < 5 {
		years = 5
	}
	if years > 65 {
		years = 65
	}
	return int(years * 360)
}

// startingNeeds seeds a mostly satisfied population so day one is about
// settling in, not triage.
func (s *Spawner) startingNeeds() needs.State {
	st := needs.NewState()
	st.Reduce(needs.Hunger, s.rs.Uniform(0, 20))
	st.Reduce(needs.Rest, s.rs.Uniform(0, 15))
	st.Satisfy(needs.Comfort, s.rs.Uniform(0, 20))
	return st
}

// startingSkills gives adults a head start in one or two crafts.
func (s *Spawner) startingSkills() Skills {
	sk := NewSkills()
	categories := []string{"foraging", "hunting", "fishing", "farming", "woodcutting", "crafting", "building", "mining"}
	primary := categories[s.rs.Intn(len(categories))]
	sk.Gain(primary, s.rs.Uniform(20, 60))
	if s.rs.Chance(0.5) {
		secondary := categories[s.rs.Intn(len(categories))]
		sk.Gain(secondary, s.rs.Uniform(5, 25))
	}
	return sk
}

func (s *Spawner) generateName(sex Sex) string {
	pool := femaleNames
	if sex == SexMale {
		pool = maleNames
	}
	first := pool[s.rs.Intn(len(pool))]
	last := lastNames[s.rs.Intn(len(lastNames))]
	return first + " " + last
}

// Name pools for procedural generation.
var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
	"Varen", "Wren", "Yorick", "Zander", "Arlen", "Beric", "Cade",
	"Dorian", "Edric", "Falk", "Gunnar", "Hugo", "Ivar", "Jorik",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
	"Willa", "Yara", "Zara", "Ava", "Birgit", "Cora", "Dagny",
	"Eira", "Fern", "Gwen", "Hilde", "Inga", "Johanna", "Katla",
}

var lastNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Frostborn", "Hearthstone", "Millward",
	"Copperfield", "Ravenmoor", "Silverdale", "Wolfsbane", "Stoneheart",
	"Deepwell", "Brightwater", "Oakenshield", "Redforge", "Windholm",
	"Marshwood", "Goldhaven", "Nightingale", "Riverstone", "Steelworth",
	"Embercroft", "Holloway", "Dawnridge", "Farrow", "Wyatt", "Thatcher",
	"Briar", "Caldwell", "Frost", "Harper", "Mercer", "Ward", "Cross",
}
