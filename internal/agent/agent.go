// Package agent defines the simulated person: identity, traits, needs,
// skills and life state. Agents are iterated everywhere in ascending ID
// order; IDs are dense and issued in creation order.
package agent

import (
	"math"

	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/needs"
	"github.com/oswinhale/steading/internal/traits"
)

// ID identifies an agent for its whole life. IDs are never reused.
type ID uint64

// Sex of an agent.
type Sex uint8

const (
	SexFemale Sex = iota
	SexMale
)

func (s Sex) String() string {
	if s == SexMale {
		return "male"
	}
	return "female"
}

// Skills tracks experience per activity category. Levels are derived from
// XP and therefore monotone in it.
type Skills struct {
	XP map[string]float64 `json:"xp"`
}

// NewSkills returns an empty skill set.
func NewSkills() Skills {
	return Skills{XP: make(map[string]float64)}
}

// Gain adds experience to a category.
func (s *Skills) Gain(category string, xp float64) {
	if s.XP == nil {
		s.XP = make(map[string]float64)
	}
	s.XP[category] += xp
}

// Level converts accumulated XP to a 0-100 level with diminishing returns.
// Higher intelligence flattens the XP required for the same level.
func (s *Skills) Level(category string, intelligence float64, cfg *config.Config) float64 {
	xp := s.XP[category]
	if xp <= 0 {
		return 0
	}
	rate := cfg.Skills.LearningRate / (1 + cfg.Skills.IntelligenceBonus*intelligence/100)
	return 100 * (1 - math.Exp(-xp/rate))
}

// Agent is one simulated person. Traits never change after creation; needs,
// skills and social state evolve daily.
type Agent struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Sex  Sex    `json:"sex"`

	AgeDays int `json:"age_days"`
	BornDay int `json:"born_day"`

	Traits traits.Vector `json:"traits"`
	Needs  needs.State   `json:"needs"`
	Skills Skills        `json:"skills"`

	// Fatigue in [0, 1]; past the configured stop threshold the agent
	// cannot take on strenuous work.
	Fatigue float64 `json:"fatigue"`
	// Sentiment in [-1, 1], pulled daily toward the optimism baseline and
	// pushed around by contagion.
	Sentiment float64 `json:"sentiment"`

	X, Y int `json:"-"`

	FamilyID uint64 `json:"family_id"`
	SpouseID ID     `json:"spouse_id"` // zero when unmarried

	PregnantDays int `json:"pregnant_days"` // -1 when not pregnant
	PartnerID    ID  `json:"partner_id"`    // father of the current pregnancy
	RecoveryDays int `json:"recovery_days"`

	Alive        bool   `json:"alive"`
	CauseOfDeath string `json:"cause_of_death,omitempty"`

	// Yesterday's activity name, for habit inertia in scoring.
	LastActivity string `json:"last_activity"`
}

// AgeYears returns age in whole years (360-day years).
func (a *Agent) AgeYears() int { return a.AgeDays / 360 }

// IsAdult reports whether the agent has reached maturity.
func (a *Agent) IsAdult(cfg *config.Config) bool {
	return a.AgeYears() >= cfg.Population.MaturityAgeYears
}

// IsFertile reports whether the agent can conceive or father a child.
func (a *Agent) IsFertile(cfg *config.Config) bool {
	y := a.AgeYears()
	return y >= cfg.Population.FertilityMinYears && y <= cfg.Population.FertilityMaxYears
}

// SkillLevel is a convenience wrapper binding the agent's intelligence.
func (a *Agent) SkillLevel(category string, cfg *config.Config) float64 {
	return a.Skills.Level(category, a.Traits.Intelligence, cfg)
}

// AddFatigue accumulates fatigue, clamped to [0, 1].
func (a *Agent) AddFatigue(f float64) {
	a.Fatigue = clamp01(a.Fatigue + f)
}

// DailyUpdate advances age, drifts sentiment toward the optimism baseline,
// applies elder decline and pregnancy progress, and marks (never removes)
// deaths. Removal is the lifecycle phase's job.
func (a *Agent) DailyUpdate(cfg *config.Config, hazard float64) {
	a.AgeDays++

	baseline := (a.Traits.Optimism - 50) / 50
	a.Sentiment += (baseline - a.Sentiment) * cfg.Sentiment.BaselinePull
	a.Sentiment = clampSigned(a.Sentiment)

	// Sleep recovers most fatigue; chronic exhaustion lingers.
	a.Fatigue = clamp01(a.Fatigue * 0.35)

	if a.RecoveryDays > 0 {
		a.RecoveryDays--
	}
	if a.PregnantDays >= 0 {
		a.PregnantDays++
	}

	years := a.AgeYears()
	if years >= cfg.Population.ElderAgeYears {
		// Gradual decline: health erodes faster the further past the
		// elder threshold.
		over := float64(years - cfg.Population.ElderAgeYears + 1)
		a.Needs.Reduce(needs.Health, over*0.05)
	}
	if years >= cfg.Population.MaxAgeYears {
		a.MarkDead("old age")
		return
	}
	if hazard > 0 {
		a.Needs.Reduce(needs.Health, hazard)
	}
}

// MarkDead flags the agent for removal in the lifecycle phase.
func (a *Agent) MarkDead(cause string) {
	if !a.Alive {
		return
	}
	a.Alive = false
	a.CauseOfDeath = cause
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

func clampSigned(x float64) float64 {
	return math.Min(1, math.Max(-1, x))
}
