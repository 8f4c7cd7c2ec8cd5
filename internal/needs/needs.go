// Package needs models the bounded, decaying need levels of an agent.
// Levels live on [0, 100] where 100 is fully satisfied; every mutation
// clamps before returning.
package needs

import (
	"math"

	"github.com/oswinhale/steading/internal/config"
)

// Need identifies one of the ten needs.
type Need int

const (
	Hunger Need = iota
	Thirst
	Rest
	Warmth
	Shelter
	Safety
	Health
	Social
	Purpose
	Comfort
	needCount
)

// All lists the needs in their fixed iteration order.
var All = []Need{Hunger, Thirst, Rest, Warmth, Shelter, Safety, Health, Social, Purpose, Comfort}

// Vitality lists the needs whose collapse kills an agent.
var Vitality = []Need{Hunger, Thirst, Rest, Health, Warmth}

var names = [needCount]string{
	"hunger", "thirst", "rest", "warmth", "shelter",
	"safety", "health", "social", "purpose", "comfort",
}

func (n Need) String() string {
	if n < 0 || n >= needCount {
		return "unknown"
	}
	return names[n]
}

// ByName resolves a config key to a Need. The second result is false for
// unknown names.
func ByName(name string) (Need, bool) {
	for i, s := range names {
		if s == name {
			return Need(i), true
		}
	}
	return 0, false
}

// exponentialCurve marks the needs whose urgency explodes near zero.
var exponentialCurve = [needCount]bool{
	Hunger: true, Thirst: true, Rest: true, Warmth: true, Health: true,
}

// State holds the current level of every need.
type State struct {
	Levels [needCount]float64 `json:"levels"`
}

// NewState returns a fresh state: everything satisfied except comfort,
// which starts at the midpoint.
func NewState() State {
	var s State
	for i := range s.Levels {
		s.Levels[i] = 100
	}
	s.Levels[Comfort] = 50
	return s
}

// Level returns the current level of a need.
func (s *State) Level(n Need) float64 { return s.Levels[n] }

// Satisfy raises a need by the given points, clamped to 100.
func (s *State) Satisfy(n Need, points float64) {
	s.Levels[n] = clamp(s.Levels[n] + points)
}

// Reduce lowers a need by the given points, clamped to 0.
func (s *State) Reduce(n Need, points float64) {
	s.Levels[n] = clamp(s.Levels[n] - points)
}

// DecayModifiers carries the situational inputs to a day's decay.
type DecayModifiers struct {
	// Warmth scales the warmth decay (cold weather raises it).
	Warmth float64
	// ShelterQuality in [0, 1] slows warmth and shelter decay.
	ShelterQuality float64
	// Socialized and Productive zero the social and purpose decay.
	Socialized bool
	Productive bool
}

// Decay applies one day of decay. Health never decays on its own; it only
// moves through injuries, illness and healing.
func (s *State) Decay(cfg *config.Config, mods DecayModifiers) {
	for _, n := range All {
		if n == Health {
			continue
		}
		rate := cfg.Needs.Decay[n.String()]
		mod := 1.0
		switch n {
		case Warmth:
			mod = mods.Warmth
			mod *= math.Max(0.3, 1-mods.ShelterQuality*0.7)
		case Shelter:
			mod = math.Max(0.1, 1-mods.ShelterQuality)
		case Social:
			if mods.Socialized {
				mod = 0
			}
		case Purpose:
			if mods.Productive {
				mod = 0
			}
		}
		s.Levels[n] = clamp(s.Levels[n] - rate*mod)
	}
}

// Urgency scores a need for decision making: weight times a deficit curve.
// Vitality needs and health ramp exponentially as the level approaches
// zero; the rest are linear. Strictly increasing in the deficit.
func (s *State) Urgency(cfg *config.Config, n Need) float64 {
	weight := cfg.Needs.Weights[n.String()]
	deficit := (100 - s.Levels[n]) / 100
	if exponentialCurve[n] {
		return weight * (math.Exp(deficit*3) - 1) / (math.E*math.E*math.E - 1)
	}
	return weight * deficit
}

// MostUrgent returns the need with the highest urgency. Ties resolve to the
// lower-indexed need so the answer never depends on iteration order.
func (s *State) MostUrgent(cfg *config.Config) Need {
	best := All[0]
	bestScore := s.Urgency(cfg, best)
	for _, n := range All[1:] {
		if score := s.Urgency(cfg, n); score > bestScore {
			best, bestScore = n, score
		}
	}
	return best
}

// VitalityCritical reports whether any vitality need has fallen below the
// survival-critical threshold.
func (s *State) VitalityCritical(cfg *config.Config) bool {
	for _, n := range Vitality {
		if s.Levels[n] < cfg.Needs.SurvivalCritical {
			return true
		}
	}
	return false
}

// Terminal returns the first vitality need at or below the terminal
// threshold, or false when the agent is viable.
func (s *State) Terminal(cfg *config.Config) (Need, bool) {
	for _, n := range Vitality {
		if s.Levels[n] <= cfg.Needs.TerminalThreshold {
			return n, true
		}
	}
	return 0, false
}

// Wellbeing is the weight-averaged satisfaction in [0, 1].
func (s *State) Wellbeing(cfg *config.Config) float64 {
	var total, weighted float64
	for _, n := range All {
		w := cfg.Needs.Weights[n.String()]
		total += w
		weighted += s.Levels[n] / 100 * w
	}
	if total == 0 {
		return 0.5
	}
	return weighted / total
}

func clamp(x float64) float64 {
	return math.Min(100, math.Max(0, x))
}
