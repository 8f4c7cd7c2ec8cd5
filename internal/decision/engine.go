// Package decision selects one action per agent per day. Selection is
// satisficing, not optimizing: candidates are scanned in a fixed order and
// the first good-enough one wins; only when nothing clears the bar does the
// global maximum decide.
package decision

import (
	"errors"
	"sort"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/needs"
	"github.com/oswinhale/steading/internal/rng"
	"github.com/oswinhale/steading/internal/world"
)

// ErrNoCandidates reports an empty candidate list with no idle fallback.
// Feasibility always offers idle, so seeing this means a wiring bug or a
// broken config and the orchestrator treats it as fatal.
var ErrNoCandidates = errors.New("decision: no feasible candidates")

// riskPenaltyScale converts an activity's danger into score units.
const riskPenaltyScale = 0.5

// Engine scores and picks candidates for every agent, sharing the run's
// stream so choices replay exactly.
type Engine struct {
	cfg *config.Config
	rs  *rng.Stream
}

// New creates a decision engine.
func New(cfg *config.Config, rs *rng.Stream) *Engine {
	return &Engine{cfg: cfg, rs: rs}
}

type scored struct {
	cand  world.Candidate
	score float64
}

// Choose picks exactly one candidate for the agent. Candidates are scored
// in activity-name order; noise draws follow that order, so two runs with
// the same stream state choose identically.
func (e *Engine) Choose(ag *agent.Agent, cands []world.Candidate) (world.Candidate, error) {
	if len(cands) == 0 {
		return world.Candidate{}, ErrNoCandidates
	}

	pool := e.survivalFilter(ag, cands)

	ordered := make([]world.Candidate, len(pool))
	copy(ordered, pool)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Activity.Name < ordered[j].Activity.Name
	})

	threshold := e.cfg.Decision.SatisficeThreshold * (0.7 + 0.6*ag.Traits.Ambition/100)

	all := make([]scored, 0, len(ordered))
	for _, c := range ordered {
		s := e.Score(ag, c)
		if s >= threshold {
			return c, nil
		}
		all = append(all, scored{cand: c, score: s})
	}

	// Nothing satisficed: take the global max, breaking exact ties by the
	// agent's ID over the name-ordered tied set.
	best := all[0].score
	for _, sc := range all[1:] {
		if sc.score > best {
			best = sc.score
		}
	}
	var tied []world.Candidate
	for _, sc := range all {
		if sc.score == best {
			tied = append(tied, sc.cand)
		}
	}
	return tied[int(ag.ID)%len(tied)], nil
}

// Score rates one candidate for one agent. Draws one noise sample from the
// stream per call.
func (e *Engine) Score(ag *agent.Agent, c world.Candidate) float64 {
	act := c.Activity

	// Most urgent need the activity addresses. Activities serving no need
	// still get a floor so an untroubled agent does something.
	urgency := 0.05
	for _, n := range act.Needs {
		if u := ag.Needs.Urgency(e.cfg, n); u > urgency {
			urgency = u
		}
	}

	s := urgency * c.BaseSuccess
	s -= act.Danger * (1.5 - ag.Traits.RiskTolerance/100) * riskPenaltyScale
	if act.Name == ag.LastActivity {
		s += e.cfg.Decision.HabitInertia
	}
	// Brighter agents judge their options with less noise.
	s += e.rs.NormFloat64() * e.cfg.Decision.NoiseScale * (1.5 - ag.Traits.Intelligence/100)
	return s
}

// survivalFilter restricts a vitality-critical agent to candidates that
// address one of its critical vitality needs. When nothing qualifies the
// full pool stands, so the agent is never left without options.
func (e *Engine) survivalFilter(ag *agent.Agent, cands []world.Candidate) []world.Candidate {
	if !ag.Needs.VitalityCritical(e.cfg) {
		return cands
	}
	critical := make(map[needs.Need]bool)
	for _, n := range needs.Vitality {
		if ag.Needs.Level(n) < e.cfg.Needs.SurvivalCritical {
			critical[n] = true
		}
	}
	var out []world.Candidate
	for _, c := range cands {
		for _, n := range c.Activity.Needs {
			if critical[n] {
				out = append(out, c)
				break
			}
		}
	}
	if len(out) == 0 {
		return cands
	}
	return out
}

// EvaluateCooperation decides whether a candidate joins a leader's work
// party. Deliberately noise-free: recruitment must not perturb the stream,
// and the same ask always gets the same answer.
func (e *Engine) EvaluateCooperation(candidate, leader *agent.Agent, activity string, trust float64) bool {
	if candidate.Fatigue >= e.cfg.Decision.FatigueStop {
		return false
	}
	if candidate.Needs.VitalityCritical(e.cfg) {
		return false
	}
	willingness := trust +
		(candidate.Traits.Sociability/100-0.5)*0.3 +
		(candidate.Traits.Empathy+candidate.Traits.Sociability)/200*0.2
	return willingness > 0.25
}
