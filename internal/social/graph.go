// Package social models the relationship network, family units, work
// parties and sentiment contagion.
package social

import (
	"math"
	"sort"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
)

// Edge is one agent's directed view of another. Trust and affinity live on
// [-1, 1], familiarity on [0, 1]. The reverse edge is a separate record and
// may differ: relationships are asymmetric.
type Edge struct {
	From agent.ID `json:"from"`
	To   agent.ID `json:"to"`

	Trust       float64 `json:"trust"`
	Affinity    float64 `json:"affinity"`
	Familiarity float64 `json:"familiarity"`

	Interactions    int `json:"interactions"`
	LastInteraction int `json:"last_interaction"` // day
}

type edgeKey struct {
	from, to agent.ID
}

// Graph holds all directed edges.
type Graph struct {
	cfg   *config.Config
	edges map[edgeKey]*Edge
}

// NewGraph creates an empty relationship graph.
func NewGraph(cfg *config.Config) *Graph {
	return &Graph{cfg: cfg, edges: make(map[edgeKey]*Edge)}
}

// Edge returns the directed edge from one agent to another, creating a
// neutral one on first contact.
func (g *Graph) Edge(from, to agent.ID) *Edge {
	k := edgeKey{from, to}
	e, ok := g.edges[k]
	if !ok {
		e = &Edge{From: from, To: to}
		g.edges[k] = e
	}
	return e
}

// Peek returns the edge without creating it.
func (g *Graph) Peek(from, to agent.ID) (*Edge, bool) {
	e, ok := g.edges[edgeKey{from, to}]
	return e, ok
}

// RecordPositive strengthens both directions of a positive interaction.
// The actor (who did the favor) gains more trust in the beneficiary's eyes
// than vice versa.
func (g *Graph) RecordPositive(actor, beneficiary agent.ID, day int) {
	fwd := g.Edge(beneficiary, actor) // beneficiary's view of the actor
	fwd.Trust = clampSigned(fwd.Trust + g.cfg.Social.TrustGainPositive)
	fwd.Affinity = clampSigned(fwd.Affinity + g.cfg.Social.TrustGainPositive*0.8)
	touch(fwd, day)

	rev := g.Edge(actor, beneficiary)
	rev.Trust = clampSigned(rev.Trust + g.cfg.Social.TrustGainPositive*0.5)
	rev.Affinity = clampSigned(rev.Affinity + g.cfg.Social.TrustGainPositive*0.4)
	touch(rev, day)
}

// RecordNegative damages the wronged party's view of the offender. The
// offender's own view barely moves.
func (g *Graph) RecordNegative(offender, wronged agent.ID, day int) {
	fwd := g.Edge(wronged, offender)
	fwd.Trust = clampSigned(fwd.Trust - g.cfg.Social.TrustLossNegative)
	fwd.Affinity = clampSigned(fwd.Affinity - g.cfg.Social.TrustLossNegative*0.6)
	touch(fwd, day)

	rev := g.Edge(offender, wronged)
	rev.Trust = clampSigned(rev.Trust - g.cfg.Social.TrustLossNegative*0.1)
	touch(rev, day)
}

func touch(e *Edge, day int) {
	e.Interactions++
	e.LastInteraction = day
	e.Familiarity = math.Min(1, e.Familiarity+0.05)
}

// DailyDecay drifts every edge toward zero when uncontacted.
func (g *Graph) DailyDecay(day int) {
	rate := g.cfg.Social.RelationshipDecay
	for _, k := range g.sortedKeys() {
		e := g.edges[k]
		if e.LastInteraction == day {
			continue
		}
		e.Trust -= sign(e.Trust) * rate
		e.Affinity -= sign(e.Affinity) * rate
		e.Familiarity = math.Max(0, e.Familiarity-rate)
	}
}

// Contacts returns the IDs this agent has edges toward, ascending.
func (g *Graph) Contacts(from agent.ID) []agent.ID {
	var out []agent.ID
	for k := range g.edges {
		if k.from == from {
			out = append(out, k.to)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Trusted returns contacts with at least the given trust, ascending by ID.
func (g *Graph) Trusted(from agent.ID, minTrust float64) []agent.ID {
	var out []agent.ID
	for _, to := range g.Contacts(from) {
		if g.edges[edgeKey{from, to}].Trust >= minTrust {
			out = append(out, to)
		}
	}
	return out
}

// Friends returns contacts with at least the given affinity, ascending.
func (g *Graph) Friends(from agent.ID, minAffinity float64) []agent.ID {
	var out []agent.ID
	for _, to := range g.Contacts(from) {
		if g.edges[edgeKey{from, to}].Affinity >= minAffinity {
			out = append(out, to)
		}
	}
	return out
}

// Drop removes every edge touching a removed agent.
func (g *Graph) Drop(id agent.ID) {
	for _, k := range g.sortedKeys() {
		if k.from == id || k.to == id {
			delete(g.edges, k)
		}
	}
}

// EdgeCount reports the number of directed edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

func (g *Graph) sortedKeys() []edgeKey {
	out := make([]edgeKey, 0, len(g.edges))
	for k := range g.edges {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].from != out[j].from {
			return out[i].from < out[j].from
		}
		return out[i].to < out[j].to
	})
	return out
}

func clampSigned(x float64) float64 {
	return math.Min(1, math.Max(-1, x))
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
