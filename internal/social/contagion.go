package social

import (
	"math"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
)

// SpreadSentiment pulls each agent's sentiment toward the edge-weighted
// mean of nearby contacts' sentiment. Two passes: all deltas are computed
// against the morning values, then applied together, so no agent observes a
// half-updated neighbor.
func SpreadSentiment(cfg *config.Config, agents []*agent.Agent, g *Graph) {
	byID := make(map[agent.ID]*agent.Agent, len(agents))
	for _, a := range agents {
		if a.Alive {
			byID[a.ID] = a
		}
	}

	deltas := make(map[agent.ID]float64)
	for _, a := range agents {
		if !a.Alive {
			continue
		}
		var weighted, total float64
		for _, cid := range g.Contacts(a.ID) {
			other, ok := byID[cid]
			if !ok {
				continue
			}
			dist := abs(a.X-other.X) + abs(a.Y-other.Y)
			if dist > cfg.World.SocialRadius {
				continue
			}
			e := g.Edge(a.ID, cid)
			w := math.Max(0, e.Affinity+e.Trust) * e.Familiarity
			if w > 0 {
				weighted += other.Sentiment * w
				total += w
			}
		}
		if total <= 0 {
			continue
		}
		socialMean := weighted / total
		// Steadier temperaments resist the crowd. Patience and
		// conscientiousness stand in for emotional stability.
		stability := (a.Traits.Patience + a.Traits.Conscientiousness) / 200
		pull := cfg.Sentiment.ContagionRate * (1 - stability*0.7)
		delta := (socialMean - a.Sentiment) * pull
		delta *= 0.5 + 0.5*a.Traits.Sociability/100
		deltas[a.ID] = delta
	}

	for _, a := range agents {
		if d, ok := deltas[a.ID]; ok {
			a.Sentiment = clampSigned(a.Sentiment + d)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
