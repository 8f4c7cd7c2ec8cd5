package social

import (
	"math"

	"github.com/oswinhale/steading/internal/agent"
)

// WorkParty is a one-day group formed around a leader's chosen activity.
type WorkParty struct {
	LeaderID  agent.ID   `json:"leader_id"`
	MemberIDs []agent.ID `json:"member_ids"` // includes the leader
	Activity  string     `json:"activity"`
}

// Size of the party.
func (p *WorkParty) Size() int { return len(p.MemberIDs) }

// GroupBonus is the success-probability multiplier from working together.
// Each extra member adds less than the last.
func (p *WorkParty) GroupBonus() float64 {
	bonus := 1.0
	for i := 1; i < len(p.MemberIDs); i++ {
		bonus += 0.15 * math.Pow(0.8, float64(i))
	}
	return bonus
}

// JoinEvaluator decides whether a candidate accepts a leader's recruitment
// for an activity. The decision engine provides the implementation; social
// only needs the answer.
type JoinEvaluator interface {
	EvaluateCooperation(candidate, leader *agent.Agent, activity string, trust float64) bool
}

// FormWorkParties builds the day's parties. Leaders are agents whose chosen
// activity is group-eligible, visited in ascending ID order; they recruit
// friends who accept, up to the size cap. An agent joins at most one party.
func FormWorkParties(
	agents []*agent.Agent,
	chosen map[agent.ID]string,
	groupEligible func(activity string) bool,
	g *Graph,
	eval JoinEvaluator,
	maxSize int,
) []*WorkParty {
	byID := make(map[agent.ID]*agent.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}

	assigned := make(map[agent.ID]bool)
	var parties []*WorkParty

	for _, leader := range agents {
		if !leader.Alive || assigned[leader.ID] {
			continue
		}
		activity := chosen[leader.ID]
		if activity == "" || !groupEligible(activity) {
			continue
		}

		party := &WorkParty{
			LeaderID:  leader.ID,
			MemberIDs: []agent.ID{leader.ID},
			Activity:  activity,
		}
		assigned[leader.ID] = true

		for _, fid := range g.Friends(leader.ID, 0.2) {
			if assigned[fid] {
				continue
			}
			cand, ok := byID[fid]
			if !ok || !cand.Alive {
				continue
			}
			trust := g.Edge(fid, leader.ID).Trust
			if !eval.EvaluateCooperation(cand, leader, activity, trust) {
				continue
			}
			party.MemberIDs = append(party.MemberIDs, fid)
			assigned[fid] = true
			chosen[fid] = activity
			if party.Size() >= maxSize {
				break
			}
		}

		if party.Size() > 1 {
			parties = append(parties, party)
		}
	}
	return parties
}

// PartyFor finds the party containing an agent, or nil.
func PartyFor(parties []*WorkParty, id agent.ID) *WorkParty {
	for _, p := range parties {
		for _, m := range p.MemberIDs {
			if m == id {
				return p
			}
		}
	}
	return nil
}
