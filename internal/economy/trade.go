package economy

import (
	"math"

	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/rng"
)

// Offer is a proposed bilateral trade: the proposer's goods against the
// responder's.
type Offer struct {
	ProposerID  uint64               `json:"proposer_id"`
	ResponderID uint64               `json:"responder_id"`
	Offering    map[ItemType]float64 `json:"offering"`   // proposer gives
	Requesting  map[ItemType]float64 `json:"requesting"` // responder gives
}

// Volume is the total quantity changing hands in both directions.
func (o *Offer) Volume() float64 {
	var v float64
	for _, q := range o.Offering {
		v += q
	}
	for _, q := range o.Requesting {
		v += q
	}
	return v
}

// Result classifies the end of a negotiation. A failed trade is an expected
// non-outcome, not an error.
type Result int

const (
	ResultNoTrade Result = iota
	ResultAccepted
	ResultNoOffer
)

// Party is one side of a negotiation: an identity, a subjective viewpoint,
// the inventory it trades out of, and its disposition toward the other
// party. Trust and familiarity are the directed edge values toward the
// counterparty; agreeableness is (empathy + sociability) / 200.
type Party struct {
	ID            uint64
	View          Viewpoint
	Inv           *Inventory
	Trust         float64
	Familiarity   float64
	Agreeableness float64
}

// Negotiator runs bounded counter-offer negotiations between two parties.
type Negotiator struct {
	cfg *config.Config
	rs  *rng.Stream
}

// NewNegotiator creates a negotiator over the shared run stream.
func NewNegotiator(cfg *config.Config, rs *rng.Stream) *Negotiator {
	return &Negotiator{cfg: cfg, rs: rs}
}

// EstimateInventory builds a noisy picture of a partner's holdings. The
// closer the relationship, the smaller the noise.
func (n *Negotiator) EstimateInventory(trust, familiarity float64, actual *Inventory) *Inventory {
	est := NewInventory(math.Inf(1))
	accuracy := math.Max(0.2, math.Min(0.9, (trust+familiarity)/2))
	noise := 1 - accuracy

	for _, t := range actual.sortedTypes() {
		total := actual.TotalOf(t)
		if total <= 0 {
			continue
		}
		noisy := total * (1 + n.rs.Uniform(-noise, noise))
		if noisy > 0.1 {
			est.Add(NewStack(t, noisy, 0.5))
		}
	}
	return est
}

// BuildOffer composes an opening offer from the proposer's surplus against
// an estimate of the partner's deficits. Returns nil when the proposer has
// nothing worth offering or nothing to ask for.
func (n *Negotiator) BuildOffer(proposer, partner Party, partnerEstimate *Inventory) *Offer {
	mySurplus := Surplus(n.cfg, proposer.Inv)
	if len(mySurplus) == 0 {
		return nil
	}
	partnerDeficits := Deficits(n.cfg, partner.View, partnerEstimate)

	offering := make(map[ItemType]float64)
	var offerValue float64
	for _, t := range sortedItemKeys(mySurplus) {
		want, ok := partnerDeficits[t]
		if !ok {
			continue
		}
		qty := math.Min(mySurplus[t], want)
		if qty > 0.01 {
			offering[t] = qty
			offerValue += SubjectiveValue(n.cfg, partner.View, t, qty, partnerEstimate)
		}
	}

	// No matched need: lead with the largest surplus anyway.
	if len(offering) == 0 {
		var best ItemType
		var bestQty float64
		for _, t := range sortedItemKeys(mySurplus) {
			if mySurplus[t] > bestQty {
				best, bestQty = t, mySurplus[t]
			}
		}
		qty := bestQty * 0.5
		if qty > 0.01 {
			offering[best] = qty
			offerValue += SubjectiveValue(n.cfg, partner.View, best, qty, partnerEstimate)
		}
	}
	if len(offering) == 0 || offerValue < 0.1 {
		return nil
	}

	requesting := make(map[ItemType]float64)
	var requestValue float64
	myDeficits := Deficits(n.cfg, proposer.View, proposer.Inv)
	for _, t := range sortedItemKeys(myDeficits) {
		estHeld := partnerEstimate.TotalOf(t)
		if estHeld <= 0 {
			continue
		}
		qty := math.Min(myDeficits[t], estHeld*0.5)
		if qty > 0.01 {
			requesting[t] = qty
			requestValue += SubjectiveValue(n.cfg, proposer.View, t, qty, proposer.Inv)
		}
	}

	// No deficit match: ask for a slice of the partner's surplus instead.
	if len(requesting) == 0 {
		partnerSurplus := Surplus(n.cfg, partnerEstimate)
		for _, t := range sortedItemKeys(partnerSurplus) {
			if _, offered := offering[t]; offered {
				continue
			}
			qty := partnerSurplus[t] * 0.3
			if qty > 0.01 {
				requesting[t] = qty
				requestValue += SubjectiveValue(n.cfg, proposer.View, t, qty, proposer.Inv)
				break
			}
		}
	}
	if len(requesting) == 0 {
		return nil
	}

	// Scale the request toward the offered value; ambitious proposers ask
	// for proportionally more. Upscaling is bounded by half of what the
	// partner seems to hold, without cutting an ask below its initial size.
	ambitionFactor := 1 + (proposer.View.Ambition-50)/100*n.cfg.Trade.PersonalityMargin
	if requestValue > 0 && offerValue > 0 {
		ratio := offerValue * ambitionFactor / requestValue
		for _, t := range sortedItemKeys(requesting) {
			ceiling := math.Max(requesting[t], partnerEstimate.TotalOf(t)*0.5)
			requesting[t] = math.Min(requesting[t]*ratio, ceiling)
		}
	}

	return &Offer{
		ProposerID:  proposer.ID,
		ResponderID: partner.ID,
		Offering:    offering,
		Requesting:  requesting,
	}
}

// AcceptanceRatio is the minimum received-to-given value ratio a party
// demands: 1 minus trust and agreeableness discounts, floored.
func (n *Negotiator) AcceptanceRatio(p Party) float64 {
	return math.Max(n.cfg.Trade.AcceptanceFloor,
		1-p.Trust*n.cfg.Trade.TrustWeight-p.Agreeableness*n.cfg.Trade.PersonalityMargin)
}

// EvaluateOffer decides whether the responder accepts: the subjective value
// of what it receives must reach its acceptance ratio times the value of
// what it gives.
func (n *Negotiator) EvaluateOffer(responder Party, offer *Offer) bool {
	var receive, give float64
	for _, t := range sortedItemKeys(offer.Offering) {
		receive += SubjectiveValue(n.cfg, responder.View, t, offer.Offering[t], responder.Inv)
	}
	for _, t := range sortedItemKeys(offer.Requesting) {
		give += SubjectiveValue(n.cfg, responder.View, t, offer.Requesting[t], responder.Inv)
	}
	if give <= 0 {
		return receive > 0
	}
	return receive/math.Max(0.01, give) >= n.AcceptanceRatio(responder)
}

// evaluateForProposer mirrors EvaluateOffer from the proposer's side of the
// same offer.
func (n *Negotiator) evaluateForProposer(proposer Party, offer *Offer) bool {
	var receive, give float64
	for _, t := range sortedItemKeys(offer.Requesting) {
		receive += SubjectiveValue(n.cfg, proposer.View, t, offer.Requesting[t], proposer.Inv)
	}
	for _, t := range sortedItemKeys(offer.Offering) {
		give += SubjectiveValue(n.cfg, proposer.View, t, offer.Offering[t], proposer.Inv)
	}
	if give <= 0 {
		return receive > 0
	}
	return receive/math.Max(0.01, give) >= n.AcceptanceRatio(proposer)
}

// counter trims the responder's side of a rejected offer: it agrees to give
// 20% less per round. The offering side is left alone so the proposer keeps
// some incentive.
func counter(offer *Offer) *Offer {
	next := &Offer{
		ProposerID:  offer.ProposerID,
		ResponderID: offer.ResponderID,
		Offering:    make(map[ItemType]float64, len(offer.Offering)),
		Requesting:  make(map[ItemType]float64, len(offer.Requesting)),
	}
	for t, q := range offer.Offering {
		next.Offering[t] = q
	}
	for t, q := range offer.Requesting {
		next.Requesting[t] = q * 0.8
	}
	return next
}

// Negotiate runs the full exchange: opening offer, bounded counter rounds,
// and atomic execution on agreement. The returned offer is the executed
// one, nil otherwise. Inventories are untouched unless the result is
// ResultAccepted.
func (n *Negotiator) Negotiate(proposer, responder Party) (Result, *Offer) {
	estimate := n.EstimateInventory(proposer.Trust, proposer.Familiarity, responder.Inv)
	offer := n.BuildOffer(proposer, responder, estimate)
	if offer == nil {
		return ResultNoOffer, nil
	}

	for round := 0; round < n.cfg.Trade.MaxRounds; round++ {
		if n.EvaluateOffer(responder, offer) && n.evaluateForProposer(proposer, offer) {
			if Execute(offer, proposer.Inv, responder.Inv) {
				return ResultAccepted, offer
			}
			// Estimate was wrong: the goods are not actually there.
			return ResultNoTrade, nil
		}
		offer = counter(offer)
	}
	return ResultNoTrade, nil
}

// Execute verifies both sides hold the promised goods and can absorb the
// incoming bundle once their outgoing goods are off the scale, then
// transfers both bundles. All-or-nothing: on any shortfall or capacity
// squeeze neither inventory changes and no goods are lost.
func Execute(offer *Offer, proposerInv, responderInv *Inventory) bool {
	for _, t := range sortedItemKeys(offer.Offering) {
		if proposerInv.TotalOf(t) < offer.Offering[t]*0.99 {
			return false
		}
	}
	for _, t := range sortedItemKeys(offer.Requesting) {
		if responderInv.TotalOf(t) < offer.Requesting[t]*0.99 {
			return false
		}
	}

	// The holdings check above tolerates a 1% shortfall, so count only 99%
	// of the outgoing bundle as freed space.
	inWeight, outWeight := bundleWeight(offer.Offering), bundleWeight(offer.Requesting)
	if inWeight-outWeight*0.99 > responderInv.CapacityKg-responderInv.TotalWeight()+1e-9 {
		return false
	}
	if outWeight-inWeight*0.99 > proposerInv.CapacityKg-proposerInv.TotalWeight()+1e-9 {
		return false
	}

	// Remove both bundles before adding either, so the freed capacity is
	// available to the goods coming the other way.
	var toResponder, toProposer []*Stack
	for _, t := range sortedItemKeys(offer.Offering) {
		if removed := proposerInv.Remove(t, offer.Offering[t]); removed != nil {
			toResponder = append(toResponder, removed)
		}
	}
	for _, t := range sortedItemKeys(offer.Requesting) {
		if removed := responderInv.Remove(t, offer.Requesting[t]); removed != nil {
			toProposer = append(toProposer, removed)
		}
	}
	for _, s := range toResponder {
		responderInv.Add(s)
	}
	for _, s := range toProposer {
		proposerInv.Add(s)
	}
	return true
}

func bundleWeight(bundle map[ItemType]float64) float64 {
	w := 0.0
	for t, q := range bundle {
		w += q * Catalog[t].WeightKg
	}
	return w
}
