package economy

import (
	"testing"

	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/rng"
)

func neutralView() Viewpoint {
	return Viewpoint{Hunger: 80, Warmth: 80, Health: 90, Ambition: 50, Skills: map[string]float64{}}
}

func TestSubjectiveValueHungerMultiplier(t *testing.T) {
	cfg := config.Default()
	fed := neutralView()
	starving := neutralView()
	starving.Hunger = 5

	inv := NewInventory(100)
	if vFed, vHungry := SubjectiveValue(cfg, fed, Bread, 1, inv), SubjectiveValue(cfg, starving, Bread, 1, inv); vHungry <= vFed {
		t.Fatalf("bread worth %v to the starving vs %v to the fed", vHungry, vFed)
	}
}

func TestSubjectiveValueMissingTool(t *testing.T) {
	cfg := config.Default()
	vp := neutralView()

	bare := NewInventory(100)
	equipped := NewInventory(100)
	equipped.Add(NewStack(StoneAxe, 1, 0.8))

	without := SubjectiveValue(cfg, vp, StoneAxe, 1, bare)
	with := SubjectiveValue(cfg, vp, StoneAxe, 1, equipped)
	if without <= with {
		t.Fatalf("axe worth %v when lacking one vs %v when owning one", without, with)
	}
}

func TestSubjectiveValueDiminishesWithHoldings(t *testing.T) {
	cfg := config.Default()
	vp := neutralView()

	empty := NewInventory(100)
	stocked := NewInventory(1000)
	stocked.Add(NewStack(Grain, 50, 0.5))

	scarce := SubjectiveValue(cfg, vp, Grain, 1, empty)
	abundant := SubjectiveValue(cfg, vp, Grain, 1, stocked)
	if abundant >= scarce {
		t.Fatalf("grain worth %v when abundant vs %v when scarce", abundant, scarce)
	}
}

func TestSubjectiveValueSkillDiscount(t *testing.T) {
	cfg := config.Default()
	novice := neutralView()
	expert := neutralView()
	expert.Skills["fishing"] = 80

	inv := NewInventory(100)
	if vn, ve := SubjectiveValue(cfg, novice, Fish, 1, inv), SubjectiveValue(cfg, expert, Fish, 1, inv); ve >= vn {
		t.Fatalf("fish worth %v to expert angler vs %v to novice", ve, vn)
	}
}

func TestAcceptanceRatioBounds(t *testing.T) {
	cfg := config.Default()
	n := NewNegotiator(cfg, rng.New(1))

	stranger := Party{Trust: 0, Agreeableness: 0}
	if got := n.AcceptanceRatio(stranger); got != 1 {
		t.Fatalf("stranger ratio = %v, want 1", got)
	}
	friend := Party{Trust: 1, Agreeableness: 1}
	if got := n.AcceptanceRatio(friend); got != cfg.Trade.AcceptanceFloor {
		t.Fatalf("max-trust ratio = %v, want floor %v", got, cfg.Trade.AcceptanceFloor)
	}
}

// A hungry responder holding a spare axe faces a proposer offering ten
// grain for it. With strong mutual trust the swap is all-or-nothing.
func TestOfferSwapAtomically(t *testing.T) {
	cfg := config.Default()
	n := NewNegotiator(cfg, rng.New(42))

	proposerInv := NewInventory(500)
	proposerInv.Add(NewStack(Grain, 10, 0.5))
	responderInv := NewInventory(500)
	responderInv.Add(NewStack(StoneAxe, 1, 0.8))

	responder := Party{
		ID:            2,
		View:          Viewpoint{Hunger: 20, Warmth: 80, Health: 90, Ambition: 50, Skills: map[string]float64{}},
		Inv:           responderInv,
		Trust:         0.9,
		Familiarity:   0.9,
		Agreeableness: 0.6,
	}

	offer := &Offer{
		ProposerID:  1,
		ResponderID: 2,
		Offering:    map[ItemType]float64{Grain: 10},
		Requesting:  map[ItemType]float64{StoneAxe: 1},
	}

	if !n.EvaluateOffer(responder, offer) {
		t.Fatal("hungry trusting responder rejected ten grain for a spare axe")
	}
	if !Execute(offer, proposerInv, responderInv) {
		t.Fatal("execute failed with goods present on both sides")
	}

	if got := proposerInv.TotalOf(StoneAxe); got != 1 {
		t.Errorf("proposer axes = %v, want 1", got)
	}
	if got := proposerInv.TotalOf(Grain); got != 0 {
		t.Errorf("proposer grain = %v, want 0", got)
	}
	if got := responderInv.TotalOf(Grain); got != 10 {
		t.Errorf("responder grain = %v, want 10", got)
	}
	if got := responderInv.TotalOf(StoneAxe); got != 0 {
		t.Errorf("responder axes = %v, want 0", got)
	}
}

func TestExecuteRefusesShortfall(t *testing.T) {
	proposerInv := NewInventory(500)
	proposerInv.Add(NewStack(Grain, 4, 0.5)) // promised 10, holds 4
	responderInv := NewInventory(500)
	responderInv.Add(NewStack(StoneAxe, 1, 0.8))

	offer := &Offer{
		Offering:   map[ItemType]float64{Grain: 10},
		Requesting: map[ItemType]float64{StoneAxe: 1},
	}
	if Execute(offer, proposerInv, responderInv) {
		t.Fatal("executed a trade the proposer could not cover")
	}
	if proposerInv.TotalOf(Grain) != 4 || responderInv.TotalOf(StoneAxe) != 1 {
		t.Fatal("failed execute mutated an inventory")
	}
}

func TestNegotiateConservesGoods(t *testing.T) {
	cfg := config.Default()
	n := NewNegotiator(cfg, rng.New(11))

	proposerInv := NewInventory(500)
	proposerInv.Add(NewStack(Grain, 40, 0.5))
	responderInv := NewInventory(500)
	responderInv.Add(NewStack(DriedMeat, 20, 0.5))
	responderInv.Add(NewStack(StoneAxe, 2, 0.8))

	grainBefore := proposerInv.TotalOf(Grain) + responderInv.TotalOf(Grain)
	meatBefore := proposerInv.TotalOf(DriedMeat) + responderInv.TotalOf(DriedMeat)
	axesBefore := proposerInv.TotalOf(StoneAxe) + responderInv.TotalOf(StoneAxe)

	proposer := Party{ID: 1, View: neutralView(), Inv: proposerInv, Trust: 0.5, Familiarity: 0.5, Agreeableness: 0.5}
	responder := Party{ID: 2, View: neutralView(), Inv: responderInv, Trust: 0.5, Familiarity: 0.5, Agreeableness: 0.5}

	result, offer := n.Negotiate(proposer, responder)
	if result == ResultAccepted && offer == nil {
		t.Fatal("accepted with nil offer")
	}

	grainAfter := proposerInv.TotalOf(Grain) + responderInv.TotalOf(Grain)
	meatAfter := proposerInv.TotalOf(DriedMeat) + responderInv.TotalOf(DriedMeat)
	axesAfter := proposerInv.TotalOf(StoneAxe) + responderInv.TotalOf(StoneAxe)
	if grainBefore != grainAfter || meatBefore != meatAfter || axesBefore != axesAfter {
		t.Fatalf("negotiation created or destroyed goods: grain %v->%v meat %v->%v axes %v->%v",
			grainBefore, grainAfter, meatBefore, meatAfter, axesBefore, axesAfter)
	}
}

func TestNegotiateRoundCapLeavesInventoriesUntouched(t *testing.T) {
	cfg := config.Default()
	// Zero trust all around: acceptance ratios stay at 1 and a greedy
	// proposer keeps the deal unacceptable.
	n := NewNegotiator(cfg, rng.New(5))

	proposerInv := NewInventory(500)
	proposerInv.Add(NewStack(Timber, 20, 0.5))
	responderInv := NewInventory(500)
	responderInv.Add(NewStack(Stone, 20, 0.5))

	proposer := Party{ID: 1, View: neutralView(), Inv: proposerInv}
	responder := Party{ID: 2, View: neutralView(), Inv: responderInv}
	proposer.View.Ambition = 99

	result, _ := n.Negotiate(proposer, responder)
	if result == ResultAccepted {
		// Acceptable outcome for some draws, but then goods must balance.
		return
	}
	if proposerInv.TotalOf(Timber) != 20 || responderInv.TotalOf(Stone) != 20 {
		t.Fatal("failed negotiation mutated an inventory")
	}
}

func TestNegotiateDeterministic(t *testing.T) {
	cfg := config.Default()

	run := func(seed int64) (Result, float64, float64) {
		n := NewNegotiator(cfg, rng.New(seed))
		pInv := NewInventory(500)
		pInv.Add(NewStack(Grain, 40, 0.5))
		rInv := NewInventory(500)
		rInv.Add(NewStack(DriedFish, 25, 0.5))

		p := Party{ID: 1, View: neutralView(), Inv: pInv, Trust: 0.6, Familiarity: 0.6, Agreeableness: 0.5}
		r := Party{ID: 2, View: neutralView(), Inv: rInv, Trust: 0.6, Familiarity: 0.6, Agreeableness: 0.5}
		res, _ := n.Negotiate(p, r)
		return res, pInv.TotalOf(Grain), rInv.TotalOf(DriedFish)
	}

	r1, g1, f1 := run(99)
	r2, g2, f2 := run(99)
	if r1 != r2 || g1 != g2 || f1 != f2 {
		t.Fatalf("same-seed negotiations diverged: (%v %v %v) vs (%v %v %v)", r1, g1, f1, r2, g2, f2)
	}
}

func TestSurplusAndDeficits(t *testing.T) {
	cfg := config.Default()
	inv := NewInventory(1000)
	inv.Add(NewStack(Grain, 50, 0.5)) // far beyond 5 days of food
	inv.Add(NewStack(StoneAxe, 3, 0.8))
	inv.Add(NewStack(Stone, 2, 0.5)) // below raw-material reserve

	surplus := Surplus(cfg, inv)
	if surplus[Grain] <= 0 {
		t.Error("50 grain reported no surplus")
	}
	if surplus[StoneAxe] != 2 {
		t.Errorf("axe surplus = %v, want 2 (keep one)", surplus[StoneAxe])
	}
	if _, ok := surplus[Stone]; ok {
		t.Error("2 stone reported as surplus")
	}

	deficits := Deficits(cfg, neutralView(), NewInventory(100))
	if deficits[Grain] <= 0 {
		t.Error("empty larder reported no food deficit")
	}
	if deficits[StoneAxe] != 1 {
		t.Error("missing axe not reported")
	}
}

// A receiver at the edge of its weight capacity must not silently lose the
// incoming goods: the trade either fits once the outgoing bundle is off the
// scale, or it does not happen at all.
func TestExecuteConservesGoodsAtCapacity(t *testing.T) {
	offer := &Offer{
		ProposerID:  1,
		ResponderID: 2,
		Offering:    map[ItemType]float64{Grain: 10},
		Requesting:  map[ItemType]float64{StoneAxe: 1},
	}

	// 12 kg capacity, 11 kg held: the axe going out frees 2 kg, nowhere
	// near the 10 kg of grain coming in.
	proposerInv := NewInventory(500)
	proposerInv.Add(NewStack(Grain, 10, 0.5))
	crampedInv := NewInventory(12)
	crampedInv.Add(NewStack(StoneAxe, 1, 0.8))
	crampedInv.Add(NewStack(Grain, 9, 0.5))

	if Execute(offer, proposerInv, crampedInv) {
		t.Fatal("execute accepted a trade the receiver cannot absorb")
	}
	if got := proposerInv.TotalOf(Grain); got != 10 {
		t.Errorf("refused trade mutated proposer grain: %v, want 10", got)
	}
	if got := crampedInv.TotalOf(Grain); got != 9 {
		t.Errorf("refused trade mutated responder grain: %v, want 9", got)
	}
	if got := crampedInv.TotalOf(StoneAxe); got != 1 {
		t.Errorf("refused trade mutated responder axes: %v, want 1", got)
	}

	// 20 kg capacity: 9 kg free plus the 2 kg axe leaving covers the
	// incoming grain exactly once both bundles are in motion.
	tightInv := NewInventory(20)
	tightInv.Add(NewStack(StoneAxe, 1, 0.8))
	tightInv.Add(NewStack(Grain, 9, 0.5))

	if !Execute(offer, proposerInv, tightInv) {
		t.Fatal("execute refused a trade that fits net of the outgoing bundle")
	}
	if got := proposerInv.TotalOf(Grain) + tightInv.TotalOf(Grain); got != 19 {
		t.Errorf("grain not conserved: %v across both sides, want 19", got)
	}
	if got := proposerInv.TotalOf(StoneAxe); got != 1 {
		t.Errorf("proposer axes = %v, want 1", got)
	}
	if tightInv.TotalWeight() > tightInv.CapacityKg {
		t.Errorf("responder over capacity: %v kg in %v kg", tightInv.TotalWeight(), tightInv.CapacityKg)
	}
}

// An ambitious proposer's request scales with the offered value, bounded by
// half of what the partner is believed to hold.
func TestBuildOfferRequestScalesWithValueUpToEstimate(t *testing.T) {
	cfg := config.Default()
	n := NewNegotiator(cfg, rng.New(9))

	starving := neutralView()
	starving.Hunger = 5

	estimate := NewInventory(500)
	estimate.Add(NewStack(Fish, 20, 0.5))
	unscaled := Surplus(cfg, estimate)[Fish] * 0.3
	bound := estimate.TotalOf(Fish) * 0.5

	build := func(ambition float64) *Offer {
		inv := NewInventory(500)
		inv.Add(NewStack(Grain, 50, 0.5))
		view := neutralView()
		view.Ambition = ambition
		proposer := Party{ID: 1, View: view, Inv: inv}
		partner := Party{ID: 2, View: starving, Inv: estimate}
		return n.BuildOffer(proposer, partner, estimate)
	}

	eager, modest := build(90), build(10)
	if eager == nil || modest == nil {
		t.Fatal("no offer built against a fish surplus")
	}
	if eager.Requesting[Fish] <= unscaled {
		t.Errorf("high-value offer did not scale the request: %v <= %v", eager.Requesting[Fish], unscaled)
	}
	if eager.Requesting[Fish] > bound+1e-9 {
		t.Errorf("request %v exceeds half the estimated holdings %v", eager.Requesting[Fish], bound)
	}
	if eager.Requesting[Fish] < modest.Requesting[Fish] {
		t.Errorf("ambition lowered the request: %v vs %v", eager.Requesting[Fish], modest.Requesting[Fish])
	}
}
