package social

import (
	"sort"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/economy"
	"github.com/oswinhale/steading/internal/needs"
)

// Family is the basic economic unit: a shared inventory and a member list.
type Family struct {
	ID        uint64             `json:"id"`
	MemberIDs []agent.ID         `json:"member_ids"`
	HeadID    agent.ID           `json:"head_id"`
	Inventory *economy.Inventory `json:"inventory"`
	HomeX     int                `json:"home_x"`
	HomeY     int                `json:"home_y"`
	// ShelterQuality in [0, 1]; degrades daily and faster in storms.
	ShelterQuality float64 `json:"shelter_quality"`
}

// AddMember inserts an agent, keeping the list sorted by ID.
func (f *Family) AddMember(id agent.ID) {
	for _, m := range f.MemberIDs {
		if m == id {
			return
		}
	}
	f.MemberIDs = append(f.MemberIDs, id)
	sort.Slice(f.MemberIDs, func(i, j int) bool { return f.MemberIDs[i] < f.MemberIDs[j] })
}

// RemoveMember drops an agent; headship passes to the lowest surviving ID.
func (f *Family) RemoveMember(id agent.ID) {
	for i, m := range f.MemberIDs {
		if m == id {
			f.MemberIDs = append(f.MemberIDs[:i], f.MemberIDs[i+1:]...)
			break
		}
	}
	if f.HeadID == id && len(f.MemberIDs) > 0 {
		f.HeadID = f.MemberIDs[0]
	}
}

// Households manages all families.
type Households struct {
	cfg      *config.Config
	families map[uint64]*Family
	nextID   uint64
}

// NewHouseholds creates an empty household registry.
func NewHouseholds(cfg *config.Config) *Households {
	return &Households{cfg: cfg, families: make(map[uint64]*Family), nextID: 1}
}

// Create founds a family from the given members and assigns their FamilyID.
func (h *Households) Create(members []*agent.Agent, homeX, homeY int) *Family {
	f := &Family{
		ID:             h.nextID,
		Inventory:      economy.NewInventory(h.cfg.Inventory.FamilyCapacityKg),
		HomeX:          homeX,
		HomeY:          homeY,
		ShelterQuality: 0,
	}
	h.nextID++
	if h.cfg.Population.StartingShelters {
		f.ShelterQuality = 0.7
	}
	for _, a := range members {
		f.AddMember(a.ID)
		a.FamilyID = f.ID
		a.X, a.Y = homeX, homeY
	}
	if len(f.MemberIDs) > 0 {
		f.HeadID = f.MemberIDs[0]
	}
	h.families[f.ID] = f
	return f
}

// Get returns a family by ID.
func (h *Households) Get(id uint64) (*Family, bool) {
	f, ok := h.families[id]
	return f, ok
}

// All returns the families sorted by ID.
func (h *Households) All() []*Family {
	out := make([]*Family, 0, len(h.families))
	for _, f := range h.families {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Marry moves the spouse into the partner's family. Empty households are
// dissolved; the leaver's share of goods travels with them.
func (h *Households) Marry(a, b *agent.Agent) *Family {
	famA, okA := h.families[a.FamilyID]
	famB, okB := h.families[b.FamilyID]
	if !okA {
		return h.Create([]*agent.Agent{a, b}, b.X, b.Y)
	}
	if okB && famA.ID != famB.ID {
		famB.RemoveMember(b.ID)
		if len(famB.MemberIDs) == 0 {
			// Sole member: the whole household merges.
			for _, t := range economy.AllItemTypes {
				if qty := famB.Inventory.TotalOf(t); qty > 0 {
					if removed := famB.Inventory.Remove(t, qty); removed != nil {
						famA.Inventory.Add(removed)
					}
				}
			}
			delete(h.families, famB.ID)
		}
	}
	famA.AddMember(b.ID)
	b.FamilyID = famA.ID
	b.X, b.Y = famA.HomeX, famA.HomeY
	a.SpouseID, b.SpouseID = b.ID, a.ID
	return famA
}

// RemoveAgent drops a dead or departed agent from its family. A family with
// no members left is dissolved and its goods are lost with the homestead.
func (h *Households) RemoveAgent(a *agent.Agent) {
	f, ok := h.families[a.FamilyID]
	if !ok {
		return
	}
	f.RemoveMember(a.ID)
	if len(f.MemberIDs) == 0 {
		delete(h.families, f.ID)
	}
}

// DistributeFood feeds hungry members from the family stores, most
// perishable food first. Children count as half a mouth for need sizing.
func (f *Family) DistributeFood(cfg *config.Config, byID map[agent.ID]*agent.Agent) {
	foods := f.Inventory.FoodByPerishUrgency()
	if len(foods) == 0 {
		return
	}

	for _, mid := range f.MemberIDs {
		a, ok := byID[mid]
		if !ok || !a.Alive {
			continue
		}
		deficit := (100 - a.Needs.Level(needs.Hunger)) / 100
		if deficit <= 0.05 {
			continue
		}

		mouth := 1.0
		if !a.IsAdult(cfg) {
			mouth = 0.5
		}
		needed := deficit * cfg.Population.DailyFoodNeed * mouth
		var consumed float64
		for _, stack := range foods {
			fv := economy.Catalog[stack.Type].FoodValue
			if stack.Quantity <= 0 || fv <= 0 {
				continue
			}
			units := (needed - consumed) / fv
			if units > stack.Quantity {
				units = stack.Quantity
			}
			consumed += units * fv
			stack.Quantity -= units
			if consumed >= needed {
				break
			}
		}
		if consumed > 0 {
			a.Needs.Satisfy(needs.Hunger, consumed/(cfg.Population.DailyFoodNeed*mouth)*100)
		}
	}

	f.compactFood()
}

// compactFood removes stacks drained by distribution.
func (f *Family) compactFood() {
	for _, t := range economy.FoodTypes {
		stacks := f.Inventory.Stacks[t]
		if len(stacks) == 0 {
			continue
		}
		var kept []*economy.Stack
		for _, s := range stacks {
			if s.Quantity > 0.01 {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(f.Inventory.Stacks, t)
		} else {
			f.Inventory.Stacks[t] = kept
		}
	}
}

// DegradeShelter applies daily wear, multiplied during storms.
func (f *Family) DegradeShelter(cfg *config.Config, storm bool) {
	loss := cfg.Shelter.DailyDegradation
	if storm {
		loss *= cfg.Shelter.StormMultiplier
	}
	f.ShelterQuality -= loss
	if f.ShelterQuality < 0 {
		f.ShelterQuality = 0
	}
}
