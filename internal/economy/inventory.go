package economy

import (
	"math"
	"sort"
)

// Stack is a quantity of one item type with shared quality and age. Tools
// carry durability; a tool at zero durability is broken and useless.
type Stack struct {
	Type       ItemType `json:"type"`
	Quantity   float64  `json:"quantity"`
	Quality    float64  `json:"quality"` // [0, 1]
	AgeDays    int      `json:"age_days"`
	Durability float64  `json:"durability"`
}

// NewStack creates a stack with full durability from the catalog.
func NewStack(t ItemType, quantity, quality float64) *Stack {
	return &Stack{
		Type:       t,
		Quantity:   quantity,
		Quality:    quality,
		Durability: Catalog[t].MaxDurability,
	}
}

// Spoiled reports whether a perishable stack has aged out.
func (s *Stack) Spoiled() bool {
	p := Catalog[s.Type].PerishDays
	return p > 0 && s.AgeDays >= p
}

// ToolQuality is the stack quality degraded by remaining durability.
func (s *Stack) ToolQuality() float64 {
	max := Catalog[s.Type].MaxDurability
	if max == 0 {
		return s.Quality
	}
	return s.Quality * (s.Durability / max)
}

// TotalWeight of the stack in kg.
func (s *Stack) TotalWeight() float64 {
	return s.Quantity * Catalog[s.Type].WeightKg
}

// Inventory is a weight-bounded container of stacks. Quantities never go
// negative; removal is oldest-first.
type Inventory struct {
	CapacityKg float64                `json:"capacity_kg"`
	Stacks     map[ItemType][]*Stack  `json:"stacks"`
}

// NewInventory creates an empty inventory with the given capacity.
func NewInventory(capacityKg float64) *Inventory {
	return &Inventory{
		CapacityKg: capacityKg,
		Stacks:     make(map[ItemType][]*Stack),
	}
}

// Add places a stack, merging into an existing stack of similar quality
// when possible. Over capacity it adds what fits and reports false when
// nothing (or only part) fit.
func (inv *Inventory) Add(s *Stack) bool {
	if s == nil || s.Quantity <= 0 {
		return false
	}
	full := true
	free := inv.CapacityKg - inv.TotalWeight()
	need := s.TotalWeight()
	if need > free {
		perUnit := Catalog[s.Type].WeightKg
		if perUnit <= 0 {
			perUnit = 1
		}
		addable := free / perUnit
		if addable < 0.01 {
			return false
		}
		s.Quantity = addable
		full = false
	}

	if !IsTool(s.Type) {
		for _, existing := range inv.Stacks[s.Type] {
			if math.Abs(existing.Quality-s.Quality) < 0.05 && existing.AgeDays == s.AgeDays {
				existing.Quantity += s.Quantity
				return full
			}
		}
	}
	inv.Stacks[s.Type] = append(inv.Stacks[s.Type], s)
	return full
}

// Remove takes quantity of an item type, oldest stacks first. Returns the
// removed goods as a single stack, or nil when nothing was held. Partial
// removal is possible; callers needing all-or-nothing check Has first.
func (inv *Inventory) Remove(t ItemType, quantity float64) *Stack {
	stacks := inv.Stacks[t]
	if len(stacks) == 0 || quantity <= 0 {
		return nil
	}
	sort.SliceStable(stacks, func(i, j int) bool { return stacks[i].AgeDays > stacks[j].AgeDays })

	var removed, qualitySum float64
	i := 0
	for removed < quantity && i < len(stacks) {
		st := stacks[i]
		take := math.Min(quantity-removed, st.Quantity)
		qualitySum += st.Quality * take
		removed += take
		st.Quantity -= take
		if st.Quantity <= 0.001 {
			i++
		}
	}
	remaining := stacks[i:]
	if len(remaining) == 0 {
		delete(inv.Stacks, t)
	} else {
		inv.Stacks[t] = remaining
	}

	if removed <= 0 {
		return nil
	}
	return &Stack{Type: t, Quantity: removed, Quality: qualitySum / removed}
}

// Has reports whether at least quantity of the item type is held.
func (inv *Inventory) Has(t ItemType, quantity float64) bool {
	return inv.TotalOf(t) >= quantity
}

// TotalOf sums the held quantity of an item type.
func (inv *Inventory) TotalOf(t ItemType) float64 {
	var total float64
	for _, s := range inv.Stacks[t] {
		total += s.Quantity
	}
	return total
}

// TotalWeight of everything held, in kg.
func (inv *Inventory) TotalWeight() float64 {
	var total float64
	for _, t := range inv.sortedTypes() {
		for _, s := range inv.Stacks[t] {
			total += s.TotalWeight()
		}
	}
	return total
}

// BestTool returns the highest-effective-quality working tool of a tool
// type, or nil.
func (inv *Inventory) BestTool(toolType string) *Stack {
	var best *Stack
	for _, t := range inv.sortedTypes() {
		if Catalog[t].ToolType != toolType {
			continue
		}
		for _, s := range inv.Stacks[t] {
			if s.Durability <= 0 {
				continue
			}
			if best == nil || s.ToolQuality() > best.ToolQuality() {
				best = s
			}
		}
	}
	return best
}

// HasToolType reports whether a working tool of the type is held.
func (inv *Inventory) HasToolType(toolType string) bool {
	return inv.BestTool(toolType) != nil
}

// DailyPerish ages every stack one day and drops the spoiled ones,
// returning the quantity lost per item type.
func (inv *Inventory) DailyPerish() map[ItemType]float64 {
	lost := make(map[ItemType]float64)
	for _, t := range inv.sortedTypes() {
		var surviving []*Stack
		for _, s := range inv.Stacks[t] {
			s.AgeDays++
			if s.Spoiled() {
				lost[t] += s.Quantity
				continue
			}
			surviving = append(surviving, s)
		}
		if len(surviving) == 0 {
			delete(inv.Stacks, t)
		} else {
			inv.Stacks[t] = surviving
		}
	}
	return lost
}

// TotalFoodValue sums quantity times food value over all food held.
func (inv *Inventory) TotalFoodValue() float64 {
	var total float64
	for _, t := range FoodTypes {
		for _, s := range inv.Stacks[t] {
			total += s.Quantity * Catalog[t].FoodValue
		}
	}
	return total
}

// FoodByPerishUrgency returns held food stacks, soonest-to-spoil first.
func (inv *Inventory) FoodByPerishUrgency() []*Stack {
	var out []*Stack
	for _, t := range FoodTypes {
		out = append(out, inv.Stacks[t]...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri := Catalog[out[i].Type].PerishDays - out[i].AgeDays
		rj := Catalog[out[j].Type].PerishDays - out[j].AgeDays
		if ri != rj {
			return ri < rj
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// sortedTypes returns the held item types in fixed order.
func (inv *Inventory) sortedTypes() []ItemType {
	out := make([]ItemType, 0, len(inv.Stacks))
	for t := range inv.Stacks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
