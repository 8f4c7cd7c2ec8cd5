// Package economy models items, inventories and bilateral barter. There is
// no money: value is subjective, computed per viewer from needs, holdings,
// personality and skill.
package economy

import "sort"

// ItemType names an entry in the catalog.
type ItemType string

// Foods.
const (
	Berries    ItemType = "berries"
	RawMeat    ItemType = "raw_meat"
	CookedMeat ItemType = "cooked_meat"
	DriedMeat  ItemType = "dried_meat"
	Grain      ItemType = "grain"
	Bread      ItemType = "bread"
	Fish       ItemType = "fish"
	DriedFish  ItemType = "dried_fish"
	Vegetables ItemType = "vegetables"
)

// Raw materials.
const (
	Timber     ItemType = "timber"
	Stone      ItemType = "stone"
	Clay       ItemType = "clay"
	IronOre    ItemType = "iron_ore"
	PlantFiber ItemType = "plant_fiber"
	AnimalHide ItemType = "animal_hide"
	Leather    ItemType = "tanned_leather"
	Firewood   ItemType = "firewood"
	Herbs      ItemType = "herbs"
)

// Tools.
const (
	StoneAxe    ItemType = "stone_axe"
	StoneKnife  ItemType = "stone_knife"
	WoodenSpear ItemType = "wooden_spear"
	FishingRod  ItemType = "fishing_rod"
	Bow         ItemType = "bow"
	Hoe         ItemType = "hoe"
	Hammer      ItemType = "hammer"
	Pickaxe     ItemType = "pickaxe"
)

// Crafted goods.
const (
	Rope     ItemType = "rope"
	Basket   ItemType = "basket"
	ClayPot  ItemType = "clay_pot"
	Cloth    ItemType = "cloth"
	Clothing ItemType = "clothing"
	Medicine ItemType = "medicine"
)

// Props holds the static properties of an item type. PerishDays of zero
// means the item never spoils.
type Props struct {
	WeightKg      float64
	PerishDays    int
	FoodValue     float64
	ToolType      string
	MaxDurability float64
	WarmthValue   float64
	HealValue     float64
}

// Catalog is the static item table. Static data only; per-stack state lives
// on Stack.
var Catalog = map[ItemType]Props{
	Berries:    {WeightKg: 0.5, PerishDays: 5, FoodValue: 0.5},
	RawMeat:    {WeightKg: 2.0, PerishDays: 3, FoodValue: 1.0},
	CookedMeat: {WeightKg: 1.5, PerishDays: 7, FoodValue: 1.5},
	DriedMeat:  {WeightKg: 1.0, PerishDays: 60, FoodValue: 1.2},
	Grain:      {WeightKg: 1.0, PerishDays: 180, FoodValue: 0.8},
	Bread:      {WeightKg: 0.5, PerishDays: 5, FoodValue: 1.0},
	Fish:       {WeightKg: 1.5, PerishDays: 2, FoodValue: 1.0},
	DriedFish:  {WeightKg: 0.8, PerishDays: 90, FoodValue: 1.0},
	Vegetables: {WeightKg: 1.0, PerishDays: 10, FoodValue: 0.5},

	Timber:     {WeightKg: 10},
	Stone:      {WeightKg: 15},
	Clay:       {WeightKg: 5},
	IronOre:    {WeightKg: 12},
	PlantFiber: {WeightKg: 0.5},
	AnimalHide: {WeightKg: 3, PerishDays: 30},
	Leather:    {WeightKg: 2},
	Firewood:   {WeightKg: 5},
	Herbs:      {WeightKg: 0.2, PerishDays: 20},

	StoneAxe:    {WeightKg: 2, ToolType: "axe", MaxDurability: 50},
	StoneKnife:  {WeightKg: 0.5, ToolType: "knife", MaxDurability: 40},
	WoodenSpear: {WeightKg: 2, ToolType: "spear", MaxDurability: 30},
	FishingRod:  {WeightKg: 1, ToolType: "fishing", MaxDurability: 40},
	Bow:         {WeightKg: 1.5, ToolType: "ranged", MaxDurability: 60},
	Hoe:         {WeightKg: 2.5, ToolType: "farming", MaxDurability: 50},
	Hammer:      {WeightKg: 3, ToolType: "construction", MaxDurability: 70},
	Pickaxe:     {WeightKg: 4, ToolType: "mining", MaxDurability: 60},

	Rope:     {WeightKg: 1},
	Basket:   {WeightKg: 0.5},
	ClayPot:  {WeightKg: 2},
	Cloth:    {WeightKg: 0.5},
	Clothing: {WeightKg: 1, WarmthValue: 0.3},
	Medicine: {WeightKg: 0.2, PerishDays: 30, HealValue: 0.3},
}

// AllItemTypes lists the catalog in a fixed sorted order. Every loop over
// item types goes through this or sortedItemKeys so nothing depends on map
// iteration order.
var AllItemTypes = func() []ItemType {
	out := make([]ItemType, 0, len(Catalog))
	for t := range Catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}()

// FoodTypes lists the item types with a food value, sorted.
var FoodTypes = func() []ItemType {
	var out []ItemType
	for _, t := range AllItemTypes {
		if Catalog[t].FoodValue > 0 {
			out = append(out, t)
		}
	}
	return out
}()

// IsFood reports whether the item type feeds anyone.
func IsFood(t ItemType) bool { return Catalog[t].FoodValue > 0 }

// IsTool reports whether the item type is a tool.
func IsTool(t ItemType) bool { return Catalog[t].ToolType != "" }

// ToolOfType returns the first catalog item providing the given tool type.
func ToolOfType(toolType string) (ItemType, bool) {
	for _, t := range AllItemTypes {
		if Catalog[t].ToolType == toolType {
			return t, true
		}
	}
	return "", false
}

func sortedItemKeys(m map[ItemType]float64) []ItemType {
	out := make([]ItemType, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
