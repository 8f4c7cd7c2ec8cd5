package world

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/oswinhale/steading/internal/config"
)

// ResourceType names a harvestable resource.
type ResourceType int

const (
	WildPlants ResourceType = iota
	GameSmall
	GameLarge
	FishStock
	TimberStand
	StoneOutcrop
	IronDeposit
	Farmland
	HerbPatch
	FreshWater
	resourceTypeCount
)

var resourceNames = [resourceTypeCount]string{
	"wild_plants", "game_small", "game_large", "fish", "timber",
	"stone", "iron_ore", "farmland", "herbs", "fresh_water",
}

func (r ResourceType) String() string { return resourceNames[r] }

// Node is one harvestable site. Abundance regenerates seasonally up to the
// node's maximum; iron never regrows.
type Node struct {
	ID        int          `json:"id"`
	Type      ResourceType `json:"type"`
	X, Y      int          `json:"-"`
	Abundance float64      `json:"abundance"`
	Max       float64      `json:"max"`
}

// Field is the resource landscape: a fixed set of nodes laid out by layered
// seeded noise. Pure function of the seed and config; generation draws
// nothing from the run stream.
type Field struct {
	cfg   *config.Config
	nodes []*Node
	// byType caches node indices per type, each slice ordered by node ID.
	byType [resourceTypeCount][]*Node
}

// NewField lays out the resource nodes. Two noise layers (elevation and
// moisture) shape placement; a third picks among the plausible types for
// each cell.
func NewField(cfg *config.Config, seed int64) *Field {
	f := &Field{cfg: cfg}
	elevation := opensimplex.New(seed + 2)
	moisture := opensimplex.New(seed + 3)
	variety := opensimplex.New(seed + 4)

	id := 0
	place := func(t ResourceType, x, y int, abundance float64) {
		n := &Node{ID: id, Type: t, X: x, Y: y, Abundance: abundance, Max: abundance}
		id++
		f.nodes = append(f.nodes, n)
		f.byType[t] = append(f.byType[t], n)
	}

	w, h := cfg.World.Width, cfg.World.Height
	target := cfg.World.ResourceNodeTarget
	// Sample the grid at a stride tuned so roughly the target number of
	// cells qualify.
	stride := int(math.Max(1, math.Sqrt(float64(w*h)/float64(target*3))))

	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			if len(f.nodes) >= target {
				break
			}
			e := elevation.Eval2(float64(x)*0.08, float64(y)*0.08)
			m := moisture.Eval2(float64(x)*0.08, float64(y)*0.08)
			v := variety.Eval2(float64(x)*0.31, float64(y)*0.31)

			switch {
			case e < -0.45:
				place(FreshWater, x, y, 1e9)
				if m > 0 {
					place(FishStock, x, y, 40+v*10)
				}
			case e > 0.5:
				if v > 0.2 {
					place(IronDeposit, x, y, 25+v*10)
				} else {
					place(StoneOutcrop, x, y, 60+v*20)
				}
			case m > 0.25:
				if v > 0 {
					place(TimberStand, x, y, 80+v*30)
				} else {
					place(WildPlants, x, y, 50+m*30)
				}
			case m > -0.1:
				switch {
				case v > 0.3:
					place(GameLarge, x, y, 15+v*10)
				case v > -0.2:
					place(GameSmall, x, y, 30+m*15)
				default:
					place(Farmland, x, y, 100)
				}
			default:
				if v > 0.4 {
					place(HerbPatch, x, y, 10+v*5)
				}
			}
		}
	}

	// A run must always be viable: guarantee at least one node of each
	// type near the village center.
	cx, cy := w/2, h/2
	for t := ResourceType(0); t < resourceTypeCount; t++ {
		if len(f.byType[t]) == 0 {
			abundance := 30.0
			if t == FreshWater {
				abundance = 1e9
			}
			place(t, cx+int(t), cy, abundance)
		}
	}
	return f
}

// NodesOf returns the nodes of a type, ordered by ID.
func (f *Field) NodesOf(t ResourceType) []*Node { return f.byType[t] }

// Nearest returns the closest non-depleted node of a type to a position,
// or nil. Distance ties resolve to the lower node ID.
func (f *Field) Nearest(t ResourceType, x, y int) *Node {
	var best *Node
	bestDist := math.MaxInt
	for _, n := range f.byType[t] {
		if n.Abundance <= 0.5 && t != FreshWater {
			continue
		}
		d := abs(n.X-x) + abs(n.Y-y)
		if d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// WaterWithin reports whether fresh water lies within radius of a position.
func (f *Field) WaterWithin(x, y, radius int) bool {
	for _, n := range f.byType[FreshWater] {
		if abs(n.X-x)+abs(n.Y-y) <= radius {
			return true
		}
	}
	return false
}

// Harvest draws up to amount from a node, returning what was taken.
func (f *Field) Harvest(n *Node, amount float64) float64 {
	if n.Type == FreshWater {
		return amount
	}
	take := math.Min(amount, n.Abundance)
	n.Abundance -= take
	return take
}

// RegenerateDaily regrows each node by its seasonal rate. Winter halts
// growth of living stock; iron never regrows.
func (f *Field) RegenerateDaily(season Season) {
	for _, n := range f.nodes {
		rate := f.regenRate(n.Type)
		if rate == 0 {
			continue
		}
		if season == Winter && n.Type != FishStock {
			continue
		}
		n.Abundance = math.Min(n.Max, n.Abundance+n.Max*rate)
	}
}

func (f *Field) regenRate(t ResourceType) float64 {
	switch t {
	case TimberStand:
		return f.cfg.Regen.Forest
	case FishStock:
		return f.cfg.Regen.Fish
	case WildPlants:
		return f.cfg.Regen.WildPlants
	case HerbPatch:
		return f.cfg.Regen.Herbs
	case GameSmall, GameLarge:
		return f.cfg.Regen.Game
	}
	return 0
}

// NodeCount reports total nodes, for diagnostics.
func (f *Field) NodeCount() int { return len(f.nodes) }

// Nodes returns all nodes ordered by ID.
func (f *Field) Nodes() []*Node {
	out := append([]*Node(nil), f.nodes...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
