package world

import "github.com/oswinhale/steading/internal/config"

// CropPlot is one household's planted field. Growth runs on calendar days;
// frost or a long drought kills the crop.
type CropPlot struct {
	FamilyID   uint64 `json:"family_id"`
	PlantedDay int    `json:"planted_day"`
	GrowthDays int    `json:"growth_days"`
	TendCount  int    `json:"tend_count"`
	Failed     bool   `json:"failed"`
}

// Mature reports whether the crop is ready to harvest.
func (p *CropPlot) Mature(cfg *config.Config) bool {
	return !p.Failed && p.GrowthDays >= cfg.Crops.GrowthDays
}

// YieldMultiplier rewards tending, up to double yield.
func (p *CropPlot) YieldMultiplier() float64 {
	m := 1 + float64(p.TendCount)*0.05
	if m > 2 {
		m = 2
	}
	return m
}

// Crops tracks at most one plot per household.
type Crops struct {
	cfg   *config.Config
	plots map[uint64]*CropPlot
}

// NewCrops creates an empty crop registry.
func NewCrops(cfg *config.Config) *Crops {
	return &Crops{cfg: cfg, plots: make(map[uint64]*CropPlot)}
}

// Plant starts a plot for a household. Replanting over a failed plot is
// allowed; over a living one it is a no-op.
func (c *Crops) Plant(familyID uint64, day int) *CropPlot {
	if p, ok := c.plots[familyID]; ok && !p.Failed {
		return p
	}
	p := &CropPlot{FamilyID: familyID, PlantedDay: day}
	c.plots[familyID] = p
	return p
}

// Tend records a day of care on a household's plot.
func (c *Crops) Tend(familyID uint64) bool {
	p, ok := c.plots[familyID]
	if !ok || p.Failed {
		return false
	}
	p.TendCount++
	return true
}

// Plot returns a household's plot, if any.
func (c *Crops) Plot(familyID uint64) (*CropPlot, bool) {
	p, ok := c.plots[familyID]
	return p, ok
}

// Harvest removes and returns a mature plot.
func (c *Crops) Harvest(familyID uint64) (*CropPlot, bool) {
	p, ok := c.plots[familyID]
	if !ok || !p.Mature(c.cfg) {
		return nil, false
	}
	delete(c.plots, familyID)
	return p, true
}

// AdvanceDay grows every living plot and applies frost and drought kills.
func (c *Crops) AdvanceDay(climate *Climate) {
	for _, p := range c.plots {
		if p.Failed {
			continue
		}
		if climate.Frost() || climate.DaysSinceRain >= c.cfg.Crops.DroughtDays {
			p.Failed = true
			continue
		}
		p.GrowthDays++
	}
}

// DropFamily clears a dissolved household's plot.
func (c *Crops) DropFamily(familyID uint64) {
	delete(c.plots, familyID)
}
