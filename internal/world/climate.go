package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/rng"
)

// Weather is the day's dominant condition.
type Weather int

const (
	Clear Weather = iota
	Rain
	Storm
	Snow
)

var weatherNames = [...]string{"clear", "rain", "storm", "snow"}

func (w Weather) String() string { return weatherNames[w] }

// Climate produces daily temperature and weather. Temperature comes from a
// seasonal baseline plus seeded noise, so it is a pure function of the run
// seed and the day; weather draws from the shared stream.
type Climate struct {
	cfg   *config.Config
	noise opensimplex.Noise

	TemperatureC float64
	Today        Weather
	// DaysSinceRain feeds drought tracking for crops.
	DaysSinceRain int
}

// NewClimate creates a climate generator from the run seed.
func NewClimate(cfg *config.Config, seed int64) *Climate {
	return &Climate{cfg: cfg, noise: opensimplex.New(seed + 1)}
}

var seasonalBaseC = [...]float64{10, 20, 11, -2}

// AdvanceDay computes the day's temperature and rolls the weather.
func (c *Climate) AdvanceDay(clock *Clock, rs *rng.Stream) {
	base := seasonalBaseC[clock.Season()]
	next := seasonalBaseC[(clock.Season()+1)%4]
	frac := float64(clock.DayOfSeason()) / float64(c.cfg.Time.DaysPerSeason)
	c.TemperatureC = base + (next-base)*frac + c.noise.Eval2(float64(clock.Day)*0.15, 0)*6

	switch {
	case rs.Chance(c.cfg.Events.StormProbability):
		c.Today = Storm
	case rs.Chance(0.25):
		if c.TemperatureC < 0 {
			c.Today = Snow
		} else {
			c.Today = Rain
		}
	default:
		c.Today = Clear
	}

	if c.Today == Rain || c.Today == Storm || c.Today == Snow {
		c.DaysSinceRain = 0
	} else {
		c.DaysSinceRain++
	}
}

// OutdoorModifier scales outdoor work success.
func (c *Climate) OutdoorModifier() float64 {
	switch c.Today {
	case Storm:
		return 0.5
	case Snow:
		return 0.7
	case Rain:
		return 0.85
	}
	return 1.0
}

// WarmthDecayModifier scales the warmth need's daily decay: cold days bite.
func (c *Climate) WarmthDecayModifier() float64 {
	switch {
	case c.TemperatureC < -10:
		return 3.0
	case c.TemperatureC < 0:
		return 2.0
	case c.TemperatureC < 10:
		return 1.3
	}
	return 1.0
}

// Frost reports whether crops freeze today.
func (c *Climate) Frost() bool {
	return c.TemperatureC < c.cfg.Crops.FrostThreshold
}
