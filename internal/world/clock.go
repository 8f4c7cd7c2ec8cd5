// Package world provides the environment the agents act in: calendar,
// climate, resource field, crop plots and the activity catalog.
package world

import "github.com/oswinhale/steading/internal/config"

// Season of the year.
type Season int

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

var seasonNames = [...]string{"spring", "summer", "autumn", "winter"}

func (s Season) String() string { return seasonNames[s] }

// Clock tracks simulation time in whole days.
type Clock struct {
	cfg *config.Config
	Day int
}

// NewClock starts at day zero, the first day of spring.
func NewClock(cfg *config.Config) *Clock {
	return &Clock{cfg: cfg}
}

// Advance moves to the next day.
func (c *Clock) Advance() { c.Day++ }

// Season for the current day.
func (c *Clock) Season() Season {
	return Season(c.Day / c.cfg.Time.DaysPerSeason % 4)
}

// DayOfSeason is the zero-based day within the current season.
func (c *Clock) DayOfSeason() int {
	return c.Day % c.cfg.Time.DaysPerSeason
}

// Year is the zero-based year.
func (c *Clock) Year() int {
	return c.Day / (c.cfg.Time.DaysPerSeason * 4)
}

// DaylightHours for the current season, interpolated toward the next so the
// change is gradual rather than a step at the boundary.
func (c *Clock) DaylightHours() float64 {
	cur := c.cfg.Time.DaylightHours[c.Season()]
	next := c.cfg.Time.DaylightHours[(c.Season()+1)%4]
	frac := float64(c.DayOfSeason()) / float64(c.cfg.Time.DaysPerSeason)
	return cur + (next-cur)*frac
}
