// Package metrics derives daily aggregate observations from simulation
// state. Observation only: nothing here mutates agents, households or the
// environment.
package metrics

import (
	"sort"

	"github.com/oswinhale/steading/internal/agent"
	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/social"
)

// Snapshot is one day's aggregate view, the unit every sink consumes.
type Snapshot struct {
	Day          int     `json:"day"`
	Season       string  `json:"season"`
	TemperatureC float64 `json:"temperature_c"`
	Weather      string  `json:"weather"`

	Population int `json:"population"`
	Adults     int `json:"adults"`
	Children   int `json:"children"`
	Families   int `json:"families"`

	Births    int            `json:"births"`
	Deaths    int            `json:"deaths"`
	Marriages int            `json:"marriages"`
	DeathsBy  map[string]int `json:"deaths_by,omitempty"`

	MeanWellbeing float64 `json:"mean_wellbeing"`
	MeanSentiment float64 `json:"mean_sentiment"`
	MeanShelter   float64 `json:"mean_shelter"`

	TotalFoodValue float64 `json:"total_food_value"`
	WealthGini     float64 `json:"wealth_gini"`

	Trades      int     `json:"trades"`
	TradeVolume float64 `json:"trade_volume"`

	Activities map[string]int `json:"activities"`
}

// DayEvents carries the orchestrator's per-day counters into the snapshot.
type DayEvents struct {
	Births      int
	Deaths      int
	Marriages   int
	DeathsBy    map[string]int
	Trades      int
	TradeVolume float64
	Activities  map[string]int
}

// Capture assembles the day's snapshot from live state. Agents arrive in
// ascending ID order; families are read through Households.All, so the
// snapshot is identical across replays.
func Capture(cfg *config.Config, day int, season, weather string, tempC float64, agents []*agent.Agent, hh *social.Households, ev DayEvents) Snapshot {
	s := Snapshot{
		Day:          day,
		Season:       season,
		TemperatureC: tempC,
		Weather:      weather,
		Births:       ev.Births,
		Deaths:       ev.Deaths,
		Marriages:    ev.Marriages,
		DeathsBy:     ev.DeathsBy,
		Trades:       ev.Trades,
		TradeVolume:  ev.TradeVolume,
		Activities:   ev.Activities,
	}

	var wellbeing, sentiment float64
	for _, a := range agents {
		if !a.Alive {
			continue
		}
		s.Population++
		if a.IsAdult(cfg) {
			s.Adults++
		} else {
			s.Children++
		}
		wellbeing += a.Needs.Wellbeing(cfg)
		sentiment += a.Sentiment
	}
	if s.Population > 0 {
		s.MeanWellbeing = wellbeing / float64(s.Population)
		s.MeanSentiment = sentiment / float64(s.Population)
	}

	families := hh.All()
	s.Families = len(families)
	wealth := make([]float64, 0, len(families))
	var shelter float64
	for _, f := range families {
		s.TotalFoodValue += f.Inventory.TotalFoodValue()
		wealth = append(wealth, f.Inventory.TotalWeight())
		shelter += f.ShelterQuality
	}
	if len(families) > 0 {
		s.MeanShelter = shelter / float64(len(families))
	}
	s.WealthGini = Gini(wealth)
	return s
}

// Gini computes the Gini coefficient of a set of non-negative values.
// Empty or all-zero input yields zero.
func Gini(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var cum, total float64
	for _, v := range sorted {
		total += v
	}
	if total == 0 {
		return 0
	}
	// G = (2*sum_i(i*x_i) - (n+1)*sum(x)) / (n*sum(x)), 1-based rank.
	n := float64(len(sorted))
	for i, v := range sorted {
		cum += float64(i+1) * v
	}
	return (2*cum - (n+1)*total) / (n * total)
}
