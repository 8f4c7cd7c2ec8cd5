package sink

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/oswinhale/steading/internal/metrics"
)

// ConsoleSummary accumulates the run and prints a human-readable recap when
// closed. It never prints per-day output.
type ConsoleSummary struct {
	w     io.Writer
	first *metrics.Snapshot
	last  *metrics.Snapshot

	births, deaths, marriages, trades int
	tradeVolume                       float64
	deathsBy                          map[string]int
}

// NewConsoleSummary writes the recap to w on Close.
func NewConsoleSummary(w io.Writer) *ConsoleSummary {
	return &ConsoleSummary{w: w, deathsBy: make(map[string]int)}
}

func (c *ConsoleSummary) WriteSnapshot(s metrics.Snapshot) error {
	if c.first == nil {
		snap := s
		c.first = &snap
	}
	snap := s
	c.last = &snap

	c.births += s.Births
	c.deaths += s.Deaths
	c.marriages += s.Marriages
	c.trades += s.Trades
	c.tradeVolume += s.TradeVolume
	for cause, n := range s.DeathsBy {
		c.deathsBy[cause] += n
	}
	return nil
}

// Close prints the recap.
func (c *ConsoleSummary) Close() error {
	if c.first == nil || c.last == nil {
		fmt.Fprintln(c.w, "no days simulated")
		return nil
	}
	days := c.last.Day - c.first.Day + 1
	fmt.Fprintf(c.w, "\n=== run summary ===\n")
	fmt.Fprintf(c.w, "days simulated:   %s\n", humanize.Comma(int64(days)))
	fmt.Fprintf(c.w, "population:       %s -> %s\n",
		humanize.Comma(int64(c.first.Population)), humanize.Comma(int64(c.last.Population)))
	fmt.Fprintf(c.w, "births:           %s\n", humanize.Comma(int64(c.births)))
	fmt.Fprintf(c.w, "deaths:           %s\n", humanize.Comma(int64(c.deaths)))
	for _, cn := range sortedCauses(c.deathsBy) {
		fmt.Fprintf(c.w, "  %-15s %s\n", cn.cause+":", humanize.Comma(int64(cn.n)))
	}
	fmt.Fprintf(c.w, "marriages:        %s\n", humanize.Comma(int64(c.marriages)))
	fmt.Fprintf(c.w, "trades:           %s (volume %s)\n",
		humanize.Comma(int64(c.trades)), humanize.FtoaWithDigits(c.tradeVolume, 1))
	fmt.Fprintf(c.w, "final wellbeing:  %s\n", humanize.FtoaWithDigits(c.last.MeanWellbeing, 1))
	fmt.Fprintf(c.w, "final wealth gini: %s\n", humanize.FtoaWithDigits(c.last.WealthGini, 3))
	return nil
}

type causeCount struct {
	cause string
	n     int
}

func sortedCauses(m map[string]int) []causeCount {
	out := make([]causeCount, 0, len(m))
	for c, n := range m {
		out = append(out, causeCount{c, n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].cause < out[j].cause })
	return out
}
