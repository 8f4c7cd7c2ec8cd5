// Command steading runs a deterministic closed-population village simulation.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oswinhale/steading/internal/api"
	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/sim"
	"github.com/oswinhale/steading/internal/sink"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "steading",
		Short:         "deterministic village-population simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd())
	return root
}

func runCmd() *cobra.Command {
	var (
		seed       int64
		days       int
		population int
		configPath string
		outPath    string
		dbPath     string
		observe    string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a number of days and emit daily snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			if population > 0 {
				cfg.Population.Initial = population
			}

			runID := uuid.NewString()
			logger.Info("starting run",
				"run_id", runID,
				"seed", seed,
				"days", days,
				"population", cfg.Population.Initial,
			)

			var sinks []sink.Sink
			sinks = append(sinks, sink.NewConsoleSummary(os.Stdout))

			if outPath != "" {
				jw, err := sink.NewJSONLWriter(outPath)
				if err != nil {
					return err
				}
				sinks = append(sinks, jw)
			}

			var store *sink.SQLiteStore
			if dbPath != "" {
				st, err := sink.OpenSQLite(dbPath, runID, seed, days, cfg.Population.Initial)
				if err != nil {
					return err
				}
				store = st
				sinks = append(sinks, st)
			}

			if observe != "" {
				srv := api.NewServer(runID, seed, store)
				if err := srv.Start(observe); err != nil {
					return err
				}
				sinks = append(sinks, srv)
			}

			out := sink.NewMulti(sinks...)
			defer func() {
				if err := out.Close(); err != nil {
					logger.Warn("sink close", "error", err)
				}
			}()

			s, err := sim.New(cfg, seed, out, logger)
			if err != nil {
				return fmt.Errorf("build simulation: %w", err)
			}

			start := time.Now()
			if err := s.Run(days); err != nil {
				var inv *sim.InvariantError
				if errors.As(err, &inv) {
					logger.Error("run aborted",
						"day", inv.Day,
						"phase", inv.Phase,
						"agent", inv.AgentID,
						"detail", inv.Detail,
					)
				}
				return err
			}

			totals := s.Totals()
			logger.Info("run complete",
				"run_id", runID,
				"days", totals.Days,
				"population", s.Population(),
				"births", totals.Births,
				"deaths", totals.Deaths,
				"marriages", totals.Marriages,
				"trades", totals.Trades,
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed; identical seeds replay identical histories")
	cmd.Flags().IntVar(&days, "days", 365, "number of days to simulate")
	cmd.Flags().IntVar(&population, "population", 0, "founding population (overrides config)")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config overlay")
	cmd.Flags().StringVar(&outPath, "out", "", "write zstd-compressed JSONL snapshots to this path")
	cmd.Flags().StringVar(&dbPath, "db", "", "record run history in this sqlite database")
	cmd.Flags().StringVar(&observe, "observe", "", "serve live observation on this address (e.g. :8080)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")
	return cmd
}
