package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thurmanmarka/astrocal"
	"github.com/thurmanmarka/astrocal/internal/config"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/output"
	"github.com/thurmanmarka/astrocal/internal/publish"
	"github.com/thurmanmarka/astrocal/internal/store"
)

var (
	genYears   []int
	genType    string
	genStore   bool
	genPublish bool
	genReport  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate calendar files for one or more years",
	Example: `  astrocal generate --year 2025
  astrocal generate --year 2025 --year 2026 --type major-transits --report
  astrocal generate --year 2025 --store --publish`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		categories, err := categoriesFor(genType)
		if err != nil {
			fatal("Error", err)
		}
		if len(genYears) == 0 {
			genYears = []int{time.Now().UTC().Year()}
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, err := astrocal.New(cfg, astrocal.WithLogger(slog.Default()))
		if err != nil {
			fatal("Error initializing generator", err)
		}

		sk, err := openSinks(ctx, cfg)
		if err != nil {
			fatal("Error opening sinks", err)
		}
		defer sk.Close()

		j := newJob(g, output.NewWriter(cfg.OutputDir), sk)
		slog.Info("generating", "run", g.RunID(), "years", genYears, "categories", categories, "output", cfg.OutputDir)

		var (
			rows   []output.Summary
			failed bool
		)
		for _, year := range genYears {
			for _, c := range categories {
				row := j.run(ctx, c, year)
				if row.Err != nil {
					failed = true
					slog.Error("generation failed", "year", year, "category", c, "err", row.Err)
				}
				rows = append(rows, row)
			}
		}

		if genReport {
			if err := output.Report(os.Stdout, g.RunID().String(), rows); err != nil {
				fatal("Error printing report", err)
			}
		}
		if failed {
			sk.Close()
			os.Exit(1)
		}
	},
}

func init() {
	generateCmd.Flags().IntSliceVar(&genYears, "year", nil, "Year to generate (repeatable; defaults to the current year)")
	generateCmd.Flags().StringVar(&genType, "type", "all", "all | positions | moon-phases | aspects | conjunctions | ingresses | major-transits | retrogrades | eclipses | curated")
	generateCmd.Flags().BoolVar(&genStore, "store", false, "Save events to PostgreSQL")
	generateCmd.Flags().BoolVar(&genPublish, "publish", false, "Publish events to Kafka")
	generateCmd.Flags().BoolVar(&genReport, "report", false, "Print a summary report")
	rootCmd.AddCommand(generateCmd)
}

func categoriesFor(typ string) ([]string, error) {
	if typ == "all" {
		return astrocal.AllCategories, nil
	}
	if typ == astrocal.CategoryPositions || slices.Contains(output.Categories, typ) {
		return []string{typ}, nil
	}
	return nil, fmt.Errorf("%w: %q", output.ErrUnknownCategory, typ)
}

// sinks receive every generated event list besides the file tree.
type sinks struct {
	db  *store.DB
	pub *publish.Publisher
}

func openSinks(ctx context.Context, cfg *config.Config) (*sinks, error) {
	s := &sinks{}
	if genStore || cfg.Database.Enabled {
		db, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		s.db = db
	}
	if genPublish || cfg.Kafka.Enabled {
		s.pub = publish.New(publish.NewWriter(cfg.Kafka), slog.Default())
	}
	return s, nil
}

func (s *sinks) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.pub != nil {
		if err := s.pub.Close(); err != nil {
			slog.Warn("closing kafka writer", "err", err)
		}
	}
}

type job struct {
	g     *astrocal.Generator
	w     *output.Writer
	sinks *sinks

	// generated holds each year's event lists so curated can reuse them.
	generated map[int]map[string][]event.Event
}

func newJob(g *astrocal.Generator, w *output.Writer, sk *sinks) *job {
	return &job{g: g, w: w, sinks: sk, generated: make(map[int]map[string][]event.Event)}
}

func (j *job) run(ctx context.Context, category string, year int) output.Summary {
	start := time.Now()
	row := output.Summary{Year: year, Category: category}

	switch category {
	case astrocal.CategoryPositions:
		row.Path, row.Totals, row.Err = j.positions(ctx, year)
	case astrocal.CategoryCurated:
		row.Path, row.Totals, row.Err = j.curated(ctx, year)
	default:
		row.Path, row.Totals, row.Err = j.events(ctx, category, year)
	}

	row.Elapsed = time.Since(start)
	if row.Err == nil {
		slog.Info("generated", "year", year, "category", category, "events", row.Totals["total"], "path", row.Path, "elapsed", row.Elapsed)
	}
	return row
}

func (j *job) positions(ctx context.Context, year int) (string, map[string]int, error) {
	months, err := j.g.Positions(ctx, year)
	if err != nil {
		return "", nil, err
	}
	days := 0
	for _, m := range months {
		if _, err := j.w.WriteMonth(year, m); err != nil {
			return "", nil, err
		}
		days += len(m.Positions)
	}
	return filepath.Join(j.w.Dir(), output.DailyPositions), map[string]int{"total": days, "months": len(months)}, nil
}

func (j *job) curated(ctx context.Context, year int) (string, map[string]int, error) {
	doc, err := j.g.CuratedFrom(ctx, year, j.generated[year])
	if err != nil {
		return "", nil, err
	}
	path, err := j.w.WriteCurated(doc)
	if err != nil {
		return "", nil, err
	}
	totals := map[string]int{
		"moon_phases":  len(doc.MoonPhases),
		"eclipses":     len(doc.Eclipses),
		"retrogrades":  len(doc.Retrogrades),
		"major_events": len(doc.MajorEvents),
	}
	totals["total"] = totals["moon_phases"] + totals["eclipses"] + totals["retrogrades"] + totals["major_events"]
	return path, totals, nil
}

func (j *job) events(ctx context.Context, category string, year int) (string, map[string]int, error) {
	events, err := j.g.Events(ctx, category, year)
	if err != nil {
		return "", nil, err
	}
	if j.generated[year] == nil {
		j.generated[year] = make(map[string][]event.Event)
	}
	j.generated[year][category] = events

	f := j.g.YearFile(category, year, events)
	path, err := j.w.WriteYear(f)
	if err != nil {
		return "", nil, err
	}

	if err := j.sink(ctx, category, year, events); err != nil {
		return path, f.Metadata.Totals, err
	}
	return path, f.Metadata.Totals, nil
}

func (j *job) sink(ctx context.Context, category string, year int, events []event.Event) error {
	if db := j.sinks.db; db != nil {
		run := store.Run{
			ID:          j.g.RunID(),
			Year:        year,
			Category:    category,
			GeneratedAt: j.g.GeneratedAt(),
			Ephemeris:   j.g.Ephemeris(),
		}
		if err := db.SaveRun(ctx, run, events); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	if pub := j.sinks.pub; pub != nil {
		if err := pub.Publish(ctx, j.g.RunID(), events); err != nil {
			return err
		}
	}
	return nil
}
