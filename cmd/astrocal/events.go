package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thurmanmarka/astrocal"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

var (
	evYear int
	evType string
	evJSON bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print one category of events without writing files",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		g, err := astrocal.New(cfg, astrocal.WithLogger(slog.Default()))
		if err != nil {
			fatal("Error initializing generator", err)
		}

		events, err := g.Events(context.Background(), evType, evYear)
		if err != nil {
			fatal("Error scanning", err)
		}

		if evJSON {
			b, err := event.Marshal(events)
			if err != nil {
				fatal("Error encoding events", err)
			}
			os.Stdout.Write(b)
			fmt.Println()
			return
		}

		for _, e := range events {
			fmt.Printf("%s  %-11s %s\n", timeutil.FormatISO(e.When()), e.Kind(), describe(e))
		}
		fmt.Printf("\n%d events\n", len(events))
	},
}

func init() {
	eventsCmd.Flags().IntVar(&evYear, "year", time.Now().UTC().Year(), "Year to scan")
	eventsCmd.Flags().StringVar(&evType, "type", astrocal.CategoryMoonPhases, "moon-phases | aspects | conjunctions | ingresses | major-transits | retrogrades | eclipses")
	eventsCmd.Flags().BoolVar(&evJSON, "json", false, "Print events as a JSON array")
	rootCmd.AddCommand(eventsCmd)
}

// describe renders the kind-specific part of an event on one line.
func describe(e event.Event) string {
	switch v := e.(type) {
	case event.PhaseEvent:
		return fmt.Sprintf("%s Moon in %s %.2f°", v.Phase, v.Moon.Sign, v.Moon.Degree)
	case event.AspectEvent:
		return fmt.Sprintf("%s %s %s (orb %.2f°)", v.Body1, v.Symbol, v.Body2, v.Exactness)
	case event.ConjunctionEvent:
		return fmt.Sprintf("%s %s %s in %s %.2f°", v.Body1, v.Symbol, v.Body2, v.Position1.Sign, v.Position1.Degree)
	case event.IngressEvent:
		rx := ""
		if v.Retrograde {
			rx = " (retrograde)"
		}
		return fmt.Sprintf("%s %s -> %s%s", v.Body, v.FromSign, v.ToSign, rx)
	case event.StationEvent:
		return fmt.Sprintf("%s %s in %s %.2f°", v.Body, v.Station, v.Position.Sign, v.Position.Degree)
	case event.RetrogradePeriod:
		return fmt.Sprintf("%s retrograde until %s (%.1f days)", v.Body, timeutil.FormatISO(v.Direct.Time), v.DurationDays)
	case event.EclipseEvent:
		return v.Description
	default:
		return ""
	}
}
