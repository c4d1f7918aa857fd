package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thurmanmarka/astrocal"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
)

var todayTime string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show current positions, retrograde bodies and the surrounding lunar phases",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		t, err := parseInstant(todayTime, time.UTC)
		if err != nil {
			fatal(fmt.Sprintf("could not parse --time %q", todayTime), err)
		}

		g, err := astrocal.New(cfg, astrocal.WithLogger(slog.Default()))
		if err != nil {
			fatal("Error initializing generator", err)
		}

		sky, err := g.Sky(context.Background(), t)
		if err != nil {
			fatal("Error computing sky", err)
		}
		renderToday(os.Stdout, sky)
	},
}

func init() {
	todayCmd.Flags().StringVar(&todayTime, "time", "", "UTC instant in RFC3339 or 'YYYY-MM-DDTHH:MM' (defaults to now)")
	rootCmd.AddCommand(todayCmd)
}

var phaseTitles = map[string]string{
	"new":           "New Moon",
	"first_quarter": "First Quarter",
	"full":          "Full Moon",
	"last_quarter":  "Last Quarter",
}

func phaseTitle(p string) string {
	if s, ok := phaseTitles[p]; ok {
		return s
	}
	return p
}

func renderToday(w io.Writer, s astrocal.Sky) {
	rule := strings.Repeat("=", 60)
	section := func(title string) {
		fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, title, rule)
	}

	fmt.Fprintf(w, "Sky at %s\n", s.Time.Format("January 02, 2006 15:04:05 UTC"))

	section("POSITIONS")
	for _, e := range s.Positions {
		rx := ""
		if e.Position.Retrograde {
			rx = " Rx"
		}
		fmt.Fprintf(w, "%-10s %-12s %6.2f°%s\n", e.Body, e.Position.Sign, e.Position.DegreeInSign, rx)
	}

	section("MOON PHASE")
	fmt.Fprintf(w, "Now: %s, %.1f%% illuminated", s.Phase.Name, s.Phase.Fraction*100)
	if m, ok := s.Positions.Get(ephemeris.Moon); ok {
		fmt.Fprintf(w, ", Moon in %s %.2f°", m.Sign, m.DegreeInSign)
	}
	fmt.Fprintln(w)
	if p := s.Previous; p != nil {
		fmt.Fprintf(w, "Most recent: %s on %s (%d days ago), Moon in %s %.2f°\n",
			phaseTitle(p.Phase), phaseDate(p), s.DaysSince(), p.Moon.Sign, p.Moon.Degree)
	}
	if n := s.Next; n != nil {
		fmt.Fprintf(w, "Next: %s on %s (in %d days), Moon in %s %.2f°\n",
			phaseTitle(n.Phase), phaseDate(n), s.DaysUntil(), n.Moon.Sign, n.Moon.Degree)
	}
	if s.Previous != nil && s.Next != nil {
		fmt.Fprintf(w, "Progress to next phase: %.1f%%\n", s.Progress()*100)
	}

	if rx := s.Retrograde(); len(rx) > 0 {
		section("RETROGRADE")
		for _, e := range rx {
			fmt.Fprintf(w, "%s is retrograde in %s %.2f°\n", e.Body, e.Position.Sign, e.Position.DegreeInSign)
		}
	}
}

func phaseDate(p *event.PhaseEvent) string {
	return p.Time.Format("January 02, 2006 at 15:04 UTC")
}
