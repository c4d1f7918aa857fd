package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thurmanmarka/astrocal"
)

var (
	phaseTZ   string
	phaseTime string
)

var phaseCmd = &cobra.Command{
	Use:   "phase",
	Short: "Show the Moon's phase and illumination at an instant",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		loc, err := time.LoadLocation(phaseTZ)
		if err != nil {
			fatal(fmt.Sprintf("invalid time zone %q", phaseTZ), err)
		}

		tLocal, err := parseInstant(phaseTime, loc)
		if err != nil {
			fatal(fmt.Sprintf("could not parse --time %q", phaseTime), err)
		}

		phase := astrocal.MoonPhaseAt(tLocal)

		fmt.Printf("Moon phase at %s (%s)\n", phase.Time.Format(time.RFC3339), loc.String())
		fmt.Printf("  Name       : %s\n", phase.Name)
		fmt.Printf("  Fraction   : %.3f (%.1f%% illuminated)\n", phase.Fraction, phase.Fraction*100)
		fmt.Printf("  Elongation : %.2f°\n", phase.Elongation)
		if phase.Waxing {
			fmt.Printf("  Trend      : Waxing (illumination increasing)\n")
		} else {
			fmt.Printf("  Trend      : Waning (illumination decreasing)\n")
		}
	},
}

func init() {
	phaseCmd.Flags().StringVar(&phaseTZ, "tz", "UTC", "IANA time zone name (e.g. America/Phoenix)")
	phaseCmd.Flags().StringVar(&phaseTime, "time", "", "Time in RFC3339 or 'YYYY-MM-DDTHH:MM' (defaults to now in --tz)")
	rootCmd.AddCommand(phaseCmd)
}

// parseInstant accepts a few common layouts; empty means now.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
