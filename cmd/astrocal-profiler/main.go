package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/thurmanmarka/astrocal"
	"github.com/thurmanmarka/astrocal/internal/config"
	"github.com/thurmanmarka/astrocal/internal/event"
)

type stats struct {
	count int
	sum   float64
	min   float64
	max   float64
}

func (s *stats) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	if s.count == 0 {
		s.min, s.max = v, v
	} else {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	s.sum += v
	s.count++
}

func (s *stats) mean() float64 {
	if s.count == 0 {
		return math.NaN()
	}
	return s.sum / float64(s.count)
}

// key identifies a comparable event: its kind and, where it has one, body.
type key struct {
	kind string
	body string
}

// reference is one row of the reference CSV.
type reference struct {
	line int
	key  key
	at   time.Time
}

// CSV format:
//
// kind,body,time
// new,,2025-01-29T12:36:00Z
// ingress,Saturn,2025-05-25T03:35:00Z
// station_retrograde,Mercury,2025-03-15T06:46:00Z
// eclipse_solar,,2025-03-29T10:47:00Z
//
// kind is a phase name (new, first_quarter, full, last_quarter), ingress,
// station_retrograde, station_direct, eclipse_solar or eclipse_lunar. body is
// empty for phases and eclipses. time is RFC 3339.
func main() {
	var (
		refCSV  = flag.String("refcsv", "", "path to reference CSV file (kind,body,time)")
		window  = flag.Duration("window", 72*time.Hour, "largest |got-ref| that still counts as a match")
		workers = flag.Int("workers", 0, "scan units run at once (0 uses the config default)")
		verbose = flag.Bool("verbose", false, "log per-row errors instead of only summary")
		outCSV  = flag.String("outcsv", "", "optional path to write per-row error CSV")
	)

	flag.Parse()

	if *refCSV == "" {
		log.Fatalf("missing -refcsv (path to reference CSV)")
	}

	f, err := os.Open(*refCSV)
	if err != nil {
		log.Fatalf("failed to open refcsv %q: %v", *refCSV, err)
	}
	refs, skipped, err := readReferences(f)
	f.Close()
	if err != nil {
		log.Fatalf("failed to read CSV: %v", err)
	}
	if len(refs) == 0 {
		log.Fatalf("no usable rows in %s", *refCSV)
	}

	cfg := config.Default()
	if *workers > 0 {
		cfg.Workers = *workers
	}
	g, err := astrocal.New(cfg)
	if err != nil {
		log.Fatalf("failed to build generator: %v", err)
	}

	got, err := generated(context.Background(), g, refs)
	if err != nil {
		log.Fatalf("generation failed: %v", err)
	}

	var outWriter *csv.Writer
	if *outCSV != "" {
		outFile, err := os.Create(*outCSV)
		if err != nil {
			log.Fatalf("failed to create outcsv %q: %v", *outCSV, err)
		}
		defer outFile.Close()

		outWriter = csv.NewWriter(outFile)
		defer outWriter.Flush()

		if err := outWriter.Write([]string{"kind", "body", "ref", "got", "err_min", "signed_min"}); err != nil {
			log.Fatalf("failed to write outcsv header: %v", err)
		}
	}

	var (
		abs     stats
		signed  stats
		perKind = map[string]*stats{}
		missed  int
	)

	for _, ref := range refs {
		match, ok := nearest(got[ref.key], ref.at, *window)
		if !ok {
			missed++
			log.Printf("row %d: no generated %s %s within %s of %s", ref.line, ref.key.kind, ref.key.body, *window, ref.at.Format(time.RFC3339))
			continue
		}

		s := match.Sub(ref.at).Minutes()
		a := math.Abs(s)
		abs.add(a)
		signed.add(s)
		if perKind[ref.key.kind] == nil {
			perKind[ref.key.kind] = &stats{}
		}
		perKind[ref.key.kind].add(a)

		if *verbose {
			fmt.Printf("%-18s %-8s err=%8.2f min (got=%s ref=%s)\n",
				ref.key.kind, ref.key.body, s, match.Format(time.RFC3339), ref.at.Format(time.RFC3339))
		}

		if outWriter != nil {
			rec := []string{
				ref.key.kind,
				ref.key.body,
				ref.at.Format(time.RFC3339),
				match.Format(time.RFC3339),
				fmt.Sprintf("%.6f", a),
				fmt.Sprintf("%.6f", s),
			}
			if err := outWriter.Write(rec); err != nil {
				log.Printf("row %d: failed to write outcsv: %v", ref.line, err)
			}
		}
	}

	fmt.Println("=== astrocal profiler summary ===")
	fmt.Printf("Ephemeris: %s\n", g.Ephemeris())
	fmt.Printf("Rows:      %d (matched), %d unmatched, %d skipped\n", abs.count, missed, skipped)

	if abs.count == 0 {
		fmt.Println("No matched rows to compute stats.")
		return
	}

	fmt.Println("\nTiming error (minutes):")
	fmt.Printf("  count: %d\n", abs.count)
	fmt.Printf("  min:   %.3f\n", abs.min)
	fmt.Printf("  max:   %.3f\n", abs.max)
	fmt.Printf("  avg:   %.3f\n", abs.mean())

	fmt.Println("\nSigned error (minutes, our - ref):")
	fmt.Printf("  min:   %.3f\n", signed.min)
	fmt.Printf("  max:   %.3f\n", signed.max)
	fmt.Printf("  mean:  %.3f\n", signed.mean())

	fmt.Println("\nBy kind (avg |err| minutes):")
	kinds := make([]string, 0, len(perKind))
	for k := range perKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-18s n=%-4d avg=%.3f max=%.3f\n", k, perKind[k].count, perKind[k].mean(), perKind[k].max)
	}
}

func readReferences(r io.Reader) ([]reference, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // allow variable, we validate

	records, err := cr.ReadAll()
	if err != nil {
		return nil, 0, err
	}

	startIdx := 0
	if len(records) > 0 && len(records[0]) >= 1 && strings.EqualFold(records[0][0], "kind") {
		startIdx = 1
	}

	var (
		out     []reference
		skipped int
	)
	for i := startIdx; i < len(records); i++ {
		row := records[i]
		if len(row) < 3 {
			log.Printf("row %d: expected 3 columns (kind,body,time), got %d, skipping", i+1, len(row))
			skipped++
			continue
		}
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(row[2]))
		if err != nil {
			log.Printf("row %d: invalid time %q: %v, skipping", i+1, row[2], err)
			skipped++
			continue
		}
		k := key{kind: strings.ToLower(strings.TrimSpace(row[0])), body: strings.TrimSpace(row[1])}
		if k.body != "" {
			b, err := astrocal.ParseBody(k.body)
			if err != nil {
				log.Printf("row %d: %v, skipping", i+1, err)
				skipped++
				continue
			}
			k.body = b.String()
		}
		out = append(out, reference{line: i + 1, key: k, at: at.UTC()})
	}
	return out, skipped, nil
}

// generated scans every year the references touch and indexes the event
// instants by key.
func generated(ctx context.Context, g *astrocal.Generator, refs []reference) (map[key][]time.Time, error) {
	need := map[string]bool{}
	years := map[int]bool{}
	for _, r := range refs {
		years[r.at.Year()] = true
		switch {
		case r.key.kind == "ingress":
			need[astrocal.CategoryIngresses] = true
		case strings.HasPrefix(r.key.kind, "station_"):
			need[astrocal.CategoryRetrogrades] = true
		case strings.HasPrefix(r.key.kind, "eclipse_"):
			need[astrocal.CategoryEclipses] = true
		default:
			need[astrocal.CategoryMoonPhases] = true
		}
	}

	out := map[key][]time.Time{}
	for year := range years {
		if need[astrocal.CategoryRetrogrades] {
			res, err := g.Retrogrades(ctx, year)
			if err != nil {
				return nil, err
			}
			for _, s := range res.Stations {
				k := key{kind: s.Station, body: s.Body.String()}
				out[k] = append(out[k], s.Time)
			}
		}
		for _, c := range []string{astrocal.CategoryMoonPhases, astrocal.CategoryIngresses, astrocal.CategoryEclipses} {
			if !need[c] {
				continue
			}
			evs, err := g.Events(ctx, c, year)
			if err != nil {
				return nil, err
			}
			for _, e := range evs {
				if k, ok := keyOf(e); ok {
					out[k] = append(out[k], e.When())
				}
			}
		}
	}
	return out, nil
}

func keyOf(e event.Event) (key, bool) {
	switch v := e.(type) {
	case event.PhaseEvent:
		return key{kind: v.Phase}, true
	case event.IngressEvent:
		return key{kind: "ingress", body: v.Body.String()}, true
	case event.EclipseEvent:
		return key{kind: "eclipse_" + v.Category}, true
	default:
		return key{}, false
	}
}

// nearest returns the candidate closest to ref if it lies within window.
func nearest(candidates []time.Time, ref time.Time, window time.Duration) (time.Time, bool) {
	var (
		best  time.Time
		bestD = time.Duration(math.MaxInt64)
	)
	for _, c := range candidates {
		d := c.Sub(ref)
		if d < 0 {
			d = -d
		}
		if d < bestD {
			best, bestD = c, d
		}
	}
	if best.IsZero() || bestD > window {
		return time.Time{}, false
	}
	return best, true
}
