// Package output writes generated years to the JSON file tree:
//
//	<dir>/<category>/<year>.json
//	<dir>/daily-positions/<year>-<MM>.json
//
// Each file is written to a temporary name and renamed into place, so a
// reader never sees a partially written year.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/thurmanmarka/astrocal/internal/curate"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/positions"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// DailyPositions is the directory of the month tables.
const DailyPositions = "daily-positions"

// Curated is the category of the curated summary.
const Curated = "curated"

// Categories lists every per-year category file.
var Categories = []string{
	"moon-phases",
	"aspects",
	"conjunctions",
	"ingresses",
	"major-transits",
	"retrogrades",
	"eclipses",
	Curated,
}

// ErrUnknownCategory is returned for a category outside Categories.
var ErrUnknownCategory = errors.New("unknown output category")

// Metadata heads every event file.
type Metadata struct {
	Year        int            `json:"year"`
	Category    string         `json:"category"`
	GeneratedAt string         `json:"generated_at"`
	RunID       string         `json:"run_id"`
	Ephemeris   string         `json:"ephemeris"`
	Totals      map[string]int `json:"totals"`
}

// YearFile is the document written for one category of one year.
type YearFile struct {
	Metadata Metadata      `json:"metadata"`
	Events   []event.Event `json:"events"`
}

// Totals counts events per kind.
func Totals(events []event.Event) map[string]int {
	out := map[string]int{"total": len(events)}
	for _, e := range events {
		out[string(e.Kind())]++
	}
	return out
}

// NewYearFile assembles the document for events.
func NewYearFile(category string, year int, generatedAt time.Time, runID, ephemeris string, events []event.Event) YearFile {
	if events == nil {
		events = []event.Event{}
	}
	return YearFile{
		Metadata: Metadata{
			Year:        year,
			Category:    category,
			GeneratedAt: timeutil.FormatISO(generatedAt),
			RunID:       runID,
			Ephemeris:   ephemeris,
			Totals:      Totals(events),
		},
		Events: events,
	}
}

// Writer writes documents under a root directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir is the root directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the file of category for year.
func (w *Writer) Path(category string, year int) (string, error) {
	if !slices.Contains(Categories, category) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return filepath.Join(w.dir, category, fmt.Sprintf("%d.json", year)), nil
}

// MonthPath returns the daily position table of year/month.
func (w *Writer) MonthPath(year int, month time.Month) string {
	return filepath.Join(w.dir, DailyPositions, fmt.Sprintf("%d-%02d.json", year, int(month)))
}

// WriteYear writes f to its category file.
func (w *Writer) WriteYear(f YearFile) (string, error) {
	path, err := w.Path(f.Metadata.Category, f.Metadata.Year)
	if err != nil {
		return "", err
	}
	return path, writeJSON(path, f)
}

// WriteCurated writes the curated summary.
func (w *Writer) WriteCurated(doc curate.Document) (string, error) {
	path, err := w.Path(Curated, doc.Metadata.Year)
	if err != nil {
		return "", err
	}
	return path, writeJSON(path, doc)
}

// WriteMonth writes one daily position table.
func (w *Writer) WriteMonth(year int, m positions.Month) (string, error) {
	first, err := time.Parse("2006-01", m.Metadata.Month)
	if err != nil {
		return "", fmt.Errorf("month %q: %w", m.Metadata.Month, err)
	}
	if first.Year() != year {
		return "", fmt.Errorf("month %s is not in %d", m.Metadata.Month, year)
	}
	path := w.MonthPath(year, first.Month())
	return path, writeJSON(path, m)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
