package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/output"
	"github.com/thurmanmarka/astrocal/internal/store"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// EventStore reads stored runs and events; *store.DB implements it.
type EventStore interface {
	ListEvents(ctx context.Context, year int, kinds ...event.Kind) ([]store.Record, error)
	LatestRuns(ctx context.Context, year int) ([]store.Run, error)
}

// Server holds the handler dependencies. files is always set; events is nil
// when no database is configured.
type Server struct {
	files  *output.Writer
	events EventStore
	log    *slog.Logger
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "output_dir": s.files.Dir()})
}

func (s *Server) category(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])

	path, err := s.files.Path(vars["category"], year)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.serveFile(w, path)
}

func (s *Server) month(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])
	month, _ := strconv.Atoi(vars["month"])
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1-12")
		return
	}
	s.serveFile(w, s.files.MonthPath(year, time.Month(month)))
}

func (s *Server) stored(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(mux.Vars(r)["year"])

	var kinds []event.Kind
	for _, k := range r.URL.Query()["kind"] {
		kinds = append(kinds, event.Kind(k))
	}

	recs, err := s.events.ListEvents(r.Context(), year, kinds...)
	if err != nil {
		s.log.Error("list stored events failed", "year", year, "err", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	out := make([]json.RawMessage, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Payload)
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "count": len(out), "events": out})
}

// runView is the JSON shape of a stored run.
type runView struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	GeneratedAt string `json:"generated_at"`
	Ephemeris   string `json:"ephemeris"`
}

func (s *Server) runs(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(mux.Vars(r)["year"])

	runs, err := s.events.LatestRuns(r.Context(), year)
	if err != nil {
		s.log.Error("list stored runs failed", "year", year, "err", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	out := make([]runView, 0, len(runs))
	for _, run := range runs {
		out = append(out, runView{
			ID:          run.ID.String(),
			Category:    run.Category,
			GeneratedAt: timeutil.FormatISO(run.GeneratedAt),
			Ephemeris:   run.Ephemeris,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "runs": out})
}

func (s *Server) serveFile(w http.ResponseWriter, path string) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "not generated")
		return
	}
	if err != nil {
		s.log.Error("read failed", "path", path, "err", err)
		writeError(w, http.StatusInternalServerError, "read failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
