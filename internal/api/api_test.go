package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/output"
	"github.com/thurmanmarka/astrocal/internal/positions"
	"github.com/thurmanmarka/astrocal/internal/store"
)

type fakeStore struct {
	year  int
	kinds []event.Kind
	recs  []store.Record
	runs  []store.Run
	err   error
}

func (f *fakeStore) ListEvents(_ context.Context, year int, kinds ...event.Kind) ([]store.Record, error) {
	f.year, f.kinds = year, kinds
	return f.recs, f.err
}

func (f *fakeStore) LatestRuns(_ context.Context, year int) ([]store.Run, error) {
	f.year = year
	return f.runs, f.err
}

func setup(t *testing.T, events EventStore) (*output.Writer, http.Handler) {
	t.Helper()
	w := output.NewWriter(t.TempDir())

	at := time.Date(2025, time.March, 29, 10, 57, 0, 0, time.UTC)
	_, err := w.WriteYear(output.NewYearFile("moon-phases", 2025, at, "run-1", "analytical",
		[]event.Event{event.NewPhase(at, "new", 9, 9, 0)}))
	require.NoError(t, err)

	_, err = w.WriteMonth(2025, positions.Month{Metadata: positions.MonthMetadata{Month: "2025-03"}})
	require.NoError(t, err)

	return w, NewRouter(w, events, nil)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	w, h := setup(t, nil)
	rec := get(h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, w.Dir(), body["output_dir"])
}

func TestCategory(t *testing.T) {
	_, h := setup(t, nil)

	tests := []struct {
		path string
		code int
	}{
		{"/years/2025/moon-phases", http.StatusOK},
		{"/years/2026/moon-phases", http.StatusNotFound},
		{"/years/2025/horoscopes", http.StatusNotFound},
		{"/years/25/moon-phases", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.code, get(h, tt.path).Code)
		})
	}

	rec := get(h, "/years/2025/moon-phases")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var raw struct {
		Metadata output.Metadata  `json:"metadata"`
		Events   []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "run-1", raw.Metadata.RunID)
	require.Len(t, raw.Events, 1)
	assert.Equal(t, "new", raw.Events[0]["phase"])
}

func TestMonth(t *testing.T) {
	_, h := setup(t, nil)

	assert.Equal(t, http.StatusOK, get(h, "/years/2025/daily-positions/3").Code)
	assert.Equal(t, http.StatusOK, get(h, "/years/2025/daily-positions/03").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/years/2025/daily-positions/4").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/years/2025/daily-positions/13").Code)
}

func TestStored(t *testing.T) {
	fs := &fakeStore{recs: []store.Record{
		{Kind: event.KindIngress, Payload: json.RawMessage(`{"type":"ingress","planet":"Saturn"}`)},
	}}
	_, h := setup(t, fs)

	rec := get(h, "/stored/2025/events?kind=ingress&kind=aspect")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, fs.year)
	assert.Equal(t, []event.Kind{event.KindIngress, event.KindAspect}, fs.kinds)

	var body struct {
		Count  int              `json:"count"`
		Events []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "Saturn", body.Events[0]["planet"])

	fs.err = errors.New("connection reset")
	assert.Equal(t, http.StatusInternalServerError, get(h, "/stored/2025/events").Code)
}

func TestStoredRuns(t *testing.T) {
	newer := uuid.MustParse("22222222-2222-4222-8222-222222222222")
	fs := &fakeStore{runs: []store.Run{
		{ID: newer, Year: 2026, Category: "ingresses", GeneratedAt: time.Date(2025, 12, 2, 8, 0, 0, 0, time.UTC), Ephemeris: "analytical"},
	}}
	_, h := setup(t, fs)

	rec := get(h, "/stored/2026/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2026, fs.year)

	var body struct {
		Runs []map[string]string `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, newer.String(), body.Runs[0]["id"])
	assert.Equal(t, "ingresses", body.Runs[0]["category"])
	assert.Equal(t, "2025-12-02T08:00:00Z", body.Runs[0]["generated_at"])

	fs.err = errors.New("connection reset")
	assert.Equal(t, http.StatusInternalServerError, get(h, "/stored/2026/runs").Code)
}

func TestStored_NotRegisteredWithoutStore(t *testing.T) {
	_, h := setup(t, nil)
	assert.Equal(t, http.StatusNotFound, get(h, "/stored/2025/events").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/stored/2025/runs").Code)
}

func TestMetricsRoute(t *testing.T) {
	_, h := setup(t, nil)
	get(h, "/years/2025/moon-phases")

	rec := get(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `astrocal_http_requests_total{code="200",method="GET",path="/years/{year:[0-9]{4}}/{category}"}`)
}
