// Package api serves generated years over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/thurmanmarka/astrocal/internal/metrics"
	"github.com/thurmanmarka/astrocal/internal/output"
)

// NewRouter returns the API routes over the file tree of w. events may be
// nil, in which case the stored-event routes are not registered.
func NewRouter(w *output.Writer, events EventStore, log *slog.Logger) *mux.Router {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{files: w, events: events, log: log.With(slog.String("component", "api"))}

	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/years/{year:[0-9]{4}}/daily-positions/{month:[0-9]{1,2}}", s.month).Methods("GET")
	r.HandleFunc("/years/{year:[0-9]{4}}/{category}", s.category).Methods("GET")
	if events != nil {
		r.HandleFunc("/stored/{year:[0-9]{4}}/events", s.stored).Methods("GET")
		r.HandleFunc("/stored/{year:[0-9]{4}}/runs", s.runs).Methods("GET")
	}
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return r
}
