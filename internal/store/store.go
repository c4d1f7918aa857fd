// Package store persists generated event sets in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/thurmanmarka/astrocal/internal/config"
	"github.com/thurmanmarka/astrocal/internal/event"
)

//go:embed schema.sql
var schemaSQL embed.FS

// ErrDuplicateRun is returned when a run already stored the same year and
// category.
var ErrDuplicateRun = errors.New("run already stored")

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// DB wraps a database connection with the event store operations.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Run describes one generated category of one year. A generation run saves
// one Run per year and category, all sharing ID.
type Run struct {
	ID          uuid.UUID
	Year        int
	Category    string
	GeneratedAt time.Time
	Ephemeris   string
}

// Record is a stored event.
type Record struct {
	RunID      uuid.UUID
	Category   string
	Kind       event.Kind
	OccurredAt time.Time
	Payload    json.RawMessage
}

// ConnString builds the lib/pq key/value connection string for cfg.
func ConnString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)
}

// Connect opens and pings the database described by cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open("postgres", ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, config: cfg}, nil
}

// InitSchema creates the tables if they do not exist.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// row is one events table row ready for COPY.
type row struct {
	kind       string
	occurredAt time.Time
	payload    string
}

func rowsOf(events []event.Event) ([]row, error) {
	out := make([]row, 0, len(events))
	for _, e := range events {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode %s event: %w", e.Kind(), err)
		}
		out = append(out, row{
			kind:       string(e.Kind()),
			occurredAt: e.When().UTC(),
			payload:    string(raw),
		})
	}
	return out, nil
}

// SaveRun stores run and its events in a single transaction.
func (db *DB) SaveRun(ctx context.Context, run Run, events []event.Event) (err error) {
	rows, err := rowsOf(events)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, year, category, generated_at, ephemeris, event_count)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID.String(), run.Year, run.Category, run.GeneratedAt.UTC(), run.Ephemeris, len(rows),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s %s %d", ErrDuplicateRun, run.ID, run.Category, run.Year)
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("events", "run_id", "year", "category", "kind", "occurred_at", "payload"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}
	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx, run.ID.String(), run.Year, run.Category, r.kind, r.occurredAt, r.payload); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy event: %w", err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListEvents returns the events of year from the newest run of each
// category, in time order. With kinds empty every kind is returned.
func (db *DB) ListEvents(ctx context.Context, year int, kinds ...event.Kind) ([]Record, error) {
	runs, err := db.LatestRuns(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.ID.String())
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT run_id, category, kind, occurred_at, payload
		 FROM events
		 WHERE year = $1
		   AND run_id = ANY($2::uuid[])
		   AND (cardinality($3::text[]) = 0 OR kind = ANY($3::text[]))
		 ORDER BY occurred_at, id`,
		year, pq.Array(ids), pq.Array(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			runID   string
			kind    string
			payload []byte
		)
		if err := rows.Scan(&runID, &rec.Category, &kind, &rec.OccurredAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if rec.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("bad run id %q: %w", runID, err)
		}
		rec.Kind = event.Kind(kind)
		rec.Payload = payload
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return latestOnly(out, runs), nil
}

// latestOnly keeps the records written by the run listed for their category.
// A run id shared by several categories matches only where it is the newest.
func latestOnly(recs []Record, runs []Run) []Record {
	latest := make(map[string]uuid.UUID, len(runs))
	for _, r := range runs {
		latest[r.Category] = r.ID
	}
	out := recs[:0]
	for _, rec := range recs {
		if id, ok := latest[rec.Category]; ok && id == rec.RunID {
			out = append(out, rec)
		}
	}
	return out
}

// LatestRuns returns the newest stored run of each category of year, ordered
// by category.
func (db *DB) LatestRuns(ctx context.Context, year int) ([]Run, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT ON (category) id, year, category, generated_at, ephemeris
		 FROM runs
		 WHERE year = $1
		 ORDER BY category, generated_at DESC, id DESC`,
		year,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run Run
			id  string
		)
		if err := rows.Scan(&id, &run.Year, &run.Category, &run.GeneratedAt, &run.Ephemeris); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad run id %q: %w", id, err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return out, nil
}
