// Package stats records scheduler tick samples in a sqlite database so runs
// with different strategies can be compared after the fact.
package stats

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/edwinsyarief/junban"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/sugawarayuuta/sonnet"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	entities   INTEGER NOT NULL,
	frequency  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ticks (
	run_id     TEXT    NOT NULL REFERENCES runs(id),
	tick       INTEGER NOT NULL,
	mode       INTEGER NOT NULL,
	strategy   TEXT    NOT NULL,
	cursor     INTEGER NOT NULL,
	domain     INTEGER NOT NULL,
	updated    INTEGER NOT NULL,
	tasks      INTEGER NOT NULL,
	elapsed_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS ticks_run_mode ON ticks(run_id, mode);
`

// Summary aggregates the ticks one strategy ran during a run.
type Summary struct {
	Strategy string        `json:"strategy"`
	Ticks    int           `json:"ticks"`
	Updated  int64         `json:"updated"`
	Mean     time.Duration `json:"mean_ns"`
	Min      time.Duration `json:"min_ns"`
	Max      time.Duration `json:"max_ns"`
	Mode     int           `json:"mode"`
}

// Report is the JSON document written by ExportJSON.
type Report struct {
	Run       string    `json:"run"`
	Summaries []Summary `json:"summaries"`
}

// Store appends tick samples of a single run to a sqlite database. Each Store
// is one run, identified by a random UUID; several runs may share a file.
type Store struct {
	db      *sql.DB
	insert  *sql.Stmt
	log     *logrus.Entry
	run     uuid.UUID
	dropped int
}

// Open opens or creates the database at path and starts a new run for a
// population of entities updated over frequency groups.
func Open(path string, entities, frequency int, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("stats: open %s: %w", path, err)
	}
	if path == Memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: create schema: %w", err)
	}
	s := &Store{db: db, run: uuid.New()}
	s.log = log.WithFields(logrus.Fields{"component": "stats", "run": s.run.String()})
	if _, err := db.Exec(`INSERT INTO runs (id, started_at, entities, frequency) VALUES (?, ?, ?, ?)`,
		s.run.String(), time.Now().UnixNano(), entities, frequency); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: start run: %w", err)
	}
	s.insert, err = db.Prepare(`INSERT INTO ticks
		(run_id, tick, mode, strategy, cursor, domain, updated, tasks, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: prepare insert: %w", err)
	}
	s.log.WithField("path", path).Info("recording ticks")
	return s, nil
}

// Run returns the identifier of the run being recorded.
func (s *Store) Run() uuid.UUID {
	return s.run
}

// Dropped returns how many samples delivered through Attach failed to insert.
func (s *Store) Dropped() int {
	return s.dropped
}

// Attach records every TickCompleted event published on bus. Insert failures
// are logged and counted, never returned to the publisher.
func (s *Store) Attach(bus *junban.EventBus) {
	junban.Subscribe(bus, func(e junban.TickCompleted) {
		if err := s.Record(e.Stats); err != nil {
			s.dropped++
			s.log.WithError(err).WithField("tick", e.Stats.Tick).Warn("dropped tick sample")
		}
	})
}

// Record appends one tick sample.
func (s *Store) Record(st junban.TickStats) error {
	_, err := s.insert.Exec(s.run.String(), int64(st.Tick), int(st.Strategy), st.Strategy.String(),
		int(st.Cursor), st.Domain, st.Updated, st.Tasks, st.Elapsed.Nanoseconds())
	if err != nil {
		return fmt.Errorf("stats: record tick %d: %w", st.Tick, err)
	}
	return nil
}

// Summary aggregates the current run per strategy, in strategy order.
func (s *Store) Summary() ([]Summary, error) {
	rows, err := s.db.Query(`SELECT mode, strategy, COUNT(*), SUM(updated),
		AVG(elapsed_ns), MIN(elapsed_ns), MAX(elapsed_ns)
		FROM ticks WHERE run_id = ? GROUP BY mode, strategy ORDER BY mode`, s.run.String())
	if err != nil {
		return nil, fmt.Errorf("stats: summary: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var mean float64
		var lo, hi int64
		if err := rows.Scan(&sum.Mode, &sum.Strategy, &sum.Ticks, &sum.Updated, &mean, &lo, &hi); err != nil {
			return nil, fmt.Errorf("stats: summary: %w", err)
		}
		sum.Mean = time.Duration(mean)
		sum.Min = time.Duration(lo)
		sum.Max = time.Duration(hi)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ExportJSON writes the run summary to w as a JSON Report.
func (s *Store) ExportJSON(w io.Writer) error {
	sums, err := s.Summary()
	if err != nil {
		return err
	}
	data, err := sonnet.Marshal(Report{Run: s.run.String(), Summaries: sums})
	if err != nil {
		return fmt.Errorf("stats: encode report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	if s.insert != nil {
		s.insert.Close()
	}
	return s.db.Close()
}
