// Package store persists simulation runs in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableRun = "run"
)

// Run is one persisted simulation: the circuit document, which backend ran
// it, the measurement counts, and what the optimizer achieved.
type Run struct {
	ID      int64
	Created time.Time
	Backend string
	Qubits  int
	Shots   int
	// Circuit is the circuit's JSON document.
	Circuit     []byte
	Counts      map[string]int
	GatesBefore int
	GatesAfter  int
}

// Store is a SQLite-backed run archive.
type Store struct {
	Path string
	db   *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &Store{Path: path, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts the run and returns its ID. The Created time is set here.
func (s *Store) Save(r *Run) (int64, error) {
	counts, err := json.Marshal(r.Counts)
	if err != nil {
		return -1, errors.Wrap(err, "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	r.Created = time.Now()
	sqlStr := fmt.Sprintf(`INSERT INTO %s (created, backend, qubits, shots, circuit, counts, gates_before, gates_after) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, tableRun)
	result, err := s.db.ExecContext(ctx, sqlStr,
		r.Created.UnixNano(), r.Backend, r.Qubits, r.Shots, string(r.Circuit), string(counts), r.GatesBefore, r.GatesAfter)
	if err != nil {
		return -1, errors.Wrap(err, sqlStr)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return -1, errors.Wrap(err, "")
	}
	r.ID = id
	return id, nil
}

// Get reads one run by ID.
func (s *Store) Get(id int64) (*Run, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT id, created, backend, qubits, shots, circuit, counts, gates_before, gates_after FROM %s WHERE id=?`, tableRun)
	r, err := scanRun(s.db.QueryRowContext(ctx, sqlStr, id))
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("id %d", id))
	}
	return r, nil
}

// List returns all runs, most recent first.
func (s *Store) List() ([]*Run, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT id, created, backend, qubits, shots, circuit, counts, gates_before, gates_after FROM %s ORDER BY created DESC, id DESC`, tableRun)
	rows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var created int64
	var circuit, counts string
	if err := row.Scan(&r.ID, &created, &r.Backend, &r.Qubits, &r.Shots, &circuit, &counts, &r.GatesBefore, &r.GatesAfter); err != nil {
		return nil, errors.Wrap(err, "")
	}
	r.Created = time.Unix(0, created)
	r.Circuit = []byte(circuit)
	if err := json.Unmarshal([]byte(counts), &r.Counts); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return &r, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY,
		created INTEGER,
		backend TEXT,
		qubits INTEGER,
		shots INTEGER,
		circuit TEXT,
		counts TEXT,
		gates_before INTEGER,
		gates_after INTEGER) STRICT`, tableRun)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
