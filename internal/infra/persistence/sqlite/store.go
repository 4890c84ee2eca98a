// Package sqlite persists the in-memory state to a single SQLite table as
// JSON blobs. It snapshots the full state after every successful transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"hotlabcore/internal/infra/persistence/memory"
	"hotlabcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

// Store wraps the in-memory store with SQLite durability.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "hotlabcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	ms := memory.NewStore(engine)
	s := &Store{Store: ms, db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{
	"isotopes", "vials", "generators", "waste_bins", "waste_items",
	"patients", "rooms", "assignments", "sessions", "additional", "alert_flags",
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	type raw struct {
		bucket  string
		payload []byte
	}
	var raws []raw
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.bucket, &r.payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(raws) == 0 {
		return nil
	}
	snapshot := memory.Snapshot{}
	for _, r := range raws {
		target, ok := bucketTarget(&snapshot, r.bucket)
		if !ok {
			continue
		}
		if err := json.Unmarshal(r.payload, target); err != nil {
			return fmt.Errorf("decode %s: %w", r.bucket, err)
		}
	}
	s.ImportState(snapshot)
	return nil
}

func bucketTarget(snapshot *memory.Snapshot, bucket string) (any, bool) {
	switch bucket {
	case "isotopes":
		return &snapshot.Isotopes, true
	case "vials":
		return &snapshot.Vials, true
	case "generators":
		return &snapshot.Generators, true
	case "waste_bins":
		return &snapshot.WasteBins, true
	case "waste_items":
		return &snapshot.WasteItems, true
	case "patients":
		return &snapshot.Patients, true
	case "rooms":
		return &snapshot.Rooms, true
	case "assignments":
		return &snapshot.Assignments, true
	case "sessions":
		return &snapshot.Sessions, true
	case "additional":
		return &snapshot.Additional, true
	case "alert_flags":
		return &snapshot.AlertFlags, true
	}
	return nil, false
}

func bucketPayload(snapshot memory.Snapshot, bucket string) (any, bool) {
	switch bucket {
	case "isotopes":
		return snapshot.Isotopes, true
	case "vials":
		return snapshot.Vials, true
	case "generators":
		return snapshot.Generators, true
	case "waste_bins":
		return snapshot.WasteBins, true
	case "waste_items":
		return snapshot.WasteItems, true
	case "patients":
		return snapshot.Patients, true
	case "rooms":
		return snapshot.Rooms, true
	case "assignments":
		return snapshot.Assignments, true
	case "sessions":
		return snapshot.Sessions, true
	case "additional":
		return snapshot.Additional, true
	case "alert_flags":
		return snapshot.AlertFlags, true
	}
	return nil, false
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		payload, ok := bucketPayload(snapshot, bucket)
		if !ok {
			continue
		}
		data, err := json.Marshal(payload)
		if err != nil {
			retErr = fmt.Errorf("encode %s: %w", bucket, err)
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
