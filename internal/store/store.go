// Package store persists the precomputed aggregate set to SQLite so a restart
// can skip reprocessing an unchanged export.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"swiggy-dashboard/internal/services"
)

// ErrNoSnapshot is returned when no usable snapshot exists for a source path.
var ErrNoSnapshot = errors.New("no snapshot for source")

type SnapshotStore struct {
	db *sql.DB
}

func Open(dbPath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save upserts the aggregate set for a source path.
func (s *SnapshotStore) Save(ctx context.Context, sourcePath string, data *services.PrecomputedData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (source_path, created_at, record_count, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source_path) DO UPDATE SET
			created_at = excluded.created_at,
			record_count = excluded.record_count,
			payload = excluded.payload`,
		sourcePath, time.Now().UTC(), data.RecordCount, payload)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for a source path, or ErrNoSnapshot.
func (s *SnapshotStore) Load(ctx context.Context, sourcePath string) (*services.PrecomputedData, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE source_path = ?`, sourcePath).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var data services.PrecomputedData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &data, nil
}

// LoadFresh returns the snapshot only when it postdates the source file.
func (s *SnapshotStore) LoadFresh(ctx context.Context, sourcePath string) (*services.PrecomputedData, error) {
	data, err := s.Load(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if !info.ModTime().Before(data.LastModified) {
		return nil, ErrNoSnapshot
	}
	return data, nil
}
