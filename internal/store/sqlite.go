package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	hub    *Hub
	logger zerolog.Logger
}

// Compile-time check that SQLiteStore implements Repository.
var _ Repository = (*SQLiteStore)(nil)

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "location-tracker", "locations.db")
}

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes concurrent writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, hub: NewHub(), logger: logger}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS location_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			timestamp INTEGER NOT NULL,
			accuracy REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_location_history_timestamp ON location_history(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Insert appends sample and assigns its ID. Observers receive the new
// snapshot before Insert returns.
func (s *SQLiteStore) Insert(ctx context.Context, sample *models.LocationSample) error {
	return s.hub.Do(func() error {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO location_history (latitude, longitude, timestamp, accuracy) VALUES (?, ?, ?, ?)",
			sample.Latitude, sample.Longitude, sample.Timestamp, sample.Accuracy,
		)
		if err != nil {
			return fmt.Errorf("insert location: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert location: %w", err)
		}
		sample.ID = id

		s.notify(ctx)
		return nil
	})
}

// ClearAll deletes every sample.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	return s.hub.Do(func() error {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM location_history"); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		s.hub.Publish([]models.LocationSample{})
		return nil
	})
}

// ObserveAll subscribes to full snapshots of the log. The subscription ends
// when ctx is cancelled or Close is called on it.
func (s *SQLiteStore) ObserveAll(ctx context.Context) (*Subscription, error) {
	return s.hub.Subscribe(ctx, func() ([]models.LocationSample, error) {
		return s.all(context.Background())
	})
}

// All returns every sample, newest first.
func (s *SQLiteStore) All(ctx context.Context) ([]models.LocationSample, error) {
	return s.all(ctx)
}

// Count returns the number of stored samples.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM location_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return n, nil
}

// Close ends all subscriptions and closes the database.
func (s *SQLiteStore) Close() error {
	s.hub.Close()
	return s.db.Close()
}

// notify publishes the current snapshot. The insert already succeeded, so a
// failing read is logged rather than returned.
func (s *SQLiteStore) notify(ctx context.Context) {
	if s.hub.Len() == 0 {
		return
	}
	snapshot, err := s.all(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read snapshot for observers")
		return
	}
	s.hub.Publish(snapshot)
}

func (s *SQLiteStore) all(ctx context.Context) ([]models.LocationSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, latitude, longitude, timestamp, accuracy
		 FROM location_history ORDER BY timestamp DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	samples := []models.LocationSample{}
	for rows.Next() {
		var sample models.LocationSample
		if err := rows.Scan(&sample.ID, &sample.Latitude, &sample.Longitude, &sample.Timestamp, &sample.Accuracy); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}
