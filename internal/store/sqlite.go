package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

const schema = `
CREATE TABLE IF NOT EXISTS last_reading (
  id            INTEGER PRIMARY KEY CHECK (id = 1),
  temperature_f REAL    NOT NULL,
  humidity_pct  INTEGER NOT NULL,
  icon          TEXT    NOT NULL,
  updated_at    TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

// SQLite keeps the reading in a single-row table on disk, the host
// equivalent of the sleep-surviving memory region on a bare-metal board.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path. ":memory:" is
// accepted for tests.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store open: %w", err)
	}
	// Single writer, single reader; no reason to pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load() (weather.Reading, bool, error) {
	var (
		r    weather.Reading
		icon string
	)
	err := s.db.QueryRow(
		`SELECT temperature_f, humidity_pct, icon FROM last_reading WHERE id = 1`,
	).Scan(&r.TempF, &r.HumidityPct, &icon)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Reading{}, false, nil
	}
	if err != nil {
		return weather.Reading{}, false, fmt.Errorf("store load: %w", err)
	}

	parsed, ok := weather.ParseIcon(icon)
	if !ok {
		// A row with a corrupted icon name still carries valid numbers;
		// fall back to the default glyph rather than dropping the reading.
		parsed = weather.IconClear
	}
	r.Icon = parsed
	return r, true, nil
}

func (s *SQLite) Save(r weather.Reading) error {
	_, err := s.db.Exec(`
INSERT INTO last_reading (id, temperature_f, humidity_pct, icon, updated_at)
VALUES (1, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
ON CONFLICT (id) DO UPDATE SET
  temperature_f = excluded.temperature_f,
  humidity_pct  = excluded.humidity_pct,
  icon          = excluded.icon,
  updated_at    = excluded.updated_at`,
		r.TempF, r.HumidityPct, r.Icon.String(),
	)
	if err != nil {
		return fmt.Errorf("store save: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
