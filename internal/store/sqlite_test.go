package store

import (
	"path/filepath"
	"testing"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := s.Close(); closeErr != nil {
			t.Errorf("close store: %v", closeErr)
		}
	})
	return s
}

func TestLoad_EmptyIsSentinel(t *testing.T) {
	s := openTestStore(t)

	r, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("Load ok = true, want false for never-populated store")
	}
	if r != (weather.Reading{}) {
		t.Errorf("Load reading = %+v, want zero value", r)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := weather.Reading{TempF: -11.16, HumidityPct: 79, Icon: weather.IconBrokenClouds}
	if err := s.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load ok = false, want true after Save")
	}
	if got != in {
		t.Errorf("Load = %+v, want %+v", got, in)
	}
}

func TestSave_OverwritesSingleRow(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(weather.Reading{TempF: 50, HumidityPct: 30, Icon: weather.IconClear}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := weather.Reading{TempF: 71.5, HumidityPct: 44, Icon: weather.IconRain}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load ok = false, want true")
	}
	if got != want {
		t.Errorf("Load = %+v, want latest save %+v", got, want)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM last_reading`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "station.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	if err := s.Save(weather.Reading{TempF: 1, HumidityPct: 2, Icon: weather.IconMist}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen to confirm the reading survived the process boundary analog.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		if closeErr := s2.Close(); closeErr != nil {
			t.Errorf("close store: %v", closeErr)
		}
	}()
	got, ok, err := s2.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok || got.Icon != weather.IconMist {
		t.Errorf("Load after reopen = (%+v, %v), want persisted mist reading", got, ok)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()

	_, ok, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("Load ok = true, want false before Save")
	}

	in := weather.Reading{TempF: 32, HumidityPct: 90, Icon: weather.IconSnow}
	if err := m.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok || got != in {
		t.Errorf("Load = (%+v, %v), want (%+v, true)", got, ok, in)
	}
}
