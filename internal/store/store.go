// Package store holds the one piece of state that survives the sleep/wake
// transition: the last successfully fetched reading. A store that has never
// been written reports unpopulated, which the orchestrator renders as
// "not available" markers. Only a fully validated reading is ever saved.
package store

import (
	"sync"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

// Store is the sleep-surviving reading. Load reports ok=false when no
// reading has ever been saved (the sentinel state after a full power cycle).
type Store interface {
	Load() (reading weather.Reading, ok bool, err error)
	Save(reading weather.Reading) error
	Close() error
}

// Memory is an in-process store; state is lost with the process. Used in
// tests and available for boards whose sleep keeps RAM powered.
type Memory struct {
	mu        sync.Mutex
	reading   weather.Reading
	populated bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load() (weather.Reading, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reading, m.populated, nil
}

func (m *Memory) Save(r weather.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reading = r
	m.populated = true
	return nil
}

func (m *Memory) Close() error { return nil }
