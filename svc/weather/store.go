package weather

import (
	"context"
	"sync"
)

// ForecastStore persists forecast days and observations. UpsertForecasts is
// idempotent per Key.
type ForecastStore interface {
	UpsertForecasts(ctx context.Context, days []ForecastDay) error
	RecordObservation(ctx context.Context, s Snapshot) error
	Forecasts(ctx context.Context, lat, lon float64) ([]ForecastDay, error)
}

// MemoryStore is an in-memory ForecastStore for development and tests.
type MemoryStore struct {
	forecasts    map[Key]ForecastDay
	observations []Snapshot
	mu           sync.RWMutex
}

var _ ForecastStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{forecasts: make(map[Key]ForecastDay)}
}

func (s *MemoryStore) UpsertForecasts(ctx context.Context, days []ForecastDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range days {
		d = d.Normalize()
		s.forecasts[d.Key()] = d
	}
	return nil
}

func (s *MemoryStore) RecordObservation(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Latitude = NormalizeCoordinate(snap.Latitude)
	snap.Longitude = NormalizeCoordinate(snap.Longitude)
	s.observations = append(s.observations, snap)
	return nil
}

func (s *MemoryStore) Forecasts(ctx context.Context, lat, lon float64) ([]ForecastDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lat, lon = NormalizeCoordinate(lat), NormalizeCoordinate(lon)
	days := make([]ForecastDay, 0)
	for k, d := range s.forecasts {
		if k.Latitude == lat && k.Longitude == lon {
			days = append(days, d)
		}
	}
	sortByDate(days)
	return days, nil
}

// Len returns the number of stored forecast days.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forecasts)
}

// Observations returns a copy of the recorded snapshots.
func (s *MemoryStore) Observations() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Snapshot(nil), s.observations...)
}
