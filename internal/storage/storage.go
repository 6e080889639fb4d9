// Package storage persists pipeline artifacts (raw CSV partitions, columnar tables and
// reports) behind a small key/value interface so the stages can run against a directory
// tree, an embedded KV engine or plain memory.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ecomflow/internal/model"
)

// Zone separates artifacts by processing stage.
type Zone string

const (
	ZoneRaw       Zone = "raw"
	ZoneClean     Zone = "clean"
	ZoneEnriched  Zone = "enriched"
	ZoneAnalytics Zone = "analytics"
)

// Key addresses one artifact. Period is a slash separated day (2024/5/3), month (2024/5)
// or a range (2024-05-01_2024-05-10).
type Key struct {
	Zone   Zone
	Kind   string
	Period string
}

// DayKey returns the key of a date partition, following the year/month/day convention.
func DayKey(zone Zone, kind string, date time.Time) Key {
	y, m, d := date.Date()
	return Key{Zone: zone, Kind: kind, Period: fmt.Sprintf("%d/%d/%d", y, int(m), d)}
}

// MonthKey returns the key of a monthly artifact.
func MonthKey(zone Zone, kind string, year, month int) Key {
	return Key{Zone: zone, Kind: kind, Period: fmt.Sprintf("%d/%d", year, month)}
}

// RangeKey returns the key of an artifact covering [start, end].
func RangeKey(zone Zone, kind string, start, end time.Time) Key {
	return Key{Zone: zone, Kind: kind, Period: start.Format(model.DateLayout) + "_" + end.Format(model.DateLayout)}
}

func (k Key) String() string {
	return string(k.Zone) + "/" + k.Kind + "/" + k.Period
}

// Date returns the partition date of a day key.
func (k Key) Date() (time.Time, bool) {
	parts := strings.Split(k.Period, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	var y, m, d int
	if _, err := fmt.Sscanf(k.Period, "%d/%d/%d", &y, &m, &d); err != nil {
		return time.Time{}, false
	}
	t := model.Date(y, time.Month(m), d)
	if t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func parseKey(s string) (Key, bool) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[2] == "" {
		return Key{}, false
	}
	return Key{Zone: Zone(parts[0]), Kind: parts[1], Period: parts[2]}, true
}

func prefixOf(zone Zone, kind string) string {
	return string(zone) + "/" + kind + "/"
}

// Store abstracts the artifact backend. Put overwrites, so re-running a stage for the same
// key replaces its previous output.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, data []byte) error
	Exists(ctx context.Context, key Key) (bool, error)
	List(ctx context.Context, zone Zone, kind string) ([]Key, error)
	Close() error
}

func notFound(key Key) error {
	return fmt.Errorf("%w: %s", model.ErrMissingSource, key)
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
}

// InMemoryStore is a simple thread-safe map store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[Key][]byte)}
}

func (s *InMemoryStore) Get(_ context.Context, key Key) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, notFound(key)
	}
	return append([]byte(nil), v...), nil
}

func (s *InMemoryStore) Put(_ context.Context, key Key, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

func (s *InMemoryStore) Exists(_ context.Context, key Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

func (s *InMemoryStore) List(_ context.Context, zone Zone, kind string) ([]Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []Key
	for k := range s.data {
		if k.Zone == zone && k.Kind == kind {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys, nil
}

func (s *InMemoryStore) Close() error { return nil }
