package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleStore implements Store using PebbleDB. Keys are "<zone>/<kind>/<period>".
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	opts := &pebble.Options{
		// Few, large values: one artifact per partition.
		MemTableSize:          64 << 20,
		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 12,
	}
	d, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func (p *PebbleStore) Get(_ context.Context, key Key) ([]byte, error) {
	v, closer, err := p.db.Get([]byte(key.String()))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, notFound(key)
		}
		return nil, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

// Put syncs the WAL so an artifact reported as written survives a crash.
func (p *PebbleStore) Put(_ context.Context, key Key, data []byte) error {
	if err := p.db.Set([]byte(key.String()), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

func (p *PebbleStore) Exists(ctx context.Context, key Key) (bool, error) {
	_, err := p.Get(ctx, key)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (p *PebbleStore) List(_ context.Context, zone Zone, kind string) ([]Key, error) {
	prefix := []byte(prefixOf(zone, kind))
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upperBound(prefix)})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()
	var keys []Key
	for it.First(); it.Valid(); it.Next() {
		if k, ok := parseKey(string(it.Key())); ok {
			keys = append(keys, k)
		}
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	sortKeys(keys)
	return keys, nil
}

// upperBound returns the smallest key greater than every key carrying prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
