package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// zoneDirs keeps the historical directory names of the data tree.
var zoneDirs = map[Zone]string{
	ZoneRaw:       "raw_data",
	ZoneClean:     "clean_data",
	ZoneEnriched:  "enriched_data",
	ZoneAnalytics: "analytics",
}

// FilesystemStore lays artifacts out as <root>/<zone dir>/<kind>/<period>.<ext>, e.g.
// data/raw_data/orders/2024/5/3.csv or data/clean_data/orders/2024/5/3.parquet.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &FilesystemStore{root: filepath.Clean(root)}, nil
}

func extFor(zone Zone) string {
	if zone == ZoneRaw {
		return ".csv"
	}
	return ".parquet"
}

func (f *FilesystemStore) kindDir(zone Zone, kind string) string {
	dir, ok := zoneDirs[zone]
	if !ok {
		dir = string(zone)
	}
	return filepath.Join(f.root, dir, kind)
}

// Path returns the file backing key.
func (f *FilesystemStore) Path(key Key) string {
	return filepath.Join(f.kindDir(key.Zone, key.Kind), filepath.FromSlash(key.Period)+extFor(key.Zone))
}

func (f *FilesystemStore) Get(_ context.Context, key Key) ([]byte, error) {
	b, err := os.ReadFile(f.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(key)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b, nil
}

// Put writes through a temp file and renames it over the target.
func (f *FilesystemStore) Put(_ context.Context, key Key, data []byte) error {
	path := f.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (f *FilesystemStore) Exists(_ context.Context, key Key) (bool, error) {
	_, err := os.Stat(f.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}

func (f *FilesystemStore) List(_ context.Context, zone Zone, kind string) ([]Key, error) {
	base := f.kindDir(zone, kind)
	ext := extFor(zone)
	var keys []Key
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == base {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		keys = append(keys, Key{Zone: zone, Kind: kind, Period: strings.TrimSuffix(filepath.ToSlash(rel), ext)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", zone, kind, err)
	}
	sortKeys(keys)
	return keys, nil
}

func (f *FilesystemStore) Close() error { return nil }
