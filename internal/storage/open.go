package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"ecomflow/internal/model"
)

// Backend names accepted by Open.
const (
	BackendFilesystem = "fs"
	BackendPebble     = "pebble"
	BackendBadger     = "badger"
	BackendMemory     = "memory"
)

// Options selects and locates a backend.
type Options struct {
	Backend string
	// Root is the data directory. KV backends keep their files under Root/<backend>
	// unless Dir is set.
	Root string
	Dir  string
}

// Open builds the Store described by opts.
func Open(opts Options) (Store, error) {
	dir := opts.Dir
	if dir == "" {
		dir = filepath.Join(opts.Root, opts.Backend)
	}
	switch opts.Backend {
	case BackendFilesystem, "":
		return NewFilesystemStore(opts.Root)
	case BackendPebble:
		return NewPebbleStore(dir)
	case BackendBadger:
		return NewBadgerStore(dir)
	case BackendMemory:
		return NewInMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w: unknown storage backend %q", model.ErrMisconfiguredInput, opts.Backend)
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrMissingSource)
}
