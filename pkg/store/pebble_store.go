package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/ssargent/stash/pkg/clock"
)

// Key layout: every snapshot lives under keyPrefix + name. keyUpper is the first key
// past the prefix ('/' + 1 == '0').
var (
	keyPrefix = []byte("stash/")
	keyUpper  = []byte("stash0")
)

// PebbleStore keeps snapshots as frames in an embedded pebble database
type PebbleStore struct {
	db     *pebble.DB
	codec  *FrameCodec
	clock  clock.Clock
	logger *slog.Logger
	mutex  sync.RWMutex
}

// NewPebbleStore opens or creates the database at path
func NewPebbleStore(path string, c clock.Clock, logger *slog.Logger) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble store: %w", err)
	}
	c, logger = defaults(c, logger)
	return &PebbleStore{db: db, codec: NewFrameCodec(), clock: c, logger: logger}, nil
}

func pebbleKey(name string) []byte {
	key := make([]byte, 0, len(keyPrefix)+len(name))
	key = append(key, keyPrefix...)
	return append(key, name...)
}

// Save writes data as the current snapshot of name with a synced write
func (s *PebbleStore) Save(name string, data []byte) (Snapshot, error) {
	if err := validateName(name); err != nil {
		return Snapshot{}, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.db == nil {
		return Snapshot{}, ErrClosed
	}

	id, ts, err := stamp(s.clock)
	if err != nil {
		return Snapshot{}, err
	}
	frame, err := NewFrame(id, ts, name, data)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.db.Set(pebbleKey(name), s.codec.Encode(frame), pebble.Sync); err != nil {
		return Snapshot{}, err
	}

	snap := frame.Snapshot()
	s.logger.Debug("saved snapshot", "journal", name, "id", snap.ID.String(), "bytes", snap.Size)
	return snap, nil
}

// Load reads the current snapshot of name
func (s *PebbleStore) Load(name string) ([]byte, Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, Snapshot{}, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.db == nil {
		return nil, Snapshot{}, ErrClosed
	}

	value, closer, err := s.db.Get(pebbleKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, Snapshot{}, err
	}
	// value is only valid until closer is closed
	raw := make([]byte, len(value))
	copy(raw, value)
	if err := closer.Close(); err != nil {
		return nil, Snapshot{}, err
	}

	frame, err := s.codec.Decode(raw)
	if err != nil {
		return nil, Snapshot{}, err
	}
	if err := frame.Validate(); err != nil {
		return nil, Snapshot{}, err
	}
	if string(frame.Name) != name {
		return nil, Snapshot{}, fmt.Errorf("%w: key for %s holds %s", ErrCorruption, name, frame.Name)
	}
	return frame.Data, frame.Snapshot(), nil
}

// Names lists the journals with a snapshot, in key order
func (s *PebbleStore) Names() ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: keyPrefix, UpperBound: keyUpper})
	if err != nil {
		return nil, err
	}
	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, string(iter.Key()[len(keyPrefix):]))
	}
	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return nil, err
	}
	return names, iter.Close()
}

// Close closes the database
func (s *PebbleStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
