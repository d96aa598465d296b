package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ssargent/stash/pkg/clock"
)

// FileExt is the extension of snapshot files
const FileExt = ".stash"

// FileStore keeps one <name>.stash file per journal in a directory. Saves go to a
// temporary file which is fsynced and renamed over the old snapshot.
type FileStore struct {
	dir    string
	clock  clock.Clock
	logger *slog.Logger
	mutex  sync.Mutex
	closed bool
}

// NewFileStore creates the directory if needed and returns a store rooted there
func NewFileStore(dir string, c clock.Clock, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	c, logger = defaults(c, logger)
	return &FileStore{dir: dir, clock: c, logger: logger}, nil
}

// Dir returns the snapshot directory
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+FileExt)
}

// Save writes data as the current snapshot of name
func (s *FileStore) Save(name string, data []byte) (Snapshot, error) {
	if err := validateName(name); err != nil {
		return Snapshot{}, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
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

	target := s.path(name)
	tmp := target + ".tmp"
	w, err := NewFrameWriter(FrameWriterConfig{FilePath: tmp, BufferSize: frame.Size()})
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := w.Write(frame); err != nil {
		_ = w.Close()
		_ = os.Remove(tmp)
		return Snapshot{}, err
	}
	if err := w.Close(); err != nil {
		_ = os.Remove(tmp)
		return Snapshot{}, err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return Snapshot{}, err
	}

	snap := frame.Snapshot()
	s.logger.Debug("saved snapshot", "journal", name, "id", snap.ID.String(), "bytes", snap.Size)
	return snap, nil
}

// Load reads the current snapshot of name
func (s *FileStore) Load(name string) ([]byte, Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, Snapshot{}, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil, Snapshot{}, ErrClosed
	}

	r, err := NewFrameReader(FrameReaderConfig{FilePath: s.path(name)})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, Snapshot{}, err
	}
	defer r.Close()

	frame, err := r.ReadNext()
	if err != nil {
		if err == io.EOF {
			return nil, Snapshot{}, fmt.Errorf("%w: empty snapshot file for %s", ErrCorruption, name)
		}
		return nil, Snapshot{}, err
	}
	if string(frame.Name) != name {
		return nil, Snapshot{}, fmt.Errorf("%w: file for %s holds %s", ErrCorruption, name, frame.Name)
	}
	return frame.Data, frame.Snapshot(), nil
}

// Names lists the journals with a snapshot, sorted
func (s *FileStore) Names() ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), FileExt)
		if validateName(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close marks the store closed
func (s *FileStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	return nil
}
