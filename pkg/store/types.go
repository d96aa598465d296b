package store

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/stash/pkg/clock"
)

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendPebble = "pebble"
)

// Snapshot describes one saved journal log
type Snapshot struct {
	ID   ksuid.KSUID `json:"id"`
	Name string      `json:"name"`
	Time time.Time   `json:"time"`
	Size int         `json:"size"`
}

// Store persists journal logs by name. Each Save replaces the previous log of that name.
type Store interface {
	Save(name string, data []byte) (Snapshot, error)
	Load(name string) ([]byte, Snapshot, error)
	Names() ([]string, error)
	Close() error
}

// Config selects and configures a backend
type Config struct {
	Backend string       // "file" (default) or "pebble"
	Dir     string       // Directory holding the snapshots
	Clock   clock.Clock  // Stamps snapshots; defaults to the wall clock
	Logger  *slog.Logger // Defaults to a discarding logger
}

// FrameWriterConfig holds configuration for the frame writer
type FrameWriterConfig struct {
	FilePath   string // Path of the file to write
	BufferSize int    // Write buffer size
}

// FrameReaderConfig holds configuration for the frame reader
type FrameReaderConfig struct {
	FilePath    string // Path to the snapshot file
	StartOffset int64  // Offset to start reading from
}

// Errors
var (
	ErrNotFound    = &StoreError{"snapshot not found"}
	ErrInvalidName = &StoreError{"invalid journal name"}
	ErrCorruption  = &StoreError{"data corruption detected"}
	ErrClosed      = &StoreError{"store is closed"}
)

// StoreError represents a snapshot store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// validateName accepts names usable both as a file name and a pebble key suffix
func validateName(name string) error {
	if name == "" || len(name) > MaxNameSize {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

func timeOf(nanos uint64) time.Time {
	return time.Unix(0, int64(nanos)).UTC()
}

// stamp returns a new snapshot id and timestamp from c
func stamp(c clock.Clock) (ksuid.KSUID, uint64, error) {
	now := c.Now()
	id, err := ksuid.NewRandomWithTime(now)
	if err != nil {
		return ksuid.Nil, 0, err
	}
	return id, uint64(now.UnixNano()), nil
}
