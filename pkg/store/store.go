package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ssargent/stash/pkg/clock"
	"github.com/ssargent/stash/pkg/logging"
)

// PebbleDir is the subdirectory of Config.Dir that holds the pebble database
const PebbleDir = "pebble"

// Open creates the store selected by config.Backend
func Open(config Config) (Store, error) {
	c, logger := defaults(config.Clock, config.Logger)

	switch strings.ToLower(config.Backend) {
	case "", BackendFile:
		s, err := NewFileStore(config.Dir, c, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendPebble:
		if config.Dir == "" {
			return nil, fmt.Errorf("pebble store: empty directory")
		}
		s, err := NewPebbleStore(filepath.Join(config.Dir, PebbleDir), c, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Backend)
	}
}

func defaults(c clock.Clock, logger *slog.Logger) (clock.Clock, *slog.Logger) {
	if c == nil {
		c = clock.Real{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return c, logger
}
