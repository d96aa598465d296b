package api

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/stash/pkg/codec"
	"github.com/ssargent/stash/pkg/journal"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Scanner decodes the entries of a log without replaying it. *journal.Schema satisfies it.
type Scanner interface {
	Name() string
	Scan(data []byte, fn func(journal.Entry) error) error
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port     int
	Bind     string
	APIKey   string               // empty disables authentication
	Schemas  []Scanner            // schemas used to decode journals of the same name
	Registry *codec.Registry      // listed by /codecs; defaults to the built-in registry
	Metrics  *prometheus.Registry // served on /metrics; defaults to the global registry
	Logger   *slog.Logger
}

// JournalSummary describes the current snapshot of one journal
type JournalSummary struct {
	Name     string      `json:"name"`
	Counter  uint64      `json:"counter"`
	Size     int         `json:"size"`
	Snapshot ksuid.KSUID `json:"snapshot"`
	Saved    time.Time   `json:"saved"`
}

// JournalDetail adds what a known schema can tell about the log
type JournalDetail struct {
	JournalSummary
	Schema  string            `json:"schema,omitempty"`
	Methods map[string]uint64 `json:"methods,omitempty"`
	Entries []EntryView       `json:"entries,omitempty"`
}

// EntryView is the JSON form of a decoded journal entry
type EntryView struct {
	Index    uint64     `json:"index"`
	Offset   int        `json:"offset"`
	Identity string     `json:"identity"`
	Method   string     `json:"method"`
	Time     *time.Time `json:"time,omitempty"`
	Args     []any      `json:"args"`
}

// CodecView is the JSON form of a registry codec
type CodecView struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Type string `json:"type,omitempty"`
}
