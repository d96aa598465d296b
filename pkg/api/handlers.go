package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/stash/pkg/clock"
	"github.com/ssargent/stash/pkg/journal"
	"github.com/ssargent/stash/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListJournals summarizes every saved journal. Snapshots that cannot be read are
// logged and left out.
func (s *Server) handleListJournals(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.Names()
	if err != nil {
		sendError(w, "Failed to list journals", http.StatusInternalServerError)
		return
	}

	summaries := make([]JournalSummary, 0, len(names))
	for _, name := range names {
		_, summary, err := s.load(name)
		if err != nil {
			s.logger.Warn("skipping unreadable journal", "journal", name, "error", err)
			continue
		}
		summaries = append(summaries, summary)
	}
	sendSuccess(w, summaries)
}

func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	withEntries := false
	if raw := r.URL.Query().Get("entries"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			sendError(w, "Invalid entries parameter", http.StatusBadRequest)
			return
		}
		withEntries = v
	}

	data, summary, err := s.load(name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidName):
			sendError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, store.ErrNotFound):
			sendError(w, fmt.Sprintf("Journal %s not found", name), http.StatusNotFound)
		default:
			sendError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	detail := JournalDetail{JournalSummary: summary}
	if schema, ok := s.schemas[name]; ok {
		detail.Schema = schema.Name()
		detail.Methods = make(map[string]uint64)
		err := schema.Scan(data, func(e journal.Entry) error {
			detail.Methods[e.Method]++
			if withEntries {
				detail.Entries = append(detail.Entries, entryView(e))
			}
			return nil
		})
		if err != nil {
			sendError(w, fmt.Sprintf("Failed to decode journal %s: %v", name, err), http.StatusInternalServerError)
			return
		}
	}
	sendSuccess(w, detail)
}

func (s *Server) handleCodecs(w http.ResponseWriter, r *http.Request) {
	codecs := s.registry.Codecs()
	views := make([]CodecView, 0, len(codecs))
	for _, c := range codecs {
		view := CodecView{Name: c.Name, Kind: c.Kind.String()}
		if c.Type != nil {
			view.Type = c.Type.String()
		}
		views = append(views, view)
	}
	sendSuccess(w, views)
}

// load reads the snapshot of name and its commit counter
func (s *Server) load(name string) ([]byte, JournalSummary, error) {
	start := time.Now()
	data, snap, err := s.store.Load(name)
	if err != nil {
		s.metrics.RecordSnapshotLoad(false, time.Since(start))
		return nil, JournalSummary{}, err
	}
	counter, err := journal.ReadCounter(data)
	if err != nil {
		s.metrics.RecordSnapshotLoad(false, time.Since(start))
		return nil, JournalSummary{}, err
	}
	s.metrics.RecordSnapshotLoad(true, time.Since(start))

	return data, JournalSummary{
		Name:     name,
		Counter:  counter,
		Size:     snap.Size,
		Snapshot: snap.ID,
		Saved:    snap.Time,
	}, nil
}

func entryView(e journal.Entry) EntryView {
	v := EntryView{
		Index:    e.Index,
		Offset:   e.Offset,
		Identity: e.Identity.String(),
		Method:   e.Method,
		Args:     e.Args,
	}
	if e.HasTime {
		t := clock.FromMillis(e.Time)
		v.Time = &t
	}
	return v
}
