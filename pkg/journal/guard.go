package journal

import "sync"

// Guard serializes access to a journal shared between goroutines. Every call takes the
// write lock, volatile ones included, since a volatile method may still change the
// subject. Direct volatile methods take no lock at all and must be safe to run alongside
// anything else the subject does.
type Guard[S any] struct {
	mu      sync.RWMutex
	journal *Journal[S]
}

// NewGuard wraps j
func NewGuard[S any](j *Journal[S]) *Guard[S] {
	return &Guard[S]{journal: j}
}

// Call is Journal.Call under the guard's lock
func (g *Guard[S]) Call(m *Method[S], args ...any) (any, error) {
	if m != nil && m.sig.Volatile && m.sig.Direct {
		if !g.journal.schema.owns(m) {
			return nil, ErrInvalidArgument
		}
		call, err := m.checkArgs(args)
		if err != nil {
			return nil, err
		}
		return g.journal.forward(m, call)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.journal.Call(m, args...)
}

// Read runs fn with the read lock held, for callers that inspect or persist the log
func (g *Guard[S]) Read(fn func(j *Journal[S]) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(g.journal)
}

// Journal returns the guarded journal. Using it directly bypasses the lock.
func (g *Guard[S]) Journal() *Journal[S] {
	return g.journal
}
