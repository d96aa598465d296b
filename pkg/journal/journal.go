package journal

import (
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/ssargent/stash/pkg/buffer"
	"github.com/ssargent/stash/pkg/clock"
	"github.com/ssargent/stash/pkg/logging"
)

// CounterSize is the width of the commit counter at offset 0
const CounterSize = 8

// State is the state of a journal
type State uint8

const (
	Ready State = iota
	Recording
	Replaying
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Recording:
		return "recording"
	case Replaying:
		return "replaying"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Config holds the runtime collaborators of a journal
type Config struct {
	Clock   clock.Clock  // read once per call with a time parameter; defaults to clock.Real
	Logger  *slog.Logger // defaults to logging.Nop
	Metrics Recorder     // defaults to a recorder that does nothing
}

// Journal records the calls made through it on a subject into a buffer.
//
// A journal is not safe for concurrent use. Wrap it in a Guard to share it.
type Journal[S any] struct {
	schema  *Schema[S]
	subject S
	buf     *buffer.Buffer
	counter uint64
	state   State
	wrapper any
	clock   clock.Clock
	logger  *slog.Logger
	metrics Recorder
}

// Open binds subject to buf. An empty buffer starts a new log with a zero counter.
// Otherwise every committed entry is replayed against subject first. If replay fails
// no journal is returned.
func Open[S any](schema *Schema[S], subject S, buf *buffer.Buffer, cfg Config) (*Journal[S], error) {
	if schema == nil || buf == nil {
		return nil, fmt.Errorf("%w: schema and buffer are required", ErrInvalidArgument)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopRecorder{}
	}

	j := &Journal[S]{
		schema:  schema,
		subject: subject,
		buf:     buf,
		clock:   cfg.Clock,
		logger:  cfg.Logger.With("journal", schema.name),
		metrics: cfg.Metrics,
	}

	if buf.Len() == 0 {
		if err := buf.PutUint64(0); err != nil {
			return nil, fmt.Errorf("write commit counter: %w", err)
		}
		j.logger.Debug("started new log")
		return j, nil
	}

	if err := j.replay(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal[S]) replay() error {
	start := time.Now()
	j.state = Replaying
	defer func() {
		j.state = Ready
		j.buf.ResetLimit()
	}()

	if err := j.buf.SetPosition(0); err != nil {
		return err
	}
	j.buf.SetLimit(j.buf.Len())

	count, err := j.buf.GetUint64()
	if err != nil {
		return fmt.Errorf("read commit counter: %w", err)
	}
	if count > uint64(j.buf.Remaining()/4) {
		return fmt.Errorf("%w: counter %d exceeds what %d bytes can hold", ErrCorrupt, count, j.buf.Remaining())
	}

	for i := uint64(0); i < count; i++ {
		offset := j.buf.Position()
		m, err := j.schema.next(j.buf, i)
		if err != nil {
			return err
		}
		if _, err := m.spawn(j.subject, j.buf); err != nil {
			return fmt.Errorf("replay entry %d at %d: %w", i, offset, err)
		}
	}
	j.counter = count

	took := time.Since(start)
	j.metrics.Replayed(j.schema.name, count, took)
	j.logger.Debug("replayed log", "entries", count, "bytes", j.buf.Position(), "took", took)
	return nil
}

// Call invokes m on the subject.
//
// A volatile method is forwarded untouched. Any other call is written to the log, applied
// to the subject and then committed by advancing the counter. When the call fails the
// counter is unchanged and the partial entry is overwritten by the next call.
func (j *Journal[S]) Call(m *Method[S], args ...any) (any, error) {
	if !j.schema.owns(m) {
		return nil, fmt.Errorf("%w: method is not part of schema %s", ErrInvalidArgument, j.schema.name)
	}
	if j.state != Ready {
		return nil, fmt.Errorf("%w: %s called while %s", ErrBusy, m.sig.Name, j.state)
	}
	call, err := m.checkArgs(args)
	if err != nil {
		return nil, err
	}
	if m.sig.Volatile {
		return j.forward(m, call)
	}

	j.state = Recording
	defer func() { j.state = Ready }()

	start := time.Now()
	entry := j.buf.Position()
	result, err := j.record(m, call)
	if err != nil {
		_ = j.buf.SetPosition(entry)
		j.metrics.Failed(j.schema.name, m.sig.Name)
		j.logger.Debug("call not recorded", "method", m.sig.Name, "error", err)
		return nil, err
	}

	next := j.counter + 1
	if err := j.buf.PutUint64At(0, next); err != nil {
		_ = j.buf.SetPosition(entry)
		return nil, err
	}
	j.counter = next
	j.metrics.Committed(j.schema.name, m.sig.Name, time.Since(start))

	if m.sig.Chainable && j.isSubject(result) {
		return j.self(), nil
	}
	return result, nil
}

// record writes one entry and applies it to the subject, returning the call's result
func (j *Journal[S]) record(m *Method[S], call []any) (any, error) {
	if err := j.buf.PutUint32(uint32(m.id)); err != nil {
		return nil, err
	}
	verify := j.schema.verify
	mark := verify && len(m.sig.Params) > 0
	if mark {
		j.buf.Mark()
	}
	if m.timeIndex >= 0 {
		ms := clock.Millis(j.clock)
		if err := j.buf.PutUint64(uint64(ms)); err != nil {
			return nil, err
		}
		call[m.timeIndex] = timeValue(m.sig.Params[m.timeIndex].Type, ms)
	}
	for i, c := range m.codecs {
		if i == m.timeIndex {
			continue
		}
		if err := c.Encode(j.buf, call[i]); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", m.sig.Name, m.sig.Params[i], err)
		}
	}
	if !verify {
		return m.sig.Invoke(j.subject, call)
	}
	if mark {
		if err := j.buf.Reset(); err != nil {
			return nil, err
		}
	}
	return m.spawn(j.subject, j.buf)
}

// forward calls a volatile method without touching the log
func (j *Journal[S]) forward(m *Method[S], call []any) (any, error) {
	j.metrics.Volatile(j.schema.name, m.sig.Name)
	return m.sig.Invoke(j.subject, call)
}

func (j *Journal[S]) isSubject(result any) bool {
	subject := any(j.subject)
	if result == nil || subject == nil {
		return false
	}
	t := reflect.TypeOf(result)
	return t == reflect.TypeOf(subject) && t.Comparable() && result == subject
}

func (j *Journal[S]) self() any {
	if j.wrapper != nil {
		return j.wrapper
	}
	return j
}

// Bind sets the value chainable calls return in place of the subject, usually the
// wrapper type that owns the journal.
func (j *Journal[S]) Bind(wrapper any) {
	j.wrapper = wrapper
}

// Counter returns the number of committed entries
func (j *Journal[S]) Counter() uint64 { return j.counter }

// State returns the current state
func (j *Journal[S]) State() State { return j.state }

// Schema returns the compiled schema
func (j *Journal[S]) Schema() *Schema[S] { return j.schema }

// Subject returns the wrapped subject. Calls made on it directly are not recorded.
func (j *Journal[S]) Subject() S { return j.subject }

// Buffer returns the underlying buffer
func (j *Journal[S]) Buffer() *buffer.Buffer { return j.buf }

// Bytes returns the committed log: the counter and every entry up to the cursor. The
// slice aliases the buffer.
func (j *Journal[S]) Bytes() []byte {
	return j.buf.Bytes()[:j.buf.Position()]
}

// ReadCounter returns the commit counter of a log without replaying it
func ReadCounter(data []byte) (uint64, error) {
	if len(data) < CounterSize {
		return 0, fmt.Errorf("%w: %d bytes hold no commit counter", buffer.ErrUnderflow, len(data))
	}
	b, err := buffer.Wrap(data, 0)
	if err != nil {
		return 0, err
	}
	return b.GetUint64At(0)
}
