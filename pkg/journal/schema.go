package journal

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/ssargent/stash/pkg/buffer"
	"github.com/ssargent/stash/pkg/codec"
	"github.com/ssargent/stash/pkg/logging"
)

// Signature declares one method of the subject S.
//
// Invoke calls the method on the subject with arguments of the declared parameter types
// and returns its result, or nil for methods that return nothing.
type Signature[S any] struct {
	Name      string
	Params    []Param
	Volatile  bool // never recorded or replayed
	Chainable bool // returns the subject itself, fluent style
	Returns   bool
	Direct    bool // volatile method that Guard calls without taking its lock
	Invoke    func(subject S, args []any) (any, error)
}

// SchemaConfig configures Compile
type SchemaConfig struct {
	// Verify records calls by decoding the bytes just written and invoking the subject
	// with the decoded arguments, so recording runs the exact replay path.
	Verify bool

	// Comment and Embeds are descriptive metadata and do not affect the log.
	Comment string
	Embeds  string

	// Registry resolves parameter codecs. Defaults to codec.DefaultRegistry.
	Registry *codec.Registry

	Logger *slog.Logger
}

// DefaultSchemaConfig returns the default configuration, with verification enabled
func DefaultSchemaConfig() SchemaConfig {
	return SchemaConfig{Verify: true}
}

// Method is a compiled signature: its identity and the codec of every parameter
type Method[S any] struct {
	sig       Signature[S]
	id        Identity
	codecs    []*codec.Codec // nil at the time parameter
	timeIndex int            // -1 without a time parameter
}

func (m *Method[S]) Identity() Identity     { return m.id }
func (m *Method[S]) Name() string           { return m.sig.Name }
func (m *Method[S]) Params() []Param        { return m.sig.Params }
func (m *Method[S]) Volatile() bool         { return m.sig.Volatile }
func (m *Method[S]) Chainable() bool        { return m.sig.Chainable }
func (m *Method[S]) Returns() bool          { return m.sig.Returns }
func (m *Method[S]) Direct() bool           { return m.sig.Direct }
func (m *Method[S]) HasTimeParameter() bool { return m.timeIndex >= 0 }

// Codecs returns the codec of each parameter, nil for the time parameter
func (m *Method[S]) Codecs() []*codec.Codec {
	return m.codecs
}

func (m *Method[S]) String() string {
	params := make([]string, len(m.sig.Params))
	for i, p := range m.sig.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s(%s) #%s", m.sig.Name, strings.Join(params, ", "), m.id)
}

// decode reads the optional time and the parameters of one entry, positioned just after
// its identity
func (m *Method[S]) decode(source *buffer.Buffer) ([]any, error) {
	args := make([]any, len(m.sig.Params))
	if m.timeIndex >= 0 {
		ms, err := source.GetUint64()
		if err != nil {
			return nil, fmt.Errorf("%s: time: %w", m.sig.Name, err)
		}
		args[m.timeIndex] = timeValue(m.sig.Params[m.timeIndex].Type, int64(ms))
	}
	for i, c := range m.codecs {
		if i == m.timeIndex {
			continue
		}
		v, err := c.Decode(source, m.sig.Params[i].Type)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", m.sig.Name, m.sig.Params[i], err)
		}
		args[i] = v
	}
	return args, nil
}

// spawn is the replay routine: decode one entry and invoke it on the subject
func (m *Method[S]) spawn(subject S, source *buffer.Buffer) (any, error) {
	args, err := m.decode(source)
	if err != nil {
		return nil, err
	}
	return m.sig.Invoke(subject, args)
}

// Schema is the compiled, immutable description of a journaled subject
type Schema[S any] struct {
	name     string
	verify   bool
	comment  string
	embeds   string
	methods  []*Method[S]
	byName   map[string]*Method[S]
	dispatch map[Identity]*Method[S]
	registry *codec.Registry
	logger   *slog.Logger
}

// Compile validates the signatures, computes their identities and resolves a codec for
// every parameter of every recorded method. It fails with ErrHashCollision when two
// methods share an identity, so no log can ever be written with an ambiguous entry.
func Compile[S any](name string, sigs []Signature[S], cfg SchemaConfig) (*Schema[S], error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Registry == nil {
		cfg.Registry = codec.NewRegistry(codec.RegistryConfig{Logger: cfg.Logger})
	}

	s := &Schema[S]{
		name:     name,
		verify:   cfg.Verify,
		comment:  cfg.Comment,
		embeds:   cfg.Embeds,
		byName:   make(map[string]*Method[S], len(sigs)),
		dispatch: make(map[Identity]*Method[S], len(sigs)),
		registry: cfg.Registry,
		logger:   cfg.Logger.With("journal", name),
	}
	ids := make(map[Identity]*Method[S], len(sigs))

	for _, sig := range sigs {
		m, err := compileMethod(sig, cfg.Registry)
		if err != nil {
			return nil, err
		}
		if _, dup := s.byName[sig.Name]; dup {
			return nil, fmt.Errorf("%w: method %s declared twice", ErrInvalidSignature, sig.Name)
		}
		if other, clash := ids[m.id]; clash {
			return nil, fmt.Errorf("%w: %s and %s both hash to %s", ErrHashCollision, other, m, m.id)
		}
		ids[m.id] = m
		s.byName[sig.Name] = m
		s.methods = append(s.methods, m)
		if !sig.Volatile {
			s.dispatch[m.id] = m
		}
	}

	s.logger.Debug("compiled schema", "methods", len(s.methods), "recorded", len(s.dispatch), "verify", s.verify)
	return s, nil
}

func compileMethod[S any](sig Signature[S], registry *codec.Registry) (*Method[S], error) {
	if sig.Name == "" {
		return nil, fmt.Errorf("%w: empty method name", ErrInvalidSignature)
	}
	if sig.Invoke == nil {
		return nil, fmt.Errorf("%w: %s has no Invoke function", ErrInvalidSignature, sig.Name)
	}
	if sig.Chainable && !sig.Returns {
		return nil, fmt.Errorf("%w: chainable %s must return", ErrInvalidSignature, sig.Name)
	}
	if sig.Direct && !sig.Volatile {
		return nil, fmt.Errorf("%w: only volatile methods can be direct, %s is not", ErrInvalidSignature, sig.Name)
	}

	m := &Method[S]{
		sig:       sig,
		codecs:    make([]*codec.Codec, len(sig.Params)),
		timeIndex: -1,
	}
	for i, p := range sig.Params {
		if p.Type == nil {
			return nil, fmt.Errorf("%w: %s parameter %d has no type", ErrInvalidSignature, sig.Name, i)
		}
		if p.Time {
			if p.Natural {
				return nil, fmt.Errorf("%w: %s: time parameter %s cannot be natural", ErrInvalidSignature, sig.Name, p.Name)
			}
			if p.Type != int64Type && p.Type != timeType {
				return nil, fmt.Errorf("%w: %s: time parameter %s must be int64 or time.Time, not %s", ErrInvalidSignature, sig.Name, p.Name, p.Type)
			}
			if m.timeIndex >= 0 {
				return nil, fmt.Errorf("%w: %s has more than one time parameter", ErrInvalidSignature, sig.Name)
			}
			m.timeIndex = i
			continue
		}
		if sig.Volatile {
			continue
		}
		c, err := registry.Resolve(codec.Key{Type: p.Type, Natural: p.Natural})
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", sig.Name, p, err)
		}
		m.codecs[i] = c
	}
	m.id = Hash(sig.Name, sig.Params)
	return m, nil
}

func (s *Schema[S]) Name() string              { return s.name }
func (s *Schema[S]) Verify() bool              { return s.verify }
func (s *Schema[S]) Comment() string           { return s.comment }
func (s *Schema[S]) Embeds() string            { return s.embeds }
func (s *Schema[S]) Registry() *codec.Registry { return s.registry }

// Methods returns every method in declaration order
func (s *Schema[S]) Methods() []*Method[S] {
	return s.methods
}

// Method looks a method up by name
func (s *Schema[S]) Method(name string) (*Method[S], bool) {
	m, ok := s.byName[name]
	return m, ok
}

// MustMethod is Method for names known to be in the schema. It panics otherwise.
func (s *Schema[S]) MustMethod(name string) *Method[S] {
	m, ok := s.byName[name]
	if !ok {
		panic(fmt.Sprintf("journal: schema %s has no method %s", s.name, name))
	}
	return m
}

// Lookup returns the recorded method with the given identity. Volatile methods are never
// found.
func (s *Schema[S]) Lookup(id Identity) (*Method[S], bool) {
	m, ok := s.dispatch[id]
	return m, ok
}

func (s *Schema[S]) owns(m *Method[S]) bool {
	return m != nil && s.byName[m.sig.Name] == m
}

// Entry is one decoded call from a log
type Entry struct {
	Index    uint64
	Offset   int
	Identity Identity
	Method   string
	HasTime  bool
	Time     int64 // epoch milliseconds, when HasTime
	Args     []any
}

// Scan decodes every committed entry of a log without invoking anything and hands each
// to fn. It stops at the first error, including one returned by fn.
func (s *Schema[S]) Scan(data []byte, fn func(Entry) error) error {
	source, err := buffer.Wrap(data, 0)
	if err != nil {
		return err
	}
	count, err := source.GetUint64()
	if err != nil {
		return fmt.Errorf("read commit counter: %w", err)
	}
	for i := uint64(0); i < count; i++ {
		offset := source.Position()
		m, err := s.next(source, i)
		if err != nil {
			return err
		}
		args, err := m.decode(source)
		if err != nil {
			return fmt.Errorf("entry %d at %d: %w", i, offset, err)
		}
		e := Entry{Index: i, Offset: offset, Identity: m.id, Method: m.sig.Name, Args: args}
		if m.timeIndex >= 0 {
			e.HasTime = true
			e.Time = millisOf(args[m.timeIndex])
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// next reads an identity and finds its method
func (s *Schema[S]) next(source *buffer.Buffer, index uint64) (*Method[S], error) {
	offset := source.Position()
	raw, err := source.GetUint32()
	if err != nil {
		return nil, fmt.Errorf("entry %d at %d: %w", index, offset, err)
	}
	m, ok := s.dispatch[Identity(raw)]
	if !ok {
		return nil, fmt.Errorf("entry %d at %d: %s: %w", index, offset, Identity(raw), ErrUnknownMethod)
	}
	return m, nil
}

func millisOf(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case interface{ UnixMilli() int64 }:
		return t.UnixMilli()
	default:
		return 0
	}
}

// checkArgs verifies each argument against its declared type. A nil argument becomes the
// typed nil of a pointer, slice, map, chan or func parameter.
func (m *Method[S]) checkArgs(args []any) ([]any, error) {
	if len(args) != len(m.sig.Params) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidArgument, m.sig.Name, len(m.sig.Params), len(args))
	}
	call := make([]any, len(args))
	copy(call, args)
	for i, p := range m.sig.Params {
		if i == m.timeIndex {
			continue
		}
		if call[i] == nil {
			switch p.Type.Kind() {
			case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
				call[i] = reflect.Zero(p.Type).Interface()
				continue
			}
			return nil, fmt.Errorf("%w: %s: nil %s", ErrInvalidArgument, m.sig.Name, p)
		}
		if !reflect.TypeOf(call[i]).AssignableTo(p.Type) {
			return nil, fmt.Errorf("%w: %s: %T is not %s", ErrInvalidArgument, m.sig.Name, call[i], p)
		}
	}
	return call, nil
}
