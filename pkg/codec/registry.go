package codec

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/ssargent/stash/pkg/logging"
)

// RegistryConfig holds everything a registry is built from. It is read once.
type RegistryConfig struct {
	Custom  []*Codec     // codecs supplied for this schema, highest precedence
	Plugins []*Codec     // codecs from plugin packages such as wellknown
	Enums   []EnumType   // types to treat as enumerations
	Logger  *slog.Logger // receives a warning whenever the fallback codec is resolved
}

// Registry maps parameter types to codecs.
//
// Resolution order, first match wins:
//  1. custom codecs, by exact type
//  2. plugin codecs, by exact type
//  3. built-in basic codecs (a primitive and its pointer share one codec)
//  4. the structured codec, when the type implements Stashable and Spawnable
//  5. the enum codec, when the type was declared with Enum
//  6. the fallback codec
//
// Natural keys only resolve to natural codecs. Results are memoized.
type Registry struct {
	customs    map[reflect.Type]*Codec
	customList []*Codec
	plugins    map[reflect.Type]*Codec
	pluginList []*Codec
	basics     map[reflect.Type]*Codec
	basicList  []*Codec
	naturals   map[reflect.Type]*Codec
	natList    []*Codec
	structured *Codec
	enum       *Codec
	enums      map[reflect.Type]EnumType
	fallback   *Codec
	logger     *slog.Logger

	mutex sync.Mutex
	cache map[Key]*Codec
}

// NewRegistry creates a registry from the given configuration
func NewRegistry(config RegistryConfig) *Registry {
	r := &Registry{
		customs:    make(map[reflect.Type]*Codec),
		plugins:    make(map[reflect.Type]*Codec),
		basics:     make(map[reflect.Type]*Codec),
		naturals:   make(map[reflect.Type]*Codec),
		enums:      make(map[reflect.Type]EnumType),
		structured: structuredCodec(),
		fallback:   fallbackCodec(),
		logger:     config.Logger,
		cache:      make(map[Key]*Codec),
	}
	if r.logger == nil {
		r.logger = logging.Nop()
	}

	r.customList = index(r.customs, config.Custom)
	r.pluginList = index(r.plugins, config.Plugins)

	scalars, others := basics()
	for _, c := range scalars {
		r.basics[c.Type] = c
		r.basics[reflect.PointerTo(c.Type)] = c
	}
	for _, c := range others {
		r.basics[c.Type] = c
	}
	r.basicList = append(scalars, others...)

	for _, t := range naturalTypes() {
		c := naturalCodec(t)
		r.naturals[t] = c
		r.natList = append(r.natList, c)
	}

	for _, e := range config.Enums {
		r.enums[e.typ] = e
	}
	r.enum = enumCodec(r.enums)
	return r
}

// DefaultRegistry creates a registry with only the built-in codecs
func DefaultRegistry() *Registry {
	return NewRegistry(RegistryConfig{})
}

// index registers codecs by type; a later codec for the same type replaces an earlier one
func index(m map[reflect.Type]*Codec, codecs []*Codec) []*Codec {
	var list []*Codec
	for _, c := range codecs {
		if c == nil || c.Type == nil {
			continue
		}
		if prev, ok := m[c.Type]; ok {
			for i := range list {
				if list[i] == prev {
					list = append(list[:i], list[i+1:]...)
					break
				}
			}
		}
		m[c.Type] = c
		list = append(list, c)
	}
	return list
}

// Resolve returns the codec for key, computing and caching it on first use.
//
// It fails when the type implements only half of the structured contract, or when a
// natural number is requested for a type that is not an integer.
func (r *Registry) Resolve(key Key) (*Codec, error) {
	if key.Type == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalidArgument)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if c, ok := r.cache[key]; ok {
		return c, nil
	}
	c, err := r.lookup(key)
	if err != nil {
		return nil, err
	}
	r.cache[key] = c
	return c, nil
}

// ResolveType resolves the plain key for t
func (r *Registry) ResolveType(t reflect.Type) (*Codec, error) {
	return r.Resolve(Key{Type: t})
}

func (r *Registry) lookup(key Key) (*Codec, error) {
	t := key.Type
	if key.Natural {
		if c, ok := r.naturals[t]; ok {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %s cannot be a natural number", ErrInvalidArgument, t)
	}
	if c, ok := r.customs[t]; ok {
		return c, nil
	}
	if c, ok := r.plugins[t]; ok {
		return c, nil
	}
	if c, ok := r.basics[t]; ok {
		return c, nil
	}
	err := CheckStructured(t)
	if err == nil {
		return r.structured, nil
	}
	if !errors.Is(err, ErrNotStructured) {
		return nil, err
	}
	if _, ok := r.enums[t]; ok {
		return r.enum, nil
	}
	r.logger.Warn("resolved fallback codec; consider a structured or custom codec",
		"type", t.String(), "codec", r.fallback.Name)
	return r.fallback, nil
}

// Codecs lists every active codec in resolution order, each exactly once
func (r *Registry) Codecs() []*Codec {
	seen := make(map[*Codec]bool)
	var all []*Codec
	add := func(cs ...*Codec) {
		for _, c := range cs {
			if !seen[c] {
				seen[c] = true
				all = append(all, c)
			}
		}
	}
	add(r.customList...)
	add(r.pluginList...)
	add(r.basicList...)
	add(r.natList...)
	add(r.structured)
	add(r.enum)
	add(r.fallback)
	return all
}

// Enums returns the declared enumerations
func (r *Registry) Enums() []EnumType {
	out := make([]EnumType, 0, len(r.enums))
	for _, e := range r.enums {
		out = append(out, e)
	}
	return out
}

func (r *Registry) String() string {
	var sb strings.Builder
	sb.WriteString("Registry{\n")
	for _, c := range r.Codecs() {
		sb.WriteString("  ")
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("}")
	return sb.String()
}
