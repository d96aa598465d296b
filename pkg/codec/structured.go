package codec

import (
	"fmt"
	"reflect"

	"github.com/ssargent/stash/pkg/buffer"
)

// Stashable is implemented by values that write their own state into a buffer. The
// encoding must be self-delimiting: Spawn reads exactly what Stash wrote.
type Stashable interface {
	Stash(target *buffer.Buffer) error
}

// Spawnable is implemented by pointers to values that rebuild themselves purely from a
// buffer.
type Spawnable interface {
	Spawn(source *buffer.Buffer) error
}

var (
	stashableType = reflect.TypeFor[Stashable]()
	spawnableType = reflect.TypeFor[Spawnable]()
)

// CheckStructured reports whether t can use the structured codec.
//
// A value type T qualifies when T or *T implements Stashable and *T implements Spawnable;
// values of T are then stashed through an addressable copy. A pointer type *T qualifies
// when *T implements both. Implementing only one half returns ErrMissingCapability;
// implementing neither returns ErrNotStructured.
func CheckStructured(t reflect.Type) error {
	if t == nil || t.Kind() == reflect.Interface {
		return fmt.Errorf("%w: %v", ErrNotStructured, t)
	}
	stash := t.Implements(stashableType) || spawnTarget(t).Implements(stashableType)
	spawn := spawnTarget(t).Implements(spawnableType)
	switch {
	case stash && spawn:
		return nil
	case stash:
		return fmt.Errorf("%w: %s implements Stash but %s has no Spawn(*buffer.Buffer) error", ErrMissingCapability, t, spawnTarget(t))
	case spawn:
		return fmt.Errorf("%w: %s implements Spawn but %s has no Stash(*buffer.Buffer) error", ErrMissingCapability, spawnTarget(t), t)
	default:
		return fmt.Errorf("%w: %s", ErrNotStructured, t)
	}
}

// IsStructured is CheckStructured as a predicate
func IsStructured(t reflect.Type) bool {
	return CheckStructured(t) == nil
}

func spawnTarget(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t
	}
	return reflect.PointerTo(t)
}

// structuredCodec delegates to the value's own Stash and Spawn methods
func structuredCodec() *Codec {
	return &Codec{
		Name: "stashable",
		Kind: KindStructured,
		Encode: func(target *buffer.Buffer, v any) error {
			rv := reflect.ValueOf(v)
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				return fmt.Errorf("%w: nil %T", ErrInvalidArgument, v)
			}
			if s, ok := v.(Stashable); ok {
				return s.Stash(target)
			}
			if rv.IsValid() && rv.Kind() != reflect.Pointer {
				// Stash has a pointer receiver
				ptr := reflect.New(rv.Type())
				ptr.Elem().Set(rv)
				if s, ok := ptr.Interface().(Stashable); ok {
					return s.Stash(target)
				}
			}
			return mismatch("stashable", v)
		},
		Decode: func(source *buffer.Buffer, t reflect.Type) (any, error) {
			if t.Kind() == reflect.Pointer {
				ptr := reflect.New(t.Elem())
				if err := ptr.Interface().(Spawnable).Spawn(source); err != nil {
					return nil, err
				}
				return ptr.Interface(), nil
			}
			ptr := reflect.New(t)
			if err := ptr.Interface().(Spawnable).Spawn(source); err != nil {
				return nil, err
			}
			return ptr.Elem().Interface(), nil
		},
	}
}
