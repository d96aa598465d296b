package codec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ssargent/stash/pkg/buffer"
)

// Errors returned by codecs and the registry
var (
	// ErrInvalidArgument reports a value the caller must not pass, such as a negative
	// natural number or a nil pointer.
	ErrInvalidArgument = errors.New("codec: invalid argument")
	// ErrCorrupt reports bytes that cannot have been produced by the matching encoder.
	ErrCorrupt = errors.New("codec: corrupt data")
	// ErrDeserialize reports a fallback payload that could not be decoded.
	ErrDeserialize = errors.New("codec: deserialization failed")
	// ErrMissingCapability reports a type that implements only half of the structured
	// codec contract.
	ErrMissingCapability = errors.New("codec: missing structured capability")
	// ErrNotStructured reports a type that implements neither half of the structured
	// codec contract.
	ErrNotStructured = errors.New("codec: type is not structured")
)

// Kind tags the variant of a Codec
type Kind uint8

// Codec kinds, in no particular order
const (
	KindNatural Kind = iota + 1
	KindPrimitive
	KindEnum
	KindStructured
	KindFallback
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNatural:
		return "natural"
	case KindPrimitive:
		return "primitive"
	case KindEnum:
		return "enum"
	case KindStructured:
		return "structured"
	case KindFallback:
		return "fallback"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// EncodeFunc writes v into the target buffer
type EncodeFunc func(target *buffer.Buffer, v any) error

// DecodeFunc reads a value of type t from the source buffer
type DecodeFunc func(source *buffer.Buffer, t reflect.Type) (any, error)

// Codec is an explicit encode/decode pair for one type or family of types.
//
// Codecs are compared by pointer identity: a codec shared by several types (a primitive
// and its pointer form) is one *Codec.
type Codec struct {
	Name   string
	Kind   Kind
	Type   reflect.Type // nil for codecs that serve a family of types
	Encode EncodeFunc
	Decode DecodeFunc
}

func (c *Codec) String() string {
	if c.Type == nil {
		return fmt.Sprintf("%s{%s}", c.Kind, c.Name)
	}
	return fmt.Sprintf("%s{%s %s}", c.Kind, c.Name, c.Type)
}

// Key identifies what a parameter needs from the registry: its declared type and whether
// it is marked as a natural number.
type Key struct {
	Type    reflect.Type
	Natural bool
}

func (k Key) String() string {
	if k.Natural {
		return "@N " + k.Type.String()
	}
	return k.Type.String()
}

// KeyOf returns the plain key for T
func KeyOf[T any]() Key {
	return Key{Type: reflect.TypeFor[T]()}
}

// Custom builds a codec for T from a statically typed encoder and decoder. Use it for
// codecs supplied to the registry as custom or plugin codecs.
func Custom[T any](name string, enc func(*buffer.Buffer, T) error, dec func(*buffer.Buffer) (T, error)) *Codec {
	return &Codec{
		Name: name,
		Kind: KindCustom,
		Type: reflect.TypeFor[T](),
		Encode: func(target *buffer.Buffer, v any) error {
			x, ok := v.(T)
			if !ok {
				return mismatch(name, v)
			}
			return enc(target, x)
		},
		Decode: func(source *buffer.Buffer, _ reflect.Type) (any, error) {
			return dec(source)
		},
	}
}

func mismatch(name string, v any) error {
	return fmt.Errorf("%w: %s codec cannot encode %T", ErrInvalidArgument, name, v)
}
