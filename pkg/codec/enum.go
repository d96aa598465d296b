package codec

import (
	"fmt"
	"reflect"

	"github.com/ssargent/stash/pkg/buffer"
)

// MaxEnumConstants is the largest enumeration a one-byte ordinal can address
const MaxEnumConstants = 256

// EnumType declares a Go type as an enumeration: a fixed, ordered list of constants. The
// ordinal of a constant is its index in the list.
type EnumType struct {
	typ     reflect.Type
	values  []any
	ordinal func(v any) (int, bool)
}

// Enum declares T as an enumeration with the given constants in ordinal order
func Enum[T comparable](values ...T) EnumType {
	index := make(map[T]int, len(values))
	boxed := make([]any, len(values))
	for i, v := range values {
		if _, dup := index[v]; !dup {
			index[v] = i
		}
		boxed[i] = v
	}
	return EnumType{
		typ:    reflect.TypeFor[T](),
		values: boxed,
		ordinal: func(v any) (int, bool) {
			x, ok := v.(T)
			if !ok {
				return 0, false
			}
			i, ok := index[x]
			return i, ok
		},
	}
}

// Type returns the declared Go type
func (e EnumType) Type() reflect.Type {
	return e.typ
}

// Len returns the number of constants
func (e EnumType) Len() int {
	return len(e.values)
}

// enumCodec is the single codec shared by all declared enumerations
func enumCodec(enums map[reflect.Type]EnumType) *Codec {
	return &Codec{
		Name: "ordinal",
		Kind: KindEnum,
		Encode: func(target *buffer.Buffer, v any) error {
			e, ok := enums[reflect.TypeOf(v)]
			if !ok {
				return mismatch("enum", v)
			}
			i, ok := e.ordinal(v)
			if !ok {
				return fmt.Errorf("%w: %v is not a constant of %s", ErrInvalidArgument, v, e.typ)
			}
			if i >= MaxEnumConstants {
				return fmt.Errorf("%w: ordinal %d of %s does not fit a byte", ErrInvalidArgument, i, e.typ)
			}
			return target.PutByte(byte(i))
		},
		Decode: func(source *buffer.Buffer, t reflect.Type) (any, error) {
			e, ok := enums[t]
			if !ok {
				return nil, fmt.Errorf("%w: %s is not a declared enumeration", ErrInvalidArgument, t)
			}
			b, err := source.GetByte()
			if err != nil {
				return nil, err
			}
			if int(b) >= len(e.values) {
				return nil, fmt.Errorf("%w: ordinal %d out of range for %s (%d constants)", ErrCorrupt, b, e.typ, len(e.values))
			}
			return e.values[b], nil
		},
	}
}
