package codec

import (
	"fmt"
	"math"
	"reflect"

	"github.com/ssargent/stash/pkg/buffer"
)

// MaxNaturalLen is the longest encoding of a natural number (a full uint64)
const MaxNaturalLen = 10

// PutNatural writes a non-negative integer in 7-bit groups, low group first, with the
// high bit of every byte but the last set. A negative value writes nothing.
func PutNatural(target *buffer.Buffer, v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: natural number must not be negative, got %d", ErrInvalidArgument, v)
	}
	return PutNaturalUint(target, uint64(v))
}

// PutNaturalUint is PutNatural for unsigned values
func PutNaturalUint(target *buffer.Buffer, v uint64) error {
	var scratch [MaxNaturalLen]byte
	n := 0
	for v > 0x7F {
		scratch[n] = byte(v&0x7F) | 0x80
		v >>= 7
		n++
	}
	scratch[n] = byte(v)
	return target.PutBytes(scratch[:n+1])
}

// NaturalLen returns the number of bytes PutNaturalUint writes for v
func NaturalLen(v uint64) int {
	n := 1
	for v > 0x7F {
		v >>= 7
		n++
	}
	return n
}

// NaturalUint reads a natural number written by PutNaturalUint
func NaturalUint(source *buffer.Buffer) (uint64, error) {
	var result uint64
	for shift := uint(0); ; shift += 7 {
		if shift >= 64 {
			return 0, fmt.Errorf("%w: natural number longer than %d bytes", ErrCorrupt, MaxNaturalLen)
		}
		b, err := source.GetByte()
		if err != nil {
			return 0, err
		}
		group := uint64(b & 0x7F)
		if shift == 63 && group > 1 {
			return 0, fmt.Errorf("%w: natural number overflows 64 bits", ErrCorrupt)
		}
		result |= group << shift
		if b&0x80 == 0 {
			return result, nil
		}
	}
}

// Natural reads a natural number that must fit an int64
func Natural(source *buffer.Buffer) (int64, error) {
	v, err := NaturalUint(source)
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: natural number %d overflows int64", ErrCorrupt, v)
	}
	return int64(v), nil
}

// naturalCodec serves one integer type. Signed values reject negatives, and decoded
// values that overflow the target type are corrupt.
func naturalCodec(t reflect.Type) *Codec {
	name := "natural " + t.String()
	return &Codec{
		Name: name,
		Kind: KindNatural,
		Type: t,
		Encode: func(target *buffer.Buffer, v any) error {
			rv := reflect.ValueOf(v)
			if !rv.IsValid() || rv.Type() != t {
				return mismatch(name, v)
			}
			if rv.CanInt() {
				return PutNatural(target, rv.Int())
			}
			return PutNaturalUint(target, rv.Uint())
		},
		Decode: func(source *buffer.Buffer, _ reflect.Type) (any, error) {
			u, err := NaturalUint(source)
			if err != nil {
				return nil, err
			}
			out := reflect.New(t).Elem()
			switch t.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
					return nil, fmt.Errorf("%w: natural number %d overflows %s", ErrCorrupt, u, t)
				}
				out.SetInt(int64(u))
			default:
				if out.OverflowUint(u) {
					return nil, fmt.Errorf("%w: natural number %d overflows %s", ErrCorrupt, u, t)
				}
				out.SetUint(u)
			}
			return out.Interface(), nil
		},
	}
}

func naturalTypes() []reflect.Type {
	return []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[int32](),
		reflect.TypeFor[int64](),
		reflect.TypeFor[uint](),
		reflect.TypeFor[uint32](),
		reflect.TypeFor[uint64](),
	}
}
