package codec

import (
	"fmt"
	"math"
	"reflect"

	"github.com/ssargent/stash/pkg/buffer"
)

// basic builds a primitive codec for T that also serves *T. Encoding accepts either form;
// decoding produces whichever form the call site declares.
func basic[T any](name string, enc func(*buffer.Buffer, T) error, dec func(*buffer.Buffer) (T, error)) *Codec {
	return &Codec{
		Name: name,
		Kind: KindPrimitive,
		Type: reflect.TypeFor[T](),
		Encode: func(target *buffer.Buffer, v any) error {
			switch x := v.(type) {
			case T:
				return enc(target, x)
			case *T:
				if x == nil {
					return fmt.Errorf("%w: nil *%s", ErrInvalidArgument, name)
				}
				return enc(target, *x)
			default:
				return mismatch(name, v)
			}
		},
		Decode: func(source *buffer.Buffer, t reflect.Type) (any, error) {
			x, err := dec(source)
			if err != nil {
				return nil, err
			}
			if t != nil && t.Kind() == reflect.Pointer {
				return &x, nil
			}
			return x, nil
		},
	}
}

// PutBool writes 1 for true and 0 for false
func PutBool(target *buffer.Buffer, v bool) error {
	if v {
		return target.PutByte(1)
	}
	return target.PutByte(0)
}

// Bool reads a boolean; only the byte 1 is true
func Bool(source *buffer.Buffer) (bool, error) {
	b, err := source.GetByte()
	if err != nil {
		return false, err
	}
	return b == 1, nil
}

// PutString writes the natural length of the UTF-8 bytes followed by the bytes
func PutString(target *buffer.Buffer, s string) error {
	if err := PutNaturalUint(target, uint64(len(s))); err != nil {
		return err
	}
	return target.PutBytes([]byte(s))
}

// String reads a string written by PutString
func String(source *buffer.Buffer) (string, error) {
	raw, err := ByteSlice(source)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// PutByteSlice writes the natural length followed by the bytes
func PutByteSlice(target *buffer.Buffer, p []byte) error {
	if err := PutNaturalUint(target, uint64(len(p))); err != nil {
		return err
	}
	return target.PutBytes(p)
}

// ByteSlice reads a byte slice written by PutByteSlice
func ByteSlice(source *buffer.Buffer) ([]byte, error) {
	n, err := NaturalUint(source)
	if err != nil {
		return nil, err
	}
	if n > uint64(source.Remaining()) {
		return nil, fmt.Errorf("%w: length %d exceeds %d remaining bytes", buffer.ErrUnderflow, n, source.Remaining())
	}
	return source.GetBytes(int(n))
}

// slice builds a length-prefixed codec for a slice of fixed-width elements
func slice[E any](name string, width int, enc func(*buffer.Buffer, E) error, dec func(*buffer.Buffer) (E, error)) *Codec {
	return &Codec{
		Name: name,
		Kind: KindPrimitive,
		Type: reflect.TypeFor[[]E](),
		Encode: func(target *buffer.Buffer, v any) error {
			xs, ok := v.([]E)
			if !ok {
				return mismatch(name, v)
			}
			if err := PutNaturalUint(target, uint64(len(xs))); err != nil {
				return err
			}
			for _, x := range xs {
				if err := enc(target, x); err != nil {
					return err
				}
			}
			return nil
		},
		Decode: func(source *buffer.Buffer, _ reflect.Type) (any, error) {
			n, err := NaturalUint(source)
			if err != nil {
				return nil, err
			}
			if n > uint64(source.Remaining()/width) {
				return nil, fmt.Errorf("%w: %d elements exceed %d remaining bytes", buffer.ErrUnderflow, n, source.Remaining())
			}
			xs := make([]E, n)
			for i := range xs {
				if xs[i], err = dec(source); err != nil {
					return nil, err
				}
			}
			return xs, nil
		},
	}
}

func putInt8(b *buffer.Buffer, v int8) error   { return b.PutByte(byte(v)) }
func putUint8(b *buffer.Buffer, v uint8) error { return b.PutByte(v) }
func putInt16(b *buffer.Buffer, v int16) error { return b.PutUint16(uint16(v)) }
func putInt32(b *buffer.Buffer, v int32) error { return b.PutUint32(uint32(v)) }
func putInt64(b *buffer.Buffer, v int64) error { return b.PutUint64(uint64(v)) }
func putInt(b *buffer.Buffer, v int) error     { return b.PutUint64(uint64(v)) }
func putUint(b *buffer.Buffer, v uint) error   { return b.PutUint64(uint64(v)) }

func putFloat32(b *buffer.Buffer, v float32) error { return b.PutUint32(math.Float32bits(v)) }
func putFloat64(b *buffer.Buffer, v float64) error { return b.PutUint64(math.Float64bits(v)) }

func getInt8(b *buffer.Buffer) (int8, error) {
	v, err := b.GetByte()
	return int8(v), err
}

func getInt16(b *buffer.Buffer) (int16, error) {
	v, err := b.GetUint16()
	return int16(v), err
}

func getInt32(b *buffer.Buffer) (int32, error) {
	v, err := b.GetUint32()
	return int32(v), err
}

func getInt64(b *buffer.Buffer) (int64, error) {
	v, err := b.GetUint64()
	return int64(v), err
}

func getInt(b *buffer.Buffer) (int, error) {
	v, err := b.GetUint64()
	if err != nil {
		return 0, err
	}
	if int64(v) > math.MaxInt || int64(v) < math.MinInt {
		return 0, fmt.Errorf("%w: %d overflows int", ErrCorrupt, int64(v))
	}
	return int(int64(v)), nil
}

func getUint(b *buffer.Buffer) (uint, error) {
	v, err := b.GetUint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint {
		return 0, fmt.Errorf("%w: %d overflows uint", ErrCorrupt, v)
	}
	return uint(v), nil
}

func getFloat32(b *buffer.Buffer) (float32, error) {
	v, err := b.GetUint32()
	return math.Float32frombits(v), err
}

func getFloat64(b *buffer.Buffer) (float64, error) {
	v, err := b.GetUint64()
	return math.Float64frombits(v), err
}

// basics returns the built-in codecs in listing order. Scalar codecs are registered for
// both T and *T by the registry.
func basics() (scalars []*Codec, others []*Codec) {
	scalars = []*Codec{
		basic("bool", PutBool, Bool),
		basic("int8", putInt8, getInt8),
		basic("uint8", putUint8, (*buffer.Buffer).GetByte),
		basic("int16", putInt16, getInt16),
		basic("uint16", (*buffer.Buffer).PutUint16, (*buffer.Buffer).GetUint16),
		basic("int32", putInt32, getInt32),
		basic("uint32", (*buffer.Buffer).PutUint32, (*buffer.Buffer).GetUint32),
		basic("int64", putInt64, getInt64),
		basic("uint64", (*buffer.Buffer).PutUint64, (*buffer.Buffer).GetUint64),
		basic("int", putInt, getInt),
		basic("uint", putUint, getUint),
		basic("float32", putFloat32, getFloat32),
		basic("float64", putFloat64, getFloat64),
		basic("string", PutString, String),
	}
	bytes := &Codec{
		Name: "bytes",
		Kind: KindPrimitive,
		Type: reflect.TypeFor[[]byte](),
		Encode: func(target *buffer.Buffer, v any) error {
			p, ok := v.([]byte)
			if !ok {
				return mismatch("bytes", v)
			}
			return PutByteSlice(target, p)
		},
		Decode: func(source *buffer.Buffer, _ reflect.Type) (any, error) {
			return ByteSlice(source)
		},
	}
	others = []*Codec{
		bytes,
		slice("[]int16", 2, putInt16, getInt16),
		slice("[]int32", 4, putInt32, getInt32),
		slice("[]int64", 8, putInt64, getInt64),
		slice("[]float32", 4, putFloat32, getFloat32),
		slice("[]float64", 8, putFloat64, getFloat64),
	}
	return scalars, others
}
