package codec

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/stash/pkg/buffer"
)

func TestBasicCodecs_RoundTrip(t *testing.T) {
	r := DefaultRegistry()

	values := []any{
		true, false,
		int8(math.MinInt8), int8(math.MaxInt8),
		uint8(0), uint8(math.MaxUint8),
		int16(math.MinInt16), int16(math.MaxInt16),
		uint16(math.MaxUint16),
		int32(math.MinInt32), int32(-1), int32(math.MaxInt32),
		uint32(math.MaxUint32),
		int64(math.MinInt64), int64(math.MaxInt64),
		uint64(math.MaxUint64),
		int(math.MinInt), int(math.MaxInt),
		uint(math.MaxUint),
		float32(math.SmallestNonzeroFloat32), float32(-1.5), float32(math.MaxFloat32),
		float64(math.Pi), math.Inf(-1), float64(0),
		"", "ring", "🔑 unicode",
		[]byte{}, []byte{0x00, 0xFF},
		[]int16{-1, 0, 1}, []int32{math.MinInt32, 7}, []int64{math.MaxInt64},
		[]float32{1.25}, []float64{math.E, -0.5},
	}

	for _, v := range values {
		typ := reflect.TypeOf(v)
		c, err := r.ResolveType(typ)
		require.NoError(t, err, "resolve %s", typ)
		assert.Equal(t, KindPrimitive, c.Kind, "%s", typ)
		assert.Equal(t, v, roundTrip(t, c, v, typ))
	}
}

func TestBasicCodecs_Widths(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		value any
		width int
	}{
		{true, 1},
		{int8(1), 1},
		{int16(1), 2},
		{int32(1), 4},
		{float32(1), 4},
		{int64(1), 8},
		{int(1), 8},
		{uint(1), 8},
		{float64(1), 8},
		{"abc", 4},
		{[]int32{1, 2}, 9},
	}

	for _, tt := range tests {
		c, err := r.ResolveType(reflect.TypeOf(tt.value))
		require.NoError(t, err)
		b := buffer.New(0)
		require.NoError(t, c.Encode(b, tt.value))
		assert.Equal(t, tt.width, b.Len(), "%T", tt.value)
	}
}

func TestBasicCodecs_BigEndian(t *testing.T) {
	c, err := DefaultRegistry().ResolveType(reflect.TypeFor[int32]())
	require.NoError(t, err)

	b := buffer.New(0)
	require.NoError(t, c.Encode(b, int32(0x01020304)))
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b.Bytes())
}

func TestBool_OnlyOneIsTrue(t *testing.T) {
	for _, raw := range []byte{0x00, 0x02, 0xFF} {
		b, err := buffer.Wrap([]byte{raw}, 0)
		require.NoError(t, err)
		v, err := Bool(b)
		require.NoError(t, err)
		assert.False(t, v, "byte %#x", raw)
	}

	b := buffer.New(0)
	require.NoError(t, PutBool(b, true))
	assert.Equal(t, []byte{0x01}, b.Bytes())
}

func TestBasicCodecs_PointerSharesCodec(t *testing.T) {
	r := DefaultRegistry()

	value, err := r.ResolveType(reflect.TypeFor[int32]())
	require.NoError(t, err)
	pointer, err := r.ResolveType(reflect.TypeFor[*int32]())
	require.NoError(t, err)
	assert.Same(t, value, pointer)

	t.Run("pointer encodes like the value", func(t *testing.T) {
		x := int32(42)
		a, b := buffer.New(0), buffer.New(0)
		require.NoError(t, value.Encode(a, x))
		require.NoError(t, value.Encode(b, &x))
		assert.Equal(t, a.Bytes(), b.Bytes())
	})

	t.Run("decodes into the declared form", func(t *testing.T) {
		x := int32(42)
		out := roundTrip(t, value, &x, reflect.TypeFor[*int32]())
		require.IsType(t, &x, out)
		assert.Equal(t, x, *out.(*int32))
		assert.Equal(t, x, roundTrip(t, value, x, reflect.TypeFor[int32]()))
	})

	t.Run("nil pointer", func(t *testing.T) {
		var p *int32
		b := buffer.New(0)
		assert.ErrorIs(t, value.Encode(b, p), ErrInvalidArgument)
		assert.Equal(t, 0, b.Len())
	})
}

func TestBasicCodecs_Mismatch(t *testing.T) {
	c, err := DefaultRegistry().ResolveType(reflect.TypeFor[int32]())
	require.NoError(t, err)
	assert.ErrorIs(t, c.Encode(buffer.New(0), "not an int"), ErrInvalidArgument)
}

func TestBasicCodecs_Truncated(t *testing.T) {
	r := DefaultRegistry()

	t.Run("fixed width", func(t *testing.T) {
		c, err := r.ResolveType(reflect.TypeFor[int64]())
		require.NoError(t, err)
		b, err := buffer.Wrap([]byte{1, 2, 3}, 0)
		require.NoError(t, err)
		_, err = c.Decode(b, reflect.TypeFor[int64]())
		assert.ErrorIs(t, err, buffer.ErrUnderflow)
	})

	t.Run("string length beyond data", func(t *testing.T) {
		b, err := buffer.Wrap([]byte{0x05, 'a', 'b'}, 0)
		require.NoError(t, err)
		_, err = String(b)
		assert.ErrorIs(t, err, buffer.ErrUnderflow)
	})

	t.Run("slice length beyond data", func(t *testing.T) {
		c, err := r.ResolveType(reflect.TypeFor[[]int64]())
		require.NoError(t, err)
		b, err := buffer.Wrap([]byte{0x7F, 0, 0, 0, 0, 0, 0, 0, 1}, 0)
		require.NoError(t, err)
		_, err = c.Decode(b, reflect.TypeFor[[]int64]())
		assert.ErrorIs(t, err, buffer.ErrUnderflow)
	})
}
