package codec

import (
	"bytes"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/stash/pkg/buffer"
)

type settings struct {
	Name    string
	Level   int
	Enabled bool
	Tags    []string
}

func TestFallbackCodec_RoundTrip(t *testing.T) {
	r := DefaultRegistry()

	values := []any{
		settings{Name: "ring", Level: 3, Enabled: true, Tags: []string{"a", "b"}},
		map[string]int{"one": 1, "two": 2},
		[]string{"x", "y"},
	}
	for _, v := range values {
		typ := reflect.TypeOf(v)
		c, err := r.ResolveType(typ)
		require.NoError(t, err)
		assert.Equal(t, KindFallback, c.Kind)
		assert.Equal(t, v, roundTrip(t, c, v, typ))
	}
}

func TestFallbackCodec_Framing(t *testing.T) {
	b := buffer.New(0)
	require.NoError(t, PutAny(b, "hi"))

	raw := b.Bytes()
	require.Greater(t, len(raw), 5)
	n := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	assert.Equal(t, len(raw)-4, int(n), "length covers version and payload")
	assert.Equal(t, FallbackVersion, raw[4])
}

func TestFallbackCodec_LogsWarning(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	r := NewRegistry(RegistryConfig{Logger: logger})

	_, err := r.ResolveType(reflect.TypeFor[settings]())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "fallback")
	assert.Contains(t, out.String(), "codec.settings")

	out.Reset()
	_, err = r.ResolveType(reflect.TypeFor[settings]())
	require.NoError(t, err)
	assert.Empty(t, out.String(), "cached resolutions do not warn again")
}

func TestFallbackCodec_Errors(t *testing.T) {
	typ := reflect.TypeFor[settings]()

	t.Run("unserializable value", func(t *testing.T) {
		b := buffer.New(0)
		assert.ErrorIs(t, PutAny(b, make(chan int)), ErrInvalidArgument)
		assert.Equal(t, 0, b.Len())
	})

	t.Run("unknown version", func(t *testing.T) {
		b, err := buffer.Wrap([]byte{0, 0, 0, 2, 2, 0xC0}, 0)
		require.NoError(t, err)
		_, err = AnyOf(b, typ)
		assert.ErrorIs(t, err, ErrDeserialize)
	})

	t.Run("empty block", func(t *testing.T) {
		b, err := buffer.Wrap([]byte{0, 0, 0, 0}, 0)
		require.NoError(t, err)
		_, err = AnyOf(b, typ)
		assert.ErrorIs(t, err, ErrDeserialize)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		b, err := buffer.Wrap([]byte{0, 0, 0, 2, FallbackVersion, 0xC1}, 0)
		require.NoError(t, err)
		_, err = AnyOf(b, typ)
		assert.ErrorIs(t, err, ErrDeserialize)
		assert.NotErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("truncated", func(t *testing.T) {
		b, err := buffer.Wrap([]byte{0, 0, 0, 9, FallbackVersion}, 0)
		require.NoError(t, err)
		_, err = AnyOf(b, typ)
		assert.ErrorIs(t, err, buffer.ErrUnderflow)
	})

	t.Run("capacity exceeded", func(t *testing.T) {
		b := buffer.New(6)
		assert.ErrorIs(t, PutAny(b, settings{Name: "too long for six bytes"}), buffer.ErrOverflow)
		assert.Equal(t, 0, b.Position())
	})
}

func TestAnyOf_Untyped(t *testing.T) {
	b := buffer.New(0)
	require.NoError(t, PutAny(b, "loose"))
	b.Flip()

	v, err := AnyOf(b, nil)
	require.NoError(t, err)
	assert.Equal(t, "loose", v)
}
