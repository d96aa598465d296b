package codec

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ssargent/stash/pkg/buffer"
)

// FallbackVersion identifies the payload encoding of the fallback codec. It is written in
// front of every payload so a later encoding can coexist with logs written today.
const FallbackVersion byte = 1

// PutAny writes v as [u32 length][version][msgpack payload]
func PutAny(target *buffer.Buffer, v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: cannot serialize %T: %v", ErrInvalidArgument, v, err)
	}
	if uint64(len(payload))+1 > uint64(^uint32(0)) {
		return fmt.Errorf("%w: %T serializes to %d bytes", ErrInvalidArgument, v, len(payload))
	}
	start := target.Position()
	if err := target.PutUint32(uint32(len(payload) + 1)); err != nil {
		return err
	}
	if err := target.PutByte(FallbackVersion); err != nil {
		_ = target.SetPosition(start)
		return err
	}
	if err := target.PutBytes(payload); err != nil {
		_ = target.SetPosition(start)
		return err
	}
	return nil
}

// AnyOf reads a value of type t written by PutAny. A nil type decodes into an untyped
// value.
func AnyOf(source *buffer.Buffer, t reflect.Type) (any, error) {
	n, err := source.GetUint32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty fallback block", ErrDeserialize)
	}
	if uint64(n) > uint64(source.Remaining()) {
		return nil, fmt.Errorf("%w: fallback block of %d bytes exceeds %d remaining", buffer.ErrUnderflow, n, source.Remaining())
	}
	block, err := source.GetBytes(int(n))
	if err != nil {
		return nil, err
	}
	if block[0] != FallbackVersion {
		return nil, fmt.Errorf("%w: unknown fallback version %d", ErrDeserialize, block[0])
	}
	if t == nil {
		t = reflect.TypeFor[any]()
	}
	ptr := reflect.New(t)
	if err := msgpack.Unmarshal(block[1:], ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeserialize, t, err)
	}
	return ptr.Elem().Interface(), nil
}

// fallbackCodec serves every type nothing else matches
func fallbackCodec() *Codec {
	return &Codec{
		Name:   "msgpack",
		Kind:   KindFallback,
		Encode: PutAny,
		Decode: AnyOf,
	}
}
