// Package wellknown provides plugin codecs for common library types that have no natural
// structured encoding: UUIDs, KSUIDs, times, durations and big integers.
//
// Hand them to a registry with
//
//	codec.NewRegistry(codec.RegistryConfig{Plugins: wellknown.Codecs()})
package wellknown

import (
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/stash/pkg/buffer"
	"github.com/ssargent/stash/pkg/codec"
)

var (
	// UUID writes the 16 raw bytes
	UUID = codec.Custom("uuid", putUUID, getUUID)
	// KSUID writes the 20 raw bytes
	KSUID = codec.Custom("ksuid", putKSUID, getKSUID)
	// Time writes Unix seconds and nanoseconds. The location is not kept; times decode
	// in UTC.
	Time = codec.Custom("time", putTime, getTime)
	// Duration writes the nanoseconds as a signed 64-bit value
	Duration = codec.Custom("duration", putDuration, getDuration)
	// BigInt writes a sign byte followed by the natural-length-prefixed magnitude
	BigInt = codec.Custom("bigint", putBigInt, getBigInt)
)

// Codecs returns every codec of this package
func Codecs() []*codec.Codec {
	return []*codec.Codec{UUID, KSUID, Time, Duration, BigInt}
}

func putUUID(target *buffer.Buffer, id uuid.UUID) error {
	return target.PutBytes(id[:])
}

func getUUID(source *buffer.Buffer) (uuid.UUID, error) {
	raw, err := source.GetBytes(len(uuid.Nil))
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(raw)
}

func putKSUID(target *buffer.Buffer, id ksuid.KSUID) error {
	return target.PutBytes(id.Bytes())
}

func getKSUID(source *buffer.Buffer) (ksuid.KSUID, error) {
	raw, err := source.GetBytes(len(ksuid.Nil))
	if err != nil {
		return ksuid.Nil, err
	}
	id, err := ksuid.FromBytes(raw)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("%w: %v", codec.ErrCorrupt, err)
	}
	return id, nil
}

func putTime(target *buffer.Buffer, t time.Time) error {
	if err := target.PutUint64(uint64(t.Unix())); err != nil {
		return err
	}
	return target.PutUint32(uint32(t.Nanosecond()))
}

func getTime(source *buffer.Buffer) (time.Time, error) {
	sec, err := source.GetUint64()
	if err != nil {
		return time.Time{}, err
	}
	nsec, err := source.GetUint32()
	if err != nil {
		return time.Time{}, err
	}
	if nsec >= uint32(time.Second) {
		return time.Time{}, fmt.Errorf("%w: %d nanoseconds", codec.ErrCorrupt, nsec)
	}
	return time.Unix(int64(sec), int64(nsec)).UTC(), nil
}

func putDuration(target *buffer.Buffer, d time.Duration) error {
	return target.PutUint64(uint64(d))
}

func getDuration(source *buffer.Buffer) (time.Duration, error) {
	v, err := source.GetUint64()
	return time.Duration(v), err
}

func putBigInt(target *buffer.Buffer, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("%w: nil *big.Int", codec.ErrInvalidArgument)
	}
	if err := target.PutByte(byte(v.Sign() + 1)); err != nil {
		return err
	}
	return codec.PutByteSlice(target, v.Bytes())
}

func getBigInt(source *buffer.Buffer) (*big.Int, error) {
	sign, err := source.GetByte()
	if err != nil {
		return nil, err
	}
	if sign > 2 {
		return nil, fmt.Errorf("%w: big integer sign byte %d", codec.ErrCorrupt, sign)
	}
	magnitude, err := codec.ByteSlice(source)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(magnitude)
	if sign == 0 {
		v.Neg(v)
	}
	return v, nil
}
