package store

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/segmentio/ksuid"
)

// HeaderSize is the fixed part of an encoded frame:
// CRC32(4) + NameSize(4) + DataSize(4) + Timestamp(8) + ID(20)
const HeaderSize = 40

// MaxNameSize bounds the journal name stored in a frame
const MaxNameSize = 255

// Frame wraps one snapshot of a journal log for storage
type Frame struct {
	CRC32     uint32      // CRC32 checksum of everything after this field
	NameSize  uint32      // Size of the journal name in bytes
	DataSize  uint32      // Size of the log bytes
	Timestamp uint64      // Unix timestamp in nanoseconds
	ID        ksuid.KSUID // Snapshot identifier
	Name      []byte      // Journal name
	Data      []byte      // Journal log bytes
}

// FrameCodec handles serialization and deserialization of frames
type FrameCodec struct{}

// NewFrameCodec creates a new frame codec instance
func NewFrameCodec() *FrameCodec {
	return &FrameCodec{}
}

// NewFrame creates a frame for the named log, stamped with id and timestamp
func NewFrame(id ksuid.KSUID, timestamp uint64, name string, data []byte) (*Frame, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if uint64(len(data)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("journal %q: %d bytes do not fit a frame", name, len(data))
	}
	f := &Frame{
		NameSize:  uint32(len(name)),
		DataSize:  uint32(len(data)),
		Timestamp: timestamp,
		ID:        id,
		Name:      []byte(name),
		Data:      data,
	}
	f.CRC32 = f.calculateCRC32()
	return f, nil
}

// Encode serializes a frame.
// Format: [CRC32(4)][NameSize(4)][DataSize(4)][Timestamp(8)][ID(20)][Name][Data]
func (c *FrameCodec) Encode(f *Frame) []byte {
	buf := make([]byte, f.Size())

	binary.LittleEndian.PutUint32(buf[0:], f.CRC32)
	binary.LittleEndian.PutUint32(buf[4:], f.NameSize)
	binary.LittleEndian.PutUint32(buf[8:], f.DataSize)
	binary.LittleEndian.PutUint64(buf[12:], f.Timestamp)
	copy(buf[20:HeaderSize], f.ID[:])
	copy(buf[HeaderSize:], f.Name)
	copy(buf[HeaderSize+int(f.NameSize):], f.Data)

	return buf
}

// Decode deserializes a frame. The checksum is not verified; call Validate.
func (c *FrameCodec) Decode(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too short for a frame header", ErrCorruption, len(data))
	}

	f := &Frame{}
	f.CRC32 = binary.LittleEndian.Uint32(data[0:4])
	f.NameSize = binary.LittleEndian.Uint32(data[4:8])
	f.DataSize = binary.LittleEndian.Uint32(data[8:12])
	f.Timestamp = binary.LittleEndian.Uint64(data[12:20])
	copy(f.ID[:], data[20:HeaderSize])

	total := uint64(HeaderSize) + uint64(f.NameSize) + uint64(f.DataSize)
	if uint64(len(data)) < total {
		return nil, fmt.Errorf("%w: frame needs %d bytes, have %d", ErrCorruption, total, len(data))
	}

	nameEnd := HeaderSize + int(f.NameSize)
	f.Name = data[HeaderSize:nameEnd]
	f.Data = data[nameEnd : nameEnd+int(f.DataSize)]

	return f, nil
}

// Validate checks the integrity of a frame using CRC32
func (f *Frame) Validate() error {
	if sum := f.calculateCRC32(); f.CRC32 != sum {
		return fmt.Errorf("%w: CRC32 mismatch: %08x != %08x", ErrCorruption, f.CRC32, sum)
	}
	return nil
}

// Size returns the total size of the frame when encoded
func (f *Frame) Size() int {
	return HeaderSize + len(f.Name) + len(f.Data)
}

// Snapshot describes the frame without its data
func (f *Frame) Snapshot() Snapshot {
	return Snapshot{
		ID:   f.ID,
		Name: string(f.Name),
		Time: timeOf(f.Timestamp),
		Size: int(f.DataSize),
	}
}

// calculateCRC32 covers NameSize + DataSize + Timestamp + ID + Name + Data
func (f *Frame) calculateCRC32() uint32 {
	crc := crc32.NewIEEE()

	var header [HeaderSize - 4]byte
	binary.LittleEndian.PutUint32(header[0:], f.NameSize)
	binary.LittleEndian.PutUint32(header[4:], f.DataSize)
	binary.LittleEndian.PutUint64(header[8:], f.Timestamp)
	copy(header[16:], f.ID[:])

	// hash.Hash writes never fail
	_, _ = crc.Write(header[:])
	_, _ = crc.Write(f.Name)
	_, _ = crc.Write(f.Data)

	return crc.Sum32()
}
