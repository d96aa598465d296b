package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// FrameReader provides sequential access to the frames of a file
type FrameReader struct {
	file   *os.File
	reader *bufio.Reader
	codec  *FrameCodec
	offset int64
	config FrameReaderConfig
}

// NewFrameReader opens the configured file for reading
func NewFrameReader(config FrameReaderConfig) (*FrameReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return &FrameReader{
		file:   file,
		reader: bufio.NewReader(file),
		codec:  NewFrameCodec(),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads and validates the next frame. It returns io.EOF at a clean end of file
// and ErrCorruption for a truncated or damaged frame.
func (r *FrameReader) ReadNext() (*Frame, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r.reader, header)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated frame header at offset %d", ErrCorruption, r.offset)
		}
		return nil, err
	}

	nameSize := binary.LittleEndian.Uint32(header[4:8])
	dataSize := binary.LittleEndian.Uint32(header[8:12])
	if nameSize > MaxNameSize {
		return nil, fmt.Errorf("%w: name of %d bytes at offset %d", ErrCorruption, nameSize, r.offset)
	}

	full := make([]byte, HeaderSize+int(nameSize)+int(dataSize))
	copy(full, header)
	if _, err := io.ReadFull(r.reader, full[HeaderSize:]); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated frame at offset %d", ErrCorruption, r.offset)
		}
		return nil, err
	}

	f, err := r.codec.Decode(full)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	r.offset += int64(n) + int64(nameSize) + int64(dataSize)
	return f, nil
}

// Offset returns the current read offset
func (r *FrameReader) Offset() int64 {
	return r.offset
}

// Close closes the underlying file
func (r *FrameReader) Close() error {
	return r.file.Close()
}
