package store

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
)

// FrameWriter writes frames to a file, truncating whatever was there
type FrameWriter struct {
	file   *os.File
	writer *bufio.Writer
	codec  *FrameCodec
	config FrameWriterConfig
	mutex  sync.Mutex
	offset int64 // Current write offset
}

// NewFrameWriter creates a frame writer with the given configuration
func NewFrameWriter(config FrameWriterConfig) (*FrameWriter, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}

	size := config.BufferSize
	if size <= 0 {
		size = 4096
	}

	return &FrameWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, size),
		codec:  NewFrameCodec(),
		config: config,
	}, nil
}

// Write appends a frame and returns the offset it starts at
func (w *FrameWriter) Write(f *Frame) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	n, err := w.writer.Write(w.codec.Encode(f))
	if err != nil {
		return 0, err
	}

	frameOffset := w.offset
	w.offset += int64(n)
	return frameOffset, nil
}

// Sync flushes buffered frames and fsyncs the file
func (w *FrameWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sync()
}

func (w *FrameWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close syncs and closes the file
func (w *FrameWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// Size returns the number of bytes written
func (w *FrameWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *FrameWriter) Path() string {
	return w.config.FilePath
}
