// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zlib

import (
	"hash"
	"hash/adler32"
	"io"

	"github.com/dsnet/deflate/flate"
)

// A WriterConfig configures a Writer. The zero value is a working default.
type WriterConfig struct {
	// Level is the FLEVEL hint recorded in the header.
	Level int

	// Strategy is handed to the underlying flate.Writer; nil selects the
	// flate default.
	Strategy flate.Strategy
}

// A Writer compresses a byte stream into a ZLIB stream.
type Writer struct {
	wr    io.Writer
	zw    *flate.Writer
	adler hash.Hash32
	err   error
}

// NewWriter creates a new Writer with the default configuration.
// The stream header is written before NewWriter returns.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterConfig(w, WriterConfig{Level: LevelDefault})
}

// NewWriterConfig creates a new Writer with the given configuration.
// The stream header is written before NewWriterConfig returns.
func NewWriterConfig(w io.Writer, conf WriterConfig) (*Writer, error) {
	meta := Metadata{WindowBits: 15, Level: conf.Level}
	if _, err := meta.WriteTo(w); err != nil {
		return nil, err
	}
	zw, err := flate.NewWriterConfig(w, flate.WriterConfig{Strategy: conf.Strategy})
	if err != nil {
		return nil, err
	}
	return &Writer{wr: w, zw: zw, adler: adler32.New()}, nil
}

// Write compresses more data into the stream.
func (zw *Writer) Write(buf []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	n, err := zw.zw.Write(buf)
	zw.adler.Write(buf[:n])
	if err != nil {
		zw.err = err
	}
	return n, err
}

// Close terminates the DEFLATE stream and writes the big-endian Adler-32
// trailer. It does not close the underlying io.Writer.
func (zw *Writer) Close() error {
	if zw.err == io.ErrClosedPipe {
		return nil
	}
	if zw.err != nil {
		return zw.err
	}
	if err := zw.zw.Close(); err != nil {
		zw.err = err
		return err
	}
	sum := zw.adler.Sum32()
	trailer := [4]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
	if _, err := zw.wr.Write(trailer[:]); err != nil {
		zw.err = err
		return err
	}
	zw.err = io.ErrClosedPipe
	return nil
}
