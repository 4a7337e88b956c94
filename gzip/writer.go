// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package gzip

import (
	"hash"
	"hash/crc32"
	"io"

	"github.com/dsnet/deflate/flate"
)

// A WriterConfig configures a Writer. The zero value is a working default.
type WriterConfig struct {
	// Metadata is written as the member header. The zero value declares
	// OS 0 (OSFAT) and no optional fields; NewWriter uses OSUnknown instead.
	Metadata Metadata

	// Strategy is handed to the underlying flate.Writer; nil selects the
	// flate default.
	Strategy flate.Strategy
}

// A Writer compresses a byte stream into a single GZIP member.
type Writer struct {
	wr   io.Writer
	zw   *flate.Writer
	crc  hash.Hash32
	size uint32
	err  error
}

// NewWriter creates a new Writer with default metadata.
// The member header is written before NewWriter returns.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterConfig(w, WriterConfig{Metadata: Metadata{OS: OSUnknown}})
}

// NewWriterConfig creates a new Writer with the given configuration.
// The member header is written before NewWriterConfig returns.
func NewWriterConfig(w io.Writer, conf WriterConfig) (*Writer, error) {
	if _, err := conf.Metadata.WriteTo(w); err != nil {
		return nil, err
	}
	zw, err := flate.NewWriterConfig(w, flate.WriterConfig{Strategy: conf.Strategy})
	if err != nil {
		return nil, err
	}
	return &Writer{wr: w, zw: zw, crc: crc32.NewIEEE()}, nil
}

// Write compresses more data into the member.
func (gw *Writer) Write(buf []byte) (int, error) {
	if gw.err != nil {
		return 0, gw.err
	}
	n, err := gw.zw.Write(buf)
	gw.crc.Write(buf[:n])
	gw.size += uint32(n)
	if err != nil {
		gw.err = err
	}
	return n, err
}

// Close terminates the DEFLATE stream and writes the CRC-32 and ISIZE
// trailer. It does not close the underlying io.Writer.
func (gw *Writer) Close() error {
	if gw.err == io.ErrClosedPipe {
		return nil
	}
	if gw.err != nil {
		return gw.err
	}
	if err := gw.zw.Close(); err != nil {
		gw.err = err
		return err
	}
	crc, size := gw.crc.Sum32(), gw.size
	trailer := [8]byte{
		byte(crc), byte(crc >> 8), byte(crc >> 16), byte(crc >> 24),
		byte(size), byte(size >> 8), byte(size >> 16), byte(size >> 24),
	}
	if _, err := gw.wr.Write(trailer[:]); err != nil {
		gw.err = err
		return err
	}
	gw.err = io.ErrClosedPipe
	return nil
}
