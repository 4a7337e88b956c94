// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"errors"
	"io"
)

// defaultBufferSize is the number of data bytes collected before the
// Strategy is consulted.
const defaultBufferSize = 1 << 16

// A WriterConfig configures a Writer. The zero value is a working default.
type WriterConfig struct {
	// Strategy decides the encoding of each buffered span of data.
	// If nil, a MultiStrategy of Uncompressed, StaticHuffman,
	// StaticHuffmanRLE, and DynamicHuffmanRLE is used.
	Strategy Strategy

	// HistorySize is the number of already-emitted bytes kept for LZ77
	// look-back, in [0, 32768]. If zero, the full 32 KiB is kept.
	HistorySize int

	// BufferSize is the number of data bytes collected before a block
	// decision is made. If zero, 64 KiB is used.
	BufferSize int
}

// defaultStrategy covers the encodings that are cheap to evaluate on
// every buffer fill; LZ77 match searching is opt-in through WriterConfig.
var defaultStrategy = func() Strategy {
	st, err := NewMultiStrategy(Uncompressed, StaticHuffman, StaticHuffmanRLE, DynamicHuffmanRLE)
	if err != nil {
		panic(err)
	}
	return st
}()

// A Writer compresses a byte stream into a raw DEFLATE stream.
//
// Data is collected into a window holding up to HistorySize bytes of
// emitted history followed by up to BufferSize bytes of pending data.
// Each time the window fills, the Strategy decides how to encode the
// pending data and its Decision is emitted. Close emits the pending data
// in a block marked final and pads the stream to a byte boundary, so a
// Close in the middle of a run still produces a valid DEFLATE stream.
type Writer struct {
	InputOffset  int64 // Total number of bytes accepted by Write
	OutputOffset int64 // Total number of bytes written to underlying io.Writer

	bw      bitWriter
	strat   Strategy
	window  []byte // History region followed by the data region
	histCap int
	bufCap  int
	histLen int
	dataLen int
	err     error // Persistent error
}

// NewWriter creates a new Writer compressing to the given io.Writer with
// the default configuration.
func NewWriter(w io.Writer) *Writer {
	zw, err := NewWriterConfig(w, WriterConfig{})
	if err != nil {
		panic(err) // Impossible for the zero configuration
	}
	return zw
}

// NewWriterConfig creates a new Writer with the given configuration.
func NewWriterConfig(w io.Writer, conf WriterConfig) (*Writer, error) {
	if conf.Strategy == nil {
		conf.Strategy = defaultStrategy
	}
	if conf.HistorySize == 0 {
		conf.HistorySize = maxHistSize
	}
	if conf.BufferSize == 0 {
		conf.BufferSize = defaultBufferSize
	}
	switch {
	case conf.HistorySize < 0 || conf.HistorySize > maxHistSize:
		return nil, errors.New("flate: invalid history size")
	case conf.BufferSize < 0 || conf.BufferSize > (1<<31-1)-conf.HistorySize:
		return nil, errors.New("flate: invalid buffer size")
	}

	zw := new(Writer)
	zw.strat = conf.Strategy
	zw.histCap = conf.HistorySize
	zw.bufCap = conf.BufferSize
	zw.window = make([]byte, conf.HistorySize+conf.BufferSize)
	zw.bw.Init(w)
	return zw, nil
}

// Reset discards the Writer's state and makes it equivalent to a newly
// constructed Writer with the same configuration, writing to w.
func (zw *Writer) Reset(w io.Writer) {
	zw.InputOffset, zw.OutputOffset = 0, 0
	zw.histLen, zw.dataLen = 0, 0
	zw.err = nil
	zw.bw.Init(w)
}

// Write appends data to the pending window, emitting blocks whenever the
// window fills.
func (zw *Writer) Write(buf []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	var cnt int
	for len(buf) > 0 {
		if zw.dataLen == zw.bufCap {
			if err := zw.flushBlock(false); err != nil {
				zw.err = err
				return cnt, err
			}
		}
		n := copy(zw.window[zw.histLen+zw.dataLen:zw.histLen+zw.bufCap], buf)
		zw.dataLen += n
		zw.InputOffset += int64(n)
		buf = buf[n:]
		cnt += n
	}
	return cnt, nil
}

// WriteByte writes a single byte.
func (zw *Writer) WriteByte(c byte) error {
	_, err := zw.Write([]byte{c})
	return err
}

// Flush emits all pending data as a non-final block, followed by an empty
// stored block that byte-aligns the output, and then flushes the
// underlying io.Writer buffer. Everything written so far becomes
// decodable by any DEFLATE decompressor.
func (zw *Writer) Flush() error {
	if zw.err != nil {
		return zw.err
	}
	if zw.dataLen > 0 {
		if err := zw.flushBlock(false); err != nil {
			zw.err = err
			return err
		}
	}
	writeBlockHeader(&zw.bw, 0, false)
	zw.bw.WritePads()
	zw.bw.WriteBits(0x0000, 16)
	zw.bw.WriteBits(0xffff, 16)
	if err := zw.bw.Flush(); err != nil {
		zw.err = err
		return err
	}
	zw.OutputOffset = zw.bw.offset
	return nil
}

// Close emits all pending data in a block marked as the end of the
// DEFLATE stream, pads the output to a byte boundary, and flushes it.
// It does not close the underlying io.Writer. Close is idempotent.
func (zw *Writer) Close() error {
	if zw.err == errClosed {
		return nil
	}
	if zw.err != nil {
		return zw.err
	}
	err := zw.flushBlock(true)
	if err == nil {
		zw.bw.WritePads()
		err = zw.bw.Flush()
		zw.OutputOffset = zw.bw.offset
	}
	if err != nil {
		zw.err = err
		return err
	}
	zw.err = errClosed
	return nil
}

// flushBlock runs the Strategy over the current window and emits its
// Decision, then migrates the tail of the window into the history region.
func (zw *Writer) flushBlock(final bool) (err error) {
	defer errRecover(&err)

	dec := zw.strat.Decide(zw.window, 0, zw.histLen, zw.dataLen)
	dec.CompressTo(&zw.bw, final)
	if err := zw.bw.Flush(); err != nil {
		return err
	}
	zw.OutputOffset = zw.bw.offset

	total := zw.histLen + zw.dataLen
	keep := minInt(zw.histCap, total)
	copy(zw.window[:keep], zw.window[total-keep:total])
	zw.histLen, zw.dataLen = keep, 0
	return nil
}
