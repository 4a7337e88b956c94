// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package deflate is a library for the DEFLATE compressed data format and
// its zlib and gzip container formats.
//
// The root package holds the types shared by every format package: the
// error model and the reader capability interfaces that the bit-level core
// uses to select its fast paths.
package deflate

import "io"

// Reason classifies the ways that a compressed stream can violate its
// format specification. It is carried by every Error produced by the
// flate, gzip, and zlib packages. I/O errors reported by the underlying
// byte source or sink are not translated; they are returned verbatim.
type Reason int

const (
	// UnexpectedEndOfStream occurs when the source reports EOF before the
	// format permits the stream to end.
	UnexpectedEndOfStream Reason = iota

	// ReservedBlockType occurs when a block header uses type 3.
	ReservedBlockType

	// UncompressedBlockLengthMismatch occurs when the LEN and NLEN fields
	// of a stored block are not complements of each other.
	UncompressedBlockLengthMismatch

	// HuffmanCodeUnderFull occurs when a set of code lengths does not
	// saturate its prefix tree.
	HuffmanCodeUnderFull

	// HuffmanCodeOverFull occurs when a set of code lengths requires more
	// leaves than its prefix tree can hold.
	HuffmanCodeOverFull

	// NoPreviousCodeLengthToCopy occurs when code-length symbol 16 appears
	// before any code length has been produced (zeros from symbols 17 and
	// 18 count as previous lengths).
	NoPreviousCodeLengthToCopy

	// CodeLengthCodeOverFull occurs when a code-length run extends past
	// the declared number of codes.
	CodeLengthCodeOverFull

	// EndOfBlockCodeZeroLength occurs when symbol 256 is absent from a
	// dynamic literal/length code.
	EndOfBlockCodeZeroLength

	// ReservedLengthSymbol occurs when literal/length symbol 286 or 287
	// is decoded.
	ReservedLengthSymbol

	// ReservedDistanceSymbol occurs when distance symbol 30 or 31
	// is decoded.
	ReservedDistanceSymbol

	// LengthEncounteredWithEmptyDistanceCode occurs when a length symbol
	// is decoded in a block that declared no distance code.
	LengthEncounteredWithEmptyDistanceCode

	// CopyFromBeforeDictionaryStart occurs when a back-reference reaches
	// behind the bytes emitted so far.
	CopyFromBeforeDictionaryStart

	// HeaderChecksumMismatch occurs when a container header fails its own
	// checksum (gzip FHCRC, zlib FCHECK).
	HeaderChecksumMismatch

	// UnsupportedCompressionMethod occurs when a container declares a
	// compression method other than DEFLATE.
	UnsupportedCompressionMethod

	// DecompressedChecksumMismatch occurs when the checksum over the
	// decompressed data disagrees with the container trailer.
	DecompressedChecksumMismatch

	// DecompressedSizeMismatch occurs when the decompressed size disagrees
	// with the gzip ISIZE trailer field.
	DecompressedSizeMismatch

	// GzipInvalidMagicNumber occurs when a gzip stream does not start with
	// the bytes 0x1f, 0x8b.
	GzipInvalidMagicNumber

	// GzipReservedFlagsSet occurs when any of gzip FLG bits 5..7 are set.
	GzipReservedFlagsSet

	// GzipUnsupportedOperatingSystem occurs when the gzip OS field holds a
	// value outside 0..13 and 255.
	GzipUnsupportedOperatingSystem
)

var reasonNames = map[Reason]string{
	UnexpectedEndOfStream:                  "unexpected end of stream",
	ReservedBlockType:                      "reserved block type",
	UncompressedBlockLengthMismatch:        "uncompressed block length mismatch",
	HuffmanCodeUnderFull:                   "huffman code under-full",
	HuffmanCodeOverFull:                    "huffman code over-full",
	NoPreviousCodeLengthToCopy:             "no previous code length to copy",
	CodeLengthCodeOverFull:                 "code length code over-full",
	EndOfBlockCodeZeroLength:               "end-of-block code has zero length",
	ReservedLengthSymbol:                   "reserved length symbol",
	ReservedDistanceSymbol:                 "reserved distance symbol",
	LengthEncounteredWithEmptyDistanceCode: "length encountered with empty distance code",
	CopyFromBeforeDictionaryStart:          "copy from before dictionary start",
	HeaderChecksumMismatch:                 "header checksum mismatch",
	UnsupportedCompressionMethod:           "unsupported compression method",
	DecompressedChecksumMismatch:           "decompressed checksum mismatch",
	DecompressedSizeMismatch:               "decompressed size mismatch",
	GzipInvalidMagicNumber:                 "gzip invalid magic number",
	GzipReservedFlagsSet:                   "gzip reserved flags set",
	GzipUnsupportedOperatingSystem:         "gzip unsupported operating system",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "unknown reason"
}

// Error is the wrapper type for all format violations detected by this
// library. It is distinct from I/O errors (passed through verbatim) and
// from usage errors such as reading a closed stream.
type Error struct {
	Reason Reason
	Desc   string
}

func (e *Error) Error() string { return e.Desc }

// ErrorReason reports the Reason carried by err, if err is an *Error.
func ErrorReason(err error) (Reason, bool) {
	if de, ok := err.(*Error); ok {
		return de.Reason, true
	}
	return 0, false
}

// ByteReader is an interface accepted by all decompression Readers.
// It guarantees that the decompressor never reads more bytes than is
// necessary from the underlying io.Reader.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// BufferedReader is an interface accepted by all decompression Readers.
//
// The flate Reader batches reads with Peek and Discard, keeping the source
// position exact, only when the source is a *bufio.Reader. Any other
// BufferedReader gets no such path: unless it also satisfies ByteReader,
// it is wrapped in an internal bufio.Reader like a plain io.Reader, and
// that wrapper may read past the end of the compressed stream.
type BufferedReader interface {
	io.Reader
	Buffered() int
	Peek(n int) ([]byte, error)
	Discard(n int) (int, error)
}
