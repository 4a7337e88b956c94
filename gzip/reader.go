// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package gzip

import (
	"hash"
	"hash/crc32"
	"io"

	"github.com/dsnet/deflate"
	"github.com/dsnet/deflate/flate"
)

// A Reader decompresses a single GZIP member. The header is read and
// validated at construction; the trailer checksum and size fields are
// verified when the compressed stream ends.
type Reader struct {
	// Metadata is the member header, available after NewReader returns.
	Metadata Metadata

	rd   deflate.ByteReader
	zr   *flate.Reader
	crc  hash.Hash32
	size uint32
	err  error // Persistent error
}

// NewReader creates a new Reader for the GZIP member read from r.
// The header is consumed before NewReader returns.
func NewReader(r io.Reader) (*Reader, error) {
	br := asByteReader(r)
	meta, err := ReadMetadata(br)
	if err != nil {
		return nil, err
	}
	return &Reader{
		Metadata: meta,
		rd:       br,
		zr:       flate.NewReader(br),
		crc:      crc32.NewIEEE(),
	}, nil
}

// Read reads decompressed data into buf, returning io.EOF only after the
// trailer has been verified.
func (gr *Reader) Read(buf []byte) (int, error) {
	if gr.err != nil {
		return 0, gr.err
	}
	n, err := gr.zr.Read(buf)
	gr.crc.Write(buf[:n])
	gr.size += uint32(n)
	if err == io.EOF {
		err = gr.checkTrailer()
		if err == nil {
			err = io.EOF
		}
	}
	if err != nil {
		gr.err = err
		if n > 0 {
			return n, nil
		}
		return 0, err
	}
	return n, nil
}

// checkTrailer reads the 8-byte trailer through the same reader that the
// DEFLATE core consumed with byte precision, and verifies the CRC-32 and
// ISIZE fields.
func (gr *Reader) checkTrailer() error {
	var trailer [8]byte
	for i := range trailer {
		c, err := gr.rd.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = errUnexpectedEOF
			}
			return err
		}
		trailer[i] = c
	}
	wantCRC := uint32(trailer[0]) | uint32(trailer[1])<<8 | uint32(trailer[2])<<16 | uint32(trailer[3])<<24
	wantSize := uint32(trailer[4]) | uint32(trailer[5])<<8 | uint32(trailer[6])<<16 | uint32(trailer[7])<<24
	if gr.crc.Sum32() != wantCRC {
		return errorf(deflate.DecompressedChecksumMismatch, "decompressed CRC-32 mismatch")
	}
	if gr.size != wantSize {
		return errorf(deflate.DecompressedSizeMismatch, "decompressed size mismatch")
	}
	return nil
}

// Close ends the use of this Reader. It does not close the underlying
// io.Reader. Close is idempotent; any latched format error is returned.
func (gr *Reader) Close() error {
	if gr.err == io.EOF || gr.err == io.ErrClosedPipe || gr.err == nil {
		gr.err = io.ErrClosedPipe
		return nil
	}
	return gr.err
}
