// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package zlib

import (
	"bufio"
	"hash"
	"hash/adler32"
	"io"

	"github.com/dsnet/deflate"
	"github.com/dsnet/deflate/flate"
)

// A Reader decompresses a ZLIB stream. The header is read and validated
// at construction; the Adler-32 trailer is verified when the compressed
// stream ends.
type Reader struct {
	// Metadata is the stream header, available after NewReader returns.
	Metadata Metadata

	rd    deflate.ByteReader
	zr    *flate.Reader
	adler hash.Hash32
	err   error // Persistent error
}

// NewReader creates a new Reader for the ZLIB stream read from r.
// The header is consumed before NewReader returns. Streams declaring a
// preset dictionary surface the dictionary id in Metadata; resolving the
// dictionary itself is up to the caller.
func NewReader(r io.Reader) (*Reader, error) {
	br, ok := r.(deflate.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	meta, err := ReadMetadata(br)
	if err != nil {
		return nil, err
	}
	return &Reader{
		Metadata: meta,
		rd:       br,
		zr:       flate.NewReader(br),
		adler:    adler32.New(),
	}, nil
}

// Read reads decompressed data into buf, returning io.EOF only after the
// trailer has been verified.
func (zr *Reader) Read(buf []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	n, err := zr.zr.Read(buf)
	zr.adler.Write(buf[:n])
	if err == io.EOF {
		err = zr.checkTrailer()
		if err == nil {
			err = io.EOF
		}
	}
	if err != nil {
		zr.err = err
		if n > 0 {
			return n, nil
		}
		return 0, err
	}
	return n, nil
}

// checkTrailer reads the big-endian Adler-32 trailer and verifies it
// against the decompressed data.
func (zr *Reader) checkTrailer() error {
	var want uint32
	for i := 0; i < 4; i++ {
		c, err := zr.rd.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = errUnexpectedEOF
			}
			return err
		}
		want = want<<8 | uint32(c)
	}
	if zr.adler.Sum32() != want {
		return errorf(deflate.DecompressedChecksumMismatch, "decompressed Adler-32 mismatch")
	}
	return nil
}

// Close ends the use of this Reader. It does not close the underlying
// io.Reader. Close is idempotent; any latched format error is returned.
func (zr *Reader) Close() error {
	if zr.err == io.EOF || zr.err == io.ErrClosedPipe || zr.err == nil {
		zr.err = io.ErrClosedPipe
		return nil
	}
	return zr.err
}
