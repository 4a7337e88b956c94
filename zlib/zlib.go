// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package zlib implements the ZLIB compressed data format, described in
// RFC 1950, as a thin container around the DEFLATE core in package flate.
package zlib

import (
	"errors"
	"fmt"
	"io"

	"github.com/dsnet/deflate"
)

// Compression level hints carried by the FLEVEL header field.
// They are informational only and do not affect decoding.
const (
	LevelFastest = 0
	LevelFast    = 1
	LevelDefault = 2
	LevelMaximum = 3
)

const checksumModulus = 31

// Metadata is the ZLIB stream header, per RFC 1950 section 2.2.
type Metadata struct {
	WindowBits int    // CINFO + 8: LZ77 window size as a power of two, in [8, 15]
	Level      int    // FLEVEL: one of the Level* constants
	HasDict    bool   // FDICT: a preset dictionary id follows the header
	DictID     uint32 // Adler-32 of the preset dictionary when HasDict is set
}

// errorf wraps a format violation with its Reason.
func errorf(reason deflate.Reason, format string, args ...interface{}) error {
	return &deflate.Error{Reason: reason, Desc: "zlib: " + fmt.Sprintf(format, args...)}
}

var errUnexpectedEOF = errorf(deflate.UnexpectedEndOfStream, "unexpected end of stream")

// ReadMetadata reads and validates a ZLIB stream header from r.
func ReadMetadata(r io.ByteReader) (Metadata, error) {
	var meta Metadata
	cmf, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = errUnexpectedEOF
		}
		return meta, err
	}
	flg, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = errUnexpectedEOF
		}
		return meta, err
	}
	if (uint(cmf)<<8|uint(flg))%checksumModulus != 0 {
		return meta, errorf(deflate.HeaderChecksumMismatch, "header checksum mismatch")
	}
	if cm := cmf & 0xf; cm != 8 {
		return meta, errorf(deflate.UnsupportedCompressionMethod, "unsupported compression method: %d", cm)
	}
	if cinfo := cmf >> 4; cinfo > 7 {
		return meta, errorf(deflate.UnsupportedCompressionMethod, "invalid window size: %d", cinfo)
	}
	meta.WindowBits = int(cmf>>4) + 8
	meta.Level = int(flg >> 6)
	meta.HasDict = flg&0x20 != 0
	if meta.HasDict {
		for i := 0; i < 4; i++ {
			c, err := r.ReadByte()
			if err != nil {
				if err == io.EOF {
					err = errUnexpectedEOF
				}
				return meta, err
			}
			meta.DictID = meta.DictID<<8 | uint32(c)
		}
	}
	return meta, nil
}

// WriteTo writes the stream header described by the Metadata to w,
// computing the FCHECK field, and reports the number of bytes written.
func (m *Metadata) WriteTo(w io.Writer) (int64, error) {
	wbits := m.WindowBits
	if wbits == 0 {
		wbits = 15
	}
	if wbits < 8 || wbits > 15 {
		return 0, errors.New("zlib: invalid window size")
	}
	cmf := byte(8 | (wbits-8)<<4)
	flg := byte(m.Level << 6)
	if m.HasDict {
		flg |= 0x20
	}
	flg |= byte((checksumModulus - (uint(cmf)<<8|uint(flg))%checksumModulus) % checksumModulus)

	buf := []byte{cmf, flg}
	if m.HasDict {
		buf = append(buf, byte(m.DictID>>24), byte(m.DictID>>16), byte(m.DictID>>8), byte(m.DictID))
	}
	cnt, err := w.Write(buf)
	return int64(cnt), err
}
