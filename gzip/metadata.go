// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package gzip

import (
	"errors"
	"hash/crc32"
	"io"

	"github.com/dsnet/deflate"
)

// Metadata is the member header of a GZIP file, per RFC 1952 section 2.3.
// Optional fields use their zero value for absence, except ModTime where
// the format itself reserves zero for "no timestamp available".
type Metadata struct {
	IsText     bool   // FLG.FTEXT: content is probably text
	ModTime    uint32 // MTIME: modification time in Unix seconds; 0 means absent
	ExtraFlags byte   // XFL: 2 means maximum compression, 4 means fastest
	OS         byte   // One of the OS* constants
	Extra      []byte // FLG.FEXTRA payload; nil means absent
	Name       string // FLG.FNAME: original file name in ISO 8859-1; "" means absent
	Comment    string // FLG.FCOMMENT: comment in ISO 8859-1; "" means absent
	HeaderCRC  bool   // FLG.FHCRC: header is followed by its own CRC-16
}

// Flag bits of the FLG header byte.
const (
	flagText     = 1 << 0
	flagHdrCRC   = 1 << 1
	flagExtra    = 1 << 2
	flagName     = 1 << 3
	flagComment  = 1 << 4
	flagReserved = 0xe0
)

const magic = 0x1f8b

// crcByteReader tracks the CRC-32 of every byte read, so that the FHCRC
// field can be checked against the header bytes preceding it.
type crcByteReader struct {
	rd  io.ByteReader
	crc uint32
}

func (cr *crcByteReader) ReadByte() (byte, error) {
	c, err := cr.rd.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = errUnexpectedEOF
		}
		return 0, err
	}
	cr.crc = crc32.Update(cr.crc, crc32.IEEETable, []byte{c})
	return c, nil
}

func (cr *crcByteReader) readLE16() (uint16, error) {
	b0, err := cr.ReadByte()
	if err != nil {
		return 0, err
	}
	b1, err := cr.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(b0) | uint16(b1)<<8, nil
}

func (cr *crcByteReader) readLE32() (uint32, error) {
	lo, err := cr.readLE16()
	if err != nil {
		return 0, err
	}
	hi, err := cr.readLE16()
	if err != nil {
		return 0, err
	}
	return uint32(lo) | uint32(hi)<<16, nil
}

func (cr *crcByteReader) readString() (string, error) {
	var b []byte
	for {
		c, err := cr.ReadByte()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(b), nil
		}
		b = append(b, c)
	}
}

// ReadMetadata reads and validates a GZIP member header from r.
func ReadMetadata(r io.ByteReader) (Metadata, error) {
	var meta Metadata
	cr := &crcByteReader{rd: r}

	m1, err := cr.ReadByte()
	if err != nil {
		return meta, err
	}
	m2, err := cr.ReadByte()
	if err != nil {
		return meta, err
	}
	if m1 != magic>>8 || m2 != magic&0xff {
		return meta, errorf(deflate.GzipInvalidMagicNumber, "invalid magic number")
	}
	cm, err := cr.ReadByte()
	if err != nil {
		return meta, err
	}
	if cm != 8 {
		return meta, errorf(deflate.UnsupportedCompressionMethod, "unsupported compression method: %d", cm)
	}
	flags, err := cr.ReadByte()
	if err != nil {
		return meta, err
	}
	if flags&flagReserved != 0 {
		return meta, errorf(deflate.GzipReservedFlagsSet, "reserved flags are set")
	}
	meta.IsText = flags&flagText != 0
	if meta.ModTime, err = cr.readLE32(); err != nil {
		return meta, err
	}
	if meta.ExtraFlags, err = cr.ReadByte(); err != nil {
		return meta, err
	}
	if meta.OS, err = cr.ReadByte(); err != nil {
		return meta, err
	}
	if meta.OS > OSAcornRISCOS && meta.OS != OSUnknown {
		return meta, errorf(deflate.GzipUnsupportedOperatingSystem, "unsupported operating system: %d", meta.OS)
	}

	if flags&flagExtra != 0 {
		n, err := cr.readLE16()
		if err != nil {
			return meta, err
		}
		meta.Extra = make([]byte, n)
		for i := range meta.Extra {
			if meta.Extra[i], err = cr.ReadByte(); err != nil {
				return meta, err
			}
		}
	}
	if flags&flagName != 0 {
		if meta.Name, err = cr.readString(); err != nil {
			return meta, err
		}
	}
	if flags&flagComment != 0 {
		if meta.Comment, err = cr.readString(); err != nil {
			return meta, err
		}
	}
	if flags&flagHdrCRC != 0 {
		meta.HeaderCRC = true
		want := uint16(cr.crc)
		got, err := cr.readLE16()
		if err != nil {
			return meta, err
		}
		if got != want {
			return meta, errorf(deflate.HeaderChecksumMismatch, "header CRC-16 mismatch")
		}
	}
	return meta, nil
}

// WriteTo writes the member header described by the Metadata to w,
// reporting the number of bytes written.
func (m *Metadata) WriteTo(w io.Writer) (int64, error) {
	var flags byte
	if m.IsText {
		flags |= flagText
	}
	if m.HeaderCRC {
		flags |= flagHdrCRC
	}
	if m.Extra != nil {
		flags |= flagExtra
	}
	if m.Name != "" {
		flags |= flagName
	}
	if m.Comment != "" {
		flags |= flagComment
	}

	buf := make([]byte, 0, 32)
	buf = append(buf, magic>>8, magic&0xff, 8, flags)
	buf = append(buf, byte(m.ModTime), byte(m.ModTime>>8), byte(m.ModTime>>16), byte(m.ModTime>>24))
	buf = append(buf, m.ExtraFlags, m.OS)
	if m.Extra != nil {
		if len(m.Extra) > 0xffff {
			return 0, errors.New("gzip: extra field too long")
		}
		buf = append(buf, byte(len(m.Extra)), byte(len(m.Extra)>>8))
		buf = append(buf, m.Extra...)
	}
	if m.Name != "" {
		buf = append(buf, m.Name...)
		buf = append(buf, 0)
	}
	if m.Comment != "" {
		buf = append(buf, m.Comment...)
		buf = append(buf, 0)
	}
	if m.HeaderCRC {
		crc := crc32.ChecksumIEEE(buf)
		buf = append(buf, byte(crc), byte(crc>>8))
	}

	cnt, err := w.Write(buf)
	return int64(cnt), err
}
