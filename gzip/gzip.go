// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package gzip implements the GZIP file format, described in RFC 1952,
// as a thin container around the DEFLATE core in package flate.
package gzip

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dsnet/deflate"
)

// Operating system values for the Metadata OS field, per RFC 1952.
const (
	OSFAT         = 0
	OSAmiga       = 1
	OSVMS         = 2
	OSUnix        = 3
	OSVMCMS       = 4
	OSAtariTOS    = 5
	OSHPFS        = 6
	OSMacintosh   = 7
	OSZSystem     = 8
	OSCPM         = 9
	OSTOPS20      = 10
	OSNTFS        = 11
	OSQDOS        = 12
	OSAcornRISCOS = 13
	OSUnknown     = 255
)

var osNames = map[byte]string{
	OSFAT:         "FAT",
	OSAmiga:       "Amiga",
	OSVMS:         "VMS",
	OSUnix:        "Unix",
	OSVMCMS:       "VM/CMS",
	OSAtariTOS:    "Atari TOS",
	OSHPFS:        "HPFS",
	OSMacintosh:   "Macintosh",
	OSZSystem:     "Z-System",
	OSCPM:         "CP/M",
	OSTOPS20:      "TOPS-20",
	OSNTFS:        "NTFS",
	OSQDOS:        "QDOS",
	OSAcornRISCOS: "Acorn RISCOS",
	OSUnknown:     "Unknown",
}

// OSName reports the conventional name of an OS field value.
func OSName(os byte) string {
	if s, ok := osNames[os]; ok {
		return s
	}
	return fmt.Sprintf("Unknown (%d)", os)
}

// errorf wraps a format violation with its Reason.
func errorf(reason deflate.Reason, format string, args ...interface{}) error {
	return &deflate.Error{Reason: reason, Desc: "gzip: " + fmt.Sprintf(format, args...)}
}

var errUnexpectedEOF = errorf(deflate.UnexpectedEndOfStream, "unexpected end of stream")

// asByteReader wraps r in a bufio.Reader unless it already delivers bytes
// exactly. The container must read its trailer through the same reader
// that the DEFLATE core consumed with byte precision.
func asByteReader(r io.Reader) deflate.ByteReader {
	if br, ok := r.(deflate.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
