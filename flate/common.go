// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package flate implements the DEFLATE compressed data format,
// described in RFC 1951.
//
// The Reader decompresses a raw DEFLATE stream; when its source is a
// deflate.ByteReader, it never consumes more bytes from that source than
// the stream occupies. The Writer compresses
// through a pluggable Strategy that decides, block by block, which of the
// DEFLATE encodings to use.
package flate

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/dsnet/deflate"
)

const (
	maxHistSize = 1 << 15
	endBlockSym = 256

	minMatchLen  = 3
	maxMatchLen  = 258
	minMatchDist = 1
	maxMatchDist = maxHistSize

	// Largest number of bytes that a single stored block can carry.
	maxRawBlockSize = 1<<16 - 1
)

// errClosed reports use after Close. It is a usage error,
// not a format violation; Writer.Close stores it as the closed state.
var errClosed = errors.New("flate: stream is closed")

// errorf wraps a format violation with its Reason.
func errorf(reason deflate.Reason, format string, args ...interface{}) error {
	return &deflate.Error{Reason: reason, Desc: "flate: " + fmt.Sprintf(format, args...)}
}

var errUnexpectedEOF = errorf(deflate.UnexpectedEndOfStream, "unexpected end of stream")

func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}

func init() {
	initPrefixLUTs()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
