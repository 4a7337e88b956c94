// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build !no_ds_lib
// +build !no_ds_lib

package bench

import (
	"io"

	"github.com/dsnet/deflate/flate"
	"github.com/dsnet/deflate/gzip"
	"github.com/dsnet/deflate/zlib"
)

// dsStrategy maps a conventional compression level to a Strategy.
// Levels at or below 1 avoid match searching entirely; levels up to 6 use
// a narrow LZ77 search, and higher levels a wider LZ77 search combined
// with block splitting.
func dsStrategy(lvl int) flate.Strategy {
	switch {
	case lvl <= 1:
		st, _ := flate.NewMultiStrategy(flate.Uncompressed, flate.StaticHuffmanRLE, flate.DynamicHuffmanRLE)
		return st
	case lvl <= 6:
		lz, _ := flate.NewLZ77Huffman(true, 3, 258, 1, 1<<8)
		st, _ := flate.NewMultiStrategy(flate.Uncompressed, flate.DynamicHuffmanRLE, lz)
		return st
	default:
		lz, _ := flate.NewLZ77Huffman(true, 3, 258, 1, 1<<12)
		ms, _ := flate.NewMultiStrategy(flate.Uncompressed, flate.DynamicHuffmanRLE, lz)
		st, _ := flate.NewBinarySplit(ms, 1<<10)
		return st
	}
}

func init() {
	RegisterEncoder(FormatFlate, "ds",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := flate.NewWriterConfig(w, flate.WriterConfig{Strategy: dsStrategy(lvl)})
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatFlate, "ds",
		func(r io.Reader) io.ReadCloser {
			return flate.NewReader(r)
		})
	RegisterEncoder(FormatGzip, "ds",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := gzip.NewWriterConfig(w, gzip.WriterConfig{Strategy: dsStrategy(lvl)})
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatGzip, "ds",
		func(r io.Reader) io.ReadCloser {
			zr, err := gzip.NewReader(r)
			if err != nil {
				panic(err)
			}
			return zr
		})
	RegisterEncoder(FormatZlib, "ds",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := zlib.NewWriterConfig(w, zlib.WriterConfig{Strategy: dsStrategy(lvl)})
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatZlib, "ds",
		func(r io.Reader) io.ReadCloser {
			zr, err := zlib.NewReader(r)
			if err != nil {
				panic(err)
			}
			return zr
		})
}
