// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package bench compares the performance of various compression
// implementations with respect to encode speed, decode speed, and ratio.
// Individual implementations are referred to as codecs and register
// themselves per format.
package bench

import (
	"bytes"
	"io"
	"io/ioutil"
	"runtime"
	"testing"

	"github.com/dsnet/deflate/internal/testutil"
)

const (
	FormatFlate = iota
	FormatGzip
	FormatZlib
	FormatXZ
)

const (
	TestEncodeRate = iota
	TestDecodeRate
	TestCompressRatio
)

type Encoder func(io.Writer, int) io.WriteCloser
type Decoder func(io.Reader) io.ReadCloser

var (
	Encoders map[int]map[string]Encoder
	Decoders map[int]map[string]Decoder
)

func RegisterEncoder(format int, name string, enc Encoder) {
	if Encoders == nil {
		Encoders = make(map[int]map[string]Encoder)
	}
	if Encoders[format] == nil {
		Encoders[format] = make(map[string]Encoder)
	}
	Encoders[format][name] = enc
}

func RegisterDecoder(format int, name string, dec Decoder) {
	if Decoders == nil {
		Decoders = make(map[int]map[string]Decoder)
	}
	if Decoders[format] == nil {
		Decoders[format] = make(map[string]Decoder)
	}
	Decoders[format][name] = dec
}

// TestData synthesizes a deterministic input of size n with a mixture of
// compressible runs and incompressible noise, so that every codec is
// exercised on both extremes.
func TestData(seed, n int) []byte {
	rd := testutil.NewRand(seed)
	var buf bytes.Buffer
	for buf.Len() < n {
		switch rd.Intn(3) {
		case 0: // Repeated run
			c := byte(rd.Intn(256))
			buf.Write(bytes.Repeat([]byte{c}, 1+rd.Intn(64)))
		case 1: // Random noise
			buf.Write(rd.Bytes(1 + rd.Intn(64)))
		case 2: // Text-like fragment
			buf.WriteString("the quick brown fox jumps over the lazy dog ")
		}
	}
	return buf.Bytes()[:n]
}

// BenchmarkEncoder benchmarks a single encoder on the given input data
// using the selected compression level and reports the result.
func BenchmarkEncoder(input []byte, enc Encoder, lvl int) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		b.StopTimer()
		if enc == nil {
			b.Fatalf("unexpected error: nil Encoder")
		}
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			wr := enc(ioutil.Discard, lvl)
			_, err := io.Copy(wr, bytes.NewReader(input))
			if cerr := wr.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			b.SetBytes(int64(len(input)))
		}
	})
}

// BenchmarkDecoder benchmarks a single decoder on the given
// pre-compressed input data and reports the result.
func BenchmarkDecoder(input []byte, dec Decoder) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		b.StopTimer()
		if dec == nil {
			b.Fatalf("unexpected error: nil Decoder")
		}
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			rd := dec(bytes.NewReader(input))
			cnt, err := io.Copy(ioutil.Discard, rd)
			if cerr := rd.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			b.SetBytes(cnt)
		}
	})
}

// Ratio compresses the input with the encoder and reports the ratio of
// input size over output size.
func Ratio(input []byte, enc Encoder, lvl int) float64 {
	var buf bytes.Buffer
	wr := enc(&buf, lvl)
	if _, err := io.Copy(wr, bytes.NewReader(input)); err != nil {
		return 0
	}
	if err := wr.Close(); err != nil {
		return 0
	}
	return float64(len(input)) / float64(buf.Len())
}
