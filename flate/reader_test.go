// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"testing"

	"github.com/dsnet/deflate"
	"github.com/dsnet/deflate/internal/testutil"
)

// reasonOf unwraps the format violation Reason, reporting -1 for nil or
// foreign errors.
func reasonOf(err error) int {
	if r, ok := deflate.ErrorReason(err); ok {
		return int(r)
	}
	return -1
}

func TestReader(t *testing.T) {
	db := testutil.MustDecodeBitGen
	dh := testutil.MustDecodeHex

	errs := func(r deflate.Reason) error { return &deflate.Error{Reason: r} }

	var vectors = []struct {
		desc   string // Description of the test
		input  []byte // Test input string
		output []byte // Expected output string
		inIdx  int64  // Expected input offset after reading; -1 to skip
		outIdx int64  // Expected output offset after reading
		err    error  // Expected error (matched by Reason for format errors)
	}{{
		desc:  "empty input",
		inIdx: 0,
		err:   errs(deflate.UnexpectedEndOfStream),
	}, {
		desc: "shortest stored block",
		input: db(`<<<
			< 1 00 0*5          # Last, stored block, padding
			< H16:0000 H16:ffff # RawSize: 0
		`),
		inIdx: 5,
	}, {
		desc: "stored block with 3 bytes",
		input: db(`<<<
			< 1 00 0*5          # Last, stored block, padding
			< H16:0003 H16:fffc # RawSize: 3
			X:051423            # Raw data
		`),
		output: dh("051423"),
		inIdx:  8,
		outIdx: 3,
	}, {
		desc: "stored block with non-zero padding",
		input: db(`<<<
			< 1 00 10101        # Last, stored block, padding
			< H16:0001 H16:fffe # RawSize: 1
			X:11                # Raw data
		`),
		output: dh("11"),
		inIdx:  6,
		outIdx: 1,
	}, {
		desc: "stored block with mismatched length",
		input: db(`<<<
			< 1 00 0*5         # Last, stored block, padding
			> 0010000000010000 # LEN
			> 1111100100110101 # NLEN, not the complement of LEN
		`),
		inIdx: 5,
		err:   errs(deflate.UncompressedBlockLengthMismatch),
	}, {
		desc: "stored block, truncated in raw data",
		input: db(`<<<
			< 0 00 0*5          # Non-last, stored block, padding
			< H16:000c H16:fff3 # RawSize: 12
			X:68656c6c6f        # Raw data, only 5 of 12 bytes
		`),
		output: dh("68656c6c6f"),
		inIdx:  10,
		outIdx: 5,
		err:    errs(deflate.UnexpectedEndOfStream),
	}, {
		desc: "shortest fixed block",
		input: db(`<<<
			< 1 01    # Last, fixed block
			> 0000000 # EOB marker
		`),
		inIdx: 2,
	}, {
		desc: "fixed block, literals and a match",
		input: db(`<<<
			< 1 01                        # Last, fixed block
			> 00110000 00110001 00110010  # Literals 00 01 02
			> 0000001 00010               # Length: 3, Distance: 3
			> 0000000                     # EOB marker
		`),
		output: dh("000102000102"),
		inIdx:  6,
		outIdx: 6,
	}, {
		desc: "fixed block, overlapping run",
		input: db(`<<<
			< 1 01            # Last, fixed block
			> 00110001        # Literal 01
			> 0000010 00000   # Length: 4, Distance: 1
			> 0000000         # EOB marker
		`),
		output: dh("0101010101"),
		inIdx:  4,
		outIdx: 5,
	}, {
		desc: "fixed block, reserved length symbol 286",
		input: db(`<<<
			< 1 01     # Last, fixed block
			> 11000110 # Use reserved symbol 286
		`),
		inIdx: 2,
		err:   errs(deflate.ReservedLengthSymbol),
	}, {
		desc: "fixed block, reserved length symbol 287",
		input: db(`<<<
			< 1 01     # Last, fixed block
			> 11000111 # Use reserved symbol 287
		`),
		inIdx: 2,
		err:   errs(deflate.ReservedLengthSymbol),
	}, {
		desc: "fixed block, reserved distance symbol 30",
		input: db(`<<<
			< 1 01              # Last, fixed block
			> 00110000          # Literal 00
			> 0000001 11110     # Length: 3, reserved distance symbol 30
			> 0000000           # EOB marker
		`),
		output: dh("00"),
		inIdx:  3,
		outIdx: 1,
		err:    errs(deflate.ReservedDistanceSymbol),
	}, {
		desc: "fixed block, copy from before start of stream",
		input: db(`<<<
			< 1 01          # Last, fixed block
			> 0000001 00000 # Length: 3, Distance: 1 with empty dictionary
			> 0000000       # EOB marker
		`),
		inIdx: 2,
		err:   errs(deflate.CopyFromBeforeDictionaryStart),
	}, {
		desc: "reserved block type",
		input: db(`<<<
			< 1 11 0*5 # Last, reserved block
		`),
		inIdx: 1,
		err:   errs(deflate.ReservedBlockType),
	}, {
		desc: "dynamic block, empty",
		input: db(`<<<
			< 1 10                     # Last, dynamic block
			< D5:0 D5:1 D4:15          # HLit: 257, HDist: 2, HCLen: 19
			< 000*2 001 000*14 001 000 # HCLens: {1:1, 18:1}
			> 0                        # HLits[0]: 1
			> 1 <D7:127                # 138 zero lengths
			> 1 <D7:106                # 117 zero lengths
			> 0                        # HLits[256]: 1
			> 0 0                      # HDists: {0:1, 1:1}
			> 1                        # EOB marker
		`),
		inIdx: 12,
	}, {
		desc: "dynamic block, over-full code length code",
		input: db(`<<<
			< 1 10            # Last, dynamic block
			< D5:0 D5:0 D4:0  # HLit: 257, HDist: 1, HCLen: 4
			< 001 001 001 000 # HCLens: {16:1, 17:1, 18:1}
		`),
		inIdx: 4,
		err:   errs(deflate.HuffmanCodeOverFull),
	}, {
		desc: "dynamic block, under-full code length code",
		input: db(`<<<
			< 1 10            # Last, dynamic block
			< D5:0 D5:0 D4:0  # HLit: 257, HDist: 1, HCLen: 4
			< 000 000 001 000 # HCLens: {18:1}
		`),
		inIdx: 4,
		err:   errs(deflate.HuffmanCodeUnderFull),
	}, {
		desc: "dynamic block, repeater with no previous code length",
		input: db(`<<<
			< 1 10                     # Last, dynamic block
			< D5:0 D5:0 D4:15          # HLit: 257, HDist: 1, HCLen: 19
			< 001 000*2 001 000*15     # HCLens: {0:1, 16:1}
			> 1                        # Symbol 16 with nothing to copy
		`),
		inIdx: 10,
		err:   errs(deflate.NoPreviousCodeLengthToCopy),
	}, {
		desc: "dynamic block, repeater run past the declared count",
		input: db(`<<<
			< 1 10                     # Last, dynamic block
			< D5:0 D5:0 D4:15          # HLit: 257, HDist: 1, HCLen: 19
			< 000*2 001 001 000*15     # HCLens: {0:1, 18:1}
			> 1 <D7:127                # 138 zero lengths
			> 1 <D7:108                # 119 zero lengths
			> 1 <D7:0                  # 11 more overruns 258 codes
		`),
		inIdx: 13,
		err:   errs(deflate.CodeLengthCodeOverFull),
	}, {
		desc: "dynamic block, end-of-block symbol with zero length",
		input: db(`<<<
			< 1 10                     # Last, dynamic block
			< D5:0 D5:0 D4:15          # HLit: 257, HDist: 1, HCLen: 19
			< 000*3 001 000*13 001 000 # HCLens: {0:1, 1:1}
			> 1 1 0*255 0              # HLits: {0:1, 1:1}, HLits[256]: 0
		`),
		inIdx: 42,
		err:   errs(deflate.EndOfBlockCodeZeroLength),
	}, {
		desc: "dynamic block, literal-only with empty distance code",
		input: db(`<<<
			< 1 10                     # Last, dynamic block
			< D5:0 D5:0 D4:15          # HLit: 257, HDist: 1, HCLen: 19
			< 000*3 001 000*13 001 000 # HCLens: {0:1, 1:1}
			> 1 0*255 1 0              # HLits: {0:1, 256:1}, HDists: {}
			> 0 1                      # Literal 00, EOB marker
		`),
		output: dh("00"),
		inIdx:  42,
		outIdx: 1,
	}, {
		desc: "dynamic block, length symbol with empty distance code",
		input: db(`<<<
			< 1 10                     # Last, dynamic block
			< D5:1 D5:0 D4:15          # HLit: 258, HDist: 1, HCLen: 19
			< 000*3 001 000*13 001 000 # HCLens: {0:1, 1:1}
			> 0*256 1 1 0              # HLits: {256:1, 257:1}, HDists: {}
			> 1                        # Length symbol without distance code
		`),
		inIdx: 42,
		err:   errs(deflate.LengthEncounteredWithEmptyDistanceCode),
	}, {
		desc: "dynamic block, single distance code used",
		input: db(`<<<
			< 0 00 0*5                 # Non-last, stored block, padding
			< H16:0001 H16:fffe        # RawSize: 1
			X:7a                       # Raw data

			< 1 10                     # Last, dynamic block
			< D5:1 D5:0 D4:15          # HLit: 258, HDist: 1, HCLen: 19
			< 000*3 001 000*13 001 000 # HCLens: {0:1, 1:1}
			> 0*256 1*3                # HLits: {256:1, 257:1}, HDists: {0:1}
			> 1 0 0                    # Length: 3, Distance: 1, EOB marker
		`),
		output: dh("7a7a7a7a"),
		inIdx:  48,
		outIdx: 4,
	}, {
		desc: "dynamic block, single distance code, sentinel code used",
		input: db(`<<<
			< 0 00 0*5                 # Non-last, stored block, padding
			< H16:0001 H16:fffe        # RawSize: 1
			X:7a                       # Raw data

			< 1 10                     # Last, dynamic block
			< D5:1 D5:0 D4:15          # HLit: 258, HDist: 1, HCLen: 19
			< 000*3 001 000*13 001 000 # HCLens: {0:1, 1:1}
			> 0*256 1*3                # HLits: {256:1, 257:1}, HDists: {0:1}
			> 1 1                      # Length: 3, then the invalid '1' code
		`),
		output: dh("7a"),
		inIdx:  48,
		outIdx: 1,
		err:    errs(deflate.ReservedDistanceSymbol),
	}, {
		desc: "fixed block, maximum distance and length at window boundary",
		input: db(`<<<
			< 0 00 0*5                              # Non-last, stored block, padding
			< H16:8000 H16:7fff                     # RawSize: 32768
			X:0f1e2d3c4b5a69788796a5b4c3d2e1f0*2048 # Raw data

			< 1 01                     # Last, fixed block
			> 0000001 11101 <H13:1fff  # Length: 3, Distance: 32768
			> 11000101 11101 <H13:1fff # Length: 258, Distance: 32768
			> 0000000                  # EOB marker
		`),
		output: db(`<<<
			X:0f1e2d3c4b5a69788796a5b4c3d2e1f0*2048
			X:0f1e2d3c4b5a69788796a5b4c3d2e1f0*16
			X:0f1e2d3c4b
		`),
		inIdx:  32781,
		outIdx: 33029,
	}, {
		desc: "fixed block, distance just past window boundary",
		input: db(`<<<
			< 0 00 0*5                              # Non-last, stored block, padding
			< H16:7fff H16:8000                     # RawSize: 32767
			X:0f1e2d3c4b5a69788796a5b4c3d2e1f0*2047 X:0f1e2d3c4b5a69788796a5b4c3d2e1 # Raw data

			< 1 01                     # Last, fixed block
			> 0000001 11101 <H13:1fff  # Length: 3, Distance: 32768 > 32767 emitted
		`),
		output: db(`<<<
			X:0f1e2d3c4b5a69788796a5b4c3d2e1f0*2047 X:0f1e2d3c4b5a69788796a5b4c3d2e1
		`),
		inIdx:  32776,
		outIdx: 32767,
		err:    errs(deflate.CopyFromBeforeDictionaryStart),
	}}

	for i, v := range vectors {
		rd := NewReader(bytes.NewReader(v.input))
		output, err := ioutil.ReadAll(rd)

		if got, want := reasonOf(err), reasonOf(v.err); got != want || (err == nil) != (v.err == nil) {
			t.Errorf("test %d, %s\nerror mismatch: got %v, want %v", i, v.desc, err, v.err)
		}
		if !bytes.Equal(output, v.output) {
			t.Errorf("test %d, %s\noutput mismatch:\ngot  %x\nwant %x", i, v.desc, output, v.output)
		}
		if v.inIdx >= 0 && rd.InputOffset != v.inIdx {
			t.Errorf("test %d, %s\ninput offset mismatch: got %d, want %d", i, v.desc, rd.InputOffset, v.inIdx)
		}
		if rd.OutputOffset != v.outIdx {
			t.Errorf("test %d, %s\noutput offset mismatch: got %d, want %d", i, v.desc, rd.OutputOffset, v.outIdx)
		}
	}
}

// TestReaderRandomStored checks that sequences of stored blocks decode to
// the concatenation of their payloads regardless of block sizing and of
// how the padding bits are set.
func TestReaderRandomStored(t *testing.T) {
	rand := testutil.NewRand(0)
	for trial := 0; trial < 50; trial++ {
		var input, output bytes.Buffer
		numBlocks := 1 + rand.Intn(10)
		for i := 0; i < numBlocks; i++ {
			final := i == numBlocks-1
			n := rand.Intn(300)
			payload := rand.Bytes(n)

			hdr := byte(rand.Intn(256)) &^ 0x07 // Random padding bits
			if final {
				hdr |= 0x01
			}
			input.WriteByte(hdr)
			input.WriteByte(byte(n))
			input.WriteByte(byte(n >> 8))
			input.WriteByte(byte(^n))
			input.WriteByte(byte(^n >> 8))
			input.Write(payload)
			output.Write(payload)
		}

		rd := NewReader(bytes.NewReader(input.Bytes()))
		got, err := ioutil.ReadAll(rd)
		if err != nil {
			t.Fatalf("trial %d, unexpected Read error: %v", trial, err)
		}
		if !bytes.Equal(got, output.Bytes()) {
			t.Fatalf("trial %d, output mismatch", trial)
		}
	}
}

// TestReaderAlignment interleaves fixed blocks with stored blocks so that
// the stored block header lands on every bit alignment.
func TestReaderAlignment(t *testing.T) {
	for j := 0; j <= 8; j++ {
		var want bytes.Buffer
		s := "<<<\n"
		s += "< 0 01\n" // Non-last, fixed block
		for i := 0; i < j; i++ {
			s += "> 110010000\n" // Literal 0x90 (9-bit code)
			want.WriteByte(0x90)
		}
		s += "> 0000000\n" // EOB marker

		// The stored header must pad from the current bit position,
		// which the preceding 9-bit literals have cycled through every
		// residue mod 8.
		pads := (8 - (3+9*j+7+3)%8) % 8
		s += fmt.Sprintf("< 0 00 0*%d < H16:0002 H16:fffd X:abcd\n", pads)
		want.Write([]byte{0xab, 0xcd})
		s += "< 1 01\n> 0000000\n" // Last, fixed block, only EOB

		input, err := testutil.DecodeBitGen(s)
		if err != nil {
			t.Fatalf("alignment %d, unexpected DecodeBitGen error: %v", j, err)
		}
		rd := NewReader(bytes.NewReader(input))
		got, err := ioutil.ReadAll(rd)
		if err != nil {
			t.Fatalf("alignment %d, unexpected Read error: %v", j, err)
		}
		if !bytes.Equal(got, want.Bytes()) {
			t.Fatalf("alignment %d, output mismatch:\ngot  %x\nwant %x", j, got, want.Bytes())
		}
	}
}

// TestReaderBufferParity decodes the same stream with many different read
// granularities and expects identical output.
func TestReaderBufferParity(t *testing.T) {
	// Compress a repetitive input with the default Writer.
	input := testutil.ResizeData([]byte("the quick brown fox jumps over the lazy dog. "), 1<<16)
	var buf bytes.Buffer
	zw := NewWriter(&buf)
	if _, err := zw.Write(input); err != nil {
		t.Fatalf("unexpected Write error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}

	var want []byte
	for i, n := range []int{1, 2, 3, 7, 256, 4096} {
		rd := NewReader(bytes.NewReader(buf.Bytes()))
		var got []byte
		arr := make([]byte, n)
		for {
			cnt, err := rd.Read(arr[:n])
			got = append(got, arr[:cnt]...)
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("test %d, unexpected Read error: %v", i, err)
			}
		}
		if i == 0 {
			want = got
		}
		if !bytes.Equal(got, want) || !bytes.Equal(got, input) {
			t.Fatalf("test %d, output mismatch reading %d bytes at a time", i, n)
		}
	}
}

// TestReaderEndExact checks that the Reader consumes exactly the bytes of
// the compressed stream and nothing after it.
func TestReaderEndExact(t *testing.T) {
	input := testutil.ResizeData([]byte("hello, world! "), 1<<12)
	var buf bytes.Buffer
	zw := NewWriter(&buf)
	zw.Write(input)
	zw.Close()
	streamLen := int64(buf.Len())

	// A bytes.Buffer is a deflate.ByteReader, so the Reader must never
	// read a byte beyond the end of the DEFLATE stream.
	buf.WriteByte(0x7a) // Canary
	rd := NewReader(&buf)
	if _, err := ioutil.ReadAll(rd); err != nil {
		t.Fatalf("unexpected Read error: %v", err)
	}
	if rd.InputOffset != streamLen {
		t.Errorf("input offset mismatch: got %d, want %d", rd.InputOffset, streamLen)
	}
	if c, err := buf.ReadByte(); err != nil || c != 0x7a {
		t.Errorf("canary byte consumed: got (%x, %v), want (7a, nil)", c, err)
	}
}

// TestReaderSticky checks that the first format error is latched and
// re-returned by every subsequent call.
func TestReaderSticky(t *testing.T) {
	input := testutil.MustDecodeBitGen(`<<<
		< 1 11 0*5 # Last, reserved block
	`)
	rd := NewReader(bytes.NewReader(input))
	var arr [16]byte
	_, err1 := rd.Read(arr[:])
	_, err2 := rd.Read(arr[:])
	if err1 == nil || err1 != err2 {
		t.Errorf("sticky error mismatch: first %v, second %v", err1, err2)
	}
	if got, want := reasonOf(err1), int(deflate.ReservedBlockType); got != want {
		t.Errorf("reason mismatch: got %d, want %d", got, want)
	}
	if err := rd.Close(); err != err1 {
		t.Errorf("Close error mismatch: got %v, want %v", err, err1)
	}
}

func TestReaderReset(t *testing.T) {
	data := testutil.MustDecodeBitGen(`<<<
		< 0 00 0*5 < H16:000c H16:fff3 X:68656c6c6f2c20776f726c64
		< 1 00 0*5 < H16:0000 H16:ffff
	`)

	rd := NewReader(bytes.NewReader([]byte("garbage")))
	if _, err := ioutil.ReadAll(rd); reasonOf(err) < 0 {
		t.Errorf("expected a format error reading garbage, got %v", err)
	}

	rd.Reset(bytes.NewReader(data))
	output, err := ioutil.ReadAll(rd)
	if err != nil {
		t.Errorf("unexpected Read error: %v", err)
	}
	if string(output) != "hello, world" {
		t.Errorf("output mismatch: got %q", output)
	}
	if err := rd.Close(); err != nil {
		t.Errorf("unexpected Close error: %v", err)
	}
	if _, err := rd.Read(make([]byte, 1)); err != io.ErrClosedPipe {
		t.Errorf("read after Close: got %v, want %v", err, io.ErrClosedPipe)
	}
}

func TestReaderConfig(t *testing.T) {
	if _, err := NewReaderConfig(bytes.NewReader(nil), ReaderConfig{InputBufferSize: -1}); err == nil {
		t.Errorf("expected error for negative buffer size")
	}
	rd, err := NewReaderConfig(bytes.NewReader(testutil.MustDecodeBitGen(`<<<
		< 1 00 0*5 < H16:0000 H16:ffff
	`)), ReaderConfig{InputBufferSize: 1})
	if err != nil {
		t.Fatalf("unexpected NewReaderConfig error: %v", err)
	}
	if _, err := ioutil.ReadAll(rd); err != nil {
		t.Errorf("unexpected Read error: %v", err)
	}
}

func BenchmarkDecode(b *testing.B) {
	input := testutil.ResizeData([]byte("the quick brown fox jumps over the lazy dog. "), 1<<20)
	var buf bytes.Buffer
	zw := NewWriter(&buf)
	zw.Write(input)
	zw.Close()

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rd := NewReader(bytes.NewReader(buf.Bytes()))
		cnt, err := io.Copy(ioutil.Discard, rd)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if cnt != int64(len(input)) {
			b.Fatalf("unexpected count: got %d, want %d", cnt, len(input))
		}
	}
}
