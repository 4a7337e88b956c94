// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"bytes"
	"errors"
	"io/ioutil"
	"testing"

	"github.com/dsnet/deflate/internal/testutil"
)

func testWriterConfigs(t *testing.T) map[string]WriterConfig {
	t.Helper()
	lz, err := NewLZ77Huffman(true, 3, 258, 1, 1<<8)
	if err != nil {
		t.Fatalf("unexpected NewLZ77Huffman error: %v", err)
	}
	return map[string]WriterConfig{
		"Default":      {},
		"Uncompressed": {Strategy: Uncompressed},
		"Static":       {Strategy: StaticHuffman},
		"DynamicRLE":   {Strategy: DynamicHuffmanRLE},
		"LZ77":         {Strategy: lz},
		"SmallBuffer":  {BufferSize: 127},
		"SmallWindow":  {Strategy: lz, HistorySize: 61, BufferSize: 100},
		"TinyHistory":  {HistorySize: 1, BufferSize: 1 << 10},
	}
}

func TestWriterRoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"Empty":   nil,
		"Byte":    {0x00},
		"Text":    testutil.ResizeData([]byte("the quick brown fox jumps over the lazy dog. "), 1<<14),
		"Zeros":   make([]byte, 1<<14),
		"Random":  testutil.NewRand(0).Bytes(1 << 14),
		"Period7": testutil.ResizeData([]byte{1, 2, 3, 4, 5, 6, 7}, 1<<12),
	}

	for cname, conf := range testWriterConfigs(t) {
		for iname, input := range inputs {
			var buf bytes.Buffer
			zw, err := NewWriterConfig(&buf, conf)
			if err != nil {
				t.Fatalf("%s/%s: unexpected NewWriterConfig error: %v", cname, iname, err)
			}
			if _, err := zw.Write(input); err != nil {
				t.Fatalf("%s/%s: unexpected Write error: %v", cname, iname, err)
			}
			if err := zw.Close(); err != nil {
				t.Fatalf("%s/%s: unexpected Close error: %v", cname, iname, err)
			}
			if zw.InputOffset != int64(len(input)) {
				t.Errorf("%s/%s: input offset mismatch: got %d, want %d", cname, iname, zw.InputOffset, len(input))
			}
			if zw.OutputOffset != int64(buf.Len()) {
				t.Errorf("%s/%s: output offset mismatch: got %d, want %d", cname, iname, zw.OutputOffset, buf.Len())
			}

			rd := NewReader(bytes.NewReader(buf.Bytes()))
			output, err := ioutil.ReadAll(rd)
			if err != nil {
				t.Errorf("%s/%s: unexpected Read error: %v", cname, iname, err)
				continue
			}
			if !bytes.Equal(output, input) {
				t.Errorf("%s/%s: output mismatch", cname, iname)
			}
		}
	}
}

// TestWriterSplitParity checks that the emitted stream decodes the same
// regardless of how the input was sliced across Write calls.
func TestWriterSplitParity(t *testing.T) {
	input := testutil.ResizeData([]byte("abracadabra"), 1<<13)
	for _, n := range []int{1, 3, 100, 1 << 12} {
		var buf bytes.Buffer
		zw, err := NewWriterConfig(&buf, WriterConfig{BufferSize: 1 << 10})
		if err != nil {
			t.Fatalf("unexpected NewWriterConfig error: %v", err)
		}
		for off := 0; off < len(input); off += n {
			end := off + n
			if end > len(input) {
				end = len(input)
			}
			if _, err := zw.Write(input[off:end]); err != nil {
				t.Fatalf("split %d: unexpected Write error: %v", n, err)
			}
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("split %d: unexpected Close error: %v", n, err)
		}

		output, err := ioutil.ReadAll(NewReader(bytes.NewReader(buf.Bytes())))
		if err != nil {
			t.Fatalf("split %d: unexpected Read error: %v", n, err)
		}
		if !bytes.Equal(output, input) {
			t.Fatalf("split %d: output mismatch", n)
		}
	}
}

// TestWriterFlush checks that all data written before a Flush is
// decodable from the bytes emitted so far.
func TestWriterFlush(t *testing.T) {
	var buf bytes.Buffer
	zw := NewWriter(&buf)

	var written []byte
	for i, s := range []string{"hello", ", ", "world", "!"} {
		if _, err := zw.Write([]byte(s)); err != nil {
			t.Fatalf("step %d: unexpected Write error: %v", i, err)
		}
		written = append(written, s...)
		if err := zw.Flush(); err != nil {
			t.Fatalf("step %d: unexpected Flush error: %v", i, err)
		}

		// The flushed prefix must decode completely on its own.
		rd := NewReader(bytes.NewReader(buf.Bytes()))
		var got []byte
		arr := make([]byte, 64)
		for {
			cnt, err := rd.Read(arr)
			got = append(got, arr[:cnt]...)
			if err != nil {
				break // Hits unexpected EOF at the open stream end
			}
		}
		if !bytes.Equal(got, written) {
			t.Fatalf("step %d: flushed output mismatch: got %q, want %q", i, got, written)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}
	output, err := ioutil.ReadAll(NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("unexpected Read error: %v", err)
	}
	if !bytes.Equal(output, written) {
		t.Fatalf("final output mismatch: got %q, want %q", output, written)
	}
}

func TestWriterReset(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	zw := NewWriter(&buf1)
	zw.Write([]byte("first stream"))
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close is not idempotent: %v", err)
	}
	if _, err := zw.Write([]byte("x")); err != errClosed {
		t.Fatalf("write after Close: got %v, want %v", err, errClosed)
	}

	zw.Reset(&buf2)
	zw.Write([]byte("second stream"))
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected Close error: %v", err)
	}

	for i, v := range []struct {
		buf  *bytes.Buffer
		want string
	}{{&buf1, "first stream"}, {&buf2, "second stream"}} {
		output, err := ioutil.ReadAll(NewReader(bytes.NewReader(v.buf.Bytes())))
		if err != nil {
			t.Fatalf("stream %d: unexpected Read error: %v", i, err)
		}
		if string(output) != v.want {
			t.Fatalf("stream %d: output mismatch: got %q, want %q", i, output, v.want)
		}
	}
}

func TestWriterConfigErrors(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewWriterConfig(&buf, WriterConfig{HistorySize: maxHistSize + 1}); err == nil {
		t.Errorf("expected error for oversized history")
	}
	if _, err := NewWriterConfig(&buf, WriterConfig{HistorySize: -1}); err == nil {
		t.Errorf("expected error for negative history")
	}
	if _, err := NewWriterConfig(&buf, WriterConfig{BufferSize: -1}); err == nil {
		t.Errorf("expected error for negative buffer size")
	}
}

func TestWriterFaultySink(t *testing.T) {
	bw := &testutil.BuggyWriter{W: ioutil.Discard, N: 3, Err: errFault}
	zw := NewWriter(bw)
	zw.Write(make([]byte, 1<<20))
	if err := zw.Close(); err != errFault {
		t.Fatalf("error mismatch: got %v, want %v", err, errFault)
	}
	if err := zw.Close(); err != errFault {
		t.Fatalf("latched error mismatch: got %v, want %v", err, errFault)
	}
}

var errFault = errors.New("fault")
