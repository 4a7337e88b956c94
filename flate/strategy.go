// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

// A BitWriter is the sink that a Decision emits its encoding into.
// It is implemented by the Writer's internal bit packer and by the
// counting writer used to cost candidate encodings.
type BitWriter interface {
	// WriteBits appends the nb lowest bits of val, least-significant
	// first, with 0 <= nb <= 31 and val < 1<<nb.
	WriteBits(val, nb uint)

	// BitPosition reports the current offset within the output byte,
	// in [0, 8), where 0 means byte-aligned.
	BitPosition() uint
}

// A Strategy decides how to encode the next span of data as one or more
// DEFLATE blocks. The buffer holds historyLen bytes of already-emitted
// history starting at off, immediately followed by dataLen bytes of data
// to encode. The history is available for backward matches but must not
// be re-emitted.
type Strategy interface {
	Decide(buf []byte, off, historyLen, dataLen int) Decision
}

// A Decision is a deferred encoding of one span of data. Nothing is
// written until CompressTo is called; BitLengths allows composite
// strategies to compare candidate encodings first.
type Decision interface {
	// BitLengths reports the exact number of bits that CompressTo will
	// emit when the writer's current bit position is 0 through 7. The
	// eight values differ only for encodings containing stored blocks,
	// whose leading pad depends on the alignment at emission time.
	BitLengths() [8]int64

	// CompressTo writes the block header (bfinal, btype) and body for
	// the decided encoding. If final is true, the last emitted block is
	// marked as the end of the DEFLATE stream.
	CompressTo(bw BitWriter, final bool)
}

// uniformBitLengths is the BitLengths tuple of an alignment-agnostic
// encoding.
func uniformBitLengths(n int64) (lens [8]int64) {
	for i := range lens {
		lens[i] = n
	}
	return lens
}

// measureBits measures an emission by running it against a counting
// writer at bit position zero.
func measureBits(emit func(BitWriter, bool)) int64 {
	var cw countingBitWriter
	emit(&cw, false)
	return cw.nbits
}

// writeBlockHeader emits the bfinal and btype fields.
func writeBlockHeader(bw BitWriter, btype uint, final bool) {
	if final {
		bw.WriteBits(1, 1)
	} else {
		bw.WriteBits(0, 1)
	}
	bw.WriteBits(btype, 2)
}

// writeCode emits a packed prefix code as produced by codeLengthsToCodes.
func writeCode(bw BitWriter, pc uint32) {
	bw.WriteBits(uint(pc>>4), uint(pc&0xf))
}
