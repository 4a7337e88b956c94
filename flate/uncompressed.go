// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

// Uncompressed is a Strategy that encodes data as stored blocks
// (RFC section 3.2.4), splitting spans longer than 65535 bytes.
// It expands the data slightly but is never worse than 35 bits plus
// padding per block of overhead, and is the only encoding whose cost
// depends on the writer's alignment.
var Uncompressed Strategy = uncompressed{}

type uncompressed struct{}

func (uncompressed) Decide(buf []byte, off, historyLen, dataLen int) Decision {
	return &uncompressedDecision{buf: buf, pos: off + historyLen, n: dataLen}
}

type uncompressedDecision struct {
	buf []byte
	pos int // Start of the data region
	n   int // Number of data bytes
}

func (d *uncompressedDecision) BitLengths() (lens [8]int64) {
	for p := range lens {
		nbits := int64(0)
		pos := uint(p)
		remain := d.n
		for {
			n := minInt(remain, maxRawBlockSize)
			blkBits := int64(3)
			blkBits += int64(-(pos + 3) & 7) // Padding to byte-align
			blkBits += 32                    // LEN and NLEN
			blkBits += 8 * int64(n)
			nbits += blkBits
			pos = 0 // Stored blocks leave the stream byte-aligned
			remain -= n
			if remain == 0 {
				break
			}
		}
		lens[p] = nbits
	}
	return lens
}

func (d *uncompressedDecision) CompressTo(bw BitWriter, final bool) {
	index, end := d.pos, d.pos+d.n
	for {
		n := minInt(end-index, maxRawBlockSize)
		writeBlockHeader(bw, 0, final && index+n == end)
		bw.WriteBits(0, -(bw.BitPosition())&7)
		bw.WriteBits(uint(n)^0x0000, 16)
		bw.WriteBits(uint(n)^0xffff, 16)
		for _, c := range d.buf[index : index+n] {
			bw.WriteBits(uint(c), 8)
		}
		index += n
		if index == end {
			return
		}
	}
}
