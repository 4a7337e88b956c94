// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

// DynamicHuffmanLiteral is a Strategy that encodes data as a single
// dynamic prefix block (RFC section 3.2.7) of literals only, with an
// optimal length-limited code computed by package-merge.
var DynamicHuffmanLiteral Strategy = dynamicHuffmanLiteral{}

// DynamicHuffmanRLE is a Strategy that encodes data as a single dynamic
// prefix block, emitting distance-one matches for runs of three or more
// repeated bytes, with optimal codes for the symbols actually used.
var DynamicHuffmanRLE Strategy = dynamicHuffmanRLE{}

// clenSym is one symbol of the run-length-encoded code length stream,
// together with the value of its extra bits field.
type clenSym struct {
	sym   int
	extra int
}

// encodeCodeLengths run-length-encodes a code length vector with the
// repeater symbols 16, 17, and 18 using a greedy scan.
func encodeCodeLengths(lens []int) []clenSym {
	var syms []clenSym
	for i := 0; i < len(lens); {
		val := lens[i]
		if val == 0 {
			run := 1
			for run < 138 && i+run < len(lens) && lens[i+run] == 0 {
				run++
			}
			switch {
			case run < 3:
				syms = append(syms, clenSym{sym: 0})
				i++
			case run < 11:
				syms = append(syms, clenSym{sym: 17, extra: run - 3})
				i += run
			default:
				syms = append(syms, clenSym{sym: 18, extra: run - 11})
				i += run
			}
			continue
		}
		if i > 0 {
			run := 0
			for run < 6 && i+run < len(lens) && lens[i+run] == lens[i-1] {
				run++
			}
			if run >= 3 {
				syms = append(syms, clenSym{sym: 16, extra: run - 3})
				i += run
				continue
			}
		}
		syms = append(syms, clenSym{sym: val})
		i++
	}
	return syms
}

// writeDynamicHeader emits the HLIT, HDIST, and HCLEN fields, the code
// length code, and the run-length-encoded code lengths for both alphabets.
// It returns the encoder form of the literal/length code; callers that
// use distances derive the distance code from distLens themselves.
func writeDynamicHeader(bw BitWriter, litLens, distLens []int) []uint32 {
	lens := make([]int, 0, len(litLens)+len(distLens))
	lens = append(append(lens, litLens...), distLens...)
	syms := encodeCodeLengths(lens)

	var hist [maxNumCLenSyms]int
	for _, cs := range syms {
		hist[cs.sym]++
	}
	clenCodeLens := calcPrefixLengths(hist[:], 7)

	// The code length code lengths are sent in clenLens order with
	// trailing zeros trimmed, but no fewer than four.
	var reordered [maxNumCLenSyms]int
	for i, sym := range clenLens {
		reordered[i] = clenCodeLens[sym]
	}
	numCLens := len(reordered)
	for numCLens > 4 && reordered[numCLens-1] == 0 {
		numCLens--
	}

	bw.WriteBits(uint(len(litLens)-257), 5) // HLIT
	bw.WriteBits(uint(len(distLens)-1), 5)  // HDIST
	bw.WriteBits(uint(numCLens-4), 4)       // HCLEN
	for _, n := range reordered[:numCLens] {
		bw.WriteBits(uint(n), 3)
	}

	clenCodes := codeLengthsToCodes(clenCodeLens, 7)
	for _, cs := range syms {
		writeCode(bw, clenCodes[cs.sym])
		switch cs.sym {
		case 16:
			bw.WriteBits(uint(cs.extra), 2)
		case 17:
			bw.WriteBits(uint(cs.extra), 3)
		case 18:
			bw.WriteBits(uint(cs.extra), 7)
		}
	}
	return codeLengthsToCodes(litLens, maxPrefixBits)
}

type dynamicHuffmanLiteral struct{}

func (dynamicHuffmanLiteral) Decide(buf []byte, off, historyLen, dataLen int) Decision {
	var hist [endBlockSym + 1]int
	for _, c := range buf[off+historyLen : off+historyLen+dataLen] {
		hist[c]++
	}
	hist[endBlockSym]++
	if dataLen == 0 {
		hist[0]++ // Dummy value to fill the prefix code tree
	}

	d := &dynamicLiteralDecision{
		buf:     buf,
		pos:     off + historyLen,
		n:       dataLen,
		litLens: calcPrefixLengths(hist[:], maxPrefixBits),
	}
	d.bitLen = measureBits(d.CompressTo)
	return d
}

type dynamicLiteralDecision struct {
	buf     []byte
	pos, n  int
	litLens []int
	bitLen  int64
}

func (d *dynamicLiteralDecision) BitLengths() [8]int64 {
	return uniformBitLengths(d.bitLen)
}

func (d *dynamicLiteralDecision) CompressTo(bw BitWriter, final bool) {
	writeBlockHeader(bw, 2, final)
	litCodes := writeDynamicHeader(bw, d.litLens, []int{0})
	for _, c := range d.buf[d.pos : d.pos+d.n] {
		writeCode(bw, litCodes[c])
	}
	writeCode(bw, litCodes[endBlockSym])
}

type dynamicHuffmanRLE struct{}

func (dynamicHuffmanRLE) Decide(buf []byte, off, historyLen, dataLen int) Decision {
	var hist [maxNumLitSyms - 2]int
	var distUsed bool
	index, end := off+historyLen, off+historyLen+dataLen
	for index < end {
		if run := repeatRun(buf, off, index, end); run >= minMatchLen {
			sym, _, _ := lengthSymbol(run)
			hist[sym]++
			distUsed = true
			index += run
			continue
		}
		hist[buf[index]]++
		index++
	}
	hist[endBlockSym]++
	if dataLen == 0 {
		hist[0]++ // Dummy value to fill the prefix code tree
	}
	histEnd := len(hist)
	for histEnd > endBlockSym+1 && hist[histEnd-1] == 0 {
		histEnd--
	}

	distLens := []int{0}
	if distUsed {
		// A lone one-bit distance code; decoders accept this degenerate
		// form even though RFC 1951 does not spell it out.
		distLens = []int{1}
	}
	d := &dynamicRLEDecision{
		buf:      buf,
		off:      off,
		pos:      off + historyLen,
		n:        dataLen,
		litLens:  calcPrefixLengths(hist[:histEnd], maxPrefixBits),
		distLens: distLens,
	}
	d.bitLen = measureBits(d.CompressTo)
	return d
}

type dynamicRLEDecision struct {
	buf         []byte
	off, pos, n int
	litLens     []int
	distLens    []int
	bitLen      int64
}

func (d *dynamicRLEDecision) BitLengths() [8]int64 {
	return uniformBitLengths(d.bitLen)
}

func (d *dynamicRLEDecision) CompressTo(bw BitWriter, final bool) {
	writeBlockHeader(bw, 2, final)
	litCodes := writeDynamicHeader(bw, d.litLens, d.distLens)
	index, end := d.pos, d.pos+d.n
	for index < end {
		if run := repeatRun(d.buf, d.off, index, end); run >= minMatchLen {
			sym, extra, nb := lengthSymbol(run)
			writeCode(bw, litCodes[sym])
			bw.WriteBits(extra, nb)
			bw.WriteBits(0, 1) // The lone distance code for distance 1
			index += run
			continue
		}
		writeCode(bw, litCodes[d.buf[index]])
		index++
	}
	writeCode(bw, litCodes[endBlockSym])
}
