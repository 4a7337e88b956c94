// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "errors"

// NewLZ77Huffman creates a Strategy that performs greedy LZ77 match
// searching over the window (history included) and encodes the resulting
// literals and (length, distance) pairs as a single prefix block. If
// dynamic is false, the fixed codes of RFC section 3.2.6 are used;
// otherwise optimal dynamic codes are computed from the symbol histogram.
//
// The search is bounded by minRun/maxRun within [3, 258] and by
// minDist/maxDist within [1, 32768]. At each position the match of
// greatest length wins, with ties broken by smallest distance; matches
// shorter than minRun are emitted as literals.
func NewLZ77Huffman(dynamic bool, minRun, maxRun, minDist, maxDist int) (Strategy, error) {
	switch {
	case !(minMatchLen <= minRun && minRun <= maxRun && maxRun <= maxMatchLen):
		return nil, errors.New("flate: invalid minimum/maximum run length")
	case !(minMatchDist <= minDist && minDist <= maxDist && maxDist <= maxMatchDist):
		return nil, errors.New("flate: invalid minimum/maximum distance")
	}
	return &lz77Huffman{
		dynamic: dynamic,
		minRun:  minRun, maxRun: maxRun,
		minDist: minDist, maxDist: maxDist,
	}, nil
}

type lz77Huffman struct {
	dynamic          bool
	minRun, maxRun   int
	minDist, maxDist int
}

// lz77Token is either a literal byte (high bit clear) or a match with the
// run length and distance packed into the low bits.
type lz77Token uint32

const lz77Match lz77Token = 1 << 31

func lz77Literal(c byte) lz77Token {
	return lz77Token(c)
}

func lz77Pair(run, dist int) lz77Token {
	return lz77Match | lz77Token(run)<<16 | lz77Token(dist)
}

func (t lz77Token) pair() (run, dist int) {
	return int(t>>16) & 0x7fff, int(t & 0xffff)
}

func (ls *lz77Huffman) Decide(buf []byte, off, historyLen, dataLen int) Decision {
	var tokens []lz77Token
	var litHist [maxNumLitSyms - 2]int
	var distHist [maxNumDistSyms - 2]int

	index, end := off+historyLen, off+historyLen+dataLen
	for index < end {
		var bestRun, bestDist int
		distEnd := minInt(ls.maxDist, index-off)
		for dist := ls.minDist; dist <= distEnd && bestRun < ls.maxRun; dist++ {
			run := 0
			histIndex := index - dist
			for run < ls.maxRun && index+run < end && buf[index+run] == buf[histIndex] {
				run++
				histIndex++
				if histIndex == index {
					histIndex -= dist // Overlapping match wraps into itself
				}
			}
			if run > bestRun {
				bestRun, bestDist = run, dist
			}
		}

		if bestRun < ls.minRun {
			c := buf[index]
			tokens = append(tokens, lz77Literal(c))
			litHist[c]++
			index++
			continue
		}
		sym, _, _ := lengthSymbol(bestRun)
		litHist[sym]++
		sym, _, _ = distanceSymbol(bestDist)
		distHist[sym]++
		tokens = append(tokens, lz77Pair(bestRun, bestDist))
		index += bestRun
	}
	litHist[endBlockSym]++

	d := &lz77Decision{dynamic: ls.dynamic, tokens: tokens}
	if ls.dynamic {
		if dataLen == 0 {
			litHist[0]++ // Dummy value to fill the prefix code tree
		}
		litEnd := len(litHist)
		for litEnd > endBlockSym+1 && litHist[litEnd-1] == 0 {
			litEnd--
		}
		d.litLens = calcPrefixLengths(litHist[:litEnd], maxPrefixBits)

		// A complete prefix code needs at least two symbols, so when only
		// one distance code is used, give a neighboring symbol a dummy
		// length.
		numDistUsed := 0
		for _, n := range distHist {
			if n > 0 {
				numDistUsed++
			}
		}
		if numDistUsed == 1 {
			for i, n := range distHist {
				if n > 0 {
					if i+1 < len(distHist) {
						distHist[i+1] = 1
					} else {
						distHist[i-1] = 1
					}
					break
				}
			}
		}
		distEnd := len(distHist)
		for distEnd > 1 && distHist[distEnd-1] == 0 {
			distEnd--
		}
		if numDistUsed == 0 {
			d.distLens = []int{0}
		} else {
			d.distLens = calcPrefixLengths(distHist[:distEnd], maxPrefixBits)
		}
	}
	d.bitLen = measureBits(d.CompressTo)
	return d
}

type lz77Decision struct {
	dynamic  bool
	tokens   []lz77Token
	litLens  []int
	distLens []int
	bitLen   int64
}

func (d *lz77Decision) BitLengths() [8]int64 {
	return uniformBitLengths(d.bitLen)
}

func (d *lz77Decision) CompressTo(bw BitWriter, final bool) {
	var litCodes, distCodes []uint32
	if !d.dynamic {
		writeBlockHeader(bw, 1, final)
		litCodes, distCodes = fixedLitCodes, fixedDistCodes
	} else {
		writeBlockHeader(bw, 2, final)
		litCodes = writeDynamicHeader(bw, d.litLens, d.distLens)
		if !(len(d.distLens) == 1 && d.distLens[0] == 0) {
			distCodes = codeLengthsToCodes(d.distLens, maxPrefixBits)
		}
	}

	for _, t := range d.tokens {
		if t&lz77Match == 0 {
			writeCode(bw, litCodes[t&0xff])
			continue
		}
		run, dist := t.pair()
		sym, extra, nb := lengthSymbol(run)
		writeCode(bw, litCodes[sym])
		bw.WriteBits(extra, nb)
		sym, extra, nb = distanceSymbol(dist)
		writeCode(bw, distCodes[sym])
		bw.WriteBits(extra, nb)
	}
	writeCode(bw, litCodes[endBlockSym])
}
