// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import "errors"

// NewBinarySplit creates a Strategy that recursively splits the data in
// half whenever encoding the halves as separate blocks costs fewer bits
// than the sub-strategy's one-shot encoding. Recursion stops once a half
// would be at most minBlockLen bytes. Sub-decisions are cached so that
// the chosen tree is emitted in a single pass.
func NewBinarySplit(strat Strategy, minBlockLen int) (Strategy, error) {
	if strat == nil {
		return nil, errors.New("flate: nil strategy")
	}
	if minBlockLen < 1 {
		return nil, errors.New("flate: non-positive minimum block length")
	}
	return &binarySplit{strat: strat, minBlockLen: minBlockLen}, nil
}

type binarySplit struct {
	strat       Strategy
	minBlockLen int
}

func (bs *binarySplit) Decide(buf []byte, off, historyLen, dataLen int) Decision {
	return bs.decide(buf, off, historyLen, dataLen,
		bs.strat.Decide(buf, off, historyLen, dataLen))
}

func (bs *binarySplit) decide(buf []byte, off, historyLen, dataLen int, cur Decision) Decision {
	d := new(splitDecision)
	d.bitLens = cur.BitLengths()
	for i := range d.subs {
		d.subs[i] = []Decision{cur}
	}

	firstLen := (dataLen + 1) / 2
	secondLen := dataLen - firstLen
	if minInt(firstLen, secondLen) > bs.minBlockLen {
		// The second half keeps the first half as additional history.
		split := []Decision{
			bs.strat.Decide(buf, off, historyLen, firstLen),
			bs.strat.Decide(buf, off, historyLen+firstLen, secondLen),
		}
		improved := false
		for i := range d.bitLens {
			if splitBitLength(split, uint(i)) < d.bitLens[i] {
				improved = true
			}
		}
		if improved {
			split[0] = bs.decide(buf, off, historyLen, firstLen, split[0])
			split[1] = bs.decide(buf, off, historyLen+firstLen, secondLen, split[1])
		}
		for i := range d.bitLens {
			if n := splitBitLength(split, uint(i)); n < d.bitLens[i] {
				d.bitLens[i] = n
				d.subs[i] = split
			}
		}
	}
	return d
}

// splitBitLength simulates emitting the decisions in sequence starting at
// the given bit position and reports the total number of bits.
func splitBitLength(decs []Decision, pos uint) int64 {
	bitLen := int64(pos)
	for _, dec := range decs {
		lens := dec.BitLengths()
		bitLen += lens[bitLen%8]
	}
	return bitLen - int64(pos)
}

type splitDecision struct {
	bitLens [8]int64
	subs    [8][]Decision
}

func (d *splitDecision) BitLengths() [8]int64 {
	return d.bitLens
}

func (d *splitDecision) CompressTo(bw BitWriter, final bool) {
	decs := d.subs[bw.BitPosition()]
	for i, dec := range decs {
		dec.CompressTo(bw, final && i == len(decs)-1)
	}
}
