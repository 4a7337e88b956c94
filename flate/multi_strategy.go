// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"errors"
	"math"
)

// NewMultiStrategy creates a Strategy that evaluates every given
// sub-strategy on the data and defers to whichever one emits the fewest
// bits at the writer's alignment when emission happens.
func NewMultiStrategy(strats ...Strategy) (Strategy, error) {
	if len(strats) == 0 {
		return nil, errors.New("flate: empty list of strategies")
	}
	for _, st := range strats {
		if st == nil {
			return nil, errors.New("flate: nil strategy")
		}
	}
	ms := &multiStrategy{strats: make([]Strategy, len(strats))}
	copy(ms.strats, strats)
	return ms, nil
}

type multiStrategy struct {
	strats []Strategy
}

func (ms *multiStrategy) Decide(buf []byte, off, historyLen, dataLen int) Decision {
	d := new(multiDecision)
	for i := range d.bitLens {
		d.bitLens[i] = math.MaxInt64
	}
	for _, st := range ms.strats {
		dec := st.Decide(buf, off, historyLen, dataLen)
		lens := dec.BitLengths()
		for i := range d.bitLens {
			if lens[i] < d.bitLens[i] {
				d.bitLens[i] = lens[i]
				d.subs[i] = dec
			}
		}
	}
	return d
}

type multiDecision struct {
	bitLens [8]int64
	subs    [8]Decision
}

func (d *multiDecision) BitLengths() [8]int64 {
	return d.bitLens
}

func (d *multiDecision) CompressTo(bw BitWriter, final bool) {
	d.subs[bw.BitPosition()].CompressTo(bw, final)
}
