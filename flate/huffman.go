// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"sort"

	"github.com/dsnet/deflate"
	"github.com/dsnet/deflate/internal"
)

// A prefix code tree is a flat array of 16-bit integers encoding an
// implicit binary tree. Each node is an adjacent pair starting on an even
// index; the earlier element is the '0' child and the later element is the
// '1' child. The root is the pair at index 0. A non-negative element is
// the index of a child node pair; a negative element is the bitwise
// complement of a leaf symbol.
//
// For example, this prefix tree:
//
//	     /\
//	    0  1
//	   /    \
//	  /\    'c'
//	 0  1
//	/    \
//	'a'  'b'
//
// is serialized as [2, ^'c', ^'a', ^'b'].
//
// The tree layout avoids a heap node per branch and keeps symbol decoding
// as array indexing in the inner loop.

// Number of low-order bits used to index the decode table.
// Any value from 1 to 15 decodes identically; it only affects speed.
const (
	codeTableBits = 9
	codeTableMask = 1<<codeTableBits - 1
)

// prefixDecoder decodes prefix codes from an LSB-first bit stream.
type prefixDecoder struct {
	tree    []int16 // Flat code tree
	table   []int16 // Accelerator table over the low codeTableBits bits
	minBits uint    // Length of the shortest code
}

// Init constructs the decoder from a set of code lengths, where
// lens[sym] == 0 means the symbol is absent. It panics with a
// deflate.Error if the lengths form an over-full or under-full code.
func (pd *prefixDecoder) Init(lens []int) {
	pd.tree = codeLengthsToCodeTree(lens)
	pd.table = codeTreeToCodeTable(pd.tree)
	pd.minBits = maxPrefixBits
	for _, n := range lens {
		if n > 0 && uint(n) < pd.minBits {
			pd.minBits = uint(n)
		}
	}
}

// codeLengthsToCodeTree converts canonical code lengths into a code tree.
// Symbols of equal length are assigned codes in ascending symbol order.
func codeLengthsToCodeTree(lens []int) []int16 {
	var numCodes int
	for _, n := range lens {
		if n > 0 {
			numCodes++
		}
	}
	if numCodes < 2 {
		panic(errorf(deflate.HuffmanCodeUnderFull, "under-full huffman code tree"))
	}

	// Walk lengths in (length, symbol) order, deepening every open slot
	// once per level and assigning leaves to open slots in order.
	tree := make([]int16, 2*(numCodes-1))
	next, end := 0, 2
	for curLen := 1; curLen <= maxPrefixBits; curLen++ {
		for sym, n := range lens {
			if n != curLen {
				continue
			}
			if next >= end {
				panic(errorf(deflate.HuffmanCodeOverFull, "over-full huffman code tree"))
			}
			tree[next] = int16(^sym)
			next++
		}

		// Every slot still open at this depth becomes an internal node.
		for end0 := end; next < end0; next++ {
			if end >= len(tree) {
				panic(errorf(deflate.HuffmanCodeUnderFull, "under-full huffman code tree"))
			}
			tree[next] = int16(end)
			end += 2
		}
	}
	if next < end {
		panic(errorf(deflate.HuffmanCodeUnderFull, "under-full huffman code tree"))
	}
	return tree
}

// codeTreeToCodeTable derives the accelerator table from a code tree.
// Entry i encodes the result of descending from the root using the bits
// of i starting from the lowest-order bit, packed as node<<4 | consumed.
// If node is negative, it is the complement of a fully decoded symbol;
// otherwise it is the tree index to resume the descent from.
func codeTreeToCodeTable(tree []int16) []int16 {
	table := make([]int16, 1<<codeTableBits)
	for i := range table {
		var node int16
		var consumed uint
		for {
			node = tree[int(node)+(i>>consumed)&1]
			consumed++
			if node < 0 || consumed == codeTableBits {
				break
			}
		}
		table[i] = node<<4 | int16(consumed)
	}
	return table
}

// codeLengthsToCodes converts canonical code lengths into encoder codes.
// Each element packs the bit-reversed code value and its length as
// code<<4 | length, ready for WriteBits(pc>>4, pc&0xf).
//
// The lengths must form an exactly full tree; this panics otherwise since
// the encoder controls its own code lengths.
func codeLengthsToCodes(lens []int, maxLen int) []uint32 {
	codes := make([]uint32, len(lens))
	var nextCode uint32
	for curLen := 1; curLen <= maxLen; curLen++ {
		nextCode <<= 1
		for sym, n := range lens {
			if n != curLen {
				continue
			}
			if nextCode>>uint(curLen) != 0 {
				panic(internal.Error("over-full prefix code"))
			}
			rev := internal.ReverseUint32N(nextCode, uint(curLen))
			codes[sym] = rev<<4 | uint32(curLen)
			nextCode++
		}
	}
	if nextCode != 1<<uint(maxLen) {
		panic(internal.Error("under-full prefix code"))
	}
	return codes
}

// calcPrefixLengths computes optimal length-limited code lengths for the
// given symbol histogram using the package-merge algorithm. At least two
// symbols must have positive frequency, and the result never exceeds
// maxLen bits per code.
func calcPrefixLengths(hist []int, maxLen int) []int {
	type node struct {
		freq int64
		syms []int
	}
	var leaves []node
	for sym, f := range hist {
		if f > 0 {
			leaves = append(leaves, node{freq: int64(f), syms: []int{sym}})
		}
	}
	if len(leaves) < 2 {
		panic(internal.Error("too few symbols for prefix code"))
	}

	var nodes []node
	for level := 0; level < maxLen; level++ {
		nodes = append(nodes, leaves...)
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].freq < nodes[j].freq
		})
		var merged []node
		for j := 0; j+2 <= len(nodes); j += 2 {
			a, b := &nodes[j], &nodes[j+1]
			syms := make([]int, 0, len(a.syms)+len(b.syms))
			syms = append(append(syms, a.syms...), b.syms...)
			merged = append(merged, node{freq: a.freq + b.freq, syms: syms})
		}
		nodes = merged // Any unpaired node is discarded
	}

	// Each symbol's code length is the number of packages it appears in
	// among the cheapest numLeaves-1 packages.
	lens := make([]int, len(hist))
	for _, nd := range nodes[:len(leaves)-1] {
		for _, sym := range nd.syms {
			lens[sym]++
		}
	}
	return lens
}
