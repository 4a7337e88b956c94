// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package flate

import (
	"errors"
	"io"

	"github.com/dsnet/deflate"
)

// defaultInputBufferSize is the size of the bufio.Reader used to wrap
// sources that do not implement deflate.ByteReader.
const defaultInputBufferSize = 16 * 1024

// A ReaderConfig configures a Reader.
type ReaderConfig struct {
	// InputBufferSize is the size of the internal read buffer used when
	// the underlying io.Reader is not a deflate.ByteReader. It must be
	// positive.
	InputBufferSize int
}

// A Reader decompresses a raw DEFLATE stream (RFC 1951, without zlib or
// gzip framing) read from an underlying io.Reader.
//
// When the source is a deflate.ByteReader (such as a *bytes.Reader or a
// *bufio.Reader), the Reader consumes it with byte precision: when the
// final block has been decoded, the source is positioned exactly on the
// first byte after the compressed stream (a byte with any consumed bit
// counts as fully consumed). Any other io.Reader is wrapped in an internal
// bufio.Reader, which may read past the end of the stream. In both cases
// InputOffset equals the compressed length.
//
// The first format violation or premature EOF is latched: every subsequent
// Read returns the same error without touching the source.
type Reader struct {
	InputOffset  int64 // Total number of bytes read from underlying io.Reader
	OutputOffset int64 // Total number of bytes emitted from Read

	rd     bitReader // Input source
	toRead []byte    // Uncompressed data ready to be emitted from Read
	dist   int       // The current distance
	blkLen int       // Uncompressed bytes left to read in stored block
	cpyLen int       // Bytes left to backward dictionary copy
	last   bool      // Last block bit detected
	err    error     // Persistent error

	step      func(*Reader) // Single step of decompression work (can panic)
	stepState int           // The sub-step state for certain steps

	dict      dictDecoder                         // Dynamic sliding dictionary
	litTree   prefixDecoder                       // Literal and length symbol prefix decoder
	distTree  prefixDecoder                       // Backward distance symbol prefix decoder
	distEmpty bool                                // Current block declared no distance code
	clenTree  prefixDecoder                       // Scratch decoder for the code length code
	lens      [maxNumLitSyms + maxNumDistSyms]int // Scratch code lengths
}

// NewReader creates a new Reader reading the given raw DEFLATE stream.
func NewReader(r io.Reader) *Reader {
	fr := new(Reader)
	fr.Reset(r)
	return fr
}

// NewReaderConfig creates a new Reader with the given configuration.
func NewReaderConfig(r io.Reader, conf ReaderConfig) (*Reader, error) {
	if conf.InputBufferSize <= 0 {
		return nil, errors.New("flate: invalid input buffer size")
	}
	fr := new(Reader)
	fr.reset(r, conf.InputBufferSize)
	return fr, nil
}

// Reset discards the Reader's state and makes it equivalent to the result
// of a call to NewReader, but reusing internal buffers.
func (fr *Reader) Reset(r io.Reader) {
	fr.reset(r, defaultInputBufferSize)
}

func (fr *Reader) reset(r io.Reader, bufSize int) {
	*fr = Reader{
		rd:   fr.rd,
		step: (*Reader).readBlockHeader,
		dict: fr.dict,
	}
	fr.rd.Init(r, bufSize)
	fr.dict.Init(maxHistSize)
}

// Read reads decompressed data into buf. It returns a positive count
// whenever any decompressed data is available, and io.EOF after the final
// block has been fully emitted.
func (fr *Reader) Read(buf []byte) (int, error) {
	for {
		if len(fr.toRead) > 0 {
			cnt := copy(buf, fr.toRead)
			fr.toRead = fr.toRead[cnt:]
			fr.OutputOffset += int64(cnt)
			return cnt, nil
		}
		if fr.err != nil {
			return 0, fr.err
		}
		if len(buf) == 0 {
			return 0, nil
		}

		// Perform next step in decompression process.
		fr.rd.offset = fr.InputOffset
		func() {
			defer errRecover(&fr.err)
			fr.step(fr)
		}()
		fr.InputOffset = fr.rd.FlushOffset()
		if fr.err != nil {
			fr.toRead = fr.dict.ReadFlush() // Flush what's left in case of error
		}
	}
}

// ReadByte reads a single decompressed byte.
func (fr *Reader) ReadByte() (byte, error) {
	var arr [1]byte
	if _, err := io.ReadFull(fr, arr[:1]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}
	return arr[0], nil
}

// Close ends the use of this Reader. It does not close the underlying
// io.Reader. Close is idempotent; any error latched by a previous Read
// other than io.EOF is returned.
func (fr *Reader) Close() error {
	if fr.err == io.EOF || fr.err == io.ErrClosedPipe {
		fr.toRead = nil // Make sure future reads fail
		fr.err = io.ErrClosedPipe
		return nil
	}
	return fr.err // Return the persistent error
}

// readBlockHeader reads the block header according to RFC section 3.2.3.
func (fr *Reader) readBlockHeader() {
	if fr.last {
		fr.rd.ReadPads()
		panic(io.EOF)
	}

	fr.last = fr.rd.ReadBits(1) == 1
	switch fr.rd.ReadBits(2) {
	case 0:
		// Stored block (RFC section 3.2.4).
		fr.rd.ReadPads()

		n := uint16(fr.rd.ReadBits(16))
		nn := uint16(fr.rd.ReadBits(16))
		if n^nn != 0xffff {
			panic(errorf(deflate.UncompressedBlockLengthMismatch, "uncompressed block length mismatch"))
		}
		fr.blkLen = int(n)

		// By convention, an empty stored block flushes the read buffer.
		if fr.blkLen == 0 {
			fr.toRead = fr.dict.ReadFlush()
			fr.step = (*Reader).readBlockHeader
			return
		}
		fr.step = (*Reader).readRawData
	case 1:
		// Fixed prefix block (RFC section 3.2.6).
		fr.litTree, fr.distTree = litTree, distTree
		fr.distEmpty = false
		fr.step = (*Reader).readBlock
	case 2:
		// Dynamic prefix block (RFC section 3.2.7).
		fr.readPrefixCodes()
		fr.step = (*Reader).readBlock
	default:
		// Reserved block (RFC section 3.2.3).
		panic(errorf(deflate.ReservedBlockType, "reserved block type"))
	}
}

// readRawData reads stored data according to RFC section 3.2.4.
func (fr *Reader) readRawData() {
	buf := fr.dict.WriteSlice()
	if len(buf) > fr.blkLen {
		buf = buf[:fr.blkLen]
	}

	cnt, err := fr.rd.Read(buf)
	fr.blkLen -= cnt
	fr.dict.WriteMark(cnt)
	if err != nil {
		if err == io.EOF {
			err = errUnexpectedEOF
		}
		panic(err)
	}

	if fr.blkLen > 0 {
		fr.toRead = fr.dict.ReadFlush()
		fr.step = (*Reader).readRawData // We need to continue this work
		return
	}
	fr.step = (*Reader).readBlockHeader
}

// readPrefixCodes reads the literal and distance prefix codes according to
// RFC section 3.2.7.
func (fr *Reader) readPrefixCodes() {
	br := &fr.rd
	numLitSyms := br.ReadBits(5) + 257 // HLIT  + 257
	numDistSyms := br.ReadBits(5) + 1  // HDIST + 1
	numCLenSyms := br.ReadBits(4) + 4  // HCLEN + 4

	// Read the code length code lengths in their strange order.
	var clens [maxNumCLenSyms]int
	for _, sym := range clenLens[:numCLenSyms] {
		clens[sym] = int(br.ReadBits(3))
	}
	fr.clenTree.Init(clens[:])

	// Use the code length code to read the main code lengths, expanding
	// the three repeater symbols as we go.
	lens := fr.lens[:numLitSyms+numDistSyms]
	for i := range lens {
		lens[i] = 0
	}
	last := -1
	for i := 0; i < len(lens); {
		sym := int(br.ReadSymbol(&fr.clenTree))
		if sym < 16 {
			lens[i] = sym
			last = sym
			i++
			continue
		}

		var repVal, repCnt int
		switch sym {
		case 16:
			if last < 0 {
				panic(errorf(deflate.NoPreviousCodeLengthToCopy, "no previous code length to copy"))
			}
			repVal = last
			repCnt = 3 + int(br.ReadBits(2))
		case 17:
			repCnt = 3 + int(br.ReadBits(3))
			last = 0
		case 18:
			repCnt = 11 + int(br.ReadBits(7))
			last = 0
		}
		if i+repCnt > len(lens) {
			panic(errorf(deflate.CodeLengthCodeOverFull, "code length repeat exceeds number of codes"))
		}
		for ; repCnt > 0; repCnt-- {
			lens[i] = repVal
			i++
		}
	}

	litLens := lens[:numLitSyms]
	if litLens[endBlockSym] == 0 {
		panic(errorf(deflate.EndOfBlockCodeZeroLength, "end-of-block symbol has zero code length"))
	}
	fr.litTree.Init(litLens)

	// The distance code has two special degenerate forms: a single zero
	// length declares a literal-only block, and a lone one-bit code is
	// made decodable by padding the tree with an invalid sentinel symbol
	// that reports an error if it is ever used.
	distLens := lens[numLitSyms:]
	fr.distEmpty = len(distLens) == 1 && distLens[0] == 0
	if fr.distEmpty {
		return
	}
	var ones, others int
	for _, n := range distLens {
		switch {
		case n == 1:
			ones++
		case n > 1:
			others++
		}
	}
	if ones == 1 && others == 0 {
		var padded [maxNumDistSyms]int
		copy(padded[:], distLens)
		padded[maxNumDistSyms-1] = 1
		distLens = padded[:]
		fr.distTree.Init(distLens)
		return
	}
	fr.distTree.Init(distLens)
}

// readBlock reads block commands according to RFC section 3.2.3.
func (fr *Reader) readBlock() {
	const (
		stateInit = iota // Zero value must be stateInit
		stateDict
	)

	switch fr.stepState {
	case stateInit:
		goto readLiteral
	case stateDict:
		goto copyDistance
	}

readLiteral:
	// Read literal and/or (length, distance) according to RFC section 3.2.3.
	{
		if fr.dict.AvailSize() == 0 {
			fr.toRead = fr.dict.ReadFlush()
			fr.step = (*Reader).readBlock
			fr.stepState = stateInit // Need to continue work here
			return
		}

		// Read the literal symbol.
		litSym, ok := fr.rd.TryReadSymbol(&fr.litTree)
		if !ok {
			litSym = fr.rd.ReadSymbol(&fr.litTree)
		}
		switch {
		case litSym < endBlockSym:
			fr.dict.WriteByte(byte(litSym))
			goto readLiteral
		case litSym == endBlockSym:
			fr.step = (*Reader).readBlockHeader
			fr.stepState = stateInit // Next call to readBlock must start here
			return
		case litSym-257 < uint(len(lenLUT)):
			// Decode the copy length.
			rec := lenLUT[litSym-257]
			extra, ok := fr.rd.TryReadBits(uint(rec.bits))
			if !ok {
				extra = fr.rd.ReadBits(uint(rec.bits))
			}
			fr.cpyLen = int(rec.base) + int(extra)

			if fr.distEmpty {
				panic(errorf(deflate.LengthEncounteredWithEmptyDistanceCode, "length symbol encountered with empty distance code"))
			}

			// Read the distance symbol.
			distSym, ok := fr.rd.TryReadSymbol(&fr.distTree)
			if !ok {
				distSym = fr.rd.ReadSymbol(&fr.distTree)
			}
			if distSym >= uint(len(distLUT)) {
				panic(errorf(deflate.ReservedDistanceSymbol, "reserved distance symbol: %d", distSym))
			}

			// Decode the copy distance.
			rec = distLUT[distSym]
			extra, ok = fr.rd.TryReadBits(uint(rec.bits))
			if !ok {
				extra = fr.rd.ReadBits(uint(rec.bits))
			}
			fr.dist = int(rec.base) + int(extra)
			if fr.dist > fr.dict.HistSize() {
				panic(errorf(deflate.CopyFromBeforeDictionaryStart, "copy of distance %d from before start of dictionary", fr.dist))
			}

			goto copyDistance
		default:
			panic(errorf(deflate.ReservedLengthSymbol, "reserved length symbol: %d", litSym))
		}
	}

copyDistance:
	// Perform a backwards copy according to RFC section 3.2.3.
	{
		cnt := fr.dict.WriteCopy(fr.dist, fr.cpyLen)
		fr.cpyLen -= cnt

		if fr.cpyLen > 0 {
			fr.toRead = fr.dict.ReadFlush()
			fr.step = (*Reader).readBlock
			fr.stepState = stateDict // Need to continue work here
			return
		}
		goto readLiteral
	}
}
