/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package transfer

import (
	"github.com/badu/h1engine/internal/iobuf"
	"github.com/pkg/errors"
)

// ErrMalformedChunk is returned when the chunked wire format is violated —
// an unparsable chunk-size line or a missing trailing CRLF after chunk
// data. Grounded on the classic net/http/internal
// chunkedReader's "malformed chunked encoding" error, confirmed against
// badu-http's readChunkLine/parseHexUint.
var ErrMalformedChunk = errors.New("transfer: malformed chunked encoding")

type chunkPhase int

const (
	phaseSize chunkPhase = iota // expecting a "<hex>[;ext]\r\n" chunk-size line
	phaseData                  // expecting (up to) remaining bytes of chunk data
	phaseDataCRLF               // expecting the "\r\n" that follows each chunk's data
	phaseTrailer                // expecting trailer header lines up to the blank line
	phaseDone                   // final chunk and trailers consumed
)

type chunkState struct {
	phase     chunkPhase
	remaining uint64 // bytes left to deliver in the chunk currently being read
}

// decodeChunked advances the chunked state machine as far as it can go
// without blocking. It yields at most one unit of work per call: either a
// slice of chunk data (ResultOk), terminal EOF once the zero-length chunk
// and its trailers have been consumed (ResultEOF), or ResultInsufficientData
// when buf doesn't yet hold a complete size line, data run, trailing CRLF,
// or trailer block. On ResultInsufficientData neither buf nor c.chunk is
// mutated, except when a chunk-size line has been parsed and none of its
// data is buffered yet: then the parsed progress is committed first. Either
// way the next call resumes from a consistent checkpoint once more bytes
// have been filled in — the bounded-buffer analogue of
// net/http/internal's chunkHeaderAvailable Peek-before-commit pattern.
func (c *Coding) decodeChunked(buf *iobuf.ReadBuffer) ([]byte, Result, error) {
	state := c.chunk
	data := buf.Bytes()
	pos := 0

	for {
		switch state.phase {
		case phaseDone:
			return nil, ResultEOF, nil

		case phaseSize:
			line, n, ok := scanLine(data[pos:])
			if !ok {
				return nil, ResultInsufficientData, nil
			}
			size, err := parseChunkSizeLine(line)
			if err != nil {
				return nil, 0, err
			}
			pos += n
			if size == 0 {
				state.phase = phaseTrailer
			} else {
				state.remaining = size
				state.phase = phaseData
			}

		case phaseData:
			avail := data[pos:]
			if len(avail) == 0 {
				if pos == 0 {
					return nil, ResultInsufficientData, nil
				}
				c.chunk = state
				buf.Consume(pos)
				return nil, ResultInsufficientData, nil
			}
			take := uint64(len(avail))
			if take > state.remaining {
				take = state.remaining
			}
			out := append([]byte(nil), avail[:take]...)
			pos += int(take)
			state.remaining -= take
			if state.remaining == 0 {
				state.phase = phaseDataCRLF
			}
			c.chunk = state
			buf.Consume(pos)
			return out, ResultOk, nil

		case phaseDataCRLF:
			rest := data[pos:]
			if len(rest) < 2 {
				return nil, ResultInsufficientData, nil
			}
			if rest[0] != '\r' || rest[1] != '\n' {
				return nil, 0, ErrMalformedChunk
			}
			pos += 2
			state.phase = phaseSize

		case phaseTrailer:
			line, n, ok := scanLine(data[pos:])
			if !ok {
				return nil, ResultInsufficientData, nil
			}
			pos += n
			if len(trimCRLF(line)) == 0 {
				state.phase = phaseDone
				c.chunk = state
				buf.Consume(pos)
				return nil, ResultEOF, nil
			}
			// Trailer header lines are skipped without inspection and
			// discarded; trailers are not exposed to handlers.
		}
	}
}

// scanLine returns the line up to and including '\n' at the front of data,
// the number of bytes it occupies, and whether a full line was found.
func scanLine(data []byte) (line []byte, n int, ok bool) {
	for i, b := range data {
		if b == '\n' {
			return data[:i+1], i + 1, true
		}
	}
	return nil, 0, false
}

func trimCRLF(line []byte) []byte {
	line = trimTrailingWhitespace(line)
	return line
}

// trimTrailingWhitespace mirrors badu-http's utils_chunks.go helper of the
// same name.
func trimTrailingWhitespace(b []byte) []byte {
	for len(b) > 0 && isASCIISpaceByte(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

func isASCIISpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// parseChunkSizeLine strips the trailing CRLF and any chunk-extension
// (";token=value") before parsing the hex chunk size, per badu-http's
// readChunkLine/removeChunkExtension.
func parseChunkSizeLine(line []byte) (uint64, error) {
	line = trimTrailingWhitespace(line)
	if i := indexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = trimTrailingWhitespace(line)
	if len(line) == 0 {
		return 0, ErrMalformedChunk
	}
	return parseHexUint(line)
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// parseHexUint is badu-http's manual hex parser (utils_chunks.go), which
// rejects overflow at the 17th hex digit rather than relying on
// strconv.ParseUint's own overflow detection.
func parseHexUint(v []byte) (n uint64, err error) {
	for i, b := range v {
		switch {
		case '0' <= b && b <= '9':
			b -= '0'
		case 'a' <= b && b <= 'f':
			b -= 'a' - 10
		case 'A' <= b && b <= 'F':
			b -= 'A' - 10
		default:
			return 0, ErrMalformedChunk
		}
		if i == 16 {
			return 0, errors.Wrap(ErrMalformedChunk, "chunk size too large")
		}
		n <<= 4
		n |= uint64(b)
	}
	return n, nil
}
