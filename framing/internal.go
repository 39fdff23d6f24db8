// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

import (
	"context"
	"encoding/binary"

	"code.hybscloud.com/pipe"
)

const (
	frameHeaderLen          = 1
	framePayloadMaxLen8Bits = 1<<8 - 3
	framePayloadMaxLen16    = 1<<16 - 1
	framePayloadMaxLen56    = 1<<56 - 1
)

// encodeHeader fills header with the wire header for a payload of length n,
// returning the number of header bytes used (1, 3, or 8).
func encodeHeader(header *[8]byte, n int64, order binary.ByteOrder) (hdrLen int, err error) {
	switch {
	case n <= framePayloadMaxLen8Bits:
		header[0] = byte(n)
		return frameHeaderLen, nil
	case n <= framePayloadMaxLen16:
		header[0] = framePayloadMaxLen8Bits + 1
		order.PutUint16(header[frameHeaderLen:frameHeaderLen+2], uint16(n))
		return frameHeaderLen + 2, nil
	case n <= framePayloadMaxLen56:
		var full [8]byte
		if order == binary.LittleEndian {
			order.PutUint64(full[:], uint64(n)<<8)
		} else {
			order.PutUint64(full[:], uint64(n)&framePayloadMaxLen56)
		}
		header[0] = framePayloadMaxLen8Bits + 2
		copy(header[1:8], full[1:8])
		return 8, nil
	default:
		return 0, ErrTooLong
	}
}

// decodeHeader interprets an already-read header's first byte and, for the
// extended forms, its trailing bytes, returning the payload length and the
// header's total size in bytes.
func decodeHeader(header [8]byte, order binary.ByteOrder) (length int64, hdrLen int, err error) {
	switch header[0] {
	case framePayloadMaxLen8Bits + 1:
		return int64(order.Uint16(header[frameHeaderLen : frameHeaderLen+2])), frameHeaderLen + 2, nil
	case framePayloadMaxLen8Bits + 2:
		u64 := order.Uint64(header[:])
		if order == binary.LittleEndian {
			return int64(u64 >> 8), 8, nil
		}
		return int64(u64 & framePayloadMaxLen56), 8, nil
	default:
		return int64(header[0]), frameHeaderLen, nil
	}
}

// extLen reports how many extra header bytes follow the first one, given
// only that first byte -- used before the rest of the header has been read.
func extLen(first byte) int {
	switch first {
	case framePayloadMaxLen8Bits + 1:
		return 2
	case framePayloadMaxLen8Bits + 2:
		return 7
	default:
		return 0
	}
}

// chanReader pulls a byte stream out of a pipe.Channel's ReadAsync/Advance
// protocol, presenting it to the Decoder as a sequence of readFull calls.
// It holds at most one outstanding, not-yet-advanced ReadableBuffer at a
// time, the same discipline pipe.Channel itself requires of any single
// consumer. Position within the pending buffer is tracked as a byte offset
// rather than a Cursor: Cursor's fields are private to pipe, so the offset
// is rebased onto the buffer via the exported SliceFrom whenever a Cursor is
// actually needed (to call Advance).
type chanReader struct {
	ch      *pipe.Channel
	pending pipe.ReadableBuffer
	offset  int  // bytes of pending already delivered to the caller
	have    bool // pending holds an outstanding, unacknowledged read
	done    bool // channel has reported IsCompleted with no error
}

func newChanReader(ch *pipe.Channel) *chanReader {
	return &chanReader{ch: ch}
}

// fill ensures the reader holds at least one unread byte, or reports
// end-of-stream.
func (r *chanReader) fill(ctx context.Context) error {
	for {
		if r.have && r.offset < r.pending.Len() {
			return nil
		}
		if r.have {
			// Fully drained; acknowledge before asking for more.
			rest, err := r.pending.SliceFrom(r.offset)
			if err != nil {
				return err
			}
			if err := r.ch.Advance(rest.Start()); err != nil {
				return err
			}
			r.have = false
		}
		if r.done {
			return pipe.ErrClosed
		}
		result, err := r.ch.ReadAsync(ctx)
		if err != nil {
			return err
		}
		if result.IsCancelled {
			// A message boundary is not a meaningful place to surface a
			// mid-stream cancellation as a decode error: acknowledge without
			// consuming anything and keep waiting for real data.
			if err := r.ch.Advance(result.Buffer.Start()); err != nil {
				return err
			}
			continue
		}
		r.pending = result.Buffer
		r.offset = 0
		r.have = true
		if result.IsCompleted {
			r.done = true
		}
	}
}

// readFull copies exactly len(dst) bytes from the channel into dst, blocking
// across as many ReadAsync cycles as needed. A clean channel completion
// with zero bytes copied so far (a message boundary) is reported as
// pipe.ErrClosed; one with partial progress is a truncated message and is
// reported as ErrUnexpectedEOF.
func (r *chanReader) readFull(ctx context.Context, dst []byte) error {
	got := 0
	for got < len(dst) {
		if err := r.fill(ctx); err != nil {
			if err == pipe.ErrClosed {
				if got == 0 {
					return pipe.ErrClosed
				}
				return ErrUnexpectedEOF
			}
			return err
		}
		rest, err := r.pending.SliceFrom(r.offset)
		if err != nil {
			return err
		}
		chunk, err := rest.First()
		if err != nil {
			return err
		}
		n := copy(dst[got:], chunk)
		r.offset += n
		got += n
	}
	return nil
}
