// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

import (
	"context"

	"code.hybscloud.com/pipe"
)

// Encoder writes length-prefixed messages onto a pipe.Channel.
type Encoder struct {
	ch  *pipe.Channel
	o   Options
	hdr [8]byte
}

// NewEncoder returns an Encoder that writes framed messages onto ch.
func NewEncoder(ch *pipe.Channel, opts ...Option) *Encoder {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Encoder{ch: ch, o: o}
}

// WriteMessage frames and writes payload as a single message: a header
// Write followed by a payload Write and a Flush. The payload Write promotes
// the header segment into channel-owned storage and Flush does the same for
// the payload, so callers do not need their own Flush between them and both
// the header scratch and payload are free for reuse once this returns.
func (e *Encoder) WriteMessage(payload []byte) error {
	hdrLen, err := encodeHeader(&e.hdr, int64(len(payload)), e.o.ByteOrder)
	if err != nil {
		return err
	}
	if _, err := e.ch.Write(e.hdr[:hdrLen]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := e.ch.Write(payload); err != nil {
			return err
		}
	}
	return e.ch.Flush()
}

// Close completes the underlying channel's write side with no error.
func (e *Encoder) Close() error {
	e.ch.CompleteWriter(nil)
	return nil
}

// CloseWithError completes the underlying channel's write side, surfacing
// err to the consumer as a ProducerFault once buffered messages are drained.
func (e *Encoder) CloseWithError(err error) {
	e.ch.CompleteWriter(err)
}

// Decoder reads length-prefixed messages off a pipe.Channel.
type Decoder struct {
	rd *chanReader
	o  Options
}

// NewDecoder returns a Decoder that reads framed messages from ch.
func NewDecoder(ch *pipe.Channel, opts ...Option) *Decoder {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Decoder{rd: newChanReader(ch), o: o}
}

// ReadMessage blocks until a full message is available and returns its
// payload, copied out of the channel's segment chain so it remains valid
// after the read is acknowledged. Returns ErrUnexpectedEOF if the channel
// completes mid-message, or the channel's ProducerFault error verbatim if
// the writer faulted.
func (d *Decoder) ReadMessage(ctx context.Context) ([]byte, error) {
	var header [8]byte
	if err := d.rd.readFull(ctx, header[:frameHeaderLen]); err != nil {
		return nil, err
	}
	hdrRest := extLen(header[0])
	if hdrRest > 0 {
		if err := d.rd.readFull(ctx, header[frameHeaderLen:frameHeaderLen+hdrRest]); err != nil {
			return nil, err
		}
	}
	length, _, err := decodeHeader(header, d.o.ByteOrder)
	if err != nil {
		return nil, err
	}
	if length < 0 || length > framePayloadMaxLen56 {
		return nil, ErrTooLong
	}
	if d.o.ReadLimit > 0 && length > int64(d.o.ReadLimit) {
		return nil, ErrTooLong
	}
	if length == 0 {
		return nil, nil
	}
	payload := make([]byte, length)
	if err := d.rd.readFull(ctx, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
