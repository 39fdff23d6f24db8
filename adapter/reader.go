// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package adapter

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"

	"code.hybscloud.com/pipe"
)

// Reader pumps bytes from src into a pipe.Channel. Each Read gets its own
// freshly allocated scratch buffer (never reused across Read calls), so the
// Borrowed segment Write hands to the channel stays valid until the channel
// itself promotes or discards it -- the pump never mutates a buffer it has
// already flushed.
type Reader struct {
	src     io.Reader
	ch      *pipe.Channel
	bufSize int
}

// NewReader constructs a Reader pumping src into ch using bufSize-byte
// scratch buffers (default 32KiB if bufSize <= 0).
func NewReader(src io.Reader, ch *pipe.Channel, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = 32 * 1024
	}
	return &Reader{src: src, ch: ch, bufSize: bufSize}
}

// Run pumps until src returns io.EOF, ctx is done, or src.Read returns a
// non-transient error. On exit it completes ch's write side: cleanly on
// io.EOF, with the error otherwise (surfaced to the consumer as a
// ProducerFault). A transient error -- one for which isTransient returns
// true -- is retried with exponential backoff rather than ending the pump.
func (r *Reader) Run(ctx context.Context, isTransient func(error) bool) error {
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         backoff.DefaultMaxInterval,
	}
	bo.Reset()

	for {
		if err := ctx.Err(); err != nil {
			r.ch.CompleteWriter(err)
			return err
		}

		buf := make([]byte, r.bufSize)
		n, err := r.src.Read(buf)
		if n > 0 {
			if _, werr := r.ch.Write(buf[:n]); werr != nil {
				r.ch.CompleteWriter(werr)
				return werr
			}
			if werr := r.ch.Flush(); werr != nil {
				r.ch.CompleteWriter(werr)
				return werr
			}
			bo.Reset()
		}

		if err == nil {
			continue
		}
		if err == io.EOF {
			r.ch.CompleteWriter(nil)
			return nil
		}
		if isTransient != nil && isTransient(err) {
			select {
			case <-ctx.Done():
				r.ch.CompleteWriter(ctx.Err())
				return ctx.Err()
			case <-time.After(bo.NextBackOff()):
			}
			continue
		}
		r.ch.CompleteWriter(err)
		return errors.Wrap(err, "reader: source read failed")
	}
}
