// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package adapter

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"code.hybscloud.com/pipe"
)

// Writer drains a pipe.Channel to dst, one ReadAsync delivery at a time.
type Writer struct {
	dst io.Writer
	ch  *pipe.Channel
}

// NewWriter constructs a Writer draining ch to dst.
func NewWriter(dst io.Writer, ch *pipe.Channel) *Writer {
	return &Writer{dst: dst, ch: ch}
}

// Run drains ch to dst until the channel completes or ctx is done. A
// producer fault is returned verbatim so callers can distinguish it from a
// local write failure with pipe.IsProducerFault.
func (w *Writer) Run(ctx context.Context) error {
	for {
		result, err := w.ch.ReadAsync(ctx)
		if err != nil {
			return err
		}
		if result.IsCancelled {
			if err := w.ch.Advance(result.Buffer.Start()); err != nil {
				return err
			}
			continue
		}

		if !result.Buffer.IsEmpty() {
			if werr := writeAll(w.dst, result.Buffer); werr != nil {
				return errors.Wrap(werr, "writer: destination write failed")
			}
		}
		if aerr := w.ch.Advance(result.Buffer.End()); aerr != nil {
			return aerr
		}
		if result.IsCompleted {
			w.ch.CompleteReader(nil)
			return nil
		}
	}
}

// writeAll streams every segment a ReadableBuffer spans to dst without
// materializing the whole buffer into one contiguous slice first.
func writeAll(dst io.Writer, buf pipe.ReadableBuffer) error {
	for {
		chunk, err := buf.First()
		if err != nil {
			return err
		}
		if len(chunk) > 0 {
			if _, werr := dst.Write(chunk); werr != nil {
				return werr
			}
		}
		rest, err := buf.SliceFrom(len(chunk))
		if err != nil {
			return err
		}
		if rest.IsEmpty() {
			return nil
		}
		buf = rest
	}
}
