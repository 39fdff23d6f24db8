// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

import (
	"context"

	"code.hybscloud.com/pipe"
)

// Relay copies framed messages from src to dst, one message per loop
// iteration, until src completes or ctx is done. It returns nil on a clean
// completion of src (CompleteWriter(nil)), the src ProducerFault verbatim
// on a faulted completion, or ctx.Err() on cancellation.
//
// Unlike the teacher's byte-oriented Forwarder, Relay operates at message
// granularity: a message is always read to completion from src before any
// of it is written to dst, because pipe.Channel already does its own
// internal buffering and has no notion of a short, resumable write the way
// a non-blocking net.Conn does.
func Relay(ctx context.Context, dst *Encoder, src *Decoder) error {
	for {
		payload, err := src.ReadMessage(ctx)
		if err != nil {
			if err == pipe.ErrClosed {
				return nil
			}
			return err
		}
		if err := dst.WriteMessage(payload); err != nil {
			return err
		}
	}
}
