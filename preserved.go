// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

import "sync/atomic"

// PreservedBuffer is a scoped handle that keeps a preserved byte range alive
// past the producer callback that produced it. Release is mandatory;
// leaking a PreservedBuffer leaks memory but does not corrupt the channel.
//
// Release is idempotent and safe to call from a defer, matching the scoped-
// resource idiom the rest of the corpus uses for this shape of problem (no
// runtime.SetFinalizer trick).
type PreservedBuffer struct {
	buf      ReadableBuffer
	channel  *Channel
	segs     []*segment
	released atomic.Bool
}

// Buffer returns the preserved byte range. It remains valid to read until
// Release is called.
func (p *PreservedBuffer) Buffer() ReadableBuffer { return p.buf }

// Release returns every refcount increment this PreservedBuffer holds. If a
// segment's refcount drops to zero and it has already been unlinked from
// the live chain (i.e. the consumer already advanced past it), its storage
// is returned to the channel's Pool; otherwise it stays in the chain,
// serving ordinary reads, until the channel itself unlinks it.
func (p *PreservedBuffer) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	p.channel.releasePreserved(p.segs)
}
