// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

import (
	"context"
	"sync"
)

// state mirrors the state machine of spec §4.5. Write and Flush consult it
// only to refuse work once the channel is stateFaulted; most transitions
// fall out of the field values below (outstandingRead, writerCompleted,
// fault) rather than a single exhaustive switch, the same way the teacher's
// framer tracks state through a handful of explicit fields instead of one
// big enum dispatch.
type state uint8

const (
	stateIdle state = iota
	stateReadable
	stateWaitingForAdvance
	stateCompleted
	stateFaulted
)

// ReadResult is returned by Channel.ReadAsync.
type ReadResult struct {
	Buffer      ReadableBuffer
	IsCompleted bool
	IsCancelled bool
}

// Channel is a single-producer, single-consumer unowned-buffer readable
// channel. The zero value is not usable; construct one with NewChannel.
type Channel struct {
	mu sync.Mutex

	pool Pool
	ctx  context.Context

	origin *segment // permanent empty head; never unlinked, simplifies cursor bootstrapping
	tail   *segment

	writeFrontier Cursor // W: end of all flushed data
	examinedPrev  Cursor // E_prev: examined cursor as of the last completed read
	consumed      Cursor // last acknowledged consumed cursor

	// pendingBoundaries holds the write-frontier cursor of every Flush call
	// not yet caught up to by examinedPrev, oldest first. ReadAsync delivers
	// up to the oldest one still ahead of examinedPrev rather than all the
	// way to writeFrontier, so two Flushes issued back-to-back before any
	// read still surface as two separate reads (spec §8 S1) instead of
	// coalescing into one.
	pendingBoundaries []Cursor

	lastBorrowed *segment // most recently written Borrowed segment, awaiting release

	outstandingRead bool // true from a delivered ReadResult until the matching Advance
	cancelPending   bool // one-shot; consumed by the next ReadAsync resumption

	writerCompleted bool
	writerErr       error // non-nil => ProducerFault once drained

	readerCompleted bool

	waitCh chan struct{} // signaled when ReadAsync should re-check its condition

	st state

	stats Stats
}

// NewChannel constructs a Channel, applying opts over sane defaults (see
// options.go).
func NewChannel(opts ...Option) *Channel {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	pool := o.Pool
	if pool == nil {
		pool = NewPool()
	}
	ctx := o.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if hint := int(o.SegmentSizeHint.Bytes()); hint > 0 {
		// Pre-warm the hinted size class so the first promoted segment
		// doesn't pay for an uncached allocation.
		pool.Put(pool.Get(hint))
	}

	origin := &segment{kind: segmentOwned, data: nil, writeEnd: 0}
	start := Cursor{seg: origin, offset: 0}

	return &Channel{
		pool:          pool,
		ctx:           ctx,
		origin:        origin,
		tail:          origin,
		writeFrontier: start,
		examinedPrev:  start,
		consumed:      start,
		waitCh:        make(chan struct{}, 1),
		st:            stateIdle,
	}
}

func (c *Channel) wake() {
	select {
	case c.waitCh <- struct{}{}:
	default:
	}
}

// Cancel requests cancellation. The current or next ReadAsync resumes
// exactly once with IsCancelled=true; the flag is consumed by that
// resumption and must be requested again to fire a second time.
func (c *Channel) Cancel() {
	c.mu.Lock()
	c.cancelPending = true
	c.mu.Unlock()
	c.wake()
}

// --- Producer side -------------------------------------------------------

// Write hands the channel a temporary, externally-owned byte region as a
// Borrowed segment. The region must remain valid only until the channel's
// next release point (see releaseLocked): Flush promotes-or-unlinks it
// before returning, so in practice the region only needs to survive until
// the matching Flush call.
//
// Write and Flush are synchronous and never block on external I/O, per
// spec §5.
func (c *Channel) Write(p []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st == stateFaulted || c.writerCompleted {
		return 0, ErrClosed
	}

	// Defensive: normally Flush already released the previous Borrowed
	// segment. This only does anything if a second Write happens without an
	// intervening Flush.
	c.releaseLocked()

	seg := &segment{kind: segmentBorrowed, data: p, writeEnd: len(p)}
	c.tail.next = seg
	c.tail = seg
	c.lastBorrowed = seg
	c.stats.LastWriteAt = clock.CachedTime()
	c.stats.WrittenBytes += int64(len(p))
	return len(p), nil
}

// Flush makes the most recent Write's bytes visible to the consumer,
// advancing the write frontier and, if a read is waiting, arming it. It is
// also the producer's release point (invariant 3, spec §4.1): the
// just-flushed Borrowed segment is promoted-or-unlinked synchronously here,
// before Flush returns, so the producer is free to reuse or discard p the
// moment Flush comes back. Deferring that release to the next Write call
// would let a scratch-buffer producer overwrite the bytes before the
// channel ever copies them out (spec §8 S6).
func (c *Channel) Flush() error {
	c.mu.Lock()
	if c.st == stateFaulted {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.lastBorrowed != nil {
		c.writeFrontier = Cursor{seg: c.lastBorrowed, offset: c.lastBorrowed.len()}
		c.pendingBoundaries = append(c.pendingBoundaries, c.writeFrontier)
		c.releaseLocked()
	}
	if c.st == stateIdle {
		c.st = stateReadable
	}
	c.stats.LastFlushAt = clock.CachedTime()
	c.mu.Unlock()
	c.wake()
	return nil
}

// Release forces the producer-release promotion-or-unlink step outside of
// Flush. Ordinarily unnecessary, since Flush already performs it, but kept
// for callers that hold a Borrowed segment across some other yield point
// without an intervening Flush.
func (c *Channel) Release() {
	c.mu.Lock()
	c.releaseLocked()
	c.mu.Unlock()
}

// releaseLocked performs promotion-or-unlink for the last written Borrowed
// segment (invariant 3). Must be called with c.mu held.
//
// A segment the consumer has already fully consumed (trimConsumedLocked
// already unlinked it when `consumed` passed it) needs nothing further: it
// is simply forgotten. Write and Flush never reach that case, since both
// release a segment before the consumer can see its bytes. A segment
// still reachable by an outstanding or future read — whether or not the
// consumer explicitly called Preserve — is copied into Owned storage
// defensively, because its producer-owned memory is about to become
// invalid and the channel still owes that data to the consumer. This is
// what keeps a producer that reuses a single scratch buffer across writes
// correct even when the consumer only examines bytes without ever
// advancing `consumed` past them (see SPEC_FULL.md §4.1 and the S6 test).
func (c *Channel) releaseLocked() {
	seg := c.lastBorrowed
	c.lastBorrowed = nil
	if seg == nil || seg.kind != segmentBorrowed {
		return
	}
	if seg.unlinked {
		return
	}
	c.promoteLocked(seg)
	seg.released = true
}

// promoteLocked copies a Borrowed segment's written bytes into Pool-owned
// storage and flips its kind. The *segment pointer identity is unchanged,
// so every existing Cursor into it stays valid.
func (c *Channel) promoteLocked(seg *segment) {
	if seg.kind == segmentOwned {
		return
	}
	buf := c.pool.Get(seg.writeEnd)
	copy(buf, seg.data[:seg.writeEnd])
	seg.data = buf
	seg.kind = segmentOwned
}

// CompleteWriter signals end-of-stream. err, if non-nil, is surfaced to the
// consumer as a ProducerFault once all already-buffered bytes are drained;
// the channel is one-shot with respect to it.
func (c *Channel) CompleteWriter(err error) {
	c.mu.Lock()
	c.releaseLocked()
	c.writerCompleted = true
	c.writerErr = err
	if err != nil {
		c.st = stateFaulted
	}
	c.mu.Unlock()
	c.wake()
}

// --- Consumer side --------------------------------------------------------

// ReadAsync suspends until new bytes are available beyond the previously
// examined cursor, the producer has completed, or cancellation fires. It
// fails with ErrReadWithoutAdvance if a previous read has not yet been
// acknowledged via Advance/AdvanceTo.
func (c *Channel) ReadAsync(ctx context.Context) (ReadResult, error) {
	c.mu.Lock()
	if c.outstandingRead {
		c.mu.Unlock()
		return ReadResult{}, ErrReadWithoutAdvance
	}

	for {
		// Detach a fully consumed segment that was still the flushed tail at
		// the last Advance but has since been followed by newly flushed
		// data, so the buffer delivered below never starts on a dead segment.
		c.trimConsumedLocked()

		// New data, capped at the oldest not-yet-reached Flush boundary,
		// always takes priority: a pending cancellation or fault must wait
		// for a read that has nothing left to deliver (spec §8 S1, S2).
		target := c.targetEndLocked()
		if !c.examinedPrev.Equal(target) {
			buf := ReadableBuffer{start: c.examinedPrev, end: target}
			c.outstandingRead = true
			c.st = stateWaitingForAdvance
			c.mu.Unlock()
			return ReadResult{Buffer: buf}, nil
		}

		if c.cancelPending {
			c.cancelPending = false
			buf := ReadableBuffer{start: c.examinedPrev, end: c.writeFrontier}
			c.outstandingRead = true
			c.st = stateWaitingForAdvance
			c.mu.Unlock()
			return ReadResult{Buffer: buf, IsCancelled: true}, nil
		}

		if c.writerErr != nil {
			err := &producerFaultError{cause: c.writerErr}
			c.mu.Unlock()
			return ReadResult{}, err
		}

		if c.writerCompleted {
			buf := ReadableBuffer{start: c.examinedPrev, end: c.writeFrontier}
			c.outstandingRead = true
			c.st = stateWaitingForAdvance
			c.mu.Unlock()
			return ReadResult{Buffer: buf, IsCompleted: true}, nil
		}

		// Nothing to deliver yet: release the lock and wait for a producer
		// event (Flush/CompleteWriter) or cancellation, or for ctx/c.ctx to
		// be done. This is the single-waiter future from spec §9: a second
		// ReadAsync before Advance is rejected above, and a single consumer
		// never has two calls waiting at once, so a 1-slot channel is
		// sufficient, no waiter queue needed.
		c.mu.Unlock()
		select {
		case <-c.waitCh:
		case <-ctx.Done():
			return ReadResult{}, ctx.Err()
		case <-c.ctx.Done():
			c.mu.Lock()
			c.cancelPending = true
			// A done context stays done: stop watching it so it fires once.
			c.ctx = context.Background()
			c.mu.Unlock()
		}
		c.mu.Lock()
	}
}

// Advance acknowledges a read, setting examined = consumed.
func (c *Channel) Advance(consumed Cursor) error {
	return c.AdvanceTo(consumed, consumed)
}

// AdvanceTo acknowledges a read with an explicit examined cursor.
// consumed <= examined <= the channel's write frontier is required; examined
// is not checked against the delivered buffer's end, so it may lie past that
// end as long as it stays within flushed data.
func (c *Channel) AdvanceTo(consumed, examined Cursor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.outstandingRead {
		return ErrInvalidAdvance
	}
	if !c.cursorOrderedLocked(c.consumed, consumed) {
		return ErrInvalidAdvance
	}
	if !c.cursorOrderedLocked(consumed, examined) {
		return ErrInvalidAdvance
	}
	if !c.cursorOrderedLocked(examined, c.writeFrontier) {
		return ErrInvalidAdvance
	}

	c.stats.ConsumedBytes += int64(c.consumed.distance(consumed))
	c.stats.LastReadAt = clock.CachedTime()
	c.consumed = consumed
	c.examinedPrev = examined
	c.outstandingRead = false

	c.trimConsumedLocked()

	if c.st == stateFaulted {
		return nil // Faulted is terminal
	}
	if c.writerCompleted && c.examinedPrev.Equal(c.writeFrontier) {
		c.st = stateCompleted
	} else if !c.examinedPrev.Equal(c.writeFrontier) {
		c.st = stateReadable
	} else {
		c.st = stateIdle
	}
	return nil
}

// cursorOrderedLocked reports whether walking forward from a reaches b
// without error, i.e. a <= b along the chain. Must be called with c.mu
// held.
func (c *Channel) cursorOrderedLocked(a, b Cursor) bool {
	if a.seg == b.seg {
		return a.offset <= b.offset
	}
	seg := a.seg
	for seg != nil {
		if seg == b.seg {
			return true
		}
		seg = seg.next
	}
	return false
}

// targetEndLocked pops every flush boundary examinedPrev has already
// reached or passed, then returns the oldest one still ahead of it, or
// writeFrontier once the queue is empty. See the pendingBoundaries field
// comment.
func (c *Channel) targetEndLocked() Cursor {
	for len(c.pendingBoundaries) > 0 && c.cursorOrderedLocked(c.pendingBoundaries[0], c.examinedPrev) {
		c.pendingBoundaries = c.pendingBoundaries[1:]
	}
	if len(c.pendingBoundaries) > 0 {
		return c.pendingBoundaries[0]
	}
	return c.writeFrontier
}

// trimConsumedLocked walks the chain from origin and unlinks every segment
// entirely before c.consumed (spec §4.6).
func (c *Channel) trimConsumedLocked() {
	if c.consumed.seg == c.origin {
		// Nothing has actually been consumed yet (consumed is still at the
		// very head); there is nothing before it to unlink.
		return
	}
	for c.origin.next != nil && c.origin.next != c.consumed.seg {
		dead := c.origin.next
		c.origin.next = dead.next
		c.unlinkLocked(dead)
	}
	// If consumed sits at the very end of a segment (offset == len), that
	// segment is entirely behind the cursor too.
	for c.origin.next != nil && c.origin.next == c.consumed.seg &&
		c.consumed.offset == c.consumed.seg.len() {
		dead := c.origin.next
		if dead.next == nil || c.writeFrontier.seg == dead {
			// dead is still the chain's tail, which a future Write extends
			// via c.tail.next, or the last flushed segment with only
			// unflushed Writes after it, which writeFrontier still points
			// into; either way it cannot be detached from origin.next yet.
			// Mark it dead for data access (invariant 3: fully-consumed
			// storage is unreadable even while it remains linked) but leave
			// it linked in place; a later trim detaches it once flushed data
			// follows it.
			c.unlinkLocked(dead)
			return
		}
		c.origin.next = dead.next
		next := dead.next
		c.unlinkLocked(dead)
		if c.consumed.seg == dead {
			c.consumed = Cursor{seg: next, offset: 0}
		}
		if c.examinedPrev.seg == dead {
			c.examinedPrev = Cursor{seg: next, offset: 0}
		}
	}
}

// unlinkLocked removes dead from the live chain. If its refcount is zero,
// its storage is released (Owned: returned to Pool; Borrowed: simply
// dropped, already released by the producer). If its refcount is positive,
// it must already be Owned (Preserve promotes before incrementing), and its
// storage survives until the last PreservedBuffer releases it.
//
// Idempotent: trimConsumedLocked may mark a segment dead while it is still
// the chain's tail, then later unlink it for real once a new segment
// supersedes it as the tail, and both must be safe to call.
func (c *Channel) unlinkLocked(dead *segment) {
	if dead.unlinked {
		return
	}
	dead.unlinked = true
	if dead.refs > 0 {
		return
	}
	if dead.kind == segmentOwned && dead.data != nil {
		c.pool.Put(dead.data)
		dead.data = nil
	}
}

// CompleteReader tears down the reader side. err is accepted for symmetry
// with CompleteWriter and future extension but is not currently surfaced
// anywhere; the reader that calls this already knows why it is stopping.
func (c *Channel) CompleteReader(err error) {
	c.mu.Lock()
	c.readerCompleted = true
	c.mu.Unlock()
}

// --- Preserve/PreservedBuffer support --------------------------------------

// preserve implements ReadableBuffer.Preserve.
func (c *Channel) preserve(b ReadableBuffer) (*PreservedBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b.IsEmpty() {
		return &PreservedBuffer{buf: b, channel: c}, nil
	}

	var segs []*segment
	err := b.forEachSegment(func(seg *segment, from, to int) error {
		if !seg.live() {
			return ErrUseAfterRelease
		}
		if seg.kind == segmentBorrowed {
			c.promoteLocked(seg)
		}
		seg.refs++
		segs = append(segs, seg)
		return nil
	})
	if err != nil {
		// Roll back any increments already taken before the failing segment.
		for _, seg := range segs {
			seg.refs--
		}
		return nil, err
	}
	return &PreservedBuffer{buf: b, channel: c, segs: segs}, nil
}

// releasePreserved implements PreservedBuffer.Release.
func (c *Channel) releasePreserved(segs []*segment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, seg := range segs {
		seg.refs--
		if seg.refs == 0 && seg.unlinked && seg.kind == segmentOwned && seg.data != nil {
			c.pool.Put(seg.data)
			seg.data = nil
		}
	}
}
