// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipe implements an unowned-buffer readable channel: a single-producer,
// single-consumer asynchronous byte pipe built around a read-side examined/consumed
// cursor protocol.
//
// Semantics and design:
//   - Borrowed, then copied at Flush: a producer hands the channel a transient,
//     externally-owned memory region (a Borrowed segment) with Write. Flush
//     copies that region into channel-owned (Owned) storage before it returns,
//     so the producer may reuse its region at once and the consumer always
//     reads channel-owned copies; the consumer never reads the producer's
//     memory directly. ReadableBuffer.Preserve keeps a range alive after the
//     consumer has advanced past it; it copies only a segment that is still
//     Borrowed, which flushed data never is.
//   - Cursor-based acknowledgment: the consumer does not "consume" by returning
//     a count; it advances two cursors, consumed and examined, which together
//     decide both what memory may be reclaimed and when the next read should
//     wake up (see Channel.Advance and Channel.ReadAsync).
//   - Single waiter, no queues: a ReadAsync issued after a read was delivered
//     and before it is acknowledged with Advance fails with
//     ErrReadWithoutAdvance. Concurrent ReadAsync calls from more than one
//     goroutine are outside the single-consumer contract and are not detected.
//
// This package only implements the channel core and its injectable Pool.
// Message framing and push-style stream adapters live in sibling packages
// (pipe/framing, pipe/adapter) built on top of the surface exported here.
package pipe
