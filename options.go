// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

import (
	"context"

	"github.com/c2h5oh/datasize"
)

// Options configures a Channel.
type Options struct {
	// Pool supplies Owned-segment storage. Defaults to NewPool() (a
	// channel-backed, size-classed free list) if left nil.
	Pool Pool

	// Context is the cancellation source checked at every suspension point
	// inside ReadAsync (spec §4.3): when it is done, the current or next
	// ReadAsync resumes exactly once with IsCancelled=true, same as an
	// explicit call to Cancel. Defaults to context.Background() (never
	// cancels on its own).
	Context context.Context

	// SegmentSizeHint advises the channel's Pool (the default one or one
	// set with WithPool) on the size class to pre-warm for Owned copies:
	// NewChannel does one Get and Put of this size on it. It is only a hint: a Borrowed segment's
	// size is always dictated by whatever region the producer hands to
	// Write, never clamped or split to fit this value.
	SegmentSizeHint datasize.ByteSize
}

var defaultOptions = Options{
	Pool:            nil,
	Context:         nil,
	SegmentSizeHint: 4 * datasize.KB,
}

// Option mutates Options during NewChannel construction.
type Option func(*Options)

// WithPool overrides the Owned-segment storage pool.
func WithPool(p Pool) Option {
	return func(o *Options) { o.Pool = p }
}

// WithContext sets the cancellation source checked throughout ReadAsync.
func WithContext(ctx context.Context) Option {
	return func(o *Options) { o.Context = ctx }
}

// WithSegmentSizeHint advises the channel's Pool of the typical segment size
// this channel will see, so its first few Gets don't undershoot.
func WithSegmentSizeHint(size datasize.ByteSize) Option {
	return func(o *Options) { o.SegmentSizeHint = size }
}
