// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

import "encoding/binary"

// Options configures an Encoder or Decoder.
type Options struct {
	// ByteOrder governs how the extended-length field of the wire header is
	// encoded/decoded. The 1-byte short form carries no byte order concerns.
	ByteOrder binary.ByteOrder

	// ReadLimit caps the maximum accepted payload size in bytes for a
	// Decoder. Zero means no limit beyond the wire format's own ceiling
	// (2^56-1).
	ReadLimit int
}

var defaultOptions = Options{
	ByteOrder: binary.BigEndian,
	ReadLimit: 0,
}

// Option mutates Options during NewEncoder/NewDecoder construction.
type Option func(*Options)

// WithByteOrder overrides the extended-length field's byte order.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *Options) { o.ByteOrder = order }
}

// WithReadLimit caps the payload size a Decoder will accept before failing a
// message with ErrTooLong.
func WithReadLimit(limit int) Option {
	return func(o *Options) { o.ReadLimit = limit }
}
