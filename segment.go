// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

// segmentKind discriminates the tagged union a segment holds. Promotion
// rewrites kind and data in place; the *segment pointer identity never
// changes, so Cursor values that reference the segment remain valid across
// promotion.
type segmentKind uint8

const (
	segmentBorrowed segmentKind = iota
	segmentOwned
)

// segment is one contiguous region of bytes linked into a singly-linked
// chain. Borrowed segments alias memory the producer only owns until its
// next call; Owned segments are channel-managed copies drawn from a Pool.
//
// Cursor offsets into a segment are absolute indices into data, not
// relative to some moving read_start: this implementation unlinks whole
// segments from the chain once they are entirely consumed (see
// Channel.trimConsumedLocked) rather than sliding a read_start pointer through a
// partially-consumed segment, so a segment's addressable range never moves
// underneath an existing Cursor — including across Borrowed→Owned
// promotion, which copies the same index range into new storage.
type segment struct {
	kind segmentKind
	data []byte // backing storage; data[:writeEnd] is the written region

	writeEnd int // first free byte index within data

	refs int32 // preservation refcount; 0 until Preserve touches this segment

	// released is set once the producer has released the write frame that
	// produced this segment (see Channel.releaseLocked). A Borrowed segment with
	// refs == 0 becomes permanently invalid for data access the instant
	// released flips true.
	released bool

	// unlinked is set once Advance has determined this segment lies
	// entirely before the consumed cursor, whether or not it has actually
	// been detached from the chain yet (a segment that is still the chain's
	// tail is marked dead here but stays linked, since a future Write
	// extends the chain through it; see Channel.trimConsumedLocked).
	unlinked bool

	next *segment
}

// live reports whether the segment's bytes may still be accessed: refs > 0
// (someone preserved it) always wins; otherwise a segment that has been
// unlinked from the chain, or a Borrowed segment the producer has released,
// is dead.
func (s *segment) live() bool {
	if s.refs > 0 {
		return true
	}
	if s.unlinked {
		return false
	}
	if s.kind == segmentBorrowed && s.released {
		return false
	}
	return true
}

// len returns the number of bytes currently written into the segment.
func (s *segment) len() int {
	return s.writeEnd
}

// bytes returns the segment's written region.
func (s *segment) bytes() []byte {
	return s.data[:s.writeEnd]
}

// slice returns data[from:to], both absolute offsets into the segment.
func (s *segment) slice(from, to int) []byte {
	return s.data[from:to]
}
