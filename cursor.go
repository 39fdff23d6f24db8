// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

// Cursor is an opaque position inside a channel's segment chain: a
// (segment, offset) pair where offset is an absolute index into that
// segment's data, in [0, seg.len()]. Two cursors are only comparable if
// they were produced by the same Channel.
type Cursor struct {
	seg    *segment
	offset int
}

// Equal reports whether c and other reference the same position.
func (c Cursor) Equal(other Cursor) bool {
	return c.seg == other.seg && c.offset == other.offset
}

// IsValid reports whether the cursor references a segment at all. A
// zero-value Cursor (no segment) is never valid. It does not check whether
// that segment's bytes are still live.
func (c Cursor) IsValid() bool {
	return c.seg != nil
}

// Seek advances the cursor n bytes forward, walking across segment
// boundaries as needed. Seeking past the currently-written end of the chain
// is undefined and returns a zero Cursor and false.
func (c Cursor) Seek(n int) (Cursor, bool) {
	if n < 0 {
		return Cursor{}, false
	}
	seg, off := c.seg, c.offset
	for seg != nil {
		remaining := seg.len() - off
		if n <= remaining {
			return Cursor{seg: seg, offset: off + n}, true
		}
		n -= remaining
		if seg.next == nil {
			if n == 0 {
				return Cursor{seg: seg, offset: seg.len()}, true
			}
			return Cursor{}, false
		}
		seg = seg.next
		off = 0
	}
	return Cursor{}, false
}

// distance returns the number of bytes between c and other, assuming other
// is reachable from c by walking seg.next forward (other >= c). It panics if
// the two cursors are not ordered along the same chain; callers within this
// package only ever call it with cursors known to be ordered.
func (c Cursor) distance(other Cursor) int {
	if c.seg == other.seg {
		return other.offset - c.offset
	}
	n := c.seg.len() - c.offset
	seg := c.seg.next
	for seg != nil {
		if seg == other.seg {
			return n + other.offset
		}
		n += seg.len()
		seg = seg.next
	}
	panic("pipe: cursors are not on the same chain")
}
