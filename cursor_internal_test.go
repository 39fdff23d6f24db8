// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

import "testing"

func chainOf(t *testing.T, parts ...string) *segment {
	t.Helper()
	head := &segment{kind: segmentOwned, data: []byte(parts[0]), writeEnd: len(parts[0])}
	cur := head
	for _, p := range parts[1:] {
		seg := &segment{kind: segmentOwned, data: []byte(p), writeEnd: len(p)}
		cur.next = seg
		cur = seg
	}
	return head
}

func TestCursorSeekWithinSegment(t *testing.T) {
	head := chainOf(t, "hello")
	c := Cursor{seg: head, offset: 0}
	got, ok := c.Seek(3)
	if !ok {
		t.Fatalf("Seek(3) failed")
	}
	if got.seg != head || got.offset != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestCursorSeekAcrossSegments(t *testing.T) {
	head := chainOf(t, "abc", "de", "fgh")
	c := Cursor{seg: head, offset: 1}
	// "bc" + "de" + "f" = 5 bytes forward from offset 1 in "abc".
	got, ok := c.Seek(5)
	if !ok {
		t.Fatalf("Seek(5) failed")
	}
	if got.seg != head.next.next || got.offset != 1 {
		t.Fatalf("got seg=%p offset=%d", got.seg, got.offset)
	}
}

func TestCursorSeekToExactEnd(t *testing.T) {
	head := chainOf(t, "ab", "cd")
	c := Cursor{seg: head, offset: 0}
	got, ok := c.Seek(4)
	if !ok {
		t.Fatalf("Seek(4) failed")
	}
	if got.seg != head.next || got.offset != 2 {
		t.Fatalf("got seg=%p offset=%d", got.seg, got.offset)
	}
}

func TestCursorSeekPastEndFails(t *testing.T) {
	head := chainOf(t, "ab")
	c := Cursor{seg: head, offset: 0}
	if _, ok := c.Seek(3); ok {
		t.Fatalf("Seek past end unexpectedly succeeded")
	}
}

func TestCursorSeekNegativeFails(t *testing.T) {
	head := chainOf(t, "ab")
	c := Cursor{seg: head, offset: 1}
	if _, ok := c.Seek(-1); ok {
		t.Fatalf("Seek(-1) unexpectedly succeeded")
	}
}

func TestCursorDistance(t *testing.T) {
	head := chainOf(t, "abc", "de")
	start := Cursor{seg: head, offset: 1}
	end := Cursor{seg: head.next, offset: 1}
	if got := start.distance(end); got != 3 {
		t.Fatalf("distance = %d, want 3", got)
	}
}

func TestCursorEqual(t *testing.T) {
	head := chainOf(t, "abc")
	a := Cursor{seg: head, offset: 2}
	b := Cursor{seg: head, offset: 2}
	c := Cursor{seg: head, offset: 1}
	if !a.Equal(b) {
		t.Fatalf("a should equal b")
	}
	if a.Equal(c) {
		t.Fatalf("a should not equal c")
	}
}

func TestSegmentLiveness(t *testing.T) {
	seg := &segment{kind: segmentBorrowed, data: []byte("x"), writeEnd: 1}
	if !seg.live() {
		t.Fatalf("fresh segment should be live")
	}
	seg.released = true
	if seg.live() {
		t.Fatalf("released zero-refcount Borrowed segment must be dead")
	}
	seg.refs = 1
	if !seg.live() {
		t.Fatalf("refcounted segment must stay live regardless of released")
	}
}
