// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe_test

import (
	"context"
	"testing"

	"code.hybscloud.com/pipe"
)

func TestReadableBufferSliceAndLen(t *testing.T) {
	ch := pipe.NewChannel()
	ctx := context.Background()

	// Two Writes under one Flush: a single read spanning two segments.
	if _, err := ch.Write([]byte("abc")); err != nil {
		t.Fatalf("Write(abc): %v", err)
	}
	writeFlush(t, ch, []byte("def"))
	ch.CompleteWriter(nil)

	res, err := ch.ReadAsync(ctx)
	if err != nil {
		t.Fatalf("ReadAsync: %v", err)
	}
	buf := res.Buffer
	if buf.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", buf.Len())
	}

	mid, err := buf.Slice(2, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	got, err := mid.ToArray()
	if err != nil {
		t.Fatalf("ToArray: %v", err)
	}
	if string(got) != "cd" {
		t.Fatalf("Slice(2,4) = %q, want %q", got, "cd")
	}

	tail, err := buf.SliceFrom(4)
	if err != nil {
		t.Fatalf("SliceFrom: %v", err)
	}
	got, err = tail.ToArray()
	if err != nil {
		t.Fatalf("ToArray tail: %v", err)
	}
	if string(got) != "ef" {
		t.Fatalf("SliceFrom(4) = %q, want %q", got, "ef")
	}

	if err := ch.Advance(buf.End()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
}

func TestReadableBufferSliceOutOfRange(t *testing.T) {
	ch := pipe.NewChannel()
	ctx := context.Background()

	writeFlush(t, ch, []byte("abc"))
	ch.CompleteWriter(nil)

	res, err := ch.ReadAsync(ctx)
	if err != nil {
		t.Fatalf("ReadAsync: %v", err)
	}
	if _, err := res.Buffer.Slice(0, 100); err == nil {
		t.Fatalf("Slice beyond buffer length should fail")
	}
	if _, err := res.Buffer.Slice(2, 1); err == nil {
		t.Fatalf("Slice with to < from should fail")
	}
}

func TestReadableBufferIsEmpty(t *testing.T) {
	ch := pipe.NewChannel()
	ctx := context.Background()
	ch.CompleteWriter(nil)

	res, err := ch.ReadAsync(ctx)
	if err != nil {
		t.Fatalf("ReadAsync: %v", err)
	}
	if !res.Buffer.IsEmpty() {
		t.Fatalf("expected an empty buffer on an immediately completed channel")
	}
	if !res.IsCompleted {
		t.Fatalf("expected IsCompleted")
	}
}

func TestReadableBufferFirstSpansOneSegment(t *testing.T) {
	ch := pipe.NewChannel()
	ctx := context.Background()

	writeFlush(t, ch, []byte("one"))
	writeFlush(t, ch, []byte("two"))
	ch.CompleteWriter(nil)

	res, err := ch.ReadAsync(ctx)
	if err != nil {
		t.Fatalf("ReadAsync: %v", err)
	}
	first, err := res.Buffer.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if string(first) != "one" {
		t.Fatalf("First() = %q, want %q (should stop at the first segment boundary)", first, "one")
	}
}
