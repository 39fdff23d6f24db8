// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe_test

import (
	"context"
	"testing"
	"unsafe"

	"code.hybscloud.com/pipe"
)

// taggingPool wraps the default Pool and records the address of every buffer
// it hands out and takes back, so a test can assert a Put buffer's storage
// is the one a later Get returns (scenario S8 -- pooled reuse).
type taggingPool struct {
	inner pipe.Pool
	gets  []uintptr
	puts  []uintptr
}

func newTaggingPool() *taggingPool {
	return &taggingPool{inner: pipe.NewPool()}
}

func addrOf(buf []byte) uintptr {
	if cap(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[:1][0]))
}

func (p *taggingPool) Get(size int) []byte {
	buf := p.inner.Get(size)
	p.gets = append(p.gets, addrOf(buf))
	return buf
}

func (p *taggingPool) Put(buf []byte) {
	p.puts = append(p.puts, addrOf(buf))
	p.inner.Put(buf)
}

// TestPooledSegmentReuse is scenario S8: a released Owned segment's storage
// is returned to the injected Pool, and the next Owned allocation of the
// same size class reuses that same backing array.
//
// Every Flush promotes its just-written segment to Owned storage via
// pool.Get before returning (invariant 3's release point); each Write here
// is the same length, so every Get and Put lands in the same size class and
// later Gets can observe earlier Puts. gets[0] is NewChannel's own pre-warm
// Get for the default segment size hint.
func TestPooledSegmentReuse(t *testing.T) {
	pool := newTaggingPool()
	ch := pipe.NewChannel(pipe.WithPool(pool))
	ctx := context.Background()

	// Flush promotes segment A immediately: gets[1].
	writeFlush(t, ch, []byte("first"))
	res1, err := ch.ReadAsync(ctx)
	if err != nil {
		t.Fatalf("ReadAsync 1: %v", err)
	}

	// Flush promotes segment B immediately: gets[2].
	writeFlush(t, ch, []byte("xxxxx"))

	if err := ch.Advance(res1.Buffer.End()); err != nil {
		t.Fatalf("Advance 1: %v", err)
	}
	if len(pool.puts) == 0 {
		t.Fatalf("expected segment A's now-Owned storage to be returned to the pool once consumed")
	}
	returned := pool.puts[len(pool.puts)-1]

	// Segment A's storage was just freed above; this Flush's promotion of
	// segment C should reuse it.
	writeFlush(t, ch, []byte("yyyyy"))
	ch.CompleteWriter(nil)

	reused := false
	for _, g := range pool.gets {
		if g == returned {
			reused = true
			break
		}
	}
	if !reused {
		t.Fatalf("expected a later Get to reuse the backing array returned by Put")
	}

	// Drain to keep the channel in a consistent state.
	for {
		res, err := ch.ReadAsync(ctx)
		if err != nil {
			t.Fatalf("drain ReadAsync: %v", err)
		}
		if err := ch.Advance(res.Buffer.End()); err != nil {
			t.Fatalf("drain Advance: %v", err)
		}
		if res.IsCompleted {
			break
		}
	}
}

// TestPreservedSegmentReturnsToPoolOnRelease covers the refcounted variant
// of pooled reuse: a segment kept alive past trimming by a PreservedBuffer
// only goes back to the pool once the PreservedBuffer itself is released.
func TestPreservedSegmentReturnsToPoolOnRelease(t *testing.T) {
	pool := newTaggingPool()
	ch := pipe.NewChannel(pipe.WithPool(pool))
	ctx := context.Background()

	writeFlush(t, ch, []byte("keepme"))
	res, err := ch.ReadAsync(ctx)
	if err != nil {
		t.Fatalf("ReadAsync: %v", err)
	}
	preserved, err := res.Buffer.Preserve(ch)
	if err != nil {
		t.Fatalf("Preserve: %v", err)
	}
	if err := ch.Advance(res.Buffer.End()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	ch.CompleteWriter(nil)
	final, err := ch.ReadAsync(ctx)
	if err != nil {
		t.Fatalf("final ReadAsync: %v", err)
	}
	if err := ch.Advance(final.Buffer.End()); err != nil {
		t.Fatalf("final Advance: %v", err)
	}

	putsBefore := len(pool.puts)
	preserved.Release()
	if len(pool.puts) <= putsBefore {
		t.Fatalf("expected Release to return the preserved segment's storage to the pool")
	}
}
