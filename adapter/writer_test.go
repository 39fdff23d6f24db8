// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package adapter_test

import (
	"bytes"
	"context"
	"testing"

	"code.hybscloud.com/pipe"
	"code.hybscloud.com/pipe/adapter"
)

// TestWriterDrainsChannelInOrder is part of scenario S10: the adapter
// Writer copies every byte the channel produces to dst, in order, and
// returns once the channel completes.
func TestWriterDrainsChannelInOrder(t *testing.T) {
	ch := pipe.NewChannel()
	var dst bytes.Buffer
	w := adapter.NewWriter(&dst, ch)

	if _, err := ch.Write([]byte("Hello ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := ch.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := ch.Write([]byte("World")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := ch.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	ch.CompleteWriter(nil)

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Writer.Run: %v", err)
	}
	if dst.String() != "Hello World" {
		t.Fatalf("got %q, want %q", dst.String(), "Hello World")
	}
}

// TestWriterAcknowledgesCancellationWithoutWriting verifies a cancelled
// ReadResult is Advanced without being written to dst, and draining
// continues afterward.
func TestWriterAcknowledgesCancellationWithoutWriting(t *testing.T) {
	ch := pipe.NewChannel()
	var dst bytes.Buffer
	w := adapter.NewWriter(&dst, ch)

	if _, err := ch.Write([]byte("part")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := ch.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	ch.Cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	// Supply the rest of the data and complete the channel while the Writer
	// runs; it may observe and acknowledge the cancelled read before or
	// after "ial" arrives, and dst must hold "partial" either way.
	if _, err := ch.Write([]byte("ial")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := ch.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	ch.CompleteWriter(nil)

	if err := <-done; err != nil {
		t.Fatalf("Writer.Run: %v", err)
	}
	if dst.String() != "partial" {
		t.Fatalf("got %q, want %q", dst.String(), "partial")
	}
}

// TestWriterSurfacesProducerFault verifies a ProducerFault error from the
// channel is returned verbatim by Writer.Run.
func TestWriterSurfacesProducerFault(t *testing.T) {
	ch := pipe.NewChannel()
	var dst bytes.Buffer
	w := adapter.NewWriter(&dst, ch)

	boom := context.DeadlineExceeded
	ch.CompleteWriter(boom)

	err := w.Run(context.Background())
	if !pipe.IsProducerFault(err) {
		t.Fatalf("want ProducerFault, got %v", err)
	}
}
