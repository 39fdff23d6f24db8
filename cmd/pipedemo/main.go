// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command pipedemo drives a handful of framed messages through a real OS
// pipe via two pipe.Channel instances:
//
//	[]byte msgs -> framing.Encoder -> chA -> adapter.Writer -> os.Pipe
//	  os.Pipe -> adapter.Reader -> chB -> framing.Decoder -> stdout
//
// chA's producer is in-process (the Encoder itself); chB's producer is the
// adapter.Reader pump reading off the OS pipe's read end. This exercises
// both ends of the channel's producer/consumer contract along with the
// framing wire format over a transport that cannot see message boundaries.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"code.hybscloud.com/pipe"
	"code.hybscloud.com/pipe/adapter"
	"code.hybscloud.com/pipe/framing"
)

func main() {
	app := cli.NewApp()
	app.Name = "pipedemo"
	app.Usage = "drive framed messages through an unowned-buffer channel over an OS pipe"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "count",
			Value: 16,
			Usage: "number of messages to send",
		},
		cli.IntFlag{
			Name:  "size",
			Value: 256,
			Usage: "payload size per message, in bytes",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := newLogger(c.Bool("verbose"))
	defer log.Sync() //nolint:errcheck

	count := c.Int("count")
	size := c.Int("size")

	pr, pw, err := os.Pipe()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chA := pipe.NewChannel(pipe.WithSegmentSizeHint(sizeHint(size)), pipe.WithContext(ctx))
	chB := pipe.NewChannel(pipe.WithSegmentSizeHint(sizeHint(size)), pipe.WithContext(ctx))

	enc := framing.NewEncoder(chA, framing.WithNativeByteOrder())
	dec := framing.NewDecoder(chB, framing.WithNativeByteOrder())

	toOS := adapter.NewWriter(pw, chA)
	fromOS := adapter.NewReader(pr, chB, 4*size)

	// toOS drains chA to the OS pipe's write end; the write end must stay
	// open until every byte chA ever holds has been written, so it is only
	// closed after toOS itself reports chA fully drained.
	toOSErr := make(chan error, 1)
	go func() {
		err := toOS.Run(ctx)
		_ = pw.Close()
		toOSErr <- err
	}()

	fromOSErr := make(chan error, 1)
	go func() { fromOSErr <- fromOS.Run(ctx, nil) }()

	log.Infow("starting pipedemo", zap.Int("count", count), zap.Int("size", size))

	go func() {
		for i := 0; i < count; i++ {
			if err := enc.WriteMessage(makeMessage(i, size)); err != nil {
				log.Errorw("encode failed", zap.Error(err))
				return
			}
		}
		enc.Close()
	}()

	received := 0
	for received < count {
		payload, derr := dec.ReadMessage(ctx)
		if derr != nil {
			if pipe.IsProducerFault(derr) {
				log.Errorw("producer faulted", zap.Error(derr))
			} else {
				log.Warnw("decode stopped early", zap.Error(derr))
			}
			break
		}
		fmt.Printf("message %d: %d bytes, first byte=%d\n", received, len(payload), firstByte(payload))
		received++
	}

	<-toOSErr
	<-fromOSErr
	_ = pr.Close()

	log.Infow("pipedemo finished", zap.Int("received", received), zap.Int("requested", count))
	if received != count {
		return fmt.Errorf("pipedemo: received %d of %d messages", received, count)
	}
	return nil
}

func sizeHint(n int) datasize.ByteSize {
	return datasize.ByteSize(n) * datasize.B
}

func firstByte(b []byte) int {
	if len(b) == 0 {
		return -1
	}
	return int(b[0])
}

func makeMessage(i, size int) []byte {
	buf := make([]byte, size)
	for j := range buf {
		buf[j] = byte((i + j) % 251)
	}
	return buf
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level.SetLevel(zap.InfoLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}
