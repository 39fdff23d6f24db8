// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package adapter bridges a pipe.Channel to ordinary blocking io.Reader and
// io.Writer sources, the shape most real transports (net.Conn, os.File,
// pipes from exec.Cmd) already come in.
//
// Reader.Run is a pump loop, run on whatever goroutine calls it, that reads
// from an io.Reader into scratch
// buffers and pushes them into a pipe.Channel as Borrowed segments. Each
// Read gets its own freshly allocated buffer, so it never needs to call
// Channel.Release itself -- the channel's own Flush already promotes or
// discards the previous Borrowed segment before returning, the concrete
// choice this repository makes for the producer-release point left
// operationally defined by the channel itself.
//
// Writer.Run is a drain loop, likewise run on its caller's goroutine, that
// pulls ReadableBuffers out of a
// pipe.Channel via ReadAsync and writes their bytes to an io.Writer,
// Advancing as it goes.
package adapter
