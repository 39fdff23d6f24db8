// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

import (
	"encoding/binary"

	"code.hybscloud.com/pipe/framing/internal/bo"
)

// Transport-named presets, single source of truth for byte order by
// deployment shape: a channel fed from a socket (TCP, Unix stream, a
// pipe/adapter.Reader wrapping either) uses network byte order so the wire
// format matches what a non-Go peer would expect; a channel used purely
// in-process (an Encoder and Decoder sharing one pipe.Channel, a
// worker-to-worker queue within one binary) can use the native order and
// skip the swap.

// WithNetworkByteOrder selects big-endian extended-length encoding, the
// conventional choice for anything that might cross a socket.
func WithNetworkByteOrder() Option {
	return WithByteOrder(binary.BigEndian)
}

// WithNativeByteOrder selects the host's native byte order, avoiding an
// unnecessary swap for a channel that never leaves this process.
func WithNativeByteOrder() Option {
	return WithByteOrder(bo.Native())
}
