// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package framing layers message boundaries on top of a pipe.Channel's raw
// byte stream.
//
// Wire format: a 1-byte header followed by optional extended length bytes
// and then the payload. Let L be payload length in bytes:
//   - 0 <= L <= 253: header[0] = L (no extended length)
//   - 254 <= L <= 65535: header[0] = 0xFE; next 2 bytes encode L (configured byte order)
//   - 65536 <= L <= 2^56-1: header[0] = 0xFF; next 7 bytes encode the lower 56 bits of L
//     in the configured byte order
//
// Maximum supported payload is 2^56-1; larger values produce ErrTooLong. A
// per-Decoder limit can be set via WithReadLimit.
//
// An Encoder writes each message as two Write calls (header, then payload)
// followed by one Flush, so a message's header and payload always land in
// the same ReadableBuffer delivery the producer side of the pipe.Channel
// contract allows, but never assumes a single Write call sees the whole
// message: a Decoder reassembles a message across as many ReadAsync cycles
// as the producer happened to flush it in.
package framing
