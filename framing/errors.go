// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

import "errors"

var (
	// ErrInvalidArgument reports a nil channel or other invalid configuration.
	ErrInvalidArgument = errors.New("framing: invalid argument")

	// ErrTooLong reports that a message length exceeds the wire format's
	// supported range or the configured ReadLimit.
	ErrTooLong = errors.New("framing: message too long")

	// ErrUnexpectedEOF reports that the underlying channel completed with no
	// error in the middle of a message, i.e. fewer bytes were produced than
	// the header promised.
	ErrUnexpectedEOF = errors.New("framing: channel completed mid-message")
)
