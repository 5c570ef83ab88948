// Copyright 2023-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package reply defines the standard reply that every request category
// uses to report its outcome to the original caller.
package reply

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

// DPError is the backend-layer status of a reply.
type DPError = uint16

const (
	DPErrOK      DPError = 0
	DPErrOffline DPError = 1
	DPErrTimeout DPError = 2
	DPErrFatal   DPError = 3
)

// Domain-specific error codes used by this package. Their values follow
// the errno numbering the inbound channel expects.
const (
	CodeOK       uint32 = 0
	CodeIO       uint32 = 5
	CodeNoMemory uint32 = 12
	CodeInvalid  uint32 = 22
	CodeTimedOut uint32 = 110
	CodeCanceled uint32 = 125
	// CodeOffline reports that the backend cannot reach its server.
	CodeOffline uint32 = 0x555D0000 + 14
)

const invalidUTF8Message = "Invalid UTF-8 error message"

// DPErrString returns the human-readable form of a DP status.
func DPErrString(dpError DPError) string {
	switch dpError {
	case DPErrOK:
		return "Success"
	case DPErrOffline:
		return "Provider is Offline"
	case DPErrTimeout:
		return "Request timed out"
	case DPErrFatal:
		return "Internal Error"
	default:
		return "Unknown Error"
	}
}

// Std is the standard reply: a backend status, a domain error code and
// an optional message.
type Std struct {
	DPError DPError
	Error   uint32
	Message *string
}

// New builds a reply from a domain error code, choosing the DP status
// the code implies.
func New(code uint32, message string) Std {
	var dpError DPError
	switch code {
	case CodeOK:
		dpError = DPErrOK
	case CodeOffline:
		dpError = DPErrOffline
	case CodeTimedOut:
		dpError = DPErrTimeout
	default:
		dpError = DPErrFatal
	}
	std := Std{DPError: dpError, Error: code}
	if message != "" {
		std.Message = &message
	}
	return std
}

// OK returns a successful reply without a message.
func OK() Std {
	return Std{}
}

// Triple returns the reply in the form sent back to the caller. A missing
// message is replaced by the description of the DP status and a message
// that is not valid UTF-8 is replaced by a fixed text.
func (s Std) Triple() (dpError DPError, code uint32, message string) {
	switch {
	case s.Message == nil:
		message = DPErrString(s.DPError)
	case !utf8.ValidString(*s.Message):
		message = invalidUTF8Message
	default:
		message = *s.Message
	}
	return s.DPError, s.Error, message
}

func (s Std) String() string {
	message := "<nil>"
	if s.Message != nil {
		message = *s.Message
	}
	return fmt.Sprintf("[%s]: %d,%d,%s", DPErrString(s.DPError), s.DPError, s.Error, message)
}

// Error is a failure reported by a backend. It carries the reply the
// backend produced so that it reaches the caller unchanged.
type Error struct {
	Reply Std
}

// Errorf creates a backend failure with the given code and message.
func Errorf(code uint32, format string, args ...any) *Error {
	return &Error{Reply: New(code, fmt.Sprintf(format, args...))}
}

func (e *Error) Error() string {
	_, code, message := e.Reply.Triple()
	return fmt.Sprintf("backend failure (%s, code %d): %s", DPErrString(e.Reply.DPError), code, message)
}

// FromError converts a failure into a reply. Backend failures keep their
// reply verbatim. Context errors map to the timeout and cancellation
// codes and anything else is reported as a fatal I/O error.
func FromError(err error) Std {
	if err == nil {
		return OK()
	}
	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr.Reply
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		message := err.Error()
		return Std{DPError: DPErrTimeout, Error: CodeTimedOut, Message: &message}
	case errors.Is(err, context.Canceled):
		return Fatal(CodeCanceled, err)
	default:
		return Fatal(CodeIO, err)
	}
}

// Fatal returns a fatal reply with the given code and the error's text
// as its message.
func Fatal(code uint32, err error) Std {
	message := err.Error()
	return Std{DPError: DPErrFatal, Error: code, Message: &message}
}
