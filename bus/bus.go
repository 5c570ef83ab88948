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

// Package bus defines the backend dispatch bus: the mechanism that
// delivers a routed call to the handler implementing its target and
// reports the outcome asynchronously.
//
// Results travel through the bus type-erased. The sender recovers the
// concrete output it expects with [Extract].
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/bufbuild/dpdispatch/route"
	"github.com/google/uuid"
)

var (
	// ErrUnexpectedOutput is returned by Extract when a handler produced
	// output of a different type than the one the caller expects.
	ErrUnexpectedOutput = errors.New("unexpected handler output")
	// ErrTargetNotConfigured is reported for calls whose target has no
	// registered handler.
	ErrTargetNotConfigured = errors.New("target is not configured")
	// ErrBusClosed is returned when sending on a closed bus.
	ErrBusClosed = errors.New("bus is closed")
)

// Call is a single request sent over the bus.
type Call struct {
	// ID correlates the call with the task that sent it.
	ID uuid.UUID
	// Name is the human-readable request name used in diagnostics.
	Name   string
	Target route.Target
	// Flags are the caller-supplied request flags, passed through as-is.
	Flags uint32
	// Data is the category-specific payload.
	Data any
}

// Result is the type-erased outcome of a call.
type Result struct {
	Output any
	Err    error
}

// Receiver is notified when a call completes.
type Receiver interface {
	// OnComplete is called exactly once per successfully sent call. It may
	// be called from any goroutine, including synchronously from within
	// Send before Send returns.
	OnComplete(Result)
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc func(Result)

// OnComplete implements Receiver.
func (f ReceiverFunc) OnComplete(result Result) {
	f(result)
}

// Bus sends calls to backend handlers.
type Bus interface {
	// Send starts the given call and returns without waiting for it. The
	// outcome is delivered to receiver. If Send returns an error, the
	// call was not started and receiver is never invoked.
	//
	// The given context is passed to the handler and should be used to
	// abandon the work if it is cancelled.
	Send(ctx context.Context, call *Call, receiver Receiver) error
}

// Handler implements one target of the bus.
type Handler interface {
	Handle(ctx context.Context, call *Call) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, call *Call) (any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, call *Call) (any, error) {
	return f(ctx, call)
}

// Extract returns the output of result as a T. If the call failed, its
// error is returned unchanged.
func Extract[T any](result Result) (T, error) {
	var zero T
	if result.Err != nil {
		return zero, result.Err
	}
	output, ok := result.Output.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrUnexpectedOutput, result.Output, zero)
	}
	return output, nil
}
