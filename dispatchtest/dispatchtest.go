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

// Package dispatchtest provides a bus implementation for tests that
// simulate backend handlers by completing calls by hand.
package dispatchtest

import (
	"context"
	"sync"

	"github.com/bufbuild/dpdispatch/bus"
	"github.com/bufbuild/dpdispatch/reply"
)

// Call is a call captured by a FakeBus. Exactly one of its Complete,
// Fail or Deliver methods should be called to finish it, unless the test
// exercises duplicate completions.
type Call struct {
	*bus.Call
	// Context is the context the call was sent with.
	Context context.Context //nolint:containedctx

	receiver bus.Receiver
}

// Complete finishes the call successfully with the given reply.
func (c *Call) Complete(std reply.Std) {
	c.receiver.OnComplete(bus.Result{Output: std})
}

// Fail finishes the call with the given error.
func (c *Call) Fail(err error) {
	c.receiver.OnComplete(bus.Result{Err: err})
}

// Deliver finishes the call with an arbitrary result.
func (c *Call) Deliver(result bus.Result) {
	c.receiver.OnComplete(result)
}

// FakeBus is a bus.Bus that records the calls sent on it and never
// completes them on its own.
type FakeBus struct {
	mu sync.Mutex
	// +checklocks:mu
	calls []*Call
	// +checklocks:mu
	sendErr error
}

var _ bus.Bus = (*FakeBus)(nil)

// NewFakeBus constructs a new FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{}
}

// Send implements bus.Bus. If an error was set with SetSendError, it is
// returned and the call is not recorded.
func (b *FakeBus) Send(ctx context.Context, call *bus.Call, receiver bus.Receiver) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.calls = append(b.calls, &Call{Call: call, Context: ctx, receiver: receiver})
	return nil
}

// SetSendError makes subsequent sends fail with err. A nil err restores
// normal behavior.
func (b *FakeBus) SetSendError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendErr = err
}

// Calls returns the calls recorded so far, in the order they were sent.
func (b *FakeBus) Calls() []*Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	calls := make([]*Call, len(b.calls))
	copy(calls, b.calls)
	return calls
}

// Last returns the most recently sent call, or nil if there is none.
func (b *FakeBus) Last() *Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		return nil
	}
	return b.calls[len(b.calls)-1]
}
