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

package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/bufbuild/dpdispatch/route"
	"golang.org/x/sync/errgroup"
)

// Local is an in-process bus. Each call runs its handler on its own
// goroutine.
type Local struct {
	group errgroup.Group

	mu sync.RWMutex
	// +checklocks:mu
	handlers map[route.Target]Handler
	// +checklocks:mu
	closed bool
}

var _ Bus = (*Local)(nil)

// NewLocal creates an empty in-process bus.
func NewLocal() *Local {
	return &Local{handlers: make(map[route.Target]Handler)}
}

// Register sets the handler for target, replacing any previous one.
func (l *Local) Register(target route.Target, handler Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[target] = handler
}

// Send implements Bus. Calls to a target without a handler complete
// with an error wrapping ErrTargetNotConfigured.
func (l *Local) Send(ctx context.Context, call *Call, receiver Receiver) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrBusClosed
	}
	handler := l.handlers[call.Target]
	l.group.Go(func() error {
		if handler == nil {
			receiver.OnComplete(Result{Err: fmt.Errorf("%w: %v", ErrTargetNotConfigured, call.Target)})
			return nil
		}
		output, err := handler.Handle(ctx, call)
		receiver.OnComplete(Result{Output: output, Err: err})
		return nil
	})
	return nil
}

// Close stops accepting calls and waits for the running ones to
// complete.
func (l *Local) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return l.group.Wait()
}
