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

package task

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bufbuild/dpdispatch/bus"
	"github.com/bufbuild/dpdispatch/filter"
	"github.com/bufbuild/dpdispatch/internal"
	"github.com/bufbuild/dpdispatch/route"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Observer is notified of task lifecycle events. Its methods may be
// called concurrently for different tasks.
type Observer interface {
	// TaskStarted is called after a task is sent on the bus.
	TaskStarted(*Task)
	// TaskFinished is called once a task is Done or Failed.
	TaskFinished(*Task)
}

// ControllerOption is an option used to customize a Controller.
type ControllerOption interface {
	apply(*Controller)
}

// WithLogger sets the logger used for task diagnostics. By default,
// nothing is logged.
func WithLogger(logger *zap.Logger) ControllerOption {
	return controllerOptionFunc(func(c *Controller) {
		c.logger = logger
	})
}

// WithMaxInFlight bounds the number of tasks that may be in flight at
// once. When the bound is reached, Submit fails with ErrAllocation. A
// value of zero or less, the default, means no bound.
func WithMaxInFlight(limit int) ControllerOption {
	return controllerOptionFunc(func(c *Controller) {
		c.maxInFlight = limit
	})
}

// WithClock sets the clock used to timestamp tasks. By default, the
// wall clock is used.
func WithClock(clock internal.Clock) ControllerOption {
	return controllerOptionFunc(func(c *Controller) {
		c.clock = clock
	})
}

// WithObserver registers an observer of task lifecycle events.
func WithObserver(observer Observer) ControllerOption {
	return controllerOptionFunc(func(c *Controller) {
		c.observer = observer
	})
}

// Controller submits tasks to a bus and finalizes them when the bus
// reports their completion.
type Controller struct {
	bus         bus.Bus
	logger      *zap.Logger
	clock       internal.Clock
	observer    Observer
	maxInFlight int
	slots       *semaphore.Weighted
	count       atomic.Uint64
}

// NewController creates a controller that sends tasks on the given bus.
func NewController(b bus.Bus, options ...ControllerOption) *Controller {
	c := &Controller{
		bus:    b,
		logger: zap.NewNop(),
		clock:  internal.NewRealClock(),
	}
	for _, opt := range options {
		opt.apply(c)
	}
	if c.maxInFlight > 0 {
		c.slots = semaphore.NewWeighted(int64(c.maxInFlight))
	}
	return c
}

// Submit sends a call for the given filter to target and returns the
// task tracking it without waiting for the outcome. The task is Pending,
// or already complete if the bus finished the call before Send returned.
//
// Submit fails, with no task reaching Pending, when the in-flight bound
// is exhausted (the error wraps ErrAllocation) or when the bus refuses
// the call.
func (c *Controller) Submit(ctx context.Context, f filter.Filter, target route.Target, flags uint32) (*Task, error) {
	if c.slots != nil && !c.slots.TryAcquire(1) {
		return nil, fmt.Errorf("%w: %d tasks already in flight", ErrAllocation, c.maxInFlight)
	}
	t := &Task{
		id:      uuid.New(),
		name:    fmt.Sprintf("%s #%d", target.Interface, c.count.Add(1)),
		target:  target,
		flags:   flags,
		clock:   c.clock,
		logger:  c.logger,
		created: c.clock.Now(),
		done:    make(chan struct{}),
		state:   Created,
		data:    &ResolverData{Filter: f},
	}
	t.onFinish = c.finish
	call := &bus.Call{
		ID:     t.id,
		Name:   t.name,
		Target: target,
		Flags:  flags,
		Data:   t.data,
	}
	if err := c.bus.Send(ctx, call, bus.ReceiverFunc(t.complete)); err != nil {
		c.release()
		c.logger.Error("unable to send request",
			zap.String("request", t.name), zap.Stringer("target", target), zap.Error(err))
		return nil, fmt.Errorf("send %s: %w", t.name, err)
	}
	c.logger.Debug("request sent",
		zap.String("request", t.name), zap.Stringer("id", t.id),
		zap.Stringer("target", target), zap.Stringer("filter", f), zap.Uint32("flags", flags))
	if c.observer != nil {
		c.observer.TaskStarted(t)
	}
	t.submitted()
	return t, nil
}

func (c *Controller) finish(t *Task) {
	c.release()
	if c.observer != nil {
		c.observer.TaskFinished(t)
	}
}

func (c *Controller) release() {
	if c.slots != nil {
		c.slots.Release(1)
	}
}

type controllerOptionFunc func(*Controller)

func (f controllerOptionFunc) apply(c *Controller) {
	f(c)
}
