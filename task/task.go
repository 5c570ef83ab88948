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

// Package task tracks in-flight requests from the moment they are sent on
// the bus until their outcome is consumed.
//
// A [Task] moves through the states Created, Pending and finally Done or
// Failed. Its result slot is assigned exactly once, by the bus completion,
// and [Task.Done] is closed at the same time. The result must then be
// retrieved exactly once with [Task.Receive] (or [Task.Wait]); any other
// use is a programming error and panics.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bufbuild/dpdispatch/bus"
	"github.com/bufbuild/dpdispatch/filter"
	"github.com/bufbuild/dpdispatch/internal"
	"github.com/bufbuild/dpdispatch/reply"
	"github.com/bufbuild/dpdispatch/route"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrAllocation is returned when no more tasks can be started.
	ErrAllocation = errors.New("unable to allocate task")
	// ErrContractViolation is the value panicked with when a task result
	// is received before completion or more than once.
	ErrContractViolation = errors.New("task contract violation")
)

// State is the lifecycle state of a task.
type State int

const (
	Created State = iota
	Pending
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// ResolverData is the payload sent with every call made by a Controller.
type ResolverData struct {
	Filter filter.Filter
}

// Task is a single in-flight request.
type Task struct {
	id      uuid.UUID
	name    string
	target  route.Target
	flags   uint32
	clock   internal.Clock
	logger  *zap.Logger
	created time.Time
	done    chan struct{}
	// onFinish runs once, outside of mu, after the task becomes terminal.
	onFinish func(*Task)

	mu sync.Mutex
	// +checklocks:mu
	state State
	// +checklocks:mu
	data *ResolverData
	// +checklocks:mu
	reply reply.Std
	// +checklocks:mu
	err error
	// +checklocks:mu
	finished time.Time
	// +checklocks:mu
	completed bool
	// +checklocks:mu
	early *bus.Result
	// +checklocks:mu
	received bool
}

// NewFailed returns a task that never reached the bus. It is already
// complete and its Receive returns err.
func NewFailed(err error) *Task {
	clock := internal.NewRealClock()
	now := clock.Now()
	done := make(chan struct{})
	close(done)
	return &Task{
		clock:     clock,
		logger:    zap.NewNop(),
		created:   now,
		done:      done,
		state:     Failed,
		err:       err,
		finished:  now,
		completed: true,
	}
}

// ID returns the correlation ID sent with the task's bus call.
func (t *Task) ID() uuid.UUID {
	return t.id
}

// Name returns the request name used in diagnostics.
func (t *Task) Name() string {
	return t.name
}

// Flags returns the request flags sent with the task's bus call.
func (t *Task) Flags() uint32 {
	return t.flags
}

// Target returns the bus target the task was sent to.
func (t *Task) Target() route.Target {
	return t.target
}

// Done returns a channel that is closed once the task is Done or Failed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// State returns the current state of the task.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Elapsed returns how long the task has been, or was, in flight.
func (t *Task) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished.IsZero() {
		return t.clock.Since(t.created)
	}
	return t.finished.Sub(t.created)
}

// Receive returns the outcome of a completed task: the backend's reply
// if it is Done, or the failure if it is Failed. It panics with an error
// wrapping ErrContractViolation if the task has not completed yet or if
// its result was already received.
func (t *Task) Receive() (reply.Std, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Terminal() {
		panic(fmt.Errorf("%w: %s received while %v", ErrContractViolation, t.describe(), t.state))
	}
	if t.received {
		panic(fmt.Errorf("%w: %s received twice", ErrContractViolation, t.describe()))
	}
	t.received = true
	std, err := t.reply, t.err
	t.reply, t.err, t.data = reply.Std{}, nil, nil
	if err != nil {
		return reply.Std{}, err
	}
	return std, nil
}

// Wait blocks until the task completes and then receives its result. If
// ctx is done first, Wait returns ctx.Err() and the result remains to be
// received.
func (t *Task) Wait(ctx context.Context) (reply.Std, error) {
	select {
	case <-t.done:
		return t.Receive()
	case <-ctx.Done():
		return reply.Std{}, ctx.Err()
	}
}

func (t *Task) describe() string {
	if t.name == "" {
		return "unsent task"
	}
	return "task " + t.name
}

// complete is the bus receiver of the task.
func (t *Task) complete(result bus.Result) {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		t.logger.Warn("ignoring duplicate completion",
			zap.String("request", t.name), zap.Stringer("id", t.id))
		return
	}
	t.completed = true
	if t.state == Created {
		// Send has not returned yet; submitted finishes the task.
		t.early = &result
		t.mu.Unlock()
		return
	}
	out := t.finishLocked(result)
	t.mu.Unlock()
	t.afterFinish(out)
}

// submitted moves the task to Pending after its call was sent, or
// finishes it if the completion already arrived.
func (t *Task) submitted() {
	t.mu.Lock()
	if t.early == nil {
		t.state = Pending
		t.mu.Unlock()
		return
	}
	result := *t.early
	t.early = nil
	out := t.finishLocked(result)
	t.mu.Unlock()
	t.afterFinish(out)
}

type outcome struct {
	reply   reply.Std
	err     error
	elapsed time.Duration
}

// +checklocks:t.mu
func (t *Task) finishLocked(result bus.Result) outcome {
	t.finished = t.clock.Now()
	std, err := bus.Extract[reply.Std](result)
	if err != nil {
		t.state, t.err = Failed, err
	} else {
		t.state, t.reply = Done, std
	}
	close(t.done)
	return outcome{reply: std, err: err, elapsed: t.finished.Sub(t.created)}
}

func (t *Task) afterFinish(out outcome) {
	if out.err != nil {
		t.logger.Error("request failed",
			zap.String("request", t.name), zap.Stringer("id", t.id),
			zap.Stringer("target", t.target), zap.Duration("elapsed", out.elapsed), zap.Error(out.err))
	} else {
		t.logger.Debug("request finished",
			zap.String("request", t.name), zap.Stringer("id", t.id),
			zap.Stringer("reply", out.reply), zap.Duration("elapsed", out.elapsed))
	}
	if t.onFinish != nil {
		t.onFinish(t)
	}
}
