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

package dpdispatch

import (
	"context"
	"errors"

	"github.com/bufbuild/dpdispatch/bus"
	"github.com/bufbuild/dpdispatch/filter"
	"github.com/bufbuild/dpdispatch/internal/metrics"
	"github.com/bufbuild/dpdispatch/reply"
	"github.com/bufbuild/dpdispatch/route"
	"github.com/bufbuild/dpdispatch/task"
	"go.uber.org/zap"
)

// FlagFastReply asks the backend to reply from cache if it can, without
// contacting the remote server first.
const FlagFastReply uint32 = 0x0001

// Request is a lookup request as delivered by the inbound channel.
type Request struct {
	// RequestName identifies the operation in diagnostics.
	RequestName string
	Flags       uint32
	Category    route.Category
	// Name and Address are the optional selectors of the lookup. See
	// filter.Normalize for how they combine.
	Name    *string
	Address *string
}

// Dispatcher routes lookup requests to backend handlers over a bus.
type Dispatcher struct {
	table      *route.Table
	controller *task.Controller
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewDispatcher creates a dispatcher that sends requests on the given
// bus. It returns an error only if the metrics requested with
// WithMetrics cannot be registered.
func NewDispatcher(b bus.Bus, options ...Option) (*Dispatcher, error) {
	opts := dispatcherOptions{
		logger: zap.NewNop(),
		table:  route.DefaultTable(),
	}
	for _, opt := range options {
		opt.apply(&opts)
	}
	d := &Dispatcher{
		table:  opts.table,
		logger: opts.logger,
	}
	if opts.registerer != nil {
		m, err := metrics.New(opts.registerer)
		if err != nil {
			return nil, err
		}
		d.metrics = m
	}
	controllerOptions := []task.ControllerOption{
		task.WithLogger(opts.logger),
		task.WithMaxInFlight(opts.maxInFlight),
	}
	if d.metrics != nil {
		controllerOptions = append(controllerOptions, task.WithObserver(taskObserver{d.metrics}))
	}
	d.controller = task.NewController(b, controllerOptions...)
	return d, nil
}

// Send starts the given request and returns the task tracking it. It
// never blocks on the backend. If the request cannot be sent, because
// its category is not supported or because too many tasks are in
// flight, the returned task has already Failed with that error.
func (d *Dispatcher) Send(ctx context.Context, req Request) *task.Task {
	f := filter.Normalize(req.Name, req.Address)
	d.logger.Debug("received request",
		zap.String("request", req.RequestName),
		zap.Uint32("flags", req.Flags),
		zap.Stringer("category", req.Category),
		zap.Stringer("filter", f))

	target, err := d.table.Route(req.Category)
	if err != nil {
		return d.reject(req, err)
	}
	t, err := d.controller.Submit(ctx, f, target, req.Flags)
	if err != nil {
		return d.reject(req, err)
	}
	d.metrics.RequestSent(req.Category.String())
	return t
}

// Resolve sends the given request and waits for its outcome. The error
// is either the failure of the request or ctx.Err() if ctx is done
// before the request completes.
func (d *Dispatcher) Resolve(ctx context.Context, req Request) (reply.Std, error) {
	return d.Send(ctx, req).Wait(ctx)
}

// Handle serves the inbound channel contract: it resolves the request
// and always produces exactly one reply triple, translating failures
// into their reply form.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (dpError uint16, code uint32, message string) {
	std, err := d.Resolve(ctx, req)
	if err != nil {
		std = ReplyFor(err)
	}
	dpError, code, message = std.Triple()
	d.logger.Debug("returning reply",
		zap.String("request", req.RequestName),
		zap.String("status", reply.DPErrString(dpError)),
		zap.Uint16("dp_error", dpError),
		zap.Uint32("error", code),
		zap.String("message", message))
	return dpError, code, message
}

// ReplyFor converts a request failure into the reply sent to the caller.
// Backend failures carry their own reply, which is returned unchanged.
func ReplyFor(err error) reply.Std {
	switch {
	case errors.Is(err, route.ErrInvalidCategory):
		return reply.Fatal(reply.CodeInvalid, err)
	case errors.Is(err, task.ErrAllocation):
		return reply.Fatal(reply.CodeNoMemory, err)
	default:
		return reply.FromError(err)
	}
}

func (d *Dispatcher) reject(req Request, err error) *task.Task {
	d.logger.Error("unable to dispatch request",
		zap.String("request", req.RequestName),
		zap.Stringer("category", req.Category),
		zap.Error(err))
	d.metrics.RequestRejected(req.Category.String())
	return task.NewFailed(err)
}

type taskObserver struct {
	metrics *metrics.Metrics
}

func (o taskObserver) TaskStarted(*task.Task) {
	o.metrics.TaskStarted()
}

func (o taskObserver) TaskFinished(t *task.Task) {
	outcome := metrics.OutcomeDone
	if t.State() == task.Failed {
		outcome = metrics.OutcomeFailed
	}
	o.metrics.TaskFinished(t.Target().String(), outcome, t.Elapsed())
}
