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
	"github.com/bufbuild/dpdispatch/route"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option is an option used to customize the behavior of a Dispatcher.
type Option interface {
	apply(*dispatcherOptions)
}

// WithLogger sets the logger that receives the dispatcher's diagnostic
// events: request receipt and completion at debug level, and failures at
// error level. By default, nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *dispatcherOptions) {
		opts.logger = logger
	})
}

// WithTable replaces the default routing table. This is how categories
// other than the resolver ones are served.
func WithTable(table *route.Table) Option {
	return optionFunc(func(opts *dispatcherOptions) {
		opts.table = table
	})
}

// WithMaxInFlight bounds how many requests may wait for the backend at
// once. Requests beyond the bound fail immediately. By default, there
// is no bound.
func WithMaxInFlight(limit int) Option {
	return optionFunc(func(opts *dispatcherOptions) {
		opts.maxInFlight = limit
	})
}

// WithMetrics registers the dispatcher's prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(opts *dispatcherOptions) {
		opts.registerer = reg
	})
}

type dispatcherOptions struct {
	logger      *zap.Logger
	table       *route.Table
	maxInFlight int
	registerer  prometheus.Registerer
}

type optionFunc func(*dispatcherOptions)

func (f optionFunc) apply(opts *dispatcherOptions) {
	f(opts)
}
