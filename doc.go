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

// Package dpdispatch adapts lookup requests arriving from a front-end
// channel to the asynchronous backend handlers of an identity-resolution
// service.
//
// A [Dispatcher] handles each request in the same steps, whatever its
// category:
//
//  1. The optional name and address of the request are normalized into a
//     single [filter.Filter]. A non-empty name takes precedence over the
//     address, and a request with neither enumerates all entries.
//  2. The request category is looked up in a [route.Table] to find the
//     backend interface and method that serve it. Unsupported categories
//     fail right away, without contacting the backend.
//  3. A [task.Controller] sends the call on a [bus.Bus] and returns a
//     [task.Task] that completes when the backend handler is done.
//  4. The backend's outcome is received from the task as a [reply.Std],
//     or as an error if the request failed.
//
// [Dispatcher.Handle] runs all the steps and returns the reply triple the
// front-end channel expects. [Dispatcher.Send] stops after the third step
// and leaves it to the caller to wait for the task.
//
// No retries or timeouts are applied here. Retries are up to the backend
// handlers and callers bound the wait with their context.
//
// # Adding Categories
//
// The default table serves host and IP network lookups through the
// resolver interface. Other categories are served by building a table
// with [route.NewTable], passing it with [WithTable] and registering a
// handler for each new target on the bus.
package dpdispatch
