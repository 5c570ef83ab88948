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

package dpdispatch_test

import (
	"context"
	"fmt"

	"github.com/bufbuild/dpdispatch"
	"github.com/bufbuild/dpdispatch/bus"
	"github.com/bufbuild/dpdispatch/filter"
	"github.com/bufbuild/dpdispatch/reply"
	"github.com/bufbuild/dpdispatch/route"
	"github.com/bufbuild/dpdispatch/task"
)

func Example() {
	hosts := map[string]bool{"host1": true}

	local := bus.NewLocal()
	defer local.Close()
	local.Register(
		route.Target{Interface: route.ResolverInterface, Method: route.HostsHandler},
		bus.HandlerFunc(func(_ context.Context, call *bus.Call) (any, error) {
			data, ok := call.Data.(*task.ResolverData)
			if !ok {
				return nil, fmt.Errorf("unexpected payload %T", call.Data)
			}
			if data.Filter.Kind == filter.ByName && hosts[data.Filter.Value] {
				return reply.OK(), nil
			}
			return reply.New(2, "host not found"), nil
		}),
	)

	dispatcher, err := dpdispatch.NewDispatcher(local)
	if err != nil {
		panic(err)
	}
	for _, name := range []string{"host1", "host2"} {
		dpError, code, message := dispatcher.Handle(context.Background(), dpdispatch.Request{
			Category: route.Host,
			Name:     &name,
		})
		fmt.Println(name, dpError, code, message)
	}
	dpError, code, message := dispatcher.Handle(context.Background(), dpdispatch.Request{Category: route.Group})
	fmt.Println("group", dpError, code, message)
	// Output:
	// host1 0 0 Success
	// host2 3 2 host not found
	// group 3 22 invalid request category: group
}
