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

// Package route maps request categories to the backend targets that
// service them.
//
// A [Table] is constructed once and is read-only afterwards, so it may be
// shared by any number of concurrent requests. Supporting a new category
// means adding a [Row] for it and registering a handler for the row's
// target on the bus; the table itself needs no other change.
package route

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidCategory is returned by [Table.Route] for categories the
// table does not support.
var ErrInvalidCategory = errors.New("invalid request category")

// Category is the kind of lookup being requested. The numeric values
// are part of the inbound channel contract.
type Category uint32

const (
	User         Category = 0x0001
	Group        Category = 0x0002
	Initgroups   Category = 0x0003
	Netgroup     Category = 0x0004
	Services     Category = 0x0005
	SudoFull     Category = 0x0006
	SudoRules    Category = 0x0007
	Host         Category = 0x0008
	IPNetwork    Category = 0x0009
	SubIDRanges  Category = 0x0010
	BySecID      Category = 0x0011
	UserAndGroup Category = 0x0012
	ByUUID       Category = 0x0013
	ByCert       Category = 0x0014
)

func (c Category) String() string {
	switch c {
	case User:
		return "user"
	case Group:
		return "group"
	case Initgroups:
		return "initgroups"
	case Netgroup:
		return "netgroup"
	case Services:
		return "services"
	case SudoFull:
		return "sudo-full"
	case SudoRules:
		return "sudo-rules"
	case Host:
		return "host"
	case IPNetwork:
		return "ip-network"
	case SubIDRanges:
		return "subid-ranges"
	case BySecID:
		return "by-secid"
	case UserAndGroup:
		return "user-and-group"
	case ByUUID:
		return "by-uuid"
	case ByCert:
		return "by-cert"
	default:
		return fmt.Sprintf("Category(%#04x)", uint32(c))
	}
}

// Method identifies a handler method of a backend interface. Its value
// is only meaningful to the bus.
type Method int

const (
	AccountHandler Method = iota + 1
	HostsHandler
	NetworksHandler
)

func (m Method) String() string {
	switch m {
	case AccountHandler:
		return "AccountHandler"
	case HostsHandler:
		return "HostsHandler"
	case NetworksHandler:
		return "NetworksHandler"
	default:
		return fmt.Sprintf("Method(%d)", m)
	}
}

// Target is an interface/method pair understood by the bus.
type Target struct {
	Interface string
	Method    Method
}

func (t Target) String() string {
	return t.Interface + "." + t.Method.String()
}

// ResolverInterface is the name of the backend interface that resolves
// hosts and networks.
const ResolverInterface = "Resolver"

// Row is a single entry of a [Table].
type Row struct {
	Category Category
	Target   Target
}

// Table is an immutable mapping from category to target.
type Table struct {
	targets map[Category]Target
}

//nolint:gochecknoglobals
var defaultTable = NewTable(
	Row{Category: Host, Target: Target{Interface: ResolverInterface, Method: HostsHandler}},
	Row{Category: IPNetwork, Target: Target{Interface: ResolverInterface, Method: NetworksHandler}},
)

// DefaultTable returns the table of categories served by the resolver
// backend.
func DefaultTable() *Table {
	return defaultTable
}

// NewTable creates a table from the given rows. If a category appears
// in more than one row, the last row wins.
func NewTable(rows ...Row) *Table {
	targets := make(map[Category]Target, len(rows))
	for _, row := range rows {
		targets[row.Category] = row.Target
	}
	return &Table{targets: targets}
}

// Route returns the target for the given category. For unsupported
// categories, the returned error wraps [ErrInvalidCategory].
func (t *Table) Route(category Category) (Target, error) {
	target, ok := t.targets[category]
	if !ok {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidCategory, category)
	}
	return target, nil
}

// Categories returns the supported categories in ascending order.
func (t *Table) Categories() []Category {
	categories := make([]Category, 0, len(t.targets))
	for category := range t.targets {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i] < categories[j]
	})
	return categories
}
