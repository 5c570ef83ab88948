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

package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	t.Parallel()

	target, err := DefaultTable().Route(Host)
	require.NoError(t, err)
	assert.Equal(t, Target{Interface: "Resolver", Method: HostsHandler}, target)
	assert.Equal(t, "Resolver.HostsHandler", target.String())

	target, err = DefaultTable().Route(IPNetwork)
	require.NoError(t, err)
	assert.Equal(t, Target{Interface: "Resolver", Method: NetworksHandler}, target)

	assert.Equal(t, []Category{Host, IPNetwork}, DefaultTable().Categories())
}

func TestRouteUnsupported(t *testing.T) {
	t.Parallel()

	unsupported := []Category{User, Group, Initgroups, Netgroup, Services, SudoFull,
		SudoRules, SubIDRanges, BySecID, UserAndGroup, ByUUID, ByCert, Category(0), Category(0xffff)}
	for _, category := range unsupported {
		target, err := DefaultTable().Route(category)
		require.ErrorIs(t, err, ErrInvalidCategory, category.String())
		assert.Zero(t, target)
	}
}

func TestNewTable(t *testing.T) {
	t.Parallel()

	accounts := Target{Interface: "Account", Method: AccountHandler}
	table := NewTable(
		Row{Category: Group, Target: Target{Interface: "Stale", Method: AccountHandler}},
		Row{Category: User, Target: accounts},
		Row{Category: Group, Target: accounts},
	)
	assert.Equal(t, []Category{User, Group}, table.Categories())

	target, err := table.Route(Group)
	require.NoError(t, err)
	assert.Equal(t, accounts, target)

	_, err = table.Route(Host)
	require.ErrorIs(t, err, ErrInvalidCategory)
	assert.EqualError(t, err, "invalid request category: host")
}

func TestStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Category(0x0042)", Category(0x42).String())
	assert.Equal(t, "Method(99)", Method(99).String())
	assert.Equal(t, "NetworksHandler", NetworksHandler.String())
}
