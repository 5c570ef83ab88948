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

// Package filter turns the optional name and address parameters of a
// lookup request into a single discriminated [Filter] value.
package filter

import "fmt"

// Kind identifies how a lookup selects its entries.
type Kind int

const (
	// Enumerate selects every entry. A Filter of this kind has no value.
	Enumerate Kind = iota
	// ByName selects entries by their name.
	ByName
	// ByAddress selects entries by their address.
	ByAddress
)

func (k Kind) String() string {
	switch k {
	case Enumerate:
		return "enumerate"
	case ByName:
		return "name"
	case ByAddress:
		return "address"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Filter is the normalized selector of a lookup request. Value is
// non-empty exactly when Kind is ByName or ByAddress.
type Filter struct {
	Kind  Kind
	Value string
}

// Name returns a filter that selects entries by name.
func Name(name string) Filter {
	return Filter{Kind: ByName, Value: name}
}

// Address returns a filter that selects entries by address.
func Address(address string) Filter {
	return Filter{Kind: ByAddress, Value: address}
}

// Normalize builds a Filter from the caller-supplied parameters. A
// non-empty name always wins over the address; when neither is given,
// the result enumerates all entries.
func Normalize(name, address *string) Filter {
	switch {
	case name != nil && *name != "":
		return Name(*name)
	case address != nil && *address != "":
		return Address(*address)
	default:
		return Filter{Kind: Enumerate}
	}
}

func (f Filter) String() string {
	if f.Kind == Enumerate {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s=%q", f.Kind, f.Value)
}
