/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package auth

import "github.com/tomoncle/vbforumquery/types"

// Tier is the authorization level a route demands.
type Tier int

const (
	// TierQuery admits regular and admin keys.
	TierQuery Tier = iota
	// TierAdmin admits admin keys only.
	TierAdmin
)

var _ types.BaseEnum = TierQuery

// Tiers lists every Tier.
func Tiers() []Tier {
	return []Tier{TierQuery, TierAdmin}
}

func (t Tier) IsValid() bool {
	return t == TierQuery || t == TierAdmin
}

func (t Tier) Number() int {
	if !t.IsValid() {
		return types.IllegalValue
	}
	return int(t)
}

func (t Tier) String() string {
	return t.Name()
}

func (t Tier) Name() string {
	switch t {
	case TierQuery:
		return "query"
	case TierAdmin:
		return "admin"
	default:
		return types.IllegalName
	}
}

func (t Tier) Desc() string {
	switch t {
	case TierQuery:
		return "search endpoints"
	case TierAdmin:
		return "raw statements, introspection, health and metrics"
	default:
		return types.IllegalDesc
	}
}

// Decision is the outcome of checking a key against a tier.
type Decision int

const (
	Allowed Decision = iota
	Missing
	Invalid
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Missing:
		return "missing"
	case Invalid:
		return "invalid"
	default:
		return types.IllegalName
	}
}

// Err converts a refusal into the error returned to the caller. It returns
// nil for Allowed.
func (d Decision) Err() *types.Error {
	switch d {
	case Allowed:
		return nil
	case Missing:
		return types.NewError(types.ErrMissingCredential, MsgKeyRequired)
	default:
		return types.NewError(types.ErrInvalidCredential, MsgKeyInvalid)
	}
}
