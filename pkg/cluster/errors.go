// Copyright 2026 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cluster

import "errors"

var (
	// ErrClusterUnreachable indicates no candidate broker answered a
	// metadata request.
	ErrClusterUnreachable = errors.New("unable to reach any broker for metadata")
	// ErrBrokerAddressChanged indicates a known broker id reappeared with a
	// different host or port. Reconnecting under a stable identity is not
	// supported; the entry is left untouched.
	ErrBrokerAddressChanged = errors.New("broker address changed under a stable id")
	// ErrCoordinatorDiscoveryFailed indicates every coordinator query
	// attempt was exhausted.
	ErrCoordinatorDiscoveryFailed = errors.New("coordinator discovery failed")
	// ErrCoordinatorUnknown indicates a coordinator id was returned that is
	// not present in the local broker map. No implicit metadata refresh is
	// attempted to close the gap.
	ErrCoordinatorUnknown = errors.New("coordinator is not a known broker")
)
