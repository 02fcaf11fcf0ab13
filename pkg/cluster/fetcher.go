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

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/novatechflow/kafclient/pkg/protocol"
)

// fetchMetadata obtains a fresh topology snapshot. Candidates are the known
// brokers when any exist, otherwise temporary handles built from the seed
// list. Candidates are tried in order until one answers; only after every
// candidate has failed does the fetch surface ErrClusterUnreachable.
func (c *Cluster) fetchMetadata(ctx context.Context) (*protocol.Snapshot, error) {
	candidates := c.knownBrokers()
	if len(candidates) == 0 {
		seeds, err := parseSeedHosts(c.cfg.SeedHosts)
		if err != nil {
			return nil, err
		}
		for _, meta := range seeds {
			node := c.factory(meta)
			// Seed handles live only for this fetch.
			defer node.Close()
			candidates = append(candidates, node)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no seed hosts configured", ErrClusterUnreachable)
	}

	var lastErr error
	for _, node := range candidates {
		snap, err := node.RequestMetadata(ctx)
		if err != nil {
			c.logger.Warn("metadata request failed",
				"node_id", node.ID(),
				"host", node.Host(),
				"port", node.Port(),
				"err", err)
			lastErr = err
			continue
		}
		return snap, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrClusterUnreachable, lastErr)
}

// knownBrokers returns the current broker handles sorted by id.
func (c *Cluster) knownBrokers() []Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nodes := make([]Node, 0, len(c.brokers))
	for _, node := range c.brokers {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	return nodes
}

// parseSeedHosts splits a comma-separated host:port list into seed broker
// metadata with the sentinel node id.
func parseSeedHosts(hosts string) ([]protocol.BrokerMetadata, error) {
	var seeds []protocol.BrokerMetadata
	for _, entry := range strings.Split(hosts, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		host, portStr, err := net.SplitHostPort(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid seed host %q: %w", entry, err)
		}
		port, err := strconv.ParseInt(portStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid seed port in %q: %w", entry, err)
		}
		seeds = append(seeds, protocol.BrokerMetadata{
			NodeID: seedNodeID,
			Host:   host,
			Port:   int32(port),
		})
	}
	return seeds, nil
}
