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
	"math"
	"sort"
	"time"
)

// PowerBackoff raises the previous wait, in seconds, to its own power:
// 2s, 4s, 256s, ... The progression is deliberately steep; under the
// default three-attempt cap only the 2s and 4s waits are reachable.
func PowerBackoff(prev time.Duration) time.Duration {
	s := prev.Seconds()
	return time.Duration(math.Pow(s, s) * float64(time.Second))
}

// OffsetManager returns the broker coordinating committed offsets for the
// given consumer group. Any broker can answer the query, so each attempt
// targets a randomly picked known broker; failed attempts are retried with
// a growing backoff up to the configured attempt cap.
func (c *Cluster) OffsetManager(ctx context.Context, group string) (Node, error) {
	wait := c.cfg.CoordinatorRetryBackoff
	maxAttempts := c.cfg.CoordinatorMaxAttempts

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		node, ok := c.pickBroker()
		if !ok {
			return nil, fmt.Errorf("%w for group %q: no brokers known", ErrCoordinatorDiscoveryFailed, group)
		}

		id, err := node.FindCoordinator(ctx, group)
		if err != nil {
			lastErr = err
			coordinatorRequests.WithLabelValues("error").Inc()
			c.logger.Debug("coordinator query failed",
				"group", group, "node_id", node.ID(), "attempt", attempt, "backoff", wait, "err", err)
			if attempt < maxAttempts {
				c.sleep(wait)
				wait = c.backoff(wait)
			}
			continue
		}
		coordinatorRequests.WithLabelValues("ok").Inc()

		coordinator, ok := c.brokerByID(id)
		if !ok {
			c.logger.Error("coordinator not in broker map", "group", group, "coordinator_id", id)
			return nil, fmt.Errorf("%w: group %q coordinator id %d", ErrCoordinatorUnknown, group, id)
		}
		return coordinator, nil
	}

	c.logger.Error("coordinator discovery exhausted",
		"group", group, "attempts", maxAttempts, "err", lastErr)
	return nil, fmt.Errorf("%w for group %q after %d attempts: %w",
		ErrCoordinatorDiscoveryFailed, group, maxAttempts, lastErr)
}

// pickBroker selects one known broker via the configured picker. Ids are
// sorted first so a seeded picker is deterministic.
func (c *Cluster) pickBroker() (Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.brokers) == 0 {
		return nil, false
	}
	ids := make([]int32, 0, len(c.brokers))
	for id := range c.brokers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	idx := c.pick(len(ids))
	if idx < 0 || idx >= len(ids) {
		idx = 0
	}
	return c.brokers[ids[idx]], true
}
