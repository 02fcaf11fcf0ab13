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
	"fmt"

	"github.com/novatechflow/kafclient/pkg/protocol"
)

// reconcileBrokers mutates the broker map in place to match a fresh
// snapshot: ids absent from the snapshot are evicted and their handles
// closed, new ids get handles from the factory, and a known id whose
// address changed is rejected without touching its entry.
func (c *Cluster) reconcileBrokers(fresh map[int32]protocol.BrokerMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, node := range c.brokers {
		if _, ok := fresh[id]; ok {
			continue
		}
		c.logger.Info("removing broker", "node_id", id, "host", node.Host(), "port", node.Port())
		if err := node.Close(); err != nil {
			c.logger.Warn("closing removed broker", "node_id", id, "err", err)
		}
		delete(c.brokers, id)
		brokersRemoved.Inc()
	}

	for id, meta := range fresh {
		node, ok := c.brokers[id]
		if !ok {
			c.logger.Info("discovered broker", "node_id", id, "host", meta.Host, "port", meta.Port)
			c.brokers[id] = c.factory(meta)
			brokersDiscovered.Inc()
			continue
		}
		if node.Host() == meta.Host && node.Port() == meta.Port {
			continue
		}
		c.logger.Error("broker address changed",
			"node_id", id,
			"old_host", node.Host(), "old_port", node.Port(),
			"new_host", meta.Host, "new_port", meta.Port)
		return fmt.Errorf("%w: broker %d moved from %s:%d to %s:%d",
			ErrBrokerAddressChanged, id, node.Host(), node.Port(), meta.Host, meta.Port)
	}

	brokersLive.Set(float64(len(c.brokers)))
	return nil
}
