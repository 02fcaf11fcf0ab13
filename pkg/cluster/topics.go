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
	"strings"

	"github.com/novatechflow/kafclient/pkg/protocol"
)

// internalTopicPrefix is the reserved name prefix for cluster-internal
// bookkeeping topics such as __consumer_offsets.
const internalTopicPrefix = "__"

// reconcileTopics mutates the topic map in place to match a fresh snapshot.
// Excluded names are skipped at insertion time only: a name that stops
// matching the exclusion policy in a later snapshot is added like any other.
func (c *Cluster) reconcileTopics(fresh map[string]protocol.TopicMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name := range c.topics {
		if _, ok := fresh[name]; ok {
			continue
		}
		c.logger.Info("removing topic", "topic", name)
		delete(c.topics, name)
		topicsRemoved.Inc()
	}

	for name, meta := range fresh {
		if c.excludeTopic(name) {
			continue
		}
		if topic, ok := c.topics[name]; ok {
			topic.Update(meta)
			continue
		}
		c.logger.Info("discovered topic", "topic", name, "partitions", len(meta.Partitions))
		c.topics[name] = newTopic(c, meta)
		topicsDiscovered.Inc()
	}

	topicsLive.Set(float64(len(c.topics)))
}

func (c *Cluster) excludeTopic(name string) bool {
	if !c.cfg.ExcludeInternalTopics {
		return false
	}
	return strings.HasPrefix(name, internalTopicPrefix)
}
