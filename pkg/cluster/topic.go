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
	"sync"

	"github.com/novatechflow/kafclient/pkg/protocol"
)

// Topic is the cluster's handle for one topic. Partition state is
// reconciled in place on every metadata refresh.
type Topic struct {
	cluster *Cluster
	name    string

	mu         sync.RWMutex
	partitions map[int32]protocol.PartitionMetadata
}

func newTopic(c *Cluster, meta protocol.TopicMetadata) *Topic {
	t := &Topic{
		cluster:    c,
		name:       meta.Name,
		partitions: make(map[int32]protocol.PartitionMetadata, len(meta.Partitions)),
	}
	for id, p := range meta.Partitions {
		t.partitions[id] = p
	}
	return t
}

// Name returns the topic name.
func (t *Topic) Name() string { return t.name }

// Partitions returns a copy of the partition map keyed by partition id.
func (t *Topic) Partitions() map[int32]protocol.PartitionMetadata {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[int32]protocol.PartitionMetadata, len(t.partitions))
	for id, p := range t.partitions {
		out[id] = p
	}
	return out
}

// Update reconciles partition state against fresh metadata: partitions
// absent from the snapshot are dropped, the rest are replaced in place.
func (t *Topic) Update(meta protocol.TopicMetadata) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.partitions {
		if _, ok := meta.Partitions[id]; !ok {
			delete(t.partitions, id)
		}
	}
	for id, p := range meta.Partitions {
		t.partitions[id] = p
	}
}

// Leader resolves the broker handle currently leading the given partition.
func (t *Topic) Leader(partition int32) (Node, error) {
	t.mu.RLock()
	p, ok := t.partitions[partition]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("topic %q has no partition %d", t.name, partition)
	}
	if p.Leader < 0 {
		return nil, fmt.Errorf("topic %q partition %d has no leader", t.name, partition)
	}
	node, ok := t.cluster.brokerByID(p.Leader)
	if !ok {
		return nil, fmt.Errorf("topic %q partition %d leader %d is not a known broker", t.name, partition, p.Leader)
	}
	return node, nil
}
