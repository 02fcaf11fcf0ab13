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

package protocol

import (
	"net"
	"strconv"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// BrokerMetadata describes one broker as reported by a metadata response.
type BrokerMetadata struct {
	NodeID int32
	Host   string
	Port   int32
	Rack   *string
}

// Addr returns the broker's dialable host:port address.
func (m BrokerMetadata) Addr() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(int(m.Port)))
}

// PartitionMetadata describes one partition of a topic.
type PartitionMetadata struct {
	ID       int32
	Leader   int32
	Replicas []int32
	ISR      []int32
}

// TopicMetadata describes one topic and its partitions.
type TopicMetadata struct {
	Name       string
	IsInternal bool
	Partitions map[int32]PartitionMetadata
}

// Snapshot is the cluster topology as reported by a single metadata response.
// Brokers are keyed by node id, topics by name.
type Snapshot struct {
	ControllerID int32
	Brokers      map[int32]BrokerMetadata
	Topics       map[string]TopicMetadata
}

// SnapshotFromMetadata converts a decoded Kafka metadata response into a
// Snapshot. Topics without a name (possible on errored entries in newer
// protocol versions) are skipped.
func SnapshotFromMetadata(resp *kmsg.MetadataResponse) *Snapshot {
	snap := &Snapshot{
		ControllerID: resp.ControllerID,
		Brokers:      make(map[int32]BrokerMetadata, len(resp.Brokers)),
		Topics:       make(map[string]TopicMetadata, len(resp.Topics)),
	}
	for _, b := range resp.Brokers {
		snap.Brokers[b.NodeID] = BrokerMetadata{
			NodeID: b.NodeID,
			Host:   b.Host,
			Port:   b.Port,
			Rack:   b.Rack,
		}
	}
	for _, t := range resp.Topics {
		if t.Topic == nil {
			continue
		}
		topic := TopicMetadata{
			Name:       *t.Topic,
			IsInternal: t.IsInternal,
			Partitions: make(map[int32]PartitionMetadata, len(t.Partitions)),
		}
		for _, p := range t.Partitions {
			topic.Partitions[p.Partition] = PartitionMetadata{
				ID:       p.Partition,
				Leader:   p.Leader,
				Replicas: append([]int32(nil), p.Replicas...),
				ISR:      append([]int32(nil), p.ISR...),
			}
		}
		snap.Topics[topic.Name] = topic
	}
	return snap
}
