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

// Package cluster maintains a client-side, refreshable view of a Kafka
// cluster's topology: known brokers, known topics, and the coordinator
// broker for each consumer group.
package cluster

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/novatechflow/kafclient/pkg/broker"
	"github.com/novatechflow/kafclient/pkg/protocol"
)

// Node is one cluster broker as consumed by the topology view.
type Node interface {
	ID() int32
	Host() string
	Port() int32
	// RequestMetadata fetches a full topology snapshot from this broker.
	RequestMetadata(ctx context.Context) (*protocol.Snapshot, error)
	// FindCoordinator returns the node id coordinating offsets for group.
	FindCoordinator(ctx context.Context, group string) (int32, error)
	Close() error
}

// NodeFactory constructs a broker handle from snapshot metadata. Seed
// handles are built with node id -1 before their identity is known.
type NodeFactory func(meta protocol.BrokerMetadata) Node

// PickFunc selects an index in [0, n) from n known brokers. n is always
// positive. Supplying a seeded picker makes coordinator target selection
// deterministic.
type PickFunc func(n int) int

// BackoffFunc returns the wait that follows a given wait between
// coordinator query attempts.
type BackoffFunc func(prev time.Duration) time.Duration

const seedNodeID = -1

// Config carries the cluster's immutable construction options. Use
// DefaultConfig to get the documented defaults; a zero Config is invalid.
type Config struct {
	// SeedHosts is a required comma-separated host:port list used while no
	// brokers are known yet.
	SeedHosts string
	// SocketTimeout bounds each general broker RPC. Default 30s.
	SocketTimeout time.Duration
	// OffsetsChannelSocketTimeout bounds each coordinator RPC. Default 10s.
	OffsetsChannelSocketTimeout time.Duration
	// SocketReceiveBufferBytes sizes broker connections. Default 65536.
	SocketReceiveBufferBytes int
	// ExcludeInternalTopics drops topics with the reserved "__" name prefix
	// from the topic map. Default true.
	ExcludeInternalTopics bool
	// CoordinatorMaxAttempts caps coordinator query attempts. Default 3.
	CoordinatorMaxAttempts int
	// CoordinatorRetryBackoff is the first wait between attempts. Default 2s.
	CoordinatorRetryBackoff time.Duration
	// Backoff grows the wait between attempts. Default PowerBackoff.
	Backoff BackoffFunc
	// Pick selects the broker queried for a coordinator. Default math/rand.
	Pick PickFunc
	// Logger receives discovery and failure events. Default slog.Default().
	Logger *slog.Logger
	// Factory builds broker handles. Default: real TCP handles from
	// pkg/broker using the timeouts above.
	Factory NodeFactory
}

// DefaultConfig returns a Config with the standard defaults for the given
// seed host list.
func DefaultConfig(seedHosts string) Config {
	return Config{
		SeedHosts:                   seedHosts,
		SocketTimeout:               30 * time.Second,
		OffsetsChannelSocketTimeout: 10 * time.Second,
		SocketReceiveBufferBytes:    64 * 1024,
		ExcludeInternalTopics:       true,
		CoordinatorMaxAttempts:      3,
		CoordinatorRetryBackoff:     2 * time.Second,
	}
}

// Cluster owns the broker and topic maps and refreshes them from broker
// metadata. All map access is guarded internally; accessors return copies,
// never the live maps.
type Cluster struct {
	cfg     Config
	logger  *slog.Logger
	factory NodeFactory
	pick    PickFunc
	backoff BackoffFunc
	sleep   func(time.Duration)

	mu      sync.RWMutex
	brokers map[int32]Node
	topics  map[string]*Topic
}

// New builds a Cluster and synchronously runs one full refresh, so the view
// is populated (or construction fails) before it is usable.
func New(ctx context.Context, cfg Config) (*Cluster, error) {
	c, err := newCluster(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Update(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newCluster(cfg Config) (*Cluster, error) {
	if cfg.SeedHosts == "" {
		return nil, errors.New("cluster config requires seed hosts")
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = 30 * time.Second
	}
	if cfg.OffsetsChannelSocketTimeout <= 0 {
		cfg.OffsetsChannelSocketTimeout = 10 * time.Second
	}
	if cfg.SocketReceiveBufferBytes <= 0 {
		cfg.SocketReceiveBufferBytes = 64 * 1024
	}
	if cfg.CoordinatorMaxAttempts <= 0 {
		cfg.CoordinatorMaxAttempts = 3
	}
	if cfg.CoordinatorRetryBackoff <= 0 {
		cfg.CoordinatorRetryBackoff = 2 * time.Second
	}

	c := &Cluster{
		cfg:     cfg,
		logger:  cfg.Logger,
		factory: cfg.Factory,
		pick:    cfg.Pick,
		backoff: cfg.Backoff,
		sleep:   time.Sleep,
		brokers: make(map[int32]Node),
		topics:  make(map[string]*Topic),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.pick == nil {
		c.pick = rand.Intn
	}
	if c.backoff == nil {
		c.backoff = PowerBackoff
	}
	if c.factory == nil {
		brokerCfg := broker.Config{
			SocketTimeout:               cfg.SocketTimeout,
			OffsetsChannelSocketTimeout: cfg.OffsetsChannelSocketTimeout,
			ReceiveBufferBytes:          cfg.SocketReceiveBufferBytes,
		}
		logger := c.logger
		c.factory = func(meta protocol.BrokerMetadata) Node {
			return broker.FromMetadata(meta, brokerCfg, logger)
		}
	}
	return c, nil
}

// Brokers returns a copy of the broker map keyed by node id. The handles
// themselves are shared.
func (c *Cluster) Brokers() map[int32]Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int32]Node, len(c.brokers))
	for id, node := range c.brokers {
		out[id] = node
	}
	return out
}

// Topics returns a copy of the topic map keyed by name.
func (c *Cluster) Topics() map[string]*Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*Topic, len(c.topics))
	for name, topic := range c.topics {
		out[name] = topic
	}
	return out
}

// Update runs one full refresh cycle: fetch a snapshot, reconcile brokers,
// then reconcile topics. Broker reconciliation always completes before topic
// reconciliation begins; the two phases are not atomic with respect to
// readers, so a reader between phases can observe fresh brokers with stale
// topics. There is no rollback if topic reconciliation never runs.
func (c *Cluster) Update(ctx context.Context) error {
	snap, err := c.fetchMetadata(ctx)
	if err != nil {
		refreshTotal.WithLabelValues("unreachable").Inc()
		c.logger.Error("metadata refresh failed", "err", err)
		return err
	}
	if err := c.reconcileBrokers(snap.Brokers); err != nil {
		refreshTotal.WithLabelValues("rejected").Inc()
		return err
	}
	c.reconcileTopics(snap.Topics)
	refreshTotal.WithLabelValues("ok").Inc()
	return nil
}

// Close releases every broker handle. The cluster must not be used after
// Close.
func (c *Cluster) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for id, node := range c.brokers {
		if err := node.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.brokers, id)
	}
	clear(c.topics)
	return firstErr
}

func (c *Cluster) brokerByID(id int32) (Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	node, ok := c.brokers[id]
	return node, ok
}
