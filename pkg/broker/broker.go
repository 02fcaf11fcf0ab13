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

// Package broker implements the client side of a single broker connection:
// one lazily-dialed TCP conn carrying framed, kmsg-encoded Kafka requests.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/novatechflow/kafclient/pkg/protocol"
)

// Config carries per-connection tuning for a broker handle.
type Config struct {
	// ClientID is sent in every request header.
	ClientID string
	// SocketTimeout bounds metadata and other general requests.
	SocketTimeout time.Duration
	// OffsetsChannelSocketTimeout bounds coordinator and offset requests.
	OffsetsChannelSocketTimeout time.Duration
	// ReceiveBufferBytes is applied to the TCP connection as a sizing hint.
	ReceiveBufferBytes int
}

// DefaultConfig returns the connection defaults.
func DefaultConfig() Config {
	return Config{
		ClientID:                    "kafclient",
		SocketTimeout:               30 * time.Second,
		OffsetsChannelSocketTimeout: 10 * time.Second,
		ReceiveBufferBytes:          64 * 1024,
	}
}

// CoordinatorLookupError reports a FindCoordinator response carrying a
// non-zero Kafka error code. Lookups failing this way are retryable: brokers
// answer COORDINATOR_NOT_AVAILABLE while the offsets topic is initializing.
type CoordinatorLookupError struct {
	Group   string
	Code    int16
	Message string
}

func (e *CoordinatorLookupError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("coordinator lookup for group %q failed: %s (error code %d)", e.Group, e.Message, e.Code)
	}
	return fmt.Sprintf("coordinator lookup for group %q failed with error code %d", e.Group, e.Code)
}

// Broker is a handle to one cluster node. The zero id -1 marks a seed handle
// whose real identity is unknown until metadata answers.
type Broker struct {
	id   int32
	host string
	port int32

	cfg       Config
	logger    *slog.Logger
	formatter *kmsg.RequestFormatter

	mu          sync.Mutex
	conn        net.Conn
	correlation int32
}

// New builds a broker handle for the given identity and address. The
// connection is dialed on first use.
func New(id int32, host string, port int32, cfg Config, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultConfig().ClientID
	}
	return &Broker{
		id:        id,
		host:      host,
		port:      port,
		cfg:       cfg,
		logger:    logger.With("node_id", id, "addr", net.JoinHostPort(host, fmt.Sprint(port))),
		formatter: kmsg.NewRequestFormatter(kmsg.FormatterClientID(cfg.ClientID)),
	}
}

// FromMetadata builds a broker handle from a metadata snapshot entry.
func FromMetadata(meta protocol.BrokerMetadata, cfg Config, logger *slog.Logger) *Broker {
	return New(meta.NodeID, meta.Host, meta.Port, cfg, logger)
}

// ID returns the broker's node id.
func (b *Broker) ID() int32 { return b.id }

// Host returns the broker's host.
func (b *Broker) Host() string { return b.host }

// Port returns the broker's port.
func (b *Broker) Port() int32 { return b.port }

// Addr returns the dialable host:port address.
func (b *Broker) Addr() string {
	return net.JoinHostPort(b.host, fmt.Sprint(b.port))
}

// RequestMetadata asks this broker for a full topology snapshot.
func (b *Broker) RequestMetadata(ctx context.Context) (*protocol.Snapshot, error) {
	req := kmsg.NewPtrMetadataRequest()
	req.Version = 1
	resp := kmsg.NewPtrMetadataResponse()
	resp.Version = 1
	if err := b.roundTrip(ctx, b.cfg.SocketTimeout, req, resp); err != nil {
		return nil, fmt.Errorf("metadata request to %s: %w", b.Addr(), err)
	}
	return protocol.SnapshotFromMetadata(resp), nil
}

// FindCoordinator asks this broker which node coordinates offsets for the
// given consumer group and returns the coordinator's node id.
func (b *Broker) FindCoordinator(ctx context.Context, group string) (int32, error) {
	req := kmsg.NewPtrFindCoordinatorRequest()
	req.Version = 1
	req.CoordinatorKey = group
	req.CoordinatorType = 0 // consumer group coordination
	resp := kmsg.NewPtrFindCoordinatorResponse()
	resp.Version = 1
	if err := b.roundTrip(ctx, b.cfg.OffsetsChannelSocketTimeout, req, resp); err != nil {
		return 0, fmt.Errorf("find coordinator request to %s: %w", b.Addr(), err)
	}
	if resp.ErrorCode != 0 {
		lookupErr := &CoordinatorLookupError{Group: group, Code: resp.ErrorCode}
		if resp.ErrorMessage != nil {
			lookupErr.Message = *resp.ErrorMessage
		}
		return 0, lookupErr
	}
	return resp.NodeID, nil
}

// Close releases the broker's connection, if any.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

// roundTrip serializes req, writes it as a frame, and decodes the framed
// response into resp. Requests on one broker are serialized; the protocol
// would allow pipelining but a metadata client has no need for it.
func (b *Broker) roundTrip(ctx context.Context, timeout time.Duration, req kmsg.Request, resp kmsg.Response) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := b.connectLocked(ctx)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		b.dropConnLocked()
		return fmt.Errorf("set deadline: %w", err)
	}

	b.correlation++
	correlation := b.correlation
	payload := b.formatter.AppendRequest(nil, req, correlation)
	if _, err := conn.Write(payload); err != nil {
		b.dropConnLocked()
		return fmt.Errorf("write %s request: %w", kmsg.NameForKey(req.Key()), err)
	}

	frame, err := protocol.ReadFrame(conn, protocol.MaxResponseBytes)
	if err != nil {
		b.dropConnLocked()
		return fmt.Errorf("read %s response: %w", kmsg.NameForKey(req.Key()), err)
	}
	gotCorrelation, body, err := protocol.SplitResponse(frame)
	if err != nil {
		b.dropConnLocked()
		return err
	}
	if gotCorrelation != correlation {
		b.dropConnLocked()
		return fmt.Errorf("correlation mismatch: sent %d, received %d", correlation, gotCorrelation)
	}
	if err := resp.ReadFrom(body); err != nil {
		b.dropConnLocked()
		return fmt.Errorf("decode %s response: %w", kmsg.NameForKey(req.Key()), err)
	}
	return nil
}

func (b *Broker) connectLocked(ctx context.Context) (net.Conn, error) {
	if b.conn != nil {
		return b.conn, nil
	}
	dialer := net.Dialer{Timeout: b.cfg.SocketTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", b.Addr())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", b.Addr(), err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok && b.cfg.ReceiveBufferBytes > 0 {
		if err := tcp.SetReadBuffer(b.cfg.ReceiveBufferBytes); err != nil {
			b.logger.Debug("set receive buffer failed", "bytes", b.cfg.ReceiveBufferBytes, "err", err)
		}
	}
	b.logger.Debug("connected")
	b.conn = conn
	return conn, nil
}

func (b *Broker) dropConnLocked() {
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}
