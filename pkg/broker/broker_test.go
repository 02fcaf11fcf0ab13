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

package broker

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/novatechflow/kafclient/pkg/protocol"
)

const (
	apiKeyMetadata        = 3
	apiKeyFindCoordinator = 10
)

// startFakeBroker runs a TCP listener that reads framed requests and answers
// each with the payload produced by respond. respond receives the request's
// api key and correlation id and returns the full response payload
// (correlation header included).
func startFakeBroker(t *testing.T, respond func(apiKey int16, correlation int32) []byte) (string, int32) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				for {
					frame, err := protocol.ReadFrame(conn, protocol.MaxResponseBytes)
					if err != nil {
						return
					}
					if len(frame) < 8 {
						return
					}
					apiKey := int16(binary.BigEndian.Uint16(frame[:2]))
					correlation := int32(binary.BigEndian.Uint32(frame[4:8]))
					payload := respond(apiKey, correlation)
					if payload == nil {
						return
					}
					if err := protocol.WriteFrame(conn, payload); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", int32(addr.Port)
}

func respondWith(correlation int32, resp kmsg.Response) []byte {
	payload := binary.BigEndian.AppendUint32(nil, uint32(correlation))
	return resp.AppendTo(payload)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SocketTimeout = 2 * time.Second
	cfg.OffsetsChannelSocketTimeout = 2 * time.Second
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestMetadata(t *testing.T) {
	host, port := startFakeBroker(t, func(apiKey int16, correlation int32) []byte {
		if apiKey != apiKeyMetadata {
			t.Errorf("unexpected api key %d", apiKey)
			return nil
		}
		resp := kmsg.NewPtrMetadataResponse()
		resp.Version = 1
		resp.ControllerID = 1
		resp.Brokers = []kmsg.MetadataResponseBroker{
			{NodeID: 1, Host: "10.0.0.1", Port: 9092},
		}
		resp.Topics = []kmsg.MetadataResponseTopic{
			{
				Topic: kmsg.StringPtr("orders"),
				Partitions: []kmsg.MetadataResponseTopicPartition{
					{Partition: 0, Leader: 1, Replicas: []int32{1}, ISR: []int32{1}},
				},
			},
		}
		return respondWith(correlation, resp)
	})

	b := New(-1, host, port, testConfig(), discardLogger())
	defer b.Close()

	snap, err := b.RequestMetadata(context.Background())
	if err != nil {
		t.Fatalf("RequestMetadata: %v", err)
	}
	if len(snap.Brokers) != 1 || snap.Brokers[1].Host != "10.0.0.1" {
		t.Fatalf("unexpected brokers: %#v", snap.Brokers)
	}
	if len(snap.Topics) != 1 || len(snap.Topics["orders"].Partitions) != 1 {
		t.Fatalf("unexpected topics: %#v", snap.Topics)
	}
}

func TestRequestMetadataReusesConnection(t *testing.T) {
	correlations := make(chan int32, 2)
	host, port := startFakeBroker(t, func(_ int16, correlation int32) []byte {
		correlations <- correlation
		resp := kmsg.NewPtrMetadataResponse()
		resp.Version = 1
		return respondWith(correlation, resp)
	})

	b := New(1, host, port, testConfig(), discardLogger())
	defer b.Close()

	for i := 0; i < 2; i++ {
		if _, err := b.RequestMetadata(context.Background()); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	first, second := <-correlations, <-correlations
	if second != first+1 {
		t.Fatalf("correlation ids not sequential on one connection: %d then %d", first, second)
	}
}

func TestFindCoordinator(t *testing.T) {
	host, port := startFakeBroker(t, func(apiKey int16, correlation int32) []byte {
		if apiKey != apiKeyFindCoordinator {
			t.Errorf("unexpected api key %d", apiKey)
			return nil
		}
		resp := kmsg.NewPtrFindCoordinatorResponse()
		resp.Version = 1
		resp.NodeID = 2
		resp.Host = "10.0.0.2"
		resp.Port = 9092
		return respondWith(correlation, resp)
	})

	b := New(1, host, port, testConfig(), discardLogger())
	defer b.Close()

	id, err := b.FindCoordinator(context.Background(), "g1")
	if err != nil {
		t.Fatalf("FindCoordinator: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected coordinator 2, got %d", id)
	}
}

func TestFindCoordinatorErrorCode(t *testing.T) {
	host, port := startFakeBroker(t, func(_ int16, correlation int32) []byte {
		resp := kmsg.NewPtrFindCoordinatorResponse()
		resp.Version = 1
		resp.ErrorCode = 15 // COORDINATOR_NOT_AVAILABLE
		resp.ErrorMessage = kmsg.StringPtr("the coordinator is not available")
		return respondWith(correlation, resp)
	})

	b := New(1, host, port, testConfig(), discardLogger())
	defer b.Close()

	_, err := b.FindCoordinator(context.Background(), "g1")
	var lookupErr *CoordinatorLookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected CoordinatorLookupError, got %v", err)
	}
	if lookupErr.Code != 15 || lookupErr.Group != "g1" {
		t.Fatalf("unexpected lookup error: %#v", lookupErr)
	}
}

func TestCorrelationMismatchDropsConnection(t *testing.T) {
	host, port := startFakeBroker(t, func(_ int16, correlation int32) []byte {
		resp := kmsg.NewPtrMetadataResponse()
		resp.Version = 1
		return respondWith(correlation+1, resp)
	})

	b := New(1, host, port, testConfig(), discardLogger())
	defer b.Close()

	if _, err := b.RequestMetadata(context.Background()); err == nil {
		t.Fatalf("expected correlation mismatch error")
	}
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn != nil {
		t.Fatalf("connection not dropped after correlation mismatch")
	}
}

func TestRequestMetadataDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	b := New(-1, "127.0.0.1", int32(addr.Port), testConfig(), discardLogger())
	if _, err := b.RequestMetadata(context.Background()); err == nil {
		t.Fatalf("expected dial error")
	}
}
