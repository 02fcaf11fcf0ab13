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

// Command topology connects to a Kafka cluster, prints the brokers and
// topics it reports, and optionally resolves a consumer group's offset
// coordinator. With KAFCLIENT_WATCH_INTERVAL_SEC set it keeps refreshing
// and can expose the client metrics over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novatechflow/kafclient/pkg/cluster"
)

func main() {
	seedHosts := strings.TrimSpace(os.Getenv("KAFCLIENT_SEED_HOSTS"))
	if seedHosts == "" {
		log.Fatalf("KAFCLIENT_SEED_HOSTS is required")
	}
	group := strings.TrimSpace(os.Getenv("KAFCLIENT_GROUP"))
	metricsAddr := strings.TrimSpace(os.Getenv("KAFCLIENT_METRICS_ADDR"))
	watchInterval := time.Duration(parseEnvInt("KAFCLIENT_WATCH_INTERVAL_SEC", 0)) * time.Second
	timeout := time.Duration(parseEnvInt("KAFCLIENT_TIMEOUT_SEC", 40)) * time.Second

	logger := newLogger()
	cfg := cluster.DefaultConfig(seedHosts)
	cfg.Logger = logger
	if !parseEnvBool("KAFCLIENT_EXCLUDE_INTERNAL_TOPICS", true) {
		cfg.ExcludeInternalTopics = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	c, err := cluster.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer c.Close()

	printTopology(c)

	if group != "" {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		coordinator, err := c.OffsetManager(ctx, group)
		cancel()
		if err != nil {
			log.Fatalf("offset manager for %q: %v", group, err)
		}
		fmt.Printf("group %s coordinator: broker %d (%s:%d)\n",
			group, coordinator.ID(), coordinator.Host(), coordinator.Port())
	}

	if watchInterval <= 0 {
		return
	}
	if metricsAddr != "" {
		startMetricsServer(metricsAddr, logger)
	}
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := c.Update(ctx)
		cancel()
		if err != nil {
			logger.Error("refresh failed", "err", err)
			continue
		}
		printTopology(c)
	}
}

func printTopology(c *cluster.Cluster) {
	brokers := c.Brokers()
	ids := make([]int32, 0, len(brokers))
	for id := range brokers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fmt.Printf("brokers (%d):\n", len(ids))
	for _, id := range ids {
		node := brokers[id]
		fmt.Printf("  %d\t%s:%d\n", id, node.Host(), node.Port())
	}

	topics := c.Topics()
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("topics (%d):\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s\t%d partitions\n", name, len(topics[name].Partitions()))
	}
}

func startMetricsServer(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("KAFCLIENT_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("component", "topology")
}

func parseEnvInt(name string, fallback int) int {
	if val := strings.TrimSpace(os.Getenv(name)); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseEnvBool(name string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(name)); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
