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

import "github.com/prometheus/client_golang/prometheus"

var (
	refreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kafclient_metadata_refresh_total",
		Help: "Count of metadata refresh cycles labeled by result.",
	}, []string{"result"})
	brokersLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kafclient_brokers",
		Help: "Number of brokers currently in the local broker map.",
	})
	topicsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kafclient_topics",
		Help: "Number of topics currently in the local topic map.",
	})
	brokersDiscovered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafclient_brokers_discovered_total",
		Help: "Count of brokers added to the local broker map.",
	})
	brokersRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafclient_brokers_removed_total",
		Help: "Count of brokers evicted from the local broker map.",
	})
	topicsDiscovered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafclient_topics_discovered_total",
		Help: "Count of topics added to the local topic map.",
	})
	topicsRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafclient_topics_removed_total",
		Help: "Count of topics evicted from the local topic map.",
	})
	coordinatorRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kafclient_coordinator_requests_total",
		Help: "Count of coordinator discovery queries labeled by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		refreshTotal,
		brokersLive,
		topicsLive,
		brokersDiscovered,
		brokersRemoved,
		topicsDiscovered,
		topicsRemoved,
		coordinatorRequests,
	)
}
