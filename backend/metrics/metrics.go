// SPDX-License-Identifier: Apache-2.0

/*
 *  Metrics package exposes the operational counters of the NEF QoS service.
 */

package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opennetsys/nefqos/backend/logger"
)

var (
	SubscriptionOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nef_subscription_operations_total",
			Help: "Subscription lifecycle operations by operation and result",
		},
		[]string{"operation", "result"},
	)
	PcfRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nef_pcf_requests_total",
			Help: "Npcf_PolicyAuthorization requests by operation and result",
		},
		[]string{"operation", "result"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nef_qos_notifications_total",
			Help: "Outbound user-plane event notifications by result",
		},
		[]string{"result"},
	)
	OrphanedBindings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nef_orphaned_bindings",
			Help: "App-session bindings whose remote teardown is pending retry",
		},
	)
)

func init() {
	prometheus.MustRegister(SubscriptionOps, PcfRequests, Notifications, OrphanedBindings)
}

// InitMetrics serves the prometheus endpoint on the configured port.
func InitMetrics(port int) {
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+strconv.Itoa(port), nil); err != nil {
		logger.InitLog.Errorf("could not open metrics port: %v", err)
	}
}
