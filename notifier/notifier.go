// SPDX-License-Identifier: Apache-2.0

// Package notifier delivers user-plane event reports to subscriber
// callbacks. Delivery is decoupled from the request path: reports are
// queued and posted by a worker with bounded retry. A report that cannot be
// delivered after the configured attempts is logged and dropped; delivery
// failure is never surfaced to the operation that produced the event.
package notifier

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/opennetsys/nefqos/backend/factory"
	"github.com/opennetsys/nefqos/backend/logger"
	"github.com/opennetsys/nefqos/backend/metrics"
	"github.com/opennetsys/nefqos/qosmodels"
)

type delivery struct {
	destination string
	payload     qosmodels.UserPlaneNotificationData
}

type Dispatcher struct {
	client        *http.Client
	queue         chan delivery
	maxRetries    int
	retryInterval time.Duration
	stopOnce      sync.Once
	done          chan struct{}
}

func NewDispatcher(cfg *factory.Notifier) *Dispatcher {
	d := &Dispatcher{
		client:        &http.Client{Timeout: 10 * time.Second},
		queue:         make(chan delivery, cfg.QueueSize),
		maxRetries:    cfg.MaxRetries,
		retryInterval: time.Duration(cfg.RetryInterval) * time.Second,
		done:          make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify enqueues one event report for the destination. It never blocks on
// the network; when the queue is full the report is dropped and counted.
func (d *Dispatcher) Notify(destination, transaction string, event qosmodels.UserPlaneEvent) {
	report := delivery{
		destination: destination,
		payload: qosmodels.UserPlaneNotificationData{
			Transaction:  transaction,
			EventReports: []qosmodels.UserPlaneEventReport{{Event: event}},
		},
	}
	select {
	case d.queue <- report:
	default:
		logger.NotifLog.Warnf("notification queue full, dropping %s for %s", event, destination)
		metrics.Notifications.WithLabelValues("dropped").Inc()
	}
}

// Stop drains nothing: pending reports are abandoned, matching the
// best-effort contract.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		case report := <-d.queue:
			d.deliver(report)
		}
	}
}

func (d *Dispatcher) deliver(report delivery) {
	body, err := json.Marshal(report.payload)
	if err != nil {
		logger.NotifLog.Errorf("marshal notification: %v", err)
		return
	}
	for attempt := 1; ; attempt++ {
		if d.post(report.destination, body) {
			metrics.Notifications.WithLabelValues("delivered").Inc()
			return
		}
		if attempt >= d.maxRetries {
			logger.NotifLog.Errorf("giving up on notification to %s after %d attempts",
				report.destination, attempt)
			metrics.Notifications.WithLabelValues("failed").Inc()
			return
		}
		select {
		case <-d.done:
			return
		case <-time.After(d.retryInterval):
		}
	}
}

func (d *Dispatcher) post(destination string, body []byte) bool {
	resp, err := d.client.Post(destination, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.NotifLog.Warnf("notification to %s failed: %v", destination, err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		logger.NotifLog.Warnf("notification to %s answered %d", destination, resp.StatusCode)
		return false
	}
	return true
}
