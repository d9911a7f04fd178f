// SPDX-License-Identifier: Apache-2.0

package qosmgmt

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/opennetsys/nefqos/backend/metrics"
	"github.com/opennetsys/nefqos/qosmodels"
	"github.com/opennetsys/nefqos/qosstore"
)

type mockPolicyClient struct {
	nextSessionId string
	createErr     error
	deleteErr     error
	createCalls   int
	deleteCalls   int
	lastRequest   *qosmodels.AppSessionContext
	deletedIds    []string
}

func (m *mockPolicyClient) CreateAppSession(_ context.Context, asc *qosmodels.AppSessionContext) (string, error) {
	m.createCalls++
	m.lastRequest = asc
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.nextSessionId, nil
}

func (m *mockPolicyClient) DeleteAppSession(_ context.Context, appSessionId string) error {
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedIds = append(m.deletedIds, appSessionId)
	return nil
}

type recordedEvent struct {
	destination string
	transaction string
	event       qosmodels.UserPlaneEvent
}

type mockNotifier struct {
	events []recordedEvent
}

func (m *mockNotifier) Notify(destination, transaction string, event qosmodels.UserPlaneEvent) {
	m.events = append(m.events, recordedEvent{destination, transaction, event})
}

func newTestManager(pcf *mockPolicyClient, notifier *mockNotifier) *Manager {
	return NewManager(qosstore.NewSubscriptionStore(), qosstore.NewBindingStore(),
		testProfiles, pcf, notifier, "http://nef.local:8081")
}

func testSubscription() *qosmodels.Subscription {
	return &qosmodels.Subscription{
		NotificationDestination: "https://cb.example/x",
		QosReference:            "QOS_L",
		UeIpv4Addr:              "10.0.0.4",
		FlowInfo: []qosmodels.FlowInfo{
			{FlowId: 1, FlowDescriptions: []string{"permit in ip from 10.0.0.4 to any"}},
		},
	}
}

func TestCreateSubscription(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	notifier := &mockNotifier{}
	m := newTestManager(pcf, notifier)

	created, err := m.CreateSubscription(context.Background(), "AS1", testSubscription())
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if created.SubscriptionId == "" {
		t.Fatal("no subscription id assigned")
	}

	// the binding must carry the session id the PCF returned
	sessionId, _ := m.bindings.Lookup(created.SubscriptionId)
	if sessionId != "166" {
		t.Errorf("binding = %q, want 166", sessionId)
	}

	// a get-by-id must return the request body plus the fresh id
	got, err := m.GetSubscription("AS1", created.SubscriptionId)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.QosReference != "QOS_L" || got.UeIpv4Addr != "10.0.0.4" {
		t.Errorf("stored body differs from request: %+v", got)
	}

	if len(notifier.events) != 1 || notifier.events[0].event != qosmodels.SuccessfulResourcesAllocation {
		t.Fatalf("expected one SUCCESSFUL_RESOURCES_ALLOCATION event, got %+v", notifier.events)
	}
	if notifier.events[0].destination != "https://cb.example/x" {
		t.Errorf("event sent to %q", notifier.events[0].destination)
	}
}

func TestCreateSubscriptionIdsNeverReused(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	m := newTestManager(pcf, &mockNotifier{})

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		created, err := m.CreateSubscription(context.Background(), "AS1", testSubscription())
		if err != nil {
			t.Fatal(err)
		}
		if seen[created.SubscriptionId] {
			t.Fatalf("subscription id %s reused", created.SubscriptionId)
		}
		seen[created.SubscriptionId] = true
	}
}

func TestCreateUnknownQosReferenceFailsBeforeRemoteCall(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	notifier := &mockNotifier{}
	m := newTestManager(pcf, notifier)

	sub := testSubscription()
	sub.QosReference = "QOS_UNKNOWN"
	_, err := m.CreateSubscription(context.Background(), "AS1", sub)
	if !errors.Is(err, ErrUnknownQosReference) {
		t.Fatalf("err = %v, want ErrUnknownQosReference", err)
	}
	if pcf.createCalls != 0 {
		t.Error("remote call attempted despite unknown qosReference")
	}
	if len(notifier.events) != 0 {
		t.Error("notification sent despite unknown qosReference")
	}
	if _, err := m.GetSubscriptions("AS1"); !errors.Is(err, ErrNotFound) {
		t.Error("store not empty after failed create")
	}
}

func TestCreateRemoteFailureLeavesNoRecord(t *testing.T) {
	pcf := &mockPolicyClient{createErr: errors.New("pcf unavailable")}
	notifier := &mockNotifier{}
	m := newTestManager(pcf, notifier)

	_, err := m.CreateSubscription(context.Background(), "AS1", testSubscription())
	if err == nil {
		t.Fatal("expected error from remote failure")
	}
	// two-phase create: the staged record must be discarded
	if _, err := m.GetSubscriptions("AS1"); !errors.Is(err, ErrNotFound) {
		t.Error("staged record committed despite remote failure")
	}
	if len(notifier.events) != 1 || notifier.events[0].event != qosmodels.FailedResourcesAllocation {
		t.Fatalf("expected one FAILED_RESOURCES_ALLOCATION event, got %+v", notifier.events)
	}
}

func TestCreateInvalidFlowDescription(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	m := newTestManager(pcf, &mockNotifier{})

	sub := testSubscription()
	sub.FlowInfo[0].FlowDescriptions = append(sub.FlowInfo[0].FlowDescriptions,
		"permit in ip from !10.0.0.4 to any")
	_, err := m.CreateSubscription(context.Background(), "AS1", sub)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if pcf.createCalls != 0 {
		t.Error("remote call attempted despite invalid flow description")
	}
}

func TestReplaceSubscription(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	m := newTestManager(pcf, &mockNotifier{})
	created, _ := m.CreateSubscription(context.Background(), "AS1", testSubscription())

	// different UE address is rejected
	replacement := testSubscription()
	replacement.UeIpv4Addr = "10.0.0.5"
	_, err := m.ReplaceSubscription("AS1", created.SubscriptionId, replacement)
	if !errors.Is(err, ErrImmutableField) {
		t.Fatalf("err = %v, want ErrImmutableField", err)
	}

	// same address succeeds
	replacement = testSubscription()
	replacement.SupportedFeatures = "FFFF"
	updated, err := m.ReplaceSubscription("AS1", created.SubscriptionId, replacement)
	if err != nil {
		t.Fatalf("ReplaceSubscription: %v", err)
	}
	if updated.SupportedFeatures != "FFFF" {
		t.Error("replacement not applied")
	}

	// absent address keeps the stored one
	replacement = testSubscription()
	replacement.UeIpv4Addr = ""
	updated, err = m.ReplaceSubscription("AS1", created.SubscriptionId, replacement)
	if err != nil {
		t.Fatalf("ReplaceSubscription: %v", err)
	}
	if updated.UeIpv4Addr != "10.0.0.4" {
		t.Errorf("stored address lost, got %q", updated.UeIpv4Addr)
	}
}

func TestPatchSubscription(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	m := newTestManager(pcf, &mockNotifier{})
	created, _ := m.CreateSubscription(context.Background(), "AS1", testSubscription())

	patched, err := m.PatchSubscription("AS1", created.SubscriptionId, map[string]interface{}{
		"qosReference": "QOS_S",
	})
	if err != nil {
		t.Fatalf("PatchSubscription: %v", err)
	}
	if patched.QosReference != "QOS_S" {
		t.Errorf("qosReference = %q, want QOS_S", patched.QosReference)
	}
	// untouched fields survive the merge
	if patched.NotificationDestination != "https://cb.example/x" || patched.UeIpv4Addr != "10.0.0.4" {
		t.Errorf("merge clobbered untouched fields: %+v", patched)
	}

	// identifier and UE address are never patchable
	patched, err = m.PatchSubscription("AS1", created.SubscriptionId, map[string]interface{}{
		"subscriptionId": "attacker-chosen",
		"ueIpv4Addr":     "10.0.0.9",
	})
	if err != nil {
		t.Fatalf("PatchSubscription: %v", err)
	}
	if patched.SubscriptionId != created.SubscriptionId || patched.UeIpv4Addr != "10.0.0.4" {
		t.Errorf("immutable fields touched by patch: %+v", patched)
	}

	// unknown qosReference in a patch is rejected
	if _, err = m.PatchSubscription("AS1", created.SubscriptionId, map[string]interface{}{
		"qosReference": "QOS_UNKNOWN",
	}); !errors.Is(err, ErrUnknownQosReference) {
		t.Fatalf("err = %v, want ErrUnknownQosReference", err)
	}

	if _, err = m.PatchSubscription("AS1", "no-such-id", map[string]interface{}{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSubscription(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	notifier := &mockNotifier{}
	m := newTestManager(pcf, notifier)
	created, _ := m.CreateSubscription(context.Background(), "AS1", testSubscription())

	report, err := m.DeleteSubscription(context.Background(), "AS1", created.SubscriptionId)
	if err != nil {
		t.Fatalf("DeleteSubscription: %v", err)
	}
	if len(report.EventReports) != 1 || report.EventReports[0].Event != qosmodels.SessionTermination {
		t.Fatalf("unexpected report: %+v", report)
	}

	// remote delete first, then unbind
	if len(pcf.deletedIds) != 1 || pcf.deletedIds[0] != "166" {
		t.Errorf("remote delete calls: %+v", pcf.deletedIds)
	}
	if _, ok := m.bindings.Lookup(created.SubscriptionId); ok {
		t.Error("binding survived delete")
	}
	if _, err := m.GetSubscription("AS1", created.SubscriptionId); !errors.Is(err, ErrNotFound) {
		t.Error("subscription still readable after delete")
	}
	last := notifier.events[len(notifier.events)-1]
	if last.event != qosmodels.SessionTermination {
		t.Errorf("last event = %s, want SESSION_TERMINATION", last.event)
	}
}

func TestDeleteUnknownSubscription(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	m := newTestManager(pcf, &mockNotifier{})
	created, _ := m.CreateSubscription(context.Background(), "AS1", testSubscription())

	if _, err := m.DeleteSubscription(context.Background(), "AS1", "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := m.DeleteSubscription(context.Background(), "AS2", created.SubscriptionId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown tenant: err = %v, want ErrNotFound", err)
	}
	// the store is untouched
	if _, err := m.GetSubscription("AS1", created.SubscriptionId); err != nil {
		t.Error("subscription disappeared after failed deletes")
	}
}

func TestDeleteRemoteFailureRetainsOrphanedBinding(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	m := newTestManager(pcf, &mockNotifier{})
	created, _ := m.CreateSubscription(context.Background(), "AS1", testSubscription())

	pcf.deleteErr = errors.New("pcf unavailable")
	pendingBefore := testutil.ToFloat64(metrics.SubscriptionOps.WithLabelValues("delete", "remote_pending"))
	successBefore := testutil.ToFloat64(metrics.SubscriptionOps.WithLabelValues("delete", "success"))
	if _, err := m.DeleteSubscription(context.Background(), "AS1", created.SubscriptionId); err != nil {
		t.Fatalf("local delete must succeed despite remote failure: %v", err)
	}
	// a delete with a pending remote teardown is not counted as a success
	if got := testutil.ToFloat64(metrics.SubscriptionOps.WithLabelValues("delete", "remote_pending")); got != pendingBefore+1 {
		t.Errorf("remote_pending counter = %v, want %v", got, pendingBefore+1)
	}
	if got := testutil.ToFloat64(metrics.SubscriptionOps.WithLabelValues("delete", "success")); got != successBefore {
		t.Errorf("success counter moved on a pending teardown: %v -> %v", successBefore, got)
	}
	// local view reads deleted, binding retained for the reconciler
	if _, err := m.GetSubscription("AS1", created.SubscriptionId); !errors.Is(err, ErrNotFound) {
		t.Error("subscription still present")
	}
	orphans := m.bindings.Orphaned()
	if len(orphans) != 1 || orphans[0].AppSessionId != "166" {
		t.Fatalf("orphans = %+v", orphans)
	}

	// reconciler retries and clears the orphan once the PCF recovers
	pcf.deleteErr = nil
	m.RetryOrphans(context.Background())
	if len(m.bindings.Orphaned()) != 0 {
		t.Error("orphan not cleared after successful retry")
	}
}

func TestHandleAppSessionEvents(t *testing.T) {
	pcf := &mockPolicyClient{nextSessionId: "166"}
	notifier := &mockNotifier{}
	m := newTestManager(pcf, notifier)
	created, _ := m.CreateSubscription(context.Background(), "AS1", testSubscription())
	notifier.events = nil

	err := m.HandleAppSessionEvents("166", []qosmodels.AfEventNotification{
		{Event: "USAGE_REPORT"},
		{Event: "SOMETHING_UNMAPPED"},
	})
	if err != nil {
		t.Fatalf("HandleAppSessionEvents: %v", err)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected exactly one forwarded event, got %+v", notifier.events)
	}
	got := notifier.events[0]
	if got.event != qosmodels.UsageReport || got.destination != "https://cb.example/x" {
		t.Errorf("unexpected forwarded event: %+v", got)
	}
	wantTransaction := "http://nef.local:8081/3gpp-as-session-with-qos/v1/AS1/subscriptions/" + created.SubscriptionId
	if got.transaction != wantTransaction {
		t.Errorf("transaction = %q, want %q", got.transaction, wantTransaction)
	}

	if err := m.HandleAppSessionEvents("999", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown session: err = %v, want ErrNotFound", err)
	}
}
