// SPDX-License-Identifier: Apache-2.0

// Package qosmgmt implements the subscription lifecycle: the northbound CRUD
// semantics, the translation into PCF app sessions, and the correlation of
// PCF-side events back to the subscriber.
package qosmgmt

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/opennetsys/nefqos/backend/factory"
	"github.com/opennetsys/nefqos/backend/logger"
	"github.com/opennetsys/nefqos/backend/metrics"
	"github.com/opennetsys/nefqos/qosmodels"
	"github.com/opennetsys/nefqos/qosstore"
)

const (
	northboundPrefix = "/3gpp-as-session-with-qos/v1"
	callbackPrefix   = "/nefcallbacks/v1/app-sessions"
)

// PolicyClient carries app-session create/delete operations to the PCF.
type PolicyClient interface {
	CreateAppSession(ctx context.Context, asc *qosmodels.AppSessionContext) (string, error)
	DeleteAppSession(ctx context.Context, appSessionId string) error
}

// EventNotifier delivers user-plane event reports to a subscriber callback.
// Delivery is asynchronous and best-effort; Notify never blocks on the
// network and never reports failure to the caller.
type EventNotifier interface {
	Notify(destination, transaction string, event qosmodels.UserPlaneEvent)
}

// Manager owns the subscription lifecycle. All collaborators are injected at
// construction; there is no package-level state.
type Manager struct {
	subs       qosstore.SubscriptionStore
	bindings   qosstore.BindingStore
	profiles   map[string]*factory.QosProfile
	pcf        PolicyClient
	notifier   EventNotifier
	nefBaseUrl string
}

func NewManager(subs qosstore.SubscriptionStore, bindings qosstore.BindingStore,
	profiles map[string]*factory.QosProfile, pcf PolicyClient, notifier EventNotifier,
	nefBaseUrl string,
) *Manager {
	return &Manager{
		subs:       subs,
		bindings:   bindings,
		profiles:   profiles,
		pcf:        pcf,
		notifier:   notifier,
		nefBaseUrl: nefBaseUrl,
	}
}

func (m *Manager) transactionUrl(scsAsId, subscriptionId string) string {
	return m.nefBaseUrl + northboundPrefix + "/" + scsAsId + "/subscriptions/" + subscriptionId
}

func (m *Manager) callbackUrl() string {
	return m.nefBaseUrl + callbackPrefix
}

func validateSubscription(sub *qosmodels.Subscription) error {
	var params []qosmodels.InvalidParam
	if sub.NotificationDestination == "" {
		params = append(params, qosmodels.InvalidParam{
			Param: "notificationDestination", Reason: "required",
		})
	}
	params = append(params, qosmodels.ValidateFlowInfo(sub.FlowInfo)...)
	if len(params) > 0 {
		return &ValidationError{Params: params}
	}
	return nil
}

// CreateSubscription runs the two-phase create: the record is staged, the
// app session is requested from the PCF, and only a confirmed session is
// committed to the store and bound. A failed remote create leaves no trace.
func (m *Manager) CreateSubscription(ctx context.Context, scsAsId string,
	sub *qosmodels.Subscription,
) (*qosmodels.Subscription, error) {
	if err := validateSubscription(sub); err != nil {
		metrics.SubscriptionOps.WithLabelValues("create", "invalid").Inc()
		return nil, err
	}

	staged := sub.Clone()
	staged.SubscriptionId = uuid.New().String()

	// translate first: an unknown qosReference must fail before any remote
	// call and before any notification
	asc, err := BuildAppSessionContext(staged, m.profiles, m.callbackUrl())
	if err != nil {
		metrics.SubscriptionOps.WithLabelValues("create", "invalid").Inc()
		return nil, err
	}

	appSessionId, err := m.pcf.CreateAppSession(ctx, asc)
	if err != nil {
		logger.QosLog.Errorf("app session create failed for %s: %v", staged.SubscriptionId, err)
		metrics.SubscriptionOps.WithLabelValues("create", "remote_failure").Inc()
		m.notifier.Notify(staged.NotificationDestination,
			m.transactionUrl(scsAsId, staged.SubscriptionId), qosmodels.FailedResourcesAllocation)
		return nil, err
	}

	m.subs.Insert(scsAsId, staged)
	if replaced := m.bindings.Bind(scsAsId, staged.SubscriptionId, appSessionId); replaced {
		logger.QosLog.Warnf("binding for %s already existed, overwritten", staged.SubscriptionId)
	}
	logger.QosLog.Infof("created subscription %s for scsAsId=%s, app session %s",
		staged.SubscriptionId, scsAsId, appSessionId)
	metrics.SubscriptionOps.WithLabelValues("create", "success").Inc()

	m.notifier.Notify(staged.NotificationDestination,
		m.transactionUrl(scsAsId, staged.SubscriptionId), qosmodels.SuccessfulResourcesAllocation)
	return staged, nil
}

// GetSubscriptions returns all active subscriptions of the tenant.
func (m *Manager) GetSubscriptions(scsAsId string) ([]*qosmodels.Subscription, error) {
	subs, ok := m.subs.GetAll(scsAsId)
	if !ok {
		return nil, ErrNotFound
	}
	return subs, nil
}

func (m *Manager) GetSubscription(scsAsId, subscriptionId string) (*qosmodels.Subscription, error) {
	sub, ok := m.subs.Get(scsAsId, subscriptionId)
	if !ok {
		return nil, ErrNotFound
	}
	return sub, nil
}

// ReplaceSubscription overwrites all mutable fields in place. The UE address
// is immutable: supplying a different one is rejected, an absent one keeps
// the stored value.
func (m *Manager) ReplaceSubscription(scsAsId, subscriptionId string,
	sub *qosmodels.Subscription,
) (*qosmodels.Subscription, error) {
	stored, ok := m.subs.Get(scsAsId, subscriptionId)
	if !ok {
		metrics.SubscriptionOps.WithLabelValues("replace", "not_found").Inc()
		return nil, ErrNotFound
	}
	if sub.UeIpv4Addr != "" && stored.UeIpv4Addr != "" && sub.UeIpv4Addr != stored.UeIpv4Addr {
		metrics.SubscriptionOps.WithLabelValues("replace", "invalid").Inc()
		return nil, ErrImmutableField
	}
	if err := validateSubscription(sub); err != nil {
		metrics.SubscriptionOps.WithLabelValues("replace", "invalid").Inc()
		return nil, err
	}
	if _, known := m.profiles[sub.QosReference]; sub.QosReference != "" && !known {
		metrics.SubscriptionOps.WithLabelValues("replace", "invalid").Inc()
		return nil, ErrUnknownQosReference
	}

	updated := sub.Clone()
	updated.SubscriptionId = subscriptionId
	updated.UeIpv4Addr = stored.UeIpv4Addr
	m.subs.Update(scsAsId, subscriptionId, updated)
	metrics.SubscriptionOps.WithLabelValues("replace", "success").Inc()
	return updated, nil
}

// patchableFields is the allowlist of fields a sparse merge may touch. The
// subscription id and the UE address are never patchable.
var patchableFields = map[string]bool{
	"notificationDestination": true,
	"qosReference":            true,
	"supportedFeatures":       true,
	"flowInfo":                true,
}

// PatchSubscription merges only the supplied fields into the stored record.
func (m *Manager) PatchSubscription(scsAsId, subscriptionId string,
	patch map[string]interface{},
) (*qosmodels.Subscription, error) {
	stored, ok := m.subs.Get(scsAsId, subscriptionId)
	if !ok {
		metrics.SubscriptionOps.WithLabelValues("patch", "not_found").Inc()
		return nil, ErrNotFound
	}

	filtered := make(map[string]interface{}, len(patch))
	for key, value := range patch {
		if patchableFields[key] {
			filtered[key] = value
		}
	}

	updated := stored.Clone()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           updated,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(filtered); err != nil {
		metrics.SubscriptionOps.WithLabelValues("patch", "invalid").Inc()
		return nil, &ValidationError{Params: []qosmodels.InvalidParam{
			{Param: "body", Reason: "malformed patch document"},
		}}
	}

	if params := qosmodels.ValidateFlowInfo(updated.FlowInfo); len(params) > 0 {
		metrics.SubscriptionOps.WithLabelValues("patch", "invalid").Inc()
		return nil, &ValidationError{Params: params}
	}
	if _, known := m.profiles[updated.QosReference]; updated.QosReference != "" && !known {
		metrics.SubscriptionOps.WithLabelValues("patch", "invalid").Inc()
		return nil, ErrUnknownQosReference
	}

	m.subs.Update(scsAsId, subscriptionId, updated)
	metrics.SubscriptionOps.WithLabelValues("patch", "success").Inc()
	return updated, nil
}

// DeleteSubscription tears down the app session and removes the record. The
// remote delete is issued before the binding is dropped; if the PCF call
// fails the binding is retained flagged orphaned for the reconciler, while
// the local record is removed regardless so the local view always reads
// "deleted".
func (m *Manager) DeleteSubscription(ctx context.Context, scsAsId, subscriptionId string,
) (*qosmodels.UserPlaneNotificationData, error) {
	stored, ok := m.subs.Get(scsAsId, subscriptionId)
	if !ok {
		metrics.SubscriptionOps.WithLabelValues("delete", "not_found").Inc()
		return nil, ErrNotFound
	}

	deleteResult := "success"
	if appSessionId, bound := m.bindings.Lookup(subscriptionId); bound {
		if err := m.pcf.DeleteAppSession(ctx, appSessionId); err != nil {
			logger.QosLog.Errorf("app session %s teardown failed, binding kept for retry: %v",
				appSessionId, err)
			m.bindings.MarkOrphaned(subscriptionId)
			metrics.OrphanedBindings.Inc()
			deleteResult = "remote_pending"
		} else {
			m.bindings.Unbind(subscriptionId)
		}
	}

	m.subs.Delete(scsAsId, subscriptionId)
	logger.QosLog.Infof("deleted subscription %s for scsAsId=%s", subscriptionId, scsAsId)
	metrics.SubscriptionOps.WithLabelValues("delete", deleteResult).Inc()

	transaction := m.transactionUrl(scsAsId, subscriptionId)
	m.notifier.Notify(stored.NotificationDestination, transaction, qosmodels.SessionTermination)
	return &qosmodels.UserPlaneNotificationData{
		Transaction:  transaction,
		EventReports: []qosmodels.UserPlaneEventReport{{Event: qosmodels.SessionTermination}},
	}, nil
}

// pcfEventMap translates Npcf_PolicyAuthorization AfEvent values into the
// northbound user-plane event enumeration.
var pcfEventMap = map[string]qosmodels.UserPlaneEvent{
	"FAILED_RESOURCES_ALLOCATION":     qosmodels.FailedResourcesAllocation,
	"SUCCESSFUL_RESOURCES_ALLOCATION": qosmodels.SuccessfulResourcesAllocation,
	"USAGE_REPORT":                    qosmodels.UsageReport,
	"APP_SESSION_TERMINATION":         qosmodels.SessionTermination,
}

// HandleAppSessionEvents correlates a PCF event notification with the owning
// subscription and re-notifies the subscriber. Unknown app sessions are a
// not-found error; unmapped events are skipped.
func (m *Manager) HandleAppSessionEvents(appSessionId string, events []qosmodels.AfEventNotification) error {
	binding, ok := m.bindings.LookupBySession(appSessionId)
	if !ok {
		return ErrNotFound
	}
	sub, ok := m.subs.Get(binding.ScsAsId, binding.SubscriptionId)
	if !ok {
		return ErrNotFound
	}

	transaction := m.transactionUrl(binding.ScsAsId, binding.SubscriptionId)
	for _, notif := range events {
		event, mapped := pcfEventMap[notif.Event]
		if !mapped {
			logger.QosLog.Debugf("ignoring unmapped PCF event %q for app session %s",
				notif.Event, appSessionId)
			continue
		}
		m.notifier.Notify(sub.NotificationDestination, transaction, event)
	}
	return nil
}

// StartReconciler periodically retries the remote teardown of orphaned
// bindings until the context is cancelled.
func (m *Manager) StartReconciler(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.RetryOrphans(ctx)
			}
		}
	}()
}

// RetryOrphans re-issues the remote delete for every orphaned binding and
// unbinds the ones that succeed.
func (m *Manager) RetryOrphans(ctx context.Context) {
	for _, binding := range m.bindings.Orphaned() {
		if err := m.pcf.DeleteAppSession(ctx, binding.AppSessionId); err != nil {
			logger.QosLog.Warnf("retry teardown of app session %s failed: %v",
				binding.AppSessionId, err)
			continue
		}
		m.bindings.Unbind(binding.SubscriptionId)
		metrics.OrphanedBindings.Dec()
		logger.QosLog.Infof("orphaned app session %s torn down", binding.AppSessionId)
	}
}
