// SPDX-License-Identifier: Apache-2.0

// Package qosstore holds the volatile, process-lifetime state of the
// service: the subscription store and the subscription/app-session binding
// table. Neither survives a restart; bindings from a previous process are
// orphaned on the PCF side and are not remediated here.
package qosstore

import (
	"sync"

	"github.com/opennetsys/nefqos/qosmodels"
)

// SubscriptionStore is the northbound resource store. Subscriptions are
// scoped under an scsAsId but subscription ids are unique across the whole
// store.
type SubscriptionStore interface {
	Insert(scsAsId string, sub *qosmodels.Subscription) bool
	GetAll(scsAsId string) ([]*qosmodels.Subscription, bool)
	Get(scsAsId, subscriptionId string) (*qosmodels.Subscription, bool)
	Update(scsAsId, subscriptionId string, sub *qosmodels.Subscription) bool
	Delete(scsAsId, subscriptionId string) bool
}

// Binding correlates a subscription with the app session the PCF assigned
// for it. Orphaned marks a binding whose remote teardown failed and is owed
// a retry.
type Binding struct {
	ScsAsId        string
	SubscriptionId string
	AppSessionId   string
	Orphaned       bool
}

// BindingStore keeps at most one binding per subscription id. A binding
// exists only while the PCF-side session is believed to exist.
type BindingStore interface {
	// Bind records the correlation; it reports whether an existing binding
	// was overwritten (last-writer-wins, which correct operation never does).
	Bind(scsAsId, subscriptionId, appSessionId string) bool
	Lookup(subscriptionId string) (string, bool)
	LookupBySession(appSessionId string) (Binding, bool)
	Unbind(subscriptionId string) bool
	MarkOrphaned(subscriptionId string)
	Orphaned() []Binding
}

type memorySubscriptionStore struct {
	mu sync.RWMutex
	// subscriptions per tenant, in insertion order
	byTenant map[string][]*qosmodels.Subscription
	// global id index, enforces store-wide uniqueness
	tenantOf map[string]string
}

func NewSubscriptionStore() SubscriptionStore {
	return &memorySubscriptionStore{
		byTenant: make(map[string][]*qosmodels.Subscription),
		tenantOf: make(map[string]string),
	}
}

func (s *memorySubscriptionStore) Insert(scsAsId string, sub *qosmodels.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tenantOf[sub.SubscriptionId]; exists {
		return false
	}
	s.byTenant[scsAsId] = append(s.byTenant[scsAsId], sub.Clone())
	s.tenantOf[sub.SubscriptionId] = scsAsId
	return true
}

func (s *memorySubscriptionStore) GetAll(scsAsId string) ([]*qosmodels.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs, ok := s.byTenant[scsAsId]
	if !ok {
		return nil, false
	}
	out := make([]*qosmodels.Subscription, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub.Clone())
	}
	return out, true
}

func (s *memorySubscriptionStore) Get(scsAsId, subscriptionId string) (*qosmodels.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.byTenant[scsAsId] {
		if sub.SubscriptionId == subscriptionId {
			return sub.Clone(), true
		}
	}
	return nil, false
}

func (s *memorySubscriptionStore) Update(scsAsId, subscriptionId string, sub *qosmodels.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.byTenant[scsAsId]
	for i, existing := range subs {
		if existing.SubscriptionId == subscriptionId {
			subs[i] = sub.Clone()
			return true
		}
	}
	return false
}

func (s *memorySubscriptionStore) Delete(scsAsId, subscriptionId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.byTenant[scsAsId]
	for i, existing := range subs {
		if existing.SubscriptionId == subscriptionId {
			s.byTenant[scsAsId] = append(subs[:i], subs[i+1:]...)
			delete(s.tenantOf, subscriptionId)
			return true
		}
	}
	return false
}

type memoryBindingStore struct {
	mu        sync.RWMutex
	bySub     map[string]*Binding
	bySession map[string]string // appSessionId -> subscriptionId
}

func NewBindingStore() BindingStore {
	return &memoryBindingStore{
		bySub:     make(map[string]*Binding),
		bySession: make(map[string]string),
	}
}

func (b *memoryBindingStore) Bind(scsAsId, subscriptionId, appSessionId string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, replaced := b.bySub[subscriptionId]
	if replaced {
		delete(b.bySession, prev.AppSessionId)
	}
	b.bySub[subscriptionId] = &Binding{
		ScsAsId:        scsAsId,
		SubscriptionId: subscriptionId,
		AppSessionId:   appSessionId,
	}
	b.bySession[appSessionId] = subscriptionId
	return replaced
}

func (b *memoryBindingStore) Lookup(subscriptionId string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	binding, ok := b.bySub[subscriptionId]
	if !ok {
		return "", false
	}
	return binding.AppSessionId, true
}

func (b *memoryBindingStore) LookupBySession(appSessionId string) (Binding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subId, ok := b.bySession[appSessionId]
	if !ok {
		return Binding{}, false
	}
	return *b.bySub[subId], true
}

func (b *memoryBindingStore) Unbind(subscriptionId string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	binding, ok := b.bySub[subscriptionId]
	if !ok {
		return false
	}
	delete(b.bySession, binding.AppSessionId)
	delete(b.bySub, subscriptionId)
	return true
}

func (b *memoryBindingStore) MarkOrphaned(subscriptionId string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if binding, ok := b.bySub[subscriptionId]; ok {
		binding.Orphaned = true
	}
}

func (b *memoryBindingStore) Orphaned() []Binding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Binding
	for _, binding := range b.bySub {
		if binding.Orphaned {
			out = append(out, *binding)
		}
	}
	return out
}
