// SPDX-License-Identifier: Apache-2.0

// Package qosmodels holds the data model of the AsSessionWithQoS northbound
// API (3GPP TS 29.122) and the subset of the Npcf_PolicyAuthorization
// southbound API (3GPP TS 29.514) this service exchanges with the PCF.
package qosmodels

// FlowInfo carries one traffic flow identifier and its packet filters as per
// TS 29.122 clause 5.14.2.1.3.
type FlowInfo struct {
	FlowId           int32    `json:"flowId"`
	FlowDescriptions []string `json:"flowDescriptions,omitempty"`
}

// Subscription is an AsSessionWithQoS subscription resource. SubscriptionId
// is assigned by this service on creation and never accepted from the
// caller; UeIpv4Addr is immutable once set.
type Subscription struct {
	SubscriptionId          string     `json:"subscriptionId,omitempty"`
	NotificationDestination string     `json:"notificationDestination"`
	SupportedFeatures       string     `json:"supportedFeatures,omitempty"`
	QosReference            string     `json:"qosReference,omitempty"`
	UeIpv4Addr              string     `json:"ueIpv4Addr,omitempty"`
	FlowInfo                []FlowInfo `json:"flowInfo,omitempty"`
}

// Clone returns a deep copy, so store internals never alias caller memory.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	out := *s
	if s.FlowInfo != nil {
		out.FlowInfo = make([]FlowInfo, len(s.FlowInfo))
		for i, f := range s.FlowInfo {
			out.FlowInfo[i] = FlowInfo{FlowId: f.FlowId}
			if f.FlowDescriptions != nil {
				out.FlowInfo[i].FlowDescriptions = append([]string(nil), f.FlowDescriptions...)
			}
		}
	}
	return &out
}
