// SPDX-License-Identifier: Apache-2.0

package qosmodels

// Southbound Npcf_PolicyAuthorization structures, TS 29.514 clause 5.6.

// FlowUsage as per TS 29.214 table 5.6.3.14-1. Only NO_INFO is produced by
// this service.
type FlowUsage string

const FlowUsageNoInfo FlowUsage = "NO_INFO"

// FlowStatus as per TS 29.514 table 5.6.3.12-1.
type FlowStatus string

const (
	FlowStatusEnabledUplink   FlowStatus = "ENABLED-UPLINK"
	FlowStatusEnabledDownlink FlowStatus = "ENABLED-DOWNLINK"
	FlowStatusEnabled         FlowStatus = "ENABLED"
	FlowStatusDisabled        FlowStatus = "DISABLED"
	FlowStatusRemoved         FlowStatus = "REMOVED"
)

// MediaType as per TS 29.214 clause 5.6.3.4, reduced to the types the QoS
// profile table may reference.
type MediaType string

const (
	MediaTypeAudio   MediaType = "AUDIO"
	MediaTypeVideo   MediaType = "VIDEO"
	MediaTypeControl MediaType = "CONTROL"
)

type MediaSubComponent struct {
	FNum      int32     `json:"fNum"`
	FDescs    []string  `json:"fDescs,omitempty"`
	FlowUsage FlowUsage `json:"flowUsage,omitempty"`
}

type MediaComponent struct {
	MedCompN    int32                        `json:"medCompN"`
	FStatus     FlowStatus                   `json:"fStatus,omitempty"`
	MedSubComps map[string]MediaSubComponent `json:"medSubComps,omitempty"`
	MedType     MediaType                    `json:"medType,omitempty"`
	MarBwUl     string                       `json:"marBwUl,omitempty"`
	MarBwDl     string                       `json:"marBwDl,omitempty"`
}

type AppSessionContextReqData struct {
	MedComponents map[string]MediaComponent `json:"medComponents,omitempty"`
	NotifUri      string                    `json:"notifUri"`
	SuppFeat      string                    `json:"suppFeat,omitempty"`
	UeIpv4        string                    `json:"ueIpv4,omitempty"`
}

type AppSessionContext struct {
	AscReqData *AppSessionContextReqData `json:"ascReqData,omitempty"`
}

// EventsNotification is the body the PCF posts to the NEF callback endpoint
// when a bearer-level event occurs on an app session.
type EventsNotification struct {
	EvSubsUri string                `json:"evSubsUri,omitempty"`
	EvNotifs  []AfEventNotification `json:"evNotifs"`
}

type AfEventNotification struct {
	Event string `json:"event"`
}
