// SPDX-License-Identifier: Apache-2.0

package qosmgmt

import (
	"fmt"
	"strconv"

	"github.com/opennetsys/nefqos/backend/factory"
	"github.com/opennetsys/nefqos/qosmodels"
)

// mediaComponentKey: the PCF is only ever asked for a single concurrent QoS
// profile per app session, so all flows are collapsed under one media
// component.
const mediaComponentKey = "1"

// BuildAppSessionContext translates a subscription into the
// Npcf_PolicyAuthorization request body. notifUri is the NEF-owned callback
// endpoint the PCF reports bearer events to; pointing the PCF at the
// subscriber's own URL would bypass the correlation layer.
func BuildAppSessionContext(sub *qosmodels.Subscription, profiles map[string]*factory.QosProfile,
	notifUri string,
) (*qosmodels.AppSessionContext, error) {
	profile, ok := profiles[sub.QosReference]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQosReference, sub.QosReference)
	}

	subComps := make(map[string]qosmodels.MediaSubComponent, len(sub.FlowInfo))
	for _, flow := range sub.FlowInfo {
		subComps[strconv.FormatInt(int64(flow.FlowId), 10)] = qosmodels.MediaSubComponent{
			FNum:      flow.FlowId,
			FDescs:    append([]string(nil), flow.FlowDescriptions...),
			FlowUsage: qosmodels.FlowUsageNoInfo,
		}
	}

	// bit-rate strings are forwarded verbatim from the profile table
	medComponents := map[string]qosmodels.MediaComponent{
		mediaComponentKey: {
			MedCompN:    1,
			FStatus:     qosmodels.FlowStatusEnabled,
			MedSubComps: subComps,
			MedType:     qosmodels.MediaType(profile.MediaType),
			MarBwUl:     profile.MarBwUl,
			MarBwDl:     profile.MarBwDl,
		},
	}

	return &qosmodels.AppSessionContext{
		AscReqData: &qosmodels.AppSessionContextReqData{
			MedComponents: medComponents,
			NotifUri:      notifUri,
			SuppFeat:      sub.SupportedFeatures,
			UeIpv4:        sub.UeIpv4Addr,
		},
	}, nil
}
