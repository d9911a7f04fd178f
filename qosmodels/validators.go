// SPDX-License-Identifier: Apache-2.0

package qosmodels

import (
	"fmt"
	"regexp"
	"strings"
)

// Flow-Description format as per TS 29.214 clause 5.3.8:
// permit (in|out) (ip|tcp|udp) from <addr-or-any>[ <port-or-range>] to <addr-or-any>[ <port-or-range>]
// where the address is an IPv4/IPv6 literal, optionally with a prefix length,
// or the literal "any".
var flowDescriptionRegex = regexp.MustCompile(
	`^permit (in|out) (ip|tcp|udp) from ` +
		`([0-9a-fA-F:.]+(?:/\d+)?|any)(?: (?:(?:0|[1-9][0-9]{0,4})|(?:[0-9]+-[0-9]+)))? to ` +
		`([0-9a-fA-F:.]+(?:/\d+)?|any)(?: (?:(?:0|[1-9][0-9]{0,4})|(?:[0-9]+-[0-9]+)))?$`)

// forbiddenTokens are rejected even inside an otherwise well-formed
// description: the negation marker, option keywords and separators the PCF
// does not accept.
var forbiddenTokens = []string{"!", "options", "assigned", ",", ".."}

var bitRateRegex = regexp.MustCompile(`^\d+(\.\d+)? (bps|Kbps|Mbps|Gbps|Tbps)$`)

// ValidFlowDescription reports whether a single traffic-filter string matches
// the grammar and contains no denylisted token.
func ValidFlowDescription(desc string) bool {
	for _, bad := range forbiddenTokens {
		if strings.Contains(desc, bad) {
			return false
		}
	}
	return flowDescriptionRegex.MatchString(desc)
}

// ValidateFlowInfo checks every descriptor of every flow. A single invalid
// descriptor fails the whole set; all offenders are reported so the caller
// can surface field-level detail.
func ValidateFlowInfo(flows []FlowInfo) []InvalidParam {
	var invalid []InvalidParam
	for i, flow := range flows {
		for j, desc := range flow.FlowDescriptions {
			if !ValidFlowDescription(desc) {
				invalid = append(invalid, InvalidParam{
					Param:  fmt.Sprintf("flowInfo[%d].flowDescriptions[%d]", i, j),
					Reason: "invalid flow description format",
				})
			}
		}
	}
	return invalid
}

// ValidBitRate reports whether s matches `<number>[.<number>] (bps|Kbps|Mbps|Gbps|Tbps)`.
func ValidBitRate(s string) bool {
	return bitRateRegex.MatchString(s)
}

func ValidMediaType(s string) bool {
	switch MediaType(s) {
	case MediaTypeAudio, MediaTypeVideo, MediaTypeControl:
		return true
	}
	return false
}
