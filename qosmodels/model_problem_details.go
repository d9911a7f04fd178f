// SPDX-License-Identifier: Apache-2.0

package qosmodels

// ProblemDetails as per TS 29.122 clause 5.2.6 / RFC 7807.
type ProblemDetails struct {
	Title         string         `json:"title,omitempty"`
	Status        int32          `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	Instance      string         `json:"instance,omitempty"`
	Cause         string         `json:"cause,omitempty"`
	InvalidParams []InvalidParam `json:"invalidParams,omitempty"`
	RetryAfter    string         `json:"retryAfter,omitempty"`
}

type InvalidParam struct {
	Param  string `json:"param"`
	Reason string `json:"reason,omitempty"`
}
