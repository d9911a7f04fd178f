// SPDX-License-Identifier: Apache-2.0

package qosmodels

// UserPlaneEvent is the closed event enumeration of TS 29.122 table
// 5.2.1.3.3-1.
type UserPlaneEvent string

const (
	SessionTermination            UserPlaneEvent = "SESSION_TERMINATION"
	LossOfBearer                  UserPlaneEvent = "LOSS_OF_BEARER"
	RecoveryOfBearer              UserPlaneEvent = "RECOVERY_OF_BEARER"
	ReleaseOfBearer               UserPlaneEvent = "RELEASE_OF_BEARER"
	UsageReport                   UserPlaneEvent = "USAGE_REPORT"
	FailedResourcesAllocation     UserPlaneEvent = "FAILED_RESOURCES_ALLOCATION"
	SuccessfulResourcesAllocation UserPlaneEvent = "SUCCESSFUL_RESOURCES_ALLOCATION"
)

type UserPlaneEventReport struct {
	Event UserPlaneEvent `json:"event"`
}

// UserPlaneNotificationData is the envelope delivered to the subscriber's
// notificationDestination. Transaction is the URL of the subscription the
// report belongs to, so the receiver can correlate.
type UserPlaneNotificationData struct {
	Transaction  string                 `json:"transaction"`
	EventReports []UserPlaneEventReport `json:"eventReports"`
}
