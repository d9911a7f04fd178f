// SPDX-License-Identifier: Apache-2.0

package qosapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opennetsys/nefqos/backend/logger"
	"github.com/opennetsys/nefqos/pcfclient"
	"github.com/opennetsys/nefqos/qosmgmt"
	"github.com/opennetsys/nefqos/qosmodels"
)

// writeLifecycleError maps manager errors onto ProblemDetails responses.
func writeLifecycleError(c *gin.Context, err error) {
	var validation *qosmgmt.ValidationError
	switch {
	case errors.As(err, &validation):
		badRequest(c, "request validation failed", validation.Params)
	case errors.Is(err, qosmgmt.ErrUnknownQosReference):
		badRequest(c, "qosReference does not match a provisioned profile", nil)
	case errors.Is(err, qosmgmt.ErrImmutableField):
		badRequest(c, "ueIpv4Addr cannot be changed on an existing subscription", nil)
	case errors.Is(err, qosmgmt.ErrNotFound):
		notFound(c, "subscription not found")
	case errors.Is(err, pcfclient.ErrRemoteUnavailable):
		serviceUnavailable(c, "policy controller unreachable")
	default:
		internalError(c, err.Error())
	}
}

// GetSubscriptions godoc
//
// @Description Return all active subscriptions of the SCS/AS
// @Tags        Subscriptions
// @Produce     json
// @Param       scsAsId  path  string  true  "SCS/AS identifier"
// @Success     200  {array}   qosmodels.Subscription
// @Failure     404  {object}  qosmodels.ProblemDetails  "Unknown SCS/AS"
// @Router      /3gpp-as-session-with-qos/v1/{scsAsId}/subscriptions  [get]
func GetSubscriptions(mgr *qosmgmt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scsAsId := c.Param("scsAsId")
		logger.QosLog.Infof("received GET subscriptions request, scsAsId=%s", scsAsId)
		subs, err := mgr.GetSubscriptions(scsAsId)
		if err != nil {
			writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, subs)
	}
}

// GetSubscription godoc
//
// @Description Return one subscription
// @Tags        Subscriptions
// @Produce     json
// @Param       scsAsId         path  string  true  "SCS/AS identifier"
// @Param       subscriptionId  path  string  true  "Subscription identifier"
// @Success     200  {object}  qosmodels.Subscription
// @Failure     404  {object}  qosmodels.ProblemDetails  "Unknown subscription"
// @Router      /3gpp-as-session-with-qos/v1/{scsAsId}/subscriptions/{subscriptionId}  [get]
func GetSubscription(mgr *qosmgmt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := mgr.GetSubscription(c.Param("scsAsId"), c.Param("subscriptionId"))
		if err != nil {
			writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

// PostSubscription godoc
//
// @Description Create a subscription and set up the backing app session
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
// @Param       scsAsId  path  string                  true  "SCS/AS identifier"
// @Param       body     body  qosmodels.Subscription  true  "Requested subscription"
// @Success     201  {object}  qosmodels.Subscription
// @Failure     400  {object}  qosmodels.ProblemDetails  "Validation failure"
// @Failure     503  {object}  qosmodels.ProblemDetails  "Policy controller unreachable"
// @Router      /3gpp-as-session-with-qos/v1/{scsAsId}/subscriptions  [post]
func PostSubscription(mgr *qosmgmt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scsAsId := c.Param("scsAsId")
		logger.QosLog.Infof("received POST subscription request, scsAsId=%s", scsAsId)
		var sub qosmodels.Subscription
		if err := c.ShouldBindJSON(&sub); err != nil {
			badRequest(c, "malformed subscription document", nil)
			return
		}
		created, err := mgr.CreateSubscription(c.Request.Context(), scsAsId, &sub)
		if err != nil {
			writeLifecycleError(c, err)
			return
		}
		c.Header("Location", c.Request.URL.Path+"/"+created.SubscriptionId)
		c.JSON(http.StatusCreated, created)
	}
}

// PutSubscription godoc
//
// @Description Replace all mutable fields of a subscription
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
// @Param       scsAsId         path  string                  true  "SCS/AS identifier"
// @Param       subscriptionId  path  string                  true  "Subscription identifier"
// @Param       body            body  qosmodels.Subscription  true  "Replacement subscription"
// @Success     200  {object}  qosmodels.Subscription
// @Failure     400  {object}  qosmodels.ProblemDetails  "Validation failure or immutable field"
// @Failure     404  {object}  qosmodels.ProblemDetails  "Unknown subscription"
// @Router      /3gpp-as-session-with-qos/v1/{scsAsId}/subscriptions/{subscriptionId}  [put]
func PutSubscription(mgr *qosmgmt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub qosmodels.Subscription
		if err := c.ShouldBindJSON(&sub); err != nil {
			badRequest(c, "malformed subscription document", nil)
			return
		}
		updated, err := mgr.ReplaceSubscription(c.Param("scsAsId"), c.Param("subscriptionId"), &sub)
		if err != nil {
			writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// PatchSubscription godoc
//
// @Description Merge the supplied fields into a subscription
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
// @Param       scsAsId         path  string  true  "SCS/AS identifier"
// @Param       subscriptionId  path  string  true  "Subscription identifier"
// @Param       body            body  object  true  "Sparse subscription document"
// @Success     200  {object}  qosmodels.Subscription
// @Failure     400  {object}  qosmodels.ProblemDetails  "Validation failure"
// @Failure     404  {object}  qosmodels.ProblemDetails  "Unknown subscription"
// @Router      /3gpp-as-session-with-qos/v1/{scsAsId}/subscriptions/{subscriptionId}  [patch]
func PatchSubscription(mgr *qosmgmt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch map[string]interface{}
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, "malformed patch document", nil)
			return
		}
		updated, err := mgr.PatchSubscription(c.Param("scsAsId"), c.Param("subscriptionId"), patch)
		if err != nil {
			writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteSubscription godoc
//
// @Description Remove a subscription and tear down its app session
// @Tags        Subscriptions
// @Produce     json
// @Param       scsAsId         path  string  true  "SCS/AS identifier"
// @Param       subscriptionId  path  string  true  "Subscription identifier"
// @Success     200  {object}  qosmodels.UserPlaneNotificationData  "Termination report"
// @Failure     404  {object}  qosmodels.ProblemDetails             "Unknown subscription"
// @Router      /3gpp-as-session-with-qos/v1/{scsAsId}/subscriptions/{subscriptionId}  [delete]
func DeleteSubscription(mgr *qosmgmt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scsAsId := c.Param("scsAsId")
		subscriptionId := c.Param("subscriptionId")
		logger.QosLog.Infof("received DELETE subscription request, scsAsId=%s id=%s",
			scsAsId, subscriptionId)
		report, err := mgr.DeleteSubscription(c.Request.Context(), scsAsId, subscriptionId)
		if err != nil {
			writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
