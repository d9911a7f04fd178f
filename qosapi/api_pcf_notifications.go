// SPDX-License-Identifier: Apache-2.0

package qosapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opennetsys/nefqos/backend/logger"
	"github.com/opennetsys/nefqos/qosmgmt"
	"github.com/opennetsys/nefqos/qosmodels"
)

// PostAppSessionEvents godoc
//
// @Description Receive an app-session event notification from the PCF and
// forward the mapped events to the owning subscriber
// @Tags        Callbacks
// @Accept      json
// @Param       appSessionId  path  string                        true  "App session identifier"
// @Param       body          body  qosmodels.EventsNotification  true  "Event notification"
// @Success     204  "Events accepted"
// @Failure     400  {object}  qosmodels.ProblemDetails  "Malformed notification"
// @Failure     404  {object}  qosmodels.ProblemDetails  "Unknown app session"
// @Router      /nefcallbacks/v1/app-sessions/{appSessionId}  [post]
func PostAppSessionEvents(mgr *qosmgmt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		appSessionId := c.Param("appSessionId")
		var notification qosmodels.EventsNotification
		if err := c.ShouldBindJSON(&notification); err != nil {
			badRequest(c, "malformed event notification", nil)
			return
		}
		logger.QosLog.Infof("received %d event(s) for app session %s",
			len(notification.EvNotifs), appSessionId)
		if err := mgr.HandleAppSessionEvents(appSessionId, notification.EvNotifs); err != nil {
			if errors.Is(err, qosmgmt.ErrNotFound) {
				notFound(c, "app session is not bound to a subscription")
				return
			}
			internalError(c, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	}
}
