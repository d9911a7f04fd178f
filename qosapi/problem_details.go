// SPDX-License-Identifier: Apache-2.0

package qosapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opennetsys/nefqos/qosmodels"
)

// Error responses follow the ProblemDetails shape of TS 29.122 clause 5.2.6.
// Instance always carries the URL of the triggering request.

func problem(c *gin.Context, status int, cause, detail string) {
	c.JSON(status, qosmodels.ProblemDetails{
		Title:    http.StatusText(status),
		Status:   int32(status),
		Detail:   detail,
		Instance: c.Request.URL.String(),
		Cause:    cause,
	})
}

func badRequest(c *gin.Context, detail string, invalidParams []qosmodels.InvalidParam) {
	c.JSON(http.StatusBadRequest, qosmodels.ProblemDetails{
		Title:         http.StatusText(http.StatusBadRequest),
		Status:        http.StatusBadRequest,
		Detail:        detail,
		Instance:      c.Request.URL.String(),
		Cause:         "INVALID_MSG_FORMAT",
		InvalidParams: invalidParams,
	})
}

func notFound(c *gin.Context, detail string) {
	problem(c, http.StatusNotFound, "DATA_NOT_FOUND", detail)
}

func internalError(c *gin.Context, detail string) {
	problem(c, http.StatusInternalServerError, "SYSTEM_FAILURE", detail)
}

func serviceUnavailable(c *gin.Context, detail string) {
	problem(c, http.StatusServiceUnavailable, "NF_CONGESTION", detail)
}
