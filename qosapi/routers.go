// SPDX-License-Identifier: Apache-2.0

// Package qosapi exposes the AsSessionWithQoS subscription API of TS 29.122
// and the callback endpoint the PCF posts app-session events to.
package qosapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opennetsys/nefqos/qosmgmt"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFuncWithManager builds the handler bound to the manager.
	HandlerFuncWithManager func(mgr *qosmgmt.Manager) gin.HandlerFunc
}

type Routes []Route

func addService(engine *gin.Engine, prefix string, routes Routes,
	mgr *qosmgmt.Manager, middleware ...gin.HandlerFunc,
) *gin.RouterGroup {
	group := engine.Group(prefix)
	group.Use(middleware...)
	for _, route := range routes {
		handler := route.HandlerFuncWithManager(mgr)
		switch route.Method {
		case http.MethodGet:
			group.GET(route.Pattern, handler)
		case http.MethodPost:
			group.POST(route.Pattern, handler)
		case http.MethodPut:
			group.PUT(route.Pattern, handler)
		case http.MethodPatch:
			group.PATCH(route.Pattern, handler)
		case http.MethodDelete:
			group.DELETE(route.Pattern, handler)
		}
	}
	return group
}

// AddQosService registers the northbound subscription CRUD routes.
func AddQosService(engine *gin.Engine, mgr *qosmgmt.Manager, middleware ...gin.HandlerFunc) *gin.RouterGroup {
	return addService(engine, "/3gpp-as-session-with-qos/v1", qosRoutes, mgr, middleware...)
}

// AddCallbackService registers the southbound endpoint the PCF notifies on.
// It is never placed behind subscriber authentication.
func AddCallbackService(engine *gin.Engine, mgr *qosmgmt.Manager) *gin.RouterGroup {
	return addService(engine, "/nefcallbacks/v1", callbackRoutes, mgr)
}

var qosRoutes = Routes{
	{
		"FetchAllSubscriptions",
		http.MethodGet,
		"/:scsAsId/subscriptions",
		GetSubscriptions,
	},

	{
		"CreateSubscription",
		http.MethodPost,
		"/:scsAsId/subscriptions",
		PostSubscription,
	},

	{
		"FetchSubscription",
		http.MethodGet,
		"/:scsAsId/subscriptions/:subscriptionId",
		GetSubscription,
	},

	{
		"UpdateSubscription",
		http.MethodPut,
		"/:scsAsId/subscriptions/:subscriptionId",
		PutSubscription,
	},

	{
		"ModifySubscription",
		http.MethodPatch,
		"/:scsAsId/subscriptions/:subscriptionId",
		PatchSubscription,
	},

	{
		"DeleteSubscription",
		http.MethodDelete,
		"/:scsAsId/subscriptions/:subscriptionId",
		DeleteSubscription,
	},
}

var callbackRoutes = Routes{
	{
		"NotifyAppSessionEvents",
		http.MethodPost,
		"/app-sessions/:appSessionId",
		PostAppSessionEvents,
	},
}
