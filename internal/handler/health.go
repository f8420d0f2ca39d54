// Package handler contains the HTTP handlers.  Handlers bind and validate
// request bodies, call into the engine, and map its sentinel errors to JSON
// responses; no reservation rules live here.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
