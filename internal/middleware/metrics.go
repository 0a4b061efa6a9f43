// internal/middleware/metrics.go
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkale2207/house-price-service/internal/metrics"
)

// Metrics records Prometheus histogram metrics for HTTP requests.
// It measures the duration of each request and records it with method,
// route template, and status code labels.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()

			// Resolve the status code: an error returned here has not yet
			// been through echo's error handler, so the response status is
			// still unset.
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			// Label by route template, not raw URL, to bound cardinality
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			metrics.RecordHTTPLatency(c.Request().Method, path, strconv.Itoa(status), duration)

			return err
		}
	}
}
