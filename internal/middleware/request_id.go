// internal/middleware/request_id.go
package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// RequestIDHeader is the HTTP header for the request ID
	RequestIDHeader = "X-Request-Id"
)

// requestIDKey is the context key for storing the request ID
type requestIDKey struct{}

// RequestID extracts X-Request-Id from the incoming request or generates
// a new UUID if not present. It injects the request ID into the request
// context and echoes it back in the response headers.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)

			// Generate a new UUID if not present
			if requestID == "" {
				requestID = uuid.New().String()
			}

			// Add request ID to the request context
			ctx := context.WithValue(c.Request().Context(), requestIDKey{}, requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			// Echo the request ID back to the client
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
