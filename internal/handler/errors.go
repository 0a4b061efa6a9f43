// internal/handler/errors.go
package handler

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/mkale2207/house-price-service/internal/features"
	"github.com/mkale2207/house-price-service/internal/inference"
	"github.com/mkale2207/house-price-service/internal/metrics"
)

// errorBody is the JSON error envelope. Fields is populated only for
// validation errors; internal failures never leak details to the client.
type errorBody struct {
	Error   string                `json:"error"`
	Message string                `json:"message"`
	Fields  []features.FieldError `json:"fields,omitempty"`
}

// respondError maps pipeline errors to HTTP responses:
//
//	validation        -> 400 with field-level detail
//	engine missing    -> 503
//	request timeout   -> 504
//	anything else     -> 500 with a generic message
func respondError(c echo.Context, err error) error {
	if ve, ok := features.AsValidationError(err); ok {
		for _, f := range ve.Fields {
			metrics.RecordValidationFailure(f.Field)
		}
		return c.JSON(http.StatusBadRequest, errorBody{
			Error:   "validation",
			Message: ve.Error(),
			Fields:  ve.Fields,
		})
	}

	if errors.Is(err, inference.ErrEngineUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, errorBody{
			Error:   "unavailable",
			Message: "inference engine not initialized",
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, errorBody{
			Error:   "timeout",
			Message: "request timed out",
		})
	}

	return c.JSON(http.StatusInternalServerError, errorBody{
		Error:   "internal",
		Message: "internal error",
	})
}

// validationError builds a single-field ValidationError.
func validationError(field, reason string) error {
	return &features.ValidationError{
		Fields: []features.FieldError{{Field: field, Reason: reason}},
	}
}
