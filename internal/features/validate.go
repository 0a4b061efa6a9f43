// internal/features/validate.go
package features

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Bounds applied in addition to the enumerations carried by the
// preprocessor artifact.
const (
	MinYearBuilt = 1800
	MaxSqft      = 50000.0
	MaxRooms     = 20
)

// FieldError describes a single invalid or missing request field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries field-level detail for a rejected request.
// It maps to a 400 response at the service boundary.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return fmt.Sprintf("invalid request: %s", strings.Join(names, ", "))
}

// AsValidationError unwraps err to a *ValidationError if one is present.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Schema validates wire-level requests against the enumerations the
// preprocessor was fitted with. Accepted categorical values come from the
// artifact, never from the request.
type Schema struct {
	locations  map[string]struct{}
	conditions map[string]struct{}

	locationList  []string
	conditionList []string
}

// NewSchema builds a Schema from the preprocessor's accepted labels.
func NewSchema(locations, conditions []string) Schema {
	s := Schema{
		locations:     make(map[string]struct{}, len(locations)),
		conditions:    make(map[string]struct{}, len(conditions)),
		locationList:  locations,
		conditionList: conditions,
	}
	for _, l := range locations {
		s.locations[l] = struct{}{}
	}
	for _, c := range conditions {
		s.conditions[c] = struct{}{}
	}
	return s
}

// Validate checks every field of the wire request and returns the validated
// value struct, or a *ValidationError listing every offending field. The
// prefix is prepended to field names for batch requests ("requests[2].").
func (s Schema) Validate(req PredictionRequest, prefix string) (Request, error) {
	// Evaluated per call so a long-running process accepts builds from a
	// year that started after the schema was constructed.
	maxYear := time.Now().Year()

	var fields []FieldError
	add := func(name, reason string) {
		fields = append(fields, FieldError{Field: prefix + name, Reason: reason})
	}

	var out Request

	if req.Sqft == nil {
		add("sqft", "required")
	} else if *req.Sqft <= 0 {
		add("sqft", "must be a positive number")
	} else if *req.Sqft > MaxSqft {
		add("sqft", fmt.Sprintf("must be at most %.0f", MaxSqft))
	} else {
		out.Sqft = *req.Sqft
	}

	if req.Bedrooms == nil {
		add("bedrooms", "required")
	} else if *req.Bedrooms < 0 || *req.Bedrooms > MaxRooms {
		add("bedrooms", fmt.Sprintf("must be between 0 and %d", MaxRooms))
	} else {
		out.Bedrooms = *req.Bedrooms
	}

	if req.Bathrooms == nil {
		add("bathrooms", "required")
	} else if *req.Bathrooms < 0 || *req.Bathrooms > MaxRooms {
		add("bathrooms", fmt.Sprintf("must be between 0 and %d", MaxRooms))
	} else {
		out.Bathrooms = *req.Bathrooms
	}

	if req.Location == nil {
		add("location", "required")
	} else if _, ok := s.locations[*req.Location]; !ok {
		add("location", fmt.Sprintf("must be one of: %s", strings.Join(s.locationList, ", ")))
	} else {
		out.Location = *req.Location
	}

	if req.YearBuilt == nil {
		add("year_built", "required")
	} else if *req.YearBuilt < MinYearBuilt || *req.YearBuilt > maxYear {
		add("year_built", fmt.Sprintf("must be between %d and %d", MinYearBuilt, maxYear))
	} else {
		out.YearBuilt = *req.YearBuilt
	}

	if req.Condition == nil {
		add("condition", "required")
	} else if _, ok := s.conditions[*req.Condition]; !ok {
		add("condition", fmt.Sprintf("must be one of: %s", strings.Join(s.conditionList, ", ")))
	} else {
		out.Condition = *req.Condition
	}

	if len(fields) > 0 {
		return Request{}, &ValidationError{Fields: fields}
	}
	return out, nil
}
