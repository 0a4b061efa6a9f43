// internal/features/request.go
package features

// PredictionRequest is the wire-level prediction request body.
// Fields are pointers so that a missing field can be told apart from a
// zero value during validation.
type PredictionRequest struct {
	Sqft      *float64 `json:"sqft"`
	Bedrooms  *int     `json:"bedrooms"`
	Bathrooms *int     `json:"bathrooms"`
	Location  *string  `json:"location"`
	YearBuilt *int     `json:"year_built"`
	Condition *string  `json:"condition"`
}

// Request is a fully validated prediction request. Every field is present
// and within the declared bounds; it is safe to hand to the preprocessor.
type Request struct {
	Sqft      float64
	Bedrooms  int
	Bathrooms int
	Location  string
	YearBuilt int
	Condition string
}
