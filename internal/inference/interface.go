// internal/inference/interface.go
package inference

import "context"

// Factor is one feature's signed contribution to a prediction.
type Factor struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
}

// Prediction is the model output for a single feature vector.
type Prediction struct {
	// Price is the point estimate, floored at zero.
	Price float64
	// Lower and Upper bound the confidence interval around Price.
	Lower float64
	Upper float64
	// Factors are the top contributing features, largest magnitude first.
	Factors []Factor
}

// Engine defines the interface for running inference on a preprocessed
// feature vector. This abstraction allows for easy mocking in tests and
// swapping implementations.
type Engine interface {
	// Predict evaluates the model on one feature vector. The vector length
	// must equal NumFeatures. Implementations must be safe for concurrent
	// use: the fitted parameters are read-only after load.
	Predict(ctx context.Context, x []float64) (*Prediction, error)

	// NumFeatures returns the input vector length the model was fitted on.
	NumFeatures() int

	// Version returns the model artifact version.
	Version() string

	// Close releases any resources held by the engine.
	Close() error
}
