// internal/inference/errors.go
package inference

import "github.com/cockroachdb/errors"

var (
	// ErrEngineUnavailable means no engine is loaded; the service must not
	// be serving prediction traffic in this state.
	ErrEngineUnavailable = errors.New("inference engine not initialized")

	// ErrShapeMismatch means the feature vector length does not match what
	// the model was fitted on. This indicates an artifact/configuration
	// problem, not a client problem.
	ErrShapeMismatch = errors.New("feature vector shape mismatch")

	// ErrNotFinite means the model produced NaN or Inf for the input.
	ErrNotFinite = errors.New("model output is not finite")
)
