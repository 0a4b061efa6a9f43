// internal/inference/mock.go
package inference

import (
	"context"
	"fmt"
)

// MockEngine is a mock implementation of Engine for testing.
// It returns a deterministic prediction without any model artifact.
type MockEngine struct {
	// Features is the input vector length the mock claims to accept
	Features int
	// Price is the point estimate returned for every input
	Price float64
	// Band is the half-width of the returned confidence interval
	Band float64
	// ShouldError if true, Predict will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// Err, when set, is returned as-is so tests can exercise typed error
	// handling (for example context.DeadlineExceeded)
	Err error
	// CallCount tracks the number of times Predict was called
	CallCount int
}

// NewMock creates a MockEngine expecting 10 features and predicting 250000.
func NewMock() *MockEngine {
	return &MockEngine{
		Features: 10,
		Price:    250000,
		Band:     40000,
	}
}

// NewMockWithPrice creates a MockEngine returning a custom price.
func NewMockWithPrice(features int, price float64) *MockEngine {
	return &MockEngine{
		Features: features,
		Price:    price,
		Band:     price * 0.1,
	}
}

// Predict returns the configured deterministic prediction.
func (m *MockEngine) Predict(_ context.Context, x []float64) (*Prediction, error) {
	m.CallCount++

	if m.Err != nil {
		return nil, m.Err
	}

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return nil, fmt.Errorf("%s", m.ErrorMessage)
		}
		return nil, fmt.Errorf("mock inference error")
	}

	if len(x) != m.Features {
		return nil, fmt.Errorf("feature vector has wrong size: got %d, expected %d", len(x), m.Features)
	}

	return &Prediction{
		Price: m.Price,
		Lower: m.Price - m.Band,
		Upper: m.Price + m.Band,
		Factors: []Factor{
			{Name: "sqft", Contribution: m.Price * 0.4},
			{Name: "loc_suburban", Contribution: m.Price * 0.1},
			{Name: "condition", Contribution: m.Price * 0.05},
		},
	}, nil
}

// NumFeatures returns the configured input vector length.
func (m *MockEngine) NumFeatures() int { return m.Features }

// Version identifies the mock in responses and logs.
func (m *MockEngine) Version() string { return "mock" }

// Close is a no-op for the mock implementation
func (m *MockEngine) Close() error { return nil }

// SetError configures the mock to return an error on the next Predict call
func (m *MockEngine) SetError(msg string) {
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *MockEngine) ClearError() {
	m.ShouldError = false
	m.ErrorMessage = ""
	m.Err = nil
}

// Ensure MockEngine implements Engine at compile time
var _ Engine = (*MockEngine)(nil)
