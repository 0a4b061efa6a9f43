// internal/inference/mock_test.go
package inference

import (
	"context"
	"testing"
)

func TestMockEngine_Predict(t *testing.T) {
	mock := NewMock()

	x := make([]float64, mock.Features)
	pred, err := mock.Predict(context.Background(), x)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if pred.Price != 250000 {
		t.Errorf("Price = %v, expected 250000", pred.Price)
	}
	if pred.Lower >= pred.Price || pred.Upper <= pred.Price {
		t.Errorf("Confidence interval %v..%v does not bracket %v", pred.Lower, pred.Upper, pred.Price)
	}
	if len(pred.Factors) == 0 {
		t.Error("Expected factors in mock prediction")
	}

	if mock.CallCount != 1 {
		t.Errorf("Expected CallCount=1, got %d", mock.CallCount)
	}
}

func TestMockEngine_WrongShape(t *testing.T) {
	mock := NewMock()

	if _, err := mock.Predict(context.Background(), []float64{1, 2}); err == nil {
		t.Fatal("Expected error for wrong vector size, got nil")
	}
}

func TestMockEngine_PredictError(t *testing.T) {
	mock := NewMock()
	mock.SetError("test error")

	_, err := mock.Predict(context.Background(), make([]float64, mock.Features))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if err.Error() != "test error" {
		t.Errorf("Expected 'test error', got '%s'", err.Error())
	}

	mock.ClearError()
	if _, err := mock.Predict(context.Background(), make([]float64, mock.Features)); err != nil {
		t.Errorf("Expected success after ClearError, got %v", err)
	}
}

func TestMockEngine_CustomPrice(t *testing.T) {
	mock := NewMockWithPrice(4, 123456)

	pred, err := mock.Predict(context.Background(), make([]float64, 4))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Price != 123456 {
		t.Errorf("Price = %v, expected 123456", pred.Price)
	}
}
