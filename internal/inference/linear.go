// internal/inference/linear.go
package inference

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// confidence band half-width in residual standard deviations (95% under
// a normal residual assumption)
const confidenceZ = 1.96

// topFactorCount is how many contributing features a prediction reports.
const topFactorCount = 3

// ModelArtifact is the JSON document produced by the training pipeline.
type ModelArtifact struct {
	Algorithm    string    `json:"algorithm"`
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	ResidualStd  float64   `json:"residual_std"`
}

// LinearEngine evaluates a fitted linear regression model. All fields are
// immutable after NewLinear returns, so a single instance is shared across
// all concurrent requests without locking.
type LinearEngine struct {
	coef         *mat.VecDense
	intercept    float64
	residualStd  float64
	featureNames []string
	version      string
}

// NewLinear loads a linear regression model artifact from path.
func NewLinear(path string) (*LinearEngine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model artifact %s", path)
	}

	var a ModelArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, errors.Wrapf(err, "failed to parse model artifact %s", path)
	}

	return fromArtifact(a)
}

func fromArtifact(a ModelArtifact) (*LinearEngine, error) {
	if a.Algorithm != "linear_regression" {
		return nil, errors.Newf("unsupported model algorithm %q", a.Algorithm)
	}
	if len(a.Coefficients) == 0 {
		return nil, errors.New("model artifact has no coefficients")
	}
	if len(a.FeatureNames) != len(a.Coefficients) {
		return nil, errors.Newf("model artifact has %d feature names for %d coefficients",
			len(a.FeatureNames), len(a.Coefficients))
	}
	for i, c := range a.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.Newf("model coefficient %d (%s) is not finite: %v",
				i, a.FeatureNames[i], c)
		}
	}
	if math.IsNaN(a.Intercept) || math.IsInf(a.Intercept, 0) {
		return nil, errors.Newf("model intercept is not finite: %v", a.Intercept)
	}
	if a.ResidualStd < 0 || math.IsNaN(a.ResidualStd) || math.IsInf(a.ResidualStd, 0) {
		return nil, errors.Newf("model residual_std must be a non-negative finite number, got %v",
			a.ResidualStd)
	}

	return &LinearEngine{
		coef:         mat.NewVecDense(len(a.Coefficients), a.Coefficients),
		intercept:    a.Intercept,
		residualStd:  a.ResidualStd,
		featureNames: a.FeatureNames,
		version:      a.Version,
	}, nil
}

// Predict evaluates the model on one feature vector.
func (e *LinearEngine) Predict(ctx context.Context, x []float64) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(x) != e.coef.Len() {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d features, model expects %d",
			len(x), e.coef.Len())
	}

	xs := mat.NewVecDense(len(x), x)
	raw := mat.Dot(e.coef, xs) + e.intercept
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return nil, errors.Wrapf(ErrNotFinite, "raw prediction %v", raw)
	}

	// The interval is centered on the floored estimate so that
	// Lower <= Price <= Upper holds even for negative raw estimates.
	price := math.Max(0, raw)
	band := confidenceZ * e.residualStd

	return &Prediction{
		Price:   price,
		Lower:   math.Max(0, price-band),
		Upper:   price + band,
		Factors: e.topFactors(x),
	}, nil
}

// topFactors ranks features by |coef_j * x_j| and returns the strongest
// contributors with their signed values.
func (e *LinearEngine) topFactors(x []float64) []Factor {
	factors := make([]Factor, len(x))
	for i := range x {
		factors[i] = Factor{
			Name:         e.featureNames[i],
			Contribution: e.coef.AtVec(i) * x[i],
		}
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return math.Abs(factors[i].Contribution) > math.Abs(factors[j].Contribution)
	})

	n := topFactorCount
	if len(factors) < n {
		n = len(factors)
	}
	return factors[:n]
}

// NumFeatures returns the input vector length the model was fitted on.
func (e *LinearEngine) NumFeatures() int { return e.coef.Len() }

// FeatureNames returns the feature layout the model was fitted on. Startup
// code compares this against the preprocessor's layout before serving.
func (e *LinearEngine) FeatureNames() []string { return e.featureNames }

// Version returns the model artifact version.
func (e *LinearEngine) Version() string { return e.version }

// Close is a no-op; the engine holds no external resources.
func (e *LinearEngine) Close() error { return nil }

// Ensure LinearEngine implements Engine at compile time
var _ Engine = (*LinearEngine)(nil)
