// internal/preprocess/preprocess.go

// Package preprocess loads a fitted preprocessor artifact and turns
// validated prediction requests into the fixed-length feature vector the
// model was trained on. The transform is a pure function of the request;
// all fitted state (means, scales, category labels) comes from the
// artifact and is immutable for the process lifetime.
package preprocess

import (
	"encoding/json"
	"math"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/mkale2207/house-price-service/internal/features"
)

// numeric feature order inside the artifact and the output vector
var numericNames = []string{"sqft", "bedrooms", "bathrooms", "house_age"}

// Artifact is the JSON document produced by the training pipeline.
type Artifact struct {
	Version       string `json:"version"`
	ReferenceYear int    `json:"reference_year"`
	Numeric       struct {
		Names []string  `json:"names"`
		Mean  []float64 `json:"mean"`
		Scale []float64 `json:"scale"`
	} `json:"numeric"`
	Locations  []string `json:"locations"`
	Conditions []string `json:"conditions"`
}

// Preprocessor applies the fitted transform: standardized numeric features,
// a one-hot block over locations, and a single ordinal condition feature.
type Preprocessor struct {
	version       string
	referenceYear int

	mean  []float64
	scale []float64

	locations []string
	locIndex  map[string]int

	conditions []string
	condIndex  map[string]int

	featureNames []string
}

// Load reads and validates a preprocessor artifact from path.
func Load(path string) (*Preprocessor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read preprocessor artifact %s", path)
	}

	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, errors.Wrapf(err, "failed to parse preprocessor artifact %s", path)
	}

	return fromArtifact(a)
}

func fromArtifact(a Artifact) (*Preprocessor, error) {
	if a.ReferenceYear <= 0 {
		return nil, errors.Newf("preprocessor artifact has invalid reference_year %d", a.ReferenceYear)
	}
	if len(a.Numeric.Names) != len(numericNames) {
		return nil, errors.Newf("preprocessor artifact has %d numeric features, expected %d",
			len(a.Numeric.Names), len(numericNames))
	}
	for i, name := range numericNames {
		if a.Numeric.Names[i] != name {
			return nil, errors.Newf("preprocessor numeric feature %d is %q, expected %q",
				i, a.Numeric.Names[i], name)
		}
	}
	if len(a.Numeric.Mean) != len(numericNames) || len(a.Numeric.Scale) != len(numericNames) {
		return nil, errors.Newf("preprocessor mean/scale length mismatch: mean=%d scale=%d expected=%d",
			len(a.Numeric.Mean), len(a.Numeric.Scale), len(numericNames))
	}
	for i, s := range a.Numeric.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, errors.Newf("preprocessor scale[%d] (%s) is not a usable divisor: %v",
				i, numericNames[i], s)
		}
	}
	if len(a.Locations) == 0 {
		return nil, errors.New("preprocessor artifact has no location labels")
	}
	if len(a.Conditions) < 2 {
		return nil, errors.Newf("preprocessor artifact needs at least 2 condition labels, got %d",
			len(a.Conditions))
	}

	p := &Preprocessor{
		version:       a.Version,
		referenceYear: a.ReferenceYear,
		mean:          a.Numeric.Mean,
		scale:         a.Numeric.Scale,
		locations:     a.Locations,
		locIndex:      make(map[string]int, len(a.Locations)),
		conditions:    a.Conditions,
		condIndex:     make(map[string]int, len(a.Conditions)),
	}
	for i, l := range a.Locations {
		if _, dup := p.locIndex[l]; dup {
			return nil, errors.Newf("preprocessor artifact has duplicate location label %q", l)
		}
		p.locIndex[l] = i
	}
	for i, c := range a.Conditions {
		if _, dup := p.condIndex[c]; dup {
			return nil, errors.Newf("preprocessor artifact has duplicate condition label %q", c)
		}
		p.condIndex[c] = i
	}

	p.featureNames = make([]string, 0, len(numericNames)+len(a.Locations)+1)
	p.featureNames = append(p.featureNames, numericNames...)
	for _, l := range a.Locations {
		p.featureNames = append(p.featureNames, "loc_"+l)
	}
	p.featureNames = append(p.featureNames, "condition")

	return p, nil
}

// Version returns the artifact version string.
func (p *Preprocessor) Version() string { return p.version }

// Locations returns the accepted location labels, in artifact order.
func (p *Preprocessor) Locations() []string { return p.locations }

// Conditions returns the accepted condition labels, worst to best.
func (p *Preprocessor) Conditions() []string { return p.conditions }

// FeatureNames returns the output vector layout. The model artifact must
// declare the exact same names in the exact same order.
func (p *Preprocessor) FeatureNames() []string { return p.featureNames }

// NumFeatures returns the length of the output vector.
func (p *Preprocessor) NumFeatures() int { return len(p.featureNames) }

// Transform maps a validated request to the feature vector. It is
// deterministic: the same request always yields the same vector.
func (p *Preprocessor) Transform(req features.Request) ([]float64, error) {
	locIdx, ok := p.locIndex[req.Location]
	if !ok {
		return nil, errors.Newf("location %q not known to preprocessor", req.Location)
	}
	condIdx, ok := p.condIndex[req.Condition]
	if !ok {
		return nil, errors.Newf("condition %q not known to preprocessor", req.Condition)
	}

	houseAge := float64(p.referenceYear - req.YearBuilt)
	raw := []float64{req.Sqft, float64(req.Bedrooms), float64(req.Bathrooms), houseAge}

	x := make([]float64, 0, p.NumFeatures())
	for i, v := range raw {
		x = append(x, (v-p.mean[i])/p.scale[i])
	}
	for i := range p.locations {
		if i == locIdx {
			x = append(x, 1)
		} else {
			x = append(x, 0)
		}
	}
	x = append(x, float64(condIdx)/float64(len(p.conditions)-1))

	return x, nil
}
