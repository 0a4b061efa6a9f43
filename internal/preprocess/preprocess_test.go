// internal/preprocess/preprocess_test.go
package preprocess

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mkale2207/house-price-service/internal/features"
)

const testArtifact = `{
  "version": "test-1",
  "reference_year": 2024,
  "numeric": {
    "names": ["sqft", "bedrooms", "bathrooms", "house_age"],
    "mean": [1800, 3, 2, 35],
    "scale": [850, 1.1, 0.8, 22]
  },
  "locations": ["downtown", "suburban", "urban", "rural", "waterfront"],
  "conditions": ["poor", "fair", "good", "excellent"]
}`

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preprocessor.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}
	return path
}

func testRequest() features.Request {
	return features.Request{
		Sqft:      1500,
		Bedrooms:  3,
		Bathrooms: 2,
		Location:  "suburban",
		YearBuilt: 2000,
		Condition: "fair",
	}
}

func TestLoad_ValidArtifact(t *testing.T) {
	p, err := Load(writeArtifact(t, testArtifact))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if p.Version() != "test-1" {
		t.Errorf("Version = %q, expected test-1", p.Version())
	}
	if p.NumFeatures() != 10 {
		t.Errorf("NumFeatures = %d, expected 10", p.NumFeatures())
	}

	wantNames := []string{
		"sqft", "bedrooms", "bathrooms", "house_age",
		"loc_downtown", "loc_suburban", "loc_urban", "loc_rural", "loc_waterfront",
		"condition",
	}
	if !reflect.DeepEqual(p.FeatureNames(), wantNames) {
		t.Errorf("FeatureNames = %v, expected %v", p.FeatureNames(), wantNames)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("Expected error for missing artifact, got nil")
	}
}

func TestLoad_RejectsBadArtifacts(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"zero scale", `{"version":"x","reference_year":2024,
			"numeric":{"names":["sqft","bedrooms","bathrooms","house_age"],
			"mean":[0,0,0,0],"scale":[1,1,0,1]},
			"locations":["a"],"conditions":["bad","good"]}`},
		{"wrong numeric names", `{"version":"x","reference_year":2024,
			"numeric":{"names":["area","bedrooms","bathrooms","house_age"],
			"mean":[0,0,0,0],"scale":[1,1,1,1]},
			"locations":["a"],"conditions":["bad","good"]}`},
		{"no locations", `{"version":"x","reference_year":2024,
			"numeric":{"names":["sqft","bedrooms","bathrooms","house_age"],
			"mean":[0,0,0,0],"scale":[1,1,1,1]},
			"locations":[],"conditions":["bad","good"]}`},
		{"single condition", `{"version":"x","reference_year":2024,
			"numeric":{"names":["sqft","bedrooms","bathrooms","house_age"],
			"mean":[0,0,0,0],"scale":[1,1,1,1]},
			"locations":["a"],"conditions":["good"]}`},
		{"duplicate location", `{"version":"x","reference_year":2024,
			"numeric":{"names":["sqft","bedrooms","bathrooms","house_age"],
			"mean":[0,0,0,0],"scale":[1,1,1,1]},
			"locations":["a","a"],"conditions":["bad","good"]}`},
		{"missing reference year", `{"version":"x",
			"numeric":{"names":["sqft","bedrooms","bathrooms","house_age"],
			"mean":[0,0,0,0],"scale":[1,1,1,1]},
			"locations":["a"],"conditions":["bad","good"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeArtifact(t, tt.content)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestTransform_FeatureLayout(t *testing.T) {
	p, err := Load(writeArtifact(t, testArtifact))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	x, err := p.Transform(testRequest())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if len(x) != p.NumFeatures() {
		t.Fatalf("len(x) = %d, expected %d", len(x), p.NumFeatures())
	}

	// Standardized numerics
	wantSqft := (1500.0 - 1800.0) / 850.0
	if math.Abs(x[0]-wantSqft) > 1e-12 {
		t.Errorf("x[0] = %v, expected %v", x[0], wantSqft)
	}
	wantAge := (float64(2024-2000) - 35.0) / 22.0
	if math.Abs(x[3]-wantAge) > 1e-12 {
		t.Errorf("x[3] = %v, expected %v", x[3], wantAge)
	}

	// One-hot block: suburban is index 1 of 5 locations
	oneHot := x[4:9]
	for i, v := range oneHot {
		want := 0.0
		if i == 1 {
			want = 1.0
		}
		if v != want {
			t.Errorf("one-hot[%d] = %v, expected %v", i, v, want)
		}
	}

	// Ordinal condition: "fair" is index 1 of 4 -> 1/3
	if math.Abs(x[9]-1.0/3.0) > 1e-12 {
		t.Errorf("x[9] = %v, expected %v", x[9], 1.0/3.0)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	p, err := Load(writeArtifact(t, testArtifact))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	a, err := p.Transform(testRequest())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	b, err := p.Transform(testRequest())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Errorf("Transform is not deterministic: %v vs %v", a, b)
	}
}

func TestTransform_UnknownLabel(t *testing.T) {
	p, err := Load(writeArtifact(t, testArtifact))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	req := testRequest()
	req.Location = "atlantis"
	if _, err := p.Transform(req); err == nil {
		t.Error("Expected error for unknown location, got nil")
	}

	req = testRequest()
	req.Condition = "pristine"
	if _, err := p.Transform(req); err == nil {
		t.Error("Expected error for unknown condition, got nil")
	}
}

func TestDefault_MatchesSchemaExpectations(t *testing.T) {
	p := Default()

	if p.NumFeatures() != 10 {
		t.Errorf("NumFeatures = %d, expected 10", p.NumFeatures())
	}
	if len(p.Locations()) != 5 {
		t.Errorf("Locations = %v, expected 5 labels", p.Locations())
	}
	if len(p.Conditions()) != 4 {
		t.Errorf("Conditions = %v, expected 4 labels", p.Conditions())
	}

	if _, err := p.Transform(testRequest()); err != nil {
		t.Errorf("Default preprocessor rejected a valid request: %v", err)
	}
}
