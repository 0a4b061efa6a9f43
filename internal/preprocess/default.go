// internal/preprocess/default.go
package preprocess

// Default returns a preprocessor with the standard label sets and rough
// dataset statistics. It backs mock-inference mode, where no fitted
// artifact is loaded but requests still need validation and transforming.
func Default() *Preprocessor {
	a := Artifact{
		Version:       "default",
		ReferenceYear: 2024,
	}
	a.Numeric.Names = []string{"sqft", "bedrooms", "bathrooms", "house_age"}
	a.Numeric.Mean = []float64{1800, 3, 2, 35}
	a.Numeric.Scale = []float64{850, 1.1, 0.8, 22}
	a.Locations = []string{"downtown", "suburban", "urban", "rural", "waterfront"}
	a.Conditions = []string{"poor", "fair", "good", "excellent"}

	p, err := fromArtifact(a)
	if err != nil {
		// The built-in artifact is static and always valid.
		panic(err)
	}
	return p
}
