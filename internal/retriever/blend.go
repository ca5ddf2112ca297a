package retriever

// Weights is the hybrid blend of vector similarity and normalized lexical score.
type Weights struct {
	Vector  float64
	Lexical float64
}

var DefaultWeights = Weights{Vector: 0.7, Lexical: 0.3}

// Blend combines per-row cosine scores with raw lexical scores, min-max
// normalizing the lexical side across the pool first.
func (w Weights) Blend(vector, lexical []float64) []float64 {
	normalized := MinMaxNormalize(lexical)
	out := make([]float64, len(vector))
	for i := range vector {
		out[i] = w.Vector*vector[i] + w.Lexical*normalized[i]
	}
	return out
}
