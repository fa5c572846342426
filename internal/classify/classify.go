package classify

import (
	"sort"

	"github.com/wavecore/masterstream/internal/fingerprint"
)

// TypeScore is one recording type's soft-assignment confidence.
type TypeScore struct {
	Type       RecordingType
	Confidence float64
}

// Result is the classifier's output: either a single dominant type or a
// weighted blend across the top-k nearest types (spec.md §4.3).
type Result struct {
	Primary    RecordingType
	Confidence float64
	Scores     []TypeScore // all types, descending confidence
	Hybrid     bool
	Blend      map[RecordingType]float64 // populated only when Hybrid
}

// Classify runs the deterministic rule set: nearest-centroid soft
// assignment in the dominant-dimension projection, then the hybrid-blend
// decision from spec.md §4.3.
func Classify(v fingerprint.Vector, cfg Config) Result {
	p := projection{
		lufs:             v.LUFS,
		crestDB:          v.CrestDB,
		bassMidRatio:     v.BassMidRatio,
		spectralCentroid: v.SpectralCentroid,
		stereoWidth:      v.StereoWidth,
		spectralFlatness: v.SpectralFlatness,
	}

	scores := make([]TypeScore, 0, len(AllTypes))
	var inverseSum float64
	const eps = 1e-6
	for _, t := range AllTypes {
		d := scaledDistance(p, centroids[t])
		inv := 1 / (d + eps)
		scores = append(scores, TypeScore{Type: t, Confidence: inv})
		inverseSum += inv
	}
	for i := range scores {
		scores[i].Confidence /= inverseSum
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Confidence > scores[j].Confidence })

	topK := cfg.TopK
	if topK > len(scores) {
		topK = len(scores)
	}
	var hybridSum float64
	for i := 0; i < topK; i++ {
		hybridSum += scores[i].Confidence
	}

	dominance := scores[0].Confidence

	result := Result{Scores: scores}

	if dominance < cfg.DominanceThreshold && hybridSum >= cfg.HybridThreshold {
		blend := make(map[RecordingType]float64, topK)
		for i := 0; i < topK; i++ {
			blend[scores[i].Type] = scores[i].Confidence / hybridSum
		}
		result.Primary = scores[0].Type
		result.Confidence = dominance
		result.Hybrid = true
		result.Blend = blend
		return result
	}

	if dominance >= cfg.ConfidenceThreshold {
		result.Primary = scores[0].Type
		result.Confidence = dominance
		return result
	}

	result.Primary = Unknown
	result.Confidence = dominance
	return result
}
