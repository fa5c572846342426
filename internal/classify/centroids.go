package classify

import "math"

// projection is the lower-dimensional slice of the 25-dim fingerprint used
// for classification: the dominant dimensions named in spec.md §4.3.
type projection struct {
	lufs             float64
	crestDB          float64
	bassMidRatio     float64
	spectralCentroid float64
	stereoWidth      float64
	spectralFlatness float64
}

// scale holds per-axis normalization divisors so no single axis (e.g.
// spectral centroid, which spans thousands of Hz) dominates the Euclidean
// distance against axes like stereo width that live in [0,1].
var scale = projection{
	lufs:             10,
	crestDB:          5,
	bassMidRatio:     0.3,
	spectralCentroid: 1000,
	stereoWidth:      0.3,
	spectralFlatness: 0.15,
}

var centroids = map[RecordingType]projection{
	Studio:        {lufs: -14, crestDB: 12, bassMidRatio: 0.80, spectralCentroid: 2500, stereoWidth: 0.50, spectralFlatness: 0.15},
	Bootleg:       {lufs: -20, crestDB: 12, bassMidRatio: 0.60, spectralCentroid: 2000, stereoWidth: 0.30, spectralFlatness: 0.35},
	Metal:         {lufs: -9, crestDB: 6, bassMidRatio: 1.10, spectralCentroid: 3000, stereoWidth: 0.40, spectralFlatness: 0.25},
	VintageAnalog: {lufs: -16, crestDB: 14, bassMidRatio: 0.90, spectralCentroid: 1800, stereoWidth: 0.35, spectralFlatness: 0.30},
	HiRes:         {lufs: -18, crestDB: 16, bassMidRatio: 0.75, spectralCentroid: 3200, stereoWidth: 0.60, spectralFlatness: 0.12},
	BrightMaster:  {lufs: -10, crestDB: 8, bassMidRatio: 0.65, spectralCentroid: 4200, stereoWidth: 0.55, spectralFlatness: 0.18},
	DamagedStudio: {lufs: -12, crestDB: 7, bassMidRatio: 0.85, spectralCentroid: 2600, stereoWidth: 0.30, spectralFlatness: 0.45},
}

// scaledDistance returns the Euclidean distance between a and b after
// dividing each axis by its scale factor.
func scaledDistance(a, b projection) float64 {
	dl := (a.lufs - b.lufs) / scale.lufs
	dc := (a.crestDB - b.crestDB) / scale.crestDB
	db := (a.bassMidRatio - b.bassMidRatio) / scale.bassMidRatio
	dsc := (a.spectralCentroid - b.spectralCentroid) / scale.spectralCentroid
	dsw := (a.stereoWidth - b.stereoWidth) / scale.stereoWidth
	df := (a.spectralFlatness - b.spectralFlatness) / scale.spectralFlatness
	return math.Sqrt(dl*dl + dc*dc + db*db + dsc*dsc + dsw*dsw + df*df)
}
