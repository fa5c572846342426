package fingerprint

// Vector holds the 25 named real scalars from spec.md §4.2. Field order
// matches the canonical serialization order in spec.md §6.1 exactly — do
// not reorder without bumping database.FingerprintVersion.
type Vector struct {
	SubBassPct float64 `json:"sub_bass_pct"`
	BassPct    float64 `json:"bass_pct"`
	LowMidPct  float64 `json:"low_mid_pct"`
	MidPct     float64 `json:"mid_pct"`
	UpperMidPct float64 `json:"upper_mid_pct"`
	PresencePct float64 `json:"presence_pct"`
	AirPct      float64 `json:"air_pct"`

	LUFS         float64 `json:"lufs"`
	CrestDB      float64 `json:"crest_db"`
	BassMidRatio float64 `json:"bass_mid_ratio"`

	TempoBPM         float64 `json:"tempo_bpm"`
	RhythmStability  float64 `json:"rhythm_stability"`
	TransientDensity float64 `json:"transient_density"`
	SilenceRatio     float64 `json:"silence_ratio"`

	SpectralCentroid float64 `json:"spectral_centroid"`
	SpectralRolloff  float64 `json:"spectral_rolloff"`
	SpectralFlatness float64 `json:"spectral_flatness"`

	HarmonicRatio  float64 `json:"harmonic_ratio"`
	PitchStability float64 `json:"pitch_stability"`
	ChromaEnergy   float64 `json:"chroma_energy"`

	DynamicRangeVariation float64 `json:"dynamic_range_variation"`
	LoudnessVariationStd  float64 `json:"loudness_variation_std"`
	PeakConsistency       float64 `json:"peak_consistency"`

	StereoWidth      float64 `json:"stereo_width"`
	PhaseCorrelation float64 `json:"phase_correlation"`
}

// fieldOrder lists the 25 fields in the exact canonical order from
// spec.md §6.1, used for both hashing and serialization.
func (v *Vector) fieldOrder() [25]float64 {
	return [25]float64{
		v.SubBassPct, v.BassPct, v.LowMidPct, v.MidPct, v.UpperMidPct, v.PresencePct, v.AirPct,
		v.LUFS, v.CrestDB, v.BassMidRatio,
		v.TempoBPM, v.RhythmStability, v.TransientDensity, v.SilenceRatio,
		v.SpectralCentroid, v.SpectralRolloff, v.SpectralFlatness,
		v.HarmonicRatio, v.PitchStability, v.ChromaEnergy,
		v.DynamicRangeVariation, v.LoudnessVariationStd, v.PeakConsistency,
		v.StereoWidth, v.PhaseCorrelation,
	}
}
