package classify

// typeBase holds each recording type's characteristic "full template"
// parameters before any preset or intensity shaping (spec.md §4.3).
var typeBase = map[RecordingType]AdaptiveParameters{
	Studio: {
		Compressor:        CompressorParams{Ratio: 2.0, ThresholdDB: -18, AttackMs: 15, ReleaseMs: 120, KneeDB: 6},
		EQ:                EQParams{BassGainDB: 0.5, MidGainDB: 0, TrebleGainDB: 0.5},
		StereoWidthFactor: 1.0,
		TargetLUFS:        -14,
		PreserveCharacter: 0.4,
		SourceConfidence:  1,
	},
	Bootleg: {
		Compressor:        CompressorParams{Ratio: 3.5, ThresholdDB: -24, AttackMs: 8, ReleaseMs: 180, KneeDB: 9},
		EQ:                EQParams{BassGainDB: -1.5, MidGainDB: 1.5, TrebleGainDB: -2.0},
		StereoWidthFactor: 0.9,
		TargetLUFS:        -16,
		PreserveCharacter: 0.25,
		SourceConfidence:  1,
	},
	Metal: {
		Compressor:        CompressorParams{Ratio: 4.5, ThresholdDB: -16, AttackMs: 5, ReleaseMs: 80, KneeDB: 3},
		EQ:                EQParams{BassGainDB: 1.5, MidGainDB: -1.0, TrebleGainDB: 1.0},
		StereoWidthFactor: 1.05,
		TargetLUFS:        -9,
		PreserveCharacter: 0.3,
		SourceConfidence:  1,
	},
	VintageAnalog: {
		Compressor:        CompressorParams{Ratio: 2.5, ThresholdDB: -20, AttackMs: 20, ReleaseMs: 250, KneeDB: 9},
		EQ:                EQParams{BassGainDB: 1.0, MidGainDB: 0.5, TrebleGainDB: -1.5},
		StereoWidthFactor: 0.95,
		TargetLUFS:        -15,
		PreserveCharacter: 0.55,
		SourceConfidence:  1,
	},
	HiRes: {
		Compressor:        CompressorParams{Ratio: 1.6, ThresholdDB: -20, AttackMs: 25, ReleaseMs: 200, KneeDB: 9},
		EQ:                EQParams{BassGainDB: 0, MidGainDB: 0, TrebleGainDB: 0.25},
		StereoWidthFactor: 1.1,
		TargetLUFS:        -16,
		PreserveCharacter: 0.6,
		SourceConfidence:  1,
	},
	BrightMaster: {
		Compressor:        CompressorParams{Ratio: 2.2, ThresholdDB: -14, AttackMs: 10, ReleaseMs: 100, KneeDB: 6},
		EQ:                EQParams{BassGainDB: 0.5, MidGainDB: -0.5, TrebleGainDB: -1.5},
		StereoWidthFactor: 1.0,
		TargetLUFS:        -10,
		PreserveCharacter: 0.35,
		SourceConfidence:  1,
	},
	DamagedStudio: {
		Compressor:        CompressorParams{Ratio: 3.0, ThresholdDB: -22, AttackMs: 12, ReleaseMs: 150, KneeDB: 9},
		EQ:                EQParams{BassGainDB: -0.5, MidGainDB: 1.0, TrebleGainDB: -2.5},
		StereoWidthFactor: 0.85,
		TargetLUFS:        -13,
		PreserveCharacter: 0.3,
		SourceConfidence:  1,
	},
}

// conservativeUnknown is the fallback template used when classifier
// confidence falls below its threshold (spec.md §4.3, §7 ErrClassifierUnknown).
var conservativeUnknown = AdaptiveParameters{
	Compressor:        CompressorParams{Ratio: 1.5, ThresholdDB: -20, AttackMs: 20, ReleaseMs: 200, KneeDB: 9},
	EQ:                EQParams{BassGainDB: 0, MidGainDB: 0, TrebleGainDB: 0},
	StereoWidthFactor: 1.0,
	TargetLUFS:        -14,
	PreserveCharacter: 0.6,
	SourceConfidence:  0,
}

// presetDelta is an additive/multiplicative shaping applied on top of a
// type's base template, keyed by the user-facing preset name.
type presetDelta struct {
	ratioMult     float64
	thresholdAdd  float64
	bassAdd       float64
	midAdd        float64
	trebleAdd     float64
	widthAdd      float64
	lufsAdd       float64
	preserveAdd   float64
}

var presetDeltas = map[Preset]presetDelta{
	PresetGentle:   {ratioMult: 0.6, thresholdAdd: 3, bassAdd: 0, midAdd: 0, trebleAdd: 0, widthAdd: 0, lufsAdd: 2, preserveAdd: 0.25},
	PresetPunchy:   {ratioMult: 1.5, thresholdAdd: -2, bassAdd: 1.0, midAdd: -0.5, trebleAdd: 0.5, widthAdd: 0.05, lufsAdd: -1, preserveAdd: -0.1},
	PresetWarm:     {ratioMult: 0.9, thresholdAdd: 0, bassAdd: 2.0, midAdd: 0.5, trebleAdd: -1.5, widthAdd: -0.05, lufsAdd: 0, preserveAdd: 0.1},
	PresetBright:   {ratioMult: 1.0, thresholdAdd: 0, bassAdd: -0.5, midAdd: 0, trebleAdd: 2.0, widthAdd: 0.05, lufsAdd: 0, preserveAdd: 0},
	PresetAdaptive: {ratioMult: 1.0, thresholdAdd: 0, bassAdd: 0, midAdd: 0, trebleAdd: 0, widthAdd: 0, lufsAdd: 0, preserveAdd: 0},
}

// noProcessing is the intensity=0 identity endpoint: compressor bypassed,
// flat EQ, natural stereo image, no gain pulled toward a target.
var noProcessing = AdaptiveParameters{
	Compressor:        CompressorParams{Ratio: 1, ThresholdDB: 0, AttackMs: 10, ReleaseMs: 100, KneeDB: 0},
	EQ:                EQParams{BassGainDB: 0, MidGainDB: 0, TrebleGainDB: 0},
	StereoWidthFactor: 1.0,
	TargetLUFS:        0, // 0 signals "no level targeting" to internal/master
	PreserveCharacter: 1.0,
	SourceConfidence:  1,
}

// fullTemplate combines a type's base template with a preset's shaping.
func fullTemplate(t RecordingType, preset Preset) AdaptiveParameters {
	base, ok := typeBase[t]
	if !ok {
		base = conservativeUnknown
	}
	d, ok := presetDeltas[preset]
	if !ok {
		d = presetDeltas[PresetAdaptive]
	}

	return AdaptiveParameters{
		Compressor: CompressorParams{
			Ratio:       base.Compressor.Ratio * d.ratioMult,
			ThresholdDB: base.Compressor.ThresholdDB + d.thresholdAdd,
			AttackMs:    base.Compressor.AttackMs,
			ReleaseMs:   base.Compressor.ReleaseMs,
			KneeDB:      base.Compressor.KneeDB,
		},
		EQ: EQParams{
			BassGainDB:   base.EQ.BassGainDB + d.bassAdd,
			MidGainDB:    base.EQ.MidGainDB + d.midAdd,
			TrebleGainDB: base.EQ.TrebleGainDB + d.trebleAdd,
		},
		StereoWidthFactor: clamp(base.StereoWidthFactor+d.widthAdd, 0, 2),
		TargetLUFS:        base.TargetLUFS + d.lufsAdd,
		PreserveCharacter: clamp(base.PreserveCharacter+d.preserveAdd, 0, 1),
		SourceConfidence:  base.SourceConfidence,
	}
}

// MapParameters turns a classification Result plus a user preset/intensity
// into the AdaptiveParameters consumed by internal/master. intensity linearly
// interpolates between no processing (0) and the full template (1).
func MapParameters(result Result, preset Preset, intensity float64) AdaptiveParameters {
	intensity = clamp(intensity, 0, 1)

	if result.Primary == Unknown {
		return lerp(noProcessing, fullTemplate(Unknown, preset), intensity)
	}

	if result.Hybrid {
		var blended AdaptiveParameters
		first := true
		for t, w := range result.Blend {
			tmpl := fullTemplate(t, preset)
			if first {
				blended = scaleParams(tmpl, w)
				first = false
				continue
			}
			blended = addParams(blended, scaleParams(tmpl, w))
		}
		return lerp(noProcessing, blended, intensity)
	}

	return lerp(noProcessing, fullTemplate(result.Primary, preset), intensity)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b AdaptiveParameters, t float64) AdaptiveParameters {
	return AdaptiveParameters{
		Compressor: CompressorParams{
			Ratio:       a.Compressor.Ratio + (b.Compressor.Ratio-a.Compressor.Ratio)*t,
			ThresholdDB: a.Compressor.ThresholdDB + (b.Compressor.ThresholdDB-a.Compressor.ThresholdDB)*t,
			AttackMs:    a.Compressor.AttackMs + (b.Compressor.AttackMs-a.Compressor.AttackMs)*t,
			ReleaseMs:   a.Compressor.ReleaseMs + (b.Compressor.ReleaseMs-a.Compressor.ReleaseMs)*t,
			KneeDB:      a.Compressor.KneeDB + (b.Compressor.KneeDB-a.Compressor.KneeDB)*t,
		},
		EQ: EQParams{
			BassGainDB:   a.EQ.BassGainDB + (b.EQ.BassGainDB-a.EQ.BassGainDB)*t,
			MidGainDB:    a.EQ.MidGainDB + (b.EQ.MidGainDB-a.EQ.MidGainDB)*t,
			TrebleGainDB: a.EQ.TrebleGainDB + (b.EQ.TrebleGainDB-a.EQ.TrebleGainDB)*t,
		},
		StereoWidthFactor: a.StereoWidthFactor + (b.StereoWidthFactor-a.StereoWidthFactor)*t,
		TargetLUFS:        a.TargetLUFS + (b.TargetLUFS-a.TargetLUFS)*t,
		PreserveCharacter: a.PreserveCharacter + (b.PreserveCharacter-a.PreserveCharacter)*t,
		SourceConfidence:  b.SourceConfidence,
	}
}

func scaleParams(p AdaptiveParameters, w float64) AdaptiveParameters {
	return AdaptiveParameters{
		Compressor: CompressorParams{
			Ratio:       p.Compressor.Ratio * w,
			ThresholdDB: p.Compressor.ThresholdDB * w,
			AttackMs:    p.Compressor.AttackMs * w,
			ReleaseMs:   p.Compressor.ReleaseMs * w,
			KneeDB:      p.Compressor.KneeDB * w,
		},
		EQ: EQParams{
			BassGainDB:   p.EQ.BassGainDB * w,
			MidGainDB:    p.EQ.MidGainDB * w,
			TrebleGainDB: p.EQ.TrebleGainDB * w,
		},
		StereoWidthFactor: p.StereoWidthFactor * w,
		TargetLUFS:        p.TargetLUFS * w,
		PreserveCharacter: p.PreserveCharacter * w,
		SourceConfidence:  p.SourceConfidence * w,
	}
}

func addParams(a, b AdaptiveParameters) AdaptiveParameters {
	return AdaptiveParameters{
		Compressor: CompressorParams{
			Ratio:       a.Compressor.Ratio + b.Compressor.Ratio,
			ThresholdDB: a.Compressor.ThresholdDB + b.Compressor.ThresholdDB,
			AttackMs:    a.Compressor.AttackMs + b.Compressor.AttackMs,
			ReleaseMs:   a.Compressor.ReleaseMs + b.Compressor.ReleaseMs,
			KneeDB:      a.Compressor.KneeDB + b.Compressor.KneeDB,
		},
		EQ: EQParams{
			BassGainDB:   a.EQ.BassGainDB + b.EQ.BassGainDB,
			MidGainDB:    a.EQ.MidGainDB + b.EQ.MidGainDB,
			TrebleGainDB: a.EQ.TrebleGainDB + b.EQ.TrebleGainDB,
		},
		StereoWidthFactor: a.StereoWidthFactor + b.StereoWidthFactor,
		TargetLUFS:        a.TargetLUFS + b.TargetLUFS,
		PreserveCharacter: a.PreserveCharacter + b.PreserveCharacter,
		SourceConfidence:  a.SourceConfidence + b.SourceConfidence,
	}
}
