package fingerprint

import (
	"math"

	"github.com/wavecore/masterstream/internal/dsp"
)

// band is a named frequency range in Hz used for the seven frequency-
// distribution dimensions (spec.md §4.2).
type band struct {
	lo, hi float64
}

var bands = []band{
	{20, 60},     // sub-bass
	{60, 250},    // bass
	{250, 500},   // low-mid
	{500, 2000},  // mid
	{2000, 4000}, // upper-mid
	{4000, 6000}, // presence
	{6000, 20000},// air
}

const analysisFrameSize = 4096

// extract computes the 25-dimension Vector from a mono signal at sampleRate.
// Callers enforce the >= 1 second contract before calling this.
func extract(mono []float64, sampleRate int) (*Vector, error) {
	spec, err := dsp.Forward(mono, dsp.DefaultSTFTConfig(analysisFrameSize))
	if err != nil {
		return nil, err
	}
	mag := spec.Magnitude()
	avgSpectrum := averageSpectrum(mag)
	binHz := float64(sampleRate) / float64(analysisFrameSize)

	v := &Vector{}

	bandEnergies := make([]float64, len(bands))
	var totalEnergy float64
	for bin, m := range avgSpectrum {
		freq := float64(bin) * binHz
		e := m * m
		totalEnergy += e
		for i, b := range bands {
			if freq >= b.lo && freq < b.hi {
				bandEnergies[i] += e
			}
		}
	}
	if totalEnergy < 1e-12 {
		totalEnergy = 1e-12
	}
	v.SubBassPct = bandEnergies[0] / totalEnergy
	v.BassPct = bandEnergies[1] / totalEnergy
	v.LowMidPct = bandEnergies[2] / totalEnergy
	v.MidPct = bandEnergies[3] / totalEnergy
	v.UpperMidPct = bandEnergies[4] / totalEnergy
	v.PresencePct = bandEnergies[5] / totalEnergy
	v.AirPct = bandEnergies[6] / totalEnergy

	rms, peak := rmsPeak(mono)
	v.LUFS = 20*math.Log10(math.Max(rms, 1e-10)) - 0.691
	v.CrestDB = 20 * math.Log10(math.Max(peak, 1e-10)/math.Max(rms, 1e-10))
	v.BassMidRatio = bandEnergies[1] / math.Max(bandEnergies[3], 1e-12)

	v.SpectralCentroid = spectralCentroid(avgSpectrum, binHz)
	v.SpectralRolloff = spectralRolloff(avgSpectrum, binHz, 0.85)
	v.SpectralFlatness = spectralFlatness(avgSpectrum)

	tempo, stability, density := estimateRhythm(mono, sampleRate)
	v.TempoBPM = tempo
	v.RhythmStability = stability
	v.TransientDensity = density
	v.SilenceRatio = silenceRatio(mono, sampleRate)

	hpss, err := dsp.Separate(mono, dsp.DefaultHPSSConfig(analysisFrameSize))
	if err != nil {
		return nil, err
	}
	v.HarmonicRatio = hpss.HarmonicRatio

	pitch := dsp.TrackPitch(mono, dsp.DefaultYINConfig(sampleRate))
	v.PitchStability = pitch.PitchStability

	chroma := dsp.ComputeChromagram(mono, sampleRate)
	v.ChromaEnergy = chroma.ChromaEnergy

	dr, lv, pc := loudnessVariation(mono, sampleRate)
	v.DynamicRangeVariation = dr
	v.LoudnessVariationStd = lv
	v.PeakConsistency = pc

	return v, nil
}

// extractStereo fills in the two stereo dimensions from a stereo buffer;
// mono-only callers leave these at their default (no width, full
// correlation), per spec.md §4.2's stereo-input contract.
func extractStereo(v *Vector, left, right []float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if n == 0 {
		v.StereoWidth = 0
		v.PhaseCorrelation = 1
		return
	}

	var midEnergy, sideEnergy float64
	for i := 0; i < n; i++ {
		mid := (left[i] + right[i]) / 2
		side := (left[i] - right[i]) / 2
		midEnergy += mid * mid
		sideEnergy += side * side
	}
	v.StereoWidth = sideEnergy / math.Max(midEnergy+sideEnergy, 1e-12)
	v.PhaseCorrelation = pearsonCorrelation(left[:n], right[:n])
}

func averageSpectrum(mag [][]float64) []float64 {
	if len(mag) == 0 {
		return nil
	}
	numBins := len(mag[0])
	avg := make([]float64, numBins)
	for _, row := range mag {
		for b, v := range row {
			avg[b] += v
		}
	}
	for b := range avg {
		avg[b] /= float64(len(mag))
	}
	return avg
}

func rmsPeak(x []float64) (rms, peak float64) {
	var sumSq float64
	for _, s := range x {
		sumSq += s * s
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if len(x) > 0 {
		rms = math.Sqrt(sumSq / float64(len(x)))
	}
	return rms, peak
}

func spectralCentroid(spectrum []float64, binHz float64) float64 {
	var num, den float64
	for b, m := range spectrum {
		freq := float64(b) * binHz
		num += freq * m
		den += m
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

func spectralRolloff(spectrum []float64, binHz, fraction float64) float64 {
	var total float64
	for _, m := range spectrum {
		total += m
	}
	if total < 1e-12 {
		return 0
	}
	threshold := total * fraction
	var cumulative float64
	for b, m := range spectrum {
		cumulative += m
		if cumulative >= threshold {
			return float64(b) * binHz
		}
	}
	return float64(len(spectrum)-1) * binHz
}

func spectralFlatness(spectrum []float64) float64 {
	var logSum, sum float64
	n := 0
	for _, m := range spectrum {
		v := math.Max(m, 1e-12)
		logSum += math.Log(v)
		sum += v
		n++
	}
	if n == 0 || sum < 1e-12 {
		return 0
	}
	geoMean := math.Exp(logSum / float64(n))
	arithMean := sum / float64(n)
	return geoMean / arithMean
}

// estimateRhythm derives tempo (BPM), rhythm stability, and transient
// density from a half-wave-rectified onset envelope built from 20ms RMS
// frames, via lag autocorrelation over the 40-200 BPM range.
func estimateRhythm(x []float64, sampleRate int) (tempoBPM, stability, density float64) {
	hop := sampleRate / 50
	if hop < 1 {
		hop = 1
	}
	env := make([]float64, 0, len(x)/hop+1)
	for start := 0; start < len(x); start += hop {
		end := start + hop
		if end > len(x) {
			end = len(x)
		}
		var sumSq float64
		for i := start; i < end; i++ {
			sumSq += x[i] * x[i]
		}
		env = append(env, math.Sqrt(sumSq/float64(end-start)))
	}
	if len(env) < 4 {
		return 0, 0, 0
	}

	onset := make([]float64, len(env))
	for i := 1; i < len(env); i++ {
		d := env[i] - env[i-1]
		if d > 0 {
			onset[i] = d
		}
	}

	frameDur := float64(hop) / float64(sampleRate)
	minLag := int(60.0 / 200.0 / frameDur)
	maxLag := int(60.0 / 40.0 / frameDur)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}

	var bestLag int
	var bestCorr float64
	var corrSum float64
	var corrCount int
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(onset); i++ {
			corr += onset[i] * onset[i+lag]
		}
		corrSum += corr
		corrCount++
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag > 0 {
		tempoBPM = 60.0 / (float64(bestLag) * frameDur)
	}
	if corrCount > 0 {
		meanCorr := corrSum / float64(corrCount)
		stability = math.Min(1, bestCorr/math.Max(meanCorr, 1e-12)/float64(corrCount))
	}

	var mean, variance float64
	for _, v := range onset {
		mean += v
	}
	mean /= float64(len(onset))
	for _, v := range onset {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(onset))
	threshold := mean + math.Sqrt(variance)

	var peaks int
	for i := 1; i < len(onset)-1; i++ {
		if onset[i] > threshold && onset[i] >= onset[i-1] && onset[i] >= onset[i+1] {
			peaks++
		}
	}
	durationSec := float64(len(x)) / float64(sampleRate)
	if durationSec > 0 {
		density = float64(peaks) / durationSec
	}
	return tempoBPM, stability, density
}

func silenceRatio(x []float64, sampleRate int) float64 {
	frameLen := sampleRate / 20 // 50ms
	if frameLen < 1 {
		frameLen = 1
	}
	var silent, total int
	for start := 0; start < len(x); start += frameLen {
		end := start + frameLen
		if end > len(x) {
			end = len(x)
		}
		rms, _ := rmsPeak(x[start:end])
		db := 20 * math.Log10(math.Max(rms, 1e-10))
		if db < -60 {
			silent++
		}
		total++
	}
	if total == 0 {
		return 0
	}
	return float64(silent) / float64(total)
}

// loudnessVariation computes the std of per-second crest factor and
// loudness, plus a peak-consistency score, over 1-second analysis frames.
func loudnessVariation(x []float64, sampleRate int) (dynamicRangeVariation, loudnessVariationStd, peakConsistency float64) {
	frameLen := sampleRate
	if frameLen < 1 {
		frameLen = 1
	}
	var crests, loudnesses, peaks []float64
	for start := 0; start+frameLen <= len(x) || start == 0; start += frameLen {
		end := start + frameLen
		if end > len(x) {
			end = len(x)
		}
		if start >= end {
			break
		}
		rms, peak := rmsPeak(x[start:end])
		crestDB := 20 * math.Log10(math.Max(peak, 1e-10)/math.Max(rms, 1e-10))
		loudDB := 20 * math.Log10(math.Max(rms, 1e-10))
		crests = append(crests, crestDB)
		loudnesses = append(loudnesses, loudDB)
		peaks = append(peaks, peak)
		if end == len(x) {
			break
		}
	}

	dynamicRangeVariation = stddev(crests)
	loudnessVariationStd = stddev(loudnesses)

	peakStd := stddev(peaks)
	var peakMean float64
	for _, p := range peaks {
		peakMean += p
	}
	if len(peaks) > 0 {
		peakMean /= float64(len(peaks))
	}
	if peakMean < 1e-12 {
		peakConsistency = 1
	} else {
		peakConsistency = math.Max(0, 1-peakStd/peakMean)
	}
	return dynamicRangeVariation, loudnessVariationStd, peakConsistency
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func pearsonCorrelation(a, b []float64) float64 {
	n := len(a)
	if n == 0 {
		return 1
	}
	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	denom := math.Sqrt(varA * varB)
	if denom < 1e-12 {
		return 1
	}
	return cov / denom
}
