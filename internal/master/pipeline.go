package master

import (
	"context"
	"math"

	"github.com/wavecore/masterstream/internal/classify"
	"github.com/wavecore/masterstream/internal/dsp"
	"github.com/wavecore/masterstream/internal/errors"
	"github.com/wavecore/masterstream/internal/pcm"
)

// lufsOffset is the same ITU-ish ungated-approximation offset internal/fingerprint
// uses to derive LUFS from RMS; inverted here to recover a target RMS from a
// target LUFS.
const lufsOffset = 0.691

// BuildChunk masters one chunk of track in source order, applying params and
// threading state across the call (spec.md §4.4). Callers MUST invoke this
// with chunkIndex == state's next expected index; chunk builds for a given
// stream are not safe to parallelize (spec.md §5).
func BuildChunk(ctx context.Context, track *pcm.Buffer, chunkIndex int, params classify.AdaptiveParameters, cfg Config, state *StreamState) (*ProcessedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err.Error())
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if chunkIndex != state.LastChunkIndex+1 {
		return nil, errors.DSPError("ordering", chunkIndex, nil)
	}

	sampleRate := track.SampleRate
	channels := track.Channels
	chunkLen := cfg.ChunkDurationSec * sampleRate
	contextLen := cfg.ContextDurationSec * sampleRate
	crossfadeLen := (cfg.CrossfadeMs * sampleRate) / 1000

	audibleStart := chunkIndex * chunkLen
	windowStart := audibleStart - contextLen
	windowLen := chunkLen + 2*contextLen

	clampedStart := windowStart
	if clampedStart < 0 {
		clampedStart = 0
	}
	offset := audibleStart - clampedStart

	window := track.Window(windowStart, windowLen)
	audibleLen := chunkLen
	if offset+audibleLen > window.Frames() {
		audibleLen = window.Frames() - offset
	}
	if audibleLen <= 0 {
		return nil, errors.DSPError("window", chunkIndex, nil)
	}

	sourceChannels := make([][]float64, channels)
	rawChannels := make([][]float64, channels)
	var clampedSamples int
	for c := 0; c < channels; c++ {
		raw, err := window.Channel(c)
		if err != nil {
			return nil, errors.DSPError("window", chunkIndex, err)
		}
		for i, s := range raw {
			if math.IsNaN(s) || math.IsInf(s, 0) {
				raw[i] = 0
				clampedSamples++
			}
		}
		rawChannels[c] = raw
		sourceChannels[c] = append([]float64(nil), raw[offset:offset+audibleLen]...)
	}

	eqOut := make([][]float64, channels)
	for c := 0; c < channels; c++ {
		eqOut[c] = applyEQ(rawChannels[c], params.EQ, sampleRate)
	}

	newEnvelopes := make([]dsp.EnvelopeState, channels)
	compOut := make([][]float64, channels)
	compressor := dsp.NewCompressor(dsp.CompressorConfig{
		ThresholdDB: params.Compressor.ThresholdDB,
		Ratio:       params.Compressor.Ratio,
		AttackMs:    params.Compressor.AttackMs,
		ReleaseMs:   params.Compressor.ReleaseMs,
		KneeDB:      params.Compressor.KneeDB,
	}, sampleRate)
	for c := 0; c < channels; c++ {
		out, next := compressor.ProcessChannel(eqOut[c], state.Envelopes[c])
		compOut[c] = out
		newEnvelopes[c] = next
	}

	if channels == 2 {
		applyStereoWidth(compOut[0], compOut[1], params.StereoWidthFactor)
	}

	processedAudible := make([][]float64, channels)
	for c := 0; c < channels; c++ {
		processedAudible[c] = append([]float64(nil), compOut[c][offset:offset+audibleLen]...)
	}

	gainDB := state.PrevGainDB
	if params.TargetLUFS != 0 {
		measuredRMS, _ := combinedRMSPeak(processedAudible)
		measuredDB := 20 * math.Log10(math.Max(measuredRMS, 1e-10))
		targetDB := params.TargetLUFS + lufsOffset
		d := measuredDB - targetDB
		delta := d - state.PrevGainDB
		step := math.Min(math.Abs(delta), cfg.MaxDBDeltaPerChunk)
		if delta < 0 {
			step = -step
		}
		gainDB = clampGain(state.PrevGainDB+step, minGainDB, maxGainDB)
	}
	gainLinear := math.Pow(10, gainDB/20)

	limiter := dsp.NewSoftLimiter(cfg.SoftCeilingDBFS)
	outChannels := make([][]float64, channels)
	for c := 0; c < channels; c++ {
		gained := make([]float64, audibleLen)
		for i, s := range processedAudible[c] {
			gained[i] = s * gainLinear
		}
		limited := limiter.ProcessBuffer(gained)

		blended := make([]float64, audibleLen)
		preserve := params.PreserveCharacter
		for i := range blended {
			blended[i] = preserve*sourceChannels[c][i] + (1-preserve)*limited[i]
		}
		outChannels[c] = blended
	}

	appliedCrossfade := 0
	if state.LastChunkIndex >= 0 && crossfadeLen > 0 && len(state.Tail) == channels {
		for c := 0; c < channels; c++ {
			tail := state.Tail[c]
			n := crossfadeLen
			if n > len(outChannels[c]) {
				n = len(outChannels[c])
			}
			if n > len(tail) {
				n = len(tail)
			}
			if n > 0 {
				faded := dsp.EqualPowerCrossfade(tail[:n], outChannels[c][:n])
				copy(outChannels[c][:n], faded)
				appliedCrossfade = n
			}
		}
	}

	newTail := make([][]float64, channels)
	for c := 0; c < channels; c++ {
		n := crossfadeLen
		if n > len(outChannels[c]) {
			n = len(outChannels[c])
		}
		newTail[c] = append([]float64(nil), outChannels[c][len(outChannels[c])-n:]...)
	}

	interleaved := make([]float64, audibleLen*channels)
	for i := 0; i < audibleLen; i++ {
		for c := 0; c < channels; c++ {
			interleaved[i*channels+c] = outChannels[c][i]
		}
	}

	state.Envelopes = newEnvelopes
	state.PrevGainDB = gainDB
	state.Tail = newTail
	state.LastChunkIndex = chunkIndex

	return &ProcessedChunk{
		ChunkIndex:       chunkIndex,
		SampleRate:       sampleRate,
		Channels:         channels,
		Samples:          interleaved,
		AudibleFrames:    audibleLen,
		CrossfadeSamples: appliedCrossfade,
		GainDB:           gainDB,
		ClampedSamples:   clampedSamples,
	}, nil
}

// applyEQ cascades low-shelf, peaking, and high-shelf biquads (spec.md §4.4
// step 2). Filter state is fresh per call; the surrounding context samples
// carry the warm-up.
func applyEQ(x []float64, eq classify.EQParams, sampleRate int) []float64 {
	lowShelf := dsp.NewLowShelf(200, eq.BassGainDB, sampleRate)
	peaking := dsp.NewPeaking(1000, 1.0, eq.MidGainDB, sampleRate)
	highShelf := dsp.NewHighShelf(5000, eq.TrebleGainDB, sampleRate)

	out := lowShelf.ProcessBuffer(x)
	out = peaking.ProcessBuffer(out)
	out = highShelf.ProcessBuffer(out)
	return out
}

// applyStereoWidth scales the mid/side decomposition of left and right by
// factor in place (spec.md §4.4 step 4); factor=1.0 is identity.
func applyStereoWidth(left, right []float64, factor float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		mid := (left[i] + right[i]) / 2
		side := (left[i] - right[i]) / 2 * factor
		left[i] = mid + side
		right[i] = mid - side
	}
}

func combinedRMSPeak(channels [][]float64) (rms, peak float64) {
	var sumSq float64
	var n int
	for _, ch := range channels {
		for _, s := range ch {
			sumSq += s * s
			if a := math.Abs(s); a > peak {
				peak = a
			}
			n++
		}
	}
	if n > 0 {
		rms = math.Sqrt(sumSq / float64(n))
	}
	return rms, peak
}

func clampGain(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
