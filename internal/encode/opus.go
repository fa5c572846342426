// Package encode turns mastered PCM into a progressively-appendable
// WebM/Opus byte stream (spec.md §4.5 "Encoder").
package encode

import (
	"math"

	"layeh.com/gopus"

	"github.com/wavecore/masterstream/internal/errors"
)

// OpusSampleRate is the only rate the codec processes at; PCM at any other
// source rate is resampled before encoding.
const OpusSampleRate = 48000

// opusFrameSamples is 20ms at OpusSampleRate, the conventional Opus frame size.
const opusFrameSamples = 960

// OpusBitrate targets the mid of the spec's 128-192 kbps range.
const OpusBitrate = 160000

// OpusEncoder wraps a libopus encoder instance for one audio track.
type OpusEncoder struct {
	enc      *gopus.Encoder
	channels int
}

// NewOpusEncoder builds an encoder for the given channel count.
func NewOpusEncoder(channels int) (*OpusEncoder, error) {
	enc, err := gopus.NewEncoder(OpusSampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, errors.EncoderError(err.Error())
	}
	enc.SetBitrate(OpusBitrate)
	return &OpusEncoder{enc: enc, channels: channels}, nil
}

// EncodeFrames resamples interleaved float64 PCM at sourceRate to 48kHz if
// needed, then splits it into 20ms Opus frames.
func (e *OpusEncoder) EncodeFrames(samples []float64, sourceRate int) ([][]byte, error) {
	pcm := samples
	if sourceRate != OpusSampleRate {
		pcm = resampleLinear(samples, sourceRate, OpusSampleRate, e.channels)
	}

	pcm16 := floatToInt16(pcm)
	frameLen := opusFrameSamples * e.channels

	var frames [][]byte
	for start := 0; start+frameLen <= len(pcm16); start += frameLen {
		data, err := e.enc.Encode(pcm16[start:start+frameLen], opusFrameSamples, frameLen*4)
		if err != nil {
			return nil, errors.EncoderError(err.Error())
		}
		frames = append(frames, data)
	}
	return frames, nil
}

func floatToInt16(x []float64) []int16 {
	out := make([]int16, len(x))
	for i, s := range x {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(math.Round(s * 32767))
	}
	return out
}
