package pcm

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
	"github.com/wavecore/masterstream/internal/errors"
)

// DecodeWAV reads a WAV stream into a canonical Buffer, normalizing
// integer samples to float64 in [-1, 1]. Mirrors the teacher's
// internal/waveform decode idiom (wav.NewDecoder + FullPCMBuffer), swapped
// from an image-generation consumer to the mastering pipeline's PCM
// consumer.
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.DecodeError("not a valid WAV file")
	}

	intBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.DecodeError(fmt.Sprintf("failed to read PCM buffer: %v", err))
	}
	if intBuf == nil || len(intBuf.Data) == 0 {
		return nil, errors.DecodeError("empty PCM buffer")
	}

	bitDepth := intBuf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	maxVal := math.Pow(2, float64(bitDepth-1))

	channels := intBuf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	samples := make([]float64, len(intBuf.Data))
	for i, v := range intBuf.Data {
		samples[i] = float64(v) / maxVal
	}

	return &Buffer{
		SampleRate: intBuf.Format.SampleRate,
		Channels:   channels,
		Samples:    samples,
	}, nil
}
