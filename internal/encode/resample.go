package encode

// resampleLinear resamples interleaved PCM from srcRate to dstRate via
// linear interpolation, per channel. No resampling library appears in the
// retrieval pack's domain stack; this is a deliberately simple stdlib-only
// fallback for the encoder's fixed 48kHz requirement — see DESIGN.md.
func resampleLinear(samples []float64, srcRate, dstRate, channels int) []float64 {
	if srcRate == dstRate || len(samples) == 0 || channels == 0 {
		return samples
	}

	srcFrames := len(samples) / channels
	dstFrames := int(float64(srcFrames) * float64(dstRate) / float64(srcRate))
	out := make([]float64, dstFrames*channels)

	ratio := float64(srcRate) / float64(dstRate)
	for i := 0; i < dstFrames; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		for c := 0; c < channels; c++ {
			a := sampleAt(samples, idx, c, channels, srcFrames)
			b := sampleAt(samples, idx+1, c, channels, srcFrames)
			out[i*channels+c] = a + (b-a)*frac
		}
	}
	return out
}

func sampleAt(samples []float64, frame, channel, channels, totalFrames int) float64 {
	if frame >= totalFrames {
		frame = totalFrames - 1
	}
	if frame < 0 {
		frame = 0
	}
	return samples[frame*channels+channel]
}
