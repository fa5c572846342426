// Package fingerprint computes the 25-dimension audio fingerprint vector
// used to classify a track and select its mastering preset (spec.md §4.2).
package fingerprint

import (
	"context"

	"github.com/wavecore/masterstream/internal/errors"
	"github.com/wavecore/masterstream/internal/pcm"
)

// SchemaVersion identifies the field layout extract/hash.go serializes.
// Bump alongside database.FingerprintVersion if fieldOrder ever changes.
const SchemaVersion = 1

// Fingerprint is a computed vector plus its integrity hash and schema
// version, the unit persisted by internal/database.
type Fingerprint struct {
	Vector        Vector
	SchemaVersion int
	Hash          string
}

// Computer computes a Fingerprint from decoded PCM. One local implementation
// exists today; the interface leaves room for a remote (e.g. GPU-backed)
// implementation later without touching callers.
type Computer interface {
	Compute(ctx context.Context, buf *pcm.Buffer) (*Fingerprint, error)
}

// LocalComputer runs the full DSP pipeline in-process.
type LocalComputer struct{}

// NewLocalComputer builds the in-process fingerprint Computer.
func NewLocalComputer() *LocalComputer {
	return &LocalComputer{}
}

// Compute implements Computer. Returns errors.InputTooShort if buf is
// shorter than one second (spec.md §4.2).
func (c *LocalComputer) Compute(ctx context.Context, buf *pcm.Buffer) (*Fingerprint, error) {
	if buf.Duration() < 1.0 {
		return nil, errors.InputTooShort("fingerprint input must be at least 1 second")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err.Error())
	}

	mono := buf.Mono()
	v, err := extract(mono, buf.SampleRate)
	if err != nil {
		return nil, err
	}

	if buf.Channels >= 2 {
		left, _ := buf.Channel(0)
		right, _ := buf.Channel(1)
		extractStereo(v, left, right)
	} else {
		v.StereoWidth = 0
		v.PhaseCorrelation = 1
	}

	fp := &Fingerprint{Vector: *v, SchemaVersion: SchemaVersion}
	fp.Hash = fp.Vector.Hash()
	return fp, nil
}
