// Package audio resolves a track id to decoded PCM, transcoding through
// FFmpeg when the source file isn't already WAV. Both internal/queue's
// fingerprint workers and internal/stream's playback sessions load tracks
// through this package.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wavecore/masterstream/internal/errors"
	"github.com/wavecore/masterstream/internal/pcm"
)

// Store loads tracks from a flat directory: rootDir/<track_id>.<ext>.
type Store struct {
	rootDir string
	tempDir string
}

// NewStore builds a Store rooted at rootDir, using os.TempDir for FFmpeg
// transcode scratch space.
func NewStore(rootDir string) *Store {
	return &Store{rootDir: rootDir, tempDir: os.TempDir()}
}

// Load resolves trackID to a source file under rootDir and decodes it to a
// pcm.Buffer, transcoding through FFmpeg first when it isn't already WAV.
func (s *Store) Load(ctx context.Context, trackID string) (*pcm.Buffer, error) {
	path, err := s.resolve(trackID)
	if err != nil {
		return nil, errors.DecodeError(err.Error())
	}

	if filepath.Ext(path) == ".wav" {
		return s.decodeFile(path)
	}

	wavPath, err := s.transcodeToWAV(ctx, path)
	if err != nil {
		return nil, errors.DecodeError(err.Error())
	}
	defer os.Remove(wavPath)

	return s.decodeFile(wavPath)
}

func (s *Store) decodeFile(path string) (*pcm.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.DecodeError(err.Error())
	}
	defer f.Close()
	return pcm.DecodeWAV(f)
}

// resolve finds the source file for trackID, trying common audio
// extensions in order of how likely uploads actually are.
func (s *Store) resolve(trackID string) (string, error) {
	for _, ext := range []string{".wav", ".flac", ".mp3", ".m4a", ".ogg"} {
		candidate := filepath.Join(s.rootDir, trackID+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no source audio found for track %s under %s", trackID, s.rootDir)
}

// transcodeToWAV shells out to FFmpeg to produce a 44.1kHz stereo WAV file
// go-audio/wav can decode natively; no DSP or loudness processing happens
// here, that's internal/master's job.
func (s *Store) transcodeToWAV(ctx context.Context, inputPath string) (string, error) {
	outputPath := filepath.Join(s.tempDir, uuid.New().String()+".wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-ar", "44100",
		"-ac", "2",
		"-c:a", "pcm_s16le",
		"-y",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg transcode failed: %w (stderr: %s)", err, stderr.String())
	}
	return outputPath, nil
}

// CheckFFmpegAvailable verifies FFmpeg is installed, for startup
// diagnostics.
func CheckFFmpegAvailable() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	return nil
}
