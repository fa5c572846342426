// Package config loads the mastering core's tunable options (spec.md §6.4)
// via viper: defaults, an optional TOML file, and environment overrides.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every recognized option from spec.md §6.4.
type Config struct {
	ChunkDurationSec              int
	ContextDurationSec            int
	CrossfadeMs                   int
	AnalysisSampleRate            int
	ClassifierConfidenceThreshold float64
	HybridDominanceThreshold      float64
	MaxDBDeltaPerChunk            float64
	SoftCeilingDBFS               float64
	T1MaxChunks                   int
	T2MaxChunks                   int
	PredictiveWindow              int
	BuildTimeoutFactor            float64
	FingerprintWorkers            int
}

// Load reads defaults, an optional config.toml at configPath (if non-empty
// and present), and environment variable overrides (MASTERSTREAM_*),
// following the teacher CLI's viper idiom.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("masterstream")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	return &Config{
		ChunkDurationSec:              v.GetInt("chunk_duration_sec"),
		ContextDurationSec:            v.GetInt("context_duration_sec"),
		CrossfadeMs:                   v.GetInt("crossfade_ms"),
		AnalysisSampleRate:            v.GetInt("analysis_sample_rate"),
		ClassifierConfidenceThreshold: v.GetFloat64("classifier_confidence_threshold"),
		HybridDominanceThreshold:      v.GetFloat64("hybrid_dominance_threshold"),
		MaxDBDeltaPerChunk:            v.GetFloat64("max_db_delta_per_chunk"),
		SoftCeilingDBFS:               v.GetFloat64("soft_ceiling_dbfs"),
		T1MaxChunks:                   v.GetInt("t1_max_chunks"),
		T2MaxChunks:                   v.GetInt("t2_max_chunks"),
		PredictiveWindow:              v.GetInt("predictive_window"),
		BuildTimeoutFactor:            v.GetFloat64("build_timeout_factor"),
		FingerprintWorkers:            v.GetInt("fingerprint_workers"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chunk_duration_sec", 30)
	v.SetDefault("context_duration_sec", 5)
	v.SetDefault("crossfade_ms", 200)
	v.SetDefault("analysis_sample_rate", 44100)
	v.SetDefault("classifier_confidence_threshold", 0.65)
	v.SetDefault("hybrid_dominance_threshold", 0.50)
	v.SetDefault("max_db_delta_per_chunk", 1.5)
	v.SetDefault("soft_ceiling_dbfs", -0.5)
	v.SetDefault("t1_max_chunks", 8)
	v.SetDefault("t2_max_chunks", 64)
	v.SetDefault("predictive_window", 3)
	v.SetDefault("build_timeout_factor", 2.0)
	v.SetDefault("fingerprint_workers", 16)
}
