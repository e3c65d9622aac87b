// Package config provides configuration for colbuf buffers, the block
// codec and ingestion, loaded from YAML with ${ENV_VAR} substitution.
package config

import (
	"github.com/colbuf/colbuf/pkg/compression"
	"github.com/colbuf/colbuf/pkg/xerrors"
)

// Config is the root configuration.
type Config struct {
	Buffer BufferConfig `yaml:"buffer"`
	Codec  CodecConfig  `yaml:"codec"`
	Ingest IngestConfig `yaml:"ingest"`
	Log    LogConfig    `yaml:"log"`
}

// BufferConfig tunes column buffers.
type BufferConfig struct {
	// InitialCapacity is the starting capacity of every column's backing
	// slice.
	InitialCapacity int `yaml:"initial_capacity"`
	// DictionaryThreshold is the distinct-value ratio below which string
	// columns switch to dictionary encoding.
	DictionaryThreshold float64 `yaml:"dictionary_threshold"`
}

// CodecConfig tunes the block frame codec.
type CodecConfig struct {
	// Algorithm names the compression algorithm: none, gzip, snappy,
	// lz4, zstd, s2 or deflate.
	Algorithm string `yaml:"algorithm"`
	// Level is the compression level: fastest, default, better or best.
	Level string `yaml:"level"`
}

// IngestConfig tunes CSV ingestion.
type IngestConfig struct {
	// BatchSize is the number of rows buffered before each bulk append.
	BatchSize int `yaml:"batch_size"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Buffer: BufferConfig{
			InitialCapacity:     1024,
			DictionaryThreshold: 0.5,
		},
		Codec: CodecConfig{
			Algorithm: "zstd",
			Level:     "default",
		},
		Ingest: IngestConfig{
			BatchSize: 10000,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Buffer.InitialCapacity < 0 {
		return xerrors.Newf(xerrors.KindConfig, "initial_capacity must not be negative, got %d", c.Buffer.InitialCapacity)
	}
	if c.Buffer.DictionaryThreshold < 0 || c.Buffer.DictionaryThreshold > 1 {
		return xerrors.Newf(xerrors.KindConfig, "dictionary_threshold must be in [0,1], got %g", c.Buffer.DictionaryThreshold)
	}
	if _, err := compression.ParseAlgorithm(c.Codec.Algorithm); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Codec.Level); err != nil {
		return err
	}
	if c.Ingest.BatchSize <= 0 {
		return xerrors.Newf(xerrors.KindConfig, "batch_size must be positive, got %d", c.Ingest.BatchSize)
	}
	return nil
}

// CompressionConfig resolves the codec section into a compression config.
func (c *Config) CompressionConfig() (compression.Config, error) {
	alg, err := compression.ParseAlgorithm(c.Codec.Algorithm)
	if err != nil {
		return compression.Config{}, err
	}
	level, err := ParseLevel(c.Codec.Level)
	if err != nil {
		return compression.Config{}, err
	}
	return compression.Config{Algorithm: alg, Level: level}, nil
}

// ParseLevel maps a level name to a compression level.
func ParseLevel(name string) (compression.Level, error) {
	switch name {
	case "", "default":
		return compression.Default, nil
	case "fastest":
		return compression.Fastest, nil
	case "better":
		return compression.Better, nil
	case "best":
		return compression.Best, nil
	default:
		return 0, xerrors.Newf(xerrors.KindConfig, "unknown compression level %q", name).
			WithDetail("level", name)
	}
}
