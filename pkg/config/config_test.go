package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbuf/colbuf/pkg/compression"
	"github.com/colbuf/colbuf/pkg/xerrors"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	comp, err := cfg.CompressionConfig()
	require.NoError(t, err)
	assert.Equal(t, compression.Zstd, comp.Algorithm)
	assert.Equal(t, compression.Default, comp.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"negative capacity":  func(c *Config) { c.Buffer.InitialCapacity = -1 },
		"threshold above 1":  func(c *Config) { c.Buffer.DictionaryThreshold = 1.5 },
		"negative threshold": func(c *Config) { c.Buffer.DictionaryThreshold = -0.1 },
		"unknown algorithm":  func(c *Config) { c.Codec.Algorithm = "brotli" },
		"unknown level":      func(c *Config) { c.Codec.Level = "ludicrous" },
		"zero batch size":    func(c *Config) { c.Ingest.BatchSize = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			err := cfg.Validate()
			assert.True(t, xerrors.IsKind(err, xerrors.KindConfig))
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, compression.Default, level)

	level, err = ParseLevel("best")
	require.NoError(t, err)
	assert.Equal(t, compression.Best, level)

	_, err = ParseLevel("turbo")
	assert.True(t, xerrors.IsKind(err, xerrors.KindConfig))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colbuf.yaml")
	content := `
buffer:
  initial_capacity: 512
  dictionary_threshold: 0.3
codec:
  algorithm: lz4
  level: fastest
ingest:
  batch_size: 2000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Buffer.InitialCapacity)
	assert.Equal(t, 0.3, cfg.Buffer.DictionaryThreshold)
	assert.Equal(t, "lz4", cfg.Codec.Algorithm)
	assert.Equal(t, "fastest", cfg.Codec.Level)
	assert.Equal(t, 2000, cfg.Ingest.BatchSize)

	// sections not present keep their defaults
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvSubstitution(t *testing.T) {
	t.Setenv("COLBUF_TEST_ALG", "snappy")

	path := filepath.Join(t.TempDir(), "colbuf.yaml")
	content := "codec:\n  algorithm: ${COLBUF_TEST_ALG}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "snappy", cfg.Codec.Algorithm)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, xerrors.IsKind(err, xerrors.KindConfig))
}

func TestLoadInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colbuf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("codec:\n  algorithm: brotli\n"), 0o600))

	_, err := Load(path)
	assert.True(t, xerrors.IsKind(err, xerrors.KindConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Ingest.BatchSize = 777
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 777, loaded.Ingest.BatchSize)
}
