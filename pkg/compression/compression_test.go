package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbuf/colbuf/pkg/xerrors"
)

func testPayload() []byte {
	return bytes.Repeat([]byte("columnar blocks compress well well well "), 200)
}

func TestCompressorRoundTrip(t *testing.T) {
	algorithms := []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate}

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			c, err := NewCompressor(&Config{Algorithm: alg, Level: Default})
			require.NoError(t, err)
			assert.Equal(t, alg, c.Algorithm())

			original := testPayload()
			compressed, err := c.Compress(original)
			require.NoError(t, err)

			decompressed, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, original, decompressed)

			if alg != None {
				assert.Less(t, len(compressed), len(original))
			}
		})
	}
}

func TestCompressorLevels(t *testing.T) {
	for _, level := range []Level{Fastest, Default, Better, Best} {
		c, err := NewCompressor(&Config{Algorithm: Zstd, Level: level})
		require.NoError(t, err)

		original := testPayload()
		compressed, err := c.Compress(original)
		require.NoError(t, err)

		decompressed, err := c.Decompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, original, decompressed)
	}
}

func TestCompressEmptyInput(t *testing.T) {
	for _, alg := range []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate} {
		c, err := NewCompressor(&Config{Algorithm: alg, Level: Default})
		require.NoError(t, err)

		compressed, err := c.Compress(nil)
		require.NoError(t, err, alg)

		decompressed, err := c.Decompress(compressed)
		require.NoError(t, err, alg)
		assert.Empty(t, decompressed, alg)
	}
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("zstd")
	require.NoError(t, err)
	assert.Equal(t, Zstd, alg)

	_, err = ParseAlgorithm("brotli")
	assert.True(t, xerrors.IsKind(err, xerrors.KindConfig))
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := NewCompressor(&Config{Algorithm: Algorithm("brotli"), Level: Default})
	assert.True(t, xerrors.IsKind(err, xerrors.KindConfig))
}

func TestCompressorPool(t *testing.T) {
	p := NewCompressorPool(&Config{Algorithm: LZ4, Level: Default})

	original := testPayload()
	compressed, err := p.Compress(original)
	require.NoError(t, err)

	decompressed, err := p.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}
