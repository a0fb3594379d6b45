package wav

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_WritesValidRIFFHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	s := New(path)

	require.NoError(t, s.Init(44100))
	s.Samples([]int8{0, 0, 10, -10, 20, -20})
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 44)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, 6, len(data)-44)
}

func TestSink_ConvertsSignedToUnsignedSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	s := New(path)
	require.NoError(t, s.Init(44100))

	s.Samples([]int8{0, -128, 127})
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	pcm := data[44:]
	assert.Equal(t, byte(128), pcm[0])
	assert.Equal(t, byte(0), pcm[1])
	assert.Equal(t, byte(255), pcm[2])
}

func TestSink_EmptyRenderStillWritesValidHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	s := New(path)
	require.NoError(t, s.Init(44100))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 44, len(data))
}
