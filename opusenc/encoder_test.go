//go:build cgo && opusenc

package opusenc

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/encbridge/errors"
	"github.com/wippyai/encbridge/registry"
)

func sine(frames, channels int) []int16 {
	pcm := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/DefaultRate))
		for c := 0; c < channels; c++ {
			pcm[i*channels+c] = v
		}
	}
	return pcm
}

func TestEncoder_ProducesOgg(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, WithComment("TITLE", "tone"))
	require.NoError(t, enc.Init())
	h := enc.Handle()
	require.NotZero(t, h)

	for i := 0; i < 10; i++ {
		require.NoError(t, enc.Encode(sine(960, DefaultChannels)))
	}
	require.NoError(t, enc.Drain())
	require.NoError(t, enc.Close())

	require.Greater(t, out.Len(), 4)
	assert.Equal(t, []byte("OggS"), out.Bytes()[:4])
	assert.True(t, bytes.Contains(out.Bytes(), []byte("OpusTags")))
	assert.True(t, bytes.Contains(out.Bytes(), []byte("TITLE=tone")))

	_, live := registry.Default().Info(h)
	assert.False(t, live, "close callback releases the handle")
}

func TestEncoder_Float(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, WithChannels(1))
	require.NoError(t, enc.Init())
	defer enc.Close()

	pcm := make([]float32, 960)
	for i := range pcm {
		pcm[i] = float32(0.25 * math.Sin(2*math.Pi*440*float64(i)/DefaultRate))
	}
	require.NoError(t, enc.EncodeFloat(pcm))
	require.NoError(t, enc.Drain())

	assert.Equal(t, []byte("OggS"), out.Bytes()[:4])
}

func TestEncoder_UnalignedSamples(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{})
	require.NoError(t, enc.Init())
	defer enc.Close()

	err := enc.Encode(make([]int16, 3))
	assert.ErrorIs(t, err, errors.New(errors.PhaseEncode, errors.KindInvalidInput).Build())
}

func TestEncoder_NotInitialized(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{})

	assert.ErrorIs(t, enc.Encode(make([]int16, 2)), errors.New(errors.PhaseEncode, errors.KindNotInitialized).Build())
	assert.ErrorIs(t, enc.Drain(), errors.New(errors.PhaseEncode, errors.KindNotInitialized).Build())
	assert.NoError(t, enc.Close())
}

func TestEncoder_BadRateReleasesHandle(t *testing.T) {
	before := registry.Default().Len()
	enc := NewEncoder(&bytes.Buffer{}, WithRate(-1))

	err := enc.Init()
	assert.ErrorIs(t, err, errors.New(errors.PhaseEncode, errors.KindEncoder).Build())
	assert.Equal(t, before, registry.Default().Len())
}

func TestEncoder_CloseWithoutDrain(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out)
	require.NoError(t, enc.Init())
	h := enc.Handle()

	require.NoError(t, enc.Close())

	_, live := registry.Default().Info(h)
	assert.False(t, live)
}
