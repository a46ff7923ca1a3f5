package image

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(name, msg string) decodeStrategy {
	return decodeStrategy{
		name: name,
		decode: func(string, []byte) (image.Image, error) {
			return nil, errors.New(msg)
		},
	}
}

func TestDecodeHEICFallsThroughToLaterStrategy(t *testing.T) {
	want := image.NewRGBA(image.Rect(0, 0, 3, 3))
	strategies := []decodeStrategy{
		failing("first", "metadata not correctly assigned"),
		failing("second", "tile decode failed"),
		{
			name: "third",
			decode: func(string, []byte) (image.Image, error) {
				return want, nil
			},
		},
	}

	img, err := decodeHEIC("x.heic", nil, strategies)
	require.NoError(t, err)
	assert.Same(t, image.Image(want), img)
}

func TestDecodeHEICExhaustionCollectsAttempts(t *testing.T) {
	strategies := []decodeStrategy{
		failing("a", "broken header"),
		failing("b", "broken header"), // duplicate message, deduplicated below
		failing("c", "no such tool"),
	}

	_, err := decodeHEIC("x.heic", nil, strategies)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "x.heic", de.Path)
	assert.Len(t, de.Attempts, 3)
	assert.Contains(t, err.Error(), "broken header")
	assert.Contains(t, err.Error(), "no such tool")
}

func TestDecodeErrorDeduplicatesMessages(t *testing.T) {
	de := &DecodeError{
		Path:     "y.heic",
		Attempts: []string{"same", "same", "", "other"},
	}
	msg := de.Error()
	assert.Contains(t, msg, "other")
	// "same" appears once only
	assert.Equal(t, 1, countOccurrences(msg, "same"))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}

func TestHeicStrategiesIncludeLibraryDecoders(t *testing.T) {
	strategies := heicStrategies()
	require.GreaterOrEqual(t, len(strategies), 3)
	assert.Equal(t, "goheif", strategies[0].name)
	assert.Equal(t, "goheif-safe", strategies[1].name)
	assert.Equal(t, "image-decode", strategies[2].name)
}
