package qrcode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liguepro/billing/pkg/qrcode"
)

func TestPNG(t *testing.T) {
	t.Parallel()

	t.Run("encodes a payment link", func(t *testing.T) {
		t.Parallel()
		png, err := qrcode.PNG("https://pay.example.com/inv_1", 128)
		require.NoError(t, err)
		assert.Equal(t, "\x89PNG", string(png[:4]))
	})

	t.Run("non-positive size falls back to default", func(t *testing.T) {
		t.Parallel()
		png, err := qrcode.PNG("https://pay.example.com/inv_1", 0)
		require.NoError(t, err)
		assert.NotEmpty(t, png)
	})

	t.Run("blank content rejected", func(t *testing.T) {
		t.Parallel()
		_, err := qrcode.PNG("   ", 128)
		assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
	})
}

func TestDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.DataURI("https://pay.example.com/inv_1", 64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
