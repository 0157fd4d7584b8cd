package infra

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRGenerator_ProductURL(t *testing.T) {
	g := NewQRGenerator("https://shop.test/")
	assert.Equal(t, "https://shop.test/p/KUR-001", g.ProductURL("KUR-001"))
	assert.Equal(t, "https://shop.test/p/a%2Fb", g.ProductURL("a/b"))
}

func TestQRGenerator_PNG(t *testing.T) {
	g := NewQRGenerator("https://shop.test")

	data, err := g.PNG(g.ProductURL("KUR-001"), 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}
