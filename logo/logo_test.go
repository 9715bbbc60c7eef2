package logo

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="40mm" height="10mm" viewBox="0 0 40 10">
  <rect x="0" y="0" width="40" height="10" fill="#1e1e1e"/>
</svg>`

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeRaster(t *testing.T) {
	asset, err := Decode(bytes.NewReader(pngBytes(t, 200, 50)), "logo.png")
	require.NoError(t, err)
	assert.False(t, asset.IsVector())
	assert.Equal(t, "png", asset.Format)
	w, h := asset.Size()
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 50.0, h)
}

func TestDecodeSVG(t *testing.T) {
	asset, err := Decode(strings.NewReader(sampleSVG), "Logo.svg")
	require.NoError(t, err)
	require.True(t, asset.IsVector())
	w, h := asset.Size()
	require.Greater(t, w, 0.0)
	require.Greater(t, h, 0.0)
	assert.InDelta(t, 4.0, w/h, 1e-6)
}

func TestDecodeSniffsSVGWithoutExtension(t *testing.T) {
	asset, err := Decode(strings.NewReader(sampleSVG), "logo")
	require.NoError(t, err)
	assert.True(t, asset.IsVector())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("not an image"), "logo.png")
	assert.Error(t, err)
}

func TestRasterDownscalesOnly(t *testing.T) {
	asset, err := Decode(bytes.NewReader(pngBytes(t, 400, 100)), "logo.png")
	require.NoError(t, err)

	// 20mm x 5mm @ 300dpi -> 236 x 59 px
	small := asset.Raster(20, 5, 300)
	assert.Equal(t, 236, small.Bounds().Dx())
	assert.Equal(t, 59, small.Bounds().Dy())

	// 目标分辨率高于原图时保持原图
	same := asset.Raster(100, 25, 300)
	assert.Same(t, asset.Image, same)

	assert.Same(t, asset.Image, asset.Raster(20, 5, 0))
	assert.Nil(t, (&Asset{}).Raster(20, 5, 300))
}

func TestLoadDegradesToNoLogo(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})

	asset, ok := Load(filepath.Join(dir, "missing.svg"), logger)
	assert.False(t, ok)
	assert.Nil(t, asset)
	assert.Contains(t, logs.String(), "logo unavailable")

	corrupt := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("\x89PNG broken"), 0o644))
	_, ok = Load(corrupt, nil)
	assert.False(t, ok)

	_, ok = Load("", logger)
	assert.False(t, ok)

	good := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(good, pngBytes(t, 30, 10), 0o644))
	asset, ok = Load(good, logger)
	require.True(t, ok)
	assert.Equal(t, good, asset.Path)
}

func TestResolve(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "x.svg")
	assert.Equal(t, abs, Resolve(abs))
	assert.Equal(t, "", Resolve(""))

	got := Resolve("definitely-not-present.svg")
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "definitely-not-present.svg", filepath.Base(got))
}

func TestNilAssetSize(t *testing.T) {
	var a *Asset
	w, h := a.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.False(t, a.IsVector())
}
