package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestNormalizeDirectFormatPassesRawBytes(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "page.png", 4, 4)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	n, err := Normalize(path, "png")
	require.NoError(t, err)
	assert.Equal(t, raw, n.Bytes)
	assert.Equal(t, "image/png", n.MIME)
}

func TestNormalizeMIMEFromExtensionTable(t *testing.T) {
	dir := t.TempDir()
	// Content is PNG but the extension table wins for known extensions.
	path := writeTestPNG(t, dir, "photo.jpg", 2, 2)

	n, err := Normalize(path, "png")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", n.MIME)
}

func TestGuessMIMESniffsUnknownExtension(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	assert.Equal(t, "image/png", guessMIME("scan.img", buf.Bytes()))
}

func TestGuessMIMEFallsBackToOctetStream(t *testing.T) {
	assert.Equal(t, "application/octet-stream", guessMIME("blob.xyz", []byte{0x00, 0x01, 0x02}))
}

func TestNormalizeMissingFile(t *testing.T) {
	_, err := Normalize(filepath.Join(t.TempDir(), "nope.png"), "png")
	assert.Error(t, err)
}

func TestValidateTargetFormat(t *testing.T) {
	for _, f := range []string{"png", "jpeg", "jpg", "gif", "PNG"} {
		assert.NoError(t, ValidateTargetFormat(f), f)
	}

	err := ValidateTargetFormat("webp")
	require.Error(t, err)
	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "webp", ufe.Format)
	assert.Contains(t, err.Error(), "png")
}

func TestConvertHEICRejectsBadTargetBeforeReading(t *testing.T) {
	// The target check fires before the file is touched, so even a missing
	// path reports the configuration problem.
	_, err := Normalize(filepath.Join(t.TempDir(), "missing.heic"), "bmp")
	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
}

func TestSupportedExtension(t *testing.T) {
	assert.True(t, SupportedExtension("a.jpg"))
	assert.True(t, SupportedExtension("b.JPEG"))
	assert.True(t, SupportedExtension("c.png"))
	assert.True(t, SupportedExtension("d.heic"))
	assert.True(t, SupportedExtension("e.heif"))
	assert.False(t, SupportedExtension("f.txt"))
	assert.False(t, SupportedExtension("g.pdf"))
	assert.False(t, SupportedExtension("noext"))
}

func TestEncodeToKeepsDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 31, 17))
	for _, target := range SupportedTargetFormats() {
		tf := targetFormats[target]
		n, err := encodeTo(src, target, tf)
		require.NoError(t, err, target)
		assert.Equal(t, tf.mime, n.MIME, target)

		decoded, _, err := image.Decode(bytes.NewReader(n.Bytes))
		require.NoError(t, err, target)
		assert.Equal(t, 31, decoded.Bounds().Dx(), target)
		assert.Equal(t, 17, decoded.Bounds().Dy(), target)
	}
}

func TestDataURL(t *testing.T) {
	n := &Normalized{Bytes: []byte("abc"), MIME: "image/png"}
	assert.Equal(t, "data:image/png;base64,YWJj", n.DataURL())
}

func TestSupportedTargetFormatsSorted(t *testing.T) {
	formats := SupportedTargetFormats()
	assert.Equal(t, []string{"gif", "jpeg", "jpg", "png"}, formats)
	assert.True(t, strings.Contains(strings.Join(formats, ","), "jpeg"))
}
