package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/telop/renderer"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]renderer.Format{
		"":     renderer.PNG,
		"PNG":  renderer.PNG,
		".jpg": renderer.JPEG,
		"jpeg": renderer.JPEG,
		"pdf":  renderer.PDF,
		" svg": renderer.SVG,
	}
	for in, want := range cases {
		got, err := renderer.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := renderer.ParseFormat("gif")
	assert.ErrorIs(t, err, renderer.ErrUnsupportedFormat)
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "image/png", renderer.PNG.ContentType())
	assert.Equal(t, "image/jpeg", renderer.JPEG.ContentType())
	assert.Equal(t, "application/pdf", renderer.PDF.ContentType())
	assert.Equal(t, "image/svg+xml", renderer.SVG.ContentType())

	assert.Equal(t, ".png", renderer.PNG.Ext())
	assert.Equal(t, ".jpg", renderer.JPEG.Ext())
	assert.Equal(t, ".pdf", renderer.PDF.Ext())
	assert.Equal(t, ".png", renderer.Format("").Ext())
}
