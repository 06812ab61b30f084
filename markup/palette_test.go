package markup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/telop/markup"
)

func TestNewPaletteCanonicalizes(t *testing.T) {
	t.Parallel()

	p, err := markup.NewPalette(map[string]string{"Brand": "#ABC", "ink": " #112233 "}, "#FFF")
	require.NoError(t, err)

	assert.Equal(t, markup.Color("#aabbcc"), p.Lookup("brand"))
	assert.Equal(t, markup.Color("#112233"), p.Lookup("INK"))
	assert.Equal(t, markup.White, p.Default)
	assert.Equal(t, markup.White, p.Lookup("missing"))
}

func TestNewPaletteRejectsInvalidColor(t *testing.T) {
	t.Parallel()

	_, err := markup.NewPalette(map[string]string{"red": "crimson"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"red"`)

	_, err = markup.NewPalette(nil, "#12")
	require.Error(t, err)
}

func TestPaletteDarkSwapsWhiteAndBlack(t *testing.T) {
	t.Parallel()

	p := markup.DefaultPalette()
	dark := p.Dark()

	assert.Equal(t, markup.Black, dark.Lookup("white"))
	assert.Equal(t, markup.White, dark.Lookup("black"))
	assert.Equal(t, markup.White, dark.Default)
	assert.Equal(t, p.Lookup("red"), dark.Lookup("red"))
	assert.Equal(t, p.Lookup("blue"), dark.Lookup("blue"))

	// The source palette is left untouched.
	assert.Equal(t, markup.White, p.Lookup("white"))
}

func TestDarkPaletteColorsUntaggedText(t *testing.T) {
	t.Parallel()

	got := markup.Parse("a<white>b</white>", markup.DefaultPalette().Dark())

	assert.Equal(t, []markup.Segment{
		{Text: "a", Color: markup.White},
		{Text: "b", Color: markup.Black},
	}, got)
}

func TestZeroPaletteFallsBackToBlack(t *testing.T) {
	t.Parallel()

	got := markup.Parse("<red>x</red>", markup.Palette{})

	assert.Equal(t, []markup.Segment{{Text: "x", Color: markup.DefaultColor}}, got)
}
