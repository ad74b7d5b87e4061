package caption

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyreel/internal/types"
)

func testConfig(area types.TitleArea) types.RenderConfig {
	return types.RenderConfig{
		CanvasW:         504,
		CanvasH:         890,
		Fps:             30,
		TitleArea:       area,
		TitleBandHeight: 110,
		FontPath:        filepath.Join("testdata", "missing-font.ttf"),
		FontSize:        28,
		TitleFontSize:   34,
	}
}

const longLine = "The harbor lights came on one by one while the last ferry pulled away from the pier"

func TestMissingFontFallsBack(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))
	assert.True(t, r.FellBack())

	img, err := r.Render(Request{Text: "hello", Position: types.CaptionBottom, Style: types.CaptionOutline, FontSize: 28})
	require.NoError(t, err)
	assert.Greater(t, countOpaque(img), 0)
}

func TestRenderIsCanvasSizedAndTransparent(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))

	img, err := r.Render(Request{Text: "short", Position: types.CaptionBottom, Style: types.CaptionOutline, FontSize: 28})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 504, 890), img.Bounds())
	assert.Equal(t, uint8(0), img.RGBAAt(2, 2).A)
	assert.Equal(t, uint8(0), img.RGBAAt(500, 886).A)
}

func TestEmptyTextRendersNothing(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))
	img, err := r.Render(Request{Text: "   ", FontSize: 28})
	require.NoError(t, err)
	assert.Equal(t, 0, countOpaque(img))
}

func TestBodyWrapsAtSeventyPercent(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))

	block, err := r.Layout(Request{Text: longLine, Position: types.CaptionBottom, FontSize: 28})
	require.NoError(t, err)
	assert.Greater(t, len(block.Lines), 1)
	for _, w := range block.Widths {
		assert.LessOrEqual(t, w, int(math.Floor(504*bodyWidthRatio))+1)
	}
	assert.Equal(t, longLine, strings.Join(block.Lines, " "))
}

func TestTitleWrapsWider(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))

	body, err := r.Layout(Request{Text: longLine, FontSize: 28})
	require.NoError(t, err)
	title, err := r.Layout(Request{Text: longLine, FontSize: 28, Title: true})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(title.Lines), len(body.Lines))
	for _, w := range title.Widths {
		assert.LessOrEqual(t, w, 504-2*titleSideMargin+1)
	}
	assert.GreaterOrEqual(t, title.Bounds.Min.Y, 0)
}

func TestWrapBreaksCJKBetweenRunes(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaRemove))
	text := strings.Repeat("夜色降临港口灯火通明", 4)

	block, err := r.Layout(Request{Text: text, FontSize: 28})
	require.NoError(t, err)
	assert.Greater(t, len(block.Lines), 1)
	assert.Equal(t, text, strings.Join(block.Lines, ""))
}

func TestPositions(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaRemove))

	top, err := r.Layout(Request{Text: "caption", Position: types.CaptionTop, FontSize: 28})
	require.NoError(t, err)
	bottom, err := r.Layout(Request{Text: "caption", Position: types.CaptionBottom, FontSize: 28})
	require.NoError(t, err)
	edge, err := r.Layout(Request{Text: "caption", Position: types.CaptionBottomEdge, FontSize: 28})
	require.NoError(t, err)

	assert.Less(t, top.Bounds.Max.Y, 890/2)
	assert.Greater(t, bottom.Bounds.Min.Y, 890/2)
	assert.Equal(t, 890-edgeMargin, edge.Bounds.Max.Y)
	assert.Equal(t, (504-top.Bounds.Dx())/2, top.Bounds.Min.X)
}

func TestCaptionsStayBelowKeptTitleBand(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))

	top, err := r.Layout(Request{Text: "caption", Position: types.CaptionTop, FontSize: 28})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, top.Bounds.Min.Y, 110)

	// a very tall block anchored to the bottom edge is pushed down below the band
	tall, err := r.Layout(Request{Text: strings.Repeat(longLine+"\n", 20), Position: types.CaptionBottomEdge, FontSize: 28})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tall.Bounds.Min.Y, 110)

	title, err := r.Layout(Request{Text: "Title", FontSize: 34, Title: true})
	require.NoError(t, err)
	assert.LessOrEqual(t, title.Bounds.Max.Y, 110)
}

func TestOutlineDrawsBlackAndWhite(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))
	img, err := r.Render(Request{Text: "Outline", Position: types.CaptionBottom, Style: types.CaptionOutline, FontSize: 28})
	require.NoError(t, err)

	var black, white int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.A == 0xff && c.R == 0 && c.G == 0 && c.B == 0 {
				black++
			}
			if c.A == 0xff && c.R == 0xff && c.G == 0xff && c.B == 0xff {
				white++
			}
		}
	}
	assert.Greater(t, black, 0)
	assert.Greater(t, white, 0)
}

func TestBackgroundStyles(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))
	req := Request{Text: "Background", Position: types.CaptionBottom, FontSize: 28}
	block, err := r.Layout(req)
	require.NoError(t, err)
	pad := int(math.Round(28 * bgPaddingRatio))
	bg := block.Bounds.Inset(-pad)

	req.Style = types.CaptionTranslucentBg
	img, err := r.Render(req)
	require.NoError(t, err)
	corner := img.RGBAAt(bg.Min.X, bg.Min.Y)
	assert.Equal(t, uint8(bgAlpha), corner.A)
	assert.Equal(t, uint8(0), corner.R)
	assert.Equal(t, uint8(0), img.RGBAAt(bg.Min.X-1, bg.Min.Y).A)

	req.Style = types.CaptionRoundedWhiteBg
	img, err = r.Render(req)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), img.RGBAAt(bg.Min.X, bg.Min.Y).A, "rounded corner stays clear")
	edgeMid := img.RGBAAt(bg.Min.X, (bg.Min.Y+bg.Max.Y)/2)
	assert.Equal(t, uint8(whiteBgAlpha), edgeMid.A)
	assert.Equal(t, edgeMid.R, edgeMid.A, "premultiplied white")
}

func TestPaddingScalesWithFontSize(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))

	measure := func(size float64) int {
		req := Request{Text: "Pad", Position: types.CaptionBottom, Style: types.CaptionTranslucentBg, FontSize: size}
		block, err := r.Layout(req)
		require.NoError(t, err)
		img, err := r.Render(req)
		require.NoError(t, err)
		y := (block.Bounds.Min.Y + block.Bounds.Max.Y) / 2
		left := block.Bounds.Min.X
		for img.RGBAAt(left-1, y).A != 0 {
			left--
		}
		return block.Bounds.Min.X - left
	}
	assert.Greater(t, measure(48), measure(20))
}

func TestRenderToFile(t *testing.T) {
	r := NewRenderer(testConfig(types.TitleAreaKeep))
	path := filepath.Join(t.TempDir(), "captions", "line_0.png")

	require.NoError(t, r.RenderToFile(Request{Text: "saved", Style: types.CaptionOutline, FontSize: 28}, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 504, cfg.Width)
	assert.Equal(t, 890, cfg.Height)
}

func countOpaque(img *image.RGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			n++
		}
	}
	return n
}
