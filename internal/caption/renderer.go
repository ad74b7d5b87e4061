// Package caption rasterizes titles and narration captions into transparent
// canvas-sized overlays.
package caption

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"storyreel/internal/types"
)

const (
	bodyWidthRatio  = 0.70
	titleSideMargin = 24
	edgeMargin      = 80 // BottomEdge distance from the canvas bottom
	bandMargin      = 16
	bgPaddingRatio  = 0.4
	bgAlpha         = 153
	whiteBgAlpha    = 235
	outlineSteps    = 16
)

// Request describes one overlay.
type Request struct {
	Text     string
	Position types.CaptionPosition
	Style    types.CaptionStyle
	FontSize float64
	// Title draws into the title band with the wider title wrap width.
	Title bool
}

// Block is the laid-out text: wrapped lines and the rectangle they occupy
// on the canvas.
type Block struct {
	Lines      []string
	Widths     []int
	Bounds     image.Rectangle
	LineHeight int
	Ascent     int
}

// Renderer draws overlays for one canvas. It caches faces per size and is
// not safe for concurrent use.
type Renderer struct {
	canvasW   int
	canvasH   int
	titleBand int
	font      *opentype.Font
	fellBack  bool
	faces     map[float64]font.Face
}

func NewRenderer(cfg types.RenderConfig) *Renderer {
	f, fellBack := loadFont(cfg.FontPath)
	band := 0
	if cfg.TitleArea == types.TitleAreaKeep {
		band = cfg.TitleBandHeight
	}
	return &Renderer{
		canvasW:   cfg.CanvasW,
		canvasH:   cfg.CanvasH,
		titleBand: band,
		font:      f,
		fellBack:  fellBack,
		faces:     make(map[float64]font.Face),
	}
}

// FellBack reports whether the configured font failed to load.
func (r *Renderer) FellBack() bool {
	return r.fellBack
}

func (r *Renderer) face(size float64) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := newFace(r.font, size)
	if err != nil {
		return nil, err
	}
	r.faces[size] = f
	return f, nil
}

// Layout wraps and positions the text without drawing it.
func (r *Renderer) Layout(req Request) (Block, error) {
	face, err := r.face(req.FontSize)
	if err != nil {
		return Block{}, err
	}
	maxWidth := int(math.Floor(float64(r.canvasW) * bodyWidthRatio))
	if req.Title {
		maxWidth = r.canvasW - 2*titleSideMargin
	}

	lines := wrap(face, req.Text, maxWidth)
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	blockW := 0
	widths := make([]int, len(lines))
	for i, l := range lines {
		widths[i] = font.MeasureString(face, l).Ceil()
		blockW = max(blockW, widths[i])
	}
	blockH := lineHeight * len(lines)

	top := r.blockTop(req, blockH)
	left := (r.canvasW - blockW) / 2
	return Block{
		Lines:      lines,
		Widths:     widths,
		Bounds:     image.Rect(left, top, left+blockW, top+blockH),
		LineHeight: lineHeight,
		Ascent:     ascent,
	}, nil
}

// blockTop is the y of the first line's top edge.
func (r *Renderer) blockTop(req Request, blockH int) int {
	if req.Title {
		if r.titleBand > 0 {
			return (r.titleBand - blockH) / 2
		}
		return bandMargin
	}

	safeTop := r.titleBand + bandMargin
	var top int
	switch req.Position {
	case types.CaptionTop:
		bandTop := safeTop
		bandH := r.canvasH / 5
		top = bandTop + (bandH-blockH)/2
	case types.CaptionBottomEdge:
		top = r.canvasH - edgeMargin - blockH
	default:
		bandH := r.canvasH / 5
		bandTop := r.canvasH - bandH - bandMargin
		top = bandTop + (bandH-blockH)/2
	}
	return max(top, safeTop)
}

// Render draws the request onto a transparent canvas-sized bitmap.
func (r *Renderer) Render(req Request) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, r.canvasW, r.canvasH))
	if strings.TrimSpace(req.Text) == "" {
		return dst, nil
	}
	block, err := r.Layout(req)
	if err != nil {
		return nil, err
	}
	face, err := r.face(req.FontSize)
	if err != nil {
		return nil, err
	}

	pad := int(math.Round(req.FontSize * bgPaddingRatio))
	bg := block.Bounds.Inset(-pad)

	textColor := color.Color(color.White)
	switch req.Style {
	case types.CaptionTranslucentBg:
		fillRect(dst, bg, color.NRGBA{A: bgAlpha})
	case types.CaptionRoundedWhiteBg:
		fillRoundedRect(dst, bg, pad, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: whiteBgAlpha})
		textColor = color.Black
	default:
		r.drawOutline(dst, face, block, req.FontSize)
	}

	drawLines(dst, face, block, textColor, 0, 0)
	return dst, nil
}

// drawOutline stamps the text in black around a ring of sub-pixel offsets.
func (r *Renderer) drawOutline(dst *image.RGBA, face font.Face, block Block, size float64) {
	radius := math.Max(1.5, size/14)
	for i := 0; i < outlineSteps; i++ {
		angle := 2 * math.Pi * float64(i) / outlineSteps
		dx := fixed.Int26_6(math.Round(radius * math.Cos(angle) * 64))
		dy := fixed.Int26_6(math.Round(radius * math.Sin(angle) * 64))
		drawLines(dst, face, block, color.Black, dx, dy)
	}
}

func drawLines(dst *image.RGBA, face font.Face, block Block, c color.Color, dx, dy fixed.Int26_6) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	for i, line := range block.Lines {
		x := block.Bounds.Min.X + (block.Bounds.Dx()-block.Widths[i])/2
		y := block.Bounds.Min.Y + block.Ascent + i*block.LineHeight
		d.Dot = fixed.P(x, y).Add(fixed.Point26_6{X: dx, Y: dy})
		d.DrawString(line)
	}
}

// RenderToFile renders the request and writes it as PNG.
func (r *Renderer) RenderToFile(req Request, path string) error {
	img, err := r.Render(req)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create caption dir error: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create caption file error: %w", err)
	}
	defer f.Close()
	if err = png.Encode(f, img); err != nil {
		return fmt.Errorf("encode caption png error: %w", err)
	}
	return nil
}

// wrap breaks text into lines no wider than maxWidth. Words are kept whole
// unless a single word is wider than a line; text without spaces (CJK)
// breaks between runes.
func wrap(face font.Face, text string, maxWidth int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(face, strings.TrimSpace(paragraph), maxWidth)...)
	}
	return lines
}

func wrapParagraph(face font.Face, text string, maxWidth int) []string {
	if text == "" {
		return nil
	}
	limit := fixed.I(maxWidth)
	fits := func(s string) bool { return font.MeasureString(face, s) <= limit }

	var lines []string
	current := ""
	for _, token := range tokenize(text) {
		candidate := current + token
		if current == "" {
			candidate = strings.TrimLeftFunc(token, unicode.IsSpace)
		}
		if fits(candidate) {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, strings.TrimRightFunc(current, unicode.IsSpace))
		}
		token = strings.TrimLeftFunc(token, unicode.IsSpace)
		if fits(token) {
			current = token
			continue
		}
		// a single token wider than the line is broken between runes
		current = ""
		for _, ru := range token {
			if current != "" && !fits(current+string(ru)) {
				lines = append(lines, current)
				current = ""
			}
			current += string(ru)
		}
	}
	if current != "" {
		lines = append(lines, strings.TrimRightFunc(current, unicode.IsSpace))
	}
	return lines
}

// tokenize splits text into words carrying their leading space, and CJK
// characters as single tokens.
func tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, ru := range text {
		switch {
		case unicode.IsSpace(ru):
			flush()
			b.WriteRune(' ')
		case isWideRune(ru):
			flush()
			tokens = append(tokens, string(ru))
		default:
			b.WriteRune(ru)
		}
	}
	flush()
	return tokens
}

func isWideRune(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r)
}
