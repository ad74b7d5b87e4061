package caption

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"

	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

// systemFontPaths lists fonts tried when no font is configured.
func systemFontPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\Windows\Fonts\msyhbd.ttc`, `C:\Windows\Fonts\arialbd.ttf`}
	case "darwin":
		return []string{"/System/Library/Fonts/Supplemental/Arial Bold.ttf", "/Library/Fonts/Arial Bold.ttf"}
	default:
		return []string{
			"/usr/share/fonts/opentype/noto/NotoSansCJK-Bold.ttc",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		}
	}
}

// parseFontFile reads a .ttf/.otf file, or the first face of a .ttc collection.
func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file error: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse font collection error: %w", err)
		}
		if coll.NumFonts() == 0 {
			return nil, fmt.Errorf("font collection %s is empty", path)
		}
		return coll.Font(0)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font error: %w", err)
	}
	return f, nil
}

func bundledFont() *opentype.Font {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		// the embedded font is part of the binary
		panic("parse bundled font: " + err.Error())
	}
	return f
}

// loadFont resolves the configured font. Failure to load it is a
// TextRenderError that is logged and answered with the bundled Go font.
func loadFont(path string) (f *opentype.Font, fellBack bool) {
	if path != "" {
		parsed, err := parseFontFile(path)
		if err == nil {
			return parsed, false
		}
		appErr := apperrors.WrapWithDetail(apperrors.CodeTextRender, "caption font load failed", path, err)
		log.GetLogger().Warn("caption font unavailable, using bundled font",
			zap.String("font", path), zap.Int("code", appErr.Code), zap.Error(appErr))
		return bundledFont(), true
	}

	for _, candidate := range systemFontPaths() {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if parsed, err := parseFontFile(candidate); err == nil {
			return parsed, false
		}
	}
	return bundledFont(), false
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face error: %w", err)
	}
	return face, nil
}
