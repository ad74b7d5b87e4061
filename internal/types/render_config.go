package types

import (
	"fmt"
	"strings"
)

type TitleArea string

const (
	TitleAreaKeep   TitleArea = "keep"
	TitleAreaRemove TitleArea = "remove"
)

type CaptionStyle string

const (
	CaptionOutline        CaptionStyle = "outline"
	CaptionTranslucentBg  CaptionStyle = "translucent_bg"
	CaptionRoundedWhiteBg CaptionStyle = "rounded_white_bg"
)

func ParseCaptionStyle(s string) (CaptionStyle, error) {
	switch CaptionStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", CaptionOutline:
		return CaptionOutline, nil
	case CaptionTranslucentBg:
		return CaptionTranslucentBg, nil
	case CaptionRoundedWhiteBg:
		return CaptionRoundedWhiteBg, nil
	default:
		return CaptionOutline, fmt.Errorf("unknown caption style %q", s)
	}
}

type CaptionPosition string

const (
	CaptionTop        CaptionPosition = "top"
	CaptionBottom     CaptionPosition = "bottom"
	CaptionBottomEdge CaptionPosition = "bottom_edge"
)

func ParseCaptionPosition(s string) (CaptionPosition, error) {
	switch CaptionPosition(strings.ToLower(strings.TrimSpace(s))) {
	case "", CaptionBottom:
		return CaptionBottom, nil
	case CaptionTop:
		return CaptionTop, nil
	case CaptionBottomEdge:
		return CaptionBottomEdge, nil
	default:
		return CaptionBottom, fmt.Errorf("unknown caption position %q", s)
	}
}

// MusicMoodNone selects native clip audio instead of background music.
const MusicMoodNone = "none"

// RenderConfig is fixed for the lifetime of one render. It is passed by
// value; PanningDisabled must not be mutated after construction.
type RenderConfig struct {
	CanvasW         int
	CanvasH         int
	Fps             int
	Letterbox       bool
	TitleArea       TitleArea
	TitleBandHeight int
	Title           string

	CaptionStyle    CaptionStyle
	CaptionPosition CaptionPosition
	FontPath        string
	FontSize        float64
	TitleFontSize   float64

	EnablePanning   bool
	PanningDisabled []int // asset indexes that never pan
	PanRange        float64
	Seed            int64

	CrossDissolve     bool
	FadeDuration      float64
	GroupFadeDuration float64
	MinFadeDuration   float64

	AllocationMode AllocationMode

	MusicMood string
	MusicPath string

	EncoderPreset string
	Crf           int
}

// WorkRect is the part of the canvas assets are placed into. Keeping the
// title area reserves a band at the top.
func (c RenderConfig) WorkRect() Rect {
	if c.TitleArea == TitleAreaKeep && c.TitleBandHeight > 0 && c.TitleBandHeight < c.CanvasH {
		return Rect{X: 0, Y: c.TitleBandHeight, W: c.CanvasW, H: c.CanvasH - c.TitleBandHeight}
	}
	return Rect{X: 0, Y: 0, W: c.CanvasW, H: c.CanvasH}
}

// PanningFor reports whether the asset at index may pan.
func (c RenderConfig) PanningFor(assetIndex int) bool {
	if !c.EnablePanning || c.Letterbox {
		return false
	}
	for _, i := range c.PanningDisabled {
		if i == assetIndex {
			return false
		}
	}
	return true
}

func (c RenderConfig) WantsMusic() bool {
	return c.MusicPath != ""
}

func (c RenderConfig) Validate() error {
	if c.CanvasW <= 0 || c.CanvasH <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", c.CanvasW, c.CanvasH)
	}
	if c.Fps <= 0 {
		return fmt.Errorf("invalid fps %d", c.Fps)
	}
	if c.TitleArea != TitleAreaKeep && c.TitleArea != TitleAreaRemove {
		return fmt.Errorf("invalid title area %q", c.TitleArea)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("invalid font size %v", c.FontSize)
	}
	return nil
}
