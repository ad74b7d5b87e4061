package types

import (
	"fmt"
	"math"
	"strings"
)

type AllocationMode int

const (
	OnePerLine AllocationMode = iota
	OnePerTwoLines
	SingleForAll
)

func (m AllocationMode) String() string {
	switch m {
	case OnePerLine:
		return "one_per_line"
	case OnePerTwoLines:
		return "one_per_two_lines"
	case SingleForAll:
		return "single_for_all"
	default:
		return fmt.Sprintf("allocation_mode(%d)", int(m))
	}
}

func ParseAllocationMode(s string) (AllocationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "one_per_line", "1:1":
		return OnePerLine, nil
	case "one_per_two_lines", "2:1":
		return OnePerTwoLines, nil
	case "single_for_all", "single", "1:all":
		return SingleForAll, nil
	default:
		return OnePerLine, fmt.Errorf("unknown allocation mode %q", s)
	}
}

type PanPattern int

const (
	PanFixed PanPattern = iota
	PanLeftToRight
	PanRightToLeft
	PanTopToBottom
	PanBottomToTop
)

func (p PanPattern) String() string {
	switch p {
	case PanFixed:
		return "fixed"
	case PanLeftToRight:
		return "left_to_right"
	case PanRightToLeft:
		return "right_to_left"
	case PanTopToBottom:
		return "top_to_bottom"
	case PanBottomToTop:
		return "bottom_to_top"
	default:
		return fmt.Sprintf("pan_pattern(%d)", int(p))
	}
}

type Point struct {
	X float64
	Y float64
}

type Rect struct {
	X int
	Y int
	W int
	H int
}

// PlacementPlan describes how one asset is scaled and moved inside the work
// rect. ScaleW x ScaleH is the size the source is resized to; when CropH or
// CropW is set the resized frame is then center-cropped to that size.
// ResizedW x ResizedH is the size of what ends up on the canvas.
// Offsets are relative to the top-left corner of the work rect.
type PlacementPlan struct {
	ScaleW    int
	ScaleH    int
	CropW     int
	CropH     int
	ResizedW  int
	ResizedH  int
	Start     Point
	End       Point
	Duration  float64
	Pattern   PanPattern
	Letterbox bool
}

// Position is the offset of the placed asset at time t seconds into the
// segment. Motion is linear and holds at End after Duration.
func (p PlacementPlan) Position(t float64) Point {
	if p.Pattern == PanFixed || p.Duration <= 0 {
		return p.Start
	}
	f := math.Max(0, math.Min(t/p.Duration, 1))
	return Point{
		X: p.Start.X + (p.End.X-p.Start.X)*f,
		Y: p.Start.Y + (p.End.Y-p.Start.Y)*f,
	}
}

// Cropped reports whether a center crop follows the resize.
func (p PlacementPlan) Cropped() bool {
	return p.CropW > 0 || p.CropH > 0
}

// CaptionLayer is a rendered overlay shown from Start to End, in seconds
// relative to the owning segment.
type CaptionLayer struct {
	Path  string
	Start float64
	End   float64
}

type TimelineSegment struct {
	Index      int
	AssetIndex int
	Asset      MediaAsset
	Lines      []NarrationLine
	Start      float64
	Duration   float64
	Placement  PlacementPlan
	Captions   []CaptionLayer
}

// LineSpans returns each line's [start, end) inside the segment.
func (s TimelineSegment) LineSpans() [][2]float64 {
	spans := make([][2]float64, 0, len(s.Lines))
	offset := 0.0
	for _, l := range s.Lines {
		spans = append(spans, [2]float64{offset, offset + l.Duration})
		offset += l.Duration
	}
	return spans
}

func (s TimelineSegment) End() float64 {
	return s.Start + s.Duration
}

type TransitionEdge struct {
	From         int
	To           int
	FadeDuration float64
}
