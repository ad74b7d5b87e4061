package ffmpeg

import (
	"fmt"
	"strings"

	"storyreel/internal/types"
)

const placeholderColor = "0x1e1e1e"

// SegmentInput is everything needed to render one timeline segment to its
// own clip: the placed asset inside the work rect, the title band and the
// caption overlays.
type SegmentInput struct {
	Asset       types.MediaAsset
	Placement   types.PlacementPlan
	Placeholder bool
	Length      float64
	Work        types.Rect
	CanvasW     int
	CanvasH     int
	Fps         int
	TitlePNG    string
	Captions    []types.CaptionLayer
	Preset      string
	Crf         int
	Output      string
}

// SegmentArgs renders a segment clip. The asset is scaled (and cropped for
// special-band images), moved along its pan inside a work-rect sized canvas
// that clips the overflow, and the result is placed on the black canvas
// before titles and captions are overlaid.
func SegmentArgs(in SegmentInput) []string {
	length := sec(in.Length)
	fps := fmt.Sprintf("%d", in.Fps)
	args := []string{"-y"}

	var graph []string
	next := 0
	if in.Placeholder {
		graph = append(graph, fmt.Sprintf("color=c=%s:s=%s:r=%s:d=%s,format=rgba[fg]",
			placeholderColor, size(in.Work.W, in.Work.H), fps, length))
	} else {
		if in.Asset.IsVideo() {
			args = append(args, "-stream_loop", "-1", "-t", length, "-i", in.Asset.Path)
		} else {
			args = append(args, "-loop", "1", "-framerate", fps, "-t", length, "-i", in.Asset.Path)
		}
		graph = append(graph, fmt.Sprintf("[%d:v]%s[fg]", next, fgChain(in.Placement, in.Fps)))
		next++
	}

	graph = append(graph,
		fmt.Sprintf("color=c=black:s=%s:r=%s:d=%s[work]", size(in.Work.W, in.Work.H), fps, length),
		fmt.Sprintf("[work][fg]overlay=x='%s':y='%s':eval=frame[placed]",
			panExpr(in.Placement.Start.X, in.Placement.End.X, in.Placement),
			panExpr(in.Placement.Start.Y, in.Placement.End.Y, in.Placement)),
		fmt.Sprintf("color=c=black:s=%s:r=%s:d=%s[canvas]", size(in.CanvasW, in.CanvasH), fps, length),
		fmt.Sprintf("[canvas][placed]overlay=x=%d:y=%d[v0]", in.Work.X, in.Work.Y),
	)

	last := "v0"
	layer := 0
	overlay := func(path, enable string) {
		args = append(args, "-loop", "1", "-framerate", fps, "-t", length, "-i", path)
		layer++
		out := fmt.Sprintf("v%d", layer)
		f := fmt.Sprintf("[%s][%d:v]overlay=0:0", last, next)
		if enable != "" {
			f += ":enable='" + enable + "'"
		}
		graph = append(graph, f+"["+out+"]")
		last = out
		next++
	}
	if in.TitlePNG != "" {
		overlay(in.TitlePNG, "")
	}
	for _, c := range in.Captions {
		if c.Path == "" || c.End <= c.Start {
			continue
		}
		overlay(c.Path, fmt.Sprintf("between(t,%s,%s)", sec(c.Start), sec(c.End)))
	}
	graph = append(graph, fmt.Sprintf("[%s]format=yuv420p[vout]", last))

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[vout]",
		"-t", length,
		"-r", fps,
		"-c:v", "libx264",
		"-preset", presetOr(in.Preset),
		"-crf", fmt.Sprintf("%d", crfOr(in.Crf)),
		"-pix_fmt", "yuv420p",
		"-an",
		in.Output,
	)
	return args
}

func fgChain(p types.PlacementPlan, fps int) string {
	parts := []string{
		"setpts=PTS-STARTPTS",
		fmt.Sprintf("scale=%d:%d:flags=lanczos", p.ScaleW, p.ScaleH),
		"setsar=1",
	}
	if p.Cropped() {
		parts = append(parts, fmt.Sprintf("crop=%d:%d", p.ResizedW, p.ResizedH))
	}
	parts = append(parts, fmt.Sprintf("fps=%d", fps), "format=rgba")
	return strings.Join(parts, ",")
}

// panExpr is the overlay position on one axis: a constant, or a linear move
// from start to end over the plan's duration that then holds.
func panExpr(start, end float64, p types.PlacementPlan) string {
	if start == end || p.Pattern == types.PanFixed || p.Duration <= 0 {
		return num(start)
	}
	return fmt.Sprintf("%s+(%s)*min(t/%s,1)", num(start), num(end-start), sec(p.Duration))
}

func presetOr(p string) string {
	if p == "" {
		return "fast"
	}
	return p
}

func crfOr(c int) int {
	if c <= 0 {
		return 23
	}
	return c
}
