package ffmpeg

import (
	"fmt"
	"strings"
)

// ClipFile is a rendered segment clip. Length is how much of it is used;
// the clip file may be longer.
type ClipFile struct {
	Path   string
	Length float64
}

type ConcatInput struct {
	Clips []ClipFile
	// Fades[i] is the dissolve from clip i into clip i+1; zero is a hard cut.
	Fades  []float64
	Fps    int
	Preset string
	Crf    int
	Output string
}

// Offsets returns the xfade offset of each faded boundary, measured on the
// output built so far. Hard cuts report the plain join point.
func (in ConcatInput) Offsets() []float64 {
	if len(in.Clips) < 2 {
		return nil
	}
	offsets := make([]float64, len(in.Clips)-1)
	acc := in.Clips[0].Length
	for k := 1; k < len(in.Clips); k++ {
		f := in.fade(k - 1)
		offsets[k-1] = acc - f
		acc = offsets[k-1] + in.Clips[k].Length
	}
	return offsets
}

// OutputLength is the length of the joined track.
func (in ConcatInput) OutputLength() float64 {
	if len(in.Clips) == 0 {
		return 0
	}
	offsets := in.Offsets()
	if len(offsets) == 0 {
		return in.Clips[0].Length
	}
	return offsets[len(offsets)-1] + in.Clips[len(in.Clips)-1].Length
}

func (in ConcatInput) fade(i int) float64 {
	if i < 0 || i >= len(in.Fades) {
		return 0
	}
	return in.Fades[i]
}

// ConcatArgs joins the clips with a chain of xfade filters for faded
// boundaries and concat filters for hard cuts. Every input is trimmed to its
// Length and retimed so xfade sees matching timebases.
func ConcatArgs(in ConcatInput) []string {
	args := []string{"-y"}
	var graph []string
	for i, c := range in.Clips {
		args = append(args, "-i", c.Path)
		graph = append(graph, fmt.Sprintf("[%d:v]trim=duration=%s,setpts=PTS-STARTPTS,fps=%d,settb=AVTB,format=yuv420p[c%d]",
			i, sec(c.Length), in.Fps, i))
	}

	last := "c0"
	offsets := in.Offsets()
	for k := 1; k < len(in.Clips); k++ {
		out := fmt.Sprintf("x%d", k)
		if f := in.fade(k - 1); f > 0 {
			graph = append(graph, fmt.Sprintf("[%s][c%d]xfade=transition=fade:duration=%s:offset=%s[%s]",
				last, k, sec(f), sec(offsets[k-1]), out))
		} else {
			graph = append(graph, fmt.Sprintf("[%s][c%d]concat=n=2:v=1:a=0[%s]", last, k, out))
		}
		last = out
	}

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "["+last+"]",
		"-t", sec(in.OutputLength()),
		"-r", fmt.Sprintf("%d", in.Fps),
		"-c:v", "libx264",
		"-preset", presetOr(in.Preset),
		"-crf", fmt.Sprintf("%d", crfOr(in.Crf)),
		"-pix_fmt", "yuv420p",
		"-an",
		in.Output,
	)
	return args
}
