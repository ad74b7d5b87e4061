package timeline

import (
	"storyreel/internal/types"
)

// Clip is one segment rendered to its own file. Length is the segment
// duration plus the outgoing fade, so the dissolve into the next segment
// overlaps this clip's tail and the total stays equal to the narration.
type Clip struct {
	Segment types.TimelineSegment
	FadeOut float64
	Length  float64
}

type Composition struct {
	Clips []Clip
	Edges []types.TransitionEdge
	Total float64
}

// Compose attaches the transition edges to the clips they fade out of.
func Compose(segments []types.TimelineSegment, edges []types.TransitionEdge) Composition {
	fadeOut := make(map[int]float64, len(edges))
	for _, e := range edges {
		if e.To == e.From+1 && e.FadeDuration > 0 {
			fadeOut[e.From] = e.FadeDuration
		}
	}

	c := Composition{Clips: make([]Clip, 0, len(segments))}
	for i, seg := range segments {
		f := fadeOut[i]
		if i == len(segments)-1 {
			f = 0
		}
		c.Clips = append(c.Clips, Clip{Segment: seg, FadeOut: f, Length: seg.Duration + f})
		c.Total += seg.Duration
	}
	for _, e := range edges {
		if e.From >= 0 && e.To < len(segments) && fadeOut[e.From] > 0 {
			c.Edges = append(c.Edges, e)
		}
	}
	return c
}

// Fades returns the fade into each clip after the first, zero meaning a
// hard cut.
func (c Composition) Fades() []float64 {
	if len(c.Clips) < 2 {
		return nil
	}
	fades := make([]float64, len(c.Clips)-1)
	for i := range fades {
		fades[i] = c.Clips[i].FadeOut
	}
	return fades
}

// WithoutFade returns a copy where clip i cuts hard into clip i+1.
func (c Composition) WithoutFade(i int) Composition {
	out := Composition{Total: c.Total, Clips: append([]Clip(nil), c.Clips...)}
	if i >= 0 && i < len(out.Clips) {
		out.Clips[i].FadeOut = 0
		out.Clips[i].Length = out.Clips[i].Segment.Duration
	}
	for _, e := range c.Edges {
		if e.From != i {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// HardCuts drops every fade.
func (c Composition) HardCuts() Composition {
	out := c
	for i := range c.Clips {
		out = out.WithoutFade(i)
	}
	return out
}

// CaptionSpans gives each narration line of a clip its display interval.
// The last line stays up through the clip's fade tail.
func (c Clip) CaptionSpans() [][2]float64 {
	spans := c.Segment.LineSpans()
	if n := len(spans); n > 0 {
		spans[n-1][1] = c.Length
	}
	return spans
}
