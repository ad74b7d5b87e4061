package timeline

import (
	"math"

	"storyreel/internal/types"
)

const (
	DefaultFadeDuration      = 0.4
	DefaultGroupFadeDuration = 2.0
	DefaultMinFadeDuration   = 0.15
	maxFadeShare             = 0.3
)

type TransitionOptions struct {
	Enabled bool
	Fade    float64
	// GroupFade is used between two image segments when either of them
	// carries more than one narration line.
	GroupFade float64
	MinFade   float64
}

func DefaultTransitionOptions() TransitionOptions {
	return TransitionOptions{
		Enabled:   true,
		Fade:      DefaultFadeDuration,
		GroupFade: DefaultGroupFadeDuration,
		MinFade:   DefaultMinFadeDuration,
	}
}

// PlanTransitions emits one cross-dissolve edge per adjacent pair regardless
// of media type. The fade never exceeds 30% of either neighbour.
func PlanTransitions(segments []types.TimelineSegment, opts TransitionOptions) []types.TransitionEdge {
	if !opts.Enabled || len(segments) < 2 {
		return nil
	}

	edges := make([]types.TransitionEdge, 0, len(segments)-1)
	for i := 0; i+1 < len(segments); i++ {
		from, to := segments[i], segments[i+1]

		requested := opts.Fade
		if isImageGroupPair(from, to) && opts.GroupFade > 0 {
			requested = opts.GroupFade
		}
		fade := ClampFade(requested, opts.MinFade, from.Duration, to.Duration)
		if fade <= 0 {
			continue
		}
		edges = append(edges, types.TransitionEdge{From: i, To: i + 1, FadeDuration: fade})
	}
	return edges
}

// ClampFade raises the requested fade to the floor and then caps it at 30%
// of the shorter neighbour. The cap wins over the floor.
func ClampFade(requested, floor, fromDuration, toDuration float64) float64 {
	fade := math.Max(requested, floor)
	fade = math.Min(fade, maxFadeShare*fromDuration)
	fade = math.Min(fade, maxFadeShare*toDuration)
	return fade
}

func isImageGroupPair(from, to types.TimelineSegment) bool {
	if from.Asset.IsVideo() || to.Asset.IsVideo() {
		return false
	}
	return len(from.Lines) > 1 || len(to.Lines) > 1
}
