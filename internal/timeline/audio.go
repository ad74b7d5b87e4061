package timeline

import (
	"github.com/samber/lo"

	"storyreel/internal/types"
)

const (
	NarrationWithNativeVolume = 0.7
	NativeWithNarrationVolume = 0.3
	MusicWithNarrationVolume  = 0.17
	FullVolume                = 1.0
)

// AudioPiece is a stretch of one track. An empty Path is silence.
type AudioPiece struct {
	Path     string
	Duration float64
	Loop     bool
}

// AudioTrack is a sequence of pieces played back to back at Volume.
type AudioTrack struct {
	Pieces []AudioPiece
	Volume float64
}

func (t AudioTrack) Duration() float64 {
	return lo.SumBy(t.Pieces, func(p AudioPiece) float64 { return p.Duration })
}

func (t AudioTrack) Empty() bool {
	return len(t.Pieces) == 0
}

// AudioPlan describes the final audio. Every track is padded or trimmed to
// Total; nothing is time-stretched.
type AudioPlan struct {
	Total     float64
	Narration AudioTrack
	Native    AudioTrack
	Music     AudioTrack
}

// PlanAudio picks the supplemental track: background music when a music file
// was selected, otherwise the native audio of the video assets used.
func PlanAudio(segments []types.TimelineSegment, musicPath string, total float64) AudioPlan {
	plan := AudioPlan{Total: total}

	lines := lo.FlatMap(segments, func(s types.TimelineSegment, _ int) []types.NarrationLine { return s.Lines })
	hasNarration := lo.SomeBy(lines, func(l types.NarrationLine) bool { return l.HasAudio() })
	if hasNarration {
		plan.Narration = AudioTrack{
			Volume: FullVolume,
			Pieces: lo.Map(lines, func(l types.NarrationLine, _ int) AudioPiece {
				return AudioPiece{Path: l.AudioPath, Duration: l.Duration}
			}),
		}
	}

	if musicPath != "" {
		target := total
		if hasNarration {
			target = plan.Narration.Duration()
		}
		plan.Music = AudioTrack{
			Pieces: []AudioPiece{{Path: musicPath, Duration: target, Loop: true}},
			Volume: lo.Ternary(hasNarration, MusicWithNarrationVolume, FullVolume),
		}
		return plan
	}

	hasNative := lo.SomeBy(segments, func(s types.TimelineSegment) bool { return s.Asset.IsVideo() && s.Asset.HasAudio })
	if !hasNative {
		return plan
	}

	plan.Native = AudioTrack{
		Volume: lo.Ternary(hasNarration, NativeWithNarrationVolume, FullVolume),
		Pieces: lo.Map(segments, func(s types.TimelineSegment, _ int) AudioPiece {
			if s.Asset.IsVideo() && s.Asset.HasAudio {
				return AudioPiece{Path: s.Asset.Path, Duration: s.Duration, Loop: true}
			}
			return AudioPiece{Duration: s.Duration}
		}),
	}
	if hasNarration {
		plan.Narration.Volume = NarrationWithNativeVolume
	}
	return plan
}
