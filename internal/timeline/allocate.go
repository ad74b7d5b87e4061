// Package timeline maps narration onto assets and plans the transitions,
// clip lengths and audio layout of the final video. Everything here is pure;
// executing the plan is the ffmpeg package's job.
package timeline

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

var (
	ErrNoAssets = errors.New("no media assets")
	ErrNoLines  = errors.New("no narration lines")
)

// Allocate groups narration lines onto assets. The last asset repeats when
// there are more groups than assets. Segment starts are cumulative, so the
// durations add up to the full narration length.
func Allocate(mode types.AllocationMode, lines []types.NarrationLine, assets []types.MediaAsset) ([]types.TimelineSegment, error) {
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	var groups [][]types.NarrationLine
	switch mode {
	case types.OnePerLine:
		groups = lo.Chunk(lines, 1)
	case types.OnePerTwoLines:
		groups = lo.Chunk(lines, 2)
	case types.SingleForAll:
		groups = [][]types.NarrationLine{lines}
	default:
		return nil, fmt.Errorf("allocate: unsupported allocation mode %s", mode)
	}

	if mode != types.SingleForAll && len(groups) > len(assets) {
		appErr := apperrors.ErrDurationMismatch
		log.GetLogger().Warn("more narration groups than assets, repeating last asset",
			zap.Int("code", appErr.Code),
			zap.String("mode", mode.String()),
			zap.Int("groups", len(groups)),
			zap.Int("assets", len(assets)),
			zap.String("asset", assets[len(assets)-1].Path))
	}

	segments := make([]types.TimelineSegment, 0, len(groups))
	start := 0.0
	for g, group := range groups {
		assetIndex := min(g, len(assets)-1)
		duration := lo.SumBy(group, func(l types.NarrationLine) float64 { return l.Duration })
		segments = append(segments, types.TimelineSegment{
			Index:      g,
			AssetIndex: assetIndex,
			Asset:      assets[assetIndex],
			Lines:      group,
			Start:      start,
			Duration:   duration,
		})
		start += duration
	}
	return segments, nil
}

// TotalDuration is the sum of the segment durations.
func TotalDuration(segments []types.TimelineSegment) float64 {
	return lo.SumBy(segments, func(s types.TimelineSegment) float64 { return s.Duration })
}
