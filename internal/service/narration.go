package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

const narrationDirName = "narration"

type narrationOptions struct {
	// FixedDuration skips synthesis: every line lasts this long.
	FixedDuration float64
	Tts           bool
	Voice         string
	Fallback      float64
	Parallel      int
}

// prepareNarration gives every manifest line an audio clip and a duration.
// Lines whose synthesis fails keep no audio and the fallback duration; a
// failed line never fails the job.
func (s *Service) prepareNarration(ctx context.Context, jobDir string, lines []types.ManifestLine, opts narrationOptions) ([]types.NarrationLine, error) {
	if opts.Fallback <= 0 {
		opts.Fallback = 3.0
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 1
	}
	silent := opts.Fallback
	if opts.FixedDuration > 0 {
		silent = opts.FixedDuration
	}

	out := make([]types.NarrationLine, len(lines))
	synthesize := opts.Tts && opts.FixedDuration <= 0 && s.ttsEnabled()
	if synthesize {
		if err := os.MkdirAll(filepath.Join(jobDir, narrationDirName), os.ModePerm); err != nil {
			return nil, fmt.Errorf("prepareNarration mkdir error: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for i, line := range lines {
		i, line := i, line
		out[i] = types.NarrationLine{Index: i, Text: line.Text, Duration: silent}

		switch {
		case line.Audio != "":
			g.Go(func() error {
				s.attachRecordedAudio(gctx, &out[i], line.Audio, silent)
				return gctx.Err()
			})
		case synthesize:
			g.Go(func() error {
				s.synthesizeLine(gctx, jobDir, &out[i], opts.Voice, silent)
				return gctx.Err()
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) attachRecordedAudio(ctx context.Context, line *types.NarrationLine, ref string, fallback float64) {
	path := ref
	if p, ok := resolveUploadPath(ref); ok {
		path = p
	}
	d, err := audioDuration(ctx, path)
	if err != nil {
		log.GetLogger().Warn("narration audio unusable, using fallback duration",
			zap.Int("line", line.Index),
			zap.String("audio", path),
			zap.Int("code", apperrors.CodeTTSFailed),
			zap.Error(err))
		line.Duration = fallback
		return
	}
	line.AudioPath = path
	line.Duration = d
}

func (s *Service) synthesizeLine(ctx context.Context, jobDir string, line *types.NarrationLine, voice string, fallback float64) {
	if line.Text == "" {
		return
	}
	outputFile := filepath.Join(jobDir, narrationDirName, fmt.Sprintf("line_%03d.mp3", line.Index))
	err := s.Tts.Synthesize(ctx, line.Text, voice, outputFile)
	if err == nil {
		var d float64
		if d, err = audioDuration(ctx, outputFile); err == nil {
			line.AudioPath = outputFile
			line.Duration = d
			return
		}
	}
	log.GetLogger().Warn("narration synthesis failed, using fallback duration",
		zap.Int("line", line.Index),
		zap.Int("code", apperrors.CodeTTSFailed),
		zap.Float64("duration", fallback),
		zap.Error(err))
	line.AudioPath = ""
	line.Duration = fallback
}
