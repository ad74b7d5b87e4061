package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"storyreel/config"
	"storyreel/internal/appdirs"
	"storyreel/internal/caption"
	"storyreel/internal/ffmpeg"
	"storyreel/internal/layout"
	"storyreel/internal/timeline"
	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

const (
	outputDirName  = "output"
	outputFileName = "final.mp4"
)

// RenderOptions places one render on disk. WorkDir holds intermediate
// files; Output defaults to WorkDir/output/final.mp4.
type RenderOptions struct {
	WorkDir string
	Output  string
}

func (o RenderOptions) withDefaults() (RenderOptions, error) {
	if o.WorkDir == "" {
		return o, apperrors.New(apperrors.CodeInvalidParams, "render work dir is empty")
	}
	if o.Output == "" {
		o.Output = filepath.Join(o.WorkDir, outputDirName, outputFileName)
	}
	return o, nil
}

type RenderResult struct {
	OutputPath string  `json:"output_path"`
	Duration   float64 `json:"duration"`
	Segments   int     `json:"segments"`
}

// Render produces the final video for a manifest. Only invalid input and a
// failed final write are returned as errors; everything else degrades and
// is logged.
func (s *Service) Render(ctx context.Context, m types.JobManifest, opts RenderOptions) (*RenderResult, error) {
	if err := validateManifest(m); err != nil {
		return nil, err
	}
	cfg, err := BuildRenderConfig(m)
	if err != nil {
		return nil, err
	}
	if opts, err = opts.withDefaults(); err != nil {
		return nil, err
	}
	if err = os.MkdirAll(opts.WorkDir, os.ModePerm); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "create work dir failed", err)
	}

	lines := lo.Filter(m.Lines, func(l types.ManifestLine, _ int) bool {
		return strings.TrimSpace(l.Text) != "" || l.Audio != ""
	})
	narration, err := s.prepareNarration(ctx, opts.WorkDir, lines, narrationOptions{
		FixedDuration: m.FixedLineDuration,
		Tts:           m.Tts == nil || *m.Tts,
		Voice:         m.Voice,
		Fallback:      config.Conf.App.FallbackLineDuration,
		Parallel:      config.Conf.App.TTSParallelNum,
	})
	if err != nil {
		return nil, fmt.Errorf("prepare narration error: %w", err)
	}
	assets, err := s.resolveAssets(ctx, opts.WorkDir, m.Assets, config.Conf.App.TTSParallelNum)
	if err != nil {
		return nil, err
	}

	return s.Compose(ctx, cfg, assets, narration, opts)
}

// Compose is the compositor entry point: allocate, place, caption,
// transition, concatenate, mix and mux.
func (s *Service) Compose(ctx context.Context, cfg types.RenderConfig, assets []types.MediaAsset, narration []types.NarrationLine, opts RenderOptions) (*RenderResult, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	segments, err := timeline.Allocate(cfg.AllocationMode, narration, assets)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidParams, "allocate segments failed", err)
	}

	planner := layout.NewPlanner(cfg.PanRange, cfg.Seed)
	work := cfg.WorkRect()
	for i := range segments {
		seg := &segments[i]
		if cfg.Letterbox {
			seg.Placement = planner.Letterbox(seg.Asset, seg.Duration, work)
		} else {
			seg.Placement = planner.Plan(seg.Asset, seg.Duration, cfg.PanningFor(seg.AssetIndex), work)
		}
	}

	edges := timeline.PlanTransitions(segments, timeline.TransitionOptions{
		Enabled:   cfg.CrossDissolve,
		Fade:      cfg.FadeDuration,
		GroupFade: cfg.GroupFadeDuration,
		MinFade:   cfg.MinFadeDuration,
	})
	comp := timeline.Compose(segments, edges)

	titlePNG := s.renderCaptions(cfg, &comp, filepath.Join(opts.WorkDir, appdirs.CaptionDirName))

	clipDir := filepath.Join(opts.WorkDir, appdirs.ClipDirName)
	if err = os.MkdirAll(clipDir, os.ModePerm); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "create clip dir failed", err)
	}
	clipFiles := make([]ffmpeg.ClipFile, len(comp.Clips))
	for i, clip := range comp.Clips {
		path, err := s.renderSegment(ctx, cfg, clip, titlePNG, filepath.Join(clipDir, fmt.Sprintf("segment_%03d.mp4", i)))
		if err != nil {
			return nil, err
		}
		clipFiles[i] = ffmpeg.ClipFile{Path: path, Length: clip.Length}
	}

	video := filepath.Join(clipDir, "visual.mp4")
	if err = s.concatClips(ctx, cfg, comp, clipFiles, video); err != nil {
		return nil, err
	}

	audio := filepath.Join(clipDir, "audio.m4a")
	plan := timeline.PlanAudio(segments, cfg.MusicPath, comp.Total)
	if err = s.Exec.Run(ctx, ffmpeg.MixArgs(plan, audio)); err != nil {
		log.GetLogger().Warn("audio mix failed, using silence",
			zap.Int("code", apperrors.CodeAudioMix),
			zap.String("music", cfg.MusicPath),
			zap.Error(err))
		if err = s.Exec.Run(ctx, ffmpeg.MixArgs(timeline.AudioPlan{Total: comp.Total}, audio)); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeMux, "audio track could not be written", err)
		}
	}

	if err = s.mux(ctx, video, audio, comp.Total, opts.Output); err != nil {
		return nil, err
	}
	log.GetLogger().Info("render finished",
		zap.String("output", opts.Output),
		zap.Float64("duration", comp.Total),
		zap.Int("segments", len(comp.Clips)),
		zap.Int("fades", len(comp.Edges)))
	return &RenderResult{OutputPath: opts.Output, Duration: comp.Total, Segments: len(comp.Clips)}, nil
}

// renderCaptions writes the title and every line caption as canvas-sized
// PNG overlays and attaches them to the clips. A caption that fails to
// render is left out.
func (s *Service) renderCaptions(cfg types.RenderConfig, comp *timeline.Composition, dir string) string {
	renderer := caption.NewRenderer(cfg)

	var titlePNG string
	if cfg.TitleArea == types.TitleAreaKeep && cfg.Title != "" {
		path := filepath.Join(dir, "title.png")
		err := renderer.RenderToFile(caption.Request{
			Text:     cfg.Title,
			Position: types.CaptionTop,
			Style:    types.CaptionOutline,
			FontSize: cfg.TitleFontSize,
			Title:    true,
		}, path)
		if err != nil {
			log.GetLogger().Warn("title render failed", zap.Int("code", apperrors.CodeTextRender), zap.Error(err))
		} else {
			titlePNG = path
		}
	}

	for i := range comp.Clips {
		clip := &comp.Clips[i]
		spans := clip.CaptionSpans()
		clip.Segment.Captions = nil
		for j, line := range clip.Segment.Lines {
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			path := filepath.Join(dir, fmt.Sprintf("segment_%03d_line_%02d.png", i, j))
			err := renderer.RenderToFile(caption.Request{
				Text:     line.Text,
				Position: cfg.CaptionPosition,
				Style:    cfg.CaptionStyle,
				FontSize: cfg.FontSize,
			}, path)
			if err != nil {
				log.GetLogger().Warn("caption render failed",
					zap.Int("segment", i),
					zap.Int("line", line.Index),
					zap.Int("code", apperrors.CodeTextRender),
					zap.Error(err))
				continue
			}
			clip.Segment.Captions = append(clip.Segment.Captions, types.CaptionLayer{Path: path, Start: spans[j][0], End: spans[j][1]})
		}
	}
	return titlePNG
}

// renderSegment renders one clip, substituting a placeholder of the same
// length when the asset cannot be decoded.
func (s *Service) renderSegment(ctx context.Context, cfg types.RenderConfig, clip timeline.Clip, titlePNG, output string) (string, error) {
	seg := clip.Segment
	in := ffmpeg.SegmentInput{
		Asset:       seg.Asset,
		Placement:   seg.Placement,
		Placeholder: !seg.Asset.Decodable(),
		Length:      clip.Length,
		Work:        cfg.WorkRect(),
		CanvasW:     cfg.CanvasW,
		CanvasH:     cfg.CanvasH,
		Fps:         cfg.Fps,
		TitlePNG:    titlePNG,
		Captions:    seg.Captions,
		Preset:      cfg.EncoderPreset,
		Crf:         cfg.Crf,
		Output:      output,
	}

	err := s.Exec.Run(ctx, ffmpeg.SegmentArgs(in))
	if err == nil {
		return output, nil
	}
	if in.Placeholder {
		return "", apperrors.Wrap(apperrors.CodeSegmentRender, fmt.Sprintf("segment %d could not be rendered", seg.Index), err)
	}

	log.GetLogger().Warn("asset decode failed, using placeholder",
		zap.String("asset", seg.Asset.Path),
		zap.Int("segment", seg.Index),
		zap.Int("code", apperrors.CodeAssetDecode),
		zap.Error(err))
	in.Placeholder = true
	if err = s.Exec.Run(ctx, ffmpeg.SegmentArgs(in)); err != nil {
		return "", apperrors.Wrap(apperrors.CodeSegmentRender, fmt.Sprintf("segment %d could not be rendered", seg.Index), err)
	}
	return output, nil
}

// concatClips joins the clips with their dissolves. When the chain fails,
// each fade is tried on its own pair and the ones that fail become hard
// cuts; a last attempt drops every fade.
func (s *Service) concatClips(ctx context.Context, cfg types.RenderConfig, comp timeline.Composition, clips []ffmpeg.ClipFile, output string) error {
	in := ffmpeg.ConcatInput{
		Clips:  clips,
		Fades:  comp.Fades(),
		Fps:    cfg.Fps,
		Preset: cfg.EncoderPreset,
		Crf:    cfg.Crf,
		Output: output,
	}
	err := s.Exec.Run(ctx, ffmpeg.ConcatArgs(in))
	if err == nil {
		return nil
	}
	if len(comp.Edges) == 0 {
		return apperrors.Wrap(apperrors.CodeMux, "visual track could not be written", err)
	}

	log.GetLogger().Warn("dissolve chain failed, checking each transition", zap.Error(err))
	probe := filepath.Join(filepath.Dir(output), "transition_check_"+uuid.NewString()+".mp4")
	defer os.Remove(probe)
	for _, e := range comp.Edges {
		pair := ffmpeg.ConcatInput{
			Clips:  []ffmpeg.ClipFile{clips[e.From], clips[e.To]},
			Fades:  []float64{e.FadeDuration},
			Fps:    cfg.Fps,
			Preset: "ultrafast",
			Crf:    cfg.Crf,
			Output: probe,
		}
		if perr := s.Exec.Run(ctx, ffmpeg.ConcatArgs(pair)); perr != nil {
			log.GetLogger().Warn("transition failed, using hard cut",
				zap.Int("segment", e.From),
				zap.Float64("fade", e.FadeDuration),
				zap.Int("code", apperrors.CodeTransitionApply),
				zap.Error(perr))
			comp = comp.WithoutFade(e.From)
		}
	}

	in.Clips = clipsFor(comp, clips)
	in.Fades = comp.Fades()
	if err = s.Exec.Run(ctx, ffmpeg.ConcatArgs(in)); err == nil {
		return nil
	}
	log.GetLogger().Warn("dissolve chain failed again, using hard cuts",
		zap.Int("code", apperrors.CodeTransitionApply),
		zap.Error(err))
	comp = comp.HardCuts()
	in.Clips = clipsFor(comp, clips)
	in.Fades = comp.Fades()
	if err = s.Exec.Run(ctx, ffmpeg.ConcatArgs(in)); err != nil {
		return apperrors.Wrap(apperrors.CodeMux, "visual track could not be written", err)
	}
	return nil
}

// clipsFor trims each rendered clip to the length the composition uses.
func clipsFor(comp timeline.Composition, clips []ffmpeg.ClipFile) []ffmpeg.ClipFile {
	return lo.Map(clips, func(c ffmpeg.ClipFile, i int) ffmpeg.ClipFile {
		return ffmpeg.ClipFile{Path: c.Path, Length: comp.Clips[i].Length}
	})
}

// mux writes the final file through a temporary name so a failure never
// leaves a partial output behind.
func (s *Service) mux(ctx context.Context, video, audio string, total float64, output string) error {
	if err := os.MkdirAll(filepath.Dir(output), os.ModePerm); err != nil {
		return apperrors.Wrap(apperrors.CodeMux, "create output dir failed", err)
	}
	tmp := filepath.Join(filepath.Dir(output), ".tmp_"+uuid.NewString()+filepath.Ext(output))
	if err := s.Exec.Run(ctx, ffmpeg.MuxArgs(video, audio, total, tmp)); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrap(apperrors.CodeMux, "final mux failed", err)
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrap(apperrors.CodeMux, "final rename failed", err)
	}
	return nil
}
