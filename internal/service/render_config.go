package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"storyreel/config"
	"storyreel/internal/types"
	apperrors "storyreel/pkg/errors"
)

const (
	PresetVertical   = "vertical"
	PresetHorizontal = "horizontal"
)

type canvasPreset struct {
	W, H      int
	Letterbox bool
}

var canvasPresets = map[string]canvasPreset{
	PresetVertical:   {W: 504, H: 890},
	PresetHorizontal: {W: 1280, H: 720, Letterbox: true},
}

// validateManifest rejects what no render could produce anything from.
func validateManifest(m types.JobManifest) error {
	lines := lo.Filter(m.Lines, func(l types.ManifestLine, _ int) bool {
		return strings.TrimSpace(l.Text) != "" || l.Audio != ""
	})
	if len(lines) == 0 {
		return apperrors.New(apperrors.CodeInvalidParams, "manifest has no narration lines")
	}
	if len(m.Assets) == 0 {
		return apperrors.New(apperrors.CodeInvalidParams, "manifest has no assets")
	}
	for _, ref := range m.Assets {
		if _, ok := assetKind(ref); !ok {
			return apperrors.New(apperrors.CodeInvalidParams, fmt.Sprintf("unsupported asset %q", ref))
		}
	}
	if m.FixedLineDuration < 0 {
		return apperrors.New(apperrors.CodeInvalidParams, "fixed_line_duration must not be negative")
	}
	if m.CanvasPreset != "" {
		if _, ok := canvasPresets[m.CanvasPreset]; !ok {
			return apperrors.New(apperrors.CodeInvalidParams, fmt.Sprintf("unknown canvas preset %q", m.CanvasPreset))
		}
	}
	return nil
}

// BuildRenderConfig merges the manifest overrides into the configured
// defaults.
func BuildRenderConfig(m types.JobManifest) (types.RenderConfig, error) {
	r := config.Conf.Render
	cfg := types.RenderConfig{
		CanvasW:           r.CanvasWidth,
		CanvasH:           r.CanvasHeight,
		Fps:               r.Fps,
		TitleArea:         types.TitleArea(r.TitleArea),
		TitleBandHeight:   r.TitleBandHeight,
		Title:             strings.TrimSpace(m.Title),
		FontPath:          r.FontPath,
		FontSize:          r.FontSize,
		TitleFontSize:     r.TitleFontSize,
		EnablePanning:     r.EnablePanning,
		PanningDisabled:   append([]int(nil), m.PanningDisabled...),
		PanRange:          r.PanRange,
		Seed:              m.Seed,
		CrossDissolve:     r.CrossDissolve,
		FadeDuration:      r.FadeDuration,
		GroupFadeDuration: r.GroupFadeDuration,
		MinFadeDuration:   r.MinFadeDuration,
		MusicMood:         r.MusicMood,
		EncoderPreset:     r.EncoderPreset,
		Crf:               r.Crf,
	}

	presetName := lo.Ternary(m.CanvasPreset != "", m.CanvasPreset, r.Preset)
	if p, ok := canvasPresets[presetName]; ok {
		cfg.Letterbox = p.Letterbox
		if m.CanvasPreset != "" {
			cfg.CanvasW, cfg.CanvasH = p.W, p.H
		}
	}

	var err error
	if cfg.AllocationMode, err = types.ParseAllocationMode(lo.Ternary(m.AllocationMode != "", m.AllocationMode, r.AllocationMode)); err != nil {
		return cfg, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid allocation mode", err)
	}
	if cfg.CaptionStyle, err = types.ParseCaptionStyle(lo.Ternary(m.CaptionStyle != "", m.CaptionStyle, r.CaptionStyle)); err != nil {
		return cfg, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid caption style", err)
	}
	if cfg.CaptionPosition, err = types.ParseCaptionPosition(lo.Ternary(m.CaptionPosition != "", m.CaptionPosition, r.CaptionPosition)); err != nil {
		return cfg, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid caption position", err)
	}
	if m.TitleArea != "" {
		cfg.TitleArea = types.TitleArea(m.TitleArea)
	}
	if m.FontPath != "" {
		cfg.FontPath = m.FontPath
		if p, ok := resolveUploadPath(m.FontPath); ok {
			cfg.FontPath = p
		}
	}
	if m.CrossDissolve != nil {
		cfg.CrossDissolve = *m.CrossDissolve
	}
	if m.EnablePanning != nil {
		cfg.EnablePanning = *m.EnablePanning
	}
	if m.MusicMood != "" {
		cfg.MusicMood = m.MusicMood
	}

	switch {
	case m.MusicPath != "":
		cfg.MusicPath = m.MusicPath
		if p, ok := resolveUploadPath(m.MusicPath); ok {
			cfg.MusicPath = p
		}
	case cfg.MusicMood != "" && cfg.MusicMood != types.MusicMoodNone:
		cfg.MusicPath = selectMusic(r.MusicDir, cfg.MusicMood)
	}

	if err = cfg.Validate(); err != nil {
		return cfg, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid render config", err)
	}
	return cfg, nil
}

// selectMusic returns the first audio file, by name, in musicDir/mood.
// An empty result means no music and native clip audio instead.
func selectMusic(musicDir, mood string) string {
	if musicDir == "" || mood == "" {
		return ""
	}
	entries, err := os.ReadDir(filepath.Join(musicDir, mood))
	if err != nil {
		return ""
	}
	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && types.IsAudioPath(e.Name())
	})
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(musicDir, mood, names[0])
}
