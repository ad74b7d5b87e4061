package util

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storyreel/internal/ffmpeg"
	"storyreel/log"
)

// AudioDuration returns the length of an audio file in seconds.
func AudioDuration(ctx context.Context, filePath string) (float64, error) {
	cmdArgs := []string{"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", filePath}
	cmd := exec.CommandContext(ctx, ffmpeg.FfprobePath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("AudioDuration ffprobe error", zap.String("audio file", filePath), zap.String("output", string(output)), zap.Error(err))
		return 0, fmt.Errorf("AudioDuration ffprobe error: %w", err)
	}
	return ParseDuration(string(output))
}

// ParseDuration reads a bare ffprobe duration value.
func ParseDuration(s string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(s), err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", d)
	}
	return d, nil
}
