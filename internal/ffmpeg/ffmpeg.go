// Package ffmpeg builds ffmpeg argument lists for each render stage and
// runs them. Builders are pure so they can be tested without a binary.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storyreel/log"
)

// Binary locations, set at startup by the dependency resolver.
var (
	FfmpegPath  = "ffmpeg"
	FfprobePath = "ffprobe"
)

// Executor runs ffmpeg and ffprobe.
type Executor interface {
	Run(ctx context.Context, args []string) error
	Probe(ctx context.Context, path string) (ProbeResult, error)
}

// CLI executes the configured binaries.
type CLI struct{}

func (CLI) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, FfmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("ffmpeg run error",
			zap.Strings("args", args),
			zap.String("output", tail(string(output), 4000)),
			zap.Error(err))
		return fmt.Errorf("ffmpeg error: %w: %s", err, tail(string(output), 400))
	}
	return nil
}

func (CLI) Probe(ctx context.Context, path string) (ProbeResult, error) {
	cmd := exec.CommandContext(ctx, FfprobePath, ProbeArgs(path)...)
	out, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseProbe(out)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// sec formats seconds with millisecond precision.
func sec(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func size(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
