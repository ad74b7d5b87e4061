package deps

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/ffmpeg"
)

func notFoundErr(command string) error {
	return &exec.Error{Name: command, Err: exec.ErrNotFound}
}

func TestPathResolverResolvePrefersConfiguredPath(t *testing.T) {
	binPath := filepath.Join(t.TempDir(), "ffmpeg-custom")
	if err := os.WriteFile(binPath, []byte("ffmpeg"), 0o755); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}

	resolver := NewPathResolver()
	resolver.LookPath = func(file string) (string, error) {
		return "", notFoundErr(file)
	}

	state := resolver.Resolve(DependencySpec{
		Name:           "ffmpeg",
		Command:        "ffmpeg",
		ConfiguredPath: binPath,
	})

	if state.Status != DependencyStatusOK {
		t.Fatalf("state.Status = %q, want %q", state.Status, DependencyStatusOK)
	}
	if state.Source != DependencySourceConfig {
		t.Fatalf("state.Source = %q, want %q", state.Source, DependencySourceConfig)
	}
	if state.ResolvedPath != binPath {
		t.Fatalf("state.ResolvedPath = %q, want %q", state.ResolvedPath, binPath)
	}
}

func TestPathResolverResolveFallsBackToLookPath(t *testing.T) {
	resolver := NewPathResolver()
	resolver.LookPath = func(file string) (string, error) {
		if file != "ffmpeg" {
			t.Fatalf("LookPath() received %q, want %q", file, "ffmpeg")
		}
		return "/mock/bin/ffmpeg", nil
	}

	state := resolver.Resolve(DependencySpec{Name: "ffmpeg", Command: "ffmpeg"})

	if state.Status != DependencyStatusOK {
		t.Fatalf("state.Status = %q, want %q", state.Status, DependencyStatusOK)
	}
	if state.Source != DependencySourceLookPath {
		t.Fatalf("state.Source = %q, want %q", state.Source, DependencySourceLookPath)
	}
	if state.ResolvedPath != "/mock/bin/ffmpeg" {
		t.Fatalf("state.ResolvedPath = %q, want %q", state.ResolvedPath, "/mock/bin/ffmpeg")
	}
}

func TestPathResolverResolveReportsMissingWhenNotFound(t *testing.T) {
	resolver := NewPathResolver()
	resolver.LookPath = func(file string) (string, error) {
		return "", notFoundErr(file)
	}

	state := resolver.Resolve(DependencySpec{Name: "ffmpeg", Command: "ffmpeg"})

	if state.Status != DependencyStatusMissing {
		t.Fatalf("state.Status = %q, want %q", state.Status, DependencyStatusMissing)
	}
	if state.Source != DependencySourceLookPath {
		t.Fatalf("state.Source = %q, want %q", state.Source, DependencySourceLookPath)
	}
	if state.ResolvedPath != "" {
		t.Fatalf("state.ResolvedPath = %q, want empty", state.ResolvedPath)
	}
	if state.Error == "" {
		t.Fatalf("state.Error should not be empty")
	}
}

func TestPathResolverResolveConfiguredMissingReturnsMissing(t *testing.T) {
	missingPath := filepath.Join(t.TempDir(), "missing-ffmpeg")

	resolver := NewPathResolver()
	resolver.LookPath = func(file string) (string, error) {
		return "", notFoundErr(file)
	}

	state := resolver.Resolve(DependencySpec{
		Name:           "ffmpeg",
		Command:        "ffmpeg",
		ConfiguredPath: missingPath,
	})

	if state.Status != DependencyStatusMissing {
		t.Fatalf("state.Status = %q, want %q", state.Status, DependencyStatusMissing)
	}
	if state.Source != DependencySourceConfig {
		t.Fatalf("state.Source = %q, want %q", state.Source, DependencySourceConfig)
	}
	if state.ResolvedPath != missingPath {
		t.Fatalf("state.ResolvedPath = %q, want %q", state.ResolvedPath, missingPath)
	}
	if state.Error == "" {
		t.Fatalf("state.Error should not be empty")
	}
}

func TestPathResolverResolveConfiguredStatFailureReturnsError(t *testing.T) {
	resolver := NewPathResolver()
	resolver.LookPath = func(file string) (string, error) {
		return "", notFoundErr(file)
	}
	resolver.AbsPath = func(path string) (string, error) {
		return "/mock/configured/path", nil
	}
	resolver.Stat = func(name string) (os.FileInfo, error) {
		if name != "/mock/configured/path" {
			t.Fatalf("Stat() received %q, want %q", name, "/mock/configured/path")
		}
		return nil, errors.New("permission denied")
	}

	state := resolver.Resolve(DependencySpec{
		Name:           "ffmpeg",
		Command:        "ffmpeg",
		ConfiguredPath: "ignored",
	})

	if state.Status != DependencyStatusError {
		t.Fatalf("state.Status = %q, want %q", state.Status, DependencyStatusError)
	}
	if state.Source != DependencySourceConfig {
		t.Fatalf("state.Source = %q, want %q", state.Source, DependencySourceConfig)
	}
	if state.ResolvedPath != "/mock/configured/path" {
		t.Fatalf("state.ResolvedPath = %q, want %q", state.ResolvedPath, "/mock/configured/path")
	}
	if !strings.Contains(state.Error, "permission denied") {
		t.Fatalf("state.Error = %q, want to contain %q", state.Error, "permission denied")
	}
}

func TestBuildDependencyInventoryCarriesConfiguredPaths(t *testing.T) {
	specs := BuildDependencyInventory("/opt/ff/ffmpeg", "")

	ffmpegSpec, ok := findDependencySpec(specs, "ffmpeg")
	if !ok {
		t.Fatalf("ffmpeg spec not found")
	}
	ffprobeSpec, ok := findDependencySpec(specs, "ffprobe")
	if !ok {
		t.Fatalf("ffprobe spec not found")
	}

	if ffmpegSpec.ConfiguredPath != "/opt/ff/ffmpeg" {
		t.Fatalf("ffmpegSpec.ConfiguredPath = %q, want %q", ffmpegSpec.ConfiguredPath, "/opt/ff/ffmpeg")
	}
	if ffprobeSpec.ConfiguredPath != "" {
		t.Fatalf("ffprobeSpec.ConfiguredPath = %q, want empty", ffprobeSpec.ConfiguredPath)
	}
	if ffmpegSpec.Tier != DependencyTierMust || ffprobeSpec.Tier != DependencyTierMust {
		t.Fatalf("ffmpeg and ffprobe must both be required")
	}
}

func TestApplyDependencyStatesInstallsResolvedPaths(t *testing.T) {
	originalFfmpeg, originalFfprobe := ffmpeg.FfmpegPath, ffmpeg.FfprobePath
	t.Cleanup(func() {
		ffmpeg.FfmpegPath, ffmpeg.FfprobePath = originalFfmpeg, originalFfprobe
	})

	specs := BuildDependencyInventory("", "")
	states := []DependencyState{
		{DependencySpec: specs[0], Status: DependencyStatusOK, ResolvedPath: "/mock/bin/ffmpeg", Source: DependencySourceLookPath},
		{DependencySpec: specs[1], Status: DependencyStatusOK, ResolvedPath: "/mock/bin/ffprobe", Source: DependencySourceLookPath},
	}
	if err := applyDependencyStates(states); err != nil {
		t.Fatalf("applyDependencyStates() returned error: %v", err)
	}
	if ffmpeg.FfmpegPath != "/mock/bin/ffmpeg" || ffmpeg.FfprobePath != "/mock/bin/ffprobe" {
		t.Fatalf("paths not installed: %q %q", ffmpeg.FfmpegPath, ffmpeg.FfprobePath)
	}

	states[1].Status = DependencyStatusMissing
	states[1].Error = "executable file not found in $PATH"
	err := applyDependencyStates(states)
	if err == nil {
		t.Fatal("applyDependencyStates() returned nil error with ffprobe missing")
	}
	if !strings.Contains(err.Error(), "ffprobe") {
		t.Fatalf("error = %q, want to mention ffprobe", err.Error())
	}
}

func TestFormatDependencyReport(t *testing.T) {
	report := FormatDependencyReport([]DependencyState{{
		DependencySpec: DependencySpec{Name: "ffmpeg", Tier: DependencyTierMust, Hint: "install it"},
		Status:         DependencyStatusMissing,
		Error:          "not found",
	}})
	for _, want := range []string{"- ffmpeg [MUST]: missing | path=unknown | source=n/a", "error: not found", "hint: install it"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
	if FormatDependencyReport(nil) != "No dependencies to diagnose." {
		t.Fatalf("unexpected empty report")
	}
}

func findDependencySpec(specs []DependencySpec, id string) (DependencySpec, bool) {
	for _, spec := range specs {
		if spec.ID == id {
			return spec, true
		}
	}
	return DependencySpec{}, false
}
