package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = writer
	defer func() {
		os.Stdout = oldStdout
	}()

	fn()

	require.NoError(t, writer.Close())
	var buffer bytes.Buffer
	_, err = io.Copy(&buffer, reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	return buffer.String()
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-manifest", "job.yaml", "-out", "dist"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "job.yaml", opts.manifestPath)
	assert.Equal(t, "dist", opts.outDir)

	opts, err = parseFlags([]string{"-version"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.showVersion)
	assert.Equal(t, "render-out", opts.outDir)

	_, err = parseFlags(nil, io.Discard)
	assert.ErrorIs(t, err, errManifestRequired)

	_, err = parseFlags([]string{"-bogus"}, io.Discard)
	assert.Error(t, err)
}

func TestPrintDiagnoseShowsPathsAndDependencies(t *testing.T) {
	output := captureStdout(t, printDiagnose)
	assert.Contains(t, output, "path.effective_log_dir:")
	assert.Contains(t, output, "path.jobs:")
	assert.Contains(t, output, "Dependency status")
	assert.Contains(t, output, "ffprobe")
}

func TestLoadManifestAnchorsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`
title: Weekend
lines:
  - text: Saturday.
    audio: voice/sat.mp3
  - text: Sunday.
assets:
  - img/a.png
  - https://cdn.example.com/b.jpg
  - local:uploads/c.png
music_path: /abs/calm.mp3
fixed_line_duration: 2
`), 0o644))

	m, err := loadManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "Weekend", m.Title)
	require.Len(t, m.Lines, 2)
	assert.Equal(t, filepath.Join(dir, "voice", "sat.mp3"), m.Lines[0].Audio)
	assert.Empty(t, m.Lines[1].Audio)
	assert.Equal(t, []string{
		filepath.Join(dir, "img", "a.png"),
		"https://cdn.example.com/b.jpg",
		"local:uploads/c.png",
	}, m.Assets)
	assert.Equal(t, "/abs/calm.mp3", m.MusicPath)
	assert.Equal(t, 2.0, m.FixedLineDuration)
}

func TestLoadManifestRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lines: [unterminated"), 0o644))
	_, err := loadManifest(path)
	assert.Error(t, err)
}
