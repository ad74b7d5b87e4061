package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"storyreel/internal/types"
)

// loadManifest reads a YAML manifest. Relative local paths inside it are
// taken relative to the manifest file.
func loadManifest(path string) (types.JobManifest, error) {
	var m types.JobManifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read manifest error: %w", err)
	}
	if err = yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s error: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Assets {
		m.Assets[i] = anchorPath(base, m.Assets[i])
	}
	for i := range m.Lines {
		m.Lines[i].Audio = anchorPath(base, m.Lines[i].Audio)
	}
	m.MusicPath = anchorPath(base, m.MusicPath)
	m.FontPath = anchorPath(base, m.FontPath)
	return m, nil
}

func anchorPath(base, ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "",
		filepath.IsAbs(ref),
		strings.HasPrefix(ref, "http://"),
		strings.HasPrefix(ref, "https://"),
		strings.HasPrefix(ref, "local:"):
		return ref
	}
	return filepath.Join(base, ref)
}
