package types

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// MediaAsset is a still image or video clip resolved to a local file.
// Width and Height are zero when the file could not be probed.
type MediaAsset struct {
	Index    int       `json:"index" yaml:"index"`
	Path     string    `json:"path" yaml:"path"`
	Kind     AssetKind `json:"kind" yaml:"kind"`
	Width    int       `json:"width" yaml:"width"`
	Height   int       `json:"height" yaml:"height"`
	Duration float64   `json:"duration,omitempty" yaml:"duration,omitempty"` // seconds, video only
	HasAudio bool      `json:"has_audio,omitempty" yaml:"has_audio,omitempty"`
}

func (a MediaAsset) IsVideo() bool {
	return a.Kind == AssetKindVideo
}

// Decodable reports whether the asset has usable dimensions.
func (a MediaAsset) Decodable() bool {
	return a.Width > 0 && a.Height > 0
}

var (
	imageExts = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp"}
	videoExts = []string{".mp4", ".mov", ".mkv", ".webm", ".avi", ".m4v"}
	audioExts = []string{".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac"}
)

// KindFromPath decides the asset kind by file extension. ok is false for
// anything that is neither an image nor a video.
func KindFromPath(path string) (kind AssetKind, ok bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case lo.Contains(imageExts, ext):
		return AssetKindImage, true
	case lo.Contains(videoExts, ext):
		return AssetKindVideo, true
	}
	return "", false
}

func IsAudioPath(path string) bool {
	return lo.Contains(audioExts, strings.ToLower(filepath.Ext(path)))
}

// NarrationLine is one caption line with its narration clip. AudioPath is
// empty when synthesis failed or a fixed line duration was requested.
type NarrationLine struct {
	Index     int     `json:"index" yaml:"index"`
	Text      string  `json:"text" yaml:"text"`
	AudioPath string  `json:"audio_path,omitempty" yaml:"audio_path,omitempty"`
	Duration  float64 `json:"duration" yaml:"duration"`
}

func (l NarrationLine) HasAudio() bool {
	return l.AudioPath != ""
}
