package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storyreel/internal/ffmpeg"
	"storyreel/internal/mocks"
	"storyreel/internal/types"
	apperrors "storyreel/pkg/errors"
)

func TestAssetKind(t *testing.T) {
	cases := []struct {
		ref  string
		kind types.AssetKind
		ok   bool
	}{
		{"photos/a.JPG", types.AssetKindImage, true},
		{"clip.mov", types.AssetKindVideo, true},
		{"https://cdn.example.com/x/pic.webp?sig=abc", types.AssetKindImage, true},
		{"https://cdn.example.com/download?id=3", "", false},
		{"notes.txt", "", false},
	}
	for _, c := range cases {
		kind, ok := assetKind(c.ref)
		assert.Equal(t, c.ok, ok, c.ref)
		assert.Equal(t, c.kind, kind, c.ref)
	}
}

func TestResolveAssetsProbesLocalFiles(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, filepath.Join(dir, "wide.png"))
	vid := writeFile(t, filepath.Join(dir, "clip.mp4"))
	broken := writeFile(t, filepath.Join(dir, "broken.jpg"))

	exec := new(mocks.MockExecutor)
	exec.On("Probe", mock.Anything, img).Return(ffmpeg.ProbeResult{Width: 1600, Height: 900, HasVideo: true}, nil)
	exec.On("Probe", mock.Anything, vid).Return(ffmpeg.ProbeResult{Width: 1080, Height: 1920, Duration: 7.5, HasVideo: true, HasAudio: true}, nil)
	exec.On("Probe", mock.Anything, broken).Return(ffmpeg.ProbeResult{}, errors.New("invalid data"))

	svc := &Service{Exec: exec}
	assets, err := svc.resolveAssets(context.Background(), dir, []string{img, vid, broken, filepath.Join(dir, "gone.png")}, 2)
	require.NoError(t, err)
	require.Len(t, assets, 4)

	assert.Equal(t, types.MediaAsset{Index: 0, Path: img, Kind: types.AssetKindImage, Width: 1600, Height: 900}, assets[0])
	assert.True(t, assets[1].IsVideo())
	assert.InDelta(t, 7.5, assets[1].Duration, 1e-9)
	assert.True(t, assets[1].HasAudio)
	assert.False(t, assets[2].Decodable())
	assert.Equal(t, types.AssetKindImage, assets[2].Kind)
	assert.False(t, assets[3].Decodable())
	exec.AssertNumberOfCalls(t, "Probe", 3)
}

func TestResolveAssetsRejectsUnknownKind(t *testing.T) {
	svc := &Service{Exec: new(mocks.MockExecutor)}
	_, err := svc.resolveAssets(context.Background(), t.TempDir(), []string{"a.png", "b.docx"}, 1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeAssetSource))
}

func TestResolveAssetsDownloadsRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	exec := new(mocks.MockExecutor)
	exec.On("Probe", mock.Anything, mock.Anything).Return(ffmpeg.ProbeResult{Width: 800, Height: 800, HasVideo: true}, nil)

	svc := &Service{Exec: exec, Http: resty.New()}
	assets, err := svc.resolveAssets(context.Background(), dir, []string{server.URL + "/img/cat.png", server.URL + "/missing.png"}, 2)
	require.NoError(t, err)

	want := filepath.Join(dir, "assets", "000_cat.png")
	assert.Equal(t, want, assets[0].Path)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.True(t, assets[0].Decodable())

	assert.False(t, assets[1].Decodable())
	_, statErr := os.Stat(filepath.Join(dir, "assets", "001_missing.png"))
	assert.True(t, os.IsNotExist(statErr))
}
