package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storyreel/internal/appdirs"
	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// assetKind decides the kind of an asset reference by extension, ignoring
// any URL query.
func assetKind(ref string) (types.AssetKind, bool) {
	name := ref
	if isRemote(ref) {
		u, err := url.Parse(ref)
		if err != nil {
			return "", false
		}
		name = path.Base(u.Path)
	}
	return types.KindFromPath(name)
}

// resolveAssets makes every reference a local file and probes it. Download
// and probe failures are not fatal: the asset keeps its kind with zero size
// and renders as a placeholder.
func (s *Service) resolveAssets(ctx context.Context, jobDir string, refs []string, parallel int) ([]types.MediaAsset, error) {
	if parallel <= 0 {
		parallel = 1
	}
	assets := make([]types.MediaAsset, len(refs))

	for i, ref := range refs {
		kind, ok := assetKind(ref)
		if !ok {
			return nil, apperrors.New(apperrors.CodeAssetSource, fmt.Sprintf("unsupported asset %q", ref))
		}
		assets[i] = types.MediaAsset{Index: i, Path: ref, Kind: kind}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			local, err := s.localAsset(gctx, jobDir, i, ref)
			if err != nil {
				log.GetLogger().Warn("asset fetch failed, using placeholder",
					zap.String("asset", ref),
					zap.Int("index", i),
					zap.Int("code", apperrors.CodeAssetFetch),
					zap.Error(err))
				return gctx.Err()
			}
			assets[i].Path = local
			s.probeAsset(gctx, &assets[i])
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

func (s *Service) localAsset(ctx context.Context, jobDir string, index int, ref string) (string, error) {
	if isRemote(ref) {
		return s.downloadAsset(ctx, jobDir, index, ref)
	}
	if p, ok := resolveUploadPath(ref); ok {
		ref = p
	}
	if _, err := os.Stat(ref); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *Service) downloadAsset(ctx context.Context, jobDir string, index int, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(jobDir, appdirs.AssetDirName)
	if err = os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("downloadAsset mkdir error: %w", err)
	}
	dest := filepath.Join(dir, fmt.Sprintf("%03d_%s", index, path.Base(u.Path)))

	resp, err := s.Http.R().SetContext(ctx).SetOutput(dest).Get(ref)
	if err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("downloadAsset request error: %w", err)
	}
	if resp.IsError() {
		_ = os.Remove(dest)
		return "", fmt.Errorf("downloadAsset status %d", resp.StatusCode())
	}
	return dest, nil
}

func (s *Service) probeAsset(ctx context.Context, asset *types.MediaAsset) {
	res, err := s.probe(ctx, asset.Path)
	if err == nil && !res.HasVideo {
		err = fmt.Errorf("no video stream")
	}
	if err != nil {
		log.GetLogger().Warn("asset probe failed, using placeholder",
			zap.String("asset", asset.Path),
			zap.Int("index", asset.Index),
			zap.Int("code", apperrors.CodeAssetDecode),
			zap.Error(err))
		return
	}
	asset.Width, asset.Height = res.Width, res.Height
	if asset.IsVideo() {
		asset.Duration = res.Duration
		asset.HasAudio = res.HasAudio
	}
}
