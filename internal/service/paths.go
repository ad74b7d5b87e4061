package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"storyreel/internal/appdirs"
	"storyreel/internal/types"
	apperrors "storyreel/pkg/errors"
)

var appDirsResolver = appdirs.Resolve

func resolveJobRoot() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	return appdirs.JobRootFor(dirs), nil
}

func resolveJobDir(jobID string) (string, error) {
	if strings.TrimSpace(jobID) == "" {
		return "", fmt.Errorf("job id is empty")
	}

	jobRoot, err := resolveJobRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(jobRoot, jobID), nil
}

// resolveJobDownloadPath maps a file below the job root to the path the
// file API serves it under.
func resolveJobDownloadPath(localPath string) (string, error) {
	jobRoot, err := resolveJobRoot()
	if err != nil {
		return "", err
	}

	cleanedLocalPath := filepath.Clean(localPath)
	relPath, err := filepath.Rel(jobRoot, cleanedLocalPath)
	if err != nil {
		return "", err
	}
	if relPath == "." || relPath == "" {
		return "", fmt.Errorf("job artifact path %q is not a file path", localPath)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("job artifact path %q is outside job root %q", localPath, jobRoot)
	}
	return filepath.ToSlash(filepath.Join(appdirs.JobRootName, relPath)), nil
}

// resolveUploadPath turns a "local:uploads/x.png" style reference from the
// upload API into a file path below the upload root.
func resolveUploadPath(ref string) (string, bool) {
	rel, ok := strings.CutPrefix(ref, "local:")
	if !ok {
		return "", false
	}
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	rel, ok = strings.CutPrefix(rel, appdirs.UploadRootName+"/")
	if !ok || rel == "" {
		return "", false
	}
	dirs, err := appDirsResolver()
	if err != nil {
		return "", false
	}
	root := appdirs.UploadRootFor(dirs)
	candidate := filepath.Clean(filepath.Join(root, filepath.FromSlash(rel)))
	relCheck, err := filepath.Rel(root, candidate)
	if err != nil || relCheck == ".." || strings.HasPrefix(relCheck, ".."+string(filepath.Separator)) {
		return "", false
	}
	return candidate, true
}

// validateSubmittedRefs limits a manifest that arrives over the API to URLs
// and uploaded files, so a job never reads an arbitrary host path. Only
// assets may be fetched over http(s).
func validateSubmittedRefs(m types.JobManifest) error {
	for _, ref := range m.Assets {
		if isRemote(ref) {
			continue
		}
		if _, ok := resolveUploadPath(ref); !ok {
			return apperrors.New(apperrors.CodeInvalidParams, fmt.Sprintf("asset %q must be an http(s) url or an upload", ref))
		}
	}
	for i, line := range m.Lines {
		if line.Audio == "" {
			continue
		}
		if _, ok := resolveUploadPath(line.Audio); !ok {
			return apperrors.New(apperrors.CodeInvalidParams, fmt.Sprintf("audio of line %d must be an upload", i))
		}
	}
	if m.MusicPath != "" {
		if _, ok := resolveUploadPath(m.MusicPath); !ok {
			return apperrors.New(apperrors.CodeInvalidParams, "music_path must be an upload")
		}
	}
	if m.FontPath != "" {
		if _, ok := resolveUploadPath(m.FontPath); !ok {
			return apperrors.New(apperrors.CodeInvalidParams, "font_path must be an upload")
		}
	}
	return nil
}
