package appdirs

import (
	"path/filepath"
	"strings"
)

const (
	JobRootName    = "jobs"
	UploadRootName = "uploads"
	AssetDirName   = "assets"
	CaptionDirName = "captions"
	ClipDirName    = "clips"
	dbFileName     = "storyreel.db"
)

func JobRootFor(paths Paths) string {
	return filepath.Join(normalizeOutputDir(paths.OutputDir), JobRootName)
}

// JobDirFor is the working directory of one render job. Downloaded assets,
// caption overlays and intermediate clips live below it.
func JobDirFor(paths Paths, jobID string) string {
	return filepath.Join(JobRootFor(paths), jobID)
}

func UploadRootFor(paths Paths) string {
	return filepath.Join(normalizeOutputDir(paths.OutputDir), UploadRootName)
}

func DBPathFor(paths Paths) string {
	return filepath.Join(normalizeCacheDir(paths.CacheDir), dbFileName)
}

func ResolveJobRoot() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return JobRootFor(paths), nil
}

func ResolveJobDir(jobID string) (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return JobDirFor(paths, jobID), nil
}

func ResolveUploadRoot() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return UploadRootFor(paths), nil
}

func ResolveDBPath() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return DBPathFor(paths), nil
}

func normalizeOutputDir(outputDir string) string {
	cleaned := strings.TrimSpace(outputDir)
	if cleaned == "" {
		return "."
	}
	return filepath.Clean(cleaned)
}

func normalizeCacheDir(cacheDir string) string {
	cleaned := strings.TrimSpace(cacheDir)
	if cleaned == "" {
		return "cache"
	}
	return filepath.Clean(cleaned)
}
