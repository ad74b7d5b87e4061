package service

import (
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/appdirs"
)

func swapAppDirs(t *testing.T, outputDir string) {
	t.Helper()
	originalResolver := appDirsResolver
	t.Cleanup(func() {
		appDirsResolver = originalResolver
	})
	appDirsResolver = func() (appdirs.Paths, error) {
		return appdirs.Paths{
			OutputDir: outputDir,
			CacheDir:  filepath.Join(filepath.Dir(outputDir), "cache-root"),
		}, nil
	}
}

func TestResolveJobDirUsesOutputDir(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "output-root")
	swapAppDirs(t, outputDir)

	got, err := resolveJobDir("job-001")
	if err != nil {
		t.Fatalf("resolveJobDir() returned error: %v", err)
	}

	want := filepath.Join(outputDir, "jobs", "job-001")
	if got != want {
		t.Fatalf("resolveJobDir() = %q, want %q", got, want)
	}
}

func TestResolveJobDirRejectsEmptyID(t *testing.T) {
	swapAppDirs(t, filepath.Join(t.TempDir(), "output-root"))

	if _, err := resolveJobDir("  "); err == nil {
		t.Fatal("resolveJobDir() returned nil error for blank id")
	}
}

func TestResolveJobDownloadPath(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "output-root")
	swapAppDirs(t, outputDir)

	localArtifact := filepath.Join(outputDir, "jobs", "job-001", "output", "final.mp4")
	got, err := resolveJobDownloadPath(localArtifact)
	if err != nil {
		t.Fatalf("resolveJobDownloadPath() returned error: %v", err)
	}

	want := "jobs/job-001/output/final.mp4"
	if got != want {
		t.Fatalf("resolveJobDownloadPath() = %q, want %q", got, want)
	}
}

func TestResolveJobDownloadPathRejectsOutsideJobRoot(t *testing.T) {
	tempDir := t.TempDir()
	swapAppDirs(t, filepath.Join(tempDir, "output-root"))

	_, err := resolveJobDownloadPath(filepath.Join(tempDir, "not-job-root", "final.mp4"))
	if err == nil {
		t.Fatal("resolveJobDownloadPath() returned nil error for path outside job root")
	}
	if !strings.Contains(err.Error(), "outside job root") {
		t.Fatalf("resolveJobDownloadPath() error = %q, want containing %q", err.Error(), "outside job root")
	}
}

func TestResolveUploadPath(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "output-root")
	swapAppDirs(t, outputDir)

	got, ok := resolveUploadPath("local:uploads/cat.png")
	if !ok {
		t.Fatal("resolveUploadPath() rejected a valid upload reference")
	}
	if want := filepath.Join(outputDir, "uploads", "cat.png"); got != want {
		t.Fatalf("resolveUploadPath() = %q, want %q", got, want)
	}

	for _, ref := range []string{"uploads/cat.png", "local:uploads/../secret", "local:jobs/x.png", "local:uploads/"} {
		if _, ok := resolveUploadPath(ref); ok {
			t.Fatalf("resolveUploadPath(%q) accepted an invalid reference", ref)
		}
	}
}
