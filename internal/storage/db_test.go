package storage

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyreel/internal/appdirs"
	"storyreel/internal/types"
	apperrors "storyreel/pkg/errors"
)

func TestResolveDBPathUsesCacheDir(t *testing.T) {
	originalResolver := appDirsResolver
	t.Cleanup(func() {
		appDirsResolver = originalResolver
	})

	tempDir := t.TempDir()
	cacheDir := filepath.Join(tempDir, "cache-root")
	appDirsResolver = func() (appdirs.Paths, error) {
		return appdirs.Paths{
			OutputDir: filepath.Join(tempDir, "output-root"),
			CacheDir:  cacheDir,
		}, nil
	}

	got, err := resolveDBPath()
	if err != nil {
		t.Fatalf("resolveDBPath() returned error: %v", err)
	}

	want := filepath.Join(cacheDir, "storyreel.db")
	if got != want {
		t.Fatalf("resolveDBPath() = %q, want %q", got, want)
	}
}

func setupTestDB(t *testing.T) {
	t.Helper()
	original := DB
	require.NoError(t, OpenDB(filepath.Join(t.TempDir(), "db", "test.db")))
	t.Cleanup(func() {
		if sqlDB, err := DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		DB = original
	})
}

func newPendingJob(t *testing.T, id string, maxAttempts int) {
	t.Helper()
	require.NoError(t, SaveJob(&types.RenderJob{
		JobId:       id,
		Title:       "job " + id,
		Status:      types.RenderJobPending,
		MaxAttempts: maxAttempts,
	}))
}

func TestSaveJobUpserts(t *testing.T) {
	setupTestDB(t)
	newPendingJob(t, "job_a", 3)

	job, err := GetJob("job_a")
	require.NoError(t, err)
	job.Title = "renamed"
	require.NoError(t, SaveJob(job))

	jobs, err := GetJobHistory(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "renamed", jobs[0].Title)
}

func TestGetJobNotFound(t *testing.T) {
	setupTestDB(t)
	_, err := GetJob("missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeJobNotFound))
}

func TestJobLifecycle(t *testing.T) {
	setupTestDB(t)
	newPendingJob(t, "job_b", 2)

	job, err := ClaimJob("job_b")
	require.NoError(t, err)
	assert.Equal(t, types.RenderJobProcessing, job.Status)
	assert.Equal(t, 1, job.Attempts)

	_, err = ClaimJob("job_b")
	assert.True(t, apperrors.Is(err, apperrors.CodeJobNotClaimable), "processing job cannot be claimed again")

	require.NoError(t, FailJob("job_b", "mux failed"))
	job, err = GetJob("job_b")
	require.NoError(t, err)
	assert.Equal(t, types.RenderJobFailed, job.Status)
	assert.Equal(t, "mux failed", job.FailReason)

	require.NoError(t, RetryJob("job_b"))
	job, err = ClaimJob("job_b")
	require.NoError(t, err)
	assert.Equal(t, 2, job.Attempts)

	require.NoError(t, CompleteJob("job_b", "/out/final.mp4", 12.5))
	job, err = GetJob("job_b")
	require.NoError(t, err)
	assert.Equal(t, types.RenderJobCompleted, job.Status)
	assert.Equal(t, "/out/final.mp4", job.OutputPath)
	assert.Empty(t, job.FailReason)

	assert.True(t, apperrors.Is(RetryJob("job_b"), apperrors.CodeJobNotClaimable))
}

func TestRetryExhausted(t *testing.T) {
	setupTestDB(t)
	newPendingJob(t, "job_c", 1)

	_, err := ClaimJob("job_c")
	require.NoError(t, err)
	require.NoError(t, FailJob("job_c", "boom"))

	err = RetryJob("job_c")
	assert.True(t, apperrors.Is(err, apperrors.CodeJobRetryExhausted))
}

func TestFailPendingJob(t *testing.T) {
	setupTestDB(t)
	newPendingJob(t, "job_p", 3)

	require.NoError(t, FailPendingJob("job_p", "queue rejected"))
	job, err := GetJob("job_p")
	require.NoError(t, err)
	assert.Equal(t, types.RenderJobFailed, job.Status)
	assert.Equal(t, "queue rejected", job.FailReason)

	err = FailPendingJob("job_p", "again")
	assert.True(t, apperrors.Is(err, apperrors.CodeJobNotClaimable))
}

func TestClaimIsExclusive(t *testing.T) {
	setupTestDB(t)
	newPendingJob(t, "job_d", 3)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ClaimJob("job_d"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMarkStaleJobs(t *testing.T) {
	setupTestDB(t)
	newPendingJob(t, "job_retry", 3)
	newPendingJob(t, "job_spent", 1)
	newPendingJob(t, "job_idle", 3)

	_, err := ClaimJob("job_retry")
	require.NoError(t, err)
	_, err = ClaimJob("job_spent")
	require.NoError(t, err)

	requeued, failed, err := MarkStaleJobs()
	require.NoError(t, err)
	assert.Equal(t, []string{"job_retry"}, requeued)
	assert.Equal(t, int64(1), failed)

	job, err := GetJob("job_spent")
	require.NoError(t, err)
	assert.Equal(t, types.RenderJobFailed, job.Status)

	pending, err := PendingJobIds()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"job_retry", "job_idle"}, pending)
}

func TestDeleteJob(t *testing.T) {
	setupTestDB(t)
	newPendingJob(t, "job_e", 3)
	require.NoError(t, DeleteJob("job_e"))
	_, err := GetJob("job_e")
	assert.True(t, apperrors.Is(err, apperrors.CodeJobNotFound))
}
