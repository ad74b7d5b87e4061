package storage

import (
	"errors"
	"sync"

	"gorm.io/gorm"

	"storyreel/internal/types"
	apperrors "storyreel/pkg/errors"
)

var errDBNotInitialized = errors.New("database not initialized")

// claimMu serializes the read-modify-write of status transitions inside
// this process; the conditional UPDATE keeps them atomic across processes.
var claimMu sync.Mutex

func SaveJob(job *types.RenderJob) error {
	if DB == nil {
		return errDBNotInitialized
	}
	var existing types.RenderJob
	result := DB.Where("job_id = ?", job.JobId).First(&existing)

	if result.Error == nil {
		job.Id = existing.Id
		return DB.Save(job).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(job).Error
	}
	return result.Error
}

func GetJob(jobId string) (*types.RenderJob, error) {
	if DB == nil {
		return nil, errDBNotInitialized
	}
	var job types.RenderJob
	if err := DB.Where("job_id = ?", jobId).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeJobNotFound, "render job not found", err)
		}
		return nil, err
	}
	return &job, nil
}

func GetJobHistory(limit int) ([]types.RenderJob, error) {
	if DB == nil {
		return nil, errDBNotInitialized
	}
	var jobs []types.RenderJob
	if err := DB.Order("create_time desc").Order("id desc").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func DeleteJob(jobId string) error {
	if DB == nil {
		return errDBNotInitialized
	}
	return DB.Where("job_id = ?", jobId).Delete(&types.RenderJob{}).Error
}

// transition moves a job from one status to another only if it is still
// in the expected status, applying extra column updates.
func transition(jobId string, from, to types.RenderJobStatus, extra map[string]interface{}) (bool, error) {
	if DB == nil {
		return false, errDBNotInitialized
	}
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	claimMu.Lock()
	defer claimMu.Unlock()
	result := DB.Model(&types.RenderJob{}).
		Where("job_id = ? AND status = ?", jobId, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimJob atomically moves a pending job to processing and counts the
// attempt. It fails with JobNotClaimable when another worker got there
// first or the job is not pending.
func ClaimJob(jobId string) (*types.RenderJob, error) {
	ok, err := transition(jobId, types.RenderJobPending, types.RenderJobProcessing, map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"status_msg": "rendering",
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, getErr := GetJob(jobId); getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.ErrJobNotClaimable
	}
	return GetJob(jobId)
}

func CompleteJob(jobId, outputPath string, duration float64) error {
	ok, err := transition(jobId, types.RenderJobProcessing, types.RenderJobCompleted, map[string]interface{}{
		"output_path": outputPath,
		"duration":    duration,
		"fail_reason": "",
		"status_msg":  "completed",
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrJobNotClaimable
	}
	return nil
}

func FailJob(jobId, reason string) error {
	ok, err := transition(jobId, types.RenderJobProcessing, types.RenderJobFailed, map[string]interface{}{
		"fail_reason": reason,
		"status_msg":  "failed",
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrJobNotClaimable
	}
	return nil
}

// FailPendingJob fails a job that went back to pending but could not be
// handed to a worker.
func FailPendingJob(jobId, reason string) error {
	ok, err := transition(jobId, types.RenderJobPending, types.RenderJobFailed, map[string]interface{}{
		"fail_reason": reason,
		"status_msg":  "failed",
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrJobNotClaimable
	}
	return nil
}

// RetryJob moves a failed job back to pending while attempts remain.
func RetryJob(jobId string) error {
	job, err := GetJob(jobId)
	if err != nil {
		return err
	}
	if job.Status != types.RenderJobFailed {
		return apperrors.ErrJobNotClaimable
	}
	if !job.CanRetry() {
		return apperrors.ErrJobRetryExhausted
	}
	ok, err := transition(jobId, types.RenderJobFailed, types.RenderJobPending, map[string]interface{}{
		"status_msg": "queued for retry",
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrJobNotClaimable
	}
	return nil
}

// RequeueJob gives an interrupted processing job back to the queue.
func RequeueJob(jobId string) error {
	ok, err := transition(jobId, types.RenderJobProcessing, types.RenderJobPending, map[string]interface{}{
		"status_msg": "requeued",
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrJobNotClaimable
	}
	return nil
}

// MarkStaleJobs handles jobs left in processing by a previous run: those
// with attempts left go back to pending, the rest fail. It returns the ids
// that were requeued.
func MarkStaleJobs() (requeued []string, failed int64, err error) {
	if DB == nil {
		return nil, 0, errDBNotInitialized
	}
	var stale []types.RenderJob
	if err = DB.Where("status = ?", types.RenderJobProcessing).Find(&stale).Error; err != nil {
		return nil, 0, err
	}
	for _, job := range stale {
		if job.MaxAttempts <= 0 || job.Attempts < job.MaxAttempts {
			if err = RequeueJob(job.JobId); err == nil {
				requeued = append(requeued, job.JobId)
			}
			continue
		}
		ok, tErr := transition(job.JobId, types.RenderJobProcessing, types.RenderJobFailed, map[string]interface{}{
			"fail_reason": "interrupted by server restart",
			"status_msg":  "interrupted",
		})
		if tErr != nil {
			return requeued, failed, tErr
		}
		if ok {
			failed++
		}
	}
	return requeued, failed, nil
}

// PendingJobIds lists pending jobs oldest first.
func PendingJobIds() ([]string, error) {
	if DB == nil {
		return nil, errDBNotInitialized
	}
	var ids []string
	err := DB.Model(&types.RenderJob{}).
		Where("status = ?", types.RenderJobPending).
		Order("create_time asc").Order("id asc").
		Pluck("job_id", &ids).Error
	return ids, err
}
