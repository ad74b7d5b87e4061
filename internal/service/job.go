package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"storyreel/config"
	"storyreel/internal/dto"
	"storyreel/internal/storage"
	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SubmitJob stores a pending render job and hands it to the dispatcher.
// Unlike Render it only accepts URLs and uploads as file references.
func (s *Service) SubmitJob(req dto.SubmitRenderJobReq) (*dto.SubmitRenderJobResData, error) {
	if err := validateManifest(req.JobManifest); err != nil {
		return nil, err
	}
	if err := validateSubmittedRefs(req.JobManifest); err != nil {
		return nil, err
	}
	if _, err := BuildRenderConfig(req.JobManifest); err != nil {
		return nil, err
	}
	manifest, err := json.Marshal(req.JobManifest)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidParams, "manifest could not be encoded", err)
	}

	job := &types.RenderJob{
		JobId:       uuid.NewString(),
		Title:       req.Title,
		Status:      types.RenderJobPending,
		StatusMsg:   "queued",
		MaxAttempts: lo.Ternary(req.MaxAttempts > 0, req.MaxAttempts, config.Conf.App.MaxAttempts),
		Manifest:    string(manifest),
	}
	if err = storage.SaveJob(job); err != nil {
		log.GetLogger().Error("SubmitJob SaveJob err", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeDBError, "save render job failed", err)
	}

	if err = s.dispatch(job.JobId); err != nil {
		log.GetLogger().Error("SubmitJob dispatch err", zap.String("job_id", job.JobId), zap.Error(err))
		_ = storage.DeleteJob(job.JobId)
		return nil, apperrors.Wrap(apperrors.CodeQueueFull, "render queue rejected the job", err)
	}
	log.GetLogger().Info("render job submitted", zap.String("job_id", job.JobId), zap.Int("assets", len(req.Assets)), zap.Int("lines", len(req.Lines)))
	return &dto.SubmitRenderJobResData{JobId: job.JobId, Status: string(job.Status)}, nil
}

// ProcessJob claims a job and renders it. A failed render goes back to the
// queue while attempts remain, otherwise the job is marked failed.
func (s *Service) ProcessJob(ctx context.Context, jobID string) error {
	job, err := storage.ClaimJob(jobID)
	if err != nil {
		return err
	}
	log.GetLogger().Info("render job claimed", zap.String("job_id", jobID), zap.Int("attempt", job.Attempts))

	var manifest types.JobManifest
	if err = json.Unmarshal([]byte(job.Manifest), &manifest); err != nil {
		s.failJob(jobID, apperrors.Wrap(apperrors.CodeInvalidParams, "stored manifest is corrupt", err))
		return err
	}
	jobDir, err := resolveJobDir(jobID)
	if err != nil {
		s.failJob(jobID, err)
		return err
	}

	res, err := s.Render(ctx, manifest, RenderOptions{WorkDir: jobDir})
	if err != nil {
		if retryable(err) && (job.MaxAttempts <= 0 || job.Attempts < job.MaxAttempts) {
			if rqErr := storage.RequeueJob(jobID); rqErr == nil {
				if dErr := s.dispatch(jobID); dErr != nil {
					s.failPendingJob(jobID, errors.Join(err, dErr))
					return err
				}
				log.GetLogger().Warn("render job failed, requeued",
					zap.String("job_id", jobID),
					zap.Int("attempt", job.Attempts),
					zap.Error(err))
				return err
			}
		}
		s.failJob(jobID, err)
		return err
	}

	if err = storage.CompleteJob(jobID, res.OutputPath, res.Duration); err != nil {
		log.GetLogger().Error("ProcessJob CompleteJob err", zap.String("job_id", jobID), zap.Error(err))
		return err
	}
	return nil
}

// retryable is false for input errors that would fail the same way again.
func retryable(err error) bool {
	code := apperrors.GetCode(err)
	return code != apperrors.CodeInvalidParams && code != apperrors.CodeAssetSource
}

// failPendingJob fails a requeued job whose dispatch was rejected, so it is
// not left pending with no worker holding it.
func (s *Service) failPendingJob(jobID string, cause error) {
	if err := storage.FailPendingJob(jobID, cause.Error()); err != nil {
		log.GetLogger().Error("FailPendingJob err", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	log.GetLogger().Error("render job failed, queue rejected the retry", zap.String("job_id", jobID), zap.Error(cause))
}

func (s *Service) failJob(jobID string, cause error) {
	if err := storage.FailJob(jobID, cause.Error()); err != nil {
		log.GetLogger().Error("FailJob err", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	log.GetLogger().Error("render job failed", zap.String("job_id", jobID), zap.Error(cause))
}

func (s *Service) GetJobStatus(req dto.GetRenderJobReq) (*dto.GetRenderJobResData, error) {
	job, err := storage.GetJob(req.JobId)
	if err != nil {
		return nil, err
	}
	data := jobData(*job)
	return &data, nil
}

func (s *Service) History(req dto.RenderJobHistoryReq) (*dto.RenderJobHistoryResData, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = lo.Min([]int{limit, maxHistoryLimit})

	jobs, err := storage.GetJobHistory(limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDBError, "load job history failed", err)
	}
	return &dto.RenderJobHistoryResData{Jobs: lo.Map(jobs, func(j types.RenderJob, _ int) dto.GetRenderJobResData {
		return jobData(j)
	})}, nil
}

// RetryJob re-queues a failed job.
func (s *Service) RetryJob(jobID string) error {
	if err := storage.RetryJob(jobID); err != nil {
		return err
	}
	if err := s.dispatch(jobID); err != nil {
		s.failPendingJob(jobID, err)
		return apperrors.Wrap(apperrors.CodeQueueFull, "render queue rejected the job", err)
	}
	log.GetLogger().Info("render job retried", zap.String("job_id", jobID))
	return nil
}

// DeleteJob removes a job that is not being rendered, with its files.
func (s *Service) DeleteJob(jobID string) error {
	job, err := storage.GetJob(jobID)
	if err != nil {
		return err
	}
	if job.Status == types.RenderJobProcessing {
		return apperrors.ErrJobNotClaimable
	}
	if jobDir, err := resolveJobDir(jobID); err == nil {
		if err = os.RemoveAll(jobDir); err != nil {
			log.GetLogger().Error("DeleteJob RemoveAll err", zap.String("path", jobDir), zap.Error(err))
		}
	}
	if err = storage.DeleteJob(jobID); err != nil {
		return apperrors.Wrap(apperrors.CodeDBError, "delete render job failed", err)
	}
	return nil
}

// RecoverJobs runs at startup: interrupted jobs are requeued or failed and
// every pending job is dispatched again.
func (s *Service) RecoverJobs() error {
	requeued, failed, err := storage.MarkStaleJobs()
	if err != nil {
		return err
	}
	pending, err := storage.PendingJobIds()
	if err != nil {
		return err
	}
	var dispatchErr error
	for _, id := range pending {
		if err = s.dispatch(id); err != nil {
			dispatchErr = errors.Join(dispatchErr, err)
		}
	}
	log.GetLogger().Info("render jobs recovered",
		zap.Int("requeued", len(requeued)),
		zap.Int64("failed", failed),
		zap.Int("dispatched", len(pending)))
	return dispatchErr
}

func jobData(j types.RenderJob) dto.GetRenderJobResData {
	data := dto.GetRenderJobResData{
		JobId:       j.JobId,
		Title:       j.Title,
		Status:      string(j.Status),
		StatusMsg:   j.StatusMsg,
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		FailReason:  j.FailReason,
		Duration:    j.Duration,
		CreateTime:  j.CreateTime,
		UpdateTime:  j.UpdateTime,
	}
	if j.Status == types.RenderJobCompleted && j.OutputPath != "" {
		if p, err := resolveJobDownloadPath(j.OutputPath); err == nil {
			data.DownloadUrl = path.Join("/api/file", p)
		}
	}
	return data
}
