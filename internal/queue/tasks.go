// Package queue provides task handlers for Asynq background processing.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"storyreel/internal/service"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

// JobProcessor renders one stored job
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// TaskHandlers provides handlers for different task types
type TaskHandlers struct {
	processor JobProcessor
}

// NewTaskHandlers creates a new TaskHandlers instance
func NewTaskHandlers(p JobProcessor) *TaskHandlers {
	return &TaskHandlers{processor: p}
}

// HandleRenderJob processes render tasks. Render failures were already
// requeued or recorded by the service, so only infrastructure errors are
// left to asynq's retry.
func (h *TaskHandlers) HandleRenderJob(ctx context.Context, t *asynq.Task) error {
	var payload RenderJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log.GetLogger().Info("[Queue] Processing render job", zap.String("job_id", payload.JobID))

	err := h.processor.ProcessJob(ctx, payload.JobID)
	switch {
	case err == nil:
		log.GetLogger().Info("[Queue] Render job completed", zap.String("job_id", payload.JobID))
		return nil
	case apperrors.Is(err, apperrors.CodeJobNotClaimable):
		log.GetLogger().Info("[Queue] Render job already taken", zap.String("job_id", payload.JobID))
		return nil
	case apperrors.GetCode(err) != apperrors.CodeUnknown:
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}

// RegisterHandlers registers all task handlers with the Asynq server mux
func (h *TaskHandlers) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeRenderJob, h.HandleRenderJob)
}

// StartWorker starts the Asynq worker with registered handlers. It blocks
// until the server stops.
func StartWorker(q *Queue, svc *service.Service) error {
	handlers := NewTaskHandlers(svc)

	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	log.GetLogger().Info("[Queue] Starting worker",
		zap.String("redis_addr", q.config.RedisAddr),
		zap.Int("concurrency", q.config.Concurrency))

	return q.server.Run(mux)
}
