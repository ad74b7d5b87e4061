package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyreel/internal/dto"
	"storyreel/internal/response"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

func (h Handler) SubmitRenderJob(c *gin.Context) {
	var req dto.SubmitRenderJobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("SubmitRenderJob ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid parameters", err))
		return
	}
	log.GetLogger().Info("SubmitRenderJob received request",
		zap.String("title", req.Title),
		zap.Int("lines", len(req.Lines)),
		zap.Int("assets", len(req.Assets)))

	data, err := h.Service.SubmitJob(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) GetRenderJob(c *gin.Context) {
	var req dto.GetRenderJobReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "job_id is required", err))
		return
	}

	data, err := h.Service.GetJobStatus(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) GetJobHistory(c *gin.Context) {
	var req dto.RenderJobHistoryReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "invalid parameters", err))
		return
	}

	data, err := h.Service.History(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) DeleteRenderJob(c *gin.Context) {
	jobId := c.Param("jobId")
	if jobId == "" {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "jobId is required"))
		return
	}

	if err := h.Service.DeleteJob(jobId); err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, nil)
}

// RetryRenderJob re-queues a failed job while it has attempts left.
func (h Handler) RetryRenderJob(c *gin.Context) {
	jobId := c.Param("jobId")
	if jobId == "" {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "jobId is required"))
		return
	}

	if err := h.Service.RetryJob(jobId); err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, dto.SubmitRenderJobResData{JobId: jobId, Status: "pending"})
}
