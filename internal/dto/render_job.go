package dto

import "storyreel/internal/types"

type SubmitRenderJobReq struct {
	types.JobManifest
	MaxAttempts int `json:"max_attempts,omitempty"`
}

type SubmitRenderJobResData struct {
	JobId  string `json:"job_id"`
	Status string `json:"status"`
}

type GetRenderJobReq struct {
	JobId string `form:"job_id" binding:"required"`
}

type GetRenderJobResData struct {
	JobId       string  `json:"job_id"`
	Title       string  `json:"title"`
	Status      string  `json:"status"`
	StatusMsg   string  `json:"status_msg"`
	Attempts    int     `json:"attempts"`
	MaxAttempts int     `json:"max_attempts"`
	FailReason  string  `json:"fail_reason,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	DownloadUrl string  `json:"download_url,omitempty"`
	CreateTime  int64   `json:"create_time"`
	UpdateTime  int64   `json:"update_time"`
}

type RenderJobHistoryReq struct {
	Limit int `form:"limit"`
}

type RenderJobHistoryResData struct {
	Jobs []GetRenderJobResData `json:"jobs"`
}

type UploadFileResData struct {
	FilePath []string `json:"file_path"`
}
