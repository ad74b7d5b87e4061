package router

import (
	"github.com/gin-gonic/gin"

	"storyreel/internal/handler"
	"storyreel/internal/response"
	"storyreel/internal/service"
)

func SetupRouter(r *gin.Engine, svc *service.Service) {
	api := r.Group("/api")

	hdl := handler.NewHandler(svc)
	{
		api.POST("/render", hdl.SubmitRenderJob)
		api.GET("/render", hdl.GetRenderJob)
		api.GET("/history", hdl.GetJobHistory)
		api.DELETE("/render/:jobId", hdl.DeleteRenderJob)
		api.POST("/render/:jobId/retry", hdl.RetryRenderJob)
		api.POST("/file", hdl.UploadFile)
		api.GET("/file/*filepath", hdl.DownloadFile)
		api.HEAD("/file/*filepath", hdl.DownloadFile)
	}

	r.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})
}
