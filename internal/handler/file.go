package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel/internal/appdirs"
	"storyreel/internal/dto"
	"storyreel/internal/response"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

// UploadFile stores multipart "file" parts below the upload root and returns
// "local:uploads/<name>" references usable as manifest assets, narration
// audio or music.
func (h Handler) UploadFile(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "failed to read upload", err))
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "no file uploaded"))
		return
	}

	uploadRoot := preferredUploadRoot()
	if err := os.MkdirAll(uploadRoot, 0o755); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to create upload dir", err))
		return
	}

	saved := make([]string, 0, len(files))
	for _, file := range files {
		name := uploadName(file.Filename)
		if err := c.SaveUploadedFile(file, filepath.Join(uploadRoot, name)); err != nil {
			log.GetLogger().Error("UploadFile save err", zap.String("file", file.Filename), zap.Error(err))
			response.ErrorResponse(c, apperrors.WrapWithDetail(apperrors.CodeFileWriteError, "failed to save file", file.Filename, err))
			return
		}
		saved = append(saved, "local:"+appdirs.UploadRootName+"/"+name)
	}

	response.Success(c, dto.UploadFileResData{FilePath: saved})
}

// uploadName keeps the client's base name and extension behind a short
// unique prefix so repeated uploads never overwrite each other.
func uploadName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return uuid.NewString()[:8] + "_" + base
}

func (h Handler) DownloadFile(c *gin.Context) {
	requested := c.Param("filepath")
	if hasParentTraversal(requested) {
		c.JSON(http.StatusForbidden, response.Response{Error: apperrors.CodeInvalidParams, Msg: "invalid file path"})
		return
	}

	localPath, ok := resolveDownloadPath(requested)
	if !ok {
		c.JSON(http.StatusNotFound, response.Response{Error: apperrors.CodeFileNotFound, Msg: "file not found"})
		return
	}
	if info, err := os.Stat(localPath); err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, response.Response{Error: apperrors.CodeFileNotFound, Msg: "file not found"})
		return
	}
	c.FileAttachment(localPath, filepath.Base(localPath))
}
