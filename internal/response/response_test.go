package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "storyreel/pkg/errors"
)

func TestFromError(t *testing.T) {
	ok := FromError(nil)
	assert.Equal(t, int32(0), ok.Error)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, int32(apperrors.CodeUnknown), plain.Error)
	assert.Equal(t, "boom", plain.Msg)

	wrapped := FromError(apperrors.Wrap(apperrors.CodeJobNotFound, "render job not found", errors.New("record not found")))
	assert.Equal(t, int32(apperrors.CodeJobNotFound), wrapped.Error)
	assert.Equal(t, "render job not found", wrapped.Msg)
	assert.Equal(t, "record not found", wrapped.Detail)
}

func TestErrorResponseWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "bad manifest"))

	require.Equal(t, http.StatusOK, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int32(apperrors.CodeInvalidParams), body.Error)
	assert.Equal(t, "bad manifest", body.Msg)
}
