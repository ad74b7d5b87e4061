package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeWritesSpeech(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-mp3"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "sk-test", "", "")
	out := filepath.Join(t.TempDir(), "narration", "line_000.mp3")
	require.NoError(t, client.Synthesize(t.Context(), "Hello there.", "", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ID3-mp3", string(data))
	assert.Equal(t, "Hello there.", got["input"])
	assert.Equal(t, "alloy", got["voice"])
	assert.Equal(t, "tts-1", got["model"])
	assert.Equal(t, "mp3", got["response_format"])
}

func TestSynthesizeSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "sk-bad", "", "tts-1-hd")
	out := filepath.Join(t.TempDir(), "line.mp3")
	err := client.Synthesize(t.Context(), "Hello.", "nova", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai create speech error")
	assert.NoFileExists(t, out)
}
