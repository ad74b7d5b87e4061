package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storyreel/internal/ffmpeg"
	"storyreel/internal/mocks"
	"storyreel/internal/storage"
	"storyreel/log"
)

func init() {
	log.InitLogger()
}

// recorder keeps the argv of every ffmpeg run and creates the output file
// each run names last.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) touch(args mock.Arguments) {
	argv := args.Get(1).([]string)
	r.mu.Lock()
	r.calls = append(r.calls, argv)
	r.mu.Unlock()
	_ = os.WriteFile(argv[len(argv)-1], []byte("media"), 0o644)
}

func (r *recorder) record(args mock.Arguments) {
	r.mu.Lock()
	r.calls = append(r.calls, args.Get(1).([]string))
	r.mu.Unlock()
}

func (r *recorder) matching(substr string) [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [][]string
	for _, c := range r.calls {
		if argvContains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}

func argvContains(argv []string, substr string) bool {
	for _, a := range argv {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}

func argvHas(substrs ...string) interface{} {
	return mock.MatchedBy(func(argv []string) bool {
		for _, s := range substrs {
			if !argvContains(argv, s) {
				return false
			}
		}
		return true
	})
}

// newExecutor returns a mock whose runs succeed unless an expectation
// registered by setup matches first.
func newExecutor(setup func(exec *mocks.MockExecutor, rec *recorder)) (*mocks.MockExecutor, *recorder) {
	rec := &recorder{}
	exec := new(mocks.MockExecutor)
	if setup != nil {
		setup(exec, rec)
	}
	exec.On("Run", mock.Anything, mock.Anything).Return(nil).Run(rec.touch)
	return exec, rec
}

func setupTestDB(t *testing.T) {
	t.Helper()
	original := storage.DB
	require.NoError(t, storage.OpenDB(filepath.Join(t.TempDir(), "db", "test.db")))
	t.Cleanup(func() {
		if sqlDB, err := storage.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		storage.DB = original
	})
}

func swapAudioDuration(t *testing.T, fn func(ctx context.Context, path string) (float64, error)) {
	t.Helper()
	original := audioDuration
	audioDuration = fn
	t.Cleanup(func() {
		audioDuration = original
	})
}

func writeFile(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func ffmpegProbe(w, h int) ffmpeg.ProbeResult {
	return ffmpeg.ProbeResult{Width: w, Height: h, HasVideo: true}
}
