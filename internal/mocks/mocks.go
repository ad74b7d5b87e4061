// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyreel/internal/ffmpeg"
)

// MockSynthesizer is a mock implementation of tts.Synthesizer
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, voice, outputFile string) error {
	args := m.Called(ctx, text, voice, outputFile)
	return args.Error(0)
}

// MockDispatcher is a mock implementation of service.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Submit(jobID string) error {
	args := m.Called(jobID)
	return args.Error(0)
}

// MockExecutor is a mock implementation of ffmpeg.Executor
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Run(ctx context.Context, args []string) error {
	ret := m.Called(ctx, args)
	return ret.Error(0)
}

func (m *MockExecutor) Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error) {
	ret := m.Called(ctx, path)
	return ret.Get(0).(ffmpeg.ProbeResult), ret.Error(1)
}
