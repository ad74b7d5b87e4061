// Package service turns submitted manifests into finished videos. It
// prepares narration and assets, drives the compositor plan through ffmpeg
// and moves render jobs through their lifecycle.
package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"storyreel/config"
	"storyreel/internal/ffmpeg"
	"storyreel/log"
	"storyreel/pkg/tts"
	"storyreel/pkg/util"
)

// Dispatcher hands a stored job to whatever executes it: the in-process
// runner or the redis queue.
type Dispatcher interface {
	Submit(jobID string) error
}

type Service struct {
	Tts        tts.Synthesizer
	Exec       ffmpeg.Executor
	Http       *resty.Client
	Dispatcher Dispatcher
}

// audioDuration measures narration clips; tests swap it.
var audioDuration = util.AudioDuration

func NewService() *Service {
	manager := tts.NewManager()
	log.GetLogger().Info("narration provider", zap.String("tts", config.Conf.Tts.Provider), zap.Bool("enabled", manager.Enabled()))

	var synth tts.Synthesizer
	if manager.Enabled() {
		synth = manager
	}
	return &Service{
		Tts:  synth,
		Exec: ffmpeg.CLI{},
		Http: newHttpClient(config.Conf.App.Proxy),
	}
}

func newHttpClient(proxy string) *resty.Client {
	client := resty.New().
		SetTimeout(2 * time.Minute).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)
	if proxy != "" {
		client.SetProxy(proxy)
	}
	return client
}

func (s *Service) dispatch(jobID string) error {
	if s.Dispatcher == nil {
		return nil
	}
	return s.Dispatcher.Submit(jobID)
}

func (s *Service) ttsEnabled() bool {
	return s != nil && s.Tts != nil
}

func (s *Service) probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error) {
	return s.Exec.Probe(ctx, path)
}
