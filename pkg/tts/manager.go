package tts

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"storyreel/config"
	"storyreel/log"
	"storyreel/pkg/openai"
)

var ErrDisabled = errors.New("tts disabled")

// Synthesizer turns one line of text into an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, outputFile string) error
}

// Manager routes synthesis to the configured provider.
type Manager struct {
	Provider string
	Voice    string
	Default  Synthesizer
}

func NewManager() *Manager {
	m := &Manager{
		Provider: config.Conf.Tts.Provider,
		Voice:    config.Conf.Tts.Openai.Voice,
	}

	switch config.Conf.Tts.Provider {
	case "openai":
		if config.Conf.Tts.Openai.ApiKey != "" {
			m.Default = openai.NewClient(
				config.Conf.Tts.Openai.BaseUrl,
				config.Conf.Tts.Openai.ApiKey,
				config.Conf.App.Proxy,
				config.Conf.Tts.Openai.Model,
			)
		} else {
			log.GetLogger().Warn("openai tts selected without api key, narration will use fixed durations")
		}
	case "none", "":
	default:
		log.GetLogger().Warn("unknown tts provider, narration will use fixed durations",
			zap.String("provider", config.Conf.Tts.Provider))
	}
	return m
}

func (m *Manager) Enabled() bool {
	return m != nil && m.Default != nil
}

func (m *Manager) Synthesize(ctx context.Context, text, voice, outputFile string) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if voice == "" {
		voice = m.Voice
	}
	return m.Default.Synthesize(ctx, text, voice, outputFile)
}
