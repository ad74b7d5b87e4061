package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseUrl, apiKey, proxyAddr, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		cfg.BaseURL = baseUrl
	}

	transport := &http.Transport{}
	if proxyAddr != "" {
		if proxyURL, err := url.Parse(proxyAddr); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	cfg.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   2 * time.Minute,
	}

	if model == "" {
		model = string(openai.TTSModel1)
	}
	return &Client{client: openai.NewClientWithConfig(cfg), model: model}
}

// Synthesize writes the speech for text to outputFile as mp3.
func (c *Client) Synthesize(ctx context.Context, text, voice, outputFile string) error {
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return fmt.Errorf("openai create speech error: %w", err)
	}
	defer resp.Close()

	if err = os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("openai speech mkdir error: %w", err)
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("openai speech create file error: %w", err)
	}
	defer f.Close()
	if _, err = io.Copy(f, resp); err != nil {
		return fmt.Errorf("openai speech write error: %w", err)
	}
	return nil
}
