package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads KEY=VALUE pairs from the given .env files (default ".env")
// into the process environment. Missing files are not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays secrets and deployment settings from the environment on
// top of the loaded config file.
func ApplyEnv() {
	if v := firstEnv("STORYREEL_OPENAI_API_KEY", "OPENAI_API_KEY"); v != "" {
		Conf.Tts.Openai.ApiKey = v
		if Conf.Tts.Provider == "" || Conf.Tts.Provider == "none" {
			Conf.Tts.Provider = "openai"
		}
	}
	if v := firstEnv("STORYREEL_OPENAI_BASE_URL", "OPENAI_BASE_URL"); v != "" {
		Conf.Tts.Openai.BaseUrl = v
	}
	if v := firstEnv("STORYREEL_REDIS_ADDR"); v != "" {
		Conf.Queue.Backend = "redis"
		Conf.Queue.RedisAddr = v
	}
	if v := firstEnv("STORYREEL_REDIS_PASSWORD"); v != "" {
		Conf.Queue.RedisPassword = v
	}
	if v := firstEnv("STORYREEL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			Conf.Server.Port = port
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
