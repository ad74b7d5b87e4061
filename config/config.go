package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"storyreel/internal/appdirs"
	"storyreel/log"
)

type App struct {
	Proxy                string  `toml:"proxy"`
	LogLevel             string  `toml:"log_level"`
	FallbackLineDuration float64 `toml:"fallback_line_duration"`
	MaxAttempts          int     `toml:"max_attempts"`
	TTSParallelNum       int     `toml:"tts_parallel_num"`
}

type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Render struct {
	Preset            string  `toml:"canvas_preset"`
	CanvasWidth       int     `toml:"canvas_width"`
	CanvasHeight      int     `toml:"canvas_height"`
	Fps               int     `toml:"fps"`
	TitleArea         string  `toml:"title_area"`
	TitleBandHeight   int     `toml:"title_band_height"`
	CaptionStyle      string  `toml:"caption_style"`
	CaptionPosition   string  `toml:"caption_position"`
	FontPath          string  `toml:"font_path"`
	FontSize          float64 `toml:"font_size"`
	TitleFontSize     float64 `toml:"title_font_size"`
	CrossDissolve     bool    `toml:"cross_dissolve"`
	FadeDuration      float64 `toml:"fade_duration"`
	GroupFadeDuration float64 `toml:"group_fade_duration"`
	MinFadeDuration   float64 `toml:"min_fade_duration"`
	PanRange          float64 `toml:"pan_range"`
	EnablePanning     bool    `toml:"enable_panning"`
	AllocationMode    string  `toml:"allocation_mode"`
	MusicMood         string  `toml:"music_mood"`
	MusicDir          string  `toml:"music_dir"`
	EncoderPreset     string  `toml:"preset"`
	Crf               int     `toml:"crf"`
}

type OpenaiTts struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Voice   string `toml:"voice"`
}

type Tts struct {
	Provider string    `toml:"provider"`
	Openai   OpenaiTts `toml:"openai"`
}

type Queue struct {
	Backend       string `toml:"backend"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Concurrency   int    `toml:"concurrency"`
	QueueSize     int    `toml:"queue_size"`
}

type Ffmpeg struct {
	FfmpegPath  string `toml:"ffmpeg_path"`
	FfprobePath string `toml:"ffprobe_path"`
}

type Config struct {
	App    App    `toml:"app"`
	Server Server `toml:"server"`
	Render Render `toml:"render"`
	Tts    Tts    `toml:"tts"`
	Queue  Queue  `toml:"queue"`
	Ffmpeg Ffmpeg `toml:"ffmpeg"`
}

var Conf = defaultConfig()

var resolveConfigPath = func() (string, error) {
	paths, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

func defaultConfig() Config {
	return Config{
		App: App{
			LogLevel:             "info",
			FallbackLineDuration: 3.0,
			MaxAttempts:          3,
			TTSParallelNum:       4,
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8888,
		},
		Render: Render{
			Preset:            "vertical",
			CanvasWidth:       504,
			CanvasHeight:      890,
			Fps:               30,
			TitleArea:         "keep",
			TitleBandHeight:   110,
			CaptionStyle:      "outline",
			CaptionPosition:   "bottom",
			FontSize:          28,
			TitleFontSize:     34,
			CrossDissolve:     true,
			FadeDuration:      0.4,
			GroupFadeDuration: 2.0,
			MinFadeDuration:   0.15,
			PanRange:          60,
			EnablePanning:     true,
			AllocationMode:    "one_per_line",
			MusicMood:         "none",
			EncoderPreset:     "fast",
			Crf:               23,
		},
		Tts: Tts{
			Provider: "openai",
			Openai: OpenaiTts{
				Model: "tts-1",
				Voice: "alloy",
			},
		},
		Queue: Queue{
			Backend:     "memory",
			RedisAddr:   "127.0.0.1:6379",
			Concurrency: 1,
			QueueSize:   32,
		},
	}
}

func ResolveConfigPath() (string, error) {
	return resolveConfigPath()
}

// LoadOrCreateConfig loads the config file, writing the defaults first when
// none exists. The bool reports whether a new file was created.
func LoadOrCreateConfig() (bool, error) {
	configPath, err := ResolveConfigPath()
	if err != nil {
		return false, fmt.Errorf("resolve config path error: %w", err)
	}

	if _, err = os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		Conf = defaultConfig()
		if err = SaveConfig(); err != nil {
			return false, err
		}
		log.GetLogger().Info("default config created", zap.String("path", configPath))
		return true, nil
	} else if err != nil {
		return false, fmt.Errorf("stat config error: %w", err)
	}

	loaded := defaultConfig()
	if _, err = toml.DecodeFile(configPath, &loaded); err != nil {
		return false, fmt.Errorf("decode config error: %w", err)
	}
	Conf = loaded
	return false, nil
}

// LoadConfig is the best-effort variant used at process start: a broken file
// is logged and the defaults stay in place.
func LoadConfig() bool {
	if _, err := LoadOrCreateConfig(); err != nil {
		log.GetLogger().Error("load config failed, using defaults", zap.Error(err))
		Conf = defaultConfig()
		return false
	}
	return true
}

func SaveConfig() error {
	configPath, err := ResolveConfigPath()
	if err != nil {
		return fmt.Errorf("resolve config path error: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir error: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("create config file error: %w", err)
	}
	defer f.Close()

	if err = toml.NewEncoder(f).Encode(Conf); err != nil {
		return fmt.Errorf("encode config error: %w", err)
	}
	return nil
}

func CheckConfig() error {
	r := Conf.Render
	if r.CanvasWidth <= 0 || r.CanvasHeight <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", r.CanvasWidth, r.CanvasHeight)
	}
	if r.Fps <= 0 {
		return fmt.Errorf("invalid fps %d", r.Fps)
	}
	switch r.TitleArea {
	case "keep":
		if r.TitleBandHeight < 0 || r.TitleBandHeight >= r.CanvasHeight {
			return fmt.Errorf("title band height %d does not fit canvas height %d", r.TitleBandHeight, r.CanvasHeight)
		}
	case "remove":
	default:
		return fmt.Errorf("unknown title_area %q", r.TitleArea)
	}
	if r.FadeDuration < 0 || r.GroupFadeDuration < 0 || r.MinFadeDuration < 0 {
		return errors.New("fade durations must not be negative")
	}

	switch Conf.Tts.Provider {
	case "openai":
		if strings.TrimSpace(Conf.Tts.Openai.ApiKey) == "" {
			return errors.New("tts provider is openai but tts.openai.api_key is empty")
		}
	case "none", "":
	default:
		return fmt.Errorf("unknown tts provider %q", Conf.Tts.Provider)
	}

	switch Conf.Queue.Backend {
	case "memory", "":
	case "redis":
		if Conf.Queue.RedisAddr == "" {
			return errors.New("queue backend is redis but queue.redis_addr is empty")
		}
	default:
		return fmt.Errorf("unknown queue backend %q", Conf.Queue.Backend)
	}

	if Conf.App.MaxAttempts <= 0 {
		Conf.App.MaxAttempts = 1
	}
	if Conf.App.FallbackLineDuration <= 0 {
		Conf.App.FallbackLineDuration = 3.0
	}
	return nil
}
