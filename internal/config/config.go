// Package config provides configuration loading and structs for the mediatext server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvSpeechAPIKey   = "MEDIATEXT_SPEECH_API_KEY"
	EnvSpeechEndpoint = "MEDIATEXT_SPEECH_ENDPOINT"
	EnvFFmpeg         = "MEDIATEXT_FFMPEG"
	EnvDebug          = "MEDIATEXT_DEBUG"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool          `yaml:"debug"`
	Server     ServerConfig  `yaml:"server"`
	Storage    StorageConfig `yaml:"storage"`
	Extensions []string      `yaml:"extensions"`
	OCR        OCRConfig     `yaml:"ocr"`
	Media      MediaConfig   `yaml:"media"`
	Speech     SpeechConfig  `yaml:"speech"`
	Watch      WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// StorageConfig holds upload and scratch locations.
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	// WorkDir holds per-request working areas; empty means the OS temp dir.
	WorkDir string `yaml:"work_dir"`
	// Retention is how long uploads and artifacts are kept before cleanup removes them.
	Retention time.Duration `yaml:"retention"`
}

// OCRConfig holds Tesseract and rasterization settings.
type OCRConfig struct {
	Language        string `yaml:"language"`
	DPI             int    `yaml:"dpi"`
	TessdataPrefix  string `yaml:"tessdata_prefix"`
	PreviewMaxWidth int    `yaml:"preview_max_width"`
}

// MediaConfig holds ffmpeg settings and preview sizes.
type MediaConfig struct {
	FFmpeg               string        `yaml:"ffmpeg"`
	AudioPreviewSeconds  int           `yaml:"audio_preview_seconds"`
	VideoPreviewSeconds  int           `yaml:"video_preview_seconds"`
	VideoPreviewWidth    int           `yaml:"video_preview_width"`
	FrameCount           int           `yaml:"frame_count"`
	FrameIntervalSeconds int           `yaml:"frame_interval_seconds"`
	CleanupDelay         time.Duration `yaml:"cleanup_delay"`
}

// SpeechConfig holds the recognition service settings.
type SpeechConfig struct {
	Endpoint           string  `yaml:"endpoint"`
	APIKey             string  `yaml:"api_key"`
	Language           string  `yaml:"language"`
	CalibrationSeconds float64 `yaml:"calibration_seconds"`
}

// WatchConfig holds inbox watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	// OutputDir receives artifacts; empty writes them next to each input.
	OutputDir string `yaml:"output_dir"`
	Recursive *bool  `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	if cfg.Storage.WorkDir != "" {
		cfg.Storage.WorkDir = expandPath(cfg.Storage.WorkDir, configDir)
	}
	if cfg.OCR.TessdataPrefix != "" {
		cfg.OCR.TessdataPrefix = expandPath(cfg.OCR.TessdataPrefix, configDir)
	}
	if cfg.Watch.OutputDir != "" {
		cfg.Watch.OutputDir = expandPath(cfg.Watch.OutputDir, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadEnv loads variables from .env files into the process environment. Variables that
// are already set win. Missing files are ignored.
func LoadEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// ApplyEnv overrides cfg with the MEDIATEXT_* environment variables that are set.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvSpeechAPIKey); v != "" {
		cfg.Speech.APIKey = v
	}
	if v := os.Getenv(EnvSpeechEndpoint); v != "" {
		cfg.Speech.Endpoint = v
	}
	if v := os.Getenv(EnvFFmpeg); v != "" {
		cfg.Media.FFmpeg = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
