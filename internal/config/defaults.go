package config

import "time"

// DefaultExtensions is the upload and watch allow-list when none is configured.
var DefaultExtensions = []string{
	".pdf",
	".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp",
	".mp3", ".wav", ".m4a", ".ogg", ".flac",
	".mp4", ".avi", ".mov", ".mkv", ".webm",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 256
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "/usr/local/var/mediatext/uploads"
	}
	if cfg.Storage.Retention == 0 {
		cfg.Storage.Retention = time.Hour
	}
	if cfg.Extensions == nil {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.OCR.Language == "" {
		cfg.OCR.Language = "eng"
	}
	if cfg.OCR.DPI == 0 {
		cfg.OCR.DPI = 200
	}
	if cfg.OCR.PreviewMaxWidth == 0 {
		cfg.OCR.PreviewMaxWidth = 1200
	}
	if cfg.Media.FFmpeg == "" {
		cfg.Media.FFmpeg = "ffmpeg"
	}
	if cfg.Media.AudioPreviewSeconds == 0 {
		cfg.Media.AudioPreviewSeconds = 30
	}
	if cfg.Media.VideoPreviewSeconds == 0 {
		cfg.Media.VideoPreviewSeconds = 15
	}
	if cfg.Media.VideoPreviewWidth == 0 {
		cfg.Media.VideoPreviewWidth = 480
	}
	if cfg.Media.FrameCount == 0 {
		cfg.Media.FrameCount = 5
	}
	if cfg.Media.FrameIntervalSeconds == 0 {
		cfg.Media.FrameIntervalSeconds = 5
	}
	if cfg.Speech.Language == "" {
		cfg.Speech.Language = "en-US"
	}
	if cfg.Speech.CalibrationSeconds == 0 {
		cfg.Speech.CalibrationSeconds = 1
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// Seconds converts a whole-seconds setting to a duration.
func Seconds(n int) time.Duration { return time.Duration(n) * time.Second }
