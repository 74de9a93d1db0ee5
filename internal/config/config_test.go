package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  upload_dir: "uploads"
  retention: 30m
media:
  cleanup_delay: 500ms
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.UploadDir == "" || !filepath.IsAbs(cfg.Storage.UploadDir) {
		t.Errorf("upload_dir should be absolute, got %q", cfg.Storage.UploadDir)
	}
	if cfg.Storage.Retention != 30*time.Minute {
		t.Errorf("retention = %v", cfg.Storage.Retention)
	}
	if cfg.Media.CleanupDelay != 500*time.Millisecond {
		t.Errorf("cleanup_delay = %v", cfg.Media.CleanupDelay)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  upload_dir: "./data/uploads"
  work_dir: "./data/work"
watch:
  directories: ["./dev/inbox"]
  output_dir: "./dev/out"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string][2]string{
		"upload_dir": {cfg.Storage.UploadDir, filepath.Join(dir, "data", "uploads")},
		"work_dir":   {cfg.Storage.WorkDir, filepath.Join(dir, "data", "work")},
		"output_dir": {cfg.Watch.OutputDir, filepath.Join(dir, "dev", "out")},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	wantWatch := filepath.Join(dir, "dev", "inbox")
	if cfg.Watch.Directories[0] != wantWatch {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], wantWatch)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadMB != 256 {
		t.Errorf("default max upload: got %d", cfg.Server.MaxUploadMB)
	}
	if cfg.Storage.Retention != time.Hour {
		t.Errorf("default retention: got %v", cfg.Storage.Retention)
	}
	if len(cfg.Extensions) != 18 || cfg.Extensions[0] != ".pdf" {
		t.Errorf("extensions: got %v", cfg.Extensions)
	}
	if cfg.OCR.Language != "eng" || cfg.OCR.DPI != 200 {
		t.Errorf("ocr defaults: %+v", cfg.OCR)
	}
	if cfg.Media.AudioPreviewSeconds != 30 || cfg.Media.VideoPreviewSeconds != 15 || cfg.Media.VideoPreviewWidth != 480 {
		t.Errorf("media defaults: %+v", cfg.Media)
	}
	if cfg.Media.FrameCount != 5 || cfg.Media.FrameIntervalSeconds != 5 {
		t.Errorf("frame defaults: %+v", cfg.Media)
	}
	if cfg.Media.CleanupDelay != 0 {
		t.Errorf("cleanup delay should default to 0, got %v", cfg.Media.CleanupDelay)
	}
	if cfg.Speech.Language != "en-US" || cfg.Speech.CalibrationSeconds != 1 {
		t.Errorf("speech defaults: %+v", cfg.Speech)
	}
}

func TestApplyDefaults_doesNotShareExtensionSlice(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Extensions[0] = ".xyz"
	if DefaultExtensions[0] != ".pdf" {
		t.Error("ApplyDefaults must copy DefaultExtensions")
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/inbox"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvSpeechAPIKey, "k-123")
	t.Setenv(EnvSpeechEndpoint, "http://127.0.0.1:9/recognize")
	t.Setenv(EnvFFmpeg, "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv(EnvDebug, "true")

	cfg := &Config{}
	ApplyDefaults(cfg)
	ApplyEnv(cfg)
	if cfg.Speech.APIKey != "k-123" || cfg.Speech.Endpoint != "http://127.0.0.1:9/recognize" {
		t.Errorf("speech = %+v", cfg.Speech)
	}
	if cfg.Media.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg = %q", cfg.Media.FFmpeg)
	}
	if !cfg.Debug {
		t.Error("debug should be enabled from env")
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(EnvSpeechAPIKey+"=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSpeechAPIKey, "")
	os.Unsetenv(EnvSpeechAPIKey)

	LoadEnv(path)
	if got := os.Getenv(EnvSpeechAPIKey); got != "from-dotenv" {
		t.Errorf("%s = %q, want from-dotenv", EnvSpeechAPIKey, got)
	}
	LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{UploadDir: "/tmp/uploads", Retention: 2 * time.Hour},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Storage.Retention != 2*time.Hour {
		t.Errorf("loaded retention: got %v", loaded.Storage.Retention)
	}
}
