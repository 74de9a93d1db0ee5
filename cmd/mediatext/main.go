// Package main is the mediatext CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/mediatext/internal/cli"
	"github.com/hyperjump/mediatext/internal/config"
	"github.com/hyperjump/mediatext/internal/extract"
	"github.com/hyperjump/mediatext/internal/media"
	"github.com/hyperjump/mediatext/internal/ocr"
	"github.com/hyperjump/mediatext/internal/ocr/tesseract"
	"github.com/hyperjump/mediatext/internal/pdfraster"
	"github.com/hyperjump/mediatext/internal/server"
	"github.com/hyperjump/mediatext/internal/speech"
	"github.com/hyperjump/mediatext/internal/storage"
	"github.com/hyperjump/mediatext/internal/watcher"
	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mediatext/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, and a missing default file yields the built-in
// defaults. Environment overrides (.env included) are applied last. Returns the config
// and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	config.LoadEnv()
	cfg, resolved, err := readConfig(path)
	if err != nil {
		return nil, "", err
	}
	config.ApplyEnv(cfg)
	return cfg, resolved, nil
}

func readConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "extract":
		runExtract()
	case "watch":
		runWatch()
	case "cleanup":
		runCleanup()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("mediatext version %s (tesseract %s)\n", version, tesseract.Version())
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and creates the logger shared by every long-running subcommand.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)
	return cfg, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (working areas, tool invocations, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0755); err != nil {
		logger.Fatal("Failed to create upload directory", zap.String("dir", cfg.Storage.UploadDir), zap.Error(err))
	}
	if removed, err := storage.RemoveOlderThan(cfg.Storage.UploadDir, cfg.Storage.Retention, time.Now()); err != nil {
		logger.Warn("startup cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		logger.Info("startup cleanup", zap.Int("removed", len(removed)))
	}

	srv := server.NewServer(buildExtractor(cfg, logger), cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	format := fs.String("format", string(cli.OutputText), "output format: text, json or compact")
	out := fs.String("out", "", "artifact path (default: <stem>_extracted.txt next to the input)")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: mediatext extract [flags] <file>")
		os.Exit(1)
	}
	outputFormat, err := cli.ParseOutputFormat(*format)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		logger.Fatal("Invalid path", zap.Error(err))
	}
	artifact := *out
	if artifact == "" {
		artifact = filepath.Join(filepath.Dir(path), extract.ArtifactName(path))
	}

	ex := buildExtractor(cfg, logger)
	result, err := ex.ExtractTo(context.Background(), path, filepath.Ext(path), artifact)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteExtraction(os.Stdout, path, result, outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	outputDir := fs.String("out", "", "artifact directory (default: from config, else next to each input)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	dirs := cfg.Watch.Directories
	for _, arg := range fs.Args() {
		abs, err := filepath.Abs(arg)
		if err != nil {
			logger.Fatal("Invalid directory", zap.String("dir", arg), zap.Error(err))
		}
		dirs = append(dirs, abs)
	}
	if len(dirs) == 0 {
		fmt.Println("Usage: mediatext watch [flags] [dir...]   (or set watch.directories in config)")
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Watch.OutputDir = *outputDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbox := watcher.NewInbox(buildExtractor(cfg, logger), cfg.Watch.OutputDir, logger)
	watchSvc := watcher.NewWatcher(
		dirs,
		cfg.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) { inbox.Process(ctx, path) },
		inbox.Forget,
		watcher.WithLogger(logger),
	)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()
	logger.Info("watching", zap.Strings("directories", watchSvc.Directories()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	watchSvc.Stop()
}

func runCleanup() {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	olderThan := fs.Duration("older-than", 0, "remove uploads older than this (default: storage.retention)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	age := cfg.Storage.Retention
	if *olderThan > 0 {
		age = *olderThan
	}
	removed, err := storage.RemoveOlderThan(cfg.Storage.UploadDir, age, time.Now())
	for _, p := range removed {
		fmt.Println(p)
	}
	if err != nil {
		fmt.Printf("Cleanup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d file(s) from %s\n", len(removed), cfg.Storage.UploadDir)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file to create")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*configPath, *force); err != nil {
		fmt.Printf("Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

// writeDefaultConfig saves the built-in defaults to path. An existing file is kept
// unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

// buildExtractor wires the OCR, media and speech engines from cfg.
func buildExtractor(cfg *config.Config, logger *zap.Logger) *extract.Extractor {
	logger.Debug("engines",
		zap.String("tesseract", tesseract.Version()),
		zap.String("ffmpeg", cfg.Media.FFmpeg),
		zap.Bool("speech_key", cfg.Speech.APIKey != ""),
	)
	recognizer := speech.NewHTTPRecognizer(speech.HTTPOptions{
		Endpoint: cfg.Speech.Endpoint,
		APIKey:   cfg.Speech.APIKey,
		Language: cfg.Speech.Language,
	}, logger)
	calibration := time.Duration(cfg.Speech.CalibrationSeconds * float64(time.Second))
	if cfg.Speech.CalibrationSeconds < 0 {
		calibration = -1
	}

	engines := extract.Engines{
		Rasterizer: pdfraster.New(cfg.OCR.DPI, logger),
		OCR:        ocr.NewExtractor(tesseract.NewEngine(cfg.OCR.TessdataPrefix), cfg.OCR.Language, logger),
		Media:      media.NewConverter(media.Options{FFmpeg: cfg.Media.FFmpeg}, logger),
		Speech:     speech.NewExtractor(recognizer, calibration, logger),
	}
	opts := extract.Options{
		WorkDir:           cfg.Storage.WorkDir,
		PreviewMaxWidth:   cfg.OCR.PreviewMaxWidth,
		AudioPreview:      config.Seconds(cfg.Media.AudioPreviewSeconds),
		VideoPreview:      config.Seconds(cfg.Media.VideoPreviewSeconds),
		VideoPreviewWidth: cfg.Media.VideoPreviewWidth,
		FrameCount:        cfg.Media.FrameCount,
		FrameInterval:     config.Seconds(cfg.Media.FrameIntervalSeconds),
		SettleDelay:       cfg.Media.CleanupDelay,
	}
	return extract.NewExtractor(engines, opts, logger)
}

func printUsage() {
	fmt.Println(`mediatext - Extract text from PDFs, images, audio and video

Usage:
  mediatext server [flags]           Start the HTTP upload/download server
  mediatext extract [flags] <file>   Extract text from one file
  mediatext watch [flags] [dir...]   Extract every supported file dropped into the directories
  mediatext cleanup [flags]          Remove uploads older than the retention period
  mediatext init [flags]             Write a config file with the default settings
  mediatext version                  Show version
  mediatext help                     Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/mediatext/config.yaml)
  --debug            Enable debug logging

Extract Flags:
  --format string    Output format: text, json or compact (default: text)
  --out string       Artifact path (default: <stem>_extracted.txt next to the input)

Watch Flags:
  --out string       Artifact directory (default: watch.output_dir, else next to each input)

Cleanup Flags:
  --older-than dur   Age threshold, e.g. 30m (default: storage.retention)

Supported extensions:
  ` + strings.Join(extract.Extensions(), " ") + `

Init Flags:
  --config string    File to create (default: config.yaml)
  --force            Overwrite an existing file

Examples:
  mediatext server
  mediatext extract scan.pdf
  mediatext extract --format json interview.mp3
  mediatext watch ~/Inbox
  mediatext cleanup --older-than 30m
  mediatext init --config ~/.config/mediatext/config.yaml`)
}
