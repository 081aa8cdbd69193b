package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"github.com/opentts/opentts/config"
	"github.com/opentts/opentts/internal/backend"
	"github.com/opentts/opentts/internal/engine"
	"github.com/opentts/opentts/internal/voice"

	// Register protocol strategies via init().
	_ "github.com/opentts/opentts/internal/backend/gradio"
	_ "github.com/opentts/opentts/internal/backend/rest"
)

var cli struct {
	Model   string `short:"m" default:"ov" help:"Target model server: ov (OpenVoice V2), of (OpenF5-TTS) or vox (VoxCPM)."`
	Host    string `help:"Backend host address (overrides config and environment)."`
	Config  string `help:"Path to the config file." type:"path"`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Clone  CloneCmd  `cmd:"" help:"Extract a voice from reference audio and cache it."`
	Say    SayCmd    `cmd:"" help:"Synthesize speech from text."`
	Voices VoicesCmd `cmd:"" help:"List voices."`
	Delete DeleteCmd `cmd:"" help:"Delete a saved voice."`
	Health HealthCmd `cmd:"" help:"Probe the backend's health."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("opentts"),
		kong.Description("Voice cloning and text-to-speech against local model servers."),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))

	rc, err := newRunContext(logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}

	kctx.FatalIfErrorf(kctx.Run(rc))
}

func newRunContext(logger *slog.Logger) (*runCtx, error) {
	path := cli.Config
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cli.Host != "" {
		cfg.Host = cli.Host
	}

	model, err := backend.ParseModel(cli.Model)
	if err != nil {
		return nil, err
	}

	b, err := backend.New(model, cfg.Host, cfg.BackendConfig())
	if err != nil {
		return nil, err
	}

	store := voice.NewStore(cfg.VoicesDir)
	logger.Debug("configured", "model", model.DisplayName(), "host", cfg.Host, "voices_dir", store.Dir())

	return &runCtx{
		ctx:    context.Background(),
		engine: engine.New(b, store),
		model:  model,
		logger: logger,
	}, nil
}
