package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/opentts/opentts/internal/backend"
	"github.com/opentts/opentts/internal/engine"
)

type runCtx struct {
	ctx    context.Context
	engine *engine.Engine
	model  backend.Model
	logger *slog.Logger
}

// CloneCmd extracts a voice from reference audio and caches its metadata.
type CloneCmd struct {
	Reference string `arg:"" help:"Reference audio and transcript as 'file.wav;transcript text'."`
	Name      string `short:"n" help:"Name to save the voice as."`
}

func (c *CloneCmd) Run(rc *runCtx) error {
	ref, err := parseReference(c.Reference)
	if err != nil {
		return err
	}

	info, err := rc.engine.ExtractVoice(rc.ctx, ref.AudioPath, ref.Transcript, c.Name)
	if err != nil {
		if info == nil {
			return fmt.Errorf("extract voice: %w", err)
		}
		// Remote extraction succeeded; only the local bookkeeping failed.
		rc.logger.Warn("voice extracted but not cached locally", "voice", info.Name, "error", err)
	}

	fmt.Printf("Voice extracted: %s\n", info.Name)
	fmt.Printf("  Transcript: %s\n", info.Transcript)
	fmt.Printf("  Model: %s\n", info.Model)
	if info.Duration != nil {
		fmt.Printf("  Duration: %.2fs\n", *info.Duration)
	}
	return nil
}

// SayCmd synthesizes speech and writes it to the output file.
type SayCmd struct {
	Text      string  `arg:"" help:"Text to generate speech from."`
	Name      string  `short:"n" help:"Saved voice to speak with."`
	Speed     float64 `short:"s" default:"1.0" help:"Speech speed multiplier (0.5 to 2.0)."`
	Output    string  `short:"o" default:"output.wav" type:"path" help:"Output audio file."`
	Reference string  `short:"r" help:"Reference 'file.wav;transcript' supplied fresh per call (queued backends only)."`
}

func (c *SayCmd) Run(rc *runCtx) error {
	if c.Speed < 0.5 || c.Speed > 2.0 {
		return fmt.Errorf("speed %.2f out of range (0.5 to 2.0)", c.Speed)
	}

	req := &backend.SynthesizeRequest{
		Text:      c.Text,
		VoiceName: c.Name,
		Speed:     c.Speed,
	}
	if c.Reference != "" {
		ref, err := parseReference(c.Reference)
		if err != nil {
			return err
		}
		req.ReferenceAudio = ref.AudioPath
		req.ReferenceTranscript = ref.Transcript
	}

	rc.logger.Debug("synthesizing", "voice", c.Name, "speed", c.Speed)

	audio, err := rc.engine.Synthesize(rc.ctx, req)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	// The output file is only written once synthesis fully succeeded.
	if err := os.WriteFile(c.Output, audio, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", c.Output, err)
	}

	fmt.Printf("Audio saved to %s (%s)\n", c.Output, humanize.Bytes(uint64(len(audio))))
	return nil
}

// VoicesCmd lists the backend's voices, or the local cache with --local.
type VoicesCmd struct {
	Local bool `help:"List locally cached voice metadata instead of the backend's voices."`
}

func (c *VoicesCmd) Run(rc *runCtx) error {
	if c.Local {
		return c.runLocal(rc)
	}

	voices, err := rc.engine.ListVoices(rc.ctx)
	if err != nil {
		return fmt.Errorf("list voices: %w", err)
	}
	if len(voices) == 0 {
		fmt.Println("No voices found.")
		return nil
	}
	fmt.Println("Available voices:")
	for _, v := range voices {
		fmt.Printf("  %s (%s)\n", v.Name, v.Model)
		fmt.Printf("    Transcript: %s\n", v.Transcript)
		if v.Duration != nil {
			fmt.Printf("    Duration: %.2fs\n", *v.Duration)
		}
	}
	return nil
}

func (c *VoicesCmd) runLocal(rc *runCtx) error {
	voices, err := rc.engine.ListLocal()
	if err != nil {
		return fmt.Errorf("list local voices: %w", err)
	}
	if len(voices) == 0 {
		fmt.Println("No cached voices.")
		return nil
	}
	fmt.Println("Cached voices:")
	for _, v := range voices {
		fmt.Printf("  %s (%s, cached %s)\n", v.Name, v.Model, v.CreatedAt)
		fmt.Printf("    Transcript: %s\n", v.Transcript)
	}
	return nil
}

// DeleteCmd removes a voice remotely and drops the local cache entry.
type DeleteCmd struct {
	Name string `arg:"" help:"Voice to delete."`
}

func (c *DeleteCmd) Run(rc *runCtx) error {
	if err := rc.engine.DeleteVoice(rc.ctx, c.Name); err != nil {
		return fmt.Errorf("delete voice %q: %w", c.Name, err)
	}
	fmt.Printf("Voice %q deleted.\n", c.Name)
	return nil
}

// HealthCmd probes the backend and prints its capability snapshot.
type HealthCmd struct{}

func (c *HealthCmd) Run(rc *runCtx) error {
	status, err := rc.engine.Health(rc.ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	fmt.Printf("%s: %s\n", rc.model.DisplayName(), status.Status)
	fmt.Printf("  Device: %s\n", status.Device)
	if status.CUDAAvailable {
		gpu := status.GPU
		if gpu == "" {
			gpu = "available"
		}
		fmt.Printf("  CUDA: %s\n", gpu)
	}
	return nil
}
