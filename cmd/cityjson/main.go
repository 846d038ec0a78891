package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/cityjson-codec/internal/codec"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/config"
	"github.com/mohammed-shakir/cityjson-codec/internal/logger"
	"github.com/mohammed-shakir/cityjson-codec/internal/session"
)

type GlobalOptions struct {
	EnvFile  string `long:"env-file" default:".env" description:"Optional .env file with codec defaults"`
	LogLevel string `short:"l" long:"log-level" description:"debug, info, warn or error (default from LOG_LEVEL)"`
	Verbose  bool   `short:"v" long:"verbose" description:"Human readable logs on stderr"`
}

var globalOpts = GlobalOptions{}
var parser = flags.NewParser(&globalOpts, flags.HelpFlag|flags.PassDoubleDash)

func main() {
	_, err := parser.Parse()
	var fe *flags.Error
	if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
		parser.WriteHelp(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Setup loads the env file and builds the codec defaults and logger.
func (g *GlobalOptions) Setup() (config.Config, *zerolog.Logger) {
	_ = godotenv.Load(g.EnvFile)
	cfg := config.FromEnv()
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   g.Verbose,
		Service:   "cityjson",
		Component: "cli",
	}, os.Stderr)
	return cfg, &zl
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func writeOutput(path string, b []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(append(b, '\n'))
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// loadSession reads a session file; a missing file starts a new session
// named after it.
func loadSession(path string) (*session.ImportSession, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return session.New(path), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s session.ImportSession
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return &s, nil
}

func saveSession(path string, s *session.ImportSession) error {
	if path == "" || s == nil {
		return nil
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func newCodec(cfg config.Config, zl *zerolog.Logger, dedupe bool, precision int, keepHoles bool) *codec.Codec {
	return codec.New(codec.Options{
		KeepHoles: keepHoles,
		Dedupe:    dedupe,
		Precision: precision,
		Version:   cfg.Codec.Version,
	}, zl)
}

func background(doc string) context.Context {
	return logger.WithDocument(context.Background(), doc)
}
