// Command glimpse chats with a multimodal model about images.
//
// Usage:
//
//	GOOGLE_API_KEY=... glimpse [flags]                       full-screen chat
//	GOOGLE_API_KEY=... glimpse -plain [flags]                line-oriented chat
//	GOOGLE_API_KEY=... glimpse -image cat.png "What is it?"  one question, then exit
//
// Flags:
//
//	-config string      Path to a YAML config file
//	-provider string    Provider: gemini, anthropic, ollama (default from config)
//	-model string       Model ID (default: provider default)
//	-api-key string     API key of the selected provider
//	-image string       Ask one question about this image and exit
//	-plain              Use the line-oriented console instead of the TUI
//	-transcript string  Write the session transcript here on exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fwojciec/glimpse"
	bt "github.com/fwojciec/glimpse/bubbletea"
	"github.com/fwojciec/glimpse/console"
	glimpsefs "github.com/fwojciec/glimpse/fs"
	"github.com/fwojciec/glimpse/internal/config"
	"github.com/fwojciec/glimpse/internal/logging"
	"github.com/fwojciec/glimpse/internal/provider"
	glimpsejson "github.com/fwojciec/glimpse/json"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "glimpse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath     = flag.String("config", "", "Path to a YAML config file")
		providerFlag   = flag.String("provider", "", "Provider: gemini, anthropic, ollama")
		model          = flag.String("model", "", "Model ID (provider-specific)")
		apiKey         = flag.String("api-key", "", "API key of the selected provider")
		imagePath      = flag.String("image", "", "Ask one question about this image and exit")
		plain          = flag.Bool("plain", false, "Use the line-oriented console instead of the TUI")
		transcriptPath = flag.String("transcript", "", "Write the session transcript here on exit")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(*configPath, os.LookupEnv)
	if err != nil {
		return err
	}
	provider.ApplyFlags(cfg, *providerFlag, *model, *apiKey)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := provider.Resolve(ctx, cfg, logger)
	if err != nil {
		return err
	}
	relay := glimpse.NewRelay(p, glimpse.WithMaxTokens(cfg.MaxTokens))

	load, err := imageLoader(cfg, logger)
	if err != nil {
		return err
	}

	if *imagePath != "" {
		return askOnce(ctx, relay, load, *imagePath, strings.Join(flag.Args(), " "), os.Stdout)
	}

	session := glimpse.NewSession(uuid.Must(uuid.NewV7()).String())
	if *plain {
		// The console cancels each request on its own interrupt; a
		// process-wide one would stay cancelled and end the session.
		stop()
		session, err = runConsole(context.Background(), relay, load, session, logger)
	} else {
		session, err = runTUI(ctx, relay, load, session)
	}
	if err != nil {
		return err
	}

	if *transcriptPath != "" && session.Len() > 0 {
		if err := glimpsejson.Save(*transcriptPath, session); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", *transcriptPath)
	}
	return nil
}

// newLogger writes to GLIMPSE_LOG_FILE when set. Without it the logger is a
// no-op, since the terminal belongs to the chat.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogFile == "" {
		return zap.NewNop(), nil
	}
	return logging.New(cfg.LogLevel, cfg.LogFile)
}

// imageLoader reads image files, saving each one as an artifact when an
// image directory is configured.
func imageLoader(cfg *config.Config, logger *zap.Logger) (func(string) (glimpse.Image, error), error) {
	load := func(path string) (glimpse.Image, error) {
		return glimpsefs.LoadImage(path, cfg.MaxImageBytes)
	}
	if cfg.ImageDir == "" {
		return load, nil
	}
	store, err := glimpsefs.NewStore(cfg.ImageDir)
	if err != nil {
		return nil, err
	}
	return func(path string) (glimpse.Image, error) {
		img, err := load(path)
		if err != nil {
			return glimpse.Image{}, err
		}
		if art, err := store.Save(img); err != nil {
			logger.Error("save artifact", zap.String("image", img.Name), zap.Error(err))
		} else {
			logger.Info("saved artifact", zap.String("image", img.Name), zap.Int("version", art.Version), zap.String("path", art.Path))
		}
		return img, nil
	}, nil
}

// askOnce asks a single question about the image at path and prints the
// streamed answer to out.
func askOnce(ctx context.Context, relay *glimpse.Relay, load func(string) (glimpse.Image, error), path, question string, out io.Writer) error {
	img, err := load(path)
	if err != nil {
		return err
	}
	session := glimpse.NewSession(uuid.Must(uuid.NewV7()).String())
	_, err = relay.Ask(ctx, session, question, &img, glimpse.WithEventHandler(func(e glimpse.Event) {
		if d, ok := e.(glimpse.EventTextDelta); ok {
			fmt.Fprint(out, d.Delta)
		}
	}))
	fmt.Fprintln(out)
	return err
}

func runConsole(ctx context.Context, relay *glimpse.Relay, load func(string) (glimpse.Image, error), session *glimpse.Session, logger *zap.Logger) (*glimpse.Session, error) {
	rl, err := console.NewReadline(".", historyPath())
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}
	defer rl.Close()

	c := console.New(relay, load, session, rl.Stdout(), console.WithLogger(logger))
	if err := c.Run(ctx, rl); err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}
	return c.Session(), nil
}

func runTUI(ctx context.Context, relay *glimpse.Relay, load func(string) (glimpse.Image, error), session *glimpse.Session) (*glimpse.Session, error) {
	ask := func(ctx context.Context, s *glimpse.Session, question string, onEvent func(glimpse.Event)) (glimpse.Turn, error) {
		return relay.Ask(ctx, s, question, nil, glimpse.WithEventHandler(onEvent))
	}
	m := bt.New(ask, load, session, glimpse.ThemeFromEnv(os.Getenv))
	final, err := bt.Run(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("TUI: %w", err)
	}
	return final.Session(), nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".glimpse_history")
}
