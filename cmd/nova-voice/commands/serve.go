package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/mcr5fh/nova-voice/cmd/nova-voice/internal/config"
	"github.com/mcr5fh/nova-voice/pkg/engine"
	"github.com/mcr5fh/nova-voice/pkg/gateway"
	"github.com/mcr5fh/nova-voice/pkg/kv"
	"github.com/mcr5fh/nova-voice/pkg/session"
	"github.com/mcr5fh/nova-voice/pkg/specdoc"
	"github.com/mcr5fh/nova-voice/pkg/speech"
)

var (
	flagListen  string
	flagDataDir string
	flagSpecDir string
	flagEngine  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the websocket server",
	Long: `Run the interview server: a websocket endpoint at /ws and a
liveness probe at /healthz.

Configuration comes from the -c file; the flags below override it.

Example:
  nova-voice serve -c config.yaml --listen :9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if flagListen != "" {
			cfg.Listen = flagListen
		}
		if flagDataDir != "" {
			cfg.DataDir = flagDataDir
		}
		if flagSpecDir != "" {
			cfg.Spec.Store = "local"
			cfg.Spec.Dir = flagSpecDir
		}
		if flagEngine != "" {
			cfg.Engine = flagEngine
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "badger data directory (overrides config)")
	serveCmd.Flags().StringVar(&flagSpecDir, "spec-dir", "", "local spec document directory (overrides config)")
	serveCmd.Flags().StringVar(&flagEngine, "engine", "", "conversation engine: openai or gemini (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := kv.OpenBadger(kv.BadgerOptions{
		Dir:      cfg.DataDir,
		InMemory: cfg.DataDir == "",
	})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()
	mgr := session.NewManager(session.NewStore(store))

	specs, err := newSpecWriter(ctx, cfg)
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required for transcription and synthesis")
	}
	var speechOpts []speech.OpenAIOption
	if cfg.OpenAI.BaseURL != "" {
		speechOpts = append(speechOpts, speech.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.TranscribeModel != "" {
		speechOpts = append(speechOpts, speech.WithTranscribeModel(cfg.OpenAI.TranscribeModel))
	}
	if cfg.OpenAI.SpeechModel != "" {
		speechOpts = append(speechOpts, speech.WithSpeechModel(cfg.OpenAI.SpeechModel))
	}
	if cfg.OpenAI.Voice != "" {
		speechOpts = append(speechOpts, speech.WithVoice(cfg.OpenAI.Voice))
	}

	srv := gateway.NewServer(gateway.ServerOptions{
		Manager:           mgr,
		Engine:            eng,
		Transcriber:       speech.NewOpenAITranscriber(cfg.OpenAI.APIKey, speechOpts...),
		Synthesizer:       speech.NewOpenAISynthesizer(cfg.OpenAI.APIKey, speechOpts...),
		Specs:             specs,
		Policy:            cfg.Policy(),
		MaxUtteranceBytes: cfg.Audio.MaxUtteranceBytes,
		Logger:            logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Listen, "engine", cfg.Engine)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newSpecWriter(ctx context.Context, cfg *config.Config) (*specdoc.Writer, error) {
	switch cfg.Spec.Store {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		if cfg.Spec.Region != "" {
			awsCfg.Region = cfg.Spec.Region
		}
		client := s3.NewFromConfig(awsCfg)
		return specdoc.NewWriter(specdoc.NewS3(client, cfg.Spec.Bucket, cfg.Spec.Prefix)), nil
	default:
		local, err := specdoc.NewLocal(cfg.Spec.Dir)
		if err != nil {
			return nil, fmt.Errorf("open spec directory: %w", err)
		}
		return specdoc.NewWriter(local), nil
	}
}

func newEngine(ctx context.Context, cfg *config.Config) (engine.Engine, error) {
	switch cfg.Engine {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("gemini.api_key is required for the gemini engine")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return engine.NewGeminiEngine(client, cfg.Gemini.Model), nil
	default:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai.api_key is required for the openai engine")
		}
		return engine.NewOpenAIEngine(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, cfg.OpenAI.BaseURL), nil
	}
}
