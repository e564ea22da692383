package triagerun

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"mailtriage/internal/config"
	"mailtriage/internal/ledger"
	"mailtriage/internal/logging"
	"mailtriage/internal/notifications"
	"mailtriage/internal/pipeline"
	"mailtriage/internal/triage"
)

var lookPath = exec.LookPath

// Options overrides collaborators for a run. Zero values are built from config.
type Options struct {
	Source   pipeline.Source
	Alerter  pipeline.Alerter
	Notifier pipeline.Notifier
}

// Run opens the ledger, wires the pipeline and performs one triage pass.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (pipeline.Summary, error) {
	if cfg == nil {
		return pipeline.Summary{}, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.ValidateForRun(); err != nil {
		return pipeline.Summary{}, err
	}

	logDependencySnapshot(logger, cfg)

	store, err := ledger.Open(ctx, cfg)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	orchestrator, err := NewOrchestrator(ctx, cfg, store, logger, opts)
	if err != nil {
		return pipeline.Summary{}, err
	}
	return orchestrator.Run(ctx)
}

// NewOrchestrator wires a pipeline against store.
func NewOrchestrator(ctx context.Context, cfg *config.Config, store pipeline.Ledger, logger *slog.Logger, opts Options) (*pipeline.Orchestrator, error) {
	client, err := NewLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	source := opts.Source
	if source == nil {
		built, err := NewSource(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("mail source: %w", err)
		}
		source = built
	}

	alerter := opts.Alerter
	if alerter == nil && cfg.Alert.Enabled {
		built, err := NewAlerter(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("voice alerter: %w", err)
		}
		alerter = built
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	return pipeline.New(pipeline.Dependencies{
		Source:     source,
		Ledger:     store,
		Classifier: triage.NewClassifier(client.WithTemperature(cfg.LLM.ClassifyTemperature)),
		Extractor:  triage.NewExtractor(client.WithTemperature(cfg.LLM.ExtractTemperature)),
		Alerter:    alerter,
		Notifier:   notifier,
		Logger:     logger,
		MaxResults: cfg.Mail.MaxResults,
		LockPath:   cfg.RunLockPath(),
	})
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Debug("dependency snapshot",
		logging.String("mail_provider", cfg.Mail.Provider),
		logging.String("llm_provider", cfg.LLM.Provider),
		logging.String("llm_model", cfg.LLM.Model),
		logging.String("ledger_driver", cfg.Ledger.Driver),
		logging.Bool("ocr_enabled", cfg.Mail.OCREnabled),
		logging.Bool("ocr_available", cfg.Mail.OCREnabled && binaryAvailable(cfg.Mail.OCRBinary)),
		logging.Bool("alerts_enabled", cfg.Alert.Enabled),
		logging.String("tts_provider", cfg.Alert.TTSProvider),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}
