package triagerun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mailtriage/internal/alert"
	"mailtriage/internal/config"
	"mailtriage/internal/mailsource"
	"mailtriage/internal/services/llm"
	"mailtriage/internal/speech"
)

// NewLLMClient builds the text-generation client. Callers derive per-stage
// clients with WithTemperature.
func NewLLMClient(cfg *config.Config) (*llm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return llm.NewClient(llm.Config{
		Provider:          cfg.LLM.Provider,
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Referer:           cfg.LLM.Referer,
		Title:             cfg.LLM.Title,
		TimeoutSeconds:    cfg.LLM.TimeoutSeconds,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})
}

// NewAssembler builds the message assembler with OCR when enabled.
func NewAssembler(cfg *config.Config, logger *slog.Logger) *mailsource.Assembler {
	var ocr mailsource.OCR
	if cfg.Mail.OCREnabled {
		ocr = mailsource.NewTesseract(cfg.Mail.OCRBinary, cfg.Mail.OCRLanguage)
	}
	return mailsource.NewAssembler(mailsource.Limits{
		Subject: cfg.Mail.SubjectLimit,
		Body:    cfg.Mail.BodyLimit,
		OCR:     cfg.Mail.OCRLimit,
	}, ocr, logger)
}

// newAssembler is swapped in tests to count constructions.
var newAssembler = NewAssembler

// NewSource builds the configured mail source with a single assembler.
func NewSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (mailsource.Source, error) {
	assembler := newAssembler(cfg, logger)
	switch cfg.Mail.Provider {
	case config.MailProviderIMAP:
		return NewIMAP(cfg, logger, assembler), nil
	case config.MailProviderGmail, "":
		svc, err := mailsource.NewGmailService(ctx, cfg.Paths.CredentialsFile, cfg.Paths.TokenFile)
		if err != nil {
			return nil, err
		}
		return mailsource.NewGmail(svc, assembler, mailsource.GmailOptions{
			BreakerFailures: cfg.Mail.BreakerFailures,
			BreakerTimeout:  time.Duration(cfg.Mail.BreakerTimeoutSeconds) * time.Second,
			Logger:          logger,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Mail.Provider)
	}
}

// NewIMAP builds the IMAP source directly so doctor can call Ping. A nil
// assembler is built from cfg.
func NewIMAP(cfg *config.Config, logger *slog.Logger, assembler *mailsource.Assembler) *mailsource.IMAP {
	if assembler == nil {
		assembler = newAssembler(cfg, logger)
	}
	return mailsource.NewIMAP(mailsource.IMAPOptions{
		Address:     cfg.IMAPAddress(),
		Username:    cfg.Mail.IMAPUsername,
		Password:    cfg.Mail.IMAPPassword,
		SpamMailbox: cfg.Mail.SpamMailbox,
		Logger:      logger,
	}, assembler)
}

// NewSynthesizer builds the configured text-to-speech provider. The openai
// provider reuses the LLM API key.
func NewSynthesizer(cfg *config.Config) (speech.Synthesizer, error) {
	return speech.New(speech.Config{
		Provider: cfg.Alert.TTSProvider,
		Language: cfg.Alert.TTSLanguage,
		Voice:    cfg.Alert.TTSVoice,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.AlertTimeout(),
	})
}

// NewAlerter builds the Telegram voice alerter. Temp audio is staged under
// the state directory.
func NewAlerter(cfg *config.Config, logger *slog.Logger) (*alert.Alerter, error) {
	synth, err := NewSynthesizer(cfg)
	if err != nil {
		return nil, err
	}
	tempDir := filepath.Join(cfg.Paths.StateDir, "tmp")
	if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("create alert temp dir: %w", err)
	}
	return alert.New(alert.Config{
		BotToken:   cfg.Alert.TelegramBotToken,
		ChatID:     cfg.Alert.TelegramChatID,
		APIBaseURL: cfg.Alert.TelegramAPIURL,
		TempDir:    tempDir,
		Timeout:    cfg.AlertTimeout(),
	}, synth, alert.WithLogger(logger))
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := lookPath(name)
	return err == nil
}
