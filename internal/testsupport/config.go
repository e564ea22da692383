package testsupport

import (
	"path/filepath"
	"testing"

	"mailtriage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Secrets are filled with placeholders and network sinks are left empty.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.CredentialsFile = filepath.Join(base, "credentials.json")
	cfgVal.Paths.TokenFile = filepath.Join(base, "token.json")
	cfgVal.Ledger.Driver = config.LedgerDriverSQLite
	cfgVal.Ledger.DSN = filepath.Join(base, "state", "processed_emails.db")
	cfgVal.LLM.APIKey = "test"
	cfgVal.LLM.Model = "test-model"
	cfgVal.Alert.TelegramBotToken = "123:test"
	cfgVal.Alert.TelegramChatID = "42"
	cfgVal.Mail.OCREnabled = false
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMKey sets the LLM API key on the test config.
func WithLLMKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithAlertsDisabled turns off voice alerts.
func WithAlertsDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Alert.Enabled = false
	}
}

// WithIMAP switches the mail provider to IMAP against host:port.
func WithIMAP(host string, port int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mail.Provider = config.MailProviderIMAP
		b.cfg.Mail.IMAPHost = host
		b.cfg.Mail.IMAPPort = port
		b.cfg.Mail.IMAPUsername = "tester@example.com"
		b.cfg.Mail.IMAPPassword = "secret"
	}
}

// WithStubbedOCR writes a fake OCR binary that prints output and enables OCR.
func WithStubbedOCR(output string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "bin", "tesseract")
		WriteExecutable(b.t, path, "#!/bin/sh\ncat >/dev/null\nprintf '%s' '"+output+"'\n")
		b.cfg.Mail.OCREnabled = true
		b.cfg.Mail.OCRBinary = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
