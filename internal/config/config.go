package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains on-disk locations for state and Gmail OAuth material.
type Paths struct {
	StateDir        string `toml:"state_dir"`
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
}

// Ledger selects the processed-email ledger backend.
type Ledger struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Mail contains message source settings.
type Mail struct {
	Provider              string `toml:"provider"`
	MaxResults            int    `toml:"max_results"`
	SubjectLimit          int    `toml:"subject_limit"`
	BodyLimit             int    `toml:"body_limit"`
	OCRLimit              int    `toml:"ocr_limit"`
	OCREnabled            bool   `toml:"ocr_enabled"`
	OCRBinary             string `toml:"ocr_binary"`
	OCRLanguage           string `toml:"ocr_language"`
	IMAPHost              string `toml:"imap_host"`
	IMAPPort              int    `toml:"imap_port"`
	IMAPUsername          string `toml:"imap_username"`
	IMAPPassword          string `toml:"imap_password"`
	SpamMailbox           string `toml:"spam_mailbox"`
	BreakerFailures       int    `toml:"breaker_failures"`
	BreakerTimeoutSeconds int    `toml:"breaker_timeout_seconds"`
}

// LLM contains text-generation settings shared by the classifier and extractor.
type LLM struct {
	Provider            string  `toml:"provider"`
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	Model               string  `toml:"model"`
	Referer             string  `toml:"referer"`
	Title               string  `toml:"title"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	ClassifyTemperature float64 `toml:"classify_temperature"`
	ExtractTemperature  float64 `toml:"extract_temperature"`
	RequestsPerMinute   int     `toml:"requests_per_minute"`
}

// Alert contains the voice alert destination and speech settings.
type Alert struct {
	Enabled          bool   `toml:"enabled"`
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
	TelegramAPIURL   string `toml:"telegram_api_url"`
	TTSProvider      string `toml:"tts_provider"`
	TTSLanguage      string `toml:"tts_language"`
	TTSVoice         string `toml:"tts_voice"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy operator notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for mailtriage.
//
// Configuration sections by subsystem:
//   - Paths: state directory and Gmail OAuth files
//   - Ledger: processed-email ledger backend
//   - Mail: message source provider, fetch bounds, truncation and OCR
//   - LLM: classifier and extractor model settings
//   - Alert: Telegram voice alert destination and text-to-speech
//   - Notifications: ntfy run summaries
//   - Logging: log format, level, and optional file sink
type Config struct {
	Paths         Paths         `toml:"paths"`
	Ledger        Ledger        `toml:"ledger"`
	Mail          Mail          `toml:"mail"`
	LLM           LLM           `toml:"llm"`
	Alert         Alert         `toml:"alert"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and secrets resolved from the environment or keyring.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envConfigPathVariableName))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("mailtriage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory and the parent of a file-backed ledger.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	if c.Ledger.Driver == LedgerDriverSQLite {
		if dir := filepath.Dir(c.Ledger.DSN); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create ledger directory %q: %w", dir, err)
			}
		}
	}
	return nil
}

// RunLockPath returns the advisory lock file guarding concurrent runs.
func (c *Config) RunLockPath() string {
	return filepath.Join(c.Paths.StateDir, "mailtriage.lock")
}

// LLMTimeout returns the per-request LLM timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// AlertTimeout returns the HTTP timeout for speech synthesis and Telegram delivery.
func (c *Config) AlertTimeout() time.Duration {
	return time.Duration(c.Alert.TimeoutSeconds) * time.Second
}

// IMAPAddress returns host:port for the IMAP source.
func (c *Config) IMAPAddress() string {
	return fmt.Sprintf("%s:%d", c.Mail.IMAPHost, c.Mail.IMAPPort)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
