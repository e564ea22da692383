package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mailtriage/internal/secrets"
)

// lookupSecret is the last fallback for credentials; replaced in tests.
var lookupSecret = secrets.Lookup

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeMail()
	c.normalizeLLM()
	c.normalizeAlert()
	c.normalizeNotifications()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CredentialsFile) == "" {
		c.Paths.CredentialsFile = defaultCredentialsFile
	}
	if c.Paths.CredentialsFile, err = expandPath(c.Paths.CredentialsFile); err != nil {
		return fmt.Errorf("paths.credentials_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.TokenFile) == "" {
		c.Paths.TokenFile = defaultTokenFile
	}
	if c.Paths.TokenFile, err = expandPath(c.Paths.TokenFile); err != nil {
		return fmt.Errorf("paths.token_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLedger() error {
	c.Ledger.Driver = strings.ToLower(strings.TrimSpace(c.Ledger.Driver))
	switch c.Ledger.Driver {
	case "", "sqlite3":
		c.Ledger.Driver = LedgerDriverSQLite
	case "postgresql", "pgx":
		c.Ledger.Driver = LedgerDriverPostgres
	}
	c.Ledger.DSN = firstSecret(c.Ledger.DSN, secrets.LedgerDSN, "LEDGER_DSN")
	if c.Ledger.Driver == LedgerDriverSQLite {
		if c.Ledger.DSN == "" {
			c.Ledger.DSN = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
		}
		if c.Ledger.DSN != ":memory:" {
			var err error
			if c.Ledger.DSN, err = expandPath(c.Ledger.DSN); err != nil {
				return fmt.Errorf("ledger.dsn: %w", err)
			}
		}
	}
	return nil
}

func (c *Config) normalizeMail() {
	c.Mail.Provider = strings.ToLower(strings.TrimSpace(c.Mail.Provider))
	if c.Mail.Provider == "" {
		c.Mail.Provider = defaultMailProvider
	}
	if c.Mail.MaxResults <= 0 {
		c.Mail.MaxResults = defaultMaxResults
	}
	if c.Mail.SubjectLimit <= 0 {
		c.Mail.SubjectLimit = defaultSubjectLimit
	}
	if c.Mail.BodyLimit <= 0 {
		c.Mail.BodyLimit = defaultBodyLimit
	}
	if c.Mail.OCRLimit <= 0 {
		c.Mail.OCRLimit = defaultOCRLimit
	}
	c.Mail.OCRBinary = strings.TrimSpace(c.Mail.OCRBinary)
	if c.Mail.OCRBinary == "" {
		c.Mail.OCRBinary = defaultOCRBinary
	}
	c.Mail.OCRLanguage = strings.TrimSpace(c.Mail.OCRLanguage)
	if c.Mail.OCRLanguage == "" {
		c.Mail.OCRLanguage = defaultOCRLanguage
	}
	c.Mail.IMAPHost = strings.TrimSpace(c.Mail.IMAPHost)
	c.Mail.IMAPUsername = strings.TrimSpace(c.Mail.IMAPUsername)
	if c.Mail.IMAPPort <= 0 {
		c.Mail.IMAPPort = defaultIMAPPort
	}
	c.Mail.IMAPPassword = firstSecret(c.Mail.IMAPPassword, secrets.IMAPPassword, "IMAP_PASSWORD")
	c.Mail.SpamMailbox = strings.TrimSpace(c.Mail.SpamMailbox)
	if c.Mail.SpamMailbox == "" {
		c.Mail.SpamMailbox = defaultSpamMailbox
	}
	if c.Mail.BreakerFailures <= 0 {
		c.Mail.BreakerFailures = defaultBreakerFailures
	}
	if c.Mail.BreakerTimeoutSeconds <= 0 {
		c.Mail.BreakerTimeoutSeconds = defaultBreakerTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	envKeys := []string{"LLM_API_KEY"}
	switch c.LLM.Provider {
	case LLMProviderOpenRouter:
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = defaultOpenRouterBaseURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = defaultOpenRouterModel
		}
		envKeys = append([]string{"OPENROUTER_API_KEY"}, envKeys...)
	default:
		if c.LLM.Model == "" {
			c.LLM.Model = defaultOpenAIModel
		}
		envKeys = append([]string{"OPENAI_API_KEY"}, envKeys...)
	}
	c.LLM.APIKey = firstSecret(c.LLM.APIKey, secrets.LLMAPIKey, envKeys...)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
	if c.LLM.RequestsPerMinute < 0 {
		c.LLM.RequestsPerMinute = 0
	}
}

func (c *Config) normalizeAlert() {
	c.Alert.TelegramBotToken = firstSecret(c.Alert.TelegramBotToken, secrets.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	c.Alert.TelegramChatID = firstSecret(c.Alert.TelegramChatID, secrets.TelegramChatID, "TELEGRAM_CHAT_ID")
	c.Alert.TelegramAPIURL = strings.TrimRight(strings.TrimSpace(c.Alert.TelegramAPIURL), "/")
	if c.Alert.TelegramAPIURL == "" {
		c.Alert.TelegramAPIURL = defaultTelegramAPIURL
	}
	c.Alert.TTSProvider = strings.ToLower(strings.TrimSpace(c.Alert.TTSProvider))
	if c.Alert.TTSProvider == "" {
		c.Alert.TTSProvider = defaultTTSProvider
	}
	c.Alert.TTSLanguage = strings.TrimSpace(c.Alert.TTSLanguage)
	if c.Alert.TTSLanguage == "" {
		c.Alert.TTSLanguage = defaultTTSLanguage
	}
	c.Alert.TTSVoice = strings.TrimSpace(c.Alert.TTSVoice)
	if c.Alert.TTSVoice == "" {
		c.Alert.TTSVoice = defaultTTSVoice
	}
	if c.Alert.TimeoutSeconds <= 0 {
		c.Alert.TimeoutSeconds = defaultAlertTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}

// firstSecret resolves a credential from the configured value, then the first
// set environment variable, then the OS keyring entry named keyringName.
func firstSecret(configured, keyringName string, envNames ...string) string {
	if value := strings.TrimSpace(configured); value != "" {
		return value
	}
	for _, name := range envNames {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	if value, ok := lookupSecret(keyringName); ok {
		return value
	}
	return ""
}
