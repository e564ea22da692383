package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is structurally usable. Credentials are
// not required here so read-only commands work without them.
func (c *Config) Validate() error {
	return errors.Join(
		c.validateLedger(),
		c.validateMail(),
		c.validateLLM(),
		c.validateAlert(),
		c.validateNotifications(),
		c.validateLogging(),
	)
}

// ValidateForRun checks the credentials a triage run needs on top of Validate.
func (c *Config) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("llm.api_key is required. Set %s or store it with 'mailtriage secrets set llm_api_key'", c.llmKeyEnvName()))
	}
	if c.Mail.Provider == MailProviderIMAP && c.Mail.IMAPPassword == "" {
		errs = append(errs, errors.New("mail.imap_password is required for the imap provider (or set IMAP_PASSWORD)"))
	}
	if c.Alert.Enabled {
		if c.Alert.TelegramBotToken == "" {
			errs = append(errs, errors.New("alert.telegram_bot_token is required when alert.enabled is true (or set TELEGRAM_BOT_TOKEN)"))
		}
		if c.Alert.TelegramChatID == "" {
			errs = append(errs, errors.New("alert.telegram_chat_id is required when alert.enabled is true (or set TELEGRAM_CHAT_ID)"))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) llmKeyEnvName() string {
	if c.LLM.Provider == LLMProviderOpenRouter {
		return "OPENROUTER_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func (c *Config) validateLedger() error {
	switch c.Ledger.Driver {
	case LedgerDriverSQLite, LedgerDriverPostgres:
	default:
		return fmt.Errorf("ledger.driver must be %q or %q, got %q", LedgerDriverSQLite, LedgerDriverPostgres, c.Ledger.Driver)
	}
	if strings.TrimSpace(c.Ledger.DSN) == "" {
		return errors.New("ledger.dsn must be set for the postgres driver (or set LEDGER_DSN)")
	}
	return nil
}

func (c *Config) validateMail() error {
	switch c.Mail.Provider {
	case MailProviderGmail:
	case MailProviderIMAP:
		if c.Mail.IMAPHost == "" {
			return errors.New("mail.imap_host must be set when mail.provider is imap")
		}
		if c.Mail.IMAPUsername == "" {
			return errors.New("mail.imap_username must be set when mail.provider is imap")
		}
		if c.Mail.IMAPPort > 65535 {
			return fmt.Errorf("mail.imap_port %d is out of range", c.Mail.IMAPPort)
		}
	default:
		return fmt.Errorf("mail.provider must be %q or %q, got %q", MailProviderGmail, MailProviderIMAP, c.Mail.Provider)
	}
	if c.Mail.MaxResults > 500 {
		return errors.New("mail.max_results must be at most 500")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case LLMProviderOpenAI, LLMProviderOpenRouter:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", LLMProviderOpenAI, LLMProviderOpenRouter, c.LLM.Provider)
	}
	if c.LLM.ClassifyTemperature < 0 || c.LLM.ClassifyTemperature > 2 {
		return errors.New("llm.classify_temperature must be between 0 and 2")
	}
	if c.LLM.ExtractTemperature < 0 || c.LLM.ExtractTemperature > 2 {
		return errors.New("llm.extract_temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateAlert() error {
	switch c.Alert.TTSProvider {
	case TTSProviderGoogle:
	case TTSProviderOpenAI:
		if c.LLM.Provider != LLMProviderOpenAI {
			return errors.New("alert.tts_provider openai requires llm.provider openai (the same API key is used)")
		}
	default:
		return fmt.Errorf("alert.tts_provider must be %q or %q, got %q", TTSProviderGoogle, TTSProviderOpenAI, c.Alert.TTSProvider)
	}
	if !strings.HasPrefix(c.Alert.TelegramAPIURL, "http://") && !strings.HasPrefix(c.Alert.TelegramAPIURL, "https://") {
		return fmt.Errorf("alert.telegram_api_url must be an http(s) URL, got %q", c.Alert.TelegramAPIURL)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
