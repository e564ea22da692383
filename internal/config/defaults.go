package config

const (
	defaultConfigPath         = "~/.config/mailtriage/config.toml"
	defaultStateDir           = "~/.local/share/mailtriage"
	defaultCredentialsFile    = "~/.config/mailtriage/credentials.json"
	defaultTokenFile          = "~/.config/mailtriage/token.json"
	defaultLedgerFile         = "processed_emails.db"
	defaultMailProvider       = MailProviderGmail
	defaultMaxResults         = 10
	defaultSubjectLimit       = 200
	defaultBodyLimit          = 1000
	defaultOCRLimit           = 500
	defaultOCRBinary          = "tesseract"
	defaultOCRLanguage        = "eng"
	defaultIMAPPort           = 993
	defaultSpamMailbox        = "Junk"
	defaultBreakerFailures    = 5
	defaultBreakerTimeout     = 60
	defaultLLMProvider        = LLMProviderOpenAI
	defaultOpenAIModel        = "gpt-3.5-turbo"
	defaultOpenRouterBaseURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel    = "openai/gpt-3.5-turbo"
	defaultLLMReferer         = "https://github.com/mailtriage/mailtriage"
	defaultLLMTitle           = "mailtriage"
	defaultLLMTimeout         = 60
	defaultClassifyTemp       = 0.7
	defaultExtractTemp        = 0.0
	defaultTelegramAPIURL     = "https://api.telegram.org"
	defaultTTSProvider        = TTSProviderGoogle
	defaultTTSLanguage        = "en"
	defaultTTSVoice           = "alloy"
	defaultAlertTimeout       = 30
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "auto"
	defaultLogLevel           = "info"
	envConfigPathVariableName = "MAILTRIAGE_CONFIG"
)

// Supported enumerations.
const (
	LedgerDriverSQLite   = "sqlite"
	LedgerDriverPostgres = "postgres"

	MailProviderGmail = "gmail"
	MailProviderIMAP  = "imap"

	LLMProviderOpenAI     = "openai"
	LLMProviderOpenRouter = "openrouter"

	TTSProviderGoogle = "google"
	TTSProviderOpenAI = "openai"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:        defaultStateDir,
			CredentialsFile: defaultCredentialsFile,
			TokenFile:       defaultTokenFile,
		},
		Ledger: Ledger{
			Driver: LedgerDriverSQLite,
		},
		Mail: Mail{
			Provider:              defaultMailProvider,
			MaxResults:            defaultMaxResults,
			SubjectLimit:          defaultSubjectLimit,
			BodyLimit:             defaultBodyLimit,
			OCRLimit:              defaultOCRLimit,
			OCREnabled:            true,
			OCRBinary:             defaultOCRBinary,
			OCRLanguage:           defaultOCRLanguage,
			IMAPPort:              defaultIMAPPort,
			SpamMailbox:           defaultSpamMailbox,
			BreakerFailures:       defaultBreakerFailures,
			BreakerTimeoutSeconds: defaultBreakerTimeout,
		},
		LLM: LLM{
			Provider:            defaultLLMProvider,
			Referer:             defaultLLMReferer,
			Title:               defaultLLMTitle,
			TimeoutSeconds:      defaultLLMTimeout,
			ClassifyTemperature: defaultClassifyTemp,
			ExtractTemperature:  defaultExtractTemp,
		},
		Alert: Alert{
			Enabled:        true,
			TelegramAPIURL: defaultTelegramAPIURL,
			TTSProvider:    defaultTTSProvider,
			TTSLanguage:    defaultTTSLanguage,
			TTSVoice:       defaultTTSVoice,
			TimeoutSeconds: defaultAlertTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunSummary:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
