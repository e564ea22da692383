// Package speech synthesizes spoken MP3 audio for voice alerts.
package speech

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Synthesizer converts text to MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Config selects and configures a synthesizer.
type Config struct {
	Provider string
	Language string
	Voice    string
	APIKey   string
	Timeout  time.Duration
}

// Provider names.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// New returns the synthesizer named by cfg.Provider.
func New(cfg Config) (Synthesizer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGoogle:
		return NewGoogle(cfg.Language, WithHTTPClient(httpClient)), nil
	case ProviderOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("speech: openai provider requires an api key")
		}
		return NewOpenAI(cfg.APIKey, cfg.Voice, httpClient, ""), nil
	default:
		return nil, fmt.Errorf("speech: unsupported provider %q", cfg.Provider)
	}
}
