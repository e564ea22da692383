package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mailtriage/internal/logging"
	"mailtriage/internal/services"
	"mailtriage/internal/speech"
	"mailtriage/internal/triage"
)

const (
	defaultAPIBaseURL = "https://api.telegram.org"
	defaultTimeout    = 30 * time.Second

	// StatusSent is returned after Telegram accepts the voice note.
	StatusSent = "Voice alert sent successfully."
	// StatusFailedPrefix prefixes the Telegram response body on rejection.
	StatusFailedPrefix = "Failed to send voice alert: "
)

// Config carries the Telegram destination.
type Config struct {
	BotToken   string
	ChatID     string
	APIBaseURL string
	// TempDir holds the staged audio file; empty uses os.TempDir.
	TempDir string
	Timeout time.Duration
}

// Alerter sends voice alerts.
type Alerter struct {
	cfg        Config
	synth      speech.Synthesizer
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes an Alerter.
type Option func(*Alerter)

// WithHTTPClient overrides the HTTP client used for Telegram.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Alerter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Alerter) {
		a.logger = logging.NewComponentLogger(logger, "alert")
	}
}

// New validates cfg and returns an Alerter.
func New(cfg Config, synth speech.Synthesizer, opts ...Option) (*Alerter, error) {
	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	cfg.ChatID = strings.TrimSpace(cfg.ChatID)
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.BotToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, "alert", "new", "telegram bot token is required", nil)
	}
	if cfg.ChatID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "alert", "new", "telegram chat id is required", nil)
	}
	if synth == nil {
		return nil, errors.New("alert: synthesizer is required")
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	a := &Alerter{
		cfg:        cfg,
		synth:      synth,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewComponentLogger(nil, "alert"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Alert renders record, synthesizes it and uploads the voice note. The status
// string mirrors the delivery outcome; a non-nil error accompanies every
// failure.
func (a *Alerter) Alert(ctx context.Context, record triage.InterviewRecord) (string, error) {
	return a.Say(ctx, Render(record))
}

// Say synthesizes text and uploads it as a voice note.
func (a *Alerter) Say(ctx context.Context, text string) (string, error) {
	audio, err := a.synth.Synthesize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("synthesize alert: %w", err)
	}

	path, err := a.stage(audio)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("failed to delete temp audio file",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}()

	return a.sendVoice(ctx, path)
}

func (a *Alerter) stage(audio []byte) (string, error) {
	file, err := os.CreateTemp(a.cfg.TempDir, "mailtriage-alert-*.mp3")
	if err != nil {
		return "", fmt.Errorf("create temp audio: %w", err)
	}
	path := file.Name()
	if _, err := file.Write(audio); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp audio: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp audio: %w", err)
	}
	return path, nil
}

func (a *Alerter) sendVoice(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open temp audio: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("chat_id", a.cfg.ChatID); err != nil {
		return "", fmt.Errorf("telegram: write chat_id field: %w", err)
	}
	field, err := writer.CreateFormFile("voice", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("telegram: create voice field: %w", err)
	}
	if _, err := io.Copy(field, file); err != nil {
		return "", fmt.Errorf("telegram: copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("telegram: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.methodURL("sendVoice"), body)
	if err != nil {
		return "", fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	respBody, status, err := a.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		text := strings.TrimSpace(string(respBody))
		return StatusFailedPrefix + text, services.Wrap(statusMarker(status), "alert", "sendVoice",
			fmt.Sprintf("telegram returned %d: %s", status, text), nil)
	}
	return StatusSent, nil
}

// BotInfo is the subset of getMe used to confirm the token.
type BotInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Ping calls getMe to confirm the bot token is valid.
func (a *Alerter) Ping(ctx context.Context) (BotInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.methodURL("getMe"), nil)
	if err != nil {
		return BotInfo{}, fmt.Errorf("telegram: build request: %w", err)
	}
	body, status, err := a.do(req)
	if err != nil {
		return BotInfo{}, err
	}
	if status != http.StatusOK {
		return BotInfo{}, services.Wrap(statusMarker(status), "alert", "getMe",
			fmt.Sprintf("telegram returned %d: %s", status, strings.TrimSpace(string(body))), nil)
	}
	var parsed struct {
		OK     bool    `json:"ok"`
		Result BotInfo `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return BotInfo{}, fmt.Errorf("telegram: decode getMe: %w", err)
	}
	if !parsed.OK {
		return BotInfo{}, errors.New("telegram: getMe returned ok=false")
	}
	return parsed.Result, nil
}

func (a *Alerter) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", a.cfg.APIBaseURL, a.cfg.BotToken, method)
}

// do executes req without ever surfacing the token-bearing URL in errors.
func (a *Alerter) do(req *http.Request) ([]byte, int, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, 0, services.Wrap(services.ErrTransient, "alert", "telegram", "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("telegram: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func statusMarker(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return services.ErrConfiguration
	default:
		return services.ErrTransient
	}
}
