package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"mailtriage/internal/services"
)

const (
	defaultGoogleURL = "https://translate.google.com/translate_tts"
	maxChunkRunes    = 100
	googleUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) mailtriage"
)

// Google uses the translate TTS endpoint. Long text is sent in chunks and the
// returned MP3 segments are concatenated.
type Google struct {
	language   string
	endpoint   string
	httpClient *http.Client
}

// GoogleOption customizes Google.
type GoogleOption func(*Google)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(g *Google) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithEndpoint overrides the TTS endpoint.
func WithEndpoint(endpoint string) GoogleOption {
	return func(g *Google) {
		if endpoint != "" {
			g.endpoint = endpoint
		}
	}
}

// NewGoogle returns a Google synthesizer for language (default "en").
func NewGoogle(language string, opts ...GoogleOption) *Google {
	if strings.TrimSpace(language) == "" {
		language = "en"
	}
	g := &Google{
		language:   language,
		endpoint:   defaultGoogleURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Synthesize implements Synthesizer.
func (g *Google) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := ChunkText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, services.Wrap(services.ErrValidation, "speech", "google", "text is empty", nil)
	}
	var audio bytes.Buffer
	for idx, chunk := range chunks {
		segment, err := g.fetch(ctx, chunk, idx, len(chunks))
		if err != nil {
			return nil, err
		}
		audio.Write(segment)
	}
	return audio.Bytes(), nil
}

func (g *Google) fetch(ctx context.Context, chunk string, idx, total int) ([]byte, error) {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", "tw-ob")
	query.Set("tl", g.language)
	query.Set("q", chunk)
	query.Set("total", strconv.Itoa(total))
	query.Set("idx", strconv.Itoa(idx))
	query.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	req.Header.Set("User-Agent", googleUserAgent)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "speech", "google", "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "speech", "google", "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "speech", "google",
			fmt.Sprintf("chunk %d/%d: http %d", idx+1, total, resp.StatusCode), nil)
	}
	if len(body) == 0 {
		return nil, services.Wrap(services.ErrTransient, "speech", "google", "empty audio", nil)
	}
	return body, nil
}

// ChunkText splits text into pieces of at most limit runes, breaking at
// whitespace. A single word longer than limit is split mid-word.
func ChunkText(text string, limit int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}
	for _, word := range words {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		if len(runes) == 0 {
			continue
		}
		needed := len(runes)
		if currentLen > 0 {
			needed++
		}
		if currentLen+needed > limit {
			flush()
			needed = len(runes)
		}
		if currentLen > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(string(runes))
		currentLen += needed
	}
	flush()
	return chunks
}
