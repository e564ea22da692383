package speech_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"mailtriage/internal/speech"
)

func TestChunkText(t *testing.T) {
	long := strings.Repeat("word ", 60)
	chunks := speech.ChunkText(long, 100)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > 100 {
			t.Fatalf("chunk exceeds limit: %d", utf8.RuneCountInString(chunk))
		}
		if strings.HasPrefix(chunk, " ") || strings.HasSuffix(chunk, " ") {
			t.Fatalf("chunk has edge whitespace: %q", chunk)
		}
	}
	if strings.Join(chunks, " ") != strings.TrimSpace(long) {
		t.Fatal("chunks do not reassemble to the original text")
	}

	giant := strings.Repeat("x", 250)
	split := speech.ChunkText(giant, 100)
	if len(split) != 3 || split[2] != strings.Repeat("x", 50) {
		t.Fatalf("unexpected split of long word: %d chunks", len(split))
	}

	if speech.ChunkText("   ", 100) != nil {
		t.Fatal("expected nil for blank text")
	}
}

func TestGoogleSynthesizeConcatenatesChunks(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		queries = append(queries, r.URL.Query().Get("q"))
		if r.URL.Query().Get("tl") != "en" || r.URL.Query().Get("client") != "tw-ob" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("[" + r.URL.Query().Get("idx") + "]"))
	}))
	defer server.Close()

	g := speech.NewGoogle("en", speech.WithEndpoint(server.URL), speech.WithHTTPClient(server.Client()))
	text := strings.Repeat("hello ", 30)
	audio, err := g.Synthesize(context.Background(), text)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "[0][1]" {
		t.Fatalf("audio = %q", audio)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(queries))
	}
}

func TestGoogleSynthesizeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := speech.NewGoogle("en", speech.WithEndpoint(server.URL))
	if _, err := g.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := g.Synthesize(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestOpenAISynthesize(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	o := speech.NewOpenAI("key", "nova", server.Client(), server.URL+"/v1")
	audio, err := o.Synthesize(context.Background(), "Hello!")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("audio = %q", audio)
	}
	if got["voice"] != "nova" || got["input"] != "Hello!" || got["model"] != "tts-1" {
		t.Fatalf("unexpected request %v", got)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	if _, err := speech.New(speech.Config{Provider: "google"}); err != nil {
		t.Fatalf("google: %v", err)
	}
	if _, err := speech.New(speech.Config{Provider: "openai"}); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := speech.New(speech.Config{Provider: "festival"}); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}
