package alert_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"mailtriage/internal/alert"
	"mailtriage/internal/services"
	"mailtriage/internal/triage"
)

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

func strPtr(s string) *string { return &s }

type capturedUpload struct {
	path   string
	chatID string
	name   string
	audio  []byte
}

func newTelegramServer(t *testing.T, status int, body string) (*httptest.Server, *capturedUpload) {
	t.Helper()
	captured := &capturedUpload{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		captured.chatID = r.FormValue("chat_id")
		file, header, err := r.FormFile("voice")
		if err != nil {
			t.Errorf("voice field: %v", err)
		} else {
			captured.name = header.Filename
			captured.audio, _ = io.ReadAll(file)
			_ = file.Close()
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestRenderFullRecord(t *testing.T) {
	record := triage.InterviewRecord{
		InterviewDate: strPtr("2024-05-02"),
		InterviewTime: strPtr("14:30"),
		RecruiterName: strPtr("Dana"),
		CompanyName:   strPtr("Acme"),
	}
	got := alert.Render(record)
	want := "Hello! You have an interview scheduled with Dana from Acme on 2024-05-02 at 14:30."
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRenderPlaceholders(t *testing.T) {
	got := alert.Render(triage.InterviewRecord{CompanyName: strPtr("Acme"), RecruiterName: strPtr("  ")})
	want := "Hello! You have an interview scheduled with Recruiter from Acme on unknown date at unknown time."
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestAlertUploadsVoiceAndRemovesTempFile(t *testing.T) {
	server, captured := newTelegramServer(t, http.StatusOK, `{"ok":true}`)
	tempDir := t.TempDir()
	synth := &fakeSynth{audio: []byte("ID3-audio")}
	alerter, err := alert.New(alert.Config{
		BotToken:   "123:abc",
		ChatID:     "42",
		APIBaseURL: server.URL,
		TempDir:    tempDir,
	}, synth)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	status, err := alerter.Alert(context.Background(), triage.InterviewRecord{CompanyName: strPtr("Acme")})
	if err != nil {
		t.Fatalf("Alert: %v", err)
	}
	if status != alert.StatusSent {
		t.Fatalf("status = %q", status)
	}
	if captured.path != "/bot123:abc/sendVoice" {
		t.Fatalf("path = %q", captured.path)
	}
	if captured.chatID != "42" {
		t.Fatalf("chat_id = %q", captured.chatID)
	}
	if string(captured.audio) != "ID3-audio" {
		t.Fatalf("audio = %q", captured.audio)
	}
	if !strings.HasSuffix(captured.name, ".mp3") {
		t.Fatalf("filename = %q, want .mp3 suffix", captured.name)
	}
	if len(synth.texts) != 1 || !strings.Contains(synth.texts[0], "from Acme") {
		t.Fatalf("synth texts = %v", synth.texts)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp audio to be removed, found %d entries", len(entries))
	}
}

func TestAlertReportsTelegramRejection(t *testing.T) {
	server, _ := newTelegramServer(t, http.StatusBadRequest, `{"ok":false,"description":"chat not found"}`)
	tempDir := t.TempDir()
	alerter, err := alert.New(alert.Config{BotToken: "t", ChatID: "c", APIBaseURL: server.URL, TempDir: tempDir},
		&fakeSynth{audio: []byte("a")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	status, err := alerter.Alert(context.Background(), triage.InterviewRecord{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	want := alert.StatusFailedPrefix + `{"ok":false,"description":"chat not found"}`
	if status != want {
		t.Fatalf("status = %q, want %q", status, want)
	}
	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Fatalf("temp audio left behind after failure")
	}
}

func TestAlertSynthesisFailureSkipsUpload(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	t.Cleanup(server.Close)
	alerter, err := alert.New(alert.Config{BotToken: "t", ChatID: "c", APIBaseURL: server.URL, TempDir: t.TempDir()},
		&fakeSynth{err: errors.New("tts down")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := alerter.Alert(context.Background(), triage.InterviewRecord{}); err == nil {
		t.Fatal("expected synthesis error")
	}
	if calls != 0 {
		t.Fatalf("telegram called %d times", calls)
	}
}

func TestTransportErrorDoesNotLeakToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	alerter, err := alert.New(alert.Config{BotToken: "secret-token", ChatID: "c", APIBaseURL: base, TempDir: t.TempDir()},
		&fakeSynth{audio: []byte("a")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = alerter.Alert(context.Background(), triage.InterviewRecord{})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("error leaks bot token: %v", err)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestNewRequiresDestination(t *testing.T) {
	synth := &fakeSynth{}
	if _, err := alert.New(alert.Config{ChatID: "1"}, synth); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing token: got %v", err)
	}
	if _, err := alert.New(alert.Config{BotToken: "x"}, synth); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing chat: got %v", err)
	}
	if _, err := alert.New(alert.Config{BotToken: "x", ChatID: "1"}, nil); err == nil {
		t.Fatal("expected error for nil synthesizer")
	}
}

func TestPingDecodesBot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botabc/getMe" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":7,"username":"triage_bot"}}`)
	}))
	t.Cleanup(server.Close)
	alerter, err := alert.New(alert.Config{BotToken: "abc", ChatID: "1", APIBaseURL: server.URL}, &fakeSynth{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := alerter.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if info.ID != 7 || info.Username != "triage_bot" {
		t.Fatalf("info = %+v", info)
	}
}

func TestPingUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"ok":false}`)
	}))
	t.Cleanup(server.Close)
	alerter, _ := alert.New(alert.Config{BotToken: "abc", ChatID: "1", APIBaseURL: server.URL}, &fakeSynth{})
	if _, err := alerter.Ping(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
