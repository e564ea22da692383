package triagerun_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mailtriage/internal/config"
	"mailtriage/internal/ledger"
	"mailtriage/internal/mailsource"
	"mailtriage/internal/testsupport"
	"mailtriage/internal/triage"
	"mailtriage/internal/triagerun"
)

type stubSource struct {
	messages []mailsource.Message
	moved    []string
}

func (s *stubSource) Recent(context.Context, int) ([]mailsource.Message, error) {
	return s.messages, nil
}

func (s *stubSource) MoveToSpam(_ context.Context, id string) error {
	s.moved = append(s.moved, id)
	return nil
}

func (s *stubSource) Name() string { return "stub" }

type recordingAlerter struct {
	records []triage.InterviewRecord
}

func (r *recordingAlerter) Alert(_ context.Context, record triage.InterviewRecord) (string, error) {
	r.records = append(r.records, record)
	return "Voice alert sent successfully.", nil
}

// newModelServer answers classification prompts by subject and extraction
// prompts with a fixed record.
func newModelServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		prompt := string(body)
		var content string
		switch {
		case strings.Contains(prompt, "json_object"):
			content = `{\"interview_date\":\"2024-05-02\",\"interview_time\":\"14:30\",\"recruiter_name\":\"Dana\",\"company_name\":\"Acme\"}`
		case strings.Contains(prompt, "Cheap pills"):
			content = "SPAM"
		case strings.Contains(prompt, "Interview"):
			content = "JOB"
		default:
			content = "OTHER"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"`+content+`"},"finish_reason":"stop"}]}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunTriagesAgainstConfiguredCollaborators(t *testing.T) {
	server := newModelServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.LLM.Provider = config.LLMProviderOpenRouter
	cfg.LLM.BaseURL = server.URL + "/chat/completions"

	source := &stubSource{messages: []mailsource.Message{
		{ID: "s1", Subject: "Cheap pills", Sender: "spam@example.com"},
		{ID: "j1", Subject: "Interview with Acme", Sender: "dana@acme.test"},
		{ID: "o1", Subject: "Newsletter", Sender: "news@example.com"},
	}}
	alerter := &recordingAlerter{}

	summary, err := triagerun.Run(context.Background(), cfg, nil, triagerun.Options{Source: source, Alerter: alerter})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Fetched != 3 || summary.SpamMoved != 1 || summary.AlertsSent != 1 || summary.NoAction != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(source.moved) != 1 || source.moved[0] != "s1" {
		t.Fatalf("moved = %v", source.moved)
	}
	if len(alerter.records) != 1 || alerter.records[0].CompanyName == nil || *alerter.records[0].CompanyName != "Acme" {
		t.Fatalf("alerts = %+v", alerter.records)
	}

	store, err := ledger.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	defer store.Close()
	counts, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if counts.Processed != 3 || counts.Moved != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestRunRequiresLLMKey(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey(""))
	_, err := triagerun.Run(context.Background(), cfg, nil, triagerun.Options{Source: &stubSource{}})
	if err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestNewAlerterUsesStateTempDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := triagerun.NewAlerter(cfg, nil); err != nil {
		t.Fatalf("NewAlerter: %v", err)
	}
}

func TestNewSourceRejectsUnknownProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Mail.Provider = "pop3"
	if _, err := triagerun.NewSource(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
