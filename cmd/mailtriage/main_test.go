package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/zalando/go-keyring"

	"mailtriage/internal/config"
	"mailtriage/internal/ledger"
	"mailtriage/internal/secrets"
	"mailtriage/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func isolateCLIEnv(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"MAILTRIAGE_CONFIG", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "LLM_API_KEY",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "IMAP_PASSWORD", "LEDGER_DSN",
	} {
		t.Setenv(name, "")
	}
	t.Chdir(home)
	return home
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	isolateCLIEnv(t)

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	testsupport.WriteFile(t, path, encoded)
}

func runCLI(t *testing.T, args []string, configPath string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func seedLedger(t *testing.T, cfg *config.Config) {
	t.Helper()
	store := testsupport.MustOpenLedger(t, cfg)
	testsupport.MarkProcessed(t, store, "msg-1", "Weekly digest", "news@example.com")
	testsupport.MarkProcessed(t, store, "msg-2", "Cheap pills", "spam@example.com")
	if err := store.MarkMoved(context.Background(), "msg-2"); err != nil {
		t.Fatalf("MarkMoved: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close ledger: %v", err)
	}
}

func TestLedgerUnmovedPrintsTSVWhenPiped(t *testing.T) {
	env := setupCLITestEnv(t)
	seedLedger(t, env.cfg)

	out, _, err := runCLI(t, []string{"ledger", "unmoved"}, env.configPath, "")
	if err != nil {
		t.Fatalf("ledger unmoved: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out)
	}
	if lines[0] != "Message ID\tProcessed\tSender\tSubject" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "msg-1\t") || !strings.HasSuffix(lines[1], "\tnews@example.com\tWeekly digest") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestLedgerUnmovedJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	seedLedger(t, env.cfg)

	out, _, err := runCLI(t, []string{"ledger", "unmoved", "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("ledger unmoved --json: %v", err)
	}
	var entries []ledger.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].MessageID != "msg-1" || entries[0].Moved {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLedgerUnmovedEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"ledger", "unmoved"}, env.configPath, "")
	if err != nil {
		t.Fatalf("ledger unmoved: %v", err)
	}
	if !strings.Contains(out, "No unmoved messages") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLedgerShow(t *testing.T) {
	env := setupCLITestEnv(t)
	seedLedger(t, env.cfg)

	out, _, err := runCLI(t, []string{"ledger", "show", "msg-2"}, env.configPath, "")
	if err != nil {
		t.Fatalf("ledger show: %v", err)
	}
	if !strings.Contains(out, "Moved\tyes") || !strings.Contains(out, "Subject\tCheap pills") {
		t.Fatalf("unexpected show output %q", out)
	}

	_, _, err = runCLI(t, []string{"ledger", "show", "missing"}, env.configPath, "")
	if err == nil || !strings.Contains(err.Error(), "has not been processed") {
		t.Fatalf("expected not-processed error, got %v", err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	home := isolateCLIEnv(t)
	target := filepath.Join(home, "cfg", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate", "--run"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, env.configPath) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigValidateRunRequiresCredentials(t *testing.T) {
	isolateCLIEnv(t)
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey(""))
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, cfg)

	_, _, err := runCLI(t, []string{"config", "validate", "--run"}, path, "")
	if err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "123:test") {
		t.Fatalf("bot token leaked in output:\n%s", out)
	}
	if !strings.Contains(out, redacted) {
		t.Fatalf("expected redaction marker in output:\n%s", out)
	}
	if !strings.Contains(out, env.cfg.Paths.StateDir) {
		t.Fatalf("expected state dir in output:\n%s", out)
	}
}

func TestSecretsSetAndDelete(t *testing.T) {
	isolateCLIEnv(t)

	out, _, err := runCLI(t, []string{"secrets", "set", secrets.TelegramChatID}, "", "987654\n")
	if err != nil {
		t.Fatalf("secrets set: %v", err)
	}
	if !strings.Contains(out, "Stored telegram_chat_id") {
		t.Fatalf("unexpected output %q", out)
	}
	if value, ok := secrets.Lookup(secrets.TelegramChatID); !ok || value != "987654" {
		t.Fatalf("keyring value = %q, %v", value, ok)
	}

	if _, _, err := runCLI(t, []string{"secrets", "delete", secrets.TelegramChatID}, "", ""); err != nil {
		t.Fatalf("secrets delete: %v", err)
	}
	if _, ok := secrets.Lookup(secrets.TelegramChatID); ok {
		t.Fatal("secret still present after delete")
	}

	if _, _, err := runCLI(t, []string{"secrets", "set", "bogus"}, "", "x\n"); err == nil {
		t.Fatal("expected error for unknown secret name")
	}
	if _, _, err := runCLI(t, []string{"secrets", "set", secrets.LLMAPIKey}, "", ""); err == nil {
		t.Fatal("expected error for empty stdin")
	}
}

func TestDoctorReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Alert.Enabled = false
	env.cfg.LLM.APIKey = ""
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath, "")
	if err == nil || !strings.Contains(err.Error(), "checks failed") {
		t.Fatalf("expected failing checks, got %v", err)
	}
	for _, want := range []string{"State directory\tok", "Gmail\tFAIL", "API key missing"} {
		if !strings.Contains(out, want) {
			t.Fatalf("doctor output missing %q:\n%s", want, out)
		}
	}
}

func TestDotEnvPopulatesSecrets(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Alert.TelegramBotToken = ""
	writeTestConfig(t, env.configPath, env.cfg)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	dotenv := filepath.Join(env.baseDir, "test.env")
	testsupport.WriteFile(t, dotenv, []byte("TELEGRAM_BOT_TOKEN=from-dotenv\n"))

	out, _, err := runCLI(t, []string{"--env-file", dotenv, "config", "validate", "--run"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate with dotenv: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMissingEnvFileIsIgnored(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"--env-file", filepath.Join(env.baseDir, "absent.env"), "ledger", "unmoved"}, env.configPath, ""); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}
