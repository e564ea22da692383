package secrets_test

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"mailtriage/internal/secrets"
)

func TestSetLookupDelete(t *testing.T) {
	keyring.MockInit()

	if _, ok := secrets.Lookup(secrets.TelegramBotToken); ok {
		t.Fatal("expected no value before Set")
	}
	if err := secrets.Set(secrets.TelegramBotToken, "123:abc"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok := secrets.Lookup(secrets.TelegramBotToken)
	if !ok || value != "123:abc" {
		t.Fatalf("Lookup = %q, %v", value, ok)
	}
	if err := secrets.Delete(secrets.TelegramBotToken); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := secrets.Lookup(secrets.TelegramBotToken); ok {
		t.Fatal("expected value to be removed")
	}
	if err := secrets.Delete(secrets.TelegramBotToken); err != nil {
		t.Fatalf("Delete of missing entry should be a no-op, got %v", err)
	}
}

func TestRejectsUnknownNames(t *testing.T) {
	keyring.MockInit()

	err := secrets.Set("tmdb_api_key", "x")
	if !errors.Is(err, secrets.ErrUnknownSecret) {
		t.Fatalf("expected ErrUnknownSecret, got %v", err)
	}
	if err := secrets.Set(secrets.LLMAPIKey, "  "); err == nil {
		t.Fatal("expected error for blank value")
	}
}
