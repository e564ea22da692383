// Package secrets stores and retrieves mailtriage credentials in the operating
// system keyring so tokens never have to live in the config file.
package secrets

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups mailtriage's entries in the OS keychain.
const KeyringService = "mailtriage"

// Known secret names. Each maps to a config field that falls back to the
// keyring when neither the file nor the environment provides a value.
const (
	LLMAPIKey        = "llm_api_key"
	TelegramBotToken = "telegram_bot_token"
	TelegramChatID   = "telegram_chat_id"
	IMAPPassword     = "imap_password"
	LedgerDSN        = "ledger_dsn"
)

// ErrUnknownSecret is returned for names outside the supported set.
var ErrUnknownSecret = errors.New("unknown secret name")

// Names lists every secret name accepted by Set and Delete.
func Names() []string {
	return []string{LLMAPIKey, TelegramBotToken, TelegramChatID, IMAPPassword, LedgerDSN}
}

// Lookup returns the stored value for name. A missing entry or an unavailable
// keyring backend yields ok=false rather than an error.
func Lookup(name string) (string, bool) {
	value, err := keyring.Get(KeyringService, name)
	if err != nil {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// Set stores value under name.
func Set(name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	if err := keyring.Set(KeyringService, name, value); err != nil {
		return fmt.Errorf("store %s in keyring: %w", name, err)
	}
	return nil
}

// Delete removes the entry for name.
func Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := keyring.Delete(KeyringService, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete %s from keyring: %w", name, err)
	}
	return nil
}

func validateName(name string) error {
	if !slices.Contains(Names(), name) {
		return fmt.Errorf("%w %q (expected one of %s)", ErrUnknownSecret, name, strings.Join(Names(), ", "))
	}
	return nil
}
