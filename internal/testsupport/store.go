package testsupport

import (
	"context"
	"testing"

	"mailtriage/internal/config"
	"mailtriage/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config, opts ...ledger.Option) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MarkProcessed records an entry for tests.
func MarkProcessed(t testing.TB, store *ledger.Store, messageID, subject, sender string) {
	t.Helper()

	if err := store.MarkProcessed(context.Background(), messageID, subject, sender); err != nil {
		t.Fatalf("store.MarkProcessed: %v", err)
	}
}
