package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"mailtriage/internal/config"
)

// ErrEntryNotFound is returned when an operation targets a message the ledger has never seen.
var ErrEntryNotFound = errors.New("ledger entry not found")

// ErrClosed is returned by operations on a Store after Close.
var ErrClosed = errors.New("ledger is closed")

// Store manages processed-email persistence.
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for processed and move timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the ledger configured in cfg, creating directories and the
// schema as needed.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("ledger open: config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenDSN(ctx, cfg.Ledger.Driver, cfg.Ledger.DSN, opts...)
}

// OpenDSN connects to a ledger using an explicit driver ("sqlite" or "postgres") and DSN.
func OpenDSN(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	sqlDriver, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", driver, err)
	}

	if sqlDriver == "sqlite" {
		// One connection keeps ":memory:" databases coherent and serializes writers.
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
	} else if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s ledger: %w", driver, err)
	}

	store := &Store{db: db, driver: driver, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func driverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", config.LedgerDriverSQLite:
		return "sqlite", nil
	case config.LedgerDriverPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("ledger open: unsupported driver %q", driver)
	}
}

// Driver reports the configured backend name.
func (s *Store) Driver() string {
	return s.driver
}

// Close releases the database handle. It is safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle(op string) (*sqlx.DB, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrClosed)
	}
	return s.db, nil
}

// IsProcessed reports whether an entry exists for messageID.
func (s *Store) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	db, err := s.handle("check processed")
	if err != nil {
		return false, err
	}
	var count int
	err = db.GetContext(ctx, &count,
		db.Rebind("SELECT COUNT(1) FROM processed_emails WHERE message_id = ?"),
		messageID,
	)
	if err != nil {
		return false, fmt.Errorf("check processed %s: %w", messageID, err)
	}
	return count > 0, nil
}

// MarkProcessed records messageID with a snapshot of its subject and sender.
// An existing entry is left untouched: the first snapshot wins.
func (s *Store) MarkProcessed(ctx context.Context, messageID, subject, sender string) error {
	db, err := s.handle("mark processed")
	if err != nil {
		return err
	}
	if strings.TrimSpace(messageID) == "" {
		return errors.New("mark processed: message id is required")
	}
	_, err = db.ExecContext(ctx,
		db.Rebind(`INSERT INTO processed_emails (
            message_id, processed_timestamp, email_subject, email_sender, moved_status
        ) VALUES (?, ?, ?, ?, 0)
        ON CONFLICT (message_id) DO NOTHING`),
		messageID,
		formatTimestamp(s.now()),
		subject,
		sender,
	)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", messageID, err)
	}
	return nil
}

// MarkMoved flags messageID as moved to spam and stamps the move time. Calling
// it again re-stamps the timestamp; the moved flag never reverts.
func (s *Store) MarkMoved(ctx context.Context, messageID string) error {
	db, err := s.handle("mark moved")
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		db.Rebind("UPDATE processed_emails SET moved_status = 1, move_timestamp = ? WHERE message_id = ?"),
		formatTimestamp(s.now()),
		messageID,
	)
	if err != nil {
		return fmt.Errorf("mark moved %s: %w", messageID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark moved %s: rows affected: %w", messageID, err)
	}
	if affected == 0 {
		return fmt.Errorf("mark moved %s: %w", messageID, ErrEntryNotFound)
	}
	return nil
}

// ListUnmoved returns entries that were processed but never moved, oldest first.
func (s *Store) ListUnmoved(ctx context.Context) ([]Entry, error) {
	db, err := s.handle("list unmoved")
	if err != nil {
		return nil, err
	}
	var rows []entryRow
	err = db.SelectContext(ctx, &rows,
		"SELECT "+entryColumns+" FROM processed_emails WHERE moved_status = 0 ORDER BY processed_timestamp, message_id",
	)
	if err != nil {
		return nil, fmt.Errorf("list unmoved: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Get returns the entry for messageID or ErrEntryNotFound.
func (s *Store) Get(ctx context.Context, messageID string) (*Entry, error) {
	db, err := s.handle("get")
	if err != nil {
		return nil, err
	}
	var row entryRow
	err = db.GetContext(ctx, &row,
		db.Rebind("SELECT "+entryColumns+" FROM processed_emails WHERE message_id = ?"),
		messageID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", messageID, ErrEntryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", messageID, err)
	}
	entry, err := row.entry()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Counts summarizes the ledger for status output.
type Counts struct {
	Processed int `db:"processed" json:"processed"`
	Moved     int `db:"moved" json:"moved"`
}

// Count returns the total and moved entry counts.
func (s *Store) Count(ctx context.Context) (Counts, error) {
	db, err := s.handle("count entries")
	if err != nil {
		return Counts{}, err
	}
	var counts Counts
	err = db.GetContext(ctx, &counts,
		"SELECT COUNT(1) AS processed, COALESCE(SUM(moved_status), 0) AS moved FROM processed_emails",
	)
	if err != nil {
		return Counts{}, fmt.Errorf("count entries: %w", err)
	}
	return counts, nil
}
