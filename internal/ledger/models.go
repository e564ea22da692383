package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

// Entry is one processed message.
type Entry struct {
	MessageID   string     `json:"message_id"`
	ProcessedAt time.Time  `json:"processed_timestamp"`
	Subject     string     `json:"email_subject"`
	Sender      string     `json:"email_sender"`
	Moved       bool       `json:"moved_status"`
	MovedAt     *time.Time `json:"move_timestamp,omitempty"`
}

const entryColumns = "message_id, processed_timestamp, email_subject, email_sender, moved_status, move_timestamp"

type entryRow struct {
	MessageID     string         `db:"message_id"`
	ProcessedAt   string         `db:"processed_timestamp"`
	Subject       string         `db:"email_subject"`
	Sender        string         `db:"email_sender"`
	MovedStatus   int            `db:"moved_status"`
	MoveTimestamp sql.NullString `db:"move_timestamp"`
}

func (r entryRow) entry() (Entry, error) {
	processed, err := parseTimestamp(r.ProcessedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %s: processed_timestamp: %w", r.MessageID, err)
	}
	entry := Entry{
		MessageID:   r.MessageID,
		ProcessedAt: processed,
		Subject:     r.Subject,
		Sender:      r.Sender,
		Moved:       r.MovedStatus != 0,
	}
	if r.MoveTimestamp.Valid && r.MoveTimestamp.String != "" {
		moved, err := parseTimestamp(r.MoveTimestamp.String)
		if err != nil {
			return Entry{}, fmt.Errorf("entry %s: move_timestamp: %w", r.MessageID, err)
		}
		entry.MovedAt = &moved
	}
	return entry, nil
}

// timestampLayout is fixed-width so stored text sorts chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
