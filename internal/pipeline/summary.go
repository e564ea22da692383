package pipeline

import (
	"time"

	"mailtriage/internal/logging"
	"mailtriage/internal/notifications"
)

// Summary counts what a run did.
type Summary struct {
	RunID            string        `json:"run_id"`
	Fetched          int           `json:"fetched"`
	Skipped          int           `json:"skipped"`
	SpamMoved        int           `json:"spam_moved"`
	SpamMoveFailures int           `json:"spam_move_failures"`
	AlertsSent       int           `json:"alerts_sent"`
	AlertFailures    int           `json:"alert_failures"`
	Unclassifiable   int           `json:"unclassifiable"`
	NoAction         int           `json:"no_action"`
	Duration         time.Duration `json:"duration_ns"`
}

// Failures is the number of messages whose follow-up action failed.
func (s Summary) Failures() int {
	return s.SpamMoveFailures + s.AlertFailures
}

// Stats converts the summary for operator notifications.
func (s Summary) Stats() notifications.RunStats {
	return notifications.RunStats{
		Fetched:    s.Fetched,
		Skipped:    s.Skipped,
		SpamMoved:  s.SpamMoved,
		AlertsSent: s.AlertsSent,
		Failures:   s.Failures(),
		Duration:   s.Duration,
	}
}

func (s Summary) logArgs() []any {
	return logging.Args(
		logging.Int("fetched", s.Fetched),
		logging.Int("skipped", s.Skipped),
		logging.Int("spam_moved", s.SpamMoved),
		logging.Int("spam_move_failures", s.SpamMoveFailures),
		logging.Int("alerts_sent", s.AlertsSent),
		logging.Int("alert_failures", s.AlertFailures),
		logging.Int("unclassifiable", s.Unclassifiable),
		logging.Int("no_action", s.NoAction),
		logging.Duration("duration", s.Duration),
	)
}
