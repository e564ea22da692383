package alert

import (
	"fmt"
	"strings"

	"mailtriage/internal/triage"
)

// Placeholders spoken when a record field is missing.
const (
	PlaceholderRecruiter = "Recruiter"
	PlaceholderCompany   = "Company"
	PlaceholderDate      = "unknown date"
	PlaceholderTime      = "unknown time"
)

// Render produces the alert sentence for record.
func Render(record triage.InterviewRecord) string {
	return fmt.Sprintf("Hello! You have an interview scheduled with %s from %s on %s at %s.",
		valueOr(record.RecruiterName, PlaceholderRecruiter),
		valueOr(record.CompanyName, PlaceholderCompany),
		valueOr(record.InterviewDate, PlaceholderDate),
		valueOr(record.InterviewTime, PlaceholderTime),
	)
}

func valueOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return strings.TrimSpace(*value)
}
