package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"mailtriage/internal/services"
	"mailtriage/internal/services/llm"
)

// JSONCompleter returns model output in JSON response mode.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// InterviewRecord holds interview details. Every field may be nil.
type InterviewRecord struct {
	InterviewDate *string `json:"interview_date" validate:"omitempty,datetime=2006-01-02"`
	InterviewTime *string `json:"interview_time" validate:"omitempty,datetime=15:04"`
	RecruiterName *string `json:"recruiter_name"`
	CompanyName   *string `json:"company_name"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FormatIssues lists fields whose values do not match the requested format.
// The record is still usable as-is.
func (r InterviewRecord) FormatIssues() []string {
	err := recordValidator().Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	issues := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, fmt.Sprintf("%s=%v does not match %s", fe.Field(), fe.Value(), fe.Param()))
	}
	return issues
}

func (r *InterviewRecord) normalize() {
	for _, field := range []**string{&r.InterviewDate, &r.InterviewTime, &r.RecruiterName, &r.CompanyName} {
		if *field == nil {
			continue
		}
		trimmed := strings.TrimSpace(**field)
		if trimmed == "" {
			*field = nil
			continue
		}
		*field = &trimmed
	}
}

// Extractor pulls interview details out of a job message.
type Extractor struct {
	llm JSONCompleter
}

// NewExtractor returns an Extractor backed by llm.
func NewExtractor(llm JSONCompleter) *Extractor {
	return &Extractor{llm: llm}
}

// Extract prompts the model once and decodes its JSON reply. Missing fields
// are nil; a reply that is not a JSON object is an error.
func (e *Extractor) Extract(ctx context.Context, in Input) (InterviewRecord, error) {
	raw, err := e.llm.CompleteJSON(ctx, "", extractorPrompt(in))
	if err != nil {
		return InterviewRecord{}, fmt.Errorf("extract: %w", err)
	}
	record, err := DecodeRecord(raw)
	if err != nil {
		return InterviewRecord{}, services.Wrap(services.ErrValidation, "extractor", "decode", "model reply is not an interview record", err)
	}
	return record, nil
}

// DecodeRecord parses a model reply into an InterviewRecord. Values that are
// not JSON strings are kept in their textual form; only a reply without a
// JSON object fails.
func DecodeRecord(raw string) (InterviewRecord, error) {
	fields, err := llm.DecodeObject(raw)
	if err != nil {
		return InterviewRecord{}, err
	}
	record := InterviewRecord{
		InterviewDate: llm.FieldText(fields["interview_date"]),
		InterviewTime: llm.FieldText(fields["interview_time"]),
		RecruiterName: llm.FieldText(fields["recruiter_name"]),
		CompanyName:   llm.FieldText(fields["company_name"]),
	}
	record.normalize()
	return record, nil
}
