package pipeline

import (
	"context"
	"fmt"

	"mailtriage/internal/logging"
	"mailtriage/internal/mailsource"
	"mailtriage/internal/services"
	"mailtriage/internal/triage"
)

// Per-message outcomes reported in the "message processed" log line.
const (
	OutcomeSkipped        = "skipped"
	OutcomeSpamMoved      = "spam_moved"
	OutcomeSpamMoveFailed = "spam_move_failed"
	OutcomeAlertSent      = "alert_sent"
	OutcomeAlertFailed    = "alert_failed"
	OutcomeExtractFailed  = "extract_failed"
	OutcomeAlertsDisabled = "alerts_disabled"
	OutcomeNoAction       = "no_action"
	OutcomeUnclassifiable = "unclassifiable"
)

// process handles one message. A returned error halts the run.
func (o *Orchestrator) process(ctx context.Context, msg mailsource.Message, summary *Summary) error {
	ctx = services.WithMessageID(ctx, msg.ID)

	processed, err := o.ledger.IsProcessed(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("check ledger for %s: %w", msg.ID, err)
	}
	if processed {
		summary.Skipped++
		logging.WithContext(ctx, o.logger).Info("message processed",
			logging.Outcome(OutcomeSkipped),
		)
		return nil
	}

	input := triage.Input{Subject: msg.Subject, Body: msg.Body, OCRText: msg.OCRText}
	classification, err := o.classifier.Classify(ctx, input)
	if err != nil {
		return fmt.Errorf("classify %s: %w", msg.ID, err)
	}
	ctx = services.WithLabel(ctx, classification.Label.String())
	logger := logging.WithContext(ctx, o.logger)

	if err := o.ledger.MarkProcessed(ctx, msg.ID, msg.Subject, msg.Sender); err != nil {
		return fmt.Errorf("record %s in ledger: %w", msg.ID, err)
	}

	var outcome string
	switch classification.Label {
	case triage.LabelSpam:
		outcome, err = o.handleSpam(ctx, msg, summary)
		if err != nil {
			return err
		}
	case triage.LabelJob:
		outcome = o.handleJob(ctx, input, summary)
	case triage.LabelPersonal, triage.LabelOther:
		summary.NoAction++
		outcome = OutcomeNoAction
	default:
		summary.Unclassifiable++
		outcome = OutcomeUnclassifiable
		logger.Warn("classifier output not recognized, taking no action",
			logging.Truncated("raw", classification.Raw, 200),
		)
	}

	logger.Info("message processed",
		logging.Outcome(outcome),
		logging.String("subject", msg.Subject),
		logging.String("sender", msg.Sender),
	)
	return nil
}

func (o *Orchestrator) handleSpam(ctx context.Context, msg mailsource.Message, summary *Summary) (string, error) {
	if err := o.source.MoveToSpam(ctx, msg.ID); err != nil {
		summary.SpamMoveFailures++
		logging.WithContext(ctx, o.logger).Error("move to spam failed",
			logging.Outcome(services.FailureOutcome(err)),
			logging.Error(err),
		)
		return OutcomeSpamMoveFailed, nil
	}
	if err := o.ledger.MarkMoved(ctx, msg.ID); err != nil {
		return "", fmt.Errorf("mark %s moved: %w", msg.ID, err)
	}
	summary.SpamMoved++
	return OutcomeSpamMoved, nil
}

func (o *Orchestrator) handleJob(ctx context.Context, input triage.Input, summary *Summary) string {
	logger := logging.WithContext(ctx, o.logger)

	record, err := o.extractor.Extract(ctx, input)
	if err != nil {
		summary.AlertFailures++
		logger.Error("interview extraction failed",
			logging.Outcome(services.FailureOutcome(err)),
			logging.Error(err),
		)
		return OutcomeExtractFailed
	}
	if issues := record.FormatIssues(); len(issues) > 0 {
		logger.Warn("interview details not in expected format", logging.Any("issues", issues))
	}

	if o.alerter == nil {
		summary.NoAction++
		logger.Info("voice alerts disabled, skipping alert")
		return OutcomeAlertsDisabled
	}

	status, err := o.alerter.Alert(ctx, record)
	if err != nil {
		summary.AlertFailures++
		logger.Error("voice alert failed",
			logging.String("status", status),
			logging.Outcome(services.FailureOutcome(err)),
			logging.Error(err),
		)
		return OutcomeAlertFailed
	}
	summary.AlertsSent++
	logger.Info("voice alert sent", logging.String("status", status))
	return OutcomeAlertSent
}
