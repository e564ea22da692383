package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mailtriage/internal/logging"
	"mailtriage/internal/mailsource"
	"mailtriage/internal/notifications"
	"mailtriage/internal/services"
	"mailtriage/internal/triage"
)

// ErrRunInProgress is returned when another run holds the run lock.
var ErrRunInProgress = errors.New("another triage run is in progress")

const defaultMaxResults = 10

// Source fetches messages and relocates spam.
type Source interface {
	Recent(ctx context.Context, n int) ([]mailsource.Message, error)
	MoveToSpam(ctx context.Context, id string) error
	Name() string
}

// Ledger records processed and moved messages.
type Ledger interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID, subject, sender string) error
	MarkMoved(ctx context.Context, messageID string) error
}

// Classifier labels a message.
type Classifier interface {
	Classify(ctx context.Context, in triage.Input) (triage.Classification, error)
}

// Extractor pulls interview details from a job message.
type Extractor interface {
	Extract(ctx context.Context, in triage.Input) (triage.InterviewRecord, error)
}

// Alerter announces an interview.
type Alerter interface {
	Alert(ctx context.Context, record triage.InterviewRecord) (string, error)
}

// Notifier receives run-level operator notifications.
type Notifier interface {
	NotifyRunCompleted(ctx context.Context, stats notifications.RunStats) error
	NotifyError(ctx context.Context, err error, context string) error
}

// Dependencies wires an Orchestrator. Source, Ledger, Classifier and
// Extractor are required. A nil Alerter disables voice alerts; a nil
// Notifier disables operator notifications.
type Dependencies struct {
	Source     Source
	Ledger     Ledger
	Classifier Classifier
	Extractor  Extractor
	Alerter    Alerter
	Notifier   Notifier
	Logger     *slog.Logger
	// MaxResults bounds how many recent messages are fetched per run.
	MaxResults int
	// LockPath is the advisory lock file; empty disables locking.
	LockPath string
	Now      func() time.Time
}

// Orchestrator drives a triage run.
type Orchestrator struct {
	source     Source
	ledger     Ledger
	classifier Classifier
	extractor  Extractor
	alerter    Alerter
	notifier   Notifier
	logger     *slog.Logger
	maxResults int
	lockPath   string
	now        func() time.Time
}

// New validates deps and returns an Orchestrator.
func New(deps Dependencies) (*Orchestrator, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("pipeline: source is required")
	case deps.Ledger == nil:
		return nil, errors.New("pipeline: ledger is required")
	case deps.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	}
	o := &Orchestrator{
		source:     deps.Source,
		ledger:     deps.Ledger,
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		alerter:    deps.Alerter,
		notifier:   deps.Notifier,
		logger:     logging.NewComponentLogger(deps.Logger, "pipeline"),
		maxResults: deps.MaxResults,
		lockPath:   deps.LockPath,
		now:        deps.Now,
	}
	if o.maxResults <= 0 {
		o.maxResults = defaultMaxResults
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Run performs one triage pass. The returned Summary reflects the work done
// up to the point of failure when err is non-nil.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	unlock, err := o.acquireLock()
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	summary := Summary{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, o.logger)
	started := o.now()

	logger.Info("triage run started",
		logging.String("source", o.source.Name()),
		logging.Int("max_results", o.maxResults),
	)

	err = o.run(ctx, &summary)
	summary.Duration = o.now().Sub(started)
	if err != nil {
		logger.Error("triage run failed", logging.Error(err))
		o.notifyError(ctx, logger, err)
		return summary, err
	}

	logger.Info("triage run complete", summary.logArgs()...)
	if o.notifier != nil {
		if nerr := o.notifier.NotifyRunCompleted(context.WithoutCancel(ctx), summary.Stats()); nerr != nil {
			logger.Warn("run summary notification failed", logging.Error(nerr))
		}
	}
	return summary, nil
}

func (o *Orchestrator) run(ctx context.Context, summary *Summary) error {
	messages, err := o.source.Recent(ctx, o.maxResults)
	if err != nil {
		return fmt.Errorf("fetch messages from %s: %w", o.source.Name(), err)
	}
	summary.Fetched = len(messages)

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.process(ctx, msg, summary); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) acquireLock() (func(), error) {
	if o.lockPath == "" {
		return func() {}, nil
	}
	lock := flock.New(o.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("release run lock failed", logging.String("path", o.lockPath), logging.Error(err))
		}
	}, nil
}

func (o *Orchestrator) notifyError(ctx context.Context, logger *slog.Logger, err error) {
	if o.notifier == nil || errors.Is(err, context.Canceled) {
		return
	}
	if nerr := o.notifier.NotifyError(context.WithoutCancel(ctx), err, "triage run"); nerr != nil {
		logger.Warn("error notification failed", logging.Error(nerr))
	}
}
