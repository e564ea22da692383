package mailsource

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"mailtriage/internal/logging"
	"mailtriage/internal/services"
)

const (
	gmailUser       = "me"
	gmailInbox      = "INBOX"
	gmailSpam       = "SPAM"
	maxPartDepth    = 32
	defaultBreakerN = 5
)

// GmailOptions tunes the Gmail source.
type GmailOptions struct {
	BreakerFailures int
	BreakerTimeout  time.Duration
	Logger          *slog.Logger
}

// Gmail reads the inbox through the Gmail REST API.
type Gmail struct {
	svc       *gmail.Service
	assembler *Assembler
	cb        *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// NewGmail wraps an authorized Gmail service.
func NewGmail(svc *gmail.Service, assembler *Assembler, opts GmailOptions) *Gmail {
	logger := logging.NewComponentLogger(opts.Logger, "gmail")
	failures := opts.BreakerFailures
	if failures <= 0 {
		failures = defaultBreakerN
	}
	timeout := opts.BreakerTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	settings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			var ce *clientError
			return err == nil || errors.As(err, &ce)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	}
	return &Gmail{
		svc:       svc,
		assembler: assembler,
		cb:        gobreaker.NewCircuitBreaker(settings),
		logger:    logger,
	}
}

// Name implements Source.
func (g *Gmail) Name() string { return "gmail" }

// Recent implements Source. Messages come back newest first.
func (g *Gmail) Recent(ctx context.Context, n int) ([]Message, error) {
	if n <= 0 {
		return nil, nil
	}
	var list *gmail.ListMessagesResponse
	err := g.execute("list", func() error {
		var apiErr error
		list, apiErr = g.svc.Users.Messages.List(gmailUser).
			LabelIds(gmailInbox).
			MaxResults(int64(n)).
			Context(ctx).
			Do()
		return apiErr
	})
	if err != nil {
		return nil, wrapGmailError("list messages", err)
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if ref == nil || ref.Id == "" {
			continue
		}
		msg, err := g.fetch(ctx, ref.Id)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (g *Gmail) fetch(ctx context.Context, id string) (Message, error) {
	var full *gmail.Message
	err := g.execute("get", func() error {
		var apiErr error
		full, apiErr = g.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return Message{}, wrapGmailError("get message "+id, err)
	}

	var parts content
	walkPayload(full.Payload, &parts, func(attachmentID string) ([]byte, error) {
		return g.attachment(ctx, id, attachmentID)
	}, g.logger, 0)

	subject := headerValue(full.Payload, "Subject")
	sender := headerValue(full.Payload, "From")
	return g.assembler.assemble(ctx, id, subject, sender, parts), nil
}

func (g *Gmail) attachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	var body *gmail.MessagePartBody
	err := g.execute("attachment", func() error {
		var apiErr error
		body, apiErr = g.svc.Users.Messages.Attachments.Get(gmailUser, messageID, attachmentID).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	return decodeBase64URL(body.Data)
}

// MoveToSpam implements Source by relabelling the message SPAM and removing INBOX.
func (g *Gmail) MoveToSpam(ctx context.Context, id string) error {
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    []string{gmailSpam},
		RemoveLabelIds: []string{gmailInbox},
	}
	err := g.execute("modify", func() error {
		_, apiErr := g.svc.Users.Messages.Modify(gmailUser, id, req).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return wrapGmailError("move "+id+" to spam", err)
	}
	return nil
}

type attachmentFetcher func(attachmentID string) ([]byte, error)

// walkPayload collects text and image parts depth-first in document order.
func walkPayload(part *gmail.MessagePart, out *content, fetch attachmentFetcher, logger *slog.Logger, depth int) {
	if part == nil || depth > maxPartDepth {
		return
	}
	mimeType := strings.ToLower(part.MimeType)
	if !strings.HasPrefix(mimeType, "multipart/") && part.Body != nil {
		data, err := partData(part.Body, mimeType, fetch)
		if err != nil {
			logger.Warn("decode message part failed",
				logging.String("mime_type", part.MimeType),
				logging.Error(err),
			)
		} else {
			out.addPart(mimeType, data)
		}
	}
	for _, child := range part.Parts {
		walkPayload(child, out, fetch, logger, depth+1)
	}
}

func partData(body *gmail.MessagePartBody, mimeType string, fetch attachmentFetcher) ([]byte, error) {
	if body.Data != "" {
		return decodeBase64URL(body.Data)
	}
	if body.AttachmentId != "" && strings.HasPrefix(mimeType, "image/") && fetch != nil {
		return fetch(body.AttachmentId)
	}
	return nil, nil
}

func decodeBase64URL(data string) ([]byte, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}
	decoded, rawErr := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if rawErr != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}
	return decoded, nil
}

func headerValue(part *gmail.MessagePart, name string) string {
	if part == nil {
		return ""
	}
	for _, header := range part.Headers {
		if header != nil && strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// clientError keeps 4xx responses from counting against the breaker.
type clientError struct {
	err error
}

func (e *clientError) Error() string { return e.err.Error() }

func (g *Gmail) execute(operation string, fn func() error) error {
	_, err := g.cb.Execute(func() (any, error) {
		if err := fn(); err != nil {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
				return nil, &clientError{err: err}
			}
			return nil, err
		}
		return nil, nil
	})
	var ce *clientError
	if errors.As(err, &ce) {
		return ce.err
	}
	if err != nil {
		g.logger.Debug("gmail call failed",
			logging.String("operation", operation),
			logging.String("breaker_state", g.cb.State().String()),
			logging.Error(err),
		)
	}
	return err
}

func wrapGmailError(operation string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "gmail", operation, "authorization rejected; run 'mailtriage auth gmail'", err)
		case http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "gmail", operation, "", err)
		}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return services.Wrap(services.ErrTransient, "gmail", operation, "circuit open", err)
	}
	return services.Wrap(services.ErrTransient, "gmail", operation, "", err)
}
