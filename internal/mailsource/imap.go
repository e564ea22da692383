package mailsource

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"mailtriage/internal/logging"
	"mailtriage/internal/services"
)

const imapInbox = "INBOX"

// ErrUIDValidityChanged means the mailbox was rebuilt since the id was issued.
var ErrUIDValidityChanged = errors.New("imap uid validity changed")

// IMAPOptions configures the IMAP source.
type IMAPOptions struct {
	Address     string
	Username    string
	Password    string
	SpamMailbox string
	TLSConfig   *tls.Config
	Logger      *slog.Logger
}

// IMAP reads INBOX over IMAPS and moves spam with UID MOVE.
type IMAP struct {
	opts      IMAPOptions
	assembler *Assembler
	logger    *slog.Logger
}

// NewIMAP returns an IMAP source. Each operation opens its own session.
func NewIMAP(opts IMAPOptions, assembler *Assembler) *IMAP {
	if opts.TLSConfig == nil {
		host := opts.Address
		if idx := strings.LastIndex(host, ":"); idx > 0 {
			host = host[:idx]
		}
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}
	return &IMAP{
		opts:      opts,
		assembler: assembler,
		logger:    logging.NewComponentLogger(opts.Logger, "imap"),
	}
}

// Name implements Source.
func (m *IMAP) Name() string { return "imap" }

// Ping logs in and selects INBOX without fetching anything.
func (m *IMAP) Ping(ctx context.Context) error {
	return m.withInbox(ctx, func(*imapclient.Client, *imap.SelectData) error { return nil })
}

// Recent implements Source. It fetches the last n messages by sequence number,
// newest first, using BODY.PEEK[] so nothing is marked seen.
func (m *IMAP) Recent(ctx context.Context, n int) ([]Message, error) {
	if n <= 0 {
		return nil, nil
	}
	var messages []Message
	err := m.withInbox(ctx, func(c *imapclient.Client, sel *imap.SelectData) error {
		if sel.NumMessages == 0 {
			return nil
		}
		first := uint32(1)
		if sel.NumMessages > uint32(n) {
			first = sel.NumMessages - uint32(n) + 1
		}
		seqNums := make([]uint32, 0, n)
		for seq := first; seq <= sel.NumMessages; seq++ {
			seqNums = append(seqNums, seq)
		}

		section := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
		fetchCmd := c.Fetch(imap.SeqSetNum(seqNums...), &imap.FetchOptions{
			UID:         true,
			Envelope:    true,
			BodySection: []*imap.FetchItemBodySection{section},
		})
		defer func() { _ = fetchCmd.Close() }()

		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			data := fetchCmd.Next()
			if data == nil {
				break
			}
			buf, err := data.Collect()
			if err != nil {
				return fmt.Errorf("imap fetch collect: %w", err)
			}
			messages = append(messages, m.convert(ctx, sel.UIDValidity, buf, section))
		}
		if err := fetchCmd.Close(); err != nil {
			return fmt.Errorf("imap fetch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

func (m *IMAP) convert(ctx context.Context, validity uint32, buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) Message {
	id := formatIMAPID(validity, buf.UID)
	var subject, sender string
	if buf.Envelope != nil {
		subject = buf.Envelope.Subject
		if len(buf.Envelope.From) > 0 {
			sender = formatAddress(buf.Envelope.From[0])
		}
	}

	var parts content
	if raw := buf.FindBodySection(section); len(raw) > 0 {
		parsed, err := parseMIME(raw)
		if err != nil {
			m.logger.Warn("mime parse failed",
				logging.MessageID(id),
				logging.Error(err),
			)
		}
		parts = parsed.parts
		if subject == "" {
			subject = parsed.subject
		}
		if sender == "" {
			sender = parsed.sender
		}
	}
	return m.assembler.assemble(ctx, id, subject, sender, parts)
}

// MoveToSpam implements Source.
func (m *IMAP) MoveToSpam(ctx context.Context, id string) error {
	validity, uid, err := parseIMAPID(id)
	if err != nil {
		return err
	}
	return m.withInbox(ctx, func(c *imapclient.Client, sel *imap.SelectData) error {
		if sel.UIDValidity != validity {
			return fmt.Errorf("move %s: %w (now %d)", id, ErrUIDValidityChanged, sel.UIDValidity)
		}
		if _, err := c.Move(imap.UIDSetNum(uid), m.opts.SpamMailbox).Wait(); err != nil {
			return services.Wrap(services.ErrTransient, "imap", "move", m.opts.SpamMailbox, err)
		}
		return nil
	})
}

func (m *IMAP) withInbox(ctx context.Context, fn func(*imapclient.Client, *imap.SelectData) error) error {
	if m.opts.Address == "" {
		return services.Wrap(services.ErrConfiguration, "imap", "dial", "address is required", nil)
	}
	if m.opts.Username == "" || m.opts.Password == "" {
		return services.Wrap(services.ErrConfiguration, "imap", "login", "username and password are required", nil)
	}

	c, err := imapclient.DialTLS(m.opts.Address, &imapclient.Options{TLSConfig: m.opts.TLSConfig})
	if err != nil {
		return services.Wrap(services.ErrTransient, "imap", "dial", m.opts.Address, err)
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()
	defer func() {
		if err := c.Logout().Wait(); err != nil {
			m.logger.Debug("imap logout failed", logging.Error(err))
		}
		_ = c.Close()
	}()

	if err := c.Login(m.opts.Username, m.opts.Password).Wait(); err != nil {
		return services.Wrap(services.ErrConfiguration, "imap", "login", "", err)
	}
	sel, err := c.Select(imapInbox, nil).Wait()
	if err != nil {
		return services.Wrap(services.ErrTransient, "imap", "select", imapInbox, err)
	}
	return fn(c, sel)
}

func formatIMAPID(validity uint32, uid imap.UID) string {
	return fmt.Sprintf("%d:%d", validity, uid)
}

func parseIMAPID(id string) (uint32, imap.UID, error) {
	validityText, uidText, ok := strings.Cut(id, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid imap message id %q", id)
	}
	validity, err := strconv.ParseUint(validityText, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid imap message id %q: %w", id, err)
	}
	uid, err := strconv.ParseUint(uidText, 10, 32)
	if err != nil || uid == 0 {
		return 0, 0, fmt.Errorf("invalid imap message id %q", id)
	}
	return uint32(validity), imap.UID(uid), nil
}

func formatAddress(addr imap.Address) string {
	email := addr.Addr()
	name := strings.TrimSpace(addr.Name)
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case email != "":
		return email
	default:
		return name
	}
}
