package mailsource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// maxPartBytes caps how much of a single MIME part is read into memory.
const maxPartBytes = 10 << 20

// parsedMessage is a raw RFC 5322 message decoded into its triage-relevant parts.
type parsedMessage struct {
	subject string
	sender  string
	parts   content
}

// parseMIME decodes raw message bytes, walking nested multiparts in order.
func parseMIME(raw []byte) (parsedMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return parsedMessage{}, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	var parsed parsedMessage
	parsed.subject, _ = mr.Header.Subject()
	if from, err := mr.Header.Text("From"); err == nil {
		parsed.sender = from
	} else {
		parsed.sender = mr.Header.Get("From")
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return parsed, fmt.Errorf("read message part: %w", err)
		}
		if part == nil {
			continue
		}

		var mimeType string
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			mimeType, _, _ = h.ContentType()
		case *mail.AttachmentHeader:
			mimeType, _, _ = h.ContentType()
			if !strings.HasPrefix(strings.ToLower(mimeType), "image/") {
				continue
			}
		}
		data, err := io.ReadAll(io.LimitReader(part.Body, maxPartBytes))
		if err != nil {
			return parsed, fmt.Errorf("read %s part: %w", mimeType, err)
		}
		parsed.parts.addPart(mimeType, data)
	}
	return parsed, nil
}
