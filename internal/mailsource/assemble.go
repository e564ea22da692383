package mailsource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mailtriage/internal/logging"
)

// Limits bounds the text handed to the classifier, in runes.
type Limits struct {
	Subject int
	Body    int
	OCR     int
}

// Assembler turns decoded message parts into a Message.
type Assembler struct {
	limits Limits
	ocr    OCR
	logger *slog.Logger
}

// NewAssembler builds an Assembler. A nil ocr skips image parts.
func NewAssembler(limits Limits, ocr OCR, logger *slog.Logger) *Assembler {
	return &Assembler{
		limits: limits,
		ocr:    ocr,
		logger: logging.NewComponentLogger(logger, "mailsource"),
	}
}

func (a *Assembler) assemble(ctx context.Context, id, subject, sender string, parts content) Message {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		sender = UnknownSender
	}
	body := strings.Join(parts.texts, "\n")
	msg := Message{
		ID:      id,
		Subject: Truncate(subject, a.limits.Subject),
		Sender:  sender,
		Body:    strings.TrimSpace(Truncate(body, a.limits.Body)),
	}
	if texts := a.recognize(ctx, id, parts.images); len(texts) > 0 {
		msg.OCRText = Truncate(strings.Join(texts, " "), a.limits.OCR)
	}
	return msg
}

func (a *Assembler) recognize(ctx context.Context, id string, images [][]byte) []string {
	if a.ocr == nil || len(images) == 0 {
		return nil
	}
	texts := make([]string, 0, len(images))
	for _, image := range images {
		text, err := a.ocr.Recognize(ctx, image)
		if err != nil {
			a.logger.Warn("image ocr failed",
				logging.MessageID(id),
				logging.Error(err),
			)
			texts = append(texts, fmt.Sprintf("[OCR error: %v]", err))
			continue
		}
		texts = append(texts, text)
	}
	return texts
}
