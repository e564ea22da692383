package mailsource

import (
	"context"
	"strings"
)

// UnknownSender is reported when a message has no From header.
const UnknownSender = "unknown"

// Message is a fetched inbox message reduced to the text fields triage uses.
type Message struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Body    string `json:"body"`
	OCRText string `json:"ocr_text"`
}

// Source fetches candidate messages and relocates spam.
type Source interface {
	// Recent returns up to n of the newest inbox messages.
	Recent(ctx context.Context, n int) ([]Message, error)
	// MoveToSpam relocates the message with the given id out of the inbox.
	MoveToSpam(ctx context.Context, id string) error
	Name() string
}

// content collects decoded parts in document order before assembly.
type content struct {
	texts  []string
	images [][]byte
}

func (c *content) addPlain(text string) {
	if text != "" {
		c.texts = append(c.texts, text)
	}
}

func (c *content) addHTML(markup string) {
	if text := HTMLToText(markup); text != "" {
		c.texts = append(c.texts, text)
	}
}

func (c *content) addImage(data []byte) {
	if len(data) > 0 {
		c.images = append(c.images, data)
	}
}

func (c *content) addPart(mimeType string, data []byte) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case mimeType == "text/plain":
		c.addPlain(string(data))
	case mimeType == "text/html":
		c.addHTML(string(data))
	case strings.HasPrefix(mimeType, "image/"):
		c.addImage(data)
	}
}
