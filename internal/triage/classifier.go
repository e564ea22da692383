package triage

import (
	"context"
	"fmt"
	"strings"
)

// Completer returns free-text model output for a prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Classification is a parsed label with the model text it came from.
type Classification struct {
	Label Label
	Raw   string
}

// Classifier assigns a Label to a message.
type Classifier struct {
	llm Completer
}

// NewClassifier returns a Classifier backed by llm.
func NewClassifier(llm Completer) *Classifier {
	return &Classifier{llm: llm}
}

// Classify prompts the model once. Transport errors are returned; output that
// names no single category yields LabelUnclassifiable with a nil error.
func (c *Classifier) Classify(ctx context.Context, in Input) (Classification, error) {
	in.Body = strings.TrimSpace(in.Body)
	raw, err := c.llm.Complete(ctx, "", classifierPrompt(in))
	if err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}
	return Classification{Label: ParseLabel(raw), Raw: raw}, nil
}
