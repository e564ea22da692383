package mailsource

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mailtriage/internal/logging"
)

type fakeOCR struct {
	results []string
	errs    []error
	calls   int
}

func (f *fakeOCR) Recognize(context.Context, []byte) (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return "", nil
}

func TestAssembleMergesAndTruncates(t *testing.T) {
	ocr := &fakeOCR{results: []string{"first", ""}, errs: []error{nil, errors.New("bad image")}}
	asm := NewAssembler(Limits{Subject: 5, Body: 12, OCR: 100}, ocr, logging.NewNop())

	var parts content
	parts.addPlain("plain text ")
	parts.addHTML("<p>html text</p>")
	parts.addImage([]byte{1})
	parts.addImage([]byte{2})

	msg := asm.assemble(context.Background(), "id-1", "Interview call", "", parts)
	if msg.Subject != "Inter..." {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if msg.Sender != UnknownSender {
		t.Fatalf("sender = %q, want %q", msg.Sender, UnknownSender)
	}
	if msg.Body != "plain text \n..." {
		t.Fatalf("body = %q", msg.Body)
	}
	if !strings.HasPrefix(msg.OCRText, "first [OCR error: bad image]") {
		t.Fatalf("ocr text = %q", msg.OCRText)
	}
	if ocr.calls != 2 {
		t.Fatalf("expected 2 OCR calls, got %d", ocr.calls)
	}
}

func TestAssembleWithoutOCR(t *testing.T) {
	asm := NewAssembler(Limits{Subject: 200, Body: 1000, OCR: 500}, nil, nil)
	var parts content
	parts.addImage([]byte{1, 2, 3})

	msg := asm.assemble(context.Background(), "id-2", "", "boss@example.com", parts)
	if msg.OCRText != "" || msg.Body != "" || msg.Subject != "" {
		t.Fatalf("expected empty text fields, got %#v", msg)
	}
	if msg.Sender != "boss@example.com" {
		t.Fatalf("sender = %q", msg.Sender)
	}
}
