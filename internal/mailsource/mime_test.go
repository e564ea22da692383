package mailsource

import (
	"strings"
	"testing"
)

const multipartFixture = "From: Jane Recruiter <jane@acme.com>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: =?utf-8?q?Interview_invitation?=\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=outer\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: multipart/alternative; boundary=inner\r\n" +
	"\r\n" +
	"--inner\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Interview on 2025-03-10\r\n" +
	"--inner\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>at <b>14:30</b></p>\r\n" +
	"--inner--\r\n" +
	"--outer\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Disposition: attachment; filename=\"card.png\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"aW1hZ2UtYnl0ZXM=\r\n" +
	"--outer\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"cv.pdf\"\r\n" +
	"\r\n" +
	"%PDF\r\n" +
	"--outer--\r\n"

func TestParseMIMEMultipart(t *testing.T) {
	parsed, err := parseMIME([]byte(multipartFixture))
	if err != nil {
		t.Fatalf("parseMIME failed: %v", err)
	}
	if parsed.subject != "Interview invitation" {
		t.Fatalf("subject = %q", parsed.subject)
	}
	if !strings.Contains(parsed.sender, "jane@acme.com") {
		t.Fatalf("sender = %q", parsed.sender)
	}
	if len(parsed.parts.texts) != 2 {
		t.Fatalf("expected 2 text parts, got %#v", parsed.parts.texts)
	}
	if strings.TrimSpace(parsed.parts.texts[0]) != "Interview on 2025-03-10" {
		t.Fatalf("plain part = %q", parsed.parts.texts[0])
	}
	if parsed.parts.texts[1] != "at 14:30" {
		t.Fatalf("html part = %q", parsed.parts.texts[1])
	}
	if len(parsed.parts.images) != 1 || string(parsed.parts.images[0]) != "image-bytes" {
		t.Fatalf("unexpected images %q", parsed.parts.images)
	}
}

func TestParseMIMESinglePart(t *testing.T) {
	raw := "From: a@b.c\r\nSubject: hi\r\nContent-Type: text/plain\r\n\r\nbody text\r\n"
	parsed, err := parseMIME([]byte(raw))
	if err != nil {
		t.Fatalf("parseMIME failed: %v", err)
	}
	if parsed.subject != "hi" || len(parsed.parts.texts) != 1 {
		t.Fatalf("unexpected parse %#v", parsed)
	}
}

func TestIMAPIDRoundTrip(t *testing.T) {
	id := formatIMAPID(42, 1337)
	if id != "42:1337" {
		t.Fatalf("id = %q", id)
	}
	validity, uid, err := parseIMAPID(id)
	if err != nil {
		t.Fatalf("parseIMAPID failed: %v", err)
	}
	if validity != 42 || uid != 1337 {
		t.Fatalf("parsed %d:%d", validity, uid)
	}
	for _, bad := range []string{"", "42", "x:1", "42:y", "42:0"} {
		if _, _, err := parseIMAPID(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
