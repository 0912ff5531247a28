package email

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewOTPMessage(t *testing.T) {
	expires := time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC)
	msg := NewOTPMessage("a@x.edu", "Asha", "482913", expires)

	if msg.To != "a@x.edu" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.TextBody, "482913") || !strings.Contains(msg.HTMLBody, "482913") {
		t.Fatalf("expected code in both bodies")
	}
	if !strings.Contains(msg.TextBody, "2026-01-02T10:30:00Z") {
		t.Fatalf("expected expiry in text body, got %q", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "Hi Asha") {
		t.Fatalf("expected greeting with name")
	}
}

func TestNewOTPMessage_EscapesName(t *testing.T) {
	msg := NewOTPMessage("a@x.edu", "<b>", "482913", time.Now())
	if strings.Contains(msg.HTMLBody, "<b>,") {
		t.Fatalf("expected name escaped in html body")
	}
}

func TestBuildMessage_Multipart(t *testing.T) {
	msg := NewOTPMessage("a@x.edu", "", "123456", time.Now())
	m := buildMessage("no-reply@gradnet.edu", "GradNet", msg)

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"To: a@x.edu", "text/plain", "text/html", "GradNet"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %q in message:\n%s", want, raw)
		}
	}
}

func TestNewSMTPSender_Validation(t *testing.T) {
	if _, err := NewSMTPSender("", 587, "", "", "from@x.edu", ""); err == nil {
		t.Fatalf("expected host error")
	}
	if _, err := NewSMTPSender("smtp.x.edu", 587, "", "", "", ""); err == nil {
		t.Fatalf("expected from error")
	}
	s, err := NewSMTPSender("smtp.x.edu", 0, "", "", "from@x.edu", "")
	if err != nil {
		t.Fatalf("expected sender, got %v", err)
	}
	if s.dialer.Port != 587 {
		t.Fatalf("expected default port 587, got %d", s.dialer.Port)
	}
	if err := s.Send(context.Background(), Message{}); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestDisabledAndLogSenders(t *testing.T) {
	if err := NewDisabledSender("").Send(context.Background(), Message{To: "a@x.edu"}); err == nil {
		t.Fatalf("disabled sender must fail")
	}
	if err := NewDisabledSender("smtp off").Send(context.Background(), Message{To: "a@x.edu"}); err == nil || err.Error() != "smtp off" {
		t.Fatalf("expected reason as error, got %v", err)
	}
	if err := NewLogSender(zap.NewNop()).Send(context.Background(), Message{To: "a@x.edu"}); err != nil {
		t.Fatalf("log sender must succeed, got %v", err)
	}
}
