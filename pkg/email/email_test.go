package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Alijeyrad/physio_backend/config"
)

func TestBuildNoticeEmail(t *testing.T) {
	m := BuildNoticeEmail(NoticeEmailData{
		Name:  "Sam <Patel>",
		Email: "sam@example.com",
		Title: "Appointment reminder",
		Body:  "Reminder: you have an appointment with Dr. Lee on Mon 7 Jan 2030 10:00.",
	})

	if m.Subject != "Physio: Appointment reminder" {
		t.Errorf("subject = %q", m.Subject)
	}
	if len(m.To) != 1 || m.To[0] != "sam@example.com" {
		t.Errorf("to = %v", m.To)
	}
	if !strings.Contains(m.TextBody, "Dr. Lee") {
		t.Error("text body lost the notice")
	}
	if strings.Contains(m.HTMLBody, "<Patel>") || !strings.Contains(m.HTMLBody, "&lt;Patel&gt;") {
		t.Error("html body must escape user data")
	}
}

func TestBuildMessageRequiresFields(t *testing.T) {
	if _, err := buildMessage("", Message{Subject: "s", TextBody: "b"}); err == nil {
		t.Error("expected error without from")
	}
	if _, err := buildMessage("a@b.c", Message{TextBody: "b"}); err == nil {
		t.Error("expected error without subject")
	}
	if _, err := buildMessage("a@b.c", Message{Subject: "s"}); err == nil {
		t.Error("expected error without body")
	}
	if _, err := buildMessage("a@b.c", Message{To: []string{" x@y.z "}, Subject: "s", HTMLBody: "<p>b</p>"}); err != nil {
		t.Errorf("buildMessage: %v", err)
	}
}

func TestClientDisabled(t *testing.T) {
	c, err := NewFromCentral(config.EmailConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Enabled() {
		t.Fatal("expected disabled client")
	}
	if c.AppName() != "Physio" {
		t.Errorf("app name = %q", c.AppName())
	}
	err = c.Send(context.Background(), Message{})
	if !errors.As(err, &ErrDisabled{}) {
		t.Errorf("Send on disabled client = %v", err)
	}
}

func TestClientEnabledNeedsHost(t *testing.T) {
	if _, err := New(Config{Enabled: true, From: "a@b.c"}); err == nil {
		t.Error("expected error without smtp host")
	}
}
