package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/Alijeyrad/physio_backend/config"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SMSConfig
		wantErr bool
		enabled bool
	}{
		{"disabled", config.SMSConfig{}, false, false},
		{"enabled without api key", config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{TemplateID: "1"}}, true, false},
		{"enabled without template", config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{APIKey: "k"}}, true, false},
		{"enabled", config.SMSConfig{Enabled: true, SMSIR: config.SMSIRConfig{APIKey: "k", SecretKey: "s", TemplateID: "1"}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromConfig: %v", err)
			}
			if c.IsEnabled() != tt.enabled {
				t.Errorf("enabled = %v, want %v", c.IsEnabled(), tt.enabled)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	c, err := NewFromConfig(config.SMSConfig{DefaultRegion: "ir"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09121234567", "+989121234567", false},
		{"+98 912 123 4567", "+989121234567", false},
		{"+1 650 253 0000", "+16502530000", false},
		{"", "", true},
		{"12", "", true},
		{"not a number", "", true},
	}
	for _, tt := range tests {
		got, err := c.Normalize(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPhone) {
				t.Errorf("Normalize(%q) err = %v, want ErrInvalidPhone", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Normalize(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestSendNotice_DisabledIsNoop(t *testing.T) {
	c, _ := NewFromConfig(config.SMSConfig{})
	if err := c.SendNotice(context.Background(), "", ""); err != nil {
		t.Fatalf("disabled SendNotice returned %v", err)
	}
}
