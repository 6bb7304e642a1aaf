package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arsmn/go-smsir/smsir"
	"github.com/nyaruka/phonenumbers"

	"github.com/Alijeyrad/physio_backend/config"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Client sends appointment notices through sms.ir ultra-fast templates.
type Client struct {
	client     *smsir.Client
	enabled    bool
	templateID string
	region     string
}

// NewFromConfig creates a new SMS client from the application configuration.
// If SMS is disabled, returns a client that no-ops on all operations.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	region := strings.ToUpper(cfg.DefaultRegion)
	if region == "" {
		region = "IR"
	}
	if !cfg.Enabled {
		return &Client{enabled: false, region: region}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}
	if cfg.SMSIR.TemplateID == "" {
		return nil, fmt.Errorf("sms.ir template id required when SMS enabled")
	}

	return &Client{
		client:     smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey),
		enabled:    true,
		templateID: cfg.SMSIR.TemplateID,
		region:     region,
	}, nil
}

// Normalize parses a user-entered number, local or international, and
// returns it in E.164 form.
func (c *Client) Normalize(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrInvalidPhone
	}
	num, err := phonenumbers.Parse(phone, c.region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// SendNotice delivers text to phone using the configured template. The
// template must declare a "message" parameter. No-op when SMS is disabled.
func (c *Client) SendNotice(ctx context.Context, phone, text string) error {
	if !c.enabled {
		return nil
	}
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	mobile, err := c.Normalize(phone)
	if err != nil {
		return err
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     mobile,
		TemplateID: c.templateID,
		Parameters: []smsir.UltraFastParameter{
			{Key: "message", Value: text},
		},
	}
	if _, err := c.client.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}
