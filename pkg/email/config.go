package email

import (
	"time"

	"github.com/Alijeyrad/physio_backend/config"
)

type Config struct {
	Enabled bool
	From    string
	AppName string

	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPUseTLS         bool
	SMTPTimeoutSeconds int
}

func DefaultConfig() Config {
	return Config{
		Enabled:            false,
		AppName:            "Physio",
		SMTPPort:           587,
		SMTPUseTLS:         true,
		SMTPTimeoutSeconds: 30,
	}
}

// SMTPTimeout returns the SMTP timeout as a duration
func (c Config) SMTPTimeout() time.Duration {
	if c.SMTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

// FromCentralConfig converts central config.EmailConfig to package Config
func FromCentralConfig(c config.EmailConfig) Config {
	d := DefaultConfig()
	out := Config{
		Enabled:            c.Enabled,
		From:               c.From,
		AppName:            c.AppName,
		SMTPHost:           c.SMTP.Host,
		SMTPPort:           c.SMTP.Port,
		SMTPUsername:       c.SMTP.Username,
		SMTPPassword:       c.SMTP.Password,
		SMTPUseTLS:         c.SMTP.UseTLS,
		SMTPTimeoutSeconds: c.SMTP.TimeoutSeconds,
	}
	if out.AppName == "" {
		out.AppName = d.AppName
	}
	if out.SMTPPort == 0 {
		out.SMTPPort = d.SMTPPort
	}
	return out
}
