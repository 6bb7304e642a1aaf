// Package events names the NATS subjects the service publishes and carries
// their JSON payloads.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/physio_backend/pkg/constants"
)

const (
	AppointmentBooked    = "booked"
	AppointmentCanceled  = "canceled"
	AppointmentCompleted = "completed"
)

// AppointmentSubject is physio.appointment.<kind>.<appointment_id>.
func AppointmentSubject(kind string, id uuid.UUID) string {
	return constants.SubjectPrefix + ".appointment." + kind + "." + id.String()
}

// NotificationSubject is physio.notification.created.<user_id>.
func NotificationSubject(userID uuid.UUID) string {
	return constants.SubjectPrefix + ".notification.created." + userID.String()
}

const (
	AppointmentWildcard  = constants.SubjectPrefix + ".appointment.*.*"
	NotificationWildcard = constants.SubjectPrefix + ".notification.created.*"
)

type AppointmentEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	TherapistID   uuid.UUID `json:"therapist_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	Start         time.Time `json:"start"`
}

type NotificationEvent struct {
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	Kind           string    `json:"kind"`
}

// SubjectKind returns the third token of an appointment subject.
func SubjectKind(subject string) string {
	parts := strings.Split(subject, ".")
	if len(parts) < 4 {
		return ""
	}
	return parts[2]
}

// Publisher sends one JSON-encoded event.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

type natsPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(nc *nats.Conn) Publisher {
	return &natsPublisher{nc: nc}
}

func (p *natsPublisher) Publish(_ context.Context, subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.nc.Publish(subject, b); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Nop drops every event. Used by the CLI when NATS is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
