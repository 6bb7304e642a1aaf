package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/internal/events"
	"github.com/Alijeyrad/physio_backend/internal/repo"
)

// Notification kinds raised by the scheduler.
const (
	KindAppointmentBooked   = "appointment_booked"
	KindAppointmentCanceled = "appointment_canceled"
	KindAppointmentReminder = "appointment_reminder"
	KindDocumentSession     = "appointment_document"
)

var titles = map[string]string{
	KindAppointmentBooked:   "New appointment",
	KindAppointmentCanceled: "Appointment canceled",
	KindAppointmentReminder: "Appointment reminder",
	KindDocumentSession:     "Session ready to document",
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Notice is a message to one user.
type Notice struct {
	UserID        uuid.UUID
	Kind          string
	Text          string
	AppointmentID uuid.UUID
}

type UpsertPrefsRequest struct {
	AppointmentSMS   bool
	AppointmentEmail bool
}

type Store interface {
	CreateNotification(ctx context.Context, n *repo.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*repo.Notification, int, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
	GetNotificationPref(ctx context.Context, userID uuid.UUID) (*repo.NotificationPref, error)
	UpsertNotificationPref(ctx context.Context, p *repo.NotificationPref) (*repo.NotificationPref, error)
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Notify persists the notice and announces it for delivery.
	Notify(ctx context.Context, n Notice) (*repo.Notification, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, perPage int) ([]*repo.Notification, int, error)
	MarkRead(ctx context.Context, notifID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	GetPrefs(ctx context.Context, userID uuid.UUID) (*repo.NotificationPref, error)
	UpsertPrefs(ctx context.Context, userID uuid.UUID, req UpsertPrefsRequest) (*repo.NotificationPref, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	store Store
	pub   events.Publisher
}

func New(store Store, pub events.Publisher) Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &notificationService{store: store, pub: pub}
}

func (s *notificationService) Notify(ctx context.Context, in Notice) (*repo.Notification, error) {
	if in.UserID == uuid.Nil || in.Text == "" {
		return nil, ErrEmptyNotice
	}

	title, ok := titles[in.Kind]
	if !ok {
		title = "Notification"
	}
	body := in.Text
	n := &repo.Notification{
		UserID: in.UserID,
		Type:   in.Kind,
		Title:  title,
		Body:   &body,
	}
	if in.AppointmentID != uuid.Nil {
		n.Data = repo.JSONMap{"appointment_id": in.AppointmentID.String()}
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	err := s.pub.Publish(ctx, events.NotificationSubject(n.UserID), events.NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Kind:           n.Type,
	})
	if err != nil {
		slog.WarnContext(ctx, "notification: publish failed", "notification_id", n.ID, "err", err)
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, perPage int) ([]*repo.Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	notifs, total, err := s.store.ListNotifications(ctx, userID, unreadOnly, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	if notifs == nil {
		notifs = []*repo.Notification{}
	}
	return notifs, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notifID, userID uuid.UUID) error {
	if err := s.store.MarkNotificationRead(ctx, userID, notifID); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.MarkAllNotificationsRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *notificationService) GetPrefs(ctx context.Context, userID uuid.UUID) (*repo.NotificationPref, error) {
	pref, err := s.store.GetNotificationPref(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			// defaults are not persisted
			return &repo.NotificationPref{
				UserID:           userID,
				AppointmentSMS:   true,
				AppointmentEmail: true,
			}, nil
		}
		return nil, fmt.Errorf("get notification prefs: %w", err)
	}
	return pref, nil
}

func (s *notificationService) UpsertPrefs(ctx context.Context, userID uuid.UUID, req UpsertPrefsRequest) (*repo.NotificationPref, error) {
	pref, err := s.store.UpsertNotificationPref(ctx, &repo.NotificationPref{
		UserID:           userID,
		AppointmentSMS:   req.AppointmentSMS,
		AppointmentEmail: req.AppointmentEmail,
		UpdatedAt:        time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert notification prefs: %w", err)
	}
	return pref, nil
}
