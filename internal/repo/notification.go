package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

func (c *Client) CreateNotification(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = newID()
	}
	n.CreatedAt = time.Now().UTC()
	_, err := c.gq.Insert(tableNotifications).Prepared(true).Rows(goqu.Record{
		"id":         n.ID,
		"user_id":    n.UserID,
		"type":       n.Type,
		"title":      n.Title,
		"body":       n.Body,
		"data":       n.Data,
		"is_read":    false,
		"created_at": n.CreatedAt,
	}).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (c *Client) GetNotification(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	found, err := c.from(tableNotifications).Where(goqu.C("id").Eq(id)).ScanStructContext(ctx, &n)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &n, nil
}

// ListNotifications returns a page of the user's notifications, newest first,
// together with the total count.
func (c *Client) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	ds := c.from(tableNotifications).Where(goqu.C("user_id").Eq(userID))
	if unreadOnly {
		ds = ds.Where(goqu.C("is_read").IsFalse())
	}

	total, err := ds.CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	var out []*Notification
	err = ds.Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).Offset(uint(offset)).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return out, int(total), nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	res, err := c.gq.Update(tableNotifications).Prepared(true).
		Set(goqu.Record{"is_read": true}).
		Where(goqu.C("id").Eq(id), goqu.C("user_id").Eq(userID)).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := c.gq.Update(tableNotifications).Prepared(true).
		Set(goqu.Record{"is_read": true}).
		Where(goqu.C("user_id").Eq(userID), goqu.C("is_read").IsFalse()).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// GetNotificationPref returns ErrNotFound when the user never saved preferences.
func (c *Client) GetNotificationPref(ctx context.Context, userID uuid.UUID) (*NotificationPref, error) {
	var p NotificationPref
	found, err := c.from(tableNotificationPrefs).Where(goqu.C("user_id").Eq(userID)).ScanStructContext(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("get notification prefs: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (c *Client) UpsertNotificationPref(ctx context.Context, p *NotificationPref) (*NotificationPref, error) {
	p.UpdatedAt = time.Now().UTC()
	var out NotificationPref
	found, err := c.gq.Insert(tableNotificationPrefs).Prepared(true).Rows(goqu.Record{
		"user_id":           p.UserID,
		"appointment_sms":   p.AppointmentSMS,
		"appointment_email": p.AppointmentEmail,
		"updated_at":        p.UpdatedAt,
	}).OnConflict(goqu.DoUpdate("user_id", goqu.Record{
		"appointment_sms":   goqu.I("excluded.appointment_sms"),
		"appointment_email": goqu.I("excluded.appointment_email"),
		"updated_at":        goqu.I("excluded.updated_at"),
	})).Returning(goqu.Star()).Executor().ScanStructContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("upsert notification prefs: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &out, nil
}
