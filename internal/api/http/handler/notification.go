package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/internal/service/notification"
	pasetotoken "github.com/Alijeyrad/physio_backend/pkg/paseto"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func mapNotificationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c)
	}
}

// GET /notifications
func (h *NotificationHandler) List(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	var q struct {
		UnreadOnly bool `query:"unread_only"`
	}
	_ = c.Bind().Query(&q)
	page, perPage := pageParams(c)

	notifs, total, err := h.svc.List(c.Context(), claims.UserID, q.UnreadOnly, page, perPage)
	if err != nil {
		return mapNotificationError(c, err)
	}

	return ok(c, fiber.Map{
		"notifications": notifs,
		"total":         total,
		"page":          page,
		"per_page":      perPage,
	})
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid notification id")
	}

	if err := h.svc.MarkRead(c.Context(), notifID, claims.UserID); err != nil {
		return mapNotificationError(c, err)
	}

	return noContent(c)
}

// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	if err := h.svc.MarkAllRead(c.Context(), claims.UserID); err != nil {
		return mapNotificationError(c, err)
	}

	return noContent(c)
}

// GET /notifications/prefs
func (h *NotificationHandler) GetPrefs(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	prefs, err := h.svc.GetPrefs(c.Context(), claims.UserID)
	if err != nil {
		return mapNotificationError(c, err)
	}

	return ok(c, prefs)
}

// PUT /notifications/prefs
func (h *NotificationHandler) UpdatePrefs(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	var body struct {
		AppointmentSMS   bool `json:"appointment_sms"`
		AppointmentEmail bool `json:"appointment_email"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	prefs, err := h.svc.UpsertPrefs(c.Context(), claims.UserID, notification.UpsertPrefsRequest{
		AppointmentSMS:   body.AppointmentSMS,
		AppointmentEmail: body.AppointmentEmail,
	})
	if err != nil {
		return mapNotificationError(c, err)
	}

	return ok(c, prefs)
}
