package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/internal/service/appointment"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound),
		errors.Is(err, appointment.ErrTherapistNotFound),
		errors.Is(err, appointment.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrConflict):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, appointment.ErrForbidden):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// GET /appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	actor, valid := actorFromCtx(c)
	if !valid {
		return unauthorized(c)
	}

	var q struct {
		TherapistID string `query:"therapist_id"`
		PatientID   string `query:"patient_id"`
		Status      string `query:"status"`
		From        string `query:"from"`
		To          string `query:"to"`
	}
	_ = c.Bind().Query(&q)

	page, perPage := pageParams(c)
	req := appointment.ListRequest{
		Actor:   actor,
		Page:    page,
		PerPage: perPage,
	}
	if q.TherapistID != "" {
		id, err := uuid.Parse(q.TherapistID)
		if err != nil {
			return badRequest(c, "invalid therapist_id")
		}
		req.TherapistID = &id
	}
	if q.PatientID != "" {
		id, err := uuid.Parse(q.PatientID)
		if err != nil {
			return badRequest(c, "invalid patient_id")
		}
		req.PatientID = &id
	}
	if q.Status != "" {
		req.Status = &q.Status
	}
	if q.From != "" {
		t, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			return badRequest(c, "from must be RFC 3339")
		}
		req.From = &t
	}
	if q.To != "" {
		t, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			return badRequest(c, "to must be RFC 3339")
		}
		req.To = &t
	}

	appts, err := h.svc.List(c.Context(), req)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, fiber.Map{
		"appointments": appts,
		"page":         page,
		"per_page":     perPage,
	})
}

// POST /appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	actor, valid := actorFromCtx(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		TherapistID     string    `json:"therapist_id"`
		PatientID       string    `json:"patient_id"`
		Start           int64   `json:"start"` // epoch ms, as listed by /slots
		DurationMinutes int     `json:"duration_minutes"`
		Notes           *string `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Start <= 0 {
		return badRequest(c, "start is required")
	}

	therapistID, err := uuid.Parse(body.TherapistID)
	if err != nil {
		return badRequest(c, "invalid therapist_id")
	}

	// patients book for themselves unless told otherwise
	patientID := actor.ID
	if body.PatientID != "" {
		if patientID, err = uuid.Parse(body.PatientID); err != nil {
			return badRequest(c, "invalid patient_id")
		}
	} else if !actor.IsPatient() {
		return badRequest(c, "patient_id is required")
	}

	appt, err := h.svc.Book(c.Context(), appointment.BookRequest{
		Actor:           actor,
		TherapistID:     therapistID,
		PatientID:       patientID,
		Start:           time.UnixMilli(body.Start).UTC(),
		DurationMinutes: body.DurationMinutes,
		Notes:           body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return created(c, appt)
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	actor, valid := actorFromCtx(c)
	if !valid {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.GetByID(c.Context(), apptID, actor)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// PATCH /appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c fiber.Ctx) error {
	actor, valid := actorFromCtx(c)
	if !valid {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.Cancel(c.Context(), apptID, actor)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// PATCH /appointments/:id/complete
func (h *AppointmentHandler) Complete(c fiber.Ctx) error {
	actor, valid := actorFromCtx(c)
	if !valid {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.Complete(c.Context(), apptID, actor)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// PATCH /appointments/:id/notes
func (h *AppointmentHandler) UpdateNotes(c fiber.Ctx) error {
	actor, valid := actorFromCtx(c)
	if !valid {
		return unauthorized(c)
	}

	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Notes *string `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.UpdateNotes(c.Context(), appointment.AppointmentEdit{
		AppointmentID: apptID,
		Actor:         actor,
		Notes:         body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}
