package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/internal/repo"
	"github.com/Alijeyrad/physio_backend/internal/service/scheduling"
)

type ScheduleHandler struct {
	svc scheduling.Service
}

func NewScheduleHandler(svc scheduling.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

func mapScheduleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scheduling.ErrTherapistNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, scheduling.ErrForbidden):
		return forbidden(c)
	case errors.Is(err, scheduling.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// ---------------------------------------------------------------------------
// Availability
// ---------------------------------------------------------------------------

// GET /therapists/:id/availability
func (h *ScheduleHandler) GetAvailability(c fiber.Ctx) error {
	therapistID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid therapist id")
	}

	avail, err := h.svc.GetAvailability(c.Context(), therapistID)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return ok(c, avail)
}

// PUT /therapists/:id/availability
func (h *ScheduleHandler) ReplaceAvailability(c fiber.Ctx) error {
	actor, valid := actorFromCtx(c)
	if !valid {
		return unauthorized(c)
	}

	therapistID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid therapist id")
	}

	var body struct {
		Availability repo.WeeklyAvailability `json:"availability"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	avail, err := h.svc.ReplaceAvailability(c.Context(), scheduling.AvailabilityEdit{
		TherapistID:  therapistID,
		Actor:        actor,
		Availability: body.Availability,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return ok(c, avail)
}

// ---------------------------------------------------------------------------
// Public listing
// ---------------------------------------------------------------------------

// GET /therapists/:id/slots?date=YYYY-MM-DD
func (h *ScheduleHandler) ListSlots(c fiber.Ctx) error {
	therapistID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid therapist id")
	}

	date := c.Query("date")
	if date == "" {
		return badRequest(c, "date is required")
	}
	day, err := h.svc.ParseDay(date)
	if err != nil {
		return mapScheduleError(c, err)
	}

	slots, err := h.svc.AvailableSlots(c.Context(), therapistID, day)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return ok(c, fiber.Map{
		"date":  date,
		"slots": slots,
	})
}
