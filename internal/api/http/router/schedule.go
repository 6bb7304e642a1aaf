package router

import (
	"github.com/Alijeyrad/physio_backend/internal/api/http/handler"
	"github.com/Alijeyrad/physio_backend/pkg/authorize"
	"github.com/gofiber/fiber/v3"
)

func (r *Router) registerScheduleRoutes(
	api fiber.Router,
	sh *handler.ScheduleHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	therapists := api.Group("/therapists/:id")

	// Public: a therapist's calendar and free slots (no auth required)
	therapists.Get("/slots", sh.ListSlots)
	therapists.Get("/availability", sh.GetAvailability)

	therapists.Put("/availability", authRequired, requirePerm(authorize.ResourceAvailability, authorize.ActionUpdate), sh.ReplaceAvailability)
}
