package router

import (
	"github.com/Alijeyrad/physio_backend/internal/api/http/handler"
	"github.com/Alijeyrad/physio_backend/pkg/authorize"
	"github.com/gofiber/fiber/v3"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	appts := api.Group("/appointments", authRequired)

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.List)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Book)

	a := appts.Group("/:id")
	a.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.GetByID)
	a.Patch("/cancel", requirePerm(authorize.ResourceAppointment, authorize.ActionCancel), ah.Cancel)
	a.Patch("/complete", requirePerm(authorize.ResourceAppointment, authorize.ActionComplete), ah.Complete)
	a.Patch("/notes", requirePerm(authorize.ResourceAppointmentNotes, authorize.ActionUpdate), ah.UpdateNotes)
}
