package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/physio_backend/internal/api/http/handler"
	"github.com/Alijeyrad/physio_backend/pkg/authorize"
)

func (r *Router) registerNotificationRoutes(
	api fiber.Router,
	nh *handler.NotificationHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	notifs := api.Group("/notifications", authRequired)

	notifs.Get("/", requirePerm(authorize.ResourceNotification, authorize.ActionList), nh.List)
	notifs.Patch("/read-all", requirePerm(authorize.ResourceNotification, authorize.ActionUpdate), nh.MarkAllRead)
	notifs.Patch("/:id/read", requirePerm(authorize.ResourceNotification, authorize.ActionUpdate), nh.MarkRead)

	notifs.Get("/prefs", requirePerm(authorize.ResourceNotificationPref, authorize.ActionRead), nh.GetPrefs)
	notifs.Put("/prefs", requirePerm(authorize.ResourceNotificationPref, authorize.ActionUpdate), nh.UpdatePrefs)
}
