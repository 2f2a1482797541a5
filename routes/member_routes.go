package routes

import (
	"github.com/anjiri1684/community_board/handlers"
	"github.com/anjiri1684/community_board/middleware"
	"github.com/gofiber/fiber/v2"
)

func MemberRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	members := api.Group("/members", middleware.Protected())
	members.Get("/me/notifications", handlers.GetMemoNotifications)
}
