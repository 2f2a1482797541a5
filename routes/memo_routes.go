package routes

import (
	"github.com/anjiri1684/community_board/handlers"
	"github.com/anjiri1684/community_board/middleware"
	"github.com/gofiber/fiber/v2"
)

func MemoRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	memos := api.Group("/memos", middleware.Protected())
	memos.Get("", handlers.ListMemos)
	memos.Post("", handlers.SendMemo)
	memos.Get("/compose", handlers.ComposeMemo)
	memos.Get("/:id", handlers.ViewMemo)
	memos.Delete("/:id", handlers.DeleteMemo)
}
