package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// GetMemoNotifications is the polled notification endpoint: the denormalized
// unread counter and the handle of the most recent unread sender, straight
// from the member row.
func GetMemoNotifications(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"memo_count": member.MemoCount,
		"memo_call":  member.MemoCall,
	})
}
