package handlers

import (
	"errors"
	"strconv"

	"github.com/anjiri1684/community_board/database"
	"github.com/anjiri1684/community_board/middleware"
	"github.com/anjiri1684/community_board/models"
	"github.com/anjiri1684/community_board/services"
	"github.com/anjiri1684/community_board/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

var (
	memoService    *services.MemoService
	captchaService services.CaptchaVerifier
)

// InitMemoHandlers wires the handlers' collaborators; called once from main.
func InitMemoHandlers(svc *services.MemoService, captcha services.CaptchaVerifier) {
	memoService = svc
	captchaService = captcha
}

func currentMember(c *fiber.Ctx) (*models.Member, error) {
	memberID, ok := middleware.MemberIDFromToken(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Login required")
	}

	var member models.Member
	if err := database.DB.Where("member_id = ?", memberID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Login required")
		}
		return nil, err
	}
	return &member, nil
}

func renderMemoError(c *fiber.Ctx, err error) error {
	var invalid *services.InvalidRecipientsError
	var short *services.InsufficientPointError

	switch {
	case errors.Is(err, services.ErrMemoNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Memo does not exist"})
	case errors.Is(err, services.ErrMemberNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member does not exist"})
	case errors.Is(err, services.ErrNotMemoOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only your own memos can be accessed"})
	case errors.Is(err, services.ErrInvalidMemoKind):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid kind parameter"})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":      "One or more recipients do not exist, are closed for messaging, or have left. No memos were sent.",
			"recipients": invalid.IDs,
		})
	case errors.As(err, &short):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not enough points to send. No memos were sent.",
			"have":  short.Have,
			"need":  short.Need,
		})
	}
	return err
}

func ListMemos(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	kind := c.Query("kind", models.MemoTypeRecv)
	page, _ := strconv.Atoi(c.Query("page", "1"))

	result, err := memoService.ListMemos(c.Context(), member, kind, page)
	if err != nil {
		return renderMemoError(c, err)
	}
	return c.JSON(result)
}

func ViewMemo(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	memoID, err := strconv.Atoi(c.Params("id"))
	if err != nil || memoID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid memo id"})
	}

	result, err := memoService.ViewMemo(c.Context(), member, uint(memoID))
	if err != nil {
		return renderMemoError(c, err)
	}
	return c.JSON(result)
}

func ComposeMemo(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	replyTo, _ := strconv.Atoi(c.Query("reply_to", "0"))
	result, err := memoService.ComposeContext(c.Context(), member, c.Query("recipient"), uint(replyTo))
	if err != nil {
		return renderMemoError(c, err)
	}

	token, err := utils.IssueToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue token"})
	}

	return c.JSON(fiber.Map{
		"target":   result.Target,
		"reply_to": result.ReplyTo,
		"token":    token,
	})
}

type SendMemoRequest struct {
	Recipients      string `json:"recipients" validate:"required"`
	Body            string `json:"body" validate:"required"`
	Token           string `json:"token" validate:"required"`
	CaptchaResponse string `json:"captcha_response"`
}

func SendMemo(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	var req SendMemoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if !utils.VerifyToken(req.Token) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Token is not valid. Reload and try again."})
	}

	ok, err := captchaService.Verify(c.Context(), req.CaptchaResponse)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Captcha verification failed"})
	}
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Captcha is not valid"})
	}

	deliveries, err := memoService.SendMemo(c.Context(), member, req.Recipients, req.Body, c.IP())
	if err != nil {
		return renderMemoError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"deliveries": deliveries,
		"redirect":   "/api/v1/memos?kind=send",
	})
}

func DeleteMemo(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}

	memoID, err := strconv.Atoi(c.Params("id"))
	if err != nil || memoID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid memo id"})
	}

	if !utils.VerifyToken(c.Query("token")) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Token is not valid"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	result, err := memoService.DeleteMemo(c.Context(), member, uint(memoID), page)
	if err != nil {
		return renderMemoError(c, err)
	}

	return c.JSON(fiber.Map{
		"redirect": "/api/v1/memos?kind=" + result.Kind + "&page=" + strconv.Itoa(result.Page),
	})
}
