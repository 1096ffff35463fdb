package handlers

import (
	"ajo/internal/middleware"
	"ajo/internal/services/commission"
	"ajo/internal/utils/response"
	"ajo/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type CommissionHandler struct {
	commission commission.Service
	validator  *validation.Validator
}

func NewCommissionHandler(s commission.Service, v *validation.Validator) *CommissionHandler {
	return &CommissionHandler{commission: s, validator: v}
}

type checkInRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// CheckIn handles POST /api/commission/check-in. The date defaults to today
// in the operational timezone.
func (h *CommissionHandler) CheckIn(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	if ownerID == "" {
		return response.Unauthorized(c)
	}

	var req checkInRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "invalid request")
		}
	}
	if err := h.validator.Validate(req); err != nil {
		return response.ValidationError(c, err)
	}
	date := req.Date
	if date == "" {
		date = h.commission.Today()
	}

	result, err := h.commission.RecordDailyCheckIn(c.UserContext(), ownerID, date)
	if err != nil {
		return response.FromError(c, err)
	}
	if result.AlreadyRecorded {
		return response.Success(c, "already checked in on "+result.Date, result)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "check-in recorded",
		"data":    result,
	})
}

// Summary handles GET /api/commission/summary.
func (h *CommissionHandler) Summary(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	if ownerID == "" {
		return response.Unauthorized(c)
	}

	summary, err := h.commission.GetSummary(c.UserContext(), ownerID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "commission summary retrieved", summary)
}
