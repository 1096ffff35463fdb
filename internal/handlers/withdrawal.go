package handlers

import (
	"errors"

	apperrors "ajo/internal/errors"
	"ajo/internal/middleware"
	"ajo/internal/models"
	"ajo/internal/services/payout"
	"ajo/internal/utils/response"
	"ajo/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// WithdrawalHandler exposes the payout endpoint.
type WithdrawalHandler struct {
	payout    payout.Service
	validator *validation.Validator
}

func NewWithdrawalHandler(s payout.Service, v *validation.Validator) *WithdrawalHandler {
	return &WithdrawalHandler{payout: s, validator: v}
}

type withdrawalRequest struct {
	AmountMinor   int64  `json:"amount_minor"`
	BankCode      string `json:"bank_code" validate:"required,max=16"`
	AccountNumber string `json:"account_number" validate:"required,numeric,len=10"`
	Reference     string `json:"reference" validate:"omitempty,max=100"`
}

// Withdraw handles POST /api/wallet/withdrawals.
func (h *WithdrawalHandler) Withdraw(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	if ownerID == "" {
		return response.Unauthorized(c)
	}

	var req withdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request")
	}
	if err := h.validator.Validate(req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.payout.InitiateWithdrawal(c.UserContext(), payout.WithdrawalRequest{
		OwnerID:       ownerID,
		AmountMinor:   req.AmountMinor,
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
		Reference:     req.Reference,
	})
	if errors.Is(err, apperrors.ErrProviderTimeout) && result != nil {
		// Submitted but unconfirmed: the client polls the reference.
		return response.Accepted(c, apperrors.ErrProviderTimeout.Message, result)
	}
	if err != nil {
		return response.FromError(c, err)
	}
	if result.Status == models.TransactionStatusCompleted {
		return response.Success(c, "withdrawal completed", result)
	}
	return response.Accepted(c, "withdrawal initiated", result)
}
