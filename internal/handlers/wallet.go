package handlers

import (
	"ajo/internal/middleware"
	"ajo/internal/services/ledger"
	"ajo/internal/utils/pagination"
	"ajo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	ledger ledger.Service
}

func NewWalletHandler(ledgerSvc ledger.Service) *WalletHandler {
	return &WalletHandler{
		ledger: ledgerSvc,
	}
}

// GetBalance handles GET /api/wallet. The balance is recomputed from the
// ledger on every read and never served from cache.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	if ownerID == "" {
		return response.Unauthorized(c)
	}

	balance, err := h.ledger.GetBalance(c.UserContext(), ownerID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "wallet retrieved", balance)
}

// ListTransactions handles GET /api/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	if ownerID == "" {
		return response.Unauthorized(c)
	}

	p := pagination.ParseFromRequest(c)
	txs, total, err := h.ledger.ListTransactions(c.UserContext(), ownerID, p.Limit, p.Offset)
	if err != nil {
		return response.FromError(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, txs))
}

// GetTransaction handles GET /api/wallet/transactions/:reference, which
// clients poll while a withdrawal is pending.
func (h *WalletHandler) GetTransaction(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	if ownerID == "" {
		return response.Unauthorized(c)
	}

	tx, err := h.ledger.GetTransaction(c.UserContext(), ownerID, c.Params("reference"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "transaction retrieved", tx)
}
