// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"ajo/internal/handlers"
	"ajo/internal/middleware"
	"ajo/internal/services/commission"
	"ajo/internal/services/ledger"
	"ajo/internal/services/payout"
	"ajo/internal/services/webhook"
	"ajo/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Dependencies carries the wired services the routes expose.
type Dependencies struct {
	Auth       *middleware.AuthMiddleware
	Ledger     ledger.Service
	Payout     payout.Service
	Webhook    webhook.Service
	Commission commission.Service
	Health     map[string]handlers.Pinger

	// WithdrawalsPerMinute caps withdrawal attempts per owner. Zero disables
	// the limiter.
	WithdrawalsPerMinute int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	validator := validation.New()

	walletHandler := handlers.NewWalletHandler(deps.Ledger)
	withdrawalHandler := handlers.NewWithdrawalHandler(deps.Payout, validator)
	webhookHandler := handlers.NewWebhookHandler(deps.Webhook)
	commissionHandler := handlers.NewCommissionHandler(deps.Commission, validator)
	healthHandler := handlers.NewHealthHandler(deps.Health)

	// Public routes
	app.Get("/health", healthHandler.Check)
	app.Post("/webhooks/paystack", webhookHandler.Paystack)

	// Authenticated routes
	api := app.Group("/api", deps.Auth.Handler)

	wallet := api.Group("/wallet")
	wallet.Get("/", walletHandler.GetBalance)
	wallet.Get("/transactions", walletHandler.ListTransactions)
	wallet.Get("/transactions/:reference", walletHandler.GetTransaction)
	wallet.Post("/withdrawals", withdrawalLimiter(deps.WithdrawalsPerMinute), withdrawalHandler.Withdraw)

	commissions := api.Group("/commission")
	commissions.Post("/check-in", commissionHandler.CheckIn)
	commissions.Get("/summary", commissionHandler.Summary)
}

func withdrawalLimiter(max int) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "withdrawal:" + middleware.OwnerID(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
}
