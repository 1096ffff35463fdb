package response

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	apperrors "ajo/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.ErrInsufficientBalance, fiber.StatusUnprocessableEntity},
		{fmt.Errorf("%w: wd_1", apperrors.ErrProviderTimeout), fiber.StatusAccepted},
		{fmt.Errorf("wrapped twice: %w", fmt.Errorf("%w", apperrors.ErrDuplicateReference)), fiber.StatusConflict},
		{fmt.Errorf("db down"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestFromError_HidesInternalErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/domain", func(c *fiber.Ctx) error {
		return FromError(c, fmt.Errorf("initiate: %w", apperrors.ErrInsufficientBalance))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return FromError(c, fmt.Errorf("pq: connection refused"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/domain", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "INSUFFICIENT_BALANCE")

	resp, err = app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), "connection refused")
}
