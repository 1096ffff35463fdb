package response

import (
	"errors"
	"log"

	apperrors "ajo/internal/errors"
	"ajo/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Accepted(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// ErrorWithCode writes the error body with its stable code.
func ErrorWithCode(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return ErrorWithCode(c, fiber.StatusUnauthorized, apperrors.ErrUnauthorized.Code, "Unauthorized")
}

// ValidationError reports field failures from validation.Validate.
func ValidationError(c *fiber.Ctx, err error) error {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"code":   "VALIDATION_FAILED",
			"fields": fieldErrs,
		})
	}
	return BadRequest(c, err.Error())
}

var statusByCode = map[string]int{
	apperrors.ErrInvalidAmount.Code:            fiber.StatusBadRequest,
	apperrors.ErrInvalidTransaction.Code:       fiber.StatusBadRequest,
	apperrors.ErrInsufficientBalance.Code:      fiber.StatusUnprocessableEntity,
	apperrors.ErrUnresolvableAccount.Code:      fiber.StatusUnprocessableEntity,
	apperrors.ErrProviderUndercapitalized.Code: fiber.StatusServiceUnavailable,
	apperrors.ErrProviderRejected.Code:         fiber.StatusBadGateway,
	apperrors.ErrProviderTimeout.Code:          fiber.StatusAccepted,
	apperrors.ErrDuplicateReference.Code:       fiber.StatusConflict,
	apperrors.ErrTransitionConflict.Code:       fiber.StatusConflict,
	apperrors.ErrAlreadyCheckedInToday.Code:    fiber.StatusConflict,
	apperrors.ErrTransactionNotFound.Code:      fiber.StatusNotFound,
	apperrors.ErrWalletNotFound.Code:           fiber.StatusNotFound,
	apperrors.ErrUnknownTransaction.Code:       fiber.StatusNotFound,
	apperrors.ErrInvalidSignature.Code:         fiber.StatusUnauthorized,
	apperrors.ErrUnauthorized.Code:             fiber.StatusUnauthorized,
}

// StatusFor maps a domain error to its HTTP status; unknown errors are 500.
func StatusFor(err error) int {
	if status, ok := statusByCode[apperrors.CodeOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// FromError writes err as a JSON error. Domain errors keep their public
// message and code; anything else is logged and hidden behind a 500.
func FromError(c *fiber.Ctx, err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return ErrorWithCode(c, StatusFor(err), de.Code, de.Message)
	}
	log.Printf("[http] %s %s: %v", c.Method(), c.Path(), err)
	return ServerError(c, "internal server error")
}
