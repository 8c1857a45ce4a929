package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront-promo/internal/logger"
)

// ErrorHandler renders errors as the JSON envelope used by every endpoint.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		logger.Log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
