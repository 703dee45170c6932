package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FromFiberError renders an error returned by a service (usually *fiber.Error
// raised inside a DB transaction) with the standard error envelope.
// Anything else becomes a 500.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, err.Error())
}
