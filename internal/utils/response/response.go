package response

import (
	"github.com/gofiber/fiber/v2"
)

// Success writes {"success": true, ...data} with status 200.
func Success(c *fiber.Ctx, data fiber.Map) error {
	return Status(c, fiber.StatusOK, data)
}

func Created(c *fiber.Ctx, data fiber.Map) error {
	return Status(c, fiber.StatusCreated, data)
}

func Status(c *fiber.Ctx, status int, data fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// Error writes {"success": false, "error": message}. extra fields, if any,
// are merged into the body.
func Error(c *fiber.Ctx, status int, message string, extra ...fiber.Map) error {
	body := fiber.Map{"success": false, "error": message}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}
	return c.Status(status).JSON(body)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *fiber.Ctx) error {
	return Error(c, fiber.StatusForbidden, "Insufficient permissions")
}
