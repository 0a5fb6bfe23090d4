package api

import (
	"errors"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error onto the HTTP status for its kind.
func (s *APIServer) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, chain.ErrExternalCall):
		status = fiber.StatusBadGateway
	default:
		switch services.Kind(err) {
		case services.ErrInvalidInput:
			status = fiber.StatusBadRequest
		case services.ErrUnauthorized:
			status = fiber.StatusForbidden
		case services.ErrStateConflict, services.ErrPolicy:
			status = fiber.StatusConflict
		}
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *APIServer) parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validator.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
