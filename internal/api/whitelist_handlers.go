package api

import (
	"github.com/gofiber/fiber/v2"
)

type addressListRequest struct {
	Addresses []string `json:"addresses" validate:"required,min=1"`
}

func (s *APIServer) handleAddFarms(c *fiber.Ctx) error {
	var req addressListRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	if err := s.services.Whitelist.AddFarms(c.UserContext(), req.Addresses); err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "added"})
}

func (s *APIServer) handleRemoveFarms(c *fiber.Ctx) error {
	var req addressListRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	if err := s.services.Whitelist.RemoveFarms(req.Addresses); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

func (s *APIServer) handleAddMetastakings(c *fiber.Ctx) error {
	var req addressListRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	if err := s.services.Whitelist.AddMetastakings(c.UserContext(), req.Addresses); err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "added"})
}

func (s *APIServer) handleRemoveMetastakings(c *fiber.Ctx) error {
	var req addressListRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	if err := s.services.Whitelist.RemoveMetastakings(req.Addresses); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "removed"})
}
