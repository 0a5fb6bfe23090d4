package api

import (
	"time"

	"github.com/arcline-lab/chainsuite/internal/api/middleware"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"github.com/gofiber/fiber/v2"
)

type registerUserRequest struct {
	Address   string `json:"address" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// handleRegisterUser verifies address ownership through a personal-sign
// signature, registers the address and hands back a bearer token.
func (s *APIServer) handleRegisterUser(c *fiber.Ctx) error {
	var req registerUserRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	message := utils.GenerateRegistrationMessage(req.Address)
	valid, err := utils.VerifyAddressSignature(req.Signature, req.Address, message)
	if err != nil || !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "signature verification failed",
		})
	}

	userID, err := s.services.User.RegisterUser(req.Address)
	if err != nil {
		return s.respondError(c, err)
	}

	isAdmin, err := s.services.Orders.IsAdmin(req.Address)
	if err != nil {
		return s.respondError(c, err)
	}
	token, err := s.auth.GenerateToken(req.Address, isAdmin, 24*time.Hour)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user_id": userID,
		"token":   token,
	})
}

func (s *APIServer) handleGetUserID(c *fiber.Ctx) error {
	userID, err := s.services.User.GetUserID(c.Params("address"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"user_id": userID})
}

func (s *APIServer) handleWithdrawAll(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	if err := s.services.Rewards.WithdrawAllAndUnregister(c.UserContext(), user.Address); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "withdrawn"})
}
