package api

import (
	"github.com/arcline-lab/chainsuite/internal/api/middleware"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"github.com/gofiber/fiber/v2"
)

type deployRequest struct {
	ActionType      string         `json:"action_type" validate:"required"`
	TemplateAddress string         `json:"template_address" validate:"required"`
	TemplateValues  map[string]any `json:"template_values"`
}

func (s *APIServer) handleDeploy(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req deployRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	deployed, err := s.services.Deployer.Deploy(
		c.UserContext(),
		user.Address,
		models.DeployActionType(req.ActionType),
		req.TemplateAddress,
		models.JSON(req.TemplateValues),
	)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(deployed)
}

func (s *APIServer) handleGetDeployments(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	deployments, err := s.services.Deployer.GetDeployments(user.Address)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"deployments": deployments})
}

func (s *APIServer) handleGetActionFee(c *fiber.Ctx) error {
	fee, err := s.services.Deployer.GetActionFee(models.DeployActionType(c.Params("action")))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"fee_token_id": fee.TokenID,
		"fee_amount":   utils.FormatAmount(fee.Amount),
	})
}

type setDeployFeesRequest struct {
	ActionType string `json:"action_type"`
	FeeTokenID string `json:"fee_token_id" validate:"required"`
	FeeAmount  string `json:"fee_amount" validate:"required"`
	Default    bool   `json:"default"`
}

// handleSetDeployFees updates either the per-action fee or the default
// fallback, depending on the request.
func (s *APIServer) handleSetDeployFees(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req setDeployFeesRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	amount, err := parseAmountField(req.FeeAmount, "fee_amount")
	if err != nil {
		return s.respondError(c, err)
	}

	if req.Default {
		err = s.services.Deployer.SetDefaultFee(user.Address, req.FeeTokenID, amount)
	} else {
		err = s.services.Deployer.SetActionFee(user.Address, models.DeployActionType(req.ActionType), req.FeeTokenID, amount)
	}
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

func (s *APIServer) handlePauseDeployer(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	if err := s.services.Deployer.Pause(user.Address); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "paused"})
}

func (s *APIServer) handleUnpauseDeployer(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	if err := s.services.Deployer.Unpause(user.Address); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "active"})
}
