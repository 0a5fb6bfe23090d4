package api

import (
	"strconv"

	"github.com/arcline-lab/chainsuite/internal/api/middleware"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/gofiber/fiber/v2"
)

type createDcaActionRequest struct {
	TradeFrequency    string `json:"trade_frequency" validate:"required"`
	InputTokenID      string `json:"input_token_id" validate:"required"`
	InputAmountPerRun string `json:"input_amount_per_run" validate:"required"`
	OutputTokenID     string `json:"output_token_id" validate:"required"`
	TotalActions      uint64 `json:"total_actions" validate:"required"`
}

func (s *APIServer) handleCreateDcaAction(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req createDcaActionRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	amount, err := parseAmountField(req.InputAmountPerRun, "input_amount_per_run")
	if err != nil {
		return s.respondError(c, err)
	}

	action, err := s.services.Dca.CreateAction(services.CreateDcaActionParams{
		OwnerAddress:      user.Address,
		TradeFrequency:    models.TradeFrequency(req.TradeFrequency),
		InputTokenID:      req.InputTokenID,
		InputAmountPerRun: amount,
		OutputTokenID:     req.OutputTokenID,
		TotalActions:      req.TotalActions,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(action)
}

func (s *APIServer) handleGetDcaActions(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	actions, err := s.services.Dca.GetActionsForOwner(user.Address)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"actions": actions})
}

func actionIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid action id")
	}
	return uint(id), nil
}

type changeTotalActionsRequest struct {
	Add    uint64 `json:"add"`
	Remove uint64 `json:"remove"`
}

func (s *APIServer) handleChangeTotalActions(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	actionID, err := actionIDParam(c)
	if err != nil {
		return err
	}
	var req changeTotalActionsRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	if req.Add > 0 {
		if err := s.services.Dca.AddTotalActions(user.Address, actionID, req.Add); err != nil {
			return s.respondError(c, err)
		}
	}
	if req.Remove > 0 {
		if err := s.services.Dca.RemoveTotalActions(user.Address, actionID, req.Remove); err != nil {
			return s.respondError(c, err)
		}
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

type changeTradeFrequencyRequest struct {
	TradeFrequency string `json:"trade_frequency" validate:"required"`
}

func (s *APIServer) handleChangeTradeFrequency(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	actionID, err := actionIDParam(c)
	if err != nil {
		return err
	}
	var req changeTradeFrequencyRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	err = s.services.Dca.ChangeTradeFrequency(user.Address, actionID, models.TradeFrequency(req.TradeFrequency))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

type setNrRetriesRequest struct {
	NrRetriesAllowed uint64 `json:"nr_retries_allowed"`
}

func (s *APIServer) handleSetNrRetries(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req setNrRetriesRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	if err := s.services.Dca.SetNrRetries(user.Address, req.NrRetriesAllowed); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "updated"})
}
