package api

import (
	"strconv"
	"time"

	"github.com/arcline-lab/chainsuite/internal/api/middleware"
	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"github.com/gofiber/fiber/v2"
)

type createOrderRequest struct {
	InputTokenID       string `json:"input_token_id" validate:"required"`
	InputAmount        string `json:"input_amount" validate:"required"`
	OutputTokenID      string `json:"output_token_id" validate:"required"`
	MinTotalOutput     string `json:"min_total_output" validate:"required"`
	ExecutorFeePercent uint64 `json:"executor_fee_percent"`
	DurationSeconds    uint64 `json:"duration_seconds" validate:"required"`
}

func (s *APIServer) handleCreateOrder(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req createOrderRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	inputAmount, err := parseAmountField(req.InputAmount, "input_amount")
	if err != nil {
		return s.respondError(c, err)
	}
	minOutput, err := parseAmountField(req.MinTotalOutput, "min_total_output")
	if err != nil {
		return s.respondError(c, err)
	}

	order, err := s.services.Orders.CreateOrder(services.CreateOrderParams{
		MakerAddress:       user.Address,
		InputTokenID:       req.InputTokenID,
		InputAmount:        inputAmount,
		OutputTokenID:      req.OutputTokenID,
		MinTotalOutput:     minOutput,
		ExecutorFeePercent: req.ExecutorFeePercent,
		Duration:           time.Duration(req.DurationSeconds) * time.Second,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (s *APIServer) handleGetOrders(c *fiber.Ctx) error {
	startID, _ := strconv.Atoi(c.Query("start", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	orders, err := s.services.Orders.GetOrders(uint(startID), limit)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func orderIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	return uint(id), nil
}

func (s *APIServer) handleCancelOrder(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	if err := s.services.Orders.CancelOrder(c.UserContext(), user.Address, orderID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "cancelled"})
}

func (s *APIServer) handlePruneOrder(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	result, err := s.services.Orders.PruneOrder(c.UserContext(), user.Address, orderID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"pruner_amount": utils.FormatAmount(result.PrunerAmount),
		"maker_amount":  utils.FormatAmount(result.MakerAmount),
	})
}

func (s *APIServer) handleGetOrderBookSettings(c *fiber.Ctx) error {
	settings, err := s.services.Orders.GetOrderBookSettings()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(settings)
}

func (s *APIServer) handlePauseOrderBook(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	if err := s.services.Orders.Pause(user.Address); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "paused"})
}

func (s *APIServer) handleUnpauseOrderBook(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	if err := s.services.Orders.Unpause(user.Address); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "active"})
}

type updateOrderBookSettingsRequest struct {
	RouterAddress         *string `json:"router_address"`
	TreasuryAddress       *string `json:"treasury_address"`
	PruningFeePercent     *uint64 `json:"pruning_fee_percent"`
	P2PProtocolFeePercent *uint64 `json:"p2p_protocol_fee_percent"`
}

func (s *APIServer) handleUpdateOrderBookSettings(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req updateOrderBookSettingsRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	if req.RouterAddress != nil {
		if err := s.services.Orders.SetRouterAddress(user.Address, *req.RouterAddress); err != nil {
			return s.respondError(c, err)
		}
	}
	if req.TreasuryAddress != nil {
		if err := s.services.Orders.SetTreasuryAddress(user.Address, *req.TreasuryAddress); err != nil {
			return s.respondError(c, err)
		}
	}
	if req.PruningFeePercent != nil {
		if err := s.services.Orders.SetPruningFee(user.Address, *req.PruningFeePercent); err != nil {
			return s.respondError(c, err)
		}
	}
	if req.P2PProtocolFeePercent != nil {
		if err := s.services.Orders.SetP2PProtocolFee(user.Address, *req.P2PProtocolFeePercent); err != nil {
			return s.respondError(c, err)
		}
	}

	settings, err := s.services.Orders.GetOrderBookSettings()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(settings)
}
