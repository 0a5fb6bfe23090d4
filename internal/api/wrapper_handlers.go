package api

import (
	"github.com/arcline-lab/chainsuite/internal/api/middleware"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/gofiber/fiber/v2"
)

type wrapRequest struct {
	Payment paymentRequest `json:"payment" validate:"required"`
}

func (s *APIServer) handleWrapFarmToken(c *fiber.Ctx) error {
	var req wrapRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	payment, err := req.Payment.toPayment()
	if err != nil {
		return s.respondError(c, err)
	}
	wrapped, err := s.services.Wrapper.WrapFarmToken(payment)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"wrapped": toPaymentResponse(wrapped)})
}

func (s *APIServer) handleUnwrapFarmToken(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req wrapRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	payment, err := req.Payment.toPayment()
	if err != nil {
		return s.respondError(c, err)
	}
	result, err := s.services.Wrapper.UnwrapFarmToken(c.UserContext(), user.Address, payment)
	if err != nil {
		return s.respondError(c, err)
	}
	response := fiber.Map{
		"farm_token": toPaymentResponse(result.FarmToken),
		"reward":     nil,
	}
	if result.Reward != nil {
		response["reward"] = toPaymentResponse(*result.Reward)
	}
	return c.JSON(response)
}

type mergeWrappedRequest struct {
	Payments []paymentRequest `json:"payments" validate:"required,min=2,dive"`
}

func (s *APIServer) handleMergeWrappedTokens(c *fiber.Ctx) error {
	var req mergeWrappedRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	payments := make([]models.Payment, 0, len(req.Payments))
	for _, p := range req.Payments {
		payment, err := p.toPayment()
		if err != nil {
			return s.respondError(c, err)
		}
		payments = append(payments, payment)
	}
	merged, err := s.services.Wrapper.MergeWrappedTokens(payments)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"merged": toPaymentResponse(merged)})
}

func (s *APIServer) handleClaimExtraRewards(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req wrapRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	payment, err := req.Payment.toPayment()
	if err != nil {
		return s.respondError(c, err)
	}
	result, err := s.services.Wrapper.ClaimExtraRewards(c.UserContext(), user.Address, payment)
	if err != nil {
		return s.respondError(c, err)
	}
	response := fiber.Map{
		"new_wrapped": toPaymentResponse(result.NewWrapped),
		"reward":      nil,
	}
	if result.Reward != nil {
		response["reward"] = toPaymentResponse(*result.Reward)
	}
	return c.JSON(response)
}

type configureWrapperRequest struct {
	FarmTokenID    string `json:"farm_token_id" validate:"required"`
	WrappedTokenID string `json:"wrapped_token_id" validate:"required"`
	RewardTokenID  string `json:"reward_token_id" validate:"required"`
}

func (s *APIServer) handleConfigureWrapper(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req configureWrapperRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	err := s.services.Wrapper.Configure(user.Address, req.FarmTokenID, req.WrappedTokenID, req.RewardTokenID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "configured"})
}

func (s *APIServer) handleDepositWrapperRewards(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req wrapRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	payment, err := req.Payment.toPayment()
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.services.Wrapper.DepositRewards(user.Address, payment); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deposited"})
}

type withdrawWrapperRewardsRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func (s *APIServer) handleWithdrawWrapperRewards(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req withdrawWrapperRewardsRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}
	amount, err := parseAmountField(req.Amount, "amount")
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.services.Wrapper.WithdrawRewards(c.UserContext(), user.Address, amount); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "withdrawn"})
}
