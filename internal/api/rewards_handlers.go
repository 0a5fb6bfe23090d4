package api

import (
	"errors"

	"github.com/arcline-lab/chainsuite/internal/api/middleware"
	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/gofiber/fiber/v2"
)

type metabondingClaimRequest struct {
	Week             uint64 `json:"week" validate:"required"`
	DelegationAmount string `json:"delegation_amount" validate:"required"`
	LkmexAmount      string `json:"lkmex_amount" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

type claimRewardsRequest struct {
	MetabondingClaims []metabondingClaimRequest `json:"metabonding_claims"`
}

func (s *APIServer) handleClaimRewards(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req claimRewardsRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	claims := make([]chain.MetabondingClaim, 0, len(req.MetabondingClaims))
	for _, claim := range req.MetabondingClaims {
		delegation, err := parseAmountField(claim.DelegationAmount, "delegation_amount")
		if err != nil {
			return s.respondError(c, err)
		}
		lkmex, err := parseAmountField(claim.LkmexAmount, "lkmex_amount")
		if err != nil {
			return s.respondError(c, err)
		}
		claims = append(claims, chain.MetabondingClaim{
			Week:             claim.Week,
			DelegationAmount: delegation,
			LkmexAmount:      lkmex,
			Signature:        []byte(claim.Signature),
		})
	}

	rewards, err := s.services.Rewards.ClaimAllRewards(c.UserContext(), user.Address, claims)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(s.rewardsResponse(rewards))
}

func (s *APIServer) handleGetRewards(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	userID, err := s.services.User.GetUserIDNonZero(user.Address)
	if err != nil {
		return s.respondError(c, err)
	}
	rewards, err := s.services.Position.GetUserRewards(userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(s.rewardsResponse(rewards))
}

type aggregatorSettingsRequest struct {
	LockedTokenID        string `json:"locked_token_id" validate:"required"`
	FeePercentage        uint64 `json:"fee_percentage"`
	ProxyClaimAddress    string `json:"proxy_claim_address"`
	EnergyFactoryAddress string `json:"energy_factory_address"`
	MetabondingAddress   string `json:"metabonding_address"`
	FeesCollectorAddress string `json:"fees_collector_address"`
}

func (s *APIServer) handleSaveRewardsSettings(c *fiber.Ctx) error {
	var req aggregatorSettingsRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	settings, err := s.services.Rewards.GetSettings()
	if errors.Is(err, services.ErrStateConflict) {
		settings = &models.AggregatorSettings{}
	} else if err != nil {
		return s.respondError(c, err)
	}
	settings.LockedTokenID = req.LockedTokenID
	settings.FeePercentage = req.FeePercentage
	settings.ProxyClaimAddress = req.ProxyClaimAddress
	settings.EnergyFactoryAddress = req.EnergyFactoryAddress
	settings.MetabondingAddress = req.MetabondingAddress
	settings.FeesCollectorAddress = req.FeesCollectorAddress
	if err := s.services.Rewards.SaveSettings(settings); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(settings)
}

func (s *APIServer) rewardsResponse(rewards *models.UserRewards) fiber.Map {
	response := fiber.Map{
		"locked_tokens": nil,
		"other_tokens":  []paymentResponse{},
	}
	if rewards == nil {
		return response
	}
	if rewards.LockedTokens != nil {
		locked := toPaymentResponse(*rewards.LockedTokens)
		response["locked_tokens"] = locked
	}
	if rewards.OtherTokens != nil {
		response["other_tokens"] = toPaymentResponses(rewards.OtherTokens.IntoPayments())
	}
	return response
}
