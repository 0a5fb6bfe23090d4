package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"gorm.io/gorm"
)

// RewardsService orchestrates the claim pipeline: claim from every reward
// source, classify locked vs other tokens, collapse the locked list through
// the external merge primitive, take the protocol fee and fold the result
// into the user's stored rewards. All external legs run before any state is
// committed, so a failed claim leaves no partial state behind.
type RewardsService interface {
	ClaimAllRewards(ctx context.Context, userAddress string, metabondingClaims []chain.MetabondingClaim) (*models.UserRewards, error)
	// WithdrawAllAndUnregister drains the user's holdings and pending
	// rewards, sends everything back and removes the registration.
	WithdrawAllAndUnregister(ctx context.Context, userAddress string) error
	GetSettings() (*models.AggregatorSettings, error)
	SaveSettings(settings *models.AggregatorSettings) error
}

type rewardsService struct {
	db               *gorm.DB
	userService      UserService
	positionService  PositionService
	whitelistService WhitelistService
	chainClient      chain.Client
}

// NewRewardsService creates a new RewardsService
func NewRewardsService(
	db *gorm.DB,
	userService UserService,
	positionService PositionService,
	whitelistService WhitelistService,
	chainClient chain.Client,
) RewardsService {
	return &rewardsService{
		db:               db,
		userService:      userService,
		positionService:  positionService,
		whitelistService: whitelistService,
		chainClient:      chainClient,
	}
}

func (s *rewardsService) GetSettings() (*models.AggregatorSettings, error) {
	var settings models.AggregatorSettings
	err := s.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: aggregator not configured", ErrStateConflict)
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *rewardsService) SaveSettings(settings *models.AggregatorSettings) error {
	if settings.FeePercentage > models.MaxPercentage {
		return fmt.Errorf("%w: fee percentage above %d", ErrInvalidInput, models.MaxPercentage)
	}
	return s.db.Save(settings).Error
}

// farmPositionUpdate is a deferred position replacement, applied only after
// every external call has succeeded.
type farmPositionUpdate struct {
	farmID   uint
	newToken models.Payment
}

func (s *rewardsService) ClaimAllRewards(ctx context.Context, userAddress string, metabondingClaims []chain.MetabondingClaim) (*models.UserRewards, error) {
	userID, err := s.userService.GetUserIDNonZero(userAddress)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}

	wrapper := models.NewRewardsWrapper(settings.LockedTokenID)

	// Fees collector. The contract keeps the locked payment last, so the
	// claim order is already classification order.
	collected, err := s.chainClient.ClaimFeesCollectorRewards(ctx, userAddress)
	if err != nil {
		return nil, err
	}
	for _, payment := range collected {
		wrapper.AddPayment(payment)
	}

	// Metabonding makes no ordering promise; sort locked-last before
	// classifying.
	if len(metabondingClaims) > 0 {
		claimed, err := s.chainClient.ClaimMetabondingRewards(ctx, userAddress, metabondingClaims)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(claimed, func(i, j int) bool {
			return claimed[i].TokenID != settings.LockedTokenID && claimed[j].TokenID == settings.LockedTokenID
		})
		for _, payment := range claimed {
			wrapper.AddPayment(payment)
		}
	}

	// Farm claims. Inactive farms are skipped and their tokens kept as-is.
	positions, err := s.positionService.GetFarmPositions(userID)
	if err != nil {
		return nil, err
	}
	var updates []farmPositionUpdate
	for _, position := range positions {
		var farm models.Farm
		if err := s.db.First(&farm, position.FarmID).Error; err != nil {
			return nil, err
		}
		if !farm.Active {
			continue
		}

		amount, err := utils.ParseAmount(position.Amount)
		if err != nil {
			return nil, err
		}
		farmToken := models.NewPayment(position.TokenID, position.Nonce, amount)
		result, err := s.chainClient.ClaimFarmRewards(ctx, farm.Address, userAddress, farmToken)
		if err != nil {
			return nil, err
		}
		wrapper.AddPayment(result.Reward)
		updates = append(updates, farmPositionUpdate{farmID: farm.ID, newToken: result.NewFarmToken})
	}

	merged, err := s.mergeLockedTokens(ctx, wrapper)
	if err != nil {
		return nil, err
	}

	merged, feePayments := s.takeFees(merged, settings.FeePercentage)

	rewards, err := s.foldIntoUserRewards(ctx, userID, merged)
	if err != nil {
		return nil, err
	}

	// All external legs are done; commit local state atomically.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			if err := s.positionService.ReplaceFarmPosition(userID, update.farmID, update.newToken); err != nil {
				return err
			}
		}
		if len(feePayments) > 0 {
			if err := s.positionService.AccumulateFees(feePayments); err != nil {
				return err
			}
		}
		return s.positionService.SaveUserRewards(rewards)
	})
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

// mergeLockedTokens collapses the wrapper's locked list into a single
// optional payment: empty stays empty, a single entry stands for itself and
// anything longer goes through the external merge call.
func (s *rewardsService) mergeLockedTokens(ctx context.Context, wrapper *models.RewardsWrapper) (models.MergedRewardsWrapper, error) {
	merged := models.MergedRewardsWrapper{OtherTokens: wrapper.OtherTokens}

	locked := wrapper.LockedTokens.IntoPayments()
	switch len(locked) {
	case 0:
	case 1:
		payment := locked[0].Clone()
		merged.OptLockedTokens = &payment
	default:
		payment, err := s.chainClient.MergeTokens(ctx, locked)
		if err != nil {
			return models.MergedRewardsWrapper{}, err
		}
		merged.OptLockedTokens = &payment
	}
	return merged, nil
}

// takeFees deducts the protocol share from every entry of the merged
// wrapper. Fees round down; the remainder stays with the user.
func (s *rewardsService) takeFees(merged models.MergedRewardsWrapper, feePercent uint64) (models.MergedRewardsWrapper, []models.Payment) {
	if feePercent == 0 {
		return merged, nil
	}

	var feePayments []models.Payment

	if merged.OptLockedTokens != nil {
		fee, remainder := utils.TakeFeePercentage(merged.OptLockedTokens.Amount, feePercent)
		if fee.Sign() > 0 {
			feePayments = append(feePayments, models.NewPayment(merged.OptLockedTokens.TokenID, merged.OptLockedTokens.Nonce, fee))
		}
		merged.OptLockedTokens.Amount = remainder
	}

	remaining := models.NewUniquePayments()
	for _, payment := range merged.OtherTokens.IntoPayments() {
		fee, remainder := utils.TakeFeePercentage(payment.Amount, feePercent)
		if fee.Sign() > 0 {
			feePayments = append(feePayments, models.NewPayment(payment.TokenID, payment.Nonce, fee))
		}
		remaining.AddPayment(models.NewPayment(payment.TokenID, payment.Nonce, remainder))
	}
	merged.OtherTokens = remaining

	return merged, feePayments
}

// foldIntoUserRewards merges the claim result into the user's stored
// rewards. Locked tokens with matching nonces sum trivially; different
// nonces go through a fresh external merge.
func (s *rewardsService) foldIntoUserRewards(ctx context.Context, userID uint, merged models.MergedRewardsWrapper) (*models.UserRewards, error) {
	rewards, err := s.positionService.GetUserRewards(userID)
	if err != nil {
		return nil, err
	}
	if rewards == nil {
		rewards = &models.UserRewards{
			UserID:      userID,
			OtherTokens: models.NewUniquePayments(),
		}
	}
	if rewards.OtherTokens == nil {
		rewards.OtherTokens = models.NewUniquePayments()
	}

	if merged.OptLockedTokens != nil {
		switch {
		case rewards.LockedTokens == nil:
			rewards.LockedTokens = merged.OptLockedTokens
		case rewards.LockedTokens.CanMergeWith(*merged.OptLockedTokens):
			sum := rewards.LockedTokens.Clone()
			sum.Amount.Add(sum.Amount, merged.OptLockedTokens.Amount)
			rewards.LockedTokens = &sum
		default:
			remerged, err := s.chainClient.MergeTokens(ctx, []models.Payment{*rewards.LockedTokens, *merged.OptLockedTokens})
			if err != nil {
				return nil, err
			}
			rewards.LockedTokens = &remerged
		}
	}

	rewards.OtherTokens.MergeWith(merged.OtherTokens)
	return rewards, nil
}

func (s *rewardsService) WithdrawAllAndUnregister(ctx context.Context, userAddress string) error {
	userID, err := s.userService.GetUserIDNonZero(userAddress)
	if err != nil {
		return err
	}

	// Gather everything first and send before touching local state, so a
	// failed transfer keeps the holdings on record.
	farmPositions, err := s.positionService.GetFarmPositions(userID)
	if err != nil {
		return err
	}
	metaPositions, err := s.positionService.GetMetastakingPositions(userID)
	if err != nil {
		return err
	}
	rewards, err := s.positionService.GetUserRewards(userID)
	if err != nil {
		return err
	}

	var payments []models.Payment
	for _, position := range farmPositions {
		amount, err := utils.ParseAmount(position.Amount)
		if err != nil {
			return err
		}
		payments = append(payments, models.NewPayment(position.TokenID, position.Nonce, amount))
	}
	for _, position := range metaPositions {
		amount, err := utils.ParseAmount(position.Amount)
		if err != nil {
			return err
		}
		payments = append(payments, models.NewPayment(position.TokenID, position.Nonce, amount))
	}
	if rewards != nil {
		if rewards.LockedTokens != nil {
			payments = append(payments, *rewards.LockedTokens)
		}
		if rewards.OtherTokens != nil {
			payments = append(payments, rewards.OtherTokens.IntoPayments()...)
		}
	}

	if len(payments) > 0 {
		if err := s.chainClient.SendTokens(ctx, userAddress, payments); err != nil {
			return err
		}
	}

	if _, _, _, err := s.positionService.WithdrawAll(userID); err != nil {
		return err
	}
	_, err = s.userService.RemoveUserByAddress(userAddress)
	return err
}
