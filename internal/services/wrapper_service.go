package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"gorm.io/gorm"
)

// UnwrapResult is what comes out of an unwrap: the original farm token
// share plus any extra rewards accrued since the batch was issued.
type UnwrapResult struct {
	FarmToken models.Payment
	Reward    *models.Payment
}

// ClaimExtraResult pairs the paid-out reward with the reissued wrapped
// token whose entry reward-per-share is reset to the current global value.
type ClaimExtraResult struct {
	Reward     *models.Payment
	NewWrapped models.Payment
}

// WrapperService wraps a foreign farm token into a synthetic token that
// accrues extra rewards. Every wrapped batch carries its entry
// reward-per-share; claims pay the difference against the global counter,
// scaled by the division safety constant.
type WrapperService interface {
	Configure(adminAddress, farmTokenID, wrappedTokenID, rewardTokenID string) error
	GetWrapperSettings() (*models.WrapperSettings, error)

	WrapFarmToken(payment models.Payment) (models.Payment, error)
	UnwrapFarmToken(ctx context.Context, callerAddress string, wrapped models.Payment) (*UnwrapResult, error)
	MergeWrappedTokens(wrapped []models.Payment) (models.Payment, error)
	ClaimExtraRewards(ctx context.Context, callerAddress string, wrapped models.Payment) (*ClaimExtraResult, error)

	DepositRewards(adminAddress string, payment models.Payment) error
	WithdrawRewards(ctx context.Context, adminAddress string, amount *big.Int) error
	GetRewardPool() (*models.WrapperRewardPool, error)
}

type wrapperService struct {
	db          *gorm.DB
	chainClient chain.Client
}

// NewWrapperService creates a new WrapperService
func NewWrapperService(db *gorm.DB, chainClient chain.Client) WrapperService {
	return &wrapperService{db: db, chainClient: chainClient}
}

func (s *wrapperService) Configure(adminAddress, farmTokenID, wrappedTokenID, rewardTokenID string) error {
	if err := s.requireAdmin(adminAddress); err != nil {
		return err
	}
	for _, tokenID := range []string{farmTokenID, wrappedTokenID, rewardTokenID} {
		if !utils.IsValidTokenID(tokenID) {
			return fmt.Errorf("%w: invalid token id %s", ErrInvalidInput, tokenID)
		}
	}
	var settings models.WrapperSettings
	err := s.db.First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	settings.FarmTokenID = farmTokenID
	settings.WrappedTokenID = wrappedTokenID
	settings.RewardTokenID = rewardTokenID
	if settings.RewardPerShare == "" {
		settings.RewardPerShare = "0"
	}
	if settings.TotalWrapped == "" {
		settings.TotalWrapped = "0"
	}
	return s.db.Save(&settings).Error
}

func (s *wrapperService) GetWrapperSettings() (*models.WrapperSettings, error) {
	var settings models.WrapperSettings
	err := s.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: wrapper not configured", ErrStateConflict)
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *wrapperService) requireAdmin(address string) error {
	var count int64
	err := s.db.Model(&models.Admin{}).Where("address = ?", utils.NormalizeAddress(address)).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s is not an admin", ErrNotAdmin, address)
	}
	return nil
}

// WrapFarmToken issues a fresh wrapped batch for a farm token payment. The
// batch enters at the current global reward-per-share, so it accrues only
// rewards deposited after this point.
func (s *wrapperService) WrapFarmToken(payment models.Payment) (models.Payment, error) {
	if payment.IsZero() {
		return models.Payment{}, fmt.Errorf("%w: zero payment", ErrInvalidInput)
	}
	settings, err := s.GetWrapperSettings()
	if err != nil {
		return models.Payment{}, err
	}
	if payment.TokenID != settings.FarmTokenID {
		return models.Payment{}, fmt.Errorf("%w: expected %s, got %s", ErrInvalidInput, settings.FarmTokenID, payment.TokenID)
	}

	rps, err := utils.ParseAmount(settings.RewardPerShare)
	if err != nil {
		return models.Payment{}, err
	}

	var wrapped models.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		settings.LastNonce++
		batch := models.WrappedFarmBatch{
			Nonce: settings.LastNonce,
			Attributes: models.WrappedFarmTokenAttributes{
				OriginalFarmToken: payment.Clone(),
				RewardPerShare:    rps,
				TokenAmount:       new(big.Int).Set(payment.Amount),
			},
		}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}

		total, err := utils.ParseAmount(settings.TotalWrapped)
		if err != nil {
			return err
		}
		settings.TotalWrapped = utils.FormatAmount(total.Add(total, payment.Amount))
		if err := tx.Save(settings).Error; err != nil {
			return err
		}

		wrapped = models.NewPayment(settings.WrappedTokenID, settings.LastNonce, new(big.Int).Set(payment.Amount))
		return nil
	})
	if err != nil {
		return models.Payment{}, err
	}
	return wrapped, nil
}

func (s *wrapperService) getBatch(tx *gorm.DB, nonce uint64) (*models.WrappedFarmBatch, error) {
	var batch models.WrappedFarmBatch
	err := tx.Where("nonce = ?", nonce).First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: unknown wrapped token nonce %d", ErrInvalidInput, nonce)
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// pendingReward computes amount * (globalRps - entryRps) / DivisionSafetyConstant.
func pendingReward(amount, globalRps, entryRps *big.Int) *big.Int {
	diff := new(big.Int).Sub(globalRps, entryRps)
	if diff.Sign() <= 0 {
		return big.NewInt(0)
	}
	reward := new(big.Int).Mul(amount, diff)
	return reward.Div(reward, models.DivisionSafetyConstant)
}

// consumeBatch takes a payment's share out of its batch: the batch shrinks
// proportionally and disappears at zero. Returns the original farm token
// share and the batch's entry reward-per-share.
func (s *wrapperService) consumeBatch(tx *gorm.DB, settings *models.WrapperSettings, payment models.Payment) (models.Payment, *big.Int, error) {
	if payment.TokenID != settings.WrappedTokenID {
		return models.Payment{}, nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidInput, settings.WrappedTokenID, payment.TokenID)
	}
	batch, err := s.getBatch(tx, payment.Nonce)
	if err != nil {
		return models.Payment{}, nil, err
	}
	if payment.Amount.Cmp(batch.Attributes.TokenAmount) > 0 {
		return models.Payment{}, nil, fmt.Errorf("%w: payment exceeds batch amount", ErrInvalidInput)
	}

	// Proportional share of the original farm token.
	originalShare := new(big.Int).Mul(batch.Attributes.OriginalFarmToken.Amount, payment.Amount)
	originalShare.Div(originalShare, batch.Attributes.TokenAmount)
	original := models.NewPayment(
		batch.Attributes.OriginalFarmToken.TokenID,
		batch.Attributes.OriginalFarmToken.Nonce,
		originalShare,
	)

	remaining := new(big.Int).Sub(batch.Attributes.TokenAmount, payment.Amount)
	if remaining.Sign() == 0 {
		if err := tx.Delete(batch).Error; err != nil {
			return models.Payment{}, nil, err
		}
	} else {
		batch.Attributes.TokenAmount = remaining
		batch.Attributes.OriginalFarmToken.Amount = new(big.Int).Sub(batch.Attributes.OriginalFarmToken.Amount, originalShare)
		if err := tx.Save(batch).Error; err != nil {
			return models.Payment{}, nil, err
		}
	}
	return original, batch.Attributes.RewardPerShare, nil
}

// payReward settles a computed reward against the pool and sends it out.
func (s *wrapperService) payReward(ctx context.Context, tx *gorm.DB, settings *models.WrapperSettings, destination string, reward *big.Int) (*models.Payment, error) {
	if reward.Sign() == 0 {
		return nil, nil
	}
	var pool models.WrapperRewardPool
	err := tx.Where("token_id = ?", settings.RewardTokenID).First(&pool).Error
	if err != nil {
		return nil, err
	}
	capacity, err := utils.ParseAmount(pool.Capacity)
	if err != nil {
		return nil, err
	}
	accumulated, err := utils.ParseAmount(pool.Accumulated)
	if err != nil {
		return nil, err
	}
	if reward.Cmp(capacity) > 0 {
		return nil, fmt.Errorf("%w: reward pool underfunded", ErrStateConflict)
	}
	pool.Capacity = utils.FormatAmount(capacity.Sub(capacity, reward))
	if accumulated.Cmp(reward) >= 0 {
		accumulated.Sub(accumulated, reward)
	} else {
		accumulated.SetInt64(0)
	}
	pool.Accumulated = utils.FormatAmount(accumulated)
	if err := tx.Save(&pool).Error; err != nil {
		return nil, err
	}

	payment := models.NewFungiblePayment(settings.RewardTokenID, reward)
	if err := s.chainClient.SendTokens(ctx, destination, []models.Payment{payment}); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *wrapperService) UnwrapFarmToken(ctx context.Context, callerAddress string, wrapped models.Payment) (*UnwrapResult, error) {
	if !utils.IsValidAddress(callerAddress) {
		return nil, fmt.Errorf("%w: invalid caller address", ErrInvalidInput)
	}
	if wrapped.IsZero() {
		return nil, fmt.Errorf("%w: zero payment", ErrInvalidInput)
	}
	settings, err := s.GetWrapperSettings()
	if err != nil {
		return nil, err
	}
	globalRps, err := utils.ParseAmount(settings.RewardPerShare)
	if err != nil {
		return nil, err
	}

	var result UnwrapResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		original, entryRps, err := s.consumeBatch(tx, settings, wrapped)
		if err != nil {
			return err
		}
		reward := pendingReward(wrapped.Amount, globalRps, entryRps)
		rewardPayment, err := s.payReward(ctx, tx, settings, callerAddress, reward)
		if err != nil {
			return err
		}

		total, err := utils.ParseAmount(settings.TotalWrapped)
		if err != nil {
			return err
		}
		settings.TotalWrapped = utils.FormatAmount(total.Sub(total, wrapped.Amount))
		if err := tx.Save(settings).Error; err != nil {
			return err
		}

		result = UnwrapResult{FarmToken: original, Reward: rewardPayment}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MergeWrappedTokens collapses several wrapped payments into one batch with
// an amount-weighted, rounded-up average reward-per-share.
func (s *wrapperService) MergeWrappedTokens(wrapped []models.Payment) (models.Payment, error) {
	if len(wrapped) < 2 {
		return models.Payment{}, fmt.Errorf("%w: merge needs at least two payments", ErrInvalidInput)
	}
	settings, err := s.GetWrapperSettings()
	if err != nil {
		return models.Payment{}, err
	}

	var merged models.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var attrs *models.WrappedFarmTokenAttributes
		for _, payment := range wrapped {
			if payment.IsZero() {
				return fmt.Errorf("%w: zero payment", ErrInvalidInput)
			}
			original, entryRps, err := s.consumeBatch(tx, settings, payment)
			if err != nil {
				return err
			}
			next := models.WrappedFarmTokenAttributes{
				OriginalFarmToken: original,
				RewardPerShare:    entryRps,
				TokenAmount:       new(big.Int).Set(payment.Amount),
			}
			if attrs == nil {
				attrs = &next
			} else {
				combined := attrs.Merge(next)
				attrs = &combined
			}
		}

		settings.LastNonce++
		batch := models.WrappedFarmBatch{Nonce: settings.LastNonce, Attributes: *attrs}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		if err := tx.Save(settings).Error; err != nil {
			return err
		}
		merged = models.NewPayment(settings.WrappedTokenID, settings.LastNonce, new(big.Int).Set(attrs.TokenAmount))
		return nil
	})
	if err != nil {
		return models.Payment{}, err
	}
	return merged, nil
}

// ClaimExtraRewards pays the accrued extra rewards and reissues the wrapped
// token at the current global reward-per-share.
func (s *wrapperService) ClaimExtraRewards(ctx context.Context, callerAddress string, wrapped models.Payment) (*ClaimExtraResult, error) {
	if !utils.IsValidAddress(callerAddress) {
		return nil, fmt.Errorf("%w: invalid caller address", ErrInvalidInput)
	}
	if wrapped.IsZero() {
		return nil, fmt.Errorf("%w: zero payment", ErrInvalidInput)
	}
	settings, err := s.GetWrapperSettings()
	if err != nil {
		return nil, err
	}
	globalRps, err := utils.ParseAmount(settings.RewardPerShare)
	if err != nil {
		return nil, err
	}

	var result ClaimExtraResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		original, entryRps, err := s.consumeBatch(tx, settings, wrapped)
		if err != nil {
			return err
		}
		reward := pendingReward(wrapped.Amount, globalRps, entryRps)
		rewardPayment, err := s.payReward(ctx, tx, settings, callerAddress, reward)
		if err != nil {
			return err
		}

		settings.LastNonce++
		batch := models.WrappedFarmBatch{
			Nonce: settings.LastNonce,
			Attributes: models.WrappedFarmTokenAttributes{
				OriginalFarmToken: original,
				RewardPerShare:    globalRps,
				TokenAmount:       new(big.Int).Set(wrapped.Amount),
			},
		}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		if err := tx.Save(settings).Error; err != nil {
			return err
		}

		result = ClaimExtraResult{
			Reward:     rewardPayment,
			NewWrapped: models.NewPayment(settings.WrappedTokenID, settings.LastNonce, new(big.Int).Set(wrapped.Amount)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DepositRewards adds reward tokens to the pool. With wrapped supply
// outstanding the whole deposit becomes owed immediately through the
// reward-per-share bump; with no supply it stays withdrawable.
func (s *wrapperService) DepositRewards(adminAddress string, payment models.Payment) error {
	if err := s.requireAdmin(adminAddress); err != nil {
		return err
	}
	if payment.IsZero() {
		return fmt.Errorf("%w: zero payment", ErrInvalidInput)
	}
	settings, err := s.GetWrapperSettings()
	if err != nil {
		return err
	}
	if payment.TokenID != settings.RewardTokenID {
		return fmt.Errorf("%w: expected %s, got %s", ErrInvalidInput, settings.RewardTokenID, payment.TokenID)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var pool models.WrapperRewardPool
		err := tx.Where("token_id = ?", settings.RewardTokenID).First(&pool).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pool = models.WrapperRewardPool{TokenID: settings.RewardTokenID, Capacity: "0", Accumulated: "0"}
		} else if err != nil {
			return err
		}

		capacity, err := utils.ParseAmount(pool.Capacity)
		if err != nil {
			return err
		}
		pool.Capacity = utils.FormatAmount(capacity.Add(capacity, payment.Amount))

		total, err := utils.ParseAmount(settings.TotalWrapped)
		if err != nil {
			return err
		}
		if total.Sign() > 0 {
			rps, err := utils.ParseAmount(settings.RewardPerShare)
			if err != nil {
				return err
			}
			increase := new(big.Int).Mul(payment.Amount, models.DivisionSafetyConstant)
			increase.Div(increase, total)
			settings.RewardPerShare = utils.FormatAmount(rps.Add(rps, increase))
			if err := tx.Save(settings).Error; err != nil {
				return err
			}

			accumulated, err := utils.ParseAmount(pool.Accumulated)
			if err != nil {
				return err
			}
			pool.Accumulated = utils.FormatAmount(accumulated.Add(accumulated, payment.Amount))
		}
		return tx.Save(&pool).Error
	})
}

// WithdrawRewards returns undistributed reward tokens to the admin. The
// share already owed to wrapped token holders stays in the pool.
func (s *wrapperService) WithdrawRewards(ctx context.Context, adminAddress string, amount *big.Int) error {
	if err := s.requireAdmin(adminAddress); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	settings, err := s.GetWrapperSettings()
	if err != nil {
		return err
	}

	var payment models.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var pool models.WrapperRewardPool
		if err := tx.Where("token_id = ?", settings.RewardTokenID).First(&pool).Error; err != nil {
			return err
		}
		capacity, err := utils.ParseAmount(pool.Capacity)
		if err != nil {
			return err
		}
		accumulated, err := utils.ParseAmount(pool.Accumulated)
		if err != nil {
			return err
		}
		available := new(big.Int).Sub(capacity, accumulated)
		if amount.Cmp(available) > 0 {
			return fmt.Errorf("%w: only %s withdrawable", ErrStateConflict, available.String())
		}
		pool.Capacity = utils.FormatAmount(capacity.Sub(capacity, amount))
		if err := tx.Save(&pool).Error; err != nil {
			return err
		}
		payment = models.NewFungiblePayment(settings.RewardTokenID, amount)
		return nil
	})
	if err != nil {
		return err
	}
	return s.chainClient.SendTokens(ctx, utils.NormalizeAddress(adminAddress), []models.Payment{payment})
}

func (s *wrapperService) GetRewardPool() (*models.WrapperRewardPool, error) {
	settings, err := s.GetWrapperSettings()
	if err != nil {
		return nil, err
	}
	var pool models.WrapperRewardPool
	err = s.db.Where("token_id = ?", settings.RewardTokenID).First(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.WrapperRewardPool{TokenID: settings.RewardTokenID, Capacity: "0", Accumulated: "0"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &pool, nil
}
