package services

import (
	"errors"
	"fmt"

	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"gorm.io/gorm"
)

// PositionService stores per-user farm and metastaking token holdings plus
// the user's accumulated rewards wrapper.
type PositionService interface {
	DepositFarmToken(userID uint, payment models.Payment) error
	DepositMetastakingToken(userID uint, payment models.Payment) error
	GetFarmPositions(userID uint) ([]models.FarmPosition, error)
	GetMetastakingPositions(userID uint) ([]models.MetastakingPosition, error)
	// ReplaceFarmPosition swaps a user's holding for one farm with the
	// newly issued farm token.
	ReplaceFarmPosition(userID, farmID uint, newToken models.Payment) error

	GetUserRewards(userID uint) (*models.UserRewards, error)
	SaveUserRewards(rewards *models.UserRewards) error

	// WithdrawAll drains and returns everything the user holds: farm
	// tokens, metastaking tokens and the pending rewards wrapper.
	WithdrawAll(userID uint) ([]models.Payment, []models.Payment, *models.UserRewards, error)

	AccumulateFees(payments []models.Payment) error
	GetAccumulatedFees() (*models.UniquePayments, error)
}

type positionService struct {
	db               *gorm.DB
	whitelistService WhitelistService
}

// NewPositionService creates a new PositionService
func NewPositionService(db *gorm.DB, whitelistService WhitelistService) PositionService {
	return &positionService{db: db, whitelistService: whitelistService}
}

func (s *positionService) DepositFarmToken(userID uint, payment models.Payment) error {
	if payment.IsZero() {
		return fmt.Errorf("%w: zero amount payment", ErrInvalidInput)
	}

	farm, err := s.whitelistService.GetFarmForFarmToken(payment.TokenID)
	if err != nil {
		return err
	}
	if farm == nil {
		return fmt.Errorf("%w: token %s is not a whitelisted farm token", ErrStateConflict, payment.TokenID)
	}

	var position models.FarmPosition
	err = s.db.Where("user_id = ? AND farm_id = ? AND token_id = ? AND nonce = ?",
		userID, farm.ID, payment.TokenID, payment.Nonce).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		position = models.FarmPosition{
			UserID:  userID,
			FarmID:  farm.ID,
			TokenID: payment.TokenID,
			Nonce:   payment.Nonce,
			Amount:  utils.FormatAmount(payment.Amount),
		}
		return s.db.Create(&position).Error
	}
	if err != nil {
		return err
	}

	current, err := utils.ParseAmount(position.Amount)
	if err != nil {
		return err
	}
	current.Add(current, payment.Amount)
	return s.db.Model(&position).Update("amount", utils.FormatAmount(current)).Error
}

func (s *positionService) DepositMetastakingToken(userID uint, payment models.Payment) error {
	if payment.IsZero() {
		return fmt.Errorf("%w: zero amount payment", ErrInvalidInput)
	}

	record, err := s.whitelistService.GetMetastakingForDualYieldToken(payment.TokenID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: token %s is not a whitelisted dual yield token", ErrStateConflict, payment.TokenID)
	}

	var position models.MetastakingPosition
	err = s.db.Where("user_id = ? AND metastaking_id = ? AND token_id = ? AND nonce = ?",
		userID, record.ID, payment.TokenID, payment.Nonce).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		position = models.MetastakingPosition{
			UserID:        userID,
			MetastakingID: record.ID,
			TokenID:       payment.TokenID,
			Nonce:         payment.Nonce,
			Amount:        utils.FormatAmount(payment.Amount),
		}
		return s.db.Create(&position).Error
	}
	if err != nil {
		return err
	}

	current, err := utils.ParseAmount(position.Amount)
	if err != nil {
		return err
	}
	current.Add(current, payment.Amount)
	return s.db.Model(&position).Update("amount", utils.FormatAmount(current)).Error
}

func (s *positionService) GetFarmPositions(userID uint) ([]models.FarmPosition, error) {
	var positions []models.FarmPosition
	err := s.db.Where("user_id = ?", userID).Order("id").Find(&positions).Error
	return positions, err
}

func (s *positionService) GetMetastakingPositions(userID uint) ([]models.MetastakingPosition, error) {
	var positions []models.MetastakingPosition
	err := s.db.Where("user_id = ?", userID).Order("id").Find(&positions).Error
	return positions, err
}

func (s *positionService) ReplaceFarmPosition(userID, farmID uint, newToken models.Payment) error {
	if err := s.db.Where("user_id = ? AND farm_id = ?", userID, farmID).
		Delete(&models.FarmPosition{}).Error; err != nil {
		return err
	}
	if newToken.IsZero() {
		return nil
	}
	position := models.FarmPosition{
		UserID:  userID,
		FarmID:  farmID,
		TokenID: newToken.TokenID,
		Nonce:   newToken.Nonce,
		Amount:  utils.FormatAmount(newToken.Amount),
	}
	return s.db.Create(&position).Error
}

func (s *positionService) GetUserRewards(userID uint) (*models.UserRewards, error) {
	var rewards models.UserRewards
	err := s.db.Where("user_id = ?", userID).First(&rewards).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rewards, nil
}

func (s *positionService) SaveUserRewards(rewards *models.UserRewards) error {
	return s.db.Save(rewards).Error
}

func (s *positionService) WithdrawAll(userID uint) ([]models.Payment, []models.Payment, *models.UserRewards, error) {
	farmPositions, err := s.GetFarmPositions(userID)
	if err != nil {
		return nil, nil, nil, err
	}
	metaPositions, err := s.GetMetastakingPositions(userID)
	if err != nil {
		return nil, nil, nil, err
	}
	rewards, err := s.GetUserRewards(userID)
	if err != nil {
		return nil, nil, nil, err
	}

	farmTokens := make([]models.Payment, 0, len(farmPositions))
	for _, p := range farmPositions {
		amount, err := utils.ParseAmount(p.Amount)
		if err != nil {
			return nil, nil, nil, err
		}
		farmTokens = append(farmTokens, models.NewPayment(p.TokenID, p.Nonce, amount))
	}
	metaTokens := make([]models.Payment, 0, len(metaPositions))
	for _, p := range metaPositions {
		amount, err := utils.ParseAmount(p.Amount)
		if err != nil {
			return nil, nil, nil, err
		}
		metaTokens = append(metaTokens, models.NewPayment(p.TokenID, p.Nonce, amount))
	}

	if err := s.db.Where("user_id = ?", userID).Delete(&models.FarmPosition{}).Error; err != nil {
		return nil, nil, nil, err
	}
	if err := s.db.Where("user_id = ?", userID).Delete(&models.MetastakingPosition{}).Error; err != nil {
		return nil, nil, nil, err
	}
	if rewards != nil {
		if err := s.db.Delete(rewards).Error; err != nil {
			return nil, nil, nil, err
		}
	}

	return farmTokens, metaTokens, rewards, nil
}

func (s *positionService) AccumulateFees(payments []models.Payment) error {
	var accumulator models.FeeAccumulator
	err := s.db.First(&accumulator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		accumulator = models.FeeAccumulator{Tokens: models.NewUniquePayments()}
	} else if err != nil {
		return err
	}
	if accumulator.Tokens == nil {
		accumulator.Tokens = models.NewUniquePayments()
	}

	for _, p := range payments {
		accumulator.Tokens.AddPayment(p)
	}
	return s.db.Save(&accumulator).Error
}

func (s *positionService) GetAccumulatedFees() (*models.UniquePayments, error) {
	var accumulator models.FeeAccumulator
	err := s.db.First(&accumulator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewUniquePayments(), nil
	}
	if err != nil {
		return nil, err
	}
	if accumulator.Tokens == nil {
		return models.NewUniquePayments(), nil
	}
	return accumulator.Tokens, nil
}
