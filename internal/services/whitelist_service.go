package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"gorm.io/gorm"
)

// WhitelistService maintains the farm and metastaking whitelists and their
// cached external token configuration. The token columns double as the
// token -> contract indexes, so whenever a farm is present both of its
// token bindings agree with it.
type WhitelistService interface {
	AddFarms(ctx context.Context, farmAddresses []string) error
	RemoveFarms(farmAddresses []string) error
	GetFarmByAddress(address string) (*models.Farm, error)
	GetFarmForFarmToken(tokenID string) (*models.Farm, error)
	GetFarmForFarmingToken(tokenID string) (*models.Farm, error)
	SetFarmActive(address string, active bool) error

	AddMetastakings(ctx context.Context, addresses []string) error
	RemoveMetastakings(addresses []string) error
	GetMetastakingForDualYieldToken(tokenID string) (*models.Metastaking, error)
	GetMetastakingForLpFarmToken(tokenID string) (*models.Metastaking, error)
}

type whitelistService struct {
	db          *gorm.DB
	chainClient chain.Client
}

// NewWhitelistService creates a new WhitelistService
func NewWhitelistService(db *gorm.DB, chainClient chain.Client) WhitelistService {
	return &whitelistService{db: db, chainClient: chainClient}
}

// AddFarms whitelists the given farms, querying each farm's token
// configuration once. A farming token may only be bound to a single farm.
func (s *whitelistService) AddFarms(ctx context.Context, farmAddresses []string) error {
	for _, address := range farmAddresses {
		if !utils.IsValidAddress(address) {
			return fmt.Errorf("%w: malformed farm address %q", ErrInvalidInput, address)
		}
		address = utils.NormalizeAddress(address)

		existing, err := s.GetFarmByAddress(address)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: farm %s already whitelisted", ErrStateConflict, address)
		}

		config, err := s.chainClient.FarmConfig(ctx, address)
		if err != nil {
			return err
		}

		bound, err := s.GetFarmForFarmingToken(config.FarmingTokenID)
		if err != nil {
			return err
		}
		if bound != nil {
			return fmt.Errorf("%w: %s -> %s", ErrFarmingTokenAlreadyBound, config.FarmingTokenID, bound.Address)
		}

		farm := models.Farm{
			Address:        address,
			FarmTokenID:    config.FarmTokenID,
			FarmingTokenID: config.FarmingTokenID,
			Active:         config.Active,
		}
		if err := s.db.Create(&farm).Error; err != nil {
			return err
		}
	}
	return nil
}

// RemoveFarms delists the given farms. Unknown addresses are skipped so
// removal is idempotent.
func (s *whitelistService) RemoveFarms(farmAddresses []string) error {
	for _, address := range farmAddresses {
		farm, err := s.GetFarmByAddress(utils.NormalizeAddress(address))
		if err != nil {
			return err
		}
		if farm == nil {
			continue
		}
		if err := s.db.Delete(farm).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *whitelistService) GetFarmByAddress(address string) (*models.Farm, error) {
	var farm models.Farm
	err := s.db.Where("address = ?", utils.NormalizeAddress(address)).First(&farm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &farm, nil
}

func (s *whitelistService) GetFarmForFarmToken(tokenID string) (*models.Farm, error) {
	var farm models.Farm
	err := s.db.Where("farm_token_id = ?", tokenID).First(&farm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &farm, nil
}

func (s *whitelistService) GetFarmForFarmingToken(tokenID string) (*models.Farm, error) {
	var farm models.Farm
	err := s.db.Where("farming_token_id = ?", tokenID).First(&farm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &farm, nil
}

func (s *whitelistService) SetFarmActive(address string, active bool) error {
	farm, err := s.GetFarmByAddress(address)
	if err != nil {
		return err
	}
	if farm == nil {
		return fmt.Errorf("%w: farm %s not whitelisted", ErrInvalidInput, address)
	}
	return s.db.Model(farm).Update("active", active).Error
}

// AddMetastakings whitelists metastaking contracts, caching their token
// configuration the same way AddFarms does.
func (s *whitelistService) AddMetastakings(ctx context.Context, addresses []string) error {
	for _, address := range addresses {
		if !utils.IsValidAddress(address) {
			return fmt.Errorf("%w: malformed metastaking address %q", ErrInvalidInput, address)
		}
		address = utils.NormalizeAddress(address)

		var existing models.Metastaking
		err := s.db.Where("address = ?", address).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: metastaking %s already whitelisted", ErrStateConflict, address)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		config, err := s.chainClient.MetastakingConfig(ctx, address)
		if err != nil {
			return err
		}

		record := models.Metastaking{
			Address:          address,
			DualYieldTokenID: config.DualYieldTokenID,
			LpFarmTokenID:    config.LpFarmTokenID,
		}
		if err := s.db.Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *whitelistService) RemoveMetastakings(addresses []string) error {
	for _, address := range addresses {
		var record models.Metastaking
		err := s.db.Where("address = ?", utils.NormalizeAddress(address)).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := s.db.Delete(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *whitelistService) GetMetastakingForDualYieldToken(tokenID string) (*models.Metastaking, error) {
	var record models.Metastaking
	err := s.db.Where("dual_yield_token_id = ?", tokenID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *whitelistService) GetMetastakingForLpFarmToken(tokenID string) (*models.Metastaking, error) {
	var record models.Metastaking
	err := s.db.Where("lp_farm_token_id = ?", tokenID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
