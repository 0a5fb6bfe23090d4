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

var deployActionTypes = map[models.DeployActionType]bool{
	models.DeployActionNone:          true,
	models.DeployActionLiquidityPool: true,
	models.DeployActionSimpleLock:    true,
	models.DeployActionProxyDex:      true,
	models.DeployActionFarm:          true,
	models.DeployActionFarmStaking:   true,
	models.DeployActionMetastaking:   true,
}

// DeployFee is the resolved fee for one deployment action.
type DeployFee struct {
	TokenID string
	Amount  *big.Int
}

// DeployerService instantiates exchange contracts from pre-deployed
// templates. Deployments are gated on the paused flag and charge a
// per-action fee; the fee table may only change while the deployer is
// paused.
type DeployerService interface {
	Deploy(ctx context.Context, callerAddress string, actionType models.DeployActionType, templateAddress string, templateValues models.JSON) (*models.DeployedContract, error)
	GetDeployments(ownerAddress string) ([]models.DeployedContract, error)
	GetActionFee(actionType models.DeployActionType) (*DeployFee, error)

	Pause(adminAddress string) error
	Unpause(adminAddress string) error
	SetActionFee(adminAddress string, actionType models.DeployActionType, feeTokenID string, feeAmount *big.Int) error
	SetDefaultFee(adminAddress string, feeTokenID string, feeAmount *big.Int) error
	GetDeployerSettings() (*models.DeployerSettings, error)
}

type deployerService struct {
	db          *gorm.DB
	userService UserService
	chainClient chain.Client
}

// NewDeployerService creates a new DeployerService
func NewDeployerService(db *gorm.DB, userService UserService, chainClient chain.Client) DeployerService {
	return &deployerService{db: db, userService: userService, chainClient: chainClient}
}

func (s *deployerService) GetDeployerSettings() (*models.DeployerSettings, error) {
	var settings models.DeployerSettings
	err := s.db.FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *deployerService) requireAdmin(address string) error {
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

func (s *deployerService) Pause(adminAddress string) error {
	return s.setPaused(adminAddress, true)
}

func (s *deployerService) Unpause(adminAddress string) error {
	return s.setPaused(adminAddress, false)
}

func (s *deployerService) setPaused(adminAddress string, paused bool) error {
	if err := s.requireAdmin(adminAddress); err != nil {
		return err
	}
	settings, err := s.GetDeployerSettings()
	if err != nil {
		return err
	}
	settings.Paused = paused
	return s.db.Save(settings).Error
}

// GetActionFee resolves the fee for an action, falling back to the default
// fee when no per-action override exists.
func (s *deployerService) GetActionFee(actionType models.DeployActionType) (*DeployFee, error) {
	if !deployActionTypes[actionType] {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidInput, actionType)
	}

	var fee models.DeployActionFee
	err := s.db.Where("action_type = ?", actionType).First(&fee).Error
	if err == nil {
		amount, err := utils.ParseAmount(fee.FeeAmount)
		if err != nil {
			return nil, err
		}
		return &DeployFee{TokenID: fee.FeeTokenID, Amount: amount}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings, err := s.GetDeployerSettings()
	if err != nil {
		return nil, err
	}
	if settings.DefaultFeeTokenID == "" {
		return &DeployFee{Amount: big.NewInt(0)}, nil
	}
	amount, err := utils.ParseAmount(settings.DefaultFeeAmount)
	if err != nil {
		return nil, err
	}
	return &DeployFee{TokenID: settings.DefaultFeeTokenID, Amount: amount}, nil
}

// SetActionFee overrides the fee for one action type. Rejected unless the
// deployer is paused.
func (s *deployerService) SetActionFee(adminAddress string, actionType models.DeployActionType, feeTokenID string, feeAmount *big.Int) error {
	if !deployActionTypes[actionType] {
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidInput, actionType)
	}
	if !utils.IsValidTokenID(feeTokenID) {
		return fmt.Errorf("%w: invalid fee token id %s", ErrInvalidInput, feeTokenID)
	}
	if feeAmount == nil || feeAmount.Sign() < 0 {
		return fmt.Errorf("%w: fee amount must not be negative", ErrInvalidInput)
	}
	if err := s.requirePausedAdmin(adminAddress); err != nil {
		return err
	}

	var fee models.DeployActionFee
	err := s.db.Where("action_type = ?", actionType).First(&fee).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	fee.ActionType = actionType
	fee.FeeTokenID = feeTokenID
	fee.FeeAmount = utils.FormatAmount(feeAmount)
	return s.db.Save(&fee).Error
}

// SetDefaultFee changes the fallback fee. Rejected unless the deployer is
// paused.
func (s *deployerService) SetDefaultFee(adminAddress string, feeTokenID string, feeAmount *big.Int) error {
	if !utils.IsValidTokenID(feeTokenID) {
		return fmt.Errorf("%w: invalid fee token id %s", ErrInvalidInput, feeTokenID)
	}
	if feeAmount == nil || feeAmount.Sign() < 0 {
		return fmt.Errorf("%w: fee amount must not be negative", ErrInvalidInput)
	}
	if err := s.requirePausedAdmin(adminAddress); err != nil {
		return err
	}
	settings, err := s.GetDeployerSettings()
	if err != nil {
		return err
	}
	settings.DefaultFeeTokenID = feeTokenID
	settings.DefaultFeeAmount = utils.FormatAmount(feeAmount)
	return s.db.Save(settings).Error
}

func (s *deployerService) requirePausedAdmin(adminAddress string) error {
	if err := s.requireAdmin(adminAddress); err != nil {
		return err
	}
	settings, err := s.GetDeployerSettings()
	if err != nil {
		return err
	}
	if !settings.Paused {
		return fmt.Errorf("%w: fee table is only mutable while paused", ErrContractPaused)
	}
	return nil
}

func (s *deployerService) Deploy(ctx context.Context, callerAddress string, actionType models.DeployActionType, templateAddress string, templateValues models.JSON) (*models.DeployedContract, error) {
	if !deployActionTypes[actionType] {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidInput, actionType)
	}
	if !utils.IsValidAddress(templateAddress) {
		return nil, fmt.Errorf("%w: invalid template address", ErrInvalidInput)
	}
	settings, err := s.GetDeployerSettings()
	if err != nil {
		return nil, err
	}
	if settings.Paused {
		return nil, fmt.Errorf("%w: deployer is paused", ErrContractPaused)
	}

	ownerID, err := s.userService.GetOrCreateUserID(callerAddress)
	if err != nil {
		return nil, err
	}
	fee, err := s.GetActionFee(actionType)
	if err != nil {
		return nil, err
	}

	contractAddress, err := s.chainClient.DeployTemplate(ctx, utils.NormalizeAddress(templateAddress), templateValues)
	if err != nil {
		return nil, err
	}

	deployed := models.DeployedContract{
		OwnerID:         ownerID,
		ActionType:      actionType,
		TemplateAddress: utils.NormalizeAddress(templateAddress),
		ContractAddress: contractAddress,
		TemplateValues:  templateValues,
		FeeTokenID:      fee.TokenID,
		FeePaid:         utils.FormatAmount(fee.Amount),
	}
	if err := s.db.Create(&deployed).Error; err != nil {
		return nil, fmt.Errorf("failed to record deployment: %w", err)
	}
	return &deployed, nil
}

func (s *deployerService) GetDeployments(ownerAddress string) ([]models.DeployedContract, error) {
	ownerID, err := s.userService.GetUserIDNonZero(ownerAddress)
	if err != nil {
		return nil, err
	}
	var deployments []models.DeployedContract
	err = s.db.Where("owner_id = ?", ownerID).Order("id").Find(&deployments).Error
	if err != nil {
		return nil, err
	}
	return deployments, nil
}
