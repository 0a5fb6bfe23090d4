package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateDcaActionParams carries the inputs for a new recurring trade.
type CreateDcaActionParams struct {
	OwnerAddress      string
	TradeFrequency    models.TradeFrequency
	InputTokenID      string
	InputAmountPerRun *big.Int
	OutputTokenID     string
	TotalActions      uint64
}

// DcaService manages recurring trade actions. Execution is split in two:
// ExecuteAction claims the action and hands back a correlation id, the
// caller performs the swap, and HandleActionResult settles the outcome.
// Settlement is idempotent on the correlation id, so a replayed callback
// is a no-op.
type DcaService interface {
	CreateAction(params CreateDcaActionParams) (*models.DcaAction, error)
	GetAction(actionID uint) (*models.DcaAction, error)
	GetActionsForOwner(ownerAddress string) ([]models.DcaAction, error)
	AddTotalActions(ownerAddress string, actionID uint, count uint64) error
	RemoveTotalActions(ownerAddress string, actionID uint, count uint64) error
	ChangeTradeFrequency(ownerAddress string, actionID uint, frequency models.TradeFrequency) error

	SetNrRetries(adminAddress string, nrRetries uint64) error
	GetDcaSettings() (*models.DcaSettings, error)

	DueActions(now time.Time) ([]models.DcaAction, error)
	ExecuteAction(actionID uint) (*models.DcaAction, error)
	HandleActionResult(ctx context.Context, actionID uint, correlationID string, swapErr error, output *models.Payment) error
	RunAction(ctx context.Context, actionID uint) error
}

type dcaService struct {
	db          *gorm.DB
	userService UserService
	chainClient chain.Client
	now         func() time.Time
}

// NewDcaService creates a new DcaService
func NewDcaService(db *gorm.DB, userService UserService, chainClient chain.Client) DcaService {
	return &dcaService{
		db:          db,
		userService: userService,
		chainClient: chainClient,
		now:         time.Now,
	}
}

func (s *dcaService) CreateAction(params CreateDcaActionParams) (*models.DcaAction, error) {
	if !params.TradeFrequency.Valid() {
		return nil, fmt.Errorf("%w: unknown trade frequency %q", ErrInvalidInput, params.TradeFrequency)
	}
	if !utils.IsValidTokenID(params.InputTokenID) {
		return nil, fmt.Errorf("%w: invalid input token id %s", ErrInvalidInput, params.InputTokenID)
	}
	if !utils.IsValidTokenID(params.OutputTokenID) {
		return nil, fmt.Errorf("%w: invalid output token id %s", ErrInvalidInput, params.OutputTokenID)
	}
	if params.InputAmountPerRun == nil || params.InputAmountPerRun.Sign() <= 0 {
		return nil, fmt.Errorf("%w: input amount per run must be positive", ErrInvalidInput)
	}
	if params.TotalActions == 0 {
		return nil, fmt.Errorf("%w: total actions must be positive", ErrInvalidInput)
	}

	ownerID, err := s.userService.GetOrCreateUserID(params.OwnerAddress)
	if err != nil {
		return nil, err
	}

	action := models.DcaAction{
		OwnerID:             ownerID,
		TradeFrequency:      params.TradeFrequency,
		InputTokenID:        params.InputTokenID,
		InputAmountPerRun:   utils.FormatAmount(params.InputAmountPerRun),
		OutputTokenID:       params.OutputTokenID,
		LastActionTimestamp: uint64(s.now().Unix()),
		TotalActionsLeft:    params.TotalActions,
	}
	if err := s.db.Create(&action).Error; err != nil {
		return nil, fmt.Errorf("failed to create dca action: %w", err)
	}
	return &action, nil
}

func (s *dcaService) GetAction(actionID uint) (*models.DcaAction, error) {
	var action models.DcaAction
	err := s.db.First(&action, actionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: action %d", ErrUnknownAction, actionID)
	}
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (s *dcaService) GetActionsForOwner(ownerAddress string) ([]models.DcaAction, error) {
	ownerID, err := s.userService.GetUserIDNonZero(ownerAddress)
	if err != nil {
		return nil, err
	}
	var actions []models.DcaAction
	err = s.db.Where("owner_id = ?", ownerID).Order("id").Find(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

func (s *dcaService) getOwnedAction(ownerAddress string, actionID uint) (*models.DcaAction, error) {
	action, err := s.GetAction(actionID)
	if err != nil {
		return nil, err
	}
	ownerID, err := s.userService.GetUserIDNonZero(ownerAddress)
	if err != nil {
		return nil, err
	}
	if action.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: action %d belongs to another owner", ErrUnauthorized, actionID)
	}
	return action, nil
}

func (s *dcaService) AddTotalActions(ownerAddress string, actionID uint, count uint64) error {
	if count == 0 {
		return fmt.Errorf("%w: count must be positive", ErrInvalidInput)
	}
	action, err := s.getOwnedAction(ownerAddress, actionID)
	if err != nil {
		return err
	}
	action.TotalActionsLeft += count
	return s.db.Save(action).Error
}

// RemoveTotalActions subtracts execution slots. While a run is in flight
// one slot is held back from the subtraction so the ongoing swap can still
// settle.
func (s *dcaService) RemoveTotalActions(ownerAddress string, actionID uint, count uint64) error {
	if count == 0 {
		return fmt.Errorf("%w: count must be positive", ErrInvalidInput)
	}
	action, err := s.getOwnedAction(ownerAddress, actionID)
	if err != nil {
		return err
	}
	effective := count
	if action.ActionInProgress && effective > 0 {
		effective--
	}
	if effective > action.TotalActionsLeft {
		return fmt.Errorf("%w: only %d actions left", ErrInvalidInput, action.TotalActionsLeft)
	}
	action.TotalActionsLeft -= effective
	if action.TotalActionsLeft == 0 && !action.ActionInProgress {
		return s.db.Delete(action).Error
	}
	return s.db.Save(action).Error
}

func (s *dcaService) ChangeTradeFrequency(ownerAddress string, actionID uint, frequency models.TradeFrequency) error {
	if !frequency.Valid() {
		return fmt.Errorf("%w: unknown trade frequency %q", ErrInvalidInput, frequency)
	}
	action, err := s.getOwnedAction(ownerAddress, actionID)
	if err != nil {
		return err
	}
	action.TradeFrequency = frequency
	return s.db.Save(action).Error
}

func (s *dcaService) GetDcaSettings() (*models.DcaSettings, error) {
	var settings models.DcaSettings
	err := s.db.FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *dcaService) SetNrRetries(adminAddress string, nrRetries uint64) error {
	var count int64
	err := s.db.Model(&models.Admin{}).Where("address = ?", utils.NormalizeAddress(adminAddress)).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s is not an admin", ErrNotAdmin, adminAddress)
	}
	settings, err := s.GetDcaSettings()
	if err != nil {
		return err
	}
	settings.NrRetriesAllowed = nrRetries
	return s.db.Save(settings).Error
}

// DueActions returns every action eligible to run at the given instant.
func (s *dcaService) DueActions(now time.Time) ([]models.DcaAction, error) {
	var actions []models.DcaAction
	err := s.db.Where("action_in_progress = ? AND total_actions_left > 0", false).Find(&actions).Error
	if err != nil {
		return nil, err
	}
	ts := uint64(now.Unix())
	due := actions[:0]
	for _, action := range actions {
		if ts >= action.NextActionTimestamp() {
			due = append(due, action)
		}
	}
	return due, nil
}

// ExecuteAction claims an action for execution: it re-checks every
// precondition, flips the in-progress flag and stamps a fresh correlation
// id. The flag flip is a conditional update so two concurrent claims can
// never both win the same slot. The caller then performs the swap and
// settles through HandleActionResult.
func (s *dcaService) ExecuteAction(actionID uint) (*models.DcaAction, error) {
	action, err := s.GetAction(actionID)
	if err != nil {
		return nil, err
	}
	if action.ActionInProgress {
		return nil, fmt.Errorf("%w: action %d already in progress", ErrStateConflict, actionID)
	}
	if action.TotalActionsLeft == 0 {
		return nil, fmt.Errorf("%w: action %d has no runs left", ErrInvalidInput, actionID)
	}
	now := uint64(s.now().Unix())
	if now < action.NextActionTimestamp() {
		return nil, fmt.Errorf("%w: action %d not due until %d", ErrStateConflict, actionID, action.NextActionTimestamp())
	}

	correlationID := uuid.New().String()
	claim := s.db.Model(&models.DcaAction{}).
		Where("id = ? AND action_in_progress = ?", actionID, false).
		Updates(map[string]interface{}{
			"action_in_progress": true,
			"correlation_id":     correlationID,
		})
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: action %d already in progress", ErrStateConflict, actionID)
	}
	action.ActionInProgress = true
	action.CorrelationID = correlationID
	return action, nil
}

// HandleActionResult settles a claimed run. A stale or replayed callback
// (unknown action, mismatched correlation id, flag already cleared) is
// silently dropped. On success the slot is consumed and the output is
// forwarded to the owner; on failure the retry counter grows until the
// budget is exhausted and the action is removed. The input tokens go back
// to the owner on every failure.
//
// The record is settled before any tokens move. A failed transfer then
// surfaces as an error without leaving the action stuck in progress, and
// the next due run picks it up again.
func (s *dcaService) HandleActionResult(ctx context.Context, actionID uint, correlationID string, swapErr error, output *models.Payment) error {
	var action models.DcaAction
	err := s.db.First(&action, actionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !action.ActionInProgress || action.CorrelationID != correlationID {
		return nil
	}

	ownerAddress, err := s.userService.GetUserAddress(action.OwnerID)
	if err != nil {
		return err
	}
	now := uint64(s.now().Unix())

	if swapErr == nil {
		action.TotalActionsLeft--
		action.LastActionTimestamp = now
		action.ActionInProgress = false
		action.Retries = 0
		action.CorrelationID = ""

		if action.TotalActionsLeft == 0 {
			if err := s.db.Delete(&action).Error; err != nil {
				return err
			}
		} else if err := s.db.Save(&action).Error; err != nil {
			return err
		}
		if output != nil && !output.IsZero() && ownerAddress != "" {
			return s.chainClient.SendTokens(ctx, ownerAddress, []models.Payment{*output})
		}
		return nil
	}

	settings, err := s.GetDcaSettings()
	if err != nil {
		return err
	}
	action.Retries++
	if action.Retries > settings.NrRetriesAllowed {
		if err := s.db.Delete(&action).Error; err != nil {
			return err
		}
	} else {
		action.LastActionTimestamp = now
		action.ActionInProgress = false
		action.CorrelationID = ""
		if err := s.db.Save(&action).Error; err != nil {
			return err
		}
	}

	// Failed run: hand the inputs back to the owner.
	if ownerAddress != "" {
		amount, err := utils.ParseAmount(action.InputAmountPerRun)
		if err != nil {
			return err
		}
		refund := models.NewFungiblePayment(action.InputTokenID, amount)
		return s.chainClient.SendTokens(ctx, ownerAddress, []models.Payment{refund})
	}
	return nil
}

// RunAction drives one full execution cycle: claim, swap, settle.
func (s *dcaService) RunAction(ctx context.Context, actionID uint) error {
	action, err := s.ExecuteAction(actionID)
	if err != nil {
		return err
	}

	amount, err := utils.ParseAmount(action.InputAmountPerRun)
	if err != nil {
		return err
	}
	input := models.NewFungiblePayment(action.InputTokenID, amount)

	var output *models.Payment
	pair, swapErr := s.chainClient.GetPair(ctx, action.InputTokenID, action.OutputTokenID)
	if swapErr == nil {
		steps := []chain.SwapStep{{
			PairAddress:   pair,
			OutputTokenID: action.OutputTokenID,
			MinAmountOut:  big.NewInt(1),
		}}
		var swapped models.Payment
		swapped, swapErr = s.chainClient.MultiPairSwap(ctx, steps, input)
		if swapErr == nil {
			output = &swapped
		}
	}

	if err := s.HandleActionResult(ctx, actionID, action.CorrelationID, swapErr, output); err != nil {
		return err
	}
	return swapErr
}
