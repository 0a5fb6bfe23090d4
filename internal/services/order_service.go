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
	"gorm.io/gorm"
)

// CreateOrderParams carries everything needed to open an order.
type CreateOrderParams struct {
	MakerAddress       string
	InputTokenID       string
	InputAmount        *big.Int
	OutputTokenID      string
	MinTotalOutput     *big.Int
	ExecutorFeePercent uint64
	Duration           time.Duration
}

// PruneResult reports how an expired order's balance was split.
type PruneResult struct {
	PrunerAmount *big.Int
	MakerAmount  *big.Int
}

// OrderService manages the limit-order book. Orders move from open to a
// terminal state exactly once; terminal orders are soft deleted so their
// ids are never handed out again.
type OrderService interface {
	CreateOrder(params CreateOrderParams) (*models.Order, error)
	CancelOrder(ctx context.Context, makerAddress string, orderID uint) error
	PruneOrder(ctx context.Context, prunerAddress string, orderID uint) (*PruneResult, error)
	GetOrder(orderID uint) (*models.Order, error)
	GetOrders(startID uint, limit int) ([]models.Order, error)

	AddAdmin(address string) error
	RemoveAdmin(address string) error
	IsAdmin(address string) (bool, error)
	Pause(adminAddress string) error
	Unpause(adminAddress string) error
	SetRouterAddress(adminAddress, routerAddress string) error
	SetTreasuryAddress(adminAddress, treasuryAddress string) error
	SetPruningFee(adminAddress string, feePercent uint64) error
	SetP2PProtocolFee(adminAddress string, feePercent uint64) error
	GetOrderBookSettings() (*models.OrderBookSettings, error)
}

type orderService struct {
	db          *gorm.DB
	userService UserService
	chainClient chain.Client
	now         func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(db *gorm.DB, userService UserService, chainClient chain.Client) OrderService {
	return &orderService{
		db:          db,
		userService: userService,
		chainClient: chainClient,
		now:         time.Now,
	}
}

func (s *orderService) CreateOrder(params CreateOrderParams) (*models.Order, error) {
	if !utils.IsValidTokenID(params.InputTokenID) {
		return nil, fmt.Errorf("%w: invalid input token id %s", ErrInvalidInput, params.InputTokenID)
	}
	if !utils.IsValidTokenID(params.OutputTokenID) {
		return nil, fmt.Errorf("%w: invalid output token id %s", ErrInvalidInput, params.OutputTokenID)
	}
	if params.InputAmount == nil || params.InputAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: input amount must be positive", ErrInvalidInput)
	}
	if params.MinTotalOutput == nil || params.MinTotalOutput.Sign() <= 0 {
		return nil, fmt.Errorf("%w: minimum output must be positive", ErrInvalidInput)
	}
	if !utils.IsValidPercentage(params.ExecutorFeePercent) {
		return nil, fmt.Errorf("%w: executor fee above %d", ErrInvalidInput, models.MaxPercentage)
	}
	if params.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	makerID, err := s.userService.GetOrCreateUserID(params.MakerAddress)
	if err != nil {
		return nil, err
	}

	now := uint64(s.now().Unix())
	order := models.Order{
		MakerID:             makerID,
		InputTokenID:        params.InputTokenID,
		OutputTokenID:       params.OutputTokenID,
		InitialInputAmount:  utils.FormatAmount(params.InputAmount),
		CurrentInputAmount:  utils.FormatAmount(params.InputAmount),
		MinTotalOutput:      utils.FormatAmount(params.MinTotalOutput),
		ExecutorFeePercent:  params.ExecutorFeePercent,
		CreationTimestamp:   now,
		ExpirationTimestamp: now + uint64(params.Duration/time.Second),
		Status:              models.OrderStatusOpen,
	}
	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order, nil
}

func (s *orderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrUnknownOrder, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders scans forward from startID, skipping slots cleared by
// cancellation or pruning.
func (s *orderService) GetOrders(startID uint, limit int) ([]models.Order, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	var orders []models.Order
	err := s.db.Where("id >= ?", startID).Order("id").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *orderService) CancelOrder(ctx context.Context, makerAddress string, orderID uint) error {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return err
	}
	makerID, err := s.userService.GetUserIDNonZero(makerAddress)
	if err != nil {
		return err
	}
	if order.MakerID != makerID {
		return fmt.Errorf("%w: only the maker may cancel", ErrUnauthorized)
	}

	amount, err := utils.ParseAmount(order.CurrentInputAmount)
	if err != nil {
		return err
	}
	if amount.Sign() > 0 {
		refund := models.NewFungiblePayment(order.InputTokenID, amount)
		if err := s.chainClient.SendTokens(ctx, makerAddress, []models.Payment{refund}); err != nil {
			return err
		}
	}

	return s.closeOrder(order, models.OrderStatusCancelled)
}

// PruneOrder clears an expired order. Anyone may call it; the pruner keeps
// the pruning fee and the maker gets the remainder.
func (s *orderService) PruneOrder(ctx context.Context, prunerAddress string, orderID uint) (*PruneResult, error) {
	if !utils.IsValidAddress(prunerAddress) {
		return nil, fmt.Errorf("%w: invalid pruner address", ErrInvalidInput)
	}
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	now := uint64(s.now().Unix())
	if now < order.ExpirationTimestamp {
		return nil, fmt.Errorf("%w: order %d has not expired", ErrStateConflict, orderID)
	}

	settings, err := s.GetOrderBookSettings()
	if err != nil {
		return nil, err
	}
	amount, err := utils.ParseAmount(order.CurrentInputAmount)
	if err != nil {
		return nil, err
	}
	prunerAmount, makerAmount := utils.TakeFeePercentage(amount, settings.PruningFeePercent)

	makerAddress, err := s.userService.GetUserAddress(order.MakerID)
	if err != nil {
		return nil, err
	}
	// The maker remainder has nowhere to go without a registered maker
	// address. Refuse to prune rather than strand the funds.
	if makerAmount.Sign() > 0 && makerAddress == "" {
		return nil, fmt.Errorf("%w: maker of order %d is no longer registered", ErrStateConflict, orderID)
	}
	if prunerAmount.Sign() > 0 {
		payment := models.NewFungiblePayment(order.InputTokenID, prunerAmount)
		if err := s.chainClient.SendTokens(ctx, prunerAddress, []models.Payment{payment}); err != nil {
			return nil, err
		}
	}
	if makerAmount.Sign() > 0 {
		payment := models.NewFungiblePayment(order.InputTokenID, makerAmount)
		if err := s.chainClient.SendTokens(ctx, makerAddress, []models.Payment{payment}); err != nil {
			return nil, err
		}
	}

	if err := s.closeOrder(order, models.OrderStatusExpired); err != nil {
		return nil, err
	}
	return &PruneResult{PrunerAmount: prunerAmount, MakerAmount: makerAmount}, nil
}

// closeOrder stamps the terminal status and soft deletes the row so the id
// slot reads as empty afterwards.
func (s *orderService) closeOrder(order *models.Order, status models.OrderStatus) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", status).Error; err != nil {
			return err
		}
		return tx.Delete(order).Error
	})
}

func (s *orderService) AddAdmin(address string) error {
	if !utils.IsValidAddress(address) {
		return fmt.Errorf("%w: invalid admin address", ErrInvalidInput)
	}
	admin := models.Admin{Address: utils.NormalizeAddress(address)}
	err := s.db.Where("address = ?", admin.Address).FirstOrCreate(&admin).Error
	if err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

func (s *orderService) RemoveAdmin(address string) error {
	return s.db.Where("address = ?", utils.NormalizeAddress(address)).Delete(&models.Admin{}).Error
}

func (s *orderService) IsAdmin(address string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Admin{}).Where("address = ?", utils.NormalizeAddress(address)).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *orderService) requireAdmin(address string) error {
	isAdmin, err := s.IsAdmin(address)
	if err != nil {
		return err
	}
	if !isAdmin {
		return fmt.Errorf("%w: %s is not an admin", ErrNotAdmin, address)
	}
	return nil
}

func (s *orderService) GetOrderBookSettings() (*models.OrderBookSettings, error) {
	var settings models.OrderBookSettings
	err := s.db.FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// updateSettings applies a change to the order book settings. Admin only,
// and rejected while the book is paused.
func (s *orderService) updateSettings(adminAddress string, apply func(*models.OrderBookSettings)) error {
	if err := s.requireAdmin(adminAddress); err != nil {
		return err
	}
	settings, err := s.GetOrderBookSettings()
	if err != nil {
		return err
	}
	if settings.Paused {
		return fmt.Errorf("%w: order book is paused", ErrContractPaused)
	}
	apply(settings)
	return s.db.Save(settings).Error
}

func (s *orderService) Pause(adminAddress string) error {
	return s.setPaused(adminAddress, true)
}

func (s *orderService) Unpause(adminAddress string) error {
	return s.setPaused(adminAddress, false)
}

func (s *orderService) setPaused(adminAddress string, paused bool) error {
	if err := s.requireAdmin(adminAddress); err != nil {
		return err
	}
	settings, err := s.GetOrderBookSettings()
	if err != nil {
		return err
	}
	settings.Paused = paused
	return s.db.Save(settings).Error
}

func (s *orderService) SetRouterAddress(adminAddress, routerAddress string) error {
	if !utils.IsValidAddress(routerAddress) {
		return fmt.Errorf("%w: invalid router address", ErrInvalidInput)
	}
	return s.updateSettings(adminAddress, func(settings *models.OrderBookSettings) {
		settings.RouterAddress = utils.NormalizeAddress(routerAddress)
	})
}

func (s *orderService) SetTreasuryAddress(adminAddress, treasuryAddress string) error {
	if !utils.IsValidAddress(treasuryAddress) {
		return fmt.Errorf("%w: invalid treasury address", ErrInvalidInput)
	}
	return s.updateSettings(adminAddress, func(settings *models.OrderBookSettings) {
		settings.TreasuryAddress = utils.NormalizeAddress(treasuryAddress)
	})
}

func (s *orderService) SetPruningFee(adminAddress string, feePercent uint64) error {
	if !utils.IsValidPercentage(feePercent) {
		return fmt.Errorf("%w: pruning fee above %d", ErrInvalidInput, models.MaxPercentage)
	}
	return s.updateSettings(adminAddress, func(settings *models.OrderBookSettings) {
		settings.PruningFeePercent = feePercent
	})
}

func (s *orderService) SetP2PProtocolFee(adminAddress string, feePercent uint64) error {
	if !utils.IsValidPercentage(feePercent) {
		return fmt.Errorf("%w: protocol fee above %d", ErrInvalidInput, models.MaxPercentage)
	}
	return s.updateSettings(adminAddress, func(settings *models.OrderBookSettings) {
		settings.P2PProtocolFeePercent = feePercent
	})
}
