package services

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	suite.Suite
	db           DBService
	chainClient  *mockChainClient
	userService  UserService
	orderService OrderService
	clock        time.Time
	ctx          context.Context
}

func (suite *OrderServiceTestSuite) SetupTest() {
	db, err := NewSqliteDBService(":memory:")
	suite.Require().NoError(err)
	suite.db = db
	suite.chainClient = newMockChainClient()
	suite.userService = NewUserService(db.GetDB())
	suite.orderService = NewOrderService(db.GetDB(), suite.userService, suite.chainClient)
	suite.ctx = context.Background()

	suite.clock = time.Unix(1_700_000_000, 0)
	suite.orderService.(*orderService).now = func() time.Time { return suite.clock }

	suite.Require().NoError(suite.orderService.AddAdmin(adminAddress))
	suite.Require().NoError(suite.orderService.SetPruningFee(adminAddress, 500))
}

func (suite *OrderServiceTestSuite) TearDownTest() {
	suite.db.Close()
}

func (suite *OrderServiceTestSuite) createOrder(maker string, amount int64, duration time.Duration) *models.Order {
	order, err := suite.orderService.CreateOrder(CreateOrderParams{
		MakerAddress:       maker,
		InputTokenID:       mexTokenID,
		InputAmount:        big.NewInt(amount),
		OutputTokenID:      usdcTokenID,
		MinTotalOutput:     big.NewInt(1),
		ExecutorFeePercent: 100,
		Duration:           duration,
	})
	suite.Require().NoError(err)
	return order
}

func (suite *OrderServiceTestSuite) TestCreateOrderValidation() {
	params := CreateOrderParams{
		MakerAddress:   aliceAddress,
		InputTokenID:   mexTokenID,
		InputAmount:    big.NewInt(1000),
		OutputTokenID:  "not a token",
		MinTotalOutput: big.NewInt(1),
		Duration:       10 * time.Minute,
	}
	_, err := suite.orderService.CreateOrder(params)
	suite.ErrorIs(err, ErrInvalidInput)

	params.OutputTokenID = usdcTokenID
	params.ExecutorFeePercent = 10_001
	_, err = suite.orderService.CreateOrder(params)
	suite.ErrorIs(err, ErrInvalidInput)

	params.ExecutorFeePercent = 100
	params.Duration = 0
	_, err = suite.orderService.CreateOrder(params)
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *OrderServiceTestSuite) TestCreateOrderStampsTimestamps() {
	order := suite.createOrder(aliceAddress, 1000, 10*time.Minute)

	suite.Equal(models.OrderStatusOpen, order.Status)
	suite.Equal(uint64(suite.clock.Unix()), order.CreationTimestamp)
	suite.Equal(uint64(suite.clock.Unix())+600, order.ExpirationTimestamp)
	suite.Equal("1000", order.CurrentInputAmount)
}

func (suite *OrderServiceTestSuite) TestOnlyMakerMayCancel() {
	order := suite.createOrder(aliceAddress, 1000, 10*time.Minute)

	_, err := suite.userService.RegisterUser(bobAddress)
	suite.Require().NoError(err)

	err = suite.orderService.CancelOrder(suite.ctx, bobAddress, order.ID)
	suite.ErrorIs(err, ErrUnauthorized)

	suite.NoError(suite.orderService.CancelOrder(suite.ctx, aliceAddress, order.ID))

	// Cancelled slot reads as empty.
	_, err = suite.orderService.GetOrder(order.ID)
	suite.ErrorIs(err, ErrUnknownOrder)

	// The maker got the input back.
	sent := suite.chainClient.sentTo(aliceAddress)
	suite.Require().Len(sent, 1)
	suite.Equal("1000", sent[0].Amount.String())
}

func (suite *OrderServiceTestSuite) TestPruneBeforeExpiryIsRejected() {
	order := suite.createOrder(aliceAddress, 1000, 10*time.Minute)

	_, err := suite.orderService.PruneOrder(suite.ctx, bobAddress, order.ID)
	suite.ErrorIs(err, ErrStateConflict)
}

func (suite *OrderServiceTestSuite) TestPruneSplitsBalanceWithFee() {
	order := suite.createOrder(aliceAddress, 1000, 10*time.Minute)

	suite.clock = suite.clock.Add(601 * time.Second)

	result, err := suite.orderService.PruneOrder(suite.ctx, bobAddress, order.ID)
	suite.Require().NoError(err)

	suite.Equal("50", result.PrunerAmount.String())
	suite.Equal("950", result.MakerAmount.String())
	suite.Equal(int64(1000), new(big.Int).Add(result.PrunerAmount, result.MakerAmount).Int64())

	pruner := suite.chainClient.sentTo(bobAddress)
	suite.Require().Len(pruner, 1)
	suite.Equal("50", pruner[0].Amount.String())

	// Order slot cleared.
	_, err = suite.orderService.GetOrder(order.ID)
	suite.ErrorIs(err, ErrUnknownOrder)
}

func (suite *OrderServiceTestSuite) TestPruneWithUnregisteredMakerIsRejected() {
	order := suite.createOrder(aliceAddress, 1000, 10*time.Minute)

	_, err := suite.userService.RemoveUserByAddress(aliceAddress)
	suite.Require().NoError(err)

	suite.clock = suite.clock.Add(601 * time.Second)

	// The maker remainder would be unreturnable, so nothing moves.
	_, err = suite.orderService.PruneOrder(suite.ctx, bobAddress, order.ID)
	suite.ErrorIs(err, ErrStateConflict)
	suite.Empty(suite.chainClient.sentTo(bobAddress))

	reloaded, err := suite.orderService.GetOrder(order.ID)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusOpen, reloaded.Status)
}

func (suite *OrderServiceTestSuite) TestGetOrdersSkipsClearedSlots() {
	first := suite.createOrder(aliceAddress, 100, 10*time.Minute)
	second := suite.createOrder(aliceAddress, 200, 10*time.Minute)
	third := suite.createOrder(aliceAddress, 300, 10*time.Minute)

	suite.Require().NoError(suite.orderService.CancelOrder(suite.ctx, aliceAddress, second.ID))

	orders, err := suite.orderService.GetOrders(0, 10)
	suite.NoError(err)
	suite.Require().Len(orders, 2)
	suite.Equal(first.ID, orders[0].ID)
	suite.Equal(third.ID, orders[1].ID)

	orders, err = suite.orderService.GetOrders(third.ID, 10)
	suite.NoError(err)
	suite.Require().Len(orders, 1)
	suite.Equal(third.ID, orders[0].ID)
}

func (suite *OrderServiceTestSuite) TestAdminSettersRequireAdmin() {
	err := suite.orderService.SetPruningFee(aliceAddress, 300)
	suite.ErrorIs(err, ErrNotAdmin)

	suite.NoError(suite.orderService.SetPruningFee(adminAddress, 300))

	settings, err := suite.orderService.GetOrderBookSettings()
	suite.NoError(err)
	suite.Equal(uint64(300), settings.PruningFeePercent)
}

func (suite *OrderServiceTestSuite) TestSettersRejectedWhilePaused() {
	suite.Require().NoError(suite.orderService.Pause(adminAddress))

	err := suite.orderService.SetPruningFee(adminAddress, 300)
	suite.ErrorIs(err, ErrContractPaused)

	err = suite.orderService.SetRouterAddress(adminAddress, templateAddress)
	suite.ErrorIs(err, ErrContractPaused)

	suite.Require().NoError(suite.orderService.Unpause(adminAddress))
	suite.NoError(suite.orderService.SetRouterAddress(adminAddress, templateAddress))
}

func (suite *OrderServiceTestSuite) TestPauseRequiresAdmin() {
	err := suite.orderService.Pause(aliceAddress)
	suite.ErrorIs(err, ErrNotAdmin)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
