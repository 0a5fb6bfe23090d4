package services

import (
	"context"
	"testing"

	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/stretchr/testify/suite"
)

type PositionServiceTestSuite struct {
	suite.Suite
	db               DBService
	chainClient      *mockChainClient
	whitelistService WhitelistService
	positionService  PositionService
	userID           uint
}

func (suite *PositionServiceTestSuite) SetupTest() {
	db, err := NewSqliteDBService(":memory:")
	suite.Require().NoError(err)
	suite.db = db
	suite.chainClient = newMockChainClient()
	suite.whitelistService = NewWhitelistService(db.GetDB(), suite.chainClient)
	suite.positionService = NewPositionService(db.GetDB(), suite.whitelistService)

	ctx := context.Background()
	suite.Require().NoError(suite.whitelistService.AddFarms(ctx, []string{farmOneAddress, farmTwoAddress}))
	suite.Require().NoError(suite.whitelistService.AddMetastakings(ctx, []string{metaOneAddress}))

	userService := NewUserService(db.GetDB())
	suite.userID, err = userService.RegisterUser(aliceAddress)
	suite.Require().NoError(err)
}

func (suite *PositionServiceTestSuite) TearDownTest() {
	suite.db.Close()
}

func (suite *PositionServiceTestSuite) TestDepositFarmToken() {
	err := suite.positionService.DepositFarmToken(suite.userID, pay(farmTokenOne, 3, 100))
	suite.NoError(err)

	positions, err := suite.positionService.GetFarmPositions(suite.userID)
	suite.NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal(farmTokenOne, positions[0].TokenID)
	suite.Equal(uint64(3), positions[0].Nonce)
	suite.Equal("100", positions[0].Amount)
}

func (suite *PositionServiceTestSuite) TestDepositMergesSameNonce() {
	suite.Require().NoError(suite.positionService.DepositFarmToken(suite.userID, pay(farmTokenOne, 3, 100)))
	suite.Require().NoError(suite.positionService.DepositFarmToken(suite.userID, pay(farmTokenOne, 3, 50)))

	positions, err := suite.positionService.GetFarmPositions(suite.userID)
	suite.NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal("150", positions[0].Amount)
}

func (suite *PositionServiceTestSuite) TestDepositRejectsZeroAmount() {
	err := suite.positionService.DepositFarmToken(suite.userID, pay(farmTokenOne, 3, 0))
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *PositionServiceTestSuite) TestDepositRejectsUnmappedToken() {
	err := suite.positionService.DepositFarmToken(suite.userID, pay("UNKNOWN-ffffff", 0, 10))
	suite.ErrorIs(err, ErrStateConflict)
}

func (suite *PositionServiceTestSuite) TestDepositMetastakingToken() {
	err := suite.positionService.DepositMetastakingToken(suite.userID, pay(dualYieldToken, 1, 40))
	suite.NoError(err)

	positions, err := suite.positionService.GetMetastakingPositions(suite.userID)
	suite.NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal("40", positions[0].Amount)
}

func (suite *PositionServiceTestSuite) TestReplaceFarmPosition() {
	suite.Require().NoError(suite.positionService.DepositFarmToken(suite.userID, pay(farmTokenOne, 3, 100)))

	farm, err := suite.whitelistService.GetFarmByAddress(farmOneAddress)
	suite.Require().NoError(err)

	suite.NoError(suite.positionService.ReplaceFarmPosition(suite.userID, farm.ID, pay(farmTokenOne, 4, 120)))

	positions, err := suite.positionService.GetFarmPositions(suite.userID)
	suite.NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal(uint64(4), positions[0].Nonce)
	suite.Equal("120", positions[0].Amount)
}

func (suite *PositionServiceTestSuite) TestUserRewardsRoundTrip() {
	rewards, err := suite.positionService.GetUserRewards(suite.userID)
	suite.NoError(err)
	suite.Nil(rewards)

	locked := pay(lockedTokenID, 5, 90)
	toSave := &models.UserRewards{
		UserID:       suite.userID,
		LockedTokens: &locked,
		OtherTokens:  models.UniquePaymentsFromSingle(pay(mexTokenID, 0, 9)),
	}
	suite.Require().NoError(suite.positionService.SaveUserRewards(toSave))

	rewards, err = suite.positionService.GetUserRewards(suite.userID)
	suite.NoError(err)
	suite.Require().NotNil(rewards)
	suite.Require().NotNil(rewards.LockedTokens)
	suite.Equal("90", rewards.LockedTokens.Amount.String())
	suite.Equal(uint64(5), rewards.LockedTokens.Nonce)
	suite.Require().NotNil(rewards.OtherTokens)
	suite.Equal(1, rewards.OtherTokens.Len())
}

func (suite *PositionServiceTestSuite) TestWithdrawAllDrainsEverything() {
	suite.Require().NoError(suite.positionService.DepositFarmToken(suite.userID, pay(farmTokenOne, 3, 100)))
	suite.Require().NoError(suite.positionService.DepositMetastakingToken(suite.userID, pay(dualYieldToken, 1, 40)))

	farmTokens, metaTokens, _, err := suite.positionService.WithdrawAll(suite.userID)
	suite.NoError(err)
	suite.Len(farmTokens, 1)
	suite.Len(metaTokens, 1)

	positions, err := suite.positionService.GetFarmPositions(suite.userID)
	suite.NoError(err)
	suite.Empty(positions)

	rewards, err := suite.positionService.GetUserRewards(suite.userID)
	suite.NoError(err)
	suite.Nil(rewards)
}

func (suite *PositionServiceTestSuite) TestAccumulateFees() {
	suite.Require().NoError(suite.positionService.AccumulateFees([]models.Payment{
		pay(mexTokenID, 0, 10),
		pay(lockedTokenID, 5, 3),
	}))
	suite.Require().NoError(suite.positionService.AccumulateFees([]models.Payment{
		pay(mexTokenID, 0, 5),
	}))

	fees, err := suite.positionService.GetAccumulatedFees()
	suite.NoError(err)
	suite.Require().NotNil(fees)
	suite.Equal(2, fees.Len())

	byToken := make(map[string]string)
	for _, p := range fees.IntoPayments() {
		byToken[p.TokenID] = p.Amount.String()
	}
	suite.Equal("15", byToken[mexTokenID])
	suite.Equal("3", byToken[lockedTokenID])
}

func TestPositionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PositionServiceTestSuite))
}
