package services

import (
	"context"
	"testing"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/stretchr/testify/suite"
)

type RewardsServiceTestSuite struct {
	suite.Suite
	db               DBService
	chainClient      *mockChainClient
	userService      UserService
	whitelistService WhitelistService
	positionService  PositionService
	rewardsService   RewardsService
	ctx              context.Context
}

func (suite *RewardsServiceTestSuite) SetupTest() {
	db, err := NewSqliteDBService(":memory:")
	suite.Require().NoError(err)
	suite.db = db
	suite.chainClient = newMockChainClient()
	suite.userService = NewUserService(db.GetDB())
	suite.whitelistService = NewWhitelistService(db.GetDB(), suite.chainClient)
	suite.positionService = NewPositionService(db.GetDB(), suite.whitelistService)
	suite.rewardsService = NewRewardsService(db.GetDB(), suite.userService, suite.positionService, suite.whitelistService, suite.chainClient)
	suite.ctx = context.Background()

	suite.Require().NoError(suite.rewardsService.SaveSettings(&models.AggregatorSettings{
		LockedTokenID: lockedTokenID,
		FeePercentage: 1_000,
	}))
}

func (suite *RewardsServiceTestSuite) TearDownTest() {
	suite.db.Close()
}

func (suite *RewardsServiceTestSuite) register(address string) uint {
	id, err := suite.userService.RegisterUser(address)
	suite.Require().NoError(err)
	return id
}

func (suite *RewardsServiceTestSuite) TestClaimRequiresRegistration() {
	_, err := suite.rewardsService.ClaimAllRewards(suite.ctx, aliceAddress, nil)
	suite.ErrorIs(err, ErrUnknownAddress)
}

func (suite *RewardsServiceTestSuite) TestClaimFeesCollectorLockedLast() {
	userID := suite.register(aliceAddress)
	suite.chainClient.feesCollectorRewards = []models.Payment{
		pay(mexTokenID, 0, 10),
		pay(usdcTokenID, 0, 20),
		pay(lockedTokenID, 5, 100),
	}

	rewards, err := suite.rewardsService.ClaimAllRewards(suite.ctx, aliceAddress, nil)
	suite.Require().NoError(err)

	suite.Require().NotNil(rewards.LockedTokens)
	suite.Equal(lockedTokenID, rewards.LockedTokens.TokenID)
	suite.Equal(uint64(5), rewards.LockedTokens.Nonce)
	suite.Equal("90", rewards.LockedTokens.Amount.String())

	other := make(map[string]string)
	for _, p := range rewards.OtherTokens.IntoPayments() {
		other[p.TokenID] = p.Amount.String()
	}
	suite.Equal("9", other[mexTokenID])
	suite.Equal("18", other[usdcTokenID])

	fees, err := suite.positionService.GetAccumulatedFees()
	suite.Require().NoError(err)
	feeByToken := make(map[string]string)
	for _, p := range fees.IntoPayments() {
		feeByToken[p.TokenID] = p.Amount.String()
	}
	suite.Equal("10", feeByToken[lockedTokenID])
	suite.Equal("1", feeByToken[mexTokenID])
	suite.Equal("2", feeByToken[usdcTokenID])

	// Single locked payment needs no external merge.
	suite.Equal(0, suite.chainClient.mergeCalls)

	stored, err := suite.positionService.GetUserRewards(userID)
	suite.Require().NoError(err)
	suite.Equal("90", stored.LockedTokens.Amount.String())
}

func (suite *RewardsServiceTestSuite) TestClaimMergesMultipleLockedPayments() {
	suite.register(aliceAddress)
	suite.chainClient.feesCollectorRewards = []models.Payment{
		pay(lockedTokenID, 5, 100),
	}
	suite.chainClient.metabondingRewards = []models.Payment{
		pay(lockedTokenID, 7, 60),
		pay(mexTokenID, 0, 10),
	}

	rewards, err := suite.rewardsService.ClaimAllRewards(suite.ctx, aliceAddress, []chain.MetabondingClaim{{Week: 1}})
	suite.Require().NoError(err)

	// 160 locked merged externally, minus 10% fee.
	suite.Equal(1, suite.chainClient.mergeCalls)
	suite.Require().NotNil(rewards.LockedTokens)
	suite.Equal("144", rewards.LockedTokens.Amount.String())
}

func (suite *RewardsServiceTestSuite) TestClaimReplacesActiveFarmTokensOnly() {
	userID := suite.register(aliceAddress)
	ctx := suite.ctx
	suite.Require().NoError(suite.whitelistService.AddFarms(ctx, []string{farmOneAddress, farmTwoAddress}))
	suite.Require().NoError(suite.whitelistService.SetFarmActive(farmTwoAddress, false))

	suite.Require().NoError(suite.positionService.DepositFarmToken(userID, pay(farmTokenOne, 3, 100)))
	suite.Require().NoError(suite.positionService.DepositFarmToken(userID, pay(farmTokenTwo, 8, 200)))

	suite.chainClient.claimFarmFn = func(farmAddress string, farmToken models.Payment) (chain.FarmClaimResult, error) {
		suite.Equal(farmOneAddress, farmAddress)
		newToken := farmToken.Clone()
		newToken.Nonce = 4
		return chain.FarmClaimResult{
			NewFarmToken: newToken,
			Reward:       pay(mexTokenID, 0, 50),
		}, nil
	}

	_, err := suite.rewardsService.ClaimAllRewards(ctx, aliceAddress, nil)
	suite.Require().NoError(err)

	positions, err := suite.positionService.GetFarmPositions(userID)
	suite.Require().NoError(err)
	suite.Require().Len(positions, 2)

	byToken := make(map[string]uint64)
	for _, p := range positions {
		byToken[p.TokenID] = p.Nonce
	}
	// Active farm token reissued at nonce 4; inactive farm untouched.
	suite.Equal(uint64(4), byToken[farmTokenOne])
	suite.Equal(uint64(8), byToken[farmTokenTwo])
}

func (suite *RewardsServiceTestSuite) TestClaimAccumulatesIntoExistingRewards() {
	suite.register(aliceAddress)
	suite.chainClient.feesCollectorRewards = []models.Payment{
		pay(lockedTokenID, 5, 100),
		pay(mexTokenID, 0, 10),
	}

	_, err := suite.rewardsService.ClaimAllRewards(suite.ctx, aliceAddress, nil)
	suite.Require().NoError(err)

	// Second claim with the same nonce merges trivially.
	rewards, err := suite.rewardsService.ClaimAllRewards(suite.ctx, aliceAddress, nil)
	suite.Require().NoError(err)
	suite.Equal("180", rewards.LockedTokens.Amount.String())
	suite.Equal(0, suite.chainClient.mergeCalls)

	other := rewards.OtherTokens.IntoPayments()
	suite.Require().Len(other, 1)
	suite.Equal("18", other[0].Amount.String())
}

func (suite *RewardsServiceTestSuite) TestRegisterWithdrawRegisterAgain() {
	id1 := suite.register(aliceAddress)
	suite.Equal(uint(1), id1)

	_, err := suite.userService.RegisterUser(aliceAddress)
	suite.ErrorIs(err, ErrAddressAlreadyRegistered)

	suite.Require().NoError(suite.rewardsService.WithdrawAllAndUnregister(suite.ctx, aliceAddress))

	id, err := suite.userService.GetUserID(aliceAddress)
	suite.NoError(err)
	suite.Equal(uint(0), id)

	err = suite.rewardsService.WithdrawAllAndUnregister(suite.ctx, aliceAddress)
	suite.ErrorIs(err, ErrUnknownAddress)

	id2 := suite.register(aliceAddress)
	suite.Equal(uint(2), id2)
}

func (suite *RewardsServiceTestSuite) TestWithdrawAllSendsHoldingsBack() {
	userID := suite.register(aliceAddress)
	suite.Require().NoError(suite.whitelistService.AddFarms(suite.ctx, []string{farmOneAddress}))
	suite.Require().NoError(suite.positionService.DepositFarmToken(userID, pay(farmTokenOne, 3, 100)))

	suite.Require().NoError(suite.rewardsService.WithdrawAllAndUnregister(suite.ctx, aliceAddress))

	sent := suite.chainClient.sentTo(aliceAddress)
	suite.Require().Len(sent, 1)
	suite.Equal(farmTokenOne, sent[0].TokenID)
	suite.Equal("100", sent[0].Amount.String())
}

func TestRewardsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RewardsServiceTestSuite))
}
