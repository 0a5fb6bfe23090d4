package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/stretchr/testify/suite"
)

type TaskPipelineServiceTestSuite struct {
	suite.Suite
	chainClient *mockChainClient
	pipeline    TaskPipelineService
	ctx         context.Context
}

func (suite *TaskPipelineServiceTestSuite) SetupTest() {
	suite.chainClient = newMockChainClient()
	suite.pipeline = NewTaskPipelineService(suite.chainClient)
	suite.ctx = context.Background()
}

func (suite *TaskPipelineServiceTestSuite) TestEmptyPipelineDeliversToCaller() {
	payment := pay(mexTokenID, 0, 500)

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, nil, "")
	suite.Require().NoError(err)
	suite.Equal(aliceAddress, result.Recipient)
	suite.Equal(mexTokenID, result.Payment.TokenID)

	sent := suite.chainClient.sentTo(aliceAddress)
	suite.Require().Len(sent, 1)
	suite.Equal("500", sent[0].Amount.String())
}

func (suite *TaskPipelineServiceTestSuite) TestUnwrapToThirdParty() {
	payment := pay(wrappedTokenID, 0, 200_000_000)
	tasks := []Task{{Type: TaskUnwrapNative}}

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, bobAddress)
	suite.Require().NoError(err)
	suite.Equal(bobAddress, result.Recipient)
	suite.Equal(nativeTokenID, result.Payment.TokenID)
	suite.Equal("200000000", result.Payment.Amount.String())

	suite.Require().Len(suite.chainClient.sentTo(bobAddress), 1)
	suite.Empty(suite.chainClient.sentTo(aliceAddress))
}

func (suite *TaskPipelineServiceTestSuite) TestWrapThenSwap() {
	payment := pay(nativeTokenID, 0, 1_000)
	tasks := []Task{
		{Type: TaskWrapNative},
		{Type: TaskSwap, TokenOut: usdcTokenID, MinAmountOut: big.NewInt(1)},
	}

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.Require().NoError(err)
	suite.Equal(usdcTokenID, result.Payment.TokenID)
	suite.Equal(aliceAddress, result.Recipient)
}

func (suite *TaskPipelineServiceTestSuite) TestWrapRequiresNativeToken() {
	payment := pay(mexTokenID, 0, 1_000)
	tasks := []Task{{Type: TaskWrapNative}}

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestUnwrapRequiresWrappedToken() {
	payment := pay(mexTokenID, 0, 1_000)
	tasks := []Task{{Type: TaskUnwrapNative}}

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestSwapRejectsNativeInput() {
	payment := pay(nativeTokenID, 0, 1_000)
	tasks := []Task{{Type: TaskSwap, TokenOut: usdcTokenID}}

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestEnterFarmProducesFarmToken() {
	payment := pay(farmingTokenA, 0, 1_000)
	tasks := []Task{{Type: TaskEnterFarm, Destination: farmOneAddress}}

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.Require().NoError(err)
	suite.Equal(farmTokenOne, result.Payment.TokenID)
	suite.Equal(uint64(1), result.Payment.Nonce)
	suite.Equal("1000", result.Payment.Amount.String())
}

func (suite *TaskPipelineServiceTestSuite) TestEnterThenExitFarmRoundTrip() {
	payment := pay(farmingTokenA, 0, 1_000)
	tasks := []Task{
		{Type: TaskEnterFarm, Destination: farmOneAddress},
		{Type: TaskExitFarm, Destination: farmOneAddress},
	}

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, bobAddress)
	suite.Require().NoError(err)
	suite.Equal(farmingTokenA, result.Payment.TokenID)
	suite.Equal("1000", result.Payment.Amount.String())
	suite.Require().Len(suite.chainClient.sentTo(bobAddress), 1)
}

func (suite *TaskPipelineServiceTestSuite) TestFarmStepsRequireKnownFarm() {
	payment := pay(farmingTokenA, 0, 1_000)
	tasks := []Task{{Type: TaskEnterFarm, Destination: templateAddress}}

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.ErrorIs(err, chain.ErrExternalCall)
}

func (suite *TaskPipelineServiceTestSuite) TestFarmStepsRequireValidAddress() {
	payment := pay(farmingTokenA, 0, 1_000)
	tasks := []Task{{Type: TaskEnterFarm, Destination: "not-an-address"}}

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestLockTokensStampsUnlockEpoch() {
	payment := pay(mexTokenID, 0, 500)
	tasks := []Task{{Type: TaskLockTokens, Epoch: 120}}

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.Require().NoError(err)
	suite.Equal(lockedTokenID, result.Payment.TokenID)
	suite.Equal(uint64(120), result.Payment.Nonce)
	suite.Equal("500", result.Payment.Amount.String())
}

func (suite *TaskPipelineServiceTestSuite) TestLockTokensRequiresEpoch() {
	payment := pay(mexTokenID, 0, 500)
	tasks := []Task{{Type: TaskLockTokens}}

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestLockVirtualAtContract() {
	payment := pay(mexTokenID, 0, 500)
	tasks := []Task{{Type: TaskLockVirtual, Epoch: 9, Destination: metaOneAddress}}

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.Require().NoError(err)
	suite.Equal(lockedTokenID, result.Payment.TokenID)
	suite.Equal(uint64(9), result.Payment.Nonce)

	_, err = suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment,
		[]Task{{Type: TaskLockVirtual, Epoch: 9, Destination: "not-an-address"}}, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestLockThenWrapLocked() {
	payment := pay(mexTokenID, 0, 250)
	tasks := []Task{
		{Type: TaskLockTokens, Epoch: 4},
		{Type: TaskWrapLocked},
	}

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.Require().NoError(err)
	suite.Equal("WLKMEX-abc123", result.Payment.TokenID)
	suite.Equal(uint64(4), result.Payment.Nonce)
	suite.Equal("250", result.Payment.Amount.String())
}

func (suite *TaskPipelineServiceTestSuite) TestSendMustBeFinalStep() {
	payment := pay(wrappedTokenID, 0, 1_000)
	tasks := []Task{
		{Type: TaskSendTokens, Destination: bobAddress},
		{Type: TaskUnwrapNative},
	}

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestSendStepOverridesDestination() {
	payment := pay(mexTokenID, 0, 700)
	tasks := []Task{{Type: TaskSendTokens, Destination: bobAddress}}

	result, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.Require().NoError(err)
	suite.Equal(bobAddress, result.Recipient)
	suite.Require().Len(suite.chainClient.sentTo(bobAddress), 1)
}

func (suite *TaskPipelineServiceTestSuite) TestZeroPaymentRejected() {
	payment := pay(mexTokenID, 0, 0)

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, nil, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestInvalidAddressesRejected() {
	payment := pay(mexTokenID, 0, 100)

	_, err := suite.pipeline.ComposeTasks(suite.ctx, "not-an-address", payment, nil, "")
	suite.ErrorIs(err, ErrInvalidInput)

	_, err = suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, nil, "not-an-address")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *TaskPipelineServiceTestSuite) TestUnknownTaskTypeRejected() {
	payment := pay(mexTokenID, 0, 100)
	tasks := []Task{{Type: TaskType("burn")}}

	_, err := suite.pipeline.ComposeTasks(suite.ctx, aliceAddress, payment, tasks, "")
	suite.ErrorIs(err, ErrInvalidInput)
}

func TestTaskPipelineServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskPipelineServiceTestSuite))
}
