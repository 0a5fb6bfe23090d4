package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/stretchr/testify/require"
)

const (
	aliceAddress    = "0x1111111111111111111111111111111111111111"
	bobAddress      = "0x2222222222222222222222222222222222222222"
	adminAddress    = "0x3333333333333333333333333333333333333333"
	farmOneAddress  = "0x4444444444444444444444444444444444444444"
	farmTwoAddress  = "0x5555555555555555555555555555555555555555"
	metaOneAddress  = "0x6666666666666666666666666666666666666666"
	templateAddress = "0x7777777777777777777777777777777777777777"

	nativeTokenID  = "NATIVE"
	wrappedTokenID = "WEGLD-abcdef"
	lockedTokenID  = "LKMEX-abc123"
	mexTokenID     = "MEX-abc123"
	usdcTokenID    = "USDC-123456"
	farmTokenOne   = "FARM-aaa111"
	farmingTokenA  = "LPTOK-aaa111"
	farmTokenTwo   = "FARM-bbb222"
	farmingTokenB  = "LPTOK-bbb222"
	dualYieldToken = "DUAL-ccc333"
	lpFarmToken    = "LPFARM-ccc333"
)

func newTestDB(t *testing.T) DBService {
	t.Helper()
	db, err := NewSqliteDBService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func pay(tokenID string, nonce uint64, amount int64) models.Payment {
	return models.NewPayment(tokenID, nonce, big.NewInt(amount))
}

// mockChainClient implements chain.Client with canned responses. Every
// token transfer is recorded so tests can assert on delivered payments.
type mockChainClient struct {
	mu        sync.Mutex
	transfers map[string][]models.Payment

	feesCollectorRewards []models.Payment
	metabondingRewards   []models.Payment
	farmConfigs          map[string]chain.FarmConfig
	metastakingConfigs   map[string]chain.MetastakingConfig

	claimFarmFn     func(farmAddress string, farmToken models.Payment) (chain.FarmClaimResult, error)
	multiPairSwapFn func(steps []chain.SwapStep, input models.Payment) (models.Payment, error)
	mergeTokensFn   func(locked []models.Payment) (models.Payment, error)
	sendErr         error

	mergeCalls int
}

func newMockChainClient() *mockChainClient {
	return &mockChainClient{
		transfers: make(map[string][]models.Payment),
		farmConfigs: map[string]chain.FarmConfig{
			farmOneAddress: {FarmTokenID: farmTokenOne, FarmingTokenID: farmingTokenA, Active: true},
			farmTwoAddress: {FarmTokenID: farmTokenTwo, FarmingTokenID: farmingTokenB, Active: true},
		},
		metastakingConfigs: map[string]chain.MetastakingConfig{
			metaOneAddress: {DualYieldTokenID: dualYieldToken, LpFarmTokenID: lpFarmToken},
		},
	}
}

func (m *mockChainClient) sentTo(destination string) []models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Payment(nil), m.transfers[destination]...)
}

func (m *mockChainClient) ClaimFeesCollectorRewards(ctx context.Context, user string) ([]models.Payment, error) {
	return append([]models.Payment(nil), m.feesCollectorRewards...), nil
}

func (m *mockChainClient) ClaimMetabondingRewards(ctx context.Context, user string, claims []chain.MetabondingClaim) ([]models.Payment, error) {
	return append([]models.Payment(nil), m.metabondingRewards...), nil
}

func (m *mockChainClient) FarmConfig(ctx context.Context, farmAddress string) (chain.FarmConfig, error) {
	cfg, ok := m.farmConfigs[farmAddress]
	if !ok {
		return chain.FarmConfig{}, fmt.Errorf("%w: unknown farm %s", chain.ErrExternalCall, farmAddress)
	}
	return cfg, nil
}

func (m *mockChainClient) MetastakingConfig(ctx context.Context, address string) (chain.MetastakingConfig, error) {
	cfg, ok := m.metastakingConfigs[address]
	if !ok {
		return chain.MetastakingConfig{}, fmt.Errorf("%w: unknown metastaking %s", chain.ErrExternalCall, address)
	}
	return cfg, nil
}

func (m *mockChainClient) ClaimFarmRewards(ctx context.Context, farmAddress, user string, farmToken models.Payment) (chain.FarmClaimResult, error) {
	if m.claimFarmFn != nil {
		return m.claimFarmFn(farmAddress, farmToken)
	}
	newToken := farmToken.Clone()
	newToken.Nonce++
	return chain.FarmClaimResult{
		NewFarmToken: newToken,
		Reward:       models.NewFungiblePayment(mexTokenID, big.NewInt(100)),
	}, nil
}

func (m *mockChainClient) EnterFarm(ctx context.Context, farmAddress, user string, input models.Payment) (chain.EnterFarmResult, error) {
	cfg, err := m.FarmConfig(ctx, farmAddress)
	if err != nil {
		return chain.EnterFarmResult{}, err
	}
	return chain.EnterFarmResult{
		NewFarmToken: models.NewPayment(cfg.FarmTokenID, 1, new(big.Int).Set(input.Amount)),
	}, nil
}

func (m *mockChainClient) ExitFarm(ctx context.Context, farmAddress string, amount *big.Int, user string, farmToken models.Payment) (chain.ExitFarmResult, error) {
	cfg, err := m.FarmConfig(ctx, farmAddress)
	if err != nil {
		return chain.ExitFarmResult{}, err
	}
	return chain.ExitFarmResult{
		FarmingTokens: models.NewFungiblePayment(cfg.FarmingTokenID, amount),
	}, nil
}

func (m *mockChainClient) SwapTokensFixedInput(ctx context.Context, pairAddress, outTokenID string, minOut *big.Int, input models.Payment) (models.Payment, error) {
	return models.NewFungiblePayment(outTokenID, new(big.Int).Set(input.Amount)), nil
}

func (m *mockChainClient) MultiPairSwap(ctx context.Context, steps []chain.SwapStep, input models.Payment) (models.Payment, error) {
	if m.multiPairSwapFn != nil {
		return m.multiPairSwapFn(steps, input)
	}
	last := steps[len(steps)-1]
	return models.NewFungiblePayment(last.OutputTokenID, new(big.Int).Set(input.Amount)), nil
}

func (m *mockChainClient) GetPair(ctx context.Context, tokenA, tokenB string) (string, error) {
	return "0x9999999999999999999999999999999999999999", nil
}

func (m *mockChainClient) LockTokens(ctx context.Context, payment models.Payment, epoch uint64) (models.Payment, error) {
	return models.NewPayment(lockedTokenID, epoch, new(big.Int).Set(payment.Amount)), nil
}

func (m *mockChainClient) MergeTokens(ctx context.Context, lockedTokens []models.Payment) (models.Payment, error) {
	m.mu.Lock()
	m.mergeCalls++
	m.mu.Unlock()
	if m.mergeTokensFn != nil {
		return m.mergeTokensFn(lockedTokens)
	}
	total := new(big.Int)
	var maxNonce uint64
	for _, p := range lockedTokens {
		total.Add(total, p.Amount)
		if p.Nonce > maxNonce {
			maxNonce = p.Nonce
		}
	}
	return models.NewPayment(lockedTokens[0].TokenID, maxNonce, total), nil
}

func (m *mockChainClient) LockVirtual(ctx context.Context, tokenID string, amount *big.Int, epoch uint64, contractAddress, user string) (models.Payment, error) {
	return models.NewPayment(lockedTokenID, epoch, new(big.Int).Set(amount)), nil
}

func (m *mockChainClient) WrapLockedToken(ctx context.Context, locked models.Payment) (models.Payment, error) {
	return models.NewPayment("WLKMEX-abc123", locked.Nonce, new(big.Int).Set(locked.Amount)), nil
}

func (m *mockChainClient) WrapNative(ctx context.Context, amount *big.Int) (models.Payment, error) {
	return models.NewFungiblePayment(wrappedTokenID, new(big.Int).Set(amount)), nil
}

func (m *mockChainClient) UnwrapNative(ctx context.Context, payment models.Payment) (models.Payment, error) {
	return models.NewFungiblePayment(nativeTokenID, new(big.Int).Set(payment.Amount)), nil
}

func (m *mockChainClient) SendTokens(ctx context.Context, destination string, payments []models.Payment) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[destination] = append(m.transfers[destination], payments...)
	return nil
}

func (m *mockChainClient) DeployTemplate(ctx context.Context, templateAddr string, values map[string]any) (string, error) {
	return "0x8888888888888888888888888888888888888888", nil
}

func (m *mockChainClient) NativeTokenID() string  { return nativeTokenID }
func (m *mockChainClient) WrappedTokenID() string { return wrappedTokenID }
