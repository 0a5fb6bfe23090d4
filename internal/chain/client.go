package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/arcline-lab/chainsuite/internal/models"
)

// ErrExternalCall marks a failure reported by an upstream contract. The DCA
// callback path converts it into local retry state; every other caller
// propagates it and aborts.
var ErrExternalCall = errors.New("external contract call failed")

// FarmConfig is the token configuration queried once when a farm is
// whitelisted.
type FarmConfig struct {
	FarmTokenID    string
	FarmingTokenID string
	Active         bool
}

// MetastakingConfig mirrors FarmConfig for metastaking contracts.
type MetastakingConfig struct {
	DualYieldTokenID string
	LpFarmTokenID    string
}

// MetabondingClaim is one week's claim argument set, signature included.
type MetabondingClaim struct {
	Week             uint64   `json:"week"`
	DelegationAmount *big.Int `json:"delegation_amount"`
	LkmexAmount      *big.Int `json:"lkmex_amount"`
	Signature        []byte   `json:"signature"`
}

// SwapStep is one hop of a multi-pair swap plan.
type SwapStep struct {
	PairAddress   string   `json:"pair_address"`
	OutputTokenID string   `json:"output_token_id"`
	MinAmountOut  *big.Int `json:"min_amount_out"`
}

// FarmClaimResult is the pair returned by a farm claim: the re-issued farm
// token and the accrued reward.
type FarmClaimResult struct {
	NewFarmToken models.Payment
	Reward       models.Payment
}

// EnterFarmResult is the pair returned by a farm entry.
type EnterFarmResult struct {
	NewFarmToken models.Payment
	Leftover     models.Payment
}

// ExitFarmResult is the pair returned by a farm exit.
type ExitFarmResult struct {
	FarmingTokens models.Payment
	Reward        models.Payment
}

// Client is the boundary to every external contract the suite consumes.
// Implementations must treat each method as a single host transaction:
// either the call succeeds and its outputs are final, or it fails and has
// no observable effect.
type Client interface {
	// Reward sources. The fees collector guarantees the locked-token
	// payment, if any, is last; other sources make no ordering promise.
	ClaimFeesCollectorRewards(ctx context.Context, user string) ([]models.Payment, error)
	ClaimMetabondingRewards(ctx context.Context, user string, claims []MetabondingClaim) ([]models.Payment, error)

	// Farms.
	FarmConfig(ctx context.Context, farmAddress string) (FarmConfig, error)
	MetastakingConfig(ctx context.Context, address string) (MetastakingConfig, error)
	ClaimFarmRewards(ctx context.Context, farmAddress, user string, farmToken models.Payment) (FarmClaimResult, error)
	EnterFarm(ctx context.Context, farmAddress, user string, input models.Payment) (EnterFarmResult, error)
	ExitFarm(ctx context.Context, farmAddress string, amount *big.Int, user string, farmToken models.Payment) (ExitFarmResult, error)

	// Swap engine.
	SwapTokensFixedInput(ctx context.Context, pairAddress, outTokenID string, minOut *big.Int, input models.Payment) (models.Payment, error)
	MultiPairSwap(ctx context.Context, steps []SwapStep, input models.Payment) (models.Payment, error)
	GetPair(ctx context.Context, tokenA, tokenB string) (string, error)

	// Energy factory and locked token wrapper.
	LockTokens(ctx context.Context, payment models.Payment, epoch uint64) (models.Payment, error)
	MergeTokens(ctx context.Context, lockedTokens []models.Payment) (models.Payment, error)
	LockVirtual(ctx context.Context, tokenID string, amount *big.Int, epoch uint64, contractAddress, user string) (models.Payment, error)
	WrapLockedToken(ctx context.Context, locked models.Payment) (models.Payment, error)

	// Native token plumbing and transfers.
	WrapNative(ctx context.Context, amount *big.Int) (models.Payment, error)
	UnwrapNative(ctx context.Context, payment models.Payment) (models.Payment, error)
	SendTokens(ctx context.Context, destination string, payments []models.Payment) error

	// Templated deployment.
	DeployTemplate(ctx context.Context, templateAddress string, values map[string]any) (string, error)

	NativeTokenID() string
	WrappedTokenID() string
}
