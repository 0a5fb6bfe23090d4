package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Addresses holds the deployed locations of every external contract.
type Addresses struct {
	FeesCollector      string
	Metabonding        string
	Router             string
	EnergyFactory      string
	LockedTokenWrapper string
	TokenBridge        string
	TemplateFactory    string
}

// EvmConfig configures the EVM-backed chain client.
type EvmConfig struct {
	RpcURL         string
	ChainID        int64
	OperatorKey    string
	NativeTokenID  string
	WrappedTokenID string
	Addresses      Addresses
}

// abiPayment mirrors the (tokenId, nonce, amount) tuple on the wire.
type abiPayment struct {
	TokenId string   `abi:"tokenId"`
	Nonce   uint64   `abi:"nonce"`
	Amount  *big.Int `abi:"amount"`
}

func toAbiPayment(p models.Payment) abiPayment {
	amount := p.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	return abiPayment{TokenId: p.TokenID, Nonce: p.Nonce, Amount: amount}
}

func fromAbiPayment(p abiPayment) models.Payment {
	return models.NewPayment(p.TokenId, p.Nonce, p.Amount)
}

// abiSwapStep mirrors one multi-pair swap hop on the wire.
type abiSwapStep struct {
	Pair         common.Address `abi:"pair"`
	TokenOut     string         `abi:"tokenOut"`
	MinAmountOut *big.Int       `abi:"minAmountOut"`
}

// abiMetabondingClaim mirrors one week's claim argument set on the wire.
type abiMetabondingClaim struct {
	Week             uint64   `abi:"week"`
	DelegationAmount *big.Int `abi:"delegationAmount"`
	LkmexAmount      *big.Int `abi:"lkmexAmount"`
	Signature        []byte   `abi:"signature"`
}

// EvmClient executes the suite's external legs against EVM contracts over
// JSON-RPC. Views go through eth_call; state-changing calls are simulated
// first to decode their return values, then signed and submitted.
type EvmClient struct {
	rpc       *utils.RPCClient
	logger    *zap.Logger
	cfg       EvmConfig
	chainID   *big.Int
	key       *ecdsa.PrivateKey
	operator  common.Address
	abis      map[string]abi.ABI
}

// NewEvmClient parses the contract ABIs and the operator key.
func NewEvmClient(cfg EvmConfig, logger *zap.Logger) (*EvmClient, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.OperatorKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse operator key: %w", err)
	}

	abis := make(map[string]abi.ABI)
	for name, raw := range map[string]string{
		"feesCollector":      feesCollectorABI,
		"metabonding":        metabondingABI,
		"farm":               farmABI,
		"metastaking":        metastakingABI,
		"pair":               pairABI,
		"router":             routerABI,
		"energyFactory":      energyFactoryABI,
		"lockedTokenWrapper": lockedTokenWrapperABI,
		"tokenBridge":        tokenBridgeABI,
		"templateFactory":    templateFactoryABI,
	} {
		parsed, err := abi.JSON(strings.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s ABI: %w", name, err)
		}
		abis[name] = parsed
	}

	return &EvmClient{
		rpc:      utils.NewRPCClient(cfg.RpcURL),
		logger:   logger,
		cfg:      cfg,
		chainID:  big.NewInt(cfg.ChainID),
		key:      key,
		operator: crypto.PubkeyToAddress(key.PublicKey),
		abis:     abis,
	}, nil
}

func (c *EvmClient) NativeTokenID() string  { return c.cfg.NativeTokenID }
func (c *EvmClient) WrappedTokenID() string { return c.cfg.WrappedTokenID }

// ethCall packs and performs an eth_call, retrying transient transport
// errors, and returns the raw return data.
func (c *EvmClient) ethCall(ctx context.Context, to string, contractABI abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	params := map[string]interface{}{
		"from": c.operator.Hex(),
		"to":   to,
		"data": hexutil.Encode(data),
	}

	op := func() (string, error) {
		response, err := c.rpc.Call("eth_call", []interface{}{params, "latest"})
		if err != nil {
			return "", err
		}
		result, ok := response.Result.(string)
		if !ok {
			return "", backoff.Permanent(fmt.Errorf("invalid eth_call response for %s", method))
		}
		return result, nil
	}

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3))
	if err != nil {
		return nil, fmt.Errorf("%w: %s on %s: %v", ErrExternalCall, method, to, err)
	}
	decoded, err := hexutil.Decode(result)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed %s response: %v", ErrExternalCall, method, err)
	}
	return decoded, nil
}

// callView performs a read-only call and unpacks the outputs into out.
func (c *EvmClient) callView(ctx context.Context, to string, contractABI abi.ABI, method string, out interface{}, args ...interface{}) error {
	raw, err := c.ethCall(ctx, to, contractABI, method, args...)
	if err != nil {
		return err
	}
	if err := contractABI.UnpackIntoInterface(out, method, raw); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return nil
}

// execute simulates the call to decode its return values, then signs and
// submits the transaction and waits for its receipt. A reverted receipt is
// an external failure.
func (c *EvmClient) execute(ctx context.Context, to string, contractABI abi.ABI, method string, out interface{}, args ...interface{}) error {
	raw, err := c.ethCall(ctx, to, contractABI, method, args...)
	if err != nil {
		return err
	}
	if out != nil {
		if err := contractABI.UnpackIntoInterface(out, method, raw); err != nil {
			return fmt.Errorf("failed to unpack %s result: %w", method, err)
		}
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", method, err)
	}

	txHash, err := c.signAndSend(ctx, to, data)
	if err != nil {
		return err
	}

	return c.waitForReceipt(ctx, txHash, method)
}

func (c *EvmClient) signAndSend(ctx context.Context, to string, data []byte) (string, error) {
	nonce, err := c.pendingNonce()
	if err != nil {
		return "", err
	}
	gasPrice, err := c.gasPrice()
	if err != nil {
		return "", err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       addressPtr(to),
		Value:    new(big.Int),
		Gas:      2_000_000,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	rawTx, err := signed.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}

	response, err := c.rpc.Call("eth_sendRawTransaction", []interface{}{hexutil.Encode(rawTx)})
	if err != nil {
		return "", fmt.Errorf("%w: send: %v", ErrExternalCall, err)
	}
	txHash, ok := response.Result.(string)
	if !ok {
		return "", fmt.Errorf("%w: invalid send response", ErrExternalCall)
	}

	c.logger.Debug("transaction submitted",
		zap.String("to", to),
		zap.String("tx_hash", txHash))
	return txHash, nil
}

func (c *EvmClient) waitForReceipt(ctx context.Context, txHash, method string) error {
	op := func() (bool, error) {
		success, _, err := c.rpc.VerifyTransactionSuccess(txHash)
		if err != nil {
			return false, err
		}
		if !success {
			return false, backoff.Permanent(fmt.Errorf("%w: %s reverted (%s)", ErrExternalCall, method, txHash))
		}
		return true, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(2*time.Minute))
	if err != nil {
		c.logger.Warn("transaction not confirmed",
			zap.String("tx_hash", txHash),
			zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrExternalCall, method, err)
	}
	return nil
}

func (c *EvmClient) pendingNonce() (uint64, error) {
	response, err := c.rpc.Call("eth_getTransactionCount", []interface{}{c.operator.Hex(), "pending"})
	if err != nil {
		return 0, fmt.Errorf("%w: nonce: %v", ErrExternalCall, err)
	}
	hex, ok := response.Result.(string)
	if !ok {
		return 0, fmt.Errorf("%w: invalid nonce response", ErrExternalCall)
	}
	return hexutil.DecodeUint64(hex)
}

func (c *EvmClient) gasPrice() (*big.Int, error) {
	response, err := c.rpc.Call("eth_gasPrice", []interface{}{})
	if err != nil {
		return nil, fmt.Errorf("%w: gas price: %v", ErrExternalCall, err)
	}
	hex, ok := response.Result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: invalid gas price response", ErrExternalCall)
	}
	return hexutil.DecodeBig(hex)
}

func addressPtr(addr string) *common.Address {
	a := common.HexToAddress(addr)
	return &a
}

func (c *EvmClient) ClaimFeesCollectorRewards(ctx context.Context, user string) ([]models.Payment, error) {
	var out struct {
		Payments []abiPayment `abi:"payments"`
	}
	err := c.execute(ctx, c.cfg.Addresses.FeesCollector, c.abis["feesCollector"], "claimRewards", &out, common.HexToAddress(user))
	if err != nil {
		return nil, err
	}
	payments := make([]models.Payment, 0, len(out.Payments))
	for _, p := range out.Payments {
		payments = append(payments, fromAbiPayment(p))
	}
	return payments, nil
}

func (c *EvmClient) ClaimMetabondingRewards(ctx context.Context, user string, claims []MetabondingClaim) ([]models.Payment, error) {
	abiClaims := make([]abiMetabondingClaim, 0, len(claims))
	for _, claim := range claims {
		abiClaims = append(abiClaims, abiMetabondingClaim{
			Week:             claim.Week,
			DelegationAmount: claim.DelegationAmount,
			LkmexAmount:      claim.LkmexAmount,
			Signature:        claim.Signature,
		})
	}

	var out struct {
		Payments []abiPayment `abi:"payments"`
	}
	err := c.execute(ctx, c.cfg.Addresses.Metabonding, c.abis["metabonding"], "claimRewards", &out, common.HexToAddress(user), abiClaims)
	if err != nil {
		return nil, err
	}
	payments := make([]models.Payment, 0, len(out.Payments))
	for _, p := range out.Payments {
		payments = append(payments, fromAbiPayment(p))
	}
	return payments, nil
}

func (c *EvmClient) FarmConfig(ctx context.Context, farmAddress string) (FarmConfig, error) {
	var out struct {
		FarmTokenId    string `abi:"farmTokenId"`
		FarmingTokenId string `abi:"farmingTokenId"`
		Active         bool   `abi:"active"`
	}
	if err := c.callView(ctx, farmAddress, c.abis["farm"], "config", &out); err != nil {
		return FarmConfig{}, err
	}
	return FarmConfig{
		FarmTokenID:    out.FarmTokenId,
		FarmingTokenID: out.FarmingTokenId,
		Active:         out.Active,
	}, nil
}

func (c *EvmClient) MetastakingConfig(ctx context.Context, address string) (MetastakingConfig, error) {
	var out struct {
		DualYieldTokenId string `abi:"dualYieldTokenId"`
		LpFarmTokenId    string `abi:"lpFarmTokenId"`
	}
	if err := c.callView(ctx, address, c.abis["metastaking"], "config", &out); err != nil {
		return MetastakingConfig{}, err
	}
	return MetastakingConfig{
		DualYieldTokenID: out.DualYieldTokenId,
		LpFarmTokenID:    out.LpFarmTokenId,
	}, nil
}

func (c *EvmClient) ClaimFarmRewards(ctx context.Context, farmAddress, user string, farmToken models.Payment) (FarmClaimResult, error) {
	var out struct {
		NewFarmToken abiPayment `abi:"newFarmToken"`
		Reward       abiPayment `abi:"reward"`
	}
	err := c.execute(ctx, farmAddress, c.abis["farm"], "claimRewards", &out, common.HexToAddress(user), toAbiPayment(farmToken))
	if err != nil {
		return FarmClaimResult{}, err
	}
	return FarmClaimResult{
		NewFarmToken: fromAbiPayment(out.NewFarmToken),
		Reward:       fromAbiPayment(out.Reward),
	}, nil
}

func (c *EvmClient) EnterFarm(ctx context.Context, farmAddress, user string, input models.Payment) (EnterFarmResult, error) {
	var out struct {
		NewFarmToken abiPayment `abi:"newFarmToken"`
		Leftover     abiPayment `abi:"leftover"`
	}
	err := c.execute(ctx, farmAddress, c.abis["farm"], "enterFarm", &out, common.HexToAddress(user), toAbiPayment(input))
	if err != nil {
		return EnterFarmResult{}, err
	}
	return EnterFarmResult{
		NewFarmToken: fromAbiPayment(out.NewFarmToken),
		Leftover:     fromAbiPayment(out.Leftover),
	}, nil
}

func (c *EvmClient) ExitFarm(ctx context.Context, farmAddress string, amount *big.Int, user string, farmToken models.Payment) (ExitFarmResult, error) {
	var out struct {
		FarmingTokens abiPayment `abi:"farmingTokens"`
		Reward        abiPayment `abi:"reward"`
	}
	err := c.execute(ctx, farmAddress, c.abis["farm"], "exitFarm", &out, amount, common.HexToAddress(user), toAbiPayment(farmToken))
	if err != nil {
		return ExitFarmResult{}, err
	}
	return ExitFarmResult{
		FarmingTokens: fromAbiPayment(out.FarmingTokens),
		Reward:        fromAbiPayment(out.Reward),
	}, nil
}

func (c *EvmClient) SwapTokensFixedInput(ctx context.Context, pairAddress, outTokenID string, minOut *big.Int, input models.Payment) (models.Payment, error) {
	var out struct {
		Output abiPayment `abi:"output"`
	}
	err := c.execute(ctx, pairAddress, c.abis["pair"], "swapTokensFixedInput", &out, outTokenID, minOut, toAbiPayment(input))
	if err != nil {
		return models.Payment{}, err
	}
	return fromAbiPayment(out.Output), nil
}

func (c *EvmClient) MultiPairSwap(ctx context.Context, steps []SwapStep, input models.Payment) (models.Payment, error) {
	abiSteps := make([]abiSwapStep, 0, len(steps))
	for _, step := range steps {
		abiSteps = append(abiSteps, abiSwapStep{
			Pair:         common.HexToAddress(step.PairAddress),
			TokenOut:     step.OutputTokenID,
			MinAmountOut: step.MinAmountOut,
		})
	}

	var out struct {
		Output abiPayment `abi:"output"`
	}
	err := c.execute(ctx, c.cfg.Addresses.Router, c.abis["router"], "multiPairSwap", &out, abiSteps, toAbiPayment(input))
	if err != nil {
		return models.Payment{}, err
	}
	return fromAbiPayment(out.Output), nil
}

func (c *EvmClient) GetPair(ctx context.Context, tokenA, tokenB string) (string, error) {
	var out struct {
		Pair common.Address `abi:"pair"`
	}
	if err := c.callView(ctx, c.cfg.Addresses.Router, c.abis["router"], "getPair", &out, tokenA, tokenB); err != nil {
		return "", err
	}
	if out.Pair == (common.Address{}) {
		return "", fmt.Errorf("%w: no pair for %s/%s", ErrExternalCall, tokenA, tokenB)
	}
	return out.Pair.Hex(), nil
}

func (c *EvmClient) LockTokens(ctx context.Context, payment models.Payment, epoch uint64) (models.Payment, error) {
	var out struct {
		Locked abiPayment `abi:"locked"`
	}
	err := c.execute(ctx, c.cfg.Addresses.EnergyFactory, c.abis["energyFactory"], "lockTokens", &out, toAbiPayment(payment), epoch)
	if err != nil {
		return models.Payment{}, err
	}
	return fromAbiPayment(out.Locked), nil
}

func (c *EvmClient) MergeTokens(ctx context.Context, lockedTokens []models.Payment) (models.Payment, error) {
	abiPayments := make([]abiPayment, 0, len(lockedTokens))
	for _, p := range lockedTokens {
		abiPayments = append(abiPayments, toAbiPayment(p))
	}

	var out struct {
		Merged abiPayment `abi:"merged"`
	}
	err := c.execute(ctx, c.cfg.Addresses.EnergyFactory, c.abis["energyFactory"], "mergeTokens", &out, abiPayments)
	if err != nil {
		return models.Payment{}, err
	}
	return fromAbiPayment(out.Merged), nil
}

func (c *EvmClient) LockVirtual(ctx context.Context, tokenID string, amount *big.Int, epoch uint64, contractAddress, user string) (models.Payment, error) {
	var out struct {
		Locked abiPayment `abi:"locked"`
	}
	err := c.execute(ctx, c.cfg.Addresses.EnergyFactory, c.abis["energyFactory"], "lockVirtual", &out,
		tokenID, amount, epoch, common.HexToAddress(contractAddress), common.HexToAddress(user))
	if err != nil {
		return models.Payment{}, err
	}
	return fromAbiPayment(out.Locked), nil
}

func (c *EvmClient) WrapLockedToken(ctx context.Context, locked models.Payment) (models.Payment, error) {
	var out struct {
		Wrapped abiPayment `abi:"wrapped"`
	}
	err := c.execute(ctx, c.cfg.Addresses.LockedTokenWrapper, c.abis["lockedTokenWrapper"], "wrapLockedToken", &out, toAbiPayment(locked))
	if err != nil {
		return models.Payment{}, err
	}
	return fromAbiPayment(out.Wrapped), nil
}

func (c *EvmClient) WrapNative(ctx context.Context, amount *big.Int) (models.Payment, error) {
	var out struct {
		Wrapped abiPayment `abi:"wrapped"`
	}
	err := c.execute(ctx, c.cfg.Addresses.TokenBridge, c.abis["tokenBridge"], "wrapNative", &out, amount)
	if err != nil {
		return models.Payment{}, err
	}
	return fromAbiPayment(out.Wrapped), nil
}

func (c *EvmClient) UnwrapNative(ctx context.Context, payment models.Payment) (models.Payment, error) {
	var out struct {
		Native abiPayment `abi:"native"`
	}
	err := c.execute(ctx, c.cfg.Addresses.TokenBridge, c.abis["tokenBridge"], "unwrapNative", &out, toAbiPayment(payment))
	if err != nil {
		return models.Payment{}, err
	}
	return fromAbiPayment(out.Native), nil
}

func (c *EvmClient) SendTokens(ctx context.Context, destination string, payments []models.Payment) error {
	abiPayments := make([]abiPayment, 0, len(payments))
	for _, p := range payments {
		abiPayments = append(abiPayments, toAbiPayment(p))
	}
	return c.execute(ctx, c.cfg.Addresses.TokenBridge, c.abis["tokenBridge"], "sendTokens", nil,
		common.HexToAddress(destination), abiPayments)
}

func (c *EvmClient) DeployTemplate(ctx context.Context, templateAddress string, values map[string]any) (string, error) {
	valuesJSON, err := jsonMarshalValues(values)
	if err != nil {
		return "", err
	}

	var out struct {
		Instance common.Address `abi:"instance"`
	}
	err = c.execute(ctx, c.cfg.Addresses.TemplateFactory, c.abis["templateFactory"], "deployFromTemplate", &out,
		common.HexToAddress(templateAddress), valuesJSON)
	if err != nil {
		return "", err
	}
	return out.Instance.Hex(), nil
}
