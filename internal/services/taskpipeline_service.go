package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/arcline-lab/chainsuite/internal/chain"
	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/utils"
)

// TaskType identifies a pipeline primitive.
type TaskType string

const (
	TaskWrapNative   TaskType = "wrap_native"
	TaskUnwrapNative TaskType = "unwrap_native"
	TaskSwap         TaskType = "swap"
	TaskEnterFarm    TaskType = "enter_farm"
	TaskExitFarm     TaskType = "exit_farm"
	TaskLockTokens   TaskType = "lock_tokens"
	TaskLockVirtual  TaskType = "lock_virtual"
	TaskWrapLocked   TaskType = "wrap_locked"
	TaskSendTokens   TaskType = "send_tokens"
)

// Task is one step of a compose pipeline. Swap steps read TokenOut and
// MinAmountOut; farm and virtual-lock steps read Destination as the
// contract address; lock steps read Epoch; SendTokens reads Destination
// and must be the tail step.
type Task struct {
	Type         TaskType
	TokenOut     string
	MinAmountOut *big.Int
	Destination  string
	Epoch        uint64
}

// PipelineResult reports what left the pipeline and where it went.
type PipelineResult struct {
	Payment   models.Payment
	Recipient string
}

// TaskPipelineService threads a single payment through an ordered list of
// primitive operations. Each step consumes the previous step's output; a
// zero balance between steps aborts the pipeline.
type TaskPipelineService interface {
	ComposeTasks(ctx context.Context, caller string, payment models.Payment, tasks []Task, optDest string) (*PipelineResult, error)
}

type taskPipelineService struct {
	chainClient chain.Client
}

// NewTaskPipelineService creates a new TaskPipelineService
func NewTaskPipelineService(chainClient chain.Client) TaskPipelineService {
	return &taskPipelineService{chainClient: chainClient}
}

func (s *taskPipelineService) ComposeTasks(ctx context.Context, caller string, payment models.Payment, tasks []Task, optDest string) (*PipelineResult, error) {
	if !utils.IsValidAddress(caller) {
		return nil, fmt.Errorf("%w: invalid caller address", ErrInvalidInput)
	}
	if payment.IsZero() {
		return nil, fmt.Errorf("%w: zero payment", ErrInvalidInput)
	}
	if optDest != "" && !utils.IsValidAddress(optDest) {
		return nil, fmt.Errorf("%w: invalid destination address", ErrInvalidInput)
	}

	current := payment
	for i, task := range tasks {
		if current.IsZero() {
			return nil, fmt.Errorf("%w: zero balance before step %d", ErrInvalidInput, i+1)
		}

		switch task.Type {
		case TaskWrapNative:
			if current.TokenID != s.chainClient.NativeTokenID() {
				return nil, fmt.Errorf("%w: wrap requires the native token, got %s", ErrInvalidInput, current.TokenID)
			}
			wrapped, err := s.chainClient.WrapNative(ctx, current.Amount)
			if err != nil {
				return nil, err
			}
			current = wrapped

		case TaskUnwrapNative:
			if current.TokenID != s.chainClient.WrappedTokenID() {
				return nil, fmt.Errorf("%w: unwrap requires the wrapped token, got %s", ErrInvalidInput, current.TokenID)
			}
			native, err := s.chainClient.UnwrapNative(ctx, current)
			if err != nil {
				return nil, err
			}
			current = native

		case TaskSwap:
			if current.TokenID == s.chainClient.NativeTokenID() {
				return nil, fmt.Errorf("%w: swap requires a fungible token, wrap first", ErrInvalidInput)
			}
			if !utils.IsValidTokenID(task.TokenOut) {
				return nil, fmt.Errorf("%w: invalid output token id %s", ErrInvalidInput, task.TokenOut)
			}
			pair, err := s.chainClient.GetPair(ctx, current.TokenID, task.TokenOut)
			if err != nil {
				return nil, err
			}
			minOut := task.MinAmountOut
			if minOut == nil {
				minOut = big.NewInt(1)
			}
			out, err := s.chainClient.SwapTokensFixedInput(ctx, pair, task.TokenOut, minOut, current)
			if err != nil {
				return nil, err
			}
			current = out

		case TaskEnterFarm:
			if !utils.IsValidAddress(task.Destination) {
				return nil, fmt.Errorf("%w: invalid farm address", ErrInvalidInput)
			}
			entered, err := s.chainClient.EnterFarm(ctx, task.Destination, caller, current)
			if err != nil {
				return nil, err
			}
			if !entered.Leftover.IsZero() {
				if err := s.chainClient.SendTokens(ctx, caller, []models.Payment{entered.Leftover}); err != nil {
					return nil, err
				}
			}
			current = entered.NewFarmToken

		case TaskExitFarm:
			if !utils.IsValidAddress(task.Destination) {
				return nil, fmt.Errorf("%w: invalid farm address", ErrInvalidInput)
			}
			exited, err := s.chainClient.ExitFarm(ctx, task.Destination, current.Amount, caller, current)
			if err != nil {
				return nil, err
			}
			if !exited.Reward.IsZero() {
				if err := s.chainClient.SendTokens(ctx, caller, []models.Payment{exited.Reward}); err != nil {
					return nil, err
				}
			}
			current = exited.FarmingTokens

		case TaskLockTokens:
			if task.Epoch == 0 {
				return nil, fmt.Errorf("%w: lock requires a positive unlock epoch", ErrInvalidInput)
			}
			locked, err := s.chainClient.LockTokens(ctx, current, task.Epoch)
			if err != nil {
				return nil, err
			}
			current = locked

		case TaskLockVirtual:
			if task.Epoch == 0 {
				return nil, fmt.Errorf("%w: lock requires a positive unlock epoch", ErrInvalidInput)
			}
			if !utils.IsValidAddress(task.Destination) {
				return nil, fmt.Errorf("%w: invalid lock contract address", ErrInvalidInput)
			}
			locked, err := s.chainClient.LockVirtual(ctx, current.TokenID, current.Amount, task.Epoch, task.Destination, caller)
			if err != nil {
				return nil, err
			}
			current = locked

		case TaskWrapLocked:
			wrapped, err := s.chainClient.WrapLockedToken(ctx, current)
			if err != nil {
				return nil, err
			}
			current = wrapped

		case TaskSendTokens:
			if i != len(tasks)-1 {
				return nil, fmt.Errorf("%w: send must be the final step", ErrInvalidInput)
			}
			if !utils.IsValidAddress(task.Destination) {
				return nil, fmt.Errorf("%w: invalid send destination", ErrInvalidInput)
			}
			if err := s.chainClient.SendTokens(ctx, task.Destination, []models.Payment{current}); err != nil {
				return nil, err
			}
			return &PipelineResult{Payment: current, Recipient: task.Destination}, nil

		default:
			return nil, fmt.Errorf("%w: unknown task type %q", ErrInvalidInput, task.Type)
		}
	}

	if current.IsZero() {
		return nil, fmt.Errorf("%w: pipeline produced a zero payment", ErrInvalidInput)
	}

	recipient := caller
	if optDest != "" {
		recipient = optDest
	}
	if err := s.chainClient.SendTokens(ctx, recipient, []models.Payment{current}); err != nil {
		return nil, err
	}
	return &PipelineResult{Payment: current, Recipient: recipient}, nil
}
