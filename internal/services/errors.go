package services

import "errors"

// Error kinds. The API layer maps these onto HTTP statuses; everything else
// just wraps and propagates.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrStateConflict = errors.New("state conflict")
	ErrPolicy        = errors.New("policy violation")
)

var (
	ErrAddressAlreadyRegistered = errors.New("address already registered")
	ErrUnknownAddress           = errors.New("unknown address")
	ErrUnknownOrder             = errors.New("unknown order")
	ErrUnknownAction            = errors.New("unknown action")
	ErrFarmingTokenAlreadyBound = errors.New("farming token already bound to another farm")
	ErrContractPaused           = errors.New("contract is paused")
	ErrNotAdmin                 = errors.New("caller is not an admin")
)

// Kind returns the error kind an error belongs to, or nil.
func Kind(err error) error {
	switch {
	case errors.Is(err, ErrAddressAlreadyRegistered),
		errors.Is(err, ErrFarmingTokenAlreadyBound):
		return ErrStateConflict
	case errors.Is(err, ErrUnknownAddress),
		errors.Is(err, ErrUnknownOrder),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrInvalidInput):
		return ErrInvalidInput
	case errors.Is(err, ErrContractPaused):
		return ErrPolicy
	case errors.Is(err, ErrNotAdmin), errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized
	case errors.Is(err, ErrStateConflict):
		return ErrStateConflict
	case errors.Is(err, ErrPolicy):
		return ErrPolicy
	default:
		return nil
	}
}
