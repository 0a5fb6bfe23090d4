package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math/big"
)

// Payment is a (token, nonce, amount) triple. Fungible tokens carry a zero
// nonce; semi-fungible tokens are distinguished by their nonce.
type Payment struct {
	TokenID string   `json:"token_id"`
	Nonce   uint64   `json:"nonce"`
	Amount  *big.Int `json:"amount"`
}

// NewPayment builds a payment with a copied amount so callers cannot mutate
// it afterwards through the original big.Int.
func NewPayment(tokenID string, nonce uint64, amount *big.Int) Payment {
	return Payment{
		TokenID: tokenID,
		Nonce:   nonce,
		Amount:  new(big.Int).Set(amount),
	}
}

// NewFungiblePayment builds a payment with a zero nonce.
func NewFungiblePayment(tokenID string, amount *big.Int) Payment {
	return NewPayment(tokenID, 0, amount)
}

// CanMergeWith reports whether two payments refer to the same token and nonce.
func (p Payment) CanMergeWith(other Payment) bool {
	return p.TokenID == other.TokenID && p.Nonce == other.Nonce
}

// IsZero reports whether the payment carries no amount.
func (p Payment) IsZero() bool {
	return p.Amount == nil || p.Amount.Sign() == 0
}

// Clone returns a deep copy of the payment.
func (p Payment) Clone() Payment {
	cp := p
	if p.Amount != nil {
		cp.Amount = new(big.Int).Set(p.Amount)
	}
	return cp
}

// UniquePayments is an ordered payment list with the invariant that no two
// entries share the same (token, nonce) pair. Insertion merges amounts into
// the first matching entry, so iterating yields each pair exactly once.
type UniquePayments struct {
	payments []Payment
}

// NewUniquePayments returns an empty instance, the identity for MergeWith.
func NewUniquePayments() *UniquePayments {
	return &UniquePayments{}
}

// UniquePaymentsFromSingle starts a list from one payment.
func UniquePaymentsFromSingle(p Payment) *UniquePayments {
	up := NewUniquePayments()
	up.AddPayment(p)
	return up
}

// AddPayment merges p into the matching entry or appends it. Zero-amount
// payments are ignored.
func (u *UniquePayments) AddPayment(p Payment) {
	if p.IsZero() {
		return
	}
	for i := range u.payments {
		if u.payments[i].CanMergeWith(p) {
			u.payments[i].Amount = new(big.Int).Add(u.payments[i].Amount, p.Amount)
			return
		}
	}
	u.payments = append(u.payments, p.Clone())
}

// MergeWith folds every payment of other into u.
func (u *UniquePayments) MergeWith(other *UniquePayments) {
	if other == nil {
		return
	}
	for _, p := range other.payments {
		u.AddPayment(p)
	}
}

// IntoPayments releases the internal list in insertion order.
func (u *UniquePayments) IntoPayments() []Payment {
	return u.payments
}

// Len returns the number of distinct (token, nonce) entries.
func (u *UniquePayments) Len() int {
	return len(u.payments)
}

func (u UniquePayments) MarshalJSON() ([]byte, error) {
	if u.payments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(u.payments)
}

func (u *UniquePayments) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &u.payments)
}

// Value implements driver.Valuer so the list can live in a text column.
func (u UniquePayments) Value() (driver.Value, error) {
	return json.Marshal(u)
}

// Scan implements sql.Scanner.
func (u *UniquePayments) Scan(value interface{}) error {
	if value == nil {
		u.payments = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	if len(bytes) == 0 {
		u.payments = nil
		return nil
	}
	return json.Unmarshal(bytes, u)
}

// RewardsWrapper accumulates claimed rewards, routed by whether the token is
// the configured locked token.
type RewardsWrapper struct {
	LockedTokenID string          `json:"locked_token_id"`
	LockedTokens  *UniquePayments `json:"locked_tokens"`
	OtherTokens   *UniquePayments `json:"other_tokens"`
}

// NewRewardsWrapper returns an empty wrapper for the given locked token.
func NewRewardsWrapper(lockedTokenID string) *RewardsWrapper {
	return &RewardsWrapper{
		LockedTokenID: lockedTokenID,
		LockedTokens:  NewUniquePayments(),
		OtherTokens:   NewUniquePayments(),
	}
}

// AddPayment routes p to the locked or other list by token id.
func (r *RewardsWrapper) AddPayment(p Payment) {
	if p.TokenID == r.LockedTokenID {
		r.LockedTokens.AddPayment(p)
	} else {
		r.OtherTokens.AddPayment(p)
	}
}

// MergedRewardsWrapper is a RewardsWrapper whose locked list has been
// collapsed into a single optional payment.
type MergedRewardsWrapper struct {
	OptLockedTokens *Payment        `json:"opt_locked_tokens,omitempty"`
	OtherTokens     *UniquePayments `json:"other_tokens"`
}
