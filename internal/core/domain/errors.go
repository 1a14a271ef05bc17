package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized     = errors.New("unauthorized caller")
	ErrInvalidState     = errors.New("invalid item state")
	ErrUnderpaid        = errors.New("payment below price")
	ErrNotFound         = errors.New("item not found")
	ErrSettlementFailed = errors.New("settlement failed")
)

type AuthorizationError struct {
	Sku      uint64
	Expected Address
	Actual   Address
}

func (e *AuthorizationError) Error() string {
	if e.Actual.IsZero() {
		return fmt.Sprintf("item %d: missing caller identity", e.Sku)
	}
	return fmt.Sprintf("item %d: caller %s is not %s", e.Sku, e.Actual, e.Expected)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }

type StateError struct {
	Sku  uint64
	Want State
	Got  State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("item %d: state is %s, want %s", e.Sku, e.Got, e.Want)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

type PaymentError struct {
	Sku     uint64
	Offered uint64
	Price   uint64
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("item %d: offered %d, price is %d", e.Sku, e.Offered, e.Price)
}

func (e *PaymentError) Is(target error) bool { return target == ErrUnderpaid }

type NotFoundError struct {
	Sku uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item %d: not found", e.Sku)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// SettlementError reports a failed value transfer during purchase. The
// underlying ledger error is available through errors.Unwrap.
type SettlementError struct {
	Sku uint64
	Err error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("item %d: settlement: %v", e.Sku, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

func (e *SettlementError) Is(target error) bool { return target == ErrSettlementFailed }
