package service

import (
	"context"
	"fmt"

	"github.com/rl1809/supply-chain/internal/core/domain"
)

// settle moves the offered payment into escrow, pays the seller the price and
// refunds the overage, all inside one ledger transaction. item must already
// carry its buyer.
func (s *Service) settle(ctx context.Context, item domain.Item, offered uint64) (uint64, error) {
	overage, err := domain.Overage(item.Sku, offered, item.Price)
	if err != nil {
		return 0, err
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return 0, settlementError(item.Sku, "begin", err)
	}
	defer tx.Rollback()

	if err := tx.Transfer(ctx, item.Buyer, s.escrow, offered); err != nil {
		return 0, settlementError(item.Sku, "collect payment", err)
	}
	if err := tx.Transfer(ctx, s.escrow, item.Seller, item.Price); err != nil {
		return 0, settlementError(item.Sku, "pay seller", err)
	}
	if overage > 0 {
		if err := tx.Transfer(ctx, s.escrow, item.Buyer, overage); err != nil {
			return 0, settlementError(item.Sku, "refund overage", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, settlementError(item.Sku, "commit", err)
	}

	return overage, nil
}

func settlementError(sku uint64, step string, err error) error {
	return &domain.SettlementError{Sku: sku, Err: fmt.Errorf("%s: %w", step, err)}
}
