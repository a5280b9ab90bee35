package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
)

// accountReader is the slice of runtime.NakamaModule the economy adapter needs.
type accountReader interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
}

// NakamaEconomyAdapter implements ports.EconomyPort on Nakama's wallet. The
// op-builder methods only describe ledger mutations; execution happens inside
// the session store's MultiUpdate.
type NakamaEconomyAdapter struct {
	nk accountReader
}

// NewNakamaEconomyAdapter creates a new economy adapter.
func NewNakamaEconomyAdapter(nk accountReader) *NakamaEconomyAdapter {
	return &NakamaEconomyAdapter{nk: nk}
}

// GetBalance retrieves the current spendable gold balance for a user.
func (a *NakamaEconomyAdapter) GetBalance(ctx context.Context, userID string) (int64, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}

	var wallet map[string]int64
	if err := json.Unmarshal([]byte(account.Wallet), &wallet); err != nil {
		return 0, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return wallet[CurrencyGold], nil
}

// LockStake moves a stake from gold into the locked currency.
func (a *NakamaEconomyAdapter) LockStake(userID string, amount int64) ports.WalletOp {
	return ports.WalletOp{
		UserID: userID,
		Changeset: map[string]int64{
			CurrencyGold:   -amount,
			CurrencyLocked: amount,
		},
		Metadata: map[string]interface{}{"reason": "crazy_stake_lock"},
	}
}

// ReleaseLock returns a stake from locked back to gold.
func (a *NakamaEconomyAdapter) ReleaseLock(userID string, amount int64) ports.WalletOp {
	return ports.WalletOp{
		UserID: userID,
		Changeset: map[string]int64{
			CurrencyGold:   amount,
			CurrencyLocked: -amount,
		},
		Metadata: map[string]interface{}{"reason": "crazy_stake_release"},
	}
}

// Debit removes a settled loss from the spendable balance.
func (a *NakamaEconomyAdapter) Debit(userID string, amount int64) ports.WalletOp {
	return ports.WalletOp{
		UserID:    userID,
		Changeset: map[string]int64{CurrencyGold: -amount},
		Metadata:  map[string]interface{}{"reason": "crazy_loss"},
	}
}

// Credit pays out winnings.
func (a *NakamaEconomyAdapter) Credit(userID string, amount int64, reason string) ports.WalletOp {
	return ports.WalletOp{
		UserID:    userID,
		Changeset: map[string]int64{CurrencyGold: amount},
		Metadata:  map[string]interface{}{"reason": reason},
	}
}

var _ ports.EconomyPort = (*NakamaEconomyAdapter)(nil)
