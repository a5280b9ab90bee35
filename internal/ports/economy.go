package ports

import "context"

// WalletOp is a single ledger mutation. Ops never execute on their own: they
// ride inside the same atomic commit as the session-state change that caused
// them, so tokens can never move without the session recording why.
type WalletOp struct {
	UserID    string
	Changeset map[string]int64
	Metadata  map[string]interface{}
}

// EconomyPort defines the interface to the wallet/ledger service.
type EconomyPort interface {
	// GetBalance retrieves the current spendable balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// LockStake reserves a stake so it cannot be spent mid-session.
	LockStake(userID string, amount int64) WalletOp

	// ReleaseLock returns a reserved stake to the spendable balance.
	ReleaseLock(userID string, amount int64) WalletOp

	// Debit removes a settled loss from the spendable balance.
	Debit(userID string, amount int64) WalletOp

	// Credit pays out winnings with an auditable reason.
	Credit(userID string, amount int64, reason string) WalletOp
}
