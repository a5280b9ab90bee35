package ports

import (
	"context"
	"errors"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/domain"
)

var (
	// ErrSessionMissing is returned when no document exists for a session.
	ErrSessionMissing = errors.New("session not found")
	// ErrSessionCorrupted is returned when a stored document cannot be decoded.
	ErrSessionCorrupted = errors.New("session record is corrupted")
	// ErrVersionConflict is returned when a concurrent action committed first.
	ErrVersionConflict = errors.New("session was modified concurrently")
)

// SessionStore persists session documents. Every write is conditioned on the
// version observed at read time, which is what serializes concurrent actions
// on the same session.
type SessionStore interface {
	// Get rehydrates a session and returns the storage version to commit against.
	Get(ctx context.Context, sessionID string) (*domain.GameSession, string, error)

	// Create inserts a fresh session together with its stake locks, atomically.
	Create(ctx context.Context, session *domain.GameSession, ops []WalletOp) error

	// Commit writes the mutated session conditioned on version. A non-nil
	// record and its wallet ops are applied in the same atomic scope, so a
	// settlement can never half-happen. Returns the new version.
	Commit(ctx context.Context, session *domain.GameSession, version string, record *domain.SettlementRecord, ops []WalletOp) (string, error)
}
