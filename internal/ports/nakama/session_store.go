package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/domain"
	"github.com/nashgetch/rg-ahaz-be-sub000/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// sessionStorage is the slice of runtime.NakamaModule the store needs.
type sessionStorage interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error)
}

// SessionStoreAdapter persists sessions as Nakama storage objects. Writes go
// through MultiUpdate so session state, settlement record and wallet changes
// land in one transaction, conditioned on the version read at rehydration.
type SessionStoreAdapter struct {
	nk sessionStorage
}

// NewSessionStoreAdapter creates a new session store adapter.
func NewSessionStoreAdapter(nk sessionStorage) *SessionStoreAdapter {
	return &SessionStoreAdapter{nk: nk}
}

// Get rehydrates a session document and its storage version.
func (a *SessionStoreAdapter) Get(ctx context.Context, sessionID string) (*domain.GameSession, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: SessionCollection, Key: sessionID},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	if len(objects) == 0 {
		return nil, "", ports.ErrSessionMissing
	}

	var session domain.GameSession
	if err := json.Unmarshal([]byte(objects[0].Value), &session); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ports.ErrSessionCorrupted, err)
	}
	return &session, objects[0].Version, nil
}

// Create inserts a fresh session document together with the stake locks.
// The insert-only version guard makes a duplicate session id a conflict, not
// a double-lock.
func (a *SessionStoreAdapter) Create(ctx context.Context, session *domain.GameSession, ops []ports.WalletOp) error {
	write, err := a.sessionWrite(session, "*")
	if err != nil {
		return err
	}
	_, _, err = a.nk.MultiUpdate(ctx, nil, []*runtime.StorageWrite{write}, nil, walletUpdates(ops), true)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return ports.ErrVersionConflict
		}
		return fmt.Errorf("failed to create session %s: %w", session.ID, err)
	}
	return nil
}

// Commit writes the mutated session conditioned on version. A non-nil record
// also inserts the immutable settlement document in the same transaction.
func (a *SessionStoreAdapter) Commit(ctx context.Context, session *domain.GameSession, version string, record *domain.SettlementRecord, ops []ports.WalletOp) (string, error) {
	write, err := a.sessionWrite(session, version)
	if err != nil {
		return "", err
	}
	writes := []*runtime.StorageWrite{write}

	if record != nil {
		value, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("failed to marshal settlement for %s: %w", session.ID, err)
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      SettlementCollection,
			Key:             session.ID,
			Value:           string(value),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}

	acks, _, err := a.nk.MultiUpdate(ctx, nil, writes, nil, walletUpdates(ops), true)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return "", ports.ErrVersionConflict
		}
		return "", fmt.Errorf("failed to commit session %s: %w", session.ID, err)
	}
	for _, ack := range acks {
		if ack.Collection == SessionCollection && ack.Key == session.ID {
			return ack.Version, nil
		}
	}
	return "", nil
}

func (a *SessionStoreAdapter) sessionWrite(session *domain.GameSession, version string) (*runtime.StorageWrite, error) {
	value, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}
	return &runtime.StorageWrite{
		Collection:      SessionCollection,
		Key:             session.ID,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}, nil
}

func walletUpdates(ops []ports.WalletOp) []*runtime.WalletUpdate {
	if len(ops) == 0 {
		return nil
	}
	updates := make([]*runtime.WalletUpdate, 0, len(ops))
	for _, op := range ops {
		updates = append(updates, &runtime.WalletUpdate{
			UserID:    op.UserID,
			Changeset: op.Changeset,
			Metadata:  op.Metadata,
		})
	}
	return updates
}

var _ ports.SessionStore = (*SessionStoreAdapter)(nil)
