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

// Room lifecycle values written into the room document.
const (
	RoomStatusOpen     = "open"
	RoomStatusPlaying  = "playing"
	RoomStatusFinished = "finished"
)

// RoomDocument is the room service's stored shape. The session engine only
// reads the seat list and flips the status fields; seating itself is managed
// elsewhere.
type RoomDocument struct {
	RoomID    string        `json:"room_id"`
	Seats     []domain.Seat `json:"seats"`
	Status    string        `json:"status"`
	SessionID string        `json:"session_id,omitempty"`
}

// roomStorage is the slice of runtime.NakamaModule the roster adapter needs.
type roomStorage interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaRosterAdapter implements ports.RosterPort on room documents in Nakama
// storage.
type NakamaRosterAdapter struct {
	nk roomStorage
}

// NewNakamaRosterAdapter creates a new roster adapter.
func NewNakamaRosterAdapter(nk roomStorage) *NakamaRosterAdapter {
	return &NakamaRosterAdapter{nk: nk}
}

// Seats returns the ordered seat list for a room.
func (a *NakamaRosterAdapter) Seats(ctx context.Context, roomID string) ([]domain.Seat, error) {
	doc, _, err := a.read(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return doc.Seats, nil
}

// ClaimStart moves an open room to playing. The write is conditioned on the
// version the status was read at, so two racing claims cannot both succeed:
// the loser's write is rejected and surfaces as ErrRoomBusy before any stake
// is touched.
func (a *NakamaRosterAdapter) ClaimStart(ctx context.Context, roomID, sessionID string) error {
	doc, version, err := a.read(ctx, roomID)
	if err != nil {
		return err
	}
	if doc.Status != RoomStatusOpen {
		return ports.ErrRoomBusy
	}
	doc.Status = RoomStatusPlaying
	doc.SessionID = sessionID
	if err := a.write(ctx, roomID, doc, version); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return ports.ErrRoomBusy
		}
		return err
	}
	return nil
}

// ReleaseClaim reopens a room after a failed session creation. Only the claim
// holder's release does anything.
func (a *NakamaRosterAdapter) ReleaseClaim(ctx context.Context, roomID, sessionID string) error {
	doc, version, err := a.read(ctx, roomID)
	if err != nil {
		return err
	}
	if doc.Status != RoomStatusPlaying || doc.SessionID != sessionID {
		return nil
	}
	doc.Status = RoomStatusOpen
	doc.SessionID = ""
	return a.write(ctx, roomID, doc, version)
}

// SignalFinished marks the room as finished.
func (a *NakamaRosterAdapter) SignalFinished(ctx context.Context, roomID, sessionID string) error {
	doc, version, err := a.read(ctx, roomID)
	if err != nil {
		return err
	}
	doc.Status = RoomStatusFinished
	doc.SessionID = sessionID
	return a.write(ctx, roomID, doc, version)
}

func (a *NakamaRosterAdapter) write(ctx context.Context, roomID string, doc *RoomDocument, version string) error {
	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", roomID, err)
	}
	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      RoomCollection,
			Key:             roomID,
			Value:           string(value),
			Version:         version,
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update room %s: %w", roomID, err)
	}
	return nil
}

func (a *NakamaRosterAdapter) read(ctx context.Context, roomID string) (*RoomDocument, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: RoomCollection, Key: roomID},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read room %s: %w", roomID, err)
	}
	if len(objects) == 0 {
		return nil, "", ports.ErrRoomMissing
	}

	var doc RoomDocument
	if err := json.Unmarshal([]byte(objects[0].Value), &doc); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal room %s: %w", roomID, err)
	}
	return &doc, objects[0].Version, nil
}

var _ ports.RosterPort = (*NakamaRosterAdapter)(nil)
