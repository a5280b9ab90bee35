package ports

import (
	"context"
	"errors"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/domain"
)

var (
	// ErrRoomMissing is returned when the room/roster service knows no such room.
	ErrRoomMissing = errors.New("room not found")
	// ErrRoomBusy is returned when a room is not open for a new session,
	// including when a concurrent start claimed it first.
	ErrRoomBusy = errors.New("room is not open for a new session")
)

// RosterPort defines the interface to the room/roster service. The session
// engine consumes the ordered seat list at start, claims the room before any
// stake is locked, and signals the finish; everything else about rooms stays
// outside.
type RosterPort interface {
	// Seats returns the ordered seat list for a room, with stakes.
	Seats(ctx context.Context, roomID string) ([]domain.Seat, error)

	// ClaimStart atomically moves an open room to playing, recording the
	// session. At most one of any set of concurrent claims succeeds; the
	// rest get ErrRoomBusy.
	ClaimStart(ctx context.Context, roomID, sessionID string) error

	// ReleaseClaim reopens a room whose claimed session could not be
	// created. A no-op when the claim is not held.
	ReleaseClaim(ctx context.Context, roomID, sessionID string) error

	// SignalFinished marks the room as finished. Best effort.
	SignalFinished(ctx context.Context, roomID, sessionID string) error
}
