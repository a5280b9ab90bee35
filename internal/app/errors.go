package app

import (
	"errors"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/domain"
)

var (
	ErrMissingSession = errors.New("session id is required")
	ErrMissingRoom    = errors.New("room id is required")
	ErrNotSeated      = errors.New("user is not seated in this session")
	ErrBadSuitChoice  = errors.New("unknown suit")
	ErrRoomNotReady   = errors.New("room has no seated players")
	// ErrInsufficientStake rejects a start when a seat cannot cover its stake.
	ErrInsufficientStake = errors.New("insufficient balance for stake")
	// ErrSettlement is the opaque failure surfaced when a settlement commit
	// fails. The session state rolled back with it and stays retryable.
	ErrSettlement = errors.New("settlement could not be committed")
)

// IsInputError reports whether err is a malformed or out-of-range request,
// rejected before any state access.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrMissingSession,
		ErrMissingRoom,
		ErrBadSuitChoice,
		domain.ErrEmptyPlay,
		domain.ErrSeatOutOfRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsIllegitimate reports whether err is a well-formed action that the current
// state forbids: wrong turn, unowned card, action after finish. These reject
// with zero side effects; rule-breaking plays never reach here because they
// resolve through the soft-fail penalty instead.
func IsIllegitimate(err error) bool {
	for _, target := range []error{
		ErrNotSeated,
		ErrRoomNotReady,
		ErrInsufficientStake,
		domain.ErrSessionFinished,
		domain.ErrNotYourTurn,
		domain.ErrCardNotOwned,
		domain.ErrInvalidSet,
		domain.ErrAlreadyDrawn,
		domain.ErrDrawWhilePenalty,
		domain.ErrPlayWhilePenalty,
		domain.ErrPassWithoutDraw,
		domain.ErrNoPenaltyPending,
		domain.ErrNotDownToOneCard,
		domain.ErrAlreadyDeclared,
		domain.ErrCallOutSelf,
		domain.ErrCallOutMiss,
		domain.ErrDeckExhausted,
		domain.ErrBadSeatCount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
