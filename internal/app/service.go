package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/config"
	"github.com/nashgetch/rg-ahaz-be-sub000/internal/domain"
	"github.com/nashgetch/rg-ahaz-be-sub000/internal/ports"
)

// Action outcomes reported back to the caller.
const (
	OutcomeStarted         = "started"
	OutcomePlayed          = "played"
	OutcomeSoftFail        = "soft_fail"
	OutcomeWon             = "won"
	OutcomeDrawn           = "drawn"
	OutcomePassed          = "passed"
	OutcomePenaltyAccepted = "penalty_accepted"
	OutcomeDeclaredLow     = "declared_low"
	OutcomeCalledOut       = "called_out"
	OutcomeForfeited       = "forfeited"
	OutcomeQuarantined     = "quarantined"
	OutcomeStatus          = "status"
)

// ActionResponse is what every action hands back: the actor's filtered view,
// what happened, and the final ranking once the session settled.
type ActionResponse struct {
	View    PlayerView  `json:"view"`
	Outcome string      `json:"outcome"`
	Ranking []RankEntry `json:"ranking,omitempty"`
}

// Service orchestrates session actions: rehydrate, act, audit, settle, commit.
// It holds no session state between calls; storage versioning serializes
// concurrent actions on the same session.
type Service struct {
	store   ports.SessionStore
	economy ports.EconomyPort
	roster  ports.RosterPort
	logger  ports.Logger
	cfg     *config.GameConfig
	machine *domain.Machine
	rng     *mrand.Rand
	now     func() time.Time
}

// NewService wires a Service. A nil rng gives time-seeded shuffles.
func NewService(store ports.SessionStore, economy ports.EconomyPort, roster ports.RosterPort, logger ports.Logger, cfg *config.GameConfig, rng *mrand.Rand) *Service {
	if cfg == nil {
		cfg = config.Get()
	}
	if rng == nil {
		rng = mrand.New(mrand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		store:   store,
		economy: economy,
		roster:  roster,
		logger:  logger,
		cfg:     cfg,
		machine: domain.NewMachine(rng),
		rng:     rng,
		now:     time.Now,
	}
}

// StartSession deals a new session for a room's seated players, locking every
// stake in the same atomic write that creates the session document.
func (svc *Service) StartSession(ctx context.Context, actorID, roomID string) (*ActionResponse, error) {
	if roomID == "" {
		return nil, ErrMissingRoom
	}
	seats, err := svc.roster.Seats(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, ErrRoomNotReady
	}

	for _, seat := range seats {
		if seat.Stake < 0 {
			return nil, fmt.Errorf("%w: negative stake for %s", ErrInsufficientStake, seat.UserID)
		}
		if seat.Stake == 0 {
			continue
		}
		balance, err := svc.economy.GetBalance(ctx, seat.UserID)
		if err != nil {
			return nil, err
		}
		if balance < seat.Stake {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStake, seat.UserID)
		}
	}

	session, err := domain.NewSession(newSessionID(), roomID, seats, svc.cfg.InitialHandSize, svc.rng)
	if err != nil {
		return nil, err
	}
	actorSeat := session.SeatOf(actorID)
	if actorSeat == -1 {
		return nil, ErrNotSeated
	}
	now := svc.now().Unix()
	session.CreatedAt = now
	session.LastActionAt = now

	// The room claim serializes concurrent starts: losers stop here, before
	// any stake is locked.
	if err := svc.roster.ClaimStart(ctx, roomID, session.ID); err != nil {
		return nil, err
	}

	var locks []ports.WalletOp
	for _, seat := range seats {
		if seat.Stake > 0 {
			locks = append(locks, svc.economy.LockStake(seat.UserID, seat.Stake))
		}
	}
	if err := svc.store.Create(ctx, session, locks); err != nil {
		if relErr := svc.roster.ReleaseClaim(ctx, roomID, session.ID); relErr != nil {
			svc.logger.Warn("room %s claim release failed: %v", roomID, relErr)
		}
		return nil, err
	}
	svc.logger.Info("session %s started for room %s with %d players", session.ID, roomID, len(seats))

	resp := &ActionResponse{View: BuildPlayerView(session, actorSeat), Outcome: OutcomeStarted}
	return resp, nil
}

// Play resolves a card play for the acting user.
func (svc *Service) Play(ctx context.Context, actorID, sessionID string, cardIDs []int, suitChoice string) (*ActionResponse, error) {
	var suit domain.Suit
	if suitChoice != "" {
		suit = domain.Suit(suitChoice)
		if !suit.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrBadSuitChoice, suitChoice)
		}
	}
	return svc.act(ctx, actorID, sessionID, func(s *domain.GameSession, seat int) (string, error) {
		res, err := svc.machine.Play(s, seat, cardIDs, suit)
		if err != nil {
			return "", err
		}
		switch {
		case res.Won:
			return OutcomeWon, nil
		case res.SoftFail:
			svc.logger.Debug("session %s seat %d soft-failed, drew %d", s.ID, seat, len(res.PenaltyDrawn))
			return OutcomeSoftFail, nil
		default:
			return OutcomePlayed, nil
		}
	})
}

// Draw takes one card from the deck without ending the turn.
func (svc *Service) Draw(ctx context.Context, actorID, sessionID string) (*ActionResponse, error) {
	return svc.act(ctx, actorID, sessionID, func(s *domain.GameSession, seat int) (string, error) {
		if _, err := svc.machine.Draw(s, seat); err != nil {
			return "", err
		}
		return OutcomeDrawn, nil
	})
}

// Pass ends the turn, forcing chain acceptance when one is pending.
func (svc *Service) Pass(ctx context.Context, actorID, sessionID string) (*ActionResponse, error) {
	return svc.act(ctx, actorID, sessionID, func(s *domain.GameSession, seat int) (string, error) {
		res, err := svc.machine.Pass(s, seat)
		if err != nil {
			return "", err
		}
		if res.ForcedPenalty > 0 {
			return OutcomePenaltyAccepted, nil
		}
		return OutcomePassed, nil
	})
}

// AcceptPenalty absorbs the pending chain, keeping the turn.
func (svc *Service) AcceptPenalty(ctx context.Context, actorID, sessionID string) (*ActionResponse, error) {
	return svc.act(ctx, actorID, sessionID, func(s *domain.GameSession, seat int) (string, error) {
		if _, err := svc.machine.AcceptPenalty(s, seat); err != nil {
			return "", err
		}
		return OutcomePenaltyAccepted, nil
	})
}

// DeclareLow announces a one-card hand.
func (svc *Service) DeclareLow(ctx context.Context, actorID, sessionID string) (*ActionResponse, error) {
	return svc.act(ctx, actorID, sessionID, func(s *domain.GameSession, seat int) (string, error) {
		if err := svc.machine.DeclareLow(s, seat); err != nil {
			return "", err
		}
		return OutcomeDeclaredLow, nil
	})
}

// CallOut challenges another player holding one undeclared card.
func (svc *Service) CallOut(ctx context.Context, actorID, sessionID, targetUserID string) (*ActionResponse, error) {
	return svc.act(ctx, actorID, sessionID, func(s *domain.GameSession, seat int) (string, error) {
		target := s.SeatOf(targetUserID)
		if target == -1 {
			return "", fmt.Errorf("%w: %s", ErrNotSeated, targetUserID)
		}
		if _, err := svc.machine.CallOut(s, seat, target); err != nil {
			return "", err
		}
		return OutcomeCalledOut, nil
	})
}

// Status returns the actor's view of a session. Because there is no resident
// process, this is also where inactivity is detected: when the current player
// has been silent past the deadline they forfeit and the session settles.
func (svc *Service) Status(ctx context.Context, actorID, sessionID string) (*ActionResponse, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	session, version, err := svc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Intact() {
		return svc.quarantine(ctx, session, version)
	}
	seat := session.SeatOf(actorID)
	if seat == -1 {
		return nil, ErrNotSeated
	}

	if session.Phase == domain.PhasePlaying && svc.expired(session) {
		idle := session.Current
		if err := svc.machine.Forfeit(session, idle); err != nil {
			return nil, err
		}
		svc.logger.Info("session %s: seat %d forfeited for inactivity", session.ID, idle)
		session.LastActionAt = svc.now().Unix()
		_, ranking, err := svc.finish(ctx, session, version)
		if err != nil {
			return nil, err
		}
		resp := &ActionResponse{View: BuildPlayerView(session, seat), Outcome: OutcomeForfeited, Ranking: ranking}
		return resp, nil
	}

	resp := &ActionResponse{View: BuildPlayerView(session, seat), Outcome: OutcomeStatus}
	if session.Settlement != nil {
		resp.Ranking = RankingSnapshot(session.Settlement)
	}
	return resp, nil
}

// act is the shared per-action pipeline: rehydrate, run the state machine,
// audit the result, settle on finish and commit everything in one write.
func (svc *Service) act(ctx context.Context, actorID, sessionID string, fn func(s *domain.GameSession, seat int) (string, error)) (*ActionResponse, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	session, version, err := svc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Intact() {
		return svc.quarantine(ctx, session, version)
	}
	seat := session.SeatOf(actorID)
	if seat == -1 {
		return nil, ErrNotSeated
	}

	outcome, err := fn(session, seat)
	if err != nil {
		return nil, err
	}
	session.LastActionAt = svc.now().Unix()

	if violations := domain.Audit(session); len(violations) > 0 {
		for _, v := range violations {
			svc.logger.Error("session %s failed audit: %s", session.ID, v.String())
		}
		return svc.quarantine(ctx, session, version)
	}

	var ranking []RankEntry
	if session.Phase == domain.PhaseFinished && session.Settlement == nil {
		if _, ranking, err = svc.finish(ctx, session, version); err != nil {
			return nil, err
		}
	} else {
		if _, err = svc.store.Commit(ctx, session, version, nil, nil); err != nil {
			return nil, err
		}
	}

	resp := &ActionResponse{View: BuildPlayerView(session, seat), Outcome: outcome, Ranking: ranking}
	return resp, nil
}

// finish settles a freshly finished session and commits the state, the
// settlement record and every wallet movement atomically.
func (svc *Service) finish(ctx context.Context, session *domain.GameSession, version string) (*domain.SettlementRecord, []RankEntry, error) {
	rec, err := domain.Settle(session, svc.cfg.Scoring, svc.now())
	if err != nil {
		return nil, nil, err
	}
	session.Settlement = rec
	ops := svc.walletPlan(session, rec)
	if _, err := svc.store.Commit(ctx, session, version, rec, ops); err != nil {
		session.Settlement = nil
		svc.logger.Error("session %s settlement commit failed: %v", session.ID, err)
		return nil, nil, fmt.Errorf("%w: %v", ErrSettlement, err)
	}
	if err := svc.roster.SignalFinished(ctx, session.RoomID, session.ID); err != nil {
		svc.logger.Warn("room %s finish signal failed: %v", session.RoomID, err)
	}
	svc.logger.Info("session %s settled, pot %d, winner seat %d", session.ID, rec.Pot, session.Winner)
	return rec, RankingSnapshot(rec), nil
}

// walletPlan turns a settlement record into ledger ops: unlock every stake,
// then move the losses to the winner. Refund-only records produce unlocks and
// nothing else.
func (svc *Service) walletPlan(session *domain.GameSession, rec *domain.SettlementRecord) []ports.WalletOp {
	var ops []ports.WalletOp
	for _, ps := range rec.PerPlayer {
		if ps.Stake > 0 {
			ops = append(ops, svc.economy.ReleaseLock(ps.UserID, ps.Stake))
		}
	}
	for _, ps := range rec.PerPlayer {
		switch {
		case ps.TokenDelta < 0:
			ops = append(ops, svc.economy.Debit(ps.UserID, -ps.TokenDelta))
		case ps.TokenDelta > 0:
			ops = append(ops, svc.economy.Credit(ps.UserID, ps.TokenDelta, "crazy session "+session.ID))
		}
	}
	return ops
}

// quarantine force-completes a structurally broken session and refunds the
// stakes. The returned response carries no hand data for anyone.
func (svc *Service) quarantine(ctx context.Context, session *domain.GameSession, version string) (*ActionResponse, error) {
	svc.logger.Error("session %s quarantined", session.ID)
	domain.Quarantine(session)
	session.LastActionAt = svc.now().Unix()
	var ranking []RankEntry
	switch {
	case session.Settlement != nil:
		if _, err := svc.store.Commit(ctx, session, version, nil, nil); err != nil {
			return nil, err
		}
		ranking = RankingSnapshot(session.Settlement)
	case session.Winner < 0:
		// A document with no usable roster has no winner and nothing to
		// settle or refund; archive it flagged so it stops circulating.
		if _, err := svc.store.Commit(ctx, session, version, nil, nil); err != nil {
			return nil, err
		}
	default:
		var err error
		if _, ranking, err = svc.finish(ctx, session, version); err != nil {
			return nil, err
		}
	}
	resp := &ActionResponse{View: BuildPlayerView(session, -1), Outcome: OutcomeQuarantined, Ranking: ranking}
	return resp, nil
}

func (svc *Service) expired(session *domain.GameSession) bool {
	deadline := session.LastActionAt + svc.cfg.InactivitySeconds
	return svc.now().Unix() > deadline
}

// newSessionID returns a random 128-bit hex identifier.
func newSessionID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf[:])
}
