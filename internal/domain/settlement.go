package domain

import (
	"errors"
	"sort"
	"time"
)

// ScoreWeights are the tunable scoring coefficients. They are configuration,
// not rules: only the ordering guarantees below are fixed.
type ScoreWeights struct {
	WinnerBase    int64 `json:"winner_base"`
	WinnerFloor   int64 `json:"winner_floor"`
	LoserBase     int64 `json:"loser_base"`
	TurnWeight    int64 `json:"turn_weight"`
	PenaltyWeight int64 `json:"penalty_weight"`
	HandWeight    int64 `json:"hand_weight"`
}

// DefaultScoreWeights keeps the winner's floor above the best possible loser
// score so the winner always ranks first.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		WinnerBase:    1000,
		WinnerFloor:   100,
		LoserBase:     80,
		TurnWeight:    2,
		PenaltyWeight: 5,
		HandWeight:    10,
	}
}

// PlayerSettlement is one player's line in the settlement record.
type PlayerSettlement struct {
	UserID     string `json:"user_id"`
	Seat       int    `json:"seat"`
	Rank       int    `json:"rank"`
	Score      int64  `json:"score"`
	Stake      int64  `json:"stake"`
	TokenDelta int64  `json:"token_delta"`
	FinishedAt int64  `json:"finished_at"`
}

// SettlementRecord is created exactly once per finished session and is
// immutable thereafter.
type SettlementRecord struct {
	SessionID string             `json:"session_id"`
	Pot       int64              `json:"pot"`
	PerPlayer []PlayerSettlement `json:"per_player"`
	CreatedAt int64              `json:"created_at"`
}

var (
	ErrNotFinished    = errors.New("session is not finished")
	ErrAlreadySettled = errors.New("session already settled")
)

// Settle computes scores, ranks and the token transfer ledger for a finished
// session. Winner-takes-all: the winner's own stake is only ever locked and
// released, never debited, so their delta is the sum of the losers' stakes
// and the deltas net to zero. Quarantined sessions refund: stakes unlock but
// nothing moves.
func Settle(s *GameSession, w ScoreWeights, now time.Time) (*SettlementRecord, error) {
	if s.Phase != PhaseFinished || s.Winner < 0 || s.Winner >= len(s.Players) {
		return nil, ErrNotFinished
	}
	if s.Settlement != nil {
		return nil, ErrAlreadySettled
	}

	rec := &SettlementRecord{SessionID: s.ID, CreatedAt: now.Unix()}
	var losses int64
	for i := range s.Players {
		rec.Pot += s.Players[i].Stake
		if i != s.Winner {
			losses += s.Players[i].Stake
		}
	}

	for i := range s.Players {
		p := &s.Players[i]
		ps := PlayerSettlement{
			UserID:     p.UserID,
			Seat:       i,
			Stake:      p.Stake,
			Score:      scoreFor(s, i, w),
			FinishedAt: now.Unix(),
		}
		if rec.Pot > 0 && !s.Corrupted {
			if i == s.Winner {
				ps.TokenDelta = losses
			} else {
				ps.TokenDelta = -p.Stake
			}
		}
		rec.PerPlayer = append(rec.PerPlayer, ps)
	}
	rankPlayers(rec, s.Winner)
	return rec, nil
}

// scoreFor scores one seat. The winner starts from the base and loses points
// for a long game and for penalties absorbed, never dropping below the floor.
// Everyone else is scaled down by their leftover hand and their own penalties.
// Forfeited seats score the minimum.
func scoreFor(s *GameSession, seat int, w ScoreWeights) int64 {
	p := &s.Players[seat]
	if p.Forfeited {
		return 0
	}
	if seat == s.Winner {
		score := w.WinnerBase - w.TurnWeight*int64(s.TurnCounter) - w.PenaltyWeight*int64(p.PenaltyCount)
		if score < w.WinnerFloor {
			score = w.WinnerFloor
		}
		return score
	}
	score := w.LoserBase - w.HandWeight*int64(len(p.Hand)) - w.PenaltyWeight*int64(p.PenaltyCount)
	if score < 0 {
		score = 0
	}
	return score
}

// rankPlayers assigns rank 1 to the winner and orders the rest by score
// descending, earliest seat on ties.
func rankPlayers(rec *SettlementRecord, winner int) {
	rest := make([]int, 0, len(rec.PerPlayer))
	for i := range rec.PerPlayer {
		if rec.PerPlayer[i].Seat == winner {
			rec.PerPlayer[i].Rank = 1
			continue
		}
		rest = append(rest, i)
	}
	sort.SliceStable(rest, func(a, b int) bool {
		pa, pb := rec.PerPlayer[rest[a]], rec.PerPlayer[rest[b]]
		if pa.Score != pb.Score {
			return pa.Score > pb.Score
		}
		return pa.Seat < pb.Seat
	})
	for n, idx := range rest {
		rec.PerPlayer[idx].Rank = n + 2
	}
}
