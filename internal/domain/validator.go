package domain

import "fmt"

// Violation is a detected invariant breach. Violations feed the audit log;
// the session is never silently repaired.
type Violation struct {
	Code   string
	Detail string
}

func (v Violation) String() string {
	return v.Code + ": " + v.Detail
}

// Audit re-derives the session invariants after an action: card conservation
// across every zone, unique card identities, index bounds and penalty-chain
// consistency.
func Audit(s *GameSession) []Violation {
	var out []Violation
	note := func(code, format string, args ...interface{}) {
		out = append(out, Violation{Code: code, Detail: fmt.Sprintf(format, args...)})
	}

	n := len(s.Players)
	total := len(s.Deck) + len(s.Discard)
	for i := range s.Players {
		total += len(s.Players[i].Hand)
	}
	if total != TotalCards {
		note("card_conservation", "have %d cards across all zones, want %d", total, TotalCards)
	}

	seen := make(map[int]string, TotalCards)
	checkZone := func(zone string, cards []Card) {
		for _, c := range cards {
			if c.ID < 0 || c.ID >= TotalCards {
				note("card_id_range", "card %s id %d out of range in %s", c, c.ID, zone)
				continue
			}
			if prev, dup := seen[c.ID]; dup {
				note("card_duplicate", "card %s id %d present in %s and %s", c, c.ID, prev, zone)
				continue
			}
			seen[c.ID] = zone
		}
	}
	checkZone("deck", s.Deck)
	checkZone("discard", s.Discard)
	for i := range s.Players {
		checkZone(fmt.Sprintf("hand[%d]", i), s.Players[i].Hand)
	}

	if s.Current < 0 || s.Current >= n {
		note("turn_bounds", "current player %d with %d seats", s.Current, n)
	}
	if (s.PenaltyChain > 0) != (s.PenaltyTarget >= 0) {
		note("penalty_consistency", "chain %d with target %d", s.PenaltyChain, s.PenaltyTarget)
	}
	if s.PenaltyTarget >= n {
		note("penalty_bounds", "penalty target %d with %d seats", s.PenaltyTarget, n)
	}
	if s.SuitChange != nil {
		if r := s.SuitChange.RestrictedIndex; r < 0 || r >= n {
			note("restriction_bounds", "restricted index %d with %d seats", r, n)
		}
	}

	emptyHands := 0
	forfeits := 0
	for i := range s.Players {
		if len(s.Players[i].Hand) == 0 {
			emptyHands++
		}
		if s.Players[i].Forfeited {
			forfeits++
		}
	}
	switch s.Phase {
	case PhasePlaying:
		if emptyHands > 0 {
			note("empty_hand_live", "%d empty hands while still playing", emptyHands)
		}
		if s.Winner >= 0 {
			note("winner_live", "winner %d set while still playing", s.Winner)
		}
	case PhaseFinished:
		if s.Winner < 0 || s.Winner >= n {
			note("winner_bounds", "winner %d with %d seats", s.Winner, n)
		} else if len(s.Players[s.Winner].Hand) != 0 && forfeits == 0 && !s.Corrupted {
			note("winner_hand", "winner %d still holds %d cards", s.Winner, len(s.Players[s.Winner].Hand))
		}
	default:
		note("phase_unknown", "phase %q", s.Phase)
	}

	return out
}
