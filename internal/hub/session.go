package hub

import (
	"time"

	"github.com/DoyleJ11/rps-bot/internal/engine"
)

type State string

const (
	StateCreated              State = "created"
	StateAwaitingSecondChoice State = "awaiting_second_choice"
	StateResolved             State = "resolved"
)

// Session is one in-progress game. Copies are handed out; the hub owns the original.
type Session struct {
	ID               string
	ChallengerID     string
	ChallengedID     string // empty until someone accepts an open challenge
	ChallengerChoice engine.Choice
	ChallengedChoice engine.Choice
	Targeted         bool // ChallengedID was fixed when the challenge was issued
	CreatedAt        time.Time
}

func (s Session) State() State {
	switch {
	case s.ChallengerChoice != "" && s.ChallengedChoice != "":
		return StateResolved
	case s.ChallengerChoice != "" || s.ChallengedChoice != "":
		return StateAwaitingSecondChoice
	default:
		return StateCreated
	}
}

// Opponent returns the other party's id, or "" when an open challenge has no taker yet.
func (s Session) Opponent(partyID string) string {
	if partyID == s.ChallengerID {
		return s.ChallengedID
	}
	return s.ChallengerID
}
