package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/rps-bot/internal/engine"
)

var (
	ErrInvalidSession    = errors.New("session id and challenger are required")
	ErrDuplicateSession  = errors.New("session already exists")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownParty      = errors.New("party is not part of this session")
	ErrSelfChallenge     = errors.New("challenger cannot play against themselves")
	ErrChoiceAlreadyMade = errors.New("choice already made")
	ErrHubClosed         = errors.New("hub closed")
)

const (
	DefaultTTL           = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	ID           string
	ChallengerID string
	ChallengedID string // optional
	Reply        chan error
}

type GetSession struct {
	ID    string
	Reply chan SessionReply
}

type SetChoice struct {
	ID      string
	PartyID string
	Choice  engine.Choice
	Reply   chan ChoiceReply
}

type RemoveSession struct {
	ID string
}

// WithdrawSession removes the session only if PartyID is its challenger.
type WithdrawSession struct {
	ID      string
	PartyID string
	Reply   chan error
}

type SweepSessions struct {
	Reply chan int
}

// CountSessions reports the number of live sessions without exposing the map.
type CountSessions struct {
	Reply chan int
}

type ShutdownHub struct{}

type SessionReply struct {
	Session Session
	Err     error
}

type ChoiceReply struct {
	Session  Session
	Resolved bool
	Err      error
}

func (CreateSession) isHubMsg()   {}
func (GetSession) isHubMsg()      {}
func (SetChoice) isHubMsg()       {}
func (RemoveSession) isHubMsg()   {}
func (WithdrawSession) isHubMsg() {}
func (SweepSessions) isHubMsg()   {}
func (CountSessions) isHubMsg()   {}
func (ShutdownHub) isHubMsg()     {}

type Option func(*Hub)

// WithTTL sets how long an unresolved session lives. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(h *Hub) { h.ttl = d }
}

// WithSweepInterval sets how often expired sessions are purged. Zero disables the ticker.
func WithSweepInterval(d time.Duration) Option {
	return func(h *Hub) { h.sweepEvery = d }
}

func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// Hub owns every session. All reads and writes go through its inbox and are
// applied one at a time by loop, in arrival order.
type Hub struct {
	inbox      chan HubMsg
	sessions   map[string]*Session
	ttl        time.Duration
	sweepEvery time.Duration
	now        func() time.Time
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewHub(parent context.Context, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:      make(chan HubMsg, 64),
		sessions:   make(map[string]*Session),
		ttl:        DefaultTTL,
		sweepEvery: DefaultSweepInterval,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	var tick <-chan time.Time
	if h.ttl > 0 && h.sweepEvery > 0 {
		ticker := time.NewTicker(h.sweepEvery)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-h.ctx.Done():
			clear(h.sessions)
			return

		case <-tick:
			h.sweep()

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				msg.Reply <- h.create(msg)

			case GetSession:
				s, err := h.lookup(msg.ID)
				if err != nil {
					msg.Reply <- SessionReply{Err: err}
					break
				}
				msg.Reply <- SessionReply{Session: *s}

			case SetChoice:
				msg.Reply <- h.setChoice(msg)

			case RemoveSession:
				delete(h.sessions, msg.ID)

			case WithdrawSession:
				msg.Reply <- h.withdraw(msg)

			case SweepSessions:
				msg.Reply <- h.sweep()

			case CountSessions:
				msg.Reply <- len(h.sessions)

			case ShutdownHub:
				clear(h.sessions)
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) create(msg CreateSession) error {
	if msg.ID == "" || msg.ChallengerID == "" {
		return ErrInvalidSession
	}
	if msg.ChallengedID == msg.ChallengerID {
		return ErrSelfChallenge
	}
	if _, err := h.lookup(msg.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateSession, msg.ID)
	}

	h.sessions[msg.ID] = &Session{
		ID:           msg.ID,
		ChallengerID: msg.ChallengerID,
		ChallengedID: msg.ChallengedID,
		Targeted:     msg.ChallengedID != "",
		CreatedAt:    h.now(),
	}
	return nil
}

func (h *Hub) setChoice(msg SetChoice) ChoiceReply {
	s, err := h.lookup(msg.ID)
	if err != nil {
		return ChoiceReply{Err: err}
	}
	if !msg.Choice.Valid() {
		return ChoiceReply{Err: fmt.Errorf("%w: %q", engine.ErrInvalidChoice, msg.Choice)}
	}
	if msg.PartyID == "" {
		return ChoiceReply{Err: ErrUnknownParty}
	}

	switch {
	case msg.PartyID == s.ChallengerID:
		if s.ChallengerChoice != "" {
			if !s.Targeted {
				// The challenger already moved; taking the open seat would be self-play.
				return ChoiceReply{Err: ErrSelfChallenge}
			}
			return ChoiceReply{Err: ErrChoiceAlreadyMade}
		}
		s.ChallengerChoice = msg.Choice

	case s.ChallengedID == "":
		// Open challenge: the first other party to move claims the seat.
		s.ChallengedID = msg.PartyID
		s.ChallengedChoice = msg.Choice

	case msg.PartyID == s.ChallengedID:
		if s.ChallengedChoice != "" {
			return ChoiceReply{Err: ErrChoiceAlreadyMade}
		}
		s.ChallengedChoice = msg.Choice

	default:
		return ChoiceReply{Err: ErrUnknownParty}
	}

	if s.State() == StateResolved {
		// Removed in the same step that completes it, so only one caller ever sees Resolved.
		delete(h.sessions, s.ID)
		return ChoiceReply{Session: *s, Resolved: true}
	}
	return ChoiceReply{Session: *s}
}

func (h *Hub) withdraw(msg WithdrawSession) error {
	s, err := h.lookup(msg.ID)
	if err != nil {
		return err
	}
	if msg.PartyID == "" || msg.PartyID != s.ChallengerID {
		return ErrUnknownParty
	}
	delete(h.sessions, msg.ID)
	return nil
}

func (h *Hub) lookup(id string) (*Session, error) {
	s, ok := h.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if h.expired(s) {
		delete(h.sessions, id)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (h *Hub) expired(s *Session) bool {
	return h.ttl > 0 && h.now().Sub(s.CreatedAt) >= h.ttl
}

func (h *Hub) sweep() int {
	removed := 0
	for id, s := range h.sessions {
		if h.expired(s) {
			delete(h.sessions, id)
			removed++
		}
	}
	return removed
}
