package hub

import (
	"context"

	"github.com/DoyleJ11/rps-bot/internal/engine"
)

// request delivers msg and waits for its reply, giving up when either the
// caller's context or the hub itself is done.
func request[T any](ctx context.Context, h *Hub, msg HubMsg, reply <-chan T) (T, error) {
	var zero T
	select {
	case h.inbox <- msg:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-h.ctx.Done():
		return zero, ErrHubClosed
	}

	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-h.ctx.Done():
		return zero, ErrHubClosed
	}
}

func (h *Hub) Create(ctx context.Context, id, challengerID, challengedID string) error {
	reply := make(chan error, 1)
	err, sendErr := request(ctx, h, CreateSession{
		ID:           id,
		ChallengerID: challengerID,
		ChallengedID: challengedID,
		Reply:        reply,
	}, reply)
	if sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Hub) Get(ctx context.Context, id string) (Session, error) {
	reply := make(chan SessionReply, 1)
	r, err := request(ctx, h, GetSession{ID: id, Reply: reply}, reply)
	if err != nil {
		return Session{}, err
	}
	return r.Session, r.Err
}

// SetChoice records partyID's move. resolved is true for exactly one caller per
// session: the one whose move filled the second slot. The session is gone from
// the hub by the time that caller sees it.
func (h *Hub) SetChoice(ctx context.Context, id, partyID string, choice engine.Choice) (s Session, resolved bool, err error) {
	reply := make(chan ChoiceReply, 1)
	r, err := request(ctx, h, SetChoice{ID: id, PartyID: partyID, Choice: choice, Reply: reply}, reply)
	if err != nil {
		return Session{}, false, err
	}
	return r.Session, r.Resolved, r.Err
}

// Remove deletes the session. Removing a missing id is not an error.
func (h *Hub) Remove(ctx context.Context, id string) error {
	select {
	case h.inbox <- RemoveSession{ID: id}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// Withdraw deletes the session on behalf of its challenger. It fails with
// ErrUnknownParty for anyone else and ErrSessionNotFound once the game has
// resolved, expired or been withdrawn.
func (h *Hub) Withdraw(ctx context.Context, id, partyID string) error {
	reply := make(chan error, 1)
	err, sendErr := request(ctx, h, WithdrawSession{ID: id, PartyID: partyID, Reply: reply}, reply)
	if sendErr != nil {
		return sendErr
	}
	return err
}

// Sweep purges expired sessions now and reports how many were removed.
func (h *Hub) Sweep(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	return request(ctx, h, SweepSessions{Reply: reply}, reply)
}

func (h *Hub) Len(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	return request(ctx, h, CountSessions{Reply: reply}, reply)
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }
