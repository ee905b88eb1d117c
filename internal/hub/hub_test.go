package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/rps-bot/internal/engine"
)

type fakeClock struct{ nanos atomic.Int64 }

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.nanos.Store(time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC).UnixNano())
	return c
}

func (c *fakeClock) Now() time.Time          { return time.Unix(0, c.nanos.Load()).UTC() }
func (c *fakeClock) Advance(d time.Duration) { c.nanos.Add(int64(d)) }

func newTestHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(ctx, opts...)
	t.Cleanup(func() {
		h.Shutdown()
		cancel()
	})
	return h
}

func TestHub_Create_Get_BothChoicesUnset(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)

	require.NoError(t, h.Create(ctx, "S1", "U1", ""))

	s, err := h.Get(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "S1", s.ID)
	assert.Equal(t, "U1", s.ChallengerID)
	assert.Empty(t, s.ChallengedID)
	assert.Empty(t, s.ChallengerChoice)
	assert.Empty(t, s.ChallengedChoice)
	assert.False(t, s.Targeted)
	assert.Equal(t, StateCreated, s.State())
}

func TestHub_SessionRoundTrip_RemovedOnResolution(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)
	require.NoError(t, h.Create(ctx, "S1", "U1", "U2"))

	s, resolved, err := h.SetChoice(ctx, "S1", "U1", engine.Rock)
	require.NoError(t, err)
	assert.False(t, resolved)
	assert.Equal(t, StateAwaitingSecondChoice, s.State())

	s, err = h.Get(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, engine.Rock, s.ChallengerChoice)
	assert.Empty(t, s.ChallengedChoice)

	s, resolved, err = h.SetChoice(ctx, "S1", "U2", engine.Paper)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Equal(t, engine.Rock, s.ChallengerChoice)
	assert.Equal(t, engine.Paper, s.ChallengedChoice)

	_, err = h.Get(ctx, "S1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHub_Create_DuplicateLeavesOriginalUntouched(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)
	require.NoError(t, h.Create(ctx, "S1", "U1", ""))
	_, _, err := h.SetChoice(ctx, "S1", "U1", engine.Scissors)
	require.NoError(t, err)

	err = h.Create(ctx, "S1", "U9", "U8")
	require.ErrorIs(t, err, ErrDuplicateSession)

	s, err := h.Get(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "U1", s.ChallengerID)
	assert.Empty(t, s.ChallengedID)
	assert.Equal(t, engine.Scissors, s.ChallengerChoice)
}

func TestHub_Create_Rejects(t *testing.T) {
	cases := []struct {
		name         string
		id           string
		challengerID string
		challengedID string
		wantErr      error
	}{
		{name: "missing id", id: "", challengerID: "U1", wantErr: ErrInvalidSession},
		{name: "missing challenger", id: "S1", challengerID: "", wantErr: ErrInvalidSession},
		{name: "targets self", id: "S1", challengerID: "U1", challengedID: "U1", wantErr: ErrSelfChallenge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHub(t)
			err := h.Create(context.Background(), tc.id, tc.challengerID, tc.challengedID)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHub_Remove_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)
	require.NoError(t, h.Create(ctx, "S1", "U1", ""))

	require.NoError(t, h.Remove(ctx, "S1"))
	require.NoError(t, h.Remove(ctx, "S1"))
	require.NoError(t, h.Remove(ctx, "never-existed"))

	_, err := h.Get(ctx, "S1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHub_Withdraw(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)
	require.NoError(t, h.Create(ctx, "S1", "U1", "U2"))

	assert.ErrorIs(t, h.Withdraw(ctx, "S1", "U2"), ErrUnknownParty)
	assert.ErrorIs(t, h.Withdraw(ctx, "S1", ""), ErrUnknownParty)
	_, err := h.Get(ctx, "S1")
	require.NoError(t, err, "a refused withdraw leaves the session alone")

	require.NoError(t, h.Withdraw(ctx, "S1", "U1"))
	assert.ErrorIs(t, h.Withdraw(ctx, "S1", "U1"), ErrSessionNotFound)
	_, err = h.Get(ctx, "S1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHub_Withdraw_AfterResolutionIsNotFound(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)
	require.NoError(t, h.Create(ctx, "S1", "U1", ""))
	_, _, err := h.SetChoice(ctx, "S1", "U1", engine.Rock)
	require.NoError(t, err)
	_, resolved, err := h.SetChoice(ctx, "S1", "U2", engine.Paper)
	require.NoError(t, err)
	require.True(t, resolved)

	assert.ErrorIs(t, h.Withdraw(ctx, "S1", "U1"), ErrSessionNotFound)
}

func TestHub_SetChoice_Errors(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(t *testing.T, h *Hub)
		id      string
		party   string
		choice  engine.Choice
		wantErr error
	}{
		{
			name:    "missing session",
			setup:   func(t *testing.T, h *Hub) {},
			id:      "nope",
			party:   "U1",
			choice:  engine.Rock,
			wantErr: ErrSessionNotFound,
		},
		{
			name: "stranger on targeted session",
			setup: func(t *testing.T, h *Hub) {
				require.NoError(t, h.Create(context.Background(), "S1", "U1", "U2"))
			},
			id:      "S1",
			party:   "U3",
			choice:  engine.Rock,
			wantErr: ErrUnknownParty,
		},
		{
			name: "invalid choice",
			setup: func(t *testing.T, h *Hub) {
				require.NoError(t, h.Create(context.Background(), "S1", "U1", ""))
			},
			id:      "S1",
			party:   "U1",
			choice:  "lizard",
			wantErr: engine.ErrInvalidChoice,
		},
		{
			name: "challenger takes open seat",
			setup: func(t *testing.T, h *Hub) {
				require.NoError(t, h.Create(context.Background(), "S1", "U1", ""))
				_, _, err := h.SetChoice(context.Background(), "S1", "U1", engine.Rock)
				require.NoError(t, err)
			},
			id:      "S1",
			party:   "U1",
			choice:  engine.Paper,
			wantErr: ErrSelfChallenge,
		},
		{
			name: "targeted party moves twice",
			setup: func(t *testing.T, h *Hub) {
				require.NoError(t, h.Create(context.Background(), "S1", "U1", "U2"))
				_, _, err := h.SetChoice(context.Background(), "S1", "U2", engine.Rock)
				require.NoError(t, err)
			},
			id:      "S1",
			party:   "U2",
			choice:  engine.Paper,
			wantErr: ErrChoiceAlreadyMade,
		},
		{
			name: "anonymous party",
			setup: func(t *testing.T, h *Hub) {
				require.NoError(t, h.Create(context.Background(), "S1", "U1", ""))
			},
			id:      "S1",
			party:   "",
			choice:  engine.Rock,
			wantErr: ErrUnknownParty,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHub(t)
			tc.setup(t, h)
			_, resolved, err := h.SetChoice(context.Background(), tc.id, tc.party, tc.choice)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.False(t, resolved)
		})
	}
}

func TestHub_OpenChallenge_FirstMoverClaimsSeat(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)
	require.NoError(t, h.Create(ctx, "S1", "U1", ""))

	s, resolved, err := h.SetChoice(ctx, "S1", "U2", engine.Paper)
	require.NoError(t, err)
	assert.False(t, resolved)
	assert.Equal(t, "U2", s.ChallengedID)

	_, _, err = h.SetChoice(ctx, "S1", "U3", engine.Rock)
	assert.ErrorIs(t, err, ErrUnknownParty)

	s, resolved, err = h.SetChoice(ctx, "S1", "U1", engine.Scissors)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Equal(t, "U2", s.ChallengedID)
}

func TestHub_ConcurrentSecondChoices_ResolveExactlyOnce(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t)

	for round := 0; round < 50; round++ {
		require.NoError(t, h.Create(ctx, "S1", "U1", ""))
		_, _, err := h.SetChoice(ctx, "S1", "U1", engine.Rock)
		require.NoError(t, err)

		var wg sync.WaitGroup
		var resolvedCount atomic.Int32
		for _, party := range []string{"U2", "U3", "U4", "U5"} {
			wg.Add(1)
			go func(party string) {
				defer wg.Done()
				_, resolved, err := h.SetChoice(ctx, "S1", party, engine.Paper)
				if resolved {
					resolvedCount.Add(1)
				}
				if err != nil && !errors.Is(err, ErrSessionNotFound) {
					t.Errorf("unexpected err: %v", err)
				}
			}(party)
		}
		wg.Wait()

		require.EqualValues(t, 1, resolvedCount.Load(), "round %d", round)
	}
}

func TestHub_ExpiredSessionIsNotFound(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	h := newTestHub(t, WithClock(clock.Now), WithTTL(10*time.Minute), WithSweepInterval(0))

	require.NoError(t, h.Create(ctx, "S1", "U1", ""))
	clock.Advance(9 * time.Minute)
	_, err := h.Get(ctx, "S1")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = h.Get(ctx, "S1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// the id is free again once the old session has expired
	assert.NoError(t, h.Create(ctx, "S1", "U1", ""))
}

func TestHub_Sweep_RemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	h := newTestHub(t, WithClock(clock.Now), WithTTL(10*time.Minute), WithSweepInterval(0))

	require.NoError(t, h.Create(ctx, "old", "U1", ""))
	clock.Advance(6 * time.Minute)
	require.NoError(t, h.Create(ctx, "new", "U2", ""))
	clock.Advance(5 * time.Minute)

	removed, err := h.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := h.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHub_TickerSweepsInBackground(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	h := newTestHub(t, WithClock(clock.Now), WithTTL(time.Minute), WithSweepInterval(5*time.Millisecond))

	require.NoError(t, h.Create(ctx, "S1", "U1", ""))
	clock.Advance(2 * time.Minute)

	assert.Eventually(t, func() bool {
		n, err := h.Len(ctx)
		return err == nil && n == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_Inbox_GetSession(t *testing.T) {
	h := newTestHub(t)

	created := make(chan error, 1)
	h.Inbox() <- CreateSession{ID: "ZED123", ChallengerID: "U1", Reply: created}
	require.NoError(t, <-created)

	reply := make(chan SessionReply, 1)
	h.Inbox() <- GetSession{ID: "ZED123", Reply: reply}
	r := <-reply
	require.NoError(t, r.Err)
	assert.Equal(t, "U1", r.Session.ChallengerID)
}

func TestHub_Shutdown_RejectsLaterCalls(t *testing.T) {
	h := NewHub(context.Background())
	h.Shutdown()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop")
	}

	err := h.Create(context.Background(), "S1", "U1", "")
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_ContextCancelled(t *testing.T) {
	h := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Either the inbox accepted the message or ctx won; both are acceptable,
	// but a cancelled caller must never block.
	done := make(chan struct{})
	go func() {
		_, _ = h.Get(ctx, "S1")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Get blocked on a cancelled context")
	}
}
