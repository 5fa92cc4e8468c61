package ledger

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/blockchess/internal/match"
	"github.com/park285/blockchess/internal/rules"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewManager(rdb, rules.NewEngine())
}

func pid(s string) *match.PlayerID {
	p := match.PlayerID(s)
	return &p
}

func colorPtr(c match.Color) *match.Color { return &c }

func u64(v uint64) *uint64 { return &v }

func TestCreateChallengeAssignsMonotonicIDs(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	for want := uint64(1); want <= 3; want++ {
		ch, err := m.CreateChallenge(ctx, "alice", nil, nil, nil, 10)
		if err != nil {
			t.Fatalf("CreateChallenge: %v", err)
		}
		if ch.ChallengeID != want {
			t.Fatalf("challenge_id = %d, want %d", ch.ChallengeID, want)
		}
	}
}

func TestCreateChallengeValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	if _, err := m.CreateChallenge(ctx, "alice", pid("alice"), nil, nil, 10); !errors.Is(err, match.ErrSelfPlay) {
		t.Fatalf("expected ErrSelfPlay, got %v", err)
	}
	if _, err := m.CreateChallenge(ctx, "", nil, nil, nil, 10); !errors.Is(err, ErrInvalidPlayer) {
		t.Fatalf("expected ErrInvalidPlayer, got %v", err)
	}
	if _, err := m.CreateChallenge(ctx, " alice ", nil, nil, nil, 10); !errors.Is(err, ErrInvalidPlayer) {
		t.Fatalf("expected ErrInvalidPlayer for padded id, got %v", err)
	}
}

func TestAcceptOpenChallenge(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	ch, err := m.CreateChallenge(ctx, "creator", nil, nil, nil, 10)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	g, err := m.AcceptChallenge(ctx, ch.ChallengeID, "other", 10)
	if err != nil {
		t.Fatalf("AcceptChallenge: %v", err)
	}
	if g.GameID != 1 {
		t.Fatalf("game_id = %d, want 1", g.GameID)
	}
	// Challenges are single-use: gone after accept.
	if _, err := m.GetChallenge(ctx, ch.ChallengeID); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound after accept, got %v", err)
	}
	if _, err := m.AcceptChallenge(ctx, ch.ChallengeID, "other", 11); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound on double accept, got %v", err)
	}
	open, err := m.ListChallenges(ctx, 0, nil)
	if err != nil {
		t.Fatalf("ListChallenges: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("open challenges = %d, want 0", len(open))
	}
}

func TestAcceptTargetedChallenge(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	ch, err := m.CreateChallenge(ctx, "creator", pid("opponent"), nil, nil, 10)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	if _, err := m.AcceptChallenge(ctx, ch.ChallengeID, "other", 10); !errors.Is(err, ErrNotYourChallenge) {
		t.Fatalf("expected ErrNotYourChallenge, got %v", err)
	}
	if _, err := m.AcceptChallenge(ctx, ch.ChallengeID, "opponent", 10); err != nil {
		t.Fatalf("AcceptChallenge by named opponent: %v", err)
	}
}

func TestAcceptSelfPlayRejected(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	ch, err := m.CreateChallenge(ctx, "alice", nil, nil, nil, 10)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	if _, err := m.AcceptChallenge(ctx, ch.ChallengeID, "alice", 10); !errors.Is(err, match.ErrSelfPlay) {
		t.Fatalf("expected ErrSelfPlay, got %v", err)
	}
	// The failed accept must not consume the challenge.
	if _, err := m.GetChallenge(ctx, ch.ChallengeID); err != nil {
		t.Fatalf("challenge consumed by failed accept: %v", err)
	}
}

func TestAcceptMissingChallenge(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.AcceptChallenge(context.Background(), 42, "alice", 10); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestCancelChallenge(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	ch, err := m.CreateChallenge(ctx, "creator", nil, nil, nil, 10)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	if err := m.CancelChallenge(ctx, ch.ChallengeID, "stranger"); !errors.Is(err, ErrNotYourChallenge) {
		t.Fatalf("expected ErrNotYourChallenge, got %v", err)
	}
	if err := m.CancelChallenge(ctx, ch.ChallengeID, "creator"); err != nil {
		t.Fatalf("CancelChallenge: %v", err)
	}
	if err := m.CancelChallenge(ctx, ch.ChallengeID, "creator"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestTurnScenario(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ch, err := m.CreateChallenge(ctx, "black", nil, colorPtr(match.Black), u64(300), 100)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	g, err := m.AcceptChallenge(ctx, ch.ChallengeID, "white", 100)
	if err != nil {
		t.Fatalf("AcceptChallenge: %v", err)
	}
	if g.PlayerWhite != "white" || g.PlayerBlack != "black" {
		t.Fatalf("seats = %s/%s", g.PlayerWhite, g.PlayerBlack)
	}

	if _, err := m.Turn(ctx, g.GameID, "white", 300, match.MakeMove("d4")); err != nil {
		t.Fatalf("white d4: %v", err)
	}
	if _, err := m.Turn(ctx, g.GameID, "white", 310, match.MakeMove("c4")); !errors.Is(err, match.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := m.Turn(ctx, g.GameID, "black", 456, match.MakeMove("d5")); err != nil {
		t.Fatalf("black d5: %v", err)
	}

	loaded, err := m.GetGame(ctx, g.GameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if len(loaded.Moves) != 2 || loaded.Moves[0].Height != 300 || loaded.Moves[1].Height != 456 {
		t.Fatalf("moves = %+v", loaded.Moves)
	}

	// Clock has not expired yet (white has consumed 144 blocks).
	if _, err := m.DeclareTimeout(ctx, g.GameID, 600); !errors.Is(err, match.ErrGameNotTimedOut) {
		t.Fatalf("expected ErrGameNotTimedOut, got %v", err)
	}
	// White overruns by 331 blocks; its own move attempt adjudicates the clock.
	out, err := m.Turn(ctx, g.GameID, "white", 787, match.MakeMove("c4"))
	if err != nil {
		t.Fatalf("turn after expiry: %v", err)
	}
	if out != match.OutcomeWhiteTimeout {
		t.Fatalf("outcome = %s, want white_timeout", out)
	}
	// Terminal outcome is immutable.
	if _, err := m.Turn(ctx, g.GameID, "black", 800, match.MakeMove("e6")); !errors.Is(err, match.ErrGameAlreadyOver) {
		t.Fatalf("expected ErrGameAlreadyOver, got %v", err)
	}
	if _, err := m.DeclareTimeout(ctx, g.GameID, 900); !errors.Is(err, match.ErrGameAlreadyOver) {
		t.Fatalf("expected ErrGameAlreadyOver on DeclareTimeout, got %v", err)
	}
}

func TestFailedTurnWritesNothing(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	ch, _ := m.CreateChallenge(ctx, "creator", nil, colorPtr(match.White), nil, 10)
	g, err := m.AcceptChallenge(ctx, ch.ChallengeID, "other", 10)
	if err != nil {
		t.Fatalf("AcceptChallenge: %v", err)
	}
	if _, err := m.Turn(ctx, g.GameID, "creator", 11, match.MakeMove("e5")); !errors.Is(err, match.ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	loaded, err := m.GetGame(ctx, g.GameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if len(loaded.Moves) != 0 {
		t.Fatalf("rejected move was persisted: %+v", loaded.Moves)
	}
}

func TestTurnMissingGame(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	if _, err := m.Turn(ctx, 7, "alice", 10, match.MakeMove("e4")); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if _, err := m.DeclareTimeout(ctx, 7, 10); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}
