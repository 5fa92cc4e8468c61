package match

import (
	"errors"
	"testing"

	"github.com/park285/blockchess/internal/rules"
)

func u64(v uint64) *uint64 { return &v }

func colorPtr(c Color) *Color { return &c }

func mustGame(t *testing.T, creator, acceptor PlayerID, playAs *Color, limit *uint64, height uint64) *Game {
	t.Helper()
	g, err := NewGame(1, creator, acceptor, playAs, limit, height)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func TestAssignSeats(t *testing.T) {
	w, b := AssignSeats("creator", "acceptor", colorPtr(White), 101)
	if w != "creator" || b != "acceptor" {
		t.Fatalf("explicit white: got %s/%s", w, b)
	}
	w, b = AssignSeats("creator", "acceptor", colorPtr(Black), 100)
	if w != "acceptor" || b != "creator" {
		t.Fatalf("explicit black: got %s/%s", w, b)
	}
	w, _ = AssignSeats("creator", "acceptor", nil, 100)
	if w != "creator" {
		t.Fatalf("even height should seat creator as white, got %s", w)
	}
	w, _ = AssignSeats("creator", "acceptor", nil, 101)
	if w != "acceptor" {
		t.Fatalf("odd height should seat acceptor as white, got %s", w)
	}
}

func TestNewGameRejectsSelfPlay(t *testing.T) {
	if _, err := NewGame(1, "alice", "alice", nil, nil, 10); !errors.Is(err, ErrSelfPlay) {
		t.Fatalf("expected ErrSelfPlay, got %v", err)
	}
}

func TestMoveScenario(t *testing.T) {
	// Creator "black" plays black; "white" accepts at height 100.
	eng := rules.NewEngine()
	g := mustGame(t, "black", "white", colorPtr(Black), u64(300), 100)
	if g.PlayerWhite != "white" || g.PlayerBlack != "black" {
		t.Fatalf("seats = %s/%s", g.PlayerWhite, g.PlayerBlack)
	}

	if _, err := g.ApplyAction(eng, "white", 300, MakeMove("d4")); err != nil {
		t.Fatalf("white d4: %v", err)
	}
	if _, err := g.ApplyAction(eng, "white", 310, MakeMove("c4")); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := g.ApplyAction(eng, "black", 456, MakeMove("d5")); err != nil {
		t.Fatalf("black d5: %v", err)
	}

	if len(g.Moves) != 2 {
		t.Fatalf("moves = %d, want 2", len(g.Moves))
	}
	if g.Moves[0].Height != 300 || g.Moves[0].Action.Move != "d4" {
		t.Fatalf("move[0] = %+v", g.Moves[0])
	}
	if g.Moves[1].Height != 456 || g.Moves[1].Action.Move != "d5" {
		t.Fatalf("move[1] = %+v", g.Moves[1])
	}
}

func TestTurnAlternation(t *testing.T) {
	eng := rules.NewEngine()
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	moves := []string{"e4", "e5", "Nf3", "Nc6", "Bb5"}
	for i, mv := range moves {
		wantWhite := i%2 == 0
		if got := g.TurnColor() == White; got != wantWhite {
			t.Fatalf("move %d: turn white = %v, want %v", i, got, wantWhite)
		}
		actor := g.Seat(g.TurnColor())
		if _, err := g.ApplyAction(eng, actor, uint64(i+1), MakeMove(mv)); err != nil {
			t.Fatalf("move %d %q: %v", i, mv, err)
		}
	}
}

func TestTerminalIsImmutable(t *testing.T) {
	eng := rules.NewEngine()
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	out, err := g.ApplyAction(eng, "w", 5, Resign())
	if err != nil {
		t.Fatalf("resign: %v", err)
	}
	if out != OutcomeWhiteResigns {
		t.Fatalf("outcome = %s, want white_resigns", out)
	}
	before := len(g.Moves)
	if _, err := g.ApplyAction(eng, "b", 6, MakeMove("e4")); !errors.Is(err, ErrGameAlreadyOver) {
		t.Fatalf("expected ErrGameAlreadyOver, got %v", err)
	}
	if len(g.Moves) != before {
		t.Fatalf("moves mutated after terminal outcome")
	}
}

func TestResignAttributionFollowsActor(t *testing.T) {
	eng := rules.NewEngine()
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	if _, err := g.ApplyAction(eng, "w", 2, MakeMove("e4")); err != nil {
		t.Fatalf("e4: %v", err)
	}
	out, err := g.ApplyAction(eng, "b", 3, Resign())
	if err != nil {
		t.Fatalf("black resign: %v", err)
	}
	if out != OutcomeBlackResigns {
		t.Fatalf("outcome = %s, want black_resigns", out)
	}
}

func TestDrawOfferAccept(t *testing.T) {
	eng := rules.NewEngine()
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	if _, err := g.ApplyAction(eng, "w", 2, OfferDraw("e4")); err != nil {
		t.Fatalf("offer: %v", err)
	}
	out, err := g.ApplyAction(eng, "b", 3, AcceptDraw())
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if out != OutcomeDrawAccepted {
		t.Fatalf("outcome = %s, want draw_accepted", out)
	}
}

func TestAcceptDrawWithoutPendingOffer(t *testing.T) {
	eng := rules.NewEngine()
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	if _, err := g.ApplyAction(eng, "w", 2, AcceptDraw()); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("accept with no moves: %v", err)
	}
	if _, err := g.ApplyAction(eng, "w", 2, MakeMove("e4")); err != nil {
		t.Fatalf("e4: %v", err)
	}
	if _, err := g.ApplyAction(eng, "b", 3, AcceptDraw()); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("accept after plain move: %v", err)
	}
}

func TestAcceptDrawSameColorDefensivelyRejected(t *testing.T) {
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	// A lone white offer: white itself must not be able to accept it.
	g.Moves = []Move{{Height: 2, Action: OfferDraw("e4")}}
	if g.drawOfferPendingFor(White) {
		t.Fatalf("white accepted its own offer")
	}
	if !g.drawOfferPendingFor(Black) {
		t.Fatalf("black should see the pending white offer")
	}
}

func TestDeclareDrawAlwaysRejected(t *testing.T) {
	eng := rules.NewEngine()
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	if _, err := g.ApplyAction(eng, "w", 2, DeclareDraw()); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove for declare_draw, got %v", err)
	}
}

func TestTimeoutPriorityOverLegalMove(t *testing.T) {
	eng := rules.NewEngine()
	g := mustGame(t, "w", "b", colorPtr(White), u64(300), 100)
	if _, err := g.ApplyAction(eng, "w", 300, MakeMove("d4")); err != nil {
		t.Fatalf("d4: %v", err)
	}
	if _, err := g.ApplyAction(eng, "b", 456, MakeMove("d5")); err != nil {
		t.Fatalf("d5: %v", err)
	}
	// White has now consumed 787-456 = 331 > 300 blocks.
	out, err := g.ApplyAction(eng, "w", 787, MakeMove("c4"))
	if err != nil {
		t.Fatalf("turn after expiry: %v", err)
	}
	if out != OutcomeWhiteTimeout {
		t.Fatalf("outcome = %s, want white_timeout", out)
	}
	if len(g.Moves) != 2 {
		t.Fatalf("expired player's move was applied")
	}
}

func TestStaleHeightClampedToLastMove(t *testing.T) {
	eng := rules.NewEngine()
	g := mustGame(t, "w", "b", colorPtr(White), nil, 100)
	if _, err := g.ApplyAction(eng, "w", 200, MakeMove("e4")); err != nil {
		t.Fatalf("e4: %v", err)
	}
	if _, err := g.ApplyAction(eng, "b", 150, MakeMove("e5")); err != nil {
		t.Fatalf("e5 with stale height: %v", err)
	}
	if got := g.Moves[1].Height; got != 200 {
		t.Fatalf("height = %d, want clamped 200", got)
	}
}

func TestTimeoutClockStartsAtFirstMove(t *testing.T) {
	g := mustGame(t, "w", "b", colorPtr(White), u64(10), 100)
	if out := g.CheckTimeout(1_000_000); out != "" {
		t.Fatalf("zero-move game timed out: %s", out)
	}
}

func TestTimeoutAttribution(t *testing.T) {
	g := mustGame(t, "w", "b", colorPtr(White), u64(300), 100)
	g.Moves = []Move{{Height: 100, Action: MakeMove("e4")}}
	// Interval since white's first move belongs to black.
	if out := g.CheckTimeout(500); out != OutcomeBlackTimeout {
		t.Fatalf("outcome = %s, want black_timeout", out)
	}
	if out := g.CheckTimeout(300); out != "" {
		t.Fatalf("premature timeout: %s", out)
	}
	// Idempotent: same inputs, same answer.
	if out := g.CheckTimeout(500); out != OutcomeBlackTimeout {
		t.Fatalf("timeout check not idempotent")
	}
}

type stubEngine struct {
	replayErr error
	applyErr  error
	term      rules.Termination
}

type stubPos struct{}

func (stubPos) Turn() rules.Color { return rules.White }

func (s stubEngine) Replay([]string) (rules.Position, error) {
	if s.replayErr != nil {
		return nil, s.replayErr
	}
	return stubPos{}, nil
}

func (s stubEngine) Apply(pos rules.Position, _ string) (rules.Position, rules.Termination, error) {
	if s.applyErr != nil {
		return nil, rules.TerminationNone, s.applyErr
	}
	return pos, s.term, nil
}

func TestCorruptHistoryIsInvalidPosition(t *testing.T) {
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	eng := stubEngine{replayErr: errors.New("boom")}
	if _, err := g.ApplyAction(eng, "w", 2, MakeMove("e4")); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestEngineTerminationSetsOutcome(t *testing.T) {
	g := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	out, err := g.ApplyAction(stubEngine{term: rules.TerminationWhiteWins}, "w", 2, MakeMove("Qh5"))
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if out != OutcomeWhiteCheckmates {
		t.Fatalf("outcome = %s, want white_checkmates", out)
	}
	g2 := mustGame(t, "w", "b", colorPtr(White), nil, 1)
	out, err = g2.ApplyAction(stubEngine{term: rules.TerminationStalemate}, "w", 2, MakeMove("Qh5"))
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if out != OutcomeStalemate {
		t.Fatalf("outcome = %s, want stalemate", out)
	}
}
