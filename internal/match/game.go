package match

import "github.com/park285/blockchess/internal/rules"

// AssignSeats resolves who plays white. An explicit preference gives the
// creator that color deterministically; otherwise the parity of the accept
// height decides (even → creator is white). Deterministic, not secret — the
// ambient clock is the only tie-break available.
func AssignSeats(creator, acceptor PlayerID, playAs *Color, height uint64) (white, black PlayerID) {
	switch {
	case playAs != nil && *playAs == White:
		return creator, acceptor
	case playAs != nil && *playAs == Black:
		return acceptor, creator
	case height%2 == 0:
		return creator, acceptor
	default:
		return acceptor, creator
	}
}

// NewGame builds the game created by accepting a challenge: seats assigned,
// empty move history, no outcome.
func NewGame(gameID uint64, creator, acceptor PlayerID, playAs *Color, blockLimit *uint64, height uint64) (*Game, error) {
	if creator == acceptor {
		return nil, ErrSelfPlay
	}
	white, black := AssignSeats(creator, acceptor, playAs, height)
	return &Game{
		GameID:      gameID,
		PlayerWhite: white,
		PlayerBlack: black,
		Moves:       []Move{},
		BlockLimit:  blockLimit,
		StartHeight: height,
	}, nil
}

// Over reports whether the outcome is set.
func (g *Game) Over() bool { return g.Outcome != "" }

// TurnColor derives whose turn it is from the move count. Only meaningful
// while the game is open.
func (g *Game) TurnColor() Color {
	if len(g.Moves)%2 == 0 {
		return White
	}
	return Black
}

// Seat returns the player occupying a color.
func (g *Game) Seat(c Color) PlayerID {
	if c == White {
		return g.PlayerWhite
	}
	return g.PlayerBlack
}

// ColorOf returns the seat a player occupies, if any.
func (g *Game) ColorOf(p PlayerID) (Color, bool) {
	switch p {
	case g.PlayerWhite:
		return White, true
	case g.PlayerBlack:
		return Black, true
	default:
		return "", false
	}
}

// MoveTexts returns the board-relevant move texts in order; draw bookkeeping
// actions carry no text and do not reach the rules engine.
func (g *Game) MoveTexts() []string {
	texts := make([]string, 0, len(g.Moves))
	for _, m := range g.Moves {
		switch m.Action.Kind {
		case ActionMakeMove, ActionOfferDraw:
			texts = append(texts, m.Action.Move)
		}
	}
	return texts
}

// CheckTimeout lazily adjudicates the block clock. The clock starts at the
// first move, never at game creation; interval i over the move heights (plus
// the current height as a synthetic final boundary while open) is charged to
// white when i is even, else black — the side that held the turn during that
// interval. White is checked before black. Idempotent; there is no scheduler,
// so this runs on every action attempt.
func (g *Game) CheckTimeout(currentHeight uint64) Outcome {
	if g.BlockLimit == nil || len(g.Moves) == 0 {
		return ""
	}
	heights := make([]uint64, 0, len(g.Moves)+1)
	for _, m := range g.Moves {
		heights = append(heights, m.Height)
	}
	if !g.Over() && currentHeight > heights[len(heights)-1] {
		heights = append(heights, currentHeight)
	}
	var white, black uint64
	for i := 1; i < len(heights); i++ {
		delta := heights[i] - heights[i-1]
		if i%2 == 0 {
			white += delta
		} else {
			black += delta
		}
	}
	limit := *g.BlockLimit
	if white > limit {
		return OutcomeWhiteTimeout
	}
	if black > limit {
		return OutcomeBlackTimeout
	}
	return ""
}

// ApplyAction is the central state transition: one authorized action against
// the persisted game. On success the move is appended and the (possibly
// still empty) outcome returned; on failure nothing is mutated.
func (g *Game) ApplyAction(eng rules.Engine, actor PlayerID, height uint64, action Action) (Outcome, error) {
	if g.Over() {
		return g.Outcome, ErrGameAlreadyOver
	}
	// Move heights are non-decreasing; a stale clock reads as "same height".
	if n := len(g.Moves); n > 0 && height < g.Moves[n-1].Height {
		height = g.Moves[n-1].Height
	}
	// Timeout is adjudicated before turn and legality checks: an expired
	// clock cannot be saved by a move submitted afterwards.
	if out := g.CheckTimeout(height); out != "" {
		g.Outcome = out
		return out, nil
	}
	turn := g.TurnColor()
	if g.Seat(turn) != actor {
		return "", ErrNotYourTurn
	}

	switch action.Kind {
	case ActionMakeMove, ActionOfferDraw:
		pos, err := eng.Replay(g.MoveTexts())
		if err != nil {
			return "", ErrInvalidPosition
		}
		_, term, err := eng.Apply(pos, action.Move)
		if err != nil {
			return "", ErrInvalidMove
		}
		g.Moves = append(g.Moves, Move{Height: height, Action: action})
		g.Outcome = outcomeFromTermination(term)
	case ActionAcceptDraw:
		if !g.drawOfferPendingFor(turn) {
			return "", ErrInvalidMove
		}
		g.Moves = append(g.Moves, Move{Height: height, Action: action})
		g.Outcome = OutcomeDrawAccepted
	case ActionDeclareDraw:
		// No repetition or fifty-move tracking is wired up; claims are
		// always rejected.
		return "", ErrInvalidMove
	case ActionResign:
		g.Moves = append(g.Moves, Move{Height: height, Action: action})
		if turn == White {
			g.Outcome = OutcomeWhiteResigns
		} else {
			g.Outcome = OutcomeBlackResigns
		}
	default:
		return "", ErrInvalidMove
	}
	return g.Outcome, nil
}

// drawOfferPendingFor reports whether the immediately preceding move carried
// a draw offer from the opposing side. Correct alternation already implies
// the offer came from the other color, but a same-color offer is rejected
// anyway rather than assumed impossible.
func (g *Game) drawOfferPendingFor(acceptor Color) bool {
	n := len(g.Moves)
	if n == 0 || g.Moves[n-1].Action.Kind != ActionOfferDraw {
		return false
	}
	offeredBy := White
	if (n-1)%2 == 1 {
		offeredBy = Black
	}
	return offeredBy != acceptor
}

func outcomeFromTermination(term rules.Termination) Outcome {
	switch term {
	case rules.TerminationWhiteWins:
		return OutcomeWhiteCheckmates
	case rules.TerminationBlackWins:
		return OutcomeBlackCheckmates
	case rules.TerminationStalemate:
		return OutcomeStalemate
	default:
		return ""
	}
}
