package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// chessEngine implements Engine on top of corentings/chess. Positions are
// rebuilt from the start position by applying move texts; UCI is tried first
// and SAN as a fallback.
type chessEngine struct{}

// NewEngine returns the production rules engine.
func NewEngine() Engine { return chessEngine{} }

type chessPosition struct {
	game *nchess.Game
}

func (p *chessPosition) Turn() Color {
	if p.game.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

func (chessEngine) Replay(moves []string) (Position, error) {
	game := nchess.NewGame()
	for i, mv := range moves {
		if err := pushMove(game, mv); err != nil {
			return nil, fmt.Errorf("replay move %d %q: %w", i+1, mv, err)
		}
	}
	return &chessPosition{game: game}, nil
}

func (chessEngine) Apply(pos Position, move string) (Position, Termination, error) {
	p, ok := pos.(*chessPosition)
	if !ok {
		return nil, TerminationNone, fmt.Errorf("position not produced by this engine")
	}
	if err := pushMove(p.game, move); err != nil {
		return nil, TerminationNone, err
	}
	return p, termination(p.game), nil
}

func pushMove(game *nchess.Game, move string) error {
	raw := strings.TrimSpace(move)
	if raw == "" {
		return fmt.Errorf("empty move")
	}
	if mv, err := (nchess.UCINotation{}).Decode(game.Position(), strings.ToLower(raw)); err == nil {
		return game.Move(mv, nil)
	}
	return game.PushNotationMove(raw, nchess.AlgebraicNotation{}, nil)
}

func termination(game *nchess.Game) Termination {
	switch game.Outcome() {
	case nchess.WhiteWon:
		return TerminationWhiteWins
	case nchess.BlackWon:
		return TerminationBlackWins
	case nchess.Draw:
		// The engine only declares draws it detects on its own; those all
		// surface as stalemate here. Claimed draws never reach the engine.
		return TerminationStalemate
	default:
		return TerminationNone
	}
}
