// Package rules isolates the chess rules engine behind a small capability
// interface so the session state machine never depends on a concrete board
// implementation and tests can script positions.
package rules

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Termination is the terminal signal a rules engine can raise on its own.
// Resignation, draw agreement and timeout are session-level concerns and
// never come from the engine.
type Termination string

const (
	TerminationNone      Termination = ""
	TerminationWhiteWins Termination = "white_wins"
	TerminationBlackWins Termination = "black_wins"
	TerminationStalemate Termination = "stalemate"
)

// Position is an opaque board state owned by the engine that produced it.
type Position interface {
	Turn() Color
}

// Engine replays and extends move histories.
//
// Replay rebuilds a position from the start; a history that fails to replay
// signals stored-state corruption, not user error. Apply validates one move
// text against a position and reports the updated position plus any terminal
// signal; an illegal or unparsable move returns an error.
type Engine interface {
	Replay(moves []string) (Position, error)
	Apply(pos Position, move string) (Position, Termination, error)
}
