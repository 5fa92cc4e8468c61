package ledger

import (
	"strings"

	"github.com/park285/blockchess/internal/match"
)

// Challenge is an open invitation to play, optionally targeted at a specific
// opponent and/or seating the creator on a chosen color. Challenges are
// single-use: accepting one converts it into a game and deletes it.
type Challenge struct {
	ChallengeID  uint64          `json:"challenge_id"`
	CreatedBy    match.PlayerID  `json:"created_by"`
	Opponent     *match.PlayerID `json:"opponent,omitempty"`
	PlayAs       *match.Color    `json:"play_as,omitempty"`
	BlockCreated uint64          `json:"block_created"`
	BlockLimit   *uint64         `json:"block_limit,omitempty"`
}

// GameSummary is the list-query projection of a game. TurnColor is empty
// once the game has concluded.
type GameSummary struct {
	GameID      uint64         `json:"game_id"`
	PlayerWhite match.PlayerID `json:"player_white"`
	PlayerBlack match.PlayerID `json:"player_black"`
	BlockLimit  *uint64        `json:"block_limit,omitempty"`
	StartHeight uint64         `json:"start_height"`
	MoveCount   int            `json:"move_count"`
	Outcome     match.Outcome  `json:"outcome,omitempty"`
	TurnColor   match.Color    `json:"turn_color,omitempty"`
}

func Summarize(g *match.Game) GameSummary {
	s := GameSummary{
		GameID:      g.GameID,
		PlayerWhite: g.PlayerWhite,
		PlayerBlack: g.PlayerBlack,
		BlockLimit:  g.BlockLimit,
		StartHeight: g.StartHeight,
		MoveCount:   len(g.Moves),
		Outcome:     g.Outcome,
	}
	if !g.Over() {
		s.TurnColor = g.TurnColor()
	}
	return s
}

var (
	ErrChallengeNotFound = staticErr("challenge not found")
	ErrGameNotFound      = staticErr("game not found")
	ErrNotYourChallenge  = staticErr("not your challenge")
	ErrInvalidPlayer     = staticErr("invalid player id")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

func validPlayer(p match.PlayerID) bool {
	s := string(p)
	return s != "" && s == strings.TrimSpace(s) && len(s) <= 128
}
