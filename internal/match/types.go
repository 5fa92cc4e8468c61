package match

import "github.com/park285/blockchess/internal/rules"

// Color is shared with the rules engine boundary.
type Color = rules.Color

const (
	White = rules.White
	Black = rules.Black
)

// PlayerID is an opaque, validated identity string used as an index key.
type PlayerID string

// ActionKind tags one turn submission.
type ActionKind string

const (
	ActionMakeMove    ActionKind = "make_move"
	ActionOfferDraw   ActionKind = "offer_draw"
	ActionAcceptDraw  ActionKind = "accept_draw"
	ActionDeclareDraw ActionKind = "declare_draw"
	ActionResign      ActionKind = "resign"
)

// Action is one player submission. Move text is present for make_move and
// offer_draw (an offer rides on a regular move) and empty otherwise.
type Action struct {
	Kind ActionKind `json:"kind"`
	Move string     `json:"move,omitempty"`
}

func MakeMove(text string) Action  { return Action{Kind: ActionMakeMove, Move: text} }
func OfferDraw(text string) Action { return Action{Kind: ActionOfferDraw, Move: text} }
func AcceptDraw() Action           { return Action{Kind: ActionAcceptDraw} }
func DeclareDraw() Action          { return Action{Kind: ActionDeclareDraw} }
func Resign() Action               { return Action{Kind: ActionResign} }

// Move is an applied action stamped with the block height it arrived at.
type Move struct {
	Height uint64 `json:"height"`
	Action Action `json:"action"`
}

// Outcome is the terminal result of a game. Empty means still ongoing; once
// set it never changes.
type Outcome string

const (
	OutcomeWhiteCheckmates Outcome = "white_checkmates"
	OutcomeBlackCheckmates Outcome = "black_checkmates"
	OutcomeWhiteResigns    Outcome = "white_resigns"
	OutcomeBlackResigns    Outcome = "black_resigns"
	OutcomeStalemate       Outcome = "stalemate"
	OutcomeDrawAccepted    Outcome = "draw_accepted"
	OutcomeDrawDeclared    Outcome = "draw_declared"
	OutcomeWhiteTimeout    Outcome = "white_timeout"
	OutcomeBlackTimeout    Outcome = "black_timeout"
)

// Game is the persisted state of one match. Moves are append-only with
// non-decreasing heights; the store owns the single mutation path.
type Game struct {
	GameID      uint64   `json:"game_id"`
	PlayerWhite PlayerID `json:"player_white"`
	PlayerBlack PlayerID `json:"player_black"`
	Moves       []Move   `json:"moves"`
	BlockLimit  *uint64  `json:"block_limit,omitempty"`
	StartHeight uint64   `json:"start_height"`
	Outcome     Outcome  `json:"outcome,omitempty"`
}

// Errors. Authorization and validation failures are sentinels so callers can
// map them onto wire codes without string matching.
var (
	ErrGameAlreadyOver = staticErr("game already over")
	ErrNotYourTurn     = staticErr("not your turn")
	ErrInvalidMove     = staticErr("invalid move")
	ErrInvalidPosition = staticErr("stored move history fails to replay")
	ErrGameNotTimedOut = staticErr("game not timed out")
	ErrSelfPlay        = staticErr("cannot play against yourself")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
