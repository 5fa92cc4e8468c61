package ledgerdto

// CreateChallengeRequest opens a challenge. Opponent empty means anyone may
// accept. PlayAs is "white" or "black" to pin the creator's seat, empty for
// accept-height parity. Height zero means "derive from the block clock".
type CreateChallengeRequest struct {
	Opponent   string  `json:"opponent,omitempty"`
	PlayAs     string  `json:"play_as,omitempty"`
	BlockLimit *uint64 `json:"block_limit,omitempty"`
	Height     uint64  `json:"height,omitempty"`
}

type ChallengeResponse struct {
	ChallengeID  uint64  `json:"challenge_id"`
	CreatedBy    string  `json:"created_by"`
	Opponent     string  `json:"opponent,omitempty"`
	PlayAs       string  `json:"play_as,omitempty"`
	BlockCreated uint64  `json:"block_created"`
	BlockLimit   *uint64 `json:"block_limit,omitempty"`
	Message      string  `json:"message,omitempty"`
}

type AcceptChallengeRequest struct {
	Height uint64 `json:"height,omitempty"`
}

type TurnRequest struct {
	Action string `json:"action"`
	Move   string `json:"move,omitempty"`
	Height uint64 `json:"height,omitempty"`
}

type TurnResponse struct {
	GameID  uint64 `json:"game_id"`
	Outcome string `json:"outcome,omitempty"`
	Message string `json:"message,omitempty"`
}

type TimeoutRequest struct {
	Height uint64 `json:"height,omitempty"`
}

type MoveEntry struct {
	Height uint64 `json:"height"`
	Kind   string `json:"kind"`
	Move   string `json:"move,omitempty"`
}

type GameResponse struct {
	GameID      uint64      `json:"game_id"`
	PlayerWhite string      `json:"player_white"`
	PlayerBlack string      `json:"player_black"`
	Moves       []MoveEntry `json:"moves"`
	BlockLimit  *uint64     `json:"block_limit,omitempty"`
	StartHeight uint64      `json:"start_height"`
	Outcome     string      `json:"outcome,omitempty"`
	TurnColor   string      `json:"turn_color,omitempty"`
	Message     string      `json:"message,omitempty"`
}

type GameSummary struct {
	GameID      uint64  `json:"game_id"`
	PlayerWhite string  `json:"player_white"`
	PlayerBlack string  `json:"player_black"`
	BlockLimit  *uint64 `json:"block_limit,omitempty"`
	StartHeight uint64  `json:"start_height"`
	MoveCount   int     `json:"move_count"`
	Outcome     string  `json:"outcome,omitempty"`
	TurnColor   string  `json:"turn_color,omitempty"`
}

type ChallengeListResponse struct {
	Challenges []ChallengeResponse `json:"challenges"`
}

type GameListResponse struct {
	Games []GameSummary `json:"games"`
}
