package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/blockchess/internal/match"
)

// Archive persists concluded games to Postgres for long-term storage and
// export. It is a sink only; the ledger never reads from it.
type Archive struct {
	db *sql.DB
}

func NewArchive(databaseURL string) (*Archive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Ping reports connectivity; used by the smoke-check binary.
func (a *Archive) Ping(ctx context.Context) error {
	if a == nil || a.db == nil {
		return fmt.Errorf("archive not initialized")
	}
	return a.db.PingContext(ctx)
}

// SaveResult upserts one concluded game. Ongoing games are ignored.
func (a *Archive) SaveResult(ctx context.Context, g *match.Game) error {
	if a == nil || a.db == nil || g == nil || !g.Over() {
		return nil
	}

	movesRaw, err := json.Marshal(g.Moves)
	if err != nil {
		return err
	}
	endHeight := g.StartHeight
	if n := len(g.Moves); n > 0 {
		endHeight = g.Moves[n-1].Height
	}
	result := resultToken(g.Outcome)

	q := `INSERT INTO archived_games (
	    game_id, player_white, player_black,
	    outcome, result, start_height, end_height,
	    move_count, moves, movetext, block_limit
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
	  ) ON CONFLICT (game_id) DO UPDATE SET
	    player_white=EXCLUDED.player_white,
	    player_black=EXCLUDED.player_black,
	    outcome=EXCLUDED.outcome,
	    result=EXCLUDED.result,
	    start_height=EXCLUDED.start_height,
	    end_height=EXCLUDED.end_height,
	    move_count=EXCLUDED.move_count,
	    moves=EXCLUDED.moves,
	    movetext=EXCLUDED.movetext,
	    block_limit=EXCLUDED.block_limit`

	var limit sql.NullInt64
	if g.BlockLimit != nil {
		limit = sql.NullInt64{Int64: int64(*g.BlockLimit), Valid: true}
	}
	_, err = a.db.ExecContext(ctx, q,
		g.GameID,
		string(g.PlayerWhite), string(g.PlayerBlack),
		string(g.Outcome), result,
		g.StartHeight, endHeight,
		len(g.Moves), string(movesRaw), buildMovetext(g, result),
		limit,
	)
	return err
}

// resultToken maps an outcome to the PGN-style result string.
func resultToken(out match.Outcome) string {
	switch out {
	case match.OutcomeWhiteCheckmates, match.OutcomeBlackResigns, match.OutcomeBlackTimeout:
		return "1-0"
	case match.OutcomeBlackCheckmates, match.OutcomeWhiteResigns, match.OutcomeWhiteTimeout:
		return "0-1"
	case match.OutcomeStalemate, match.OutcomeDrawAccepted, match.OutcomeDrawDeclared:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// buildMovetext renders the numbered move list with the result token, as
// submitted (UCI or SAN).
func buildMovetext(g *match.Game, result string) string {
	texts := g.MoveTexts()
	var b strings.Builder
	for i := 0; i < len(texts); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, strings.TrimSpace(texts[i])))
		if i+1 < len(texts) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(texts[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}
