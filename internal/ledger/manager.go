package ledger

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/blockchess/internal/match"
	"github.com/park285/blockchess/internal/obslog"
	"github.com/park285/blockchess/internal/rules"
	"github.com/park285/blockchess/internal/store"
)

// Manager owns the challenge and game lifecycles over the indexed store.
// Every action is a single optimistic transaction: all reads and writes
// commit together or the action fails with no effect.
type Manager struct {
	rdb        *redis.Client
	challenges *store.Collection[Challenge]
	games      *store.Collection[match.Game]
	engine     rules.Engine
	archive    *Archive
}

const (
	idxCreatedBy = "created_by"
	idxOpponent  = "opponent"
	idxWhite     = "white"
	idxBlack     = "black"
)

func NewManager(rdb *redis.Client, engine rules.Engine) *Manager {
	challenges := store.NewCollection(rdb, "challenges",
		func(c *Challenge) uint64 { return c.ChallengeID },
		store.Index[Challenge]{Name: idxCreatedBy, Key: func(c *Challenge) string { return string(c.CreatedBy) }},
		store.Index[Challenge]{Name: idxOpponent, Key: func(c *Challenge) string {
			if c.Opponent == nil {
				return store.OpenKey
			}
			return string(*c.Opponent)
		}},
	)
	games := store.NewCollection(rdb, "games",
		func(g *match.Game) uint64 { return g.GameID },
		store.Index[match.Game]{Name: idxWhite, Key: func(g *match.Game) string { return string(g.PlayerWhite) }},
		store.Index[match.Game]{Name: idxBlack, Key: func(g *match.Game) string { return string(g.PlayerBlack) }},
	)
	return &Manager{rdb: rdb, challenges: challenges, games: games, engine: engine}
}

// AttachArchive wires a SQL sink for concluded games.
func (m *Manager) AttachArchive(a *Archive) {
	if m != nil {
		m.archive = a
	}
}

// CreateChallenge validates and persists a new open challenge under a fresh
// monotonic ID.
func (m *Manager) CreateChallenge(ctx context.Context, creator match.PlayerID, opponent *match.PlayerID, playAs *match.Color, blockLimit *uint64, height uint64) (*Challenge, error) {
	if !validPlayer(creator) || (opponent != nil && !validPlayer(*opponent)) {
		return nil, ErrInvalidPlayer
	}
	if opponent != nil && *opponent == creator {
		return nil, match.ErrSelfPlay
	}
	id, err := m.challenges.NextID(ctx)
	if err != nil {
		return nil, err
	}
	ch := &Challenge{
		ChallengeID:  id,
		CreatedBy:    creator,
		Opponent:     opponent,
		PlayAs:       playAs,
		BlockCreated: height,
		BlockLimit:   blockLimit,
	}
	if err := m.challenges.Put(ctx, ch); err != nil {
		return nil, err
	}
	obslog.L().Info("challenge_create",
		zap.Uint64("challenge_id", id),
		zap.String("created_by", string(creator)),
		zap.Uint64("height", height),
	)
	return ch, nil
}

// AcceptChallenge converts a challenge into a game. The game insert and the
// challenge delete share one pipeline guarded by a WATCH on the challenge
// key, so a challenge can only ever be consumed once.
func (m *Manager) AcceptChallenge(ctx context.Context, challengeID uint64, acceptor match.PlayerID, height uint64) (*match.Game, error) {
	if !validPlayer(acceptor) {
		return nil, ErrInvalidPlayer
	}
	var game *match.Game
	chKey := m.challenges.ItemKey(challengeID)
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		ch, err := m.challenges.Get(ctx, challengeID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrChallengeNotFound
		}
		if err != nil {
			return err
		}
		if ch.Opponent != nil && *ch.Opponent != acceptor {
			return ErrNotYourChallenge
		}
		gameID, err := m.games.NextID(ctx)
		if err != nil {
			return err
		}
		g, err := match.NewGame(gameID, ch.CreatedBy, acceptor, ch.PlayAs, ch.BlockLimit, height)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		if err := m.games.PutTx(ctx, pipe, g, nil); err != nil {
			return err
		}
		m.challenges.DeleteTx(ctx, pipe, ch)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		game = g
		return nil
	}, chKey)
	if err != nil {
		return nil, err
	}
	obslog.L().Info("challenge_accept",
		zap.Uint64("challenge_id", challengeID),
		zap.Uint64("game_id", game.GameID),
		zap.String("player_white", string(game.PlayerWhite)),
		zap.String("player_black", string(game.PlayerBlack)),
		zap.Uint64("height", height),
	)
	return game, nil
}

// CancelChallenge removes a challenge entirely; only its creator may cancel.
func (m *Manager) CancelChallenge(ctx context.Context, challengeID uint64, requester match.PlayerID) error {
	ch, err := m.challenges.Get(ctx, challengeID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrChallengeNotFound
	}
	if err != nil {
		return err
	}
	if ch.CreatedBy != requester {
		return ErrNotYourChallenge
	}
	if err := m.challenges.Delete(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return err
	}
	obslog.L().Info("challenge_cancel",
		zap.Uint64("challenge_id", challengeID),
		zap.String("requester", string(requester)),
	)
	return nil
}

// Turn applies one action to a game as a read-modify-write transaction and
// returns the resulting outcome (empty while the game continues).
func (m *Manager) Turn(ctx context.Context, gameID uint64, player match.PlayerID, height uint64, action match.Action) (match.Outcome, error) {
	var out match.Outcome
	game, err := m.games.Update(ctx, gameID, func(g *match.Game) error {
		o, err := g.ApplyAction(m.engine, player, height, action)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrGameNotFound
	}
	if err != nil {
		return "", err
	}
	obslog.L().Info("game_turn",
		zap.Uint64("game_id", gameID),
		zap.String("player", string(player)),
		zap.String("action", string(action.Kind)),
		zap.Uint64("height", height),
		zap.String("outcome", string(out)),
	)
	m.archiveIfFinal(ctx, game)
	return out, nil
}

// DeclareTimeout adjudicates the block clock on demand without submitting a
// move. Fails while the clock has not expired.
func (m *Manager) DeclareTimeout(ctx context.Context, gameID uint64, height uint64) (match.Outcome, error) {
	var out match.Outcome
	game, err := m.games.Update(ctx, gameID, func(g *match.Game) error {
		if g.Over() {
			return match.ErrGameAlreadyOver
		}
		o := g.CheckTimeout(height)
		if o == "" {
			return match.ErrGameNotTimedOut
		}
		g.Outcome = o
		out = o
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrGameNotFound
	}
	if err != nil {
		return "", err
	}
	obslog.L().Info("game_timeout",
		zap.Uint64("game_id", gameID),
		zap.Uint64("height", height),
		zap.String("outcome", string(out)),
	)
	m.archiveIfFinal(ctx, game)
	return out, nil
}

// GetChallenge loads one challenge by ID.
func (m *Manager) GetChallenge(ctx context.Context, challengeID uint64) (*Challenge, error) {
	ch, err := m.challenges.Get(ctx, challengeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrChallengeNotFound
	}
	return ch, err
}

// GetGame loads one game by ID.
func (m *Manager) GetGame(ctx context.Context, gameID uint64) (*match.Game, error) {
	g, err := m.games.Get(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	return g, err
}

func (m *Manager) archiveIfFinal(ctx context.Context, g *match.Game) {
	if m.archive == nil || g == nil || !g.Over() {
		return
	}
	if err := m.archive.SaveResult(ctx, g); err != nil {
		obslog.L().Error("archive_save_error",
			zap.Uint64("game_id", g.GameID),
			zap.String("outcome", string(g.Outcome)),
			zap.Error(err),
		)
		return
	}
	obslog.L().Info("archive_save",
		zap.Uint64("game_id", g.GameID),
		zap.String("outcome", string(g.Outcome)),
	)
}
