package ledger

import (
	"context"
	"errors"

	"github.com/park285/blockchess/internal/match"
	"github.com/park285/blockchess/internal/store"
)

// Page limits are part of the query contract, not configuration.
const (
	PlayerPageLimit = 25
	GlobalPageLimit = 100
)

func lessID(a, b uint64) bool { return a <= b }

// Counts reports collection sizes for operational checks.
func (m *Manager) Counts(ctx context.Context) (challenges, games int64, err error) {
	challenges, err = m.challenges.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	games, err = m.games.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return challenges, games, nil
}

// ListChallenges pages through challenges in ascending ID order. Unscoped it
// returns open challenges only; scoped to a player it merges "created by"
// and "targeted at" index scans into one globally ordered page. after is an
// exclusive cursor applied to each underlying scan before merging.
func (m *Manager) ListChallenges(ctx context.Context, after uint64, player *match.PlayerID) ([]Challenge, error) {
	var ids store.Stream[uint64]
	if player == nil {
		ids = m.challenges.Scan(idxOpponent, store.OpenKey, after)
	} else {
		ids = store.Merge[uint64](
			m.challenges.Scan(idxCreatedBy, string(*player), after),
			m.challenges.Scan(idxOpponent, string(*player), after),
			lessID,
		)
	}
	out := make([]Challenge, 0, PlayerPageLimit)
	for len(out) < PlayerPageLimit {
		id, ok, err := ids.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ch, err := m.challenges.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *ch)
	}
	return out, nil
}

// ListGames pages through games in ascending ID order. Unscoped it walks the
// whole collection with the global limit; scoped to a player it merges the
// white-seat and black-seat index scans with the player limit. Concluded
// games are filtered out unless gameOver is set; the limit applies after the
// filter.
func (m *Manager) ListGames(ctx context.Context, after uint64, gameOver bool, player *match.PlayerID) ([]GameSummary, error) {
	var ids store.Stream[uint64]
	limit := GlobalPageLimit
	if player == nil {
		ids = m.games.Scan("", "", after)
	} else {
		limit = PlayerPageLimit
		ids = store.Merge[uint64](
			m.games.Scan(idxWhite, string(*player), after),
			m.games.Scan(idxBlack, string(*player), after),
			lessID,
		)
	}
	out := make([]GameSummary, 0, limit)
	for len(out) < limit {
		id, ok, err := ids.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		g, err := m.games.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !gameOver && g.Over() {
			continue
		}
		out = append(out, Summarize(g))
	}
	return out, nil
}
