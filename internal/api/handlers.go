package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/blockchess/internal/ledger"
	"github.com/park285/blockchess/internal/match"
	"github.com/park285/blockchess/internal/obslog"
	"github.com/park285/blockchess/pkg/ledgerdto"
)

const playerHeader = "X-Player-Id"

var errNoRoute = ledgerdto.Error{Code: ledgerdto.CodeNotFound, Message: "no such route"}

func (s *Server) handleCreateChallenge(ctx *fasthttp.RequestCtx) {
	player, ok := requirePlayer(ctx)
	if !ok {
		return
	}
	var req ledgerdto.CreateChallengeRequest
	if !decodeBody(ctx, &req) {
		return
	}
	var opponent *match.PlayerID
	if req.Opponent != "" {
		p := match.PlayerID(req.Opponent)
		opponent = &p
	}
	playAs, ok := parsePlayAs(ctx, req.PlayAs)
	if !ok {
		return
	}
	ch, err := s.mgr.CreateChallenge(ctx, player, opponent, playAs, req.BlockLimit, s.height(req.Height))
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, s.challengeDTO(ch))
}

func (s *Server) handleListChallenges(ctx *fasthttp.RequestCtx) {
	after, ok := parseQueryUint(ctx, "after")
	if !ok {
		return
	}
	challenges, err := s.mgr.ListChallenges(ctx, after, queryPlayer(ctx))
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	resp := ledgerdto.ChallengeListResponse{Challenges: make([]ledgerdto.ChallengeResponse, 0, len(challenges))}
	for i := range challenges {
		resp.Challenges = append(resp.Challenges, s.challengeDTO(&challenges[i]))
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleGetChallenge(ctx *fasthttp.RequestCtx, rawID string) {
	id, ok := parseID(ctx, rawID)
	if !ok {
		return
	}
	ch, err := s.mgr.GetChallenge(ctx, id)
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.challengeDTO(ch))
}

func (s *Server) handleAcceptChallenge(ctx *fasthttp.RequestCtx, rawID string) {
	player, ok := requirePlayer(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, rawID)
	if !ok {
		return
	}
	var req ledgerdto.AcceptChallengeRequest
	if !decodeBody(ctx, &req) {
		return
	}
	g, err := s.mgr.AcceptChallenge(ctx, id, player, s.height(req.Height))
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, s.gameDTO(g))
}

func (s *Server) handleCancelChallenge(ctx *fasthttp.RequestCtx, rawID string) {
	player, ok := requirePlayer(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, rawID)
	if !ok {
		return
	}
	if err := s.mgr.CancelChallenge(ctx, id, player); err != nil {
		writeLedgerError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
	ctx.Response.ResetBody()
}

func (s *Server) handleListGames(ctx *fasthttp.RequestCtx) {
	after, ok := parseQueryUint(ctx, "after")
	if !ok {
		return
	}
	gameOver := string(ctx.QueryArgs().Peek("game_over")) == "true"
	games, err := s.mgr.ListGames(ctx, after, gameOver, queryPlayer(ctx))
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	resp := ledgerdto.GameListResponse{Games: make([]ledgerdto.GameSummary, 0, len(games))}
	for _, g := range games {
		resp.Games = append(resp.Games, ledgerdto.GameSummary{
			GameID:      g.GameID,
			PlayerWhite: string(g.PlayerWhite),
			PlayerBlack: string(g.PlayerBlack),
			BlockLimit:  g.BlockLimit,
			StartHeight: g.StartHeight,
			MoveCount:   g.MoveCount,
			Outcome:     string(g.Outcome),
			TurnColor:   string(g.TurnColor),
		})
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleGetGame(ctx *fasthttp.RequestCtx, rawID string) {
	id, ok := parseID(ctx, rawID)
	if !ok {
		return
	}
	g, err := s.mgr.GetGame(ctx, id)
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.gameDTO(g))
}

func (s *Server) handleTurn(ctx *fasthttp.RequestCtx, rawID string) {
	player, ok := requirePlayer(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, rawID)
	if !ok {
		return
	}
	var req ledgerdto.TurnRequest
	if !decodeBody(ctx, &req) {
		return
	}
	action, ok := parseAction(ctx, req)
	if !ok {
		return
	}
	out, err := s.mgr.Turn(ctx, id, player, s.height(req.Height), action)
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ledgerdto.TurnResponse{
		GameID:  id,
		Outcome: string(out),
		Message: s.outcomeMessage(out),
	})
}

func (s *Server) handleTimeout(ctx *fasthttp.RequestCtx, rawID string) {
	id, ok := parseID(ctx, rawID)
	if !ok {
		return
	}
	var req ledgerdto.TimeoutRequest
	if !decodeBody(ctx, &req) {
		return
	}
	out, err := s.mgr.DeclareTimeout(ctx, id, s.height(req.Height))
	if err != nil {
		writeLedgerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ledgerdto.TurnResponse{
		GameID:  id,
		Outcome: string(out),
		Message: s.outcomeMessage(out),
	})
}

func (s *Server) challengeDTO(ch *ledger.Challenge) ledgerdto.ChallengeResponse {
	resp := ledgerdto.ChallengeResponse{
		ChallengeID:  ch.ChallengeID,
		CreatedBy:    string(ch.CreatedBy),
		BlockCreated: ch.BlockCreated,
		BlockLimit:   ch.BlockLimit,
	}
	if ch.Opponent != nil {
		resp.Opponent = string(*ch.Opponent)
	}
	if ch.PlayAs != nil {
		resp.PlayAs = string(*ch.PlayAs)
	}
	if s.cat != nil {
		key := "status.challenge_open"
		if ch.Opponent != nil {
			key = "status.challenge_targeted"
		}
		resp.Message = s.cat.RenderOr(key, map[string]any{
			"ChallengeID": ch.ChallengeID,
			"CreatedBy":   string(ch.CreatedBy),
			"Opponent":    resp.Opponent,
		}, "")
	}
	return resp
}

func (s *Server) gameDTO(g *match.Game) ledgerdto.GameResponse {
	resp := ledgerdto.GameResponse{
		GameID:      g.GameID,
		PlayerWhite: string(g.PlayerWhite),
		PlayerBlack: string(g.PlayerBlack),
		Moves:       make([]ledgerdto.MoveEntry, 0, len(g.Moves)),
		BlockLimit:  g.BlockLimit,
		StartHeight: g.StartHeight,
		Outcome:     string(g.Outcome),
	}
	for _, m := range g.Moves {
		resp.Moves = append(resp.Moves, ledgerdto.MoveEntry{
			Height: m.Height,
			Kind:   string(m.Action.Kind),
			Move:   m.Action.Move,
		})
	}
	if g.Over() {
		resp.Message = s.outcomeMessage(g.Outcome)
	} else {
		resp.TurnColor = string(g.TurnColor())
		if s.cat != nil {
			resp.Message = s.cat.RenderOr("status.ongoing", map[string]any{
				"GameID":    g.GameID,
				"TurnColor": resp.TurnColor,
			}, "")
		}
	}
	return resp
}

func (s *Server) outcomeMessage(out match.Outcome) string {
	if s.cat == nil || out == "" {
		return ""
	}
	return s.cat.RenderOr("outcome."+string(out), nil, "")
}

func requirePlayer(ctx *fasthttp.RequestCtx) (match.PlayerID, bool) {
	p := strings.TrimSpace(string(ctx.Request.Header.Peek(playerHeader)))
	if p == "" {
		writeError(ctx, fasthttp.StatusBadRequest, ledgerdto.Error{
			Code:    ledgerdto.CodeInvalidArgument,
			Message: "missing " + playerHeader + " header",
		})
		return "", false
	}
	return match.PlayerID(p), true
}

func queryPlayer(ctx *fasthttp.RequestCtx) *match.PlayerID {
	v := strings.TrimSpace(string(ctx.QueryArgs().Peek("player")))
	if v == "" {
		return nil
	}
	p := match.PlayerID(v)
	return &p
}

func decodeBody(ctx *fasthttp.RequestCtx, out any) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, ledgerdto.Error{
			Code:    ledgerdto.CodeInvalidArgument,
			Message: "malformed request body",
		})
		return false
	}
	return true
}

func parseID(ctx *fasthttp.RequestCtx, raw string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, ledgerdto.Error{
			Code:    ledgerdto.CodeInvalidArgument,
			Message: "invalid id",
		})
		return 0, false
	}
	return id, true
}

func parseQueryUint(ctx *fasthttp.RequestCtx, name string) (uint64, bool) {
	raw := string(ctx.QueryArgs().Peek(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, ledgerdto.Error{
			Code:    ledgerdto.CodeInvalidArgument,
			Message: "invalid " + name + " parameter",
		})
		return 0, false
	}
	return v, true
}

func parsePlayAs(ctx *fasthttp.RequestCtx, raw string) (*match.Color, bool) {
	switch raw {
	case "":
		return nil, true
	case string(match.White):
		c := match.White
		return &c, true
	case string(match.Black):
		c := match.Black
		return &c, true
	default:
		writeError(ctx, fasthttp.StatusBadRequest, ledgerdto.Error{
			Code:    ledgerdto.CodeInvalidArgument,
			Message: "play_as must be white or black",
		})
		return nil, false
	}
}

func parseAction(ctx *fasthttp.RequestCtx, req ledgerdto.TurnRequest) (match.Action, bool) {
	bad := func(msg string) (match.Action, bool) {
		writeError(ctx, fasthttp.StatusBadRequest, ledgerdto.Error{
			Code:    ledgerdto.CodeInvalidArgument,
			Message: msg,
		})
		return match.Action{}, false
	}
	switch match.ActionKind(req.Action) {
	case match.ActionMakeMove:
		if strings.TrimSpace(req.Move) == "" {
			return bad("make_move requires a move")
		}
		return match.MakeMove(req.Move), true
	case match.ActionOfferDraw:
		if strings.TrimSpace(req.Move) == "" {
			return bad("offer_draw requires a move")
		}
		return match.OfferDraw(req.Move), true
	case match.ActionAcceptDraw:
		return match.AcceptDraw(), true
	case match.ActionDeclareDraw:
		return match.DeclareDraw(), true
	case match.ActionResign:
		return match.Resign(), true
	default:
		return bad("unknown action")
	}
}

func writeLedgerError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, ledger.ErrChallengeNotFound), errors.Is(err, ledger.ErrGameNotFound):
		writeError(ctx, fasthttp.StatusNotFound, ledgerdto.Error{Code: ledgerdto.CodeNotFound, Message: err.Error()})
	case errors.Is(err, ledger.ErrNotYourChallenge), errors.Is(err, match.ErrNotYourTurn):
		writeError(ctx, fasthttp.StatusForbidden, ledgerdto.Error{Code: ledgerdto.CodeForbidden, Message: err.Error()})
	case errors.Is(err, match.ErrGameAlreadyOver), errors.Is(err, match.ErrGameNotTimedOut), errors.Is(err, match.ErrSelfPlay):
		writeError(ctx, fasthttp.StatusConflict, ledgerdto.Error{Code: ledgerdto.CodeConflict, Message: err.Error()})
	case errors.Is(err, match.ErrInvalidMove):
		writeError(ctx, fasthttp.StatusUnprocessableEntity, ledgerdto.Error{Code: ledgerdto.CodeInvalidMove, Message: err.Error()})
	case errors.Is(err, ledger.ErrInvalidPlayer):
		writeError(ctx, fasthttp.StatusBadRequest, ledgerdto.Error{Code: ledgerdto.CodeInvalidArgument, Message: err.Error()})
	default:
		obslog.L().Error("internal_error", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, ledgerdto.Error{Code: ledgerdto.CodeInternal, Message: "internal error"})
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, e ledgerdto.Error) {
	writeJSON(ctx, status, map[string]ledgerdto.Error{"error": e})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	body, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":{"code":"internal","message":"encode response"}}`)
		return
	}
	ctx.SetBody(body)
}
