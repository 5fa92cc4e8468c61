package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/blockchess/internal/blockclock"
	"github.com/park285/blockchess/internal/ledger"
	"github.com/park285/blockchess/internal/msgcat"
	"github.com/park285/blockchess/internal/obslog"
)

// Server exposes the ledger over HTTP. The caller's identity travels in the
// X-Player-Id header; all authorization happens in the ledger itself.
type Server struct {
	mgr   *ledger.Manager
	clock *blockclock.Clock
	cat   *msgcat.Catalog
	srv   *fasthttp.Server
}

func NewServer(mgr *ledger.Manager, clock *blockclock.Clock, cat *msgcat.Catalog) *Server {
	s := &Server{mgr: mgr, clock: clock, cat: cat}
	s.srv = &fasthttp.Server{
		Handler:      s.route,
		Name:         "blockchessd",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error { return s.srv.ListenAndServe(addr) }

func (s *Server) Shutdown() error { return s.srv.Shutdown() }

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	reqID := uuid.NewString()
	ctx.Response.Header.Set("X-Request-Id", reqID)
	ctx.SetContentType("application/json; charset=utf-8")

	s.dispatch(ctx)

	obslog.L().Info("http_request",
		zap.String("request_id", reqID),
		zap.String("method", string(ctx.Method())),
		zap.String("path", string(ctx.Path())),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) dispatch(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	path := strings.Trim(string(ctx.Path()), "/")
	seg := strings.Split(path, "/")

	if path == "healthz" && method == fasthttp.MethodGet {
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if len(seg) < 2 || seg[0] != "v1" {
		writeError(ctx, fasthttp.StatusNotFound, errNoRoute)
		return
	}

	switch seg[1] {
	case "challenges":
		switch {
		case len(seg) == 2 && method == fasthttp.MethodPost:
			s.handleCreateChallenge(ctx)
		case len(seg) == 2 && method == fasthttp.MethodGet:
			s.handleListChallenges(ctx)
		case len(seg) == 3 && method == fasthttp.MethodGet:
			s.handleGetChallenge(ctx, seg[2])
		case len(seg) == 4 && seg[3] == "accept" && method == fasthttp.MethodPost:
			s.handleAcceptChallenge(ctx, seg[2])
		case len(seg) == 4 && seg[3] == "cancel" && method == fasthttp.MethodPost:
			s.handleCancelChallenge(ctx, seg[2])
		default:
			writeError(ctx, fasthttp.StatusNotFound, errNoRoute)
		}
	case "games":
		switch {
		case len(seg) == 2 && method == fasthttp.MethodGet:
			s.handleListGames(ctx)
		case len(seg) == 3 && method == fasthttp.MethodGet:
			s.handleGetGame(ctx, seg[2])
		case len(seg) == 4 && seg[3] == "turn" && method == fasthttp.MethodPost:
			s.handleTurn(ctx, seg[2])
		case len(seg) == 4 && seg[3] == "timeout" && method == fasthttp.MethodPost:
			s.handleTimeout(ctx, seg[2])
		default:
			writeError(ctx, fasthttp.StatusNotFound, errNoRoute)
		}
	default:
		writeError(ctx, fasthttp.StatusNotFound, errNoRoute)
	}
}

// height resolves the effective block height for a request: an explicit
// value wins, otherwise the wall-clock schedule supplies one.
func (s *Server) height(explicit uint64) uint64 {
	if explicit > 0 || s.clock == nil {
		return explicit
	}
	return s.clock.Height()
}
