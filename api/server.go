// Package api provides the read only HTTP view of the redao ledger.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/shared"
)

// Server serves token state, summaries, quotes and coupons.
type Server struct {
	engine   *bonding.Engine
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer creates a server over engine. /metrics is mounted when gatherer
// is not nil.
func NewServer(engine *bonding.Engine, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, gatherer: gatherer, logger: logger}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/tokens", s.handleListTokens)
		r.Route("/tokens/{tracker}/{token}", func(r chi.Router) {
			r.Get("/", s.handleToken)
			r.Get("/summary", s.handleSummary)
			r.Get("/quote", s.handleQuote)
			r.Get("/coupons/{redeemer}", s.handleCoupons)
		})
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func stateKey(r *http.Request) bonding.StateKey {
	return bonding.StateKey{TrackerID: chi.URLParam(r, "tracker"), TokenID: chi.URLParam(r, "token")}
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	states, err := s.engine.States(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]*TokenView, 0, len(states))
	for _, st := range states {
		out = append(out, NewTokenView(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.State(r.Context(), stateKey(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewTokenView(state))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	key := stateKey(r)
	state, err := s.engine.State(r.Context(), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	summary, err := bonding.Summarize(state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSummaryView(summary, state.Decimals))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseUint(q.Get("amount"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be an unsigned integer", "BadRequest", 0)
		return
	}
	period, err := strconv.ParseUint(q.Get("period"), 10, 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, "period must be an index between 0 and 255", "BadRequest", 0)
		return
	}
	res, err := s.engine.QuoteBond(r.Context(), stateKey(r), bonding.BondRequest{
		Amount:      amount,
		PeriodIndex: uint8(period),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewQuoteView(res))
}

func (s *Server) handleCoupons(w http.ResponseWriter, r *http.Request) {
	redeemer, err := solana.PublicKeyFromBase58(chi.URLParam(r, "redeemer"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "redeemer: "+err.Error(), "BadRequest", 0)
		return
	}
	coupons, err := s.engine.Coupons(r.Context(), stateKey(r), redeemer)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]*CouponView, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, NewCouponView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// fail maps ledger errors to a status: missing records are 404, rejections
// with a code are 400, anything else is 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, bonding.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error(), "NotFound", 0)
		return
	}
	if code, ok := shared.CodeOf(err); ok {
		writeError(w, http.StatusBadRequest, err.Error(), shared.NameOf(err), code)
		return
	}
	s.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error", "internal", 0)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg, name string, code uint32) {
	body := map[string]interface{}{
		"message": msg,
		"type":    name,
	}
	if code != 0 {
		body["code"] = code
	}
	writeJSON(w, status, map[string]interface{}{"error": body})
}
