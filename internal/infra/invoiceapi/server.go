// Package invoiceapi is the HTTP endpoint the mini-app calls to get Telegram
// Stars invoice links and audience counters.
package invoiceapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
	"whitelist-vpn-miniapp/internal/infra/api"
	"whitelist-vpn-miniapp/internal/infra/clock"
	"whitelist-vpn-miniapp/internal/infra/metrics"
)

type InvoiceCreator interface {
	CreateLink(ctx context.Context, plan model.Plan, userID int64) (string, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Audience interface {
	adapter.StatsClient
	Register(ctx context.Context, userID int64) (bool, error)
}

type Config struct {
	BotToken       string
	InitDataMaxAge time.Duration
	RateLimit      int
	RateWindow     time.Duration
	AllowAnonymous bool
	RequestTimeout time.Duration
}

type Server struct {
	cfg      Config
	auth     *AuthManager
	invoices InvoiceCreator
	limiter  RateLimiter
	audience Audience
	clock    clock.Clock
	log      *zerolog.Logger
}

func NewServer(cfg Config, auth *AuthManager, invoices InvoiceCreator, limiter RateLimiter, audience Audience, clk clock.Clock, logger *zerolog.Logger) *Server {
	if clk == nil {
		clk = clock.System{}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Server{
		cfg:      cfg,
		auth:     auth,
		invoices: invoices,
		limiter:  limiter,
		audience: audience,
		clock:    clk,
		log:      logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		api.TraceID(),
		api.RequestLog(s.log),
		api.Recover(s.log),
		api.Timeout(s.cfg.RequestTimeout),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", s.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/invoices", s.handleCreateInvoice)
			r.Get("/stats/me", s.handleStats)
		})
	})
	return r
}

// requireSession puts the token subject into the context. With AllowAnonymous a
// missing token passes through unauthenticated; a bad one never does.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		switch {
		case err == nil:
			id, _ := claims.UserID()
			next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), id)))
		case err == ErrMissingToken && s.cfg.AllowAnonymous:
			next.ServeHTTP(w, r)
		default:
			api.WriteError(w, http.StatusUnauthorized, "unauthorized")
		}
	})
}
