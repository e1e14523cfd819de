package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"whitelist-vpn-miniapp/internal/application"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/infra/api"
	"whitelist-vpn-miniapp/internal/infra/clock"
	"whitelist-vpn-miniapp/internal/infra/metrics"
	"whitelist-vpn-miniapp/internal/usecase"
)

// MiniApp is the facade the view API drives.
type MiniApp interface {
	Bootstrap(ctx context.Context) (model.AppState, error)
	Snapshot() model.AppState
	Plans() []application.PlanView
	BuyPlan(ctx context.Context, planID string) (*model.PurchaseOutcome, error)
	Busy() bool
	Profile(ctx context.Context) (*usecase.ProfileView, error)
	ShareReferral(ctx context.Context) (string, error)
	SetLanguage(ctx context.Context, code string) (model.AppState, error)
	Translations() (model.Language, map[string]string)
}

var _ MiniApp = (*application.MiniApp)(nil)

// Server serves the local view API and the bridge socket.
type Server struct {
	app     MiniApp
	bridge  http.Handler
	clock   clock.Clock
	timeout time.Duration
	log     *zerolog.Logger
}

func NewServer(app MiniApp, bridge http.Handler, clk clock.Clock, timeout time.Duration, logger *zerolog.Logger) *Server {
	if clk == nil {
		clk = clock.System{}
	}
	return &Server{app: app, bridge: bridge, clock: clk, timeout: timeout, log: logger}
}

// Routes builds the router. Purchases run without the request timeout since
// they wait for the user to close the invoice.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, api.TraceID(), api.RequestLog(s.log), api.Recover(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())
	if s.bridge != nil {
		r.Handle("/ws", s.bridge)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/purchases", s.handlePurchase)

		r.Group(func(r chi.Router) {
			r.Use(api.Timeout(s.timeout))
			r.Get("/state", s.handleState)
			r.Post("/session/reload", s.handleReload)
			r.Get("/plans", s.handlePlans)
			r.Get("/profile", s.handleProfile)
			r.Post("/referral/share", s.handleShareReferral)
			r.Put("/language", s.handleLanguage)
			r.Get("/i18n", s.handleTranslations)
		})
	})
	return r
}
