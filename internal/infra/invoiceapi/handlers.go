package invoiceapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
	"whitelist-vpn-miniapp/internal/infra/api"
	"whitelist-vpn-miniapp/internal/infra/logging"
	"whitelist-vpn-miniapp/internal/infra/metrics"
	"whitelist-vpn-miniapp/internal/infra/redis"
	"whitelist-vpn-miniapp/internal/infra/telegram"
)

type sessionRequest struct {
	InitData string `json:"init_data"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type invoiceResponse struct {
	InvoiceLink string `json:"invoice_link"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := api.DecodeJSON(r, &req); err != nil || req.InitData == "" {
		api.WriteError(w, http.StatusBadRequest, "init_data is required")
		return
	}

	data, err := telegram.ParseInitData(req.InitData, s.cfg.BotToken, s.cfg.InitDataMaxAge, s.clock.Now())
	if err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("session rejected")
		if telegram.IsUnauthorized(err) {
			api.WriteError(w, http.StatusUnauthorized, "invalid init data")
			return
		}
		api.WriteError(w, http.StatusBadRequest, "malformed init data")
		return
	}

	userID := data.User.ID
	if isNew, err := s.audience.Register(r.Context(), userID); err != nil {
		logging.With(logging.WithTgID(r.Context(), userID), s.log).Error().Err(err).Msg("register audience")
	} else if isNew {
		metrics.IncUsersRegistered()
	}

	token, exp, err := s.auth.Mint(userID)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("mint session")
		api.WriteError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	api.WriteJSON(w, http.StatusOK, sessionResponse{Token: token, ExpiresAt: exp})
}

// checkSubject rejects requests acting for a user other than the token's.
func (s *Server) checkSubject(w http.ResponseWriter, r *http.Request, userID int64) bool {
	sub, ok := subjectFrom(r.Context())
	if !ok {
		return true
	}
	if sub != userID {
		api.WriteError(w, http.StatusForbidden, "user mismatch")
		return false
	}
	return true
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req adapter.InvoiceRequest
	if err := api.DecodeJSON(r, &req); err != nil || req.UserID <= 0 || req.PlanID == "" {
		api.WriteError(w, http.StatusBadRequest, "user_id and plan_id are required")
		return
	}
	if !s.checkSubject(w, r, req.UserID) {
		return
	}
	ctx := logging.WithPlanID(logging.WithTgID(r.Context(), req.UserID), req.PlanID)
	log := logging.With(ctx, s.log)

	plan, err := model.FindPlan(req.PlanID)
	if err != nil || plan.IsTrial {
		metrics.IncInvoice(req.PlanID, "rejected")
		api.WriteError(w, http.StatusBadRequest, "unknown plan")
		return
	}
	if req.PriceStars != plan.PriceStars {
		metrics.IncInvoice(plan.ID, "rejected")
		api.WriteError(w, http.StatusBadRequest, "price mismatch")
		return
	}

	allowed, err := s.limiter.Allow(ctx, redis.UserActionKey(req.UserID, "invoice"), s.cfg.RateLimit, s.cfg.RateWindow)
	if err != nil {
		log.Error().Err(err).Msg("rate limiter unavailable")
	} else if !allowed {
		metrics.IncInvoiceRateLimited()
		log.Warn().Msg("invoice rate limited")
		api.WriteError(w, http.StatusTooManyRequests, "rate limited")
		return
	}

	link, err := s.invoices.CreateLink(ctx, plan, req.UserID)
	if err != nil {
		log.Error().Err(err).Msg("create invoice link")
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		api.WriteError(w, status, domain.DefaultInvoiceDetail)
		return
	}
	api.WriteJSON(w, http.StatusOK, invoiceResponse{InvoiceLink: link})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		api.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if !s.checkSubject(w, r, userID) {
		return
	}
	st, err := s.audience.Stats(r.Context(), userID)
	if err != nil {
		logging.With(logging.WithTgID(r.Context(), userID), s.log).Error().Err(err).Msg("read stats")
		api.WriteError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	api.WriteJSON(w, http.StatusOK, st)
}
