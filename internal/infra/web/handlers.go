package web

import (
	"context"
	"errors"
	"net/http"

	"whitelist-vpn-miniapp/internal/application"
	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/infra/api"
	"whitelist-vpn-miniapp/internal/infra/logging"
)

type stateResponse struct {
	State  model.AppState           `json:"state"`
	Status model.SubscriptionStatus `json:"status"`
	Busy   bool                     `json:"busy"`
}

type purchaseRequest struct {
	PlanID string `json:"plan_id"`
}

type purchaseResponse struct {
	Outcome model.OutcomeKind         `json:"outcome"`
	PlanID  string                    `json:"plan_id"`
	Status  *model.SubscriptionStatus `json:"status,omitempty"`
	Detail  string                    `json:"detail,omitempty"`
}

type languageRequest struct {
	Language string `json:"language"`
}

func (s *Server) stateBody(st model.AppState) stateResponse {
	return stateResponse{State: st, Status: st.Subscription.StatusAt(s.clock.Now()), Busy: s.app.Busy()}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, s.stateBody(s.app.Snapshot()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Bootstrap(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("reload session")
		api.WriteError(w, http.StatusInternalServerError, "could not load session")
		return
	}
	api.WriteJSON(w, http.StatusOK, s.stateBody(st))
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, struct {
		Items []application.PlanView `json:"items"`
	}{Items: s.app.Plans()})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := api.DecodeJSON(r, &req); err != nil || req.PlanID == "" {
		api.WriteError(w, http.StatusBadRequest, "plan_id is required")
		return
	}

	// The invoice sheet can outlive the request; only payment.confirm_timeout bounds the wait.
	ctx := logging.WithPlanID(context.WithoutCancel(r.Context()), req.PlanID)
	out, err := s.app.BuyPlan(ctx, req.PlanID)
	if out == nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			api.WriteError(w, http.StatusNotFound, "unknown plan")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "purchase failed")
		return
	}

	resp := purchaseResponse{Outcome: out.Kind, PlanID: out.Plan.ID}
	if out.Subscription != nil {
		st := out.Subscription.StatusAt(s.clock.Now())
		resp.Status = &st
	}
	if out.Err != nil {
		resp.Detail = out.Err.Error()
	}

	code := http.StatusOK
	if errors.Is(out.Err, domain.ErrPurchaseInProgress) {
		code = http.StatusConflict
	}
	api.WriteJSON(w, code, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.app.Profile(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrMissingIdentity) {
			api.WriteError(w, http.StatusNotFound, "no user in session")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "could not load profile")
		return
	}
	api.WriteJSON(w, http.StatusOK, view)
}

func (s *Server) handleShareReferral(w http.ResponseWriter, r *http.Request) {
	link, err := s.app.ShareReferral(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrMissingIdentity) {
			api.WriteError(w, http.StatusNotFound, "no user in session")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "could not share link")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"referral_link": link})
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	st, err := s.app.SetLanguage(r.Context(), req.Language)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			api.WriteError(w, http.StatusBadRequest, "unsupported language")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "could not change language")
		return
	}
	api.WriteJSON(w, http.StatusOK, s.stateBody(st))
}

func (s *Server) handleTranslations(w http.ResponseWriter, r *http.Request) {
	lang, table := s.app.Translations()
	api.WriteJSON(w, http.StatusOK, struct {
		Language model.Language    `json:"language"`
		Strings  map[string]string `json:"strings"`
	}{Language: lang, Strings: table})
}
