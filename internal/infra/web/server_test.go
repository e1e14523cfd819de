//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"whitelist-vpn-miniapp/internal/application"
	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/infra/clock"
	"whitelist-vpn-miniapp/internal/usecase"
)

// --- mock facade ---

type mockApp struct {
	state      model.AppState
	plans      []application.PlanView
	outcome    *model.PurchaseOutcome
	buyErr     error
	boughtPlan string
	duringBuy  func()
	buyCtxErr  error
	busy       bool
	profile    *usecase.ProfileView
	profileErr error
	link       string
	langErr    error
	bootErr    error
	booted     int
}

func (m *mockApp) Bootstrap(context.Context) (model.AppState, error) {
	m.booted++
	return m.state, m.bootErr
}
func (m *mockApp) Snapshot() model.AppState       { return m.state }
func (m *mockApp) Plans() []application.PlanView { return m.plans }
func (m *mockApp) BuyPlan(ctx context.Context, planID string) (*model.PurchaseOutcome, error) {
	m.boughtPlan = planID
	if m.duringBuy != nil {
		m.duringBuy()
	}
	m.buyCtxErr = ctx.Err()
	if m.outcome == nil {
		return nil, m.buyErr
	}
	return m.outcome, m.outcome.Err
}
func (m *mockApp) Busy() bool { return m.busy }
func (m *mockApp) Profile(context.Context) (*usecase.ProfileView, error) {
	return m.profile, m.profileErr
}
func (m *mockApp) ShareReferral(context.Context) (string, error) {
	return m.link, m.profileErr
}
func (m *mockApp) SetLanguage(_ context.Context, code string) (model.AppState, error) {
	if m.langErr != nil {
		return model.AppState{}, m.langErr
	}
	m.state.Language = model.Language(code)
	return m.state, nil
}
func (m *mockApp) Translations() (model.Language, map[string]string) {
	return m.state.Language, map[string]string{"home": "Home"}
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(app *mockApp) http.Handler {
	l := zerolog.Nop()
	return NewServer(app, nil, clock.NewManual(testNow), time.Second, &l).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Buffer
	if body != "" {
		rd = bytes.NewBufferString(body)
	} else {
		rd = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestHealthAndState(t *testing.T) {
	expiry := testNow.Add(3 * 24 * time.Hour)
	app := &mockApp{state: model.AppState{
		Language:     model.LanguageRU,
		TotalUsers:   14502,
		Subscription: model.NewActiveSubscription(expiry, "1 Month"),
	}}
	h := newTestServer(app)

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: want 200, got %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/v1/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body stateResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State.TotalUsers != 14502 || body.State.Language != model.LanguageRU {
		t.Errorf("unexpected state %+v", body.State)
	}
	if !body.Status.Active || body.Status.DaysLeft != 3 || !body.Status.ExpiringSoon {
		t.Errorf("unexpected status %+v", body.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestPurchase(t *testing.T) {
	plan, _ := model.FindPlan("1m")

	t.Run("success carries the new status", func(t *testing.T) {
		sub := model.NewActiveSubscription(testNow.Add(30*24*time.Hour), plan.Name)
		app := &mockApp{outcome: &model.PurchaseOutcome{Kind: model.OutcomeSuccess, Plan: plan, Subscription: &sub}}
		h := newTestServer(app)

		rec := do(t, h, http.MethodPost, "/api/v1/purchases", `{"plan_id":"1m"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		var body purchaseResponse
		_ = json.NewDecoder(rec.Body).Decode(&body)
		if body.Outcome != model.OutcomeSuccess || body.Status == nil || body.Status.DaysLeft != 30 {
			t.Errorf("unexpected body %+v", body)
		}
		if app.boughtPlan != "1m" {
			t.Errorf("want plan 1m, got %q", app.boughtPlan)
		}
	})

	t.Run("a dropped request does not abort the open invoice", func(t *testing.T) {
		sub := model.NewActiveSubscription(testNow.Add(30*24*time.Hour), plan.Name)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		app := &mockApp{
			outcome:   &model.PurchaseOutcome{Kind: model.OutcomeSuccess, Plan: plan, Subscription: &sub},
			duringBuy: cancel,
		}
		h := newTestServer(app)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", bytes.NewBufferString(`{"plan_id":"1m"}`)).WithContext(ctx)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if app.buyCtxErr != nil {
			t.Fatalf("purchase context was canceled with the request: %v", app.buyCtxErr)
		}
		if app.boughtPlan != "1m" {
			t.Errorf("want plan 1m, got %q", app.boughtPlan)
		}
	})

	t.Run("failure carries the detail", func(t *testing.T) {
		app := &mockApp{outcome: &model.PurchaseOutcome{Kind: model.OutcomeFailed, Plan: plan, Err: domain.NewInvoiceError(429, "rate limited")}}
		h := newTestServer(app)

		rec := do(t, h, http.MethodPost, "/api/v1/purchases", `{"plan_id":"1m"}`)

		var body purchaseResponse
		_ = json.NewDecoder(rec.Body).Decode(&body)
		if rec.Code != http.StatusOK || body.Outcome != model.OutcomeFailed || body.Detail != "rate limited" {
			t.Errorf("unexpected %d %+v", rec.Code, body)
		}
	})

	t.Run("busy is a conflict", func(t *testing.T) {
		app := &mockApp{outcome: &model.PurchaseOutcome{Kind: model.OutcomeRejected, Plan: plan, Err: domain.ErrPurchaseInProgress}}
		rec := do(t, newTestServer(app), http.MethodPost, "/api/v1/purchases", `{"plan_id":"1m"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("want 409, got %d", rec.Code)
		}
	})

	t.Run("unknown plan is 404", func(t *testing.T) {
		app := &mockApp{buyErr: domain.ErrPlanNotFound}
		rec := do(t, newTestServer(app), http.MethodPost, "/api/v1/purchases", `{"plan_id":"nope"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("want 404, got %d", rec.Code)
		}
	})

	t.Run("missing plan id is 400", func(t *testing.T) {
		rec := do(t, newTestServer(&mockApp{}), http.MethodPost, "/api/v1/purchases", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("want 400, got %d", rec.Code)
		}
	})
}

func TestProfileAndReferral(t *testing.T) {
	t.Run("profile without a user is 404", func(t *testing.T) {
		app := &mockApp{profileErr: domain.ErrMissingIdentity}
		h := newTestServer(app)

		if rec := do(t, h, http.MethodGet, "/api/v1/profile", ""); rec.Code != http.StatusNotFound {
			t.Errorf("profile: want 404, got %d", rec.Code)
		}
		if rec := do(t, h, http.MethodPost, "/api/v1/referral/share", ""); rec.Code != http.StatusNotFound {
			t.Errorf("share: want 404, got %d", rec.Code)
		}
	})

	t.Run("share returns the link", func(t *testing.T) {
		app := &mockApp{link: "https://t.me/WhiteListVPN_bot?start=ref_42"}
		rec := do(t, newTestServer(app), http.MethodPost, "/api/v1/referral/share", "")

		var body map[string]string
		_ = json.NewDecoder(rec.Body).Decode(&body)
		if rec.Code != http.StatusOK || body["referral_link"] != app.link {
			t.Errorf("unexpected %d %v", rec.Code, body)
		}
	})
}

func TestLanguageAndTranslations(t *testing.T) {
	app := &mockApp{state: model.InitialAppState()}
	h := newTestServer(app)

	rec := do(t, h, http.MethodPut, "/api/v1/language", `{"language":"zh"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/i18n", "")
	var body struct {
		Language model.Language    `json:"language"`
		Strings  map[string]string `json:"strings"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Language != model.LanguageZH || body.Strings["home"] != "Home" {
		t.Errorf("unexpected %+v", body)
	}

	app.langErr = domain.ErrInvalidArgument
	if rec := do(t, h, http.MethodPut, "/api/v1/language", `{"language":"fr"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("want 400, got %d", rec.Code)
	}
}

func TestReload(t *testing.T) {
	app := &mockApp{state: model.InitialAppState()}
	h := newTestServer(app)

	if rec := do(t, h, http.MethodPost, "/api/v1/session/reload", ""); rec.Code != http.StatusOK || app.booted != 1 {
		t.Errorf("unexpected %d booted=%d", rec.Code, app.booted)
	}

	app.bootErr = context.DeadlineExceeded
	if rec := do(t, h, http.MethodPost, "/api/v1/session/reload", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("want 500, got %d", rec.Code)
	}
}
