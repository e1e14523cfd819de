//go:build !integration

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"whitelist-vpn-miniapp/internal/infra/logging"
)

func TestTraceID(t *testing.T) {
	var seen string
	h := TraceID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		l := zerolog.New(&buf)
		logging.With(r.Context(), &l).Info().Msg("x")
		seen = buf.String()
	}))

	t.Run("mints an id when none is sent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get(HeaderRequestID)
		if id == "" {
			t.Fatal("expected a request id header")
		}
		if !strings.Contains(seen, id) {
			t.Errorf("trace id %q not in log line %s", id, seen)
		}
	})

	t.Run("reuses the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
			t.Errorf("want abc-123, got %q", got)
		}
	})
}

func TestRecover(t *testing.T) {
	l := zerolog.Nop()
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		RequestLog(&l), Recover(&l))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Detail != "internal error" {
		t.Errorf("unexpected body %q (%v)", rec.Body.String(), err)
	}
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if deadline.IsZero() || time.Until(deadline) > time.Second {
		t.Errorf("unexpected deadline %v", deadline)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		PlanID string `json:"plan_id"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"plan_id":"1m"}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.PlanID != "1m" {
		t.Fatalf("decode: %v %+v", err, dst)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"plan":"1m"}`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Error("expected unknown field error")
	}

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	if err := DecodeJSON(req, &dst); err == nil {
		t.Error("expected empty body error")
	}
}
