//go:build !integration

package application_test

import (
	"testing"
	"time"

	"whitelist-vpn-miniapp/internal/application"
	"whitelist-vpn-miniapp/internal/domain/model"
)

func TestStateContainer(t *testing.T) {
	t.Run("initial state is english with no user", func(t *testing.T) {
		c := application.NewStateContainer(model.InitialAppState())
		s := c.Snapshot()
		if s.Language != model.LanguageEN || s.User != nil || s.TotalUsers != 0 || s.Subscription.Active {
			t.Fatalf("unexpected initial state %+v", s)
		}
	})

	t.Run("snapshot does not alias the cell", func(t *testing.T) {
		// --- Arrange ---
		c := application.NewStateContainer(model.InitialAppState())
		exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		c.Replace(model.AppState{
			User:         &model.UserProfile{ID: 1, FirstName: "A"},
			Subscription: model.NewActiveSubscription(exp, "1 Month"),
			Language:     model.LanguageRU,
		})

		// --- Act ---
		s := c.Snapshot()
		s.User.FirstName = "mutated"
		*s.Subscription.ExpiresAt = exp.Add(time.Hour)

		// --- Assert ---
		again := c.Snapshot()
		if again.User.FirstName != "A" {
			t.Errorf("user was mutated through a snapshot: %s", again.User.FirstName)
		}
		if !again.Subscription.ExpiresAt.Equal(exp) {
			t.Errorf("expiry was mutated through a snapshot: %s", again.Subscription.ExpiresAt)
		}
	})

	t.Run("update merges into current state and notifies", func(t *testing.T) {
		// --- Arrange ---
		c := application.NewStateContainer(model.InitialAppState())
		var got []model.AppState
		cancel := c.Subscribe(func(s model.AppState) { got = append(got, s) })

		// --- Act ---
		next := c.Update(func(s model.AppState) model.AppState {
			s.TotalUsers = 42
			return s
		})
		cancel()
		c.Update(func(s model.AppState) model.AppState {
			s.Language = model.LanguageZH
			return s
		})

		// --- Assert ---
		if next.TotalUsers != 42 || next.Language != model.LanguageEN {
			t.Errorf("unexpected state after update: %+v", next)
		}
		if len(got) != 1 {
			t.Fatalf("expected exactly one notification before cancel, got %d", len(got))
		}
		if got[0].TotalUsers != 42 {
			t.Errorf("listener saw %+v", got[0])
		}
		if c.Snapshot().Language != model.LanguageZH {
			t.Error("second update was not applied")
		}
	})
}
