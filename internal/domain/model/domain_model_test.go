//go:build !integration

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"whitelist-vpn-miniapp/internal/domain"
)

// --- Plan Model Tests ---

func TestPlanDuration(t *testing.T) {
	t.Run("paid months are thirty days", func(t *testing.T) {
		p, err := FindPlan("3m")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if p.Duration() != 90*24*time.Hour {
			t.Errorf("expected 90 day duration, got %s", p.Duration())
		}
	})

	t.Run("trial duration is fixed at seven days", func(t *testing.T) {
		p, err := FindPlan("trial")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if p.Duration() != 7*24*time.Hour {
			t.Errorf("expected 7 day duration, got %s", p.Duration())
		}
	})
}

func TestDefaultCatalog(t *testing.T) {
	plans := DefaultCatalog()
	if len(plans) == 0 {
		t.Fatal("catalog is empty")
	}
	if !plans[0].IsTrial {
		t.Errorf("expected the trial plan first, got %s", plans[0].ID)
	}
	for i := 1; i < len(plans); i++ {
		if plans[i].PriceStars < plans[i-1].PriceStars {
			t.Errorf("catalog not sorted by price at %d", i)
		}
	}

	plans[0].Name = "mutated"
	if again := DefaultCatalog(); again[0].Name == "mutated" {
		t.Error("DefaultCatalog must return a copy")
	}

	if _, err := FindPlan("nope"); !errors.Is(err, domain.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
}

// --- Subscription Model Tests ---

func TestRenewalBasis(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	t.Run("live subscription extends from its expiry", func(t *testing.T) {
		sub := NewActiveSubscription(now.Add(5*24*time.Hour), "1 Month")
		if got := RenewalBasis(sub, now); !got.Equal(*sub.ExpiresAt) {
			t.Errorf("expected basis %v, got %v", *sub.ExpiresAt, got)
		}
	})

	t.Run("expired subscription falls back to now", func(t *testing.T) {
		sub := NewActiveSubscription(now.Add(-time.Hour), "1 Month")
		if got := RenewalBasis(sub, now); !got.Equal(now) {
			t.Errorf("expected basis now, got %v", got)
		}
	})

	t.Run("inactive subscription falls back to now", func(t *testing.T) {
		ex := now.Add(48 * time.Hour)
		sub := Subscription{Active: false, ExpiresAt: &ex}
		if got := RenewalBasis(sub, now); !got.Equal(now) {
			t.Errorf("expected basis now, got %v", got)
		}
	})
}

func TestSubscriptionStatusAt(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	t.Run("no expiry", func(t *testing.T) {
		st := Subscription{}.StatusAt(now)
		if st.Active || st.Expired || st.DaysLeft != 0 {
			t.Errorf("unexpected status %+v", st)
		}
	})

	t.Run("expiring soon rounds days up", func(t *testing.T) {
		st := NewActiveSubscription(now.Add(2*24*time.Hour+time.Minute), "Trial").StatusAt(now)
		if st.DaysLeft != 3 {
			t.Errorf("expected 3 days left, got %d", st.DaysLeft)
		}
		if !st.ExpiringSoon || !st.Active || st.Expired {
			t.Errorf("unexpected status %+v", st)
		}
	})

	t.Run("lapsed subscription is expired even though the flag is set", func(t *testing.T) {
		st := NewActiveSubscription(now.Add(-time.Minute), "Trial").StatusAt(now)
		if !st.Expired || st.Active || st.ExpiringSoon {
			t.Errorf("unexpected status %+v", st)
		}
	})
}

func TestSubscriptionJSON(t *testing.T) {
	t.Run("inactive subscription persists a null expiry", func(t *testing.T) {
		b, err := json.Marshal(Subscription{})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(b) != `{"active":false,"expiryDate":null}` {
			t.Errorf("unexpected wire form %s", b)
		}
	})

	t.Run("expiry is stored in epoch milliseconds", func(t *testing.T) {
		var s Subscription
		if err := json.Unmarshal([]byte(`{"active":true,"expiryDate":1700000000123,"planName":"1 Year"}`), &s); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if s.ExpiresAt == nil || s.ExpiresAt.UnixMilli() != 1700000000123 {
			t.Errorf("unexpected expiry %v", s.ExpiresAt)
		}
		if !s.Active || s.PlanName != "1 Year" {
			t.Errorf("unexpected subscription %+v", s)
		}
	})
}

// --- User Model Tests ---

func TestUserProfile(t *testing.T) {
	u := NewUserProfile(HostIdentity{ID: 42, FirstName: "Ann", Username: "ann"})
	if u.ReferralCode != "ref_42" {
		t.Errorf("expected ref_42, got %s", u.ReferralCode)
	}
	if id, ok := ParseReferralCode(u.ReferralCode); !ok || id != 42 {
		t.Errorf("expected to parse 42, got %d %v", id, ok)
	}
	if _, ok := ParseReferralCode("ref_dev"); ok {
		t.Error("ref_dev must not parse as a user id")
	}
	if got := ReferralLink("https://t.me/bot?start=%s", u.ReferralCode); got != "https://t.me/bot?start=ref_42" {
		t.Errorf("unexpected link %s", got)
	}
}

func TestParseLanguage(t *testing.T) {
	cases := map[string]Language{"ru": LanguageRU, "zh": LanguageZH, "en": LanguageEN, "de": LanguageEN, "": LanguageEN, "RU": LanguageRU}
	for in, want := range cases {
		if got := ParseLanguage(in); got != want {
			t.Errorf("ParseLanguage(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestAppStateClone(t *testing.T) {
	s := InitialAppState()
	s.User = &UserProfile{ID: 1}
	s.Subscription = NewActiveSubscription(time.Now(), "x")

	c := s.Clone()
	c.User.HasUsedTrial = true
	*c.Subscription.ExpiresAt = c.Subscription.ExpiresAt.Add(time.Hour)

	if s.User.HasUsedTrial {
		t.Error("clone shares the user pointer")
	}
	if s.Subscription.Equal(c.Subscription) {
		t.Error("clone shares the expiry pointer")
	}
}
