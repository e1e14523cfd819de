package model

import (
	"encoding/json"
	"math"
	"time"
)

// Subscription is the locally held entitlement. Expiry is interpreted against
// the current time on every read; nothing here flips Active when it lapses.
type Subscription struct {
	Active    bool
	ExpiresAt *time.Time
	PlanName  string
}

// NewActiveSubscription keeps the invariant that an active subscription always has an expiry.
func NewActiveSubscription(expiresAt time.Time, planName string) Subscription {
	ex := expiresAt
	return Subscription{Active: true, ExpiresAt: &ex, PlanName: planName}
}

// Equal compares two subscriptions at millisecond precision, the persisted resolution.
func (s Subscription) Equal(o Subscription) bool {
	if s.Active != o.Active || s.PlanName != o.PlanName {
		return false
	}
	if s.ExpiresAt == nil || o.ExpiresAt == nil {
		return s.ExpiresAt == nil && o.ExpiresAt == nil
	}
	return s.ExpiresAt.UnixMilli() == o.ExpiresAt.UnixMilli()
}

// Live reports whether the subscription is active and unexpired at now.
func (s Subscription) Live(now time.Time) bool {
	return s.Active && s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

// RenewalBasis is the time a new purchase extends from: the current expiry while
// it is still live, otherwise now.
func RenewalBasis(current Subscription, now time.Time) time.Time {
	if current.Live(now) {
		return *current.ExpiresAt
	}
	return now
}

// SubscriptionStatus is the view of a subscription derived at a point in time.
type SubscriptionStatus struct {
	Active       bool       `json:"active"`
	Expired      bool       `json:"expired"`
	ExpiringSoon bool       `json:"expiring_soon"`
	DaysLeft     int        `json:"days_left"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	PlanName     string     `json:"plan_name,omitempty"`
}

const expiringSoonDays = 7

// StatusAt derives days left and the expiring/expired flags relative to now.
func (s Subscription) StatusAt(now time.Time) SubscriptionStatus {
	st := SubscriptionStatus{ExpiresAt: s.ExpiresAt, PlanName: s.PlanName}
	if s.ExpiresAt == nil {
		return st
	}
	left := s.ExpiresAt.Sub(now)
	st.DaysLeft = int(math.Ceil(float64(left) / float64(24*time.Hour)))
	st.Expired = st.DaysLeft <= 0
	st.Active = s.Active && !st.Expired
	st.ExpiringSoon = s.Active && st.DaysLeft > 0 && st.DaysLeft < expiringSoonDays
	return st
}

// subscriptionWire is the persisted shape: {active, expiryDate: ms|null, planName?}.
type subscriptionWire struct {
	Active     bool   `json:"active"`
	ExpiryDate *int64 `json:"expiryDate"`
	PlanName   string `json:"planName,omitempty"`
}

func (s Subscription) MarshalJSON() ([]byte, error) {
	w := subscriptionWire{Active: s.Active, PlanName: s.PlanName}
	if s.ExpiresAt != nil {
		ms := s.ExpiresAt.UnixMilli()
		w.ExpiryDate = &ms
	}
	return json.Marshal(w)
}

func (s *Subscription) UnmarshalJSON(b []byte) error {
	var w subscriptionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Subscription{Active: w.Active, PlanName: w.PlanName}
	if w.ExpiryDate != nil {
		t := time.UnixMilli(*w.ExpiryDate)
		s.ExpiresAt = &t
	}
	return nil
}
