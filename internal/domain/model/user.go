package model

import (
	"fmt"
	"strconv"
	"strings"
)

const referralPrefix = "ref_"

// HostIdentity is the user record the enclosing container hands us.
type HostIdentity struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`

	// RawInitData is the signed init-data string the identity was parsed from.
	RawInitData string `json:"-"`
	Theme       Theme  `json:"-"`
}

// UserProfile is the session's view of the user. ReferredCount is read-only here.
type UserProfile struct {
	ID            int64  `json:"id"`
	Username      string `json:"username,omitempty"`
	FirstName     string `json:"first_name"`
	ReferralCode  string `json:"referral_code"`
	ReferredCount int    `json:"referred_count"`
	HasUsedTrial  bool   `json:"has_used_trial"`
}

func (u *UserProfile) IsZero() bool { return u == nil || u.ID == 0 }

// ReferralCodeFor derives the referral code from a user id.
func ReferralCodeFor(id int64) string {
	return referralPrefix + strconv.FormatInt(id, 10)
}

// ParseReferralCode extracts the referrer id from a ref_<id> start parameter.
func ParseReferralCode(code string) (int64, bool) {
	if !strings.HasPrefix(code, referralPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(code, referralPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ReferralLink renders the referral link template with the user's code.
func ReferralLink(template, code string) string {
	return fmt.Sprintf(template, code)
}

// NewUserProfile builds the session profile from host identity.
func NewUserProfile(id HostIdentity) *UserProfile {
	return &UserProfile{
		ID:           id.ID,
		Username:     id.Username,
		FirstName:    id.FirstName,
		ReferralCode: ReferralCodeFor(id.ID),
	}
}

// DevUserProfile is used when running outside the host container.
func DevUserProfile() *UserProfile {
	return &UserProfile{
		ID:            123456789,
		Username:      "dev_user",
		FirstName:     "Developer",
		ReferralCode:  "ref_dev",
		ReferredCount: 2,
	}
}

// Language is one of the supported UI languages.
type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"
	LanguageZH Language = "zh"

	DefaultLanguage = LanguageEN
)

// Languages lists the supported languages in display order.
func Languages() []Language { return []Language{LanguageRU, LanguageEN, LanguageZH} }

// ParseLanguage maps a host language code to a supported language, defaulting to English.
func ParseLanguage(code string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case LanguageRU:
		return LanguageRU
	case LanguageZH:
		return LanguageZH
	default:
		return LanguageEN
	}
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == LanguageRU || l == LanguageEN || l == LanguageZH
}
