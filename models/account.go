package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Session is the persisted login of one Telegram user.
type Session struct {
	TelegramUserID int64     `db:"telegram_user_id"`
	Token          string    `db:"token"`
	Username       string    `db:"username"`
	PlatformUserID string    `db:"platform_user_id"`
	Email          string    `db:"email"`
	CreatedAt      time.Time `db:"created_at"`
}

// LoginResult is the 200 body of /auth/login/.
type LoginResult struct {
	Token    string     `json:"token"`
	Username string     `json:"username"`
	UserID   FlexString `json:"user_id"`
}

// Registration is the 201 body of /auth/register/.
type Registration struct {
	UserID   FlexString `json:"user_id"`
	Username string     `json:"username"`
}

// Profile is the body of /profile/.
type Profile struct {
	CurrentBalance     Amount `json:"current_balance"`
	TotalEarned        Amount `json:"total_earned"`
	QualifyingEarnings Amount `json:"qualifying_earnings"`
	ReferralEarnings   Amount `json:"referral_earnings"`
	Level              string `json:"level"`
	WithdrawalInfo     struct {
		CanWithdraw       bool   `json:"can_withdraw"`
		RemainingToUnlock Amount `json:"remaining_to_unlock"`
	} `json:"withdrawal_info"`
}

// DashboardStats is the body of /dashboard/stats/.
type DashboardStats struct {
	Balance       Amount `json:"balance"`
	TotalEarned   Amount `json:"total_earned"`
	TodayEarnings Amount `json:"today_earnings"`
	TotalTasks    int    `json:"total_tasks"`
	StreakDays    int    `json:"streak_days"`
	ReferralStats struct {
		TotalReferrals int    `json:"total_referrals"`
		Earnings       Amount `json:"earnings"`
	} `json:"referral_stats"`
}

// ReferralInfo is the body of /my-referral-info/.
type ReferralInfo struct {
	ReferralCode     string `json:"referral_code"`
	ReferralURL      string `json:"referral_url"`
	TotalReferrals   int    `json:"total_referrals"`
	ReferralEarnings Amount `json:"referral_earnings"`
}

// Earner is one row of /leaderboard/top-earners/.
type Earner struct {
	Username string `json:"username"`
	Earnings Amount `json:"earnings"`
}

// Offerwall is one provider from /offerwalls/.
type Offerwall struct {
	ID        FlexString `json:"id"`
	Name      string     `json:"name"`
	Title     string     `json:"title"`
	Provider  string     `json:"provider"`
	IsActive  *bool      `json:"is_active"`
	IframeURL string     `json:"iframe_url"`
	URL       string     `json:"url"`
}

// DisplayName falls back from name to title.
func (o Offerwall) DisplayName() string {
	switch {
	case o.Name != "":
		return o.Name
	case o.Title != "":
		return o.Title
	default:
		return "Unknown"
	}
}

// Active defaults to true when the backend omits the flag.
func (o Offerwall) Active() bool {
	return o.IsActive == nil || *o.IsActive
}

// Task is one entry from /tasks/.
type Task struct {
	Title    string          `json:"title"`
	Name     string          `json:"name"`
	Reward   *Amount         `json:"reward"`
	Amount   *Amount         `json:"amount"`
	Category json.RawMessage `json:"category"`
}

// DisplayTitle falls back from title to name.
func (t Task) DisplayTitle() string {
	switch {
	case t.Title != "":
		return t.Title
	case t.Name != "":
		return t.Name
	default:
		return "Task"
	}
}

// Payout returns reward, falling back to amount.
func (t Task) Payout() float64 {
	if t.Reward != nil {
		return float64(*t.Reward)
	}
	if t.Amount != nil {
		return float64(*t.Amount)
	}
	return 0
}

// CategoryName accepts both {"name": "..."} and a bare string.
func (t Task) CategoryName() string {
	if len(t.Category) == 0 || bytes.Equal(t.Category, []byte("null")) {
		return ""
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(t.Category, &obj); err == nil {
		return obj.Name
	}
	var s FlexString
	if err := json.Unmarshal(t.Category, &s); err == nil {
		return string(s)
	}
	return ""
}

// Ticket is the 201 body of /support/tickets/.
type Ticket struct {
	ID FlexString `json:"id"`
}

// Amount is a money value that the backend serialises either as a number
// or as a decimal string.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// FlexString holds an identifier that may arrive as a JSON number or string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
