package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"earnquest-bot/models"
)

// Login exchanges credentials for an API token.
func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	var out models.LoginResult
	resp, err := c.post(ctx, "/auth/login/", "/auth/login/", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return out, err
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.errorMessage()
		if msg == "" {
			msg = "Login failed"
		}
		return out, &StatusError{Endpoint: "/auth/login/", StatusCode: resp.StatusCode, Message: msg}
	}
	if err := resp.decode(&out); err != nil {
		return out, fmt.Errorf("decode login: %w", err)
	}
	return out, nil
}

// Register creates a platform account.
func (c *Client) Register(ctx context.Context, username, email, password string) (models.Registration, error) {
	var out models.Registration
	resp, err := c.post(ctx, "/auth/register/", "/auth/register/", "", map[string]any{
		"username":         username,
		"email":            email,
		"password":         password,
		"confirm_password": password,
		"agree_to_terms":   true,
	})
	if err != nil {
		return out, err
	}
	if resp.StatusCode != http.StatusCreated {
		msg := resp.errorMessage()
		if msg == "" {
			msg = "Registration failed"
		}
		return out, &StatusError{Endpoint: "/auth/register/", StatusCode: resp.StatusCode, Message: msg}
	}
	if err := resp.decode(&out); err != nil {
		return out, fmt.Errorf("decode registration: %w", err)
	}
	return out, nil
}

func (c *Client) Profile(ctx context.Context, token string) (models.Profile, error) {
	var out models.Profile
	err := c.getJSON(ctx, "/profile/", token, &out)
	return out, err
}

func (c *Client) DashboardStats(ctx context.Context, token string) (models.DashboardStats, error) {
	var out models.DashboardStats
	err := c.getJSON(ctx, "/dashboard/stats/", token, &out)
	return out, err
}

func (c *Client) ReferralInfo(ctx context.Context, token string) (models.ReferralInfo, error) {
	var out models.ReferralInfo
	err := c.getJSON(ctx, "/my-referral-info/", token, &out)
	return out, err
}

// TopEarners returns at most ten leaderboard rows.
func (c *Client) TopEarners(ctx context.Context, token string) ([]models.Earner, error) {
	var out struct {
		TopEarners []models.Earner `json:"top_earners"`
	}
	if err := c.getJSON(ctx, "/leaderboard/top-earners/", token, &out); err != nil {
		return nil, err
	}
	if len(out.TopEarners) > 10 {
		out.TopEarners = out.TopEarners[:10]
	}
	return out.TopEarners, nil
}

func (c *Client) Offerwalls(ctx context.Context, token string) ([]models.Offerwall, error) {
	var out []models.Offerwall
	err := c.getList(ctx, "/offerwalls/", token, "offerwalls", &out)
	return out, err
}

func (c *Client) Tasks(ctx context.Context, token string) ([]models.Task, error) {
	var out []models.Task
	err := c.getList(ctx, "/tasks/", token, "tasks", &out)
	return out, err
}

// CreateTicket opens a support ticket for the logged-in user.
func (c *Client) CreateTicket(ctx context.Context, token, subject, message, category string) (models.Ticket, error) {
	var out models.Ticket
	resp, err := c.post(ctx, "/support/tickets/", "/support/tickets/", token, map[string]string{
		"subject":  subject,
		"message":  message,
		"category": category,
	})
	if err != nil {
		return out, err
	}
	if resp.StatusCode != http.StatusCreated {
		return out, &StatusError{Endpoint: "/support/tickets/", StatusCode: resp.StatusCode, Message: resp.errorMessage()}
	}
	if err := resp.decode(&out); err != nil {
		return out, fmt.Errorf("decode ticket: %w", err)
	}
	return out, nil
}

// getList decodes either a bare JSON array or an object wrapping the array
// under "results" or key.
func (c *Client) getList(ctx context.Context, endpoint, token, key string, v any) error {
	var raw json.RawMessage
	if err := c.getJSON(ctx, endpoint, token, &raw); err != nil {
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("decode %s: %w", endpoint, err)
		}
		return nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	for _, k := range []string{"results", key} {
		if inner, ok := wrapped[k]; ok && !strings.EqualFold(string(bytes.TrimSpace(inner)), "null") {
			if err := json.Unmarshal(inner, v); err != nil {
				return fmt.Errorf("decode %s.%s: %w", endpoint, k, err)
			}
			return nil
		}
	}
	return nil
}
