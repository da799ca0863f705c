package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"earnquest-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:      srv.URL + "/api/",
		BotKey:       "bot-secret",
		Timeout:      2 * time.Second,
		RetryMax:     2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
		Logger:       zaptest.NewLogger(t),
	})
}

func TestHeaders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/profile/", r.URL.Path)
		assert.Equal(t, "bot-secret", r.Header.Get("X-Bot-Key"))
		assert.Equal(t, "Token abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"current_balance": "1.50", "total_earned": 3, "level": "Gold",
			"withdrawal_info": {"can_withdraw": false, "remaining_to_unlock": "0.25"}}`)
	}))

	p, err := c.Profile(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, models.Amount(1.5), p.CurrentBalance)
	assert.Equal(t, models.Amount(3), p.TotalEarned)
	assert.Equal(t, "Gold", p.Level)
	assert.Equal(t, models.Amount(0.25), p.WithdrawalInfo.RemainingToUnlock)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"allow_links": true}`)
	}))

	raw, err := c.FetchSettings(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"allow_links": true}`, string(raw))
	assert.Equal(t, int32(3), hits.Load())
}

func TestGetGivesUpWithStatusError(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.FetchScheduledPosts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, int32(3), hits.Load())
}

func TestPostNeverRetries(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/bot/scheduled-posts/17/mark-executed/", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.MarkExecuted(context.Background(), 17)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Equal(t, int32(1), hits.Load())
}

func TestScheduledPostsMixedTargets(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id": 3, "post_type": "announcement", "content": "Hi {website}",
			"image_url": null, "target_groups": [-1001, "-1002", "oops"]}]`)
	}))

	posts, err := c.FetchScheduledPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.False(t, posts[0].HasImage())
	assert.Equal(t, []models.ChatRef{"-1001", "-1002", "oops"}, posts[0].TargetGroups)
}

func TestScheduledPostsSkipsMalformedEntries(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id": "seven", "content": "bad id"},
			{"id": 4, "content": "ok", "target_groups": [-1001]},
			{"id": 5, "content": "bad targets", "target_groups": [{"chat": 1}]},
			{"content": "no id", "target_groups": [-1001]},
			{"id": 6, "content": "also ok", "target_groups": ["-1002"]}
		]`)
	}))

	posts, err := c.FetchScheduledPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, int64(4), posts[0].ID)
	assert.Equal(t, int64(6), posts[1].ID)
}

func TestPostEventBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "post_sent", body["event_type"])
		assert.NotContains(t, body, "telegram_user_id")
		assert.NotContains(t, body, "telegram_username")
		assert.Equal(t, float64(-1001), body["chat_id"])
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.PostEvent(context.Background(), models.Event{
		Type:   models.EventPostSent,
		Data:   map[string]any{"post_id": 1},
		ChatID: -1001,
	})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error": "Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token": "t0k", "username": "alice", "user_id": 42}`)
	}))

	res, err := c.Login(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.LoginResult{Token: "t0k", Username: "alice", UserID: "42"}, res)

	_, err = c.Login(context.Background(), "a@b.co", "wrong")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Invalid credentials", se.Message)
}

func TestRegisterErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, true, body["agree_to_terms"])
		assert.Equal(t, body["password"], body["confirm_password"])
		if body["username"] == "taken" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"username": ["A user with that username already exists."], "email": "bad"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"user_id": "u-1", "username": "bob"}`)
	}))

	reg, err := c.Register(context.Background(), "bob", "b@c.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "bob", reg.Username)

	_, err = c.Register(context.Background(), "taken", "b@c.io", "secret1")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "email: bad; username: A user with that username already exists.", se.Message)
}

func TestListShapes(t *testing.T) {
	bodies := map[string]string{
		"/api/offerwalls/": `{"results": [{"id": 1, "name": "Bitlabs"}, {"id": 2, "title": "CPX", "is_active": false}]}`,
		"/api/tasks/":      `[{"title": "Follow", "reward": "0.50", "category": {"name": "Social"}}, {"name": "Watch", "amount": 1, "category": "Video"}]`,
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, bodies[r.URL.Path])
	}))
	ctx := context.Background()

	walls, err := c.Offerwalls(ctx, "t")
	require.NoError(t, err)
	require.Len(t, walls, 2)
	assert.Equal(t, "Bitlabs", walls[0].DisplayName())
	assert.True(t, walls[0].Active())
	assert.Equal(t, "CPX", walls[1].DisplayName())
	assert.False(t, walls[1].Active())

	tasks, err := c.Tasks(ctx, "t")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, 0.5, tasks[0].Payout())
	assert.Equal(t, "Social", tasks[0].CategoryName())
	assert.Equal(t, "Watch", tasks[1].DisplayTitle())
	assert.Equal(t, 1.0, tasks[1].Payout())
	assert.Equal(t, "Video", tasks[1].CategoryName())
}

func TestWrappedUnderKey(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"tasks": [{"title": "A"}]}`)
	}))
	tasks, err := c.Tasks(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "A", tasks[0].DisplayTitle())
}

func TestTopEarnersCapped(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := make([]map[string]any, 12)
		for i := range rows {
			rows[i] = map[string]any{"username": "u", "earnings": i}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"top_earners": rows})
	}))
	top, err := c.TopEarners(context.Background(), "t")
	require.NoError(t, err)
	assert.Len(t, top, 10)
}

func TestCreateTicket(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "[Telegram] Withdrawal Issue", body["subject"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 77}`)
	}))
	ticket, err := c.CreateTicket(context.Background(), "t", "[Telegram] Withdrawal Issue", "help", "withdrawal")
	require.NoError(t, err)
	assert.Equal(t, models.FlexString("77"), ticket.ID)
}

func TestTransportError(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	_, err := c.Login(context.Background(), "a@b.co", "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnexpectedStatus))
}
