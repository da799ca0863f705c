package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"earnquest-bot/models"

	"go.uber.org/zap"
)

// FetchSettings returns the raw moderation settings object.
func (c *Client) FetchSettings(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, "/bot/settings/", "/bot/settings/", "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: "/bot/settings/", StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// FetchScheduledPosts returns the posts that are due. Entries that do not
// decode, or carry no id, are logged and skipped so one bad post does not
// hold back the others.
func (c *Client) FetchScheduledPosts(ctx context.Context) ([]models.ScheduledPost, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, "/bot/scheduled-posts/", "", &raw); err != nil {
		return nil, err
	}

	posts := make([]models.ScheduledPost, 0, len(raw))
	for i, item := range raw {
		var p models.ScheduledPost
		if err := json.Unmarshal(item, &p); err != nil {
			skippedPosts.Inc()
			c.logger.Warn("skipping malformed scheduled post",
				zap.Int("index", i), zap.ByteString("body", item), zap.Error(err))
			continue
		}
		if p.ID == 0 {
			skippedPosts.Inc()
			c.logger.Warn("skipping scheduled post without id", zap.Int("index", i))
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// MarkExecuted tells the backend a post has been processed. It is called
// once per post per cycle and never retried.
func (c *Client) MarkExecuted(ctx context.Context, postID int64) error {
	path := fmt.Sprintf("/bot/scheduled-posts/%d/mark-executed/", postID)
	resp, err := c.post(ctx, "/bot/scheduled-posts/{id}/mark-executed/", path, "", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode}
	}
	return nil
}

// PostEvent delivers one audit event.
func (c *Client) PostEvent(ctx context.Context, ev models.Event) error {
	resp, err := c.do(ctx, http.MethodPost, "/bot/events/", "/bot/events/", "", ev, c.eventTimeout)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: "/bot/events/", StatusCode: resp.StatusCode}
	}
	return nil
}

// flattenErrors renders a field → messages error object, such as a failed
// registration, as "field: message; field: message".
func flattenErrors(obj map[string]any) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			parts = append(parts, k+": "+v)
		case []any:
			var msgs []string
			for _, m := range v {
				msgs = append(msgs, fmt.Sprint(m))
			}
			parts = append(parts, k+": "+strings.Join(msgs, " "))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}
	return strings.Join(parts, "; ")
}
