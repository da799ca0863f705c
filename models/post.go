package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ScheduledPost is a broadcast created by the backend admin panel.
type ScheduledPost struct {
	ID           int64     `json:"id"`
	PostType     string    `json:"post_type"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"image_url,omitempty"`
	TargetGroups []ChatRef `json:"target_groups"`
}

// HasImage reports whether the post is sent as photo + caption.
func (p ScheduledPost) HasImage() bool {
	return strings.TrimSpace(p.ImageURL) != ""
}

// ChatRef is a broadcast target as delivered by the backend. The backend
// sends either JSON numbers or strings, so the raw text is preserved.
type ChatRef string

// UnmarshalJSON accepts both `-100123` and `"-100123"`.
func (c *ChatRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChatRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chat ref %s: %w", data, err)
	}
	*c = ChatRef(n.String())
	return nil
}

// ChatID parses the reference as a numeric chat id.
func (c ChatRef) ChatID() (int64, error) {
	id, err := strconv.ParseInt(string(c), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("target %q is not a numeric chat id", string(c))
	}
	return id, nil
}
