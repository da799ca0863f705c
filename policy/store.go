// Package policy holds the moderation settings and knowledge base that every
// other component reads. The active snapshot is swapped atomically on refresh;
// readers keep whichever snapshot they loaded.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"

	"earnquest-bot/models"

	"go.uber.org/zap"
)

// SettingsFetcher returns the raw JSON settings object from the backend.
type SettingsFetcher interface {
	FetchSettings(ctx context.Context) ([]byte, error)
}

// Store publishes immutable policy snapshots.
type Store struct {
	current atomic.Pointer[models.PolicySnapshot]
	fetcher SettingsFetcher
	logger  *zap.Logger
}

// NewStore creates a store seeded with initial.
func NewStore(initial models.PolicySnapshot, fetcher SettingsFetcher, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{fetcher: fetcher, logger: logger}
	snap := initial
	snap.KnowledgeBase = initial.KnowledgeBase.Clone()
	s.current.Store(&snap)
	return s
}

// Current returns the active snapshot. Callers must not modify it.
func (s *Store) Current() *models.PolicySnapshot {
	return s.current.Load()
}

// Refresh fetches settings and publishes a merged snapshot. On any error the
// active snapshot stays in place.
func (s *Store) Refresh(ctx context.Context) error {
	if s.fetcher == nil {
		return nil
	}
	raw, err := s.fetcher.FetchSettings(ctx)
	if err != nil {
		refreshTotal.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("fetch settings: %w", err)
	}
	if err := s.Apply(raw); err != nil {
		refreshTotal.WithLabelValues("decode_error").Inc()
		return err
	}
	refreshTotal.WithLabelValues("ok").Inc()
	s.logger.Info("moderation settings synced")
	return nil
}

// Apply merges a raw settings object over the active snapshot and publishes the result.
func (s *Store) Apply(raw []byte) error {
	for {
		cur := s.current.Load()
		next, err := Merge(*cur, raw)
		if err != nil {
			return err
		}
		if s.current.CompareAndSwap(cur, &next) {
			return nil
		}
	}
}

// Merge decodes raw over a copy of base. Keys missing from raw keep the base
// values. A `knowledge_base` object updates topics in place and appends new
// topics in sorted order.
func Merge(base models.PolicySnapshot, raw []byte) (models.PolicySnapshot, error) {
	next := base
	if err := json.Unmarshal(raw, &next); err != nil {
		return base, fmt.Errorf("decode settings: %w", err)
	}
	if next.MaxMessagesPerMinute <= 0 {
		next.MaxMessagesPerMinute = base.MaxMessagesPerMinute
	}

	var extra struct {
		KnowledgeBase map[string]string `json:"knowledge_base"`
	}
	if err := json.Unmarshal(raw, &extra); err != nil {
		return base, fmt.Errorf("decode knowledge base: %w", err)
	}
	next.KnowledgeBase = MergeKnowledge(base.KnowledgeBase, extra.KnowledgeBase)
	return next, nil
}

// MergeKnowledge returns kb with updates applied. The input is not modified.
func MergeKnowledge(kb models.KnowledgeBase, updates map[string]string) models.KnowledgeBase {
	out := kb.Clone()
	if len(updates) == 0 {
		return out
	}
	seen := make(map[string]bool, len(out))
	for i, e := range out {
		seen[e.Topic] = true
		if tpl, ok := updates[e.Topic]; ok && tpl != "" {
			out[i].Template = tpl
		}
	}

	var added []string
	for topic, tpl := range updates {
		if !seen[topic] && topic != "" && tpl != "" {
			added = append(added, topic)
		}
	}
	sort.Strings(added)
	for _, topic := range added {
		out = append(out, models.KnowledgeEntry{Topic: topic, Template: updates[topic]})
	}
	return out
}
