// Package intent picks a knowledge-base answer for free text posted in a group.
package intent

import (
	"strings"

	"earnquest-bot/models"
	"earnquest-bot/templates"

	"github.com/cloudflare/ahocorasick"
)

// Topic lists the phrases that vote for one knowledge-base entry.
type Topic struct {
	Name    string
	Phrases []string
}

// DefaultTopics is the keyword table used when the bot is addressed. Order
// decides ties.
var DefaultTopics = []Topic{
	{"withdraw", []string{"withdraw", "payout", "cash out", "payment", "get money", "get paid"}},
	{"faucet", []string{"faucet", "free", "claim"}},
	{"referral", []string{"referral", "refer", "invite", "friend", "commission"}},
	{"task", []string{"task", "job", "work", "complete"}},
	{"survey", []string{"survey", "offerwall", "offer"}},
	{"payment", []string{"paypal", "usdt", "crypto", "litecoin", "skrill"}},
	{"help", []string{"help", "support", "problem", "issue", "contact"}},
	{"earn", []string{"earn", "money", "make money", "how to", "start"}},
	{"minimum", []string{"minimum", "min", "requirement", "need", "qualifying"}},
	{"balance", []string{"balance", "check", "how much"}},
	{"login", []string{"login", "sign in", "log in", "access"}},
	{"register", []string{"register", "sign up", "create account", "join"}},
}

// Fallback answers an addressed message that matched no topic.
const Fallback = "🤖 Hi! I can help with:\n\n" +
	"• /balance - Check your balance\n" +
	"• /referral - Get referral link\n" +
	"• /support - Get help\n\n" +
	"Or ask me about: withdrawals, tasks, surveys, referrals, faucet\n\n" +
	"🌐 Full features at: {website}"

var questionMarkers = []string{"?", "how", "what", "where"}

// KnowledgeSource returns the knowledge base in force.
type KnowledgeSource interface {
	Current() *models.PolicySnapshot
}

// Responder is safe for concurrent use.
type Responder struct {
	topics   []Topic
	matcher  *ahocorasick.Matcher
	phrases  []string
	owners   [][]int // phrase index -> topic indexes listing it
	kb       KnowledgeSource
	renderer *templates.Renderer
}

// NewResponder builds the phrase automaton once for topics.
func NewResponder(topics []Topic, kb KnowledgeSource, renderer *templates.Renderer) *Responder {
	r := &Responder{topics: topics, kb: kb, renderer: renderer}

	index := make(map[string]int)
	for ti, t := range topics {
		for _, p := range t.Phrases {
			p = strings.ToLower(p)
			pi, ok := index[p]
			if !ok {
				pi = len(r.phrases)
				index[p] = pi
				r.phrases = append(r.phrases, p)
				r.owners = append(r.owners, nil)
			}
			// a phrase listed twice under one topic still counts once
			if n := len(r.owners[pi]); n == 0 || r.owners[pi][n-1] != ti {
				r.owners[pi] = append(r.owners[pi], ti)
			}
		}
	}
	r.matcher = ahocorasick.NewStringMatcher(r.phrases)
	return r
}

// Respond returns the rendered answer for text, or false when the bot
// should stay quiet.
func (r *Responder) Respond(text string, addressed bool) (string, bool) {
	lower := strings.ToLower(text)
	kb := r.kb.Current().KnowledgeBase

	if !addressed {
		if !hasQuestionMarker(lower) {
			return "", false
		}
		for _, e := range kb {
			if e.Topic != "" && strings.Contains(lower, strings.ToLower(e.Topic)) {
				return r.renderer.Render(e.Template, nil), true
			}
		}
		return "", false
	}

	best := r.BestTopic(lower)
	if best != "" {
		if tpl, ok := kb.Lookup(best); ok {
			return r.renderer.Render(tpl, nil), true
		}
	}
	return r.renderer.Render(Fallback, nil), true
}

// BestTopic scores every topic by the number of its phrases found in text
// and returns the highest-scoring one. The first topic wins a tie. It
// returns "" when nothing matched.
func (r *Responder) BestTopic(text string) string {
	hits := r.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	if len(hits) == 0 {
		return ""
	}

	scores := make([]int, len(r.topics))
	seen := make(map[int]bool, len(hits))
	for _, pi := range hits {
		if seen[pi] {
			continue
		}
		seen[pi] = true
		for _, ti := range r.owners[pi] {
			scores[ti]++
		}
	}

	best, bestScore := "", 0
	for ti, score := range scores {
		if score > bestScore {
			best, bestScore = r.topics[ti].Name, score
		}
	}
	return best
}

func hasQuestionMarker(lower string) bool {
	for _, m := range questionMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
