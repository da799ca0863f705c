package models

// PolicySnapshot is the moderation configuration in force at one point in time.
// A snapshot is never mutated after it is published; refreshes build a new one.
type PolicySnapshot struct {
	AllowLinks           bool   `json:"allow_links" mapstructure:"allow_links"`
	AllowForwards        bool   `json:"allow_forwards" mapstructure:"allow_forwards"`
	MaxMessagesPerMinute int    `json:"max_messages_per_minute" mapstructure:"max_messages_per_minute"`
	MuteDurationMinutes  int    `json:"mute_duration_minutes" mapstructure:"mute_duration_minutes"`
	AutoDeleteLinks      bool   `json:"auto_delete_links" mapstructure:"auto_delete_links"`
	WelcomeTemplate      string `json:"welcome_message" mapstructure:"welcome_message"`
	RulesTemplate        string `json:"rules_message" mapstructure:"rules_message"`

	KnowledgeBase KnowledgeBase `json:"-" mapstructure:"-"`
}

// KnowledgeEntry is one topic of the knowledge base.
type KnowledgeEntry struct {
	Topic    string `json:"topic" mapstructure:"topic"`
	Template string `json:"template" mapstructure:"template"`
}

// KnowledgeBase is an ordered topic → template mapping. Order matters for
// the unaddressed responder, where the first matching topic wins.
type KnowledgeBase []KnowledgeEntry

// Lookup returns the template for a topic.
func (kb KnowledgeBase) Lookup(topic string) (string, bool) {
	for _, e := range kb {
		if e.Topic == topic {
			return e.Template, true
		}
	}
	return "", false
}

// Clone returns a copy that can be modified without touching the receiver.
func (kb KnowledgeBase) Clone() KnowledgeBase {
	out := make(KnowledgeBase, len(kb))
	copy(out, kb)
	return out
}
