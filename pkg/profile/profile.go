package profile

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Profile holds the player progress facts that dialogue requirements query.
// It satisfies conditionals.ProfileView.
type Profile struct {
	ID                uuid.UUID       `json:"id"`
	CompletedQuests   map[string]bool `json:"completed_quests,omitempty"`
	SeenConversations map[string]bool `json:"seen_conversations,omitempty"`
	Choices           map[string]bool `json:"choices,omitempty"` // Choice IDs of saved choices
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func New() *Profile {
	now := time.Now()
	return &Profile{
		ID:                uuid.New(),
		CompletedQuests:   make(map[string]bool),
		SeenConversations: make(map[string]bool),
		Choices:           make(map[string]bool),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (p *Profile) QuestComplete(id string) bool {
	return p.CompletedQuests[id]
}

func (p *Profile) ConversationSeen(id string) bool {
	return p.SeenConversations[id]
}

func (p *Profile) ChoiceMade(id string) bool {
	return p.Choices[id]
}

// CompleteQuest marks a quest as complete.
func (p *Profile) CompleteQuest(id string) {
	if p.CompletedQuests == nil {
		p.CompletedQuests = make(map[string]bool)
	}
	p.CompletedQuests[id] = true
	p.UpdatedAt = time.Now()
}

// RecordChoice stores a choice so later choiceMade requirements pass.
func (p *Profile) RecordChoice(id string) {
	if id == "" {
		return
	}
	if p.Choices == nil {
		p.Choices = make(map[string]bool)
	}
	p.Choices[id] = true
	p.UpdatedAt = time.Now()
}

// MarkConversationSeen records that a conversation was played to its end.
func (p *Profile) MarkConversationSeen(id string) {
	if p.SeenConversations == nil {
		p.SeenConversations = make(map[string]bool)
	}
	p.SeenConversations[id] = true
	p.UpdatedAt = time.Now()
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (p *Profile) Clone() *Profile {
	c := *p
	c.CompletedQuests = maps.Clone(p.CompletedQuests)
	c.SeenConversations = maps.Clone(p.SeenConversations)
	c.Choices = maps.Clone(p.Choices)
	return &c
}
