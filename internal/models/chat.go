package models

import "time"

const (
	MaxChatMessages = 20
	MaxMemoryFacts  = 10
)

type ChatRole string

const (
	RoleUser     ChatRole = "user"
	RoleGuardian ChatRole = "guardian"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Memories struct {
	Facts       []string  `json:"facts"`
	LastUpdated time.Time `json:"last_updated"`
}

// AppendMessages appends and keeps only the newest MaxChatMessages.
func AppendMessages(messages []ChatMessage, add ...ChatMessage) []ChatMessage {
	messages = append(messages, add...)
	if len(messages) > MaxChatMessages {
		messages = messages[len(messages)-MaxChatMessages:]
	}
	return messages
}

// AddFact appends a fact in insertion order, evicting the oldest past the cap.
func (m *Memories) AddFact(fact string, now time.Time) {
	m.Facts = append(m.Facts, fact)
	if len(m.Facts) > MaxMemoryFacts {
		m.Facts = m.Facts[len(m.Facts)-MaxMemoryFacts:]
	}
	m.LastUpdated = now
}
