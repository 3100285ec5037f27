// Package domain contains core domain types for the conversation scoring service.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxTitleLength is the longest accepted conversation title.
const MaxTitleLength = 255

// ErrInvalidConversation is returned when a conversation fails validation.
var ErrInvalidConversation = errors.New("invalid conversation")

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// Message is a single transcript entry. Timestamp is set at creation and never changes.
type Message struct {
	ID             int64     `json:"-"`
	ConversationID string    `json:"-"`
	Sender         Sender    `json:"sender"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

// IsUser returns true if the message was written by the user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// IsAI returns true if the message was written by the assistant.
func (m Message) IsAI() bool {
	return m.Sender == SenderAI
}

// Conversation owns an ordered list of messages (timestamp ascending).
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages,omitempty"`
}

// Validate checks the title and the sender/timestamp ordering of every message.
func (c *Conversation) Validate() error {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidConversation)
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidConversation, MaxTitleLength)
	}
	for i, m := range c.Messages {
		if !m.Sender.Valid() {
			return fmt.Errorf("%w: message %d has unknown sender %q", ErrInvalidConversation, i, m.Sender)
		}
		if i > 0 && m.Timestamp.Before(c.Messages[i-1].Timestamp) {
			return fmt.Errorf("%w: message %d timestamp precedes message %d", ErrInvalidConversation, i, i-1)
		}
	}
	return nil
}

// StampMessages assigns a creation timestamp to every message that lacks one.
// Assigned timestamps never precede the previous message, so ordering stays non-decreasing.
func (c *Conversation) StampMessages(now time.Time) {
	var prev time.Time
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.Timestamp.IsZero() {
			m.Timestamp = now
			if m.Timestamp.Before(prev) {
				m.Timestamp = prev
			}
		}
		prev = m.Timestamp
	}
}
