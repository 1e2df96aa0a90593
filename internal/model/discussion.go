package model

import "time"

// Discussion is a message thread attached to exactly one parent: a group
// XOR an event. Both set or neither set is invalid (exclusivity invariant).
// Each group/event has at most one discussion.
type Discussion struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId,omitempty"`
	EventID   string    `json:"eventId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a single post in a discussion. ParentMessageID, when set,
// must reference a message in the same discussion (threading invariant).
type Message struct {
	ID              string    `json:"id"`
	DiscussionID    string    `json:"discussionId"`
	AuthorID        string    `json:"authorId"`
	Content         string    `json:"content"`
	ParentMessageID string    `json:"parentMessageId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
