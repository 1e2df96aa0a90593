package model

import "time"

// Poll is an organizer-authored questionnaire attached to an event.
// Poll → Question → Option is a strict ownership chain.
type Poll struct {
	ID        string     `json:"id"`
	EventID   string     `json:"eventId"`
	CreatorID string     `json:"creatorId"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Question carries an ordered list of at least two options. Option labels
// are unique within a question after normalization (case and whitespace
// insensitive).
type Question struct {
	ID       string   `json:"id"`
	PollID   string   `json:"pollId"`
	Text     string   `json:"text"`
	Options  []Option `json:"options,omitempty"`
	Position int      `json:"position"`
}

// Option is one selectable answer to a question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Label      string `json:"label"`
	Position   int    `json:"position"`
}

// Vote records one user's single choice on a question. At most one vote
// exists per (question, user) — enforced atomically by the store.
type Vote struct {
	QuestionID string    `json:"questionId"`
	OptionID   string    `json:"optionId"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// QuestionResult aggregates vote counts per option for one question.
type QuestionResult struct {
	QuestionID string         `json:"questionId"`
	Text       string         `json:"text"`
	Options    []OptionResult `json:"options"`
}

// OptionResult is the vote tally for a single option.
type OptionResult struct {
	OptionID string `json:"optionId"`
	Label    string `json:"label"`
	Votes    int    `json:"votes"`
}

// PollResults is the aggregated outcome of a poll, viewable by anyone who
// can view the poll itself.
type PollResults struct {
	PollID  string           `json:"pollId"`
	Title   string           `json:"title"`
	Results []QuestionResult `json:"results"`
}
