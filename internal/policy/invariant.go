package policy

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tribu-app/tribu/internal/apperror"
)

// Structural invariants, checked synchronously before any commit. Each
// function returns nil or a typed apperror; the store's unique indexes back
// the uniqueness rules so the check-then-act race is closed by the database,
// not by these functions alone.

// emailPattern is intentionally permissive: one @, a dot somewhere in the
// domain, no whitespace. Full RFC 5322 parsing buys nothing here — the real
// proof of an address is deliverability.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength matches the registration rule of the public API.
const MinPasswordLength = 8

// ValidateEmail rejects syntactically malformed addresses.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperror.ValidationFailed("email", "email address is not valid")
	}
	return nil
}

// ValidatePassword rejects passwords below the minimum length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// ValidateEventDates enforces start < end, strictly. Equal dates are
// rejected too: a zero-length event is a data-entry mistake, not an event.
func ValidateEventDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperror.ValidationFailed("startDate", "start and end dates are required")
	}
	if !start.Before(end) {
		return apperror.ValidationFailed("endDate", "end date must be after start date")
	}
	return nil
}

// ValidateDiscussionParent enforces parent exclusivity: exactly one of
// groupID/eventID must be set. Both or neither is malformed input.
func ValidateDiscussionParent(groupID, eventID string) error {
	switch {
	case groupID == "" && eventID == "":
		return apperror.ValidationFailed("groupId", "a discussion needs a group or an event")
	case groupID != "" && eventID != "":
		return apperror.ValidationFailed("groupId", "a discussion cannot belong to both a group and an event")
	}
	return nil
}

// ValidateMessageParent enforces the threading invariant: a reply's parent
// must live in the same discussion as the reply itself.
func ValidateMessageParent(parentDiscussionID, discussionID string) error {
	if parentDiscussionID != discussionID {
		return apperror.ValidationFailed("parentMessageId",
			"parent message must belong to the same discussion")
	}
	return nil
}

// PollQuestionInput is the authoring shape validated by ValidatePoll.
type PollQuestionInput struct {
	Text    string
	Options []string
}

// ValidatePoll checks a poll's authoring shape: at least one question, at
// least two options per question, and no duplicate options within a
// question after normalization.
func ValidatePoll(title string, questions []PollQuestionInput) error {
	if strings.TrimSpace(title) == "" {
		return apperror.ValidationFailed("title", "poll title is required")
	}
	if len(questions) == 0 {
		return apperror.ValidationFailed("questions", "a poll needs at least one question")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return apperror.ValidationFailed("questions",
				fmt.Sprintf("question %d has no text", i+1))
		}
		if len(q.Options) < 2 {
			return apperror.ValidationFailed("questions",
				fmt.Sprintf("question %q needs at least two options", q.Text))
		}
		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			norm := NormalizeName(opt)
			if norm == "" {
				return apperror.ValidationFailed("questions",
					fmt.Sprintf("question %q has an empty option", q.Text))
			}
			if seen[norm] {
				return apperror.ValidationFailed("questions",
					fmt.Sprintf("question %q has duplicate option %q", q.Text, opt))
			}
			seen[norm] = true
		}
	}
	return nil
}

// NormalizeName is the single normalization rule for name-uniqueness
// comparisons: trim, lowercase, collapse internal whitespace runs to one
// space. Poll options and shopping item names both use it, so "Red  Wine"
// and "red wine" are the same name everywhere.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ValidateTicketTypeEvent rejects ticketing on non-public events.
func ValidateTicketTypeEvent(eventPublic bool) error {
	if !eventPublic {
		return apperror.Forbidden("ticketing is only available for public events")
	}
	return nil
}

// CanRemoveAdmin rejects a removal that would leave a group without any
// admin. adminCount is the count before removal.
func CanRemoveAdmin(adminCount int) error {
	if adminCount <= 1 {
		return apperror.Conflict("a group must keep at least one admin")
	}
	return nil
}

// CanRemoveOrganizer rejects a removal that would leave an event without
// any organizer. organizerCount is the count before removal.
func CanRemoveOrganizer(organizerCount int) error {
	if organizerCount <= 1 {
		return apperror.Conflict("an event must keep at least one organizer")
	}
	return nil
}
