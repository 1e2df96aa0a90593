package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/repository"
)

// PollService orchestrates polls and voting. Poll shape is validated before
// any insert; the one-vote-per-user rule lives in the store as a unique
// index, so a duplicate vote surfaces as Conflict with the first vote
// untouched.
type PollService struct {
	polls  repository.PollRepository
	events repository.EventRepository
	logger *slog.Logger
}

// NewPollService creates a PollService.
func NewPollService(polls repository.PollRepository, events repository.EventRepository, logger *slog.Logger) *PollService {
	return &PollService{polls: polls, events: events, logger: logger}
}

// Create authors a poll under an event. Organizer-only.
func (s *PollService) Create(ctx context.Context, actorID, eventID, title string, questions []policy.PollQuestionInput) (*model.Poll, error) {
	roles, err := s.eventRoles(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageEvent(roles) {
		return nil, apperror.Forbidden("only organizers can create polls")
	}
	if err := policy.ValidatePoll(title, questions); err != nil {
		return nil, err
	}

	poll := &model.Poll{
		EventID:   eventID,
		CreatorID: actorID,
		Title:     strings.TrimSpace(title),
	}
	for i, q := range questions {
		question := model.Question{Text: strings.TrimSpace(q.Text), Position: i}
		for j, label := range q.Options {
			question.Options = append(question.Options, model.Option{
				Label:    strings.TrimSpace(label),
				Position: j,
			})
		}
		poll.Questions = append(poll.Questions, question)
	}

	if err := s.polls.CreatePoll(ctx, poll); err != nil {
		return nil, err
	}

	s.logger.Info("poll created",
		slog.String("pollID", poll.ID),
		slog.String("eventID", eventID),
		slog.Int("questions", len(poll.Questions)),
	)
	return poll, nil
}

// Get returns a poll with its questions if the viewer may see the event.
func (s *PollService) Get(ctx context.Context, viewerID, pollID string) (*model.Poll, error) {
	poll, _, err := s.loadPoll(ctx, viewerID, pollID)
	return poll, err
}

// ListByEvent returns the polls of a visible event.
func (s *PollService) ListByEvent(ctx context.Context, viewerID, eventID string) ([]model.Poll, error) {
	if _, err := s.eventRoles(ctx, viewerID, eventID); err != nil {
		return nil, err
	}
	return s.polls.ListPollsByEvent(ctx, eventID)
}

// Vote records the caller's single choice on a question. Participants and
// organizers only; the chosen option must belong to the question; voting
// twice is a Conflict and never alters the first vote.
func (s *PollService) Vote(ctx context.Context, actorID, questionID, optionID string) error {
	question, err := s.polls.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	poll, roles, err := s.loadPoll(ctx, actorID, question.PollID)
	if err != nil {
		// The poll's event is hidden, so the question is too.
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("question")
		}
		return err
	}
	if !policy.CanContribute(roles) {
		return apperror.Forbidden("only participants can vote")
	}

	ok, err := s.polls.OptionInQuestion(ctx, questionID, optionID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ValidationFailed("optionId", "option does not belong to this question")
	}

	if err := s.polls.CreateVote(ctx, &model.Vote{
		QuestionID: questionID,
		OptionID:   optionID,
		UserID:     actorID,
	}); err != nil {
		return err
	}

	s.logger.Info("vote recorded",
		slog.String("pollID", poll.ID),
		slog.String("questionID", questionID),
	)
	return nil
}

// Results returns the aggregated tallies. Visible to anyone who can view
// the poll; having voted is not required.
func (s *PollService) Results(ctx context.Context, viewerID, pollID string) (*model.PollResults, error) {
	if _, _, err := s.loadPoll(ctx, viewerID, pollID); err != nil {
		return nil, err
	}
	return s.polls.PollResults(ctx, pollID)
}

// eventRoles resolves the caller's roles on an event and enforces its
// visibility.
func (s *PollService) eventRoles(ctx context.Context, userID, eventID string) (policy.RoleSet, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	roster, err := s.events.EventRoster(ctx, eventID)
	if err != nil {
		return nil, err
	}
	roles := policy.RolesForEvent(userID, roster)
	if !policy.CanViewEventContent(roles, event.Public) {
		return nil, apperror.NotFound("event")
	}
	return roles, nil
}

func (s *PollService) loadPoll(ctx context.Context, userID, pollID string) (*model.Poll, policy.RoleSet, error) {
	poll, err := s.polls.GetPoll(ctx, pollID)
	if err != nil {
		return nil, nil, err
	}
	roles, err := s.eventRoles(ctx, userID, poll.EventID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.NotFound("poll")
		}
		return nil, nil, err
	}
	return poll, roles, nil
}
