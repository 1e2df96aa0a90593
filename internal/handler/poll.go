package handler

import (
	"log/slog"
	"net/http"

	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/service"
)

// PollHandler serves polls, voting and results.
type PollHandler struct {
	polls  *service.PollService
	logger *slog.Logger
}

// NewPollHandler creates a PollHandler.
func NewPollHandler(polls *service.PollService, logger *slog.Logger) *PollHandler {
	return &PollHandler{polls: polls, logger: logger}
}

type createPollRequest struct {
	EventID   string `json:"eventId"`
	Title     string `json:"title"`
	Questions []struct {
		Text    string   `json:"text"`
		Options []string `json:"options"`
	} `json:"questions"`
}

type voteRequest struct {
	OptionID string `json:"optionId"`
}

// HandleCreate authors a poll under an event.
//
// POST /api/polls
func (h *PollHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	questions := make([]policy.PollQuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, policy.PollQuestionInput{Text: q.Text, Options: q.Options})
	}

	poll, err := h.polls.Create(r.Context(), viewerID(r), req.EventID, req.Title, questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, poll)
}

// HandleGet returns one poll with its questions and options.
//
// GET /api/polls/{id}
func (h *PollHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	poll, err := h.polls.Get(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

// HandleListByEvent returns an event's polls.
//
// GET /api/polls/by-event/{eventID}
func (h *PollHandler) HandleListByEvent(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls.ListByEvent(r.Context(), viewerID(r), r.PathValue("eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, polls)
}

// HandleVote records the caller's choice on a question.
//
// POST /api/polls/questions/{questionID}/vote
func (h *PollHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	err := h.polls.Vote(r.Context(), viewerID(r), r.PathValue("questionID"), req.OptionID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResults returns the aggregated tallies.
//
// GET /api/polls/{id}/results
func (h *PollHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.polls.Results(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
