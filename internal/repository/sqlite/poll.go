package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/repository"
)

var _ repository.PollRepository = (*DB)(nil)

// CreatePoll inserts the poll with all questions and options in one
// transaction, assigning IDs and positions as it goes.
func (db *DB) CreatePoll(ctx context.Context, p *model.Poll) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO polls (id, event_id, creator_id, title, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.EventID, p.CreatorID, p.Title, p.CreatedAt,
	); err != nil {
		return fmt.Errorf("sqlite: creating poll: %w", err)
	}

	for qi := range p.Questions {
		q := &p.Questions[qi]
		q.ID = xid.New().String()
		q.PollID = p.ID
		q.Position = qi
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO poll_questions (id, poll_id, text, position) VALUES (?, ?, ?, ?)`,
			q.ID, q.PollID, q.Text, q.Position,
		); err != nil {
			return fmt.Errorf("sqlite: creating poll question: %w", err)
		}
		for oi := range q.Options {
			o := &q.Options[oi]
			o.ID = xid.New().String()
			o.QuestionID = q.ID
			o.Position = oi
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO poll_options (id, question_id, label, position) VALUES (?, ?, ?, ?)`,
				o.ID, o.QuestionID, o.Label, o.Position,
			); err != nil {
				return fmt.Errorf("sqlite: creating poll option: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetPoll fetches a poll with its full question/option tree.
func (db *DB) GetPoll(ctx context.Context, id string) (*model.Poll, error) {
	var p model.Poll
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, event_id, creator_id, title, created_at FROM polls WHERE id = ?`, id,
	).Scan(&p.ID, &p.EventID, &p.CreatorID, &p.Title, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("poll")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching poll: %w", err)
	}

	if err := db.loadQuestions(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPollsByEvent returns an event's polls, newest first, without their
// question trees (list views stay light).
func (db *DB) ListPollsByEvent(ctx context.Context, eventID string) ([]model.Poll, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_id, creator_id, title, created_at
		 FROM polls WHERE event_id = ? ORDER BY created_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing polls: %w", err)
	}
	defer rows.Close()

	polls := []model.Poll{}
	for rows.Next() {
		var p model.Poll
		if err := rows.Scan(&p.ID, &p.EventID, &p.CreatorID, &p.Title, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning poll: %w", err)
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

// GetQuestion fetches one question by ID (without options).
func (db *DB) GetQuestion(ctx context.Context, questionID string) (*model.Question, error) {
	var q model.Question
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, poll_id, text, position FROM poll_questions WHERE id = ?`, questionID,
	).Scan(&q.ID, &q.PollID, &q.Text, &q.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("question")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching question: %w", err)
	}
	return &q, nil
}

// OptionInQuestion reports whether the option belongs to the question.
func (db *DB) OptionInQuestion(ctx context.Context, questionID, optionID string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM poll_options WHERE id = ? AND question_id = ?`,
		optionID, questionID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking option: %w", err)
	}
	return true, nil
}

// CreateVote records a vote. The (question_id, user_id) primary key is the
// ledger guard: a second vote fails atomically with ErrConflict and leaves
// the first vote untouched, whatever option it carried.
func (db *DB) CreateVote(ctx context.Context, v *model.Vote) error {
	v.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO poll_votes (question_id, option_id, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		v.QuestionID, v.OptionID, v.UserID, v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("already voted on this question")
		}
		return fmt.Errorf("sqlite: creating vote: %w", err)
	}
	return nil
}

// PollResults aggregates vote counts per option across the poll.
func (db *DB) PollResults(ctx context.Context, pollID string) (*model.PollResults, error) {
	poll, err := db.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	results := &model.PollResults{PollID: poll.ID, Title: poll.Title}
	for _, q := range poll.Questions {
		qr := model.QuestionResult{QuestionID: q.ID, Text: q.Text}
		for _, o := range q.Options {
			var votes int
			err := db.conn.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM poll_votes WHERE question_id = ? AND option_id = ?`,
				q.ID, o.ID,
			).Scan(&votes)
			if err != nil {
				return nil, fmt.Errorf("sqlite: counting votes: %w", err)
			}
			qr.Options = append(qr.Options, model.OptionResult{
				OptionID: o.ID,
				Label:    o.Label,
				Votes:    votes,
			})
		}
		results.Results = append(results.Results, qr)
	}
	return results, nil
}

// loadQuestions attaches the ordered question/option tree to a poll.
func (db *DB) loadQuestions(ctx context.Context, p *model.Poll) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, poll_id, text, position FROM poll_questions
		 WHERE poll_id = ? ORDER BY position ASC`, p.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.PollID, &q.Text, &q.Position); err != nil {
			return fmt.Errorf("sqlite: scanning question: %w", err)
		}
		p.Questions = append(p.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for qi := range p.Questions {
		q := &p.Questions[qi]
		optRows, err := db.conn.QueryContext(ctx,
			`SELECT id, question_id, label, position FROM poll_options
			 WHERE question_id = ? ORDER BY position ASC`, q.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: loading options: %w", err)
		}
		for optRows.Next() {
			var o model.Option
			if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.Position); err != nil {
				optRows.Close()
				return fmt.Errorf("sqlite: scanning option: %w", err)
			}
			q.Options = append(q.Options, o)
		}
		if err := optRows.Err(); err != nil {
			optRows.Close()
			return err
		}
		optRows.Close()
	}
	return nil
}
