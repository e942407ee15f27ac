package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizi-backend/internal/model"
)

const selectSessionColumns = `session_id, email, questions, created_at, started_at, expires_at,
	user_answers, finished_at, score, per_question_correct, expired_at_submission, updated_at`

// QuizSessionRepository stores quiz sessions in PostgreSQL.
type QuizSessionRepository struct {
	pool *pgxpool.Pool
}

// NewQuizSessionRepository creates a new QuizSessionRepository.
func NewQuizSessionRepository(pool *pgxpool.Pool) *QuizSessionRepository {
	return &QuizSessionRepository{pool: pool}
}

// Create inserts a new session. The session id must be unique.
func (r *QuizSessionRepository) Create(ctx context.Context, s *model.QuizSession) error {
	if r.pool == nil {
		return model.ErrStoreNotConnected
	}

	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.Marshal(nonNilAnswers(s.UserAnswers))
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO quiz_sessions (session_id, email, questions, created_at, started_at, expires_at, user_answers, expired_at_submission)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (session_id) DO NOTHING`,
		s.SessionID, s.Email, questions, s.CreatedAt, s.StartedAt, s.ExpiresAt, answers, s.ExpiredAtSubmission,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDuplicateSession
	}
	return nil
}

// GetByID retrieves a session by id.
func (r *QuizSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuizSession, error) {
	if r.pool == nil {
		return nil, model.ErrStoreNotConnected
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectSessionColumns+` FROM quiz_sessions WHERE session_id = $1`, id)
	return scanSession(row)
}

// Submit applies a submission in a single transaction. The row is locked with
// FOR UPDATE so two concurrent submits for the same session serialize instead
// of overwriting each other's merged answers.
func (r *QuizSessionRepository) Submit(ctx context.Context, id uuid.UUID, apply model.SubmitFunc) (*model.QuizSession, error) {
	if r.pool == nil {
		return nil, model.ErrStoreNotConnected
	}

	var updated *model.QuizSession
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+selectSessionColumns+` FROM quiz_sessions WHERE session_id = $1 FOR UPDATE`, id)
		current, err := scanSession(row)
		if err != nil {
			return err
		}

		sub, err := apply(current.Clone())
		if err != nil {
			return err
		}

		answers, err := json.Marshal(nonNilAnswers(sub.UserAnswers))
		if err != nil {
			return fmt.Errorf("marshal answers: %w", err)
		}
		perQuestion, err := json.Marshal(sub.PerQuestionCorrect)
		if err != nil {
			return fmt.Errorf("marshal per-question results: %w", err)
		}

		err = tx.QueryRow(ctx,
			`UPDATE quiz_sessions
			 SET user_answers = $1, finished_at = $2, score = $3,
			     per_question_correct = $4, expired_at_submission = $5, updated_at = NOW()
			 WHERE session_id = $6
			 RETURNING updated_at`,
			answers, sub.FinishedAt, sub.Score, perQuestion, sub.ExpiredAtSubmission, id,
		).Scan(&current.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		updatedAt := *current.UpdatedAt
		current.Apply(sub, updatedAt)
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Ping checks the connection.
func (r *QuizSessionRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return model.ErrStoreNotConnected
	}
	return r.pool.Ping(ctx)
}

func scanSession(row pgx.Row) (*model.QuizSession, error) {
	var (
		s           model.QuizSession
		questions   []byte
		answers     []byte
		perQuestion []byte
	)
	err := row.Scan(
		&s.SessionID, &s.Email, &questions, &s.CreatedAt, &s.StartedAt, &s.ExpiresAt,
		&answers, &s.FinishedAt, &s.Score, &perQuestion, &s.ExpiredAtSubmission, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	s.UserAnswers = map[int]string{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &s.UserAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	if len(perQuestion) > 0 {
		if err := json.Unmarshal(perQuestion, &s.PerQuestionCorrect); err != nil {
			return nil, fmt.Errorf("unmarshal per-question results: %w", err)
		}
	}
	return &s, nil
}

func nonNilAnswers(m map[int]string) map[int]string {
	if m == nil {
		return map[int]string{}
	}
	return m
}
