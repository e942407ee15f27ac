package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizi-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionRepository interface {
	Create(ctx context.Context, s *model.QuizSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.QuizSession, error)
	Submit(ctx context.Context, id uuid.UUID, apply model.SubmitFunc) (*model.QuizSession, error)
	Ping(ctx context.Context) error
}

func newTestSession() *model.QuizSession {
	started := time.Now().UTC().Truncate(time.Millisecond)
	return &model.QuizSession{
		SessionID: uuid.New(),
		Email:     "a@b.co",
		Questions: []model.Question{
			{Category: "Science", Type: "multiple", Difficulty: "easy", Question: "2+2?", CorrectAnswer: "4", IncorrectAnswers: []string{"3", "5", "22"}},
			{Category: "History", Type: "boolean", Difficulty: "hard", Question: "Rome fell in 476?", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
		},
		CreatedAt:   started,
		StartedAt:   started,
		ExpiresAt:   started.Add(model.QuizDuration),
		UserAnswers: map[int]string{},
	}
}

// mergeOne returns a SubmitFunc adding a single answer to whatever is stored.
func mergeOne(index int, answer string) model.SubmitFunc {
	return func(current *model.QuizSession) (model.Submission, error) {
		answers := make(map[int]string, len(current.UserAnswers)+1)
		for k, v := range current.UserAnswers {
			answers[k] = v
		}
		answers[index] = answer
		return model.Submission{
			UserAnswers:        answers,
			FinishedAt:         current.StartedAt.Add(time.Minute),
			Score:              len(answers),
			PerQuestionCorrect: make([]bool, len(current.Questions)),
		}, nil
	}
}

func runSessionRepositoryContract(t *testing.T, repo sessionRepository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, repo.Create(ctx, s))

		got, err := repo.GetByID(ctx, s.SessionID)
		require.NoError(t, err)
		assert.Equal(t, s.Email, got.Email)
		assert.Equal(t, s.Questions, got.Questions)
		assert.True(t, s.StartedAt.Equal(got.StartedAt))
		assert.Equal(t, model.QuizDuration, got.ExpiresAt.Sub(got.StartedAt))
		assert.Empty(t, got.UserAnswers)
		assert.Nil(t, got.Score)
		assert.Nil(t, got.FinishedAt)
		assert.Nil(t, got.PerQuestionCorrect)
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, repo.Create(ctx, s))
		assert.ErrorIs(t, repo.Create(ctx, s), model.ErrDuplicateSession)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrSessionNotFound)

		_, err = repo.Submit(ctx, uuid.New(), mergeOne(0, "4"))
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})

	t.Run("submit persists", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, repo.Create(ctx, s))

		updated, err := repo.Submit(ctx, s.SessionID, mergeOne(0, "4"))
		require.NoError(t, err)
		require.NotNil(t, updated.Score)
		assert.Equal(t, 1, *updated.Score)

		got, err := repo.GetByID(ctx, s.SessionID)
		require.NoError(t, err)
		assert.Equal(t, map[int]string{0: "4"}, got.UserAnswers)
		require.NotNil(t, got.FinishedAt)
		assert.True(t, s.StartedAt.Add(time.Minute).Equal(*got.FinishedAt))
		assert.Len(t, got.PerQuestionCorrect, 2)
		assert.NotNil(t, got.UpdatedAt)
	})

	t.Run("rejected submit writes nothing", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, repo.Create(ctx, s))

		boom := errors.New("boom")
		_, err := repo.Submit(ctx, s.SessionID, func(*model.QuizSession) (model.Submission, error) {
			return model.Submission{}, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repo.GetByID(ctx, s.SessionID)
		require.NoError(t, err)
		assert.Nil(t, got.Score)
		assert.Empty(t, got.UserAnswers)
	})

	t.Run("concurrent submits keep every answer", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, repo.Create(ctx, s))

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for i, answer := range []string{"4", "True"} {
			wg.Add(1)
			go func(i int, answer string) {
				defer wg.Done()
				_, err := repo.Submit(ctx, s.SessionID, mergeOne(i, answer))
				errs <- err
			}(i, answer)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := repo.GetByID(ctx, s.SessionID)
		require.NoError(t, err)
		assert.Equal(t, map[int]string{0: "4", 1: "True"}, got.UserAnswers)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
