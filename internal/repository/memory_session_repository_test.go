package repository

import (
	"context"
	"testing"

	"github.com/stemsi/quizi-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	runSessionRepositoryContract(t, NewMemorySessionRepository())
}

func TestMemorySessionRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	s := newTestSession()
	require.NoError(t, repo.Create(ctx, s))

	s.Questions[0].CorrectAnswer = "mutated"
	got, err := repo.GetByID(ctx, s.SessionID)
	require.NoError(t, err)
	got.UserAnswers[0] = "mutated"

	again, err := repo.GetByID(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "4", again.Questions[0].CorrectAnswer)
	assert.Empty(t, again.UserAnswers)
}

func TestMemorySessionRepositoryApplySeesClone(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	s := newTestSession()
	require.NoError(t, repo.Create(ctx, s))

	_, err := repo.Submit(ctx, s.SessionID, func(current *model.QuizSession) (model.Submission, error) {
		current.Email = "changed@b.co"
		return model.Submission{UserAnswers: map[int]string{}}, nil
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", got.Email)
}
