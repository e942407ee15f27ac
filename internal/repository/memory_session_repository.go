package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizi-backend/internal/model"
)

// MemorySessionRepository keeps sessions in process memory. Used for local
// development and tests; nothing survives a restart.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.QuizSession
	now      func() time.Time
}

// NewMemorySessionRepository creates an empty MemorySessionRepository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]*model.QuizSession),
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Create(_ context.Context, s *model.QuizSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.SessionID]; ok {
		return model.ErrDuplicateSession
	}
	stored := s.Clone()
	if stored.UserAnswers == nil {
		stored.UserAnswers = map[int]string{}
	}
	r.sessions[s.SessionID] = stored
	return nil
}

func (r *MemorySessionRepository) GetByID(_ context.Context, id uuid.UUID) (*model.QuizSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Submit holds the lock across read, apply and write.
func (r *MemorySessionRepository) Submit(_ context.Context, id uuid.UUID, apply model.SubmitFunc) (*model.QuizSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	sub, err := apply(s.Clone())
	if err != nil {
		return nil, err
	}
	updated := s.Clone()
	updated.Apply(sub, r.now().UTC())
	r.sessions[id] = updated
	return updated.Clone(), nil
}

func (r *MemorySessionRepository) Ping(context.Context) error {
	return nil
}
