package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizi-backend/internal/model"
	"github.com/stemsi/quizi-backend/internal/sanitize"
	"github.com/stemsi/quizi-backend/internal/shuffle"
	"github.com/stemsi/quizi-backend/internal/validator"
)

// SessionRepository is the persistence contract of the quiz lifecycle.
// Submit must run apply and the write as one atomic step.
type SessionRepository interface {
	Create(ctx context.Context, s *model.QuizSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.QuizSession, error)
	Submit(ctx context.Context, id uuid.UUID, apply model.SubmitFunc) (*model.QuizSession, error)
	Ping(ctx context.Context) error
}

// QuestionProvider supplies a fresh batch of trivia questions.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, amount int) ([]model.Question, error)
}

// QuizSessionService handles the quiz lifecycle: start, submit and report.
type QuizSessionService struct {
	repo     SessionRepository
	provider QuestionProvider
	amount   int
	now      func() time.Time
	log      zerolog.Logger
}

// Option customises a QuizSessionService.
type Option func(*QuizSessionService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *QuizSessionService) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *QuizSessionService) {
		s.log = log.With().Str("component", "quiz_session_service").Logger()
	}
}

// NewQuizSessionService creates a new QuizSessionService that asks the
// provider for amount questions per attempt.
func NewQuizSessionService(repo SessionRepository, provider QuestionProvider, amount int, opts ...Option) *QuizSessionService {
	s := &QuizSessionService{
		repo:     repo,
		provider: provider,
		amount:   amount,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a new attempt for email and returns the client-safe view.
func (s *QuizSessionService) Start(ctx context.Context, email string) (*model.StartResult, error) {
	if !validator.IsQuizEmail(email) {
		return nil, model.NewValidationError("email", "must be a valid email address")
	}

	fetched, err := s.provider.FetchQuestions(ctx, s.amount)
	if err != nil {
		return nil, err
	}
	if len(fetched) == 0 {
		return nil, fmt.Errorf("%w: no questions returned", model.ErrUpstream)
	}

	questions := make([]model.Question, len(fetched))
	for i, q := range fetched {
		questions[i] = sanitize.Question(q)
	}

	// Millisecond precision survives JSON, JSONB and timestamptz alike.
	now := s.now().UTC().Truncate(time.Millisecond)
	session := &model.QuizSession{
		SessionID:   uuid.New(),
		Email:       email,
		Questions:   questions,
		CreatedAt:   now,
		StartedAt:   now,
		ExpiresAt:   now.Add(model.QuizDuration),
		UserAnswers: map[int]string{},
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.SessionID.String()).
		Int("questions", len(questions)).
		Msg("Quiz session started")

	return &model.StartResult{
		SessionID: session.SessionID.String(),
		Questions: SafeQuestions(session.SessionID.String(), questions),
		StartedAt: session.StartedAt,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Submit merges answers into the session and rescores every question.
// finishedAt defaults to now. The first submission fixes finishedAt and the
// expiry flag; later submissions only add answers and rescore.
func (s *QuizSessionService) Submit(ctx context.Context, sessionID string, answers []model.AnswerItem, finishedAt *time.Time) (*model.SubmitResult, error) {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	incoming, err := answerMap(answers)
	if err != nil {
		return nil, err
	}

	submittedAt := s.now().UTC()
	if finishedAt != nil {
		submittedAt = finishedAt.UTC()
	}

	updated, err := s.repo.Submit(ctx, id, func(current *model.QuizSession) (model.Submission, error) {
		total := len(current.Questions)
		for idx := range incoming {
			if idx >= total {
				return model.Submission{}, model.NewValidationError(
					"answers.questionIndex",
					fmt.Sprintf("must be less than %d", total),
				)
			}
		}

		merged := MergeAnswers(current.UserAnswers, incoming)
		score, perQuestion := ScoreAnswers(current.Questions, merged)

		finished := submittedAt
		expired := finished.After(current.ExpiresAt)
		if current.FinishedAt != nil {
			finished = *current.FinishedAt
			expired = current.ExpiredAtSubmission
		}

		return model.Submission{
			UserAnswers:         merged,
			FinishedAt:          finished,
			Score:               score,
			PerQuestionCorrect:  perQuestion,
			ExpiredAtSubmission: expired,
		}, nil
	})
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) || errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("submit session: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID).
		Int("score", *updated.Score).
		Bool("expired", updated.ExpiredAtSubmission).
		Msg("Quiz session submitted")

	return &model.SubmitResult{
		SessionID: updated.SessionID.String(),
		Score:     *updated.Score,
		Total:     len(updated.Questions),
	}, nil
}

// Report returns the answer-revealing view of a session.
func (s *QuizSessionService) Report(ctx context.Context, sessionID string) (*model.QuizReport, error) {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	total := len(session.Questions)
	score := 0
	if session.Score != nil {
		score = *session.Score
	} else {
		score = countCorrect(session.Questions, session.UserAnswers)
	}

	questions := make([]model.ReportQuestion, total)
	for i, q := range session.Questions {
		incorrect := q.IncorrectAnswers
		if incorrect == nil {
			incorrect = []string{}
		}
		questions[i] = model.ReportQuestion{
			Question:         q.Question,
			CorrectAnswer:    q.CorrectAnswer,
			IncorrectAnswers: incorrect,
			Category:         q.Category,
			Difficulty:       q.Difficulty,
		}
	}

	userAnswers := session.UserAnswers
	if userAnswers == nil {
		userAnswers = map[int]string{}
	}

	return &model.QuizReport{
		SessionID:           session.SessionID.String(),
		Email:               session.Email,
		StartedAt:           session.StartedAt,
		ExpiresAt:           session.ExpiresAt,
		FinishedAt:          session.FinishedAt,
		ExpiredAtSubmission: session.ExpiredAtSubmission,
		Total:               total,
		Score:               score,
		Questions:           questions,
		UserAnswers:         userAnswers,
		PerQuestionCorrect:  session.PerQuestionCorrect,
		PerQuestionTime:     make([]*int, total),
		TimeUsed:            TimeUsed(session.StartedAt, session.FinishedAt),
	}, nil
}

// Ping reports whether the session store is reachable.
func (s *QuizSessionService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Expiry returns the expiry time of a session, used by the clock stream.
func (s *QuizSessionService) Expiry(ctx context.Context, sessionID string) (time.Time, error) {
	id, err := parseSessionID(sessionID)
	if err != nil {
		return time.Time{}, err
	}
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return session.ExpiresAt, nil
}

// SafeQuestions strips correct answers and shuffles the choices of every
// question with the seed "<sessionID>-<index>".
func SafeQuestions(sessionID string, questions []model.Question) []model.SafeQuestion {
	out := make([]model.SafeQuestion, len(questions))
	for i, q := range questions {
		out[i] = model.SafeQuestion{
			Category:   q.Category,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			Question:   q.Question,
			Choices:    shuffle.Seeded(q.AllAnswers(), sessionID+"-"+strconv.Itoa(i)),
		}
	}
	return out
}

// MergeAnswers returns a new map holding existing overwritten by incoming.
// Neither input is modified.
func MergeAnswers(existing, incoming map[int]string) map[int]string {
	merged := make(map[int]string, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}

// ScoreAnswers compares answers to every question in order. A missing answer
// counts as incorrect.
func ScoreAnswers(questions []model.Question, answers map[int]string) (int, []bool) {
	score := 0
	perQuestion := make([]bool, len(questions))
	for i, q := range questions {
		answer, ok := answers[i]
		if ok && answer == q.CorrectAnswer {
			perQuestion[i] = true
			score++
		}
	}
	return score, perQuestion
}

// TimeUsed formats the elapsed attempt time as "<seconds>s", rounded half up,
// or the fallback when the session was never submitted.
func TimeUsed(startedAt time.Time, finishedAt *time.Time) string {
	if finishedAt == nil {
		return model.TimeUsedFallback
	}
	seconds := math.Floor(finishedAt.Sub(startedAt).Seconds() + 0.5)
	return strconv.FormatInt(int64(seconds), 10) + "s"
}

// countCorrect scores only the answered indices. Used when no score was stored.
func countCorrect(questions []model.Question, answers map[int]string) int {
	n := 0
	for idx, answer := range answers {
		if idx >= 0 && idx < len(questions) && questions[idx].CorrectAnswer == answer {
			n++
		}
	}
	return n
}

func answerMap(items []model.AnswerItem) (map[int]string, error) {
	if items == nil {
		return nil, model.NewValidationError("answers", "must be an array")
	}
	out := make(map[int]string, len(items))
	for i, item := range items {
		if item.QuestionIndex == nil || *item.QuestionIndex < 0 {
			return nil, model.NewValidationError(
				fmt.Sprintf("answers[%d].questionIndex", i), "must be a non-negative integer")
		}
		if item.Answer == nil {
			return nil, model.NewValidationError(
				fmt.Sprintf("answers[%d].answer", i), "must be a string")
		}
		out[*item.QuestionIndex] = *item.Answer
	}
	return out, nil
}

// parseSessionID maps ids that cannot exist to ErrSessionNotFound.
func parseSessionID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, model.NewValidationError("sessionId", "is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.ErrSessionNotFound
	}
	return id, nil
}
