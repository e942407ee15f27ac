package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizDuration is the fixed length of an attempt. It is never extended.
const QuizDuration = 30 * time.Minute

// TimeUsedFallback is reported when a session has not been submitted yet.
const TimeUsedFallback = "approx 30m"

// QuizSession is one user's attempt from start to (optional) submission.
// Questions keep the correct answers and never leave the server except
// through the report.
type QuizSession struct {
	SessionID           uuid.UUID      `json:"sessionId"`
	Email               string         `json:"email"`
	Questions           []Question     `json:"questions"`
	CreatedAt           time.Time      `json:"createdAt"`
	StartedAt           time.Time      `json:"startedAt"`
	ExpiresAt           time.Time      `json:"expiresAt"`
	UserAnswers         map[int]string `json:"userAnswers"`
	FinishedAt          *time.Time     `json:"finishedAt"`
	Score               *int           `json:"score"`
	PerQuestionCorrect  []bool         `json:"perQuestionCorrect"`
	ExpiredAtSubmission bool           `json:"expiredAtSubmission"`
	UpdatedAt           *time.Time     `json:"updatedAt,omitempty"`
}

// Submission holds exactly the fields a submit is allowed to change.
type Submission struct {
	UserAnswers         map[int]string
	FinishedAt          time.Time
	Score               int
	PerQuestionCorrect  []bool
	ExpiredAtSubmission bool
}

// Apply copies a submission onto the session.
func (s *QuizSession) Apply(sub Submission, now time.Time) {
	finished := sub.FinishedAt
	score := sub.Score
	s.UserAnswers = sub.UserAnswers
	s.FinishedAt = &finished
	s.Score = &score
	s.PerQuestionCorrect = sub.PerQuestionCorrect
	s.ExpiredAtSubmission = sub.ExpiredAtSubmission
	s.UpdatedAt = &now
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *QuizSession) Clone() *QuizSession {
	out := *s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		q.IncorrectAnswers = append([]string(nil), q.IncorrectAnswers...)
		out.Questions[i] = q
	}
	out.UserAnswers = make(map[int]string, len(s.UserAnswers))
	for k, v := range s.UserAnswers {
		out.UserAnswers[k] = v
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	if s.Score != nil {
		v := *s.Score
		out.Score = &v
	}
	if s.PerQuestionCorrect != nil {
		out.PerQuestionCorrect = append([]bool(nil), s.PerQuestionCorrect...)
	}
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		out.UpdatedAt = &t
	}
	return &out
}

// ─── Requests ───────────────────────────────────────────────────────

// StartQuizRequest is the payload for starting a new attempt.
type StartQuizRequest struct {
	Email string `json:"email" binding:"required,quizemail"`
}

// AnswerItem is one submitted answer. Pointers let the validator tell a
// missing field from a zero value.
type AnswerItem struct {
	QuestionIndex *int    `json:"questionIndex" binding:"required,min=0"`
	Answer        *string `json:"answer" binding:"required"`
}

// SubmitQuizRequest is the payload for submitting answers.
type SubmitQuizRequest struct {
	SessionID  string       `json:"sessionId" binding:"required"`
	Answers    []AnswerItem `json:"answers" binding:"required,dive"`
	FinishedAt *time.Time   `json:"finishedAt"`
}

// ─── Responses ──────────────────────────────────────────────────────

// StartResult is returned to the client when an attempt begins.
type StartResult struct {
	SessionID string         `json:"sessionId"`
	Questions []SafeQuestion `json:"questions"`
	StartedAt time.Time      `json:"startedAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// SubmitResult is returned after answers are scored.
type SubmitResult struct {
	SessionID string `json:"sessionId"`
	Score     int    `json:"score"`
	Total     int    `json:"total"`
}

// QuizReport is the full, answer-revealing projection of a session.
type QuizReport struct {
	SessionID           string           `json:"sessionId"`
	Email               string           `json:"email"`
	StartedAt           time.Time        `json:"startedAt"`
	ExpiresAt           time.Time        `json:"expiresAt"`
	FinishedAt          *time.Time       `json:"finishedAt"`
	ExpiredAtSubmission bool             `json:"expiredAtSubmission"`
	Total               int              `json:"total"`
	Score               int              `json:"score"`
	Questions           []ReportQuestion `json:"questions"`
	UserAnswers         map[int]string   `json:"userAnswers"`
	PerQuestionCorrect  []bool           `json:"perQuestionCorrect"`
	PerQuestionTime     []*int           `json:"perQuestionTime"`
	TimeUsed            string           `json:"timeUsed"`
}

// SubmitFunc computes a submission from the current stored session. Stores
// call it inside their atomic read-modify-write; returning an error aborts
// the write.
type SubmitFunc func(current *QuizSession) (Submission, error)
