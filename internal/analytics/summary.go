// Package analytics derives presentation metrics from a quiz report.
package analytics

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/stemsi/quizi-backend/internal/model"
)

var (
	secondsPattern = regexp.MustCompile(`(\d+)\s*s`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*m`)
)

// DifficultyStat is the per-difficulty breakdown of a report.
type DifficultyStat struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Summary holds the counts and timings shown next to a report.
type Summary struct {
	SessionID          string                    `json:"sessionId"`
	Total              int                       `json:"total"`
	Score              int                       `json:"score"`
	Correct            int                       `json:"correct"`
	Incorrect          int                       `json:"incorrect"`
	Unanswered         int                       `json:"unanswered"`
	Percent            int                       `json:"percent"`
	Difficulty         map[string]DifficultyStat `json:"difficulty"`
	TotalSeconds       *int                      `json:"totalSeconds"`
	PerQuestionSeconds []*int                    `json:"perQuestionSeconds"`
}

// Summarize computes the summary of a report. It never fails: missing data
// shows up as zero counts or null timings.
func Summarize(r *model.QuizReport) Summary {
	total := r.Total
	if total == 0 {
		total = len(r.Questions)
	}

	s := Summary{
		SessionID: r.SessionID,
		Total:     total,
		Score:     r.Score,
		Difficulty: map[string]DifficultyStat{
			model.DifficultyEasy:   {},
			model.DifficultyMedium: {},
			model.DifficultyHard:   {},
		},
	}

	for i := 0; i < total && i < len(r.Questions); i++ {
		q := r.Questions[i]
		answer, answered := r.UserAnswers[i]
		correct := answered && answer == q.CorrectAnswer
		switch {
		case !answered:
			s.Unanswered++
		case correct:
			s.Correct++
		default:
			s.Incorrect++
		}

		label := strings.ToLower(q.Difficulty)
		if label == "" {
			label = model.DifficultyMedium
		}
		stat := s.Difficulty[label]
		stat.Total++
		if correct {
			stat.Correct++
		}
		s.Difficulty[label] = stat
	}

	if total > 0 {
		s.Percent = int(math.Floor(float64(r.Score)/float64(total)*100 + 0.5))
	}

	s.TotalSeconds = totalSeconds(r)
	s.PerQuestionSeconds = perQuestionSeconds(r.PerQuestionTime, s.TotalSeconds, total)
	return s
}

// totalSeconds reads the elapsed time from the timeUsed label, falling back
// to the timestamps when the label carries nothing usable.
func totalSeconds(r *model.QuizReport) *int {
	if v, ok := parseTimeUsed(r.TimeUsed); ok && v != 0 {
		return &v
	}
	if r.FinishedAt != nil && !r.StartedAt.IsZero() {
		v := int(math.Floor(r.FinishedAt.Sub(r.StartedAt).Seconds() + 0.5))
		if v < 0 {
			v = 0
		}
		return &v
	}
	return nil
}

func parseTimeUsed(s string) (int, bool) {
	if m := secondsPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		return n * 60, err == nil
	}
	return 0, false
}

func perQuestionSeconds(timings []*int, total *int, n int) []*int {
	out := make([]*int, n)
	if len(timings) == n && anyNonZero(timings) {
		copy(out, timings)
		return out
	}
	if total == nil || *total == 0 {
		return out
	}
	avg := *total / max(1, n)
	for i := range out {
		v := avg
		out[i] = &v
	}
	return out
}

func anyNonZero(values []*int) bool {
	for _, v := range values {
		if v != nil && *v != 0 {
			return true
		}
	}
	return false
}
