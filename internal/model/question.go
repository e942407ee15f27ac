package model

// Difficulty labels used by the trivia provider. They are not validated.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is a trivia question as stored server-side, correct answer included.
type Question struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// AllAnswers returns the correct answer followed by the incorrect ones.
func (q Question) AllAnswers() []string {
	out := make([]string, 0, len(q.IncorrectAnswers)+1)
	out = append(out, q.CorrectAnswer)
	return append(out, q.IncorrectAnswers...)
}

// SafeQuestion is what the client sees while the attempt is running.
type SafeQuestion struct {
	Category   string   `json:"category"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Question   string   `json:"question"`
	Choices    []string `json:"choices"`
}

// ReportQuestion is the answer-revealing view used by the report.
type ReportQuestion struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
}
