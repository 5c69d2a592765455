package domain

// SessionState is the lifecycle phase of a session.
type SessionState string

const (
	StateLoading   SessionState = "loading"
	StateActive    SessionState = "active"
	StateComplete  SessionState = "complete"
	StateAbandoned SessionState = "abandoned"
)

// AnswerView is an answer as shown to a player. Correctness is only disclosed
// after the question has been submitted.
type AnswerView struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct *bool  `json:"isCorrect,omitempty"`
}

// QuestionView is the presentation form of the current question.
type QuestionView struct {
	ID              string       `json:"id"`
	Text            string       `json:"text"`
	Answers         []AnswerView `json:"answers"`
	Image           string       `json:"image,omitempty"`
	Difficulty      Difficulty   `json:"difficulty"`
	Points          int          `json:"points"`
	Explanation     string       `json:"explanation,omitempty"`
	CorrectAnswerID string       `json:"correctAnswerId,omitempty"`
}

// Snapshot is a read-only view of a session handed to the presentation layer
// on every tick and command.
type Snapshot struct {
	SessionID        string        `json:"sessionId"`
	Type             SessionType   `json:"sessionType"`
	State            SessionState  `json:"state"`
	Index            int           `json:"currentIndex"`
	Count            int           `json:"questionCount"`
	Question         *QuestionView `json:"question,omitempty"`
	SelectedAnswerID string        `json:"selectedAnswerId,omitempty"`
	Submitted        bool          `json:"submitted"`
	TimeLeft         int           `json:"timeLeft"`
	Score            int           `json:"score"`
	TotalPossible    int           `json:"totalPossible"`
	Streak           int           `json:"streak"`
	MaxStreak        int           `json:"maxStreak"`
	TimeBonus        int           `json:"timeBonus"`
	LastAnswer       *AnswerRecord `json:"lastAnswer,omitempty"`
	Achievements     []Achievement `json:"achievements,omitempty"`
}
