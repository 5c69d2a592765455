package domain

import (
	"math"
	"time"
)

// AgeGroup identifies one of the audience tiers of the question catalog.
type AgeGroup string

const (
	AgeGroupYoung AgeGroup = "young"
	AgeGroupMid   AgeGroup = "mid"
	AgeGroupElder AgeGroup = "elder"
	// AgeGroupUltimate tags results of the cross-tier challenge.
	AgeGroupUltimate AgeGroup = "ultimate"
)

// Difficulty of a single question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// SessionType selects the rules a session is played with.
type SessionType string

const (
	SessionStandard SessionType = "standard"
	SessionUltimate SessionType = "ultimate"
)

// Answer is one selectable option of a question.
type Answer struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"isCorrect" yaml:"isCorrect"`
}

// Question models a multiple choice question with exactly one correct answer.
type Question struct {
	ID          string     `json:"id" yaml:"id"`
	Text        string     `json:"text" yaml:"text"`
	Answers     []Answer   `json:"answers" yaml:"answers"`
	Explanation string     `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Image       string     `json:"image,omitempty" yaml:"image,omitempty"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Points      int        `json:"points" yaml:"points"`
}

// Answer looks up an answer of the question by id.
func (q Question) Answer(id string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == id {
			return a, true
		}
	}
	return Answer{}, false
}

// CorrectAnswer returns the answer flagged as correct.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.Correct {
			return a, true
		}
	}
	return Answer{}, false
}

// QuestionSet is the catalog entry of one age group.
type QuestionSet struct {
	ID          AgeGroup   `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// AchievementCategory groups achievements and badges for display.
type AchievementCategory string

const (
	CategoryAchievement AchievementCategory = "achievement"
	CategoryStreak      AchievementCategory = "streak"
	CategoryMastery     AchievementCategory = "mastery"
	CategorySpecial     AchievementCategory = "special"
)

// Progress towards a counted achievement.
type Progress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// Achievement is a session-scoped recognition of the Ultimate Challenge.
type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Unlocked    bool                `json:"unlocked"`
	Progress    *Progress           `json:"progress,omitempty"`
}

// Badge is the persistent, user-scoped form of an achievement or milestone.
type Badge struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Icon         string              `json:"icon"`
	Category     AchievementCategory `json:"category"`
	Unlocked     bool                `json:"unlocked"`
	Progress     *Progress           `json:"progress,omitempty"`
	DateUnlocked time.Time           `json:"dateUnlocked"`
	IsNew        bool                `json:"isNew"`
}

// AnswerRecord is the outcome of one submitted question.
type AnswerRecord struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId,omitempty"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
	TimeBonus  int    `json:"timeBonus"`
	TimeSpent  int    `json:"timeSpent"`
	TimedOut   bool   `json:"timedOut"`
}

// SessionResult is the finalized record of a completed session. It is what the
// persistence collaborators and the leaderboard consume.
type SessionResult struct {
	SessionID        string         `json:"sessionId"`
	UserID           string         `json:"userId"`
	DisplayName      string         `json:"displayName"`
	Type             SessionType    `json:"sessionType"`
	AgeGroup         AgeGroup       `json:"ageGroup"`
	Score            int            `json:"score"`
	TotalPossible    int            `json:"totalPossible"`
	Percentage       int            `json:"scorePercentage"`
	TimeBonus        int            `json:"timeBonus"`
	MaxStreak        int            `json:"maxStreak"`
	TimeSpent        int            `json:"timeSpent"`
	UltimateUnlocked bool           `json:"ultimateUnlocked"`
	Achievements     []Achievement  `json:"achievements"`
	Answers          []AnswerRecord `json:"answers"`
	CompletedAt      time.Time      `json:"completedAt"`
}

// LeaderboardEntry is a ranked best score of a user.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard of one age group.
type Leaderboard struct {
	AgeGroup AgeGroup           `json:"ageGroup"`
	Entries  []LeaderboardEntry `json:"entries"`
}

// Percentage returns round(100 * score / total), or 0 when total is not positive.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
