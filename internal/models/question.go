package models

import "strings"

// Difficulty tiers recognised by the question store and generator.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// ValidDifficulty reports whether the supplied value is a known tier.
func ValidDifficulty(difficulty string) bool {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Question is an authored trivia question owned by the database. The core
// only ever reads these rows; seeding and administration happen elsewhere.
type Question struct {
	BaseModel

	Question         string            `gorm:"type:text;not null" json:"question"`
	CorrectAnswer    string            `gorm:"type:text;not null" json:"correct_answer"`
	Difficulty       string            `gorm:"type:varchar(20);index" json:"difficulty,omitempty"`
	IncorrectAnswers []IncorrectAnswer `gorm:"foreignKey:QuestionID" json:"incorrect_answers,omitempty"`
}

// IncorrectAnswer is one wrong candidate answer belonging to a question.
// A question owns up to three; fewer rows mean a degraded record that
// callers must tolerate.
type IncorrectAnswer struct {
	BaseModel

	QuestionID      string `gorm:"type:uuid;index;not null" json:"question_id"`
	IncorrectAnswer string `gorm:"type:text;not null" json:"incorrect_answer"`
}
