package models

import "strings"

// QuizQuestion is the wire form of a question presented to a quiz taker.
// It carries no database identity.
type QuizQuestion struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Valid reports whether the question is structurally complete: non-empty
// prompt and correct answer, exactly three incorrect answers, and the
// correct answer not repeated among them.
func (q QuizQuestion) Valid() bool {
	if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.CorrectAnswer) == "" {
		return false
	}
	if len(q.IncorrectAnswers) != 3 {
		return false
	}
	for _, answer := range q.IncorrectAnswers {
		if answer == q.CorrectAnswer {
			return false
		}
	}
	return true
}
