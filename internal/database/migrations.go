package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/vimquiz/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Question{},
		&models.IncorrectAnswer{},
		&models.CacheEntry{},
		&models.CostEntry{},
	)
}

// SeedData populates a starter question set so a fresh install can serve
// the fallback path before any authoring has happened.
func SeedData(db *gorm.DB) error {
	for _, seed := range starterQuestions {
		var count int64
		if err := db.Model(&models.Question{}).Where("question = ?", seed.Question).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		record := models.Question{
			Question:      seed.Question,
			CorrectAnswer: seed.CorrectAnswer,
			Difficulty:    seed.Difficulty,
		}
		if err := db.Create(&record).Error; err != nil {
			return err
		}
		for _, wrong := range seed.IncorrectAnswers {
			answer := models.IncorrectAnswer{
				QuestionID:      record.ID,
				IncorrectAnswer: wrong,
			}
			if err := db.Create(&answer).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

type seedQuestion struct {
	Question         string
	CorrectAnswer    string
	Difficulty       string
	IncorrectAnswers []string
}

var starterQuestions = []seedQuestion{
	{
		Question:         "What is the command to save a file in Vim?",
		CorrectAnswer:    ":w",
		Difficulty:       models.DifficultyBeginner,
		IncorrectAnswers: []string{":s", ":save", ":savefile"},
	},
	{
		Question:         "How do you exit Vim without saving?",
		CorrectAnswer:    ":q!",
		Difficulty:       models.DifficultyBeginner,
		IncorrectAnswers: []string{":quit", ":exit", ":close"},
	},
	{
		Question:         "What key do you press to enter insert mode in Vim?",
		CorrectAnswer:    "i",
		Difficulty:       models.DifficultyBeginner,
		IncorrectAnswers: []string{"a", "o", "I"},
	},
	{
		Question:         "How do you delete the current line in Vim?",
		CorrectAnswer:    "dd",
		Difficulty:       models.DifficultyBeginner,
		IncorrectAnswers: []string{"dl", "D", "d$"},
	},
	{
		Question:         "What command moves the cursor to the beginning of the line?",
		CorrectAnswer:    "0",
		Difficulty:       models.DifficultyIntermediate,
		IncorrectAnswers: []string{"^", "$", "gg"},
	},
	{
		Question:         "How do you search for text in Vim?",
		CorrectAnswer:    "/text",
		Difficulty:       models.DifficultyBeginner,
		IncorrectAnswers: []string{"?text", ":search text", "\\text"},
	},
	{
		Question:         "What command undoes the last change in Vim?",
		CorrectAnswer:    "u",
		Difficulty:       models.DifficultyBeginner,
		IncorrectAnswers: []string{"U", "Ctrl+z", ":undo"},
	},
	{
		Question:         "How do you move to the end of the file in Vim?",
		CorrectAnswer:    "G",
		Difficulty:       models.DifficultyIntermediate,
		IncorrectAnswers: []string{"gg", ":$", ":end"},
	},
	{
		Question:         "What command replaces text in Vim?",
		CorrectAnswer:    ":%s/old/new/g",
		Difficulty:       models.DifficultyAdvanced,
		IncorrectAnswers: []string{":replace old new", ":substitute old new", ":find old new"},
	},
	{
		Question:         "How do you copy (yank) the current line in Vim?",
		CorrectAnswer:    "yy",
		Difficulty:       models.DifficultyIntermediate,
		IncorrectAnswers: []string{"cc", "dd", "pp"},
	},
}
