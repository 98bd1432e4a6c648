package quiz

import (
	"fmt"
	"time"

	"github.com/trezcool/darasa/core"
)

type (
	Question struct {
		Text          string   `json:"question" bson:"question"`
		Options       []string `json:"options" bson:"options"`
		CorrectAnswer int      `json:"correct_answer" bson:"correct_answer"`
	}

	Quiz struct {
		ID          string     `json:"id" bson:"_id"`
		Title       string     `json:"title" bson:"title"`
		Description string     `json:"description" bson:"description"`
		Questions   []Question `json:"questions" bson:"questions"`
		CreatedBy   string     `json:"created_by" bson:"created_by"`
		GroupID     string     `json:"group_id,omitempty" bson:"group_id,omitempty"`
		CreatedAt   time.Time  `json:"created_at" bson:"created_at"` // UTC
	}

	Answer struct {
		Question       int  `json:"question" bson:"question"`
		SelectedAnswer int  `json:"selected_answer" bson:"selected_answer"`
		IsCorrect      bool `json:"is_correct" bson:"is_correct"`
	}

	Result struct {
		ID          string    `json:"id" bson:"_id"`
		QuizID      string    `json:"quiz_id" bson:"quiz_id"`
		UserID      string    `json:"user_id" bson:"user_id"`
		Score       float64   `json:"score" bson:"score"` // percentage, 0-100
		Answers     []Answer  `json:"answers" bson:"answers"`
		CompletedAt time.Time `json:"completed_at" bson:"completed_at"` // UTC
	}

	// LeaderboardEntry is a per-user aggregate over all their quiz results.
	LeaderboardEntry struct {
		UserID       string  `json:"user_id" bson:"_id"`
		Username     string  `json:"username" bson:"username"`
		AverageScore float64 `json:"average_score" bson:"average_score"`
		QuizzesTaken int     `json:"quizzes_taken" bson:"quizzes_taken"`
	}
)

// NewQuiz contains information needed to create a new Quiz.
type NewQuiz struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions" validate:"required,min=1"`
	GroupID     string     `json:"group_id"`
}

func (nq *NewQuiz) Validate() error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)

	if err := core.Validate.Struct(nq); err != nil {
		return err
	}
	for i, q := range nq.Questions {
		if q.Text == "" || len(q.Options) < 2 {
			return core.NewValidationError(nil, core.FieldError{
				Field: "questions",
				Error: fmt.Sprintf("question %d is invalid: a question text and at least 2 options are required", i+1),
			})
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return core.NewValidationError(nil, core.FieldError{
				Field: "questions",
				Error: fmt.Sprintf("question %d has an invalid correct answer: index must be within options range", i+1),
			})
		}
	}
	return nil
}

// NewSubmission contains a user's answers to a quiz; answers are option
// indexes, one per question.
type NewSubmission struct {
	QuizID  string `json:"quiz_id" validate:"required"`
	Answers []int  `json:"answers" validate:"required"`
}

func (ns *NewSubmission) Validate() error { return core.Validate.Struct(ns) }
