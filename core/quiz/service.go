package quiz

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("quiz not found")
)

type (
	Repository interface {
		CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		GetQuizByID(ctx context.Context, id string) (Quiz, error)
		// QueryAllQuizzes returns all quizzes, newest first.
		QueryAllQuizzes(ctx context.Context) ([]Quiz, error)
		CountQuizzes(ctx context.Context) (int64, error)
		CreateResult(ctx context.Context, res Result) (Result, error)
		// QueryLeaderboard aggregates results per user: average score and
		// number of quizzes taken, ordered by average score descending.
		QueryLeaderboard(ctx context.Context) ([]LeaderboardEntry, error)
		DeleteResultsByUser(ctx context.Context, userID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nq NewQuiz, createdBy string) (Quiz, error) {
	qz := Quiz{
		Title:       nq.Title,
		Description: nq.Description,
		Questions:   nq.Questions,
		CreatedBy:   createdBy,
		GroupID:     nq.GroupID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateQuiz(ctx, qz)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuizByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Quiz, error) {
	return svc.repo.QueryAllQuizzes(ctx)
}

func (svc *Service) Count(ctx context.Context) (int64, error) {
	return svc.repo.CountQuizzes(ctx)
}

// Submit grades the submission against the quiz's correct answers and
// persists the result. Retakes are always allowed; every submission creates
// a new result.
func (svc *Service) Submit(ctx context.Context, ns NewSubmission, userID string) (Result, error) {
	qz, err := svc.repo.GetQuizByID(ctx, ns.QuizID)
	if err != nil {
		return Result{}, err
	}

	var score int
	answers := make([]Answer, 0, len(ns.Answers))
	for i, ans := range ns.Answers {
		if i >= len(qz.Questions) {
			break
		}
		correct := ans == qz.Questions[i].CorrectAnswer
		if correct {
			score++
		}
		answers = append(answers, Answer{Question: i, SelectedAnswer: ans, IsCorrect: correct})
	}

	res := Result{
		QuizID:      qz.ID,
		UserID:      userID,
		Score:       float64(score) / float64(len(qz.Questions)) * 100,
		Answers:     answers,
		CompletedAt: time.Now().UTC(),
	}
	return svc.repo.CreateResult(ctx, res)
}

func (svc *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	return svc.repo.QueryLeaderboard(ctx)
}

func (svc *Service) DeleteResultsByUser(ctx context.Context, userID string) error {
	return svc.repo.DeleteResultsByUser(ctx, userID)
}
