package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/quiz"
)

type quizRepository struct {
	quizzes *quizTable
	results *resultTable
	users   *userTable
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{quizzes: db.quiz, results: db.result, users: db.user}
}

func (repo *quizRepository) CreateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.quizzes.Lock()
	defer repo.quizzes.Unlock()

	if qz.ID == "" {
		qz.ID = uuid.New().String()
	}
	repo.quizzes.table[qz.ID] = &qz
	return qz, nil
}

func (repo *quizRepository) GetQuizByID(_ context.Context, id string) (quiz.Quiz, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()

	if qz, ok := repo.quizzes.table[id]; ok {
		return *qz, nil
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) QueryAllQuizzes(_ context.Context) ([]quiz.Quiz, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()

	quizzes := make([]quiz.Quiz, 0, len(repo.quizzes.table))
	for _, qz := range repo.quizzes.table {
		quizzes = append(quizzes, *qz)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt) })
	return quizzes, nil
}

func (repo *quizRepository) CountQuizzes(_ context.Context) (int64, error) {
	repo.quizzes.RLock()
	defer repo.quizzes.RUnlock()
	return int64(len(repo.quizzes.table)), nil
}

func (repo *quizRepository) CreateResult(_ context.Context, res quiz.Result) (quiz.Result, error) {
	repo.results.Lock()
	defer repo.results.Unlock()

	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	repo.results.table[res.ID] = &res
	return res, nil
}

func (repo *quizRepository) QueryLeaderboard(_ context.Context) ([]quiz.LeaderboardEntry, error) {
	repo.results.RLock()
	totals := make(map[string]*quiz.LeaderboardEntry)
	for _, res := range repo.results.table {
		entry, ok := totals[res.UserID]
		if !ok {
			entry = &quiz.LeaderboardEntry{UserID: res.UserID}
			totals[res.UserID] = entry
		}
		entry.AverageScore += res.Score
		entry.QuizzesTaken++
	}
	repo.results.RUnlock()

	repo.users.RLock()
	entries := make([]quiz.LeaderboardEntry, 0, len(totals))
	for _, entry := range totals {
		entry.AverageScore /= float64(entry.QuizzesTaken)
		if usr, ok := repo.users.table[entry.UserID]; ok {
			entry.Username = usr.Username
		}
		entries = append(entries, *entry)
	}
	repo.users.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].AverageScore > entries[j].AverageScore })
	return entries, nil
}

func (repo *quizRepository) DeleteResultsByUser(_ context.Context, userID string) error {
	repo.results.Lock()
	defer repo.results.Unlock()

	for id, res := range repo.results.table {
		if res.UserID == userID {
			delete(repo.results.table, id)
		}
	}
	return nil
}
