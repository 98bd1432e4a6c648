package mongodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/quiz"
)

type quizRepository struct {
	quizzes *mongo.Collection
	results *mongo.Collection
	users   *mongo.Collection
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *mongo.Database) quiz.Repository {
	return &quizRepository{
		quizzes: db.Collection(quizzesCollection),
		results: db.Collection(quizResultsCollection),
		users:   db.Collection(usersCollection),
	}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	if qz.ID == "" {
		qz.ID = uuid.New().String()
	}
	if _, err := repo.quizzes.InsertOne(ctx, qz); err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return qz, nil
}

func (repo *quizRepository) GetQuizByID(ctx context.Context, id string) (quiz.Quiz, error) {
	var qz quiz.Quiz
	if err := repo.quizzes.FindOne(ctx, bson.M{"_id": id}).Decode(&qz); err != nil {
		if err == mongo.ErrNoDocuments {
			return quiz.Quiz{}, quiz.ErrNotFound
		}
		return quiz.Quiz{}, errors.Wrap(err, "finding quiz")
	}
	return qz, nil
}

func (repo *quizRepository) QueryAllQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.quizzes.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	var quizzes []quiz.Quiz
	if err = cur.All(ctx, &quizzes); err != nil {
		return nil, errors.Wrap(err, "decoding quizzes")
	}
	return quizzes, nil
}

func (repo *quizRepository) CountQuizzes(ctx context.Context) (int64, error) {
	n, err := repo.quizzes.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "counting quizzes")
}

func (repo *quizRepository) CreateResult(ctx context.Context, res quiz.Result) (quiz.Result, error) {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if _, err := repo.results.InsertOne(ctx, res); err != nil {
		return quiz.Result{}, errors.Wrap(err, "inserting quiz result")
	}
	return res, nil
}

// QueryLeaderboard groups results per user, averages scores and joins in
// the username, descending by average score.
func (repo *quizRepository) QueryLeaderboard(ctx context.Context) ([]quiz.LeaderboardEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":           "$user_id",
			"average_score": bson.M{"$avg": "$score"},
			"quizzes_taken": bson.M{"$sum": 1},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"username":      "$user.username",
			"average_score": 1,
			"quizzes_taken": 1,
		}}},
		{{Key: "$sort", Value: bson.M{"average_score": -1}}},
	}

	cur, err := repo.results.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "aggregating leaderboard")
	}
	var entries []quiz.LeaderboardEntry
	if err = cur.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(err, "decoding leaderboard")
	}
	return entries, nil
}

func (repo *quizRepository) DeleteResultsByUser(ctx context.Context, userID string) error {
	_, err := repo.results.DeleteMany(ctx, bson.M{"user_id": userID})
	return errors.Wrap(err, "deleting quiz results")
}
