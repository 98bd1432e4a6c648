package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	col *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{col: db.Collection(usersCollection)}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	filter := bson.M{"_id": bson.M{"$nin": exclIDs}}

	if username != "" {
		filter["username"] = username
		n, err := repo.col.CountDocuments(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "counting users by username")
		}
		if n > 0 {
			return user.ErrUsernameExists
		}
		delete(filter, "username")
	}
	if email != "" {
		filter["email"] = email
		n, err := repo.col.CountDocuments(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "counting users by email")
		}
		if n > 0 {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	if _, err := repo.col.InsertOne(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := repo.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var users []user.User
	if err = cur.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.get(ctx, bson.M{"_id": id})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.get(ctx, bson.M{"email": email})
}

func (repo *userRepository) get(ctx context.Context, filter bson.M) (user.User, error) {
	var usr user.User
	if err := repo.col.FindOne(ctx, filter).Decode(&usr); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUserIDs(ctx context.Context, role string) ([]string, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	cur, err := repo.col.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying user ids")
	}
	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding user id")
		}
		ids = append(ids, doc.ID)
	}
	return ids, errors.Wrap(cur.Err(), "iterating user ids")
}

func (repo *userRepository) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	n, err := repo.col.CountDocuments(ctx, filter)
	return n, errors.Wrap(err, "counting users")
}

func (repo *userRepository) SetUserDisabled(ctx context.Context, id string, disabled bool) error {
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"is_disabled": disabled, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return errors.Wrap(err, "disabling user")
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) SetUserPassword(ctx context.Context, id string, hash []byte) error {
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return errors.Wrap(err, "setting user password")
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	_, err := repo.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login": t}})
	return errors.Wrap(err, "setting last login")
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := repo.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}
