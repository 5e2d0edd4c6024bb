package user

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"github.com/simp-lee/docbase/internal/domain"
	"github.com/simp-lee/docbase/internal/repository"
)

// CollectionName is the MongoDB collection holding users.
const CollectionName = "users"

// Fields accepted by the sort and search query parameters of user listings.
var (
	allowedSortFields   = []string{"id", "email", "first_name", "last_name", "status", "created_at", "updated_at"}
	allowedSearchFields = []string{"email", "first_name", "last_name"}
)

func repositoryOptions() repository.Options {
	return repository.Options{
		Name:         "User",
		SortFields:   allowedSortFields,
		SearchFields: allowedSearchFields,
	}
}

// NewGormRepository creates a UserRepository backed by the given GORM database.
func NewGormRepository(db *gorm.DB) domain.UserRepository {
	return repository.NewGormRepository[domain.User](db, repositoryOptions())
}

// NewMongoRepository creates a UserRepository backed by the users collection of db.
func NewMongoRepository(db *mongo.Database) domain.UserRepository {
	return repository.NewMongoRepository[domain.User](db.Collection(CollectionName), repositoryOptions())
}

// EnsureIndexes creates the users collection indexes. Email uniqueness covers
// soft-deleted users too, matching the unique index GORM migrates.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: domain.FieldDeletedAt, Value: 1}},
			Options: options.Index().SetName("deleted_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}
