package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopd-io/shopd/domain"
	serrors "github.com/shopd-io/shopd/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserRepository implements domain.UserRepository
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates a new UserRepository backed by MongoDB.
func NewUserRepository(ctx context.Context, db *mongo.Database) (domain.UserRepository, error) {
	repo := &UserRepository{
		users: db.Collection(UsersCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		// Index creation commonly fails when a compatible index already
		// exists; not fatal for startup.
		log.Warn().Err(err).Msg("Failed to create user indexes (might be due to existing compatible indexes or other non-critical issue)")
	}
	return repo, nil
}

func (r *UserRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(&options.Collation{Locale: "en", Strength: 2}), // Case-insensitive unique email
		},
	}

	if _, err := r.users.Indexes().CreateMany(ctx, indexModels, options.CreateIndexes()); err != nil {
		return fmt.Errorf("failed to create indexes for users collection: %w", err)
	}
	log.Info().Msg("Indexes for users collection ensured.")
	return nil
}

// CreateUser creates a new user. A duplicate email maps to ErrEmailTaken.
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = time.Now().UTC()

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return serrors.ErrEmailTaken
		}
		log.Error().Err(err).Msg("Error creating user in MongoDB")
		return err
	}
	return nil
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		log.Error().Err(err).Str("id", id).Msg("Error getting user by ID from MongoDB")
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when absent.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	opts := options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2})
	err := r.users.FindOne(ctx, bson.M{"email": email}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		log.Error().Err(err).Str("email", email).Msg("Error getting user by email from MongoDB")
		return nil, err
	}
	return &user, nil
}

// Ensure interface compliance
var _ domain.UserRepository = (*UserRepository)(nil)
