package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopd-io/shopd/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SessionRepositoryMongo implements the domain.SessionRepository interface using MongoDB.
type SessionRepositoryMongo struct {
	collection *mongo.Collection
}

// NewSessionRepositoryMongo creates a new SessionRepositoryMongo.
// It also ensures that necessary indexes are created on the collection.
func NewSessionRepositoryMongo(ctx context.Context, db *mongo.Database) (domain.SessionRepository, error) {
	repo := &SessionRepositoryMongo{
		collection: db.Collection(SessionsCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index(), // Not unique, user can have multiple sessions
		},
		{
			Keys:    bson.D{{Key: "valid", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels, options.CreateIndexes()); err != nil {
		log.Warn().Err(err).Msg("Issue creating indexes for sessions collection (might already exist or other error)")
	} else {
		log.Info().Msg("Indexes for sessions collection ensured.")
	}

	return repo, nil
}

// StoreSession persists a new session with valid=true.
func (r *SessionRepositoryMongo) StoreSession(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	session.Valid = true

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		log.Error().Err(err).Msg("Error storing session in MongoDB")
		return err
	}
	return nil
}

// GetSessionByID retrieves a session by its primary ID.
func (r *SessionRepositoryMongo) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		log.Error().Err(err).Str("id", id).Msg("Error getting session by ID from MongoDB")
		return nil, err
	}
	return &session, nil
}

// ListActiveByUserID retrieves the sessions for a user that are still valid,
// newest first.
func (r *SessionRepositoryMongo) ListActiveByUserID(ctx context.Context, userID string) ([]*domain.Session, error) {
	filter := bson.M{"user_id": userID, "valid": true}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error listing sessions by user ID from MongoDB")
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*domain.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		log.Error().Err(err).Msg("Error decoding listed sessions from MongoDB")
		return nil, err
	}
	return sessions, nil
}

// Invalidate flips a session's valid flag to false. The update is a one-way
// transition: it never sets valid back to true, and invalidating a missing
// or already-invalid session is a no-op rather than an error.
func (r *SessionRepositoryMongo) Invalidate(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{
		"valid":      false,
		"updated_at": time.Now().UTC(),
	}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		log.Error().Err(err).Str("sessionID", id).Msg("Error invalidating session in MongoDB")
		return err
	}
	return nil
}

// Ensure interface compliance
var _ domain.SessionRepository = (*SessionRepositoryMongo)(nil)
