package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/shopd-io/shopd/domain"
)

// setupTestDB connects to the MongoDB instance named by TEST_MONGO_URI and
// hands back an isolated throwaway database. Tests are skipped when the
// variable is unset so the suite stays runnable without infrastructure.
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping MongoDB integration test")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	dbName := fmt.Sprintf("shopd_test_%s", uuid.NewString()[:8])
	db := client.Database(dbName)

	t.Cleanup(func() {
		cleanupCtx, cancelCleanup := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelCleanup()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})

	return db
}

func TestSessionRepository_StoreAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewSessionRepositoryMongo(ctx, db)
	require.NoError(t, err)

	session := &domain.Session{UserID: "user-1", UserAgent: "test-agent/1.0"}
	require.NoError(t, repo.StoreSession(ctx, session))
	assert.NotEmpty(t, session.ID)
	assert.True(t, session.Valid)

	got, err := repo.GetSessionByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "test-agent/1.0", got.UserAgent)
	assert.True(t, got.Valid)
}

func TestSessionRepository_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewSessionRepositoryMongo(ctx, db)
	require.NoError(t, err)

	got, err := repo.GetSessionByID(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepository_Invalidate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewSessionRepositoryMongo(ctx, db)
	require.NoError(t, err)

	session := &domain.Session{UserID: "user-1"}
	require.NoError(t, repo.StoreSession(ctx, session))

	require.NoError(t, repo.Invalidate(ctx, session.ID))

	got, err := repo.GetSessionByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Valid)

	// Idempotent, and never resurrects the session.
	require.NoError(t, repo.Invalidate(ctx, session.ID))
	got, err = repo.GetSessionByID(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, got.Valid)

	// Unknown sessions are a no-op.
	require.NoError(t, repo.Invalidate(ctx, "does-not-exist"))
}

func TestSessionRepository_ListActiveByUserID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewSessionRepositoryMongo(ctx, db)
	require.NoError(t, err)

	first := &domain.Session{UserID: "user-1", UserAgent: "first"}
	require.NoError(t, repo.StoreSession(ctx, first))
	second := &domain.Session{UserID: "user-1", UserAgent: "second"}
	second.CreatedAt = time.Now().UTC().Add(time.Second)
	require.NoError(t, repo.StoreSession(ctx, second))
	other := &domain.Session{UserID: "user-2"}
	require.NoError(t, repo.StoreSession(ctx, other))

	require.NoError(t, repo.Invalidate(ctx, first.ID))

	sessions, err := repo.ListActiveByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.ID, sessions[0].ID)

	sessions, err = repo.ListActiveByUserID(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
