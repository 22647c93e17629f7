package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		notFound    bool
		unavailable bool
	}{
		{name: "nil", err: nil},
		{name: "record not found", err: gorm.ErrRecordNotFound, notFound: true},
		{name: "malformed id", err: &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}, notFound: true},
		{name: "wrapped malformed id", err: fmt.Errorf("query: %w", &pgconn.PgError{Code: "22P02"}), notFound: true},
		{name: "already not found", err: domain.ErrNotFound, notFound: true},
		{name: "other pg error", err: &pgconn.PgError{Code: "57P01"}, unavailable: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), unavailable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErr("missing", tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.notFound, errors.Is(got, domain.ErrNotFound))
			assert.Equal(t, tt.unavailable, errors.Is(got, domain.ErrStoreUnavailable))
		})
	}
}

// newTestStore подключается к базе из POSTGRES_TEST_DSN, без неё тест пропускается.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN is not set")
	}
	s, err := New(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_MalformedIDIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.GetPostByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.PatchApproval(ctx, "missing", storage.ApprovalPatch{
		Status: domain.StatusApproved, ApprovedBy: "client-1", LastUpdated: now,
	}), domain.ErrNotFound)
	assert.ErrorIs(t, s.ResubmitPost(ctx, "missing", storage.Resubmission{Content: "x", LastUpdated: now}), domain.ErrNotFound)
	assert.ErrorIs(t, s.AppendComment(ctx, "missing", domain.Comment{ID: "c1", Text: "x", Timestamp: now}, now), domain.ErrNotFound)
	assert.ErrorIs(t, s.RemovePost(ctx, "missing"), domain.ErrNotFound)
}

func TestStore_InsertReplayReturnsComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	key := uuid.NewString()

	newPost := func() *domain.Post {
		return &domain.Post{
			Content: "copy", Category: domain.CategoryTweet, Status: domain.StatusPending,
			MockupURL: domain.PlaceholderMockupURL, IdempotencyKey: &key,
			CreatedAt: now, LastUpdated: now,
		}
	}
	post, created, err := s.InsertPost(ctx, newPost())
	require.NoError(t, err)
	require.True(t, created)
	t.Cleanup(func() { _ = s.RemovePost(context.Background(), post.ID) })

	require.NoError(t, s.AppendComment(ctx, post.ID, domain.Comment{ID: uuid.NewString(), Text: "note", UserID: "client-1", Timestamp: now}, now))

	replay, created, err := s.InsertPost(ctx, newPost())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, post.ID, replay.ID)
	require.Len(t, replay.Comments, 1)
	assert.Equal(t, "note", replay.Comments[0].Text)
}
