package dataloader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/storage"
	"github.com/UkralStul/content-approval-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	storage.Storage
	calls int
	err   error
}

func (c *countingStore) GetCommentsByPostIDs(ctx context.Context, ids []string) (map[string][]domain.Comment, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Storage.GetCommentsByPostIDs(ctx, ids)
}

func TestCommentLoader_AttachBatches(t *testing.T) {
	ctx := context.Background()
	mem := inmemory.New()

	a, _, err := mem.InsertPost(ctx, &domain.Post{Content: "a"})
	require.NoError(t, err)
	b, _, err := mem.InsertPost(ctx, &domain.Post{Content: "b"})
	require.NoError(t, err)
	require.NoError(t, mem.AppendComment(ctx, a.ID, domain.Comment{ID: "c1", Text: "first"}, time.Now()))
	require.NoError(t, mem.AppendComment(ctx, a.ID, domain.Comment{ID: "c2", Text: "second"}, time.Now()))

	store := &countingStore{Storage: mem}
	posts, err := store.ListPosts(ctx)
	require.NoError(t, err)

	require.NoError(t, NewCommentLoader(store).Attach(ctx, posts))
	assert.Equal(t, 1, store.calls)

	byID := map[string]*domain.Post{}
	for _, p := range posts {
		byID[p.ID] = p
	}
	require.Len(t, byID[a.ID].Comments, 2)
	assert.Equal(t, "c1", byID[a.ID].Comments[0].ID)
	assert.NotNil(t, byID[b.ID].Comments)
	assert.Empty(t, byID[b.ID].Comments)
}

func TestCommentLoader_PropagatesStoreError(t *testing.T) {
	ctx := context.Background()
	mem := inmemory.New()
	_, _, err := mem.InsertPost(ctx, &domain.Post{Content: "a"})
	require.NoError(t, err)

	store := &countingStore{Storage: mem, err: errors.New("boom")}
	posts, err := store.ListPosts(ctx)
	require.NoError(t, err)

	err = NewCommentLoader(store).Attach(ctx, posts)
	assert.Error(t, err)
}
