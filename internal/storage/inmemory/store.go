package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu    sync.RWMutex
	posts map[string]*domain.Post
	byKey map[string]string // map[idempotencyKey]postID
	seq   int64
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts: make(map[string]*domain.Post),
		byKey: make(map[string]string),
	}
}

var _ storage.Storage = (*Store)(nil)

func notFound(id string) error {
	return fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
}

// === Post Methods ===

func (s *Store) InsertPost(ctx context.Context, post *domain.Post) (*domain.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.IdempotencyKey != nil {
		if id, ok := s.byKey[*post.IdempotencyKey]; ok {
			return s.posts[id].Clone(), false, nil
		}
	}

	stored := post.Clone()
	stored.ID = uuid.NewString()
	s.seq++
	stored.Seq = s.seq
	s.posts[stored.ID] = stored
	if stored.IdempotencyKey != nil {
		s.byKey[*stored.IdempotencyKey] = stored.ID
	}
	return stored.Clone(), true, nil
}

func (s *Store) PatchApproval(ctx context.Context, postID string, patch storage.ApprovalPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return notFound(postID)
	}
	post.Status = patch.Status
	post.ApprovedBy = patch.ApprovedBy
	post.LastUpdated = patch.LastUpdated
	return nil
}

func (s *Store) ResubmitPost(ctx context.Context, postID string, r storage.Resubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return notFound(postID)
	}
	post.Content = r.Content
	if r.Category != "" {
		post.Category = r.Category
	}
	post.Status = domain.StatusPending
	post.ApprovedBy = ""
	post.MockupURL = r.MockupURL
	post.Comments = []domain.Comment{}
	post.LastUpdated = r.LastUpdated
	return nil
}

func (s *Store) RemovePost(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return notFound(postID)
	}
	if post.IdempotencyKey != nil {
		delete(s.byKey, *post.IdempotencyKey)
	}
	delete(s.posts, postID)
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, notFound(id)
	}
	return post.Clone(), nil
}

func (s *Store) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allPosts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		cp := p.Clone()
		cp.Comments = nil
		allPosts = append(allPosts, cp)
	}

	// От новых к старым; при равном времени позже вставленный идёт первым
	sort.Slice(allPosts, func(i, j int) bool {
		if !allPosts[i].CreatedAt.Equal(allPosts[j].CreatedAt) {
			return allPosts[i].CreatedAt.After(allPosts[j].CreatedAt)
		}
		return allPosts[i].Seq > allPosts[j].Seq
	})
	return allPosts, nil
}

// === Comment Methods ===

func (s *Store) AppendComment(ctx context.Context, postID string, comment domain.Comment, lastUpdated time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return notFound(postID)
	}
	comment.PostID = postID
	s.seq++
	comment.Seq = s.seq
	post.Comments = append(post.Comments, comment)
	post.LastUpdated = lastUpdated
	return nil
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string][]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]domain.Comment, len(postIDs))
	for _, id := range postIDs {
		post, ok := s.posts[id]
		if !ok {
			continue
		}
		comments := make([]domain.Comment, len(post.Comments))
		copy(comments, post.Comments)
		results[id] = comments
	}
	return results, nil
}
