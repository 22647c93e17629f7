package storage

import (
	"context"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
)

// ApprovalPatch - скалярные поля, которые меняет решение ревьюера.
type ApprovalPatch struct {
	Status      domain.Status
	ApprovedBy  string
	LastUpdated time.Time
}

// Resubmission - перезапись поста после правки автором.
// Хранилище сбрасывает статус в Pending, очищает approvedBy и комментарии.
// Пустая Category оставляет категорию поста прежней.
type Resubmission struct {
	Content     string
	Category    domain.Category
	MockupURL   string
	LastUpdated time.Time
}

// Storage определяет контракт для хранилищ постов.
//
// Все методы, адресующие пост по id, возвращают ошибку, обёрнутую вокруг
// domain.ErrNotFound, если поста нет. Ошибки транспорта оборачивают
// domain.ErrStoreUnavailable.
type Storage interface {
	// InsertPost сохраняет новый пост. Если у поста задан IdempotencyKey и
	// пост с таким ключом уже есть, возвращается существующий и false.
	InsertPost(ctx context.Context, post *domain.Post) (*domain.Post, bool, error)
	PatchApproval(ctx context.Context, postID string, patch ApprovalPatch) error
	ResubmitPost(ctx context.Context, postID string, r Resubmission) error
	// AppendComment атомарно добавляет комментарий в конец списка.
	AppendComment(ctx context.Context, postID string, comment domain.Comment, lastUpdated time.Time) error
	RemovePost(ctx context.Context, postID string) error

	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	// ListPosts возвращает посты без комментариев, от новых к старым.
	ListPosts(ctx context.Context) ([]*domain.Post, error)

	// Метод для Dataloader'а
	GetCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string][]domain.Comment, error)
}
