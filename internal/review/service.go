package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/content-approval-service/internal/dataloader"
	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/events"
	"github.com/UkralStul/content-approval-service/internal/feed"
	"github.com/UkralStul/content-approval-service/internal/metrics"
	"github.com/UkralStul/content-approval-service/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChangeNotifier получает сигнал после каждой успешной записи.
type ChangeNotifier interface {
	Notify(ctx context.Context) error
}

// Subscriber отдаёт живую ленту снимков.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan feed.Snapshot, error)
}

// Service - движок жизненного цикла поста. Собственного состояния не держит:
// всё авторитетное лежит в хранилище.
type Service struct {
	store     storage.Storage
	notifier  ChangeNotifier
	feed      Subscriber
	publisher events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithPublisher задаёт издателя событий.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock подменяет часы (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New собирает движок. notifier и feed обычно один и тот же *feed.Broker,
// при нескольких инстансах notifier - *feed.RedisNotifier.
func New(store storage.Storage, notifier ChangeNotifier, sub Subscriber, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		notifier:  notifier,
		feed:      sub,
		publisher: events.Nop{},
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput - данные нового поста.
type CreateInput struct {
	Content        string
	Category       string
	IdempotencyKey string
}

// Create сохраняет новый пост в статусе Pending.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Post, error) {
	const op = "create"

	content, category, err := validateCopy(in.Content, in.Category)
	if err != nil {
		return nil, s.fail(op, "", err)
	}

	now := s.now()
	post := &domain.Post{
		Content:     content,
		Category:    category,
		Status:      domain.StatusPending,
		MockupURL:   domain.PlaceholderMockupURL,
		Comments:    []domain.Comment{},
		CreatedAt:   now,
		LastUpdated: now,
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		post.IdempotencyKey = &key
	}

	stored, created, err := s.store.InsertPost(ctx, post)
	if err != nil {
		return nil, s.fail(op, "", err)
	}
	if !created {
		s.log.WithFields(logrus.Fields{"op": op, "post_id": stored.ID}).Info("idempotent retry, returning existing post")
		metrics.Operations.WithLabelValues(op, "replayed").Inc()
		return stored, nil
	}

	s.done(ctx, op, events.Event{Type: events.PostCreated, PostID: stored.ID, Status: stored.Status, At: now})
	return stored, nil
}

// Edit перезаписывает текст и категорию. Правка - это повторная отправка
// на согласование: статус Pending, approvedBy, макет и комментарии сброшены.
// Пустая category оставляет категорию поста без изменений.
func (s *Service) Edit(ctx context.Context, postID, content, category string) error {
	const op = "edit"

	c, cat, err := validateCopy(content, category)
	if err != nil {
		return s.fail(op, postID, err)
	}
	// Без категории правка сохраняет текущую
	if strings.TrimSpace(category) == "" {
		cat = ""
	}

	now := s.now()
	err = s.store.ResubmitPost(ctx, postID, storage.Resubmission{
		Content:     c,
		Category:    cat,
		MockupURL:   domain.PlaceholderMockupURL,
		LastUpdated: now,
	})
	if err != nil {
		return s.fail(op, postID, err)
	}

	s.done(ctx, op, events.Event{Type: events.PostEdited, PostID: postID, Status: domain.StatusPending, At: now})
	return nil
}

// SetApproval выставляет решение ревьюера. Ограничений на переходы нет,
// побеждает последняя запись.
func (s *Service) SetApproval(ctx context.Context, postID, reviewerID string, decision domain.Status) error {
	const op = "set_approval"

	if !decision.IsDecision() {
		return s.fail(op, postID, fmt.Errorf("%w: decision must be %s or %s, got %q",
			domain.ErrValidation, domain.StatusApproved, domain.StatusRejected, decision))
	}
	if reviewerID == "" {
		return s.fail(op, postID, domain.ErrAuthNotReady)
	}

	now := s.now()
	err := s.store.PatchApproval(ctx, postID, storage.ApprovalPatch{
		Status:      decision,
		ApprovedBy:  reviewerID,
		LastUpdated: now,
	})
	if err != nil {
		return s.fail(op, postID, err)
	}

	s.done(ctx, op, events.Event{Type: events.PostApprovalSet, PostID: postID, ActorID: reviewerID, Status: decision, At: now})
	return nil
}

// AddComment добавляет комментарий в конец списка, статус не меняется.
func (s *Service) AddComment(ctx context.Context, postID, authorID, text string) (*domain.Comment, error) {
	const op = "add_comment"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, s.fail(op, postID, fmt.Errorf("%w: comment text cannot be empty", domain.ErrValidation))
	}
	if authorID == "" {
		return nil, s.fail(op, postID, domain.ErrAuthNotReady)
	}

	now := s.now()
	comment := domain.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		UserID:    authorID,
		Timestamp: now,
	}
	if err := s.store.AppendComment(ctx, postID, comment, now); err != nil {
		return nil, s.fail(op, postID, err)
	}

	s.done(ctx, op, events.Event{Type: events.PostCommentAdded, PostID: postID, ActorID: authorID, CommentID: comment.ID, At: now})
	comment.PostID = postID
	return &comment, nil
}

// Delete безвозвратно удаляет пост вместе с комментариями.
// Подтверждение - забота вызывающего.
func (s *Service) Delete(ctx context.Context, postID string) error {
	const op = "delete"

	if err := s.store.RemovePost(ctx, postID); err != nil {
		return s.fail(op, postID, err)
	}
	s.done(ctx, op, events.Event{Type: events.PostDeleted, PostID: postID, At: s.now()})
	return nil
}

// Get возвращает пост с комментариями.
func (s *Service) Get(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, s.fail("get", postID, err)
	}
	return post, nil
}

// Snapshot возвращает все посты от новых к старым вместе с комментариями.
func (s *Service) Snapshot(ctx context.Context) ([]domain.Post, error) {
	posts, err := LoadSnapshot(s.store)(ctx)
	if err != nil {
		return nil, s.fail("snapshot", "", err)
	}
	return posts, nil
}

// Subscribe отдаёт ленту снимков без изменений. Личность не требуется.
func (s *Service) Subscribe(ctx context.Context) (<-chan feed.Snapshot, error) {
	return s.feed.Subscribe(ctx)
}

// LoadSnapshot строит feed.Source поверх хранилища. Комментарии
// подгружаются одним батчем через dataloader.
func LoadSnapshot(store storage.Storage) feed.Source {
	return func(ctx context.Context) ([]domain.Post, error) {
		posts, err := store.ListPosts(ctx)
		if err != nil {
			return nil, err
		}
		if err := dataloader.NewCommentLoader(store).Attach(ctx, posts); err != nil {
			return nil, err
		}
		out := make([]domain.Post, len(posts))
		for i, p := range posts {
			out[i] = *p
		}
		return out, nil
	}
}

func validateCopy(content, category string) (string, domain.Category, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", fmt.Errorf("%w: content cannot be empty", domain.ErrValidation)
	}
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return "", "", err
	}
	return content, cat, nil
}

// done вызывается после успешной записи: метрика, событие, сигнал ленте.
// Запись уже в хранилище, поэтому сбои события и сигнала только логируются.
func (s *Service) done(ctx context.Context, op string, ev events.Event) {
	metrics.Operations.WithLabelValues(op, "ok").Inc()
	log := s.log.WithFields(logrus.Fields{"op": op, "post_id": ev.PostID})

	if err := s.publisher.Publish(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(string(ev.Type), "error").Inc()
		log.WithError(err).Warn("failed to publish lifecycle event")
	} else {
		metrics.EventsPublished.WithLabelValues(string(ev.Type), "ok").Inc()
	}

	if err := s.notifier.Notify(ctx); err != nil {
		log.WithError(err).Warn("failed to notify feed")
	}
	log.Debug("post updated")
}

func (s *Service) fail(op, postID string, err error) error {
	metrics.Operations.WithLabelValues(op, resultLabel(err)).Inc()
	log := s.log.WithFields(logrus.Fields{"op": op, "post_id": postID}).WithError(err)
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAuthNotReady):
		log.Info("operation rejected")
	default:
		log.Error("operation failed")
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAuthNotReady):
		return "auth_not_ready"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
