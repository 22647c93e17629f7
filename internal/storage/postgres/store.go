package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
// Комментарии лежат в отдельной append-only таблице, поэтому добавление
// комментария - одна вставка, а не перезапись всего списка.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string, logLevel logger.LogLevel) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.Post{}, &domain.Comment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// invalidTextRepresentation - SQLSTATE, с которым PostgreSQL отвергает
// id, не являющийся UUID. Для клиента такой пост просто не существует.
const invalidTextRepresentation = "22P02"

// mapErr приводит ошибки GORM к доменной таксономии.
func mapErr(id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// === Post Methods ===

func (s *Store) InsertPost(ctx context.Context, post *domain.Post) (*domain.Post, bool, error) {
	stored := post.Clone()
	stored.ID = ""
	stored.Comments = nil

	if stored.IdempotencyKey == nil {
		if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(stored).Error; err != nil {
			return nil, false, mapErr("", err)
		}
		stored.Comments = []domain.Comment{}
		return stored, true, nil
	}

	// Уникальный индекс по ключу: повтор запроса вернёт ранее созданный пост
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "idempotency_key"}}, DoNothing: true}).
		Create(stored)
	if res.Error != nil {
		return nil, false, mapErr("", res.Error)
	}
	if res.RowsAffected == 1 {
		stored.Comments = []domain.Comment{}
		return stored, true, nil
	}

	var existing domain.Post
	if err := s.db.WithContext(ctx).First(&existing, "idempotency_key = ?", *post.IdempotencyKey).Error; err != nil {
		return nil, false, mapErr("", err)
	}
	comments, err := s.commentsFor(ctx, s.db, existing.ID)
	if err != nil {
		return nil, false, mapErr(existing.ID, err)
	}
	existing.Comments = comments
	return &existing, false, nil
}

func (s *Store) PatchApproval(ctx context.Context, postID string, patch storage.ApprovalPatch) error {
	res := s.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", postID).Updates(map[string]any{
		"status":       patch.Status,
		"approved_by":  patch.ApprovedBy,
		"last_updated": patch.LastUpdated,
	})
	if res.Error != nil {
		return mapErr(postID, res.Error)
	}
	if res.RowsAffected == 0 {
		return mapErr(postID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) ResubmitPost(ctx context.Context, postID string, r storage.Resubmission) error {
	// Используем транзакцию: перезапись полей и очистка комментариев видны разом
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{
			"content":      r.Content,
			"status":       domain.StatusPending,
			"approved_by":  "",
			"mockup_url":   r.MockupURL,
			"last_updated": r.LastUpdated,
		}
		if r.Category != "" {
			fields["category"] = r.Category
		}
		res := tx.Model(&domain.Post{}).Where("id = ?", postID).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("post_id = ?", postID).Delete(&domain.Comment{}).Error
	})
	return mapErr(postID, err)
}

func (s *Store) RemovePost(ctx context.Context, postID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Post{}, "id = ?", postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapErr(postID, err)
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		// GORM возвращает gorm.ErrRecordNotFound, если запись не найдена
		return nil, mapErr(id, err)
	}
	comments, err := s.commentsFor(ctx, s.db, id)
	if err != nil {
		return nil, mapErr(id, err)
	}
	post.Comments = comments
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("seq DESC").Find(&posts).Error
	if err != nil {
		return nil, mapErr("", err)
	}
	return posts, nil
}

// === Comment Methods ===

func (s *Store) AppendComment(ctx context.Context, postID string, comment domain.Comment, lastUpdated time.Time) error {
	comment.PostID = postID
	comment.Seq = 0

	// Блокируем строку поста, чтобы не вставить комментарий к удаляемому посту
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post domain.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, "id = ?", postID).Error; err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Post{}).Where("id = ?", postID).Update("last_updated", lastUpdated).Error
	})
	return mapErr(postID, err)
}

func (s *Store) commentsFor(ctx context.Context, db *gorm.DB, postID string) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	err := db.WithContext(ctx).Where("post_id = ?", postID).Order("seq ASC").Find(&comments).Error
	return comments, err
}

// === Dataloader Method ===

func (s *Store) GetCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string][]domain.Comment, error) {
	var comments []domain.Comment
	// Загружаем комментарии для всех переданных постов одним запросом
	err := s.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("post_id, seq ASC").
		Find(&comments).Error
	if err != nil {
		return nil, mapErr("", err)
	}

	// Группируем результаты в карту map[postID][]Comment
	result := make(map[string][]domain.Comment, len(postIDs))
	for _, c := range comments {
		result[c.PostID] = append(result[c.PostID], c)
	}
	return result, nil
}
