package dataloader

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

// CommentLoader собирает запросы комментариев по постам в один батч.
type CommentLoader struct {
	loader *dataloader.Loader
}

// NewCommentLoader создаёт лоадер без кэша: каждый снимок читает свежие данные.
func NewCommentLoader(store storage.Storage) *CommentLoader {
	// Создаем батч-функцию для лоадера
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		postIDs := keys.Keys()

		// Вызываем метод хранилища, который делает ОДИН запрос к БД
		commentsMap, err := store.GetCommentsByPostIDs(ctx, postIDs)
		if err != nil {
			// В случае ошибки, возвращаем ее для всех ключей
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Формируем результат в том же порядке, что и ключи
		results := make([]*dataloader.Result, len(keys))
		for i, postID := range postIDs {
			comments := commentsMap[postID]
			if comments == nil {
				comments = []domain.Comment{}
			}
			results[i] = &dataloader.Result{Data: comments}
		}
		return results
	}

	return &CommentLoader{
		loader: dataloader.NewBatchedLoader(batchFn,
			dataloader.WithWait(time.Millisecond*1),
			dataloader.WithCache(&dataloader.NoCache{}),
		),
	}
}

// Attach заполняет Comments у каждого поста одним батчем.
func (l *CommentLoader) Attach(ctx context.Context, posts []*domain.Post) error {
	if len(posts) == 0 {
		return nil
	}
	keys := make(dataloader.Keys, len(posts))
	for i, p := range posts {
		keys[i] = dataloader.StringKey(p.ID)
	}

	data, errs := l.loader.LoadMany(ctx, keys)()
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("failed to load comments: %w", err)
		}
	}
	for i, p := range posts {
		comments, ok := data[i].([]domain.Comment)
		if !ok {
			return fmt.Errorf("unexpected comment batch type %T", data[i])
		}
		p.Comments = comments
	}
	return nil
}
