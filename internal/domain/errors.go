package domain

import "errors"

var (
	// ErrValidation - пустой текст, неизвестная категория или решение.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound - пост удалён или никогда не существовал.
	ErrNotFound = errors.New("post not found")
	// ErrStoreUnavailable - хранилище недоступно (сеть, драйвер, авторизация).
	ErrStoreUnavailable = errors.New("post store unavailable")
	// ErrAuthNotReady - личность сессии ещё не установлена.
	ErrAuthNotReady = errors.New("identity not established")
	// ErrForbidden - у роли сессии нет прав на операцию.
	ErrForbidden = errors.New("operation not permitted for role")
)
