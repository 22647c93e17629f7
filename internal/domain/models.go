package domain

import (
	"fmt"
	"strings"
	"time"
)

// PlaceholderMockupURL - заглушка, пока к посту не приложен настоящий макет.
const PlaceholderMockupURL = "https://placehold.co/400x300/e0e0e0/000000?text=Mockup+Pending"

// Status - состояние согласования поста.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// IsDecision сообщает, может ли ревьюер выставить этот статус.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Category - площадка, для которой написан текст.
type Category string

const (
	CategoryTweet     Category = "Tweet"
	CategoryLinkedIn  Category = "LinkedIn Post"
	CategoryTelegram  Category = "Telegram"
	CategoryBlogPromo Category = "Blog Promo"
)

// DefaultCategory используется, если автор не выбрал категорию.
const DefaultCategory = CategoryTweet

// Categories - все допустимые категории в порядке отображения.
var Categories = []Category{CategoryTweet, CategoryLinkedIn, CategoryTelegram, CategoryBlogPromo}

// ParseCategory приводит ввод к Category. Пустая строка даёт DefaultCategory.
func ParseCategory(raw string) (Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultCategory, nil
	}
	for _, c := range Categories {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, raw)
}

// Post представляет черновик, отправленный клиенту на согласование.
type Post struct {
	ID             string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Category       Category  `json:"category" gorm:"type:varchar(32);not null"`
	Status         Status    `json:"status" gorm:"type:varchar(16);not null;default:'Pending'"`
	ApprovedBy     string    `json:"approvedBy,omitempty" gorm:"type:varchar(255)"`
	MockupURL      string    `json:"mockupUrl" gorm:"type:text;not null"`
	IdempotencyKey *string   `json:"-" gorm:"type:varchar(255);uniqueIndex"`
	Comments       []Comment `json:"comments" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time `json:"createdAt" gorm:"not null;index"`
	LastUpdated    time.Time `json:"lastUpdated" gorm:"not null"`
	Seq            int64     `json:"-" gorm:"autoIncrement;uniqueIndex"` // порядок вставки, разбивает равные createdAt
}

// Comment представляет отзыв к посту. Самостоятельного жизненного цикла нет.
type Comment struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	PostID    string    `json:"-" gorm:"type:uuid;not null;index"`
	Seq       int64     `json:"-" gorm:"autoIncrement;uniqueIndex"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	UserID    string    `json:"userId" gorm:"type:varchar(255);not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

// Clone возвращает глубокую копию, чтобы вызывающие не делили срез комментариев.
func (p *Post) Clone() *Post {
	cp := *p
	cp.Comments = make([]Comment, len(p.Comments))
	copy(cp.Comments, p.Comments)
	if p.IdempotencyKey != nil {
		key := *p.IdempotencyKey
		cp.IdempotencyKey = &key
	}
	return &cp
}

// Role - явная роль сессии, подписанная провайдером идентичности.
type Role string

const (
	RoleWriter Role = "writer"
	RoleClient Role = "client"
)

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	return r == RoleWriter || r == RoleClient
}
