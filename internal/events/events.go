package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	k "github.com/segmentio/kafka-go"
)

// Type - тип события жизненного цикла поста.
type Type string

const (
	PostCreated      Type = "post.created"
	PostEdited       Type = "post.edited"
	PostApprovalSet  Type = "post.approval_set"
	PostCommentAdded Type = "post.comment_added"
	PostDeleted      Type = "post.deleted"
)

// DefaultTopic - топик Kafka по умолчанию.
const DefaultTopic = "review.post-events"

// Event уходит во внешние системы (уведомления, аналитика).
type Event struct {
	Type      Type          `json:"type"`
	PostID    string        `json:"postId"`
	ActorID   string        `json:"actorId,omitempty"`
	Status    domain.Status `json:"status,omitempty"`
	CommentID string        `json:"commentId,omitempty"`
	At        time.Time     `json:"at"`
}

// Publisher отправляет события. Реализации должны быть безопасны
// для конкурентного использования.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop отбрасывает события; используется, когда Kafka не настроена.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// KafkaPublisher пишет события в Kafka, ключ - id поста,
// чтобы события одного поста попадали в одну партицию по порядку.
type KafkaPublisher struct {
	w *k.Writer
}

// NewKafkaPublisher создаёт асинхронного писателя.
// brokers - список адресов через запятую.
func NewKafkaPublisher(brokers, topic string) (*KafkaPublisher, error) {
	addrs := strings.Split(brokers, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}
	if len(addrs) == 0 || addrs[0] == "" {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &k.Writer{
		Addr:         k.TCP(addrs...),
		Topic:        topic,
		Balancer:     &k.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: k.RequireOne,
		Async:        true,
	}
	return &KafkaPublisher{w: w}, nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.w.WriteMessages(ctx, k.Message{
		Key:   []byte(ev.PostID),
		Value: value,
		Time:  ev.At,
	})
}
