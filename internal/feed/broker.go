package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Snapshot - полный упорядоченный набор постов на момент сборки.
// Подписчик заменяет им своё состояние целиком, диффов нет.
type Snapshot struct {
	Version uint64        `json:"version"`
	TakenAt time.Time     `json:"takenAt"`
	Posts   []domain.Post `json:"posts"`
}

// Source собирает актуальный снимок из хранилища.
type Source func(ctx context.Context) ([]domain.Post, error)

// Broker хранит каналы подписчиков и рассылает им снимки.
type Broker struct {
	source Source
	log    logrus.FieldLogger

	// refreshMu упорядочивает сборку и рассылку снимков
	refreshMu sync.Mutex
	version   uint64

	mu sync.RWMutex
	//   map[subscriberID] channel
	subs map[string]chan Snapshot
}

// NewBroker - конструктор брокера.
func NewBroker(source Source, log logrus.FieldLogger) *Broker {
	return &Broker{
		source: source,
		log:    log,
		subs:   make(map[string]chan Snapshot),
	}
}

// Subscribe регистрирует подписчика и сразу кладёт в канал текущий снимок.
// Канал закрывается после отмены ctx.
func (b *Broker) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	b.refreshMu.Lock()
	snap, err := b.build(ctx)
	if err != nil {
		b.refreshMu.Unlock()
		return nil, err
	}

	ch := make(chan Snapshot, 1)
	ch <- snap
	subID := uuid.NewString()

	b.mu.Lock()
	b.subs[subID] = ch
	count := len(b.subs)
	b.mu.Unlock()
	b.refreshMu.Unlock()

	metrics.FeedSubscribers.Set(float64(count))
	b.log.WithField("subscriber_id", subID).Debug("feed subscriber added")

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, subID)
		close(ch)
		count := len(b.subs)
		b.mu.Unlock()
		metrics.FeedSubscribers.Set(float64(count))
		b.log.WithField("subscriber_id", subID).Debug("feed subscriber removed")
	}()

	return ch, nil
}

// Refresh пересобирает снимок и рассылает его всем подписчикам.
func (b *Broker) Refresh(ctx context.Context) error {
	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()

	b.mu.RLock()
	idle := len(b.subs) == 0
	b.mu.RUnlock()
	if idle {
		return nil
	}

	snap, err := b.build(ctx)
	if err != nil {
		return err
	}

	b.mu.RLock()
	for _, ch := range b.subs {
		offer(ch, snap)
	}
	b.mu.RUnlock()
	metrics.FeedBroadcasts.Inc()
	return nil
}

// Notify реализует review.ChangeNotifier для одного процесса.
func (b *Broker) Notify(ctx context.Context) error {
	return b.Refresh(ctx)
}

// Subscribers возвращает число активных подписчиков.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) build(ctx context.Context) (Snapshot, error) {
	posts, err := b.source(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to build snapshot: %w", err)
	}
	b.version++
	return Snapshot{Version: b.version, TakenAt: time.Now().UTC(), Posts: posts}, nil
}

// offer кладёт снимок в канал, вытесняя непрочитанный устаревший.
// Медленный клиент пропускает промежуточные снимки, но не тормозит запись.
func offer(ch chan Snapshot, s Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
