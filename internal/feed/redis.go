package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannel - канал Redis, в который инстансы сообщают об изменениях.
const DefaultChannel = "review:posts:changed"

// OpenRedis подключается к Redis и проверяет соединение.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisNotifier рассылает сигнал об изменении всем инстансам сервиса.
// Каждый инстанс по сигналу сам пересобирает снимок из общего хранилища.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	local   *Broker
	log     logrus.FieldLogger
}

// NewRedisNotifier - конструктор. Пустой channel заменяется DefaultChannel.
// local обновляется напрямую, если Redis недоступен.
func NewRedisNotifier(rdb *redis.Client, channel string, local *Broker, log logrus.FieldLogger) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{rdb: rdb, channel: channel, local: local, log: log}
}

// Notify публикует сигнал в канал. Если публикация не прошла, подписчики
// этого инстанса всё равно получают снимок, а ошибка возвращается:
// остальные инстансы изменение не увидят до следующего сигнала.
func (n *RedisNotifier) Notify(ctx context.Context) error {
	err := n.rdb.Publish(ctx, n.channel, time.Now().UTC().Format(time.RFC3339Nano)).Err()
	if err == nil {
		return nil
	}
	err = fmt.Errorf("redis publish: %w", err)
	if n.local != nil {
		if rerr := n.local.Refresh(ctx); rerr != nil {
			return errors.Join(err, rerr)
		}
	}
	return err
}

// Listen слушает канал и обновляет брокер, пока не отменён ctx.
func (n *RedisNotifier) Listen(ctx context.Context, b *Broker) error {
	sub := n.rdb.Subscribe(ctx, n.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", n.channel, err)
	}
	n.log.WithField("channel", n.channel).Info("listening for post changes")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := b.Refresh(ctx); err != nil {
				n.log.WithError(err).Warn("feed refresh failed")
			}
		}
	}
}
