// internal/domain/order/sequence.go
package order

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Sequencer hands out the daily order sequence number. day is a UTC calendar day.
type Sequencer interface {
	Next(tx *gorm.DB, day time.Time) (int64, error)
}

// FormatOrderCode renders prefix + YYMMDD + a zero-padded four digit sequence
func FormatOrderCode(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%04d", prefix, day.UTC().Format("060102"), seq)
}

// dayBounds returns [start, end) of the UTC calendar day containing t
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func countOrdersOn(tx *gorm.DB, day time.Time) (int64, error) {
	start, end := dayBounds(day)
	var count int64
	if err := tx.Model(&Order{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders of the day: %w", err)
	}
	return count, nil
}

// CountSequencer derives the next number from the orders already stored for the day.
// Concurrent callers may collide; the unique order code index rejects the loser.
type CountSequencer struct{}

// Next returns the day's order count plus one
func (CountSequencer) Next(tx *gorm.DB, day time.Time) (int64, error) {
	count, err := countOrdersOn(tx, day)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

// RedisSequencer keeps one INCR counter per day, seeded from the database the first time the day is seen
type RedisSequencer struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisSequencer creates a sequencer on client
func NewRedisSequencer(client redis.Cmdable) *RedisSequencer {
	return &RedisSequencer{client: client, ttl: 48 * time.Hour}
}

// Next increments the day's counter
func (s *RedisSequencer) Next(tx *gorm.DB, day time.Time) (int64, error) {
	ctx := tx.Statement.Context
	key := "order_seq:" + day.UTC().Format("060102")

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read order sequence: %w", err)
	}
	if exists == 0 {
		count, err := countOrdersOn(tx, day)
		if err != nil {
			return 0, err
		}
		if err := s.client.SetNX(ctx, key, count, s.ttl).Err(); err != nil {
			return 0, fmt.Errorf("failed to seed order sequence: %w", err)
		}
	}

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to advance order sequence: %w", err)
	}
	return incr.Val(), nil
}
