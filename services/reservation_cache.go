package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"rentflow/constants"
	"rentflow/models"
	"rentflow/services/logger"

	"github.com/redis/go-redis/v9"
)

// GetFromRedis đọc JSON từ Redis vào target; found=false khi key không tồn tại
func GetFromRedis(ctx context.Context, rdb redis.Cmdable, key string, target interface{}) (bool, error) {
	cached, err := rdb.Get(ctx, key).Result()
	if stderrors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(cached), target); err != nil {
		return false, err
	}
	return true, nil
}

// SetToRedis lưu JSON vào Redis
func SetToRedis(ctx context.Context, rdb redis.Cmdable, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, ttl).Err()
}

// DeleteFromRedis xóa cache
func DeleteFromRedis(ctx context.Context, rdb redis.Cmdable, key string) error {
	return rdb.Del(ctx, key).Err()
}

func reservationCacheKey(id uint) string {
	return fmt.Sprintf("%s%d", constants.ReservationCachePrefix, id)
}

// CachedReservationStore đọc snapshot qua Redis, xóa cache sau mỗi lần commit.
// Snapshot cũ trong cache không phá vỡ tính đúng: CommitTransition vẫn so trạng thái trên DB.
type CachedReservationStore struct {
	ReservationStore
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedReservationStore(next ReservationStore, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedReservationStore {
	if log == nil {
		log = logger.Nop{}
	}
	return &CachedReservationStore{
		ReservationStore: next,
		rdb:              rdb,
		ttl:              ttl,
		logger:           log,
	}
}

func (s *CachedReservationStore) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	key := reservationCacheKey(id)
	var cached models.Reservation
	found, err := GetFromRedis(ctx, s.rdb, key, &cached)
	if err != nil {
		s.logger.Warn("đọc cache đặt chỗ %d thất bại: %v", id, err)
	}
	if found && cached.ID == id {
		return &cached, nil
	}

	reservation, err := s.ReservationStore.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := SetToRedis(ctx, s.rdb, key, reservation, s.ttl); err != nil {
		s.logger.Warn("lưu cache đặt chỗ %d thất bại: %v", id, err)
	}
	return reservation, nil
}

func (s *CachedReservationStore) CommitTransition(ctx context.Context, record models.TransitionRecord) (*models.Reservation, error) {
	reservation, err := s.ReservationStore.CommitTransition(ctx, record)
	if delErr := DeleteFromRedis(ctx, s.rdb, reservationCacheKey(record.ReservationID)); delErr != nil {
		s.logger.Warn("xóa cache đặt chỗ %d thất bại: %v", record.ReservationID, delErr)
	}
	return reservation, err
}
