package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/image-analyser/config"
	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/redis/go-redis/v9"
)

const defaultAnalysisLockTTL = 5 * time.Minute

func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

func NewRedisUploadRepository(ctx context.Context, client *redis.Client) (UploadRepository, error) {
	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisUploadRepository{
		client:  client,
		lockTTL: defaultAnalysisLockTTL,
	}, nil
}

func (r *redisUploadRepository) Name() string {
	return "redis"
}

func (r *redisUploadRepository) Save(ctx context.Context, image *entity.UploadedImage) error {
	ttl := time.Until(image.ExpiresAt)
	if image.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(image)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, uploadKey(image.ID), data, ttl).Err()
}

func (r *redisUploadRepository) FindByID(ctx context.Context, id string) (*entity.UploadedImage, error) {
	data, err := r.client.Get(ctx, uploadKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entity.ErrUploadNotFound
		}
		return nil, err
	}

	var image entity.UploadedImage
	if err := json.Unmarshal(data, &image); err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *redisUploadRepository) Delete(ctx context.Context, id string) error {
	removed, err := r.client.Del(ctx, uploadKey(id), lockKey(id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return entity.ErrUploadNotFound
	}
	return nil
}

func (r *redisUploadRepository) BeginAnalysis(ctx context.Context, id string) (*entity.UploadedImage, error) {
	image, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	acquired, err := r.client.SetNX(ctx, lockKey(id), "1", r.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, entity.ErrAnalysisInProgress
	}

	image.Status = entity.StatusAnalyzing
	if err := r.update(ctx, image); err != nil {
		r.client.Del(ctx, lockKey(id))
		return nil, err
	}
	return image, nil
}

func (r *redisUploadRepository) FinishAnalysis(ctx context.Context, id string, result entity.AnalysisResult) error {
	defer r.client.Del(ctx, lockKey(id))

	image, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	image.Status = entity.StatusDone
	image.Result = &result
	return r.update(ctx, image)
}

// PurgeExpired is a no-op, redis expires the keys itself.
func (r *redisUploadRepository) PurgeExpired(_ context.Context) (int, error) {
	return 0, nil
}

// update rewrites the record without touching its expiry.
func (r *redisUploadRepository) update(ctx context.Context, image *entity.UploadedImage) error {
	data, err := json.Marshal(image)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, uploadKey(image.ID), data, redis.KeepTTL).Err()
}

func uploadKey(id string) string {
	return "upload:" + id
}

func lockKey(id string) string {
	return "upload:" + id + ":analyzing"
}
