package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/salesjourney/backend/internal/amocrm"
)

// RedisRepository caches the CRM user directory per company so mapping
// screens don't hit the AmoCRM API on every load.
type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

const crmUsersTTL = 10 * time.Minute

func (r *RedisRepository) GetCRMUsers(ctx context.Context, companyID string) ([]amocrm.User, error) {
	key := "crm_users:" + companyID
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var users []amocrm.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *RedisRepository) StoreCRMUsers(ctx context.Context, companyID string, users []amocrm.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	key := "crm_users:" + companyID
	return r.rdb.Set(ctx, key, raw, crmUsersTTL).Err()
}

func (r *RedisRepository) InvalidateCRMUsers(ctx context.Context, companyID string) error {
	key := "crm_users:" + companyID
	return r.rdb.Del(ctx, key).Err()
}

const webhookDedupeTTL = 24 * time.Hour

// ClaimWebhookEvent marks a webhook event key as processed. Returns false
// when another delivery of the same event already claimed it. AmoCRM
// redelivers webhooks on slow responses, so rewards must not double-pay.
func (r *RedisRepository) ClaimWebhookEvent(ctx context.Context, key string) (bool, error) {
	return r.rdb.SetNX(ctx, "webhook_seen:"+key, 1, webhookDedupeTTL).Result()
}
