package redis

import (
	"context"
	"fmt"
	"time"

	"commerce-service/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

const DefaultWebhookTTL = 30 * time.Second

// WebhookGuard suppresses concurrent processing of the same provider delivery. It only
// saves work; duplicate fulfillment is prevented by the database constraints.
type WebhookGuard struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewWebhookGuard(rdb *goredis.Client, ttl time.Duration) *WebhookGuard {
	if ttl <= 0 {
		ttl = DefaultWebhookTTL
	}
	return &WebhookGuard{rdb: rdb, ttl: ttl}
}

func webhookKey(provider, transactionID string, status domain.PaymentStatus) string {
	return fmt.Sprintf("webhook:%s:%s:%s", provider, transactionID, status)
}

// Acquire returns false when another delivery for the same payment and status holds the key.
func (g *WebhookGuard) Acquire(ctx context.Context, provider, transactionID string, status domain.PaymentStatus) (bool, error) {
	return g.rdb.SetNX(ctx, webhookKey(provider, transactionID, status), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

// Release drops the key so a redelivery after a failed attempt is processed again.
func (g *WebhookGuard) Release(ctx context.Context, provider, transactionID string, status domain.PaymentStatus) error {
	return g.rdb.Del(ctx, webhookKey(provider, transactionID, status)).Err()
}
