package permissions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gestao-backend/shared/config"
	"gestao-backend/shared/logger"
)

// membership roles barely change, a short TTL keeps revocations timely
const membershipTTL = 15 * time.Minute

// noMembership marks a cached negative lookup so absent memberships do
// not hit the database on every request.
const noMembership = "-"

// MembershipCache keeps (user, company) -> role lookups in redis.
type MembershipCache struct {
	client *redis.Client
}

// NewMembershipCache connects to redis. A nil cache is a valid
// degradation: the checker falls through to the database.
func NewMembershipCache(cfg *config.Config) (*MembershipCache, error) {
	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Get().Info("membership cache connected",
		zap.String("addr", fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)),
	)
	return &MembershipCache{client: client}, nil
}

// NewMembershipCacheWithClient wraps an existing client, used by tests.
func NewMembershipCacheWithClient(client *redis.Client) *MembershipCache {
	return &MembershipCache{client: client}
}

func cacheKey(userID, companyID uint) string {
	return fmt.Sprintf("membership:%d:%d", userID, companyID)
}

// Get returns (role, found, hit). hit is false when the pair is not in
// the cache or redis failed; found distinguishes a cached "no
// membership" answer from a cached role.
func (m *MembershipCache) Get(ctx context.Context, userID, companyID uint) (string, bool, bool) {
	if m == nil {
		return "", false, false
	}
	val, err := m.client.Get(ctx, cacheKey(userID, companyID)).Result()
	if err != nil {
		return "", false, false
	}
	if val == noMembership {
		return "", false, true
	}
	return val, true, true
}

// Set stores a lookup result. An empty role records the absence of a
// membership.
func (m *MembershipCache) Set(ctx context.Context, userID, companyID uint, role string) {
	if m == nil {
		return
	}
	val := role
	if val == "" {
		val = noMembership
	}
	if err := m.client.Set(ctx, cacheKey(userID, companyID), val, membershipTTL).Err(); err != nil {
		logger.Get().Warn("membership cache set failed", zap.Error(err))
	}
}

// Invalidate drops the cached role for a pair. Called on every
// membership write so role changes take effect immediately.
func (m *MembershipCache) Invalidate(ctx context.Context, userID, companyID uint) {
	if m == nil {
		return
	}
	if err := m.client.Del(ctx, cacheKey(userID, companyID)).Err(); err != nil {
		logger.Get().Warn("membership cache invalidation failed", zap.Error(err))
	}
}

// Close releases the redis connection.
func (m *MembershipCache) Close() error {
	if m == nil {
		return nil
	}
	return m.client.Close()
}
