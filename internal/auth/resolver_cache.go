package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	roleCacheKeyPrefix = "smartconnect:role:"

	// roleGenerationKeyPrefix counts invalidations per user. A resolved
	// role is only cached if the count did not move during the lookup.
	roleGenerationKeyPrefix = "smartconnect:rolegen:"

	// unresolvedMarker caches the absence of a profile.
	unresolvedMarker = "-"

	defaultRoleCacheTTL = time.Minute
)

// Logger is the logging surface used by the cache.
type Logger interface {
	Warn(msg string, args ...any)
}

// stringGetter is satisfied by both the client and a watched transaction.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

var errStaleRole = errors.New("role changed during lookup")

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// CachedResolver is a read-through Redis cache in front of another
// Resolver. Cache failures fall back to the wrapped resolver.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
	logger Logger
}

// NewCachedResolver wraps next with a Redis cache.
func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = defaultRoleCacheTTL
	}
	return &CachedResolver{next: next, client: client, ttl: ttl, logger: noopLogger{}}
}

// SetLogger sets the logger for cache failures.
func (c *CachedResolver) SetLogger(logger Logger) {
	c.logger = logger
}

// ResolveRole returns the cached role or resolves and caches it.
func (c *CachedResolver) ResolveRole(ctx context.Context, userID string) (Role, error) {
	if userID == "" {
		return RoleUnresolved, nil
	}

	key := roleCacheKeyPrefix + userID
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if cached == unresolvedMarker {
			return RoleUnresolved, nil
		}
		if role := Role(cached); role.IsValid() {
			return role, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("role cache read failed", "user_id", userID, "error", err)
	}

	gen, genErr := c.generation(ctx, c.client, userID)
	if genErr != nil {
		c.logger.Warn("role cache read failed", "user_id", userID, "error", genErr)
	}

	role, err := c.next.ResolveRole(ctx, userID)
	if err != nil {
		return RoleUnresolved, err
	}
	if genErr == nil {
		c.store(ctx, userID, gen, role)
	}
	return role, nil
}

// store caches role unless userID was invalidated after gen was read.
func (c *CachedResolver) store(ctx context.Context, userID string, gen int64, role Role) {
	value := string(role)
	if role == RoleUnresolved {
		value = unresolvedMarker
	}
	genKey := roleGenerationKeyPrefix + userID

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleRole
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, roleCacheKeyPrefix+userID, value, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleRole), errors.Is(err, redis.TxFailedErr):
		// Invalidated mid-lookup; the next request resolves again.
	default:
		c.logger.Warn("role cache write failed", "user_id", userID, "error", err)
	}
}

// generation returns the invalidation count for userID, zero if none.
func (c *CachedResolver) generation(ctx context.Context, cmd stringGetter, userID string) (int64, error) {
	n, err := cmd.Get(ctx, roleGenerationKeyPrefix+userID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Invalidate removes the cached role for userID and bumps its generation
// so a lookup already in flight does not cache what it read.
func (c *CachedResolver) Invalidate(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, roleGenerationKeyPrefix+userID)
		pipe.Del(ctx, roleCacheKeyPrefix+userID)
		return nil
	})
	return err
}
