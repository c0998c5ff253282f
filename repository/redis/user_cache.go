package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// DefaultTTL keeps externally deleted users visible for at most a few seconds.
const DefaultTTL = 5 * time.Second

// cachedUser never carries the password hash; GetByID through the cache
// always returns an empty PasswordHash.
type cachedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// userCache is a read-through cache over another UserRepository. Only GetByID
// is cached; credential lookups always hit the primary store. A user removed
// from the primary store keeps resolving until its entry expires, so the TTL
// bounds that window.
type userCache struct {
	next   repository.UserRepository
	client *redislib.Client
	prefix string
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewUserCache wraps next with a Redis-backed cache for lookups by id.
func NewUserCache(next repository.UserRepository, client *redislib.Client, ttl time.Duration, logger *zap.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userCache{
		next:   next,
		client: client,
		prefix: "user:",
		ttl:    ttl,
		logger: logger,
	}
}

func (c *userCache) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := c.lookup(ctx, id); ok {
		return user, nil
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		user, err := c.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.store(ctx, user)
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	user := *v.(*domain.User)
	user.PasswordHash = ""
	return &user, nil
}

func (c *userCache) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return c.next.GetByEmail(ctx, email)
}

func (c *userCache) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	return c.next.FindByUsernameOrEmail(ctx, username, email)
}

func (c *userCache) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created, err := c.next.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	c.store(ctx, created)
	return created, nil
}

func (c *userCache) lookup(ctx context.Context, id string) (*domain.User, bool) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redislib.Nil) {
			c.logger.Warn("user cache read failed", zap.String("user_id", id), zap.Error(err))
		}
		return nil, false
	}

	var entry cachedUser
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("user cache entry corrupt", zap.String("user_id", id), zap.Error(err))
		return nil, false
	}
	return &domain.User{
		ID:        entry.ID,
		Username:  entry.Username,
		Email:     entry.Email,
		CreatedAt: entry.CreatedAt,
	}, true
}

func (c *userCache) store(ctx context.Context, user *domain.User) {
	if user == nil {
		return
	}
	payload, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(user.ID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("user cache write failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (c *userCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
