package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

// Refresh token operations

func (r *redisStore) storeRefreshToken(ctx context.Context, hash, accountID string, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, refreshTokenKey(hash), accountID, ttl)
	pipe.SAdd(ctx, subjectRefreshKey(accountID), hash)
	pipe.Expire(ctx, subjectRefreshKey(accountID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// takeRefreshToken reads and deletes in one step so a token rotates once.
func (r *redisStore) takeRefreshToken(ctx context.Context, hash string) (string, error) {
	accountID, err := r.client.GetDel(ctx, refreshTokenKey(hash)).Result()
	if err != nil {
		return "", err
	}
	r.client.SRem(ctx, subjectRefreshKey(accountID), hash)
	return accountID, nil
}

func (r *redisStore) getRefreshToken(ctx context.Context, hash string) (string, error) {
	return r.client.Get(ctx, refreshTokenKey(hash)).Result()
}

func (r *redisStore) deleteRefreshToken(ctx context.Context, hash, accountID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, refreshTokenKey(hash))
	if accountID != "" {
		pipe.SRem(ctx, subjectRefreshKey(accountID), hash)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Access token revocation

func (r *redisStore) denyToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, deniedTokenKey(jti), "1", ttl).Err()
}

// revokeSubject rejects every token for accountID issued at or before at,
// and drops the subject's refresh tokens.
func (r *redisStore) revokeSubject(ctx context.Context, accountID string, at time.Time, ttl time.Duration) error {
	hashes, err := r.client.SMembers(ctx, subjectRefreshKey(accountID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, revokedSubjectKey(accountID), at.Unix(), ttl)
	for _, h := range hashes {
		pipe.Del(ctx, refreshTokenKey(h))
	}
	pipe.Del(ctx, subjectRefreshKey(accountID))
	_, err = pipe.Exec(ctx)
	return err
}

// tokenStatus reports whether jti is deny-listed and the subject's
// revoked-before timestamp, if any.
func (r *redisStore) tokenStatus(ctx context.Context, jti, accountID string) (denied bool, revokedAt time.Time, err error) {
	pipe := r.client.Pipeline()
	deniedCmd := pipe.Exists(ctx, deniedTokenKey(jti))
	revokedCmd := pipe.Get(ctx, revokedSubjectKey(accountID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, time.Time{}, err
	}

	if raw, err := revokedCmd.Result(); err == nil {
		unix, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			return false, time.Time{}, fmt.Errorf("corrupt revocation marker: %w", perr)
		}
		revokedAt = time.Unix(unix, 0)
	}

	return deniedCmd.Val() > 0, revokedAt, nil
}

func refreshTokenKey(hash string) string {
	return fmt.Sprintf("refresh:token:%s", hash)
}

func subjectRefreshKey(accountID string) string {
	return fmt.Sprintf("refresh:subject:%s", accountID)
}

func deniedTokenKey(jti string) string {
	return fmt.Sprintf("access:denied:%s", jti)
}

func revokedSubjectKey(accountID string) string {
	return fmt.Sprintf("access:revoked:%s", accountID)
}
