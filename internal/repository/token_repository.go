package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/auth-service/internal/model"
)

// Key layout:
//   rt:<record id>   -> owning user id, TTL = refresh token validity
//   rtu:<user id>    -> set of that user's live record ids (logout-all)
//
// A record's liveness is exactly its key's existence: Redis expiry makes
// an expired record read as absent, and GETDEL makes consumption atomic,
// so of N concurrent refresh calls presenting the same record exactly one
// observes the value and the rest observe nothing.
const (
	recordKeyPrefix = "rt:"
	userKeyPrefix   = "rtu:"
)

// TokenRepo persists refresh token records in Redis, one record per
// issuance, keyed by the identifier embedded in the refresh token.
type TokenRepo struct{ RDB *redis.Client }

func NewTokenRepo(rdb *redis.Client) *TokenRepo { return &TokenRepo{RDB: rdb} }

func recordKey(id string) string   { return recordKeyPrefix + id }
func userKey(userID uint64) string { return userKeyPrefix + strconv.FormatUint(userID, 10) }

// Store creates and persists a new record with expiry now+ttl and returns
// it.  Existing records are never touched; rotation is the caller
// consuming the old record and storing a new one.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, ttl time.Duration) (model.RefreshTokenRecord, error) {
	rec := model.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	pipe := r.RDB.TxPipeline()
	pipe.Set(ctx, recordKey(rec.ID), strconv.FormatUint(userID, 10), ttl)
	pipe.SAdd(ctx, userKey(userID), rec.ID)
	// Keep the index set alive at least as long as its newest record.
	pipe.Expire(ctx, userKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return model.RefreshTokenRecord{}, err
	}
	return rec, nil
}

// Validate returns the owning user id if a live record exists.  Absent and
// expired records are indistinguishable.
func (r *TokenRepo) Validate(ctx context.Context, recordID string) (uint64, error) {
	val, err := r.RDB.Get(ctx, recordKey(recordID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(val, 10, 64)
}

// Consume atomically reads and deletes a record, returning the owning user
// id.  GETDEL guarantees that concurrent consumers of one record see
// exactly one success; the losers get ErrTokenNotFound, which is the whole
// replay defence for rotated refresh tokens.
func (r *TokenRepo) Consume(ctx context.Context, recordID string) (uint64, error) {
	val, err := r.RDB.GetDel(ctx, recordKey(recordID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, err
	}
	// Index upkeep only; the record itself is already gone.
	_ = r.RDB.SRem(ctx, userKey(userID), recordID).Err()
	return userID, nil
}

// Revoke deletes a record.  Revoking an absent record is not an error, so
// logout is idempotent.
func (r *TokenRepo) Revoke(ctx context.Context, recordID string) error {
	val, err := r.RDB.GetDel(ctx, recordKey(recordID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if userID, perr := strconv.ParseUint(val, 10, 64); perr == nil {
		_ = r.RDB.SRem(ctx, userKey(userID), recordID).Err()
	}
	return nil
}

// RevokeAllForUser deletes every live record belonging to a user along
// with the index set.  Used for logout-everywhere.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	ids, err := r.RDB.SMembers(ctx, userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := r.RDB.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, recordKey(id))
	}
	pipe.Del(ctx, userKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}
