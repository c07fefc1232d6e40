// Package storage is the relay's view of the external identity/profile store:
// profile presence columns in PostgreSQL and an online-user set in Redis.
package storage

import (
	"chessrelay/backend/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	onlineUsersKey = "presence:online_users"
	lastSeenKey    = "presence:last_seen"
)

// ErrProfileNotFound is returned when no profile row exists for a user id.
var ErrProfileNotFound = errors.New("profile not found")

// PresenceWriter is the single operation the relay needs from the store.
type PresenceWriter interface {
	SetUserOnlineStatus(ctx context.Context, userID string, online bool, at time.Time) error
}

type Storage interface {
	PresenceWriter

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	OnlineUsers(ctx context.Context) (map[string]time.Time, error)
	ResetPresence(ctx context.Context) (int64, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	log   *slog.Logger
}

// NewStorageService Constructor. rdb may be nil; the Redis mirror is then skipped.
func NewStorageService(db *gorm.DB, rdb *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		log:   logger,
	}
}

// OpenPostgres opens dsn through lib/pq and hands the pool to gorm.
func OpenPostgres(ctx context.Context, dsn string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("gorm open: %w", err)
	}
	return db, nil
}

// NewRedis connects to redis and verifies connectivity.
func NewRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Migrate creates or updates the profiles table.
func (s *Service) Migrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(&models.Profile{})
}

// presenceScript flips set membership and records last_seen only when the write is not
// older than the last one recorded for the user.
// KEYS: online set, last-seen hash. ARGV: user id, "1"/"0", unix millis.
var presenceScript = redis.NewScript(`
local seen = redis.call('HGET', KEYS[2], ARGV[1])
if seen and tonumber(seen) > tonumber(ARGV[3]) then
	return 0
end
if ARGV[2] == '1' then
	redis.call('SADD', KEYS[1], ARGV[1])
else
	redis.call('SREM', KEYS[1], ARGV[1])
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// SetUserOnlineStatus sets is_online and last_seen on the user's profile and mirrors the
// change into the Redis online set. Writes stamped earlier than the stored last_seen are
// ignored. A user without a profile row is not an error.
func (s *Service) SetUserOnlineStatus(ctx context.Context, userID string, online bool, at time.Time) error {
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND (last_seen IS NULL OR last_seen <= ?)", userID, at).
		Updates(map[string]interface{}{
			"is_online": online,
			"last_seen": at,
		})
	if res.Error != nil {
		return fmt.Errorf("update presence for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		s.log.Debug("presence.not_applied", "user_id", userID, "online", online, "reason", "no profile or newer write")
	}

	if s.Redis == nil {
		return nil
	}
	flag := "0"
	if online {
		flag = "1"
	}
	applied, err := presenceScript.Run(ctx, s.Redis,
		[]string{onlineUsersKey, lastSeenKey}, userID, flag, at.UnixMilli()).Int()
	if err != nil {
		return fmt.Errorf("mirror presence for %s: %w", userID, err)
	}
	if applied == 0 {
		s.log.Debug("presence.stale_mirror", "user_id", userID, "online", online)
	}
	return nil
}

// GetProfile returns the stored profile for userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return &profile, nil
}

// OnlineUsers returns every user id in the online set with its last-seen time
// (zero when unknown).
func (s *Service) OnlineUsers(ctx context.Context) (map[string]time.Time, error) {
	if s.Redis == nil {
		return nil, errors.New("redis not configured")
	}
	ids, err := s.Redis.SMembers(ctx, onlineUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list online users: %w", err)
	}
	out := make(map[string]time.Time, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	seen, err := s.Redis.HMGet(ctx, lastSeenKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load last seen: %w", err)
	}
	for i, id := range ids {
		var ts time.Time
		if raw, ok := seen[i].(string); ok {
			if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
				ts = time.UnixMilli(ms)
			}
		}
		out[id] = ts
	}
	return out, nil
}

// ResetPresence marks every profile offline and clears the online set.
// It returns the number of profiles that were flipped.
func (s *Service) ResetPresence(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("is_online = ?", true).
		Updates(map[string]interface{}{
			"is_online": false,
			"last_seen": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("reset presence: %w", res.Error)
	}

	if s.Redis != nil {
		if err := s.Redis.Del(ctx, onlineUsersKey).Err(); err != nil {
			return res.RowsAffected, fmt.Errorf("clear online set: %w", err)
		}
	}
	return res.RowsAffected, nil
}
