package services

import (
	"context"
	"errors"
	"fmt"
	"sentinel-lockup-service/internal/infrastructure/config"
	Logger "sentinel-lockup-service/pkg/logger"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// InterfaceBuildingLock serializes every mutation of a building's lockup status.
// Lock blocks until the building is free or the wait budget runs out, and
// returns the function that releases it.
type InterfaceBuildingLock interface {
	Lock(ctx context.Context, buildingID uint) (unlock func(), err error)
}

// LocalBuildingLock 进程内的楼宇锁，每栋楼一个信号量
type LocalBuildingLock struct {
	Wait time.Duration

	mu    sync.Mutex
	slots map[uint]chan struct{}
}

// NewLocalBuildingLock 创建进程内楼宇锁
func NewLocalBuildingLock(wait time.Duration) *LocalBuildingLock {
	return &LocalBuildingLock{
		Wait:  wait,
		slots: make(map[uint]chan struct{}),
	}
}

func (l *LocalBuildingLock) slot(buildingID uint) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[buildingID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[buildingID] = ch
	}
	return ch
}

// Lock 获取楼宇锁
func (l *LocalBuildingLock) Lock(ctx context.Context, buildingID uint) (func(), error) {
	if l.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Wait)
		defer cancel()
	}

	ch := l.slot(buildingID)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: building %d is busy: %v", ErrConflict, buildingID, ctx.Err())
	}
}

// compare-and-delete so a holder whose lease expired cannot release someone else's lock
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisBuildingLock 基于Redis的跨实例楼宇锁 (SET NX PX)
type RedisBuildingLock struct {
	Client *redis.Client
	TTL    time.Duration
	Wait   time.Duration

	// in-process ordering in front of Redis
	local *LocalBuildingLock
}

// NewRedisBuildingLock creates the Redis lock from config
func NewRedisBuildingLock(cfg *config.Config) *RedisBuildingLock {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &RedisBuildingLock{
		Client: client,
		TTL:    cfg.BuildingLockTTL,
		Wait:   cfg.BuildingLockWait,
		local:  NewLocalBuildingLock(cfg.BuildingLockWait),
	}
}

func buildingLockKey(buildingID uint) string {
	return fmt.Sprintf("lockup:building:%d:lock", buildingID)
}

// Lock 获取楼宇锁，失败时按退避重试直到超时
func (l *RedisBuildingLock) Lock(ctx context.Context, buildingID uint) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	if l.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Wait)
		defer cancel()
	}

	key := buildingLockKey(buildingID)
	token := uuid.New().String()
	backoff := 20 * time.Millisecond

	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			unlockLocal()
			return nil, fmt.Errorf("acquire building lock %s: %w", key, err)
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := releaseScript.Run(releaseCtx, l.Client, []string{key}, token).Err(); err != nil {
					Logger.Warning("[Lockup] release building lock %s failed: %v", key, err)
				}
				unlockLocal()
			}, nil
		}

		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, fmt.Errorf("%w: building %d is locked by another instance: %v", ErrConflict, buildingID, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

// Ping checks the Redis connection
func (l *RedisBuildingLock) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

// Close 关闭Redis客户端
func (l *RedisBuildingLock) Close() error {
	return l.Client.Close()
}
