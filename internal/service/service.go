package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tutordesk/config"
	"tutordesk/internal/repository"
	"tutordesk/pkg/jwt"
	"tutordesk/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Access    AccessService
	Tutor     TutorService
	Timetable TimetableService
	Scheduler SchedulerService
	Export    ExportService
}

// ── Redis 能力接口（便于测试替换；Redis 不可用时为 nil） ──

// GridCache 网格缓存
type GridCache interface {
	Generation(ctx context.Context, namespace string) (int64, error)
	BumpGeneration(ctx context.Context, namespace string) error
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

// AttemptTracker 访问口令失败计数
type AttemptTracker interface {
	IncrFailedAttempts(ctx context.Context, clientKey string, window time.Duration) (int64, error)
	FailedAttempts(ctx context.Context, clientKey string) (int64, error)
	ResetFailedAttempts(ctx context.Context, clientKey string) error
}

// TokenBlacklist Token 黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// NewService 创建 Service 聚合，rdb 可为 nil（降级运行：无缓存、无锁定、无黑名单）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var (
		cache     GridCache
		attempts  AttemptTracker
		blacklist TokenBlacklist
	)
	if rdb != nil {
		cache, attempts, blacklist = rdb, rdb, rdb
	}

	timetable := NewTimetableService(&cfg.Timetable, repo, cache, logger)
	return &Service{
		Access:    NewAccessService(&cfg.Auth, jwtMgr, attempts, blacklist, logger),
		Tutor:     NewTutorService(repo, cache, logger),
		Timetable: timetable,
		Scheduler: NewSchedulerService(&cfg.Scheduler, logger),
		Export:    NewExportService(timetable, logger),
	}
}
