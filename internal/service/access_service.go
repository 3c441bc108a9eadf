package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tutordesk/config"
	"tutordesk/internal/dto"
	"tutordesk/pkg/jwt"
)

var (
	ErrAccessDenied = errors.New("访问口令错误")
	ErrAccessLocked = errors.New("尝试次数过多，请稍后再试")
)

// AccessService 访问口令业务接口
type AccessService interface {
	// Verify 校验口令；口令错误时同时返回 {authorized:false} 响应与 ErrAccessDenied
	Verify(ctx context.Context, req *dto.VerifyAccessRequest, clientKey string) (*dto.VerifyAccessResponse, error)
	// Logout 将 Token 加入黑名单
	Logout(ctx context.Context, claims *jwt.Claims) error
}

type accessService struct {
	cfg       *config.AuthConfig
	jwtMgr    *jwt.Manager
	attempts  AttemptTracker
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAccessService 创建 AccessService 实例；attempts 为 nil 时不做锁定
func NewAccessService(
	cfg *config.AuthConfig,
	jwtMgr *jwt.Manager,
	attempts AttemptTracker,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AccessService {
	return &accessService{
		cfg:       cfg,
		jwtMgr:    jwtMgr,
		attempts:  attempts,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *accessService) Verify(ctx context.Context, req *dto.VerifyAccessRequest, clientKey string) (*dto.VerifyAccessResponse, error) {
	// 1. 锁定检查
	failed, err := s.failedAttempts(ctx, clientKey)
	if err != nil {
		return nil, err
	}
	if s.attempts != nil && failed >= int64(s.cfg.MaxFailedAttempts) {
		return &dto.VerifyAccessResponse{Authorized: false, Remaining: 0}, ErrAccessLocked
	}

	// 2. 校验口令 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AccessPasswordHash), []byte(req.Password)); err != nil {
		remaining := s.cfg.MaxFailedAttempts
		if s.attempts != nil {
			n, err := s.attempts.IncrFailedAttempts(ctx, clientKey, s.cfg.LockoutWindow)
			if err != nil {
				s.logger.Error("记录口令失败次数失败", zap.Error(err))
				return nil, err
			}
			remaining = s.cfg.MaxFailedAttempts - int(n)
			if remaining < 0 {
				remaining = 0
			}
		}
		s.logger.Warn("访问口令错误", zap.String("client", clientKey), zap.Int("remaining", remaining))
		return &dto.VerifyAccessResponse{Authorized: false, Remaining: remaining}, ErrAccessDenied
	}

	// 3. 成功：清零并签发 Token
	if s.attempts != nil {
		if err := s.attempts.ResetFailedAttempts(ctx, clientKey); err != nil {
			s.logger.Warn("清零口令失败次数失败", zap.Error(err))
		}
	}

	token, _, err := s.jwtMgr.GenerateAccessToken(clientKey, jwt.RoleStaff)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.VerifyAccessResponse{
		Authorized:  true,
		AccessToken: token,
		ExpiresIn:   int64(s.jwtMgr.AccessTokenTTL().Seconds()),
		Remaining:   s.cfg.MaxFailedAttempts,
	}, nil
}

func (s *accessService) failedAttempts(ctx context.Context, clientKey string) (int64, error) {
	if s.attempts == nil {
		return 0, nil
	}
	n, err := s.attempts.FailedAttempts(ctx, clientKey)
	if err != nil {
		s.logger.Error("读取口令失败次数失败", zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (s *accessService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.blacklist == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}
