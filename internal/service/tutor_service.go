package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutordesk/internal/dto"
	"tutordesk/internal/model"
	"tutordesk/internal/repository"
)

// ── 导师模块业务错误 ──

var (
	ErrTutorNotFound = errors.New("导师不存在")
)

// TutorService 导师业务接口
type TutorService interface {
	Create(ctx context.Context, req *dto.CreateTutorRequest) (*dto.TutorResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TutorResponse, error)
	List(ctx context.Context, req *dto.TutorListRequest) ([]dto.TutorResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTutorRequest) (*dto.TutorResponse, error)
	Delete(ctx context.Context, id string) error
}

type tutorService struct {
	repo   *repository.Repository
	cache  GridCache
	logger *zap.Logger
}

// NewTutorService 创建 TutorService 实例
func NewTutorService(repo *repository.Repository, cache GridCache, logger *zap.Logger) TutorService {
	return &tutorService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *tutorService) Create(ctx context.Context, req *dto.CreateTutorRequest) (*dto.TutorResponse, error) {
	tutor := &model.Tutor{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		IsActive: true,
	}
	if err := s.repo.Tutor.Create(ctx, tutor); err != nil {
		s.logger.Error("创建导师失败", zap.Error(err))
		return nil, err
	}
	return toTutorResponse(tutor), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *tutorService) GetByID(ctx context.Context, id string) (*dto.TutorResponse, error) {
	tutor, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTutorResponse(tutor), nil
}

// ────────────────────── List ──────────────────────

func (s *tutorService) List(ctx context.Context, req *dto.TutorListRequest) ([]dto.TutorResponse, error) {
	tutors, err := s.repo.Tutor.List(ctx, req.ActiveOnly)
	if err != nil {
		s.logger.Error("列出导师失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TutorResponse, 0, len(tutors))
	for i := range tutors {
		result = append(result, *toTutorResponse(&tutors[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *tutorService) Update(ctx context.Context, id string, req *dto.UpdateTutorRequest) (*dto.TutorResponse, error) {
	tutor, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		renamed = name != tutor.Name
		tutor.Name = name
	}
	if req.Email != nil {
		tutor.Email = strings.TrimSpace(*req.Email)
	}
	if req.IsActive != nil {
		tutor.IsActive = *req.IsActive
	}

	if err := s.repo.Tutor.Update(ctx, tutor); err != nil {
		s.logger.Error("更新导师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 网格中显示导师名，改名后缓存失效
	if renamed {
		invalidateGrid(ctx, s.cache, s.logger)
	}
	return toTutorResponse(tutor), nil
}

// ────────────────────── Delete ──────────────────────

func (s *tutorService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Tutor.Delete(ctx, id); err != nil {
		s.logger.Error("删除导师失败", zap.String("id", id), zap.Error(err))
		return err
	}
	invalidateGrid(ctx, s.cache, s.logger)
	return nil
}

func (s *tutorService) find(ctx context.Context, id string) (*model.Tutor, error) {
	tutor, err := s.repo.Tutor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTutorNotFound
		}
		s.logger.Error("查询导师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return tutor, nil
}

func toTutorResponse(t *model.Tutor) *dto.TutorResponse {
	return &dto.TutorResponse{
		ID:        t.TutorID,
		Name:      t.Name,
		Email:     t.Email,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}
