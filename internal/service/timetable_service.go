package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutordesk/config"
	"tutordesk/internal/dto"
	"tutordesk/internal/model"
	"tutordesk/internal/repository"
	"tutordesk/internal/scheduling"
	pkgerrors "tutordesk/pkg/errors"
)

// ── 时间表模块业务错误 ──

var (
	ErrTimetableEntryNotFound   = errors.New("时间表条目不存在")
	ErrTimetableInvalidSpan     = errors.New("结束时间必须晚于开始时间")
	ErrTimetableInvalidRange    = errors.New("小时区间无效")
	ErrTimetableVersionConflict = pkgerrors.ErrOptimisticLock
)

// gridNamespace 网格缓存代数所在命名空间
const gridNamespace = "timetable:grid"

// ── TimetableService 接口 ──────────────────────────────────
//
//   - 条目列表始终按 (day_of_week, start_time) 排序
//   - Grid 基于 scheduling.Project 投影，结果按 (导师, 小时区间) 缓存在 Redis，
//     任何条目写操作都会递增缓存代数使其失效
//   - Import 从上游地址拉取 JSON 列表或 iCalendar，见 timetable_import.go
// ─────────────────────────────────────────────────────────────

// TimetableService 时间表模块业务接口
type TimetableService interface {
	ListAll(ctx context.Context) ([]dto.TimetableEntryResponse, error)
	ListByTutor(ctx context.Context, tutorID string) ([]dto.TimetableEntryResponse, error)
	Create(ctx context.Context, req *dto.CreateTimetableEntryRequest) (*dto.TimetableEntryResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTimetableEntryRequest) (*dto.TimetableEntryResponse, error)
	Delete(ctx context.Context, id string) error
	// Grid 投影后的 星期 × 小时 网格
	Grid(ctx context.Context, req *dto.GridRequest) (*dto.GridResponse, error)
	// Project 返回原始投影结果，供导出使用
	Project(ctx context.Context, req *dto.GridRequest) (*scheduling.Grid, error)
	// Import 从上游地址导入条目
	Import(ctx context.Context, req *dto.ImportTimetableRequest) (*dto.ImportTimetableResponse, error)
}

type timetableService struct {
	cfg     *config.TimetableConfig
	repo    *repository.Repository
	cache   GridCache
	fetcher *fetcher
	logger  *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例，cache 可为 nil
func NewTimetableService(
	cfg *config.TimetableConfig,
	repo *repository.Repository,
	cache GridCache,
	logger *zap.Logger,
) TimetableService {
	return &timetableService{
		cfg:     cfg,
		repo:    repo,
		cache:   cache,
		fetcher: newFetcher(cfg.ImportTimeout, cfg.ImportMaxSize),
		logger:  logger,
	}
}

// ════════════════════════════════════════════════════════════
// 条目 CRUD
// ════════════════════════════════════════════════════════════

func (s *timetableService) ListAll(ctx context.Context) ([]dto.TimetableEntryResponse, error) {
	entries, err := s.repo.TimetableEntry.List(ctx, "")
	if err != nil {
		s.logger.Error("列出时间表条目失败", zap.Error(err))
		return nil, err
	}
	return toEntryResponses(entries), nil
}

func (s *timetableService) ListByTutor(ctx context.Context, tutorID string) ([]dto.TimetableEntryResponse, error) {
	if _, err := s.findTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	entries, err := s.repo.TimetableEntry.List(ctx, tutorID)
	if err != nil {
		s.logger.Error("列出导师时间表失败", zap.String("tutor_id", tutorID), zap.Error(err))
		return nil, err
	}
	return toEntryResponses(entries), nil
}

func (s *timetableService) Create(ctx context.Context, req *dto.CreateTimetableEntryRequest) (*dto.TimetableEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrTimetableInvalidSpan
	}
	tutor, err := s.findTutor(ctx, req.TutorID)
	if err != nil {
		return nil, err
	}

	entry := &model.TimetableEntry{
		TutorID:            tutor.TutorID,
		DayOfWeek:          *req.DayOfWeek,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Subject:            strings.TrimSpace(req.Subject),
		ActiveStudentCount: req.ActiveStudentCount,
	}
	if err := s.repo.TimetableEntry.Create(ctx, entry); err != nil {
		s.logger.Error("创建时间表条目失败", zap.Error(err))
		return nil, err
	}
	entry.Tutor = tutor

	invalidateGrid(ctx, s.cache, s.logger)
	return toEntryResponse(entry), nil
}

func (s *timetableService) Update(ctx context.Context, id string, req *dto.UpdateTimetableEntryRequest) (*dto.TimetableEntryResponse, error) {
	entry, err := s.findEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.TutorID != nil && *req.TutorID != entry.TutorID {
		tutor, err := s.findTutor(ctx, *req.TutorID)
		if err != nil {
			return nil, err
		}
		entry.TutorID = tutor.TutorID
		entry.Tutor = tutor
	}
	if req.DayOfWeek != nil {
		entry.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		entry.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		entry.EndTime = *req.EndTime
	}
	if req.Subject != nil {
		entry.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.ActiveStudentCount != nil {
		entry.ActiveStudentCount = req.ActiveStudentCount
	}
	if err := dto.ValidateSpan(entry.StartTime, entry.EndTime); err != nil {
		return nil, ErrTimetableInvalidSpan
	}

	// 以客户端持有的版本号做乐观锁
	entry.Version = req.Version
	if err := s.repo.TimetableEntry.Update(ctx, entry); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrTimetableVersionConflict
		}
		s.logger.Error("更新时间表条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	invalidateGrid(ctx, s.cache, s.logger)
	return toEntryResponse(entry), nil
}

func (s *timetableService) Delete(ctx context.Context, id string) error {
	if _, err := s.findEntry(ctx, id); err != nil {
		return err
	}
	if err := s.repo.TimetableEntry.Delete(ctx, id); err != nil {
		s.logger.Error("删除时间表条目失败", zap.String("id", id), zap.Error(err))
		return err
	}
	invalidateGrid(ctx, s.cache, s.logger)
	return nil
}

// ════════════════════════════════════════════════════════════
// Grid — 星期 × 小时 投影
// ════════════════════════════════════════════════════════════

func (s *timetableService) Grid(ctx context.Context, req *dto.GridRequest) (*dto.GridResponse, error) {
	hours, err := s.resolveRange(req)
	if err != nil {
		return nil, err
	}

	key, cacheable := s.gridCacheKey(ctx, req.TutorID, hours)
	if cacheable {
		var cached dto.GridResponse
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("读取网格缓存失败", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	grid, err := s.project(ctx, req.TutorID, hours)
	if err != nil {
		return nil, err
	}
	resp := buildGridResponse(grid)

	if cacheable {
		if err := s.cache.SetJSON(ctx, key, resp, s.cfg.GridCacheTTL); err != nil {
			s.logger.Warn("写入网格缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

func (s *timetableService) Project(ctx context.Context, req *dto.GridRequest) (*scheduling.Grid, error) {
	hours, err := s.resolveRange(req)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, req.TutorID, hours)
}

func (s *timetableService) project(ctx context.Context, tutorID string, hours scheduling.HourRange) (*scheduling.Grid, error) {
	if tutorID != "" {
		if _, err := s.findTutor(ctx, tutorID); err != nil {
			return nil, err
		}
	}
	entries, err := s.repo.TimetableEntry.List(ctx, tutorID)
	if err != nil {
		s.logger.Error("查询时间表条目失败", zap.Error(err))
		return nil, err
	}

	views := make([]scheduling.TimetableEntry, 0, len(entries))
	for i := range entries {
		views = append(views, entries[i].View())
	}
	grid := scheduling.Project(views, hours)

	if grid.Dropped > 0 || grid.Unplaced > 0 {
		s.logger.Info("部分条目未进入网格",
			zap.Int("dropped", grid.Dropped),
			zap.Int("unplaced", grid.Unplaced),
			zap.String("tutor_id", tutorID),
		)
	}
	return grid, nil
}

func (s *timetableService) resolveRange(req *dto.GridRequest) (scheduling.HourRange, error) {
	hours := scheduling.HourRange{Min: s.cfg.MinHour, Max: s.cfg.MaxHour}
	if req.MinHour != nil {
		hours.Min = *req.MinHour
	}
	if req.MaxHour != nil {
		hours.Max = *req.MaxHour
	}
	if err := hours.Validate(); err != nil {
		return hours, ErrTimetableInvalidRange
	}
	return hours, nil
}

func (s *timetableService) gridCacheKey(ctx context.Context, tutorID string, hours scheduling.HourRange) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.Generation(ctx, gridNamespace)
	if err != nil {
		s.logger.Warn("读取网格缓存代数失败", zap.Error(err))
		return "", false
	}
	if tutorID == "" {
		tutorID = "all"
	}
	return fmt.Sprintf("grid:%d:%s:%d-%d", gen, tutorID, hours.Min, hours.Max), true
}

// invalidateGrid 递增缓存代数；失败只记录日志，旧缓存随 TTL 过期
func invalidateGrid(ctx context.Context, cache GridCache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.BumpGeneration(ctx, gridNamespace); err != nil {
		logger.Warn("网格缓存失效失败", zap.Error(err))
	}
}

func buildGridResponse(g *scheduling.Grid) *dto.GridResponse {
	resp := &dto.GridResponse{
		Days:     scheduling.DayNames[:],
		MinHour:  g.Range.Min,
		MaxHour:  g.Range.Max,
		Rows:     make([]dto.GridRow, 0, len(g.Hours())),
		Total:    g.Len(),
		Dropped:  g.Dropped,
		Unplaced: g.Unplaced,
	}
	for _, h := range g.Hours() {
		row := dto.GridRow{
			Hour:  h,
			Label: fmt.Sprintf("%02d:00", h),
			Cells: make([][]dto.GridEntry, scheduling.DaysPerWeek),
		}
		for d := 0; d < scheduling.DaysPerWeek; d++ {
			cell := g.Cell(d, h)
			row.Cells[d] = make([]dto.GridEntry, 0, len(cell))
			for _, e := range cell {
				tutor := e.DisplayTutor()
				row.Cells[d] = append(row.Cells[d], dto.GridEntry{
					ID:          e.ID,
					TutorID:     e.TutorID,
					Tutor:       tutor,
					Subject:     e.DisplaySubject(),
					StartTime:   e.StartTime,
					EndTime:     e.EndTime,
					ColorIndex:  g.Colors[tutor],
					HasStudents: e.HasStudents(),
				})
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}

// ── 辅助函数 ──

func (s *timetableService) findTutor(ctx context.Context, id string) (*model.Tutor, error) {
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

func (s *timetableService) findEntry(ctx context.Context, id string) (*model.TimetableEntry, error) {
	entry, err := s.repo.TimetableEntry.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableEntryNotFound
		}
		s.logger.Error("查询时间表条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return entry, nil
}

func toEntryResponses(entries []model.TimetableEntry) []dto.TimetableEntryResponse {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DayOfWeek != entries[j].DayOfWeek {
			return entries[i].DayOfWeek < entries[j].DayOfWeek
		}
		return entries[i].StartTime < entries[j].StartTime
	})
	result := make([]dto.TimetableEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *toEntryResponse(&entries[i]))
	}
	return result
}

func toEntryResponse(e *model.TimetableEntry) *dto.TimetableEntryResponse {
	resp := &dto.TimetableEntryResponse{
		ID:                 e.TimetableEntryID,
		TutorID:            e.TutorID,
		DayOfWeek:          e.DayOfWeek,
		StartTime:          e.StartTime,
		EndTime:            e.EndTime,
		Subject:            e.Subject,
		ActiveStudentCount: e.ActiveStudentCount,
		Version:            e.Version,
	}
	if e.Tutor != nil {
		resp.TutorName = e.Tutor.Name
	}
	return resp
}
