package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutordesk/config"
	"tutordesk/internal/dto"
	"tutordesk/internal/scheduling"
)

// ── 排课会话模块业务错误 ──

var (
	ErrSessionNotFound = errors.New("排课会话不存在或已过期")
	ErrSessionLimit    = errors.New("排课会话数量已达上限")
)

// ── SchedulerService 接口 ──────────────────────────────────
//
// 每个会话持有一个独立的 scheduling.ScheduleStore，仅存在于内存。
// 会话在空闲超过 session_ttl 后过期，由 Sweep 回收。
// ─────────────────────────────────────────────────────────────

// SchedulerService 周排课会话业务接口
type SchedulerService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetSession(ctx context.Context, id string) (*dto.SessionResponse, error)
	DayEntries(ctx context.Context, id, day string) (*dto.DayEntriesResponse, error)
	// AddEntry 冲突时返回 *scheduling.ClashError，参数非法时返回 *scheduling.ValidationError
	AddEntry(ctx context.Context, id string, req *dto.AddScheduleEntryRequest) (*dto.AddScheduleEntryResponse, error)
	DeleteSession(ctx context.Context, id string) error
	// Sweep 回收过期会话，返回回收数量
	Sweep() int
	// RunJanitor 周期性执行 Sweep，直到 ctx 结束
	RunJanitor(ctx context.Context, interval time.Duration)
}

type session struct {
	store    *scheduling.ScheduleStore
	lastSeen time.Time
}

type schedulerService struct {
	cfg    *config.SchedulerConfig
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSchedulerService 创建 SchedulerService 实例
func NewSchedulerService(cfg *config.SchedulerConfig, logger *zap.Logger) SchedulerService {
	return &schedulerService{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (s *schedulerService) CreateSession(_ context.Context) (*dto.CreateSessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	if len(s.sessions) >= s.cfg.MaxSessions {
		return nil, ErrSessionLimit
	}

	id := uuid.NewString()
	now := s.now()
	s.sessions[id] = &session{store: scheduling.NewScheduleStore(), lastSeen: now}

	s.logger.Debug("创建排课会话", zap.String("session_id", id))
	return &dto.CreateSessionResponse{
		SessionID: id,
		ExpiresAt: now.Add(s.cfg.SessionTTL).Format(time.RFC3339),
	}, nil
}

func (s *schedulerService) GetSession(_ context.Context, id string) (*dto.SessionResponse, error) {
	sess, expiresAt, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	snap := sess.store.Snapshot()
	days := make(map[string][]scheduling.ScheduleEntry, len(scheduling.WeekDays))
	total := 0
	for _, d := range scheduling.WeekDays {
		entries := snap[d]
		if entries == nil {
			entries = []scheduling.ScheduleEntry{}
		}
		days[string(d)] = entries
		total += len(entries)
	}

	return &dto.SessionResponse{
		SessionID: id,
		Days:      days,
		Total:     total,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

func (s *schedulerService) DayEntries(_ context.Context, id, day string) (*dto.DayEntriesResponse, error) {
	d, err := scheduling.ParseDay(day)
	if err != nil {
		return nil, err
	}
	sess, _, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	return &dto.DayEntriesResponse{Day: string(d), Entries: sess.store.EntriesForDay(d)}, nil
}

func (s *schedulerService) AddEntry(_ context.Context, id string, req *dto.AddScheduleEntryRequest) (*dto.AddScheduleEntryResponse, error) {
	d, err := scheduling.ParseDay(req.Day)
	if err != nil {
		return nil, err
	}
	sess, _, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	entry := scheduling.NewScheduleEntry(req.Tutor, req.Subject, req.Time)
	if _, err := sess.store.AddEntry(d, entry); err != nil {
		var clash *scheduling.ClashError
		if errors.As(err, &clash) {
			s.logger.Info("排课冲突",
				zap.String("session_id", id),
				zap.String("day", string(d)),
				zap.String("tutor", entry.Tutor),
				zap.String("time", entry.Time),
			)
		}
		return nil, err
	}

	return &dto.AddScheduleEntryResponse{
		Accepted: true,
		Day:      string(d),
		Entry:    entry,
		Entries:  sess.store.EntriesForDay(d),
	}, nil
}

func (s *schedulerService) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *schedulerService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *schedulerService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("回收过期排课会话", zap.Int("count", n))
			}
		}
	}
}

// sweepLocked 调用方须持有 s.mu
func (s *schedulerService) sweepLocked() int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)
	n := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// touch 取出会话并刷新空闲计时；已过期的会话视为不存在
func (s *schedulerService) touch(id string) (*session, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, time.Time{}, ErrSessionNotFound
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.cfg.SessionTTL {
		delete(s.sessions, id)
		return nil, time.Time{}, ErrSessionNotFound
	}
	sess.lastSeen = now
	return sess, now.Add(s.cfg.SessionTTL), nil
}
