package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"tutordesk/internal/dto"
	"tutordesk/internal/model"
	"tutordesk/internal/scheduling"
)

// ── 上游导入 ────────────────────────────────────────────────
//
// 支持两种上游格式：
//   - JSON：裸数组或 {count, next, results} 分页信封
//   - iCalendar：以 BEGIN:VCALENDAR 开头，需指定 tutor_id
//
// 非法行（星期越界、时间无法解析、导师不存在）计入 skipped，不中断导入。
// ─────────────────────────────────────────────────────────────

var (
	ErrImportFetchFailed   = errors.New("获取上游时间表失败")
	ErrImportTooLarge      = errors.New("上游时间表超过大小限制")
	ErrImportParseFailed   = errors.New("上游时间表解析失败")
	ErrImportTutorRequired = errors.New("iCalendar 导入需要指定 tutor_id")
)

// importRow 上游 JSON 行；day_of_week 可能是数字或数字字符串
type importRow struct {
	TutorID            string          `json:"tutor_id"`
	DayOfWeek          json.RawMessage `json:"day_of_week"`
	StartTime          string          `json:"start_time"`
	EndTime            string          `json:"end_time"`
	Subject            string          `json:"subject"`
	ActiveStudentCount *int            `json:"active_student_count"`
}

func (s *timetableService) Import(ctx context.Context, req *dto.ImportTimetableRequest) (*dto.ImportTimetableResponse, error) {
	if req.TutorID != "" {
		if _, err := s.findTutor(ctx, req.TutorID); err != nil {
			return nil, err
		}
	}

	body, err := s.fetcher.fetch(ctx, req.URL)
	if err != nil {
		s.logger.Warn("拉取上游时间表失败", zap.String("url", req.URL), zap.Error(err))
		if errors.Is(err, ErrImportTooLarge) {
			return nil, err
		}
		return nil, ErrImportFetchFailed
	}

	var (
		rows        []importRow
		unparseable int
	)
	if isICalendar(body) {
		if req.TutorID == "" {
			return nil, ErrImportTutorRequired
		}
		loc, _ := time.LoadLocation(s.cfg.Timezone)
		rows, unparseable, err = parseICalendar(bytes.NewReader(body), req.TutorID, loc)
	} else {
		var list scheduling.NormalizedList[importRow]
		list, err = scheduling.NormalizeList[importRow](body)
		rows = list.Items
	}
	if err != nil {
		s.logger.Warn("解析上游时间表失败", zap.String("url", req.URL), zap.Error(err))
		return nil, ErrImportParseFailed
	}

	entries, invalid := s.buildImportEntries(ctx, rows, req.TutorID)
	skipped := unparseable + invalid

	if err := s.repo.TimetableEntry.BatchCreate(ctx, entries); err != nil {
		s.logger.Error("批量写入导入条目失败", zap.Error(err))
		return nil, fmt.Errorf("导入失败: %w", err)
	}
	if len(entries) > 0 {
		invalidateGrid(ctx, s.cache, s.logger)
	}

	s.logger.Info("上游时间表导入完成",
		zap.String("url", req.URL),
		zap.Int("imported", len(entries)),
		zap.Int("skipped", skipped),
	)
	return &dto.ImportTimetableResponse{
		Fetched:  len(rows) + unparseable,
		Imported: len(entries),
		Skipped:  skipped,
	}, nil
}

// buildImportEntries 校验上游行并转为模型，返回合法条目与非法行数
func (s *timetableService) buildImportEntries(ctx context.Context, rows []importRow, fallbackTutor string) ([]model.TimetableEntry, int) {
	known := make(map[string]bool)
	entries := make([]model.TimetableEntry, 0, len(rows))
	invalid := 0

	for _, row := range rows {
		day := scheduling.CoerceDayOfWeek(row.DayOfWeek)
		tutorID := strings.TrimSpace(row.TutorID)
		if tutorID == "" {
			tutorID = fallbackTutor
		}
		if day == nil || tutorID == "" || dto.ValidateSpan(row.StartTime, row.EndTime) != nil {
			invalid++
			continue
		}

		ok, seen := known[tutorID]
		if !seen {
			_, err := s.findTutor(ctx, tutorID)
			ok = err == nil
			known[tutorID] = ok
		}
		if !ok {
			invalid++
			continue
		}

		entries = append(entries, model.TimetableEntry{
			TutorID:            tutorID,
			DayOfWeek:          *day,
			StartTime:          row.StartTime,
			EndTime:            row.EndTime,
			Subject:            strings.TrimSpace(row.Subject),
			ActiveStudentCount: row.ActiveStudentCount,
		})
	}
	return entries, invalid
}

// ── 拉取 ──

type fetcher struct {
	client  *http.Client
	maxSize int64
}

func newFetcher(timeout time.Duration, maxSize int64) *fetcher {
	return &fetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

// fetch 拉取上游内容，webcal:// 视为 https://
func (f *fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/calendar")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	// 多读 1 字节用于判断是否超限
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxSize {
		return nil, ErrImportTooLarge
	}
	return body, nil
}

func isICalendar(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("BEGIN:VCALENDAR"))
}
