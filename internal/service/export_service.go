package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tutordesk/internal/dto"
	"tutordesk/internal/scheduling"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// Excel 格式：列为星期（周一 ~ 周日），行为小时，单元格内每行一节课。
type ExportService interface {
	// ExportTimetable 导出投影网格为 Excel
	ExportTimetable(ctx context.Context, req *dto.GridRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	timetable TimetableService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(timetable TimetableService, logger *zap.Logger) ExportService {
	return &exportService{timetable: timetable, logger: logger}
}

const exportSheet = "Timetable"

func (s *exportService) ExportTimetable(ctx context.Context, req *dto.GridRequest) (*bytes.Buffer, string, error) {
	// 1. 投影
	grid, err := s.timetable.Project(ctx, req)
	if err != nil {
		return nil, "", err
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(exportSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	f.SetColWidth(exportSheet, "A", "A", 10)
	lastCol := colName(scheduling.DaysPerWeek)
	f.SetColWidth(exportSheet, "B", lastCol, 26)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	// 标题行
	title := "Tutor Timetable"
	if req.TutorID != "" {
		if name := firstTutorName(grid); name != "" {
			title = name + " Timetable"
		}
	}
	f.SetCellValue(exportSheet, "A1", title)
	f.MergeCell(exportSheet, "A1", cell(lastCol, 1))
	f.SetCellStyle(exportSheet, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(exportSheet, cell("A", row), "Time")
	for d, name := range scheduling.DayNames {
		f.SetCellValue(exportSheet, cell(colName(d+1), row), name)
	}
	f.SetCellStyle(exportSheet, cell("A", row), cell(lastCol, row), headerStyle)

	// 数据行：每小时一行
	row = 3
	for _, h := range grid.Hours() {
		f.SetCellValue(exportSheet, cell("A", row), fmt.Sprintf("%02d:00", h))
		for d := 0; d < scheduling.DaysPerWeek; d++ {
			entries := grid.Cell(d, h)
			if len(entries) == 0 {
				continue
			}
			lines := make([]string, 0, len(entries))
			for _, e := range entries {
				lines = append(lines, fmt.Sprintf("%s-%s %s (%s)", e.StartTime, e.EndTime, e.DisplaySubject(), e.DisplayTutor()))
			}
			f.SetCellValue(exportSheet, cell(colName(d+1), row), strings.Join(lines, "\n"))
		}
		f.SetCellStyle(exportSheet, cell("B", row), cell(lastCol, row), cellStyle)
		row++
	}

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := "timetable.xlsx"
	if req.TutorID != "" {
		filename = fmt.Sprintf("timetable_%s.xlsx", req.TutorID)
	}
	return buf, filename, nil
}

// ── 辅助函数 ──

func firstTutorName(g *scheduling.Grid) string {
	for _, entries := range g.ByDay {
		for _, e := range entries {
			if e.TutorName != "" {
				return e.TutorName
			}
		}
	}
	return ""
}

// colName 0 基列号 → Excel 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
