package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tutordesk/internal/dto"
)

func setupTestExportService() (ExportService, *testRepos) {
	timetable, mocks := setupTestTimetableService(nil)
	return NewExportService(timetable, zap.NewNop()), mocks
}

func TestExportService_ExportTimetable_Success(t *testing.T) {
	svc, m := setupTestExportService()
	seedTutor(m, "t1", "Sam")
	seedEntry(m, "t1", 0, "09:00", "10:00", "Maths")
	seedEntry(m, "t1", 0, "09:30", "10:30", "")

	buf, filename, err := svc.ExportTimetable(context.Background(), &dto.GridRequest{})
	if err != nil {
		t.Fatalf("ExportTimetable 应成功: %v", err)
	}
	if filename != "timetable.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("输出应为有效 xlsx: %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue(exportSheet, "B2")
	if header != "Monday" {
		t.Errorf("B2 应为 Monday，实际 %q", header)
	}
	hour, _ := f.GetCellValue(exportSheet, "A3")
	if hour != "09:00" {
		t.Errorf("A3 应为 09:00，实际 %q", hour)
	}
	content, _ := f.GetCellValue(exportSheet, "B3")
	lines := strings.Split(content, "\n")
	if len(lines) != 2 || lines[0] != "09:00-10:00 Maths (Sam)" || lines[1] != "09:30-10:30 Untitled (Sam)" {
		t.Errorf("单元格内容不符: %q", content)
	}
	rows, _ := f.GetRows(exportSheet)
	if len(rows) != 2+14 {
		t.Errorf("期望 16 行（标题+表头+14 小时），实际 %d", len(rows))
	}
}

func TestExportService_ExportTimetable_PerTutorTitle(t *testing.T) {
	svc, m := setupTestExportService()
	seedTutor(m, "t1", "Sam")
	seedEntry(m, "t1", 2, "11:00", "12:00", "Maths")

	buf, filename, err := svc.ExportTimetable(context.Background(), &dto.GridRequest{TutorID: "t1"})
	if err != nil {
		t.Fatalf("ExportTimetable 应成功: %v", err)
	}
	if filename != "timetable_t1.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("输出应为有效 xlsx: %v", err)
	}
	defer f.Close()
	title, _ := f.GetCellValue(exportSheet, "A1")
	if title != "Sam Timetable" {
		t.Errorf("标题不符: %q", title)
	}
}

func TestExportService_ExportTimetable_UnknownTutor(t *testing.T) {
	svc, _ := setupTestExportService()
	_, _, err := svc.ExportTimetable(context.Background(), &dto.GridRequest{TutorID: "ghost"})
	if !errors.Is(err, ErrTutorNotFound) {
		t.Errorf("期望 ErrTutorNotFound，实际: %v", err)
	}
}
