package repository

import (
	"context"

	"gorm.io/gorm"

	"tutordesk/internal/model"
	pkgerrors "tutordesk/pkg/errors"
)

// TimetableEntryRepository 时间表条目数据访问接口
type TimetableEntryRepository interface {
	Create(ctx context.Context, entry *model.TimetableEntry) error
	BatchCreate(ctx context.Context, entries []model.TimetableEntry) error
	GetByID(ctx context.Context, id string) (*model.TimetableEntry, error)
	// List 返回全部条目；tutorID 非空时只返回该导师的条目
	List(ctx context.Context, tutorID string) ([]model.TimetableEntry, error)
	// Update 乐观锁更新，版本不符时返回 ErrOptimisticLock
	Update(ctx context.Context, entry *model.TimetableEntry) error
	Delete(ctx context.Context, id string) error
}

type timetableEntryRepo struct {
	db *gorm.DB
}

// NewTimetableEntryRepo 创建 TimetableEntryRepository 实例
func NewTimetableEntryRepo(db *gorm.DB) TimetableEntryRepository {
	return &timetableEntryRepo{db: db}
}

func (r *timetableEntryRepo) Create(ctx context.Context, entry *model.TimetableEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *timetableEntryRepo) BatchCreate(ctx context.Context, entries []model.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&entries, 100).Error
}

func (r *timetableEntryRepo) GetByID(ctx context.Context, id string) (*model.TimetableEntry, error) {
	var entry model.TimetableEntry
	err := r.db.WithContext(ctx).
		Preload("Tutor").
		Where("timetable_entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timetableEntryRepo) List(ctx context.Context, tutorID string) ([]model.TimetableEntry, error) {
	var entries []model.TimetableEntry
	db := r.db.WithContext(ctx).Preload("Tutor")
	if tutorID != "" {
		db = db.Where("tutor_id = ?", tutorID)
	}
	err := db.Order("day_of_week ASC, start_time ASC").Find(&entries).Error
	return entries, err
}

func (r *timetableEntryRepo) Update(ctx context.Context, entry *model.TimetableEntry) error {
	oldVersion := entry.Version
	result := r.db.WithContext(ctx).
		Model(&model.TimetableEntry{}).
		Where("timetable_entry_id = ? AND version = ?", entry.TimetableEntryID, oldVersion).
		Updates(map[string]interface{}{
			"tutor_id":             entry.TutorID,
			"day_of_week":          entry.DayOfWeek,
			"start_time":           entry.StartTime,
			"end_time":             entry.EndTime,
			"subject":              entry.Subject,
			"active_student_count": entry.ActiveStudentCount,
			"version":              oldVersion + 1,
			"updated_at":           gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version = oldVersion + 1
	return nil
}

func (r *timetableEntryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("timetable_entry_id = ?", id).
		Delete(&model.TimetableEntry{}).Error
}
