package repository

import (
	"context"

	"gorm.io/gorm"

	"tutordesk/internal/model"
)

// TutorRepository 导师数据访问接口
type TutorRepository interface {
	Create(ctx context.Context, tutor *model.Tutor) error
	GetByID(ctx context.Context, id string) (*model.Tutor, error)
	List(ctx context.Context, activeOnly bool) ([]model.Tutor, error)
	Update(ctx context.Context, tutor *model.Tutor) error
	// Delete 软删除导师及其全部时间表条目
	Delete(ctx context.Context, id string) error
}

type tutorRepo struct {
	db *gorm.DB
}

// NewTutorRepo 创建 TutorRepository 实例
func NewTutorRepo(db *gorm.DB) TutorRepository {
	return &tutorRepo{db: db}
}

func (r *tutorRepo) Create(ctx context.Context, tutor *model.Tutor) error {
	return r.db.WithContext(ctx).Create(tutor).Error
}

func (r *tutorRepo) GetByID(ctx context.Context, id string) (*model.Tutor, error) {
	var tutor model.Tutor
	err := r.db.WithContext(ctx).
		Where("tutor_id = ?", id).
		First(&tutor).Error
	if err != nil {
		return nil, err
	}
	return &tutor, nil
}

func (r *tutorRepo) List(ctx context.Context, activeOnly bool) ([]model.Tutor, error) {
	var tutors []model.Tutor
	db := r.db.WithContext(ctx)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&tutors).Error
	return tutors, err
}

func (r *tutorRepo) Update(ctx context.Context, tutor *model.Tutor) error {
	return r.db.WithContext(ctx).Save(tutor).Error
}

func (r *tutorRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 外键不会因软删除触发，条目需同步软删除
		if err := tx.Where("tutor_id = ?", id).Delete(&model.TimetableEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("tutor_id = ?", id).Delete(&model.Tutor{}).Error
	})
}
