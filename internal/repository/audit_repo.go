package repository

import (
	"context"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *model.JournalAudit) error
	List(ctx context.Context, action string, page, limit int) ([]model.JournalAudit, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *model.JournalAudit) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, action string, page, limit int) ([]model.JournalAudit, int64, error) {
	var entries []model.JournalAudit
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.JournalAudit{})
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("User").Order("created_at desc").Offset(offset).Limit(limit)
	if action != "" {
		fetch = fetch.Where("action = ?", action)
	}
	if err := fetch.Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
