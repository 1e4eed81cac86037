package repository

import (
	"context"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RelanceRepository interface {
	// Create inserts a relance row. The unique index on (note, palier) makes
	// the insert fail under concurrent runs instead of duplicating a notice.
	Create(ctx context.Context, relance *model.Relance) error
	Existe(ctx context.Context, noteID uuid.UUID, palier string) (bool, error)
	ListByNote(ctx context.Context, noteID uuid.UUID) ([]model.Relance, error)
}

type relanceRepository struct {
	db *gorm.DB
}

func NewRelanceRepository(db *gorm.DB) RelanceRepository {
	return &relanceRepository{db: db}
}

func (r *relanceRepository) Create(ctx context.Context, relance *model.Relance) error {
	return GetDB(ctx, r.db).Create(relance).Error
}

func (r *relanceRepository) Existe(ctx context.Context, noteID uuid.UUID, palier string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Relance{}).
		Where("note_taxation_id = ? AND palier = ?", noteID, palier).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *relanceRepository) ListByNote(ctx context.Context, noteID uuid.UUID) ([]model.Relance, error) {
	var relances []model.Relance
	err := GetDB(ctx, r.db).
		Where("note_taxation_id = ?", noteID).
		Order("created_at asc").
		Find(&relances).Error
	if err != nil {
		return nil, err
	}
	return relances, nil
}
