package repository

import (
	"context"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteListFilter struct {
	AssujettiID *uuid.UUID
	Exercice    int
	Statut      string
	NumeroNote  string // partial match
	Page        int
	Limit       int
}

type NoteRepository interface {
	Create(ctx context.Context, note *model.NoteTaxation) error
	Update(ctx context.Context, note *model.NoteTaxation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.NoteTaxation, error)
	// FindByIDVerrou loads the note under a FOR UPDATE row lock so concurrent
	// payment validations on the same note serialize their aggregate reads.
	FindByIDVerrou(ctx context.Context, id uuid.UUID) (*model.NoteTaxation, error)
	FindByDeclaration(ctx context.Context, declarationID uuid.UUID) (*model.NoteTaxation, error)
	FindByAssujetti(ctx context.Context, assujettiID uuid.UUID) ([]model.NoteTaxation, error)
	FindByAssujettiAndExercice(ctx context.Context, assujettiID uuid.UUID, exercice int) ([]model.NoteTaxation, error)
	// FindRelancables returns the notes the escalation run considers: an
	// outstanding balance status and an established delivery date.
	FindRelancables(ctx context.Context) ([]model.NoteTaxation, error)
	List(ctx context.Context, filter NoteListFilter) ([]model.NoteTaxation, int64, error)
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *model.NoteTaxation) error {
	return GetDB(ctx, r.db).Create(note).Error
}

func (r *noteRepository) Update(ctx context.Context, note *model.NoteTaxation) error {
	return GetDB(ctx, r.db).Save(note).Error
}

func (r *noteRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.NoteTaxation, error) {
	var note model.NoteTaxation
	if err := GetDB(ctx, r.db).First(&note, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) FindByIDVerrou(ctx context.Context, id uuid.UUID) (*model.NoteTaxation, error) {
	var note model.NoteTaxation
	if err := verrouLigne(GetDB(ctx, r.db)).
		First(&note, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) FindByDeclaration(ctx context.Context, declarationID uuid.UUID) (*model.NoteTaxation, error) {
	var note model.NoteTaxation
	err := GetDB(ctx, r.db).Where("declaration_id = ?", declarationID).First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) FindByAssujetti(ctx context.Context, assujettiID uuid.UUID) ([]model.NoteTaxation, error) {
	var notes []model.NoteTaxation
	err := GetDB(ctx, r.db).
		Where("assujetti_id = ?", assujettiID).
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) FindByAssujettiAndExercice(ctx context.Context, assujettiID uuid.UUID, exercice int) ([]model.NoteTaxation, error) {
	var notes []model.NoteTaxation
	err := GetDB(ctx, r.db).
		Where("assujetti_id = ? AND exercice = ?", assujettiID, exercice).
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) FindRelancables(ctx context.Context) ([]model.NoteTaxation, error) {
	var notes []model.NoteTaxation
	err := GetDB(ctx, r.db).Preload("Assujetti").
		Where("statut IN ? AND date_remise IS NOT NULL",
			[]string{model.StatutNoteEmise, model.StatutNotePayeePartiellement, model.StatutNoteEnRetard}).
		Order("date_remise asc").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) List(ctx context.Context, filter NoteListFilter) ([]model.NoteTaxation, int64, error) {
	var notes []model.NoteTaxation
	var total int64

	db := GetDB(ctx, r.db)
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.AssujettiID != nil {
			q = q.Where("assujetti_id = ?", *filter.AssujettiID)
		}
		if filter.Exercice != 0 {
			q = q.Where("exercice = ?", filter.Exercice)
		}
		if filter.Statut != "" {
			q = q.Where("statut = ?", filter.Statut)
		}
		if filter.NumeroNote != "" {
			q = q.Where("numero_note LIKE ?", "%"+filter.NumeroNote+"%")
		}
		return q
	}

	if err := applyFilter(db.Model(&model.NoteTaxation{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := applyFilter(db.Preload("Assujetti")).
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&notes).Error; err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}
