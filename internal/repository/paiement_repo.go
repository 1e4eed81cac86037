package repository

import (
	"context"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaiementListFilter struct {
	NoteTaxationID *uuid.UUID
	Statut         string
	Page           int
	Limit          int
}

type PaiementRepository interface {
	Create(ctx context.Context, paiement *model.Paiement) error
	Update(ctx context.Context, paiement *model.Paiement) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Paiement, error)
	// SommeConfirmee aggregates all CONFIRME payments of a note. Callers that
	// need a consistent read must hold the note row lock in the same
	// transaction (see NoteRepository.FindByIDVerrou).
	SommeConfirmee(ctx context.Context, noteID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, filter PaiementListFilter) ([]model.Paiement, int64, error)
}

type paiementRepository struct {
	db *gorm.DB
}

func NewPaiementRepository(db *gorm.DB) PaiementRepository {
	return &paiementRepository{db: db}
}

func (r *paiementRepository) Create(ctx context.Context, paiement *model.Paiement) error {
	return GetDB(ctx, r.db).Create(paiement).Error
}

func (r *paiementRepository) Update(ctx context.Context, paiement *model.Paiement) error {
	return GetDB(ctx, r.db).Save(paiement).Error
}

func (r *paiementRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Paiement, error) {
	var paiement model.Paiement
	if err := GetDB(ctx, r.db).First(&paiement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &paiement, nil
}

func (r *paiementRepository) SommeConfirmee(ctx context.Context, noteID uuid.UUID) (decimal.Decimal, error) {
	var somme decimal.NullDecimal
	err := GetDB(ctx, r.db).Model(&model.Paiement{}).
		Select("SUM(montant)").
		Where("note_taxation_id = ? AND statut = ?", noteID, model.StatutPaiementConfirme).
		Scan(&somme).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !somme.Valid {
		return decimal.Zero, nil
	}
	return somme.Decimal, nil
}

func (r *paiementRepository) List(ctx context.Context, filter PaiementListFilter) ([]model.Paiement, int64, error) {
	var paiements []model.Paiement
	var total int64

	db := GetDB(ctx, r.db)
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.NoteTaxationID != nil {
			q = q.Where("note_taxation_id = ?", *filter.NoteTaxationID)
		}
		if filter.Statut != "" {
			q = q.Where("statut = ?", filter.Statut)
		}
		return q
	}

	if err := applyFilter(db.Model(&model.Paiement{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := applyFilter(db.Preload("NoteTaxation")).
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&paiements).Error; err != nil {
		return nil, 0, err
	}

	return paiements, total, nil
}
