package repository

import (
	"context"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssujettiListFilter struct {
	Statut    string
	Categorie string
	Recherche string // partial match on nom / raison_sociale
	Page      int
	Limit     int
}

type AssujettiRepository interface {
	Create(ctx context.Context, assujetti *model.Assujetti) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Assujetti, error)
	FindByIDWithEntite(ctx context.Context, id uuid.UUID) (*model.Assujetti, error)
	List(ctx context.Context, filter AssujettiListFilter) ([]model.Assujetti, int64, error)
	Update(ctx context.Context, assujetti *model.Assujetti) error
	UpdateStatut(ctx context.Context, id uuid.UUID, statut string) error
}

type assujettiRepository struct {
	db *gorm.DB
}

func NewAssujettiRepository(db *gorm.DB) AssujettiRepository {
	return &assujettiRepository{db: db}
}

func (r *assujettiRepository) Create(ctx context.Context, assujetti *model.Assujetti) error {
	return GetDB(ctx, r.db).Create(assujetti).Error
}

func (r *assujettiRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Assujetti, error) {
	var assujetti model.Assujetti
	if err := GetDB(ctx, r.db).First(&assujetti, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assujetti, nil
}

func (r *assujettiRepository) FindByIDWithEntite(ctx context.Context, id uuid.UUID) (*model.Assujetti, error) {
	var assujetti model.Assujetti
	if err := GetDB(ctx, r.db).Preload("EntiteTerritoriale").First(&assujetti, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assujetti, nil
}

func (r *assujettiRepository) List(ctx context.Context, filter AssujettiListFilter) ([]model.Assujetti, int64, error) {
	var assujettis []model.Assujetti
	var total int64

	db := GetDB(ctx, r.db)
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.Statut != "" {
			q = q.Where("statut = ?", filter.Statut)
		}
		if filter.Categorie != "" {
			q = q.Where("categorie = ?", filter.Categorie)
		}
		if filter.Recherche != "" {
			like := "%" + filter.Recherche + "%"
			q = q.Where("nom LIKE ? OR raison_sociale LIKE ?", like, like)
		}
		return q
	}

	if err := applyFilter(db.Model(&model.Assujetti{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := applyFilter(db.Preload("EntiteTerritoriale")).
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&assujettis).Error; err != nil {
		return nil, 0, err
	}

	return assujettis, total, nil
}

func (r *assujettiRepository) Update(ctx context.Context, assujetti *model.Assujetti) error {
	return GetDB(ctx, r.db).Save(assujetti).Error
}

func (r *assujettiRepository) UpdateStatut(ctx context.Context, id uuid.UUID, statut string) error {
	return GetDB(ctx, r.db).Model(&model.Assujetti{}).Where("id = ?", id).
		Update("statut", statut).Error
}
