package repository

import (
	"context"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeclarationListFilter struct {
	AssujettiID *uuid.UUID
	Exercice    int
	Statut      string
	Page        int
	Limit       int
}

type DeclarationRepository interface {
	Create(ctx context.Context, declaration *model.Declaration) error
	Update(ctx context.Context, declaration *model.Declaration) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Declaration, error)
	FindByIDWithLignes(ctx context.Context, id uuid.UUID) (*model.Declaration, error)
	FindByAssujettiAndExercice(ctx context.Context, assujettiID uuid.UUID, exercice int) (*model.Declaration, error)
	List(ctx context.Context, filter DeclarationListFilter) ([]model.Declaration, int64, error)
	DeleteLignes(ctx context.Context, declarationID uuid.UUID) error
	CreateLignes(ctx context.Context, lignes []model.LigneDeclaration) error
	CountLignes(ctx context.Context, declarationID uuid.UUID) (int64, error)
}

type declarationRepository struct {
	db *gorm.DB
}

func NewDeclarationRepository(db *gorm.DB) DeclarationRepository {
	return &declarationRepository{db: db}
}

func (r *declarationRepository) Create(ctx context.Context, declaration *model.Declaration) error {
	return GetDB(ctx, r.db).Create(declaration).Error
}

func (r *declarationRepository) Update(ctx context.Context, declaration *model.Declaration) error {
	return GetDB(ctx, r.db).Save(declaration).Error
}

func (r *declarationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Declaration, error) {
	var declaration model.Declaration
	if err := GetDB(ctx, r.db).First(&declaration, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &declaration, nil
}

func (r *declarationRepository) FindByIDWithLignes(ctx context.Context, id uuid.UUID) (*model.Declaration, error) {
	var declaration model.Declaration
	if err := GetDB(ctx, r.db).Preload("Lignes").Preload("Assujetti").
		First(&declaration, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &declaration, nil
}

func (r *declarationRepository) FindByAssujettiAndExercice(ctx context.Context, assujettiID uuid.UUID, exercice int) (*model.Declaration, error) {
	var declaration model.Declaration
	err := GetDB(ctx, r.db).
		Where("assujetti_id = ? AND exercice = ?", assujettiID, exercice).
		First(&declaration).Error
	if err != nil {
		return nil, err
	}
	return &declaration, nil
}

func (r *declarationRepository) List(ctx context.Context, filter DeclarationListFilter) ([]model.Declaration, int64, error) {
	var declarations []model.Declaration
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
		return q
	}

	if err := applyFilter(db.Model(&model.Declaration{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := applyFilter(db.Preload("Lignes").Preload("Assujetti")).
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&declarations).Error; err != nil {
		return nil, 0, err
	}

	return declarations, total, nil
}

func (r *declarationRepository) DeleteLignes(ctx context.Context, declarationID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("declaration_id = ?", declarationID).
		Delete(&model.LigneDeclaration{}).Error
}

func (r *declarationRepository) CreateLignes(ctx context.Context, lignes []model.LigneDeclaration) error {
	if len(lignes) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&lignes).Error
}

func (r *declarationRepository) CountLignes(ctx context.Context, declarationID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.LigneDeclaration{}).
		Where("declaration_id = ?", declarationID).
		Count(&count).Error
	return count, err
}
