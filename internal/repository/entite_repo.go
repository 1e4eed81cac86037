package repository

import (
	"context"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EntiteRepository interface {
	Create(ctx context.Context, entite *model.EntiteTerritoriale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.EntiteTerritoriale, error)
	List(ctx context.Context, typeEntite string) ([]model.EntiteTerritoriale, error)
}

type entiteRepository struct {
	db *gorm.DB
}

func NewEntiteRepository(db *gorm.DB) EntiteRepository {
	return &entiteRepository{db: db}
}

func (r *entiteRepository) Create(ctx context.Context, entite *model.EntiteTerritoriale) error {
	return GetDB(ctx, r.db).Create(entite).Error
}

func (r *entiteRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EntiteTerritoriale, error) {
	var entite model.EntiteTerritoriale
	if err := GetDB(ctx, r.db).First(&entite, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entite, nil
}

func (r *entiteRepository) List(ctx context.Context, typeEntite string) ([]model.EntiteTerritoriale, error) {
	var entites []model.EntiteTerritoriale
	query := GetDB(ctx, r.db).Order("nom asc")
	if typeEntite != "" {
		query = query.Where("type = ?", typeEntite)
	}
	if err := query.Find(&entites).Error; err != nil {
		return nil, err
	}
	return entites, nil
}
