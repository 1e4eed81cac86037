package repository

import (
	"context"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TarifRepository interface {
	Create(ctx context.Context, tarif *model.Tarif) error
	Update(ctx context.Context, tarif *model.Tarif) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tarif, error)
	// FindActif resolves the active tariff row for one device category,
	// taxpayer category and zone. Returns gorm.ErrRecordNotFound when the
	// grid has no active entry.
	FindActif(ctx context.Context, categorieAppareil, categorieAssujetti, zone string) (*model.Tarif, error)
	List(ctx context.Context, seulementActifs bool) ([]model.Tarif, error)
}

type tarifRepository struct {
	db *gorm.DB
}

func NewTarifRepository(db *gorm.DB) TarifRepository {
	return &tarifRepository{db: db}
}

func (r *tarifRepository) Create(ctx context.Context, tarif *model.Tarif) error {
	return GetDB(ctx, r.db).Create(tarif).Error
}

func (r *tarifRepository) Update(ctx context.Context, tarif *model.Tarif) error {
	return GetDB(ctx, r.db).Save(tarif).Error
}

func (r *tarifRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tarif, error) {
	var tarif model.Tarif
	if err := GetDB(ctx, r.db).First(&tarif, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tarif, nil
}

func (r *tarifRepository) FindActif(ctx context.Context, categorieAppareil, categorieAssujetti, zone string) (*model.Tarif, error) {
	var tarif model.Tarif
	err := GetDB(ctx, r.db).
		Where("categorie_appareil = ? AND categorie_assujetti = ? AND zone = ? AND actif = ?",
			categorieAppareil, categorieAssujetti, zone, true).
		Order("updated_at desc").
		First(&tarif).Error
	if err != nil {
		return nil, err
	}
	return &tarif, nil
}

func (r *tarifRepository) List(ctx context.Context, seulementActifs bool) ([]model.Tarif, error) {
	var tarifs []model.Tarif
	query := GetDB(ctx, r.db).Order("categorie_appareil, categorie_assujetti, zone")
	if seulementActifs {
		query = query.Where("actif = ?", true)
	}
	if err := query.Find(&tarifs).Error; err != nil {
		return nil, err
	}
	return tarifs, nil
}
