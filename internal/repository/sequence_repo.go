package repository

import (
	"context"
	"errors"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"gorm.io/gorm"
)

// SequenceRepository hands out note sequence numbers from a dedicated
// per-jurisdiction counter row instead of parsing the last issued identifier.
type SequenceRepository interface {
	// ProchaineValeur locks the counter row for the prefix, increments it and
	// returns the new value. Must be called inside a transaction: an aborted
	// declaration may leave a gap but can never produce a duplicate.
	ProchaineValeur(ctx context.Context, prefixe string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) ProchaineValeur(ctx context.Context, prefixe string) (int64, error) {
	db := GetDB(ctx, r.db)

	var seq model.SequenceNote
	err := verrouLigne(db).
		Where("prefixe = ?", prefixe).
		First(&seq).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
		seq = model.SequenceNote{Prefixe: prefixe}
		if err := db.Create(&seq).Error; err != nil {
			return 0, err
		}
	}

	seq.DerniereValeur++
	if err := db.Model(&model.SequenceNote{}).
		Where("prefixe = ?", prefixe).
		Update("derniere_valeur", seq.DerniereValeur).Error; err != nil {
		return 0, err
	}

	return seq.DerniereValeur, nil
}
