package database

import (
	"github.com/bbasabana/redevance-sub001/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate auto-migrates the core models. Split out so test setups can run it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.EntiteTerritoriale{},
		&model.Assujetti{},
		&model.Tarif{},
		&model.Declaration{},
		&model.LigneDeclaration{},
		&model.NoteTaxation{},
		&model.SequenceNote{},
		&model.Paiement{},
		&model.Relance{},
		&model.JournalAudit{},
	)
}
