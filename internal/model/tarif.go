package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tarif is one row of the tariff grid: the unit price charged for a device
// category to a taxpayer category in a tariff zone. The grid is administered
// externally; the calculator only reads active rows.
type Tarif struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CategorieAppareil  string          `gorm:"type:varchar(30);not null;index:ix_tarifs_lookup" json:"categorie_appareil"`
	CategorieAssujetti string          `gorm:"type:varchar(40);not null;index:ix_tarifs_lookup" json:"categorie_assujetti"`
	Zone               string          `gorm:"type:varchar(10);not null;index:ix_tarifs_lookup" json:"zone"`
	PrixUnitaire       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"prix_unitaire"`
	Actif              bool            `gorm:"not null;default:true;index" json:"actif"`
	Description        string          `gorm:"type:text" json:"description"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (t *Tarif) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
