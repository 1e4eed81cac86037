package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TypeEntite enum constants
const (
	TypeEntiteProvince = "PROVINCE"
	TypeEntiteVille    = "VILLE"
	TypeEntiteCommune  = "COMMUNE"
	TypeEntiteQuartier = "QUARTIER"
)

// ZoneTarifaire enum constants
const (
	ZoneUrbaine = "URBAINE"
	ZoneRurale  = "RURALE"
)

// EntiteTerritoriale is a node in the administrative hierarchy. The fiscal
// prefix used in note numbering and the tariff zone are carried by the
// node that defines them; descendants inherit by walking up the parent chain.
type EntiteTerritoriale struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Nom           string              `gorm:"type:varchar(255);not null" json:"nom"`
	Type          string              `gorm:"type:varchar(20);not null;index" json:"type"`
	ParentID      *uuid.UUID          `gorm:"type:uuid;index" json:"parent_id"`
	Parent        *EntiteTerritoriale `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	PrefixeFiscal string              `gorm:"type:varchar(10);index" json:"prefixe_fiscal"` // Empty when inherited from an ancestor
	Zone          string              `gorm:"type:varchar(10)" json:"zone"`                 // URBAINE / RURALE, empty when inherited
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (e *EntiteTerritoriale) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
