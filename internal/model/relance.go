package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PalierRelance enum constants, in escalation order
const (
	PalierRappelAmical        = "RAPPEL_AMICAL"
	PalierAvertissementUrgent = "AVERTISSEMENT_URGENT"
	PalierMiseEnDemeure       = "MISE_EN_DEMEURE"
	PalierDernierAvis         = "DERNIER_AVIS"
)

// CanalRelance enum constants
const (
	CanalRelanceEmail = "EMAIL"
)

// StatutRelance enum constants
const (
	StatutRelanceEnvoyee = "ENVOYEE"
)

// Relance records one escalation notice sent for a note. The unique index on
// (note, palier) is the idempotency guard: a stage is never notified twice,
// even across concurrent escalation runs.
type Relance struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	NoteTaxationID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:ux_relances_note_palier" json:"note_taxation_id"`
	NoteTaxation   *NoteTaxation `gorm:"foreignKey:NoteTaxationID" json:"note_taxation,omitempty"`
	Palier         string        `gorm:"type:varchar(25);not null;uniqueIndex:ux_relances_note_palier" json:"palier"`
	Canal          string        `gorm:"type:varchar(10);not null;default:'EMAIL'" json:"canal"`
	Statut         string        `gorm:"type:varchar(15);not null;default:'ENVOYEE'" json:"statut"`
	EnvoyeLe       *time.Time    `json:"envoye_le"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (r *Relance) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
